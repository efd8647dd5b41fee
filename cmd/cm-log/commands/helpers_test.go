package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/graphcache/consistency-go/pkg/log"
)

const (
	testManager = "3f2b9c4e-8d1a-4c7e-9b2f-1a2b3c4d5e6f"
	otherMgr    = "a1b2c3d4-0000-4000-8000-000000000000"
)

var testTime = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.cmlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

// sampleEvents is one update, one delete that failed, and a GC pass.
func sampleEvents() []log.Event {
	took := 1500 * time.Microsecond
	return []log.Event{
		{
			Timestamp:     testTime,
			ManagerID:     testManager,
			InstructionID: "ins-1",
			Sequence:      1,
			Kind:          log.KindUpdate,
			Stage:         log.StageEnqueued,
			Instruction:   &log.InstructionEvent{IDs: []string{"0", "1"}},
		},
		{
			Timestamp:     testTime.Add(time.Millisecond),
			ManagerID:     testManager,
			InstructionID: "ins-1",
			Sequence:      1,
			Kind:          log.KindUpdate,
			Stage:         log.StageCommitted,
			Instruction: &log.InstructionEvent{
				IDs:            []string{"0", "1"},
				Impacted:       2,
				Notified:       2,
				ProcessingTime: &took,
			},
		},
		{
			Timestamp:     testTime.Add(time.Second),
			ManagerID:     testManager,
			InstructionID: "ins-2",
			Sequence:      2,
			Kind:          log.KindDelete,
			Stage:         log.StageFailed,
			Error: &log.ErrorEventData{
				Reason:  "DeleteIDFailure",
				Message: "model has no identifier",
			},
		},
		{
			Timestamp: testTime.Add(2 * time.Second),
			ManagerID: otherMgr,
			Kind:      log.KindGC,
			Stage:     log.StageCollected,
			GC: &log.GCEvent{
				Trigger:       log.GCTriggerLowMemory,
				BucketsBefore: 4,
				BucketsAfter:  2,
				SlotsPruned:   3,
			},
		},
	}
}
