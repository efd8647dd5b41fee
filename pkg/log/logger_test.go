package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp: time.Now(),
		ManagerID: "mgr-1",
		Kind:      KindUpdate,
		Stage:     StageEnqueued,
	}
	logger.Log(event)

	event.Instruction = &InstructionEvent{IDs: []string{"1"}, Impacted: 2}
	logger.Log(event)

	event.Instruction = nil
	event.GC = &GCEvent{Trigger: GCTriggerTimer}
	logger.Log(event)

	event.GC = nil
	event.Error = &ErrorEventData{Reason: "DeleteIDFailure", Message: "test error"}
	logger.Log(event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
}
