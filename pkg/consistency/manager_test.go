package consistency

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/graphcache/consistency-go/internal/testmodel"
	"github.com/graphcache/consistency-go/pkg/consistency/mocks"
	"github.com/graphcache/consistency-go/pkg/log"
	"github.com/graphcache/consistency-go/pkg/model"
)

func TestAddListenerIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	l := testmodel.NewListener(tree("0", 0, tree("2", 2)))

	for i := 0; i < 3; i++ {
		require.NoError(t, m.AddListener(l))
	}

	for _, id := range []string{"0", "1", "2", "3"} {
		assert.Len(t, m.Listeners(id), 1, "id %s", id)
	}
	stats := m.Stats()
	assert.Equal(t, 1, stats.Listeners)
	assert.Equal(t, 4, stats.Buckets)
	assert.Equal(t, 4, stats.Slots)
}

func TestAddListenerSkipsAnonymousNodes(t *testing.T) {
	m := newTestManager(t)
	root := testmodel.GenerateTestModel(6, 2, func(id int) bool { return id != 2 })
	l := testmodel.NewListener(root)
	require.NoError(t, m.AddListener(l))

	assert.Empty(t, m.Listeners("2"))
	assert.Len(t, m.Listeners("3"), 1, "children of anonymous nodes are registered")
}

func TestAddListenerErrors(t *testing.T) {
	m := newTestManager(t)

	assert.ErrorIs(t, m.AddListener(nil), ErrNilListener)
	assert.ErrorIs(t, m.AddListener(funcListener(func() model.Node { return nil })), ErrNotComparable)

	// The type is comparable but hashing the value would panic.
	value := valueListener{tag: []string{"x"}}
	assert.ErrorIs(t, m.AddListener(value), ErrNotComparable)
	assert.ErrorIs(t, m.PauseListener(value), ErrNotComparable)
	assert.ErrorIs(t, m.ResumeListener(value), ErrNotComparable)
	assert.False(t, m.IsPaused(value))
	m.RemoveListener(value)
	assert.Equal(t, 0, m.Stats().Listeners)
	assert.ErrorIs(t, m.PauseListener(nil), ErrNilListener)
	assert.ErrorIs(t, m.ResumeListener(nil), ErrNilListener)
}

func TestAddDeadListenerIsIgnored(t *testing.T) {
	m := newTestManager(t)
	l := testmodel.NewListener(tree("0", 0))
	l.Release()

	require.NoError(t, m.AddListener(l))
	assert.Equal(t, 0, m.Stats().Listeners)
	assert.Equal(t, 0, m.Stats().Slots)
}

func TestListenerWithNilModel(t *testing.T) {
	m := newTestManager(t)
	l := testmodel.NewListener(nil)
	require.NoError(t, m.AddListener(l))

	require.NoError(t, m.UpdateModel(tree("0", 0), nil))
	syncManager(t, m)

	assert.Equal(t, 0, m.Stats().Buckets)
	assert.Equal(t, 0, l.CallCount())
}

func TestMockListenerReceivesUpdates(t *testing.T) {
	m := newTestManager(t)
	listener := mocks.NewMockListener(t)
	listener.EXPECT().CurrentModel().Return(tree("0", 0))
	listener.EXPECT().ModelUpdated(
		mock.MatchedBy(func(n model.Node) bool {
			return n.(*testmodel.TestModel).Data == 1
		}),
		mock.MatchedBy(func(u model.ModelUpdates) bool {
			return u.Equal(updates([]string{"0", "1"}, nil))
		}),
		"ctx",
	).Return().Once()

	require.NoError(t, m.AddListener(listener))
	require.NoError(t, m.UpdateModel(tree("0", 1), "ctx"))
	syncManager(t, m)
}

func TestGlobalListenerReceivesEveryInstruction(t *testing.T) {
	m := newTestManager(t)
	update := tree("0", 1)
	target := testmodel.NewRequired("7", 0)

	global := mocks.NewMockGlobalListener(t)
	global.EXPECT().ModelsChanged(update, mock.MatchedBy(func(c map[string]model.ModelChange) bool {
		return len(c) == 2 &&
			c["0"].Equal(model.Updated(update)) &&
			c["1"].Kind == model.ChangeUpdated
	}), "update").Return().Once()
	global.EXPECT().ModelsChanged(target, map[string]model.ModelChange{"7": model.Deleted()}, "delete").Return().Once()

	id := m.AddGlobalListener(global)
	assert.Equal(t, 1, m.Stats().GlobalListeners)

	// No listener is registered; globals fire anyway.
	require.NoError(t, m.UpdateModel(update, "update"))
	require.NoError(t, m.DeleteModel(target, "delete"))
	syncManager(t, m)

	m.RemoveGlobalListener(id)
	require.NoError(t, m.UpdateModel(update, "after"))
	syncManager(t, m)
	assert.Equal(t, 0, m.Stats().GlobalListeners)
}

func TestGlobalListenerFunc(t *testing.T) {
	m := newTestManager(t)
	var got []map[string]model.ModelChange
	m.AddGlobalListener(GlobalListenerFunc(func(_ model.Node, changes map[string]model.ModelChange, _ any) {
		got = append(got, changes)
	}))

	require.NoError(t, m.UpdateModel(model.NewBatch(tree("0", 0), model.NewTombstone("5")), nil))
	syncManager(t, m)

	require.Len(t, got, 1)
	assert.Equal(t, model.ChangeDeleted, got[0]["5"].Kind)
	assert.Equal(t, model.ChangeUpdated, got[0]["0"].Kind)
}

func TestGlobalListenersGetSeparateChanges(t *testing.T) {
	m := newTestManager(t)
	var second map[string]model.ModelChange
	m.AddGlobalListener(GlobalListenerFunc(func(_ model.Node, changes map[string]model.ModelChange, _ any) {
		delete(changes, "0")
		changes["9"] = model.Deleted()
	}))
	m.AddGlobalListener(GlobalListenerFunc(func(_ model.Node, changes map[string]model.ModelChange, _ any) {
		second = changes
	}))

	require.NoError(t, m.UpdateModel(tree("0", 0), nil))
	syncManager(t, m)

	require.Len(t, second, 2)
	assert.Contains(t, second, "0")
	assert.Contains(t, second, "1")
	assert.NotContains(t, second, "9")
}

func TestClearAllAndCancel(t *testing.T) {
	m, loop := newLoopManager(t)
	l := testmodel.NewListener(tree("0", 0))
	require.NoError(t, m.AddListener(l))
	require.NoError(t, m.PauseListener(l))

	rec := &traceRecorder{}
	m.trace = rec

	release := block(loop)
	require.NoError(t, m.UpdateModel(tree("0", 1), nil))
	require.NoError(t, m.UpdateModel(tree("0", 2), nil))

	done := make(chan struct{})
	require.NoError(t, m.ClearAllAndCancel(func() { close(done) }))
	release()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("clear completion not called")
	}
	syncManager(t, m)

	assert.Equal(t, 0, l.CallCount())
	stats := m.Stats()
	assert.Equal(t, 0, stats.Listeners)
	assert.Equal(t, 0, stats.Buckets)
	assert.Equal(t, 0, stats.Paused)
	assert.Empty(t, m.Listeners("0"))

	cancelled := 0
	for _, e := range rec.Events() {
		if e.Stage == log.StageCancelled {
			cancelled++
		}
	}
	assert.Equal(t, 2, cancelled)

	// The manager keeps working after a clear.
	assert.False(t, m.IsPaused(l))
	require.NoError(t, m.AddListener(l))
	require.NoError(t, m.UpdateModel(tree("0", 3), nil))
	syncManager(t, m)
	assert.Equal(t, 1, l.CallCount())
}

func TestCleanMemoryPrunesDeadListeners(t *testing.T) {
	m := newTestManager(t)
	dead := testmodel.NewListener(tree("0", 0, tree("2", 2)))
	alive := testmodel.NewListener(tree("0", 0))
	require.NoError(t, m.AddListener(dead))
	require.NoError(t, m.AddListener(alive))
	require.NoError(t, m.PauseListener(dead))

	dead.Release()
	result := m.CleanMemory()

	assert.Equal(t, 4, result.BucketsBefore)
	assert.Equal(t, 2, result.BucketsAfter)
	assert.Equal(t, 4, result.SlotsPruned)
	assert.Equal(t, 1, result.PausedDropped)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Listeners)
	assert.Equal(t, 2, stats.Slots)
	assert.Equal(t, 0, stats.Paused)
	assert.Equal(t, uint64(1), stats.Collections)
}

func TestRemovedListenerSlotsArePruned(t *testing.T) {
	m := newTestManager(t)
	l := testmodel.NewListener(tree("0", 0))
	require.NoError(t, m.AddListener(l))
	m.RemoveListener(l)

	assert.Equal(t, 2, m.Stats().Slots, "slots stay until collected")
	m.CleanMemory()
	assert.Equal(t, 0, m.Stats().Slots)
	assert.Equal(t, 0, m.Stats().Buckets)
}

func TestTriggerGarbageCollectionRunsHooks(t *testing.T) {
	m := newTestManager(t)

	var mu sync.Mutex
	var phases []GCPhase
	finished := make(chan struct{})
	m.OnGarbageCollection(func(p GCPhase) {
		mu.Lock()
		phases = append(phases, p)
		mu.Unlock()
		if p == GCFinished {
			close(finished)
		}
	})

	m.TriggerGarbageCollection()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("garbage collection did not run")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []GCPhase{GCStarted, GCFinished}, phases)
}

func TestGarbageCollectionTimer(t *testing.T) {
	rec := &traceRecorder{}
	m := NewManagerWithConfig(Config{
		GCInterval:  10 * time.Millisecond,
		Dispatcher:  Inline{},
		TraceLogger: rec,
	})
	defer m.Close()

	assert.Eventually(t, func() bool {
		return m.Stats().Collections >= 2
	}, 5*time.Second, 5*time.Millisecond)

	var gc *log.GCEvent
	for _, e := range rec.Events() {
		if e.Kind == log.KindGC {
			gc = e.GC
			break
		}
	}
	require.NotNil(t, gc)
	assert.Equal(t, log.GCTriggerTimer, gc.Trigger)
}

func TestLowMemoryTriggersCollection(t *testing.T) {
	rec := &traceRecorder{}
	m := NewManagerWithConfig(Config{Dispatcher: Inline{}, TraceLogger: rec})
	defer m.Close()

	m.LowMemory()
	assert.Eventually(t, func() bool {
		return m.Stats().Collections == 1
	}, 5*time.Second, 5*time.Millisecond)

	events := rec.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, log.GCTriggerLowMemory, events[len(events)-1].GC.Trigger)
}

func TestCloseRejectsOperations(t *testing.T) {
	m := NewManager()
	l := testmodel.NewListener(tree("0", 0))
	require.NoError(t, m.AddListener(l))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.ErrorIs(t, m.AddListener(l), ErrClosed)
	assert.ErrorIs(t, m.UpdateModel(tree("0", 1), nil), ErrClosed)
	assert.ErrorIs(t, m.DeleteModel(tree("0", 1), nil), ErrClosed)
	assert.ErrorIs(t, m.PauseListener(l), ErrClosed)
	assert.ErrorIs(t, m.ClearAllAndCancel(nil), ErrClosed)
	assert.ErrorIs(t, m.Sync(context.Background()), ErrClosed)
}

func TestSyncHonoursContext(t *testing.T) {
	m, loop := newLoopManager(t)
	l := testmodel.NewListener(tree("0", 0))
	require.NoError(t, m.AddListener(l))

	release := block(loop)
	defer release()
	require.NoError(t, m.UpdateModel(tree("0", 1), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Sync(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDefaultManagerDeliversOnEventLoop(t *testing.T) {
	m := NewManager()
	defer m.Close()

	l := testmodel.NewListener(tree("0", 0))
	require.NoError(t, m.AddListener(l))
	require.NoError(t, m.UpdateModel(tree("0", 1), nil))
	syncManager(t, m)

	assert.Equal(t, 1, l.CallCount())
	assert.NotEmpty(t, m.ID())
}

func TestTraceEvents(t *testing.T) {
	rec := &traceRecorder{}
	m := NewManagerWithConfig(Config{Dispatcher: Inline{}, TraceLogger: rec})
	defer m.Close()

	l := testmodel.NewListener(tree("0", 0))
	require.NoError(t, m.AddListener(l))
	require.NoError(t, m.UpdateModel(tree("0", 1), nil))
	syncManager(t, m)
	require.NoError(t, m.UpdateModel(tree("50", 1), nil))
	syncManager(t, m)

	var stages []log.Stage
	for _, e := range rec.Events() {
		assert.Equal(t, m.ID(), e.ManagerID)
		stages = append(stages, e.Stage)
	}
	assert.Equal(t, []log.Stage{log.StageEnqueued, log.StageCommitted, log.StageEnqueued, log.StageNoOp}, filterStages(stages))

	committed := rec.Events()[1]
	require.NotNil(t, committed.Instruction)
	assert.Equal(t, []string{"0", "1"}, committed.Instruction.IDs)
	assert.Equal(t, 1, committed.Instruction.Impacted)
	assert.Equal(t, 1, committed.Instruction.Notified)
	assert.NotNil(t, committed.Instruction.ProcessingTime)
}

// filterStages drops events written by the periodic collector.
func filterStages(stages []log.Stage) []log.Stage {
	out := stages[:0]
	for _, s := range stages {
		if s != log.StageCollected {
			out = append(out, s)
		}
	}
	return out
}

func TestSlogDebugOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewManagerWithConfig(Config{Dispatcher: Inline{}, Logger: logger})

	var got *CriticalError
	m.OnCriticalError(func(err *CriticalError) { got = err })
	require.NoError(t, m.DeleteModel(testmodel.NewRequired("", 0), nil))
	syncManager(t, m)
	m.Close()

	require.NotNil(t, got)
	out := buf.String()
	assert.Contains(t, out, "manager started")
	assert.Contains(t, out, "level=WARN msg=\"critical error\" reason=DeleteIDFailure")
	assert.Contains(t, out, "manager closed")
}
