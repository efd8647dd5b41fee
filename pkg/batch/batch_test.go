package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphcache/consistency-go/internal/testmodel"
	"github.com/graphcache/consistency-go/pkg/consistency"
	"github.com/graphcache/consistency-go/pkg/model"
)

type delegateCall struct {
	updated []consistency.Listener
	updates model.ModelUpdates
	ctx     any
}

type recordingDelegate struct {
	mu    sync.Mutex
	calls []delegateCall
}

func (d *recordingDelegate) BatchModelUpdated(_ *Listener, updated []consistency.Listener, updates model.ModelUpdates, ctx any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, delegateCall{updated: updated, updates: updates, ctx: ctx})
}

func (d *recordingDelegate) Calls() []delegateCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delegateCall(nil), d.calls...)
}

func newManager(t *testing.T) *consistency.Manager {
	t.Helper()
	m := consistency.NewManagerWithConfig(consistency.Config{Dispatcher: consistency.Inline{}})
	t.Cleanup(func() { m.Close() })
	return m
}

func syncManager(t *testing.T, m *consistency.Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Sync(ctx))
}

func newBatch(t *testing.T, m *consistency.Manager, listeners ...*testmodel.Listener) (*Listener, *recordingDelegate) {
	t.Helper()
	inner := make([]consistency.Listener, len(listeners))
	for i, l := range listeners {
		inner[i] = l
	}
	b, err := New(inner, m)
	require.NoError(t, err)
	d := &recordingDelegate{}
	b.SetDelegate(d)
	return b, d
}

func rootWithRequired(id string, data int, required string) *testmodel.TestModel {
	return testmodel.New(id, data, nil, testmodel.NewRequired(required, 0))
}

func TestSingleListener(t *testing.T) {
	m := newManager(t)
	l := testmodel.NewListener(rootWithRequired("0", 0, "1"))
	_, d := newBatch(t, m, l)

	require.NoError(t, m.UpdateModel(testmodel.New("0", 1, nil, testmodel.NewRequired("1", 1)), "ctx"))
	syncManager(t, m)

	call, ok := l.LastCall()
	require.True(t, ok)
	assert.Equal(t, []string{"0", "1"}, call.Updates.Changed.Slice())

	calls := d.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []consistency.Listener{l}, calls[0].updated)
	assert.Equal(t, []string{"0", "1"}, calls[0].updates.Changed.Slice())
	assert.Equal(t, "ctx", calls[0].ctx)
}

func TestOnlyAffectedListenersReachDelegate(t *testing.T) {
	m := newManager(t)
	a := testmodel.NewListener(rootWithRequired("0", 0, "1"))
	b := testmodel.NewListener(rootWithRequired("2", 0, "3"))
	_, d := newBatch(t, m, a, b)

	require.NoError(t, m.UpdateModel(testmodel.NewRequired("3", 5), nil))
	syncManager(t, m)

	assert.Equal(t, 0, a.CallCount())
	assert.Equal(t, 1, b.CallCount())

	calls := d.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []consistency.Listener{b}, calls[0].updated)
	assert.Equal(t, []string{"2", "3"}, calls[0].updates.Changed.Slice())
}

func TestAllAffectedListenersKeepOrder(t *testing.T) {
	m := newManager(t)
	a := testmodel.NewListener(rootWithRequired("0", 0, "1"))
	b := testmodel.NewListener(rootWithRequired("2", 0, "1"))
	_, d := newBatch(t, m, a, b)

	require.NoError(t, m.UpdateModel(testmodel.NewRequired("1", 5), nil))
	syncManager(t, m)

	calls := d.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []consistency.Listener{a, b}, calls[0].updated)
	assert.True(t, calls[0].updates.Equal(model.ModelUpdates{Changed: model.NewIDSet("0", "1", "2")}),
		"got %v", calls[0].updates)
}

func TestDeleteSharedRequiredChild(t *testing.T) {
	m := newManager(t)
	child := func() *testmodel.TestModel {
		return testmodel.New("4", 4, nil, testmodel.NewRequired("3", 0))
	}
	a := testmodel.NewListener(testmodel.New("0", 0, []*testmodel.TestModel{child()}, testmodel.NewRequired("1", 0)))
	b := testmodel.NewListener(testmodel.New("2", 0, []*testmodel.TestModel{child()}, testmodel.NewRequired("5", 0)))
	_, d := newBatch(t, m, a, b)

	require.NoError(t, m.DeleteModel(testmodel.NewRequired("3", 0), nil))
	syncManager(t, m)

	aCall, ok := a.LastCall()
	require.True(t, ok)
	assert.Equal(t, []string{"0"}, aCall.Updates.Changed.Slice())
	assert.True(t, aCall.Updates.Deleted.Equal(model.NewIDSet("3", "4")))

	bCall, ok := b.LastCall()
	require.True(t, ok)
	assert.Equal(t, []string{"2"}, bCall.Updates.Changed.Slice())
	assert.True(t, bCall.Updates.Deleted.Equal(model.NewIDSet("3", "4")))

	calls := d.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].updates.Equal(model.ModelUpdates{
		Changed: model.NewIDSet("0", "2"),
		Deleted: model.NewIDSet("3", "4"),
	}), "got %v", calls[0].updates)
}

func TestDeadInnerListenerIsSkipped(t *testing.T) {
	m := newManager(t)
	a := testmodel.NewListener(rootWithRequired("0", 0, "1"))
	b := testmodel.NewListener(rootWithRequired("2", 0, "1"))
	batch, d := newBatch(t, m, a, b)

	a.Release()
	current := batch.CurrentModel().(*model.Batch)
	require.Len(t, current.Models, 2)
	assert.Nil(t, current.Models[0])

	require.NoError(t, m.UpdateModel(testmodel.NewRequired("1", 5), nil))
	syncManager(t, m)

	assert.Equal(t, 0, a.CallCount())
	calls := d.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []consistency.Listener{b}, calls[0].updated)
	assert.Equal(t, []consistency.Listener{b}, batch.Listeners())
}

func TestPauseBatchAsUnit(t *testing.T) {
	m := newManager(t)
	a := testmodel.NewListener(rootWithRequired("0", 0, "1"))
	b := testmodel.NewListener(rootWithRequired("2", 0, "3"))
	batch, d := newBatch(t, m, a, b)

	require.NoError(t, batch.Pause())
	assert.True(t, batch.IsPaused())

	require.NoError(t, m.UpdateModel(testmodel.NewRequired("1", 1), "first"))
	require.NoError(t, m.UpdateModel(testmodel.NewRequired("3", 1), "second"))
	syncManager(t, m)
	assert.Empty(t, d.Calls())

	require.NoError(t, batch.Resume())
	syncManager(t, m)

	calls := d.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []consistency.Listener{a, b}, calls[0].updated)
	assert.Equal(t, "second", calls[0].ctx)
	assert.False(t, batch.IsPaused())
}

func TestAddAndRemove(t *testing.T) {
	m := newManager(t)
	a := testmodel.NewListener(rootWithRequired("0", 0, "1"))
	batch, d := newBatch(t, m, a)

	b := testmodel.NewListener(rootWithRequired("2", 0, "3"))
	require.NoError(t, batch.Add(b))
	assert.Len(t, m.Listeners("3"), 1)

	require.NoError(t, m.UpdateModel(testmodel.NewRequired("3", 1), nil))
	syncManager(t, m)
	require.Len(t, d.Calls(), 1)
	assert.Equal(t, []consistency.Listener{b}, d.Calls()[0].updated)

	batch.Remove(b)
	assert.Equal(t, []consistency.Listener{a}, batch.Listeners())

	require.NoError(t, m.UpdateModel(testmodel.NewRequired("3", 2), nil))
	syncManager(t, m)
	assert.Len(t, d.Calls(), 1, "removed listener no longer reported")
	assert.Equal(t, 1, b.CallCount())
}

func TestCloseUnregisters(t *testing.T) {
	m := newManager(t)
	a := testmodel.NewListener(rootWithRequired("0", 0, "1"))
	batch, d := newBatch(t, m, a)

	batch.Close()
	require.NoError(t, m.UpdateModel(testmodel.NewRequired("1", 1), nil))
	syncManager(t, m)

	assert.Empty(t, d.Calls())
	assert.Equal(t, 0, a.CallCount())
}

func TestDelegateFunc(t *testing.T) {
	m := newManager(t)
	a := testmodel.NewListener(rootWithRequired("0", 0, "1"))
	batch, _ := newBatch(t, m, a)

	var got []consistency.Listener
	batch.SetDelegate(DelegateFunc(func(_ *Listener, updated []consistency.Listener, _ model.ModelUpdates, _ any) {
		got = updated
	}))

	require.NoError(t, m.UpdateModel(testmodel.NewRequired("1", 1), nil))
	syncManager(t, m)
	assert.Equal(t, []consistency.Listener{a}, got)
}
