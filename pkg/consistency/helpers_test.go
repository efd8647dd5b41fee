package consistency

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graphcache/consistency-go/internal/testmodel"
	"github.com/graphcache/consistency-go/pkg/log"
	"github.com/graphcache/consistency-go/pkg/model"
)

// tree returns a TestModel whose required child has id+1.
func tree(id string, data int, children ...*testmodel.TestModel) *testmodel.TestModel {
	n, _ := strconv.Atoi(id)
	return testmodel.New(id, data, children, testmodel.NewRequired(strconv.Itoa(n+1), data))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManagerWithConfig(Config{Dispatcher: Inline{}})
	t.Cleanup(func() { m.Close() })
	return m
}

// newLoopManager returns a manager whose fences run on an event loop the
// test can block.
func newLoopManager(t *testing.T) (*Manager, *EventLoop) {
	t.Helper()
	loop := NewEventLoop()
	m := NewManagerWithConfig(Config{Dispatcher: loop})
	t.Cleanup(func() {
		m.Close()
		loop.Close()
	})
	return m, loop
}

func syncManager(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Sync(ctx))
}

// block stalls the loop until the returned function is called.
func block(loop *EventLoop) func() {
	release := make(chan struct{})
	started := make(chan struct{})
	loop.Post(func() {
		close(started)
		<-release
	})
	<-started
	return func() { close(release) }
}

func updates(changed, deleted []string) model.ModelUpdates {
	return model.ModelUpdates{Changed: model.NewIDSet(changed...), Deleted: model.NewIDSet(deleted...)}
}

// traceRecorder collects trace events.
type traceRecorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *traceRecorder) Log(event log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *traceRecorder) Events() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]log.Event, len(r.events))
	copy(out, r.events)
	return out
}

// wrongMapModel returns a different node type from Map.
type wrongMapModel struct {
	id string
}

func (w *wrongMapModel) ID() string               { return w.id }
func (w *wrongMapModel) ForEach(func(model.Node)) {}
func (w *wrongMapModel) Map(func(model.Node) model.Node) model.Node {
	return testmodel.NewRequired(w.id, 0)
}
func (w *wrongMapModel) MergeWith(other model.Node) model.Node { return other }
func (w *wrongMapModel) Equal(model.Node) bool                 { return false }

// funcListener is not comparable.
type funcListener func() model.Node

func (f funcListener) CurrentModel() model.Node                         { return f() }
func (f funcListener) ModelUpdated(model.Node, model.ModelUpdates, any) {}

// valueListener has a comparable type, but a tag holding a slice makes
// the value unhashable.
type valueListener struct {
	tag any
}

func (valueListener) CurrentModel() model.Node                         { return nil }
func (valueListener) ModelUpdated(model.Node, model.ModelUpdates, any) {}

// parentModel holds arbitrary child nodes.
type parentModel struct {
	id       string
	data     int
	children []model.Node
}

func (p *parentModel) ID() string { return p.id }

func (p *parentModel) ForEach(fn func(model.Node)) {
	for _, c := range p.children {
		fn(c)
	}
}

func (p *parentModel) Map(fn func(model.Node) model.Node) model.Node {
	out := &parentModel{id: p.id, data: p.data}
	for _, c := range p.children {
		if n := fn(c); n != nil {
			out.children = append(out.children, n)
		}
	}
	return out
}

func (p *parentModel) MergeWith(other model.Node) model.Node {
	if o, ok := other.(*parentModel); ok {
		return o
	}
	return p
}

func (p *parentModel) Equal(other model.Node) bool {
	o, ok := other.(*parentModel)
	if !ok || o.id != p.id || o.data != p.data || len(o.children) != len(p.children) {
		return false
	}
	for i := range p.children {
		if !model.Identical(p.children[i], o.children[i]) && !model.Equal(p.children[i], o.children[i]) {
			return false
		}
	}
	return true
}

// fenceRecorder wraps a Dispatcher and records when each fence starts and
// ends. Listeners can add their own marks.
type fenceRecorder struct {
	inner Dispatcher

	mu    sync.Mutex
	marks []string
}

func (f *fenceRecorder) Run(fn func()) {
	f.mark("enter")
	f.inner.Run(fn)
	f.mark("exit")
}

func (f *fenceRecorder) mark(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks = append(f.marks, s)
}

func (f *fenceRecorder) Marks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.marks)
}
