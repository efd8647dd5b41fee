package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/graphcache/consistency-go/internal/testmodel"
	"github.com/graphcache/consistency-go/pkg/batch"
	"github.com/graphcache/consistency-go/pkg/consistency"
	"github.com/graphcache/consistency-go/pkg/model"
)

// ExecutionState holds state while a scenario runs.
type ExecutionState struct {
	// Manager is the manager under test.
	Manager *consistency.Manager

	// Outputs are recomputed after every step.
	Outputs map[string]any

	mu        sync.Mutex
	order     []string
	listeners map[string]*testmodel.Listener
	batches   map[string]*batchRecorder
	names     map[consistency.Listener]string
	errors    []*consistency.CriticalError
	global    *globalRecorder
	trace     *traceRecorder

	// Call counts and error count at the previous observe.
	seen     map[string]int
	reported int
}

// NewExecutionState returns an empty state for m.
func NewExecutionState(m *consistency.Manager) *ExecutionState {
	s := &ExecutionState{
		Manager:   m,
		Outputs:   make(map[string]any),
		listeners: make(map[string]*testmodel.Listener),
		batches:   make(map[string]*batchRecorder),
		names:     make(map[consistency.Listener]string),
		seen:      make(map[string]int),
	}
	m.OnCriticalError(s.recordError)
	return s
}

// Get retrieves a value from outputs.
func (s *ExecutionState) Get(key string) (any, bool) {
	v, ok := s.Outputs[key]
	return v, ok
}

// Set stores a value in outputs.
func (s *ExecutionState) Set(key string, value any) {
	s.Outputs[key] = value
}

// Listener returns the listener registered under name.
func (s *ExecutionState) Listener(name string) (consistency.Listener, error) {
	if l, ok := s.listeners[name]; ok {
		return l, nil
	}
	if b, ok := s.batches[name]; ok {
		return b.batch, nil
	}
	return nil, fmt.Errorf("unknown listener %q", name)
}

// TestListener returns the plain listener registered under name.
func (s *ExecutionState) TestListener(name string) (*testmodel.Listener, error) {
	if l, ok := s.listeners[name]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("listener %q is not a plain listener", name)
}

func (s *ExecutionState) addListener(name string, l *testmodel.Listener) {
	s.order = append(s.order, name)
	s.listeners[name] = l
	s.names[l] = name
}

func (s *ExecutionState) addBatch(name string, b *batch.Listener) {
	rec := &batchRecorder{batch: b}
	b.SetDelegate(rec)
	s.order = append(s.order, name)
	s.batches[name] = rec
	s.names[b] = name
}

func (s *ExecutionState) watchGlobal() {
	s.global = &globalRecorder{}
	s.Manager.AddGlobalListener(s.global)
}

func (s *ExecutionState) recordError(err *consistency.CriticalError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

// collect recomputes the listener, error and stats outputs.
func (s *ExecutionState) collect() {
	for _, name := range s.order {
		if l, ok := s.listeners[name]; ok {
			s.collectListener(name, l)
		} else {
			s.collectBatch(name, s.batches[name])
		}
	}

	s.mu.Lock()
	reasons := make([]string, len(s.errors))
	ids := make([]string, len(s.errors))
	for i, err := range s.errors {
		reasons[i] = string(err.Reason)
		ids[i] = err.ID
	}
	s.mu.Unlock()
	s.Set("errors", reasons)
	s.Set("error_ids", ids)

	if s.global != nil {
		calls, changes := s.global.snapshot()
		s.Set("global.calls", calls)
		s.Set("global.changes", changes)
	}

	st := s.Manager.Stats()
	s.Set("stats.listeners", st.Listeners)
	s.Set("stats.buckets", st.Buckets)
	s.Set("stats.slots", st.Slots)
	s.Set("stats.paused", st.Paused)
}

// observe returns the listeners called back and the critical errors
// reported since the previous call. It reads the collected outputs, so it
// must run after collect.
func (s *ExecutionState) observe() ([]Delivery, []string) {
	var deliveries []Delivery
	for _, name := range s.order {
		calls, _ := s.Outputs[name+".calls"].(int)
		prev := s.seen[name]
		s.seen[name] = calls
		if calls <= prev {
			continue
		}

		d := Delivery{
			Listener: name,
			Calls:    calls - prev,
			Context:  s.Outputs[name+".context"],
		}
		d.Updated, _ = s.Outputs[name+".updated"].([]string)
		d.Changed, _ = s.Outputs[name+".changed"].([]string)
		d.Deleted, _ = s.Outputs[name+".deleted"].([]string)
		deliveries = append(deliveries, d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []string
	for _, err := range s.errors[s.reported:] {
		errs = append(errs, fmt.Sprintf("%s(%s)", err.Reason, err.ID))
	}
	s.reported = len(s.errors)
	return deliveries, errs
}

func (s *ExecutionState) collectListener(name string, l *testmodel.Listener) {
	s.Set(name+".calls", l.CallCount())
	s.Set(name+".model", l.Model())
	s.Set(name+".paused", s.Manager.IsPaused(l))

	call, ok := l.LastCall()
	if !ok {
		s.Set(name+".changed", []string(nil))
		s.Set(name+".deleted", []string(nil))
		s.Set(name+".context", nil)
		return
	}
	s.Set(name+".changed", call.Updates.Changed.Slice())
	s.Set(name+".deleted", call.Updates.Deleted.Slice())
	s.Set(name+".context", call.Context)
}

func (s *ExecutionState) collectBatch(name string, rec *batchRecorder) {
	calls, last := rec.snapshot()
	s.Set(name+".calls", calls)
	s.Set(name+".paused", rec.batch.IsPaused())

	updated := make([]string, len(last.updated))
	for i, l := range last.updated {
		updated[i] = s.names[l]
	}
	s.Set(name+".updated", updated)
	s.Set(name+".changed", last.updates.Changed.Slice())
	s.Set(name+".deleted", last.updates.Deleted.Slice())
	s.Set(name+".context", last.ctx)
}

type batchCall struct {
	updated []consistency.Listener
	updates model.ModelUpdates
	ctx     any
}

type batchRecorder struct {
	batch *batch.Listener
	mu    sync.Mutex
	calls int
	last  batchCall
}

func (r *batchRecorder) BatchModelUpdated(_ *batch.Listener, updated []consistency.Listener, updates model.ModelUpdates, ctx any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = batchCall{updated: updated, updates: updates, ctx: ctx}
}

func (r *batchRecorder) snapshot() (int, batchCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.last
}

type globalRecorder struct {
	mu      sync.Mutex
	calls   int
	changes map[string]model.ModelChange
}

func (g *globalRecorder) ModelsChanged(_ model.Node, changes map[string]model.ModelChange, _ any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.changes = changes
}

// snapshot returns the call count and the last changes as sorted
// "id:kind" strings.
func (g *globalRecorder) snapshot() (int, []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.changes))
	for id, c := range g.changes {
		out = append(out, id+":"+c.Kind.String())
	}
	sort.Strings(out)
	return g.calls, out
}
