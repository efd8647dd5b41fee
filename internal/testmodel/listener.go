package testmodel

import (
	"sync"
	"sync/atomic"

	"github.com/graphcache/consistency-go/pkg/model"
)

// Call records one ModelUpdated delivery.
type Call struct {
	Model   model.Node
	Updates model.ModelUpdates
	Context any
}

// Listener holds a model and records every update it receives.
// Hooks must be set before the listener is registered.
type Listener struct {
	mu    sync.Mutex
	model model.Node
	calls []Call
	dead  atomic.Bool

	// OnCurrentModel runs at the start of every CurrentModel call.
	OnCurrentModel func()

	// OnUpdate runs after the model was replaced by an update.
	OnUpdate func(m model.Node, updates model.ModelUpdates, ctx any)
}

// NewListener returns a listener holding m.
func NewListener(m model.Node) *Listener {
	return &Listener{model: m}
}

// CurrentModel returns the held model.
func (l *Listener) CurrentModel() model.Node {
	if l.OnCurrentModel != nil {
		l.OnCurrentModel()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.model
}

// ModelUpdated stores m and records the call.
func (l *Listener) ModelUpdated(m model.Node, updates model.ModelUpdates, ctx any) {
	l.mu.Lock()
	l.model = m
	l.calls = append(l.calls, Call{Model: m, Updates: updates, Context: ctx})
	l.mu.Unlock()

	if l.OnUpdate != nil {
		l.OnUpdate(m, updates, ctx)
	}
}

// Model returns the held model without running hooks.
func (l *Listener) Model() model.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.model
}

// SetModel replaces the held model, as a local edit would.
func (l *Listener) SetModel(m model.Node) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.model = m
}

// Calls returns a copy of the recorded deliveries.
func (l *Listener) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// CallCount returns the number of deliveries.
func (l *Listener) CallCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// LastCall returns the most recent delivery.
func (l *Listener) LastCall() (Call, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.calls) == 0 {
		return Call{}, false
	}
	return l.calls[len(l.calls)-1], true
}

// Release marks the listener as gone, as if its owner was deallocated.
func (l *Listener) Release() {
	l.dead.Store(true)
}

// Alive reports whether the listener has not been released.
func (l *Listener) Alive() bool {
	return !l.dead.Load()
}
