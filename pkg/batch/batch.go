package batch

import (
	"sync"

	"github.com/graphcache/consistency-go/pkg/consistency"
	"github.com/graphcache/consistency-go/pkg/model"
	"github.com/graphcache/consistency-go/pkg/weakref"
)

// Registrar is the part of the consistency manager a batch uses.
type Registrar interface {
	AddListener(l consistency.Listener) error
	RemoveListener(l consistency.Listener)
	PauseListener(l consistency.Listener) error
	ResumeListener(l consistency.Listener) error
	IsPaused(l consistency.Listener) bool
}

// Delegate is told which inner listeners changed after each commit.
type Delegate interface {
	BatchModelUpdated(b *Listener, updated []consistency.Listener, updates model.ModelUpdates, ctx any)
}

// DelegateFunc adapts a function to Delegate.
type DelegateFunc func(b *Listener, updated []consistency.Listener, updates model.ModelUpdates, ctx any)

// BatchModelUpdated calls f.
func (f DelegateFunc) BatchModelUpdated(b *Listener, updated []consistency.Listener, updates model.ModelUpdates, ctx any) {
	f(b, updated, updates, ctx)
}

// Listener is a consistency.Listener made of several inner listeners.
type Listener struct {
	mu        sync.Mutex
	listeners *weakref.Array[consistency.Listener]
	manager   Registrar
	delegate  Delegate
}

// New creates a batch of listeners and registers it with manager.
func New(listeners []consistency.Listener, manager Registrar) (*Listener, error) {
	b := &Listener{
		listeners: weakref.From(listeners...),
		manager:   manager,
	}
	if err := manager.AddListener(b); err != nil {
		return nil, err
	}
	return b, nil
}

// SetDelegate sets the delegate. Nil disables delegate calls.
func (b *Listener) SetDelegate(d Delegate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delegate = d
}

// Listeners returns the live inner listeners in order.
func (b *Listener) Listeners() []consistency.Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listeners.Values()
}

// Add appends l and registers its identifiers.
func (b *Listener) Add(l consistency.Listener) error {
	b.mu.Lock()
	b.listeners.Append(l)
	b.mu.Unlock()
	return b.manager.AddListener(b)
}

// Remove drops l from the batch. Identifiers only l reached stay
// registered until the next commit, where they no longer match anything.
// Like Add, it should be called on the delivery context so that slots
// don't shift between the two fences of an instruction.
func (b *Listener) Remove(l consistency.Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = b.listeners.Filter(func(v consistency.Listener) bool {
		return v != l
	})
}

// Pause pauses the batch as one unit.
func (b *Listener) Pause() error {
	return b.manager.PauseListener(b)
}

// Resume delivers what changed while the batch was paused.
func (b *Listener) Resume() error {
	return b.manager.ResumeListener(b)
}

// IsPaused reports whether the batch is paused.
func (b *Listener) IsPaused() bool {
	return b.manager.IsPaused(b)
}

// Close unregisters the batch.
func (b *Listener) Close() {
	b.manager.RemoveListener(b)
}

// CurrentModel returns a model.Batch with one slot per inner listener.
// Slots of dead listeners are nil.
func (b *Listener) CurrentModel() model.Node {
	b.mu.Lock()
	inner := b.snapshotSlots()
	b.mu.Unlock()

	models := make([]model.Node, len(inner))
	for i, l := range inner {
		if l != nil {
			models[i] = l.CurrentModel()
		}
	}
	return model.NewBatch(models...)
}

// ModelUpdated splits the composite update across the inner listeners.
func (b *Listener) ModelUpdated(m model.Node, updates model.ModelUpdates, ctx any) {
	composite, ok := m.(*model.Batch)
	if !ok {
		return
	}

	b.mu.Lock()
	inner := b.snapshotSlots()
	delegate := b.delegate
	b.mu.Unlock()

	var updated []consistency.Listener
	var combined model.ModelUpdates
	for i, l := range inner {
		if l == nil || i >= len(composite.Models) {
			continue
		}
		old := l.CurrentModel()
		next := composite.Models[i]
		if model.Identical(old, next) || model.Equal(old, next) {
			continue
		}

		u := model.ModelUpdates{
			Changed: model.ChangedIDs(old, next),
			Deleted: updates.Deleted.Intersect(model.IDs(old)),
		}
		l.ModelUpdated(next, u, ctx)
		updated = append(updated, l)
		combined.Union(u)
	}

	if delegate != nil && len(updated) > 0 {
		delegate.BatchModelUpdated(b, updated, combined, ctx)
	}
}

// snapshotSlots returns the inner listeners by slot, nil for dead ones.
// Must be called with b.mu held.
func (b *Listener) snapshotSlots() []consistency.Listener {
	out := make([]consistency.Listener, 0, b.listeners.Len())
	b.listeners.ForEach(func(v consistency.Listener, ok bool) {
		if !ok {
			v = nil
		}
		out = append(out, v)
	})
	return out
}

var (
	_ consistency.Listener = (*Listener)(nil)
	_ Registrar            = (*consistency.Manager)(nil)
	_ Delegate             = DelegateFunc(nil)
)
