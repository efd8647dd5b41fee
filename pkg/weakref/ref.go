package weakref

import "sync/atomic"

// Liveness is implemented by values that can go away on their own.
type Liveness interface {
	Alive() bool
}

// Ref is a releasable reference to a value owned elsewhere.
// It is safe for concurrent use.
type Ref[T any] struct {
	value    T
	released atomic.Bool
}

// New returns a live reference to v.
func New[T any](v T) *Ref[T] {
	return &Ref[T]{value: v}
}

// Get returns the value and true while the reference is alive.
func (r *Ref[T]) Get() (T, bool) {
	var zero T
	if r == nil || !r.Alive() {
		return zero, false
	}
	return r.value, true
}

// Alive reports whether the reference still resolves.
func (r *Ref[T]) Alive() bool {
	if r == nil || r.released.Load() {
		return false
	}
	if l, ok := any(r.value).(Liveness); ok && !l.Alive() {
		return false
	}
	return true
}

// Release kills the reference. It is safe to call more than once.
func (r *Ref[T]) Release() {
	if r != nil {
		r.released.Store(true)
	}
}
