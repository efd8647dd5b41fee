package weakref

// Array is an index-addressable list of references. Slots can be dead;
// Prune compacts them away. An Array is not safe for concurrent mutation.
type Array[T any] struct {
	slots []*Ref[T]
}

// NewArray returns an array with n dead slots.
func NewArray[T any](n int) *Array[T] {
	return &Array[T]{slots: make([]*Ref[T], n)}
}

// From returns an array holding live references to values.
func From[T any](values ...T) *Array[T] {
	a := &Array[T]{slots: make([]*Ref[T], 0, len(values))}
	for _, v := range values {
		a.Append(v)
	}
	return a
}

// Len returns the number of slots, dead or alive.
func (a *Array[T]) Len() int {
	return len(a.slots)
}

// Append adds a new live reference to v and returns it.
func (a *Array[T]) Append(v T) *Ref[T] {
	r := New(v)
	a.slots = append(a.slots, r)
	return r
}

// AppendRef adds an existing reference, sharing its liveness.
func (a *Array[T]) AppendRef(r *Ref[T]) {
	a.slots = append(a.slots, r)
}

// Get returns the value at i and whether the slot is alive.
func (a *Array[T]) Get(i int) (T, bool) {
	return a.slots[i].Get()
}

// Ref returns the reference stored at i, which may be nil.
func (a *Array[T]) Ref(i int) *Ref[T] {
	return a.slots[i]
}

// Set stores a new live reference to v at i.
func (a *Array[T]) Set(i int, v T) {
	a.slots[i] = New(v)
}

// SetRef stores r at i.
func (a *Array[T]) SetRef(i int, r *Ref[T]) {
	a.slots[i] = r
}

// Clear empties slot i without releasing the reference it held.
func (a *Array[T]) Clear(i int) {
	a.slots[i] = nil
}

// Prune removes dead slots, keeping the order of the live ones, and
// returns a.
func (a *Array[T]) Prune() *Array[T] {
	live := a.slots[:0]
	for _, r := range a.slots {
		if r.Alive() {
			live = append(live, r)
		}
	}
	clear(a.slots[len(live):])
	a.slots = live
	return a
}

// ForEach calls fn for every slot in order; dead slots get ok == false.
func (a *Array[T]) ForEach(fn func(v T, ok bool)) {
	for _, r := range a.slots {
		fn(r.Get())
	}
}

// Values returns the live values in order.
func (a *Array[T]) Values() []T {
	out := make([]T, 0, len(a.slots))
	for _, r := range a.slots {
		if v, ok := r.Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Map returns an array of the same length where slot i holds fn applied to
// slot i. fn is called for dead slots too, with ok == false; returning
// ok == false leaves the slot dead.
func (a *Array[T]) Map(fn func(v T, ok bool) (T, bool)) *Array[T] {
	out := NewArray[T](len(a.slots))
	for i, r := range a.slots {
		if v, ok := fn(r.Get()); ok {
			out.Set(i, v)
		}
	}
	return out
}

// CompactMap calls fn once per slot and keeps only results produced from a
// live slot for which fn returned ok.
func (a *Array[T]) CompactMap(fn func(v T, ok bool) (T, bool)) *Array[T] {
	out := NewArray[T](0)
	for _, r := range a.slots {
		in, alive := r.Get()
		v, ok := fn(in, alive)
		if alive && ok {
			out.Append(v)
		}
	}
	return out
}

// Filter returns the live values for which keep returns true.
// Dead slots are dropped without calling keep.
func (a *Array[T]) Filter(keep func(T) bool) *Array[T] {
	out := NewArray[T](0)
	for _, r := range a.slots {
		if v, ok := r.Get(); ok && keep(v) {
			out.AppendRef(r)
		}
	}
	return out
}

// Index returns the first live slot for which match returns true, or -1.
func (a *Array[T]) Index(match func(T) bool) int {
	for i, r := range a.slots {
		if v, ok := r.Get(); ok && match(v) {
			return i
		}
	}
	return -1
}
