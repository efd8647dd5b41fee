package consistency

import (
	"github.com/graphcache/consistency-go/pkg/model"
	"github.com/graphcache/consistency-go/pkg/weakref"
)

// handle is the registry's reference to one listener. The same Ref is
// stored in every bucket the listener is in, so releasing it kills all of
// its slots at once.
type handle struct {
	ref *weakref.Ref[Listener]

	// ids the listener is registered under.
	ids model.IDSet
}

func (h *handle) alive() bool {
	return h.ref.Alive()
}

// registry maps identifiers to the listeners whose snapshot reaches them.
// It is not safe for concurrent use; the Manager guards it.
type registry struct {
	buckets map[string]*weakref.Array[Listener]
	handles map[Listener]*handle
}

func newRegistry() *registry {
	return &registry{
		buckets: make(map[string]*weakref.Array[Listener]),
		handles: make(map[Listener]*handle),
	}
}

// handleFor returns the live handle of l, creating one if needed.
func (r *registry) handleFor(l Listener) *handle {
	if h, ok := r.handles[l]; ok && h.alive() {
		return h
	}
	h := &handle{ref: weakref.New(l)}
	r.handles[l] = h
	return h
}

// add registers l under every id in ids, keeping existing registrations.
func (r *registry) add(l Listener, ids model.IDSet) *handle {
	h := r.handleFor(l)
	for _, id := range ids.Slice() {
		r.track(h, id)
	}
	return h
}

// sync makes ids the exact set l is registered under.
func (r *registry) sync(l Listener, ids model.IDSet) {
	h, ok := r.handles[l]
	if !ok || !h.alive() {
		return
	}
	for _, id := range h.ids.Slice() {
		if !ids.Has(id) {
			r.untrack(h, id)
		}
	}
	for _, id := range ids.Slice() {
		r.track(h, id)
	}
}

func (r *registry) track(h *handle, id string) {
	h.ids.Add(id)
	bucket, ok := r.buckets[id]
	if !ok {
		bucket = weakref.NewArray[Listener](0)
		r.buckets[id] = bucket
	}
	for i := 0; i < bucket.Len(); i++ {
		if bucket.Ref(i) == h.ref {
			return
		}
	}
	bucket.AppendRef(h.ref)
}

func (r *registry) untrack(h *handle, id string) {
	h.ids.Remove(id)
	bucket, ok := r.buckets[id]
	if !ok {
		return
	}
	for i := 0; i < bucket.Len(); i++ {
		if bucket.Ref(i) == h.ref {
			bucket.Clear(i)
		}
	}
}

// remove releases l's handle. Its slots become dead and are pruned later.
func (r *registry) remove(l Listener) bool {
	h, ok := r.handles[l]
	if !ok {
		return false
	}
	h.ref.Release()
	delete(r.handles, l)
	return true
}

func (r *registry) contains(l Listener) bool {
	h, ok := r.handles[l]
	return ok && h.alive()
}

// impacted returns the live listeners registered under any of ids, in the
// order of ids and then bucket order, without duplicates. Visited buckets
// are pruned.
func (r *registry) impacted(ids []string) []Listener {
	var out []Listener
	seen := make(map[Listener]struct{})
	for _, id := range ids {
		bucket := r.pruneBucket(id)
		if bucket == nil {
			continue
		}
		for _, l := range bucket.Values() {
			if _, dup := seen[l]; dup {
				continue
			}
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	return out
}

// listeners returns the live listeners registered under id.
func (r *registry) listeners(id string) []Listener {
	bucket, ok := r.buckets[id]
	if !ok {
		return nil
	}
	return bucket.Values()
}

func (r *registry) pruneBucket(id string) *weakref.Array[Listener] {
	bucket, ok := r.buckets[id]
	if !ok {
		return nil
	}
	if bucket.Prune().Len() == 0 {
		delete(r.buckets, id)
		return nil
	}
	return bucket
}

// prune compacts every bucket, deletes empty ones and forgets dead handles.
// It returns the number of slots removed.
func (r *registry) prune() int {
	pruned := 0
	for id, bucket := range r.buckets {
		before := bucket.Len()
		if bucket.Prune().Len() == 0 {
			delete(r.buckets, id)
		}
		pruned += before - bucket.Len()
	}
	for l, h := range r.handles {
		if !h.alive() {
			h.ref.Release()
			delete(r.handles, l)
		}
	}
	return pruned
}

// clear releases every handle and drops all buckets.
func (r *registry) clear() {
	for _, h := range r.handles {
		h.ref.Release()
	}
	r.handles = make(map[Listener]*handle)
	r.buckets = make(map[string]*weakref.Array[Listener])
}

func (r *registry) slots() int {
	n := 0
	for _, bucket := range r.buckets {
		n += bucket.Len()
	}
	return n
}
