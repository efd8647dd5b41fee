package model

// IDSet is an insertion-ordered set of identifiers.
// The zero value is an empty set ready to use. Copies share storage;
// use Clone before mutating a set that was handed out.
type IDSet struct {
	order []string
	index map[string]int
}

// NewIDSet returns a set holding ids in the given order.
func NewIDSet(ids ...string) IDSet {
	var s IDSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id at the end of the set. It reports whether id was new.
func (s *IDSet) Add(id string) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[id] = len(s.order)
	s.order = append(s.order, id)
	return true
}

// Remove deletes id from the set, keeping the order of the other ids.
func (s *IDSet) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.order); j++ {
		s.index[s.order[j]] = j
	}
	return true
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids.
func (s IDSet) Len() int {
	return len(s.order)
}

// Slice returns the ids in insertion order.
func (s IDSet) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	return NewIDSet(s.order...)
}

// Union adds every id of other that is not yet present, in other's order.
func (s *IDSet) Union(other IDSet) {
	for _, id := range other.order {
		s.Add(id)
	}
}

// Intersect returns the ids of s that are also in other, in s's order.
func (s IDSet) Intersect(other IDSet) IDSet {
	var out IDSet
	for _, id := range s.order {
		if other.Has(id) {
			out.Add(id)
		}
	}
	return out
}

// RemoveIf deletes every id for which fn returns true.
func (s *IDSet) RemoveIf(fn func(id string) bool) {
	for _, id := range s.Slice() {
		if fn(id) {
			s.Remove(id)
		}
	}
}

// Equal reports whether both sets hold the same ids, ignoring order.
func (s IDSet) Equal(other IDSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, id := range s.order {
		if !other.Has(id) {
			return false
		}
	}
	return true
}
