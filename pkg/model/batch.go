package model

// Batch wraps several independent root nodes so they can be applied as one
// instruction. It has no identifier. Nil slots are kept so a batch can mirror
// a fixed list of owners where some have no model.
type Batch struct {
	Models []Node
}

// NewBatch returns a batch of the given models.
func NewBatch(models ...Node) *Batch {
	return &Batch{Models: models}
}

// ID returns "" since a batch is purely structural.
func (b *Batch) ID() string { return "" }

// ForEach calls fn for every non-nil model.
func (b *Batch) ForEach(fn func(Node)) {
	for _, m := range b.Models {
		if m != nil {
			fn(m)
		}
	}
}

// Map maps every non-nil model. A model mapped to nil leaves a nil slot;
// a batch never cascades.
func (b *Batch) Map(fn func(Node) Node) Node {
	out := make([]Node, len(b.Models))
	for i, m := range b.Models {
		if m != nil {
			out[i] = fn(m)
		}
	}
	return &Batch{Models: out}
}

// MergeWith returns other when it is a batch; batches carry no data.
func (b *Batch) MergeWith(other Node) Node {
	if o, ok := other.(*Batch); ok {
		return o
	}
	return b
}

// Equal compares the slots pairwise.
func (b *Batch) Equal(other Node) bool {
	o, ok := other.(*Batch)
	if !ok || len(o.Models) != len(b.Models) {
		return false
	}
	for i := range b.Models {
		if !Equal(b.Models[i], o.Models[i]) {
			return false
		}
	}
	return true
}

// Tombstone marks an identifier for deletion inside an update.
// It has no children and is never stored in a listener's tree.
type Tombstone struct {
	Identifier string
}

// NewTombstone returns a deletion marker for id.
func NewTombstone(id string) *Tombstone {
	return &Tombstone{Identifier: id}
}

// ID returns the identifier marked for deletion.
func (t *Tombstone) ID() string { return t.Identifier }

// ForEach does nothing; a tombstone has no children.
func (t *Tombstone) ForEach(func(Node)) {}

// Map returns the tombstone unchanged.
func (t *Tombstone) Map(func(Node) Node) Node { return t }

// MergeWith returns the tombstone; deletion wins.
func (t *Tombstone) MergeWith(Node) Node { return t }

// Equal reports whether other marks the same identifier.
func (t *Tombstone) Equal(other Node) bool {
	o, ok := other.(*Tombstone)
	return ok && o.Identifier == t.Identifier
}

// IsTombstone reports whether n marks a deletion.
func IsTombstone(n Node) bool {
	_, ok := n.(*Tombstone)
	return ok
}

var (
	_ Node = (*Batch)(nil)
	_ Node = (*Tombstone)(nil)
)
