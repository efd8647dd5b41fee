package model

import "slices"

// Entry is what an instruction carries for one identifier: either a deletion
// or one node per distinct projection, in arrival order.
type Entry struct {
	Deleted bool
	Models  []Node
}

// Table maps identifiers to incoming data for one instruction.
type Table struct {
	ids     IDSet
	entries map[string]*Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

// Flatten collects every identified node of root into a table.
// The first occurrence of an (identifier, projection) pair wins; distinct
// projections of the same identifier are all kept. A tombstone anywhere in
// the tree marks its identifier as deleted.
func Flatten(root Node) *Table {
	t := NewTable()
	Walk(root, func(n Node) {
		id := n.ID()
		if id == "" {
			return
		}
		if IsTombstone(n) {
			t.MarkDeleted(id)
			return
		}
		t.Add(id, n)
	})
	return t
}

// Add records n for id unless the projection was already seen or the id is
// deleted. It reports whether n was recorded.
func (t *Table) Add(id string, n Node) bool {
	e := t.entry(id)
	if e.Deleted {
		return false
	}
	projection := ProjectionOf(n)
	for _, m := range e.Models {
		if ProjectionOf(m) == projection {
			return false
		}
	}
	e.Models = append(e.Models, n)
	return true
}

// MarkDeleted marks id as deleted, dropping any data collected for it.
func (t *Table) MarkDeleted(id string) {
	e := t.entry(id)
	e.Deleted = true
	e.Models = nil
}

func (t *Table) entry(id string) *Entry {
	e, ok := t.entries[id]
	if !ok {
		e = &Entry{}
		t.entries[id] = e
		t.ids.Add(id)
	}
	return e
}

// Lookup returns the entry for id.
func (t *Table) Lookup(id string) (*Entry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

// IDs returns the identifiers in first-seen order.
func (t *Table) IDs() []string {
	return t.ids.Slice()
}

// Len returns the number of identifiers.
func (t *Table) Len() int {
	return t.ids.Len()
}

// Changes describes the table as one ModelChange per identifier. Every
// call returns a new map with its own model slices.
func (t *Table) Changes() map[string]ModelChange {
	out := make(map[string]ModelChange, t.ids.Len())
	for _, id := range t.ids.order {
		e := t.entries[id]
		if e.Deleted {
			out[id] = Deleted()
		} else {
			out[id] = Updated(slices.Clone(e.Models)...)
		}
	}
	return out
}
