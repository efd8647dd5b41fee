package consistency

import (
	"fmt"

	"github.com/graphcache/consistency-go/pkg/model"
)

// rebuilder recomputes listener trees against one instruction's table.
// A single rebuilder is shared by every listener of the instruction so
// that each critical error is reported once.
type rebuilder struct {
	table    *model.Table
	errors   []*CriticalError
	reported map[string]bool
}

func newRebuilder(table *model.Table) *rebuilder {
	return &rebuilder{table: table, reported: make(map[string]bool)}
}

// rebuildResult is the outcome of rebuilding one tree.
type rebuildResult struct {
	root    model.Node
	updates model.ModelUpdates

	// unchanged means the new tree equals the old one and no id changed.
	unchanged bool
}

// rebuild substitutes every node of old whose id is in the table. Incoming
// projections are merged into the current node and the merged node is
// rebuilt in turn. Deleted ids are removed; a node whose Map returns nil
// because a required child was removed is removed as well.
func (b *rebuilder) rebuild(old model.Node) rebuildResult {
	if old == nil {
		return rebuildResult{unchanged: true}
	}

	var removed model.IDSet
	var substitute func(n model.Node) model.Node
	substitute = func(n model.Node) model.Node {
		if n == nil {
			return nil
		}
		id := n.ID()
		source := n
		if id != "" {
			if e, ok := b.table.Lookup(id); ok {
				if e.Deleted {
					removed.Add(id)
					return nil
				}
				for _, incoming := range e.Models {
					source = source.MergeWith(incoming)
				}
			}
		}

		out := source.Map(substitute)
		if out == nil {
			if id != "" {
				removed.Add(id)
			}
			return nil
		}
		if !model.SameKind(source, out) {
			b.wrongMapClass(source, out)
			return n
		}
		return out
	}

	root := substitute(old)
	updates := diff(old, root, removed)
	return rebuildResult{
		root:      root,
		updates:   updates,
		unchanged: updates.Empty() && (model.Identical(old, root) || model.Equal(old, root)),
	}
}

func (b *rebuilder) wrongMapClass(source, out model.Node) {
	id := source.ID()
	if b.reported[id] {
		return
	}
	b.reported[id] = true
	b.errors = append(b.errors, &CriticalError{
		Reason: ReasonWrongMapClass,
		ID:     id,
		Detail: fmt.Sprintf("%s.Map returned %s", model.KindName(source), model.KindName(out)),
	})
}

// diff compares two versions of a tree. An id is changed when it is in
// both trees and its occurrences differ. An id is deleted when it was
// removed by substitution and no longer appears in the new tree; ids that
// merely vanished because their parent was replaced are neither. Both sets
// follow the pre-order of the old tree.
func diff(old, updated model.Node, removed model.IDSet) model.ModelUpdates {
	u := model.ModelUpdates{Changed: model.ChangedIDs(old, updated)}
	if old == nil || removed.Len() == 0 {
		return u
	}
	remaining := model.IDs(updated)
	for _, id := range model.IDs(old).Slice() {
		if removed.Has(id) && !remaining.Has(id) {
			u.Deleted.Add(id)
		}
	}
	return u
}

// sameModel reports whether a listener's model is unchanged between fences.
func sameModel(a, b model.Node) bool {
	return model.Identical(a, b) || model.Equal(a, b)
}
