package model

import "strings"

// ChangeKind tells whether an identifier was updated or deleted.
type ChangeKind uint8

const (
	// ChangeUpdated means new data arrived for the identifier.
	ChangeUpdated ChangeKind = iota
	// ChangeDeleted means the identifier was deleted.
	ChangeDeleted
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeUpdated:
		return "UPDATED"
	case ChangeDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// ModelChange describes what one instruction did to one identifier.
// For updates, Models holds every projection that arrived, in order.
type ModelChange struct {
	Kind   ChangeKind
	Models []Node
}

// Updated returns an update change carrying the given projections.
func Updated(models ...Node) ModelChange {
	return ModelChange{Kind: ChangeUpdated, Models: models}
}

// Deleted returns a delete change.
func Deleted() ModelChange {
	return ModelChange{Kind: ChangeDeleted}
}

// Equal reports whether two changes are the same. Deletions are always
// equal; updates are equal when their model lists are element-wise equal.
func (c ModelChange) Equal(other ModelChange) bool {
	if c.Kind != other.Kind {
		return false
	}
	if c.Kind == ChangeDeleted {
		return true
	}
	if len(c.Models) != len(other.Models) {
		return false
	}
	for i := range c.Models {
		if !Equal(c.Models[i], other.Models[i]) {
			return false
		}
	}
	return true
}

// ModelUpdates lists the identifiers that changed or were deleted in a
// listener's tree. The two sets are disjoint.
type ModelUpdates struct {
	Changed IDSet
	Deleted IDSet
}

// Empty reports whether nothing changed.
func (u ModelUpdates) Empty() bool {
	return u.Changed.Len() == 0 && u.Deleted.Len() == 0
}

// Union merges other into u. An id deleted by either side is not reported
// as changed.
func (u *ModelUpdates) Union(other ModelUpdates) {
	u.Changed.Union(other.Changed)
	u.Deleted.Union(other.Deleted)
	u.Changed.RemoveIf(u.Deleted.Has)
}

// Clone returns an independent copy.
func (u ModelUpdates) Clone() ModelUpdates {
	return ModelUpdates{Changed: u.Changed.Clone(), Deleted: u.Deleted.Clone()}
}

// Equal compares both sets, ignoring order.
func (u ModelUpdates) Equal(other ModelUpdates) bool {
	return u.Changed.Equal(other.Changed) && u.Deleted.Equal(other.Deleted)
}

// String formats the updates for logs and test failures.
func (u ModelUpdates) String() string {
	return "changed=[" + strings.Join(u.Changed.order, ",") + "] deleted=[" + strings.Join(u.Deleted.order, ",") + "]"
}
