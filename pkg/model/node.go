package model

import "reflect"

// Node is the capability a cached entity implements.
// Implementations must be immutable: Map and MergeWith return new values.
type Node interface {
	// ID returns the stable identifier of the entity, or "" if the node
	// has no identity of its own.
	ID() string

	// ForEach calls fn for every direct child, including required
	// sub-structures.
	ForEach(fn func(child Node))

	// Map returns a copy of the node with every direct child replaced by
	// fn(child). Optional children mapped to nil are dropped. If a required
	// child maps to nil, Map returns nil.
	Map(fn func(child Node) Node) Node

	// MergeWith merges other, which has the same identifier, into the
	// receiver. Fields owned by other's projection win, the rest are kept.
	MergeWith(other Node) Node

	// Equal reports whether other holds the same data as the receiver.
	Equal(other Node) bool
}

// Projected is implemented by nodes that represent one projection of an
// entity. Nodes that don't implement it are a projection of their own,
// named after their concrete type.
type Projected interface {
	Projection() string
}

// ProjectionOf returns the projection name of n.
func ProjectionOf(n Node) string {
	if p, ok := n.(Projected); ok {
		return p.Projection()
	}
	return KindName(n)
}

// Equal compares two possibly nil nodes.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// SameKind reports whether a and b have the same concrete type.
func SameKind(a, b Node) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// Identical reports whether a and b are the very same value. Unlike a plain
// interface comparison it never panics on non-comparable node types.
func Identical(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// KindName returns the concrete type name of n.
func KindName(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return reflect.TypeOf(n).String()
}
