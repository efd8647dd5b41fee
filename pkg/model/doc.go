// Package model defines the capability every cached entity implements so the
// consistency engine can find, rebuild and merge it.
//
// # Nodes
//
// A Node is an immutable snapshot of one entity. Nodes form trees: a node
// enumerates its direct children with ForEach and rebuilds itself with new
// children through Map. Both only look at direct children; callers recurse
// through the function they pass in.
//
//	Stream (id "100")
//	├── Update (id "0")
//	├── Update (id "1")
//	└── Update (id "2")
//
// # Identifiers and Projections
//
// ID returns the stable identifier shared by every representation of an
// entity, or "" for structural nodes with no identity of their own. A node
// that is only a partial view of its entity implements Projected; the
// projection name tells the engine which fields the node owns.
//
// # Deletion and Cascades
//
// Map returns nil when a required child was mapped to nil. The engine uses
// this to propagate a deletion upwards: a parent that cannot exist without a
// deleted child is deleted too. Optional children mapped to nil are simply
// dropped by the implementation.
//
// # Change Reporting
//
// ModelUpdates carries the ordered changed and deleted identifier sets
// delivered to listeners. ModelChange describes, per identifier, what an
// instruction did, and is what global change listeners receive.
package model
