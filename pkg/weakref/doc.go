// Package weakref provides non-owning references and an index-addressable
// container of them.
//
// Go has no weak references to interface values, so liveness is explicit:
// a Ref is dead once Release is called, or when the referenced value
// implements Liveness and reports itself gone. Containers never keep a dead
// value reachable through their public API, and Prune drops the slots
// entirely.
//
//	arr := weakref.NewArray[Listener](0)
//	arr.Append(l1)
//	arr.Append(l2)
//	ref := arr.Ref(0)
//	ref.Release()        // slot 0 is now dead
//	arr.Prune()          // arr.Len() == 1
package weakref
