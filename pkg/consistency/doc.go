// Package consistency keeps listeners of a shared, normalized object graph
// consistent as updates and deletions arrive.
//
// # Overview
//
// A listener owns a snapshot of part of the graph (its current model). The
// Manager indexes every identifier reachable from each snapshot and, when an
// update or delete arrives, recomputes only the listeners whose snapshot
// contains one of the touched identifiers.
//
//	m := consistency.NewManager()
//	defer m.Close()
//
//	m.AddListener(view)
//	m.UpdateModel(user, "refresh")
//
// # Instruction Pipeline
//
// Updates, deletes and resumes are instructions. One worker goroutine
// processes them in FIFO order, so an instruction enqueued first always
// commits first, however expensive it is. Each instruction goes through:
//
//  1. Flatten: the incoming tree becomes an identifier table.
//  2. Impact: the registry buckets of those identifiers give the listeners
//     to recompute.
//  3. Fence A: current models are fetched on the delivery context.
//  4. Rebuild: each listener tree is rebuilt through Node.Map, merging
//     incoming projections and removing deleted identifiers. Removing a
//     required child removes its parent too (cascading delete).
//  5. Fence B: on the delivery context, the registry is updated and every
//     impacted listener is notified in one block.
//
// Only the two fences run on the delivery context. Within one instruction
// every listener sees the same generation of state.
//
// # Delivery Context
//
// The Dispatcher decides where fences run. The default is an EventLoop,
// a single goroutine that owns all listener callbacks. Inline runs fences on
// the worker itself, which is convenient in tests.
//
// Callbacks must not call Sync or Close; both wait for the worker, which is
// blocked until the callback returns.
//
// # Pausing
//
// A paused listener is still recomputed but not called back. Its changes are
// coalesced into a pending record and delivered once on ResumeListener.
// Changes that cancel out while paused are never delivered.
//
// # Garbage Collection
//
// Listeners are referenced through releasable handles. A listener that was
// removed, or that implements weakref.Liveness and reports itself dead,
// leaves dead slots behind. A periodic pass prunes them while the worker is
// idle. CleanMemory prunes synchronously.
package consistency
