// Package batch groups several listeners into one.
//
// A batch Listener registers itself with the consistency manager. Its
// current model is a model.Batch of the inner listeners' models, so one
// instruction recomputes all of them together. After a commit, every inner
// listener whose model changed receives its own ModelUpdated call, and the
// Delegate receives a single call naming exactly those listeners:
//
//	b, err := batch.New([]consistency.Listener{header, list}, manager)
//	b.SetDelegate(batch.DelegateFunc(func(_ *batch.Listener, updated []consistency.Listener, u model.ModelUpdates, _ any) {
//		redraw(updated)
//	}))
//
// Inner listeners must not also be registered with the manager on their
// own; they would be recomputed twice.
package batch
