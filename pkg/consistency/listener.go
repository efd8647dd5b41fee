package consistency

import "github.com/graphcache/consistency-go/pkg/model"

// Listener observes part of the object graph.
//
// Listeners are used as map keys, so their dynamic type must be a pointer;
// other types are rejected with ErrNotComparable. A listener that implements weakref.Liveness is
// dropped once Alive reports false.
type Listener interface {
	// CurrentModel returns the listener's snapshot. It is called on the
	// delivery context, except from AddListener and PauseListener which call
	// it on the caller's goroutine.
	CurrentModel() model.Node

	// ModelUpdated delivers a recomputed snapshot. m is nil when the whole
	// tree was deleted.
	ModelUpdated(m model.Node, updates model.ModelUpdates, ctx any)
}

// GlobalListener receives every instruction's changes, whether or not a
// listener was impacted. Each subscriber gets its own changes map.
type GlobalListener interface {
	ModelsChanged(root model.Node, changes map[string]model.ModelChange, ctx any)
}

// GlobalListenerFunc adapts a function to GlobalListener.
type GlobalListenerFunc func(root model.Node, changes map[string]model.ModelChange, ctx any)

// ModelsChanged calls f.
func (f GlobalListenerFunc) ModelsChanged(root model.Node, changes map[string]model.ModelChange, ctx any) {
	f(root, changes, ctx)
}

// GlobalListenerID identifies a registered global listener.
type GlobalListenerID uint64

var _ GlobalListener = GlobalListenerFunc(nil)
