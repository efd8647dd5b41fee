package examples

import (
	"sync"

	"github.com/graphcache/consistency-go/pkg/consistency"
	"github.com/graphcache/consistency-go/pkg/model"
)

// Publisher is the part of the consistency manager the views use.
type Publisher interface {
	AddListener(l consistency.Listener) error
	RemoveListener(l consistency.Listener)
	UpdateModel(root model.Node, ctx any) error
	DeleteModel(target model.Node, ctx any) error
	PauseListener(l consistency.Listener) error
	ResumeListener(l consistency.Listener) error
}

// StreamView shows a whole stream, like a list screen.
type StreamView struct {
	mu        sync.Mutex
	publisher Publisher
	stream    *StreamModel
	onChange  func(*StreamModel, model.ModelUpdates)
}

// NewStreamView returns an empty view. It registers itself once Load
// gives it a stream.
func NewStreamView(p Publisher) *StreamView {
	return &StreamView{publisher: p}
}

// OnChange sets a callback for streams delivered by the manager.
func (v *StreamView) OnChange(fn func(*StreamModel, model.ModelUpdates)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = fn
}

// Load shows stream and starts listening for its changes.
func (v *StreamView) Load(stream *StreamModel) error {
	v.mu.Lock()
	v.stream = stream
	v.mu.Unlock()
	return v.publisher.AddListener(v)
}

// Stream returns the stream on display.
func (v *StreamView) Stream() *StreamModel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stream
}

// ToggleLike flips the liked state of the update with the given id.
func (v *StreamView) ToggleLike(id string, ctx any) error {
	stream := v.Stream()
	if stream == nil {
		return ErrUnknownUpdate
	}
	u, ok := stream.Update(id)
	if !ok {
		return ErrUnknownUpdate
	}
	return v.publisher.UpdateModel(u.WithLiked(!u.Liked), ctx)
}

// Close stops listening.
func (v *StreamView) Close() {
	v.publisher.RemoveListener(v)
}

// CurrentModel returns the stream, or nil before Load.
func (v *StreamView) CurrentModel() model.Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stream == nil {
		return nil
	}
	return v.stream
}

// ModelUpdated stores the new stream.
func (v *StreamView) ModelUpdated(m model.Node, updates model.ModelUpdates, _ any) {
	stream, _ := m.(*StreamModel)

	v.mu.Lock()
	if stream != nil && stream.Equal(v.stream) {
		v.mu.Unlock()
		return
	}
	v.stream = stream
	fn := v.onChange
	v.mu.Unlock()

	if fn != nil {
		fn(stream, updates)
	}
}

// DetailView shows a single update, like a detail screen.
type DetailView struct {
	mu        sync.Mutex
	publisher Publisher
	update    *UpdateModel
	deleted   bool
	onChange  func(*UpdateModel, bool)
}

// NewDetailView shows u and starts listening for its changes.
func NewDetailView(p Publisher, u *UpdateModel) (*DetailView, error) {
	v := &DetailView{publisher: p, update: u}
	if err := p.AddListener(v); err != nil {
		return nil, err
	}
	return v, nil
}

// OnChange sets a callback for changes. deleted is true once the update
// was deleted.
func (v *DetailView) OnChange(fn func(u *UpdateModel, deleted bool)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = fn
}

// Update returns the update on display and whether it was deleted.
func (v *DetailView) Update() (*UpdateModel, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.update, v.deleted
}

// ToggleLike flips the liked state of the update.
func (v *DetailView) ToggleLike(ctx any) error {
	u, deleted := v.Update()
	if deleted {
		return ErrDeleted
	}
	return v.publisher.UpdateModel(u.WithLiked(!u.Liked), ctx)
}

// Delete deletes the update everywhere.
func (v *DetailView) Delete(ctx any) error {
	u, deleted := v.Update()
	if deleted {
		return ErrDeleted
	}
	return v.publisher.DeleteModel(u, ctx)
}

// Hide pauses the view. Changes are held back until Show.
func (v *DetailView) Hide() error {
	return v.publisher.PauseListener(v)
}

// Show resumes the view.
func (v *DetailView) Show() error {
	return v.publisher.ResumeListener(v)
}

// Close stops listening.
func (v *DetailView) Close() {
	v.publisher.RemoveListener(v)
}

// CurrentModel returns the update, or nil once deleted.
func (v *DetailView) CurrentModel() model.Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.deleted {
		return nil
	}
	return v.update
}

// ModelUpdated stores the new update. A nil model means it was deleted;
// the last known value stays on display.
func (v *DetailView) ModelUpdated(m model.Node, _ model.ModelUpdates, _ any) {
	v.mu.Lock()
	u, ok := m.(*UpdateModel)
	switch {
	case !ok:
		v.deleted = true
	case u.Equal(v.update):
		v.mu.Unlock()
		return
	default:
		v.update = u
	}
	update, deleted, fn := v.update, v.deleted, v.onChange
	v.mu.Unlock()

	if fn != nil {
		fn(update, deleted)
	}
}

var (
	_ consistency.Listener = (*StreamView)(nil)
	_ consistency.Listener = (*DetailView)(nil)
	_ Publisher            = (*consistency.Manager)(nil)
)
