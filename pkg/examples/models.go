package examples

import (
	"fmt"
	"strings"

	"github.com/graphcache/consistency-go/pkg/model"
)

// UpdateModel is a single post in a stream that can be liked.
type UpdateModel struct {
	Identifier string
	Liked      bool
}

// NewUpdate returns an UpdateModel.
func NewUpdate(id string, liked bool) *UpdateModel {
	return &UpdateModel{Identifier: id, Liked: liked}
}

func (u *UpdateModel) ID() string               { return u.Identifier }
func (u *UpdateModel) ForEach(func(model.Node)) {}

func (u *UpdateModel) Map(func(model.Node) model.Node) model.Node {
	return u
}

func (u *UpdateModel) MergeWith(other model.Node) model.Node {
	if o, ok := other.(*UpdateModel); ok {
		return o
	}
	return u
}

func (u *UpdateModel) Equal(other model.Node) bool {
	o, ok := other.(*UpdateModel)
	return ok && o != nil && o.Identifier == u.Identifier && o.Liked == u.Liked
}

// WithLiked returns a copy of u with Liked set.
func (u *UpdateModel) WithLiked(liked bool) *UpdateModel {
	return &UpdateModel{Identifier: u.Identifier, Liked: liked}
}

func (u *UpdateModel) String() string {
	if u.Liked {
		return u.Identifier + " (liked)"
	}
	return u.Identifier
}

// StreamModel is an ordered list of updates. Updates are optional
// children: a deleted update is dropped from the stream.
type StreamModel struct {
	Identifier string
	Updates    []*UpdateModel
}

// NewStream returns a StreamModel.
func NewStream(id string, updates ...*UpdateModel) *StreamModel {
	return &StreamModel{Identifier: id, Updates: updates}
}

func (s *StreamModel) ID() string { return s.Identifier }

func (s *StreamModel) ForEach(fn func(model.Node)) {
	for _, u := range s.Updates {
		fn(u)
	}
}

func (s *StreamModel) Map(fn func(model.Node) model.Node) model.Node {
	updates := make([]*UpdateModel, 0, len(s.Updates))
	for _, u := range s.Updates {
		if n, ok := fn(u).(*UpdateModel); ok {
			updates = append(updates, n)
		}
	}
	return &StreamModel{Identifier: s.Identifier, Updates: updates}
}

func (s *StreamModel) MergeWith(other model.Node) model.Node {
	if o, ok := other.(*StreamModel); ok {
		return o
	}
	return s
}

func (s *StreamModel) Equal(other model.Node) bool {
	o, ok := other.(*StreamModel)
	if !ok || o == nil || o.Identifier != s.Identifier || len(o.Updates) != len(s.Updates) {
		return false
	}
	for i := range s.Updates {
		if !s.Updates[i].Equal(o.Updates[i]) {
			return false
		}
	}
	return true
}

// Update returns the update with the given id.
func (s *StreamModel) Update(id string) (*UpdateModel, bool) {
	for _, u := range s.Updates {
		if u.Identifier == id {
			return u, true
		}
	}
	return nil, false
}

func (s *StreamModel) String() string {
	parts := make([]string, len(s.Updates))
	for i, u := range s.Updates {
		parts[i] = u.String()
	}
	return fmt.Sprintf("stream %s [%s]", s.Identifier, strings.Join(parts, ", "))
}

var (
	_ model.Node = (*UpdateModel)(nil)
	_ model.Node = (*StreamModel)(nil)
)
