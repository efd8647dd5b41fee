// Package testmodel provides small node types, a tree generator and a
// recording listener shared by the engine, batch and scenario tests.
package testmodel

import (
	"fmt"

	"github.com/graphcache/consistency-go/pkg/model"
)

// RequiredModel is a leaf that TestModel cannot exist without.
type RequiredModel struct {
	Identifier string
	Data       int
}

// NewRequired returns a RequiredModel.
func NewRequired(id string, data int) *RequiredModel {
	return &RequiredModel{Identifier: id, Data: data}
}

func (m *RequiredModel) ID() string               { return m.Identifier }
func (m *RequiredModel) ForEach(func(model.Node)) {}
func (m *RequiredModel) Map(func(model.Node) model.Node) model.Node {
	return &RequiredModel{Identifier: m.Identifier, Data: m.Data}
}

func (m *RequiredModel) MergeWith(other model.Node) model.Node {
	if o, ok := other.(*RequiredModel); ok {
		return o
	}
	return m
}

func (m *RequiredModel) Equal(other model.Node) bool {
	o, ok := other.(*RequiredModel)
	return ok && o.Identifier == m.Identifier && o.Data == m.Data
}

func requiredEqual(a, b *RequiredModel) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func (m *RequiredModel) String() string {
	return fmt.Sprintf("%s:%d", m.Identifier, m.Data)
}

// TestModel has optional children and one required child.
type TestModel struct {
	Identifier string
	Data       int
	Children   []*TestModel
	Required   *RequiredModel
}

// New returns a TestModel.
func New(id string, data int, children []*TestModel, required *RequiredModel) *TestModel {
	return &TestModel{Identifier: id, Data: data, Children: children, Required: required}
}

func (m *TestModel) ID() string { return m.Identifier }

func (m *TestModel) ForEach(fn func(model.Node)) {
	for _, c := range m.Children {
		fn(c)
	}
	if m.Required != nil {
		fn(m.Required)
	}
}

func (m *TestModel) Map(fn func(model.Node) model.Node) model.Node {
	children := make([]*TestModel, 0, len(m.Children))
	for _, c := range m.Children {
		if n, ok := fn(c).(*TestModel); ok {
			children = append(children, n)
		}
	}
	var required *RequiredModel
	if m.Required != nil {
		r, ok := fn(m.Required).(*RequiredModel)
		if !ok {
			return nil
		}
		required = r
	}
	return &TestModel{Identifier: m.Identifier, Data: m.Data, Children: children, Required: required}
}

func (m *TestModel) MergeWith(other model.Node) model.Node {
	switch o := other.(type) {
	case *TestModel:
		return o
	case *ProjectionModel:
		return testModelFromProjection(o)
	}
	return m
}

func testModelFromProjection(p *ProjectionModel) *TestModel {
	children := make([]*TestModel, len(p.Children))
	for i, c := range p.Children {
		children[i] = testModelFromProjection(c)
	}
	return &TestModel{Identifier: p.Identifier, Data: p.Data, Children: children, Required: p.Required}
}

func (m *TestModel) Equal(other model.Node) bool {
	o, ok := other.(*TestModel)
	if !ok || o.Identifier != m.Identifier || o.Data != m.Data || len(o.Children) != len(m.Children) {
		return false
	}
	for i := range m.Children {
		if !m.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return requiredEqual(m.Required, o.Required)
}

func (m *TestModel) String() string {
	return fmt.Sprintf("%s:%d-%v-%v", m.Identifier, m.Data, m.Required, m.Children)
}

// Child returns the first descendant (or m itself) with the given id.
func (m *TestModel) Child(id string) *TestModel {
	if n, ok := model.Find(m, id).(*TestModel); ok {
		return n
	}
	return nil
}

// ProjectionModel is TestModel with an extra field TestModel doesn't own.
type ProjectionModel struct {
	Identifier string
	Data       int
	OtherData  int
	Children   []*ProjectionModel
	Required   *RequiredModel
}

func (m *ProjectionModel) ID() string { return m.Identifier }

func (m *ProjectionModel) ForEach(fn func(model.Node)) {
	for _, c := range m.Children {
		fn(c)
	}
	if m.Required != nil {
		fn(m.Required)
	}
}

func (m *ProjectionModel) Map(fn func(model.Node) model.Node) model.Node {
	children := make([]*ProjectionModel, 0, len(m.Children))
	for _, c := range m.Children {
		if n, ok := fn(c).(*ProjectionModel); ok {
			children = append(children, n)
		}
	}
	var required *RequiredModel
	if m.Required != nil {
		r, ok := fn(m.Required).(*RequiredModel)
		if !ok {
			return nil
		}
		required = r
	}
	return &ProjectionModel{Identifier: m.Identifier, Data: m.Data, OtherData: m.OtherData, Children: children, Required: required}
}

// MergeWith takes everything from a ProjectionModel. From a TestModel it
// takes everything but OtherData, which TestModel doesn't carry.
func (m *ProjectionModel) MergeWith(other model.Node) model.Node {
	switch o := other.(type) {
	case *ProjectionModel:
		return o
	case *TestModel:
		return m.fromTestModel(o)
	}
	return m
}

func (m *ProjectionModel) fromTestModel(t *TestModel) *ProjectionModel {
	children := make([]*ProjectionModel, len(t.Children))
	for i, c := range t.Children {
		children[i] = m.fromTestModel(c)
	}
	return &ProjectionModel{Identifier: t.Identifier, Data: t.Data, OtherData: m.OtherData, Children: children, Required: t.Required}
}

func (m *ProjectionModel) Equal(other model.Node) bool {
	o, ok := other.(*ProjectionModel)
	if !ok || o.Identifier != m.Identifier || o.Data != m.Data || o.OtherData != m.OtherData || len(o.Children) != len(m.Children) {
		return false
	}
	for i := range m.Children {
		if !m.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return requiredEqual(m.Required, o.Required)
}

func (m *ProjectionModel) String() string {
	return fmt.Sprintf("%s:%d:%d-%v-%v", m.Identifier, m.Data, m.OtherData, m.Required, m.Children)
}

var (
	_ model.Node = (*RequiredModel)(nil)
	_ model.Node = (*TestModel)(nil)
	_ model.Node = (*ProjectionModel)(nil)
)
