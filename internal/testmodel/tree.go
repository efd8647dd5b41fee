package testmodel

import (
	"fmt"
	"strconv"

	"github.com/graphcache/consistency-go/pkg/model"
)

// TreeKind names the projection a TreeModel represents.
type TreeKind string

const (
	KindData      TreeKind = "data"
	KindOtherData TreeKind = "otherData"
	KindBoth      TreeKind = "both"
)

// TreeModel is one entity seen through three projections: only Data, only
// OtherData, or both. Both children are optional.
type TreeModel struct {
	Kind       TreeKind
	Number     int
	Data       int
	OtherData  int
	Child      *TreeModel
	OtherChild *TreeModel
}

func (m *TreeModel) ID() string         { return strconv.Itoa(m.Number) }
func (m *TreeModel) Projection() string { return string(m.Kind) }

func (m *TreeModel) ForEach(fn func(model.Node)) {
	if m.Child != nil {
		fn(m.Child)
	}
	if m.OtherChild != nil {
		fn(m.OtherChild)
	}
}

func (m *TreeModel) Map(fn func(model.Node) model.Node) model.Node {
	out := *m
	out.Child = mapTreeChild(m.Child, fn)
	out.OtherChild = mapTreeChild(m.OtherChild, fn)
	return &out
}

func mapTreeChild(c *TreeModel, fn func(model.Node) model.Node) *TreeModel {
	if c == nil {
		return nil
	}
	n, _ := fn(c).(*TreeModel)
	return n
}

func (m *TreeModel) MergeWith(other model.Node) model.Node {
	o, ok := other.(*TreeModel)
	if !ok {
		return m
	}
	return m.merge(o)
}

func (m *TreeModel) merge(o *TreeModel) *TreeModel {
	out := *m
	ownsData := o.Kind == KindBoth || o.Kind == KindData
	ownsOther := o.Kind == KindBoth || o.Kind == KindOtherData
	if (m.Kind == KindData || m.Kind == KindBoth) && ownsData {
		out.Data = o.Data
	}
	if (m.Kind == KindOtherData || m.Kind == KindBoth) && ownsOther {
		out.OtherData = o.OtherData
	}
	out.Child = mergeTreeChild(m.Child, o.Child)
	out.OtherChild = mergeTreeChild(m.OtherChild, o.OtherChild)
	return &out
}

func mergeTreeChild(current, incoming *TreeModel) *TreeModel {
	if current == nil || incoming == nil {
		return nil
	}
	return current.merge(incoming)
}

func (m *TreeModel) Equal(other model.Node) bool {
	o, ok := other.(*TreeModel)
	if !ok {
		return false
	}
	return m.Kind == o.Kind && m.Number == o.Number && m.Data == o.Data && m.OtherData == o.OtherData &&
		treeEqual(m.Child, o.Child) && treeEqual(m.OtherChild, o.OtherChild)
}

func treeEqual(a, b *TreeModel) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func (m *TreeModel) String() string {
	return fmt.Sprintf("%d:%d:%d|%v|%v", m.Number, m.Data, m.OtherData, m.Child, m.OtherChild)
}

var _ model.Projected = (*TreeModel)(nil)
