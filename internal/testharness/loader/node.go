package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/graphcache/consistency-go/internal/testmodel"
	"github.com/graphcache/consistency-go/pkg/model"
)

// Validate checks the spec and its descendants. A nil spec is valid.
func (n *NodeSpec) Validate() error {
	if n == nil {
		return nil
	}
	switch n.kind() {
	case KindTest, KindProjection:
	case KindRequired, KindTombstone:
		if len(n.Children) > 0 || n.Required != nil {
			return fmt.Errorf("node %q: %s nodes have no children", n.ID, n.kind())
		}
	default:
		return fmt.Errorf("node %q: unknown kind %q", n.ID, n.Kind)
	}
	if n.Required != nil && n.Required.kind() != KindRequired {
		return fmt.Errorf("node %q: required child must be of kind required", n.ID)
	}
	for _, c := range n.Children {
		if c.kind() != n.kind() {
			return fmt.Errorf("node %q: child %q must be of kind %s", n.ID, c.ID, n.kind())
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (n *NodeSpec) kind() string {
	if n.Kind == "" {
		return KindTest
	}
	return n.Kind
}

// Build returns the model the spec describes. A nil spec builds nil.
func (n *NodeSpec) Build() model.Node {
	if n == nil {
		return nil
	}
	switch n.kind() {
	case KindRequired:
		return n.required()
	case KindTombstone:
		return model.NewTombstone(n.ID)
	case KindProjection:
		return n.projection()
	default:
		return n.test()
	}
}

func (n *NodeSpec) required() *testmodel.RequiredModel {
	if n == nil {
		return nil
	}
	return testmodel.NewRequired(n.ID, n.Data)
}

func (n *NodeSpec) test() *testmodel.TestModel {
	children := make([]*testmodel.TestModel, len(n.Children))
	for i, c := range n.Children {
		children[i] = c.test()
	}
	return testmodel.New(n.ID, n.Data, children, n.Required.required())
}

func (n *NodeSpec) projection() *testmodel.ProjectionModel {
	children := make([]*testmodel.ProjectionModel, len(n.Children))
	for i, c := range n.Children {
		children[i] = c.projection()
	}
	return &testmodel.ProjectionModel{
		Identifier: n.ID,
		Data:       n.Data,
		OtherData:  n.OtherData,
		Children:   children,
		Required:   n.Required.required(),
	}
}

// DecodeNodeSpec converts a generic YAML value, as found in an expect
// block, into a NodeSpec.
func DecodeNodeSpec(v any) (*NodeSpec, error) {
	if v == nil {
		return nil, nil
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var spec NodeSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}
