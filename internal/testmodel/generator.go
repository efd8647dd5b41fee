package testmodel

import (
	"strconv"

	"github.com/graphcache/consistency-go/pkg/model"
)

// GenerateOptions configures the tree generator.
type GenerateOptions struct {
	// Total is the number of identifiers to allocate (max id + 1). Every tree
	// node uses two, n for itself and n+1 for its required child, so Total
	// must be even.
	Total int

	// Branching is the number of children each node gets, breadth first.
	Branching int

	// StartingID is the id of the root.
	StartingID int

	// IncludeID decides which numeric ids are kept. Nil keeps all.
	IncludeID func(int) bool

	// Projection generates ProjectionModel instead of TestModel.
	Projection bool
}

type genTree struct {
	id       int
	children []*genTree
}

// Generate builds a TestModel (or ProjectionModel) tree where every node's id
// doubles as its data, and its required child has id+1.
func Generate(opts GenerateOptions) model.Node {
	tree := buildTree(opts.Total/2, opts.Branching, opts.StartingID)
	if opts.Projection {
		return projectionFromTree(tree, opts.IncludeID)
	}
	return testModelFromTree(tree, opts.IncludeID)
}

// GenerateTestModel is Generate without the projection variant.
func GenerateTestModel(total, branching int, includeID func(int) bool) *TestModel {
	tree := buildTree(total/2, branching, 0)
	return testModelFromTree(tree, includeID)
}

func buildTree(nodes, branching, startingID int) *genTree {
	current := startingID
	root := &genTree{id: current}
	current += 2
	queue := []*genTree{root}
	remaining := nodes - 1
	for remaining > 0 && len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		n := min(remaining, branching)
		if n == 0 {
			break
		}
		for range n {
			child := &genTree{id: current}
			current += 2
			node.children = append(node.children, child)
			queue = append(queue, child)
			remaining--
		}
	}
	return root
}

func stringID(id int, include func(int) bool) string {
	if include != nil && !include(id) {
		return ""
	}
	return strconv.Itoa(id)
}

func testModelFromTree(t *genTree, include func(int) bool) *TestModel {
	children := make([]*TestModel, len(t.children))
	for i, c := range t.children {
		children[i] = testModelFromTree(c, include)
	}
	return &TestModel{
		Identifier: stringID(t.id, include),
		Data:       t.id,
		Children:   children,
		Required:   &RequiredModel{Identifier: stringID(t.id+1, include), Data: t.id},
	}
}

func projectionFromTree(t *genTree, include func(int) bool) *ProjectionModel {
	children := make([]*ProjectionModel, len(t.children))
	for i, c := range t.children {
		children[i] = projectionFromTree(c, include)
	}
	return &ProjectionModel{
		Identifier: stringID(t.id, include),
		Data:       t.id,
		OtherData:  t.id,
		Children:   children,
		Required:   &RequiredModel{Identifier: stringID(t.id+1, include), Data: t.id},
	}
}
