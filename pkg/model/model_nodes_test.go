package model_test

import (
	"reflect"
	"testing"

	"github.com/graphcache/consistency-go/internal/testmodel"
	"github.com/graphcache/consistency-go/pkg/model"
)

func TestChangeKindString(t *testing.T) {
	tests := []struct {
		kind model.ChangeKind
		want string
	}{
		{model.ChangeUpdated, "UPDATED"},
		{model.ChangeDeleted, "DELETED"},
		{model.ChangeKind(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ChangeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestModelChangeEqual(t *testing.T) {
	a := testmodel.NewRequired("1", 1)
	b := testmodel.NewRequired("1", 2)

	if !model.Deleted().Equal(model.Deleted()) {
		t.Error("deletions should be equal")
	}
	if model.Deleted().Equal(model.Updated(a)) {
		t.Error("deletion should not equal an update")
	}
	if !model.Updated(a).Equal(model.Updated(testmodel.NewRequired("1", 1))) {
		t.Error("updates with equal models should be equal")
	}
	if model.Updated(a).Equal(model.Updated(b)) {
		t.Error("updates with different data should differ")
	}
	if model.Updated(a).Equal(model.Updated(a, b)) {
		t.Error("updates with different lengths should differ")
	}
}

func TestModelUpdatesUnion(t *testing.T) {
	u := model.ModelUpdates{Changed: model.NewIDSet("0", "1")}
	u.Union(model.ModelUpdates{Changed: model.NewIDSet("2"), Deleted: model.NewIDSet("1")})

	want := model.ModelUpdates{Changed: model.NewIDSet("0", "2"), Deleted: model.NewIDSet("1")}
	if !u.Equal(want) {
		t.Errorf("Union = %v, want %v", u, want)
	}
	if u.Empty() {
		t.Error("union should not be empty")
	}
	if !(model.ModelUpdates{}).Empty() {
		t.Error("zero updates should be empty")
	}
}

func TestModelUpdatesString(t *testing.T) {
	u := model.ModelUpdates{Changed: model.NewIDSet("0", "2"), Deleted: model.NewIDSet("3")}
	if got, want := u.String(), "changed=[0,2] deleted=[3]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestWalkAndIDs(t *testing.T) {
	// 0 -> (2 -> 6, 4), required children 1, 3, 5, 7
	root := testmodel.GenerateTestModel(8, 2, nil)

	var visited []string
	model.Walk(root, func(n model.Node) { visited = append(visited, n.ID()) })

	want := []string{"0", "2", "6", "7", "3", "4", "5", "1"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("Walk order = %v, want %v", visited, want)
	}
	if got := model.IDs(root).Slice(); !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
}

func TestIDsSkipsAnonymousNodes(t *testing.T) {
	root := testmodel.GenerateTestModel(6, 2, func(id int) bool { return id != 2 })

	ids := model.IDs(root)
	if ids.Has("") || ids.Has("2") {
		t.Errorf("IDs = %v, should skip the anonymous node", ids.Slice())
	}
	if !ids.Has("3") {
		t.Error("IDs should include children of anonymous nodes")
	}
}

func TestOccurrencesAndFind(t *testing.T) {
	shared := testmodel.NewRequired("9", 9)
	root := testmodel.New("0", 0, []*testmodel.TestModel{
		testmodel.New("1", 1, nil, shared),
		testmodel.New("2", 2, nil, shared),
	}, testmodel.NewRequired("3", 3))

	occ := model.Occurrences(root)
	if len(occ["9"]) != 2 {
		t.Errorf("occurrences of 9 = %d, want 2", len(occ["9"]))
	}
	if len(occ["0"]) != 1 {
		t.Errorf("occurrences of 0 = %d, want 1", len(occ["0"]))
	}

	if got := model.Find(root, "2"); got == nil || got.ID() != "2" {
		t.Errorf("Find(2) = %v", got)
	}
	if got := model.Find(root, "42"); got != nil {
		t.Errorf("Find(42) = %v, want nil", got)
	}
}

func TestFlattenKeepsFirstPerProjection(t *testing.T) {
	first := testmodel.NewRequired("5", 1)
	second := testmodel.NewRequired("5", 2)
	projection := &testmodel.ProjectionModel{Identifier: "7", Data: 7, Required: testmodel.NewRequired("8", 8)}
	root := model.NewBatch(
		testmodel.New("7", 7, nil, first),
		testmodel.New("6", 6, nil, second),
		projection,
	)

	table := model.Flatten(root)

	if got, want := table.IDs(), []string{"7", "5", "6", "8"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}

	e, ok := table.Lookup("5")
	if !ok || len(e.Models) != 1 || !e.Models[0].Equal(first) {
		t.Errorf("entry 5 = %+v, want only the first occurrence", e)
	}

	e, _ = table.Lookup("7")
	if len(e.Models) != 2 {
		t.Fatalf("entry 7 has %d models, want one per projection", len(e.Models))
	}
	if e.Models[1] != model.Node(projection) {
		t.Error("projection should be kept after the TestModel, in arrival order")
	}
}

func TestFlattenTombstoneDominates(t *testing.T) {
	root := model.NewBatch(
		testmodel.NewRequired("1", 1),
		model.NewTombstone("1"),
		testmodel.NewRequired("1", 2),
		model.NewTombstone("2"),
	)

	table := model.Flatten(root)
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}

	changes := table.Changes()
	if changes["1"].Kind != model.ChangeDeleted || changes["2"].Kind != model.ChangeDeleted {
		t.Errorf("Changes() = %+v, want both deleted", changes)
	}
}

func TestTableChanges(t *testing.T) {
	m := testmodel.NewRequired("1", 1)
	table := model.NewTable()
	table.Add("1", m)
	table.MarkDeleted("2")

	if table.Add("2", testmodel.NewRequired("2", 2)) {
		t.Error("Add should refuse a deleted id")
	}

	changes := table.Changes()
	if !changes["1"].Equal(model.Updated(m)) {
		t.Errorf("change 1 = %+v", changes["1"])
	}
	if !changes["2"].Equal(model.Deleted()) {
		t.Errorf("change 2 = %+v", changes["2"])
	}

	delete(changes, "2")
	changes["1"].Models[0] = nil
	again := table.Changes()
	if len(again) != 2 || again["1"].Models[0] != model.Node(m) {
		t.Errorf("Changes() shares state with an earlier result: %+v", again)
	}
}

func TestBatchNode(t *testing.T) {
	a := testmodel.NewRequired("1", 1)
	b := testmodel.NewRequired("2", 2)
	batch := model.NewBatch(a, nil, b)

	if batch.ID() != "" {
		t.Errorf("batch ID = %q, want empty", batch.ID())
	}

	var seen []string
	batch.ForEach(func(n model.Node) { seen = append(seen, n.ID()) })
	if !reflect.DeepEqual(seen, []string{"1", "2"}) {
		t.Errorf("ForEach saw %v, want [1 2]", seen)
	}

	mapped := batch.Map(func(n model.Node) model.Node {
		if n.ID() == "1" {
			return nil
		}
		return n
	}).(*model.Batch)
	if len(mapped.Models) != 3 || mapped.Models[0] != nil || mapped.Models[2] != model.Node(b) {
		t.Errorf("Map = %v, want [nil nil 2]", mapped.Models)
	}

	if !batch.Equal(model.NewBatch(testmodel.NewRequired("1", 1), nil, testmodel.NewRequired("2", 2))) {
		t.Error("batches with equal slots should be equal")
	}
	if batch.Equal(model.NewBatch(a, b)) {
		t.Error("batches with different slot counts should differ")
	}
}

func TestNodeHelpers(t *testing.T) {
	a := testmodel.NewRequired("1", 1)
	tm := testmodel.New("1", 1, nil, a)
	tree := &testmodel.TreeModel{Kind: testmodel.KindData, Number: 1}

	if !model.Equal(nil, nil) || model.Equal(a, nil) || model.Equal(nil, a) {
		t.Error("Equal mishandles nil")
	}
	if !model.SameKind(a, testmodel.NewRequired("2", 2)) || model.SameKind(a, tm) {
		t.Error("SameKind compares concrete types")
	}
	if !model.Identical(a, a) || model.Identical(a, testmodel.NewRequired("1", 1)) {
		t.Error("Identical compares identity")
	}
	if got := model.ProjectionOf(tree); got != "data" {
		t.Errorf("ProjectionOf(tree) = %q, want data", got)
	}
	if model.ProjectionOf(tm) == model.ProjectionOf(&testmodel.ProjectionModel{}) {
		t.Error("distinct types should be distinct projections")
	}
	if !model.IsTombstone(model.NewTombstone("1")) || model.IsTombstone(a) {
		t.Error("IsTombstone wrong")
	}
}

func TestChangedIDs(t *testing.T) {
	old := testmodel.New("0", 0, []*testmodel.TestModel{
		testmodel.New("2", 2, nil, testmodel.NewRequired("3", 0)),
	}, testmodel.NewRequired("1", 0))
	updated := testmodel.New("0", 0, []*testmodel.TestModel{
		testmodel.New("2", 5, nil, testmodel.NewRequired("3", 0)),
	}, testmodel.NewRequired("1", 0))

	if got, want := model.ChangedIDs(old, updated).Slice(), []string{"0", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ChangedIDs = %v, want %v", got, want)
	}
	if got := model.ChangedIDs(old, nil); got.Len() != 0 {
		t.Errorf("ChangedIDs against nil = %v, want empty", got.Slice())
	}
	if got := model.ChangedIDs(nil, updated); got.Len() != 0 {
		t.Errorf("ChangedIDs from nil = %v, want empty", got.Slice())
	}
}
