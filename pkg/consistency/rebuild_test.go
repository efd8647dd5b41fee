package consistency

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/graphcache/consistency-go/internal/testmodel"
	"github.com/graphcache/consistency-go/pkg/model"
)

func TestRebuildScenarios(t *testing.T) {
	tests := []struct {
		name        string
		old         model.Node
		incoming    model.Node
		wantChanged []string
		wantDeleted []string
		wantNil     bool
		unchanged   bool
	}{
		{
			name:        "required child deleted",
			old:         testmodel.New("0", 0, nil, testmodel.NewRequired("1", 0)),
			incoming:    model.NewTombstone("1"),
			wantDeleted: []string{"0", "1"},
			wantNil:     true,
		},
		{
			name:        "optional child deleted",
			old:         tree("0", 0, tree("2", 2)),
			incoming:    model.NewTombstone("2"),
			wantChanged: []string{"0"},
			wantDeleted: []string{"2"},
		},
		{
			name:        "deep update",
			old:         testmodel.GenerateTestModel(14, 2, nil),
			incoming:    testmodel.NewRequired("13", 99),
			wantChanged: []string{"0", "4", "12", "13"},
		},
		{
			name:      "unrelated id",
			old:       tree("0", 0),
			incoming:  tree("8", 8),
			unchanged: true,
		},
		{
			name:      "equal data",
			old:       tree("0", 0, tree("2", 2)),
			incoming:  tree("2", 2),
			unchanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newRebuilder(model.Flatten(tt.incoming))
			got := b.rebuild(tt.old)

			assert.Equal(t, tt.unchanged, got.unchanged)
			assert.Equal(t, tt.wantNil, got.root == nil)
			assert.Equal(t, tt.wantChanged, nilIfEmpty(got.updates.Changed.Slice()))
			assert.Equal(t, tt.wantDeleted, nilIfEmpty(got.updates.Deleted.Slice()))
			assert.Empty(t, b.errors)
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestRebuildSharedNodeOccurrences(t *testing.T) {
	// 9 appears twice; only one occurrence is under a replaced parent.
	shared := testmodel.NewRequired("9", 0)
	old := testmodel.New("0", 0, []*testmodel.TestModel{
		testmodel.New("2", 2, nil, shared),
		testmodel.New("4", 4, nil, shared),
	}, testmodel.NewRequired("1", 0))

	b := newRebuilder(model.Flatten(testmodel.New("2", 2, nil, testmodel.NewRequired("7", 0))))
	got := b.rebuild(old)

	assert.Equal(t, []string{"0", "2", "9"}, got.updates.Changed.Slice())
	assert.Equal(t, 0, got.updates.Deleted.Len())
}

func TestRebuildNilTree(t *testing.T) {
	b := newRebuilder(model.Flatten(tree("0", 0)))
	got := b.rebuild(nil)
	assert.True(t, got.unchanged)
	assert.Nil(t, got.root)
}

func TestCriticalErrorFormatting(t *testing.T) {
	err := &CriticalError{Reason: ReasonWrongMapClass, ID: "3", Detail: "boom"}
	assert.Equal(t, `WrongMapClass (id "3"): boom`, err.Error())
	assert.ErrorIs(t, err, ErrWrongMapClass)

	err = &CriticalError{Reason: ReasonDeleteIDFailure, Detail: "no id"}
	assert.Equal(t, "DeleteIDFailure: no id", err.Error())
	assert.ErrorIs(t, err, ErrDeleteIDFailure)

	assert.Nil(t, (&CriticalError{Reason: "Other"}).Unwrap())
}
