package weakref

import (
	"sync/atomic"
	"testing"
)

type item struct {
	n    int
	dead atomic.Bool
}

func (i *item) Alive() bool { return !i.dead.Load() }

func newItems(n int) []*item {
	items := make([]*item, n)
	for i := range items {
		items[i] = &item{n: i}
	}
	return items
}

func TestArrayAppendAndGet(t *testing.T) {
	items := newItems(3)
	arr := From(items...)

	if arr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", arr.Len())
	}
	for i, want := range items {
		got, ok := arr.Get(i)
		if !ok || got != want {
			t.Errorf("Get(%d) = %v, %v; want %v, true", i, got, ok, want)
		}
	}
}

func TestArrayNewHasDeadSlots(t *testing.T) {
	arr := NewArray[*item](5)

	if arr.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", arr.Len())
	}
	for i := 0; i < arr.Len(); i++ {
		if _, ok := arr.Get(i); ok {
			t.Errorf("Get(%d) ok = true, want false", i)
		}
	}
}

func TestArraySet(t *testing.T) {
	arr := NewArray[*item](2)
	it := &item{n: 7}

	arr.Set(1, it)

	if _, ok := arr.Get(0); ok {
		t.Error("slot 0 should still be dead")
	}
	if got, ok := arr.Get(1); !ok || got != it {
		t.Errorf("Get(1) = %v, %v; want %v, true", got, ok, it)
	}
}

func TestArrayPrunePreservesOrder(t *testing.T) {
	items := newItems(6)
	arr := From(items...)
	items[1].dead.Store(true)
	arr.Ref(3).Release()
	arr.Clear(4)

	got := arr.Prune()

	if got != arr {
		t.Error("Prune() should return the receiver")
	}
	want := []int{0, 2, 5}
	if arr.Len() != len(want) {
		t.Fatalf("Len() after Prune = %d, want %d", arr.Len(), len(want))
	}
	for i, n := range want {
		v, ok := arr.Get(i)
		if !ok || v.n != n {
			t.Errorf("slot %d = %v, %v; want item %d", i, v, ok, n)
		}
	}
}

func TestArrayForEachYieldsDeadSlots(t *testing.T) {
	items := newItems(3)
	arr := From(items...)
	items[1].dead.Store(true)

	var alive []bool
	arr.ForEach(func(_ *item, ok bool) {
		alive = append(alive, ok)
	})

	want := []bool{true, false, true}
	if len(alive) != len(want) {
		t.Fatalf("ForEach visited %d slots, want %d", len(alive), len(want))
	}
	for i := range want {
		if alive[i] != want[i] {
			t.Errorf("slot %d alive = %v, want %v", i, alive[i], want[i])
		}
	}
}

func TestArrayMapCallsOncePerSlot(t *testing.T) {
	items := newItems(4)
	arr := From(items...)
	items[2].dead.Store(true)

	calls := 0
	mapped := arr.Map(func(v *item, ok bool) (*item, bool) {
		calls++
		if !ok {
			return nil, false
		}
		return &item{n: v.n * 10}, true
	})

	if calls != 4 {
		t.Errorf("transform called %d times, want 4", calls)
	}
	if mapped.Len() != 4 {
		t.Fatalf("mapped Len() = %d, want 4 (Map must not prune)", mapped.Len())
	}
	if _, ok := mapped.Get(2); ok {
		t.Error("dead slot should stay dead after Map")
	}
	if v, _ := mapped.Get(3); v.n != 30 {
		t.Errorf("mapped slot 3 = %d, want 30", v.n)
	}
	if arr.Len() != 4 {
		t.Error("Map must not modify the source array")
	}
}

func TestArrayMapCanDropLiveSlots(t *testing.T) {
	arr := From(newItems(3)...)

	mapped := arr.Map(func(v *item, ok bool) (*item, bool) {
		return v, ok && v.n != 1
	})

	if _, ok := mapped.Get(1); ok {
		t.Error("slot 1 should be dead after transform dropped it")
	}
	if mapped.Len() != 3 {
		t.Errorf("Len() = %d, want 3", mapped.Len())
	}
}

func TestArrayCompactMap(t *testing.T) {
	items := newItems(5)
	arr := From(items...)
	items[0].dead.Store(true)

	calls := 0
	out := arr.CompactMap(func(v *item, ok bool) (*item, bool) {
		calls++
		if !ok {
			return &item{n: -1}, true
		}
		return v, v.n%2 == 0
	})

	if calls != 5 {
		t.Errorf("transform called %d times, want 5", calls)
	}
	values := out.Values()
	if len(values) != 2 || values[0].n != 2 || values[1].n != 4 {
		t.Errorf("CompactMap values = %v, want items 2 and 4", values)
	}
}

func TestArrayFilterDropsDeadSlots(t *testing.T) {
	items := newItems(4)
	arr := From(items...)
	items[3].dead.Store(true)

	calls := 0
	out := arr.Filter(func(v *item) bool {
		calls++
		return v.n != 1
	})

	if calls != 3 {
		t.Errorf("keep called %d times, want 3", calls)
	}
	if out.Len() != 2 {
		t.Fatalf("Filter Len() = %d, want 2", out.Len())
	}
}

func TestArrayFilterSharesLiveness(t *testing.T) {
	arr := From(newItems(2)...)
	out := arr.Filter(func(*item) bool { return true })

	arr.Ref(0).Release()

	if _, ok := out.Get(0); ok {
		t.Error("filtered array should observe release of the shared reference")
	}
}

func TestArrayIndex(t *testing.T) {
	items := newItems(3)
	arr := From(items...)

	if i := arr.Index(func(v *item) bool { return v == items[2] }); i != 2 {
		t.Errorf("Index() = %d, want 2", i)
	}
	items[2].dead.Store(true)
	if i := arr.Index(func(v *item) bool { return v == items[2] }); i != -1 {
		t.Errorf("Index() of dead item = %d, want -1", i)
	}
}
