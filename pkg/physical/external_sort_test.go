package physical

import "testing"

func withConfig(t *testing.T, c Config) {
	prev := GetConfig()
	SetConfig(c)
	t.Cleanup(func() { SetConfig(prev) })
}

func TestExternalSortOrdersAndPreservesMultiset(t *testing.T) {
	// One int8-byte field per tuple; pageSize=8 forces exactly one tuple
	// per page, and numBuff=2 forces multiple runs (each run = 2 tuples)
	// followed by at least one merge pass, exercising the mergeFanInFloor
	// fix for the B=2 convergence edge case (§4.3, DESIGN.md).
	withConfig(t, Config{PageSize: 8, NumBuff: 2})

	schema := NewSchema(Field{Name: "k", Tag: TagInt})
	input := []*Tuple{
		intTuple(5), intTuple(1), intTuple(4), intTuple(1), intTuple(3),
	}
	child := newMockOperator(schema, chunkTuples(input, 1))

	es := NewExternalSort(child, []int{0}, 2, "left", NewExecContext())
	if err := es.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, err := drainAll(es)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if err := es.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := []int64{1, 1, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %d tuples, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Values[0].Int() != w {
			t.Fatalf("got[%d] = %d, want %d", i, got[i].Values[0].Int(), w)
		}
	}
}

func TestExternalSortEmptyChildProducesEmptyOutput(t *testing.T) {
	withConfig(t, DefaultConfig)

	schema := NewSchema(Field{Name: "k", Tag: TagInt})
	child := newMockOperator(schema, nil)

	es := NewExternalSort(child, []int{0}, 4, "left", NewExecContext())
	if err := es.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer es.Close()

	b, err := es.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if b != nil {
		t.Fatalf("expected end-of-stream on a 0-tuple child, got %+v", b)
	}
}

func TestExternalSortPageTooSmallErrors(t *testing.T) {
	withConfig(t, Config{PageSize: 1, NumBuff: 4})

	schema := NewSchema(Field{Name: "k", Tag: TagInt})
	child := newMockOperator(schema, nil)

	es := NewExternalSort(child, []int{0}, 4, "left", NewExecContext())
	if err := es.Open(); err == nil {
		t.Fatal("expected an error when pageSize is smaller than one tuple")
	}
}
