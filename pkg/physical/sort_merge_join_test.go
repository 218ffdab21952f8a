package physical

import "testing"

func kvTuple(k int64, s string) *Tuple {
	return NewTuple([]Value{IntValue(k), StringValue(s)})
}

func TestSortMergeJoinDuplicateGroupCardinality(t *testing.T) {
	// A page sized for one joined tuple holds two single-side tuples, so the
	// right side's sorted key=1 duplicate group (3 tuples) spans two pages,
	// exercising the temp/tempcurs buffering that lets a duplicate group
	// cross a batch boundary (§4.4).
	keySchema := NewSchema(Field{Name: "k", Tag: TagInt}, Field{Name: "v", Tag: TagString})
	withConfig(t, Config{PageSize: keySchema.Combine(keySchema).TupleSize(), NumBuff: 3})

	left := newMockOperator(keySchema, chunkTuples([]*Tuple{
		kvTuple(2, "c"), kvTuple(1, "b"), kvTuple(1, "a"),
	}, 1))
	right := newMockOperator(keySchema, chunkTuples([]*Tuple{
		kvTuple(3, "w"), kvTuple(1, "z"), kvTuple(1, "y"), kvTuple(1, "x"),
	}, 1))

	join := NewSortMergeJoin(left, right, []int{0}, []int{0}, 3, NewExecContext())
	if err := join.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, err := drainAll(join)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}

	// count_L(1)=2, count_R(1)=3 -> 6 matches; key 2 and 3 each match nothing.
	if len(got) != 6 {
		t.Fatalf("got %d output tuples, want 6", len(got))
	}
	for _, tup := range got {
		lk := tup.Values[0].Int()
		rk := tup.Values[2].Int()
		if lk != 1 || rk != 1 {
			t.Fatalf("unexpected join pair left=%d right=%d, want both 1", lk, rk)
		}
	}
}

func TestSortMergeJoinNoMatches(t *testing.T) {
	keySchema := NewSchema(Field{Name: "k", Tag: TagInt})
	withConfig(t, Config{PageSize: 64, NumBuff: 4})

	left := newMockOperator(keySchema, chunkTuples([]*Tuple{intTuple(1), intTuple(2)}, 2))
	right := newMockOperator(keySchema, chunkTuples([]*Tuple{intTuple(5), intTuple(6)}, 2))

	join := NewSortMergeJoin(left, right, []int{0}, []int{0}, 4, NewExecContext())
	if err := join.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := drainAll(join)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d output tuples, want 0", len(got))
	}
}

func TestSortMergeJoinSmallBufferBudget(t *testing.T) {
	// numBuff=2 on each side's ExternalSort drives the mergeFanInFloor
	// convergence fix — without it the B=2 merge pass would never shrink
	// the run count.
	keySchema := NewSchema(Field{Name: "k", Tag: TagInt})
	withConfig(t, Config{PageSize: 16, NumBuff: 2})

	var leftTuples, rightTuples []*Tuple
	for i := int64(9); i >= 0; i-- {
		leftTuples = append(leftTuples, intTuple(i))
	}
	for i := int64(0); i < 10; i++ {
		rightTuples = append(rightTuples, intTuple(i))
	}

	left := newMockOperator(keySchema, chunkTuples(leftTuples, 1))
	right := newMockOperator(keySchema, chunkTuples(rightTuples, 1))

	join := NewSortMergeJoin(left, right, []int{0}, []int{0}, 2, NewExecContext())
	if err := join.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := drainAll(join)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("got %d output tuples, want 10 (one match per key 0..9)", len(got))
	}
}
