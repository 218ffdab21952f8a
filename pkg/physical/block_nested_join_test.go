package physical

import "testing"

func TestBlockNestedJoinCardinality(t *testing.T) {
	keySchema := NewSchema(Field{Name: "k", Tag: TagInt})
	withConfig(t, Config{PageSize: 16, NumBuff: 4})

	leftKeys := []int64{1, 1, 2, 3, 1, 4}
	rightKeys := []int64{1, 1, 5}

	var leftTuples, rightTuples []*Tuple
	for _, k := range leftKeys {
		leftTuples = append(leftTuples, intTuple(k))
	}
	for _, k := range rightKeys {
		rightTuples = append(rightTuples, intTuple(k))
	}

	left := newMockOperator(keySchema, chunkTuples(leftTuples, 2))
	right := newMockOperator(keySchema, chunkTuples(rightTuples, 2))

	join := NewBlockNestedJoin(left, right, []int{0}, []int{0}, 4, NewExecContext())
	if err := join.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, err := drainAll(join)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if err := join.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(got) != 6 {
		t.Fatalf("got %d output tuples, want 6 (count_L(1)=3 * count_R(1)=2)", len(got))
	}
	for _, tup := range got {
		if tup.Values[0].Int() != 1 || tup.Values[1].Int() != 1 {
			t.Fatalf("unexpected join pair %v, want both sides key 1", tup.Values)
		}
	}
}

func TestBlockNestedJoinNoMatches(t *testing.T) {
	keySchema := NewSchema(Field{Name: "k", Tag: TagInt})
	withConfig(t, Config{PageSize: 16, NumBuff: 3})

	left := newMockOperator(keySchema, chunkTuples([]*Tuple{intTuple(1), intTuple(2)}, 1))
	right := newMockOperator(keySchema, chunkTuples([]*Tuple{intTuple(9)}, 1))

	join := NewBlockNestedJoin(left, right, []int{0}, []int{0}, 3, NewExecContext())
	if err := join.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer join.Close()

	got, err := drainAll(join)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d output tuples, want 0", len(got))
	}
}

func TestBlockNestedJoinRequiresThreeBuffers(t *testing.T) {
	keySchema := NewSchema(Field{Name: "k", Tag: TagInt})
	withConfig(t, DefaultConfig)

	left := newMockOperator(keySchema, nil)
	right := newMockOperator(keySchema, nil)

	join := NewBlockNestedJoin(left, right, []int{0}, []int{0}, 2, NewExecContext())
	if err := join.Open(); err == nil {
		t.Fatal("expected an error when numBuff leaves no room for a left block")
	}
}

func TestBlockNestedJoinEmptyLeftEndsCleanly(t *testing.T) {
	keySchema := NewSchema(Field{Name: "k", Tag: TagInt})
	withConfig(t, Config{PageSize: 16, NumBuff: 3})

	left := newMockOperator(keySchema, nil)
	right := newMockOperator(keySchema, chunkTuples([]*Tuple{intTuple(1)}, 1))

	join := NewBlockNestedJoin(left, right, []int{0}, []int{0}, 3, NewExecContext())
	if err := join.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer join.Close()

	b, err := join.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if b != nil {
		t.Fatalf("expected end-of-stream on a 0-tuple left child, got %+v", b)
	}
}
