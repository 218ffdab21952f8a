package physical

import "testing"

func TestCompareMultiKey(t *testing.T) {
	left := intTuple(1, 5)
	right := intTuple(1, 9)
	c, err := Compare(left, right, []int{0, 1}, []int{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c >= 0 {
		t.Fatalf("Compare() = %d, want negative (first key ties, second key orders left before right)", c)
	}
}

func TestCompareArityMismatch(t *testing.T) {
	_, err := Compare(intTuple(1), intTuple(1), []int{0, 0}, []int{0})
	if err == nil {
		t.Fatal("expected an error for mismatched key index vector lengths")
	}
}

func TestCheckJoin(t *testing.T) {
	ok, err := CheckJoin(intTuple(7), intTuple(7), []int{0}, []int{0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected equal keys to report a join match")
	}

	ok, err = CheckJoin(intTuple(7), intTuple(8), []int{0}, []int{0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected unequal keys to report no join match")
	}
}
