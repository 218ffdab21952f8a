package physical

import "testing"

func TestBatchAppendRespectsCapacity(t *testing.T) {
	b := NewBatch(2)
	if err := b.Append(intTuple(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Append(intTuple(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Full() {
		t.Fatal("expected batch to report full at capacity")
	}
	if err := b.Append(intTuple(3)); err == nil {
		t.Fatal("expected an error appending past capacity")
	}
}

func TestBatchAtOutOfRange(t *testing.T) {
	b := NewBatch(1)
	if _, err := b.At(0); err == nil {
		t.Fatal("expected an error indexing an empty batch")
	}
}

func TestBlockFlattenPreservesOrder(t *testing.T) {
	block := NewBlock(2)
	b1 := NewBatch(2)
	_ = b1.Append(intTuple(1))
	_ = b1.Append(intTuple(2))
	b2 := NewBatch(2)
	_ = b2.Append(intTuple(3))
	block.Add(b1)
	block.Add(b2)

	if !block.Full() {
		t.Fatal("expected block to be full at its limit")
	}

	flat := block.Flatten()
	if len(flat) != 3 {
		t.Fatalf("got %d tuples, want 3", len(flat))
	}
	for i, want := range []int64{1, 2, 3} {
		if flat[i].Values[0].Int() != want {
			t.Fatalf("flat[%d] = %d, want %d", i, flat[i].Values[0].Int(), want)
		}
	}
}
