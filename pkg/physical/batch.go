package physical

import "fmt"

// Batch is a fixed-capacity page of Tuples — the unit of I/O and the unit
// delivered by Operator.Next. Tuples keep insertion order (§3).
type Batch struct {
	Tuples   []*Tuple
	capacity int
}

// NewBatch allocates an empty Batch with room for up to capacity tuples. A
// capacity of 0 is legal but Append always fails on it.
func NewBatch(capacity int) *Batch {
	return &Batch{Tuples: make([]*Tuple, 0, capacity), capacity: capacity}
}

func (b *Batch) Capacity() int { return b.capacity }
func (b *Batch) Len() int      { return len(b.Tuples) }
func (b *Batch) Full() bool    { return len(b.Tuples) >= b.capacity }
func (b *Batch) Empty() bool   { return len(b.Tuples) == 0 }

// Append adds a tuple to the batch. A Batch never exceeds its declared
// capacity (§3 invariant); appending past it is a programming error.
func (b *Batch) Append(t *Tuple) error {
	if b.Full() {
		e := newDataError("Batch.Append", fmt.Sprintf("batch at capacity %d", b.capacity))
		e.Code = CodeBatchOverflow
		return e
	}
	b.Tuples = append(b.Tuples, t)
	return nil
}

// At returns the tuple at cursor i, or a cursor-out-of-range error.
func (b *Batch) At(i int) (*Tuple, error) {
	if i < 0 || i >= len(b.Tuples) {
		e := newDataError("Batch.At", fmt.Sprintf("cursor %d out of range [0,%d)", i, len(b.Tuples)))
		e.Code = CodeCursorOutOfRange
		return nil, e
	}
	return b.Tuples[i], nil
}

// Block is a logical group of up to a configured limit of batches held in
// memory simultaneously: ExternalSort's run-generation unit (limit =
// numBuff). BlockNestedJoin's left-side block of numBuff-2 batches does not
// use this type: it is requested from the left child as a page count via
// GetBlock and arrives as one over-sized Batch (see block_nested_join.go).
type Block struct {
	Batches []*Batch
	limit   int
}

func NewBlock(limit int) *Block {
	return &Block{Batches: make([]*Batch, 0, limit), limit: limit}
}

func (blk *Block) Full() bool { return len(blk.Batches) >= blk.limit }

func (blk *Block) Add(b *Batch) { blk.Batches = append(blk.Batches, b) }

// Flatten returns every tuple held by the block's batches, insertion order
// preserved — the input to Phase 1's in-memory run sort.
func (blk *Block) Flatten() []*Tuple {
	out := make([]*Tuple, 0)
	for _, b := range blk.Batches {
		out = append(out, b.Tuples...)
	}
	return out
}
