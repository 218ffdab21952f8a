package physical

// Operator is the pull-protocol contract every physical operator, and every
// external leaf scan the core consumes, must satisfy (§4.1, §6).
type Operator interface {
	// Open performs one-time setup: allocating buffers, opening children,
	// materializing spill files. Must be called exactly once before any
	// Next. A non-nil error means the host must not call Next.
	Open() error

	// Next returns the next page of output tuples, or a nil Batch with a
	// nil error to signal end-of-stream. Next must not be called again
	// once it has returned end-of-stream.
	Next() (*Batch, error)

	// GetBlock returns up to k pages of tuples packed into one over-sized
	// Batch. Required of the left child of BlockNestedJoin; any other
	// Operator can satisfy it with DefaultGetBlock.
	GetBlock(k int) (*Batch, error)

	// Close idempotently deletes spill files and releases handles. Always
	// returns nil to the caller (§7: close is best-effort).
	Close() error

	// GetSchema returns the schema of the tuples this operator produces.
	// Valid to call at any time, including before Open.
	GetSchema() *Schema
}

// DefaultGetBlock implements GetBlock for any Operator by concatenating k
// successive Next calls into one over-sized Batch, exactly the fallback
// §4.1 sanctions ("default implementations may fulfill it by concatenating
// k successive next calls").
func DefaultGetBlock(op Operator, k int) (*Batch, error) {
	cap := k * pageCapacity(op.GetSchema())
	if cap < 1 {
		cap = 1
	}
	merged := NewBatch(cap)
	for i := 0; i < k; i++ {
		b, err := op.Next()
		if err != nil {
			return nil, err
		}
		if b == nil {
			break
		}
		for _, t := range b.Tuples {
			if merged.Full() {
				grown := NewBatch(merged.capacity * 2)
				grown.Tuples = append(grown.Tuples, merged.Tuples...)
				merged = grown
			}
			if err := merged.Append(t); err != nil {
				return nil, err
			}
		}
	}
	if merged.Len() == 0 {
		return nil, nil
	}
	return merged, nil
}

func pageCapacity(schema *Schema) int {
	size := schema.TupleSize()
	if size <= 0 {
		return 0
	}
	return GetConfig().PageSize / size
}
