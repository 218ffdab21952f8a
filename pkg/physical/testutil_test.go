package physical

// mockOperator replays a fixed sequence of batches: a small in-memory
// stand-in for a real scan that the test wires in as a child operator.
type mockOperator struct {
	schema  *Schema
	batches []*Batch
	idx     int
	opened  bool
	closed  bool
}

func newMockOperator(schema *Schema, batches []*Batch) *mockOperator {
	return &mockOperator{schema: schema, batches: batches}
}

func (m *mockOperator) Open() error {
	m.opened = true
	m.idx = 0
	return nil
}

func (m *mockOperator) Next() (*Batch, error) {
	if m.idx >= len(m.batches) {
		return nil, nil
	}
	b := m.batches[m.idx]
	m.idx++
	return b, nil
}

func (m *mockOperator) GetBlock(k int) (*Batch, error) {
	return DefaultGetBlock(m, k)
}

func (m *mockOperator) Close() error {
	m.closed = true
	return nil
}

func (m *mockOperator) GetSchema() *Schema { return m.schema }

// chunkTuples packs tuples into batches of at most capacity tuples each, in
// order — the shape a real paginated scan would hand an operator.
func chunkTuples(tuples []*Tuple, capacity int) []*Batch {
	var batches []*Batch
	for len(tuples) > 0 {
		n := capacity
		if n > len(tuples) {
			n = len(tuples)
		}
		b := NewBatch(capacity)
		for _, t := range tuples[:n] {
			_ = b.Append(t)
		}
		batches = append(batches, b)
		tuples = tuples[n:]
	}
	return batches
}

func intTuple(vals ...int64) *Tuple {
	values := make([]Value, len(vals))
	for i, v := range vals {
		values[i] = IntValue(v)
	}
	return NewTuple(values)
}

func drainAll(op Operator) ([]*Tuple, error) {
	var out []*Tuple
	for {
		b, err := op.Next()
		if err != nil {
			return nil, err
		}
		if b == nil {
			return out, nil
		}
		out = append(out, b.Tuples...)
	}
}
