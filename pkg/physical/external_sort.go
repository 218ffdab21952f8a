package physical

import (
	"container/heap"
	"fmt"
	"sort"

	"bufferquery/pkg/logging"
)

// mergeFanInFloor guarantees a merge pass strictly decreases the run
// count even at numBuff=2, where the nominal fan-in (numBuff-1=1) would
// otherwise merge singleton groups forever. §4.3's design note claims this
// case "still converges"; enforcing a floor of 2 is how that claim holds in
// this implementation (see DESIGN.md).
const mergeFanInFloor = 2

// ExternalSort sorts its child's output on attrIndex using at most numBuff
// page buffers, spilling intermediate runs to disk and merging them down
// to one (§4.3). direction tags the spill files so two ExternalSorts
// feeding one join (one per side) never collide.
type ExternalSort struct {
	child     Operator
	schema    *Schema
	attrIndex []int
	numBuff   int
	direction string
	ctx       *ExecContext

	capacity int
	finalRun string
	reader   *runReader
	drained  bool
	opened   bool
}

func NewExternalSort(child Operator, attrIndex []int, numBuff int, direction string, ctx *ExecContext) *ExternalSort {
	return &ExternalSort{
		child:     child,
		schema:    child.GetSchema(),
		attrIndex: attrIndex,
		numBuff:   numBuff,
		direction: direction,
		ctx:       ctx,
	}
}

func (es *ExternalSort) GetSchema() *Schema { return es.schema }

// Open runs Phase 1 (run generation) and Phase 2 (merge passes) to
// completion, leaving a single sorted run file positioned at its start for
// Phase 3 streaming via Next.
func (es *ExternalSort) Open() error {
	if err := es.child.Open(); err != nil {
		return wrapSpillError("ExternalSort.Open", err)
	}

	tupleSize := es.schema.TupleSize()
	pageSize := GetConfig().PageSize
	if pageSize < tupleSize {
		return newConfigError(CodePageTooSmall, "ExternalSort.Open",
			fmt.Sprintf("pageSize %d < tupleSize %d", pageSize, tupleSize))
	}
	es.capacity = pageSize / tupleSize
	if es.capacity < 1 {
		return newConfigError(CodePageTooSmall, "ExternalSort.Open", "page capacity below 1 tuple")
	}

	runs, err := es.generateRuns()
	if err != nil {
		return err
	}
	if err := es.child.Close(); err != nil {
		return wrapSpillError("ExternalSort.Open", err)
	}

	final, err := es.mergePasses(runs)
	if err != nil {
		return err
	}
	es.finalRun = final

	reader, err := openRun(es.finalRun, es.schema, es.capacity)
	if err != nil {
		return err
	}
	es.reader = reader
	es.opened = true
	return nil
}

// generateRuns implements Phase 1: pull batches into a Block of up to
// numBuff batches, sort the flattened tuples, repack into pageCapacity
// batches, and spill as one run. Always produces at least one run file —
// even for a 0-tuple child — so the post-Open invariant ("exactly one run
// file exists") holds on the empty-input boundary case.
func (es *ExternalSort) generateRuns() ([]string, error) {
	var runs []string
	for {
		block := NewBlock(es.numBuff)
		childDone := false
		for !block.Full() {
			b, err := es.child.Next()
			if err != nil {
				return nil, wrapSpillError("ExternalSort.generateRuns", err)
			}
			if b == nil {
				childDone = true
				break
			}
			block.Add(b)
		}
		if len(block.Batches) > 0 {
			name, err := es.flushRun(block)
			if err != nil {
				return nil, err
			}
			runs = append(runs, name)
		}
		if childDone {
			break
		}
	}
	if len(runs) == 0 {
		name, err := es.flushRun(NewBlock(0))
		if err != nil {
			return nil, err
		}
		runs = append(runs, name)
	}
	return runs, nil
}

func (es *ExternalSort) flushRun(block *Block) (string, error) {
	tuples := block.Flatten()
	var sortErr error
	sort.SliceStable(tuples, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := Compare(tuples[i], tuples[j], es.attrIndex, es.attrIndex)
		if err != nil {
			sortErr = err
			return false
		}
		return c < 0
	})
	if sortErr != nil {
		return "", sortErr
	}

	name := es.ctx.RunFileName(es.direction)
	w, err := createRun(name, es.schema)
	if err != nil {
		return "", err
	}

	batch := NewBatch(es.capacity)
	for _, t := range tuples {
		if batch.Full() {
			if err := w.Write(batch); err != nil {
				w.Close()
				return "", err
			}
			batch = NewBatch(es.capacity)
		}
		if err := batch.Append(t); err != nil {
			w.Close()
			return "", err
		}
	}
	if !batch.Empty() {
		if err := w.Write(batch); err != nil {
			w.Close()
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// mergePasses implements Phase 2: while more than one run remains,
// partition into groups of at most fanIn runs and merge each group into a
// single new run, deleting the inputs.
func (es *ExternalSort) mergePasses(runs []string) (string, error) {
	fanIn := es.numBuff - 1
	if fanIn < mergeFanInFloor {
		fanIn = mergeFanInFloor
	}

	mergePass := 0
	for len(runs) > 1 {
		var next []string
		for i := 0; i < len(runs); i += fanIn {
			end := i + fanIn
			if end > len(runs) {
				end = len(runs)
			}
			group := runs[i:end]
			name, err := es.mergeGroup(group, mergePass)
			if err != nil {
				return "", err
			}
			next = append(next, name)
			for _, g := range group {
				if err := removeRun(g); err != nil {
					logging.Warn("external sort: failed to remove intermediate run", "file", g, "error", err)
				}
			}
		}
		runs = next
		mergePass++
	}
	return runs[0], nil
}

// heapItem is one candidate for the next output tuple in mergeGroup's
// k-way merge, carrying which reader it came from so the merge can pull
// that reader's next tuple once the item is popped.
type heapItem struct {
	tuple  *Tuple
	reader int
}

type mergeHeap struct {
	items     []heapItem
	attrIndex []int
	err       error
}

func (h *mergeHeap) Len() int { return len(h.items) }
func (h *mergeHeap) Less(i, j int) bool {
	if h.err != nil {
		return false
	}
	c, err := Compare(h.items[i].tuple, h.items[j].tuple, h.attrIndex, h.attrIndex)
	if err != nil {
		h.err = err
		return false
	}
	return c < 0
}
func (h *mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x any)    { h.items = append(h.items, x.(heapItem)) }
func (h *mergeHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// mergeGroup performs one k-way merge of group's run files into a single
// new run, using a min-heap keyed by the sort comparator — the reference
// choice §4.3 names for a "correct k-way merge".
func (es *ExternalSort) mergeGroup(group []string, mergePass int) (string, error) {
	readers := make([]*runReader, len(group))
	batches := make([]*Batch, len(group))
	positions := make([]int, len(group))
	for i, name := range group {
		r, err := openRun(name, es.schema, es.capacity)
		if err != nil {
			return "", err
		}
		readers[i] = r
	}
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	h := &mergeHeap{attrIndex: es.attrIndex}
	heap.Init(h)

	pull := func(i int) error {
		if batches[i] == nil || positions[i] >= batches[i].Len() {
			b, err := readers[i].Next()
			if err != nil {
				return err
			}
			if b == nil {
				batches[i] = nil
				return nil
			}
			batches[i] = b
			positions[i] = 0
		}
		t, err := batches[i].At(positions[i])
		if err != nil {
			return err
		}
		positions[i]++
		heap.Push(h, heapItem{tuple: t, reader: i})
		return nil
	}

	for i := range readers {
		if err := pull(i); err != nil {
			return "", err
		}
	}

	name := es.ctx.MergeFileName(es.direction, mergePass)
	w, err := createRun(name, es.schema)
	if err != nil {
		return "", err
	}

	outBatch := NewBatch(es.capacity)
	for h.Len() > 0 {
		item := heap.Pop(h).(heapItem)
		if h.err != nil {
			w.Close()
			return "", h.err
		}
		if err := outBatch.Append(item.tuple); err != nil {
			w.Close()
			return "", err
		}
		if outBatch.Full() {
			if err := w.Write(outBatch); err != nil {
				w.Close()
				return "", err
			}
			outBatch = NewBatch(es.capacity)
		}
		if err := pull(item.reader); err != nil {
			w.Close()
			return "", err
		}
	}
	if !outBatch.Empty() {
		if err := w.Write(outBatch); err != nil {
			w.Close()
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// Next implements Phase 3: stream successive batches from the final sorted
// run. A read failure is treated as end-of-stream (§4.3/§7) — it is never
// surfaced as an error here.
func (es *ExternalSort) Next() (*Batch, error) {
	if es.drained {
		return nil, nil
	}
	b, err := es.reader.Next()
	if err != nil {
		logging.Warn("external sort: final run unreadable, ending stream", "file", es.finalRun, "error", err)
	}
	if err != nil || b == nil {
		es.drained = true
		return nil, nil
	}
	return b, nil
}

func (es *ExternalSort) GetBlock(k int) (*Batch, error) {
	return DefaultGetBlock(es, k)
}

// Close deletes the final run file and swallows delete errors (§4.3).
func (es *ExternalSort) Close() error {
	if !es.opened {
		return nil
	}
	if es.reader != nil {
		es.reader.Close()
		es.reader = nil
	}
	if es.finalRun != "" {
		_ = removeRun(es.finalRun)
		es.finalRun = ""
	}
	es.opened = false
	return nil
}
