package physical

import "fmt"

// SortMergeJoin joins two sorted streams by walking both cursors forward in
// lockstep (§4.4). Each side is sorted first by its own ExternalSort, tagged
// "left"/"right" so their spill files never collide with each other or with
// a sibling join's sorts sharing the same ExecContext. The temp buffer that
// holds a right-side duplicate group is not capped: the largest group of
// right tuples sharing one join key must fit in memory.
type SortMergeJoin struct {
	left, right         Operator
	leftIndex, rightIdx []int
	numBuff             int
	ctx                 *ExecContext
	schema              *Schema

	leftSort, rightSort *ExternalSort
	batchsize            int

	leftBatch, rightBatch *Batch
	lcurs, rcurs          int
	tempcurs              int
	temp                  []*Tuple

	closed bool
}

func NewSortMergeJoin(left, right Operator, leftIndex, rightIndex []int, numBuff int, ctx *ExecContext) *SortMergeJoin {
	return &SortMergeJoin{
		left:       left,
		right:      right,
		leftIndex:  leftIndex,
		rightIdx:   rightIndex,
		numBuff:    numBuff,
		ctx:        ctx,
		schema:     left.GetSchema().Combine(right.GetSchema()),
		tempcurs:   -1,
	}
}

func (j *SortMergeJoin) GetSchema() *Schema { return j.schema }

// Open sorts both children on their join attributes and primes one batch
// from each sorted stream (§4.4).
func (j *SortMergeJoin) Open() error {
	tupleSize := j.schema.TupleSize()
	pageSize := GetConfig().PageSize
	if pageSize < tupleSize {
		return newConfigError(CodePageTooSmall, "SortMergeJoin.Open",
			fmt.Sprintf("pageSize %d < tupleSize %d", pageSize, tupleSize))
	}
	j.batchsize = pageSize / tupleSize
	if j.batchsize < 1 {
		return newConfigError(CodePageTooSmall, "SortMergeJoin.Open", "page capacity below 1 tuple")
	}

	j.leftSort = NewExternalSort(j.left, j.leftIndex, j.numBuff, "left", j.ctx)
	j.rightSort = NewExternalSort(j.right, j.rightIdx, j.numBuff, "right", j.ctx)
	if err := j.leftSort.Open(); err != nil {
		return err
	}
	if err := j.rightSort.Open(); err != nil {
		return err
	}

	lb, err := j.leftSort.Next()
	if err != nil {
		return err
	}
	rb, err := j.rightSort.Next()
	if err != nil {
		return err
	}
	j.leftBatch = lb
	j.rightBatch = rb
	j.lcurs = 0
	j.rcurs = 0
	j.tempcurs = -1
	return nil
}

// getRightTuple resolves rcurs against the combined view temp ++
// rightBatch: positions below len(temp) are tuples of earlier right batches
// buffered for the current duplicate group, and the remaining positions are
// offsets rcurs-len(temp) into the live rightBatch. With temp empty, rcurs
// indexes rightBatch directly.
func (j *SortMergeJoin) getRightTuple() (*Tuple, error) {
	if len(j.temp) == 0 {
		return j.rightBatch.At(j.rcurs)
	}
	if j.rcurs < len(j.temp) {
		return j.temp[j.rcurs], nil
	}
	return j.rightBatch.At(j.rcurs - len(j.temp))
}

// advanceRight moves rcurs forward one position, pulling the next sorted
// run batch and folding the just-finished rightBatch into temp first if
// rcurs has walked off the end of it — the mechanism that lets a duplicate
// group of right-side matches span a batch boundary without losing tuples
// already consumed from the old batch.
func (j *SortMergeJoin) advanceRight() error {
	j.rcurs++
	if j.rightBatch != nil && j.rcurs >= j.rightBatch.Len()+len(j.temp) {
		j.temp = append(j.temp, j.rightBatch.Tuples...)
		rb, err := j.rightSort.Next()
		if err != nil {
			return err
		}
		j.rightBatch = rb
	}
	return nil
}

func (j *SortMergeJoin) runLoop(outbatch *Batch) (*Batch, error) {
	for j.leftBatch != nil && j.rightBatch != nil {
		lefttuple, err := j.leftBatch.At(j.lcurs)
		if err != nil {
			return nil, err
		}
		righttuple, err := j.getRightTuple()
		if err != nil {
			return nil, err
		}

		if j.tempcurs == -1 {
			for {
				c, err := Compare(lefttuple, righttuple, j.leftIndex, j.rightIdx)
				if err != nil {
					return nil, err
				}
				if c >= 0 {
					break
				}
				j.lcurs++
				if j.leftBatch != nil && j.lcurs >= j.leftBatch.Len() {
					lb, err := j.leftSort.Next()
					if err != nil {
						return nil, err
					}
					j.leftBatch = lb
					j.lcurs = 0
				}
				if j.leftBatch == nil {
					break
				}
				lefttuple, err = j.leftBatch.At(j.lcurs)
				if err != nil {
					return nil, err
				}
			}

			for j.leftBatch != nil {
				c, err := Compare(lefttuple, righttuple, j.leftIndex, j.rightIdx)
				if err != nil {
					return nil, err
				}
				if c <= 0 {
					break
				}
				if err := j.advanceRight(); err != nil {
					return nil, err
				}
				if j.rightBatch == nil {
					break
				}
				righttuple, err = j.getRightTuple()
				if err != nil {
					return nil, err
				}
			}
			if j.leftBatch == nil {
				break
			}

			// Only drop the buffered earlier-batch tuples once rcurs has
			// actually been normalized past them into the live rightBatch.
			// If rcurs still lands inside temp, the new group starts among
			// those buffered tuples, and clearing temp here would strand
			// tempcurs on a slice that's about to be emptied, silently
			// losing every duplicate-group match still sitting in it.
			if j.rcurs >= len(j.temp) {
				j.rcurs -= len(j.temp)
				j.temp = j.temp[:0]
			}
			j.tempcurs = j.rcurs
		}

		c, err := Compare(lefttuple, righttuple, j.leftIndex, j.rightIdx)
		if err != nil {
			return nil, err
		}
		if c == 0 {
			if err := outbatch.Append(lefttuple.Combine(righttuple)); err != nil {
				return nil, err
			}
			if err := j.advanceRight(); err != nil {
				return nil, err
			}
			if j.rightBatch == nil {
				break
			}
			if outbatch.Full() {
				return outbatch, nil
			}
		} else {
			j.rcurs = j.tempcurs
			j.lcurs++
			if j.leftBatch != nil && j.lcurs >= j.leftBatch.Len() {
				lb, err := j.leftSort.Next()
				if err != nil {
					return nil, err
				}
				j.leftBatch = lb
				j.lcurs = 0
			}
			if j.leftBatch == nil {
				break
			}
			j.tempcurs = -1
		}
	}

	if outbatch.Empty() {
		j.Close()
		return nil, nil
	}
	return outbatch, nil
}

func (j *SortMergeJoin) Next() (*Batch, error) {
	return j.runLoop(NewBatch(j.batchsize))
}

// GetBlock fulfills the general Operator contract (§4.1: k pages' worth of
// tuples), unlike ExternalSort's identical-looking GetBlock which can defer
// to DefaultGetBlock — SortMergeJoin needs its own output batch sized
// before entering runLoop, so it computes the same k*pageCapacity(schema)
// capacity DefaultGetBlock would, inline.
func (j *SortMergeJoin) GetBlock(k int) (*Batch, error) {
	cap := k * pageCapacity(j.schema)
	if cap < 1 {
		cap = 1
	}
	return j.runLoop(NewBatch(cap))
}

func (j *SortMergeJoin) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	if j.leftSort != nil {
		j.leftSort.Close()
	}
	if j.rightSort != nil {
		j.rightSort.Close()
	}
	return nil
}
