package physical

import (
	"fmt"

	"bufferquery/pkg/logging"
)

// BlockNestedJoin materializes its right child to a spill file once, then
// streams the left child in (numBuff-2)-page blocks and rescans the
// materialized right file against each block (§4.5). The right file is
// re-opened once per left block, so it is read once per left block rather
// than once per left tuple — the whole point of blocking.
type BlockNestedJoin struct {
	left, right          Operator
	leftIndex, rightIdx  []int
	numBuff              int
	ctx                  *ExecContext
	schema               *Schema

	batchsize, blockPages int
	rfname                string
	reader                *runReader

	leftBatch, rightBatch *Batch
	lcurs, rcurs          int
	eosl, eosr            bool

	opened, closed bool
}

func NewBlockNestedJoin(left, right Operator, leftIndex, rightIndex []int, numBuff int, ctx *ExecContext) *BlockNestedJoin {
	return &BlockNestedJoin{
		left:      left,
		right:     right,
		leftIndex: leftIndex,
		rightIdx:  rightIndex,
		numBuff:   numBuff,
		ctx:       ctx,
		schema:    left.GetSchema().Combine(right.GetSchema()),
	}
}

func (j *BlockNestedJoin) GetSchema() *Schema { return j.schema }

// Open computes the block size, materializes the right child to a single
// spill file, and opens the left child. The right file is deliberately
// materialized exactly once here rather than re-reading the right operator
// itself on every left block — the right child may be an arbitrary, not
// necessarily re-scannable, operator tree.
func (j *BlockNestedJoin) Open() error {
	tupleSize := j.schema.TupleSize()
	pageSize := GetConfig().PageSize
	if pageSize < tupleSize {
		return newConfigError(CodePageTooSmall, "BlockNestedJoin.Open",
			fmt.Sprintf("pageSize %d < tupleSize %d", pageSize, tupleSize))
	}
	j.batchsize = pageSize / tupleSize
	if j.batchsize < 1 {
		return newConfigError(CodePageTooSmall, "BlockNestedJoin.Open", "page capacity below 1 tuple")
	}
	j.blockPages = j.numBuff - 2
	if j.blockPages < 1 {
		return newConfigError(CodeBufferTooSmall, "BlockNestedJoin.Open",
			fmt.Sprintf("numBuff %d leaves no room for a left block (need at least 3)", j.numBuff))
	}

	j.lcurs = 0
	j.rcurs = 0
	j.eosl = false
	j.eosr = true

	if err := j.right.Open(); err != nil {
		return wrapSpillError("BlockNestedJoin.Open", err)
	}
	j.rfname = j.ctx.NextBNJFile()
	w, err := createRun(j.rfname, j.right.GetSchema())
	if err != nil {
		return err
	}
	for {
		b, err := j.right.Next()
		if err != nil {
			w.Close()
			return wrapSpillError("BlockNestedJoin.Open", err)
		}
		if b == nil {
			break
		}
		if err := w.Write(b); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := j.right.Close(); err != nil {
		return wrapSpillError("BlockNestedJoin.Open", err)
	}

	if err := j.left.Open(); err != nil {
		return err
	}
	j.opened = true
	return nil
}

// Next drives the block-nested loop (§4.5): pull a new left block whenever
// lcurs has rewound to 0 and the right file scan has reached its own end,
// then stream matching batches of the right file against the whole block.
// When the output batch fills mid-scan, lcurs/rcurs are left positioned so
// the next Next call resumes exactly where this one stopped.
func (j *BlockNestedJoin) Next() (*Batch, error) {
	if j.eosl {
		return nil, nil
	}
	outbatch := NewBatch(j.batchsize)
	for !outbatch.Full() {
		if j.lcurs == 0 && j.eosr {
			lb, err := j.left.GetBlock(j.blockPages)
			if err != nil {
				return nil, err
			}
			if lb == nil {
				j.eosl = true
				if outbatch.Empty() {
					return nil, nil
				}
				return outbatch, nil
			}
			j.leftBatch = lb

			r, err := openRun(j.rfname, j.right.GetSchema(), j.batchsize)
			if err != nil {
				logging.Warn("block nested join: right spill unreadable, ending stream", "file", j.rfname, "error", err)
				j.eosl = true
				if outbatch.Empty() {
					return nil, nil
				}
				return outbatch, nil
			}
			j.reader = r
			j.eosr = false
		}

		for !j.eosr {
			if j.rcurs == 0 && j.lcurs == 0 {
				rb, err := j.reader.Next()
				if err != nil {
					j.reader.Close()
					logging.Warn("block nested join: right spill unreadable, ending stream", "file", j.rfname, "error", err)
					j.eosl = true
					if outbatch.Empty() {
						return nil, nil
					}
					return outbatch, nil
				}
				if rb == nil {
					j.reader.Close()
					j.eosr = true
					continue
				}
				j.rightBatch = rb
			}

			lastI := j.leftBatch.Len() - 1
			lastJ := j.rightBatch.Len() - 1
			for i := j.lcurs; i < j.leftBatch.Len(); i++ {
				for jx := j.rcurs; jx < j.rightBatch.Len(); jx++ {
					lt, err := j.leftBatch.At(i)
					if err != nil {
						return nil, err
					}
					rt, err := j.rightBatch.At(jx)
					if err != nil {
						return nil, err
					}
					ok, err := CheckJoin(lt, rt, j.leftIndex, j.rightIdx)
					if err != nil {
						return nil, err
					}
					if !ok {
						continue
					}
					if err := outbatch.Append(lt.Combine(rt)); err != nil {
						return nil, err
					}
					if outbatch.Full() {
						switch {
						case i == lastI && jx == lastJ:
							j.lcurs, j.rcurs = 0, 0
						case i != lastI && jx == lastJ:
							j.lcurs, j.rcurs = i+1, 0
						default:
							j.lcurs, j.rcurs = i, jx+1
						}
						return outbatch, nil
					}
				}
				j.rcurs = 0
			}
			j.lcurs = 0
		}
	}
	return outbatch, nil
}

// GetBlock delegates straight to Next, exactly as in the reference
// algorithm: BlockNestedJoin never needs a wider page than its own output
// batch.
func (j *BlockNestedJoin) GetBlock(k int) (*Batch, error) {
	return j.Next()
}

// Close removes the materialized right-side spill file and is idempotent
// (§4.1: Close may be called more than once).
func (j *BlockNestedJoin) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	if j.reader != nil {
		j.reader.Close()
		j.reader = nil
	}
	if j.opened {
		_ = removeRun(j.rfname)
	}
	return nil
}
