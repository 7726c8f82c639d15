package exec

import (
	"github.com/cznic/mathutil"

	"github.com/quarrydb/quarry/chunk"
	"github.com/quarrydb/quarry/common"
)

// BatchLimitExec decorates a batch source with a row budget. Each request is clamped to
// what is left of the budget before delegating - the source handles a clamped value of
// zero itself, so no zero check here. A child that over-produces is truncated, never
// trusted.
type BatchLimitExec struct {
	child     BatchExecutor
	colTypes  []common.ColumnType
	remaining uint64
}

var _ BatchExecutor = &BatchLimitExec{}

func NewBatchLimitExec(child BatchExecutor, colTypes []common.ColumnType, limit uint64) *BatchLimitExec {
	return &BatchLimitExec{child: child, colTypes: colTypes, remaining: limit}
}

func (e *BatchLimitExec) NextBatch(requestedRows int) (*Batch, error) {
	if e.remaining == 0 {
		return &Batch{Chunk: chunk.NewChunk(e.colTypes), Drained: true}, nil
	}
	clamped := requestedRows
	if e.remaining <= uint64(mathutil.MaxInt) {
		clamped = mathutil.Min(requestedRows, int(e.remaining))
	}
	batch, err := e.child.NextBatch(clamped)
	if err != nil {
		return nil, err
	}
	produced := uint64(batch.Chunk.NumRows())
	if produced > e.remaining {
		batch.Chunk.TruncateTo(int(e.remaining))
		produced = e.remaining
	}
	e.remaining -= produced
	if e.remaining == 0 {
		batch.Drained = true
	}
	return batch, nil
}

// CollectStatistics relays to the child unchanged - the decorator scans nothing and
// produces nothing of its own.
func (e *BatchLimitExec) CollectStatistics(dest *Statistics) {
	e.child.CollectStatistics(dest)
}

func (e *BatchLimitExec) Close() error {
	return e.child.Close()
}
