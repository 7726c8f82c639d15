package exec

import (
	"github.com/quarrydb/quarry/chunk"
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/execctx"
	"github.com/quarrydb/quarry/plan"
)

// BatchSelectionExec filters a pulled batch into a fresh chunk. Conditions are the same
// bound predicates the row chain uses, evaluated against the chunk's typed columns.
type BatchSelectionExec struct {
	child      BatchExecutor
	schema     []*common.ColumnInfo
	colTypes   []common.ColumnType
	conditions []boundCondition
}

var _ BatchExecutor = &BatchSelectionExec{}

func NewBatchSelectionExec(child BatchExecutor, schema []*common.ColumnInfo, desc *plan.SelectionDesc, ectx *execctx.EvalContext) (*BatchSelectionExec, error) {
	conditions, err := bindConditions(schema, desc, ectx)
	if err != nil {
		return nil, err
	}
	colTypes := make([]common.ColumnType, len(schema))
	for i, col := range schema {
		colTypes[i] = col.ColumnType
	}
	return &BatchSelectionExec{
		child:      child,
		schema:     schema,
		colTypes:   colTypes,
		conditions: conditions,
	}, nil
}

func (e *BatchSelectionExec) NextBatch(requestedRows int) (*Batch, error) {
	batch, err := e.child.NextBatch(requestedRows)
	if err != nil {
		return nil, err
	}
	src := batch.Chunk
	filtered := chunk.NewChunk(e.colTypes)
	for rowIdx := 0; rowIdx < src.NumRows(); rowIdx++ {
		row := src.GetRow(rowIdx)
		match := true
		for i := range e.conditions {
			cond := &e.conditions[i]
			val, err := row.GetDatum(cond.offset, cond.col.ColumnType)
			if err != nil {
				return nil, err
			}
			ok, err := evalCondition(cond, val)
			if err != nil {
				return nil, err
			}
			if !ok {
				match = false
				break
			}
		}
		if match {
			filtered.AppendRow(row)
		}
	}
	batch.Chunk = filtered
	return batch, nil
}

func (e *BatchSelectionExec) CollectStatistics(dest *Statistics) {
	e.child.CollectStatistics(dest)
}

func (e *BatchSelectionExec) Close() error {
	return e.child.Close()
}
