package exec

import (
	"github.com/quarrydb/quarry/errors"
	"github.com/quarrydb/quarry/execctx"
	"github.com/quarrydb/quarry/plan"
	"github.com/quarrydb/quarry/storage"
)

// Build assembles the row at a time chain from the plan's executor descriptors.
func Build(snapshot storage.Snapshot, ranges []plan.KeyRange, p *plan.Plan, ectx *execctx.EvalContext) (Executor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var curr Executor
	var err error
	for i := range p.Executors {
		pe := &p.Executors[i]
		switch pe.Tp {
		case plan.TypeTableScan:
			curr = NewTableScanExec(snapshot, ranges, pe.TableScan)
		case plan.TypeSelection:
			curr, err = NewSelectionExec(curr, pe.Selection, ectx)
		case plan.TypeAggregation:
			curr, err = NewHashAggExec(curr, pe.Aggregation, ectx)
		case plan.TypeTopN:
			curr, err = NewTopNExec(curr, pe.TopN)
		case plan.TypeLimit:
			curr = NewLimitExec(curr, pe.Limit.Limit)
		default:
			return nil, errors.NewInvalidPlanError("unknown executor type")
		}
		if err != nil {
			return nil, err
		}
	}
	return curr, nil
}

// BuildBatch assembles the batch chain. Only forward scan/selection/limit plans are
// batchable - callers fall back to the row chain for everything else.
func BuildBatch(snapshot storage.Snapshot, ranges []plan.KeyRange, p *plan.Plan, ectx *execctx.EvalContext) (BatchExecutor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !p.Batchable() {
		return nil, errors.NewInvalidPlanError("plan is not batchable")
	}
	scanTable := p.Executors[0].TableScan.Table
	var curr BatchExecutor
	var err error
	for i := range p.Executors {
		pe := &p.Executors[i]
		switch pe.Tp {
		case plan.TypeTableScan:
			curr = NewBatchTableScanExec(snapshot, ranges, pe.TableScan, ectx)
		case plan.TypeSelection:
			curr, err = NewBatchSelectionExec(curr, scanTable.Columns, pe.Selection, ectx)
		case plan.TypeLimit:
			curr = NewBatchLimitExec(curr, scanTable.ColumnTypes(), pe.Limit.Limit)
		default:
			return nil, errors.NewInvalidPlanError("executor " + pe.Tp.String() + " is not batchable")
		}
		if err != nil {
			return nil, err
		}
	}
	return curr, nil
}
