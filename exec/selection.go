package exec

import (
	"fmt"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
	"github.com/quarrydb/quarry/execctx"
	"github.com/quarrydb/quarry/plan"
)

// SelectionExec filters rows by column-op-constant predicates. Constants are bound to the
// column's type once at build time, so truncation or overflow in the constant surfaces
// before any row is read.
type SelectionExec struct {
	child      Executor
	conditions []boundCondition
}

var _ Executor = &SelectionExec{}

type boundCondition struct {
	col *common.ColumnInfo
	// offset is the column's position in the schema, used by the batch chain to read
	// chunk columns
	offset int
	op     plan.CondOp
	value  common.Datum
}

func NewSelectionExec(child Executor, desc *plan.SelectionDesc, ectx *execctx.EvalContext) (*SelectionExec, error) {
	conditions, err := bindConditions(child.Schema(), desc, ectx)
	if err != nil {
		return nil, err
	}
	return &SelectionExec{child: child, conditions: conditions}, nil
}

func bindConditions(schema []*common.ColumnInfo, desc *plan.SelectionDesc, ectx *execctx.EvalContext) ([]boundCondition, error) {
	conditions := make([]boundCondition, 0, len(desc.Conditions))
	for _, cond := range desc.Conditions {
		offset := columnOffsetByID(schema, cond.ColID)
		if offset < 0 {
			return nil, errors.NewInvalidPlanError(fmt.Sprintf("selection on unknown column %d", cond.ColID))
		}
		bound := boundCondition{col: schema[offset], offset: offset, op: cond.Op}
		if cond.Op != plan.OpIsNull && cond.Op != plan.OpNotNull {
			value, err := cond.Value.ConvertTo(bound.col.ColumnType)
			if err != nil {
				if err = ectx.HandleConversion(err); err != nil {
					return nil, err
				}
			}
			bound.value = value
		}
		conditions = append(conditions, bound)
	}
	return conditions, nil
}

func columnByID(schema []*common.ColumnInfo, colID int64) *common.ColumnInfo {
	for _, col := range schema {
		if col.ID == colID {
			return col
		}
	}
	return nil
}

func columnOffsetByID(schema []*common.ColumnInfo, colID int64) int {
	for i, col := range schema {
		if col.ID == colID {
			return i
		}
	}
	return -1
}

func (e *SelectionExec) Schema() []*common.ColumnInfo {
	return e.child.Schema()
}

func (e *SelectionExec) Next() (*ScanRow, error) {
	for {
		row, err := e.child.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		match := true
		for i := range e.conditions {
			cond := &e.conditions[i]
			val, err := ColumnDatum(cond.col, row.Handle, row.Data)
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
			return row, nil
		}
	}
}

// evalCondition applies one predicate to the column value. Comparisons against null are
// never true, only the null tests see null values.
func evalCondition(cond *boundCondition, val common.Datum) (bool, error) {
	switch cond.op {
	case plan.OpIsNull:
		return val.IsNull(), nil
	case plan.OpNotNull:
		return !val.IsNull(), nil
	}
	if val.IsNull() || cond.value.IsNull() {
		return false, nil
	}
	cmp, err := val.Compare(cond.value)
	if err != nil {
		return false, err
	}
	switch cond.op {
	case plan.OpEQ:
		return cmp == 0, nil
	case plan.OpNE:
		return cmp != 0, nil
	case plan.OpLT:
		return cmp < 0, nil
	case plan.OpLE:
		return cmp <= 0, nil
	case plan.OpGT:
		return cmp > 0, nil
	case plan.OpGE:
		return cmp >= 0, nil
	default:
		return false, errors.NewInvalidPlanError(fmt.Sprintf("unknown condition op %d", cond.op))
	}
}

func (e *SelectionExec) CollectStatistics(dest *Statistics) {
	if sc, ok := e.child.(StatisticsCollector); ok {
		sc.CollectStatistics(dest)
	}
}

func (e *SelectionExec) Close() error {
	return e.child.Close()
}
