package exec

import (
	"bytes"
	"fmt"

	"github.com/quarrydb/quarry/aggfuncs"
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
	"github.com/quarrydb/quarry/execctx"
	"github.com/quarrydb/quarry/plan"
)

// HashAggExec consumes the whole child on the first Next and buckets rows by the murmur3
// hash of their encoded group key, with full key comparison on collision. Groups drain in
// first seen order. Rows it emits are already in final output encoding: group by values
// followed by aggregate results.
type HashAggExec struct {
	child       Executor
	ectx        *execctx.EvalContext
	groupByCols []*common.ColumnInfo
	aggFuncs    []aggfuncs.AggregateFunction
	argCols     []*common.ColumnInfo
	schema      []*common.ColumnInfo
	groups      map[uint64][]*aggGroup
	groupOrder  []*aggGroup
	executed    bool
	emitIndex   int
}

var _ Executor = &HashAggExec{}

type aggGroup struct {
	key         []byte
	groupByVals []common.Datum
	state       *aggfuncs.AggState
}

func NewHashAggExec(child Executor, desc *plan.AggregationDesc, ectx *execctx.EvalContext) (*HashAggExec, error) {
	childSchema := child.Schema()
	groupByCols := make([]*common.ColumnInfo, len(desc.GroupByColIDs))
	for i, colID := range desc.GroupByColIDs {
		col := columnByID(childSchema, colID)
		if col == nil {
			return nil, errors.NewInvalidPlanError(fmt.Sprintf("group by unknown column %d", colID))
		}
		groupByCols[i] = col
	}
	funcs := make([]aggfuncs.AggregateFunction, len(desc.AggFuncs))
	argCols := make([]*common.ColumnInfo, len(desc.AggFuncs))
	for i, fdesc := range desc.AggFuncs {
		argType := common.BigIntColumnType
		if fdesc.ColID >= 0 {
			col := columnByID(childSchema, fdesc.ColID)
			if col == nil {
				return nil, errors.NewInvalidPlanError(fmt.Sprintf("aggregate over unknown column %d", fdesc.ColID))
			}
			argCols[i] = col
			argType = col.ColumnType
		} else if fdesc.Func != aggfuncs.FuncTypeCount {
			return nil, errors.NewInvalidPlanError(fmt.Sprintf("%s requires an argument column", fdesc.Func))
		}
		f, err := aggfuncs.NewAggregateFunction(fdesc.Func, argType)
		if err != nil {
			return nil, err
		}
		funcs[i] = f
	}
	schema := make([]*common.ColumnInfo, 0, len(groupByCols)+len(funcs))
	schema = append(schema, groupByCols...)
	for i, f := range funcs {
		name := fmt.Sprintf("%s(*)", desc.AggFuncs[i].Func)
		if argCols[i] != nil {
			name = fmt.Sprintf("%s(%s)", desc.AggFuncs[i].Func, argCols[i].Name)
		}
		schema = append(schema, &common.ColumnInfo{
			ID:         -int64(i) - 1,
			Name:       name,
			ColumnType: f.ValueType(),
		})
	}
	return &HashAggExec{
		child:       child,
		ectx:        ectx,
		groupByCols: groupByCols,
		aggFuncs:    funcs,
		argCols:     argCols,
		schema:      schema,
		groups:      make(map[uint64][]*aggGroup),
	}, nil
}

func (e *HashAggExec) Schema() []*common.ColumnInfo {
	return e.schema
}

func (e *HashAggExec) Next() (*ScanRow, error) {
	if !e.executed {
		if err := e.consumeChild(); err != nil {
			return nil, err
		}
		e.executed = true
	}
	if e.emitIndex >= len(e.groupOrder) {
		return nil, nil
	}
	group := e.groupOrder[e.emitIndex]
	e.emitIndex++
	return e.encodeGroupRow(group)
}

func (e *HashAggExec) consumeChild() error {
	for {
		row, err := e.child.Next()
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}
		group, err := e.groupFor(row)
		if err != nil {
			return err
		}
		for i, f := range e.aggFuncs {
			arg := common.NewIntDatum(1)
			if e.argCols[i] != nil {
				arg, err = ColumnDatum(e.argCols[i], row.Handle, row.Data)
				if err != nil {
					return err
				}
			}
			if err := f.Eval(arg, group.state, i); err != nil {
				if err = e.ectx.HandleOverflow(err); err != nil {
					return err
				}
			}
		}
	}
}

func (e *HashAggExec) groupFor(row *ScanRow) (*aggGroup, error) {
	groupByVals := make([]common.Datum, len(e.groupByCols))
	for i, col := range e.groupByCols {
		val, err := ColumnDatum(col, row.Handle, row.Data)
		if err != nil {
			return nil, err
		}
		groupByVals[i] = val
	}
	key, err := aggfuncs.EncodeGroupKey(nil, groupByVals)
	if err != nil {
		return nil, err
	}
	hash := aggfuncs.HashGroupKey(key)
	for _, group := range e.groups[hash] {
		if bytes.Equal(group.key, key) {
			return group, nil
		}
	}
	group := &aggGroup{
		key:         key,
		groupByVals: groupByVals,
		state:       aggfuncs.NewAggState(len(e.aggFuncs)),
	}
	e.groups[hash] = append(e.groups[hash], group)
	e.groupOrder = append(e.groupOrder, group)
	return group, nil
}

func (e *HashAggExec) encodeGroupRow(group *aggGroup) (*ScanRow, error) {
	var buff []byte
	var err error
	for _, val := range group.groupByVals {
		buff, err = common.EncodeDatum(buff, val)
		if err != nil {
			return nil, err
		}
	}
	for i, f := range e.aggFuncs {
		res, err := f.Finish(group.state, i)
		if err != nil {
			return nil, err
		}
		buff, err = common.EncodeDatum(buff, res)
		if err != nil {
			return nil, err
		}
	}
	return &ScanRow{Encoded: buff}, nil
}

func (e *HashAggExec) CollectStatistics(dest *Statistics) {
	if sc, ok := e.child.(StatisticsCollector); ok {
		sc.CollectStatistics(dest)
	}
}

func (e *HashAggExec) Close() error {
	e.groups = nil
	e.groupOrder = nil
	return e.child.Close()
}
