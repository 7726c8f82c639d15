package exec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/aggfuncs"
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/execctx"
	"github.com/quarrydb/quarry/plan"
)

func aggExecutor(groupBy []int64, funcs ...plan.AggFuncDesc) plan.Executor {
	return plan.Executor{Tp: plan.TypeAggregation, Aggregation: &plan.AggregationDesc{
		GroupByColIDs: groupBy,
		AggFuncs:      funcs,
	}}
}

func decodeAggRow(t *testing.T, row *ScanRow, numDatums int) []common.Datum {
	t.Helper()
	datums := make([]common.Datum, numDatums)
	offset := 0
	for i := 0; i < numDatums; i++ {
		var err error
		datums[i], offset, err = common.DecodeDatum(row.Encoded, offset)
		require.NoError(t, err)
	}
	require.Equal(t, len(row.Encoded), offset)
	return datums
}

func TestHashAggGroupByLocation(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(aggExecutor([]int64{2},
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeCount, ColID: -1},
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeSum, ColID: 5},
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeMin, ColID: 3},
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeMax, ColID: 3},
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeFirstRow, ColID: 2},
	))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)

	rows := collectRows(t, ex)
	require.Equal(t, 3, len(rows))

	// Groups drain in the order their first row was seen
	wincanton := decodeAggRow(t, rows[0], 6)
	require.Equal(t, common.NewStringDatum("wincanton"), wincanton[0])
	require.Equal(t, common.NewIntDatum(2), wincanton[1])
	require.Equal(t, common.NewIntDatum(500), wincanton[2])
	require.Equal(t, common.NewFloat64Datum(-2.0), wincanton[3])
	require.Equal(t, common.NewFloat64Datum(25.5), wincanton[4])
	require.Equal(t, common.NewStringDatum("wincanton"), wincanton[5])

	london := decodeAggRow(t, rows[1], 6)
	require.Equal(t, common.NewStringDatum("london"), london[0])
	require.Equal(t, common.NewIntDatum(2), london[1])
	require.Equal(t, common.NewIntDatum(500), london[2])
	require.Equal(t, common.NewFloat64Datum(28.1), london[3])
	require.Equal(t, common.NewFloat64Datum(35.1), london[4])

	// The null location is a group of its own, and its null readings leave sum null
	nullGroup := decodeAggRow(t, rows[2], 6)
	require.True(t, nullGroup[0].IsNull())
	require.Equal(t, common.NewIntDatum(1), nullGroup[1])
	require.True(t, nullGroup[2].IsNull())
	require.Equal(t, common.NewFloat64Datum(20.0), nullGroup[3])
	require.Equal(t, common.NewFloat64Datum(20.0), nullGroup[4])
	require.True(t, nullGroup[5].IsNull())
}

func TestHashAggNoGroupBy(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(aggExecutor(nil,
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeCount, ColID: -1},
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeSum, ColID: 5},
	))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)

	rows := collectRows(t, ex)
	require.Equal(t, 1, len(rows))
	datums := decodeAggRow(t, rows[0], 2)
	require.Equal(t, common.NewIntDatum(5), datums[0])
	require.Equal(t, common.NewIntDatum(1000), datums[1])
}

func TestHashAggCountStarSeesNullRows(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(aggExecutor(nil,
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeCount, ColID: -1},
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeCount, ColID: 2},
	))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)

	rows := collectRows(t, ex)
	require.Equal(t, 1, len(rows))
	datums := decodeAggRow(t, rows[0], 2)
	require.Equal(t, common.NewIntDatum(5), datums[0])
	require.Equal(t, common.NewIntDatum(4), datums[1])
}

func TestHashAggEmptyInput(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	emptyRange := []plan.KeyRange{handleRange(testTableInfo.ID, 90, 95)}

	p := scanPlan(aggExecutor([]int64{2}, plan.AggFuncDesc{Func: aggfuncs.FuncTypeCount, ColID: -1}))
	ex, err := Build(snapshot, emptyRange, p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	require.Empty(t, collectRows(t, ex))

	// No group by means no groups either: an empty input produces no output row at all
	p = scanPlan(aggExecutor(nil, plan.AggFuncDesc{Func: aggfuncs.FuncTypeCount, ColID: -1}))
	ex, err = Build(snapshot, emptyRange, p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	require.Empty(t, collectRows(t, ex))
}

func TestHashAggSumOverflow(t *testing.T) {
	rows := [][]interface{}{
		{1, "wincanton", 25.5, "10.00", int64(math.MaxInt64)},
		{2, "wincanton", 28.1, "20.00", int64(1)},
	}
	snapshot := seedSnapshot(t, rows)
	p := scanPlan(aggExecutor(nil, plan.AggFuncDesc{Func: aggfuncs.FuncTypeSum, ColID: 5}))

	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	_, err = ex.Next()
	require.Error(t, err)
	require.True(t, common.IsOverflowError(err))

	// As a warning the overflowing add is dropped and the accumulator keeps its last value
	ectx := newTestEvalContext(t, execctx.FlagOverflowAsWarning)
	ex, err = Build(snapshot, fullRange(testTableInfo), p, ectx)
	require.NoError(t, err)
	out := collectRows(t, ex)
	require.Equal(t, 1, len(out))
	datums := decodeAggRow(t, out[0], 1)
	require.Equal(t, common.NewIntDatum(math.MaxInt64), datums[0])
	require.Equal(t, uint64(1), ectx.WarningCount())
}

func TestHashAggSchema(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(aggExecutor([]int64{2},
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeCount, ColID: -1},
		plan.AggFuncDesc{Func: aggfuncs.FuncTypeSum, ColID: 5},
	))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)

	schema := ex.Schema()
	require.Equal(t, 3, len(schema))
	require.Equal(t, "location", schema[0].Name)
	require.Equal(t, "count(*)", schema[1].Name)
	require.Equal(t, common.BigIntColumnType, schema[1].ColumnType)
	require.Equal(t, "sum(readings)", schema[2].Name)
}

func TestHashAggRejectsBadDescriptors(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)

	p := scanPlan(aggExecutor([]int64{99}, plan.AggFuncDesc{Func: aggfuncs.FuncTypeCount, ColID: -1}))
	_, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.Error(t, err)

	p = scanPlan(aggExecutor(nil, plan.AggFuncDesc{Func: aggfuncs.FuncTypeSum, ColID: 99}))
	_, err = Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.Error(t, err)

	// Only count may run without an argument column
	p = scanPlan(aggExecutor(nil, plan.AggFuncDesc{Func: aggfuncs.FuncTypeSum, ColID: -1}))
	_, err = Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.Error(t, err)
}
