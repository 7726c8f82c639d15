package exec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/plan"
)

func topNExecutor(n uint64, orderBy ...plan.ByItem) plan.Executor {
	return plan.Executor{Tp: plan.TypeTopN, TopN: &plan.TopNDesc{OrderBy: orderBy, N: n}}
}

func TestTopNKeepsBestRows(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(topNExecutor(2, plan.ByItem{ColID: 3, Desc: true}))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{3, 2}, collectHandles(t, ex))
}

func TestTopNAscending(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(topNExecutor(3, plan.ByItem{ColID: 3}))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{4, 5, 1}, collectHandles(t, ex))
}

func TestTopNNullsSortFirstAscending(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(topNExecutor(3, plan.ByItem{ColID: 2}))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{5, 2, 3}, collectHandles(t, ex))
}

func TestTopNNullsSortLastDescending(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(topNExecutor(4, plan.ByItem{ColID: 2, Desc: true}))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{1, 4, 2, 3}, collectHandles(t, ex))
}

func TestTopNTiesBreakOnHandle(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(topNExecutor(5, plan.ByItem{ColID: 2}))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{5, 2, 3, 1, 4}, collectHandles(t, ex))
}

func TestTopNMultipleOrderColumns(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(topNExecutor(5, plan.ByItem{ColID: 2}, plan.ByItem{ColID: 3, Desc: true}))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{5, 3, 2, 1, 4}, collectHandles(t, ex))
}

func TestTopNLargerThanInput(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(topNExecutor(100, plan.ByItem{ColID: 3}))
	ex, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{4, 5, 1, 2, 3}, collectHandles(t, ex))
}

func TestTopNZeroNeverPullsChild(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	scan := NewTableScanExec(snapshot, fullRange(testTableInfo), &plan.TableScanDesc{Table: testTableInfo})
	counting := &countingExecutor{child: scan}
	ex, err := NewTopNExec(counting, &plan.TopNDesc{OrderBy: []plan.ByItem{{ColID: 3}}, N: 0})
	require.NoError(t, err)
	require.Empty(t, collectRows(t, ex))
	require.Equal(t, 0, counting.calls)
}

func TestTopNUnknownOrderColumn(t *testing.T) {
	snapshot := seedSnapshot(t, sensorRows)
	p := scanPlan(topNExecutor(2, plan.ByItem{ColID: 99}))
	_, err := Build(snapshot, fullRange(testTableInfo), p, newTestEvalContext(t, 0))
	require.Error(t, err)
}
