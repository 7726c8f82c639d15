package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/aggfuncs"
	"github.com/quarrydb/quarry/common"
)

func TestValidateAcceptsWellFormedChains(t *testing.T) {
	tests := []struct {
		name string
		plan *Plan
	}{
		{"scan_only", testPlan(scanExec(t))},
		{"scan_selection", testPlan(scanExec(t), selectionExec())},
		{"scan_selection_agg", testPlan(scanExec(t), selectionExec(), aggExec())},
		{"scan_topn_limit", testPlan(scanExec(t), topNExec(10), limitExec(5))},
		{"scan_agg_limit", testPlan(scanExec(t), aggExec(), limitExec(5))},
		{"scan_limit", testPlan(scanExec(t), limitExec(100))},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, test.plan.Validate())
		})
	}
}

func TestValidateRejectsBadChains(t *testing.T) {
	tests := []struct {
		name string
		plan *Plan
	}{
		{"no_executors", testPlan()},
		{"first_not_scan", testPlan(selectionExec(), scanExec(t))},
		{"two_scans", testPlan(scanExec(t), scanExec(t))},
		{"selection_after_limit", testPlan(scanExec(t), limitExec(5), selectionExec())},
		{"agg_after_limit", testPlan(scanExec(t), limitExec(5), aggExec())},
		{"two_limits", testPlan(scanExec(t), limitExec(5), limitExec(5))},
		{"agg_and_topn", testPlan(scanExec(t), aggExec(), topNExec(3))},
		{"scan_without_table", testPlan(Executor{Tp: TypeTableScan, TableScan: &TableScanDesc{}})},
		{"selection_without_descriptor", testPlan(scanExec(t), Executor{Tp: TypeSelection})},
		{"agg_without_funcs", testPlan(scanExec(t), Executor{Tp: TypeAggregation, Aggregation: &AggregationDesc{}})},
		{"topn_without_order", testPlan(scanExec(t), Executor{Tp: TypeTopN, TopN: &TopNDesc{N: 5}})},
		{"unknown_type", testPlan(scanExec(t), Executor{Tp: ExecType(99)})},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Error(t, test.plan.Validate())
		})
	}
}

func TestHasAggregationAndTopN(t *testing.T) {
	p := testPlan(scanExec(t), aggExec())
	require.True(t, p.HasAggregation())
	require.False(t, p.HasTopN())
	require.False(t, p.Batchable())

	p = testPlan(scanExec(t), topNExec(7))
	require.False(t, p.HasAggregation())
	require.True(t, p.HasTopN())
	require.False(t, p.Batchable())

	p = testPlan(scanExec(t), selectionExec(), limitExec(10))
	require.True(t, p.Batchable())
}

func TestSerializeIsDeterministic(t *testing.T) {
	p := testPlan(scanExec(t), selectionExec(), aggExec(), limitExec(10))
	p.OutputOffsets = []uint32{0, 2}
	p.Flags = 42
	p.TZOffsetSecs = -3600
	b1, err := p.Serialize(nil)
	require.NoError(t, err)
	b2, err := p.Serialize(nil)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
	require.NotEmpty(t, b1)
}

func TestSerializeDistinguishesPlans(t *testing.T) {
	p1 := testPlan(scanExec(t), limitExec(10))
	p2 := testPlan(scanExec(t), limitExec(11))
	b1, err := p1.Serialize(nil)
	require.NoError(t, err)
	b2, err := p2.Serialize(nil)
	require.NoError(t, err)
	require.NotEqual(t, b1, b2)

	p3 := testPlan(scanExec(t), limitExec(10))
	p3.Flags = 1
	b3, err := p3.Serialize(nil)
	require.NoError(t, err)
	require.NotEqual(t, b1, b3)
}

func TestSerializeKeyRanges(t *testing.T) {
	r1 := []KeyRange{{Start: []byte{1, 2}, End: []byte{3, 4}}}
	r2 := []KeyRange{{Start: []byte{1, 2}, End: []byte{3, 5}}}
	b1 := SerializeKeyRanges(r1, nil)
	require.Equal(t, b1, SerializeKeyRanges(r1, nil))
	require.NotEqual(t, b1, SerializeKeyRanges(r2, nil))
}

func testPlan(executors ...Executor) *Plan {
	return &Plan{Executors: executors}
}

func scanExec(t *testing.T) Executor {
	t.Helper()
	tableInfo := &common.TableInfo{
		ID:   42,
		Name: "sensor_readings",
		Columns: []*common.ColumnInfo{
			{ID: 1, Name: "id", ColumnType: common.BigIntColumnType.WithPriKey(), PKHandle: true},
			{ID: 2, Name: "location", ColumnType: common.VarcharColumnType},
			{ID: 3, Name: "temperature", ColumnType: common.DoubleColumnType},
		},
	}
	return Executor{Tp: TypeTableScan, TableScan: &TableScanDesc{Table: tableInfo}}
}

func selectionExec() Executor {
	return Executor{Tp: TypeSelection, Selection: &SelectionDesc{
		Conditions: []Condition{{ColID: 2, Op: OpEQ, Value: common.NewStringDatum("wincanton")}},
	}}
}

func aggExec() Executor {
	return Executor{Tp: TypeAggregation, Aggregation: &AggregationDesc{
		GroupByColIDs: []int64{2},
		AggFuncs:      []AggFuncDesc{{Func: aggfuncs.FuncTypeCount, ColID: -1}},
	}}
}

func topNExec(n uint64) Executor {
	return Executor{Tp: TypeTopN, TopN: &TopNDesc{
		OrderBy: []ByItem{{ColID: 3, Desc: true}},
		N:       n,
	}}
}

func limitExec(limit uint64) Executor {
	return Executor{Tp: TypeLimit, Limit: &LimitDesc{Limit: limit}}
}
