package exec

import (
	"testing"

	"github.com/pingcap/parser/mysql"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/execctx"
	"github.com/quarrydb/quarry/plan"
	"github.com/quarrydb/quarry/storage"
	"github.com/quarrydb/quarry/table"
)

// Test utils for this package

const testRegionID = 100

var testTableInfo = &common.TableInfo{
	ID:   42,
	Name: "sensor_readings",
	Columns: []*common.ColumnInfo{
		{ID: 1, Name: "id", ColumnType: common.BigIntColumnType.WithPriKey(), PKHandle: true},
		{ID: 2, Name: "location", ColumnType: common.VarcharColumnType},
		{ID: 3, Name: "temperature", ColumnType: common.DoubleColumnType},
		{ID: 4, Name: "cost", ColumnType: common.NewDecimalColumnType(10, 2)},
		{ID: 5, Name: "readings", ColumnType: common.BigIntColumnType},
	},
}

var sensorRows = [][]interface{}{
	{1, "wincanton", 25.5, "10.00", 100},
	{2, "london", 28.1, "650.30", 200},
	{3, "london", 35.1, "7.00", 300},
	{4, "wincanton", -2.0, "123.45", 400},
	{5, nil, 20.0, nil, nil},
}

func seedSnapshot(t *testing.T, rows [][]interface{}) storage.Snapshot {
	t.Helper()
	return seedTableSnapshot(t, testTableInfo, rows)
}

func seedTableSnapshot(t *testing.T, tableInfo *common.TableInfo, rows [][]interface{}) storage.Snapshot {
	t.Helper()
	prov := storage.NewFakeStorage()
	require.NoError(t, prov.Start())
	t.Cleanup(func() {
		require.NoError(t, prov.Stop())
	})
	prov.AddRegion(storage.Region{ID: testRegionID})
	wb := storage.NewWriteBatch(testRegionID)
	for _, row := range rows {
		require.NoError(t, table.Upsert(tableInfo, toDatums(t, tableInfo, row), wb))
	}
	require.NoError(t, prov.WriteBatch(wb))
	snapshot, err := prov.CreateSnapshot(testRegionID)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, snapshot.Close())
	})
	return snapshot
}

func toDatums(t *testing.T, tableInfo *common.TableInfo, row []interface{}) []common.Datum {
	t.Helper()
	require.Equal(t, len(tableInfo.Columns), len(row))
	datums := make([]common.Datum, len(row))
	for i, val := range row {
		datums[i] = toDatum(t, tableInfo.Columns[i].ColumnType, val)
	}
	return datums
}

func toDatum(t *testing.T, colType common.ColumnType, val interface{}) common.Datum {
	t.Helper()
	if val == nil {
		return common.NewNullDatum()
	}
	switch v := val.(type) {
	case int:
		return common.NewIntDatum(int64(v))
	case int64:
		return common.NewIntDatum(v)
	case float64:
		return common.NewFloat64Datum(v)
	case string:
		if colType.Tp == mysql.TypeNewDecimal {
			dec, err := common.NewDecFromString(v)
			require.NoError(t, err)
			return common.NewDecimalDatum(dec)
		}
		return common.NewStringDatum(v)
	default:
		t.Fatalf("unsupported test value %v", val)
		return common.Datum{}
	}
}

func fullRange(tableInfo *common.TableInfo) []plan.KeyRange {
	start, end := table.KeyRange(tableInfo.ID)
	return []plan.KeyRange{{Start: start, End: end}}
}

func handleRange(tableID uint64, from int64, to int64) plan.KeyRange {
	return plan.KeyRange{
		Start: table.EncodeKey(tableID, from, nil),
		End:   table.EncodeKey(tableID, to, nil),
	}
}

func scanPlan(more ...plan.Executor) *plan.Plan {
	executors := []plan.Executor{{Tp: plan.TypeTableScan, TableScan: &plan.TableScanDesc{Table: testTableInfo}}}
	return &plan.Plan{Executors: append(executors, more...)}
}

func descScanPlan(more ...plan.Executor) *plan.Plan {
	executors := []plan.Executor{{Tp: plan.TypeTableScan, TableScan: &plan.TableScanDesc{Table: testTableInfo, Desc: true}}}
	return &plan.Plan{Executors: append(executors, more...)}
}

func newTestEvalContext(t *testing.T, flags uint64) *execctx.EvalContext {
	t.Helper()
	config, err := execctx.NewEvalConfig(flags, 0)
	require.NoError(t, err)
	return execctx.NewEvalContext(config)
}

func collectRows(t *testing.T, ex Executor) []*ScanRow {
	t.Helper()
	var rows []*ScanRow
	for {
		row, err := ex.Next()
		require.NoError(t, err)
		if row == nil {
			return rows
		}
		rows = append(rows, row)
	}
}

func collectHandles(t *testing.T, ex Executor) []int64 {
	t.Helper()
	rows := collectRows(t, ex)
	handles := make([]int64, len(rows))
	for i, row := range rows {
		handles[i] = row.Handle
	}
	return handles
}

func rowColumnDatum(t *testing.T, row *ScanRow, colIdx int) common.Datum {
	t.Helper()
	val, err := ColumnDatum(testTableInfo.Columns[colIdx], row.Handle, row.Data)
	require.NoError(t, err)
	return val
}

// countingExecutor wraps a child and counts Next calls, for asserting that decorators do
// not pull when they should not.
type countingExecutor struct {
	child Executor
	calls int
}

func (c *countingExecutor) Next() (*ScanRow, error) {
	c.calls++
	return c.child.Next()
}

func (c *countingExecutor) Schema() []*common.ColumnInfo {
	return c.child.Schema()
}

func (c *countingExecutor) Close() error {
	return c.child.Close()
}
