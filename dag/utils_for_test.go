package dag

import (
	"testing"

	"github.com/pingcap/parser/mysql"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/cache"
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/conf"
	"github.com/quarrydb/quarry/failinject"
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

func seedProvider(t *testing.T, rows [][]interface{}) storage.Provider {
	t.Helper()
	prov := storage.NewFakeStorage()
	require.NoError(t, prov.Start())
	t.Cleanup(func() {
		require.NoError(t, prov.Stop())
	})
	prov.AddRegion(storage.Region{ID: testRegionID})
	for _, row := range rows {
		upsertRow(t, prov, row)
	}
	return prov
}

func upsertRow(t *testing.T, prov storage.Provider, row []interface{}) {
	t.Helper()
	wb := storage.NewWriteBatch(testRegionID)
	require.NoError(t, table.Upsert(testTableInfo, toDatums(t, row), wb))
	require.NoError(t, prov.WriteBatch(wb))
}

func toDatums(t *testing.T, row []interface{}) []common.Datum {
	t.Helper()
	require.Equal(t, len(testTableInfo.Columns), len(row))
	datums := make([]common.Datum, len(row))
	for i, val := range row {
		datums[i] = toDatum(t, testTableInfo.Columns[i].ColumnType, val)
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

func newTestEngine(t *testing.T, prov storage.Provider) *Engine {
	t.Helper()
	return newTestEngineWithInjector(t, prov, failinject.NewDummyInjector())
}

func newTestEngineWithInjector(t *testing.T, prov storage.Provider, injector failinject.Injector) *Engine {
	t.Helper()
	cnf := *conf.NewTestConfig()
	resultCache := cache.NewResultCache(cnf.ResultCacheMaxEntries, prov)
	engine := NewEngine(cnf, prov, resultCache, injector)
	require.NoError(t, engine.Start())
	t.Cleanup(func() {
		require.NoError(t, engine.Stop())
	})
	return engine
}

func newTestInjector(t *testing.T) failinject.Injector {
	t.Helper()
	injector := failinject.NewInjector()
	require.NoError(t, injector.Start())
	t.Cleanup(func() {
		require.NoError(t, injector.Stop())
	})
	return injector
}

func fullRange() []plan.KeyRange {
	start, end := table.KeyRange(testTableInfo.ID)
	return []plan.KeyRange{{Start: start, End: end}}
}

func handleRange(from int64, to int64) plan.KeyRange {
	return plan.KeyRange{
		Start: table.EncodeKey(testTableInfo.ID, from, nil),
		End:   table.EncodeKey(testTableInfo.ID, to, nil),
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

func selectRequest(p *plan.Plan) *Request {
	return &Request{
		RegionID:     testRegionID,
		Ranges:       fullRange(),
		Plan:         p,
		CacheEnabled: true,
	}
}

func handleSelect(t *testing.T, engine *Engine, req *Request) *SelectResponse {
	t.Helper()
	data, err := engine.HandleSelect(req)
	require.NoError(t, err)
	resp, err := DeserializeSelectResponse(data)
	require.NoError(t, err)
	return resp
}

func handleSelectOK(t *testing.T, engine *Engine, req *Request) *SelectResponse {
	t.Helper()
	resp := handleSelect(t, engine, req)
	require.Nil(t, resp.Error)
	return resp
}

// decodeResponseRows walks every chunk and decodes numCols datums per row.
func decodeResponseRows(t *testing.T, resp *SelectResponse, numCols int) [][]common.Datum {
	t.Helper()
	var rows [][]common.Datum
	for _, chunk := range resp.Chunks {
		offset := 0
		for r := uint32(0); r < chunk.NumRows; r++ {
			row := make([]common.Datum, numCols)
			for c := 0; c < numCols; c++ {
				var err error
				row[c], offset, err = common.DecodeDatum(chunk.RowsData, offset)
				require.NoError(t, err)
			}
			rows = append(rows, row)
		}
		require.Equal(t, len(chunk.RowsData), offset)
	}
	return rows
}

func rowIDs(t *testing.T, resp *SelectResponse, numCols int) []int64 {
	t.Helper()
	rows := decodeResponseRows(t, resp, numCols)
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row[0].GetInt64()
	}
	return ids
}
