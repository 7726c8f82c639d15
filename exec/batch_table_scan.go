package exec

import (
	"github.com/quarrydb/quarry/chunk"
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
	"github.com/quarrydb/quarry/execctx"
	"github.com/quarrydb/quarry/plan"
	"github.com/quarrydb/quarry/storage"
	"github.com/quarrydb/quarry/table"
)

// BatchTableScanExec scans the request's key ranges and decodes stored rows straight into
// chunk columns. Values missing from storage fall back the same way as on the row chain:
// handle from the key, declared default, null when nullable.
type BatchTableScanExec struct {
	tableInfo     *common.TableInfo
	snapshot      storage.Snapshot
	ranges        []plan.KeyRange
	ectx          *execctx.EvalContext
	colTypes      []common.ColumnType
	rangeIndex    int
	resumeKey     []byte
	drained       bool
	scannedRows   uint64
	scannedRanges uint64
	producedRows  uint64
}

var _ BatchExecutor = &BatchTableScanExec{}

func NewBatchTableScanExec(snapshot storage.Snapshot, ranges []plan.KeyRange, desc *plan.TableScanDesc, ectx *execctx.EvalContext) *BatchTableScanExec {
	return &BatchTableScanExec{
		tableInfo: desc.Table,
		snapshot:  snapshot,
		ranges:    ranges,
		ectx:      ectx,
		colTypes:  desc.Table.ColumnTypes(),
	}
}

func (e *BatchTableScanExec) NextBatch(requestedRows int) (*Batch, error) {
	ch := chunk.NewChunk(e.colTypes)
	if e.drained {
		return &Batch{Chunk: ch, Drained: true}, nil
	}
	if requestedRows == 0 {
		return &Batch{Chunk: ch}, nil
	}
	warningsBefore := e.ectx.WarningCount()
	for ch.NumRows() < requestedRows && e.rangeIndex < len(e.ranges) {
		rng := e.ranges[e.rangeIndex]
		if e.resumeKey == nil {
			e.scannedRanges++
		}
		if isPointRange(rng) {
			e.rangeIndex++
			value, err := e.snapshot.Get(rng.Start)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			if value == nil {
				continue
			}
			if err := e.appendRow(ch, rng.Start, value); err != nil {
				return nil, err
			}
			e.scannedRows++
			continue
		}
		start := rng.Start
		if e.resumeKey != nil {
			start = e.resumeKey
		}
		limit := requestedRows - ch.NumRows()
		pairs, err := e.snapshot.Scan(start, rng.End, limit)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for _, pair := range pairs {
			if err := e.appendRow(ch, pair.Key, pair.Value); err != nil {
				return nil, err
			}
		}
		e.scannedRows += uint64(len(pairs))
		if len(pairs) < limit {
			e.rangeIndex++
			e.resumeKey = nil
		} else {
			last := pairs[len(pairs)-1].Key
			e.resumeKey = append(common.CopyByteSlice(last), 0)
		}
	}
	if e.rangeIndex >= len(e.ranges) {
		e.drained = true
	}
	e.producedRows += uint64(ch.NumRows())
	return &Batch{
		Chunk:    ch,
		Drained:  e.drained,
		Warnings: int(e.ectx.WarningCount() - warningsBefore),
	}, nil
}

func (e *BatchTableScanExec) appendRow(ch *chunk.Chunk, key []byte, value []byte) error {
	handle, err := table.DecodeKeyHandle(key)
	if err != nil {
		return err
	}
	data, err := common.DecodeStorageRow(value)
	if err != nil {
		return err
	}
	for i, col := range e.tableInfo.Columns {
		val, err := ColumnDatum(col, handle, data)
		if err != nil {
			return err
		}
		if err := ch.AppendDatum(i, val); err != nil {
			return err
		}
	}
	return nil
}

func (e *BatchTableScanExec) CollectStatistics(dest *Statistics) {
	dest.ScannedRows += e.scannedRows
	dest.ScannedRanges += e.scannedRanges
	dest.ProducedRows += e.producedRows
}

func (e *BatchTableScanExec) Close() error {
	return nil
}
