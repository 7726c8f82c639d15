package exec

import (
	"github.com/quarrydb/quarry/chunk"
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

// scanBatchSize is how many pairs a table scan pulls from the snapshot per round.
const scanBatchSize = 256

// Executor is the row at a time chain. Next returns nil when the executor is drained and
// keeps returning nil afterwards.
type Executor interface {
	Next() (*ScanRow, error)
	Schema() []*common.ColumnInfo
	Close() error
}

// ScanRow is one row moving up the row chain. Scan fed rows carry the handle from the key
// and the raw stored column bytes in Data. Aggregation fed rows are already in final output
// encoding and carry Encoded instead.
type ScanRow struct {
	Handle  int64
	Data    *common.ColValueMap
	Encoded []byte
}

// BatchExecutor is the pull based batch chain. NextBatch returns at most requestedRows rows.
type BatchExecutor interface {
	NextBatch(requestedRows int) (*Batch, error)
	CollectStatistics(dest *Statistics)
	Close() error
}

type Batch struct {
	Chunk   *chunk.Chunk
	Drained bool
	// Warnings is the number of warnings raised while producing this batch. The true total
	// for a request lives on the EvalContext.
	Warnings int
}

// Statistics counts what a chain did. CollectStatistics accumulates into dest so a chain
// walk sums naturally.
type Statistics struct {
	ScannedRows   uint64
	ScannedRanges uint64
	ProducedRows  uint64
}

// StatisticsCollector is implemented by row executors that carry counters. Batch executors
// collect through their interface directly.
type StatisticsCollector interface {
	CollectStatistics(dest *Statistics)
}

// ColumnDatum resolves one column of a scanned row. The handle column is never stored - it
// is derived from the key. A value missing from storage means the column was added after
// the row was written: the declared default applies, then null for nullable columns.
func ColumnDatum(col *common.ColumnInfo, handle int64, data *common.ColValueMap) (common.Datum, error) {
	if col.PKHandle {
		if col.Unsigned() {
			return common.NewUintDatum(uint64(handle)), nil
		}
		return common.NewIntDatum(handle), nil
	}
	if raw, ok := data.Get(col.ID); ok {
		d, _, err := common.DecodeDatum(raw, 0)
		if err != nil {
			return common.Datum{}, err
		}
		return d, nil
	}
	if col.Default != nil {
		return *col.Default, nil
	}
	if !col.NotNull() {
		return common.NewNullDatum(), nil
	}
	return common.Datum{}, errors.NewMissingColumnError(col.ID)
}

// AppendColumnValue appends the output encoding of one column. Stored bytes are copied
// verbatim - the read path never re-encodes what it read.
func AppendColumnValue(buff []byte, col *common.ColumnInfo, handle int64, data *common.ColValueMap) ([]byte, error) {
	if !col.PKHandle {
		if raw, ok := data.Get(col.ID); ok {
			return append(buff, raw...), nil
		}
	}
	d, err := ColumnDatum(col, handle, data)
	if err != nil {
		return nil, err
	}
	return common.EncodeDatum(buff, d)
}
