package exec

import (
	"bytes"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
	"github.com/quarrydb/quarry/plan"
	"github.com/quarrydb/quarry/storage"
	"github.com/quarrydb/quarry/table"
)

// TableScanExec reads rows from the snapshot across the request's key ranges. A range that
// spans exactly one handle is served with a point get, everything else with batched range
// scans. Descending scans buffer each range and emit it backwards, visiting ranges in
// reverse order.
type TableScanExec struct {
	tableInfo     *common.TableInfo
	snapshot      storage.Snapshot
	ranges        []plan.KeyRange
	desc          bool
	rangeIndex    int
	resumeKey     []byte
	buffered      []*ScanRow
	bufIndex      int
	scannedRows   uint64
	scannedRanges uint64
}

var _ Executor = &TableScanExec{}

func NewTableScanExec(snapshot storage.Snapshot, ranges []plan.KeyRange, desc *plan.TableScanDesc) *TableScanExec {
	if desc.Desc {
		reversed := make([]plan.KeyRange, len(ranges))
		for i, rng := range ranges {
			reversed[len(ranges)-1-i] = rng
		}
		ranges = reversed
	}
	return &TableScanExec{
		tableInfo: desc.Table,
		snapshot:  snapshot,
		ranges:    ranges,
		desc:      desc.Desc,
	}
}

func (e *TableScanExec) Schema() []*common.ColumnInfo {
	return e.tableInfo.Columns
}

func (e *TableScanExec) Next() (*ScanRow, error) {
	for {
		if e.bufIndex < len(e.buffered) {
			row := e.buffered[e.bufIndex]
			e.bufIndex++
			return row, nil
		}
		more, err := e.fill()
		if err != nil {
			return nil, err
		}
		if !more {
			return nil, nil
		}
	}
}

// fill refills the buffer from the current position. Returns false when all ranges are
// exhausted.
func (e *TableScanExec) fill() (bool, error) {
	e.buffered = e.buffered[:0]
	e.bufIndex = 0
	for e.rangeIndex < len(e.ranges) {
		rng := e.ranges[e.rangeIndex]
		if e.resumeKey == nil {
			e.scannedRanges++
		}
		if isPointRange(rng) {
			e.rangeIndex++
			value, err := e.snapshot.Get(rng.Start)
			if err != nil {
				return false, errors.WithStack(err)
			}
			if value == nil {
				continue
			}
			row, err := e.decodePair(storage.KVPair{Key: rng.Start, Value: value})
			if err != nil {
				return false, err
			}
			e.scannedRows++
			e.buffered = append(e.buffered, row)
			return true, nil
		}
		start := rng.Start
		if e.resumeKey != nil {
			start = e.resumeKey
		}
		limit := scanBatchSize
		if e.desc {
			// The whole range is buffered so it can be emitted backwards
			limit = -1
		}
		pairs, err := e.snapshot.Scan(start, rng.End, limit)
		if err != nil {
			return false, errors.WithStack(err)
		}
		for _, pair := range pairs {
			row, err := e.decodePair(pair)
			if err != nil {
				return false, err
			}
			e.buffered = append(e.buffered, row)
		}
		e.scannedRows += uint64(len(pairs))
		if e.desc {
			for i, j := 0, len(e.buffered)-1; i < j; i, j = i+1, j-1 {
				e.buffered[i], e.buffered[j] = e.buffered[j], e.buffered[i]
			}
			e.rangeIndex++
		} else if len(pairs) < scanBatchSize {
			e.rangeIndex++
			e.resumeKey = nil
		} else {
			// Resume from the key immediately after the last one read
			last := pairs[len(pairs)-1].Key
			e.resumeKey = append(common.CopyByteSlice(last), 0)
		}
		if len(e.buffered) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (e *TableScanExec) decodePair(pair storage.KVPair) (*ScanRow, error) {
	handle, err := table.DecodeKeyHandle(pair.Key)
	if err != nil {
		return nil, err
	}
	data, err := common.DecodeStorageRow(pair.Value)
	if err != nil {
		return nil, err
	}
	return &ScanRow{Handle: handle, Data: data}, nil
}

func (e *TableScanExec) CollectStatistics(dest *Statistics) {
	dest.ScannedRows += e.scannedRows
	dest.ScannedRanges += e.scannedRanges
}

func (e *TableScanExec) Close() error {
	e.buffered = nil
	return nil
}

// isPointRange reports whether the range covers exactly one key, so a get beats an
// iterator.
func isPointRange(rng plan.KeyRange) bool {
	if len(rng.Start) != table.KeyLength || len(rng.End) != table.KeyLength {
		return false
	}
	if allBitsSet(rng.Start) {
		return false
	}
	return bytes.Equal(common.IncrementBytesBigEndian(rng.Start), rng.End)
}

func allBitsSet(bytes []byte) bool {
	for _, b := range bytes {
		if b != 255 {
			return false
		}
	}
	return true
}
