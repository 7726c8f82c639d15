package plan

import (
	"github.com/quarrydb/quarry/common"
)

// Serialization here exists to build cache keys, so it must be deterministic: the same plan
// always produces the same bytes, and any field that can change the result set is included.
// There is no matching Deserialize - plans are never reconstituted from this form.

func (p *Plan) Serialize(buff []byte) ([]byte, error) {
	buff = common.AppendUint64ToBufferLE(buff, p.Flags)
	buff = common.AppendUint64ToBufferLE(buff, uint64(p.TZOffsetSecs))
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(p.OutputOffsets)))
	for _, off := range p.OutputOffsets {
		buff = common.AppendUint32ToBufferLE(buff, off)
	}
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(p.Executors)))
	var err error
	for i := range p.Executors {
		buff, err = p.Executors[i].serialize(buff)
		if err != nil {
			return nil, err
		}
	}
	return buff, nil
}

func (e *Executor) serialize(buff []byte) ([]byte, error) {
	buff = append(buff, byte(e.Tp))
	switch e.Tp {
	case TypeTableScan:
		return e.TableScan.serialize(buff)
	case TypeSelection:
		return e.Selection.serialize(buff)
	case TypeAggregation:
		return e.Aggregation.serialize(buff), nil
	case TypeTopN:
		return e.TopN.serialize(buff), nil
	case TypeLimit:
		return common.AppendUint64ToBufferLE(buff, e.Limit.Limit), nil
	default:
		return buff, nil
	}
}

func (d *TableScanDesc) serialize(buff []byte) ([]byte, error) {
	buff = common.AppendUint64ToBufferLE(buff, d.Table.ID)
	buff = appendBool(buff, d.Desc)
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(d.Table.Columns)))
	var err error
	for _, col := range d.Table.Columns {
		buff = common.AppendUint64ToBufferLE(buff, uint64(col.ID))
		buff = append(buff, col.Tp)
		buff = common.AppendUint64ToBufferLE(buff, uint64(col.Flags))
		buff = common.AppendUint64ToBufferLE(buff, uint64(col.Flen))
		buff = common.AppendUint64ToBufferLE(buff, uint64(col.Decimal))
		buff = appendBool(buff, col.PKHandle)
		if col.Default != nil {
			buff = append(buff, 1)
			buff, err = common.EncodeDatum(buff, *col.Default)
			if err != nil {
				return nil, err
			}
		} else {
			buff = append(buff, 0)
		}
	}
	return buff, nil
}

func (d *SelectionDesc) serialize(buff []byte) ([]byte, error) {
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(d.Conditions)))
	var err error
	for i := range d.Conditions {
		cond := &d.Conditions[i]
		buff = common.AppendUint64ToBufferLE(buff, uint64(cond.ColID))
		buff = append(buff, byte(cond.Op))
		buff, err = common.EncodeDatum(buff, cond.Value)
		if err != nil {
			return nil, err
		}
	}
	return buff, nil
}

func (d *AggregationDesc) serialize(buff []byte) []byte {
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(d.GroupByColIDs)))
	for _, colID := range d.GroupByColIDs {
		buff = common.AppendUint64ToBufferLE(buff, uint64(colID))
	}
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(d.AggFuncs)))
	for _, af := range d.AggFuncs {
		buff = append(buff, byte(af.Func))
		buff = common.AppendUint64ToBufferLE(buff, uint64(af.ColID))
	}
	return buff
}

func (d *TopNDesc) serialize(buff []byte) []byte {
	buff = common.AppendUint64ToBufferLE(buff, d.N)
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(d.OrderBy)))
	for _, by := range d.OrderBy {
		buff = common.AppendUint64ToBufferLE(buff, uint64(by.ColID))
		buff = appendBool(buff, by.Desc)
	}
	return buff
}

func (r *KeyRange) Serialize(buff []byte) []byte {
	buff = common.AppendBytesToBufferLE(buff, r.Start)
	return common.AppendBytesToBufferLE(buff, r.End)
}

// SerializeKeyRanges flattens the scan ranges for the cache key, so two requests over
// different ranges of the same table never share an entry.
func SerializeKeyRanges(ranges []KeyRange, buff []byte) []byte {
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(ranges)))
	for i := range ranges {
		buff = ranges[i].Serialize(buff)
	}
	return buff
}

func appendBool(buff []byte, b bool) []byte {
	if b {
		return append(buff, 1)
	}
	return append(buff, 0)
}
