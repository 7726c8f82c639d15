package chunk

import (
	"github.com/pingcap/parser/mysql"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

// Row is a cursor over one row of a chunk. It is a cheap value - copying it copies no row
// data, and getters read straight out of the column buffers.
type Row struct {
	c   *Chunk
	idx int
}

func (r Row) Idx() int {
	return r.idx
}

func (r Row) Chunk() *Chunk {
	return r.c
}

func (r Row) IsNull(colIdx int) bool {
	return r.c.columns[colIdx].IsNull(r.idx)
}

func (r Row) GetInt64(colIdx int) int64 {
	return r.c.columns[colIdx].GetInt64(r.idx)
}

func (r Row) GetUint64(colIdx int) uint64 {
	return r.c.columns[colIdx].GetUint64(r.idx)
}

func (r Row) GetFloat64(colIdx int) float64 {
	return r.c.columns[colIdx].GetFloat64(r.idx)
}

func (r Row) GetFloat32(colIdx int) float32 {
	return r.c.columns[colIdx].GetFloat32(r.idx)
}

func (r Row) GetBytes(colIdx int) []byte {
	return r.c.columns[colIdx].GetBytes(r.idx)
}

func (r Row) GetString(colIdx int) string {
	return r.c.columns[colIdx].GetString(r.idx)
}

func (r Row) GetBoxed(colIdx int) common.Datum {
	return r.c.columns[colIdx].GetBoxed(r.idx)
}

// GetDatum reads the value as a datum, interpreting the physical slot through the logical
// type - in particular the unsigned flag decides whether a fixed slot is signed or not.
func (r Row) GetDatum(colIdx int, colType common.ColumnType) (common.Datum, error) {
	col := r.c.columns[colIdx]
	if colType.Encoding() != col.Encoding() {
		return common.Datum{}, errors.NewTypeMismatchError(colType.String(), "column with different encoding")
	}
	if col.IsNull(r.idx) {
		return common.NewNullDatum(), nil
	}
	switch colType.Tp {
	case mysql.TypeTiny, mysql.TypeShort, mysql.TypeInt24, mysql.TypeLong, mysql.TypeLonglong, mysql.TypeYear:
		if colType.Unsigned() {
			return common.NewUintDatum(col.GetUint64(r.idx)), nil
		}
		return common.NewIntDatum(col.GetInt64(r.idx)), nil
	case mysql.TypeFloat:
		return common.NewFloat32Datum(col.GetFloat32(r.idx)), nil
	case mysql.TypeDouble:
		return common.NewFloat64Datum(col.GetFloat64(r.idx)), nil
	case mysql.TypeVarchar, mysql.TypeVarString, mysql.TypeString, mysql.TypeBlob,
		mysql.TypeTinyBlob, mysql.TypeMediumBlob, mysql.TypeLongBlob:
		return common.NewBytesDatum(col.GetBytes(r.idx)), nil
	default:
		return col.GetBoxed(r.idx), nil
	}
}
