package common

import (
	"github.com/quarrydb/quarry/errors"
)

// ColValueMap is the decoded form of a stored row value: for each column ID the raw encoded
// datum bytes, sliced out of the one backing buffer. Values are copied verbatim into output
// rows so they are never re-encoded on the read path.
type ColValueMap struct {
	value []byte
	cols  map[int64]sliceLoc
}

type sliceLoc struct {
	offset int
	end    int
}

func (m *ColValueMap) Get(colID int64) ([]byte, bool) {
	loc, ok := m.cols[colID]
	if !ok {
		return nil, false
	}
	return m.value[loc.offset:loc.end], true
}

func (m *ColValueMap) Len() int {
	return len(m.cols)
}

func (m *ColValueMap) ColIDs() []int64 {
	ids := make([]int64, 0, len(m.cols))
	for id := range m.cols {
		ids = append(ids, id)
	}
	return ids
}

// EncodeStorageRow encodes a row value as repeated (column ID, value) datum pairs. The handle
// column is not stored - it lives in the key. Null values are stored explicitly so that a
// missing column always means the column was added after the row was written.
func EncodeStorageRow(tableInfo *TableInfo, row []Datum, buffer []byte) ([]byte, error) {
	if len(row) != len(tableInfo.Columns) {
		return nil, errors.Errorf("row has %d values, table %s has %d columns", len(row), tableInfo.Name, len(tableInfo.Columns))
	}
	for i, col := range tableInfo.Columns {
		if col.PKHandle {
			continue
		}
		var err error
		buffer, err = EncodeDatum(buffer, NewIntDatum(col.ID))
		if err != nil {
			return nil, err
		}
		buffer, err = EncodeDatum(buffer, row[i])
		if err != nil {
			return nil, err
		}
	}
	return buffer, nil
}

// DecodeStorageRow indexes a stored row value by column ID. The returned map slices into
// buffer - the caller keeps ownership and must not recycle it while the map is live.
func DecodeStorageRow(buffer []byte) (*ColValueMap, error) {
	m := &ColValueMap{
		value: buffer,
		cols:  make(map[int64]sliceLoc),
	}
	offset := 0
	for offset < len(buffer) {
		d, next, err := DecodeDatum(buffer, offset)
		if err != nil {
			return nil, err
		}
		if d.Kind() != KindInt64 {
			return nil, errors.Errorf("corrupt row value: column ID has kind %d", d.Kind())
		}
		colID := d.GetInt64()
		valStart := next
		valEnd, err := SkipDatum(buffer, valStart)
		if err != nil {
			return nil, err
		}
		m.cols[colID] = sliceLoc{offset: valStart, end: valEnd}
		offset = valEnd
	}
	return m, nil
}
