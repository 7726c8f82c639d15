package chunk

import (
	"github.com/quarrydb/quarry/common"
)

// InitialCapacity is the row capacity new chunks reserve per column.
const InitialCapacity = 32

// Chunk is a batch of rows in columnar layout. All columns always hold the same number of
// values.
type Chunk struct {
	columns  []*Column
	colTypes []common.ColumnType
}

func NewChunk(colTypes []common.ColumnType) *Chunk {
	return NewChunkWithCapacity(colTypes, InitialCapacity)
}

func NewChunkWithCapacity(colTypes []common.ColumnType, capacity int) *Chunk {
	columns := make([]*Column, len(colTypes))
	for i, colType := range colTypes {
		columns[i] = NewColumn(colType, capacity)
	}
	return &Chunk{
		columns:  columns,
		colTypes: colTypes,
	}
}

func (c *Chunk) NumRows() int {
	if len(c.columns) == 0 {
		return 0
	}
	return c.columns[0].Len()
}

func (c *Chunk) NumCols() int {
	return len(c.columns)
}

func (c *Chunk) Column(i int) *Column {
	return c.columns[i]
}

func (c *Chunk) ColumnTypes() []common.ColumnType {
	return c.colTypes
}

func (c *Chunk) Reset() {
	for _, col := range c.columns {
		col.Reset()
	}
}

func (c *Chunk) TruncateTo(n int) {
	for _, col := range c.columns {
		col.TruncateTo(n)
	}
}

// AppendDatum appends a single value to one column. The caller is responsible for keeping
// the columns the same length - use AppendRow to append across all columns.
func (c *Chunk) AppendDatum(colIdx int, d common.Datum) error {
	return c.columns[colIdx].AppendDatum(d)
}

func (c *Chunk) AppendNull(colIdx int) {
	c.columns[colIdx].AppendNull()
}

// AppendRow copies one row from another chunk with the same layout.
func (c *Chunk) AppendRow(row Row) {
	for i, col := range c.columns {
		col.AppendColumn(row.c.columns[i], row.idx, row.idx+1)
	}
}

// AppendChunkRows bulk copies the row range [begin, end) from another chunk with the same
// layout.
func (c *Chunk) AppendChunkRows(src *Chunk, begin int, end int) {
	for i, col := range c.columns {
		col.AppendColumn(src.columns[i], begin, end)
	}
}

func (c *Chunk) GetRow(i int) Row {
	return Row{c: c, idx: i}
}
