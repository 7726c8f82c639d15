package chunk

var _ Iterator = (*chunkIterator)(nil)

// Iterator walks the rows of a chunk:
//
//	for row := it.Begin(); row != it.End(); row = it.Next() {
//	    ...
//	}
type Iterator interface {
	// Begin resets the cursor and returns the first row, or End() for an empty chunk.
	Begin() Row

	// Next returns the next row, or End() when the rows are exhausted.
	Next() Row

	// End returns the invalid past-the-end row.
	End() Row

	// Current returns the row the cursor is on.
	Current() Row

	// Len returns the number of rows.
	Len() int
}

func NewIterator(chk *Chunk) Iterator {
	return &chunkIterator{chk: chk}
}

type chunkIterator struct {
	chk     *Chunk
	cursor  int
	numRows int
}

func (it *chunkIterator) Begin() Row {
	it.numRows = it.chk.NumRows()
	if it.numRows == 0 {
		return it.End()
	}
	it.cursor = 1
	return it.chk.GetRow(0)
}

func (it *chunkIterator) Next() Row {
	if it.cursor >= it.numRows {
		it.cursor = it.numRows + 1
		return it.End()
	}
	row := it.chk.GetRow(it.cursor)
	it.cursor++
	return row
}

func (it *chunkIterator) Current() Row {
	if it.cursor == 0 || it.cursor > it.numRows {
		return it.End()
	}
	return it.chk.GetRow(it.cursor - 1)
}

func (it *chunkIterator) End() Row {
	return Row{}
}

func (it *chunkIterator) Len() int {
	return it.chk.NumRows()
}
