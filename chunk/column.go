package chunk

import (
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

var zeroSlot [8]byte

/*
Column stores the values of one output column for a batch of rows. There are three physical
encodings:

 - fixed width: every value occupies fixedSize bytes in data, including nulls, which occupy
   a zeroed slot so a null never reads back as garbage
 - var length: values are concatenated in data and offsets holds len+1 boundaries, with
   offsets[0] always 0. Nulls repeat the previous offset so they are zero length
 - boxed: values are held as Datum and nulls as the null Datum

Whatever the encoding, the null bitmap carries one bit per value: a set bit means the value
is present, a clear bit means null. nullCount tracks the number of clear bits.
*/
type Column struct {
	length     int
	nullCount  int
	nullBitmap []byte
	offsets    []int64
	data       []byte
	fixedSize  int
	boxed      []common.Datum
	encoding   common.Encoding
}

func NewFixedColumn(initialCapacity int, fixedSize int) *Column {
	return &Column{
		encoding:   common.EncodingFixed,
		fixedSize:  fixedSize,
		data:       make([]byte, 0, initialCapacity*fixedSize),
		nullBitmap: make([]byte, 0, (initialCapacity>>3)+1),
	}
}

func NewVarColumn(initialCapacity int) *Column {
	offsets := make([]int64, 1, initialCapacity+1)
	return &Column{
		encoding:   common.EncodingVar,
		offsets:    offsets,
		data:       make([]byte, 0, initialCapacity*8),
		nullBitmap: make([]byte, 0, (initialCapacity>>3)+1),
	}
}

func NewBoxedColumn(initialCapacity int) *Column {
	return &Column{
		encoding:   common.EncodingBoxed,
		boxed:      make([]common.Datum, 0, initialCapacity),
		nullBitmap: make([]byte, 0, (initialCapacity>>3)+1),
	}
}

// NewColumn creates a column with the physical encoding the logical type maps to.
func NewColumn(colType common.ColumnType, initialCapacity int) *Column {
	switch colType.Encoding() {
	case common.EncodingFixed:
		return NewFixedColumn(initialCapacity, colType.FixedSize())
	case common.EncodingVar:
		return NewVarColumn(initialCapacity)
	default:
		return NewBoxedColumn(initialCapacity)
	}
}

func (c *Column) Encoding() common.Encoding {
	return c.encoding
}

func (c *Column) Len() int {
	return c.length
}

func (c *Column) NullCount() int {
	return c.nullCount
}

func (c *Column) FixedSize() int {
	return c.fixedSize
}

func (c *Column) IsNull(i int) bool {
	return c.nullBitmap[i>>3]&(1<<(uint(i)&7)) == 0
}

func (c *Column) appendNullBitmap(notNull bool) {
	idx := c.length >> 3
	if idx >= len(c.nullBitmap) {
		c.nullBitmap = append(c.nullBitmap, 0)
	}
	if notNull {
		c.nullBitmap[idx] |= 1 << (uint(c.length) & 7)
	} else {
		c.nullCount++
	}
}

func (c *Column) AppendNull() {
	c.appendNullBitmap(false)
	switch c.encoding {
	case common.EncodingFixed:
		c.data = append(c.data, zeroSlot[:c.fixedSize]...)
	case common.EncodingVar:
		c.offsets = append(c.offsets, c.offsets[c.length])
	default:
		c.boxed = append(c.boxed, common.NewNullDatum())
	}
	c.length++
}

func (c *Column) assertFixed(size int) {
	if c.encoding != common.EncodingFixed || c.fixedSize != size {
		panic("not a fixed column of that width")
	}
}

func (c *Column) assertVar() {
	if c.encoding != common.EncodingVar {
		panic("not a var length column")
	}
}

func (c *Column) assertBoxed() {
	if c.encoding != common.EncodingBoxed {
		panic("not a boxed column")
	}
}

func (c *Column) AppendInt64(v int64) {
	c.assertFixed(8)
	c.appendNullBitmap(true)
	c.data = common.AppendUint64ToBufferLE(c.data, uint64(v))
	c.length++
}

func (c *Column) AppendUint64(v uint64) {
	c.assertFixed(8)
	c.appendNullBitmap(true)
	c.data = common.AppendUint64ToBufferLE(c.data, v)
	c.length++
}

func (c *Column) AppendFloat64(v float64) {
	c.assertFixed(8)
	c.appendNullBitmap(true)
	c.data = common.AppendFloat64ToBufferLE(c.data, v)
	c.length++
}

func (c *Column) AppendFloat32(v float32) {
	c.assertFixed(4)
	c.appendNullBitmap(true)
	c.data = common.AppendFloat32ToBufferLE(c.data, v)
	c.length++
}

func (c *Column) AppendBytes(b []byte) {
	c.assertVar()
	c.appendNullBitmap(true)
	c.data = append(c.data, b...)
	c.offsets = append(c.offsets, int64(len(c.data)))
	c.length++
}

func (c *Column) AppendString(s string) {
	c.assertVar()
	c.appendNullBitmap(true)
	c.data = append(c.data, s...)
	c.offsets = append(c.offsets, int64(len(c.data)))
	c.length++
}

func (c *Column) AppendBoxed(d common.Datum) {
	c.assertBoxed()
	if d.IsNull() {
		c.AppendNull()
		return
	}
	c.appendNullBitmap(true)
	c.boxed = append(c.boxed, d)
	c.length++
}

// AppendDatum appends a datum with the encoding dispatch a column of this type expects.
func (c *Column) AppendDatum(d common.Datum) error {
	if d.IsNull() {
		c.AppendNull()
		return nil
	}
	switch c.encoding {
	case common.EncodingFixed:
		switch d.Kind() {
		case common.KindInt64:
			c.AppendInt64(d.GetInt64())
		case common.KindUint64:
			c.AppendUint64(d.GetUint64())
		case common.KindFloat32:
			c.AppendFloat32(d.GetFloat32())
		case common.KindFloat64:
			c.AppendFloat64(d.GetFloat64())
		default:
			return errors.NewTypeMismatchError("fixed width value", d.String())
		}
	case common.EncodingVar:
		switch d.Kind() {
		case common.KindBytes:
			c.AppendBytes(d.GetBytes())
		default:
			return errors.NewTypeMismatchError("var length value", d.String())
		}
	default:
		c.AppendBoxed(d)
	}
	return nil
}

func (c *Column) GetInt64(i int) int64 {
	c.assertFixed(8)
	u, _ := common.ReadUint64FromBufferLE(c.data, i*8)
	return int64(u)
}

func (c *Column) GetUint64(i int) uint64 {
	c.assertFixed(8)
	u, _ := common.ReadUint64FromBufferLE(c.data, i*8)
	return u
}

func (c *Column) GetFloat64(i int) float64 {
	c.assertFixed(8)
	f, _ := common.ReadFloat64FromBufferLE(c.data, i*8)
	return f
}

func (c *Column) GetFloat32(i int) float32 {
	c.assertFixed(4)
	f, _ := common.ReadFloat32FromBufferLE(c.data, i*4)
	return f
}

// GetBytes returns the value bytes without copying - the slice aliases the column buffer.
func (c *Column) GetBytes(i int) []byte {
	c.assertVar()
	return c.data[c.offsets[i]:c.offsets[i+1]]
}

func (c *Column) GetString(i int) string {
	return common.ByteSliceToStringZeroCopy(c.GetBytes(i))
}

func (c *Column) GetBoxed(i int) common.Datum {
	c.assertBoxed()
	return c.boxed[i]
}

// Reset empties the column retaining its buffers.
func (c *Column) Reset() {
	c.length = 0
	c.nullCount = 0
	c.nullBitmap = c.nullBitmap[:0]
	c.data = c.data[:0]
	if c.encoding == common.EncodingVar {
		// offsets always keeps the leading 0
		c.offsets = c.offsets[:1]
	}
	if c.encoding == common.EncodingBoxed {
		c.boxed = c.boxed[:0]
	}
}

// TruncateTo discards all values from position n on. The discarded range is rescanned to walk
// the null count back, and the bitmap is cut to the bytes covering the first n values with
// any stale bits above n cleared.
func (c *Column) TruncateTo(n int) {
	if n < 0 || n > c.length {
		panic("truncate out of range")
	}
	if n == c.length {
		return
	}
	for i := n; i < c.length; i++ {
		if c.IsNull(i) {
			c.nullCount--
		}
	}
	if n == 0 {
		c.nullBitmap = c.nullBitmap[:0]
	} else {
		c.nullBitmap = c.nullBitmap[:(n>>3)+1]
		if n&7 != 0 {
			c.nullBitmap[n>>3] &= byte(1<<(uint(n)&7)) - 1
		}
	}
	switch c.encoding {
	case common.EncodingFixed:
		c.data = c.data[:n*c.fixedSize]
	case common.EncodingVar:
		c.offsets = c.offsets[:n+1]
		c.data = c.data[:c.offsets[n]]
	default:
		c.boxed = c.boxed[:n]
	}
	c.length = n
}

// AppendColumn bulk appends the value range [begin, end) from another column of the same
// encoding. Var length offsets are re-based onto this column's data buffer.
func (c *Column) AppendColumn(other *Column, begin int, end int) {
	if c.encoding != other.encoding || c.fixedSize != other.fixedSize {
		panic("cannot append values from a column with a different encoding")
	}
	if begin < 0 || end > other.length || begin > end {
		panic("append range out of bounds")
	}
	switch c.encoding {
	case common.EncodingFixed:
		c.data = append(c.data, other.data[begin*c.fixedSize:end*c.fixedSize]...)
	case common.EncodingVar:
		base := int64(len(c.data))
		c.data = append(c.data, other.data[other.offsets[begin]:other.offsets[end]]...)
		delta := base - other.offsets[begin]
		for i := begin + 1; i <= end; i++ {
			c.offsets = append(c.offsets, other.offsets[i]+delta)
		}
	default:
		c.boxed = append(c.boxed, other.boxed[begin:end]...)
	}
	// bitmap goes bit by bit since the alignment of the two columns can differ
	for i := begin; i < end; i++ {
		c.appendNullBitmap(!other.IsNull(i))
		c.length++
	}
}
