package common

import (
	"fmt"

	"github.com/pingcap/parser/mysql"
)

// Encoding is the physical layout a column uses inside a chunk.
type Encoding int

const (
	// EncodingFixed stores one fixed width slot per value.
	EncodingFixed Encoding = iota
	// EncodingVar stores concatenated bytes with an offsets array.
	EncodingVar
	// EncodingBoxed stores boxed Datum values.
	EncodingBoxed
)

// ColumnType describes the logical type of a column. Tp is one of the mysql.Type* constants
// and Flags carries the mysql flag bits (unsigned, not null, primary key).
type ColumnType struct {
	Tp      byte
	Flags   uint
	Flen    int
	Decimal int
}

func NewColumnType(tp byte) ColumnType {
	return ColumnType{Tp: tp, Flen: -1, Decimal: -1}
}

var (
	TinyIntColumnType   = NewColumnType(mysql.TypeTiny)
	IntColumnType       = NewColumnType(mysql.TypeLong)
	BigIntColumnType    = NewColumnType(mysql.TypeLonglong)
	YearColumnType      = NewColumnType(mysql.TypeYear)
	FloatColumnType     = NewColumnType(mysql.TypeFloat)
	DoubleColumnType    = NewColumnType(mysql.TypeDouble)
	VarcharColumnType   = NewColumnType(mysql.TypeVarchar)
	BlobColumnType      = NewColumnType(mysql.TypeBlob)
	TimestampColumnType = NewColumnType(mysql.TypeTimestamp)
	DurationColumnType  = NewColumnType(mysql.TypeDuration)
	JSONColumnType      = NewColumnType(mysql.TypeJSON)
)

func NewDecimalColumnType(precision int, scale int) ColumnType {
	ct := NewColumnType(mysql.TypeNewDecimal)
	ct.Flen = precision
	ct.Decimal = scale
	return ct
}

func (t ColumnType) WithUnsigned() ColumnType {
	t.Flags |= mysql.UnsignedFlag
	return t
}

func (t ColumnType) WithNotNull() ColumnType {
	t.Flags |= mysql.NotNullFlag
	return t
}

func (t ColumnType) WithPriKey() ColumnType {
	t.Flags |= mysql.PriKeyFlag | mysql.NotNullFlag
	return t
}

func (t ColumnType) Unsigned() bool {
	return mysql.HasUnsignedFlag(t.Flags)
}

func (t ColumnType) NotNull() bool {
	return mysql.HasNotNullFlag(t.Flags)
}

func (t ColumnType) PriKey() bool {
	return mysql.HasPriKeyFlag(t.Flags)
}

// Encoding returns the physical encoding for the logical type. Integer types, year and the
// two float types are fixed width. The varchar/string/blob family is var length. Everything
// else - decimal, times, duration, JSON, bit, enum, set - is boxed.
func (t ColumnType) Encoding() Encoding {
	switch t.Tp {
	case mysql.TypeTiny, mysql.TypeShort, mysql.TypeInt24, mysql.TypeLong, mysql.TypeLonglong,
		mysql.TypeYear, mysql.TypeFloat, mysql.TypeDouble:
		return EncodingFixed
	case mysql.TypeVarchar, mysql.TypeVarString, mysql.TypeString, mysql.TypeBlob,
		mysql.TypeTinyBlob, mysql.TypeMediumBlob, mysql.TypeLongBlob:
		return EncodingVar
	default:
		return EncodingBoxed
	}
}

// FixedSize returns the slot width for fixed width types. Float is the only 4 byte type -
// all other fixed types occupy 8 bytes whatever their logical width, so a TINYINT value and
// a BIGINT value read back the same way.
func (t ColumnType) FixedSize() int {
	if t.Tp == mysql.TypeFloat {
		return 4
	}
	return 8
}

func (t ColumnType) String() string {
	return fmt.Sprintf("type[tp=%d,flags=%d,flen=%d,dec=%d]", t.Tp, t.Flags, t.Flen, t.Decimal)
}

type ColumnInfo struct {
	ID   int64
	Name string
	ColumnType
	// PKHandle is set on the column whose value is the row handle. It is not stored in the
	// row value - readers derive it from the key.
	PKHandle bool
	// Default is the declared default value, nil if the column has none.
	Default *Datum
}

type TableInfo struct {
	ID      uint64
	Name    string
	Columns []*ColumnInfo
}

func (i *TableInfo) String() string {
	return fmt.Sprintf("table[name=%s,id=%d]", i.Name, i.ID)
}

func (i *TableInfo) ColumnTypes() []ColumnType {
	colTypes := make([]ColumnType, len(i.Columns))
	for j, col := range i.Columns {
		colTypes[j] = col.ColumnType
	}
	return colTypes
}

func (i *TableInfo) ColumnByID(colID int64) *ColumnInfo {
	for _, col := range i.Columns {
		if col.ID == colID {
			return col
		}
	}
	return nil
}

// HandleColumn returns the PK handle column, or nil if the table has a hidden handle.
func (i *TableInfo) HandleColumn() *ColumnInfo {
	for _, col := range i.Columns {
		if col.PKHandle {
			return col
		}
	}
	return nil
}
