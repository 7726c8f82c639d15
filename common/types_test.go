package common

import (
	"testing"

	"github.com/pingcap/parser/mysql"
	"github.com/stretchr/testify/require"
)

func TestColumnTypeEncodings(t *testing.T) {
	fixed := []ColumnType{
		TinyIntColumnType, NewColumnType(mysql.TypeShort), NewColumnType(mysql.TypeInt24),
		IntColumnType, BigIntColumnType, YearColumnType, FloatColumnType, DoubleColumnType,
	}
	for _, colType := range fixed {
		require.Equal(t, EncodingFixed, colType.Encoding())
	}
	varLength := []ColumnType{
		VarcharColumnType, NewColumnType(mysql.TypeVarString), NewColumnType(mysql.TypeString),
		BlobColumnType, NewColumnType(mysql.TypeTinyBlob), NewColumnType(mysql.TypeMediumBlob),
		NewColumnType(mysql.TypeLongBlob),
	}
	for _, colType := range varLength {
		require.Equal(t, EncodingVar, colType.Encoding())
	}
	boxed := []ColumnType{
		NewDecimalColumnType(10, 2), TimestampColumnType, NewColumnType(mysql.TypeDatetime),
		NewColumnType(mysql.TypeDate), DurationColumnType, JSONColumnType,
		NewColumnType(mysql.TypeBit), NewColumnType(mysql.TypeEnum), NewColumnType(mysql.TypeSet),
	}
	for _, colType := range boxed {
		require.Equal(t, EncodingBoxed, colType.Encoding())
	}
}

func TestFixedSize(t *testing.T) {
	// float is the single 4 byte type, every other fixed width type gets a full 8 byte slot
	require.Equal(t, 4, FloatColumnType.FixedSize())
	require.Equal(t, 8, DoubleColumnType.FixedSize())
	require.Equal(t, 8, TinyIntColumnType.FixedSize())
	require.Equal(t, 8, BigIntColumnType.FixedSize())
	require.Equal(t, 8, YearColumnType.FixedSize())
}

func TestColumnTypeFlags(t *testing.T) {
	colType := BigIntColumnType
	require.False(t, colType.Unsigned())
	require.False(t, colType.NotNull())
	require.False(t, colType.PriKey())

	unsigned := colType.WithUnsigned()
	require.True(t, unsigned.Unsigned())
	require.False(t, colType.Unsigned())

	pk := colType.WithPriKey()
	require.True(t, pk.PriKey())
	require.True(t, pk.NotNull())
}

func TestTableInfoLookups(t *testing.T) {
	tableInfo := tableForRowCodec()
	require.Equal(t, 4, len(tableInfo.ColumnTypes()))
	col := tableInfo.ColumnByID(3)
	require.NotNil(t, col)
	require.Equal(t, "temperature", col.Name)
	require.Nil(t, tableInfo.ColumnByID(99))
	handle := tableInfo.HandleColumn()
	require.NotNil(t, handle)
	require.Equal(t, int64(1), handle.ID)
}
