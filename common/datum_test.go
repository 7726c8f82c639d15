package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareNullSortsFirst(t *testing.T) {
	requireCompare(t, 0, NewNullDatum(), NewNullDatum())
	requireCompare(t, -1, NewNullDatum(), NewIntDatum(math.MinInt64))
	requireCompare(t, 1, NewIntDatum(math.MinInt64), NewNullDatum())
	requireCompare(t, -1, NewNullDatum(), NewStringDatum(""))
}

func TestCompareIntegers(t *testing.T) {
	requireCompare(t, -1, NewIntDatum(-1), NewIntDatum(1))
	requireCompare(t, 1, NewIntDatum(1), NewIntDatum(-1))
	requireCompare(t, 0, NewIntDatum(42), NewIntDatum(42))
	requireCompare(t, -1, NewUintDatum(1), NewUintDatum(math.MaxUint64))
}

func TestCompareSignedAgainstUnsigned(t *testing.T) {
	// a negative signed value is below any unsigned value even though the raw bits are huge
	requireCompare(t, -1, NewIntDatum(-1), NewUintDatum(0))
	requireCompare(t, 1, NewUintDatum(0), NewIntDatum(-1))
	requireCompare(t, -1, NewIntDatum(5), NewUintDatum(math.MaxUint64))
	requireCompare(t, 0, NewIntDatum(5), NewUintDatum(5))
}

func TestCompareAcrossNumericKinds(t *testing.T) {
	requireCompare(t, -1, NewIntDatum(1), NewFloat64Datum(1.5))
	requireCompare(t, 1, NewFloat64Datum(2.5), NewIntDatum(2))
	requireCompare(t, 0, NewFloat32Datum(1.5), NewFloat64Datum(1.5))
	dec, err := NewDecFromString("1.25")
	require.Nil(t, err)
	requireCompare(t, 0, NewDecimalDatum(dec), NewFloat64Datum(1.25))
	requireCompare(t, -1, NewIntDatum(1), NewDecimalDatum(dec))
}

func TestCompareBytes(t *testing.T) {
	requireCompare(t, -1, NewStringDatum("aardvark"), NewStringDatum("zebra"))
	requireCompare(t, 0, NewStringDatum("aardvark"), NewStringDatum("aardvark"))
	requireCompare(t, 1, NewStringDatum("ab"), NewStringDatum("a"))
}

func TestCompareTimestamps(t *testing.T) {
	ts1, err := NewTimestampFromString("2021-06-14 12:00:00")
	require.Nil(t, err)
	ts2, err := NewTimestampFromString("2021-06-14 12:00:01")
	require.Nil(t, err)
	requireCompare(t, -1, NewTimestampDatum(ts1), NewTimestampDatum(ts2))
	requireCompare(t, 0, NewTimestampDatum(ts1), NewTimestampDatum(ts1))
}

func TestCompareMismatchedKinds(t *testing.T) {
	_, err := NewStringDatum("1").Compare(NewIntDatum(1))
	require.NotNil(t, err)
	_, err = NewIntDatum(1).Compare(NewStringDatum("1"))
	require.NotNil(t, err)
}

func requireCompare(t *testing.T, expected int, a Datum, b Datum) {
	t.Helper()
	c, err := a.Compare(b)
	require.Nil(t, err)
	require.Equal(t, expected, c)
}

func TestConvertNullIsAlwaysNull(t *testing.T) {
	converted, err := NewNullDatum().ConvertTo(BigIntColumnType)
	require.Nil(t, err)
	require.True(t, converted.IsNull())
}

func TestConvertStringToIntExact(t *testing.T) {
	converted, err := NewStringDatum("123").ConvertTo(BigIntColumnType)
	require.Nil(t, err)
	require.Equal(t, int64(123), converted.GetInt64())
}

func TestConvertStringToIntWithTrailingGarbage(t *testing.T) {
	// the numeric prefix is used and the condition classifies as truncation
	converted, err := NewStringDatum("123abc").ConvertTo(BigIntColumnType)
	require.NotNil(t, err)
	require.True(t, IsTruncateError(err))
	require.False(t, IsOverflowError(err))
	require.Equal(t, int64(123), converted.GetInt64())
}

func TestConvertStringWithNoNumericPrefix(t *testing.T) {
	converted, err := NewStringDatum("abc").ConvertTo(BigIntColumnType)
	require.NotNil(t, err)
	require.True(t, IsTruncateError(err))
	require.Equal(t, int64(0), converted.GetInt64())
}

func TestConvertStringWithDanglingExponent(t *testing.T) {
	converted, err := NewStringDatum("1e").ConvertTo(BigIntColumnType)
	require.NotNil(t, err)
	require.True(t, IsTruncateError(err))
	require.Equal(t, int64(1), converted.GetInt64())
}

func TestConvertIntOverflowSaturates(t *testing.T) {
	converted, err := NewIntDatum(300).ConvertTo(TinyIntColumnType)
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
	require.False(t, IsTruncateError(err))
	require.Equal(t, int64(math.MaxInt8), converted.GetInt64())

	converted, err = NewIntDatum(-300).ConvertTo(TinyIntColumnType)
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
	require.Equal(t, int64(math.MinInt8), converted.GetInt64())
}

func TestConvertNegativeToUnsigned(t *testing.T) {
	converted, err := NewIntDatum(-1).ConvertTo(BigIntColumnType.WithUnsigned())
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
	require.Equal(t, uint64(0), converted.GetUint64())
}

func TestConvertUnsignedOverflowToSigned(t *testing.T) {
	converted, err := NewUintDatum(math.MaxUint64).ConvertTo(BigIntColumnType)
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
	require.Equal(t, int64(math.MaxInt64), converted.GetInt64())
}

func TestConvertFloatToIntRounds(t *testing.T) {
	converted, err := NewFloat64Datum(3.7).ConvertTo(BigIntColumnType)
	require.Nil(t, err)
	require.Equal(t, int64(4), converted.GetInt64())

	converted, err = NewFloat64Datum(-3.7).ConvertTo(BigIntColumnType)
	require.Nil(t, err)
	require.Equal(t, int64(-4), converted.GetInt64())
}

func TestConvertHugeStringToIntOverflows(t *testing.T) {
	converted, err := NewStringDatum("99999999999999999999").ConvertTo(BigIntColumnType)
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
	require.Equal(t, int64(math.MaxInt64), converted.GetInt64())
}

func TestConvertDoubleToFloatSaturates(t *testing.T) {
	converted, err := NewFloat64Datum(math.MaxFloat64).ConvertTo(FloatColumnType)
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
	require.Equal(t, float32(math.MaxFloat32), converted.GetFloat32())

	converted, err = NewFloat64Datum(-math.MaxFloat64).ConvertTo(FloatColumnType)
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
	require.Equal(t, float32(-math.MaxFloat32), converted.GetFloat32())
}

func TestConvertStringToDouble(t *testing.T) {
	converted, err := NewStringDatum("  1.5  ").ConvertTo(DoubleColumnType)
	require.Nil(t, err)
	require.Equal(t, 1.5, converted.GetFloat64())
}

func TestConvertToDecimalRoundsToScale(t *testing.T) {
	colType := NewDecimalColumnType(10, 2)
	converted, err := NewStringDatum("1.239").ConvertTo(colType)
	require.Nil(t, err)
	require.Equal(t, "1.24", converted.GetDecimal().String())

	converted, err = NewFloat64Datum(1.2).ConvertTo(colType)
	require.Nil(t, err)
	require.Equal(t, "1.20", converted.GetDecimal().String())
}

func TestConvertStringToDecimalWithGarbage(t *testing.T) {
	converted, err := NewStringDatum("1.5x").ConvertTo(NewDecimalColumnType(10, 2))
	require.NotNil(t, err)
	require.True(t, IsTruncateError(err))
	require.Equal(t, "1.50", converted.GetDecimal().String())
}

func TestConvertToBytesRespectsFlen(t *testing.T) {
	colType := VarcharColumnType
	colType.Flen = 3
	converted, err := NewStringDatum("abcdef").ConvertTo(colType)
	require.NotNil(t, err)
	require.True(t, IsTruncateError(err))
	require.Equal(t, "abc", converted.GetString())

	converted, err = NewStringDatum("ab").ConvertTo(colType)
	require.Nil(t, err)
	require.Equal(t, "ab", converted.GetString())
}

func TestConvertIntToBytes(t *testing.T) {
	converted, err := NewIntDatum(-42).ConvertTo(VarcharColumnType)
	require.Nil(t, err)
	require.Equal(t, "-42", converted.GetString())
}

func TestConvertStringToTimestamp(t *testing.T) {
	converted, err := NewStringDatum("2021-06-14 12:34:56").ConvertTo(TimestampColumnType)
	require.Nil(t, err)
	require.Equal(t, "2021-06-14 12:34:56", converted.GetTimestamp().GoTime().Format("2006-01-02 15:04:05"))

	_, err = NewStringDatum("not a timestamp").ConvertTo(TimestampColumnType)
	require.NotNil(t, err)
	require.True(t, IsTruncateError(err))
}

func TestConvertIncompatibleKind(t *testing.T) {
	_, err := NewDurationDatum(0).ConvertTo(BigIntColumnType)
	require.NotNil(t, err)
	require.False(t, IsTruncateError(err))
	require.False(t, IsOverflowError(err))
}

func TestAddInt64Overflow(t *testing.T) {
	v, err := AddInt64(math.MaxInt64-1, 1)
	require.Nil(t, err)
	require.Equal(t, int64(math.MaxInt64), v)
	_, err = AddInt64(math.MaxInt64, 1)
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
	_, err = AddInt64(math.MinInt64, -1)
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
}

func TestAddUint64Overflow(t *testing.T) {
	v, err := AddUint64(math.MaxUint64-1, 1)
	require.Nil(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)
	_, err = AddUint64(math.MaxUint64, 1)
	require.NotNil(t, err)
	require.True(t, IsOverflowError(err))
}
