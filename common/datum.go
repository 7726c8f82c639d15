package common

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pingcap/parser/mysql"
	"github.com/pingcap/parser/types"

	"github.com/quarrydb/quarry/errors"
)

type DatumKind int

const (
	KindNull DatumKind = iota
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindBytes
	KindDecimal
	KindTimestamp
	KindDuration
	KindJSON
)

// Datum is a single boxed value. The kind says which field is live - accessing the wrong one
// panics, the same as reading the wrong column type from a row.
type Datum struct {
	kind DatumKind
	i    int64
	f    float64
	b    []byte
	dec  *Decimal
	ts   Timestamp
}

func NewNullDatum() Datum {
	return Datum{kind: KindNull}
}

func NewIntDatum(i int64) Datum {
	return Datum{kind: KindInt64, i: i}
}

func NewUintDatum(u uint64) Datum {
	return Datum{kind: KindUint64, i: int64(u)}
}

func NewFloat32Datum(f float32) Datum {
	return Datum{kind: KindFloat32, f: float64(f)}
}

func NewFloat64Datum(f float64) Datum {
	return Datum{kind: KindFloat64, f: f}
}

func NewStringDatum(s string) Datum {
	return Datum{kind: KindBytes, b: StringToByteSliceZeroCopy(s)}
}

func NewBytesDatum(b []byte) Datum {
	return Datum{kind: KindBytes, b: b}
}

func NewDecimalDatum(dec *Decimal) Datum {
	return Datum{kind: KindDecimal, dec: dec}
}

func NewTimestampDatum(ts Timestamp) Datum {
	return Datum{kind: KindTimestamp, ts: ts}
}

func NewDurationDatum(dur time.Duration) Datum {
	return Datum{kind: KindDuration, i: int64(dur)}
}

func NewJSONDatum(j JSON) Datum {
	return Datum{kind: KindJSON, b: j.raw}
}

func (d Datum) Kind() DatumKind {
	return d.kind
}

func (d Datum) IsNull() bool {
	return d.kind == KindNull
}

func (d Datum) GetInt64() int64 {
	d.assertKind(KindInt64)
	return d.i
}

func (d Datum) GetUint64() uint64 {
	d.assertKind(KindUint64)
	return uint64(d.i)
}

func (d Datum) GetFloat32() float32 {
	d.assertKind(KindFloat32)
	return float32(d.f)
}

func (d Datum) GetFloat64() float64 {
	d.assertKind(KindFloat64)
	return d.f
}

func (d Datum) GetBytes() []byte {
	d.assertKind(KindBytes)
	return d.b
}

func (d Datum) GetString() string {
	d.assertKind(KindBytes)
	return ByteSliceToStringZeroCopy(d.b)
}

func (d Datum) GetDecimal() *Decimal {
	d.assertKind(KindDecimal)
	return d.dec
}

func (d Datum) GetTimestamp() Timestamp {
	d.assertKind(KindTimestamp)
	return d.ts
}

func (d Datum) GetDuration() time.Duration {
	d.assertKind(KindDuration)
	return time.Duration(d.i)
}

func (d Datum) GetJSON() JSON {
	d.assertKind(KindJSON)
	return JSON{raw: d.b}
}

func (d Datum) assertKind(kind DatumKind) {
	if d.kind != kind {
		panic(fmt.Sprintf("datum kind is %d not %d", d.kind, kind))
	}
}

func (d Datum) String() string {
	switch d.kind {
	case KindNull:
		return "null"
	case KindInt64:
		return strconv.FormatInt(d.i, 10)
	case KindUint64:
		return strconv.FormatUint(uint64(d.i), 10)
	case KindFloat32, KindFloat64:
		return strconv.FormatFloat(d.f, 'g', -1, 64)
	case KindBytes:
		return string(d.b)
	case KindDecimal:
		return d.dec.String()
	case KindTimestamp:
		return d.ts.String()
	case KindDuration:
		return time.Duration(d.i).String()
	case KindJSON:
		return string(d.b)
	default:
		panic(fmt.Sprintf("unknown datum kind %d", d.kind))
	}
}

func (d Datum) isNumeric() bool {
	switch d.kind {
	case KindInt64, KindUint64, KindFloat32, KindFloat64, KindDecimal:
		return true
	}
	return false
}

func (d Datum) toFloat64() float64 {
	switch d.kind {
	case KindInt64:
		return float64(d.i)
	case KindUint64:
		return float64(uint64(d.i))
	case KindFloat32, KindFloat64:
		return d.f
	default:
		panic("not a float convertible datum")
	}
}

func (d Datum) toDecimal() *Decimal {
	switch d.kind {
	case KindInt64:
		return NewDecFromInt64(d.i)
	case KindUint64:
		return NewDecFromUint64(uint64(d.i))
	case KindFloat32, KindFloat64:
		dec, err := NewDecFromFloat64(d.f)
		if err != nil {
			panic(err)
		}
		return dec
	case KindDecimal:
		return d.dec
	default:
		panic("not a decimal convertible datum")
	}
}

// Compare orders two datums. Null sorts before everything. Numeric kinds compare by value
// across kinds, everything else requires matching kinds.
func (d Datum) Compare(other Datum) (int, error) {
	if d.kind == KindNull {
		if other.kind == KindNull {
			return 0, nil
		}
		return -1, nil
	}
	if other.kind == KindNull {
		return 1, nil
	}
	if d.isNumeric() && other.isNumeric() {
		return compareNumeric(d, other), nil
	}
	if d.kind != other.kind {
		return 0, errors.NewTypeMismatchError(kindName(d.kind), kindName(other.kind))
	}
	switch d.kind {
	case KindBytes:
		return bytes.Compare(d.b, other.b), nil
	case KindTimestamp:
		return d.ts.CompareTo(other.ts), nil
	case KindDuration:
		return compareInt64(d.i, other.i), nil
	case KindJSON:
		return d.GetJSON().CompareTo(other.GetJSON())
	default:
		return 0, errors.NewTypeMismatchError(kindName(d.kind), kindName(other.kind))
	}
}

func compareNumeric(a Datum, b Datum) int {
	if a.kind == KindDecimal || b.kind == KindDecimal {
		return a.toDecimal().CompareTo(b.toDecimal())
	}
	if a.kind == KindInt64 && b.kind == KindInt64 {
		return compareInt64(a.i, b.i)
	}
	if a.kind == KindUint64 && b.kind == KindUint64 {
		return compareUint64(uint64(a.i), uint64(b.i))
	}
	if a.kind == KindInt64 && b.kind == KindUint64 {
		if a.i < 0 {
			return -1
		}
		return compareUint64(uint64(a.i), uint64(b.i))
	}
	if a.kind == KindUint64 && b.kind == KindInt64 {
		if b.i < 0 {
			return 1
		}
		return compareUint64(uint64(a.i), uint64(b.i))
	}
	return compareFloat64(a.toFloat64(), b.toFloat64())
}

func compareInt64(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func compareUint64(a, b uint64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func compareFloat64(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func (k DatumKind) String() string {
	return kindName(k)
}

func kindName(kind DatumKind) string {
	switch kind {
	case KindNull:
		return "null"
	case KindInt64:
		return "int"
	case KindUint64:
		return "unsigned int"
	case KindFloat32:
		return "float"
	case KindFloat64:
		return "double"
	case KindBytes:
		return "bytes"
	case KindDecimal:
		return "decimal"
	case KindTimestamp:
		return "timestamp"
	case KindDuration:
		return "duration"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// IsTruncateError returns true if the error is the canonical truncation error.
func IsTruncateError(err error) bool {
	var qerr errors.QuarryError
	if errors.As(err, &qerr) {
		return qerr.Code == errors.DataTruncated
	}
	return false
}

// IsOverflowError returns true if the error is a value overflow.
func IsOverflowError(err error) bool {
	var qerr errors.QuarryError
	if errors.As(err, &qerr) {
		return qerr.Code == errors.ValueOverflow
	}
	return false
}

// ConvertTo coerces the datum to the given column type. On truncation or overflow it returns
// the best effort value along with the classifying error, so the caller can decide whether
// the condition is ignored, demoted to a warning, or fatal - and still use the value in the
// first two cases.
func (d Datum) ConvertTo(ct ColumnType) (Datum, error) {
	if d.kind == KindNull {
		return d, nil
	}
	switch ct.Tp {
	case mysql.TypeTiny, mysql.TypeShort, mysql.TypeInt24, mysql.TypeLong, mysql.TypeLonglong, mysql.TypeYear:
		return d.convertToInt(ct)
	case mysql.TypeFloat, mysql.TypeDouble:
		return d.convertToFloat(ct)
	case mysql.TypeNewDecimal:
		return d.convertToDecimal(ct)
	case mysql.TypeVarchar, mysql.TypeVarString, mysql.TypeString, mysql.TypeBlob,
		mysql.TypeTinyBlob, mysql.TypeMediumBlob, mysql.TypeLongBlob:
		return d.convertToBytes(ct)
	case mysql.TypeTimestamp, mysql.TypeDatetime:
		return d.convertToTimestamp(ct)
	case mysql.TypeDuration:
		if d.kind == KindDuration {
			return d, nil
		}
		return NewNullDatum(), errors.NewTypeMismatchError("duration", kindName(d.kind))
	case mysql.TypeJSON:
		if d.kind == KindJSON {
			return d, nil
		}
		if d.kind == KindBytes {
			j, err := NewJSONFromBytes(d.b)
			if err != nil {
				return NewNullDatum(), errors.NewDataTruncatedError()
			}
			return NewJSONDatum(j), nil
		}
		return NewNullDatum(), errors.NewTypeMismatchError("json", kindName(d.kind))
	default:
		return NewNullDatum(), errors.NewUnknownTypeError(ct.Tp)
	}
}

func (d Datum) convertToInt(ct ColumnType) (Datum, error) {
	lower, upper := signedBounds(ct.Tp)
	typeName := strings.ToUpper(types.TypeStr(ct.Tp))
	if ct.Unsigned() {
		uupper := unsignedBound(ct.Tp)
		var uval uint64
		var convErr error
		switch d.kind {
		case KindInt64:
			if d.i < 0 {
				return NewUintDatum(0), errors.NewValueOverflowError(typeName+" UNSIGNED", d.String())
			}
			uval = uint64(d.i)
		case KindUint64:
			uval = uint64(d.i)
		case KindFloat32, KindFloat64:
			f := math.Round(d.f)
			if f < 0 {
				return NewUintDatum(0), errors.NewValueOverflowError(typeName+" UNSIGNED", d.String())
			}
			if f >= float64(math.MaxUint64) {
				return NewUintDatum(uupper), errors.NewValueOverflowError(typeName+" UNSIGNED", d.String())
			}
			uval = uint64(f)
		case KindBytes:
			f, truncated, err := parseFloatPrefix(d.GetString())
			if err != nil {
				return NewUintDatum(0), errors.NewDataTruncatedError()
			}
			if truncated {
				convErr = errors.NewDataTruncatedError()
			}
			f = math.Round(f)
			if f < 0 {
				return NewUintDatum(0), errors.NewValueOverflowError(typeName+" UNSIGNED", d.String())
			}
			uval = uint64(f)
		case KindDecimal:
			f, err := d.dec.ToFloat64()
			if err != nil {
				return NewUintDatum(0), errors.WithStack(err)
			}
			uval = uint64(math.Round(f))
		default:
			return NewNullDatum(), errors.NewTypeMismatchError(typeName, kindName(d.kind))
		}
		if uval > uupper {
			return NewUintDatum(uupper), errors.NewValueOverflowError(typeName+" UNSIGNED", d.String())
		}
		return NewUintDatum(uval), convErr
	}
	var val int64
	var convErr error
	switch d.kind {
	case KindInt64:
		val = d.i
	case KindUint64:
		u := uint64(d.i)
		if u > uint64(upper) {
			return NewIntDatum(upper), errors.NewValueOverflowError(typeName, d.String())
		}
		val = int64(u)
	case KindFloat32, KindFloat64:
		f := math.Round(d.f)
		if f < float64(lower) {
			return NewIntDatum(lower), errors.NewValueOverflowError(typeName, d.String())
		}
		if f > float64(upper) {
			return NewIntDatum(upper), errors.NewValueOverflowError(typeName, d.String())
		}
		val = int64(f)
	case KindBytes:
		f, truncated, err := parseFloatPrefix(d.GetString())
		if err != nil {
			return NewIntDatum(0), errors.NewDataTruncatedError()
		}
		if truncated {
			convErr = errors.NewDataTruncatedError()
		}
		f = math.Round(f)
		if f < float64(lower) {
			return NewIntDatum(lower), errors.NewValueOverflowError(typeName, d.String())
		}
		if f > float64(upper) {
			return NewIntDatum(upper), errors.NewValueOverflowError(typeName, d.String())
		}
		val = int64(f)
	case KindDecimal:
		f, err := d.dec.ToFloat64()
		if err != nil {
			return NewIntDatum(0), errors.WithStack(err)
		}
		val = int64(math.Round(f))
	default:
		return NewNullDatum(), errors.NewTypeMismatchError(typeName, kindName(d.kind))
	}
	if val < lower {
		return NewIntDatum(lower), errors.NewValueOverflowError(typeName, d.String())
	}
	if val > upper {
		return NewIntDatum(upper), errors.NewValueOverflowError(typeName, d.String())
	}
	return NewIntDatum(val), convErr
}

func (d Datum) convertToFloat(ct ColumnType) (Datum, error) {
	var f float64
	var convErr error
	switch d.kind {
	case KindInt64, KindUint64, KindFloat32, KindFloat64:
		f = d.toFloat64()
	case KindDecimal:
		var err error
		f, err = d.dec.ToFloat64()
		if err != nil {
			return NewNullDatum(), errors.WithStack(err)
		}
	case KindBytes:
		var truncated bool
		var err error
		f, truncated, err = parseFloatPrefix(d.GetString())
		if err != nil {
			return NewFloat64Datum(0), errors.NewDataTruncatedError()
		}
		if truncated {
			convErr = errors.NewDataTruncatedError()
		}
	default:
		return NewNullDatum(), errors.NewTypeMismatchError(strings.ToUpper(types.TypeStr(ct.Tp)), kindName(d.kind))
	}
	if ct.Tp == mysql.TypeFloat {
		if f > math.MaxFloat32 {
			return NewFloat32Datum(math.MaxFloat32), errors.NewValueOverflowError("FLOAT", d.String())
		}
		if f < -math.MaxFloat32 {
			return NewFloat32Datum(-math.MaxFloat32), errors.NewValueOverflowError("FLOAT", d.String())
		}
		return NewFloat32Datum(float32(f)), convErr
	}
	return NewFloat64Datum(f), convErr
}

func (d Datum) convertToDecimal(ct ColumnType) (Datum, error) {
	var dec *Decimal
	var convErr error
	switch d.kind {
	case KindInt64, KindUint64, KindFloat32, KindFloat64, KindDecimal:
		dec = d.toDecimal()
	case KindBytes:
		prefix, truncated := numericPrefix(d.GetString())
		if truncated {
			convErr = errors.NewDataTruncatedError()
		}
		var err error
		dec, err = NewDecFromString(prefix)
		if err != nil {
			return NewDecimalDatum(ZeroDecimal()), errors.NewDataTruncatedError()
		}
	default:
		return NewNullDatum(), errors.NewTypeMismatchError("DECIMAL", kindName(d.kind))
	}
	if ct.Decimal >= 0 {
		rounded, err := dec.Round(ct.Decimal)
		if err != nil {
			return NewDecimalDatum(dec), errors.WithStack(err)
		}
		dec = rounded
	}
	return NewDecimalDatum(dec), convErr
}

func (d Datum) convertToBytes(ct ColumnType) (Datum, error) {
	var b []byte
	switch d.kind {
	case KindBytes:
		b = d.b
	default:
		b = []byte(d.String())
	}
	if ct.Flen >= 0 && len(b) > ct.Flen {
		return NewBytesDatum(b[:ct.Flen]), errors.NewDataTruncatedError()
	}
	return NewBytesDatum(b), nil
}

func (d Datum) convertToTimestamp(ct ColumnType) (Datum, error) {
	switch d.kind {
	case KindTimestamp:
		return d, nil
	case KindBytes:
		ts, err := NewTimestampFromString(d.GetString())
		if err != nil {
			return NewNullDatum(), errors.NewDataTruncatedError()
		}
		return NewTimestampDatum(ts), nil
	default:
		return NewNullDatum(), errors.NewTypeMismatchError("TIMESTAMP", kindName(d.kind))
	}
}

func signedBounds(tp byte) (int64, int64) {
	switch tp {
	case mysql.TypeTiny:
		return math.MinInt8, math.MaxInt8
	case mysql.TypeShort:
		return math.MinInt16, math.MaxInt16
	case mysql.TypeInt24:
		return -1 << 23, 1<<23 - 1
	case mysql.TypeLong:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func unsignedBound(tp byte) uint64 {
	switch tp {
	case mysql.TypeTiny:
		return math.MaxUint8
	case mysql.TypeShort:
		return math.MaxUint16
	case mysql.TypeInt24:
		return 1<<24 - 1
	case mysql.TypeLong:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

// parseFloatPrefix parses the leading numeric portion of s. truncated is set when s carried
// trailing non numeric content, err when there is no numeric prefix at all.
func parseFloatPrefix(s string) (val float64, truncated bool, err error) {
	prefix, truncated := numericPrefix(s)
	if prefix == "" || prefix == "-" || prefix == "+" || prefix == "." {
		return 0, false, errors.Errorf("no valid numeric prefix in %q", s)
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		// a dangling exponent like "1e" or "1e+" - drop it and retry
		cut := strings.TrimRight(prefix, "+-")
		cut = strings.TrimRight(cut, "eE")
		f, err = strconv.ParseFloat(cut, 64)
		if err != nil {
			return 0, false, errors.WithStack(err)
		}
		return f, true, nil
	}
	return f, truncated, nil
}

func numericPrefix(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	sawDot := false
	sawDigit := false
	sawExp := false
	end := 0
loop:
	for i, r := range trimmed {
		switch {
		case r == '+' || r == '-':
			if i != 0 && !(sawExp && (trimmed[i-1] == 'e' || trimmed[i-1] == 'E')) {
				break loop
			}
		case r == '.':
			if sawDot || sawExp {
				break loop
			}
			sawDot = true
		case r == 'e' || r == 'E':
			if sawExp || !sawDigit {
				break loop
			}
			sawExp = true
		case r >= '0' && r <= '9':
			sawDigit = true
		default:
			break loop
		}
		end = i + 1
	}
	prefix := trimmed[:end]
	return prefix, end != len(trimmed)
}
