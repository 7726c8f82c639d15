package common

import (
	"time"

	"github.com/quarrydb/quarry/errors"
)

// Datum wire format: a flag byte followed by a flag specific payload. This is the unit of
// both the storage row value and the serialized output row.
const (
	NilFlag       byte = 0
	IntFlag       byte = 1
	UintFlag      byte = 2
	Float32Flag   byte = 3
	FloatFlag     byte = 4
	BytesFlag     byte = 5
	DecimalFlag   byte = 6
	TimestampFlag byte = 7
	DurationFlag  byte = 8
	JSONFlag      byte = 9
)

func EncodeDatum(buffer []byte, d Datum) ([]byte, error) {
	switch d.kind {
	case KindNull:
		return append(buffer, NilFlag), nil
	case KindInt64:
		buffer = append(buffer, IntFlag)
		return AppendUint64ToBufferLE(buffer, uint64(d.i)), nil
	case KindUint64:
		buffer = append(buffer, UintFlag)
		return AppendUint64ToBufferLE(buffer, uint64(d.i)), nil
	case KindFloat32:
		buffer = append(buffer, Float32Flag)
		return AppendFloat32ToBufferLE(buffer, float32(d.f)), nil
	case KindFloat64:
		buffer = append(buffer, FloatFlag)
		return AppendFloat64ToBufferLE(buffer, d.f), nil
	case KindBytes:
		buffer = append(buffer, BytesFlag)
		return AppendBytesToBufferLE(buffer, d.b), nil
	case KindDecimal:
		buffer = append(buffer, DecimalFlag)
		return d.dec.Encode(buffer, -1, -1)
	case KindTimestamp:
		packed, err := d.ts.ToPackedUint()
		if err != nil {
			return nil, err
		}
		buffer = append(buffer, TimestampFlag)
		buffer = AppendUint64ToBufferLE(buffer, packed)
		return append(buffer, byte(d.ts.Fsp())), nil
	case KindDuration:
		buffer = append(buffer, DurationFlag)
		return AppendUint64ToBufferLE(buffer, uint64(d.i)), nil
	case KindJSON:
		buffer = append(buffer, JSONFlag)
		return AppendBytesToBufferLE(buffer, d.b), nil
	default:
		return nil, errors.Errorf("cannot encode datum of kind %d", d.kind)
	}
}

func DecodeDatum(buffer []byte, offset int) (Datum, int, error) {
	if offset >= len(buffer) {
		return Datum{}, 0, errors.Errorf("datum decode past end of buffer at offset %d", offset)
	}
	flag := buffer[offset]
	offset++
	switch flag {
	case NilFlag:
		return NewNullDatum(), offset, nil
	case IntFlag:
		u, offset := ReadUint64FromBufferLE(buffer, offset)
		return NewIntDatum(int64(u)), offset, nil
	case UintFlag:
		u, offset := ReadUint64FromBufferLE(buffer, offset)
		return NewUintDatum(u), offset, nil
	case Float32Flag:
		f, offset := ReadFloat32FromBufferLE(buffer, offset)
		return NewFloat32Datum(f), offset, nil
	case FloatFlag:
		f, offset := ReadFloat64FromBufferLE(buffer, offset)
		return NewFloat64Datum(f), offset, nil
	case BytesFlag:
		b, offset := ReadBytesFromBufferLE(buffer, offset)
		return NewBytesDatum(b), offset, nil
	case DecimalFlag:
		dec, offset, err := ReadDecimalFromBuffer(buffer, offset)
		if err != nil {
			return Datum{}, 0, err
		}
		return NewDecimalDatum(dec), offset, nil
	case TimestampFlag:
		packed, offset := ReadUint64FromBufferLE(buffer, offset)
		ts := Timestamp{}
		if err := ts.FromPackedUint(packed); err != nil {
			return Datum{}, 0, err
		}
		ts.SetFsp(int8(buffer[offset]))
		offset++
		return NewTimestampDatum(ts), offset, nil
	case DurationFlag:
		u, offset := ReadUint64FromBufferLE(buffer, offset)
		return NewDurationDatum(time.Duration(int64(u))), offset, nil
	case JSONFlag:
		b, offset := ReadBytesFromBufferLE(buffer, offset)
		return NewJSONDatum(JSON{raw: b}), offset, nil
	default:
		return Datum{}, 0, errors.Errorf("unknown datum flag %d at offset %d", flag, offset-1)
	}
}

// SkipDatum returns the offset just past the datum starting at offset, without materializing
// the value.
func SkipDatum(buffer []byte, offset int) (int, error) {
	if offset >= len(buffer) {
		return 0, errors.Errorf("datum skip past end of buffer at offset %d", offset)
	}
	flag := buffer[offset]
	offset++
	switch flag {
	case NilFlag:
		return offset, nil
	case IntFlag, UintFlag, FloatFlag, DurationFlag:
		return offset + 8, nil
	case Float32Flag:
		return offset + 4, nil
	case TimestampFlag:
		return offset + 9, nil
	case BytesFlag, DecimalFlag, JSONFlag:
		lu, offset := ReadUint32FromBufferLE(buffer, offset)
		return offset + int(lu), nil
	default:
		return 0, errors.Errorf("unknown datum flag %d at offset %d", flag, offset-1)
	}
}
