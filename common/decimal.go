package common

import (
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"github.com/quarrydb/quarry/errors"
)

// decContext is shared by all decimal arithmetic. 65 digits matches the widest DECIMAL
// precision we accept in column definitions.
var decContext = apd.BaseContext.WithPrecision(65)

type Decimal struct {
	decimal *apd.Decimal
}

func ZeroDecimal() *Decimal {
	return &Decimal{decimal: &apd.Decimal{}}
}

func NewDecimal(dec *apd.Decimal) *Decimal {
	return &Decimal{decimal: dec}
}

func NewDecFromString(s string) (*Decimal, error) {
	dec, _, err := new(apd.Decimal).SetString(s)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Decimal{decimal: dec}, nil
}

func NewDecFromFloat64(f float64) (*Decimal, error) {
	dec, err := new(apd.Decimal).SetFloat64(f)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Decimal{decimal: dec}, nil
}

func NewDecFromInt64(i int64) *Decimal {
	return &Decimal{decimal: new(apd.Decimal).SetInt64(i)}
}

func NewDecFromUint64(u uint64) *Decimal {
	// Round trip via the string form - SetInt64 would overflow for the top half of the range
	dec, _, err := new(apd.Decimal).SetString(strconv.FormatUint(u, 10))
	if err != nil {
		panic(err)
	}
	return &Decimal{decimal: dec}
}

func (d *Decimal) CompareTo(dec *Decimal) int {
	return d.decimal.Cmp(dec.decimal)
}

func (d *Decimal) Add(other *Decimal) (*Decimal, error) {
	result := &apd.Decimal{}
	if _, err := decContext.Add(result, d.decimal, other.decimal); err != nil {
		return nil, errors.WithStack(err)
	}
	return NewDecimal(result), nil
}

func (d *Decimal) Subtract(other *Decimal) (*Decimal, error) {
	result := &apd.Decimal{}
	if _, err := decContext.Sub(result, d.decimal, other.decimal); err != nil {
		return nil, errors.WithStack(err)
	}
	return NewDecimal(result), nil
}

// Round returns the value quantized to scale fractional digits, half up like MySQL.
func (d *Decimal) Round(scale int) (*Decimal, error) {
	result := &apd.Decimal{}
	if _, err := decContext.Quantize(result, d.decimal, int32(-scale)); err != nil {
		return nil, errors.WithStack(err)
	}
	return NewDecimal(result), nil
}

func (d *Decimal) ToFloat64() (float64, error) {
	f, err := d.decimal.Float64()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return f, nil
}

// Encode appends the decimal to the buffer in its storage form. Values are quantized to the
// declared scale first so equal logical values encode identically. A scale of -1 means the
// column did not declare one.
func (d *Decimal) Encode(buffer []byte, precision int, scale int) ([]byte, error) {
	dec := d
	if scale >= 0 {
		var err error
		dec, err = d.Round(scale)
		if err != nil {
			return nil, err
		}
	}
	return AppendStringToBufferLE(buffer, dec.String()), nil
}

func (d *Decimal) Decode(buffer []byte, offset int) (int, error) {
	s, offset := ReadStringFromBufferLE(buffer, offset)
	dec, _, err := new(apd.Decimal).SetString(s)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	d.decimal = dec
	return offset, nil
}

func ReadDecimalFromBuffer(buffer []byte, offset int) (val *Decimal, off int, err error) {
	dec := ZeroDecimal()
	offset, err = dec.Decode(buffer, offset)
	if err != nil {
		return nil, 0, err
	}
	return dec, offset, nil
}

func (d *Decimal) String() string {
	return d.decimal.Text('f')
}
