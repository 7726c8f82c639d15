package aggfuncs

import (
	"github.com/pingcap/parser/mysql"
	"github.com/twmb/murmur3"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

type FuncType int

const (
	FuncTypeCount FuncType = iota
	FuncTypeSum
	FuncTypeMin
	FuncTypeMax
	FuncTypeFirstRow
)

func (t FuncType) String() string {
	switch t {
	case FuncTypeCount:
		return "count"
	case FuncTypeSum:
		return "sum"
	case FuncTypeMin:
		return "min"
	case FuncTypeMax:
		return "max"
	case FuncTypeFirstRow:
		return "firstrow"
	default:
		return "unknown"
	}
}

// AggregateFunction accumulates one column's values into a state slot. A single AggState
// holds the slots for all functions of one group, addressed by index.
type AggregateFunction interface {
	Eval(value common.Datum, aggState *AggState, index int) error
	// Finish produces the final value for the slot. An unset slot means the function never
	// saw a non null value - COUNT reports zero, everything else reports null.
	Finish(aggState *AggState, index int) (common.Datum, error)
	ValueType() common.ColumnType
}

type aggregateFunctionBase struct {
	argType   common.ColumnType
	valueType common.ColumnType
}

func (b *aggregateFunctionBase) ValueType() common.ColumnType {
	return b.valueType
}

func NewAggregateFunction(funcType FuncType, argType common.ColumnType) (AggregateFunction, error) {
	valueType, err := resultType(funcType, argType)
	if err != nil {
		return nil, err
	}
	base := aggregateFunctionBase{argType: argType, valueType: valueType}
	switch funcType {
	case FuncTypeCount:
		return &CountAggregateFunction{aggregateFunctionBase: base}, nil
	case FuncTypeSum:
		return &SumAggregateFunction{aggregateFunctionBase: base}, nil
	case FuncTypeMin:
		return &MinAggregateFunction{aggregateFunctionBase: base}, nil
	case FuncTypeMax:
		return &MaxAggregateFunction{aggregateFunctionBase: base}, nil
	case FuncTypeFirstRow:
		return &FirstRowAggregateFunction{aggregateFunctionBase: base}, nil
	default:
		return nil, errors.NewInvalidPlanError("unknown aggregate function")
	}
}

func resultType(funcType FuncType, argType common.ColumnType) (common.ColumnType, error) {
	switch funcType {
	case FuncTypeCount:
		return common.BigIntColumnType, nil
	case FuncTypeSum:
		switch argType.Tp {
		case mysql.TypeTiny, mysql.TypeShort, mysql.TypeInt24, mysql.TypeLong, mysql.TypeLonglong,
			mysql.TypeYear:
			if argType.Unsigned() {
				return common.BigIntColumnType.WithUnsigned(), nil
			}
			return common.BigIntColumnType, nil
		case mysql.TypeFloat, mysql.TypeDouble:
			return common.DoubleColumnType, nil
		case mysql.TypeNewDecimal:
			return argType, nil
		default:
			return common.ColumnType{}, errors.NewInvalidPlanError("sum over a non numeric column")
		}
	case FuncTypeMin, FuncTypeMax, FuncTypeFirstRow:
		return argType, nil
	default:
		return common.ColumnType{}, errors.NewInvalidPlanError("unknown aggregate function")
	}
}

// EncodeGroupKey appends the datum encoded group by values. Datum encoding is
// deterministic so equal groups always produce equal keys.
func EncodeGroupKey(buff []byte, groupByVals []common.Datum) ([]byte, error) {
	var err error
	for _, val := range groupByVals {
		buff, err = common.EncodeDatum(buff, val)
		if err != nil {
			return nil, err
		}
	}
	return buff, nil
}

func HashGroupKey(encodedKey []byte) uint64 {
	return murmur3.Sum64(encodedKey)
}
