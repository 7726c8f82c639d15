package aggfuncs

import (
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

// COUNT
// =====

type CountAggregateFunction struct {
	aggregateFunctionBase
}

func (c *CountAggregateFunction) Eval(value common.Datum, aggState *AggState, index int) error {
	if value.IsNull() {
		return nil
	}
	if !aggState.IsSet(index) {
		aggState.Set(index, common.NewIntDatum(1))
		return nil
	}
	aggState.Set(index, common.NewIntDatum(aggState.Get(index).GetInt64()+1))
	return nil
}

func (c *CountAggregateFunction) Finish(aggState *AggState, index int) (common.Datum, error) {
	if !aggState.IsSet(index) {
		return common.NewIntDatum(0), nil
	}
	return aggState.Get(index), nil
}

// SUM
// ===

type SumAggregateFunction struct {
	aggregateFunctionBase
}

func (s *SumAggregateFunction) Eval(value common.Datum, aggState *AggState, index int) error {
	if value.IsNull() {
		return nil
	}
	if !aggState.IsSet(index) {
		return s.evalFirst(value, aggState, index)
	}
	curr := aggState.Get(index)
	switch value.Kind() {
	case common.KindInt64:
		res, err := common.AddInt64(curr.GetInt64(), value.GetInt64())
		if err != nil {
			return err
		}
		aggState.Set(index, common.NewIntDatum(res))
	case common.KindUint64:
		res, err := common.AddUint64(curr.GetUint64(), value.GetUint64())
		if err != nil {
			return err
		}
		aggState.Set(index, common.NewUintDatum(res))
	case common.KindFloat32:
		aggState.Set(index, common.NewFloat64Datum(curr.GetFloat64()+float64(value.GetFloat32())))
	case common.KindFloat64:
		aggState.Set(index, common.NewFloat64Datum(curr.GetFloat64()+value.GetFloat64()))
	case common.KindDecimal:
		res, err := curr.GetDecimal().Add(value.GetDecimal())
		if err != nil {
			return err
		}
		aggState.Set(index, common.NewDecimalDatum(res))
	default:
		return errors.NewTypeMismatchError("numeric", value.Kind().String())
	}
	return nil
}

// evalFirst seeds the accumulator. Float32 widens to float64 straight away so later adds
// work on one kind.
func (s *SumAggregateFunction) evalFirst(value common.Datum, aggState *AggState, index int) error {
	switch value.Kind() {
	case common.KindInt64, common.KindUint64, common.KindFloat64, common.KindDecimal:
		aggState.Set(index, value)
	case common.KindFloat32:
		aggState.Set(index, common.NewFloat64Datum(float64(value.GetFloat32())))
	default:
		return errors.NewTypeMismatchError("numeric", value.Kind().String())
	}
	return nil
}

func (s *SumAggregateFunction) Finish(aggState *AggState, index int) (common.Datum, error) {
	if !aggState.IsSet(index) {
		return common.NewNullDatum(), nil
	}
	return aggState.Get(index), nil
}

// MIN
// ===

type MinAggregateFunction struct {
	aggregateFunctionBase
}

func (m *MinAggregateFunction) Eval(value common.Datum, aggState *AggState, index int) error {
	if value.IsNull() {
		return nil
	}
	if !aggState.IsSet(index) {
		aggState.Set(index, value)
		return nil
	}
	cmp, err := value.Compare(aggState.Get(index))
	if err != nil {
		return err
	}
	if cmp < 0 {
		aggState.Set(index, value)
	}
	return nil
}

func (m *MinAggregateFunction) Finish(aggState *AggState, index int) (common.Datum, error) {
	if !aggState.IsSet(index) {
		return common.NewNullDatum(), nil
	}
	return aggState.Get(index), nil
}

// MAX
// ===

type MaxAggregateFunction struct {
	aggregateFunctionBase
}

func (m *MaxAggregateFunction) Eval(value common.Datum, aggState *AggState, index int) error {
	if value.IsNull() {
		return nil
	}
	if !aggState.IsSet(index) {
		aggState.Set(index, value)
		return nil
	}
	cmp, err := value.Compare(aggState.Get(index))
	if err != nil {
		return err
	}
	if cmp > 0 {
		aggState.Set(index, value)
	}
	return nil
}

func (m *MaxAggregateFunction) Finish(aggState *AggState, index int) (common.Datum, error) {
	if !aggState.IsSet(index) {
		return common.NewNullDatum(), nil
	}
	return aggState.Get(index), nil
}

// FIRSTROW
// ========

type FirstRowAggregateFunction struct {
	aggregateFunctionBase
}

func (f *FirstRowAggregateFunction) Eval(value common.Datum, aggState *AggState, index int) error {
	if aggState.IsSet(index) {
		return nil
	}
	aggState.Set(index, value)
	return nil
}

func (f *FirstRowAggregateFunction) Finish(aggState *AggState, index int) (common.Datum, error) {
	if !aggState.IsSet(index) {
		return common.NewNullDatum(), nil
	}
	return aggState.Get(index), nil
}
