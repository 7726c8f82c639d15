package plan

import (
	"github.com/quarrydb/quarry/aggfuncs"
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

// ExecType identifies an executor in the chain.
type ExecType byte

const (
	TypeTableScan ExecType = iota
	TypeSelection
	TypeAggregation
	TypeTopN
	TypeLimit
)

func (t ExecType) String() string {
	switch t {
	case TypeTableScan:
		return "table_scan"
	case TypeSelection:
		return "selection"
	case TypeAggregation:
		return "aggregation"
	case TypeTopN:
		return "top_n"
	case TypeLimit:
		return "limit"
	default:
		return "unknown"
	}
}

// Plan is a pushed down executor chain. It arrives as structs - decoding a wire format is the
// transport's business, not ours.
type Plan struct {
	Executors []Executor
	// OutputOffsets selects and orders the scan columns that make up an output row. Ignored
	// for aggregation output, which has its own shape (group by columns then agg results).
	OutputOffsets []uint32
	// Flags carries the execctx eval flag bits.
	Flags        uint64
	TZOffsetSecs int64
}

// Executor is one link of the chain: the Tp tag says which descriptor is set.
type Executor struct {
	Tp          ExecType
	TableScan   *TableScanDesc
	Selection   *SelectionDesc
	Aggregation *AggregationDesc
	TopN        *TopNDesc
	Limit       *LimitDesc
}

type TableScanDesc struct {
	Table *common.TableInfo
	Desc  bool
}

type CondOp byte

const (
	OpEQ CondOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpIsNull
	OpNotNull
)

// Condition is a column-op-constant predicate. The constant is bound to the column's type at
// build time.
type Condition struct {
	ColID int64
	Op    CondOp
	Value common.Datum
}

type SelectionDesc struct {
	Conditions []Condition
}

type AggFuncDesc struct {
	Func aggfuncs.FuncType
	// ColID is the argument column. A negative ColID on COUNT means count rows regardless
	// of nulls, as COUNT(*) does.
	ColID int64
}

type AggregationDesc struct {
	GroupByColIDs []int64
	AggFuncs      []AggFuncDesc
}

type ByItem struct {
	ColID int64
	Desc  bool
}

type TopNDesc struct {
	OrderBy []ByItem
	N       uint64
}

type LimitDesc struct {
	Limit uint64
}

// KeyRange is a half open [Start, End) scan range.
type KeyRange struct {
	Start []byte
	End   []byte
}

func (p *Plan) HasAggregation() bool {
	for _, e := range p.Executors {
		if e.Tp == TypeAggregation {
			return true
		}
	}
	return false
}

func (p *Plan) HasTopN() bool {
	for _, e := range p.Executors {
		if e.Tp == TypeTopN {
			return true
		}
	}
	return false
}

// Batchable reports whether the chain can run on the batch executors - plain forward
// scan/selection/limit chains can. Aggregation, top-N and descending scans run on the
// row chain.
func (p *Plan) Batchable() bool {
	if p.HasAggregation() || p.HasTopN() {
		return false
	}
	for _, e := range p.Executors {
		if e.Tp == TypeTableScan && e.TableScan != nil && e.TableScan.Desc {
			return false
		}
	}
	return true
}

// Validate checks the chain shape: exactly one table scan at the head, descriptors matching
// their tags, executors in scan - selection - aggregation/top-N - limit order, at most one
// of aggregation/top-N and at most one limit.
func (p *Plan) Validate() error {
	if len(p.Executors) == 0 {
		return errors.NewInvalidPlanError("no executors")
	}
	if p.Executors[0].Tp != TypeTableScan {
		return errors.NewInvalidPlanError("first executor must be a table scan")
	}
	seenAggOrTopN := false
	seenLimit := false
	lastStage := 0
	for i, e := range p.Executors {
		if err := e.validateDescriptor(); err != nil {
			return err
		}
		if i > 0 && e.Tp == TypeTableScan {
			return errors.NewInvalidPlanError("more than one table scan")
		}
		stage := executorStage(e.Tp)
		if stage < lastStage {
			return errors.NewInvalidPlanError("executor " + e.Tp.String() + " out of order")
		}
		lastStage = stage
		switch e.Tp {
		case TypeAggregation, TypeTopN:
			if seenAggOrTopN {
				return errors.NewInvalidPlanError("more than one aggregation or top-n")
			}
			seenAggOrTopN = true
		case TypeLimit:
			if seenLimit {
				return errors.NewInvalidPlanError("more than one limit")
			}
			seenLimit = true
		}
	}
	return nil
}

func executorStage(tp ExecType) int {
	switch tp {
	case TypeTableScan:
		return 0
	case TypeSelection:
		return 1
	case TypeAggregation, TypeTopN:
		return 2
	default:
		return 3
	}
}

func (e *Executor) validateDescriptor() error {
	switch e.Tp {
	case TypeTableScan:
		if e.TableScan == nil || e.TableScan.Table == nil {
			return errors.NewInvalidPlanError("table scan without a table")
		}
	case TypeSelection:
		if e.Selection == nil {
			return errors.NewInvalidPlanError("selection without conditions descriptor")
		}
	case TypeAggregation:
		if e.Aggregation == nil {
			return errors.NewInvalidPlanError("aggregation without descriptor")
		}
		if len(e.Aggregation.AggFuncs) == 0 {
			return errors.NewInvalidPlanError("aggregation with no functions")
		}
	case TypeTopN:
		if e.TopN == nil {
			return errors.NewInvalidPlanError("top-n without descriptor")
		}
		if len(e.TopN.OrderBy) == 0 {
			return errors.NewInvalidPlanError("top-n with no order by")
		}
	case TypeLimit:
		if e.Limit == nil {
			return errors.NewInvalidPlanError("limit without descriptor")
		}
	default:
		return errors.NewInvalidPlanError("unknown executor type")
	}
	return nil
}
