package exec

import (
	"github.com/quarrydb/quarry/common"
)

// LimitExec passes through the first n rows. A limit of zero never pulls the child.
type LimitExec struct {
	child     Executor
	remaining uint64
}

var _ Executor = &LimitExec{}

func NewLimitExec(child Executor, limit uint64) *LimitExec {
	return &LimitExec{child: child, remaining: limit}
}

func (e *LimitExec) Schema() []*common.ColumnInfo {
	return e.child.Schema()
}

func (e *LimitExec) Next() (*ScanRow, error) {
	if e.remaining == 0 {
		return nil, nil
	}
	row, err := e.child.Next()
	if err != nil {
		return nil, err
	}
	if row == nil {
		e.remaining = 0
		return nil, nil
	}
	e.remaining--
	return row, nil
}

func (e *LimitExec) CollectStatistics(dest *Statistics) {
	if sc, ok := e.child.(StatisticsCollector); ok {
		sc.CollectStatistics(dest)
	}
}

func (e *LimitExec) Close() error {
	return e.child.Close()
}
