package exec

import (
	"container/heap"
	"fmt"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
	"github.com/quarrydb/quarry/plan"
)

// TopNExec keeps the n best rows in a bounded heap while consuming the child, then emits
// them in order. The heap holds the current worst row at the top so a better candidate can
// displace it in one pop and push. Ties break on handle so the output order is stable.
type TopNExec struct {
	child     Executor
	n         uint64
	heap      *topNHeap
	executed  bool
	sorted    []*topNRow
	emitIndex int
}

var _ Executor = &TopNExec{}

type topNRow struct {
	row      *ScanRow
	sortVals []common.Datum
}

func NewTopNExec(child Executor, desc *plan.TopNDesc) (*TopNExec, error) {
	orderBy := make([]orderCol, len(desc.OrderBy))
	for i, item := range desc.OrderBy {
		col := columnByID(child.Schema(), item.ColID)
		if col == nil {
			return nil, errors.NewInvalidPlanError(fmt.Sprintf("order by unknown column %d", item.ColID))
		}
		orderBy[i] = orderCol{col: col, desc: item.Desc}
	}
	return &TopNExec{
		child: child,
		n:     desc.N,
		heap:  &topNHeap{orderBy: orderBy},
	}, nil
}

type orderCol struct {
	col  *common.ColumnInfo
	desc bool
}

func (e *TopNExec) Schema() []*common.ColumnInfo {
	return e.child.Schema()
}

func (e *TopNExec) Next() (*ScanRow, error) {
	if !e.executed {
		if err := e.consumeChild(); err != nil {
			return nil, err
		}
		e.executed = true
	}
	if e.emitIndex >= len(e.sorted) {
		return nil, nil
	}
	row := e.sorted[e.emitIndex]
	e.emitIndex++
	return row.row, nil
}

func (e *TopNExec) consumeChild() error {
	if e.n == 0 {
		return nil
	}
	for {
		row, err := e.child.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		cand := &topNRow{row: row}
		cand.sortVals = make([]common.Datum, len(e.heap.orderBy))
		for i, by := range e.heap.orderBy {
			val, err := ColumnDatum(by.col, row.Handle, row.Data)
			if err != nil {
				return err
			}
			cand.sortVals[i] = val
		}
		if uint64(len(e.heap.rows)) < e.n {
			heap.Push(e.heap, cand)
		} else {
			cmp, err := e.heap.compare(cand, e.heap.rows[0])
			if err != nil {
				return err
			}
			if cmp < 0 {
				e.heap.rows[0] = cand
				heap.Fix(e.heap, 0)
			}
		}
		if e.heap.err != nil {
			return e.heap.err
		}
	}
	// Pop gives the worst kept row first, so fill the output backwards
	e.sorted = make([]*topNRow, len(e.heap.rows))
	for i := len(e.sorted) - 1; i >= 0; i-- {
		e.sorted[i] = heap.Pop(e.heap).(*topNRow)
	}
	return e.heap.err
}

func (e *TopNExec) CollectStatistics(dest *Statistics) {
	if sc, ok := e.child.(StatisticsCollector); ok {
		sc.CollectStatistics(dest)
	}
}

func (e *TopNExec) Close() error {
	e.sorted = nil
	return e.child.Close()
}

// topNHeap orders rows so the row that sorts last is at index 0. Less cannot return an
// error, so the first comparison failure is parked on err and checked after each heap
// operation.
type topNHeap struct {
	rows    []*topNRow
	orderBy []orderCol
	err     error
}

func (h *topNHeap) Len() int {
	return len(h.rows)
}

func (h *topNHeap) Less(i, j int) bool {
	cmp, err := h.compare(h.rows[i], h.rows[j])
	if err != nil {
		if h.err == nil {
			h.err = err
		}
		return false
	}
	return cmp > 0
}

func (h *topNHeap) Swap(i, j int) {
	h.rows[i], h.rows[j] = h.rows[j], h.rows[i]
}

func (h *topNHeap) Push(x interface{}) {
	h.rows = append(h.rows, x.(*topNRow))
}

func (h *topNHeap) Pop() interface{} {
	last := h.rows[len(h.rows)-1]
	h.rows = h.rows[:len(h.rows)-1]
	return last
}

// compare returns negative when a sorts before b. Null sorts first on ascending columns,
// last on descending ones.
func (h *topNHeap) compare(a *topNRow, b *topNRow) (int, error) {
	for i, by := range h.orderBy {
		cmp, err := a.sortVals[i].Compare(b.sortVals[i])
		if err != nil {
			return 0, err
		}
		if cmp == 0 {
			continue
		}
		if by.desc {
			return -cmp, nil
		}
		return cmp, nil
	}
	if a.row.Handle < b.row.Handle {
		return -1, nil
	}
	if a.row.Handle > b.row.Handle {
		return 1, nil
	}
	return 0, nil
}
