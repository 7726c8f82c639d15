package aggfuncs

import (
	"github.com/quarrydb/quarry/common"
)

// AggState holds the accumulator slots for one group, one slot per aggregate function.
// A slot that was never set is distinct from a slot holding null - FIRSTROW over a null
// leading value sets its slot to null.
type AggState struct {
	datums []common.Datum
	set    []bool
}

func NewAggState(size int) *AggState {
	return &AggState{
		datums: make([]common.Datum, size),
		set:    make([]bool, size),
	}
}

func (as *AggState) Set(index int, val common.Datum) {
	as.datums[index] = val
	as.set[index] = true
}

func (as *AggState) Get(index int) common.Datum {
	return as.datums[index]
}

func (as *AggState) IsSet(index int) bool {
	return as.set[index]
}

func (as *AggState) Size() int {
	return len(as.datums)
}
