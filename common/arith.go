package common

import (
	"fmt"
	"math"

	"github.com/quarrydb/quarry/errors"
)

// AddInt64 adds two int64 values, returning an overflow error when the result cannot be
// represented.
func AddInt64(a int64, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, errors.NewValueOverflowError("BIGINT", fmt.Sprintf("(%d, %d)", a, b))
	}
	return a + b, nil
}

// AddUint64 adds two uint64 values, returning an overflow error when the result cannot be
// represented.
func AddUint64(a uint64, b uint64) (uint64, error) {
	if math.MaxUint64-a < b {
		return 0, errors.NewValueOverflowError("BIGINT UNSIGNED", fmt.Sprintf("(%d, %d)", a, b))
	}
	return a + b, nil
}
