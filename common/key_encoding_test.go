package common

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyEncodeInt64RoundTrip(t *testing.T) {
	for _, val := range []int64{math.MinInt64, -1000, -1, 0, 1, 1000, math.MaxInt64} {
		buffer := KeyEncodeInt64(nil, val)
		require.Equal(t, 8, len(buffer))
		decoded, offset := KeyDecodeInt64(buffer, 0)
		require.Equal(t, val, decoded)
		require.Equal(t, 8, offset)
	}
}

func TestKeyEncodeInt64PreservesOrder(t *testing.T) {
	// encoded keys must sort as byte strings in the same order as the values, otherwise
	// storage range scans would return rows out of handle order
	vals := []int64{math.MinInt64, -1000000, -1, 0, 1, 42, 1000000, math.MaxInt64}
	var prev []byte
	for i, val := range vals {
		buffer := KeyEncodeInt64(nil, val)
		if i > 0 {
			require.Equal(t, -1, bytes.Compare(prev, buffer))
		}
		prev = buffer
	}
}

func TestKeyEncodeUint64PreservesOrder(t *testing.T) {
	vals := []uint64{0, 1, 42, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64}
	var prev []byte
	for i, val := range vals {
		buffer := KeyEncodeUint64(nil, val)
		decoded, _ := KeyDecodeUint64(buffer, 0)
		require.Equal(t, val, decoded)
		if i > 0 {
			require.Equal(t, -1, bytes.Compare(prev, buffer))
		}
		prev = buffer
	}
}
