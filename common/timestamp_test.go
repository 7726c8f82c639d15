package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimestampPackedUintRoundTrip(t *testing.T) {
	packedRoundTrip(t, "2021-06-14 12:34:56.789123")
	packedRoundTrip(t, "2021-06-14 12:34:56")
	packedRoundTrip(t, "2021-06-14")
	packedRoundTrip(t, "1970-01-01 00:00:00")
	packedRoundTrip(t, "9999-12-31 23:59:59.999999")
}

func packedRoundTrip(t *testing.T, s string) {
	t.Helper()
	ts, err := NewTimestampFromString(s)
	require.Nil(t, err)
	packed, err := ts.ToPackedUint()
	require.Nil(t, err)
	var decoded Timestamp
	require.Nil(t, decoded.FromPackedUint(packed))
	require.Equal(t, 0, ts.CompareTo(decoded))
	require.True(t, ts.GoTime().Equal(decoded.GoTime()))
}

func TestTimestampPackedUintPreservesOrder(t *testing.T) {
	earlier, err := NewTimestampFromString("2021-06-14 12:34:56")
	require.Nil(t, err)
	later, err := NewTimestampFromString("2021-06-14 12:34:57")
	require.Nil(t, err)
	p1, err := earlier.ToPackedUint()
	require.Nil(t, err)
	p2, err := later.ToPackedUint()
	require.Nil(t, err)
	require.True(t, p1 < p2)
}

func TestTimestampFromPackedUintRejectsGarbage(t *testing.T) {
	// a year/month field that is an exact multiple of 13 decodes to month zero
	var ts Timestamp
	require.NotNil(t, ts.FromPackedUint(uint64(13<<5|1)<<41))
}

func TestTimestampStringHonoursFsp(t *testing.T) {
	goTime := time.Date(2021, 6, 14, 12, 34, 56, 789000000, time.UTC)
	ts := NewTimestamp(goTime, 3)
	require.Equal(t, "2021-06-14 12:34:56.789", ts.String())
	ts.SetFsp(0)
	require.Equal(t, "2021-06-14 12:34:56", ts.String())
}

func TestTimestampParseRejectsGarbage(t *testing.T) {
	_, err := NewTimestampFromString("garbage")
	require.NotNil(t, err)
}
