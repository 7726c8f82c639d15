package common

import (
	"fmt"
	"time"

	"github.com/quarrydb/quarry/errors"
)

// Timestamp is a calendar timestamp with fractional second precision. Values are stored and
// compared in UTC.
type Timestamp struct {
	t   time.Time
	fsp int8
}

func NewTimestamp(t time.Time, fsp int8) Timestamp {
	return Timestamp{t: t.UTC(), fsp: fsp}
}

func NewTimestampFromString(s string) (Timestamp, error) {
	formats := []string{"2006-01-02 15:04:05.999999", "2006-01-02 15:04:05", "2006-01-02"}
	for _, format := range formats {
		t, err := time.ParseInLocation(format, s, time.UTC)
		if err == nil {
			return Timestamp{t: t, fsp: 6}, nil
		}
	}
	return Timestamp{}, errors.Errorf("cannot parse timestamp %s", s)
}

func (ts Timestamp) GoTime() time.Time {
	return ts.t
}

func (ts Timestamp) Fsp() int8 {
	return ts.fsp
}

func (ts *Timestamp) SetFsp(fsp int8) {
	ts.fsp = fsp
}

func (ts Timestamp) CompareTo(other Timestamp) int {
	if ts.t.Before(other.t) {
		return -1
	}
	if ts.t.After(other.t) {
		return 1
	}
	return 0
}

// ToPackedUint packs the timestamp into a uint64 which sorts numerically in time order:
// (((year*13+month)<<5 | day) << 17 | hour<<12 | minute<<6 | second) << 24 | microsecond
func (ts Timestamp) ToPackedUint() (uint64, error) {
	t := ts.t
	year, month, day := t.Date()
	if year < 0 || year > 9999 {
		return 0, errors.Errorf("year %d out of range for packed timestamp", year)
	}
	ymd := uint64(year*13+int(month))<<5 | uint64(day)
	hms := uint64(t.Hour())<<12 | uint64(t.Minute())<<6 | uint64(t.Second())
	micro := uint64(t.Nanosecond() / 1000)
	return ((ymd<<17 | hms) << 24) | micro, nil
}

func (ts *Timestamp) FromPackedUint(packed uint64) error {
	micro := packed & ((1 << 24) - 1)
	hms := (packed >> 24) & ((1 << 17) - 1)
	ymd := packed >> 41
	day := int(ymd & 31)
	yearMonth := int(ymd >> 5)
	year, month := yearMonth/13, yearMonth%13
	hour := int(hms >> 12)
	minute := int((hms >> 6) & 63)
	second := int(hms & 63)
	if month < 1 || month > 12 {
		return errors.Errorf("invalid packed timestamp %d", packed)
	}
	ts.t = time.Date(year, time.Month(month), day, hour, minute, second, int(micro)*1000, time.UTC)
	return nil
}

func (ts Timestamp) String() string {
	base := ts.t.Format("2006-01-02 15:04:05")
	if ts.fsp <= 0 {
		return base
	}
	micro := ts.t.Nanosecond() / 1000
	frac := fmt.Sprintf("%06d", micro)
	return base + "." + frac[:ts.fsp]
}
