package errors

import (
	"fmt"
)

type ErrorCode int

const (
	InternalError = iota
	InvalidConfiguration
	InvalidPlan
	InvalidTimeZone
	DataTruncated
	ValueOverflow
	ValueOutOfRange
	TypeMismatch
	MissingColumn
	RequestOutdated
	RegionStale
	RegionNotFound
	SnapshotFailed
	TableAlreadyExists
	UnknownTable
	UnknownType
	Unknown
)

func NewInternalError(seq int64) QuarryError {
	return NewQuarryErrorf(InternalError, "Internal error - sequence %d please consult server logs for details", seq)
}

func NewInvalidConfigurationError(msg string) QuarryError {
	return NewQuarryErrorf(InvalidConfiguration, "Invalid configuration: %s", msg)
}

func NewInvalidPlanError(msg string) QuarryError {
	return NewQuarryErrorf(InvalidPlan, "Invalid plan: %s", msg)
}

func NewInvalidTimeZoneError(offsetSecs int64) QuarryError {
	return NewQuarryErrorf(InvalidTimeZone, "Unknown or incorrect time zone offset: %d", offsetSecs)
}

// NewDataTruncatedError returns the canonical truncation error. The message is
// part of the response contract and must not change.
func NewDataTruncatedError() QuarryError {
	return QuarryError{Code: DataTruncated, Msg: "[1265] Data Truncated"}
}

func NewValueOverflowError(what string, value string) QuarryError {
	return NewQuarryErrorf(ValueOverflow, "%s value is out of range in '%s'", what, value)
}

func NewValueOutOfRangeError(msg string) QuarryError {
	return NewQuarryErrorf(ValueOutOfRange, "Value out of range. %s", msg)
}

func NewTypeMismatchError(expected string, got string) QuarryError {
	return NewQuarryErrorf(TypeMismatch, "Type mismatch: expected %s got %s", expected, got)
}

func NewMissingColumnError(colID int64) QuarryError {
	return NewQuarryErrorf(MissingColumn, "Column %d has no stored value, no default and is not nullable", colID)
}

func NewRequestOutdatedError() QuarryError {
	return NewQuarryErrorf(RequestOutdated, "Request outdated, deadline exceeded")
}

func NewRegionStaleError(regionID uint64, snapshotVersion uint64, currentVersion uint64) QuarryError {
	return NewQuarryErrorf(RegionStale, "Region %d changed during scan: version %d now %d", regionID, snapshotVersion, currentVersion)
}

func NewRegionNotFoundError(regionID uint64) QuarryError {
	return NewQuarryErrorf(RegionNotFound, "Region %d not found on this store", regionID)
}

func NewSnapshotFailedError(regionID uint64, cause error) QuarryError {
	return NewQuarryErrorf(SnapshotFailed, "Failed to create snapshot for region %d: %v", regionID, cause)
}

func NewTableAlreadyExistsError(name string) QuarryError {
	return NewQuarryErrorf(TableAlreadyExists, "Table with name %s already exists", name)
}

func NewUnknownTableError(name string) QuarryError {
	return NewQuarryErrorf(UnknownTable, "Unknown table: %s", name)
}

func NewUnknownTypeError(tp byte) QuarryError {
	return NewQuarryErrorf(UnknownType, "Unknown column type %d", tp)
}

func NewQuarryErrorf(errorCode ErrorCode, msgFormat string, args ...interface{}) QuarryError {
	msg := fmt.Sprintf(fmt.Sprintf("QRY%04d - %s", errorCode, msgFormat), args...)
	return QuarryError{Code: errorCode, Msg: msg}
}

func NewQuarryError(errorCode ErrorCode, msg string) QuarryError {
	return QuarryError{Code: errorCode, Msg: msg}
}

func Error(msg string) error {
	return New(msg)
}

// QuarryError is any kind of error that is exposed to the user via external interfaces - it
// carries a code so callers can classify it without string matching, and it is what gets
// serialized into a response when execution fails but the transport call itself succeeds.
type QuarryError struct {
	Code ErrorCode
	Msg  string
}

func (u QuarryError) Error() string {
	return u.Msg
}
