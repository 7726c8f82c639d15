package execctx

import (
	"fmt"
	"time"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

// Eval flags mirror the statement context bits carried on a read request. They control what
// happens when a value does not fit the type it is converted to during execution.
const (
	FlagIgnoreTruncate    uint64 = 1
	FlagTruncateAsWarning uint64 = 1 << 1
	FlagInSelectStmt      uint64 = 1 << 5
	FlagOverflowAsWarning uint64 = 1 << 6
)

// DefaultMaxWarningCount bounds how many warnings are retained per request. Warnings past the
// cap are still counted, just not kept.
const DefaultMaxWarningCount = 64

const maxTZOffsetSecs = 24 * 60 * 60

// EvalConfig is the immutable per request evaluation configuration.
type EvalConfig struct {
	Flags           uint64
	TZ              *time.Location
	MaxWarningCount int
}

func NewEvalConfig(flags uint64, tzOffsetSecs int64) (*EvalConfig, error) {
	tz, err := TimeZoneFromOffset(tzOffsetSecs)
	if err != nil {
		return nil, err
	}
	return &EvalConfig{
		Flags:           flags,
		TZ:              tz,
		MaxWarningCount: DefaultMaxWarningCount,
	}, nil
}

func DefaultEvalConfig() *EvalConfig {
	return &EvalConfig{
		TZ:              time.UTC,
		MaxWarningCount: DefaultMaxWarningCount,
	}
}

// TimeZoneFromOffset resolves a UTC offset in seconds to a time zone. Offsets of a full day
// or more in either direction are rejected.
func TimeZoneFromOffset(offsetSecs int64) (*time.Location, error) {
	if offsetSecs <= -maxTZOffsetSecs || offsetSecs >= maxTZOffsetSecs {
		return nil, errors.NewInvalidTimeZoneError(offsetSecs)
	}
	if offsetSecs == 0 {
		return time.UTC, nil
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetSecs), int(offsetSecs)), nil
}

func (c *EvalConfig) IgnoreTruncate() bool {
	return c.Flags&FlagIgnoreTruncate != 0
}

func (c *EvalConfig) TruncateAsWarning() bool {
	return c.Flags&FlagTruncateAsWarning != 0
}

func (c *EvalConfig) InSelectStmt() bool {
	return c.Flags&FlagInSelectStmt != 0
}

func (c *EvalConfig) OverflowAsWarning() bool {
	return c.Flags&FlagOverflowAsWarning != 0
}

// EvalContext carries the mutable evaluation state for one request - the warnings accumulated
// so far. It is not safe for concurrent use, each request gets its own.
type EvalContext struct {
	config       *EvalConfig
	warnings     []errors.QuarryError
	warningCount uint64
}

func NewEvalContext(config *EvalConfig) *EvalContext {
	return &EvalContext{config: config}
}

func (c *EvalContext) Config() *EvalConfig {
	return c.config
}

// HandleTruncate decides what a truncation means under the current flags: ignored entirely,
// demoted to a warning, or returned to fail the request. Ignore takes precedence over the
// warning flag. Errors that are not truncations pass straight through.
func (c *EvalContext) HandleTruncate(err error) error {
	if err == nil {
		return nil
	}
	if !common.IsTruncateError(err) {
		return err
	}
	if c.config.IgnoreTruncate() {
		return nil
	}
	if c.config.TruncateAsWarning() {
		c.AppendWarning(err)
		return nil
	}
	return err
}

// HandleOverflow is the overflow counterpart of HandleTruncate. There is no ignore flag for
// overflow - it is either a warning or an error.
func (c *EvalContext) HandleOverflow(err error) error {
	if err == nil {
		return nil
	}
	if !common.IsOverflowError(err) {
		return err
	}
	if c.config.OverflowAsWarning() {
		c.AppendWarning(err)
		return nil
	}
	return err
}

// HandleConversion classifies a conversion error and routes it through the matching handler.
// Anything that is neither a truncation nor an overflow fails the request.
func (c *EvalContext) HandleConversion(err error) error {
	if err == nil {
		return nil
	}
	if common.IsTruncateError(err) {
		return c.HandleTruncate(err)
	}
	if common.IsOverflowError(err) {
		return c.HandleOverflow(err)
	}
	return err
}

// AppendWarning records a warning. Only the first MaxWarningCount are retained but the total
// is always exact.
func (c *EvalContext) AppendWarning(err error) {
	c.warningCount++
	if len(c.warnings) < c.config.MaxWarningCount {
		c.warnings = append(c.warnings, toQuarryError(err))
	}
}

// WarningCount returns the true number of warnings raised, including any that were dropped
// by the retention cap.
func (c *EvalContext) WarningCount() uint64 {
	return c.warningCount
}

func (c *EvalContext) Warnings() []errors.QuarryError {
	return c.warnings
}

// TakeWarnings hands the retained warnings and the true count to the caller and resets the
// context for reuse.
func (c *EvalContext) TakeWarnings() ([]errors.QuarryError, uint64) {
	warnings, count := c.warnings, c.warningCount
	c.warnings = nil
	c.warningCount = 0
	return warnings, count
}

func toQuarryError(err error) errors.QuarryError {
	var qerr errors.QuarryError
	if errors.As(err, &qerr) {
		return qerr
	}
	return errors.NewQuarryError(errors.Unknown, err.Error())
}
