package dag

import (
	"time"

	"github.com/quarrydb/quarry/cache"
	"github.com/quarrydb/quarry/errors"
	"github.com/quarrydb/quarry/plan"
)

// Request is one pushed down read. The plan arrives already decoded - transport is the
// caller's business. A zero Deadline means the engine applies the configured request
// timeout. A zero BatchRowLimit means the configured default.
type Request struct {
	RegionID      uint64
	Ranges        []plan.KeyRange
	Plan          *plan.Plan
	CacheEnabled  bool
	BatchRowLimit int
	Deadline      time.Time
}

// RequestContext tracks the freshness of an in flight request. The executor loops call
// CheckIfOutdated between pulls so a long scan notices a missed deadline or a write landing
// on the region without running to the end first.
type RequestContext struct {
	regionID        uint64
	deadline        time.Time
	snapshotVersion uint64
	versions        cache.RegionVersionSource
}

func NewRequestContext(regionID uint64, deadline time.Time, snapshotVersion uint64,
	versions cache.RegionVersionSource) *RequestContext {
	return &RequestContext{
		regionID:        regionID,
		deadline:        deadline,
		snapshotVersion: snapshotVersion,
		versions:        versions,
	}
}

func (c *RequestContext) CheckIfOutdated() error {
	if time.Now().After(c.deadline) {
		return errors.NewRequestOutdatedError()
	}
	if current := c.versions.RegionVersion(c.regionID); current != c.snapshotVersion {
		return errors.NewRegionStaleError(c.regionID, c.snapshotVersion, current)
	}
	return nil
}
