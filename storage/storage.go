package storage

import (
	"bytes"
	"sync"
)

type KVPair struct {
	Key   []byte
	Value []byte
}

// Region is a contiguous key range served by this store. The EndKey is exclusive, nil means
// unbounded. Regions carry a version which the provider bumps on every write batch applied to
// the region - snapshots and cached results use it to detect that they have gone stale.
type Region struct {
	ID       uint64
	StartKey []byte
	EndKey   []byte
}

func (r Region) Contains(key []byte) bool {
	if bytes.Compare(key, r.StartKey) < 0 {
		return false
	}
	return r.EndKey == nil || bytes.Compare(key, r.EndKey) < 0
}

// Provider is the local storage surface the read path runs against.
type Provider interface {

	// WriteBatch atomically applies a batch of puts and deletes, then bumps the region version
	WriteBatch(batch *WriteBatch) error

	// CreateSnapshot returns a consistent point in time view of the store, stamped with the
	// region version current at creation
	CreateSnapshot(regionID uint64) (Snapshot, error)

	AddRegion(region Region)

	Region(regionID uint64) (Region, bool)

	// RegionVersion returns the current version of the region, 0 if the region is unknown
	RegionVersion(regionID uint64) uint64

	Start() error

	Stop() error
}

// Snapshot is a consistent read view. Implementations must return copies of keys and values -
// callers hold on to them after the snapshot is closed.
type Snapshot interface {

	// Get returns the value for the key, nil if not present
	Get(key []byte) ([]byte, error)

	// Scan returns pairs with start <= key < end in key order, at most limit of them. A
	// negative limit means no limit.
	Scan(start []byte, end []byte, limit int) ([]KVPair, error)

	RegionVersion() uint64

	Close() error
}

// regionRegistry holds the region metadata and version counters shared by the provider
// implementations. Versions start at 1 so that 0 always means "no such region".
type regionRegistry struct {
	mu       sync.RWMutex
	regions  map[uint64]Region
	versions map[uint64]uint64
}

func newRegionRegistry() regionRegistry {
	return regionRegistry{
		regions:  make(map[uint64]Region),
		versions: make(map[uint64]uint64),
	}
}

func (r *regionRegistry) AddRegion(region Region) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regions[region.ID]; !ok {
		r.versions[region.ID] = 1
	}
	r.regions[region.ID] = region
}

func (r *regionRegistry) Region(regionID uint64) (Region, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	region, ok := r.regions[regionID]
	return region, ok
}

func (r *regionRegistry) RegionVersion(regionID uint64) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.versions[regionID]
}

func (r *regionRegistry) bumpVersion(regionID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regions[regionID]; ok {
		r.versions[regionID]++
	}
}
