package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/quarrydb/quarry/common"
)

// ResultCache holds whole serialized responses keyed by the request's serialized ranges and
// plan. Entries are tagged with the region version they were computed against, so any write
// applied to the region after the result was computed turns the entry stale.
type ResultCache interface {
	// GetRegionVersion reads the region's current version. Callers capture it before
	// executing a request and pass it back to Store, so a write that lands mid-execution
	// invalidates the stored result.
	GetRegionVersion(regionID uint64) uint64

	// Lookup returns the cached response bytes for the key if present and still fresh.
	// Callers must not modify the returned slice.
	Lookup(regionID uint64, key string) ([]byte, bool)

	Store(regionID uint64, key string, version uint64, data []byte)
}

// RegionVersionSource is the cache's view of region version counters. storage.Provider
// satisfies it, so scan staleness checks and cache invalidation share one counter.
type RegionVersionSource interface {
	RegionVersion(regionID uint64) uint64
}

var (
	lookupsVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quarry_result_cache_lookups_total",
		Help: "counter for result cache lookups, segmented by outcome",
	}, []string{"outcome"})
	storesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quarry_result_cache_stores_total",
		Help: "counter for results stored in the result cache",
	})
	evictionsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quarry_result_cache_evictions_total",
		Help: "counter for entries evicted from the result cache by capacity or staleness",
	})
)

const (
	outcomeHit   = "hit"
	outcomeMiss  = "miss"
	outcomeStale = "stale"
)

type resultEntry struct {
	entryKey      string
	regionVersion uint64
	data          []byte
	storedAt      time.Time
}

type lruResultCache struct {
	lock       sync.Mutex
	maxEntries int
	versions   RegionVersionSource
	entries    map[string]*list.Element
	order      *list.List
}

var _ ResultCache = &lruResultCache{}

func NewResultCache(maxEntries int, versions RegionVersionSource) ResultCache {
	return &lruResultCache{
		maxEntries: maxEntries,
		versions:   versions,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *lruResultCache) GetRegionVersion(regionID uint64) uint64 {
	return c.versions.RegionVersion(regionID)
}

func (c *lruResultCache) Lookup(regionID uint64, key string) ([]byte, bool) {
	ek := entryKey(regionID, key)
	c.lock.Lock()
	defer c.lock.Unlock()
	elem, ok := c.entries[ek]
	if !ok {
		lookupsVec.WithLabelValues(outcomeMiss).Inc()
		return nil, false
	}
	entry := elem.Value.(*resultEntry)
	if entry.regionVersion != c.versions.RegionVersion(regionID) {
		c.removeElement(elem)
		evictionsCounter.Inc()
		lookupsVec.WithLabelValues(outcomeStale).Inc()
		return nil, false
	}
	c.order.MoveToFront(elem)
	lookupsVec.WithLabelValues(outcomeHit).Inc()
	return entry.data, true
}

func (c *lruResultCache) Store(regionID uint64, key string, version uint64, data []byte) {
	ek := entryKey(regionID, key)
	c.lock.Lock()
	defer c.lock.Unlock()
	if elem, ok := c.entries[ek]; ok {
		entry := elem.Value.(*resultEntry)
		entry.regionVersion = version
		entry.data = data
		entry.storedAt = time.Now()
		c.order.MoveToFront(elem)
		storesCounter.Inc()
		return
	}
	elem := c.order.PushFront(&resultEntry{
		entryKey:      ek,
		regionVersion: version,
		data:          data,
		storedAt:      time.Now(),
	})
	c.entries[ek] = elem
	storesCounter.Inc()
	for c.order.Len() > c.maxEntries {
		c.removeElement(c.order.Back())
		evictionsCounter.Inc()
	}
}

func (c *lruResultCache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*resultEntry).entryKey)
}

// entryKey scopes the request key to its region. Two regions can receive byte identical
// requests and must not share results.
func entryKey(regionID uint64, key string) string {
	buff := make([]byte, 0, 8+len(key))
	buff = common.AppendUint64ToBufferLE(buff, regionID)
	return string(append(buff, key...))
}
