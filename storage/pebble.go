package storage

import (
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	log "github.com/sirupsen/logrus"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

type pebbleStorage struct {
	regionRegistry
	lock    sync.Mutex
	dataDir string
	pebble  *pebble.DB
	started bool
}

// NewPebbleStorage creates a Provider backed by a pebble DB under dataDir. Start must be
// called before use.
func NewPebbleStorage(dataDir string) Provider {
	return &pebbleStorage{
		regionRegistry: newRegionRegistry(),
		dataDir:        dataDir,
	}
}

func (p *pebbleStorage) Start() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.started {
		return nil
	}
	pebbleDir := filepath.Join(p.dataDir, "pebble")
	log.Debugf("opening pebble store in %s", pebbleDir)
	db, err := pebble.Open(pebbleDir, &pebble.Options{})
	if err != nil {
		return errors.WithStack(err)
	}
	p.pebble = db
	p.started = true
	return nil
}

func (p *pebbleStorage) Stop() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.started {
		return nil
	}
	if err := p.pebble.Close(); err != nil {
		return errors.WithStack(err)
	}
	p.started = false
	return nil
}

func (p *pebbleStorage) WriteBatch(batch *WriteBatch) error {
	if _, ok := p.Region(batch.RegionID); !ok {
		return errors.NewRegionNotFoundError(batch.RegionID)
	}
	pb := p.pebble.NewBatch()
	err := batch.ForEachPut(func(k []byte, v []byte) error {
		return pb.Set(k, v, nil)
	})
	if err != nil {
		return errors.WithStack(err)
	}
	err = batch.ForEachDelete(func(k []byte) error {
		return pb.Delete(k, nil)
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := p.pebble.Apply(pb, &pebble.WriteOptions{Sync: false}); err != nil {
		return errors.WithStack(err)
	}
	p.bumpVersion(batch.RegionID)
	return nil
}

func (p *pebbleStorage) CreateSnapshot(regionID uint64) (Snapshot, error) {
	if _, ok := p.Region(regionID); !ok {
		return nil, errors.NewRegionNotFoundError(regionID)
	}
	// the version is read before the snapshot is taken so a racing write can only make the
	// stamp older, never newer, and staleness checks stay conservative
	version := p.RegionVersion(regionID)
	snap := p.pebble.NewSnapshot()
	return &pebbleSnapshot{snap: snap, version: version}, nil
}

type pebbleSnapshot struct {
	snap    *pebble.Snapshot
	version uint64
}

func (s *pebbleSnapshot) Get(key []byte) ([]byte, error) {
	v, closer, err := s.snap.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	// Pebble tends to reuse buffers so we have to copy before using the value elsewhere
	res := common.CopyByteSlice(v)
	if closer != nil {
		if err := closer.Close(); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return res, nil
}

func (s *pebbleSnapshot) Scan(start []byte, end []byte, limit int) ([]KVPair, error) {
	iterOptions := &pebble.IterOptions{LowerBound: start, UpperBound: end}
	iter := s.snap.NewIter(iterOptions)
	iter.SeekGE(start)
	var pairs []KVPair
	count := 0
	for iter.Valid() {
		if limit >= 0 && count >= limit {
			break
		}
		pairs = append(pairs, KVPair{
			Key:   common.CopyByteSlice(iter.Key()),
			Value: common.CopyByteSlice(iter.Value()),
		})
		count++
		if !iter.Next() {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return pairs, nil
}

func (s *pebbleSnapshot) RegionVersion() uint64 {
	return s.version
}

func (s *pebbleSnapshot) Close() error {
	return errors.WithStack(s.snap.Close())
}
