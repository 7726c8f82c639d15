package storage

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
)

// fakeStorage is an in memory Provider for tests. Snapshots are cheap copy on write clones
// of the btree so they really are isolated from later writes.
type fakeStorage struct {
	regionRegistry
	mu    sync.RWMutex
	btree *btree.BTree
}

func NewFakeStorage() Provider {
	return &fakeStorage{
		regionRegistry: newRegionRegistry(),
		btree:          btree.New(3),
	}
}

func (f *fakeStorage) Start() error {
	return nil
}

func (f *fakeStorage) Stop() error {
	return nil
}

func (f *fakeStorage) WriteBatch(batch *WriteBatch) error {
	if _, ok := f.Region(batch.RegionID); !ok {
		return errors.NewRegionNotFoundError(batch.RegionID)
	}
	f.mu.Lock()
	err := batch.ForEachPut(func(k []byte, v []byte) error {
		f.btree.ReplaceOrInsert(&kvWrapper{key: common.CopyByteSlice(k), value: common.CopyByteSlice(v)})
		return nil
	})
	if err == nil {
		err = batch.ForEachDelete(func(k []byte) error {
			// deletes are idempotent - removing an absent key is not an error
			f.btree.Delete(&kvWrapper{key: k})
			return nil
		})
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.bumpVersion(batch.RegionID)
	return nil
}

func (f *fakeStorage) CreateSnapshot(regionID uint64) (Snapshot, error) {
	if _, ok := f.Region(regionID); !ok {
		return nil, errors.NewRegionNotFoundError(regionID)
	}
	version := f.RegionVersion(regionID)
	f.mu.Lock()
	clone := f.btree.Clone()
	f.mu.Unlock()
	return &fakeSnapshot{tree: clone, version: version}, nil
}

type fakeSnapshot struct {
	tree    *btree.BTree
	version uint64
}

func (s *fakeSnapshot) Get(key []byte) ([]byte, error) {
	if item := s.tree.Get(&kvWrapper{key: key}); item != nil {
		wrapper := item.(*kvWrapper) // nolint: forcetypeassert
		return common.CopyByteSlice(wrapper.value), nil
	}
	return nil, nil
}

func (s *fakeSnapshot) Scan(start []byte, end []byte, limit int) ([]KVPair, error) {
	if start == nil {
		panic("start key cannot be nil")
	}
	var pairs []KVPair
	count := 0
	resFunc := func(i btree.Item) bool {
		wrapper := i.(*kvWrapper) // nolint: forcetypeassert
		if end != nil && bytes.Compare(wrapper.key, end) >= 0 {
			return false
		}
		pairs = append(pairs, KVPair{
			Key:   common.CopyByteSlice(wrapper.key),
			Value: common.CopyByteSlice(wrapper.value),
		})
		count++
		return limit < 0 || count < limit
	}
	s.tree.AscendGreaterOrEqual(&kvWrapper{key: start}, resFunc)
	return pairs, nil
}

func (s *fakeSnapshot) RegionVersion() uint64 {
	return s.version
}

func (s *fakeSnapshot) Close() error {
	return nil
}

type kvWrapper struct {
	key   []byte
	value []byte
}

func (k kvWrapper) Less(than btree.Item) bool {
	other := than.(*kvWrapper) // nolint: forcetypeassert
	return bytes.Compare(k.key, other.key) < 0
}
