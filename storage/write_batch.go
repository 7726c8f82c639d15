package storage

import (
	"github.com/quarrydb/quarry/common"
)

// WriteBatch represents some puts and deletes that will be applied atomically against one
// region. Entries are kept serialized so a batch can be handed around without reallocating.
type WriteBatch struct {
	RegionID   uint64
	Puts       []byte
	Deletes    []byte
	NumPuts    int
	NumDeletes int
}

func NewWriteBatch(regionID uint64) *WriteBatch {
	return &WriteBatch{RegionID: regionID}
}

type KVReceiver func(key []byte, value []byte) error

type KReceiver func(key []byte) error

func (wb *WriteBatch) AddPut(k []byte, v []byte) {
	wb.Puts = appendBytesWithLength(wb.Puts, k)
	wb.Puts = appendBytesWithLength(wb.Puts, v)
	wb.NumPuts++
}

func (wb *WriteBatch) AddDelete(k []byte) {
	wb.Deletes = appendBytesWithLength(wb.Deletes, k)
	wb.NumDeletes++
}

func (wb *WriteBatch) HasWrites() bool {
	return len(wb.Puts) > 0 || len(wb.Deletes) > 0
}

func (wb *WriteBatch) ForEachPut(kvReceiver KVReceiver) error {
	offset := 0
	for offset < len(wb.Puts) {
		lk, _ := common.ReadUint32FromBufferLE(wb.Puts, offset)
		offset += 4
		k := wb.Puts[offset : offset+int(lk)]
		offset += int(lk)
		lv, _ := common.ReadUint32FromBufferLE(wb.Puts, offset)
		offset += 4
		v := wb.Puts[offset : offset+int(lv)]
		offset += int(lv)
		if err := kvReceiver(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (wb *WriteBatch) ForEachDelete(kReceiver KReceiver) error {
	offset := 0
	for offset < len(wb.Deletes) {
		lk, _ := common.ReadUint32FromBufferLE(wb.Deletes, offset)
		offset += 4
		k := wb.Deletes[offset : offset+int(lk)]
		offset += int(lk)
		if err := kReceiver(k); err != nil {
			return err
		}
	}
	return nil
}

func appendBytesWithLength(buff []byte, bytes []byte) []byte {
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(bytes)))
	buff = append(buff, bytes...)
	return buff
}
