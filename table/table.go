package table

import (
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/errors"
	"github.com/quarrydb/quarry/storage"
)

/*
Data keys are [tableID u64 BE][handle i64 sign-flipped BE] so a byte-ordered scan walks one
table in handle order. The handle is the value of the PK handle column and is never stored in
the row value - readers derive it from the key.
*/

const KeyLength = 16

func EncodeKey(tableID uint64, handle int64, buffer []byte) []byte {
	buffer = common.KeyEncodeUint64(buffer, tableID)
	return common.KeyEncodeInt64(buffer, handle)
}

func DecodeKey(key []byte) (tableID uint64, handle int64, err error) {
	if len(key) < KeyLength {
		return 0, 0, errors.Errorf("data key too short: %d bytes", len(key))
	}
	tableID, offset := common.KeyDecodeUint64(key, 0)
	handle, _ = common.KeyDecodeInt64(key, offset)
	return tableID, handle, nil
}

// DecodeKeyHandle extracts just the handle, for scan results whose table is already known.
func DecodeKeyHandle(key []byte) (int64, error) {
	if len(key) < KeyLength {
		return 0, errors.Errorf("data key too short: %d bytes", len(key))
	}
	handle, _ := common.KeyDecodeInt64(key, 8)
	return handle, nil
}

// KeyRange returns the [start, end) key pair covering every row of the table.
func KeyRange(tableID uint64) (start []byte, end []byte) {
	start = common.KeyEncodeUint64(nil, tableID)
	end = common.IncrementBytesBigEndian(start)
	return start, end
}

// HandleFromRow returns the row's handle - the value of the PK handle column. Unsigned
// handles travel as their int64 bit pattern.
func HandleFromRow(tableInfo *common.TableInfo, row []common.Datum) (int64, error) {
	for i, col := range tableInfo.Columns {
		if !col.PKHandle {
			continue
		}
		if i >= len(row) {
			return 0, errors.Errorf("row has no value for handle column %s", col.Name)
		}
		d := row[i]
		switch d.Kind() {
		case common.KindInt64:
			return d.GetInt64(), nil
		case common.KindUint64:
			return int64(d.GetUint64()), nil
		default:
			return 0, errors.NewTypeMismatchError("integer handle", d.String())
		}
	}
	return 0, errors.Errorf("table %s has no PK handle column", tableInfo.Name)
}

func Upsert(tableInfo *common.TableInfo, row []common.Datum, writeBatch *storage.WriteBatch) error {
	handle, err := HandleFromRow(tableInfo, row)
	if err != nil {
		return err
	}
	keyBuff := EncodeKey(tableInfo.ID, handle, make([]byte, 0, KeyLength))
	valueBuff, err := common.EncodeStorageRow(tableInfo, row, nil)
	if err != nil {
		return err
	}
	writeBatch.AddPut(keyBuff, valueBuff)
	return nil
}

func Delete(tableInfo *common.TableInfo, handle int64, writeBatch *storage.WriteBatch) {
	keyBuff := EncodeKey(tableInfo.ID, handle, make([]byte, 0, KeyLength))
	writeBatch.AddDelete(keyBuff)
}

// LookupByHandle point reads one row, nil when the handle is not present.
func LookupByHandle(tableInfo *common.TableInfo, handle int64, snapshot storage.Snapshot) (*common.ColValueMap, error) {
	keyBuff := EncodeKey(tableInfo.ID, handle, make([]byte, 0, KeyLength))
	valueBuff, err := snapshot.Get(keyBuff)
	if err != nil {
		return nil, err
	}
	if valueBuff == nil {
		return nil, nil
	}
	return common.DecodeStorageRow(valueBuff)
}
