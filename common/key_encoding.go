package common

/*
Keys must be encoded in a way that keys are comparable with each other as byte strings -
without this range scans in the storage engine would not work properly.
We use an encoding scheme that is similar to how MySQL/RocksDB encodes keys (memcomparable)
https://github.com/facebook/mysql-5.6/wiki/MyRocks-record-format
Key values are stored in big-endian order, signed values with the sign bit flipped so
negative handles sort before positive ones.
*/

const SignBitMask uint64 = 1 << 63

func KeyEncodeInt64(buffer []byte, val int64) []byte {
	uVal := uint64(val) ^ SignBitMask
	return AppendUint64ToBufferBE(buffer, uVal)
}

func KeyDecodeInt64(buffer []byte, offset int) (int64, int) {
	u, offset := ReadUint64FromBufferBE(buffer, offset)
	return int64(u ^ SignBitMask), offset
}

func KeyEncodeUint64(buffer []byte, val uint64) []byte {
	return AppendUint64ToBufferBE(buffer, val)
}

func KeyDecodeUint64(buffer []byte, offset int) (uint64, int) {
	return ReadUint64FromBufferBE(buffer, offset)
}
