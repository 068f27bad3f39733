package hash

import "hash/crc32"

// CRC32 hashes keys with the IEEE CRC-32 checksum, widened to 64 bits.
type CRC32 struct{}

func NewCRC32() *CRC32 {
	return &CRC32{}
}

func (h *CRC32) Hash(key []byte) uint64 {
	return uint64(crc32.ChecksumIEEE(key))
}
