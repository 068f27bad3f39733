package hash

import "github.com/cespare/xxhash/v2"

// XXHash64 hashes keys with xxHash64 and its canonical default seed (0).
type XXHash64 struct{}

func NewXXHash64() *XXHash64 {
	return &XXHash64{}
}

func (h *XXHash64) Hash(key []byte) uint64 {
	return xxhash.Sum64(key)
}
