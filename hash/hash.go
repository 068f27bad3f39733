package hash

// HashFunc computes a 64-bit hash of the given key.
type HashFunc interface {
	Hash(key []byte) uint64
}
