package ringhash

import (
	"github.com/yeqown/ringhash/hash"
)

const (
	// DefaultMinRingSize and DefaultMaxRingSize bound the number of virtual
	// nodes when the caller does not configure the ring size.
	DefaultMinRingSize uint64 = 1024
	DefaultMaxRingSize uint64 = 8 * 1024 * 1024

	// shardShiftBase is added to the MSB position of the lowest hash to
	// derive the right shift that maps hashes to shards. A larger shift
	// creates fewer, wider shards.
	shardShiftBase uint64 = 9
)

type Option func(*ringOptions)

type ringOptions struct {
	minRingSize uint64
	maxRingSize uint64

	hashFunc              hash.HashFunc
	useHostnameForHashing bool
	shardingEnabled       bool

	statsSink StatsSink
}

func newRingOptions() *ringOptions {
	return &ringOptions{
		minRingSize: DefaultMinRingSize,
		maxRingSize: DefaultMaxRingSize,
		hashFunc:    hash.NewXXHash64(),
		statsSink:   nopStatsSink{},
	}
}

// WithMinRingSize sets the minimum number of virtual nodes on the ring.
// Default is DefaultMinRingSize.
func WithMinRingSize(n uint64) Option {
	return func(o *ringOptions) {
		o.minRingSize = n
	}
}

// WithMaxRingSize sets the maximum number of virtual nodes on the ring.
// Default is DefaultMaxRingSize.
func WithMaxRingSize(n uint64) Option {
	return func(o *ringOptions) {
		o.maxRingSize = n
	}
}

// WithHashFunc sets the hash function used to place virtual nodes.
// Default is xxHash64; use hash.NewMurmur2(hash.StdHashSeed) for rings that
// must be compatible with the 64-bit MurmurHash2 layout.
func WithHashFunc(h hash.HashFunc) Option {
	return func(o *ringOptions) {
		if h == nil {
			return
		}

		o.hashFunc = h
	}
}

// WithHostnameHashing makes the builder hash each host's hostname instead of
// its network address.
func WithHostnameHashing() Option {
	return func(o *ringOptions) {
		o.useHostnameForHashing = true
	}
}

// WithSharding enables the shard index, which narrows the lookup's
// binary-search window by the high bits of the request hash. A ring built
// with sharding always answers lookups through it.
func WithSharding() Option {
	return func(o *ringOptions) {
		o.shardingEnabled = true
	}
}

// WithStatsSink sets the sink receiving the builder's gauges.
func WithStatsSink(s StatsSink) Option {
	return func(o *ringOptions) {
		if s == nil {
			return
		}

		o.statsSink = s
	}
}
