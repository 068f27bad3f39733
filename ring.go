package ringhash

import (
	"math"
	"sort"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ringEntry is one virtual node: a position on the ring and the host that
// owns it.
type ringEntry struct {
	hash uint64
	host Host
}

// Ring is an immutable consistent-hash ring. Build it with NewRing and
// query it with Choose; to change the host set, build a new ring.
type Ring struct {
	entries []ringEntry

	// shardStarts[i] is the index of the first entry of shard i, closed by a
	// final len(entries) sentinel. Shard ids are dense indices assigned in
	// entry order, not the raw shifted hash values. Only set when sharding
	// is enabled and the ring is non-empty.
	shardStarts []int
	rshift      uint64
	sharded     bool
}

// NewRing builds a ring from normalized host weights.
//
// Weights must be positive and sum to ~1.0, and minNormalizedWeight must be
// the smallest of them; NormalizeHostWeights produces both. The number of
// virtual nodes is scaled so the least-weighted host gets a whole number of
// them, bounded by the configured minimum and maximum ring sizes.
//
// An empty host set yields an empty ring and emits no stats.
func NewRing(hostWeights []HostWeight, minNormalizedWeight float64, opts ...Option) (*Ring, error) {
	o := newRingOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.minRingSize > o.maxRingSize {
		return nil, errors.Wrapf(ErrInvalidRingConfig,
			"ring hash: minimum_ring_size (%d) > maximum_ring_size (%d)", o.minRingSize, o.maxRingSize)
	}

	r := &Ring{sharded: o.shardingEnabled}
	if len(hostWeights) == 0 {
		return r, nil
	}

	if minNormalizedWeight <= 0 {
		return nil, errors.Wrapf(ErrInvalidRingConfig,
			"ring hash: non-positive min_normalized_weight (%v)", minNormalizedWeight)
	}
	if err := validateHostWeights(hostWeights, o.useHostnameForHashing); err != nil {
		return nil, err
	}

	// Scale up the number of virtual nodes so the least-weighted host gets a
	// whole number of them; scale back down if that exceeds the maximum.
	scale := math.Min(
		math.Ceil(minNormalizedWeight*float64(o.minRingSize))/minNormalizedWeight,
		float64(o.maxRingSize),
	)
	ringSize := uint64(math.Ceil(scale))
	r.entries = make([]ringEntry, 0, ringSize)

	// Walk the host set placing scale*weight virtual nodes per host. The
	// per-host targets are fractional, so currentHashes and targetHashes are
	// running sums across the entire set: a host's actual count is the floor
	// or the ceiling of its fractional share, and the totals stay exact.
	//
	// The hash key for virtual node i of a host is "<key>_<i>", the ketama
	// enumeration.
	buf := make([]byte, 0, 196)
	currentHashes := 0.0
	targetHashes := 0.0
	minHashesPerHost := ringSize
	maxHashesPerHost := uint64(0)
	for _, hw := range hostWeights {
		buf = append(buf[:0], hashKey(hw.Host, o.useHostnameForHashing)...)
		buf = append(buf, '_')
		offset := len(buf)

		targetHashes += scale * hw.Weight
		i := uint64(0)
		// The size cap keeps rounding drift in the weight sum from pushing
		// the ring past the configured maximum.
		for currentHashes < targetHashes && uint64(len(r.entries)) < o.maxRingSize {
			buf = strconv.AppendUint(buf[:offset], i, 10)
			r.entries = append(r.entries, ringEntry{hash: o.hashFunc.Hash(buf), host: hw.Host})
			i++
			currentHashes++
		}

		if i < minHashesPerHost {
			minHashesPerHost = i
		}
		if i > maxHashesPerHost {
			maxHashesPerHost = i
		}
	}

	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].hash < r.entries[j].hash
	})

	if r.sharded {
		r.buildShardIndex()
	}

	o.statsSink.SetSize(uint64(len(r.entries)))
	o.statsSink.SetMinHashesPerHost(minHashesPerHost)
	o.statsSink.SetMaxHashesPerHost(maxHashesPerHost)

	return r, nil
}

// Size returns the number of virtual nodes on the ring.
func (r *Ring) Size() int {
	return len(r.entries)
}

// buildShardIndex partitions the sorted entries by the high bits of their
// hashes. The shift amount anchors on the MSB of the lowest hash so the
// first entries land in shard 0.
func (r *Ring) buildShardIndex() {
	if len(r.entries) == 0 {
		return
	}

	msb := uint64(0)
	for n := r.entries[0].hash / 2; n != 0; n /= 2 {
		msb++
	}
	r.rshift = shardShiftBase + msb
	if r.rshift > 64 {
		r.rshift = 64
	}

	r.shardStarts = make([]int, 1, len(r.entries)+1)
	prevShard := uint64(0)
	for k, e := range r.entries {
		// The two-step shift stays well-defined when rshift == 64.
		currentShard := (e.hash >> (r.rshift - 1)) >> 1
		if k > 0 && currentShard != prevShard {
			r.shardStarts = append(r.shardStarts, k)
		}
		prevShard = currentShard
	}
	r.shardStarts = append(r.shardStarts, len(r.entries))
}

// Choose returns the host owning the first virtual node clockwise of h,
// wrapping past the top of the ring. A non-zero attempt rotates the chosen
// index by attempt positions; it perturbs the choice but does not guarantee
// a different host. Returns false iff the ring is empty.
func (r *Ring) Choose(h uint64, attempt uint32) (Host, bool) {
	n := len(r.entries)
	if n == 0 {
		return nil, false
	}

	lo, hi := 0, n
	if r.sharded {
		// The raw shifted value of h doubles as the dense shard id, which
		// only holds when every lower shard is populated. Out-of-range ids
		// fall back to the full window up front; a narrow search that lands
		// on index 0 without global justification re-runs over the full
		// window below.
		shardIndex := (h >> (r.rshift - 1)) >> 1
		if shardIndex < uint64(len(r.shardStarts)-1) {
			lo, hi = r.shardStarts[shardIndex], r.shardStarts[shardIndex+1]
		}
	}

	p := r.search(h, lo, hi)
	if p == 0 && (lo != 0 || hi != n) && h > r.entries[0].hash && h <= r.entries[n-1].hash {
		p = r.search(h, 0, n)
	}

	if attempt > 0 {
		p = int((uint64(p) + uint64(attempt)) % uint64(n))
	}

	return r.entries[p].host, true
}

// search is the ketama server lookup ported from libketama: find the unique
// index p with entries[p-1].hash < h <= entries[p].hash, treating the hash
// before index 0 as zero and wrapping past the end to 0.
//
// lo, hi and mid must stay signed: termination relies on hi passing below
// lo, which can take hi to -1.
func (r *Ring) search(h uint64, lo, hi int) int {
	for {
		mid := (lo + hi) / 2
		if mid == len(r.entries) {
			return 0
		}

		cur := r.entries[mid].hash
		prev := uint64(0)
		if mid > 0 {
			prev = r.entries[mid-1].hash
		}

		if h <= cur && h > prev {
			return mid
		}

		if cur < h {
			lo = mid + 1
		} else {
			hi = mid - 1
		}

		if lo > hi {
			return 0
		}
	}
}

// validateHostWeights rejects hosts the builder cannot place, reporting
// every violation rather than the first.
func validateHostWeights(hostWeights []HostWeight, useHostname bool) error {
	var result *multierror.Error
	for i, hw := range hostWeights {
		if hw.Host == nil {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidHost, "host %d is nil", i))
			continue
		}
		if hashKey(hw.Host, useHostname) == "" {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidHost, "host %d has an empty hashing key", i))
		}
		if hw.Weight <= 0 {
			result = multierror.Append(result,
				errors.Wrapf(ErrInvalidHost, "host %d has non-positive weight %v", i, hw.Weight))
		}
	}

	return result.ErrorOrNil()
}
