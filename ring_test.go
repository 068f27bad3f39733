package ringhash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeqown/ringhash/hash"
)

func equalWeightHosts(names ...string) ([]HostWeight, float64) {
	hws := make([]HostWeight, 0, len(names))
	w := 1.0 / float64(len(names))
	for _, name := range names {
		hws = append(hws, HostWeight{
			Host:   NewStaticHost(name, name+":80"),
			Weight: w,
		})
	}
	return hws, w
}

func countPerHost(r *Ring) map[Host]uint64 {
	counts := make(map[Host]uint64)
	for _, e := range r.entries {
		counts[e.host]++
	}
	return counts
}

func TestNewRing_EqualWeights_RunningSum(t *testing.T) {
	hws, minWeight := equalWeightHosts("A", "B", "C", "D")

	r, err := NewRing(hws, minWeight,
		WithMinRingSize(6),
		WithMaxRingSize(6),
		WithHostnameHashing(),
	)
	assert.NoError(t, err)
	assert.Equal(t, 6, r.Size())

	// scale is 6.0 and each host's share is 1.5, so the running-sum rule
	// walks the counts 2, 1, 2, 1 in input order.
	counts := countPerHost(r)
	assert.Equal(t, uint64(2), counts[hws[0].Host])
	assert.Equal(t, uint64(1), counts[hws[1].Host])
	assert.Equal(t, uint64(2), counts[hws[2].Host])
	assert.Equal(t, uint64(1), counts[hws[3].Host])
}

func TestNewRing_SingleHost(t *testing.T) {
	host := NewStaticHost("X", "10.0.0.1:80")
	stats := &GaugeStats{}

	r, err := NewRing([]HostWeight{{Host: host, Weight: 1.0}}, 1.0,
		WithMinRingSize(1024),
		WithStatsSink(stats),
	)
	assert.NoError(t, err)
	assert.Equal(t, 1024, r.Size())
	assert.Equal(t, uint64(1024), stats.Size())
	assert.Equal(t, uint64(1024), stats.MinHashesPerHost())
	assert.Equal(t, uint64(1024), stats.MaxHashesPerHost())

	for _, h := range []uint64{0, 1, 1 << 32, math.MaxUint64} {
		got, ok := r.Choose(h, 0)
		assert.True(t, ok)
		assert.Same(t, host, got)
	}
}

func TestNewRing_WeightedHosts(t *testing.T) {
	heavy := NewStaticHost("heavy", "10.0.0.1:80")
	light := NewStaticHost("light", "10.0.0.2:80")
	stats := &GaugeStats{}

	r, err := NewRing([]HostWeight{
		{Host: heavy, Weight: 0.9},
		{Host: light, Weight: 0.1},
	}, 0.1,
		WithMinRingSize(100),
		WithStatsSink(stats),
	)
	assert.NoError(t, err)
	assert.Equal(t, 100, r.Size())

	counts := countPerHost(r)
	assert.Equal(t, uint64(90), counts[heavy])
	assert.Equal(t, uint64(10), counts[light])
	assert.Equal(t, uint64(100), stats.Size())
	assert.Equal(t, uint64(10), stats.MinHashesPerHost())
	assert.Equal(t, uint64(90), stats.MaxHashesPerHost())
}

func TestNewRing_ScaleClampedByMaxRingSize(t *testing.T) {
	hws, minWeight := equalWeightHosts("A", "B", "C", "D")

	r, err := NewRing(hws, minWeight,
		WithMinRingSize(1_000_000),
		WithMaxRingSize(100),
	)
	assert.NoError(t, err)
	assert.Equal(t, 100, r.Size())

	for _, hw := range hws {
		assert.Equal(t, uint64(25), countPerHost(r)[hw.Host])
	}
}

func TestNewRing_EmptyHosts(t *testing.T) {
	stats := &GaugeStats{}

	for _, opts := range [][]Option{
		{WithStatsSink(stats)},
		{WithStatsSink(stats), WithSharding()},
	} {
		r, err := NewRing(nil, 0, opts...)
		assert.NoError(t, err)
		assert.Equal(t, 0, r.Size())

		_, ok := r.Choose(42, 0)
		assert.False(t, ok)

		// no stats are emitted for an empty ring.
		assert.Equal(t, uint64(0), stats.Size())
	}
}

func TestNewRing_InvalidConfig(t *testing.T) {
	hws, minWeight := equalWeightHosts("A")

	_, err := NewRing(hws, minWeight, WithMinRingSize(8), WithMaxRingSize(4))
	assert.ErrorIs(t, err, ErrInvalidRingConfig)
	assert.Contains(t, err.Error(), "ring hash: minimum_ring_size (8) > maximum_ring_size (4)")

	_, err = NewRing(hws, 0)
	assert.ErrorIs(t, err, ErrInvalidRingConfig)
}

func TestNewRing_InvalidHosts(t *testing.T) {
	hws := []HostWeight{
		{Host: NewStaticHost("", "10.0.0.1:80"), Weight: 0.5},
		{Host: NewStaticHost("", "10.0.0.2:80"), Weight: 0.5},
	}

	// address hashing tolerates the empty hostnames.
	_, err := NewRing(hws, 0.5)
	assert.NoError(t, err)

	// hostname hashing does not, and every bad host is reported.
	_, err = NewRing(hws, 0.5, WithHostnameHashing())
	assert.ErrorIs(t, err, ErrInvalidHost)
	assert.Contains(t, err.Error(), "host 0")
	assert.Contains(t, err.Error(), "host 1")
}

func TestNewRing_HashFunctionsProduceDifferentRings(t *testing.T) {
	hws, minWeight := equalWeightHosts("A", "B", "C", "D")

	xx, err := NewRing(hws, minWeight, WithMinRingSize(64), WithMaxRingSize(64))
	assert.NoError(t, err)

	mm, err := NewRing(hws, minWeight, WithMinRingSize(64), WithMaxRingSize(64),
		WithHashFunc(hash.NewMurmur2(hash.StdHashSeed)))
	assert.NoError(t, err)

	hashesOf := func(r *Ring) []uint64 {
		out := make([]uint64, 0, len(r.entries))
		for _, e := range r.entries {
			out = append(out, e.hash)
		}
		return out
	}
	assert.NotEqual(t, hashesOf(xx), hashesOf(mm))
}

// fixedRing builds a ring directly from hash positions, bypassing the
// builder, to pin lookup behavior to exact values.
func fixedRing(hashes ...uint64) (*Ring, []Host) {
	r := &Ring{}
	hosts := make([]Host, 0, len(hashes))
	for _, h := range hashes {
		host := NewStaticHost("fixed", "10.0.0.1:80")
		hosts = append(hosts, host)
		r.entries = append(r.entries, ringEntry{hash: h, host: host})
	}
	return r, hosts
}

func TestRing_Choose_RetryOffset(t *testing.T) {
	r, hosts := fixedRing(10, 20, 30, 40)

	tests := []struct {
		name    string
		h       uint64
		attempt uint32
		want    Host
	}{
		{name: "first clockwise", h: 15, attempt: 0, want: hosts[1]},
		{name: "attempt shifts one position", h: 15, attempt: 1, want: hosts[2]},
		{name: "attempt wraps the ring", h: 15, attempt: 4, want: hosts[1]},
		{name: "exact hash match", h: 20, attempt: 0, want: hosts[1]},
		{name: "wrap past the top", h: 50, attempt: 0, want: hosts[0]},
		{name: "zero maps to the first entry", h: 0, attempt: 0, want: hosts[0]},
		{name: "max wraps", h: math.MaxUint64, attempt: 0, want: hosts[0]},
		{name: "lowest entry boundary", h: 10, attempt: 0, want: hosts[0]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Choose(tt.h, tt.attempt)
			assert.True(t, ok)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestRing_Determinism(t *testing.T) {
	hws, minWeight := equalWeightHosts("A", "B", "C", "D", "E")

	build := func() *Ring {
		r, err := NewRing(hws, minWeight, WithMinRingSize(512), WithSharding())
		assert.NoError(t, err)
		return r
	}

	r1, r2 := build(), build()
	assert.Equal(t, r1.entries, r2.entries)
	assert.Equal(t, r1.shardStarts, r2.shardStarts)
	assert.Equal(t, r1.rshift, r2.rshift)
}

func TestRing_ShardIndexStructure(t *testing.T) {
	hws, minWeight := equalWeightHosts("A", "B", "C", "D", "E", "F", "G", "H")

	r, err := NewRing(hws, minWeight, WithMinRingSize(4096), WithSharding())
	assert.NoError(t, err)
	assert.NotEmpty(t, r.shardStarts)
	assert.Equal(t, 0, r.shardStarts[0])
	assert.Equal(t, len(r.entries), r.shardStarts[len(r.shardStarts)-1])

	for i := 1; i < len(r.shardStarts); i++ {
		assert.Greater(t, r.shardStarts[i], r.shardStarts[i-1])
	}

	shardOf := func(h uint64) uint64 { return (h >> (r.rshift - 1)) >> 1 }

	// every boundary starts a new raw shard value, and values within an
	// interval are uniform.
	for i := 0; i+1 < len(r.shardStarts); i++ {
		lo, hi := r.shardStarts[i], r.shardStarts[i+1]
		for k := lo + 1; k < hi; k++ {
			assert.Equal(t, shardOf(r.entries[lo].hash), shardOf(r.entries[k].hash))
		}
		if lo > 0 {
			assert.NotEqual(t, shardOf(r.entries[lo-1].hash), shardOf(r.entries[lo].hash))
		}
	}
}
