package ringhash

import "sync/atomic"

// StatsSink receives the three gauges the builder emits once per build:
// the ring size and the minimum and maximum virtual-node counts per host.
// A low minimum implies an inaccurate request distribution and is worth
// alerting on.
type StatsSink interface {
	SetSize(n uint64)
	SetMinHashesPerHost(n uint64)
	SetMaxHashesPerHost(n uint64)
}

type nopStatsSink struct{}

func (nopStatsSink) SetSize(uint64)             {}
func (nopStatsSink) SetMinHashesPerHost(uint64) {}
func (nopStatsSink) SetMaxHashesPerHost(uint64) {}

// GaugeStats is a ready-made StatsSink. Gauges are written once by the
// builder and may be read concurrently afterwards.
type GaugeStats struct {
	size             uint64
	minHashesPerHost uint64
	maxHashesPerHost uint64
}

func (g *GaugeStats) SetSize(n uint64) {
	atomic.StoreUint64(&g.size, n)
}

func (g *GaugeStats) SetMinHashesPerHost(n uint64) {
	atomic.StoreUint64(&g.minHashesPerHost, n)
}

func (g *GaugeStats) SetMaxHashesPerHost(n uint64) {
	atomic.StoreUint64(&g.maxHashesPerHost, n)
}

func (g *GaugeStats) Size() uint64 {
	return atomic.LoadUint64(&g.size)
}

func (g *GaugeStats) MinHashesPerHost() uint64 {
	return atomic.LoadUint64(&g.minHashesPerHost)
}

func (g *GaugeStats) MaxHashesPerHost() uint64 {
	return atomic.LoadUint64(&g.maxHashesPerHost)
}
