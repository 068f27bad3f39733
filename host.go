package ringhash

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Host is an opaque backend endpoint. The ring stores hosts by reference and
// never mutates them; hosts must outlive every ring built from them.
type Host interface {
	// Hostname returns the host's name. It must be non-empty when the ring
	// is configured to hash hostnames.
	Hostname() string
	// Address returns the host's network address. It must be non-empty when
	// the ring is configured to hash addresses (the default).
	Address() string
}

// HostWeight pairs a host with its weight.
//
// NewRing expects normalized weights: positive values summing to ~1.0.
// NormalizeHostWeights converts arbitrary positive weights.
type HostWeight struct {
	Host   Host
	Weight float64
}

// StaticHost is a fixed hostname/address pair, the simplest Host for
// embedders that manage endpoints themselves.
type StaticHost struct {
	hostname string
	address  string
}

func NewStaticHost(hostname, address string) *StaticHost {
	return &StaticHost{
		hostname: hostname,
		address:  address,
	}
}

func (s *StaticHost) Hostname() string { return s.hostname }

func (s *StaticHost) Address() string { return s.address }

// NormalizeHostWeights scales the given weights so they sum to 1.0 and
// returns the scaled pairs along with the minimum normalized weight, which
// NewRing needs to size the ring. Every weight must be positive; all
// violations are reported together.
func NormalizeHostWeights(hostWeights []HostWeight) ([]HostWeight, float64, error) {
	if len(hostWeights) == 0 {
		return nil, 0, errors.Wrap(ErrNoHosts, "empty host set")
	}

	var result *multierror.Error
	total := 0.0
	for i, hw := range hostWeights {
		if hw.Host == nil {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidHost, "host %d is nil", i))
			continue
		}
		if hw.Weight <= 0 {
			result = multierror.Append(result,
				errors.Wrapf(ErrInvalidHost, "host %d (%s) has non-positive weight %v", i, hw.Host.Address(), hw.Weight))
		}
		total += hw.Weight
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, 0, err
	}

	normalized := make([]HostWeight, 0, len(hostWeights))
	minWeight := 1.0
	for _, hw := range hostWeights {
		w := hw.Weight / total
		normalized = append(normalized, HostWeight{Host: hw.Host, Weight: w})
		if w < minWeight {
			minWeight = w
		}
	}

	return normalized, minWeight, nil
}

// hashKey selects the per-host hashing key.
func hashKey(h Host, useHostname bool) string {
	if useHostname {
		return h.Hostname()
	}
	return h.Address()
}
