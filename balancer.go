package ringhash

import (
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/yeqown/ringhash/hash"
)

// Resolver is responsible for resolving a configured address list into a
// weighted host snapshot.
type Resolver interface {
	Resolve(addr string) ([]HostWeight, error)
}

// Picker is responsible for picking a host for a request key while
// considering the retry attempt.
type Picker interface {
	Pick(key []byte, attempt uint32) (Host, error)
}

// Builder is responsible for building a Picker from a host snapshot.
// Snapshot weights are raw (any positive values); each Builder normalizes
// them as needed.
type Builder interface {
	Build(hosts []HostWeight) (Picker, error)
}

// The defaultResolver resolves a comma-separated address list, for example
// "10.0.0.1:80,10.0.0.2:80", into equal-weight static hosts.
type defaultResolver struct{}

// NewDefaultResolver returns the comma-separated address list resolver.
func NewDefaultResolver() Resolver {
	return defaultResolver{}
}

func (r defaultResolver) Resolve(addr string) ([]HostWeight, error) {
	if addr == "" {
		return nil, errors.Wrap(ErrNoHosts, "empty address")
	}

	parts := strings.Split(addr, ",")
	result := make([]HostWeight, 0, len(parts))

	for _, address := range parts {
		address = strings.TrimSpace(address)
		if address == "" {
			continue
		}

		hostname := address
		if h, _, err := net.SplitHostPort(address); err == nil && h != "" {
			hostname = h
		}

		result = append(result, HostWeight{
			Host:   NewStaticHost(hostname, address),
			Weight: 1,
		})
	}

	if len(result) == 0 {
		return nil, errors.Wrap(ErrNoHosts, "no available address")
	}

	return result, nil
}

// The ringHashPicker hashes the request key with the ring's hash function
// and answers through the ring.
type ringHashPicker struct {
	ring *Ring
	hash hash.HashFunc
}

func (p *ringHashPicker) Pick(key []byte, attempt uint32) (Host, error) {
	host, ok := p.ring.Choose(p.hash.Hash(key), attempt)
	if !ok {
		return nil, errors.Wrap(ErrNoHosts, "empty ring")
	}

	return host, nil
}

type ringHashPickBuilder struct {
	opts []Option
}

// NewRingHashPickBuilder returns a Builder producing consistent-hash ring
// pickers. The given options apply to every ring it builds.
func NewRingHashPickBuilder(opts ...Option) Builder {
	return ringHashPickBuilder{opts: opts}
}

func (b ringHashPickBuilder) Build(hosts []HostWeight) (Picker, error) {
	normalized, minWeight, err := NormalizeHostWeights(hosts)
	if err != nil {
		return nil, err
	}

	ring, err := NewRing(normalized, minWeight, b.opts...)
	if err != nil {
		return nil, err
	}

	o := newRingOptions()
	for _, opt := range b.opts {
		opt(o)
	}

	return &ringHashPicker{ring: ring, hash: o.hashFunc}, nil
}

// The modHashPicker maps a key to hosts[crc32(key) % n]. Cheap, but a host
// set change remaps almost every key; prefer the ring-hash picker in front
// of anything that caches per host.
type modHashPicker struct {
	hash  hash.HashFunc
	hosts []Host
}

func (p *modHashPicker) Pick(key []byte, attempt uint32) (Host, error) {
	n := uint64(len(p.hosts))
	if n == 0 {
		return nil, errors.Wrap(ErrNoHosts, "no available host")
	}
	if n == 1 {
		return p.hosts[0], nil
	}

	return p.hosts[(p.hash.Hash(key)+uint64(attempt))%n], nil
}

type modHashPickBuilder struct{}

// NewModHashPickBuilder returns a Builder producing crc32 modulo pickers.
func NewModHashPickBuilder() Builder {
	return modHashPickBuilder{}
}

func (modHashPickBuilder) Build(hosts []HostWeight) (Picker, error) {
	if len(hosts) == 0 {
		return nil, errors.Wrap(ErrNoHosts, "no available host")
	}

	picked := make([]Host, 0, len(hosts))
	for _, hw := range hosts {
		if hw.Host == nil {
			return nil, errors.Wrap(ErrInvalidHost, "nil host")
		}
		picked = append(picked, hw.Host)
	}

	return &modHashPicker{hash: hash.NewCRC32(), hosts: picked}, nil
}

// The randomPicker ignores the key and picks a random host. It is the
// fallback for traffic with no meaningful hash.
type randomPicker struct {
	r     *rand.Rand
	hosts []Host
}

func (p *randomPicker) Pick(_ []byte, _ uint32) (Host, error) {
	n := len(p.hosts)
	if n == 0 {
		return nil, errors.Wrap(ErrNoHosts, "no available host")
	}
	if n == 1 {
		return p.hosts[0], nil
	}

	return p.hosts[p.r.Intn(n)], nil
}

type randomPickBuilder struct{}

// NewRandomPickBuilder returns a Builder producing random pickers.
func NewRandomPickBuilder() Builder {
	return randomPickBuilder{}
}

func (randomPickBuilder) Build(hosts []HostWeight) (Picker, error) {
	if len(hosts) == 0 {
		return nil, errors.Wrap(ErrNoHosts, "no available host")
	}

	picked := make([]Host, 0, len(hosts))
	for _, hw := range hosts {
		if hw.Host == nil {
			return nil, errors.Wrap(ErrInvalidHost, "nil host")
		}
		picked = append(picked, hw.Host)
	}

	return &randomPicker{
		r:     rand.New(rand.NewSource(time.Now().UnixNano())),
		hosts: picked,
	}, nil
}
