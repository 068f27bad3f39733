// Package ringhash implements a ketama-style consistent-hash ring for
// weighted load balancing.
//
// A Ring is built once from a snapshot of weighted hosts and is immutable
// afterwards; when the host set changes, build a new ring and let the
// embedding framework publish it atomically. Lookups never allocate, never
// block, and are safe for any number of concurrent readers.
//
// The builder scales the ring so the least-weighted host gets a whole number
// of virtual nodes, enumerates per-host positions with the ketama key
// protocol (host key, '_', decimal index), and accounts fractional per-host
// targets as running sums across the whole host set so rounding error never
// compounds. Hashing uses xxHash64 by default, or the 64-bit MurmurHash2.
// An optional shard index narrows the lookup's binary-search window by the
// high bits of the request hash.
//
// The package also exposes the Resolver/Picker/Builder seam the embedding
// side works against, with ring-hash, crc32-modulo and random pickers.
package ringhash
