// Package hashkernel implements the stable 64-bit hashing primitives shared
// by every memocache instance.
//
// The kernel itself knows nothing about cache items or type descriptors: it
// is a thin, allocation-free layer over xxhash that the bucket map and the
// concrete cache descriptors in pkg/subtitlecache build on. Keeping it
// separate mirrors the teacher's habit of centralising every low-level
// unsafe/perf-sensitive primitive in its own internal package
// (internal/unsafehelpers in arena-cache) instead of scattering it across
// call sites.
//
// © 2025 subtitle-cache authors. MIT License.
package hashkernel

import (
	"github.com/cespare/xxhash/v2"
)

// Seed is XOR-folded into every String/Bytes/Uint64 hash and written as the
// first bytes of every Combine digest. It has no
// cryptographic significance; it only needs to be a fixed, nonzero 64-bit
// constant so that two processes hash identical keys identically.
const Seed uint64 = 0xb3e46a540bd36cd4

// newDigest returns a fresh hash accumulator seeded with Seed, for Combine's
// private use.
func newDigest() *xxhash.Digest {
	d := xxhash.New()
	var seedBytes [8]byte
	for i := range seedBytes {
		seedBytes[i] = byte(Seed >> (8 * i))
	}
	_, _ = d.Write(seedBytes[:])
	return d
}

// String hashes s by content.
func String(s string) uint64 {
	return fold(xxhash.Sum64String(s))
}

// Bytes hashes b by content.
func Bytes(b []byte) uint64 {
	return fold(xxhash.Sum64(b))
}

// Uint64 hashes a single 64-bit scalar, avoiding the digest machinery for the
// overwhelmingly common case of integer/identity-ref keys.
func Uint64(v uint64) uint64 {
	return fold(xxhash.Sum64(u64Bytes(v)))
}

// Combine folds an additional sub-hash into an accumulator, used by
// composite/outline-style keys that hash several indirect fields in
// sequence (mirrors ass_cache.c's hval-threading hash functions).
func Combine(acc, next uint64) uint64 {
	d := newDigest()
	var buf [16]byte
	putU64(buf[0:8], acc)
	putU64(buf[8:16], next)
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

func fold(h uint64) uint64 {
	return h ^ Seed
}

func u64Bytes(v uint64) []byte {
	var b [8]byte
	putU64(b[:], v)
	return b[:]
}

func putU64(b []byte, v uint64) {
	_ = b[7]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}
