// Package memocache is the generic, concurrent, reference-counted,
// eviction-aware memo-table engine underlying every concrete cache type in
// pkg/subtitlecache. One Cache[K, V] instance is a typed memo table; the
// five (six, see SPEC_FULL.md) subtitle-cache types are all instantiations
// of the same engine, parameterised only by a Descriptor.
//
// The engine is grounded on the teacher arena-cache's pkg/cache.go shard
// (bucket-chain hash table, hit/miss counters, shard-local hashing) and,
// for the parts spec.md specifies precisely that arena-cache's CLOCK-Pro
// policy does not need (the construction barrier, frame-based promotion,
// cross-cache ref-counted pinning), on original_source/libass/ass_cache.c,
// which implements exactly this engine in C for the same subtitle
// rendering domain.
//
// © 2025 subtitle-cache authors. MIT License.
package memocache

// Descriptor is the immutable, type-specific record every Cache is
// constructed from (spec §3 "Type descriptor"). Unlike a Go interface, it
// is a plain struct of function fields — the same shape as libass's
// CacheDesc — so each concrete cache type in pkg/subtitlecache builds one
// with a struct literal naming each operation explicitly.
//
// Descriptor intentionally has no KeySize/ValueSize fields: the original
// C descriptor needs them to compute `key_offs` and the allocation size by
// hand. Go's Item[K, V] struct (internal/itemhdr) lets the compiler derive
// both automatically from K and V, so carrying redundant byte counts in
// the descriptor would be dead weight — see DESIGN.md.
type Descriptor[K comparable, V any] struct {
	// Hash returns a stable 64-bit hash of key. Implementations should use
	// internal/hashkernel rather than hand-rolling hashing.
	Hash func(key K) uint64

	// Equal reports structural equality of two keys.
	Equal func(a, b K) bool

	// KeyMove either moves src into *dst (when dst is non-nil), deep
	// copying/ref-incrementing any owned or cross-cache-referenced fields,
	// or — when dst is nil — releases src's transitively-owned resources
	// because the caller is abandoning it (spec §3: "if dst is null, the
	// caller is abandoning src"). Returns false on failure (e.g. a string
	// duplication failing); KeyMove(nil, ·) itself must not fail.
	KeyMove func(dst *K, src K) bool

	// KeyDestruct releases resources held by a stored key (cross-cache
	// references, owned strings). The engine calls it only to discard a
	// prepared item whose insertion lost a race to an equal key; on an
	// item's final release the engine calls Destruct alone, which releases
	// the key's resources as well.
	KeyDestruct func(key K)

	// Construct produces value in place and returns its self-reported size
	// in bytes, which must be ≥ 1. A size of exactly 1 opts the item out of
	// contributing header overhead to the cache's total-size accounting
	// (spec invariant 6: "negligible, do not count overhead").
	Construct func(key K, value *V, userCtx any) int64

	// Destruct releases the value and transitively releases the key (the
	// same resources KeyDestruct releases, mirroring e.g. ass_cache.c's
	// bitmap_destruct/outline_destruct/composite_destruct, which all call
	// their type's key-destruct function internally).
	Destruct func(key K, value V)
}
