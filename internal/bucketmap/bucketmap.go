// Package bucketmap implements the lock-free chained hash table described in
// spec §4.2: an atomic-head bucket array, scanned without locks on the hot
// path, with new items installed by compare-and-swap and insertion races
// resolved by rescanning only the newly-prepended prefix.
//
// The package only knows about itemhdr.Item[K, V] headers and a
// caller-supplied equality callback; it has no notion of descriptors,
// construction or eviction — those live in pkg/memocache, which composes
// this package the way arena-cache's pkg/cache.go composes its shard index,
// just restructured so the bucket-chain concern gets its own package to
// match the weighting spec §2 gives it.
//
// © 2025 subtitle-cache authors. MIT License.
package bucketmap

import (
	"sync/atomic"

	"github.com/rastercache/subtitle-cache/internal/itemhdr"
)

// Map is the bucket array for one cache instance's key space.
type Map[K comparable, V any] struct {
	buckets []atomic.Pointer[itemhdr.Item[K, V]]
	mask    uint64
}

// New allocates a bucket array sized to the next power of two ≥ n (so that
// index = hash & mask avoids a division on the hot path).
func New[K comparable, V any](n uint32) *Map[K, V] {
	size := uint64(1)
	for size < uint64(n) {
		size <<= 1
	}
	return &Map[K, V]{
		buckets: make([]atomic.Pointer[itemhdr.Item[K, V]], size),
		mask:    size - 1,
	}
}

// Buckets returns the bucket count (a power of two).
func (m *Map[K, V]) Buckets() int { return len(m.buckets) }

// Index maps a precomputed hash to a bucket slot.
func (m *Map[K, V]) Index(hash uint64) uint64 { return hash & m.mask }

// Slot returns the atomic head pointer for the bucket holding hash. Callers
// use it both to read the current head and as the CAS target for insertion.
func (m *Map[K, V]) Slot(hash uint64) *atomic.Pointer[itemhdr.Item[K, V]] {
	return &m.buckets[m.Index(hash)]
}

// Scan walks the chain starting at start (inclusive) up to but excluding
// stop, returning the first item whose Hash matches and for which equal
// reports true. stop may be nil to scan to the end of the chain.
func Scan[K comparable, V any](start, stop *itemhdr.Item[K, V], hash uint64, equal func(K) bool) *itemhdr.Item[K, V] {
	for it := start; it != nil && it != stop; it = it.Next.Load() {
		if it.Hash == hash && equal(it.Key) {
			return it
		}
	}
	return nil
}

// LinkAfterInsert wires the back-pointers once newItem has won the CAS onto
// slot: newItem.PrevSlot becomes slot, and, if there was a previous head, its
// PrevSlot is repointed at newItem.Next (newItem is now its predecessor).
func LinkAfterInsert[K comparable, V any](slot *atomic.Pointer[itemhdr.Item[K, V]], newItem, oldHead *itemhdr.Item[K, V]) {
	newItem.PrevSlot = slot
	if oldHead != nil {
		oldHead.PrevSlot = &newItem.Next
	}
}

// Unlink detaches it from the bucket chain it currently belongs to. Callers
// must hold whatever external serialisation the cache contract requires for
// structural bucket mutation outside of insertion (spec §5: eviction is
// single-threaded by contract).
func Unlink[K comparable, V any](it *itemhdr.Item[K, V]) {
	next := it.Next.Load()
	if next != nil {
		next.PrevSlot = it.PrevSlot
	}
	it.PrevSlot.Store(next)
	it.Next.Store(nil)
	it.PrevSlot = nil
}

// ForEachBucketRange invokes fn once per bucket slot in [lo, hi), letting
// Cache.Empty fan the drain out across goroutines over disjoint index
// ranges (each bucket chain is independent, so this is race-free as long
// as ranges don't overlap).
func (m *Map[K, V]) ForEachBucketRange(lo, hi int, fn func(slot *atomic.Pointer[itemhdr.Item[K, V]])) {
	for i := lo; i < hi; i++ {
		fn(&m.buckets[i])
	}
}
