// Package evictqueue implements the global eviction queue and the per-client
// promote list described in spec §3/§4.4/§4.6: a doubly-linked list of every
// live item ordered oldest-first, with newly-touched items re-linked to the
// tail only at frame boundaries.
//
// Tail append (Enqueue) is the one queue operation that genuinely races
// across goroutines — it runs inline inside Cache.Get, on whichever client
// happens to win the bucket-chain CAS for a brand new item. It is
// implemented as a Michael & Scott-style lock-free append: CAS the tail
// pointer forward, then patch the old tail's forward link. Every other
// queue mutation (dequeue-from-head during a size cut, promote-list
// splicing, arbitrary-item removal) only ever runs inside Cache.Cut or
// Cache.Empty, which the spec requires callers to serialise (§5: "eviction
// ... is single-threaded by contract") — so those use plain pointer writes,
// matching ass_cache.c's non-atomic queue_next/queue_prev manipulation
// inside ass_cache_cut/ass_cache_empty.
//
// © 2025 subtitle-cache authors. MIT License.
package evictqueue

import (
	"sync/atomic"

	"github.com/rastercache/subtitle-cache/internal/itemhdr"
)

// Queue is the per-cache global eviction order.
type Queue[K comparable, V any] struct {
	head atomic.Pointer[itemhdr.Item[K, V]]
	tail atomic.Pointer[itemhdr.Item[K, V]]
}

// New returns an empty queue.
func New[K comparable, V any]() *Queue[K, V] {
	return &Queue[K, V]{}
}

// Enqueue appends it to the tail. Safe to call concurrently from multiple
// goroutines (one per client that just won a bucket-insertion race).
func (q *Queue[K, V]) Enqueue(it *itemhdr.Item[K, V]) {
	it.QNext = nil
	for {
		oldTail := q.tail.Load()
		it.QPrev = oldTail
		if oldTail == nil {
			// First item: publish head before tail so a concurrent Front()
			// never observes a non-nil tail with a nil head.
			if !q.head.CompareAndSwap(nil, it) {
				continue
			}
			q.tail.Store(it)
			return
		}
		if q.tail.CompareAndSwap(oldTail, it) {
			oldTail.QNext = it
			return
		}
	}
}

// Front returns the oldest item in the queue, or nil if empty. Only called
// from Cache.Cut, which owns exclusive access to the queue's structural
// shape for the duration of one call.
func (q *Queue[K, V]) Front() *itemhdr.Item[K, V] {
	return q.head.Load()
}

// Remove detaches an arbitrary item from the queue, wherever it currently
// sits. Caller-serialised (Cut's promote-list drain, or Empty).
func (q *Queue[K, V]) Remove(it *itemhdr.Item[K, V]) {
	if it.QPrev != nil {
		it.QPrev.QNext = it.QNext
	} else {
		q.head.Store(it.QNext)
	}
	if it.QNext != nil {
		it.QNext.QPrev = it.QPrev
	} else {
		q.tail.Store(it.QPrev)
	}
	it.QNext = nil
	it.QPrev = nil
}

// MoveToTail detaches it (if linked) and re-appends it at the tail. Used to
// apply one promote-list entry during a size cut (spec §4.6 step 1).
func (q *Queue[K, V]) MoveToTail(it *itemhdr.Item[K, V]) {
	q.Remove(it)
	q.Enqueue(it)
}

// PopFront removes and returns the oldest item, or nil if the queue is
// empty. Caller-serialised, used by the size-cut loop.
func (q *Queue[K, V]) PopFront() *itemhdr.Item[K, V] {
	it := q.head.Load()
	if it == nil {
		return nil
	}
	q.Remove(it)
	return it
}

// Empty drops every reference the queue holds (used by Cache.Empty after it
// has already walked and released every item through the bucket map).
func (q *Queue[K, V]) Empty() {
	q.head.Store(nil)
	q.tail.Store(nil)
}
