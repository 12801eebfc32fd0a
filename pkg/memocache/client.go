package memocache

// client.go implements the per-consumer Client handle: the construction
// barrier wait, frame promotion, and the lookup-or-insert retry loop from
// spec §4.2-§4.4, grounded on ass_cache_get in
// original_source/libass/ass_cache.c.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"context"

	"github.com/rastercache/subtitle-cache/internal/bucketmap"
	"github.com/rastercache/subtitle-cache/internal/itemhdr"
)

// Client is a per-consumer handle onto a Cache (spec "Client handle"),
// typically one per worker goroutine. A Client must not be used from more
// than one goroutine at a time.
type Client[K comparable, V any] struct {
	cache   *Cache[K, V]
	idx     int
	barrier *itemhdr.Barrier

	// promoteFirst is this client's promote list: items touched this frame
	// that have not yet been re-linked into the global eviction queue.
	// Only ever touched by the goroutine currently owning this client, so
	// it needs no synchronisation of its own.
	promoteFirst *itemhdr.Item[K, V]

	closed bool
}

// Close detaches the client from its cache (spec `client_done`).
func (cl *Client[K, V]) Close() {
	if cl.closed {
		return
	}
	cl.closed = true
	cl.cache.detach(cl)
}

// Get looks up key, constructing it via the cache's descriptor on a miss
// (spec `get`). On success the returned pointer carries one reference that
// the caller must eventually release with Cache.DecRef. userCtx is passed
// through to Descriptor.Construct unchanged.
//
// ctx is checked once on entry: if it is already done, Get releases key and
// returns ctx's error without a lookup. It is not passed to Construct and
// interrupts neither a construction nor a wait for another goroutine's
// in-flight construction.
func (cl *Client[K, V]) Get(ctx context.Context, key K, userCtx any) (*V, error) {
	if cl.closed {
		cl.cache.desc.KeyMove(nil, key)
		return nil, ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		cl.cache.desc.KeyMove(nil, key)
		return nil, err
	}

	c := cl.cache
	desc := &c.desc

	hash := desc.Hash(key)
	slot := c.buckets.Slot(hash)

	equal := func(k K) bool { return desc.Equal(k, key) }

	start := slot.Load()
	var stop *itemhdr.Item[K, V]
	var newItem *itemhdr.Item[K, V]

	for {
		if found := bucketmap.Scan(start, stop, hash, equal); found != nil {
			if newItem != nil {
				desc.KeyDestruct(newItem.Key)
			} else {
				desc.KeyMove(nil, key)
			}
			return c.observeHit(cl, found), nil
		}

		stop = start

		if newItem == nil {
			newItem = itemhdr.New[K, V](hash, c.currentFrame.Load(), cl.barrier)
			if !desc.KeyMove(&newItem.Key, key) {
				desc.KeyMove(nil, key)
				return nil, ErrKeyMoveFailed
			}
		}

		newItem.Next.Store(start)
		if slot.CompareAndSwap(start, newItem) {
			bucketmap.LinkAfterInsert(slot, newItem, start)
			return c.construct(newItem, userCtx)
		}
		start = slot.Load()
	}
}

// observeHit runs the §4.4 frame-promotion step and then waits on the
// construction barrier if the hit landed on a still-constructing item,
// finally incrementing the returned handle's reference count.
func (c *Cache[K, V]) observeHit(cl *Client[K, V], it *itemhdr.Item[K, V]) *V {
	cur := c.currentFrame.Load()
	if it.LastUsedFrame.Load() != cur {
		if prev := it.LastUsedFrame.Swap(cur); prev != cur {
			it.PromoteNext = cl.promoteFirst
			cl.promoteFirst = it
		}
	}

	if it.Size.Load() == 0 {
		b := it.CreatingBarrier
		b.Mu.Lock()
		for it.Size.Load() == 0 {
			b.Cond.Wait()
		}
		b.Mu.Unlock()
	}

	it.RefCount.Add(1)
	c.hits.Add(1)
	c.metrics.incHit(c.name)
	return &it.Value
}

// construct runs the sole-constructor path for an item this client just
// won the bucket-insertion race for (spec §4.3).
func (c *Cache[K, V]) construct(it *itemhdr.Item[K, V], userCtx any) (*V, error) {
	c.queue.Enqueue(it)
	c.itemCount.Add(1)

	size := c.desc.Construct(it.Key, &it.Value, userCtx)
	if size <= 0 {
		panic(ErrZeroSize{CacheName: c.name})
	}

	c.totalSize.Add(c.sizeContribution(size))

	it.CreatingBarrier.Mu.Lock()
	it.Size.Store(size)
	it.CreatingBarrier.Mu.Unlock()
	it.CreatingBarrier.Cond.Broadcast()

	it.RefCount.Add(1) // the returned handle's reference
	c.misses.Add(1)
	c.metrics.incMiss(c.name)
	return &it.Value, nil
}
