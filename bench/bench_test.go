// Package bench provides reproducible micro-benchmarks for the memocache
// engine. Run via: go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// The benchmarks use a single key/value shape so results are comparable
// across versions:
//   - Key   – uint64 (cheap hashing, fits in register)
//   - Value – 64-byte struct (large enough to matter, small enough for cache)
//
// We measure:
//  1. Get          – read-only workload after warm-up (all hits)
//  2. GetParallel  – highly concurrent reads (b.RunParallel)
//  3. ConstructionBarrier – N goroutines racing the same never-seen key
//  4. Cut          – capacity eviction over a fully warm cache
//
// NOTE: Unit tests live in pkg/memocache and pkg/subtitlecache; this file is
// only for performance.
//
// © 2025 subtitle-cache authors. MIT License.
package bench

import (
	"context"
	"math/rand"
	"runtime"
	"testing"

	"github.com/rastercache/subtitle-cache/pkg/memocache"
)

type value64 struct {
	_ [64]byte
}

const keys = 1 << 16 // 65536 keys for dataset

func newTestCache() *memocache.Cache[uint64, value64] {
	desc := memocache.Descriptor[uint64, value64]{
		Hash:        func(k uint64) uint64 { return k },
		Equal:       func(a, b uint64) bool { return a == b },
		KeyMove:     func(dst *uint64, src uint64) bool {
			if dst != nil {
				*dst = src
			}
			return true
		},
		KeyDestruct: func(uint64) {},
		Construct: func(key uint64, value *value64, _ any) int64 {
			return 64
		},
		Destruct: func(uint64, value64) {},
	}
	c, err := memocache.New(desc, memocache.WithBucketCount[uint64, value64](1<<18))
	if err != nil {
		panic(err)
	}
	return c
}

var ds = func() []uint64 {
	r := rand.New(rand.NewSource(42))
	arr := make([]uint64, keys)
	for i := range arr {
		arr[i] = r.Uint64()
	}
	return arr
}()

func BenchmarkGet(b *testing.B) {
	c := newTestCache()
	defer c.Done()
	cl := c.NewClient()
	defer cl.Close()
	for _, k := range ds {
		v, _ := cl.Get(context.Background(), k, nil)
		c.DecRef(v)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := ds[i&(keys-1)]
		v, _ := cl.Get(context.Background(), k, nil)
		c.DecRef(v)
	}
}

func BenchmarkGetParallel(b *testing.B) {
	c := newTestCache()
	defer c.Done()
	warm := c.NewClient()
	for _, k := range ds {
		v, _ := warm.Get(context.Background(), k, nil)
		c.DecRef(v)
	}
	warm.Close()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		cl := c.NewClient()
		defer cl.Close()
		idx := rand.Intn(keys)
		for pb.Next() {
			idx = (idx + 1) & (keys - 1)
			v, _ := cl.Get(context.Background(), ds[idx], nil)
			c.DecRef(v)
		}
	})
}

// BenchmarkConstructionBarrier measures the cost of N goroutines racing a
// single never-before-seen key: exactly one should run Construct, the rest
// should block on the creating client's barrier (spec §4.3).
func BenchmarkConstructionBarrier(b *testing.B) {
	const waiters = 32
	for i := 0; i < b.N; i++ {
		c := newTestCache()
		done := make(chan struct{}, waiters)
		for w := 0; w < waiters; w++ {
			go func() {
				cl := c.NewClient()
				defer cl.Close()
				v, _ := cl.Get(context.Background(), uint64(i), nil)
				c.DecRef(v)
				done <- struct{}{}
			}()
		}
		for w := 0; w < waiters; w++ {
			<-done
		}
		c.Done()
	}
}

func BenchmarkCut(b *testing.B) {
	c := newTestCache()
	defer c.Done()
	cl := c.NewClient()
	for _, k := range ds {
		v, _ := cl.Get(context.Background(), k, nil)
		c.DecRef(v)
	}
	cl.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Cut(int64(keys) * 64 / 2)
	}
}

func init() {
	runtime.GOMAXPROCS(runtime.NumCPU())
}
