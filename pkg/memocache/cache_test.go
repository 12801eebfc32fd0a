package memocache

// cache_test.go exercises the testable properties from spec §8, in the
// table-driven style the teacher uses in bench/bench_test.go and that
// sfjuggernaut-go-memcached/pkg/cache/cache_test.go uses for its LRU.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// intDescriptor builds a trivial descriptor over comparable int keys/values
// for scenarios that don't need cross-cache references.
func intDescriptor(constructCalls *atomic.Int64) Descriptor[int, int] {
	return Descriptor[int, int]{
		Hash: func(k int) uint64 { return uint64(k) },
		Equal: func(a, b int) bool {
			return a == b
		},
		KeyMove: func(dst *int, src int) bool {
			if dst != nil {
				*dst = src
			}
			return true
		},
		KeyDestruct: func(int) {},
		Construct: func(key int, value *int, _ any) int64 {
			if constructCalls != nil {
				constructCalls.Add(1)
			}
			*value = key * 2
			return 1
		},
		Destruct: func(int, int) {},
	}
}

func TestBasicMemoisation(t *testing.T) {
	var constructs atomic.Int64
	c, err := New(intDescriptor(&constructs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Done()

	cl := c.NewClient()
	defer cl.Close()

	keys := []int{1, 2, 1, 3, 2}
	for _, k := range keys {
		v, err := cl.Get(context.Background(), k, nil)
		if err != nil {
			t.Fatalf("Get(%d): %v", k, err)
		}
		if *v != k*2 {
			t.Fatalf("Get(%d) = %d, want %d", k, *v, k*2)
		}
		c.DecRef(v)
	}

	stats := c.Stats()
	if stats.Misses != 3 {
		t.Errorf("misses = %d, want 3", stats.Misses)
	}
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
	if stats.Size != 3 {
		t.Errorf("size = %d, want 3 (3 distinct keys, size==1 each)", stats.Size)
	}
	if constructs.Load() != 3 {
		t.Errorf("construct calls = %d, want 3", constructs.Load())
	}
}

func TestConstructionBarrierSingleConstruct(t *testing.T) {
	var constructs atomic.Int64
	desc := Descriptor[int, int]{
		Hash:  func(k int) uint64 { return uint64(k) },
		Equal: func(a, b int) bool { return a == b },
		KeyMove: func(dst *int, src int) bool {
			if dst != nil {
				*dst = src
			}
			return true
		},
		KeyDestruct: func(int) {},
		Construct: func(key int, value *int, _ any) int64 {
			constructs.Add(1)
			time.Sleep(50 * time.Millisecond)
			*value = key
			return 1
		},
		Destruct: func(int, int) {},
	}
	c, err := New(desc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Done()

	const n = 8
	results := make([]*int, n)
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cl := c.NewClient()
			defer cl.Close()
			v, err := cl.Get(context.Background(), 42, nil)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if constructs.Load() != 1 {
		t.Errorf("construct calls = %d, want 1", constructs.Load())
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Errorf("result[%d] = %p, want %p (same pointer)", i, results[i], results[0])
		}
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("elapsed = %v, want close to 50ms (not serialised)", elapsed)
	}
}

func TestEvictionRespectsCurrentFrame(t *testing.T) {
	desc := Descriptor[string, int]{
		Hash: func(k string) uint64 {
			h := uint64(0)
			for _, r := range k {
				h = h*131 + uint64(r)
			}
			return h
		},
		Equal: func(a, b string) bool { return a == b },
		KeyMove: func(dst *string, src string) bool {
			if dst != nil {
				*dst = src
			}
			return true
		},
		KeyDestruct: func(string) {},
		Construct: func(_ string, value *int, _ any) int64 {
			*value = 1
			return 10
		},
		Destruct: func(string, int) {},
	}
	c, err := New(desc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Done()

	cl := c.NewClient()
	defer cl.Close()

	a, _ := cl.Get(context.Background(), "A", nil)
	b, _ := cl.Get(context.Background(), "B", nil)
	cv, _ := cl.Get(context.Background(), "C", nil)
	c.DecRef(b)
	c.DecRef(cv)

	// End the insertion frame without evicting anything: A, B and C are all
	// stamped with it, so a cut within it would keep all three.
	c.Cut(math.MaxInt64)

	// Re-touch A in the new frame so it is pinned.
	a2, _ := cl.Get(context.Background(), "A", nil)
	if a2 != a {
		t.Fatalf("expected the same pointer for repeated Get(A)")
	}
	c.DecRef(a2)

	c.Cut(15)

	stats := c.Stats()
	if stats.Size != 10+headerBytes {
		t.Errorf("size after cut = %d, want %d (only A survives: size 10 plus header)", stats.Size, 10+headerBytes)
	}
	if stats.Items != 1 {
		t.Errorf("items after cut = %d, want 1", stats.Items)
	}
}

func TestLockFreeConcurrentInsertion(t *testing.T) {
	var constructs atomic.Int64
	c, err := New(intDescriptor(&constructs))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Done()

	const workers = 16
	const perWorker = 625 // 16*625 = 10000 distinct keys

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			cl := c.NewClient()
			defer cl.Close()
			for i := 0; i < perWorker; i++ {
				key := w*perWorker + i
				v, err := cl.Get(context.Background(), key, nil)
				if err != nil {
					t.Errorf("Get(%d): %v", key, err)
					continue
				}
				if *v != key*2 {
					t.Errorf("Get(%d) = %d, want %d", key, *v, key*2)
				}
				c.DecRef(v)
			}
		}(w)
	}
	wg.Wait()

	if got := c.Stats().Items; got != workers*perWorker {
		t.Errorf("items = %d, want %d", got, workers*perWorker)
	}
	if got := constructs.Load(); got != workers*perWorker {
		t.Errorf("construct calls = %d, want %d (no duplicated construction)", got, workers*perWorker)
	}
}

func TestShutdownWithOutstandingHandles(t *testing.T) {
	var destructs atomic.Int64
	desc := Descriptor[int, int]{
		Hash:  func(k int) uint64 { return uint64(k) },
		Equal: func(a, b int) bool { return a == b },
		KeyMove: func(dst *int, src int) bool {
			if dst != nil {
				*dst = src
			}
			return true
		},
		KeyDestruct: func(int) {},
		Construct: func(key int, value *int, _ any) int64 {
			*value = key
			return 1
		},
		Destruct: func(int, int) { destructs.Add(1) },
	}
	c, err := New(desc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cl := c.NewClient()
	v, err := cl.Get(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	cl.Close()

	c.Done()
	if destructs.Load() != 0 {
		t.Fatalf("destruct called before final DecRef: %d", destructs.Load())
	}

	c.DecRef(v)
	if destructs.Load() != 1 {
		t.Fatalf("destructs = %d, want exactly 1", destructs.Load())
	}
}
