package subtitlecache

// composite.go is the composite cache: a filter spec plus an ordered set of
// bitmap references, grounded on ass_cache.c's CompositeHashKey/
// composite_hash/composite_compare/composite_key_move/
// composite_key_destruct/composite_destruct. This is the root of the
// reference-count DAG (spec §9: composite → bitmap → outline → font);
// nothing references a composite cache entry in turn.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"unsafe"

	"github.com/rastercache/subtitle-cache/internal/hashkernel"
	"github.com/rastercache/subtitle-cache/pkg/memocache"
)

// NewCompositeCache builds the composite cache. blend produces the three
// composited layers (fill, stroke, blurred shadow) from key's referenced
// bitmaps and filter parameters.
func NewCompositeCache(bitmapCache *memocache.Cache[BitmapKey, Bitmap], blend func(CompositeKey) CompositeBitmap, opts ...memocache.Option[CompositeKey, CompositeBitmap]) (*memocache.Cache[CompositeKey, CompositeBitmap], error) {
	desc := memocache.Descriptor[CompositeKey, CompositeBitmap]{
		Hash: func(k CompositeKey) uint64 {
			h := hashFilter(k.Filter)
			for _, ref := range k.Bitmaps {
				h = hashkernel.Combine(h, identityHash(unsafe.Pointer(ref.Bitmap)))
				h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(ref.X))))
				h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(ref.Y))))
			}
			return h
		},
		Equal: func(a, b CompositeKey) bool {
			if a.Filter != b.Filter || len(a.Bitmaps) != len(b.Bitmaps) {
				return false
			}
			for i := range a.Bitmaps {
				if a.Bitmaps[i] != b.Bitmaps[i] {
					return false
				}
			}
			return true
		},
		KeyMove: func(dst *CompositeKey, src CompositeKey) bool {
			if dst == nil {
				for _, ref := range src.Bitmaps {
					bitmapCache.DecRef(ref.Bitmap)
				}
				return true
			}
			dst.Filter = src.Filter
			dst.Bitmaps = make([]BitmapRef, len(src.Bitmaps))
			copy(dst.Bitmaps, src.Bitmaps)
			for _, ref := range dst.Bitmaps {
				bitmapCache.IncRef(ref.Bitmap)
			}
			return true
		},
		KeyDestruct: func(k CompositeKey) {
			for _, ref := range k.Bitmaps {
				bitmapCache.DecRef(ref.Bitmap)
			}
		},
		Construct: func(key CompositeKey, value *CompositeBitmap, _ any) int64 {
			*value = blend(key)
			return compositeSize(value)
		},
		Destruct: func(key CompositeKey, value CompositeBitmap) {
			for _, ref := range key.Bitmaps {
				bitmapCache.DecRef(ref.Bitmap)
			}
		},
	}
	return memocache.New(desc, opts...)
}

func hashFilter(f FilterSpec) uint64 {
	h := hashkernel.Uint64(uint64(uint32(f.BlurX)))
	h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(f.BlurY))))
	h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(f.BeStrength))))
	return hashkernel.Combine(h, hashkernel.Uint64(uint64(f.FadeAlpha)))
}

func compositeSize(c *CompositeBitmap) int64 {
	size := int64(len(c.Fill.Pixels) + len(c.Stroke.Pixels) + len(c.Shadow.Pixels))
	if size < 1 {
		size = 1
	}
	return size
}
