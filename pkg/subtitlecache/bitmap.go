package subtitlecache

// bitmap.go is the bitmap cache: a rendered raster keyed by an outline
// reference plus the raster transform, grounded on ass_cache.c's
// BitmapHashKey/bitmap_hash/bitmap_compare/bitmap_key_move/
// bitmap_key_destruct/bitmap_destruct.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"unsafe"

	"github.com/rastercache/subtitle-cache/internal/hashkernel"
	"github.com/rastercache/subtitle-cache/pkg/memocache"
)

// NewBitmapCache builds the bitmap cache. rasterise renders key.Outline's
// fill or stroke contours at the requested scale/subpixel shift.
func NewBitmapCache(outlineCache *memocache.Cache[OutlineKey, Outline], rasterise func(BitmapKey) Bitmap, opts ...memocache.Option[BitmapKey, Bitmap]) (*memocache.Cache[BitmapKey, Bitmap], error) {
	desc := memocache.Descriptor[BitmapKey, Bitmap]{
		Hash: func(k BitmapKey) uint64 {
			h := identityHash(unsafe.Pointer(k.Outline))
			h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.ScaleX))))
			h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.ScaleY))))
			h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.ShiftX))))
			h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.ShiftY))))
			stroke := uint64(0)
			if k.Stroke {
				stroke = 1
			}
			return hashkernel.Combine(h, stroke)
		},
		Equal: func(a, b BitmapKey) bool { return a == b },
		KeyMove: func(dst *BitmapKey, src BitmapKey) bool {
			if dst == nil {
				outlineCache.DecRef(src.Outline)
				return true
			}
			*dst = src
			outlineCache.IncRef(src.Outline)
			return true
		},
		KeyDestruct: func(k BitmapKey) { outlineCache.DecRef(k.Outline) },
		Construct: func(key BitmapKey, value *Bitmap, _ any) int64 {
			*value = rasterise(key)
			return bitmapSize(value)
		},
		Destruct: func(key BitmapKey, value Bitmap) { outlineCache.DecRef(key.Outline) },
	}
	return memocache.New(desc, opts...)
}

func bitmapSize(b *Bitmap) int64 {
	size := int64(len(b.Pixels))
	if size < 1 {
		size = 1
	}
	return size
}
