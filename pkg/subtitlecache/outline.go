package subtitlecache

// outline.go is the outline cache: a tagged-variant key (glyph, drawing,
// border, box) grounded on ass_cache.c's OutlineHashKey/outline_hash/
// outline_compare/outline_key_move/outline_key_destruct. The glyph variant
// references the font cache; the border variant references another item in
// this same cache (a strictly "earlier" item in construction order, not a
// descriptor cycle — spec §9).
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"unsafe"

	"github.com/rastercache/subtitle-cache/internal/hashkernel"
	"github.com/rastercache/subtitle-cache/pkg/memocache"
)

// identityHash hashes a pointer by its address, mirroring ass_cache.c's
// practice of hashing/comparing cross-cache references by pointer identity:
// two keys referencing the "same" font or outline always share one pointer,
// because the referenced cache itself de-duplicates construction.
func identityHash(p unsafe.Pointer) uint64 {
	return hashkernel.Uint64(uint64(uintptr(p)))
}

// NewOutlineCache builds the outline cache. fontCache is used to inc/dec-ref
// glyph-variant keys' referenced font; the outline cache itself is passed
// back in via a self-reference assigned once memocache.New returns,
// needed only for the border variant's base-outline ref-counting.
func NewOutlineCache(fontCache *memocache.Cache[FontKey, Font], tessellate func(OutlineKey) Outline, opts ...memocache.Option[OutlineKey, Outline]) (*memocache.Cache[OutlineKey, Outline], error) {
	var self *memocache.Cache[OutlineKey, Outline]

	desc := memocache.Descriptor[OutlineKey, Outline]{
		Hash: func(k OutlineKey) uint64 {
			switch k.Kind {
			case OutlineGlyph:
				h := hashkernel.Combine(uint64(k.Kind), identityHash(unsafe.Pointer(k.Font)))
				h = hashkernel.Combine(h, hashkernel.Uint64(uint64(k.GlyphIndex)))
				h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.ScaleX))))
				return hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.ScaleY))))
			case OutlineDrawing:
				return hashkernel.Combine(uint64(k.Kind), hashkernel.String(k.Path))
			case OutlineBorder:
				h := hashkernel.Combine(uint64(k.Kind), identityHash(unsafe.Pointer(k.Base)))
				h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.BorderX))))
				return hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.BorderY))))
			default: // OutlineBox
				return hashkernel.Uint64(uint64(k.Kind))
			}
		},
		Equal: func(a, b OutlineKey) bool {
			if a.Kind != b.Kind {
				return false
			}
			switch a.Kind {
			case OutlineGlyph:
				return a.Font == b.Font && a.GlyphIndex == b.GlyphIndex &&
					a.ScaleX == b.ScaleX && a.ScaleY == b.ScaleY
			case OutlineDrawing:
				return a.Path == b.Path
			case OutlineBorder:
				return a.Base == b.Base && a.BorderX == b.BorderX && a.BorderY == b.BorderY
			default: // OutlineBox
				return true
			}
		},
		KeyMove: func(dst *OutlineKey, src OutlineKey) bool {
			if dst == nil {
				keyDestruct(self, fontCache, src)
				return true
			}
			*dst = src
			switch src.Kind {
			case OutlineBorder:
				self.IncRef(src.Base)
			case OutlineGlyph:
				fontCache.IncRef(src.Font)
			}
			return true
		},
		KeyDestruct: func(k OutlineKey) {
			keyDestruct(self, fontCache, k)
		},
		Construct: func(key OutlineKey, value *Outline, _ any) int64 {
			*value = tessellate(key)
			return outlineSize(value)
		},
		Destruct: func(key OutlineKey, value Outline) {
			keyDestruct(self, fontCache, key)
		},
	}

	c, err := memocache.New(desc, opts...)
	if err != nil {
		return nil, err
	}
	self = c
	return c, nil
}

func keyDestruct(outlines *memocache.Cache[OutlineKey, Outline], fonts *memocache.Cache[FontKey, Font], k OutlineKey) {
	switch k.Kind {
	case OutlineBorder:
		outlines.DecRef(k.Base)
	case OutlineGlyph:
		fonts.DecRef(k.Font)
	}
}

func outlineSize(o *Outline) int64 {
	points := 0
	for _, c := range o.Fill {
		points += len(c.Points)
	}
	for _, c := range o.Stroke {
		points += len(c.Points)
	}
	size := int64(points)*8 + 64
	if size < 1 {
		size = 1
	}
	return size
}
