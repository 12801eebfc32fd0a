package subtitlecache

// shaperfont.go is the sized-shaper-font cache: structurally identical to
// the glyph-metrics cache (a font reference plus a scalar transform, no
// further cross-cache edges), supplemented from original_source's
// sized_shaper_font_cache_desc — dropped by spec.md's distillation but a
// real, independent cache type in the original system (see SPEC_FULL.md
// §4.8). Grounded on ass_cache.c's SizedShaperFontHashKey/
// sized_shaper_font_hash/sized_shaper_font_compare/
// sized_shaper_font_key_move/sized_shaper_font_key_destruct.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"unsafe"

	"github.com/rastercache/subtitle-cache/internal/hashkernel"
	"github.com/rastercache/subtitle-cache/pkg/memocache"
)

// NewShaperFontCache builds the sized-shaper-font cache. size builds the
// opaque shaper handle for a font sized to key.PointSize in key.Direction.
func NewShaperFontCache(fontCache *memocache.Cache[FontKey, Font], size func(ShaperFontKey) ShaperFont, opts ...memocache.Option[ShaperFontKey, ShaperFont]) (*memocache.Cache[ShaperFontKey, ShaperFont], error) {
	desc := memocache.Descriptor[ShaperFontKey, ShaperFont]{
		Hash: func(k ShaperFontKey) uint64 {
			h := identityHash(unsafe.Pointer(k.Font))
			h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.PointSize))))
			return hashkernel.Combine(h, hashkernel.Uint64(uint64(k.Direction)))
		},
		Equal: func(a, b ShaperFontKey) bool { return a == b },
		KeyMove: func(dst *ShaperFontKey, src ShaperFontKey) bool {
			if dst == nil {
				fontCache.DecRef(src.Font)
				return true
			}
			*dst = src
			fontCache.IncRef(src.Font)
			return true
		},
		KeyDestruct: func(k ShaperFontKey) { fontCache.DecRef(k.Font) },
		Construct: func(key ShaperFontKey, value *ShaperFont, _ any) int64 {
			*value = size(key)
			return 1
		},
		Destruct: func(key ShaperFontKey, value ShaperFont) { fontCache.DecRef(key.Font) },
	}
	return memocache.New(desc, opts...)
}
