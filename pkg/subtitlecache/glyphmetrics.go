package subtitlecache

// glyphmetrics.go is the glyph-metrics cache: keyed by a font reference plus
// glyph id and transform, grounded on ass_cache.c's GlyphMetricsHashKey/
// glyph_metrics_hash/glyph_metrics_compare/glyph_metrics_key_move/
// glyph_metrics_key_destruct.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"unsafe"

	"github.com/rastercache/subtitle-cache/internal/hashkernel"
	"github.com/rastercache/subtitle-cache/pkg/memocache"
)

// NewGlyphMetricsCache builds the glyph-metrics cache. measure derives the
// advance/bearing/extent of key.GlyphIndex at the requested scale from the
// referenced font.
func NewGlyphMetricsCache(fontCache *memocache.Cache[FontKey, Font], measure func(GlyphMetricsKey) Metrics, opts ...memocache.Option[GlyphMetricsKey, Metrics]) (*memocache.Cache[GlyphMetricsKey, Metrics], error) {
	desc := memocache.Descriptor[GlyphMetricsKey, Metrics]{
		Hash: func(k GlyphMetricsKey) uint64 {
			h := identityHash(unsafe.Pointer(k.Font))
			h = hashkernel.Combine(h, hashkernel.Uint64(uint64(k.GlyphIndex)))
			h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.ScaleX))))
			return hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.ScaleY))))
		},
		Equal: func(a, b GlyphMetricsKey) bool { return a == b },
		KeyMove: func(dst *GlyphMetricsKey, src GlyphMetricsKey) bool {
			if dst == nil {
				fontCache.DecRef(src.Font)
				return true
			}
			*dst = src
			fontCache.IncRef(src.Font)
			return true
		},
		KeyDestruct: func(k GlyphMetricsKey) { fontCache.DecRef(k.Font) },
		Construct: func(key GlyphMetricsKey, value *Metrics, _ any) int64 {
			*value = measure(key)
			return 1 // fixed-size record: opts out of header-overhead accounting
		},
		Destruct: func(key GlyphMetricsKey, value Metrics) { fontCache.DecRef(key.Font) },
	}
	return memocache.New(desc, opts...)
}
