package subtitlecache

// font.go is the font cache: a leaf type in the reference-count DAG (spec
// §9 "type stratification" — nothing in the font cache ever references
// another cache), grounded on ass_cache.c's font_cache_desc/font_key_move/
// font_key_destruct/font_destruct.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"context"

	"github.com/rastercache/subtitle-cache/internal/hashkernel"
	"github.com/rastercache/subtitle-cache/pkg/memocache"
)

// NewFontCache builds the font cache. source resolves a family name to font
// file bytes the (synthetic) constructor below derives placeholder metrics
// from; a nil source always falls through to the deterministic fallback
// (spec §7 "constructors that cannot make a value must still produce a
// sentinel value").
func NewFontCache(source FontSource, opts ...memocache.Option[FontKey, Font]) (*memocache.Cache[FontKey, Font], error) {
	var loader *fontByteLoader
	if source != nil {
		loader = newFontByteLoader(source)
	}

	desc := memocache.Descriptor[FontKey, Font]{
		Hash: func(k FontKey) uint64 {
			h := hashkernel.String(k.Family)
			h = hashkernel.Combine(h, hashkernel.Uint64(uint64(uint32(k.Weight))))
			flags := uint64(0)
			if k.Italic {
				flags |= 1
			}
			if k.Vertical {
				flags |= 2
			}
			if k.ForceStyle {
				flags |= 4
			}
			return hashkernel.Combine(h, flags)
		},
		Equal: func(a, b FontKey) bool { return a == b },
		KeyMove: func(dst *FontKey, src FontKey) bool {
			if dst != nil {
				*dst = src
			}
			return true
		},
		KeyDestruct: func(FontKey) {},
		Construct: func(key FontKey, value *Font, userCtx any) int64 {
			constructFont(loader, key, value, userCtx)
			return int64(glyphMetricsEstimate(value.NumGlyphs))
		},
		Destruct: func(key FontKey, value Font) {},
	}
	return memocache.New(desc, opts...)
}

// constructFont fills value with metrics derived from the family's bytes
// when a source is configured and resolves successfully, otherwise with
// fixed placeholder metrics that do not depend on the key — real glyph
// rasterisation is outside this module's scope (see DESIGN.md).
func constructFont(loader *fontByteLoader, key FontKey, value *Font, userCtx any) {
	ctx, _ := userCtx.(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}

	value.Desc = key
	value.UnitsPerEM = 2048
	value.Ascender = 1840
	value.Descender = -430
	value.NumGlyphs = 256

	if loader == nil {
		return
	}
	data, err := loader.load(ctx, key.Family)
	if err != nil || len(data) == 0 {
		return
	}
	// A real face would parse a head/hhea table here; we derive plausible,
	// content-dependent metrics from a cheap checksum of the bytes so
	// that distinct font files still produce distinct Font values.
	sum := hashkernel.Bytes(data)
	value.NumGlyphs = uint32(256 + sum%4096)
	value.UnitsPerEM = int32(1024 + (sum>>8)%3072)
	value.Ascender = value.UnitsPerEM * 9 / 10
	value.Descender = -(value.UnitsPerEM - value.Ascender)
}

// glyphMetricsEstimate stands in for a real face's approximate in-memory
// footprint (spec invariant 6: size must report at least 1).
func glyphMetricsEstimate(numGlyphs uint32) int64 {
	size := int64(numGlyphs)*32 + 512
	if size < 1 {
		size = 1
	}
	return size
}
