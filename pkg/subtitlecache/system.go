package subtitlecache

// system.go wires the six concrete caches together in construction order
// (font before everything that references it, outline before bitmap,
// bitmap before composite — spec §9's type stratification), the Go
// equivalent of libass's ass_renderer_init calling
// ass_font_cache_create/ass_outline_cache_create/.../ass_composite_cache_create
// in sequence.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rastercache/subtitle-cache/pkg/memocache"
)

// Rasterizer supplies the opaque, user-defined constructors the engine
// invokes but does not define (spec §1 "These are opaque user-supplied
// functions; the core invokes them but does not define them").
type Rasterizer struct {
	Fonts      FontSource
	Tessellate func(OutlineKey) Outline
	Measure    func(GlyphMetricsKey) Metrics
	SizeShaper func(ShaperFontKey) ShaperFont
	Rasterise  func(BitmapKey) Bitmap
	Blend      func(CompositeKey) CompositeBitmap
}

// System owns one instance of every cache type, ready for use by a single
// rendering pipeline.
type System struct {
	Font         *memocache.Cache[FontKey, Font]
	Outline      *memocache.Cache[OutlineKey, Outline]
	GlyphMetrics *memocache.Cache[GlyphMetricsKey, Metrics]
	ShaperFont   *memocache.Cache[ShaperFontKey, ShaperFont]
	Bitmap       *memocache.Cache[BitmapKey, Bitmap]
	Composite    *memocache.Cache[CompositeKey, CompositeBitmap]
}

// SystemOptions configures the ambient stack (logging, metrics) shared
// across all six caches built by NewSystem.
type SystemOptions struct {
	Logger        *zap.Logger
	Registry      *prometheus.Registry
	OnEvictBitmap OnEvictBitmapFunc
}

// OnEvictBitmapFunc observes a bitmap just before it is capacity-evicted
// (e.g. to spill it to a disk-backed second tier).
type OnEvictBitmapFunc func(key BitmapKey, value Bitmap)

// NewSystem constructs all six caches in dependency order. r supplies every
// opaque constructor; opts configures the ambient stack.
func NewSystem(r Rasterizer, opts SystemOptions) (*System, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fontCache, err := NewFontCache(r.Fonts,
		memocache.WithName[FontKey, Font]("font"),
		memocache.WithLogger[FontKey, Font](logger),
		withMetrics[FontKey, Font](opts.Registry),
	)
	if err != nil {
		return nil, err
	}

	outlineCache, err := NewOutlineCache(fontCache, r.Tessellate,
		memocache.WithName[OutlineKey, Outline]("outline"),
		memocache.WithLogger[OutlineKey, Outline](logger),
		withMetrics[OutlineKey, Outline](opts.Registry),
	)
	if err != nil {
		return nil, err
	}

	glyphMetricsCache, err := NewGlyphMetricsCache(fontCache, r.Measure,
		memocache.WithName[GlyphMetricsKey, Metrics]("glyph_metrics"),
		memocache.WithLogger[GlyphMetricsKey, Metrics](logger),
		withMetrics[GlyphMetricsKey, Metrics](opts.Registry),
	)
	if err != nil {
		return nil, err
	}

	shaperFontCache, err := NewShaperFontCache(fontCache, r.SizeShaper,
		memocache.WithName[ShaperFontKey, ShaperFont]("shaper_font"),
		memocache.WithLogger[ShaperFontKey, ShaperFont](logger),
		withMetrics[ShaperFontKey, ShaperFont](opts.Registry),
	)
	if err != nil {
		return nil, err
	}

	var bitmapEvictOpt memocache.Option[BitmapKey, Bitmap]
	if opts.OnEvictBitmap != nil {
		bitmapEvictOpt = memocache.WithOnEvict[BitmapKey, Bitmap](memocache.OnEvictFunc[BitmapKey, Bitmap](opts.OnEvictBitmap))
	}
	bitmapOpts := []memocache.Option[BitmapKey, Bitmap]{
		memocache.WithName[BitmapKey, Bitmap]("bitmap"),
		memocache.WithLogger[BitmapKey, Bitmap](logger),
		withMetrics[BitmapKey, Bitmap](opts.Registry),
	}
	if bitmapEvictOpt != nil {
		bitmapOpts = append(bitmapOpts, bitmapEvictOpt)
	}
	bitmapCache, err := NewBitmapCache(outlineCache, r.Rasterise, bitmapOpts...)
	if err != nil {
		return nil, err
	}

	compositeCache, err := NewCompositeCache(bitmapCache, r.Blend,
		memocache.WithName[CompositeKey, CompositeBitmap]("composite"),
		memocache.WithLogger[CompositeKey, CompositeBitmap](logger),
		withMetrics[CompositeKey, CompositeBitmap](opts.Registry),
	)
	if err != nil {
		return nil, err
	}

	return &System{
		Font:         fontCache,
		Outline:      outlineCache,
		GlyphMetrics: glyphMetricsCache,
		ShaperFont:   shaperFontCache,
		Bitmap:       bitmapCache,
		Composite:    compositeCache,
	}, nil
}

// withMetrics just forwards to memocache.WithMetrics; a nil registry is
// already handled there (Cache falls back to a no-op sink).
func withMetrics[K comparable, V any](reg *prometheus.Registry) memocache.Option[K, V] {
	return memocache.WithMetrics[K, V](reg)
}

// Done tears down every cache in reverse dependency order (composite first,
// font last), mirroring how a renderer shutdown would release consumers
// before their dependencies.
func (s *System) Done() {
	s.Composite.Done()
	s.Bitmap.Done()
	s.ShaperFont.Done()
	s.GlyphMetrics.Done()
	s.Outline.Done()
	s.Font.Done()
}
