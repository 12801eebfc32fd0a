// Package subtitlecache instantiates pkg/memocache's generic engine six
// times over, one per content-addressed artifact type in a subtitle
// rendering pipeline, grounded directly on the six CacheDesc literals in
// original_source/libass/ass_cache.c (font_cache_desc, outline_cache_desc,
// glyph_metrics_cache_desc, sized_shaper_font_cache_desc, bitmap_cache_desc,
// composite_cache_desc).
//
// None of the six types wraps a real font-rasterisation library (no cgo
// binding to FreeType/HarfBuzz is in scope here — see DESIGN.md); the value
// types below model the shape and size-accounting behaviour of the real
// artifacts (glyph outlines, rendered bitmaps, composited layers) closely
// enough to exercise every cross-cache reference and eviction rule the
// engine cares about.
//
// © 2025 subtitle-cache authors. MIT License.
package subtitlecache

// FontKey identifies an opened font face by family name plus the style bits
// libass's ASS_FontDesc carries (family.str, bold/italic flags, treat-as-
// vertical flag).
type FontKey struct {
	Family     string
	Weight     int32
	Italic     bool
	Vertical   bool
	ForceStyle bool
}

// Font is the opened face (spec §4.8 "Value is an opened font face").
// UnitsPerEM/Ascender/Descender stand in for the metrics a real face would
// report; NumGlyphs records how many distinct glyph indices this face is known
// to have, purely to give Construct something family-derived to compute.
type Font struct {
	Desc       FontKey
	UnitsPerEM int32
	Ascender   int32
	Descender  int32
	NumGlyphs  uint32
}

// OutlineKind tags which variant of OutlineKey is populated, mirroring
// ass_cache.c's OUTLINE_GLYPH/OUTLINE_DRAWING/OUTLINE_BORDER/OUTLINE_BOX.
type OutlineKind uint8

const (
	OutlineGlyph OutlineKind = iota
	OutlineDrawing
	OutlineBorder
	OutlineBox
)

// OutlineKey is the tagged-variant key from spec §4.8: a glyph (references a
// font), a vector drawing (owns a path string), a border-of-outline
// (references another outline), or an empty box (no payload).
type OutlineKey struct {
	Kind OutlineKind

	// OutlineGlyph
	Font       *Font
	GlyphIndex uint32
	ScaleX     int32 // 26.6 fixed-point
	ScaleY     int32

	// OutlineDrawing
	Path string

	// OutlineBorder
	Base    *Outline
	BorderX int32
	BorderY int32
}

// Point is a single 26.6 fixed-point outline vertex.
type Point struct {
	X, Y int32
}

// Contour is a closed sequence of points; Outline.Fill/Stroke each hold the
// contours that make up one filled shape.
type Contour struct {
	Points []Point
}

// Outline is the value half of the outline cache: fill and border vector
// shapes (spec §4.8 "pair of outlines (fill + border)").
type Outline struct {
	Fill   []Contour
	Stroke []Contour
}

// GlyphMetricsKey references a font plus a glyph id and transform (spec
// §4.8 "key references a font and carries a glyph id + transform").
type GlyphMetricsKey struct {
	Font       *Font
	GlyphIndex uint32
	ScaleX     int32
	ScaleY     int32
}

// Metrics is the resulting measurement record.
type Metrics struct {
	AdvanceX  int32
	AdvanceY  int32
	BearingX  int32
	BearingY  int32
	Width     int32
	Height    int32
}

// TextDirection selects the shaping direction a sized shaper font handle was
// built for (ass_cache.c's SizedShaperFontHashKey carries a direction flag
// alongside the font ref and point size).
type TextDirection uint8

const (
	DirectionLTR TextDirection = iota
	DirectionRTL
	DirectionTTB
)

// ShaperFontKey identifies a harfbuzz-style sized font handle: a font face
// sized to a point size for a given shaping direction (supplemented from
// original_source's sized_shaper_font_cache_desc; dropped by the
// distillation, see SPEC_FULL.md §4.8).
type ShaperFontKey struct {
	Font      *Font
	PointSize int32 // 26.6 fixed-point
	Direction TextDirection
}

// ShaperFont is the opaque sized-font handle a text shaper would consume.
type ShaperFont struct {
	Key       ShaperFontKey
	ScaleX    int32
	ScaleY    int32
}

// BitmapKey references a rendered outline plus the raster transform used to
// rasterise it (spec §4.8 "key references an outline and carries a raster
// transform").
type BitmapKey struct {
	Outline *Outline
	ScaleX  int32
	ScaleY  int32
	ShiftX  int32 // subpixel shift, 26.6 fixed-point
	ShiftY  int32
	Stroke  bool // rasterise the stroke contours instead of the fill
}

// Bitmap is a rendered, tightly-cropped 8-bit alpha raster.
type Bitmap struct {
	Width  int32
	Height int32
	Left   int32
	Top    int32
	Pixels []byte
}

// FilterSpec carries the blur/border-expand parameters applied when
// compositing (ass_cache.c's composite_hash folds a FilterDesc first).
type FilterSpec struct {
	BlurX       int32
	BlurY       int32
	BeStrength  int32
	FadeAlpha   uint8
}

// BitmapRef places one referenced bitmap within the composite (ass_cache.c's
// CompositeHashKey.bitmaps[], each a bitmap ref plus a placement offset).
type BitmapRef struct {
	Bitmap *Bitmap
	X, Y   int32
}

// CompositeKey is a filter spec plus an ordered set of bitmap references
// (spec §4.8 "filter spec plus a set of bitmap references").
type CompositeKey struct {
	Filter  FilterSpec
	Bitmaps []BitmapRef
}

// CompositeBitmap is the resulting three-layer composite (fill, stroke,
// blurred shadow), mirroring ass_cache.c's CompositeHashValue{bm, bm_o, bm_s}.
type CompositeBitmap struct {
	Fill   Bitmap
	Stroke Bitmap
	Shadow Bitmap
}
