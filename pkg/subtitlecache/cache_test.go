package subtitlecache

// cache_test.go exercises the concrete cache types' cross-cache reference
// counting and DAG pinning (spec §8 Scenario 4), grounded on the teacher's
// table-driven test style in pkg/cache_test.go.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"context"
	"testing"
)

func testRasterizer() Rasterizer {
	return Rasterizer{
		Fonts: nil,
		Tessellate: func(k OutlineKey) Outline {
			return Outline{Fill: []Contour{{Points: []Point{{X: 0, Y: 0}, {X: 100, Y: 100}}}}}
		},
		Measure: func(k GlyphMetricsKey) Metrics {
			return Metrics{AdvanceX: 640, Width: 600, Height: 800}
		},
		SizeShaper: func(k ShaperFontKey) ShaperFont {
			return ShaperFont{Key: k, ScaleX: k.PointSize, ScaleY: k.PointSize}
		},
		Rasterise: func(k BitmapKey) Bitmap {
			return Bitmap{Width: 16, Height: 16, Pixels: make([]byte, 256)}
		},
		Blend: func(k CompositeKey) CompositeBitmap {
			total := 0
			for _, ref := range k.Bitmaps {
				if ref.Bitmap != nil {
					total += len(ref.Bitmap.Pixels)
				}
			}
			return CompositeBitmap{Fill: Bitmap{Pixels: make([]byte, total)}}
		},
	}
}

func TestFontCacheMemoisesByStyle(t *testing.T) {
	sys, err := NewSystem(testRasterizer(), SystemOptions{})
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	defer sys.Done()

	cl := sys.Font.NewClient()
	defer cl.Close()

	k := FontKey{Family: "DejaVu Sans", Weight: 400}
	f1, err := cl.Get(context.Background(), k, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	f2, err := cl.Get(context.Background(), k, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if f1 != f2 {
		t.Fatalf("expected the same *Font pointer for the same FontKey")
	}
	sys.Font.DecRef(f1)
	sys.Font.DecRef(f2)
}

// TestCompositePinsEntireChain exercises spec §8 Scenario 4: building a
// composite value transitively pins its bitmap, which pins its outline,
// which pins its font, and releasing the composite's external handle
// releases the whole chain in turn.
func TestCompositePinsEntireChain(t *testing.T) {
	sys, err := NewSystem(testRasterizer(), SystemOptions{})
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	defer sys.Done()

	fontClient := sys.Font.NewClient()
	defer fontClient.Close()
	outlineClient := sys.Outline.NewClient()
	defer outlineClient.Close()
	bitmapClient := sys.Bitmap.NewClient()
	defer bitmapClient.Close()
	compositeClient := sys.Composite.NewClient()
	defer compositeClient.Close()

	font, err := fontClient.Get(context.Background(), FontKey{Family: "Noto Sans"}, nil)
	if err != nil {
		t.Fatalf("font Get: %v", err)
	}

	outlineKey := OutlineKey{Kind: OutlineGlyph, Font: font, GlyphIndex: 7}
	outline, err := outlineClient.Get(context.Background(), outlineKey, nil)
	if err != nil {
		t.Fatalf("outline Get: %v", err)
	}
	// The outline cache holds its own structural reference to font; our
	// local handle from fontClient.Get can be released immediately.
	sys.Font.DecRef(font)

	bitmapKey := BitmapKey{Outline: outline, ScaleX: 64, ScaleY: 64}
	bitmap, err := bitmapClient.Get(context.Background(), bitmapKey, nil)
	if err != nil {
		t.Fatalf("bitmap Get: %v", err)
	}
	sys.Outline.DecRef(outline)

	compositeKey := CompositeKey{Bitmaps: []BitmapRef{{Bitmap: bitmap}}}
	composite, err := compositeClient.Get(context.Background(), compositeKey, nil)
	if err != nil {
		t.Fatalf("composite Get: %v", err)
	}
	sys.Bitmap.DecRef(bitmap)

	// A size-0 cut leaves a just-created item alone for one frame (spec
	// §4.6's current-frame hard pin); calling Cut twice per cache advances
	// each cache's frame counter past that pin so the second call evicts
	// the item. Eviction ignores reference counts, but an evicted item that
	// another cache's key still references is not destructed, so it still
	// counts in Stats().Items.
	sys.Font.Cut(0)
	sys.Font.Cut(0)
	sys.Outline.Cut(0)
	sys.Outline.Cut(0)
	sys.Bitmap.Cut(0)
	sys.Bitmap.Cut(0)

	if got := sys.Bitmap.Stats().Items; got != 1 {
		t.Errorf("bitmap items after cut = %d, want 1 (pinned by composite)", got)
	}
	if got := sys.Outline.Stats().Items; got != 1 {
		t.Errorf("outline items after cut = %d, want 1 (pinned by bitmap)", got)
	}
	if got := sys.Font.Stats().Items; got != 1 {
		t.Errorf("font items after cut = %d, want 1 (pinned by outline)", got)
	}

	sys.Composite.DecRef(composite)
	sys.Composite.Cut(0)
	sys.Composite.Cut(0)

	if got := sys.Composite.Stats().Items; got != 0 {
		t.Errorf("composite items after DecRef+cut = %d, want 0", got)
	}

	// Destructing the composite released the whole chain in turn: the
	// bitmap, outline and font were already evicted, so each dropped its
	// last reference and was destructed. A further cut at budget 0 finds
	// nothing left to keep.
	sys.Bitmap.Cut(0)
	sys.Outline.Cut(0)
	sys.Font.Cut(0)

	if got := sys.Bitmap.Stats().Items; got != 0 {
		t.Errorf("bitmap items after chain release = %d, want 0", got)
	}
	if got := sys.Outline.Stats().Items; got != 0 {
		t.Errorf("outline items after chain release = %d, want 0", got)
	}
	if got := sys.Font.Stats().Items; got != 0 {
		t.Errorf("font items after chain release = %d, want 0", got)
	}
}

func TestShaperFontKeepsFontAlive(t *testing.T) {
	sys, err := NewSystem(testRasterizer(), SystemOptions{})
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	defer sys.Done()

	fontClient := sys.Font.NewClient()
	defer fontClient.Close()
	shaperClient := sys.ShaperFont.NewClient()
	defer shaperClient.Close()

	font, err := fontClient.Get(context.Background(), FontKey{Family: "Liberation Sans"}, nil)
	if err != nil {
		t.Fatalf("font Get: %v", err)
	}
	sys.Font.DecRef(font)
	sys.Font.Cut(0)
	if got := sys.Font.Stats().Items; got != 1 {
		t.Fatalf("font should still be reachable from its own bucket/queue before any shaper ref: items = %d", got)
	}

	shaperKey := ShaperFontKey{Font: font, PointSize: 64 << 6, Direction: DirectionLTR}
	_, err = shaperClient.Get(context.Background(), shaperKey, nil)
	if err != nil {
		t.Fatalf("shaper Get: %v", err)
	}

	sys.Font.Cut(0)
	if got := sys.Font.Stats().Items; got != 1 {
		t.Errorf("font items after shaper ref + cut = %d, want 1 (pinned by shaper font)", got)
	}
}
