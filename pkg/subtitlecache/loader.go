package subtitlecache

// loader.go de-duplicates the one genuinely expensive, cacheable-but-not-
// cached step that sits in front of the font cache: resolving a family name
// to the raw bytes of a font file. Construct itself must be side-effect-free
// with respect to any Cache (pkg/memocache's own construction barrier
// already serialises concurrent Construct calls for the same key), but nothing
// stops two different FontKeys — say, regular and bold-italic of the same
// family — from both wanting to read the same file off disk at once.
// fontByteLoader wraps that lookup in a golang.org/x/sync/singleflight
// group keyed by family name, directly grounded on the teacher's
// pkg/loader.go loaderGroup, which wraps the same primitive around its own
// LoaderFunc.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// FontSource resolves a font family name to the raw bytes of a font file.
// Implementations must be safe for concurrent use; the same family may be
// requested concurrently by several FontKeys (regular/bold/italic variants).
type FontSource interface {
	OpenFamily(ctx context.Context, family string) ([]byte, error)
}

// FontSourceFunc adapts a plain function to FontSource.
type FontSourceFunc func(ctx context.Context, family string) ([]byte, error)

// OpenFamily implements FontSource.
func (f FontSourceFunc) OpenFamily(ctx context.Context, family string) ([]byte, error) {
	return f(ctx, family)
}

// fontByteLoader de-duplicates concurrent OpenFamily calls for the same
// family name across every FontKey variant that shares it.
type fontByteLoader struct {
	source FontSource
	group  singleflight.Group
}

func newFontByteLoader(source FontSource) *fontByteLoader {
	return &fontByteLoader{source: source}
}

// load resolves family's bytes, running OpenFamily at most once per family
// no matter how many goroutines request it concurrently.
func (l *fontByteLoader) load(ctx context.Context, family string) ([]byte, error) {
	v, err, _ := l.group.Do(family, func() (any, error) {
		return l.source.OpenFamily(ctx, family)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
