package memocache

import "errors"

// Configuration errors (returned by New) and per-call errors
// (ErrKeyMoveFailed, ErrClientClosed, returned by Client.Get): caller
// mistakes or failures, always recoverable — returned rather than
// panicked, matching the teacher's pkg/config.go split
// between "caller can recover" (option validation) and "programmer bug"
// (contract violations, see ErrZeroSize below).
var (
	ErrInvalidBucketCount = errors.New("memocache: bucket count must be > 0")
	ErrNilDescriptor      = errors.New("memocache: descriptor must not be nil")
	ErrMissingHash        = errors.New("memocache: descriptor.Hash must not be nil")
	ErrMissingEqual       = errors.New("memocache: descriptor.Equal must not be nil")
	ErrMissingKeyMove     = errors.New("memocache: descriptor.KeyMove must not be nil")
	ErrMissingKeyDestruct = errors.New("memocache: descriptor.KeyDestruct must not be nil")
	ErrMissingConstruct   = errors.New("memocache: descriptor.Construct must not be nil")
	ErrMissingDestruct    = errors.New("memocache: descriptor.Destruct must not be nil")
	ErrKeyMoveFailed      = errors.New("memocache: key move failed")
	ErrClientClosed       = errors.New("memocache: client is closed")
)

// ErrZeroSize is panicked (not returned) when Descriptor.Construct reports a
// size of 0. Spec §7 classifies this as a descriptor contract violation —
// "programming error; may be asserted" — not a recoverable error, matching
// ass_cache.c's `assert(size)` after calling construct_func.
type ErrZeroSize struct {
	CacheName string
}

func (e ErrZeroSize) Error() string {
	if e.CacheName == "" {
		return "memocache: Construct reported size 0"
	}
	return "memocache[" + e.CacheName + "]: Construct reported size 0"
}
