package memocache

// config.go defines the functional options accepted by New, in the same
// style as the teacher's pkg/config.go: a private config struct mutated by
// a slice of generic Option[K, V] values, validated once in New.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"
)

// defaultBucketCount matches spec §3's "on the order of 2¹⁶".
const defaultBucketCount = 1 << 16

// OnEvictFunc is invoked when a capacity cut evicts an item, with the
// key/value it still holds, before the cache drops its own reference (the
// item is destructed then only if no other reference remains). It is an
// ambient observability hook, not part of the core engine contract — e.g.
// for persisting evicted bitmaps to a disk-backed L2 store, mirroring the
// role of the teacher's EjectCallback. Must not block and must not call
// back into the cache that invoked it.
type OnEvictFunc[K comparable, V any] func(key K, value V)

// Option configures a Cache at construction time.
type Option[K comparable, V any] func(*config[K, V])

type config[K comparable, V any] struct {
	name        string
	bucketCount int
	logger      *zap.Logger
	registry    *prometheus.Registry
	onEvict     OnEvictFunc[K, V]
}

func defaultConfig[K comparable, V any](name string) *config[K, V] {
	return &config[K, V]{
		name:        name,
		bucketCount: defaultBucketCount,
		logger:      zap.NewNop(),
	}
}

// WithName labels the cache for metrics/logging (default: "cache"). Every
// concrete type in pkg/subtitlecache sets this to its own name.
func WithName[K comparable, V any](name string) Option[K, V] {
	return func(c *config[K, V]) {
		if name != "" {
			c.name = name
		}
	}
}

// WithBucketCount overrides the default bucket-array size. Rounded up to
// the next power of two by the bucket map.
func WithBucketCount[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) {
		c.bucketCount = n
	}
}

// WithLogger plugs an external zap.Logger. The cache never logs on the hot
// path; its only message is a debug-level "cache done" line from Done.
func WithLogger[K comparable, V any](l *zap.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection. Passing nil disables
// metrics (the default).
func WithMetrics[K comparable, V any](reg *prometheus.Registry) Option[K, V] {
	return func(c *config[K, V]) {
		c.registry = reg
	}
}

// WithOnEvict registers a callback invoked on every capacity-cut eviction.
func WithOnEvict[K comparable, V any](fn OnEvictFunc[K, V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.onEvict = fn
	}
}

func applyOptions[K comparable, V any](cfg *config[K, V], opts []Option[K, V]) error {
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.bucketCount <= 0 {
		return ErrInvalidBucketCount
	}
	return nil
}
