package memocache

// metrics.go mirrors the teacher's pkg/metrics.go: a thin metricsSink
// abstraction so a Cache can be used with or without Prometheus, with a
// no-op implementation on the hot path when the caller never opts in via
// WithMetrics.
//
// © 2025 subtitle-cache authors. MIT License.

import "github.com/prometheus/client_golang/prometheus"

// metricsSink is the internal backend interface; Cache only ever talks to
// this, never to *prometheus.* directly.
type metricsSink interface {
	incHit(name string)
	incMiss(name string)
	incEvict(name string)
	setItems(name string, n int64)
	setBytes(name string, n int64)
}

type noopMetrics struct{}

func (noopMetrics) incHit(string)          {}
func (noopMetrics) incMiss(string)         {}
func (noopMetrics) incEvict(string)        {}
func (noopMetrics) setItems(string, int64) {}
func (noopMetrics) setBytes(string, int64) {}

type promMetrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	evictions *prometheus.CounterVec
	items     *prometheus.GaugeVec
	bytes     *prometheus.GaugeVec
}

// registerPromMetrics builds the collector set for reg, or reuses the
// collectors an earlier memocache instance already registered there, so
// every instance registered against reg shares one set. Unlike arena-cache's per-shard labelled
// metrics, subtitle-cache instances are labelled by cache *name* (font,
// outline, bitmap, ...) since there is one Cache per type, not one per
// shard.
func registerPromMetrics(reg *prometheus.Registry) *promMetrics {
	label := []string{"cache"}
	pm := &promMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subtitle_cache",
			Name:      "hits_total",
			Help:      "Number of cache hits.",
		}, label),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subtitle_cache",
			Name:      "misses_total",
			Help:      "Number of cache misses (constructions performed).",
		}, label),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subtitle_cache",
			Name:      "evictions_total",
			Help:      "Number of items evicted by a size cut.",
		}, label),
		items: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "subtitle_cache",
			Name:      "items",
			Help:      "Number of items currently resident.",
		}, label),
		bytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "subtitle_cache",
			Name:      "bytes",
			Help:      "Total size-contribution bytes currently resident.",
		}, label),
	}
	reuse := func(c prometheus.Collector) prometheus.Collector {
		if err := reg.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return are.ExistingCollector
			}
			panic(err)
		}
		return c
	}
	pm.hits = reuse(pm.hits).(*prometheus.CounterVec)
	pm.misses = reuse(pm.misses).(*prometheus.CounterVec)
	pm.evictions = reuse(pm.evictions).(*prometheus.CounterVec)
	pm.items = reuse(pm.items).(*prometheus.GaugeVec)
	pm.bytes = reuse(pm.bytes).(*prometheus.GaugeVec)
	return pm
}

func (m *promMetrics) incHit(name string)  { m.hits.WithLabelValues(name).Inc() }
func (m *promMetrics) incMiss(name string) { m.misses.WithLabelValues(name).Inc() }
func (m *promMetrics) incEvict(name string) {
	m.evictions.WithLabelValues(name).Inc()
}
func (m *promMetrics) setItems(name string, n int64) {
	m.items.WithLabelValues(name).Set(float64(n))
}
func (m *promMetrics) setBytes(name string, n int64) {
	m.bytes.WithLabelValues(name).Set(float64(n))
}
