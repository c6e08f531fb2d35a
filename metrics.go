package guardian

import (
	"sync/atomic"
	"time"
)

// MetricID indexes one in-process counter.
type MetricID uint16

const (
	MetricResolveAuthenticated MetricID = iota
	MetricResolveAnonymous
	MetricResolveMalformed
	MetricResolveInvalidSignature
	MetricResolveExpired
	MetricResolveValidation
	MetricResolveUserNotFound
	MetricResolveTokenMismatch
	MetricAttemptSuccess
	MetricAttemptFailure
	MetricAttemptUnknownUser
	MetricAttemptRateLimited
	MetricTokenCreated
	MetricTokenRevoked
	MetricAuthorizeAllowed
	MetricAuthorizeDenied
	MetricAdminDenied
	// Histograms. Their counters stay zero.
	MetricResolveLatency
	MetricAttemptLatency
	metricIDCount
)

const cacheLineSize = 64

// paddedCounter keeps each hot counter on its own cache line.
type paddedCounter struct {
	atomic.Uint64
	_ [cacheLineSize - 8]byte
}

// latency is one histogram; the final bucket is unbounded.
type latency [len(HistogramBucketBounds) + 1]atomic.Uint64

// Metrics holds lock-free counters and latency histograms for guard
// outcomes. A nil *Metrics is a valid no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	resolve       latency
	attempt       latency
}

// MetricsSnapshot is a point-in-time copy of every counter. Histograms holds
// one slice of [HistogramBucketBounds]+1 buckets per latency metric.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// HistogramBucketBounds are the upper bounds of the latency buckets. They
// span a cached resolve at the low end and a password hash at the high end.
var HistogramBucketBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// NewMetrics allocates counters according to cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount || isHistogram(id) {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d in the histogram of id. Counter ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() {
		return
	}
	if h := m.histogram(id); h != nil {
		h[bucketIndex(d)].Add(1)
	}
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies every counter. Disabled metrics yield empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if !isHistogram(id) {
			s.Counters[id] = m.counters[id].Load()
		}
	}
	if m.enableLatency {
		for _, id := range []MetricID{MetricResolveLatency, MetricAttemptLatency} {
			h := m.histogram(id)
			buckets := make([]uint64, len(h))
			for i := range h {
				buckets[i] = h[i].Load()
			}
			s.Histograms[id] = buckets
		}
	}
	return s
}

func (m *Metrics) histogram(id MetricID) *latency {
	switch id {
	case MetricResolveLatency:
		return &m.resolve
	case MetricAttemptLatency:
		return &m.attempt
	default:
		return nil
	}
}

func isHistogram(id MetricID) bool {
	return id == MetricResolveLatency || id == MetricAttemptLatency
}

func bucketIndex(d time.Duration) int {
	for i, bound := range HistogramBucketBounds {
		if d <= bound {
			return i
		}
	}
	return len(HistogramBucketBounds)
}
