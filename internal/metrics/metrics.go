package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blog_api"

// Rate limiter outcomes.
const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
	DecisionError   = "error"
)

// Cache events.
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheStore      = "store"
	CacheInvalidate = "invalidate"
	CacheError      = "error"
)

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	rateLimitDecisions *prometheus.CounterVec
	cacheEvents        *prometheus.CounterVec
	cacheInvalidated   prometheus.Counter
	breakerState       *prometheus.GaugeVec
	blacklistPurged    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method"},
		),
		rateLimitDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_decisions_total",
				Help:      "Rate limiter decisions by outcome",
			},
			[]string{"outcome"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_events_total",
				Help:      "Response cache events",
			},
			[]string{"event"},
		),
		cacheInvalidated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_keys_invalidated_total",
				Help:      "Cache keys removed by invalidation",
			},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
		blacklistPurged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_blacklist_purged_total",
				Help:      "Expired blacklist rows removed by the worker",
			},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.rateLimitDecisions,
		m.cacheEvents,
		m.cacheInvalidated,
		m.breakerState,
		m.blacklistPurged,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) RateLimitDecision(outcome string) {
	if m == nil {
		return
	}
	m.rateLimitDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CacheEvent(event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) CacheKeysInvalidated(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheInvalidated.Add(float64(n))
}

func (m *Metrics) BreakerState(name string, severity float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(severity)
}

func (m *Metrics) BlacklistPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.blacklistPurged.Add(float64(n))
}
