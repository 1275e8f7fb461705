package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const metricsNamespace = "edutrack"

// Login outcomes reported by the authenticator.
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginUnavailable = "unavailable"
	LoginError       = "error"
)

// running keeps a count and a summed duration for the JSON snapshot.
type running struct {
	count atomic.Uint64
	nanos atomic.Uint64
}

func (r *running) add(d time.Duration) {
	r.count.Add(1)
	r.nanos.Add(uint64(d.Nanoseconds()))
}

func (r *running) averageMs() float64 {
	n := r.count.Load()
	if n == 0 {
		return 0
	}
	return float64(r.nanos.Load()) / float64(n) / float64(time.Millisecond)
}

// MetricsService owns the Prometheus registry of the API and a small set of
// in-process totals served by GET /system/metrics.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration  *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	cacheSeconds  *prometheus.HistogramVec
	queryDuration *prometheus.HistogramVec
	logins        *prometheus.CounterVec
	sessions      *prometheus.CounterVec

	requests  running
	queries   running
	hits      atomic.Uint64
	misses    atomic.Uint64
	loginOK   atomic.Uint64
	loginFail atomic.Uint64
}

// NewMetricsService registers the EduTrack collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Redis cache lookups by result.",
		}, []string{"result"}),
		cacheSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "operation_seconds",
			Help:      "Redis cache operation latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"op"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Latency of instrumented database queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "sessions_total",
			Help:      "Hydrated sessions by kind.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.httpDuration,
		m.cacheLookups,
		m.cacheSeconds,
		m.queryDuration,
		m.logins,
		m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one finished request. route is the gin route
// template, not the raw path, to keep label cardinality bounded.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	m.requests.add(duration)
}

// RecordCacheOperation counts a cache lookup as a hit or a miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheSeconds.WithLabelValues("get").Observe(duration.Seconds())
}

// ObserveCacheWrite records the latency of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheSeconds.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveDBQuery records the latency of a named query.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.queries.add(duration)
}

// RecordLogin counts a sign-in attempt by outcome.
func (m *MetricsService) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
	switch outcome {
	case LoginSuccess:
		m.loginOK.Add(1)
	case LoginFailure:
		m.loginFail.Add(1)
	}
}

// RecordSession counts hydrated sessions by kind (valid, degraded, error, refreshed).
func (m *MetricsService) RecordSession(kind string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(kind).Inc()
}

// Snapshot summarises the in-process totals.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.hits.Load(), m.misses.Load()
	snapshot := models.SystemMetrics{
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            m.requests.count.Load(),
		AverageRequestDurationMs: m.requests.averageMs(),
		DBQueryCount:             m.queries.count.Load(),
		AverageDBQueryDurationMs: m.queries.averageMs(),
		LoginSuccesses:           m.loginOK.Load(),
		LoginFailures:            m.loginFail.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
	if lookups := hits + misses; lookups > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(lookups)
	}
	return snapshot
}
