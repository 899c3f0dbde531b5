package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/careers-admin-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	bulkActions     *prometheus.CounterVec
	bulkSize        prometheus.Histogram
	staleFetches    prometheus.Counter
	draftSaves      *prometheus.CounterVec
	wizardSessions  prometheus.Gauge
	submissions     prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	bulkCount            uint64
	bulkFailureCount     uint64
	draftSaveCount       uint64
	draftFailureCount    uint64
	submissionCount      uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	bulkActions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_bulk_actions_total",
		Help: "Bulk reviewer actions by action and result",
	}, []string{"action", "result"})

	bulkSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "review_bulk_action_size",
		Help:    "Number of records targeted per bulk action",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})

	staleFetches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "review_stale_fetches_total",
		Help: "Refetch results discarded because a newer fetch had already been applied",
	})

	draftSaves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_draft_saves_total",
		Help: "Debounced draft writes by result",
	}, []string{"result"})

	wizardSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wizard_sessions_active",
		Help: "Live application wizard sessions",
	})

	submissions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wizard_applications_submitted_total",
		Help: "Applications submitted through the wizard",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration, bulkActions, bulkSize, staleFetches, draftSaves, wizardSessions, submissions, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		bulkActions:     bulkActions,
		bulkSize:        bulkSize,
		staleFetches:    staleFetches,
		draftSaves:      draftSaves,
		wizardSessions:  wizardSessions,
		submissions:     submissions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordBulkAction counts one bulk action over size records.
func (m *MetricsService) RecordBulkAction(action string, size int, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
		atomic.AddUint64(&m.bulkFailureCount, 1)
	}
	m.bulkActions.WithLabelValues(action, result).Inc()
	m.bulkSize.Observe(float64(size))
	atomic.AddUint64(&m.bulkCount, 1)
}

// RecordStaleFetch counts a discarded out-of-order refetch.
func (m *MetricsService) RecordStaleFetch() {
	if m == nil {
		return
	}
	m.staleFetches.Inc()
}

// RecordDraftSave counts one debounced draft write.
func (m *MetricsService) RecordDraftSave(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.draftSaves.WithLabelValues("success").Inc()
		atomic.AddUint64(&m.draftSaveCount, 1)
		return
	}
	m.draftSaves.WithLabelValues("failure").Inc()
	atomic.AddUint64(&m.draftFailureCount, 1)
}

// SetWizardSessions reports the number of live wizard sessions.
func (m *MetricsService) SetWizardSessions(n int) {
	if m == nil {
		return
	}
	m.wizardSessions.Set(float64(n))
}

// RecordSubmission counts a submitted application.
func (m *MetricsService) RecordSubmission() {
	if m == nil {
		return
	}
	m.submissions.Inc()
	atomic.AddUint64(&m.submissionCount, 1)
}

// Snapshot returns aggregated metrics suitable for the admin summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		BulkActions:              atomic.LoadUint64(&m.bulkCount),
		BulkFailures:             atomic.LoadUint64(&m.bulkFailureCount),
		DraftSaves:               atomic.LoadUint64(&m.draftSaveCount),
		DraftSaveFailures:        atomic.LoadUint64(&m.draftFailureCount),
		ApplicationsSubmitted:    atomic.LoadUint64(&m.submissionCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
