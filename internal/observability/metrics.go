package observability

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

const (
	namespace = "findable"
	subsystem = "metrics"
)

// Metrics holds every Prometheus collector the service exports. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	sessionsProcessed *prometheus.CounterVec
	recordsWritten    prometheus.Counter
	sessionLatency    prometheus.Histogram

	sweepRuns      *prometheus.CounterVec
	sweepLastBatch prometheus.Gauge

	realtimeRequests *prometheus.CounterVec
	realtimeResults  prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide collectors once on a private registry.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics(prometheus.NewRegistry())
		if log != nil {
			log.Info("prometheus metrics initialized", "namespace", namespace)
		}
	})
	return instance
}

// NewMetrics registers a fresh collector set on reg. Tests pass their own registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	auto := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.sessionsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_processed_total",
		Help:      "Session metric runs by outcome",
	}, []string{"outcome"})

	m.recordsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_written_total",
		Help:      "Metric records persisted",
	})

	m.sessionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_processing_seconds",
		Help:      "Time spent scoring and persisting one session",
		Buckets:   prometheus.DefBuckets,
	})

	m.sweepRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sweep_runs_total",
		Help:      "Sweep cycles by status",
	}, []string{"status"})

	m.sweepLastBatch = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sweep_last_batch_size",
		Help:      "Sessions found by the most recent sweep",
	})

	m.realtimeRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "realtime_requests_total",
		Help:      "Realtime window computations by cache outcome",
	}, []string{"cache"})

	m.realtimeResults = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "realtime_window_results",
		Help:      "Run results aggregated per realtime request",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	m.httpLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveSession(outcome string, records int, dur time.Duration) {
	if m == nil {
		return
	}
	m.sessionsProcessed.WithLabelValues(outcome).Inc()
	if records > 0 {
		m.recordsWritten.Add(float64(records))
	}
	if dur > 0 {
		m.sessionLatency.Observe(dur.Seconds())
	}
}

func (m *Metrics) ObserveSweep(status string, found int) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(status).Inc()
	m.sweepLastBatch.Set(float64(found))
}

func (m *Metrics) ObserveRealtime(cache string, results int) {
	if m == nil {
		return
	}
	m.realtimeRequests.WithLabelValues(cache).Inc()
	m.realtimeResults.Observe(float64(results))
}

func (m *Metrics) ObserveAPI(route, method, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}
