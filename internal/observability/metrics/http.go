package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

const namespace = "pds"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	screeningsTotal    *prometheus.CounterVec
	screeningDuration  *prometheus.HistogramVec
	rowsClassified     *prometheus.CounterVec
	labelsTotal        *prometheus.CounterVec
	missingColumnTotal *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	screeningsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "runs_total",
			Help:      "Total screenings by terminal state.",
		},
		[]string{"service", "endpoint", "state"},
	)
	screeningDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "duration_seconds",
			Help:      "Screening duration from upload to terminal state.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"service", "endpoint", "state"},
	)
	rowsClassified := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "rows_classified_total",
			Help:      "Total uploaded rows that received a label.",
		},
		[]string{"service", "endpoint"},
	)
	labelsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "labels_total",
			Help:      "Total labels assigned by category.",
		},
		[]string{"service", "label"},
	)
	missingColumnTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "missing_columns_total",
			Help:      "Total missing required columns by name across rejected uploads.",
		},
		[]string{"service", "column"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		screeningsTotal,
		screeningDuration,
		rowsClassified,
		labelsTotal,
		missingColumnTotal,
		breakerState,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		screeningsTotal:    screeningsTotal,
		screeningDuration:  screeningDuration,
		rowsClassified:     rowsClassified,
		labelsTotal:        labelsTotal,
		missingColumnTotal: missingColumnTotal,
		breakerState:       breakerState,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps run IDs out of label values.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/results/") && strings.HasSuffix(path, "/download"):
		return "/results/{run_id}/download"
	case strings.HasPrefix(path, "/v1/screenings/"):
		return "/v1/screenings/{run_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordScreening(service, endpoint string, s *domain.Screening) {
	if s == nil {
		return
	}
	state := string(s.State)
	m.screeningsTotal.WithLabelValues(service, endpoint, state).Inc()
	m.screeningDuration.WithLabelValues(service, endpoint, state).Observe(s.Duration().Seconds())

	for _, column := range s.Missing {
		m.missingColumnTotal.WithLabelValues(service, column).Inc()
	}
	if len(s.Labels) == 0 {
		return
	}
	m.rowsClassified.WithLabelValues(service, endpoint).Add(float64(len(s.Labels)))
	if s.Summary.Parkinsons > 0 {
		m.labelsTotal.WithLabelValues(service, string(domain.LabelParkinsons)).Add(float64(s.Summary.Parkinsons))
	}
	if s.Summary.Healthy > 0 {
		m.labelsTotal.WithLabelValues(service, string(domain.LabelHealthy)).Add(float64(s.Summary.Healthy))
	}
}

func (m *HTTPServerMetrics) ObserveBreakerState(service, operation string, state gobreaker.State) {
	m.breakerState.WithLabelValues(service, operation).Set(float64(state))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
