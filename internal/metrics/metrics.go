package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signchain"

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	recoveryTotal *prometheus.CounterVec
	pdfPages      prometheus.Histogram
	uploadTotal   *prometheus.CounterVec
	anchorTotal   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	recoveryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "recovery_total",
			Help:      "Generated contracts by the recovery strategy that produced them.",
		},
		[]string{"source"},
	)
	pdfPages := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pdf",
			Name:      "pages",
			Help:      "Distribution of rendered page counts.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)
	uploadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "uploads_total",
			Help:      "Document uploads by outcome.",
		},
		[]string{"status"},
	)
	anchorTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "anchors_total",
			Help:      "Ledger anchor submissions by mode and outcome.",
		},
		[]string{"mode", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		recoveryTotal,
		pdfPages,
		uploadTotal,
		anchorTotal,
	)

	return &Metrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		recoveryTotal:   recoveryTotal,
		pdfPages:        pdfPages,
		uploadTotal:     uploadTotal,
		anchorTotal:     anchorTotal,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware labels requests by route template so path parameters do not
// explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) RecordRecovery(source string) {
	if source == "" {
		source = "unknown"
	}
	m.recoveryTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordPages(pages int) {
	m.pdfPages.Observe(float64(pages))
}

func (m *Metrics) RecordUpload(err error) {
	m.uploadTotal.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) RecordAnchor(mode string, err error) {
	m.anchorTotal.WithLabelValues(mode, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
