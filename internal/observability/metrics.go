package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. All methods are safe on
// a nil receiver so instrumentation can be switched off.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	stageLatency *prometheus.HistogramVec
	generations  *prometheus.CounterVec
	conversions  *prometheus.CounterVec
	pdfPages     prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pao_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pao_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pao_http_requests_inflight",
			Help: "HTTP requests currently being served.",
		}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pao_generation_stage_duration_seconds",
			Help:    "Report pipeline stage latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage", "outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pao_generations_total",
			Help: "Report generations by outcome.",
		}, []string{"outcome"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pao_conversions_total",
			Help: "PDF conversions by provider and outcome.",
		}, []string{"provider", "outcome"}),
		pdfPages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pao_pdf_pages",
			Help:    "Page count of converted reports.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.stageLatency, m.generations, m.conversions, m.pdfPages,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveStage(stage string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage, outcome(err)).Observe(dur.Seconds())
}

func (m *Metrics) IncGeneration(err error) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ObserveConversion(provider string, pages int, err error) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(provider, outcome(err)).Inc()
	if err == nil && pages > 0 {
		m.pdfPages.Observe(float64(pages))
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
