// Package monitoring exposes Prometheus metrics for readmission risk assessments.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model"
)

const namespace = "readmission"

// Assessment outcomes used as the "outcome" label.
const (
	OutcomeHighRisk        = "high_risk"
	OutcomeLowRisk         = "low_risk"
	OutcomeValidationError = "validation_error"
	OutcomeInternalError   = "internal_error"
)

// CacheStats is implemented by the memoizing assessor.
type CacheStats interface {
	Hits() uint64
	Misses() uint64
	Len() int
}

// Metrics owns a private registry so that several servers can coexist in one process
// (and in tests).
type Metrics struct {
	registry     *prometheus.Registry
	assessments  *prometheus.CounterVec
	probability  prometheus.Histogram
	duration     *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	modelInfo    *prometheus.GaugeVec
}

// NewMetrics creates and registers the assessment metrics plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Readmission risk assessments by surface and outcome.",
		}, []string{"surface", "outcome"}),
		probability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predicted_probability",
			Help:      "Distribution of predicted readmission probabilities.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "Time spent running the inference pipeline.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"surface"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		modelInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_info",
			Help:      "The loaded model bundle; always 1.",
		}, []string{"name", "version", "classifier"}),
	}

	reg.MustRegister(
		m.assessments,
		m.probability,
		m.duration,
		m.httpRequests,
		m.modelInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAssessment records one assessment attempt from surface.
func (m *Metrics) ObserveAssessment(surface string, a *domain.RiskAssessment, err error, elapsed time.Duration) {
	m.duration.WithLabelValues(surface).Observe(elapsed.Seconds())
	m.assessments.WithLabelValues(surface, Outcome(a, err)).Inc()
	if err == nil && a != nil {
		m.probability.Observe(a.Probability)
	}
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// SetModel records the loaded bundle.
func (m *Metrics) SetModel(meta model.Metadata, classifierKind string) {
	m.modelInfo.Reset()
	m.modelInfo.WithLabelValues(meta.Name, meta.Version, classifierKind).Set(1)
}

// RegisterCache exposes the memoizing assessor's hit, miss and size counters.
func (m *Metrics) RegisterCache(stats CacheStats) {
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_cache_hits_total",
			Help:      "Assessments served from the memoization cache.",
		}, func() float64 { return float64(stats.Hits()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_cache_misses_total",
			Help:      "Assessments computed by the pipeline.",
		}, func() float64 { return float64(stats.Misses()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assessment_cache_entries",
			Help:      "Assessments currently memoized.",
		}, func() float64 { return float64(stats.Len()) }),
	)
}

// Outcome maps an assessment result to its outcome label.
func Outcome(a *domain.RiskAssessment, err error) string {
	switch {
	case err != nil && domain.IsValidationError(err):
		return OutcomeValidationError
	case err != nil:
		return OutcomeInternalError
	case a != nil && a.Label == domain.HIGH_RISK:
		return OutcomeHighRisk
	default:
		return OutcomeLowRisk
	}
}
