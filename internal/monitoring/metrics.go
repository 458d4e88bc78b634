package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ducminhle1904/moex-risk-engine/pkg/types"
)

const namespace = "moex_risk_engine"

// Metrics holds the engine's prometheus collectors on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	evaluationsTotal   prometheus.Counter
	evaluationDuration prometheus.Histogram
	riskScore          prometheus.Gauge
	riskLevel          prometheus.Gauge
	geopoliticalScore  prometheus.Gauge
	geopoliticalLevel  prometheus.Gauge
	orderValidations   *prometheus.CounterVec
	violationsTotal    *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
}

// NewMetrics creates and registers the engine collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of portfolio decision cycles",
		}),
		evaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of a portfolio decision cycle",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		riskScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Overall portfolio risk score of the last evaluation",
		}),
		riskLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "risk_level",
			Help:      "Portfolio risk level of the last evaluation (0 LOW .. 3 CRITICAL)",
		}),
		geopoliticalScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geopolitical_score",
			Help:      "Geopolitical risk score of the last evaluation",
		}),
		geopoliticalLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geopolitical_level",
			Help:      "Geopolitical risk level of the last evaluation (0 NORMAL .. 3 CRITICAL)",
		}),
		orderValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_validations_total",
			Help:      "Order validations by outcome",
		}, []string{"outcome"}),
		violationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diversification_violations_total",
			Help:      "Diversification violations found, by severity",
		}, []string{"severity"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors returned by the engine, by category",
		}, []string{"category"}),
	}
	m.registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.riskScore,
		m.riskLevel,
		m.geopoliticalScore,
		m.geopoliticalLevel,
		m.orderValidations,
		m.violationsTotal,
		m.errorsTotal,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordEvaluation records one decision cycle
func (m *Metrics) RecordEvaluation(level types.RiskLevel, score float64, geo types.GeoLevel, geoScore float64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.evaluationsTotal.Inc()
	m.evaluationDuration.Observe(elapsed.Seconds())
	m.riskScore.Set(score)
	m.riskLevel.Set(float64(level.Rank()))
	m.geopoliticalScore.Set(geoScore)
	m.geopoliticalLevel.Set(float64(geo.Rank()))
}

// RecordViolations adds violation counts per severity
func (m *Metrics) RecordViolations(bySeverity map[types.RiskLevel]int) {
	if m == nil {
		return
	}
	for level, n := range bySeverity {
		m.violationsTotal.WithLabelValues(string(level)).Add(float64(n))
	}
}

// RecordOrderValidation counts an order verdict
func (m *Metrics) RecordOrderValidation(valid bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if valid {
		outcome = "accepted"
	}
	m.orderValidations.WithLabelValues(outcome).Inc()
}

// RecordError counts an error by category
func (m *Metrics) RecordError(category string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(category).Inc()
}
