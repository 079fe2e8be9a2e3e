package scanning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the scan pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	scansTotal         *prometheus.CounterVec
	ocrFallbacksTotal  prometheus.Counter
	completionAttempts *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
}

// NewMetrics creates the scan collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		scansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_scans_total",
				Help: "Total number of scans by outcome",
			},
			[]string{"outcome"},
		),
		ocrFallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "invoice_scan_ocr_fallbacks_total",
				Help: "Number of times plain text detection was used after document detection found nothing",
			},
		),
		completionAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_scan_completion_attempts_total",
				Help: "Total number of completion attempts by result",
			},
			[]string{"result"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invoice_scan_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
	}
}

func (m *Metrics) scan(kind Kind) {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ocrFallback() {
	if m == nil {
		return
	}
	m.ocrFallbacksTotal.Inc()
}

func (m *Metrics) completionAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.completionAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) stage(name string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
