package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scanTicks          prometheus.Counter
	detectorEvals      *prometheus.CounterVec
	signalsDetected    *prometheus.CounterVec
	signalsConfirmed   *prometheus.CounterVec
	signalsRejected    *prometheus.CounterVec
	cooldownSuppressed *prometheus.CounterVec
	compositeScore     *prometheus.GaugeVec
	errorsTotal        *prometheus.CounterVec
	latency            *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		scanTicks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "swingscan_scan_ticks_total",
				Help: "Total number of scan ticks executed",
			},
		),
		detectorEvals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_detector_evaluations_total",
				Help: "Total detector evaluations by kind",
			},
			[]string{"kind"},
		),
		signalsDetected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_signals_detected_total",
				Help: "Total signals admitted to confirmation",
			},
			[]string{"symbol", "direction"},
		),
		signalsConfirmed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_signals_confirmed_total",
				Help: "Total signals reaching CONFIRMED",
			},
			[]string{"symbol", "direction"},
		),
		signalsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_signals_rejected_total",
				Help: "Total signals reaching REJECTED",
			},
			[]string{"symbol", "reason"},
		),
		cooldownSuppressed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_cooldown_suppressed_total",
				Help: "Detections suppressed by an active symbol cooldown",
			},
			[]string{"symbol"},
		),
		compositeScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "swingscan_composite_score",
				Help: "Latest composite score per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swingscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordScanTick() {
	r.scanTicks.Inc()
}

func (r *Recorder) RecordDetectorEval(kind string) {
	r.detectorEvals.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordSignalDetected(symbol, direction string) {
	r.signalsDetected.WithLabelValues(symbol, direction).Inc()
}

func (r *Recorder) RecordSignalConfirmed(symbol, direction string) {
	r.signalsConfirmed.WithLabelValues(symbol, direction).Inc()
}

func (r *Recorder) RecordSignalRejected(symbol, reason string) {
	r.signalsRejected.WithLabelValues(symbol, reason).Inc()
}

func (r *Recorder) RecordCooldownSuppressed(symbol string) {
	r.cooldownSuppressed.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordCompositeScore(symbol string, score float64) {
	r.compositeScore.WithLabelValues(symbol).Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
