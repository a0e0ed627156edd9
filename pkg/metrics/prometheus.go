package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal       *prometheus.CounterVec
	conditionHits      *prometheus.HistogramVec
	adjustmentsTotal   *prometheus.CounterVec
	rejectionsTotal    *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	evalDuration       *prometheus.HistogramVec
	latency            *prometheus.HistogramVec
	predictorFallbacks prometheus.Counter
	openPositions      prometheus.Gauge
	profitRatio        *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratcore_signals_total",
				Help: "Total number of signals emitted",
			},
			[]string{"pair", "kind", "direction", "mode"},
		),
		conditionHits: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stratcore_condition_hits",
				Help:    "Number of conditions satisfied per emitted signal",
				Buckets: []float64{1, 2, 3, 5, 8, 13},
			},
			[]string{"direction", "mode"},
		),
		adjustmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratcore_adjustments_total",
				Help: "Adjustment ladder outcomes per pair",
			},
			[]string{"pair", "result"},
		),
		rejectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratcore_rejections_total",
				Help: "Signals rejected before emission",
			},
			[]string{"kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratcore_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		evalDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stratcore_eval_duration_seconds",
				Help:    "Duration of a full pair evaluation in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pair"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stratcore_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		predictorFallbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stratcore_predictor_fallbacks_total",
				Help: "Entries admitted on rules because the predictor was unavailable",
			},
		),
		openPositions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stratcore_open_positions",
				Help: "Number of pairs with an open position",
			},
		),
		profitRatio: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stratcore_profit_ratio",
				Help: "Last observed profit ratio at exit signal time",
			},
			[]string{"pair"},
		),
	}
}

// RecordSignal records an emitted entry or exit signal.
func (r *Recorder) RecordSignal(pair, kind, direction, mode string) {
	r.signalsTotal.WithLabelValues(pair, kind, direction, mode).Inc()
}

// RecordConditionHits records how many conditions backed a signal.
func (r *Recorder) RecordConditionHits(direction, mode string, n int) {
	r.conditionHits.WithLabelValues(direction, mode).Observe(float64(n))
}

// RecordAdjustment records an adjustment ladder outcome.
func (r *Recorder) RecordAdjustment(pair, result string) {
	r.adjustmentsTotal.WithLabelValues(pair, result).Inc()
}

// RecordRejection records a signal swallowed before emission.
func (r *Recorder) RecordRejection(kind string) {
	r.rejectionsTotal.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordEvalLatency records a full evaluation pass for a pair.
func (r *Recorder) RecordEvalLatency(pair string, seconds float64) {
	r.evalDuration.WithLabelValues(pair).Observe(seconds)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordPredictorFallback counts a rules-only admission.
func (r *Recorder) RecordPredictorFallback() {
	r.predictorFallbacks.Inc()
}

// SetOpenPositions tracks the open-position count.
func (r *Recorder) SetOpenPositions(n int) {
	r.openPositions.Set(float64(n))
}

// RecordProfitRatio records the profit ratio seen at exit time.
func (r *Recorder) RecordProfitRatio(pair string, ratio float64) {
	r.profitRatio.WithLabelValues(pair).Set(ratio)
}
