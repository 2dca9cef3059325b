package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    *prometheus.CounterVec
	eventsTotal   *prometheus.CounterVec
	gateTotal     *prometheus.CounterVec
	exitsTotal    *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_ticks_total",
				Help: "Total ticks fed into guards",
			},
			[]string{"symbol"},
		),
		eventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_guard_events_total",
				Help: "Total detection events emitted by guards",
			},
			[]string{"symbol", "kind", "source"},
		),
		gateTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_gate_decisions_total",
				Help: "Entry gate decisions by outcome and reason",
			},
			[]string{"symbol", "reason", "allowed"},
		),
		exitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_exit_decisions_total",
				Help: "Exit decisions by reason",
			},
			[]string{"symbol", "reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradeguard_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradeguard_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick counts one processed tick.
func (r *Recorder) RecordTick(symbol string) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
}

// RecordEvent counts one emitted detection event.
func (r *Recorder) RecordEvent(symbol, kind, source string) {
	r.eventsTotal.WithLabelValues(symbol, kind, source).Inc()
}

// RecordGate counts one entry gate decision.
func (r *Recorder) RecordGate(symbol, reason string, allowed bool) {
	a := "false"
	if allowed {
		a = "true"
	}
	r.gateTotal.WithLabelValues(symbol, reason, a).Inc()
}

// RecordExit counts one exit decision that triggered.
func (r *Recorder) RecordExit(symbol, reason string) {
	r.exitsTotal.WithLabelValues(symbol, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
