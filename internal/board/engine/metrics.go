package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus instruments. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	movesTotal   *prometheus.CounterVec
	undosTotal   prometheus.Counter
	resyncsTotal *prometheus.CounterVec
	inFlight     prometheus.Gauge
}

// NewMetrics registers the engine instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		movesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_moves_total",
				Help: "Move attempts by result (committed, rejected, failed, stale).",
			},
			[]string{"result"},
		),
		undosTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "board_undos_total",
				Help: "Successful undo operations.",
			},
		),
		resyncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_resyncs_total",
				Help: "Board resynchronizations by trigger (rollback, manual, scheduled, initial).",
			},
			[]string{"trigger"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "board_moves_in_flight",
				Help: "Deals currently mid-transition.",
			},
		),
	}

	reg.MustRegister(m.movesTotal, m.undosTotal, m.resyncsTotal, m.inFlight)
	return m
}

func (m *Metrics) moveResult(result string) {
	if m == nil {
		return
	}
	m.movesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) undone() {
	if m == nil {
		return
	}
	m.undosTotal.Inc()
}

func (m *Metrics) resynced(trigger string) {
	if m == nil {
		return
	}
	m.resyncsTotal.WithLabelValues(trigger).Inc()
}

func (m *Metrics) inFlightDelta(d float64) {
	if m == nil {
		return
	}
	m.inFlight.Add(d)
}
