// Package metrics provides Prometheus collectors for activation, the
// thread registry and the offload pool.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/threading"
	"github.com/baxromumarov/greenpatch/tpool"
)

const namespace = "greenpatch"

var (
	_ greenpatch.Metrics = (*Metrics)(nil)
	_ threading.Metrics  = (*Metrics)(nil)
	_ tpool.Metrics      = (*Metrics)(nil)
)

// Metrics implements every recorder interface of the module. A nil
// *Metrics records nothing.
type Metrics struct {
	activations      *prometheus.CounterVec
	activePrimitives prometheus.Gauge
	loads            *prometheus.CounterVec

	threadsActive *prometheus.GaugeVec

	offloadDuration *prometheus.HistogramVec
	offloadInFlight prometheus.Gauge
	offloadWorkers  prometheus.Gauge
}

// New creates the collectors and registers them with registry.
// If registry is nil, metrics are created but not registered.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activations_total",
				Help:      "Primitives switched to their cooperative implementation",
			},
			[]string{"primitive"},
		),
		activePrimitives: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_primitives",
			Help:      "Number of active primitives",
		}),
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loader",
				Name:      "loads_total",
				Help:      "Units executed by the loader",
			},
			[]string{"unit", "isolated"},
		),
		threadsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "threads_active",
				Help:      "Live thread-like handles by kind",
			},
			[]string{"kind"}, // "green", "native"
		),
		offloadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "offload",
				Name:      "call_duration_seconds",
				Help:      "Duration of offloaded calls",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"status"}, // "ok", "error"
		),
		offloadInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "offload",
			Name:      "in_flight",
			Help:      "Offloaded calls currently executing",
		}),
		offloadWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "offload",
			Name:      "workers",
			Help:      "Live native offload workers",
		}),
	}

	if registry != nil {
		registry.MustRegister(
			m.activations,
			m.activePrimitives,
			m.loads,
			m.threadsActive,
			m.offloadDuration,
			m.offloadInFlight,
			m.offloadWorkers,
		)
	}
	return m
}

func (m *Metrics) RecordActivation(name string) {
	if m == nil {
		return
	}
	m.activations.WithLabelValues(name).Inc()
}

func (m *Metrics) SetActivePrimitives(n int) {
	if m == nil {
		return
	}
	m.activePrimitives.Set(float64(n))
}

func (m *Metrics) RecordLoad(unit string, isolated bool) {
	if m == nil {
		return
	}
	label := "false"
	if isolated {
		label = "true"
	}
	m.loads.WithLabelValues(unit, label).Inc()
}

func (m *Metrics) SetThreadsActive(kind string, n int) {
	if m == nil {
		return
	}
	m.threadsActive.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) ObserveOffload(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.offloadDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *Metrics) SetOffloadInFlight(n int64) {
	if m == nil {
		return
	}
	m.offloadInFlight.Set(float64(n))
}

func (m *Metrics) SetOffloadWorkers(n int) {
	if m == nil {
		return
	}
	m.offloadWorkers.Set(float64(n))
}
