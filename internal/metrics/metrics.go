// Package metrics exposes Prometheus counters for voice interactions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service counters. A nil *Metrics is valid and records
// nothing, which keeps tests free of registry setup.
type Metrics struct {
	interactions *prometheus.CounterVec
	uploads      *prometheus.CounterVec
	points       *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicesocial",
			Name:      "interactions_total",
			Help:      "Voice interactions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicesocial",
			Name:      "uploads_total",
			Help:      "Voice uploads by outcome.",
		}, []string{"outcome"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicesocial",
			Name:      "points_delta_total",
			Help:      "Sum of absolute point changes by action.",
		}, []string{"action"}),
	}
	reg.MustRegister(m.interactions, m.uploads, m.points)
	return m
}

// Interaction counts a like, unlike, comment or view with its outcome.
func (m *Metrics) Interaction(kind, outcome string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Upload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Points(action string, amount int) {
	if m == nil {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	m.points.WithLabelValues(action).Add(float64(amount))
}
