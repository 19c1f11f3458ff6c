package main

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsHandler counts decisions in a prometheus registry.  The controller
// has no network surface, so when a textfile path is set the registry is
// written there after every event for node_exporter's textfile collector.
type MetricsHandler struct {
	registry *prometheus.Registry
	textfile string

	decisions       *prometheus.CounterVec
	registrations   *prometheus.CounterVec
	modeActivations prometheus.Counter
	tollsCollected  prometheus.Counter
	rosterVehicles  prometheus.Gauge
}

// NewMetricsHandler registers the gate metrics in a fresh registry.
func NewMetricsHandler(textfile string) *MetricsHandler {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &MetricsHandler{
		registry: reg,
		textfile: textfile,
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_access_decisions_total",
			Help: "Access decisions by result.",
		}, []string{"result"}), // granted, unknown_tag, insufficient_balance, blacklisted
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_registrations_total",
			Help: "Registration attempts by result.",
		}, []string{"result"}), // registered, roster_full
		modeActivations: f.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_registration_mode_activations_total",
			Help: "Number of times the mode button armed registration mode.",
		}),
		tollsCollected: f.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_tolls_collected_total",
			Help: "Sum of tolls deducted from vehicle balances.",
		}),
		rosterVehicles: f.NewGauge(prometheus.GaugeOpts{
			Name: "gatekeeper_roster_vehicles",
			Help: "Occupied roster slots.",
		}),
	}
}

// Name returns the type name of the handler.
func (*MetricsHandler) Name() string { return "metrics" }

// Registry exposes the underlying registry.
func (m *MetricsHandler) Registry() *prometheus.Registry { return m.registry }

// Handle updates the counters for ev and refreshes the textfile.
func (m *MetricsHandler) Handle(ev Event) error {
	switch ev.Kind {
	case EventRegistrationMode:
		m.modeActivations.Inc()
	case EventAccessGranted:
		m.decisions.WithLabelValues("granted").Inc()
		m.tollsCollected.Add(ev.Charged.InexactFloat64())
	case EventAccessDenied:
		m.decisions.WithLabelValues(denialLabel(ev.Reason)).Inc()
	case EventTagRegistered:
		m.registrations.WithLabelValues("registered").Inc()
	case EventRosterFull:
		m.registrations.WithLabelValues("roster_full").Inc()
	default:
		return nil
	}
	m.rosterVehicles.Set(float64(ev.RosterSize))

	if m.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.textfile, m.registry)
}

func denialLabel(err error) string {
	switch {
	case errors.Is(err, ErrUnknownTag):
		return "unknown_tag"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrBlacklisted):
		return "blacklisted"
	default:
		return "other"
	}
}
