// Package metrics provides Prometheus metrics for the TB simulation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the simulator.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Simulation progress
	daysSimulated    prometheus.Counter
	integrationSteps prometheus.Counter
	runsCompleted    prometheus.Counter
	runDuration      prometheus.Histogram

	// Epidemiological state of the most recent step
	currentPrevalence    prometheus.Gauge
	currentIncidence     prometheus.Gauge
	preventedInfections  prometheus.Gauge
	preventedDeaths      prometheus.Gauge
	cumulativeInfections prometheus.Gauge
	cumulativeDeaths     prometheus.Gauge

	// Event stream
	eventsRecorded *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tbsim",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.daysSimulated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "days_simulated_total",
		Help:      "Total simulated days across all runs",
	})
	m.integrationSteps = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "integration_substeps_total",
		Help:      "Total RK4 sub-steps performed",
	})
	m.runsCompleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_completed_total",
		Help:      "Simulation runs driven to completion",
	})
	m.runDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of full simulation runs",
		Buckets:   m.histogramBuckets,
	})

	m.currentPrevalence = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "current_prevalence",
		Help:      "Infectious share of the living population after the last step",
	})
	m.currentIncidence = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "current_incidence_per_100k",
		Help:      "Annualized incidence per 100k after the last step",
	})
	m.preventedInfections = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prevented_infections",
		Help:      "Infections prevented versus the no-vaccination counterfactual",
	})
	m.preventedDeaths = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prevented_deaths",
		Help:      "Deaths prevented versus the no-vaccination counterfactual",
	})
	m.cumulativeInfections = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cumulative_infections",
		Help:      "Cumulative infections in the current run",
	})
	m.cumulativeDeaths = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cumulative_deaths",
		Help:      "Cumulative TB deaths in the current run",
	})

	m.eventsRecorded = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_recorded_total",
		Help:      "Simulation events recorded, by event type",
	}, []string{"type"})
}

// Registry returns the custom registry backing the global manager, for
// exposing via promhttp.
func Registry() *prometheus.Registry {
	return customRegistry
}

// RecordDay increments the simulated-days counter.
func RecordDay() {
	if globalManager.enabled {
		globalManager.daysSimulated.Inc()
	}
}

// RecordIntegrationSteps adds n RK4 sub-steps.
func RecordIntegrationSteps(n int) {
	if globalManager.enabled {
		globalManager.integrationSteps.Add(float64(n))
	}
}

// RecordRunCompleted increments the completed-runs counter and observes the
// run's wall-clock duration in seconds.
func RecordRunCompleted(durationSeconds float64) {
	if globalManager.enabled {
		globalManager.runsCompleted.Inc()
		globalManager.runDuration.Observe(durationSeconds)
	}
}

// RecordEvent counts one recorded simulation event of the given type.
func RecordEvent(eventType string) {
	if globalManager.enabled {
		globalManager.eventsRecorded.WithLabelValues(eventType).Inc()
	}
}

// UpdatePrevalence sets the current prevalence gauge.
func UpdatePrevalence(v float64) {
	if globalManager.enabled {
		globalManager.currentPrevalence.Set(v)
	}
}

// UpdateIncidence sets the current incidence gauge.
func UpdateIncidence(v float64) {
	if globalManager.enabled {
		globalManager.currentIncidence.Set(v)
	}
}

// UpdatePrevented sets the prevented-infections and prevented-deaths gauges.
func UpdatePrevented(infections, deaths float64) {
	if globalManager.enabled {
		globalManager.preventedInfections.Set(infections)
		globalManager.preventedDeaths.Set(deaths)
	}
}

// UpdateCumulative sets the cumulative infection and death gauges.
func UpdateCumulative(infections, deaths float64) {
	if globalManager.enabled {
		globalManager.cumulativeInfections.Set(infections)
		globalManager.cumulativeDeaths.Set(deaths)
	}
}

// SetEnabled toggles metric collection globally.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}
