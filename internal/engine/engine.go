// Package engine orchestrates the TB simulation: it owns the current and
// counterfactual compartments, applies time-varying policy and vaccination
// mechanics, steps the integrator, and records history, events, and derived
// metrics.
//
// An Engine is single-owner: all methods expect sequential calls from one
// goroutine. Hosts wanting concurrency run one Engine per logical
// simulation and never share it.
package engine

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tbsim/internal/domain/compartments"
	"github.com/okian/tbsim/internal/domain/params"
	"github.com/okian/tbsim/internal/domain/seir"
	"github.com/okian/tbsim/pkg/logger"
)

// Default engine configuration constants.
const (
	defaultTimeStep     = 1.0
	defaultHistoryLimit = 5000
	defaultMaxEvents    = 1000

	// Fixed eligible-proportion heuristics for vaccination mechanics.
	neonatalEligibleProportion  = 0.30 // share of population assumed under-40 and eligible
	riskBasedEligibleProportion = 0.12 // reduced eligibility under risk-based targeting
	healthcareWorkerProportion  = 0.05
	hcwFrontloadDays            = 30
	catchUpCampaignDays         = 365

	// Derived-metric constants.
	incidenceWindowDays   = 365
	lowIncidenceThreshold = 10.0 // cases per 100k per year
	whoBaselineRate       = 15.0
	whoTargetRate         = 10.0

	// Event detection thresholds.
	outbreakWindowDays = 7
	outbreakMultiplier = 2.0
	outbreakFloor      = 10.0

	speedMin = 0.1
	speedMax = 10.0
)

// deathMilestones are recorded the first time cumulative deaths cross each.
var deathMilestones = [...]float64{100, 500, 1000, 5000, 10000}

// Engine is the stateful simulation orchestrator.
type Engine struct {
	cfg   Config
	runID string

	status      Status
	currentDay  int
	currentTime float64
	speed       float64

	main           compartments.State
	counterfactual compartments.State

	baseParams    params.DiseaseParameters
	currentParams params.DiseaseParameters
	cfParams      params.DiseaseParameters

	cumInfections   float64
	cumDeaths       float64
	cumVaccinations float64
	cfInfections    float64
	cfDeaths        float64

	history         []TimeSeriesPoint
	events          []Event
	dailyInfections []float64 // trailing window of per-day new infections
	prevIncidence   float64
	milestonesHit   map[float64]bool

	historyLimit   int
	maxEvents      int
	metricsEnabled bool
	logger         logger.Logger
	initialized    bool
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHistoryLimit bounds the retained time-series history.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyLimit = n
		}
	}
}

// WithMaxEvents bounds the retained event log.
func WithMaxEvents(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxEvents = n
		}
	}
}

// WithMetricsEnabled toggles Prometheus metric updates from this engine.
func WithMetricsEnabled(enabled bool) Option {
	return func(e *Engine) {
		e.metricsEnabled = enabled
	}
}

// New constructs an Engine for cfg. The disease parameters are validated at
// this boundary; an invalid vector is fatal-at-construction.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Population <= 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.DurationDays <= 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.TimeStep == 0 {
		cfg.TimeStep = defaultTimeStep
	}
	if cfg.TimeStep < 0 || cfg.TimeStep > 1 {
		return nil, ErrInvalidConfig
	}
	if err := params.MustValidate(cfg.Parameters); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:            cfg,
		runID:          uuid.NewString(),
		status:         StatusIdle,
		speed:          1.0,
		baseParams:     cfg.Parameters,
		historyLimit:   defaultHistoryLimit,
		maxEvents:      defaultMaxEvents,
		metricsEnabled: true,
		logger:         noopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.Initialize()
	return e, nil
}

// Initialize seeds both tracks from the configured initial conditions,
// applies day-0 policies, and records the first history point and an
// initialization event. Called by New and Reset.
func (e *Engine) Initialize() {
	initialVaccinated := e.initialVaccinated()

	e.main = seir.NewInitialState(e.cfg.Population, e.cfg.InitialInfected, e.cfg.InitialLatent, initialVaccinated)
	// The counterfactual track always starts unvaccinated.
	e.counterfactual = seir.NewInitialState(e.cfg.Population, e.cfg.InitialInfected, e.cfg.InitialLatent, 0)

	e.currentParams = params.AdjustForPolicy(e.baseParams, e.cfg.Interventions, 0)
	e.cfParams = counterfactualParams(e.currentParams)

	e.status = StatusIdle
	e.currentDay = 0
	e.currentTime = 0
	e.cumInfections = 0
	e.cumDeaths = 0
	e.cumVaccinations = initialVaccinated
	e.cfInfections = 0
	e.cfDeaths = 0
	e.history = e.history[:0]
	e.events = e.events[:0]
	e.dailyInfections = e.dailyInfections[:0]
	e.prevIncidence = 0
	e.milestonesHit = make(map[float64]bool, len(deathMilestones))
	e.initialized = true

	e.appendHistory(TimeSeriesPoint{
		Day:          0,
		Timestamp:    time.Now(),
		Compartments: e.main,
		EffectiveR:   seir.EffectiveR(e.main, e.currentParams),
	})
	e.recordEvent(0, EventInitialization, "simulation initialized", map[string]float64{
		"population":        e.cfg.Population,
		"initialInfected":   e.cfg.InitialInfected,
		"initialLatent":     e.cfg.InitialLatent,
		"initialVaccinated": initialVaccinated,
	})

	e.logger.Info(context.Background(), "engine initialized",
		logger.String("run_id", e.runID),
		logger.Float64("population", e.cfg.Population),
		logger.Int("duration_days", e.cfg.DurationDays),
		logger.Float64("initial_vaccinated", initialVaccinated),
	)
}

// initialVaccinated derives the day-0 vaccinated count from the vaccination
// policy coverage targets and the fixed eligible-proportion heuristics.
func (e *Engine) initialVaccinated() float64 {
	var v float64
	if p := e.cfg.Vaccination.Neonatal; p.Enabled {
		eligible := neonatalEligibleProportion
		if p.RiskBasedEligibility {
			eligible = riskBasedEligibleProportion
		}
		v += e.cfg.Population * eligible * p.CoverageTarget
	}
	if p := e.cfg.Vaccination.HealthcareWorker; p.Enabled {
		v += e.cfg.Population * healthcareWorkerProportion * p.CoverageTarget
	}
	return v
}

// counterfactualParams forces vaccination off for the comparison track.
func counterfactualParams(p params.DiseaseParameters) params.DiseaseParameters {
	p.Rho = 0
	p.VE = 0
	return p
}

// Start begins or resumes stepping. A no-op unless idle or paused.
func (e *Engine) Start() {
	if e.status == StatusIdle || e.status == StatusPaused {
		e.status = StatusRunning
	}
}

// Pause suspends a running simulation. A no-op unless running.
func (e *Engine) Pause() {
	if e.status == StatusRunning {
		e.status = StatusPaused
	}
}

// Resume continues a paused simulation. A no-op unless paused.
func (e *Engine) Resume() {
	if e.status == StatusPaused {
		e.status = StatusRunning
	}
}

// Reset clears history, events, and counters, restores the base parameters,
// and reinitializes exactly as construction did.
func (e *Engine) Reset() {
	e.baseParams = e.cfg.Parameters
	e.Initialize()
}

// SetSpeed sets the host pacing multiplier, clamped to [0.1, 10]. The
// engine itself never sleeps; speed only rides along in snapshots.
func (e *Engine) SetSpeed(multiplier float64) {
	e.speed = math.Min(speedMax, math.Max(speedMin, multiplier))
}

// Speed returns the current pacing multiplier.
func (e *Engine) Speed() float64 {
	return e.speed
}

// Status returns the lifecycle state.
func (e *Engine) Status() Status {
	return e.status
}

// CurrentDay returns the last completed day index.
func (e *Engine) CurrentDay() int {
	return e.currentDay
}

// GetCurrentParams returns the policy-adjusted parameters in effect.
func (e *Engine) GetCurrentParams() params.DiseaseParameters {
	return e.currentParams
}

// GetCounterfactualState returns the no-vaccination track's compartments.
func (e *Engine) GetCounterfactualState() compartments.State {
	return e.counterfactual.Clone()
}

// GetState returns the full observation snapshot with defensive copies of
// history and events.
func (e *Engine) GetState() Snapshot {
	history := make([]TimeSeriesPoint, len(e.history))
	copy(history, e.history)
	events := make([]Event, len(e.events))
	copy(events, e.events)

	return Snapshot{
		RunID:        e.runID,
		CurrentDay:   e.currentDay,
		CurrentTime:  e.currentTime,
		Compartments: e.main.Clone(),
		History:      history,
		Events:       events,
		Metrics:      e.GetMetrics(),
		Status:       e.status,
		Speed:        e.speed,
	}
}

// UpdateConfig shallow-merges the patch into the run configuration. If the
// disease parameters or interventions changed, policy adjustment is
// reapplied immediately at the current day without resetting compartments.
func (e *Engine) UpdateConfig(patch ConfigPatch) {
	reapply := false

	if patch.Parameters != nil {
		e.cfg.Parameters = *patch.Parameters
		e.baseParams = *patch.Parameters
		reapply = true
	}
	if patch.Interventions != nil {
		e.cfg.Interventions = patch.Interventions
		reapply = true
	}
	if patch.Vaccination != nil {
		e.cfg.Vaccination = *patch.Vaccination
	}
	if patch.ImportedCasesPerDay != nil {
		e.cfg.ImportedCasesPerDay = *patch.ImportedCasesPerDay
	}
	if patch.DurationDays != nil && *patch.DurationDays > 0 {
		e.cfg.DurationDays = *patch.DurationDays
		if e.status == StatusCompleted && e.currentDay < e.cfg.DurationDays {
			e.status = StatusPaused
		}
	}

	if reapply {
		e.currentParams = params.AdjustForPolicy(e.baseParams, e.cfg.Interventions, e.currentDay)
		e.cfParams = counterfactualParams(e.currentParams)
	}
}

// noopLogger discards everything; the default until WithLogger is applied.
type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...logger.Field) {}
func (noopLogger) Info(context.Context, string, ...logger.Field)  {}
func (noopLogger) Warn(context.Context, string, ...logger.Field)  {}
func (noopLogger) Error(context.Context, string, ...logger.Field) {}
func (n noopLogger) Named(string) logger.Logger                   { return n }
