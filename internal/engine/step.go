package engine

import (
	"context"
	"math"
	"time"

	"github.com/okian/tbsim/internal/domain/compartments"
	"github.com/okian/tbsim/internal/domain/integrator"
	"github.com/okian/tbsim/internal/domain/params"
	"github.com/okian/tbsim/internal/domain/seir"
	"github.com/okian/tbsim/pkg/logger"
	"github.com/okian/tbsim/pkg/metrics"
)

// dayTotals accumulates the closed-form per-day quantities of one track.
type dayTotals struct {
	newInfections float64
	newDeaths     float64
}

// Step advances the simulation by one day and returns the updated snapshot.
// Calling Step on a completed simulation is a silent no-op.
func (e *Engine) Step() Snapshot {
	if e.status == StatusCompleted {
		return e.GetState()
	}

	day := e.currentDay + 1

	// Policies active on the upcoming day shape both tracks; the
	// counterfactual then has vaccination forced off.
	p := params.AdjustForPolicy(e.baseParams, e.cfg.Interventions, day)
	cfP := counterfactualParams(p)
	e.currentParams = p
	e.cfParams = cfP

	dt := e.cfg.TimeStep
	subSteps := int(math.Ceil(1 / dt))

	var mainTotals, cfTotals dayTotals
	for i := 0; i < subSteps; i++ {
		// Closed-form accumulation is evaluated at the pre-step state.
		mainTotals.newInfections += seir.NewInfections(e.main, p, dt)
		mainTotals.newDeaths += seir.NewDeaths(e.main, p, dt)
		cfTotals.newInfections += seir.NewInfections(e.counterfactual, cfP, dt)
		cfTotals.newDeaths += seir.NewDeaths(e.counterfactual, cfP, dt)

		e.main = e.validated(integrator.RK4(e.main, p, dt), day)
		e.counterfactual = e.validated(integrator.RK4(e.counterfactual, cfP, dt), day)
	}
	if e.metricsEnabled {
		metrics.RecordIntegrationSteps(2 * subSteps)
	}

	vaccinated := e.applyVaccination(day, p)
	imported := e.applyImportedCases(day)

	e.cumInfections += mainTotals.newInfections + imported.main
	e.cumDeaths += mainTotals.newDeaths
	e.cumVaccinations += vaccinated
	e.cfInfections += cfTotals.newInfections + imported.counterfactual
	e.cfDeaths += cfTotals.newDeaths

	e.currentDay = day
	e.currentTime += 1

	dayInfections := mainTotals.newInfections + imported.main
	prevented := e.CalculatePrevented()
	e.appendHistory(TimeSeriesPoint{
		Day:                 day,
		Timestamp:           time.Now(),
		Compartments:        e.main,
		NewInfections:       dayInfections,
		NewDeaths:           mainTotals.newDeaths,
		PreventedInfections: prevented.Infections,
		EffectiveR:          seir.EffectiveR(e.main, p),
		VaccinationsGiven:   vaccinated,
	})
	e.checkAndRecordEvents(day, dayInfections)

	if day >= e.cfg.DurationDays {
		e.status = StatusCompleted
		e.logger.Info(context.Background(), "simulation completed",
			logger.String("run_id", e.runID),
			logger.Int("days", day),
			logger.Float64("cumulative_infections", e.cumInfections),
			logger.Float64("cumulative_deaths", e.cumDeaths),
		)
	} else {
		e.status = StatusRunning
	}

	if e.metricsEnabled {
		metrics.RecordDay()
		metrics.UpdatePrevalence(seir.Prevalence(e.main))
		metrics.UpdateIncidence(e.trailingIncidence())
		metrics.UpdatePrevented(prevented.Infections, prevented.Deaths)
		metrics.UpdateCumulative(e.cumInfections, e.cumDeaths)
	}

	return e.GetState()
}

// Run calls Step up to min(steps, remaining days) times and collects the
// per-day snapshots. It stops early once the run completes.
func (e *Engine) Run(steps int) []Snapshot {
	remaining := e.cfg.DurationDays - e.currentDay
	if steps > remaining {
		steps = remaining
	}
	if steps <= 0 {
		return nil
	}

	out := make([]Snapshot, 0, steps)
	for i := 0; i < steps; i++ {
		out = append(out, e.Step())
		if e.status == StatusCompleted {
			break
		}
	}
	return out
}

// validated clamps float-noise negatives to zero after an integration step.
// Persistent large negatives indicate an unstable configuration and are
// logged once per day at warn level.
func (e *Engine) validated(s compartments.State, day int) compartments.State {
	if s.IsValid() {
		return s
	}
	const noise = 1e-6
	warned := false
	clamp := func(v float64) float64 {
		if v >= 0 {
			return v
		}
		if v < -noise && !warned {
			e.logger.Warn(context.Background(), "compartment driven negative, clamping",
				logger.Int("day", day),
				logger.Float64("value", v),
			)
			warned = true
		}
		return 0
	}
	s.S = clamp(s.S)
	s.V = clamp(s.V)
	s.EHigh = clamp(s.EHigh)
	s.ELow = clamp(s.ELow)
	s.I = clamp(s.I)
	s.R = clamp(s.R)
	s.D = clamp(s.D)
	return s
}

// applyVaccination runs the day's programme mechanics on the main track and
// returns the number of vaccinations given. Every move is capped so the
// source pool never goes negative. The counterfactual track is never
// vaccinated.
func (e *Engine) applyVaccination(day int, p params.DiseaseParameters) float64 {
	var moved float64
	pool := e.main.S

	move := func(want float64) {
		if want <= 0 {
			return
		}
		if want > pool {
			want = pool
		}
		moved += want
		pool -= want
	}

	if prog := e.cfg.Vaccination.Neonatal; prog.Enabled {
		births := p.Mu * e.main.Total()
		eligible := neonatalEligibleProportion
		if prog.RiskBasedEligibility {
			eligible = riskBasedEligibleProportion
		}
		move(births * eligible * prog.CoverageTarget)
	}

	if prog := e.cfg.Vaccination.HealthcareWorker; prog.Enabled && day <= hcwFrontloadDays {
		// Front-load the target coverage evenly over the first 30 days.
		move(e.cfg.Population * healthcareWorkerProportion * prog.CoverageTarget / hcwFrontloadDays)
	}

	if prog := e.cfg.Vaccination.CatchUp; prog.Enabled && day <= catchUpCampaignDays {
		// Spread the campaign's target coverage evenly over a fixed year.
		move(e.cfg.Population * prog.CoverageTarget / catchUpCampaignDays)
	}

	e.main.S -= moved
	e.main.V += moved
	return moved
}

// importedSplit holds the day's imported cases entering each track.
type importedSplit struct {
	main           float64
	counterfactual float64
}

// applyImportedCases injects the day's imported cases. The main track
// benefits from screening; the counterfactual receives the full rate.
func (e *Engine) applyImportedCases(day int) importedSplit {
	imported := e.cfg.ImportedCasesPerDay
	if imported <= 0 {
		return importedSplit{}
	}

	screening := 0.0
	if s := e.cfg.Vaccination.ImmigrantScreening; s.Enabled {
		screening = s.Efficacy
	}
	for _, iv := range e.cfg.Interventions {
		if iv.Type == params.PreEntryScreening && iv.ActiveOn(day) {
			screening = math.Max(screening, params.PreEntryScreeningEffect)
		}
	}

	split := importedSplit{
		main:           imported * (1 - screening),
		counterfactual: imported,
	}
	e.main.EHigh += split.main
	e.counterfactual.EHigh += split.counterfactual
	return split
}

// appendHistory appends one point, dropping the oldest past the limit.
func (e *Engine) appendHistory(pt TimeSeriesPoint) {
	e.history = append(e.history, pt)
	if len(e.history) > e.historyLimit {
		e.history = e.history[len(e.history)-e.historyLimit:]
	}

	e.dailyInfections = append(e.dailyInfections, pt.NewInfections)
	if len(e.dailyInfections) > incidenceWindowDays {
		e.dailyInfections = e.dailyInfections[len(e.dailyInfections)-incidenceWindowDays:]
	}
}
