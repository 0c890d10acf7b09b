package engine

import (
	"math"

	"github.com/okian/tbsim/internal/domain/seir"
)

// GetMetrics recomputes the derived metrics from the current state. Nothing
// is cached; each call reflects the engine as it stands.
func (e *Engine) GetMetrics() Metrics {
	prevented := e.CalculatePrevented()
	rate := e.trailingIncidence()

	return Metrics{
		TotalInfections:      e.cumInfections,
		TotalDeaths:          e.cumDeaths,
		TotalVaccinations:    e.cumVaccinations,
		PreventedInfections:  prevented.Infections,
		PreventedDeaths:      prevented.Deaths,
		EffectiveR:           seir.EffectiveR(e.main, e.currentParams),
		CurrentPrevalence:    seir.Prevalence(e.main),
		CurrentIncidenceRate: rate,
		WHOTargetProgress:    whoTargetProgress(rate),
		LowIncidenceStatus:   rate < lowIncidenceThreshold,
	}
}

// CalculatePrevented compares cumulative counters against the
// no-vaccination counterfactual. Never negative.
func (e *Engine) CalculatePrevented() Prevented {
	return Prevented{
		Infections: math.Max(0, e.cfInfections-e.cumInfections),
		Deaths:     math.Max(0, e.cfDeaths-e.cumDeaths),
	}
}

// trailingIncidence annualizes the new infections recorded over the
// trailing window of at most a year.
func (e *Engine) trailingIncidence() float64 {
	n := len(e.dailyInfections)
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range e.dailyInfections {
		sum += v
	}
	annualized := sum * float64(incidenceWindowDays) / float64(n)
	return seir.IncidenceRate(annualized, e.main.Total())
}

// whoTargetProgress maps the current incidence rate onto the reduction path
// from the historical baseline toward the elimination target, clamped to a
// percentage.
func whoTargetProgress(rate float64) float64 {
	progress := (whoBaselineRate - rate) / (whoBaselineRate - whoTargetRate) * 100
	return math.Min(100, math.Max(0, progress))
}

// Summary condenses the run so far for reporting and batch comparison.
func (e *Engine) Summary() Summary {
	peak, peakDay := 0.0, 0
	for _, pt := range e.history {
		if pt.Compartments.I > peak {
			peak = pt.Compartments.I
			peakDay = pt.Day
		}
	}
	m := e.GetMetrics()

	return Summary{
		RunID:                e.runID,
		Days:                 e.currentDay,
		Final:                e.main.Clone(),
		CumulativeInfections: e.cumInfections,
		CumulativeDeaths:     e.cumDeaths,
		CumulativeVaccinated: e.cumVaccinations,
		Prevented:            e.CalculatePrevented(),
		PeakInfectious:       peak,
		PeakInfectiousDay:    peakDay,
		FinalIncidenceRate:   m.CurrentIncidenceRate,
		WHOTargetProgress:    m.WHOTargetProgress,
		LowIncidence:         m.LowIncidenceStatus,
	}
}
