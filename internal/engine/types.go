package engine

import (
	"time"

	"github.com/okian/tbsim/internal/domain/compartments"
	"github.com/okian/tbsim/internal/domain/params"
)

// Status is the engine lifecycle state.
type Status string

// Lifecycle: idle -> running <-> paused -> completed. Idle, paused, and
// completed are stable; only Step and Run advance the day counter.
const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Config describes one simulation run. Immutable per run; UpdateConfig
// merges changes explicitly.
type Config struct {
	Population          float64                  `json:"population" koanf:"population"`
	DurationDays        int                      `json:"durationDays" koanf:"duration_days"`
	TimeStep            float64                  `json:"timeStep" koanf:"time_step"` // integration step in days
	InitialInfected     float64                  `json:"initialInfected" koanf:"initial_infected"`
	InitialLatent       float64                  `json:"initialLatent" koanf:"initial_latent"`
	ImportedCasesPerDay float64                  `json:"importedCasesPerDay" koanf:"imported_cases_per_day"`
	Parameters          params.DiseaseParameters `json:"parameters" koanf:"parameters"`
	Vaccination         params.VaccinationPolicy `json:"vaccination" koanf:"vaccination"`
	Interventions       []params.Intervention    `json:"interventions" koanf:"interventions"`
	Regions             []Region                 `json:"regions,omitempty" koanf:"regions"`
}

// Region is a named share of the aggregate population. The core treats
// regions as a proportional partition of the aggregate state, nothing more.
type Region struct {
	Name  string  `json:"name" koanf:"name"`
	Share float64 `json:"share" koanf:"share"`
}

// ConfigPatch carries the fields UpdateConfig may change mid-run. Nil
// pointers and nil slices leave the current value untouched.
type ConfigPatch struct {
	Parameters          *params.DiseaseParameters
	Interventions       []params.Intervention
	Vaccination         *params.VaccinationPolicy
	ImportedCasesPerDay *float64
	DurationDays        *int
}

// TimeSeriesPoint is one history record per simulated day.
type TimeSeriesPoint struct {
	Day                 int                `json:"day"`
	Timestamp           time.Time          `json:"timestamp"`
	Compartments        compartments.State `json:"compartments"`
	NewInfections       float64            `json:"newInfections"`
	NewDeaths           float64            `json:"newDeaths"`
	PreventedInfections float64            `json:"preventedInfections"`
	EffectiveR          float64            `json:"effectiveR"`
	VaccinationsGiven   float64            `json:"vaccinationsGiven"`
}

// EventType tags a discrete notable occurrence.
type EventType string

// Event types recorded by the engine.
const (
	EventInitialization   EventType = "initialization"
	EventOutbreakDetected EventType = "outbreak_detected"
	EventThresholdCrossed EventType = "threshold_crossed"
	EventPolicyStart      EventType = "policy_start"
	EventPolicyEnd        EventType = "policy_end"
	EventDeathMilestone   EventType = "death_milestone"
)

// Event is a discrete notable occurrence during a run.
type Event struct {
	ID          string             `json:"id"`
	Day         int                `json:"day"`
	Type        EventType          `json:"type"`
	Description string             `json:"description"`
	Details     map[string]float64 `json:"details,omitempty"`
}

// Metrics are the derived quantities reported per observation. Recomputed
// on every GetMetrics call, never cached.
type Metrics struct {
	TotalInfections      float64 `json:"totalInfections"`
	TotalDeaths          float64 `json:"totalDeaths"`
	TotalVaccinations    float64 `json:"totalVaccinations"`
	PreventedInfections  float64 `json:"preventedInfections"`
	PreventedDeaths      float64 `json:"preventedDeaths"`
	EffectiveR           float64 `json:"effectiveR"`
	CurrentPrevalence    float64 `json:"currentPrevalence"`
	CurrentIncidenceRate float64 `json:"currentIncidenceRate"` // annualized, per 100k
	WHOTargetProgress    float64 `json:"whoTargetProgress"`    // percent, clamped to [0, 100]
	LowIncidenceStatus   bool    `json:"lowIncidenceStatus"`
}

// Prevented holds the counterfactual comparison. Never negative.
type Prevented struct {
	Infections float64 `json:"infections"`
	Deaths     float64 `json:"deaths"`
}

// Snapshot is the per-day observation returned from Step, Run, and
// GetState. History and events are defensive copies.
type Snapshot struct {
	RunID        string             `json:"runId"`
	CurrentDay   int                `json:"currentDay"`
	CurrentTime  float64            `json:"currentTime"`
	Compartments compartments.State `json:"compartments"`
	History      []TimeSeriesPoint  `json:"history"`
	Events       []Event            `json:"events"`
	Metrics      Metrics            `json:"metrics"`
	Status       Status             `json:"status"`
	Speed        float64            `json:"speed"`
}

// Summary condenses a finished run for reporting and batch comparison.
type Summary struct {
	RunID                string             `json:"runId"`
	Days                 int                `json:"days"`
	Final                compartments.State `json:"final"`
	CumulativeInfections float64            `json:"cumulativeInfections"`
	CumulativeDeaths     float64            `json:"cumulativeDeaths"`
	CumulativeVaccinated float64            `json:"cumulativeVaccinated"`
	Prevented            Prevented          `json:"prevented"`
	PeakInfectious       float64            `json:"peakInfectious"`
	PeakInfectiousDay    int                `json:"peakInfectiousDay"`
	FinalIncidenceRate   float64            `json:"finalIncidenceRate"`
	WHOTargetProgress    float64            `json:"whoTargetProgress"`
	LowIncidence         bool               `json:"lowIncidence"`
}

// PartitionByRegion splits a compartment state proportionally across the
// configured regions. Shares are normalized; with no regions the aggregate
// is returned under a single "all" key.
func PartitionByRegion(s compartments.State, regions []Region) map[string]compartments.State {
	if len(regions) == 0 {
		return map[string]compartments.State{"all": s}
	}
	total := 0.0
	for _, r := range regions {
		total += r.Share
	}
	out := make(map[string]compartments.State, len(regions))
	for _, r := range regions {
		share := r.Share
		if total > 0 {
			share /= total
		}
		out[r.Name] = s.Scale(share)
	}
	return out
}
