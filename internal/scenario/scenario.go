// Package scenario holds the static table of simulation presets. The
// configuration and engine layers depend on this package; it depends on no
// part of the engine beyond its configuration types, keeping the dependency
// one-way.
package scenario

import (
	"github.com/okian/tbsim/internal/domain/params"
	"github.com/okian/tbsim/internal/engine"
)

// Scenario is a named, self-contained simulation preset.
type Scenario struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Config      engine.Config `json:"config"`
}

func intPtr(v int) *int { return &v }

// presets is the canonical scenario table. Treat as read-only; All and Get
// return copies.
var presets = []Scenario{
	{
		Name:        "baseline",
		Description: "No interventions, no vaccination programmes; natural epidemic course with imported cases",
		Config: engine.Config{
			Population:          1_000_000,
			DurationDays:        3650,
			TimeStep:            1,
			InitialInfected:     150,
			InitialLatent:       50_000,
			ImportedCasesPerDay: 2,
			Parameters:          params.NewDiseaseParameters(),
		},
	},
	{
		Name:        "neonatal-bcg",
		Description: "Routine neonatal BCG at 90% coverage alongside immigrant screening",
		Config: engine.Config{
			Population:          1_000_000,
			DurationDays:        3650,
			TimeStep:            1,
			InitialInfected:     150,
			InitialLatent:       50_000,
			ImportedCasesPerDay: 2,
			Parameters:          params.NewDiseaseParameters(),
			Vaccination: params.VaccinationPolicy{
				Neonatal:           params.ProgrammePolicy{Enabled: true, CoverageTarget: 0.9},
				ImmigrantScreening: params.ScreeningPolicy{Enabled: true, Efficacy: params.OriginScreeningEfficacy},
			},
		},
	},
	{
		Name:        "case-finding",
		Description: "Active case finding with contact tracing from day 180",
		Config: engine.Config{
			Population:          1_000_000,
			DurationDays:        3650,
			TimeStep:            1,
			InitialInfected:     150,
			InitialLatent:       50_000,
			ImportedCasesPerDay: 2,
			Parameters:          params.NewDiseaseParameters(),
			Interventions: []params.Intervention{
				{
					Name:       "national active case finding",
					Type:       params.ActiveCaseFinding,
					StartDay:   180,
					EffectOnR0: 0.95,
					Parameters: map[string]float64{"caseFindingEfficacy": params.DefaultCaseFindingEffect},
				},
				{
					Name:       "contact tracing",
					Type:       params.ContactTracing,
					StartDay:   180,
					EffectOnR0: 0.95,
				},
			},
		},
	},
	{
		Name:        "comprehensive",
		Description: "Combined programme: neonatal and healthcare-worker BCG, DOTS, screening, and awareness",
		Config: engine.Config{
			Population:          1_000_000,
			DurationDays:        3650,
			TimeStep:            1,
			InitialInfected:     150,
			InitialLatent:       50_000,
			ImportedCasesPerDay: 2,
			Parameters:          params.NewDiseaseParameters(),
			Vaccination: params.VaccinationPolicy{
				Neonatal:           params.ProgrammePolicy{Enabled: true, CoverageTarget: 0.9},
				HealthcareWorker:   params.ProgrammePolicy{Enabled: true, CoverageTarget: 0.8},
				ImmigrantScreening: params.ScreeningPolicy{Enabled: true, Efficacy: params.OriginScreeningEfficacy},
				CatchUp:            params.CampaignPolicy{Enabled: true, CoverageTarget: 0.3, MaxAge: 35},
			},
			Interventions: []params.Intervention{
				{
					Name:       "directly observed therapy",
					Type:       params.DirectlyObservedTherapy,
					StartDay:   0,
					EffectOnR0: 0.9,
				},
				{
					Name:       "pre-entry screening",
					Type:       params.PreEntryScreening,
					StartDay:   0,
					EffectOnR0: 1,
					Parameters: map[string]float64{"screeningEfficacy": params.OriginScreeningEfficacy},
				},
				{
					Name:       "public awareness campaign",
					Type:       params.PublicAwarenessCampaign,
					StartDay:   0,
					EndDay:     intPtr(730),
					EffectOnR0: 0.98,
				},
			},
		},
	},
	{
		Name:        "high-burden",
		Description: "High-burden setting: larger seed epidemic, higher transmission, limited programmes",
		Config: engine.Config{
			Population:          1_000_000,
			DurationDays:        3650,
			TimeStep:            0.5,
			InitialInfected:     2_500,
			InitialLatent:       250_000,
			ImportedCasesPerDay: 10,
			Parameters: params.NewDiseaseParameters(params.Override{
				Beta: floatPtr(0.0030),
			}),
			Vaccination: params.VaccinationPolicy{
				Neonatal: params.ProgrammePolicy{Enabled: true, CoverageTarget: 0.6, RiskBasedEligibility: true},
			},
		},
	},
	{
		Name:        "elimination-push",
		Description: "Every lever pulled toward the low-incidence target",
		Config: engine.Config{
			Population:          1_000_000,
			DurationDays:        7300,
			TimeStep:            1,
			InitialInfected:     100,
			InitialLatent:       30_000,
			ImportedCasesPerDay: 1,
			Parameters:          params.NewDiseaseParameters(),
			Vaccination: params.VaccinationPolicy{
				Neonatal:           params.ProgrammePolicy{Enabled: true, CoverageTarget: 0.95},
				HealthcareWorker:   params.ProgrammePolicy{Enabled: true, CoverageTarget: 0.9},
				ImmigrantScreening: params.ScreeningPolicy{Enabled: true, Efficacy: 0.8},
				CatchUp:            params.CampaignPolicy{Enabled: true, CoverageTarget: 0.5, MaxAge: 40},
			},
			Interventions: []params.Intervention{
				{
					Name:       "universal BCG programme",
					Type:       params.UniversalBCG,
					StartDay:   0,
					EffectOnR0: 1,
				},
				{
					Name:       "latent TB treatment",
					Type:       params.LatentTBTreatment,
					StartDay:   0,
					EffectOnR0: 0.95,
				},
				{
					Name:       "border health checks",
					Type:       params.BorderHealthChecks,
					StartDay:   0,
					EffectOnR0: 1,
				},
			},
		},
	},
}

func floatPtr(v float64) *float64 { return &v }

// All returns a copy of the preset table.
func All() []Scenario {
	out := make([]Scenario, len(presets))
	copy(out, presets)
	return out
}

// Get returns the named preset, or ErrUnknownScenario.
func Get(name string) (Scenario, error) {
	for _, s := range presets {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, ErrUnknownScenario
}

// Names lists the preset names in table order.
func Names() []string {
	out := make([]string, len(presets))
	for i, s := range presets {
		out[i] = s.Name
	}
	return out
}
