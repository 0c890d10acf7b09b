package params

import "math"

// InterventionType tags a public-health intervention kind.
type InterventionType string

// Known intervention types. Unknown types are skipped during adjustment so
// forward-compatible configurations degrade gracefully.
const (
	PreEntryScreening       InterventionType = "pre_entry_screening"
	ActiveCaseFinding       InterventionType = "active_case_finding"
	ContactTracing          InterventionType = "contact_tracing"
	DirectlyObservedTherapy InterventionType = "directly_observed_therapy"
	LatentTBTreatment       InterventionType = "latent_tb_treatment"
	UniversalBCG            InterventionType = "universal_bcg"
	HealthcareWorkerBCG     InterventionType = "healthcare_worker_bcg"
	BorderHealthChecks      InterventionType = "border_health_checks"
	PublicAwarenessCampaign InterventionType = "public_awareness_campaign"
)

// Intervention is a named, time-windowed policy modifier. Immutable once
// constructed; the engine evaluates activity per day.
type Intervention struct {
	Name       string             `json:"name" koanf:"name"`
	Type       InterventionType   `json:"type" koanf:"type"`
	StartDay   int                `json:"startDay" koanf:"start_day"`
	EndDay     *int               `json:"endDay,omitempty" koanf:"end_day"`
	EffectOnR0 float64            `json:"effectOnR0" koanf:"effect_on_r0"` // direct multiplicative factor on transmission; 0 means unset
	Parameters map[string]float64 `json:"parameters,omitempty" koanf:"parameters"`
}

// ActiveOn reports whether the intervention applies on day. The window is
// inclusive on both ends and open-ended without an EndDay.
func (iv Intervention) ActiveOn(day int) bool {
	if day < iv.StartDay {
		return false
	}
	return iv.EndDay == nil || day <= *iv.EndDay
}

// policyEffect is one row of the static per-type effect table. Zero-valued
// multipliers mean "no effect on that rate"; no real effect is 0x.
type policyEffect struct {
	beta      float64 // fixed multiplier on beta
	betaCoeff float64 // scaled multiplier: beta *= 1 - betaCoeff*Parameters[betaParam]
	betaParam string
	gamma     float64 // multiplier on gamma
	rho       float64 // multiplier on rho
	muTB      float64 // multiplier on muTb
	ve        float64 // vaccine-efficacy override
	hasVE     bool
}

var policyEffects = map[InterventionType]policyEffect{
	PreEntryScreening:       {betaCoeff: 0.3, betaParam: "screeningEfficacy"},
	ActiveCaseFinding:       {betaCoeff: 0.2, betaParam: "caseFindingEfficacy", gamma: 1.5},
	ContactTracing:          {beta: 0.85, gamma: 1.1},
	DirectlyObservedTherapy: {gamma: 1.2, muTB: 0.7},
	LatentTBTreatment:       {beta: 0.8},
	UniversalBCG:            {rho: 10, ve: BCGEfficacyNeonatal, hasVE: true},
	HealthcareWorkerBCG:     {rho: 2, ve: BCGEfficacyAdult, hasVE: true},
	BorderHealthChecks:      {beta: 0.9},
	PublicAwarenessCampaign: {beta: 0.95, gamma: 1.05},
}

// AdjustForPolicy applies every intervention active on day to base and
// returns the adjusted copy. Type effects and each intervention's own
// EffectOnR0 compose multiplicatively; the accumulated multipliers are
// applied once at the end. A vaccine-efficacy override takes the max across
// active policies and replaces VE only if at least one was present.
func AdjustForPolicy(base DiseaseParameters, interventions []Intervention, day int) DiseaseParameters {
	betaMult, gammaMult, rhoMult, muTBMult := 1.0, 1.0, 1.0, 1.0
	veOverride, hasVE := 0.0, false

	for _, iv := range interventions {
		if !iv.ActiveOn(day) {
			continue
		}
		eff, known := policyEffects[iv.Type]
		if !known {
			continue
		}

		if eff.beta != 0 {
			betaMult *= eff.beta
		}
		if eff.betaCoeff != 0 {
			betaMult *= 1 - eff.betaCoeff*iv.Parameters[eff.betaParam]
		}
		if eff.gamma != 0 {
			gammaMult *= eff.gamma
		}
		if eff.rho != 0 {
			rhoMult *= eff.rho
		}
		if eff.muTB != 0 {
			muTBMult *= eff.muTB
		}
		if eff.hasVE {
			veOverride = math.Max(veOverride, eff.ve)
			hasVE = true
		}
		if v, ok := iv.Parameters["veAdjustment"]; ok {
			veOverride = math.Max(veOverride, v)
			hasVE = true
		}

		// The explicit transmission factor stacks on top of the categorical
		// type effect. Intentional double counting, preserved from the
		// policy model this table was calibrated against.
		if iv.EffectOnR0 > 0 {
			betaMult *= iv.EffectOnR0
		}
	}

	out := base
	out.Beta *= betaMult
	out.Gamma *= gammaMult
	out.Rho = math.Min(out.Rho*rhoMult, 1)
	out.MuTB *= muTBMult
	if hasVE {
		out.VE = veOverride
	}
	return out
}
