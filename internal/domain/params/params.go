package params

import "math"

// DiseaseParameters is the ten-rate vector driving the differential model.
// Every field is a probability-like daily rate in [0, 1]; Beta must be
// strictly positive.
type DiseaseParameters struct {
	Beta    float64 `json:"beta" koanf:"beta"`       // transmission rate per contact-day
	Epsilon float64 `json:"epsilon" koanf:"epsilon"` // E_H -> I fast progression
	Kappa   float64 `json:"kappa" koanf:"kappa"`     // E_H -> E_L stabilization
	Omega   float64 `json:"omega" koanf:"omega"`     // E_L -> I reactivation
	Gamma   float64 `json:"gamma" koanf:"gamma"`     // I -> R recovery
	Mu      float64 `json:"mu" koanf:"mu"`           // natural background mortality
	MuTB    float64 `json:"muTb" koanf:"mu_tb"`      // disease-specific mortality of I
	Rho     float64 `json:"rho" koanf:"rho"`         // S -> V vaccination rate
	VE      float64 `json:"ve" koanf:"ve"`           // vaccine efficacy
	Sigma   float64 `json:"sigma" koanf:"sigma"`     // relative re-infection susceptibility of R
}

// Override replaces individual fields after derivation. A set override wins
// even when it produces an inconsistent derived set; that is the contract,
// callers asking for an override get exactly what they asked for.
type Override struct {
	Beta    *float64
	Epsilon *float64
	Kappa   *float64
	Omega   *float64
	Gamma   *float64
	Mu      *float64
	MuTB    *float64
	Rho     *float64
	VE      *float64
	Sigma   *float64
}

// NewDiseaseParameters derives the parameter vector from the research
// constants, then applies overrides last.
func NewDiseaseParameters(overrides ...Override) DiseaseParameters {
	avgInfectious := AverageInfectiousDuration()

	// Treatment-weighted average inverse infectious period.
	gamma := TreatmentCoverage/InfectiousPeriodTreated +
		(1-TreatmentCoverage)/InfectiousPeriodUntreated

	// Calibrate transmission so the default R0 holds at the average contact
	// rate and infectious duration.
	beta := R0Default / (ContactRateGeneral * avgInfectious)

	// Treatment-weighted case fatality spread over the infectious period.
	cfr := TreatmentCoverage*CaseFatalityTreated +
		(1-TreatmentCoverage)*CaseFatalityUntreated
	muTB := cfr / avgInfectious

	p := DiseaseParameters{
		Beta:    beta,
		Epsilon: FastProgressionRate,
		Kappa:   StabilizationRate,
		Omega:   ReactivationRate,
		Gamma:   gamma,
		Mu:      NaturalMortalityRate,
		MuTB:    muTB,
		Rho:     BaselineVaccinationRate,
		VE:      BCGEfficacyNeonatal,
		Sigma:   ReinfectionSusceptibility,
	}

	for _, o := range overrides {
		if o.Beta != nil {
			p.Beta = *o.Beta
		}
		if o.Epsilon != nil {
			p.Epsilon = *o.Epsilon
		}
		if o.Kappa != nil {
			p.Kappa = *o.Kappa
		}
		if o.Omega != nil {
			p.Omega = *o.Omega
		}
		if o.Gamma != nil {
			p.Gamma = *o.Gamma
		}
		if o.Mu != nil {
			p.Mu = *o.Mu
		}
		if o.MuTB != nil {
			p.MuTB = *o.MuTB
		}
		if o.Rho != nil {
			p.Rho = *o.Rho
		}
		if o.VE != nil {
			p.VE = *o.VE
		}
		if o.Sigma != nil {
			p.Sigma = *o.Sigma
		}
	}
	return p
}

// EffectiveR0 computes the basic reproduction number under current vaccine
// coverage: R0 = beta x contact rate x infectious duration, discounted by
// the immunized share of the population.
func EffectiveR0(p DiseaseParameters, vaccineCoverage float64) float64 {
	if p.Gamma <= 0 {
		return 0
	}
	r0 := p.Beta * ContactRateGeneral * (1 / p.Gamma)
	return r0 * (1 - p.VE*vaccineCoverage)
}

// AdjustedBCGEfficacy returns the protection remaining yearsSince
// vaccination for someone vaccinated at ageAtVaccination. Protection wanes
// exponentially and expires entirely past the protection duration.
func AdjustedBCGEfficacy(ageAtVaccination, yearsSince float64) float64 {
	if yearsSince > BCGProtectionDuration {
		return 0
	}
	var base float64
	switch {
	case ageAtVaccination < 1:
		base = BCGEfficacyNeonatal
	case ageAtVaccination < 16:
		base = BCGEfficacyChildhood
	default:
		base = BCGEfficacyAdult
	}
	years := math.Min(yearsSince, BCGProtectionDuration)
	return base * math.Pow(1-BCGAnnualWaning, years)
}
