// Package seir computes the instantaneous dynamics of the TB compartment
// model: derivatives, force of infection, reproduction numbers, and the
// derived epidemiological quantities reported per step.
//
// Every formula guards its zero cases explicitly: a zero population or zero
// infectious count yields exact zeros, never NaN or a division by zero.
package seir

import (
	"math"

	"github.com/okian/tbsim/internal/domain/compartments"
	"github.com/okian/tbsim/internal/domain/params"
)

// Per-100k scaling for incidence rates.
const incidenceScale = 100_000

// Latent infections split on initialization: the recently infected share
// carries the fast-progression risk.
const (
	initialHighRiskShare = 0.2
	initialLowRiskShare  = 0.8
)

// ForceOfInfection returns lambda = beta x I / N over the living population.
func ForceOfInfection(s compartments.State, p params.DiseaseParameters) float64 {
	n := s.Total()
	if n == 0 || s.I == 0 {
		return 0
	}
	return p.Beta * s.I / n
}

// Derivatives returns the instantaneous rate of change of every compartment.
//
// Flows: S->V (vaccination), S,V,R -> E_H (infection, V and R at reduced
// rates), E_H -> E_L (stabilization), E_H -> I (fast progression),
// E_L -> I (reactivation), I -> R (recovery), I -> D (disease death).
// Births enter S and background deaths leave every living compartment at
// rate mu, keeping the living population near-stationary absent disease.
func Derivatives(s compartments.State, p params.DiseaseParameters) compartments.State {
	n := s.Total()
	lambda := ForceOfInfection(s, p)

	return compartments.State{
		S:     p.Mu*n - lambda*s.S - p.Rho*s.S - p.Mu*s.S,
		V:     p.Rho*s.S - (1-p.VE)*lambda*s.V - p.Mu*s.V,
		EHigh: lambda*s.S + (1-p.VE)*lambda*s.V + p.Sigma*lambda*s.R - (p.Epsilon+p.Kappa+p.Mu)*s.EHigh,
		ELow:  p.Kappa*s.EHigh - (p.Omega+p.Mu)*s.ELow,
		I:     p.Epsilon*s.EHigh + p.Omega*s.ELow - (p.Gamma+p.MuTB+p.Mu)*s.I,
		R:     p.Gamma*s.I - p.Sigma*lambda*s.R - p.Mu*s.R,
		D:     p.MuTB * s.I,
	}
}

// R0 returns the basic reproduction number, combining the fast-progression
// and slow-reactivation pathways weighted by the transmission term.
func R0(p params.DiseaseParameters) float64 {
	if p.Beta == 0 || (p.Epsilon == 0 && p.Omega == 0) {
		return 0
	}

	latentExit := p.Epsilon + p.Kappa + p.Mu
	infectiousExit := p.Gamma + p.MuTB + p.Mu
	if latentExit == 0 || infectiousExit == 0 {
		return 0
	}

	fast := p.Epsilon / latentExit
	slow := 0.0
	if reactExit := p.Omega + p.Mu; reactExit > 0 {
		slow = (p.Kappa / latentExit) * (p.Omega / reactExit)
	}

	weight := p.Beta * params.ContactRateGeneral / infectiousExit
	return weight * (fast + slow)
}

// EffectiveR evaluates R0 against the current susceptible, vaccinated, and
// recovered mix. It never exceeds R0, falls as vaccination or efficacy
// rises, grows with re-infection susceptibility, and is exactly 0 for an
// empty population.
func EffectiveR(s compartments.State, p params.DiseaseParameters) float64 {
	n := s.Total()
	if n == 0 {
		return 0
	}
	susceptible := s.S + (1-p.VE)*s.V + p.Sigma*s.R
	return R0(p) * susceptible / n
}

// NewInfections returns the closed-form number of new infections over a dt
// window at the current state. Linear in dt.
func NewInfections(s compartments.State, p params.DiseaseParameters, dt float64) float64 {
	lambda := ForceOfInfection(s, p)
	return dt * (lambda*s.S + (1-p.VE)*lambda*s.V + p.Sigma*lambda*s.R)
}

// NewDeaths returns the closed-form number of TB deaths over a dt window.
func NewDeaths(s compartments.State, p params.DiseaseParameters, dt float64) float64 {
	return dt * p.MuTB * s.I
}

// IncidenceRate converts a case count into a per-100k rate.
func IncidenceRate(newCases, population float64) float64 {
	if population == 0 {
		return 0
	}
	return newCases / population * incidenceScale
}

// Prevalence returns the infectious share of the living population.
func Prevalence(s compartments.State) float64 {
	n := s.Total()
	if n == 0 {
		return 0
	}
	return s.I / n
}

// NewInitialState builds the day-0 compartments. Latent infections split
// 20/80 into high and low risk; S takes the non-negative remainder even when
// the inputs overcommit the population.
func NewInitialState(totalPopulation, initialInfected, initialLatent, initialVaccinated float64) compartments.State {
	return compartments.State{
		S:     math.Max(0, totalPopulation-initialInfected-initialLatent-initialVaccinated),
		V:     initialVaccinated,
		EHigh: initialHighRiskShare * initialLatent,
		ELow:  initialLowRiskShare * initialLatent,
		I:     initialInfected,
		R:     0,
		D:     0,
	}
}
