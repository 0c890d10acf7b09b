// Package compartments defines the fixed-shape population state of the TB
// model and the vector arithmetic the integrator is built on.
//
// Conventions:
// - All operations are pure; none mutates its receiver or arguments.
// - Add and Scale must accept negative values: Runge-Kutta combines weighted
//   derivative terms that are not physical states.
package compartments

import "math"

// State holds the seven compartments of the model at one instant.
// D is cumulative and excluded from the living population.
type State struct {
	S     float64 `json:"s"`     // susceptible, never infected, unvaccinated
	V     float64 `json:"v"`     // vaccinated, partial protection
	EHigh float64 `json:"eHigh"` // exposed, high-risk latent (fast progression)
	ELow  float64 `json:"eLow"`  // exposed, low-risk latent (slow reactivation)
	I     float64 `json:"i"`     // infectious, active disease
	R     float64 `json:"r"`     // recovered, treated or self-cured
	D     float64 `json:"d"`     // cumulative TB deaths
}

// Total returns the living population: the sum of the six compartments
// excluding cumulative deaths.
func (s State) Total() float64 {
	return s.S + s.V + s.EHigh + s.ELow + s.I + s.R
}

// Add returns the element-wise sum of s and o across all seven fields.
func (s State) Add(o State) State {
	return State{
		S:     s.S + o.S,
		V:     s.V + o.V,
		EHigh: s.EHigh + o.EHigh,
		ELow:  s.ELow + o.ELow,
		I:     s.I + o.I,
		R:     s.R + o.R,
		D:     s.D + o.D,
	}
}

// Scale returns s with every field multiplied by factor.
func (s State) Scale(factor float64) State {
	return State{
		S:     s.S * factor,
		V:     s.V * factor,
		EHigh: s.EHigh * factor,
		ELow:  s.ELow * factor,
		I:     s.I * factor,
		R:     s.R * factor,
		D:     s.D * factor,
	}
}

// Clone returns an independent copy of s.
func (s State) Clone() State {
	return s
}

// IsValid reports whether every compartment is finite and non-negative.
// It is a post-condition check after integration, not an input guard.
func (s State) IsValid() bool {
	for _, v := range [...]float64{s.S, s.V, s.EHigh, s.ELow, s.I, s.R, s.D} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
