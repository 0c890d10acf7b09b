// Package integrator advances the compartment state through time with a
// classic 4th-order Runge-Kutta scheme over the seir derivatives.
package integrator

import (
	"github.com/okian/tbsim/internal/domain/compartments"
	"github.com/okian/tbsim/internal/domain/params"
	"github.com/okian/tbsim/internal/domain/seir"
)

// RK4 returns the state advanced by dt. The scheme is stable for dt in
// [0.01, 1.0] with epidemiologically realistic parameters. Negative values
// arising from float noise are not clamped here; callers validate the
// result.
func RK4(s compartments.State, p params.DiseaseParameters, dt float64) compartments.State {
	k1 := seir.Derivatives(s, p)
	k2 := seir.Derivatives(s.Add(k1.Scale(dt/2)), p)
	k3 := seir.Derivatives(s.Add(k2.Scale(dt/2)), p)
	k4 := seir.Derivatives(s.Add(k3.Scale(dt)), p)

	increment := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4).Scale(dt / 6)
	return s.Add(increment)
}
