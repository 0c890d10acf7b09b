package seir_test

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tbsim/internal/domain/compartments"
	"github.com/okian/tbsim/internal/domain/params"
	"github.com/okian/tbsim/internal/domain/seir"
)

func defaultState() compartments.State {
	return compartments.State{S: 900_000, V: 50_000, EHigh: 5_000, ELow: 40_000, I: 2_000, R: 3_000}
}

func TestForceOfInfection(t *testing.T) {
	Convey("Given default parameters", t, func() {
		p := params.NewDiseaseParameters()

		Convey("Then lambda is beta x I over the living population", func() {
			s := defaultState()
			So(seir.ForceOfInfection(s, p), ShouldAlmostEqual, p.Beta*s.I/s.Total())
		})

		Convey("Then zero infectious yields exactly zero", func() {
			s := defaultState()
			s.I = 0
			So(seir.ForceOfInfection(s, p), ShouldEqual, 0)
		})

		Convey("Then an empty population yields exactly zero, not NaN", func() {
			lambda := seir.ForceOfInfection(compartments.State{}, p)
			So(lambda, ShouldEqual, 0)
			So(math.IsNaN(lambda), ShouldBeFalse)
		})
	})
}

func TestDerivatives(t *testing.T) {
	Convey("Given a populated state and default parameters", t, func() {
		p := params.NewDiseaseParameters()
		s := defaultState()
		d := seir.Derivatives(s, p)

		Convey("Then deaths accumulate at muTb x I", func() {
			So(d.D, ShouldAlmostEqual, p.MuTB*s.I)
		})

		Convey("Then the low-risk latent pool is fed by stabilization and drained by reactivation", func() {
			So(d.ELow, ShouldAlmostEqual, p.Kappa*s.EHigh-(p.Omega+p.Mu)*s.ELow)
		})

		Convey("Then the living derivatives plus dD cancel the birth term exactly", func() {
			living := d.S + d.V + d.EHigh + d.ELow + d.I + d.R
			So(living+d.D, ShouldAlmostEqual, 0, 1e-9*s.Total())
		})

		Convey("Then every component is finite when compartments are zero", func() {
			z := seir.Derivatives(compartments.State{}, p)
			So(z.IsValid(), ShouldBeTrue)
		})
	})
}

func TestR0(t *testing.T) {
	Convey("Given default parameters", t, func() {
		p := params.NewDiseaseParameters()
		base := seir.R0(p)

		Convey("Then R0 is positive", func() {
			So(base, ShouldBeGreaterThan, 0)
		})

		Convey("Then R0 strictly increases with beta", func() {
			up := p
			up.Beta *= 1.5
			So(seir.R0(up), ShouldBeGreaterThan, base)
		})

		Convey("Then R0 strictly increases with epsilon", func() {
			up := p
			up.Epsilon *= 2
			So(seir.R0(up), ShouldBeGreaterThan, base)
		})

		Convey("Then R0 strictly decreases with gamma", func() {
			up := p
			up.Gamma *= 2
			So(seir.R0(up), ShouldBeLessThan, base)
		})

		Convey("Then zero transmission gives exactly zero", func() {
			z := p
			z.Beta = 0
			So(seir.R0(z), ShouldEqual, 0)
		})

		Convey("Then no progression pathway gives exactly zero", func() {
			z := p
			z.Epsilon = 0
			z.Omega = 0
			So(seir.R0(z), ShouldEqual, 0)
		})

		Convey("Then a single live pathway keeps R0 positive", func() {
			fastOnly := p
			fastOnly.Omega = 0
			So(seir.R0(fastOnly), ShouldBeGreaterThan, 0)

			slowOnly := p
			slowOnly.Epsilon = 0
			So(seir.R0(slowOnly), ShouldBeGreaterThan, 0)
		})
	})
}

func TestEffectiveR(t *testing.T) {
	Convey("Given default parameters and a mixed state", t, func() {
		p := params.NewDiseaseParameters()
		s := defaultState()

		Convey("Then effective R never exceeds R0 beyond tolerance", func() {
			So(seir.EffectiveR(s, p), ShouldBeLessThanOrEqualTo, seir.R0(p)*1.01)
		})

		Convey("Then moving people from S to V lowers effective R", func() {
			shifted := s
			shifted.S -= 100_000
			shifted.V += 100_000
			So(seir.EffectiveR(shifted, p), ShouldBeLessThan, seir.EffectiveR(s, p))
		})

		Convey("Then higher vaccine efficacy lowers effective R", func() {
			better := p
			better.VE = math.Min(1, p.VE+0.2)
			So(seir.EffectiveR(s, better), ShouldBeLessThan, seir.EffectiveR(s, p))
		})

		Convey("Then higher reinfection susceptibility raises effective R", func() {
			worse := p
			worse.Sigma = math.Min(1, p.Sigma+0.3)
			So(seir.EffectiveR(s, worse), ShouldBeGreaterThan, seir.EffectiveR(s, p))
		})

		Convey("Then an empty population gives exactly zero", func() {
			So(seir.EffectiveR(compartments.State{}, p), ShouldEqual, 0)
		})
	})
}

func TestNewInfectionsAndDeaths(t *testing.T) {
	Convey("Given default parameters and a mixed state", t, func() {
		p := params.NewDiseaseParameters()
		s := defaultState()

		Convey("Then new infections are linear in dt", func() {
			one := seir.NewInfections(s, p, 1)
			half := seir.NewInfections(s, p, 0.5)
			So(one, ShouldBeGreaterThan, 0)
			So(half*2, ShouldAlmostEqual, one)
		})

		Convey("Then new deaths are muTb x I x dt", func() {
			So(seir.NewDeaths(s, p, 0.25), ShouldAlmostEqual, 0.25*p.MuTB*s.I)
		})

		Convey("Then a disease-free state produces no new infections", func() {
			s.I = 0
			So(seir.NewInfections(s, p, 1), ShouldEqual, 0)
		})
	})
}

func TestIncidenceAndPrevalence(t *testing.T) {
	Convey("Given case counts and populations", t, func() {
		Convey("Then 100 cases in a million is 10 per 100k", func() {
			So(seir.IncidenceRate(100, 1_000_000), ShouldEqual, 10)
		})

		Convey("Then a zero population yields zero incidence", func() {
			So(seir.IncidenceRate(100, 0), ShouldEqual, 0)
		})

		Convey("Then prevalence is the infectious share of the living", func() {
			s := defaultState()
			So(seir.Prevalence(s), ShouldAlmostEqual, s.I/s.Total())
		})

		Convey("Then an empty state has zero prevalence", func() {
			So(seir.Prevalence(compartments.State{}), ShouldEqual, 0)
		})
	})
}

func TestNewInitialState(t *testing.T) {
	Convey("Given typical initial conditions", t, func() {
		s := seir.NewInitialState(1_000_000, 100, 10_000, 200_000)

		Convey("Then the latent pool splits 20/80 into high and low risk", func() {
			So(s.EHigh, ShouldEqual, 2_000)
			So(s.ELow, ShouldEqual, 8_000)
		})

		Convey("Then the remaining fields are seeded directly", func() {
			So(s.I, ShouldEqual, 100)
			So(s.V, ShouldEqual, 200_000)
			So(s.R, ShouldEqual, 0)
			So(s.D, ShouldEqual, 0)
		})

		Convey("Then S takes the remainder", func() {
			So(s.S, ShouldEqual, 789_900)
		})
	})

	Convey("Given overcommitted initial conditions", t, func() {
		s := seir.NewInitialState(1_000, 500, 400, 300)

		Convey("Then S never goes negative", func() {
			So(s.S, ShouldEqual, 0)
			So(s.IsValid(), ShouldBeTrue)
		})
	})
}
