package engine_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tbsim/internal/domain/params"
	"github.com/okian/tbsim/internal/engine"
)

func intPtr(v int) *int         { return &v }
func floatPtr(v float64) *float64 { return &v }

func baseConfig() engine.Config {
	return engine.Config{
		Population:      1_000_000,
		DurationDays:    10,
		TimeStep:        1,
		InitialInfected: 1_000,
		InitialLatent:   50_000,
		Parameters:      params.NewDiseaseParameters(),
	}
}

func TestNew(t *testing.T) {
	Convey("Given a valid configuration", t, func() {
		eng, err := engine.New(baseConfig())

		Convey("Then construction succeeds in the idle state", func() {
			So(err, ShouldBeNil)
			So(eng.Status(), ShouldEqual, engine.StatusIdle)
			So(eng.CurrentDay(), ShouldEqual, 0)
		})

		Convey("Then the first history point and initialization event are recorded", func() {
			st := eng.GetState()
			So(len(st.History), ShouldEqual, 1)
			So(len(st.Events), ShouldEqual, 1)
			So(st.Events[0].Type, ShouldEqual, engine.EventInitialization)
		})
	})

	Convey("Given invalid configurations", t, func() {
		Convey("Then a zero population is rejected", func() {
			cfg := baseConfig()
			cfg.Population = 0
			_, err := engine.New(cfg)
			So(err, ShouldNotBeNil)
		})

		Convey("Then invalid disease parameters are fatal at construction", func() {
			cfg := baseConfig()
			cfg.Parameters.Beta = 0
			_, err := engine.New(cfg)
			So(err, ShouldNotBeNil)
		})

		Convey("Then an out-of-range time step is rejected", func() {
			cfg := baseConfig()
			cfg.TimeStep = 2
			_, err := engine.New(cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestInitialVaccination(t *testing.T) {
	Convey("Given enabled vaccination programmes", t, func() {
		cfg := baseConfig()
		cfg.Vaccination = params.VaccinationPolicy{
			Neonatal:         params.ProgrammePolicy{Enabled: true, CoverageTarget: 0.9},
			HealthcareWorker: params.ProgrammePolicy{Enabled: true, CoverageTarget: 0.8},
		}
		eng, err := engine.New(cfg)
		So(err, ShouldBeNil)

		Convey("Then the eligible-proportion heuristics seed the vaccinated pool", func() {
			// 30% of 1M at 90% coverage plus 5% of 1M at 80% coverage.
			So(eng.GetState().Compartments.V, ShouldAlmostEqual, 270_000+40_000, 1e-6)
		})

		Convey("Then the counterfactual track starts unvaccinated", func() {
			So(eng.GetCounterfactualState().V, ShouldEqual, 0)
		})
	})
}

func TestStatusMachine(t *testing.T) {
	Convey("Given a fresh engine", t, func() {
		eng, err := engine.New(baseConfig())
		So(err, ShouldBeNil)

		Convey("Then pause and resume are no-ops outside their states", func() {
			eng.Pause()
			So(eng.Status(), ShouldEqual, engine.StatusIdle)
			eng.Resume()
			So(eng.Status(), ShouldEqual, engine.StatusIdle)
		})

		Convey("Then start transitions to running and pause/resume cycle", func() {
			eng.Start()
			So(eng.Status(), ShouldEqual, engine.StatusRunning)
			eng.Pause()
			So(eng.Status(), ShouldEqual, engine.StatusPaused)
			eng.Start() // acts as resume
			So(eng.Status(), ShouldEqual, engine.StatusRunning)
		})

		Convey("Then the run completes at its configured duration", func() {
			snapshots := eng.Run(100)
			So(len(snapshots), ShouldEqual, 10)
			So(eng.Status(), ShouldEqual, engine.StatusCompleted)
			So(eng.CurrentDay(), ShouldEqual, 10)

			Convey("And stepping past completion is a silent no-op", func() {
				st := eng.Step()
				So(st.CurrentDay, ShouldEqual, 10)
				So(st.Status, ShouldEqual, engine.StatusCompleted)
			})
		})
	})
}

func TestStep(t *testing.T) {
	Convey("Given a fresh engine", t, func() {
		eng, err := engine.New(baseConfig())
		So(err, ShouldBeNil)

		Convey("When stepping one day", func() {
			st := eng.Step()

			Convey("Then the day advances and a history point is appended", func() {
				So(st.CurrentDay, ShouldEqual, 1)
				So(st.Status, ShouldEqual, engine.StatusRunning)
				So(len(st.History), ShouldEqual, 2)
				So(st.History[1].NewInfections, ShouldBeGreaterThan, 0)
			})

			Convey("Then compartments stay valid", func() {
				So(st.Compartments.IsValid(), ShouldBeTrue)
			})
		})

		Convey("When running in bounded batches", func() {
			first := eng.Run(4)
			rest := eng.Run(100)

			Convey("Then Run honors min(steps, remaining)", func() {
				So(len(first), ShouldEqual, 4)
				So(len(rest), ShouldEqual, 6)
				So(eng.Status(), ShouldEqual, engine.StatusCompleted)
			})
		})
	})

	Convey("Given a sub-day time step", t, func() {
		cfg := baseConfig()
		cfg.TimeStep = 0.25
		eng, err := engine.New(cfg)
		So(err, ShouldBeNil)

		Convey("Then a step still advances exactly one day", func() {
			st := eng.Step()
			So(st.CurrentDay, ShouldEqual, 1)
			So(st.Compartments.IsValid(), ShouldBeTrue)
		})
	})
}

func TestVaccinationReducesInfections(t *testing.T) {
	Convey("Given two year-long runs differing only in the vaccination rate", t, func() {
		low := baseConfig()
		low.DurationDays = 365
		low.Parameters = params.NewDiseaseParameters(params.Override{Rho: floatPtr(0.00001)})

		high := baseConfig()
		high.DurationDays = 365
		high.Parameters = params.NewDiseaseParameters(params.Override{Rho: floatPtr(0.01)})

		lowEng, err := engine.New(low)
		So(err, ShouldBeNil)
		highEng, err := engine.New(high)
		So(err, ShouldBeNil)

		lowEng.Run(365)
		highEng.Run(365)

		Convey("Then the high-rho run accumulates strictly fewer infections", func() {
			So(highEng.Summary().CumulativeInfections, ShouldBeLessThan,
				lowEng.Summary().CumulativeInfections)
		})
	})
}

func TestPrevented(t *testing.T) {
	Convey("Given a run with vaccination enabled", t, func() {
		cfg := baseConfig()
		cfg.DurationDays = 120
		cfg.Parameters = params.NewDiseaseParameters(params.Override{Rho: floatPtr(0.005)})
		cfg.Vaccination = params.VaccinationPolicy{
			Neonatal: params.ProgrammePolicy{Enabled: true, CoverageTarget: 0.9},
		}
		eng, err := engine.New(cfg)
		So(err, ShouldBeNil)
		eng.Run(120)

		Convey("Then prevented counts are never negative", func() {
			prevented := eng.CalculatePrevented()
			So(prevented.Infections, ShouldBeGreaterThanOrEqualTo, 0)
			So(prevented.Deaths, ShouldBeGreaterThanOrEqualTo, 0)
		})

		Convey("Then the vaccinated run prevents some infections", func() {
			So(eng.CalculatePrevented().Infections, ShouldBeGreaterThan, 0)
		})
	})
}

func TestImportedCases(t *testing.T) {
	Convey("Given imported cases with immigrant screening enabled", t, func() {
		cfg := baseConfig()
		cfg.InitialInfected = 0
		cfg.InitialLatent = 0
		cfg.ImportedCasesPerDay = 100
		cfg.Vaccination.ImmigrantScreening = params.ScreeningPolicy{Enabled: true, Efficacy: 0.6}
		eng, err := engine.New(cfg)
		So(err, ShouldBeNil)

		st := eng.Step()

		Convey("Then the main track receives the screened rate", func() {
			So(st.History[1].NewInfections, ShouldAlmostEqual, 40, 0.5)
		})

		Convey("Then the counterfactual receives the full rate", func() {
			So(eng.GetCounterfactualState().EHigh, ShouldBeGreaterThan, st.Compartments.EHigh)
		})
	})

	Convey("Given an active pre-entry screening intervention", t, func() {
		cfg := baseConfig()
		cfg.InitialInfected = 0
		cfg.InitialLatent = 0
		cfg.ImportedCasesPerDay = 100
		cfg.Vaccination.ImmigrantScreening = params.ScreeningPolicy{Enabled: true, Efficacy: 0.2}
		cfg.Interventions = []params.Intervention{
			{Name: "pre-entry", Type: params.PreEntryScreening, StartDay: 0, EffectOnR0: 1},
		}
		eng, err := engine.New(cfg)
		So(err, ShouldBeNil)

		st := eng.Step()

		Convey("Then the stronger fixed screening contribution wins", func() {
			So(st.History[1].NewInfections, ShouldAlmostEqual, 30, 0.5)
		})
	})
}

func TestEvents(t *testing.T) {
	Convey("Given an intervention with a bounded window", t, func() {
		cfg := baseConfig()
		cfg.Interventions = []params.Intervention{
			{Name: "tracing pilot", Type: params.ContactTracing, StartDay: 3, EndDay: intPtr(6), EffectOnR0: 1},
		}
		eng, err := engine.New(cfg)
		So(err, ShouldBeNil)
		eng.Run(10)

		Convey("Then policy start and end events land on the boundary days", func() {
			var startDay, endDay int
			for _, ev := range eng.GetState().Events {
				switch ev.Type {
				case engine.EventPolicyStart:
					startDay = ev.Day
				case engine.EventPolicyEnd:
					endDay = ev.Day
				}
			}
			So(startDay, ShouldEqual, 3)
			So(endDay, ShouldEqual, 6)
		})
	})

	Convey("Given a high-mortality epidemic", t, func() {
		cfg := baseConfig()
		cfg.DurationDays = 30
		cfg.InitialInfected = 20_000
		cfg.Parameters = params.NewDiseaseParameters(params.Override{MuTB: floatPtr(0.001)})
		eng, err := engine.New(cfg)
		So(err, ShouldBeNil)
		eng.Run(30)

		Convey("Then death milestones are recorded once each", func() {
			count := 0
			for _, ev := range eng.GetState().Events {
				if ev.Type == engine.EventDeathMilestone && ev.Details["milestone"] == 100 {
					count++
				}
			}
			So(count, ShouldEqual, 1)
		})
	})

	Convey("Given a quiet run that suddenly gains imported cases", t, func() {
		cfg := baseConfig()
		cfg.InitialInfected = 0
		cfg.InitialLatent = 0
		cfg.DurationDays = 20
		eng, err := engine.New(cfg)
		So(err, ShouldBeNil)

		eng.Run(5)
		eng.UpdateConfig(engine.ConfigPatch{ImportedCasesPerDay: floatPtr(50)})
		eng.Run(3)

		events := eng.GetState().Events
		types := make(map[engine.EventType]bool)
		for _, ev := range events {
			types[ev.Type] = true
		}

		Convey("Then an outbreak is detected", func() {
			So(types[engine.EventOutbreakDetected], ShouldBeTrue)
		})

		Convey("Then the incidence threshold crossing is recorded", func() {
			So(types[engine.EventThresholdCrossed], ShouldBeTrue)
		})
	})
}

func TestBoundedRetention(t *testing.T) {
	Convey("Given tight history and event bounds", t, func() {
		cfg := baseConfig()
		cfg.DurationDays = 50
		eng, err := engine.New(cfg, engine.WithHistoryLimit(10), engine.WithMaxEvents(2))
		So(err, ShouldBeNil)
		eng.Run(50)

		st := eng.GetState()

		Convey("Then history keeps only the most recent points", func() {
			So(len(st.History), ShouldEqual, 10)
			So(st.History[len(st.History)-1].Day, ShouldEqual, 50)
		})

		Convey("Then the event log is truncated oldest-first", func() {
			So(len(st.Events), ShouldBeLessThanOrEqualTo, 2)
		})
	})
}

func TestSnapshotIsDefensive(t *testing.T) {
	Convey("Given a stepped engine", t, func() {
		eng, err := engine.New(baseConfig())
		So(err, ShouldBeNil)
		eng.Step()

		Convey("When a caller mutates the returned history", func() {
			st := eng.GetState()
			st.History[0].NewInfections = 999_999

			Convey("Then the engine's own record is unchanged", func() {
				So(eng.GetState().History[0].NewInfections, ShouldNotEqual, 999_999)
			})
		})
	})
}

func TestSetSpeed(t *testing.T) {
	Convey("Given an engine", t, func() {
		eng, err := engine.New(baseConfig())
		So(err, ShouldBeNil)

		Convey("Then speed clamps into [0.1, 10]", func() {
			eng.SetSpeed(0.001)
			So(eng.Speed(), ShouldEqual, 0.1)
			eng.SetSpeed(1_000)
			So(eng.Speed(), ShouldEqual, 10)
			eng.SetSpeed(2.5)
			So(eng.Speed(), ShouldEqual, 2.5)
		})
	})
}

func TestGetMetrics(t *testing.T) {
	Convey("Given a disease-free engine", t, func() {
		cfg := baseConfig()
		cfg.InitialInfected = 0
		cfg.InitialLatent = 0
		eng, err := engine.New(cfg)
		So(err, ShouldBeNil)

		m := eng.GetMetrics()

		Convey("Then incidence is zero and the WHO target is met", func() {
			So(m.CurrentIncidenceRate, ShouldEqual, 0)
			So(m.WHOTargetProgress, ShouldEqual, 100)
			So(m.LowIncidenceStatus, ShouldBeTrue)
		})
	})

	Convey("Given an active epidemic", t, func() {
		eng, err := engine.New(baseConfig())
		So(err, ShouldBeNil)
		eng.Run(10)

		m := eng.GetMetrics()

		Convey("Then the derived metrics reflect the run", func() {
			So(m.TotalInfections, ShouldBeGreaterThan, 0)
			So(m.CurrentPrevalence, ShouldBeGreaterThan, 0)
			So(m.EffectiveR, ShouldBeGreaterThan, 0)
			So(m.CurrentIncidenceRate, ShouldBeGreaterThan, 0)
		})
	})
}

func TestUpdateConfig(t *testing.T) {
	Convey("Given a running engine", t, func() {
		eng, err := engine.New(baseConfig())
		So(err, ShouldBeNil)
		eng.Run(5)
		before := eng.GetState().Compartments

		Convey("When the disease parameters change", func() {
			p := params.NewDiseaseParameters(params.Override{Beta: floatPtr(0.0005)})
			eng.UpdateConfig(engine.ConfigPatch{Parameters: &p})

			Convey("Then policy adjustment is reapplied without resetting compartments", func() {
				So(eng.GetCurrentParams().Beta, ShouldAlmostEqual, 0.0005)
				So(eng.GetState().Compartments, ShouldResemble, before)
				So(eng.CurrentDay(), ShouldEqual, 5)
			})
		})

		Convey("When the duration is extended after completion", func() {
			eng.Run(100)
			So(eng.Status(), ShouldEqual, engine.StatusCompleted)
			eng.UpdateConfig(engine.ConfigPatch{DurationDays: intPtr(20)})

			Convey("Then the engine can step again", func() {
				st := eng.Step()
				So(st.CurrentDay, ShouldEqual, 11)
			})
		})
	})
}

func TestReset(t *testing.T) {
	Convey("Given a completed run", t, func() {
		eng, err := engine.New(baseConfig())
		So(err, ShouldBeNil)
		eng.Run(10)

		Convey("When reset", func() {
			eng.Reset()
			st := eng.GetState()

			Convey("Then everything reinitializes exactly as construction did", func() {
				So(st.CurrentDay, ShouldEqual, 0)
				So(st.Status, ShouldEqual, engine.StatusIdle)
				So(len(st.History), ShouldEqual, 1)
				So(st.Metrics.TotalInfections, ShouldEqual, 0)
			})
		})
	})
}

func TestPartitionByRegion(t *testing.T) {
	Convey("Given a state and regional shares", t, func() {
		eng, err := engine.New(baseConfig())
		So(err, ShouldBeNil)
		s := eng.GetState().Compartments

		regions := []engine.Region{
			{Name: "north", Share: 3},
			{Name: "south", Share: 1},
		}

		Convey("Then shares are normalized into a proportional partition", func() {
			parts := engine.PartitionByRegion(s, regions)
			So(parts["north"].Total(), ShouldAlmostEqual, s.Total()*0.75, 1e-6)
			So(parts["south"].Total(), ShouldAlmostEqual, s.Total()*0.25, 1e-6)
		})

		Convey("Then no regions yields the aggregate", func() {
			parts := engine.PartitionByRegion(s, nil)
			So(parts["all"], ShouldResemble, s)
		})
	})
}
