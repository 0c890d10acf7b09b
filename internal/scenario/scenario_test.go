package scenario_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tbsim/internal/engine"
	"github.com/okian/tbsim/internal/scenario"
)

func TestGet(t *testing.T) {
	Convey("Given the preset table", t, func() {
		Convey("When requesting a known scenario", func() {
			s, err := scenario.Get("baseline")

			Convey("Then the preset is returned", func() {
				So(err, ShouldBeNil)
				So(s.Name, ShouldEqual, "baseline")
				So(s.Config.Population, ShouldEqual, 1_000_000)
			})
		})

		Convey("When requesting an unknown scenario", func() {
			_, err := scenario.Get("submarine")

			Convey("Then the sentinel error is returned", func() {
				So(errors.Is(err, scenario.ErrUnknownScenario), ShouldBeTrue)
			})
		})
	})
}

func TestNames(t *testing.T) {
	Convey("Given the preset table", t, func() {
		names := scenario.Names()

		Convey("Then every name resolves through Get", func() {
			So(len(names), ShouldBeGreaterThanOrEqualTo, 6)
			for _, name := range names {
				s, err := scenario.Get(name)
				So(err, ShouldBeNil)
				So(s.Name, ShouldEqual, name)
			}
		})

		Convey("Then baseline comes first", func() {
			So(names[0], ShouldEqual, "baseline")
		})
	})
}

func TestAllPresetsConstructEngines(t *testing.T) {
	Convey("Given every preset", t, func() {
		for _, s := range scenario.All() {
			s := s
			Convey("Then scenario "+s.Name+" yields a valid engine", func() {
				eng, err := engine.New(s.Config)
				So(err, ShouldBeNil)
				So(eng.Status(), ShouldEqual, engine.StatusIdle)
			})
		}
	})
}

func TestAllReturnsCopy(t *testing.T) {
	Convey("Given the preset table", t, func() {
		all := scenario.All()
		all[0].Name = "mutated"

		Convey("Then mutating the returned slice leaves the table intact", func() {
			fresh, err := scenario.Get("baseline")
			So(err, ShouldBeNil)
			So(fresh.Name, ShouldEqual, "baseline")
			So(scenario.All()[0].Name, ShouldEqual, "baseline")
		})
	})
}
