package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultConfigurationBuildsAWorld(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := Default()

		Convey("it builds a 5x5 world with four fixed sites", func() {
			w, err := cfg.BuildWorld()
			So(err, ShouldBeNil)
			So(w.Width, ShouldEqual, 5)
			So(w.Height, ShouldEqual, 5)
			So(w.NumFixedPositions(), ShouldEqual, 4)
		})
	})
}

func TestCostsConfigResolveOverridesOnlySetFields(t *testing.T) {
	Convey("Given a CostsConfig overriding only Movement", t, func() {
		movement := -2.0
		c := CostsConfig{Movement: &movement}

		Convey("Resolve keeps the default for every other cost", func() {
			costs := c.Resolve()
			So(costs.Movement, ShouldEqual, -2.0)
			So(costs.MissPickup, ShouldEqual, -10.0)
			So(costs.MissDropoff, ShouldEqual, -10.0)
			So(costs.EmptyDropoff, ShouldEqual, -10.0)
		})
	})
}

func TestSeedRandIsDeterministic(t *testing.T) {
	Convey("Given a fixed Seed", t, func() {
		s := Seed{A: 7, B: 11}

		Convey("Rand produces the same stream across calls", func() {
			a := s.Rand().Int63()
			b := s.Rand().Int63()
			So(a, ShouldEqual, b)
		})
	})
}

func TestLoadPopulatesCamelCaseTaggedSubConfigs(t *testing.T) {
	Convey("Given a YAML document naming a camelCase solver sub-config key", t, func() {
		doc := "world: \"┌───┐\\n│R .│\\n     \\n│. .│\\n└───┘\"\n" +
			"maxTrials: 3\n" +
			"maxTrialSteps: 50\n" +
			"qLearner:\n" +
			"  alpha: 0.5\n" +
			"  gamma: 0.9\n" +
			"  epsilon: 0.1\n" +
			"  report: true\n"

		dir := t.TempDir()
		path := filepath.Join(dir, "session.yaml")
		So(os.WriteFile(path, []byte(doc), 0o644), ShouldBeNil)

		Convey("Load resolves the camelCase keys instead of silently dropping them", func() {
			cfg, err := Load(path)
			So(err, ShouldBeNil)
			So(cfg.MaxTrials, ShouldEqual, 3)
			So(cfg.MaxTrialSteps, ShouldEqual, 50)
			So(cfg.QLearner, ShouldNotBeNil)
			So(cfg.QLearner.Alpha, ShouldEqual, 0.5)
			So(cfg.QLearner.Report, ShouldBeTrue)
		})
	})
}

func TestProbeToRunnerProbeValidatesAgainstWorld(t *testing.T) {
	Convey("Given the default configuration's world", t, func() {
		cfg := Default()
		w, err := cfg.BuildWorld()
		So(err, ShouldBeNil)

		Convey("a probe naming an unknown destination tag fails to resolve", func() {
			p := Probe{TaxiX: 0, TaxiY: 0, DestinationLoc: 'Z', MaxSteps: 10}
			_, err := p.ToRunnerProbe(w)
			So(err, ShouldNotBeNil)
		})

		Convey("a probe naming a valid destination tag resolves", func() {
			p := Probe{TaxiX: 0, TaxiY: 0, DestinationLoc: 'R', MaxSteps: 10}
			rp, err := p.ToRunnerProbe(w)
			So(err, ShouldBeNil)
			So(rp.MaxSteps, ShouldEqual, 10)
		})
	})
}
