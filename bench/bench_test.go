package bench

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"taxi/randomsolver"
	"taxi/runner"
	"taxi/world"
)

func buildTwoSiteWorld(t *testing.T) *world.World {
	t.Helper()
	source := "┌───────┐\n│R . . .│\n         \n│. . . B│\n└───────┘"
	w, err := world.Parse(source, world.DefaultCosts())
	if err != nil {
		t.Fatalf("parse two-site world: %v", err)
	}
	return w
}

func TestRunTrainsEverySeedIndependently(t *testing.T) {
	Convey("Given a random solver run across several seeds on a tiny world", t, func() {
		w := buildTwoSiteWorld(t)
		seeds := []int64{1, 2, 3}

		results, dist, err := Run(
			context.Background(),
			w,
			nil,
			1,
			10000,
			func() runner.Runner { return randomsolver.New() },
			seeds,
		)

		Convey("every seed produces a result and the distribution reflects successes", func() {
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, len(seeds))
			So(dist.Count(), ShouldBeGreaterThan, 0)
		})
	})
}

func TestRunRespectsCancellation(t *testing.T) {
	Convey("Given an already-cancelled context", t, func() {
		w := buildTwoSiteWorld(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := Run(
			ctx,
			w,
			nil,
			1,
			10000,
			func() runner.Runner { return randomsolver.New() },
			[]int64{1},
		)

		Convey("Run returns the cancellation error", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
