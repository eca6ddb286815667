package randomsolver

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"taxi/world"
)

func buildSingleSiteWorld(t *testing.T) *world.World {
	t.Helper()
	source := "┌───┐\n│R .│\n     \n│. .│\n└───┘"
	w, err := world.Parse(source, world.DefaultCosts())
	if err != nil {
		t.Fatalf("parse single-site world: %v", err)
	}
	return w
}

func TestRandomSolverReachesTerminalGivenEnoughSteps(t *testing.T) {
	Convey("Given a random solver over a tiny single-site world", t, func() {
		w := buildSingleSiteWorld(t)
		r := New()
		rng := rand.New(rand.NewSource(1))

		initial, err := world.Build(w, world.Position{X: 1, Y: 1}, nil, 'R')
		So(err, ShouldBeNil)

		Convey("Solves eventually succeeds with a generous step budget", func() {
			solved := r.Solves(w, initial, 10000, rng)
			So(solved, ShouldBeTrue)
		})

		Convey("Attempt records a non-empty, successful action sequence", func() {
			attempt := r.Attempt(w, initial, 10000, rng)
			So(attempt.Success, ShouldBeTrue)
			So(len(attempt.Actions), ShouldBeGreaterThan, 0)
		})

		Convey("Learn returns nil when the step budget is too small to finish", func() {
			steps := r.Learn(w, initial, 0, rng)
			So(steps, ShouldBeNil)
		})
	})
}
