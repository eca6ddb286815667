package doormax

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"taxi/world"
)

func TestDoorMaxSolvesSingleSiteWorld(t *testing.T) {
	Convey("Given a DoorMax learner on a 2x2 single-site world", t, func() {
		w := buildSingleSiteWorld(t)
		d := New(w, 0.3, 1e-6, 1, false)
		rng := rand.New(rand.NewSource(1))

		// Passenger aboard (nil): a single-site world has no distinct
		// waiting location, so a fresh non-terminal state starts with
		// the passenger already picked up, bound for the one site.
		initial, err := world.Build(w, world.Position{X: 1, Y: 1}, nil, 'R')
		So(err, ShouldBeNil)

		Convey("training to completion then attempting reaches the terminal state", func() {
			for trial := 0; trial < 200; trial++ {
				d.Learn(w, initial, 50, rng)
			}

			attempt := d.Attempt(w, initial, 50, rng)
			So(attempt.Success, ShouldBeTrue)

			state := attempt.InitialState
			for _, action := range attempt.Actions {
				_, state = state.ApplyAction(w, action)
			}
			So(state.IsTerminal(), ShouldBeTrue)
		})

		Convey("Solves agrees with Attempt's outcome", func() {
			for trial := 0; trial < 200; trial++ {
				d.Learn(w, initial, 50, rng)
			}
			So(d.Solves(w, initial, 50, rng), ShouldBeTrue)
		})
	})
}

func TestDoorMaxWithRelationalRewardLearner(t *testing.T) {
	Convey("Given a DoorMax learner using the relational reward model", t, func() {
		w := buildSingleSiteWorld(t)
		d := New(w, 0.3, 1e-6, 1, true)
		rng := rand.New(rand.NewSource(2))

		// Passenger aboard (nil): a single-site world has no distinct
		// waiting location, so a fresh non-terminal state starts with
		// the passenger already picked up, bound for the one site.
		initial, err := world.Build(w, world.Position{X: 1, Y: 1}, nil, 'R')
		So(err, ShouldBeNil)

		Convey("it also reaches the terminal state once trained", func() {
			for trial := 0; trial < 200; trial++ {
				d.Learn(w, initial, 50, rng)
			}
			So(d.Solves(w, initial, 50, rng), ShouldBeTrue)
		})
	})
}
