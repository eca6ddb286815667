package doormax

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"taxi/world"
)

func buildSingleSiteWorld(t *testing.T) *world.World {
	t.Helper()
	// Canonical 2x2 single-site world used by the RMax-family scenarios.
	source := "┌───┐\n│R .│\n     \n│. .│\n└───┘"
	w, err := world.Parse(source, world.DefaultCosts())
	if err != nil {
		t.Fatalf("parse single-site world: %v", err)
	}
	return w
}

func TestMCELearnerLearnsMovement(t *testing.T) {
	Convey("Given a fresh MCELearner exercised with east-moves", t, func() {
		w := buildSingleSiteWorld(t)
		m := NewMCELearner()

		passenger := 'R'
		s, err := world.Build(w, world.Position{X: 0, Y: 0}, &passenger, 'R')
		So(err, ShouldBeNil)

		_, next := s.ApplyAction(w, world.East)
		m.ApplyExperience(w, s, world.East, next)

		Convey("it predicts the same transition it was trained on", func() {
			predicted, ok := m.Predict(w, s, world.East)
			So(ok, ShouldBeTrue)
			So(predicted.Equal(next), ShouldBeTrue)
		})

		Convey("it remains unknown for an action it has never observed", func() {
			_, ok := m.Predict(w, s, world.South)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestMCELearnerLearnsPickupAndDropoff(t *testing.T) {
	Convey("Given an MCELearner trained through a full pickup/dropoff cycle", t, func() {
		w := buildSingleSiteWorld(t)
		m := NewMCELearner()

		passenger := 'R'
		atSite, err := world.Build(w, world.Position{X: 0, Y: 0}, &passenger, 'R')
		So(err, ShouldBeNil)

		_, boarded := atSite.ApplyAction(w, world.PickUp)
		m.ApplyExperience(w, atSite, world.PickUp, boarded)

		Convey("pickup is predicted to clear the passenger tag", func() {
			predicted, ok := m.Predict(w, atSite, world.PickUp)
			So(ok, ShouldBeTrue)
			So(predicted.Passenger, ShouldBeNil)
		})

		_, delivered := boarded.ApplyAction(w, world.DropOff)
		m.ApplyExperience(w, boarded, world.DropOff, delivered)

		Convey("dropoff at the destination is predicted terminal", func() {
			predicted, ok := m.Predict(w, boarded, world.DropOff)
			So(ok, ShouldBeTrue)
			So(predicted.IsTerminal(), ShouldBeTrue)
		})
	})
}

func TestRewardTableLearnsMovementCost(t *testing.T) {
	Convey("Given a RewardTable trained on repeated movement", t, func() {
		w := buildSingleSiteWorld(t)
		table := NewRewardTable(1)

		passenger := 'R'
		s, err := world.Build(w, world.Position{X: 0, Y: 0}, &passenger, 'R')
		So(err, ShouldBeNil)

		table.ApplyExperience(w, s, world.East, w.Costs.Movement)

		Convey("it reports the learned reward as known", func() {
			reward, ok := table.GetReward(w, s, world.East)
			So(ok, ShouldBeTrue)
			So(reward, ShouldEqual, w.Costs.Movement)
		})
	})
}
