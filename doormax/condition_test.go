package doormax

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"taxi/world"
)

// buildCornerWorld is the spec's 4x2 grid used to exercise a
// ConditionLearner trained on an "is north-west corner" label.
func buildCornerWorld(t *testing.T) *world.World {
	t.Helper()
	source := "┌───────┐\n│R . . .│\n         \n│. . . B│\n└───────┘"
	w, err := world.Parse(source, world.DefaultCosts())
	if err != nil {
		t.Fatalf("parse corner world: %v", err)
	}
	return w
}

func TestConditionEnumerateAll(t *testing.T) {
	Convey("EnumerateAll produces every distinct condition exactly once", t, func() {
		all := EnumerateAll()
		So(len(all), ShouldEqual, 1<<NumTerms)

		seen := make(map[Condition]bool, len(all))
		for _, c := range all {
			seen[c] = true
		}
		So(len(seen), ShouldEqual, 1<<NumTerms)
	})
}

func TestConditionLearnerNorthWestCorner(t *testing.T) {
	Convey("Given a 4x2 grid with a labeled north-west corner", t, func() {
		w := buildCornerWorld(t)
		passenger := 'R'

		nwState, err := world.Build(w, world.Position{X: 0, Y: 0}, &passenger, 'B')
		So(err, ShouldBeNil)
		swState, err := world.Build(w, world.Position{X: 0, Y: 1}, &passenger, 'B')
		So(err, ShouldBeNil)

		nwCond := NewCondition(w, nwState)
		swCond := NewCondition(w, swState)

		Convey("only (0,0) touches both the north and west walls", func() {
			So(nwCond[TouchWallN], ShouldBeTrue)
			So(nwCond[TouchWallW], ShouldBeTrue)
			So(swCond[TouchWallN], ShouldBeFalse)
			So(swCond[TouchWallW], ShouldBeTrue)
		})

		Convey("a learner trained on these two labels predicts correctly", func() {
			learner := NewConditionLearner()
			learner.ApplyExperience(nwCond, true)
			learner.ApplyExperience(swCond, false)

			occurs, known := learner.Predict(nwCond)
			So(known, ShouldBeTrue)
			So(occurs, ShouldBeTrue)

			occurs, known = learner.Predict(swCond)
			So(known, ShouldBeTrue)
			So(occurs, ShouldBeFalse)
		})
	})
}

func TestHypothesisCombineCondGeneralizes(t *testing.T) {
	Convey("CombineCond relaxes disagreeing terms to don't-care", t, func() {
		var a, b Condition
		a[TouchWallN] = true
		a[OnPassenger] = true
		b[TouchWallN] = true
		b[OnPassenger] = false

		h := hypothesisFromCondition(a)
		So(h[OnPassenger], ShouldEqual, RequireTrue)

		relaxed := h.CombineCond(b)
		So(relaxed[TouchWallN], ShouldEqual, RequireTrue)
		So(relaxed[OnPassenger], ShouldEqual, RequireNone)
	})
}
