package replay

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"taxi/runner"
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

func TestBuildFramesReplaysEveryAction(t *testing.T) {
	Convey("Given a recorded attempt over two moves and a dropoff", t, func() {
		w := buildSingleSiteWorld(t)
		initial, err := world.Build(w, world.Position{X: 1, Y: 1}, nil, 'R')
		So(err, ShouldBeNil)

		actions := []world.Action{world.West, world.North, world.DropOff}
		attempt := runner.Attempt{InitialState: initial, Actions: actions, Success: true}

		Convey("it produces one more frame than there are actions", func() {
			frames := BuildFrames(w, attempt)
			So(len(frames), ShouldEqual, len(actions)+1)
			So(frames[0], ShouldResemble, initial)
		})

		Convey("the final frame matches applying every action by hand", func() {
			frames := BuildFrames(w, attempt)
			state := initial
			for _, action := range actions {
				_, state = state.ApplyAction(w, action)
			}
			So(frames[len(frames)-1], ShouldResemble, state)
		})
	})
}
