package cell_views

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

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

func TestConvertMarksTaxiAndSites(t *testing.T) {
	Convey("Given a two-site world and a state with the passenger aboard and the taxi at R", t, func() {
		w := buildTwoSiteWorld(t)
		state, err := world.Build(w, world.Position{X: 0, Y: 0}, nil, 'B')
		So(err, ShouldBeNil)

		Convey("Convert labels the taxi cell and marks the destination site", func() {
			cells := Convert(w, state)
			So(len(cells), ShouldEqual, w.Width)
			So(len(cells[0]), ShouldEqual, w.Height)

			So(cells[0][0].Label, ShouldEqual, "T*")
			So(cells[3][1].Label, ShouldEqual, "B")
			So(cells[3][1].Fill, ShouldEqual, "lightgreen")
		})
	})
}
