// cell_views contains the taxi board view, derived from the Cell view-model.
package cell_views

import (
	"taxi/world"
)

// Cell is a single grid square's renderable state: wall sides, a short
// label (site tag, taxi marker such as "T*" or "T(R)", or blank), and a
// fill color hint.
// Fields are immediately usable as template parameters.
type Cell struct {
	X, Y  int
	Label string
	Fill  string
	Wall  world.Wall
}

// Convert transforms a world and the taxi's current state into a grid of
// Cells for consumption by the board view. Unlike the grid_world lineage
// this adapts from (a [x][y][vx][vy]State volume reduced to one Max value
// per cell), a taxi board has exactly one occupant state to render, so
// Convert takes the World (for fixed layout: walls and sites) and the
// current world.State (for what moves: taxi position, passenger, and
// destination) and builds the full [x][y] cell grid fresh each call.
func Convert(w *world.World, state world.State) [][]Cell {
	cells := make([][]Cell, w.Width)
	for x := range cells {
		cells[x] = make([]Cell, w.Height)
		for y := range cells[x] {
			cells[x][y] = Cell{
				X:    x,
				Y:    y,
				Wall: w.WallAt(world.Position{X: x, Y: y}),
				Fill: "white",
			}
		}
	}

	for i := 0; i < w.NumFixedPositions(); i++ {
		tag, _ := w.FixedIDFromIndex(i)
		pos, _ := w.FixedPosition(tag)
		cell := &cells[pos.X][pos.Y]
		cell.Label = string(tag)
		cell.Fill = "lightyellow"
		if state.Destination == tag {
			cell.Fill = "lightgreen"
		}
	}

	taxiCell := &cells[state.Taxi.X][state.Taxi.Y]
	if state.Passenger != nil {
		taxiCell.Label = "T(" + string(*state.Passenger) + ")"
	} else {
		taxiCell.Label = "T*"
	}
	taxiCell.Fill = "lightblue"

	return cells
}
