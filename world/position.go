package world

// Position is a 2-D integer grid coordinate. Positions are value types,
// freely copied; there is no owner.
type Position struct {
	X, Y int
}

// Add returns the component-wise sum of two positions.
func (p Position) Add(delta Position) Position {
	return Position{X: p.X + delta.X, Y: p.Y + delta.Y}
}
