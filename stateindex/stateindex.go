// Package stateindex provides a bijection between world.State values and
// a dense integer range, used by every tabular learner to key its value
// and model tables.
package stateindex

import "taxi/world"

// StateIndexer computes and inverts state indices for a fixed world.
// It holds no mutable state of its own; all dimensions are derived from
// the world at construction.
type StateIndexer struct {
	width, height int
	numSites      int
	taxiCount     int
	numStates     int
}

// New builds a StateIndexer over w's dimensions and site count.
func New(w *world.World) *StateIndexer {
	numSites := w.NumFixedPositions()
	taxiCount := w.Width * w.Height
	// passenger takes numSites+1 values (one per site, plus "aboard").
	numStates := taxiCount * (numSites + 1) * numSites

	return &StateIndexer{
		width:     w.Width,
		height:    w.Height,
		numSites:  numSites,
		taxiCount: taxiCount,
		numStates: numStates,
	}
}

// NumStates returns the total number of distinct states this indexer
// covers.
func (si *StateIndexer) NumStates() int {
	return si.numStates
}

// passengerIndex maps a state's passenger tag to its index in
// [0, numSites], where numSites itself denotes "aboard".
func (si *StateIndexer) passengerIndex(w *world.World, s world.State) (int, bool) {
	if s.Passenger == nil {
		return si.numSites, true
	}
	return w.FixedIndex(*s.Passenger)
}

// Index computes the dense integer index of state s. The second return
// value is false if s references a site unknown to w.
func (si *StateIndexer) Index(w *world.World, s world.State) (int, bool) {
	destIndex, ok := w.FixedIndex(s.Destination)
	if !ok {
		return 0, false
	}
	passengerIndex, ok := si.passengerIndex(w, s)
	if !ok {
		return 0, false
	}

	taxiIndex := s.Taxi.Y*si.width + s.Taxi.X

	index := ((destIndex*(si.numSites+1) + passengerIndex) * si.taxiCount) + taxiIndex
	return index, true
}

// State recovers the State corresponding to index, the inverse of
// Index. The second return value is false for an out-of-range index.
func (si *StateIndexer) State(w *world.World, index int) (world.State, bool) {
	if index < 0 || index >= si.numStates {
		return world.State{}, false
	}

	taxiIndex := index % si.taxiCount
	rest := index / si.taxiCount

	passengerIndex := rest % (si.numSites + 1)
	destIndex := rest / (si.numSites + 1)

	taxiX := taxiIndex % si.width
	taxiY := taxiIndex / si.width

	destination, ok := w.FixedIDFromIndex(destIndex)
	if !ok {
		return world.State{}, false
	}

	var passenger *rune
	if passengerIndex < si.numSites {
		id, ok := w.FixedIDFromIndex(passengerIndex)
		if !ok {
			return world.State{}, false
		}
		passenger = &id
	}

	return world.State{
		Taxi:        world.Position{X: taxiX, Y: taxiY},
		Passenger:   passenger,
		Destination: destination,
	}, true
}
