package world

import "math/rand"

// State is the taxi's position, the passenger's location tag (or nil if
// aboard), and the destination tag. States are value objects: freely
// copied, never shared by reference.
type State struct {
	Taxi        Position
	Passenger   *rune // nil means the passenger is riding in the taxi
	Destination rune
}

// Equal reports whether s and other describe the same state. A value
// comparison, since Passenger is a pointer and == would compare
// addresses rather than the tag it points to.
func (s State) Equal(other State) bool {
	if s.Taxi != other.Taxi || s.Destination != other.Destination {
		return false
	}
	if (s.Passenger == nil) != (other.Passenger == nil) {
		return false
	}
	return s.Passenger == nil || *s.Passenger == *other.Passenger
}

// IsTerminal reports whether the passenger has been delivered: aboard
// (Passenger == nil) is not itself terminal, only a delivered drop-off
// sets Passenger to the destination id.
func (s State) IsTerminal() bool {
	return s.Passenger != nil && *s.Passenger == s.Destination
}

// ApplyAction is the single authoritative simulator step: it resolves
// action against world at s.Taxi, and returns the reward and resulting
// state. It is a pure function of (s, action, world).
func (s State) ApplyAction(w *World, action Action) (float64, State) {
	affect := w.DetermineAffect(s.Taxi, action)

	switch affect.Kind {
	case Move:
		next := s
		next.Taxi = s.Taxi.Add(affect.Delta)
		return w.Costs.Movement, next

	case PickUp_:
		if s.Passenger != nil && *s.Passenger == affect.ID {
			next := s
			next.Passenger = nil
			return 0.0, next
		}
		return w.Costs.MissPickup, s

	case DropOff_:
		if s.Passenger == nil && affect.ID == s.Destination {
			id := affect.ID
			next := s
			next.Passenger = &id
			return 0.0, next
		}
		return w.Costs.MissDropoff, s

	default: // Invalid
		switch action {
		case North, South, East, West:
			return w.Costs.Movement, s
		case PickUp:
			return w.Costs.MissPickup, s
		case DropOff:
			return w.Costs.MissDropoff, s
		}
		return w.Costs.EmptyDropoff, s
	}
}

// BuildErrorKind discriminates structured State construction failures.
type BuildErrorKind int

const (
	InvalidTaxi BuildErrorKind = iota
	InvalidDestination
	InvalidPassenger
	TooFewFixedPositions
	FailedToFindDestination
)

// BuildError is returned by Build/BuildRandom for any invalid state.
type BuildError struct {
	Kind BuildErrorKind
}

func (e *BuildError) Error() string {
	switch e.Kind {
	case InvalidTaxi:
		return "taxi position is out of bounds"
	case InvalidDestination:
		return "destination is not a known fixed site"
	case InvalidPassenger:
		return "passenger is not a known fixed site"
	case TooFewFixedPositions:
		return "world has fewer than two fixed sites"
	case FailedToFindDestination:
		return "failed to find a distinct destination site"
	default:
		return "unknown state build error"
	}
}

// Build validates and constructs a State from explicit fields.
func Build(w *World, taxi Position, passenger *rune, destination rune) (State, error) {
	if taxi.X < 0 || taxi.X >= w.Width || taxi.Y < 0 || taxi.Y >= w.Height {
		return State{}, &BuildError{Kind: InvalidTaxi}
	}
	if _, ok := w.FixedPosition(destination); !ok {
		return State{}, &BuildError{Kind: InvalidDestination}
	}
	if passenger != nil {
		if _, ok := w.FixedPosition(*passenger); !ok {
			return State{}, &BuildError{Kind: InvalidPassenger}
		}
	}
	return State{Taxi: taxi, Passenger: passenger, Destination: destination}, nil
}

// BuildRandom samples a uniformly random valid initial state: a random
// taxi cell, and a (passenger, destination) pair drawn from distinct
// fixed sites, guaranteeing passenger != destination.
func BuildRandom(w *World, rng *rand.Rand) (State, error) {
	n := w.NumFixedPositions()
	if n < 2 {
		return State{}, &BuildError{Kind: TooFewFixedPositions}
	}

	taxi := Position{X: rng.Intn(w.Width), Y: rng.Intn(w.Height)}

	destIndex := rng.Intn(n)
	destination, ok := w.FixedIDFromIndex(destIndex)
	if !ok {
		return State{}, &BuildError{Kind: FailedToFindDestination}
	}

	passengerIndex := (destIndex + 1 + rng.Intn(n-1)) % n
	passengerID, ok := w.FixedIDFromIndex(passengerIndex)
	if !ok {
		return State{}, &BuildError{Kind: FailedToFindDestination}
	}

	return State{Taxi: taxi, Passenger: &passengerID, Destination: destination}, nil
}

// Display renders the world with this state's taxi/passenger/destination
// overlaid using the reserved glyphs: 'd' marks the destination site,
// 'p' marks the passenger's waiting site (only while not aboard), and
// 't'/'T' mark the taxi (uppercase while carrying the passenger). The
// taxi glyph replaces any site glyph on the cell it occupies.
func (s State) Display(w *World) string {
	lines := w.RenderLines()

	for y := 0; y < w.Height; y++ {
		contentLine := []rune(lines[2*y+1])
		for x := 0; x < w.Width; x++ {
			col := 2*x + 1
			if c, ok := s.glyphAt(w, Position{X: x, Y: y}); ok {
				contentLine[col] = c
			}
		}
		lines[2*y+1] = string(contentLine)
	}

	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}

// glyphAt returns the overlay glyph for a given cell, if any; the taxi
// glyph takes precedence over the site glyph it may be standing on.
func (s State) glyphAt(w *World, pos Position) (rune, bool) {
	onTaxi := pos == s.Taxi

	if onTaxi {
		if s.Passenger == nil {
			return 'T', true
		}
		return 't', true
	}

	if destPos, ok := w.FixedPosition(s.Destination); ok && destPos == pos {
		return 'd', true
	}

	if s.Passenger != nil {
		if waitPos, ok := w.FixedPosition(*s.Passenger); ok && waitPos == pos {
			return 'p', true
		}
	}

	return 0, false
}
