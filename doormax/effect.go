package doormax

import "taxi/world"

// taxiXEffect is the observed signed delta in the taxi's x coordinate
// between consecutive states.
type taxiXEffect struct{ delta int }

func generateTaxiXEffect(old, next world.State) (taxiXEffect, bool) {
	if old.Taxi.X == next.Taxi.X {
		return taxiXEffect{}, false
	}
	return taxiXEffect{delta: next.Taxi.X - old.Taxi.X}, true
}

func (e taxiXEffect) apply(w *world.World, s world.State) world.State {
	s.Taxi.X += e.delta
	return s
}

// taxiYEffect is the observed signed delta in the taxi's y coordinate.
type taxiYEffect struct{ delta int }

func generateTaxiYEffect(old, next world.State) (taxiYEffect, bool) {
	if old.Taxi.Y == next.Taxi.Y {
		return taxiYEffect{}, false
	}
	return taxiYEffect{delta: next.Taxi.Y - old.Taxi.Y}, true
}

func (e taxiYEffect) apply(w *world.World, s world.State) world.State {
	s.Taxi.Y += e.delta
	return s
}

// passengerEffect is the observed new passenger tag: nil means the
// passenger boarded (now riding in the taxi), a non-nil rune means the
// passenger is now waiting at that site (a delivery). An unchanged
// passenger tag produces no effect at all.
type passengerEffect struct {
	value  rune
	aboard bool
}

func generatePassengerEffect(old, next world.State) (passengerEffect, bool) {
	if (old.Passenger == nil) == (next.Passenger == nil) &&
		(old.Passenger == nil || *old.Passenger == *next.Passenger) {
		return passengerEffect{}, false
	}
	if next.Passenger == nil {
		return passengerEffect{aboard: true}, true
	}
	return passengerEffect{value: *next.Passenger}, true
}

func (e passengerEffect) apply(w *world.World, s world.State) world.State {
	if e.aboard {
		s.Passenger = nil
		return s
	}
	v := e.value
	s.Passenger = &v
	return s
}
