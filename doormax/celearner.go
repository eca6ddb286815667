package doormax

import (
	"fmt"

	"taxi/world"
)

// celEntry pairs a ConditionLearner with the single effect it has come
// to associate with a "true" prediction. hasEffect distinguishes "the
// attribute did not change" (false) from an actual effect value.
type celEntry[E comparable] struct {
	learner   *ConditionLearner
	effect    E
	hasEffect bool
}

// CELearner learns, for one action and one state attribute, the set of
// (condition -> effect) rules that explain every experience seen so
// far. It is generic over the attribute's effect type so the same
// relational-learning machinery serves taxi-x, taxi-y, and passenger
// attributes without duplication.
type CELearner[E comparable] struct {
	entries []celEntry[E]
}

// NewCELearner returns an empty learner.
func NewCELearner[E comparable]() *CELearner[E] {
	return &CELearner[E]{}
}

// Predict applies apply to resolve the effect each matching entry
// predicts, returning the resulting state if every matching entry
// agrees and none are uncertain. Returns ok=false when the learner has
// no entries yet, the wholly unknown case.
func (c *CELearner[E]) Predict(
	w *world.World,
	s world.State,
	cond Condition,
	apply func(*world.World, world.State, E) world.State,
) (world.State, bool) {
	var result world.State
	found := false

	for _, entry := range c.entries {
		matches, known := entry.learner.Predict(cond)
		if !known {
			return world.State{}, false
		}
		if !matches {
			continue
		}

		var candidate world.State
		if entry.hasEffect {
			candidate = apply(w, s, entry.effect)
		} else {
			candidate = s
		}

		if found {
			if !candidate.Equal(result) {
				return world.State{}, false
			}
		} else {
			result = candidate
			found = true
		}
	}

	if !found {
		return world.State{}, false
	}
	return result, true
}

// ApplyExperience folds one observed (condition, effect) pair in: every
// existing entry is told whether its effect matches the one observed
// here; if none match, a fresh entry is allocated, seeded so its
// condition set excludes anything the existing entries already claim.
// If any two entries' hypotheses end up overlapping, the relational
// assumption has been violated and the whole learner resets.
func (c *CELearner[E]) ApplyExperience(cond Condition, effect E, hasEffect bool) {
	foundEntry := false
	for i := range c.entries {
		entry := &c.entries[i]
		matches := entry.hasEffect == hasEffect && (!hasEffect || entry.effect == effect)
		entry.learner.ApplyExperience(cond, matches)
		if matches {
			foundEntry = true
		}
	}

	if !foundEntry {
		learner := NewConditionLearner()
		learner.ApplyExperience(cond, true)
		for _, entry := range c.entries {
			learner.RemoveOverlap(entry.learner)
		}
		c.entries = append(c.entries, celEntry[E]{learner: learner, effect: effect, hasEffect: hasEffect})
	}

	for i := 0; i < len(c.entries); i++ {
		for j := i + 1; j < len(c.entries); j++ {
			if c.entries[i].learner.Overlaps(c.entries[j].learner) {
				c.entries = nil
				return
			}
		}
	}
}

// MCELearner combines three per-attribute CELearners (one per action)
// into a predictor of the full next state: taxi-x, taxi-y, and
// passenger effects are learned and predicted independently, and
// combined only at prediction time.
type MCELearner struct {
	taxiX     [world.NumActions]*CELearner[taxiXEffect]
	taxiY     [world.NumActions]*CELearner[taxiYEffect]
	passenger [world.NumActions]*CELearner[passengerEffect]
}

// NewMCELearner builds an empty combined model.
func NewMCELearner() *MCELearner {
	m := &MCELearner{}
	for a := 0; a < world.NumActions; a++ {
		m.taxiX[a] = NewCELearner[taxiXEffect]()
		m.taxiY[a] = NewCELearner[taxiYEffect]()
		m.passenger[a] = NewCELearner[passengerEffect]()
	}
	return m
}

// Predict returns the predicted next state for (state, action), or
// ok=false if any component attribute's effect is unknown.
func (m *MCELearner) Predict(w *world.World, s world.State, action world.Action) (world.State, bool) {
	cond := NewCondition(w, s)
	a := action.Index()

	xState, ok := m.taxiX[a].Predict(w, s, cond, func(w *world.World, s world.State, e taxiXEffect) world.State { return e.apply(w, s) })
	if !ok {
		return world.State{}, false
	}
	yState, ok := m.taxiY[a].Predict(w, s, cond, func(w *world.World, s world.State, e taxiYEffect) world.State { return e.apply(w, s) })
	if !ok {
		return world.State{}, false
	}
	pState, ok := m.passenger[a].Predict(w, s, cond, func(w *world.World, s world.State, e passengerEffect) world.State { return e.apply(w, s) })
	if !ok {
		return world.State{}, false
	}

	next := world.State{
		Taxi:        world.Position{X: xState.Taxi.X, Y: yState.Taxi.Y},
		Passenger:   pState.Passenger,
		Destination: s.Destination,
	}
	if next.Taxi.X < 0 || next.Taxi.X >= w.Width || next.Taxi.Y < 0 || next.Taxi.Y >= w.Height {
		// Every component learner claimed certainty, yet re-applying
		// their effects landed the taxi outside the world: the
		// relational model itself is inconsistent, not merely
		// uncertain. This is a programmer/model error, not a
		// recoverable unknown-prediction case.
		panic(fmt.Sprintf("doormax: effect produced out-of-world taxi position %v from state %v action %d", next.Taxi, s, action))
	}
	return next, true
}

// ApplyExperience folds one observed (state, action, nextState)
// transition into all three component learners.
func (m *MCELearner) ApplyExperience(w *world.World, s world.State, action world.Action, next world.State) {
	cond := NewCondition(w, s)
	a := action.Index()

	xEffect, hasX := generateTaxiXEffect(s, next)
	m.taxiX[a].ApplyExperience(cond, xEffect, hasX)

	yEffect, hasY := generateTaxiYEffect(s, next)
	m.taxiY[a].ApplyExperience(cond, yEffect, hasY)

	pEffect, hasP := generatePassengerEffect(s, next)
	m.passenger[a].ApplyExperience(cond, pEffect, hasP)
}
