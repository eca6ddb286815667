package doormax

import "taxi/world"

// rewardKey parent-keys the dense reward table: fields an action
// doesn't depend on are left at zero, merging observations across the
// ignored dimension exactly as factoredrmax's parentKey does.
type rewardKey struct {
	TaxiCell    int
	Passenger   int
	Destination int
}

// rewardEntry is a running mean/count, identical in shape to RMax's.
type rewardEntry struct {
	mean  float64
	count float64
}

// RewardTable is the default reward model: a running mean per map entry
// keyed by (action, taxi-cell[, passenger, destination]).
type RewardTable struct {
	byAction   []map[rewardKey]*rewardEntry
	knownCount float64
}

// NewRewardTable builds an empty table; knownCount is the visit
// threshold at which an entry freezes.
func NewRewardTable(knownCount float64) *RewardTable {
	byAction := make([]map[rewardKey]*rewardEntry, world.NumActions)
	for a := range byAction {
		byAction[a] = make(map[rewardKey]*rewardEntry)
	}
	return &RewardTable{byAction: byAction, knownCount: knownCount}
}

func rewardKeyFor(w *world.World, s world.State, action world.Action) rewardKey {
	taxiCell := s.Taxi.Y*w.Width + s.Taxi.X

	switch action {
	case world.PickUp:
		return rewardKey{TaxiCell: taxiCell, Passenger: passengerIndex(w, s)}
	case world.DropOff:
		destIdx, _ := w.FixedIndex(s.Destination)
		return rewardKey{TaxiCell: taxiCell, Passenger: passengerIndex(w, s), Destination: destIdx}
	default:
		return rewardKey{TaxiCell: taxiCell}
	}
}

// passengerIndex maps the passenger tag to an index in [0, numSites],
// where numSites itself denotes "aboard", matching stateindex's
// convention.
func passengerIndex(w *world.World, s world.State) int {
	if s.Passenger == nil {
		return w.NumFixedPositions()
	}
	idx, _ := w.FixedIndex(*s.Passenger)
	return idx
}

func (t *RewardTable) entry(w *world.World, s world.State, action world.Action) *rewardEntry {
	key := rewardKeyFor(w, s, action)
	m := t.byAction[action.Index()]
	e, ok := m[key]
	if !ok {
		e = &rewardEntry{}
		m[key] = e
	}
	return e
}

// ApplyExperience folds one observed reward in, while the entry has
// not yet reached knownCount.
func (t *RewardTable) ApplyExperience(w *world.World, s world.State, action world.Action, reward float64) {
	e := t.entry(w, s, action)
	if e.count < t.knownCount {
		e.mean = (e.mean*e.count + reward) / (e.count + 1)
		e.count++
	}
}

// GetReward returns the learned mean reward for (s,a), if known.
func (t *RewardTable) GetReward(w *world.World, s world.State, action world.Action) (float64, bool) {
	key := rewardKeyFor(w, s, action)
	e, ok := t.byAction[action.Index()][key]
	if !ok || e.count < t.knownCount {
		return 0, false
	}
	return e.mean, true
}

// rewardConditionEntry pairs a ConditionLearner with the single reward
// value it predicts when its hypothesis matches.
type rewardConditionEntry struct {
	learner *ConditionLearner
	reward  float64
}

// RewardLearner is a CELearner specialized to predict a scalar reward
// rather than a state delta, for one fixed action.
type RewardLearner struct {
	entries []rewardConditionEntry
}

// Predict returns the predicted reward, if every matching entry agrees
// and none are uncertain.
func (r *RewardLearner) Predict(cond Condition) (float64, bool) {
	result := 0.0
	found := false

	for _, entry := range r.entries {
		matches, known := entry.learner.Predict(cond)
		if !known {
			return 0, false
		}
		if !matches {
			continue
		}
		if found {
			if result != entry.reward {
				return 0, false
			}
		} else {
			result = entry.reward
			found = true
		}
	}

	return result, found
}

// ApplyExperience folds one observed (condition, reward) pair in,
// mirroring CELearner.ApplyExperience with a scalar reward instead of a
// state-effect value.
func (r *RewardLearner) ApplyExperience(cond Condition, reward float64) {
	foundEntry := false
	for i := range r.entries {
		entry := &r.entries[i]
		matches := entry.reward == reward
		entry.learner.ApplyExperience(cond, matches)
		if matches {
			foundEntry = true
		}
	}

	if !foundEntry {
		learner := NewConditionLearner()
		learner.ApplyExperience(cond, true)
		for _, entry := range r.entries {
			learner.RemoveOverlap(entry.learner)
		}
		r.entries = append(r.entries, rewardConditionEntry{learner: learner, reward: reward})
	}

	for i := 0; i < len(r.entries); i++ {
		for j := i + 1; j < len(r.entries); j++ {
			if r.entries[i].learner.Overlaps(r.entries[j].learner) {
				r.entries = nil
				return
			}
		}
	}
}

// MultiRewardLearner is the relational alternative to RewardTable: one
// RewardLearner per action, keyed the same way MCELearner keys its
// per-attribute effect learners.
type MultiRewardLearner struct {
	byAction [world.NumActions]*RewardLearner
}

// NewMultiRewardLearner builds an empty relational reward model.
func NewMultiRewardLearner() *MultiRewardLearner {
	m := &MultiRewardLearner{}
	for a := range m.byAction {
		m.byAction[a] = &RewardLearner{}
	}
	return m
}

// Predict returns the predicted reward for (state, action), if known.
func (m *MultiRewardLearner) Predict(w *world.World, s world.State, action world.Action) (float64, bool) {
	cond := NewCondition(w, s)
	return m.byAction[action.Index()].Predict(cond)
}

// ApplyExperience folds one observed (state, action, reward) triple in.
func (m *MultiRewardLearner) ApplyExperience(w *world.World, s world.State, action world.Action, reward float64) {
	cond := NewCondition(w, s)
	m.byAction[action.Index()].ApplyExperience(cond, reward)
}
