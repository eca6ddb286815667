// Package factoredrmax implements Factored RMax: RMax over a factored
// state representation with four independent per-variable transition
// models (taxi-x, taxi-y, passenger, destination), each keyed by its
// own action-dependent parent set.
package factoredrmax

import (
	"fmt"
	"math/rand"

	"taxi/runner"
	"taxi/stateindex"
	"taxi/world"
)

// parentKey is a generic parent-set key: fields the variable's parent
// set ignores for a given action are left at their zero value, which
// correctly merges observations across the ignored dimension.
type parentKey struct {
	TaxiX, TaxiY   int
	Passenger      int
	Destination    int
}

// outcomeDist is a sparse occurrence count over a variable's next
// values, observed under one parent key.
type outcomeDist struct {
	counts map[int]float64
	total  float64
}

func newOutcomeDist() *outcomeDist {
	return &outcomeDist{counts: make(map[int]float64)}
}

func (d *outcomeDist) observe(value int) {
	d.counts[value]++
	d.total++
}

// variableModel is one action-indexed set of parent-keyed distributions
// for a single state variable.
type variableModel struct {
	byAction []map[parentKey]*outcomeDist
}

func newVariableModel() *variableModel {
	byAction := make([]map[parentKey]*outcomeDist, world.NumActions)
	for a := range byAction {
		byAction[a] = make(map[parentKey]*outcomeDist)
	}
	return &variableModel{byAction: byAction}
}

func (m *variableModel) entry(action world.Action, key parentKey) *outcomeDist {
	entries := m.byAction[action.Index()]
	d, ok := entries[key]
	if !ok {
		d = newOutcomeDist()
		entries[key] = d
	}
	return d
}

func (m *variableModel) known(action world.Action, key parentKey, knownCount float64) bool {
	d, ok := m.byAction[action.Index()][key]
	return ok && d.total >= knownCount
}

// rewardEntry is a running mean/count for a (full-state,action) pair,
// maintained exactly as in the flat RMax package.
type rewardEntry struct {
	mean  float64
	count float64
}

// FactoredRMax is the learner.
type FactoredRMax struct {
	indexer *stateindex.StateIndexer

	taxiX       *variableModel
	taxiY       *variableModel
	passenger   *variableModel
	destination *variableModel

	rewards [][]rewardEntry
	values  []float64

	numSites  int
	rmaxValue float64
	numStates int

	Gamma      float64
	ErrorDelta float64
	KnownCount float64
}

// New builds a FactoredRMax learner over w.
func New(w *world.World, gamma, errorDelta, knownCount float64) *FactoredRMax {
	indexer := stateindex.New(w)
	n := indexer.NumStates()

	rewards := make([][]rewardEntry, n)
	for i := range rewards {
		rewards[i] = make([]rewardEntry, world.NumActions)
	}

	maxReward := w.MaxReward()
	rmaxValue := maxReward
	if gamma < 1 {
		rmaxValue = maxReward / (1 - gamma)
	}

	return &FactoredRMax{
		indexer:     indexer,
		taxiX:       newVariableModel(),
		taxiY:       newVariableModel(),
		passenger:   newVariableModel(),
		destination: newVariableModel(),
		rewards:     rewards,
		values:      make([]float64, n),
		numSites:    w.NumFixedPositions(),
		rmaxValue:   rmaxValue,
		numStates:   n,
		Gamma:       gamma,
		ErrorDelta:  errorDelta,
		KnownCount:  knownCount,
	}
}

// passengerIndex maps a state's passenger tag to [0, numSites], where
// numSites denotes "aboard".
func (f *FactoredRMax) passengerIndex(w *world.World, s world.State) int {
	if s.Passenger == nil {
		return f.numSites
	}
	idx, _ := w.FixedIndex(*s.Passenger)
	return idx
}

// parentKeys computes the four variables' parent keys for (state,action).
func (f *FactoredRMax) parentKeys(w *world.World, s world.State, a world.Action) (x, y, p, d parentKey) {
	passIdx := f.passengerIndex(w, s)
	destIdx, _ := w.FixedIndex(s.Destination)

	switch a {
	case world.East, world.West:
		x = parentKey{TaxiX: s.Taxi.X, TaxiY: s.Taxi.Y}
	default:
		x = parentKey{TaxiX: s.Taxi.X}
	}

	y = parentKey{TaxiY: s.Taxi.Y}

	switch a {
	case world.PickUp:
		p = parentKey{TaxiX: s.Taxi.X, TaxiY: s.Taxi.Y, Passenger: passIdx}
	case world.DropOff:
		p = parentKey{TaxiX: s.Taxi.X, TaxiY: s.Taxi.Y, Destination: destIdx, Passenger: passIdx}
	default:
		p = parentKey{Passenger: passIdx}
	}

	d = parentKey{Destination: destIdx}

	return
}

// isKnown reports whether (s,a)'s joint transition and reward are known.
func (f *FactoredRMax) isKnown(w *world.World, s world.State, sIndex int, a world.Action) bool {
	xKey, yKey, pKey, dKey := f.parentKeys(w, s, a)
	return f.taxiX.known(a, xKey, f.KnownCount) &&
		f.taxiY.known(a, yKey, f.KnownCount) &&
		f.passenger.known(a, pKey, f.KnownCount) &&
		f.destination.known(a, dKey, f.KnownCount) &&
		f.rewards[sIndex][a.Index()].count >= f.KnownCount
}

// expectedNextValue sums gamma*V(s') over the joint distribution implied
// by the product of the four known per-variable marginals.
func (f *FactoredRMax) expectedNextValue(w *world.World, s world.State, a world.Action) float64 {
	xKey, yKey, pKey, dKey := f.parentKeys(w, s, a)

	xDist := f.taxiX.byAction[a.Index()][xKey]
	yDist := f.taxiY.byAction[a.Index()][yKey]
	pDist := f.passenger.byAction[a.Index()][pKey]
	dDist := f.destination.byAction[a.Index()][dKey]

	expected := 0.0
	for nx, cx := range xDist.counts {
		px := cx / xDist.total
		for ny, cy := range yDist.counts {
			py := cy / yDist.total
			for np, cp := range pDist.counts {
				pp := cp / pDist.total
				for nd, cd := range dDist.counts {
					pd := cd / dDist.total

					destID, ok := w.FixedIDFromIndex(nd)
					if !ok {
						continue
					}
					var passenger *rune
					if np < f.numSites {
						id, ok := w.FixedIDFromIndex(np)
						if !ok {
							continue
						}
						passenger = &id
					}
					next := world.State{
						Taxi:        world.Position{X: nx, Y: ny},
						Passenger:   passenger,
						Destination: destID,
					}
					nextIndex, ok := f.indexer.Index(w, next)
					if !ok {
						continue
					}

					jointProb := px * py * pp * pd
					expected += jointProb * f.values[nextIndex]
				}
			}
		}
	}

	return expected
}

// measureValue is the optimistic value of taking action a at state s.
func (f *FactoredRMax) measureValue(w *world.World, s world.State, sIndex int, a world.Action) float64 {
	if f.isKnown(w, s, sIndex, a) {
		mean := f.rewards[sIndex][a.Index()].mean
		return mean + f.Gamma*f.expectedNextValue(w, s, a)
	}
	return f.rmaxValue + f.Gamma*f.values[sIndex]
}

func (f *FactoredRMax) measureAll(w *world.World, s world.State, sIndex int) []float64 {
	values := make([]float64, world.NumActions)
	for _, a := range world.Actions {
		values[a.Index()] = f.measureValue(w, s, sIndex, a)
	}
	return values
}

func (f *FactoredRMax) measureBestValue(w *world.World, s world.State, sIndex int) float64 {
	values := f.measureAll(w, s, sIndex)
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// rebuildValueTable runs in-place Gauss-Seidel value iteration to
// fixpoint over every indexed state, capped at 10,000 sweeps.
func (f *FactoredRMax) rebuildValueTable(w *world.World) {
	for sweep := 0; sweep < 10000; sweep++ {
		maxDelta := 0.0
		for sIndex := 0; sIndex < f.numStates; sIndex++ {
			s, ok := f.indexer.State(w, sIndex)
			if !ok {
				continue
			}
			newValue := f.measureBestValue(w, s, sIndex)
			delta := newValue - f.values[sIndex]
			if delta < 0 {
				delta = -delta
			}
			if delta > maxDelta {
				maxDelta = delta
			}
			f.values[sIndex] = newValue
		}
		if maxDelta < f.ErrorDelta {
			return
		}
	}
}

// applyExperience folds one observed (s,a,s',r) transition into the
// four per-variable models and the reward table.
func (f *FactoredRMax) applyExperience(w *world.World, s world.State, sIndex int, a world.Action, next world.State, reward float64) {
	xKey, yKey, pKey, dKey := f.parentKeys(w, s, a)

	if f.taxiX.entry(a, xKey).total < f.KnownCount {
		f.taxiX.entry(a, xKey).observe(next.Taxi.X)
	}
	if f.taxiY.entry(a, yKey).total < f.KnownCount {
		f.taxiY.entry(a, yKey).observe(next.Taxi.Y)
	}
	if f.passenger.entry(a, pKey).total < f.KnownCount {
		f.passenger.entry(a, pKey).observe(f.passengerIndex(w, next))
	}
	if f.destination.entry(a, dKey).total < f.KnownCount {
		destIdx, _ := w.FixedIndex(next.Destination)
		f.destination.entry(a, dKey).observe(destIdx)
	}

	re := &f.rewards[sIndex][a.Index()]
	if re.count < f.KnownCount {
		re.mean = (re.mean*re.count + reward) / (re.count + 1)
		re.count++
	}
}

func (f *FactoredRMax) selectBestAction(w *world.World, s world.State, sIndex int, rng *rand.Rand) world.Action {
	best := runner.ChooseTiedAction(f.measureAll(w, s, sIndex), rng)
	a, _ := world.ActionFromIndex(best)
	return a
}

// Learn runs one training episode, rebuilding the value table before
// every step.
func (f *FactoredRMax) Learn(w *world.World, state world.State, maxSteps int, rng *rand.Rand) *int {
	for step := 0; step < maxSteps; step++ {
		f.rebuildValueTable(w)

		sIndex, ok := f.indexer.Index(w, state)
		if !ok {
			return nil
		}

		action := f.selectBestAction(w, state, sIndex, rng)
		reward, next := state.ApplyAction(w, action)

		f.applyExperience(w, state, sIndex, action, next, reward)

		state = next
		if state.IsTerminal() {
			result := step + 1
			return &result
		}
	}

	return nil
}

// Attempt runs a greedy rollout from state, recording the action
// sequence taken.
func (f *FactoredRMax) Attempt(w *world.World, state world.State, maxSteps int, rng *rand.Rand) runner.Attempt {
	attempt := runner.Attempt{InitialState: state}
	f.rebuildValueTable(w)

	for step := 0; step < maxSteps; step++ {
		if state.IsTerminal() {
			attempt.Success = true
			return attempt
		}

		sIndex, ok := f.indexer.Index(w, state)
		if !ok {
			return attempt
		}

		action := f.selectBestAction(w, state, sIndex, rng)
		attempt.Actions = append(attempt.Actions, action)
		_, state = state.ApplyAction(w, action)
	}

	attempt.Success = state.IsTerminal()
	return attempt
}

// Solves runs a greedy rollout and reports only success/failure.
func (f *FactoredRMax) Solves(w *world.World, state world.State, maxSteps int, rng *rand.Rand) bool {
	return f.Attempt(w, state, maxSteps, rng).Success
}

// ReportTrainingResult prints a diagnostic summary of per-variable model
// coverage.
func (f *FactoredRMax) ReportTrainingResult(w *world.World, totalSteps int) {
	count := func(m *variableModel) int {
		n := 0
		for _, entries := range m.byAction {
			n += len(entries)
		}
		return n
	}
	fmt.Printf(
		"factoredrmax: total training steps = %d, parent cells x=%d y=%d passenger=%d destination=%d\n",
		totalSteps, count(f.taxiX), count(f.taxiY), count(f.passenger), count(f.destination),
	)
}
