// Package rmax implements the model-based RMax algorithm: optimism
// under uncertainty over a flat, per-(state,action) empirical
// transition/reward model.
package rmax

import (
	"fmt"
	"math/rand"

	"taxi/runner"
	"taxi/stateindex"
	"taxi/world"
)

// transitionEntry is a sparse per-(state,action) model of next-state
// counts, plus the total visit count.
type transitionEntry struct {
	counts map[int]float64
	total  float64
}

// rewardEntry is a running mean/count for a (state,action) pair.
type rewardEntry struct {
	mean  float64
	count float64
}

// RMax is the learner: one transition/reward entry and one value-table
// slot per (state,action)/state.
type RMax struct {
	indexer *stateindex.StateIndexer

	transitions [][]transitionEntry
	rewards     [][]rewardEntry
	values      []float64

	rmaxValue  float64
	maxReward  float64
	numStates  int

	Gamma      float64
	ErrorDelta float64
	KnownCount float64
}

// New builds an RMax learner over w. gamma is the discount factor,
// errorDelta the value-iteration convergence threshold, knownCount the
// visit threshold K at which a (state,action) model entry freezes.
func New(w *world.World, gamma, errorDelta, knownCount float64) *RMax {
	indexer := stateindex.New(w)
	n := indexer.NumStates()

	transitions := make([][]transitionEntry, n)
	rewards := make([][]rewardEntry, n)
	for i := 0; i < n; i++ {
		transitions[i] = make([]transitionEntry, world.NumActions)
		rewards[i] = make([]rewardEntry, world.NumActions)
		for a := 0; a < world.NumActions; a++ {
			transitions[i][a] = transitionEntry{counts: make(map[int]float64)}
		}
	}

	maxReward := w.MaxReward()
	rmaxValue := maxReward
	if gamma < 1 {
		rmaxValue = maxReward / (1 - gamma)
	}

	return &RMax{
		indexer:     indexer,
		transitions: transitions,
		rewards:     rewards,
		values:      make([]float64, n),
		rmaxValue:   rmaxValue,
		maxReward:   maxReward,
		numStates:   n,
		Gamma:       gamma,
		ErrorDelta:  errorDelta,
		KnownCount:  knownCount,
	}
}

// isKnown reports whether both the transition and reward models for
// (s,a) have reached the known-count threshold.
func (r *RMax) isKnown(s, a int) bool {
	return r.transitions[s][a].total >= r.KnownCount && r.rewards[s][a].count >= r.KnownCount
}

// measureValue is the optimistic value of taking action a at state s,
// under the current (possibly still-learning) model.
func (r *RMax) measureValue(s, a int) float64 {
	if r.isKnown(s, a) {
		entry := r.transitions[s][a]
		expected := 0.0
		for next, count := range entry.counts {
			expected += (count / entry.total) * r.values[next]
		}
		return r.rewards[s][a].mean + r.Gamma*expected
	}
	return r.rmaxValue + r.Gamma*r.values[s]
}

// measureBestValue is max_a measureValue(s, a).
func (r *RMax) measureBestValue(s int) float64 {
	best := measureAll(r, s)
	max := best[0]
	for _, v := range best[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func measureAll(r *RMax, s int) []float64 {
	values := make([]float64, world.NumActions)
	for a := 0; a < world.NumActions; a++ {
		values[a] = r.measureValue(s, a)
	}
	return values
}

// determineBestActionIndex picks the tie-broken argmax action at s.
func (r *RMax) determineBestActionIndex(s int, rng *rand.Rand) int {
	return runner.ChooseTiedAction(measureAll(r, s), rng)
}

// rebuildValueTable runs in-place Gauss-Seidel value iteration to
// fixpoint, capped at 10,000 sweeps.
func (r *RMax) rebuildValueTable() {
	for sweep := 0; sweep < 10000; sweep++ {
		maxDelta := 0.0
		for s := 0; s < r.numStates; s++ {
			newValue := r.measureBestValue(s)
			delta := newValue - r.values[s]
			if delta < 0 {
				delta = -delta
			}
			if delta > maxDelta {
				maxDelta = delta
			}
			r.values[s] = newValue
		}
		if maxDelta < r.ErrorDelta {
			return
		}
	}
}

// applyExperience folds one observed (s,a,s',r) transition into the
// model, while the entry has not yet reached KnownCount.
func (r *RMax) applyExperience(s, a, next int, reward float64) {
	entry := &r.transitions[s][a]
	if entry.total < r.KnownCount {
		entry.counts[next]++
		entry.total++
	}

	re := &r.rewards[s][a]
	if re.count < r.KnownCount {
		re.mean = (re.mean*re.count + reward) / (re.count + 1)
		re.count++
	}
}

func (r *RMax) selectBestAction(s int, rng *rand.Rand) world.Action {
	a, _ := world.ActionFromIndex(r.determineBestActionIndex(s, rng))
	return a
}

// Learn runs one training episode. Before every step, the value table
// is rebuilt to fixpoint under the current model.
func (r *RMax) Learn(w *world.World, state world.State, maxSteps int, rng *rand.Rand) *int {
	for step := 0; step < maxSteps; step++ {
		r.rebuildValueTable()

		s, ok := r.indexer.Index(w, state)
		if !ok {
			return nil
		}

		action := r.selectBestAction(s, rng)
		reward, next := state.ApplyAction(w, action)

		nextIndex, ok := r.indexer.Index(w, next)
		if !ok {
			return nil
		}

		r.applyExperience(s, action.Index(), nextIndex, reward)

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
func (r *RMax) Attempt(w *world.World, state world.State, maxSteps int, rng *rand.Rand) runner.Attempt {
	attempt := runner.Attempt{InitialState: state}
	r.rebuildValueTable()

	for step := 0; step < maxSteps; step++ {
		if state.IsTerminal() {
			attempt.Success = true
			return attempt
		}

		s, ok := r.indexer.Index(w, state)
		if !ok {
			return attempt
		}

		action := r.selectBestAction(s, rng)
		attempt.Actions = append(attempt.Actions, action)
		_, state = state.ApplyAction(w, action)
	}

	attempt.Success = state.IsTerminal()
	return attempt
}

// Solves runs a greedy rollout and reports only success/failure.
func (r *RMax) Solves(w *world.World, state world.State, maxSteps int, rng *rand.Rand) bool {
	return r.Attempt(w, state, maxSteps, rng).Success
}

// ReportTrainingResult prints a diagnostic summary of model coverage.
func (r *RMax) ReportTrainingResult(w *world.World, totalSteps int) {
	known := 0
	total := 0
	for s := 0; s < r.numStates; s++ {
		for a := 0; a < world.NumActions; a++ {
			total++
			if r.isKnown(s, a) {
				known++
			}
		}
	}
	fmt.Printf("rmax: total training steps = %d, known (s,a) = %d/%d\n", totalSteps, known, total)
}
