package doormax

import (
	"fmt"
	"math/rand"

	"taxi/runner"
	"taxi/stateindex"
	"taxi/world"
)

// DoorMax is the relational-model learner: an MCELearner predicting
// next states from condition/effect rules, a reward model (dense table
// or relational, selected by UseRewardLearner), and a value table
// refreshed to fixpoint by Gauss-Seidel value iteration exactly as in
// RMax. Unknown transitions or rewards fall back to the same
// optimism-under-uncertainty bound RMax uses; there is no explicit
// epsilon-greedy exploration step here.
type DoorMax struct {
	indexer *stateindex.StateIndexer

	mcelearner *MCELearner

	useRewardLearner bool
	rewardLearner    *MultiRewardLearner
	rewardTable      *RewardTable

	values []float64

	rmaxValue float64
	numStates int

	Gamma      float64
	ErrorDelta float64
	KnownCount float64
}

// New builds a DoorMax learner over w. useRewardLearner selects the
// relational MultiRewardLearner over the default dense RewardTable for
// the reward model.
func New(w *world.World, gamma, errorDelta, knownCount float64, useRewardLearner bool) *DoorMax {
	indexer := stateindex.New(w)
	n := indexer.NumStates()

	maxReward := w.MaxReward()
	rmaxValue := maxReward
	if gamma < 1 {
		rmaxValue = maxReward / (1 - gamma)
	}

	return &DoorMax{
		indexer:          indexer,
		mcelearner:       NewMCELearner(),
		useRewardLearner: useRewardLearner,
		rewardLearner:    NewMultiRewardLearner(),
		rewardTable:      NewRewardTable(knownCount),
		values:           make([]float64, n),
		rmaxValue:        rmaxValue,
		numStates:        n,
		Gamma:            gamma,
		ErrorDelta:       errorDelta,
		KnownCount:       knownCount,
	}
}

func (d *DoorMax) applyExperience(w *world.World, s world.State, action world.Action, next world.State, reward float64) {
	d.mcelearner.ApplyExperience(w, s, action, next)

	if d.useRewardLearner {
		d.rewardLearner.ApplyExperience(w, s, action, reward)
	} else {
		d.rewardTable.ApplyExperience(w, s, action, reward)
	}
}

func (d *DoorMax) measureReward(w *world.World, s world.State, action world.Action) (float64, bool) {
	if d.useRewardLearner {
		return d.rewardLearner.Predict(w, s, action)
	}
	return d.rewardTable.GetReward(w, s, action)
}

// measureValue is the optimistic value of taking action at s, under the
// current relational model: reward + gamma*V(predicted next state) if
// both the reward and the transition are known, else the RMax
// optimism bound.
func (d *DoorMax) measureValue(w *world.World, s world.State, action world.Action) float64 {
	if reward, ok := d.measureReward(w, s, action); ok {
		if next, ok := d.mcelearner.Predict(w, s, action); ok {
			if nextIndex, ok := d.indexer.Index(w, next); ok {
				return reward + d.Gamma*d.values[nextIndex]
			}
		}
	}

	stateIndex, ok := d.indexer.Index(w, s)
	if !ok {
		return d.rmaxValue
	}
	return d.rmaxValue + d.Gamma*d.values[stateIndex]
}

func (d *DoorMax) measureAll(w *world.World, s world.State) []float64 {
	values := make([]float64, world.NumActions)
	for _, a := range world.Actions {
		values[a.Index()] = d.measureValue(w, s, a)
	}
	return values
}

func (d *DoorMax) measureBestValue(w *world.World, s world.State) float64 {
	values := d.measureAll(w, s)
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

func (d *DoorMax) selectBestAction(w *world.World, s world.State, rng *rand.Rand) world.Action {
	a, _ := world.ActionFromIndex(runner.ChooseTiedAction(d.measureAll(w, s), rng))
	return a
}

// rebuildValueTable runs in-place Gauss-Seidel value iteration to
// fixpoint over every state in the world, capped at 10,000 sweeps,
// mirroring RMax's, but enumerating states via the indexer since
// DoorMax's model is relational rather than per-state.
func (d *DoorMax) rebuildValueTable(w *world.World) {
	for sweep := 0; sweep < 10000; sweep++ {
		maxDelta := 0.0
		for idx := 0; idx < d.numStates; idx++ {
			s, ok := d.indexer.State(w, idx)
			if !ok {
				continue
			}
			newValue := d.measureBestValue(w, s)
			delta := newValue - d.values[idx]
			if delta < 0 {
				delta = -delta
			}
			if delta > maxDelta {
				maxDelta = delta
			}
			d.values[idx] = newValue
		}
		if maxDelta < d.ErrorDelta {
			return
		}
	}
}

// Learn runs one training episode. Before every step, the value table
// is rebuilt to fixpoint under the current relational model.
func (d *DoorMax) Learn(w *world.World, state world.State, maxSteps int, rng *rand.Rand) *int {
	for step := 0; step < maxSteps; step++ {
		if state.IsTerminal() {
			result := step
			return &result
		}

		d.rebuildValueTable(w)

		action := d.selectBestAction(w, state, rng)
		reward, next := state.ApplyAction(w, action)

		d.applyExperience(w, state, action, next, reward)
		state = next
	}

	if state.IsTerminal() {
		result := maxSteps
		return &result
	}
	return nil
}

// Attempt runs a greedy rollout from state, recording the action
// sequence taken.
func (d *DoorMax) Attempt(w *world.World, state world.State, maxSteps int, rng *rand.Rand) runner.Attempt {
	attempt := runner.Attempt{InitialState: state}
	d.rebuildValueTable(w)

	for step := 0; step < maxSteps; step++ {
		if state.IsTerminal() {
			attempt.Success = true
			return attempt
		}

		action := d.selectBestAction(w, state, rng)
		attempt.Actions = append(attempt.Actions, action)
		_, state = state.ApplyAction(w, action)
	}

	attempt.Success = state.IsTerminal()
	return attempt
}

// Solves runs a greedy rollout and reports only success/failure.
func (d *DoorMax) Solves(w *world.World, state world.State, maxSteps int, rng *rand.Rand) bool {
	return d.Attempt(w, state, maxSteps, rng).Success
}

// ReportTrainingResult prints a diagnostic summary of the learned
// relational model's coverage at a deterministic set of sample states.
func (d *DoorMax) ReportTrainingResult(w *world.World, totalSteps int) {
	rng := rand.New(rand.NewSource(0xcafef00dd15ea5e5))

	known := 0
	for idx := 0; idx < d.numStates; idx++ {
		s, ok := d.indexer.State(w, idx)
		if !ok || s.IsTerminal() {
			continue
		}
		action := d.selectBestAction(w, s, rng)
		if _, ok := d.mcelearner.Predict(w, s, action); ok {
			known++
		}
	}

	fmt.Printf("doormax: total training steps = %d, known next-state predictions at sampled actions = %d/%d\n", totalSteps, known, d.numStates)
}
