// Package qlearning implements tabular epsilon-greedy Q-learning over
// the shared taxi environment.
package qlearning

import (
	"fmt"
	"math/rand"

	"taxi/runner"
	"taxi/stateindex"
	"taxi/world"
)

// QLearner holds a flat Q[state][action] table and the hyperparameters
// governing its update rule.
type QLearner struct {
	indexer *stateindex.StateIndexer
	q       [][]float64

	Alpha     float64
	Gamma     float64
	Epsilon   float64
	ShowTable bool
}

// New builds a QLearner with all Q-values initialized to zero.
func New(w *world.World, alpha, gamma, epsilon float64, showTable bool) *QLearner {
	indexer := stateindex.New(w)
	q := make([][]float64, indexer.NumStates())
	for i := range q {
		q[i] = make([]float64, world.NumActions)
	}

	return &QLearner{
		indexer:   indexer,
		q:         q,
		Alpha:     alpha,
		Gamma:     gamma,
		Epsilon:   epsilon,
		ShowTable: showTable,
	}
}

// greedyAction returns the tie-broken argmax action over Q[s][*].
func (l *QLearner) greedyAction(stateIndex int, rng *rand.Rand) world.Action {
	best := runner.ChooseTiedAction(l.q[stateIndex], rng)
	a, _ := world.ActionFromIndex(best)
	return a
}

func (l *QLearner) selectAction(stateIndex int, rng *rand.Rand) world.Action {
	if rng.Float64() < l.Epsilon {
		return world.Actions[rng.Intn(world.NumActions)]
	}
	return l.greedyAction(stateIndex, rng)
}

// Learn runs one training episode, updating Q via the TD(0) rule at
// every step.
func (l *QLearner) Learn(w *world.World, state world.State, maxSteps int, rng *rand.Rand) *int {
	for step := 0; step < maxSteps; step++ {
		stateIndex, ok := l.indexer.Index(w, state)
		if !ok {
			return nil
		}

		action := l.selectAction(stateIndex, rng)
		reward, next := state.ApplyAction(w, action)

		nextIndex, ok := l.indexer.Index(w, next)
		if !ok {
			return nil
		}

		bestNext := l.q[nextIndex][runner.ChooseTiedAction(l.q[nextIndex], rng)]
		a := action.Index()
		l.q[stateIndex][a] = (1-l.Alpha)*l.q[stateIndex][a] + l.Alpha*(reward+l.Gamma*bestNext)

		state = next
		if state.IsTerminal() {
			result := step + 1
			return &result
		}
	}

	return nil
}

// Attempt runs a greedy rollout from state, recording the action
// sequence.
func (l *QLearner) Attempt(w *world.World, state world.State, maxSteps int, rng *rand.Rand) runner.Attempt {
	attempt := runner.Attempt{InitialState: state}

	for step := 0; step < maxSteps; step++ {
		if state.IsTerminal() {
			attempt.Success = true
			return attempt
		}

		stateIndex, ok := l.indexer.Index(w, state)
		if !ok {
			return attempt
		}

		action := l.greedyAction(stateIndex, rng)
		attempt.Actions = append(attempt.Actions, action)
		_, state = state.ApplyAction(w, action)
	}

	attempt.Success = state.IsTerminal()
	return attempt
}

// Solves runs a greedy rollout and reports only success/failure.
func (l *QLearner) Solves(w *world.World, state world.State, maxSteps int, rng *rand.Rand) bool {
	return l.Attempt(w, state, maxSteps, rng).Success
}

// ReportTrainingResult prints a diagnostic summary; the Q-table dump is
// gated by ShowTable since it can be large.
func (l *QLearner) ReportTrainingResult(w *world.World, totalSteps int) {
	fmt.Printf("qlearning: total training steps = %d\n", totalSteps)
	if !l.ShowTable {
		return
	}
	for s, row := range l.q {
		fmt.Printf("  state %d: %v\n", s, row)
	}
}
