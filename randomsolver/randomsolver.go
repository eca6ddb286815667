// Package randomsolver implements the uniform-random baseline policy:
// no learning, just repeated uniform action sampling until terminal or
// a step budget is exhausted. It exists to give the other learners a
// floor to compare against.
package randomsolver

import (
	"fmt"
	"math/rand"

	"taxi/runner"
	"taxi/world"
)

// RandomSolver implements runner.Runner with no internal state: every
// call samples fresh uniform actions, grounded on
// original_source/src/random_solver.rs's RandomSolver::new loop.
type RandomSolver struct{}

// New returns a stateless random-policy solver.
func New() *RandomSolver {
	return &RandomSolver{}
}

func rollout(w *world.World, state world.State, maxSteps int, rng *rand.Rand) ([]world.Action, bool) {
	var actions []world.Action
	for step := 0; step < maxSteps; step++ {
		if state.IsTerminal() {
			return actions, true
		}
		action := world.Actions[rng.Intn(world.NumActions)]
		actions = append(actions, action)
		_, state = state.ApplyAction(w, action)
	}
	return actions, state.IsTerminal()
}

// Learn samples and applies uniform-random actions; there is no model
// to update, so the returned step count only reflects whether this
// particular rollout reached terminal.
func (r *RandomSolver) Learn(w *world.World, state world.State, maxSteps int, rng *rand.Rand) *int {
	actions, solved := rollout(w, state, maxSteps, rng)
	if !solved {
		return nil
	}
	steps := len(actions)
	return &steps
}

// Attempt runs one random rollout and records the action sequence.
func (r *RandomSolver) Attempt(w *world.World, state world.State, maxSteps int, rng *rand.Rand) runner.Attempt {
	actions, solved := rollout(w, state, maxSteps, rng)
	return runner.Attempt{InitialState: state, Actions: actions, Success: solved}
}

// Solves runs one random rollout and reports only success/failure.
func (r *RandomSolver) Solves(w *world.World, state world.State, maxSteps int, rng *rand.Rand) bool {
	_, solved := rollout(w, state, maxSteps, rng)
	return solved
}

// ReportTrainingResult prints a one-line summary; there is nothing
// learned to describe in more depth.
func (r *RandomSolver) ReportTrainingResult(w *world.World, totalSteps int) {
	fmt.Printf("randomsolver: total steps sampled across training = %d\n", totalSteps)
}
