// Package runner provides the shared episodic training harness that
// every learning algorithm is driven through: random initial states,
// learning trials, and probe evaluations.
package runner

import (
	"math"
	"math/rand"

	"taxi/world"
)

// Runner is the contract every learning algorithm implements. All
// methods are deterministic given rng's state; none may block.
type Runner interface {
	// Learn runs one training episode from state, updating internal
	// model/value state. It returns the step count if the episode
	// reached terminal within maxSteps, or nil otherwise.
	Learn(w *world.World, state world.State, maxSteps int, rng *rand.Rand) *int

	// Attempt runs a greedy rollout from state, recording the action
	// sequence taken (for replay).
	Attempt(w *world.World, state world.State, maxSteps int, rng *rand.Rand) Attempt

	// Solves runs a greedy rollout from state and reports only whether
	// it reached terminal within maxSteps.
	Solves(w *world.World, state world.State, maxSteps int, rng *rand.Rand) bool

	// ReportTrainingResult is an optional diagnostic dump of the
	// learner's state after training; RunTrainingSession does not call it.
	ReportTrainingResult(w *world.World, totalSteps int)
}

// Probe pairs an initial state with a step budget a fully-trained policy
// should not exceed.
type Probe struct {
	State    world.State
	MaxSteps int
}

// Attempt is a recorded greedy rollout, useful for replay.
type Attempt struct {
	InitialState world.State
	Actions      []world.Action
	Success      bool
}

// Succeeded reports whether the recorded attempt reached terminal.
func (a Attempt) Succeeded() bool {
	return a.Success
}

// Error is returned by RunTrainingSession when it cannot even construct
// a random starting state.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return "failed to build random state: " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// RunTrainingSession drives the full training loop: up to maxTrials
// trials, each sampling a random initial state, invoking r.Learn, then
// checking every probe with r.Solves. It returns the accumulated step
// count once every probe succeeds in the same trial, or nil if no trial
// passed all probes within maxTrials.
func RunTrainingSession(
	w *world.World,
	probes []Probe,
	maxTrials int,
	maxSteps int,
	r Runner,
	rng *rand.Rand,
) (*int, error) {
	totalSteps := 0

	for trial := 0; trial < maxTrials; trial++ {
		state, err := world.BuildRandom(w, rng)
		if err != nil {
			return nil, &Error{Cause: err}
		}

		if steps := r.Learn(w, state, maxSteps, rng); steps != nil {
			totalSteps += *steps
		} else {
			totalSteps += maxSteps
		}

		allSolved := true
		for _, probe := range probes {
			if !r.Solves(w, probe.State, probe.MaxSteps, rng) {
				allSolved = false
				break
			}
		}

		if allSolved {
			result := totalSteps
			return &result, nil
		}
	}

	return nil, nil
}

// nearlyEqualULP is the ~2-ULP near-equality threshold used by the
// shared tie-break rule.
func nearlyEqualULP(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	// 2 ULPs relative to the larger magnitude operand, with a small
	// absolute floor for values near zero.
	maxAbs := math.Max(math.Abs(a), math.Abs(b))
	ulp := math.Nextafter(maxAbs, math.Inf(1)) - maxAbs
	return diff <= math.Max(2*ulp, 1e-12)
}

// ChooseTiedAction performs the shared reservoir-sampling tie-break:
// given a slice of candidate values, it returns the index of one of
// the maximal-valued candidates, chosen
// uniformly among all candidates within ~2 ULPs of the maximum.
func ChooseTiedAction(values []float64, rng *rand.Rand) int {
	best := math.Inf(-1)
	bestIndex := 0
	found := 0

	for i, v := range values {
		switch {
		case v > best && !nearlyEqualULP(v, best):
			best = v
			bestIndex = i
			found = 1
		case nearlyEqualULP(v, best):
			found++
			if rng.Intn(found) == 0 {
				bestIndex = i
			}
			if v > best {
				best = v
			}
		}
	}

	return bestIndex
}
