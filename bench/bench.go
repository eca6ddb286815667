// Package bench runs a learner across many seeded training sessions
// concurrently, fanning results back into a single stream. It follows
// the teacher's concurrency pattern from
// tabular/reinforcement/learning.go (one worker goroutine per unit of
// work, fanned in via channerics.Merge) adapted from "one worker per
// episode-generating agent" to "one worker per training seed," since
// DoorMax-family sessions are independent end-to-end runs rather than
// a shared, continuously-updated value table.
package bench

import (
	"context"
	"math/rand"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"taxi/runner"
	"taxi/stats"
	"taxi/world"
)

// Result is one seed's training outcome.
type Result struct {
	Seed  int64
	Steps *int
	Err   error
}

// NewRunnerFunc constructs a fresh, independent learner instance; bench
// calls it once per seed so concurrent sessions never share state.
type NewRunnerFunc func() runner.Runner

// Run trains newRunner() once per seed, concurrently, and returns every
// seed's Result alongside a Distribution over the successful seeds'
// step counts. Training for a seed that errors (including one that
// never reaches terminal) does not stop the others; ctx cancellation
// does.
func Run(
	ctx context.Context,
	w *world.World,
	probes []runner.Probe,
	maxTrials, maxSteps int,
	newRunner NewRunnerFunc,
	seeds []int64,
) ([]Result, *stats.Distribution, error) {
	workers := make([]<-chan Result, 0, len(seeds))

	group, groupCtx := errgroup.WithContext(ctx)
	for _, seed := range seeds {
		seed := seed
		out := make(chan Result, 1)
		workers = append(workers, out)

		group.Go(func() error {
			defer close(out)
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			rng := rand.New(rand.NewSource(seed))
			r := newRunner()
			steps, err := runner.RunTrainingSession(w, probes, maxTrials, maxSteps, r, rng)

			select {
			case out <- Result{Seed: seed, Steps: steps, Err: err}:
			case <-groupCtx.Done():
			}
			return nil
		})
	}

	results := make([]Result, 0, len(seeds))
	for result := range channerics.Merge(groupCtx.Done(), workers...) {
		results = append(results, result)
	}

	if err := group.Wait(); err != nil {
		return results, nil, err
	}

	dist := stats.NewDistribution()
	for _, result := range results {
		if result.Err == nil && result.Steps != nil {
			dist.Add(float64(*result.Steps))
		}
	}

	return results, dist, nil
}
