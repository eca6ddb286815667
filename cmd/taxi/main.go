// Command taxi trains and compares taxi-gridworld learners against a
// configuration document, optionally launching the replay viewer
// against one trained (or baseline) solver's greedy rollout. It follows
// the teacher's main.go in staying a thin driver: load config, build the
// world, hand off to the packages that do the actual work.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"taxi/bench"
	"taxi/config"
	"taxi/doormax"
	"taxi/factoredrmax"
	"taxi/maxq"
	"taxi/qlearning"
	"taxi/randomsolver"
	"taxi/replay"
	"taxi/rmax"
	"taxi/runner"
	"taxi/world"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "taxi:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("taxi", flag.ContinueOnError)
	replayFlag := fs.Bool("replay", false, "launch the replay viewer instead of training")
	addr := fs.String("addr", ":8080", "address the replay viewer listens on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg *config.Configuration
	if fs.NArg() >= 1 {
		loaded, err := config.Load(fs.Arg(0))
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		defaultCfg := config.Default()
		cfg = &defaultCfg
	}

	w, err := cfg.BuildWorld()
	if err != nil {
		return fmt.Errorf("failed to build world: %w", err)
	}

	if *replayFlag {
		return runReplay(w, cfg, *addr)
	}

	return runTraining(w, cfg)
}

// newRunnerFor constructs a fresh learner instance for choice, using
// hyperparameters from cfg. Every choice except Random needs its
// sub-config; a nil sub-config is reported as an error.
func newRunnerFor(w *world.World, cfg *config.Configuration, choice config.SolverChoice) (runner.Runner, error) {
	switch choice {
	case config.Random:
		return randomsolver.New(), nil
	case config.QLearnerChoice:
		c := cfg.QLearner
		if c == nil {
			return nil, fmt.Errorf("qLearner solver selected but no qLearner config provided")
		}
		return qlearning.New(w, c.Alpha, c.Gamma, c.Epsilon, c.Report), nil
	case config.RMaxChoice:
		c := cfg.RMax
		if c == nil {
			return nil, fmt.Errorf("rMax solver selected but no rMax config provided")
		}
		return rmax.New(w, c.Gamma, c.ErrorDelta, c.KnownCount), nil
	case config.FactoredRMaxChoice:
		c := cfg.FactoredRMax
		if c == nil {
			return nil, fmt.Errorf("factoredRMax solver selected but no factoredRMax config provided")
		}
		return factoredrmax.New(w, c.Gamma, c.ErrorDelta, c.KnownCount), nil
	case config.MaxQChoice:
		c := cfg.MaxQ
		if c == nil {
			return nil, fmt.Errorf("maxQ solver selected but no maxQ config provided")
		}
		return maxq.New(w, c.Alpha, c.Gamma, c.Epsilon, c.ShowLearning), nil
	case config.DoorMaxChoice:
		c := cfg.DoorMax
		if c == nil {
			return nil, fmt.Errorf("doorMax solver selected but no doorMax config provided")
		}
		return doormax.New(w, c.Gamma, c.ErrorDelta, c.KnownCount, c.UseRewardLearner), nil
	default:
		return nil, fmt.Errorf("unknown solver choice %v", choice)
	}
}

// configuredChoices returns every solver selected by a non-nil
// sub-configuration in cfg.
func configuredChoices(cfg *config.Configuration) []config.SolverChoice {
	var choices []config.SolverChoice
	if cfg.RandomSolver != nil {
		choices = append(choices, config.Random)
	}
	if cfg.QLearner != nil {
		choices = append(choices, config.QLearnerChoice)
	}
	if cfg.RMax != nil {
		choices = append(choices, config.RMaxChoice)
	}
	if cfg.FactoredRMax != nil {
		choices = append(choices, config.FactoredRMaxChoice)
	}
	if cfg.MaxQ != nil {
		choices = append(choices, config.MaxQChoice)
	}
	if cfg.DoorMax != nil {
		choices = append(choices, config.DoorMaxChoice)
	}
	return choices
}

func runTraining(w *world.World, cfg *config.Configuration) error {
	probes := make([]runner.Probe, 0, len(cfg.Probes))
	for _, p := range cfg.Probes {
		rp, err := p.ToRunnerProbe(w)
		if err != nil {
			return fmt.Errorf("failed to build probe: %w", err)
		}
		probes = append(probes, rp)
	}

	seeds := make([]int64, 0, len(cfg.RerunSeeds)+1)
	if cfg.RootSeed != nil {
		seeds = append(seeds, cfg.RootSeed.A^(cfg.RootSeed.B<<32)^(cfg.RootSeed.B>>32))
	}
	for _, s := range cfg.RerunSeeds {
		seeds = append(seeds, s.A^(s.B<<32)^(s.B>>32))
	}
	if len(seeds) == 0 {
		seeds = []int64{1}
	}

	ctx := context.Background()
	for _, choice := range configuredChoices(cfg) {
		results, dist, err := bench.Run(ctx, w, probes, cfg.MaxTrials, cfg.MaxTrialSteps, func() runner.Runner {
			r, newErr := newRunnerFor(w, cfg, choice)
			if newErr != nil {
				// newRunnerFor only fails on missing sub-config, which
				// configuredChoices already guarantees is present.
				panic(newErr)
			}
			return r
		}, seeds)
		if err != nil {
			return fmt.Errorf("%s: training failed: %w", choice, err)
		}

		solved := 0
		for _, result := range results {
			if result.Err == nil && result.Steps != nil {
				solved++
			}
		}

		mean, stddev := dist.MeanStdDev()
		fmt.Printf("%s: %d/%d seeds solved, steps mean=%.1f stddev=%.1f\n",
			choice, solved, len(results), mean, stddev)
	}

	return nil
}

func runReplay(w *world.World, cfg *config.Configuration, addr string) error {
	if cfg.Replay == nil {
		return fmt.Errorf("--replay requires a replay block in the configuration")
	}

	r, err := newRunnerFor(w, cfg, cfg.Replay.Solver)
	if err != nil {
		return err
	}

	initial, err := world.Build(w, world.Position{X: cfg.Replay.TaxiX, Y: cfg.Replay.TaxiY}, cfg.Replay.PassengerLoc, cfg.Replay.DestinationLoc)
	if err != nil {
		return fmt.Errorf("failed to build replay initial state: %w", err)
	}

	seed := int64(1)
	if cfg.RootSeed != nil {
		seed = cfg.RootSeed.A ^ (cfg.RootSeed.B << 32) ^ (cfg.RootSeed.B >> 32)
	}
	rng := config.Seed{A: seed}.Rand()

	maxSteps := cfg.Replay.MaxSteps
	if maxSteps <= 0 {
		maxSteps = cfg.MaxTrialSteps
	}

	if steps := r.Learn(w, initial, maxSteps, rng); steps == nil {
		fmt.Fprintln(os.Stderr, "taxi: warning: solver did not reach terminal during its single training episode before replay")
	}

	attempt := r.Attempt(w, initial, maxSteps, rng)

	fmt.Printf("serving replay on %s (arrows step, esc exits)\n", addr)
	return replay.Serve(context.Background(), addr, w, attempt)
}
