// Package config loads a training session's configuration: the world
// map, cost overrides, seeds, probes, per-solver hyperparameters, and
// an optional replay selection. It follows the teacher's two-pass
// viper + yaml.v3 loading pattern: viper decodes the file into a
// concrete struct first (mapstructure matches keys case-insensitively),
// then that struct is re-marshaled and re-parsed through yaml.v3, so
// yaml.v3's own tag and type handling governs the final value rather
// than viper's looser decoder.
package config

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"taxi/runner"
	"taxi/world"
)

// SolverChoice selects which learner a solver sub-configuration or the
// replay block refers to.
type SolverChoice int

const (
	Random SolverChoice = iota
	QLearnerChoice
	RMaxChoice
	FactoredRMaxChoice
	MaxQChoice
	DoorMaxChoice
)

func (s SolverChoice) String() string {
	switch s {
	case Random:
		return "Random"
	case QLearnerChoice:
		return "Q-Learner"
	case RMaxChoice:
		return "RMax"
	case FactoredRMaxChoice:
		return "FactoredRMax"
	case MaxQChoice:
		return "MaxQ"
	case DoorMaxChoice:
		return "DoorMax"
	default:
		return fmt.Sprintf("SolverChoice(%d)", int(s))
	}
}

// Seed is a pair of PRNG seed values, matching the reference's
// (i64, i64) root/rerun seed encoding.
type Seed struct {
	A int64 `yaml:"a"`
	B int64 `yaml:"b"`
}

// Rand builds a *rand.Rand from the seed pair. Go's math/rand source
// takes a single int64, so the pair is folded together rather than
// dropped, keeping both halves of a configured seed significant.
func (s Seed) Rand() *rand.Rand {
	return rand.New(rand.NewSource(s.A ^ (s.B << 32) ^ (s.B >> 32)))
}

// Probe is an initial-state check a trained policy must pass.
type Probe struct {
	TaxiX          int   `yaml:"taxiX"`
	TaxiY          int   `yaml:"taxiY"`
	PassengerLoc   *rune `yaml:"passengerLoc"`
	DestinationLoc rune  `yaml:"destinationLoc"`
	MaxSteps       int   `yaml:"maxSteps"`
}

// ToRunnerProbe resolves a config Probe into a runner.Probe, validating
// the taxi/passenger/destination fields against w.
func (p Probe) ToRunnerProbe(w *world.World) (runner.Probe, error) {
	state, err := world.Build(w, world.Position{X: p.TaxiX, Y: p.TaxiY}, p.PassengerLoc, p.DestinationLoc)
	if err != nil {
		return runner.Probe{}, err
	}
	return runner.Probe{State: state, MaxSteps: p.MaxSteps}, nil
}

// Replay selects a solver and an initial state for the TUI/web replay
// viewer.
type Replay struct {
	Solver         SolverChoice `yaml:"solver"`
	TaxiX          int          `yaml:"taxiX"`
	TaxiY          int          `yaml:"taxiY"`
	PassengerLoc   *rune        `yaml:"passengerLoc"`
	DestinationLoc rune         `yaml:"destinationLoc"`
	MaxSteps       int          `yaml:"maxSteps"`
}

// CostsConfig overrides world.DefaultCosts(); nil fields fall back to
// the default via Resolve.
type CostsConfig struct {
	Movement     *float64 `yaml:"movement"`
	MissPickup   *float64 `yaml:"missPickup"`
	MissDropoff  *float64 `yaml:"missDropoff"`
	EmptyDropoff *float64 `yaml:"emptyDropoff"`
}

// Resolve merges the configured overrides onto world.DefaultCosts().
func (c CostsConfig) Resolve() world.Costs {
	costs := world.DefaultCosts()
	if c.Movement != nil {
		costs.Movement = *c.Movement
	}
	if c.MissPickup != nil {
		costs.MissPickup = *c.MissPickup
	}
	if c.MissDropoff != nil {
		costs.MissDropoff = *c.MissDropoff
	}
	if c.EmptyDropoff != nil {
		costs.EmptyDropoff = *c.EmptyDropoff
	}
	return costs
}

// QLearnerConfig holds Q-Learning hyperparameters.
type QLearnerConfig struct {
	Alpha   float64 `yaml:"alpha"`
	Gamma   float64 `yaml:"gamma"`
	Epsilon float64 `yaml:"epsilon"`
	Report  bool    `yaml:"report"`
}

// RMaxConfig holds RMax/FactoredRMax hyperparameters (identical shape,
// matching the reference's two near-duplicate structs).
type RMaxConfig struct {
	Gamma      float64 `yaml:"gamma"`
	KnownCount float64 `yaml:"knownCount"`
	ErrorDelta float64 `yaml:"errorDelta"`
	Report     bool    `yaml:"report"`
}

// MaxQConfig holds MaxQ-Q hyperparameters.
type MaxQConfig struct {
	Alpha        float64 `yaml:"alpha"`
	Gamma        float64 `yaml:"gamma"`
	Epsilon      float64 `yaml:"epsilon"`
	Report       bool    `yaml:"report"`
	ShowLearning bool    `yaml:"showLearning"`
}

// RandomSolverConfig carries no parameters; its presence alone selects
// the random baseline solver for a session.
type RandomSolverConfig struct{}

// DoorMaxConfig holds DoorMax hyperparameters.
type DoorMaxConfig struct {
	Gamma            float64 `yaml:"gamma"`
	UseRewardLearner bool    `yaml:"useRewardLearner"`
	KnownCount       float64 `yaml:"knownCount"`
	ErrorDelta       float64 `yaml:"errorDelta"`
	Report           bool    `yaml:"report"`
}

// Configuration is the full training session document: world.Parse
// input, cost overrides, seeds, probes, trial/step/session caps, and
// zero or more solver sub-configurations to run side by side.
type Configuration struct {
	World         string              `yaml:"world"`
	Costs         CostsConfig         `yaml:"costs"`
	RootSeed      *Seed               `yaml:"rootSeed"`
	RerunSeeds    []Seed              `yaml:"rerunSeeds"`
	Probes        []Probe             `yaml:"probes"`
	MaxTrials     int                 `yaml:"maxTrials"`
	MaxTrialSteps int                 `yaml:"maxTrialSteps"`
	Sessions      int                 `yaml:"sessions"`
	RandomSolver  *RandomSolverConfig `yaml:"randomSolver"`
	QLearner      *QLearnerConfig     `yaml:"qLearner"`
	RMax          *RMaxConfig         `yaml:"rMax"`
	FactoredRMax  *RMaxConfig         `yaml:"factoredRMax"`
	MaxQ          *MaxQConfig         `yaml:"maxQ"`
	DoorMax       *DoorMaxConfig      `yaml:"doorMax"`
	Replay        *Replay             `yaml:"replay"`
}

// Default returns the canonical 5x5 taxi map configuration, matching
// spec.md's worked examples.
func Default() Configuration {
	return Configuration{
		World: "┌───┬─────┐\n" +
			"│R .│. . G│\n" +
			"│. .│. . .│\n" +
			"│. . . . .│\n" +
			"│.│. .│. .│\n" +
			"│Y│. .│B .│\n" +
			"└─┴───┴───┘",
		MaxTrials:     1,
		MaxTrialSteps: 100,
		Sessions:      1,
	}
}

// Load reads and parses a configuration document from path. It follows
// the teacher's two-pass approach: viper reads the file generically
// (so it tolerates comments, env overrides, and extra keys the way the
// rest of the corpus expects from a viper-backed config loader) and
// decodes it into a Configuration via vp.Unmarshal, whose mapstructure
// decoder matches keys case-insensitively. That decoded struct is then
// re-marshaled and re-parsed through yaml.v3, so pointer fields and
// custom types end up exactly as yaml.v3 defines them rather than as
// mapstructure's own, slightly different, decoding rules would leave
// them. Re-marshaling vp.AllSettings() directly would lose every
// camelCase field: viper lowercases all keys internally, and unlike
// encoding/json, yaml.v3 matches struct tags case-sensitively.
func Load(path string) (*Configuration, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))

	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read %q: %w", path, err)
	}

	decoded := Default()
	if err := vp.Unmarshal(&decoded); err != nil {
		return nil, fmt.Errorf("config: failed to decode %q: %w", path, err)
	}

	spec, err := yaml.Marshal(decoded)
	if err != nil {
		return nil, fmt.Errorf("config: failed to re-marshal %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(spec, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %q: %w", path, err)
	}

	return &cfg, nil
}

// BuildWorld parses the configuration's map using its resolved costs.
func (c *Configuration) BuildWorld() (*world.World, error) {
	return world.Parse(c.World, c.Costs.Resolve())
}
