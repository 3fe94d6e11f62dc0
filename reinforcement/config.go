package reinforcement

import (
	"fmt"
	"math"
	"time"

	"gridmdp/grid_world"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Params are the MDP scalars shared by every algorithm.
type Params struct {
	Discount     float64
	Noise        float64
	LivingReward float64
}

// Validate checks the parameter domains: noise in [0, 0.5], discount in [0, 1].
// Everything is checked up front; solvers never fail mid-iteration on bad parameters.
func (p Params) Validate() error {
	if math.IsNaN(p.Noise) || p.Noise < 0 || p.Noise > 0.5 {
		return &grid_world.DomainError{Field: "noise", Value: p.Noise, Msg: "must lie in [0, 0.5]"}
	}
	if math.IsNaN(p.Discount) || p.Discount < 0 || p.Discount > 1 {
		return &grid_world.DomainError{Field: "discount", Value: p.Discount, Msg: "must lie in [0, 1]"}
	}
	if math.IsNaN(p.LivingReward) || math.IsInf(p.LivingReward, 0) {
		return &grid_world.DomainError{Field: "livingReward", Value: p.LivingReward, Msg: "must be finite"}
	}
	return nil
}

// ValidateSweeps rejects negative iteration counts.
func ValidateSweeps(sweeps int) error {
	if sweeps < 0 {
		return &grid_world.DomainError{Field: "iterations", Value: float64(sweeps), Msg: "must be non-negative"}
	}
	return nil
}

func (p Params) model(grid *grid_world.Grid) *grid_world.TransitionModel {
	return &grid_world.TransitionModel{
		Grid:         grid,
		Noise:        p.Noise,
		LivingReward: p.LivingReward,
	}
}

const solverConfigKind = "solver"

// OuterConfig is the versioned envelope around every config document.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// SolverConfig holds the settings that are not part of a problem file: tie-break order,
// convergence tolerance, rollout horizon, and the server's playback and address.
// Keys are lowercase since viper folds the case of every key it reads.
type SolverConfig struct {
	// ActionOrder is the greedy tie-break order, NESW or NSWE.
	ActionOrder string `yaml:"actionorder"`
	// Tolerance is the residual under which value iteration is reported as converged.
	Tolerance float64 `yaml:"tolerance"`
	// EpisodeHorizon bounds the number of steps of a rollout; 0 means unbounded.
	EpisodeHorizon int `yaml:"episodehorizon"`
	// Playback is the interval between sweeps replayed to websocket clients.
	Playback string `yaml:"playback"`
	// Addr is the server listen address.
	Addr string `yaml:"addr"`
}

// DefaultConfig is used when no config file is given; file values override it field by field.
func DefaultConfig() *SolverConfig {
	return &SolverConfig{
		ActionOrder:    grid_world.NESW.String(),
		Tolerance:      1e-4,
		EpisodeHorizon: 10000,
		Playback:       "100ms",
		Addr:           ":8080",
	}
}

// FromYaml reads a solver config. The document is an envelope {kind: solver, def: {...}};
// viper reads the envelope and the def is round-tripped through yaml into SolverConfig.
func FromYaml(path string) (*SolverConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != solverConfigKind {
		return nil, fmt.Errorf("config %s: kind %q, expected %q", path, outerConfig.Kind, solverConfigKind)
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := DefaultConfig()
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, err
	}

	if _, err = innerConfig.Order(); err != nil {
		return nil, err
	}
	if _, err = innerConfig.PlaybackInterval(); err != nil {
		return nil, err
	}
	return innerConfig, nil
}

// Order returns the parsed tie-break order.
func (cfg *SolverConfig) Order() (grid_world.ActionOrder, error) {
	return grid_world.ParseActionOrder(cfg.ActionOrder)
}

// PlaybackInterval returns the parsed playback interval.
func (cfg *SolverConfig) PlaybackInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(cfg.Playback)
	if err != nil {
		return 0, fmt.Errorf("playback: %w", err)
	}
	return interval, nil
}
