// Package config provides file-based configuration for the optimization
// engines: YAML documents validated with struct tags, with defaults applied
// before validation so partial files stay convenient.
package config

import (
	"os"

	"github.com/XiaoConstantine/evo-go/pkg/aggregation"
	"github.com/XiaoConstantine/evo-go/pkg/consensus"
	"github.com/XiaoConstantine/evo-go/pkg/errors"
	"github.com/XiaoConstantine/evo-go/pkg/evolution"
	"github.com/XiaoConstantine/evo-go/pkg/genetics"
	"github.com/XiaoConstantine/evo-go/pkg/swarm"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the engines.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging,omitempty" validate:"omitempty"`
	Evolution   EvolutionConfig   `yaml:"evolution,omitempty" validate:"omitempty"`
	Swarm       SwarmConfig       `yaml:"swarm,omitempty" validate:"omitempty"`
	Aggregation AggregationConfig `yaml:"aggregation,omitempty" validate:"omitempty"`
	Consensus   ConsensusConfig   `yaml:"consensus,omitempty" validate:"omitempty"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level names the minimum severity (DEBUG, INFO, WARN, ERROR, FATAL).
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`

	// UseStderr routes console output to stderr instead of stdout.
	UseStderr bool `yaml:"use_stderr,omitempty"`
}

// EvolutionConfig mirrors evolution.Config for file-based setup.
type EvolutionConfig struct {
	PopulationSize    int      `yaml:"population_size,omitempty" validate:"omitempty,gte=2"`
	MaxGenerations    int      `yaml:"max_generations,omitempty" validate:"omitempty,gte=1"`
	MutationRate      float64  `yaml:"mutation_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	MutationKinds     []string `yaml:"mutation_kinds,omitempty" validate:"omitempty,dive,oneof=point insertion deletion duplication inversion"`
	CrossoverRate     float64  `yaml:"crossover_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	CrossoverKind     string   `yaml:"crossover_kind,omitempty" validate:"omitempty,oneof=single_point two_point uniform"`
	SelectionStrategy string   `yaml:"selection_strategy,omitempty" validate:"omitempty,oneof=roulette tournament rank"`
	TournamentSize    int      `yaml:"tournament_size,omitempty" validate:"omitempty,gte=1"`
	RankPressure      float64  `yaml:"rank_pressure,omitempty" validate:"omitempty,gt=1,lte=2"`
	ElitismRate       float64  `yaml:"elitism_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	TargetFitness     *float64 `yaml:"target_fitness,omitempty"`
	StagnationLimit   int      `yaml:"stagnation_limit,omitempty" validate:"omitempty,gte=0"`
	ConcurrencyLevel  int      `yaml:"concurrency_level,omitempty" validate:"omitempty,gte=1"`
	Seed              int64    `yaml:"seed,omitempty"`
}

// SwarmConfig mirrors swarm.Config for file-based setup.
type SwarmConfig struct {
	SwarmSize        int       `yaml:"swarm_size,omitempty" validate:"omitempty,gte=2"`
	MaxIterations    int       `yaml:"max_iterations,omitempty" validate:"omitempty,gte=1"`
	MinBounds        []float64 `yaml:"min_bounds,omitempty"`
	MaxBounds        []float64 `yaml:"max_bounds,omitempty"`
	Inertia          float64   `yaml:"inertia,omitempty"`
	Cognitive        float64   `yaml:"cognitive,omitempty"`
	Social           float64   `yaml:"social,omitempty"`
	Patience         int       `yaml:"patience,omitempty" validate:"omitempty,gte=0"`
	MinDelta         float64   `yaml:"min_delta,omitempty" validate:"omitempty,gte=0"`
	Direction        string    `yaml:"direction,omitempty" validate:"omitempty,oneof=minimize maximize"`
	ConcurrencyLevel int       `yaml:"concurrency_level,omitempty" validate:"omitempty,gte=1"`
	Seed             int64     `yaml:"seed,omitempty"`
}

// AggregationConfig mirrors aggregation.Config for file-based setup.
type AggregationConfig struct {
	Method       string  `yaml:"method,omitempty" validate:"omitempty,oneof=mean confidence_weighted trimmed_mean median geometric_mean huber"`
	TrimFraction float64 `yaml:"trim_fraction,omitempty" validate:"omitempty,gte=0,lt=0.5"`
	HuberK       float64 `yaml:"huber_k,omitempty" validate:"omitempty,gt=0"`
}

// ConsensusConfig mirrors consensus.Config for file-based setup.
type ConsensusConfig struct {
	Tolerance float64 `yaml:"tolerance,omitempty" validate:"omitempty,gt=0"`
	MaxRounds int     `yaml:"max_rounds,omitempty" validate:"omitempty,gte=1"`
}

// Default returns a configuration matching the per-package defaults.
func Default() *Config {
	ev := evolution.DefaultConfig()
	agg := aggregation.DefaultConfig()
	cons := consensus.DefaultConfig()

	kinds := make([]string, len(ev.MutationKinds))
	for i, k := range ev.MutationKinds {
		kinds[i] = string(k)
	}

	return &Config{
		Logging: LoggingConfig{Level: "INFO"},
		Evolution: EvolutionConfig{
			PopulationSize:    ev.PopulationSize,
			MaxGenerations:    ev.MaxGenerations,
			MutationRate:      ev.MutationRate,
			MutationKinds:     kinds,
			CrossoverRate:     ev.CrossoverRate,
			CrossoverKind:     string(ev.CrossoverKind),
			SelectionStrategy: string(ev.SelectionStrategy),
			TournamentSize:    ev.TournamentSize,
			RankPressure:      ev.RankPressure,
			ElitismRate:       ev.ElitismRate,
			ConcurrencyLevel:  ev.ConcurrencyLevel,
		},
		Swarm: SwarmConfig{
			SwarmSize:        30,
			MaxIterations:    200,
			Inertia:          0.729,
			Cognitive:        1.49445,
			Social:           1.49445,
			Patience:         10,
			MinDelta:         1e-12,
			Direction:        string(swarm.Minimize),
			ConcurrencyLevel: 4,
		},
		Aggregation: AggregationConfig{
			Method:       string(agg.Method),
			TrimFraction: agg.TrimFraction,
			HuberK:       agg.HuberK,
		},
		Consensus: ConsensusConfig{
			Tolerance: cons.Tolerance,
			MaxRounds: cons.MaxRounds,
		},
	}
}

// Load reads, merges onto defaults, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidConfig, "failed to read config file")
	}
	return Parse(data)
}

// Parse merges YAML content onto the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.InvalidConfig, "failed to parse config YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return errors.Wrap(err, errors.InvalidConfig, "config validation failed")
	}
	if len(c.Swarm.MinBounds) != len(c.Swarm.MaxBounds) {
		return errors.New(errors.InvalidConfig, "swarm min and max bounds must be equal length")
	}
	return nil
}

// EvolutionEngineConfig converts the file form into evolution.Config.
func (c *Config) EvolutionEngineConfig() *evolution.Config {
	kinds := make([]genetics.MutationKind, len(c.Evolution.MutationKinds))
	for i, k := range c.Evolution.MutationKinds {
		kinds[i] = genetics.MutationKind(k)
	}
	return &evolution.Config{
		PopulationSize:    c.Evolution.PopulationSize,
		MaxGenerations:    c.Evolution.MaxGenerations,
		MutationRate:      c.Evolution.MutationRate,
		MutationKinds:     kinds,
		CrossoverRate:     c.Evolution.CrossoverRate,
		CrossoverKind:     genetics.CrossoverKind(c.Evolution.CrossoverKind),
		SelectionStrategy: evolution.SelectionStrategy(c.Evolution.SelectionStrategy),
		TournamentSize:    c.Evolution.TournamentSize,
		RankPressure:      c.Evolution.RankPressure,
		ElitismRate:       c.Evolution.ElitismRate,
		TargetFitness:     c.Evolution.TargetFitness,
		StagnationLimit:   c.Evolution.StagnationLimit,
		ConcurrencyLevel:  c.Evolution.ConcurrencyLevel,
		Seed:              c.Evolution.Seed,
	}
}

// SwarmOptimizerConfig converts the file form into swarm.Config.
func (c *Config) SwarmOptimizerConfig() *swarm.Config {
	return &swarm.Config{
		SwarmSize:        c.Swarm.SwarmSize,
		MaxIterations:    c.Swarm.MaxIterations,
		MinBounds:        c.Swarm.MinBounds,
		MaxBounds:        c.Swarm.MaxBounds,
		Inertia:          c.Swarm.Inertia,
		Cognitive:        c.Swarm.Cognitive,
		Social:           c.Swarm.Social,
		Patience:         c.Swarm.Patience,
		MinDelta:         c.Swarm.MinDelta,
		Direction:        swarm.Direction(c.Swarm.Direction),
		ConcurrencyLevel: c.Swarm.ConcurrencyLevel,
		Seed:             c.Swarm.Seed,
	}
}

// AggregationEngineConfig converts the file form into aggregation.Config.
func (c *Config) AggregationEngineConfig() *aggregation.Config {
	return &aggregation.Config{
		Method:       aggregation.Method(c.Aggregation.Method),
		TrimFraction: c.Aggregation.TrimFraction,
		HuberK:       c.Aggregation.HuberK,
	}
}

// ConsensusBuilderConfig converts the file form into consensus.Config.
func (c *Config) ConsensusBuilderConfig() *consensus.Config {
	return &consensus.Config{
		Tolerance:   c.Consensus.Tolerance,
		MaxRounds:   c.Consensus.MaxRounds,
		Aggregation: c.AggregationEngineConfig(),
	}
}
