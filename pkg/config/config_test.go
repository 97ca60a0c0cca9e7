package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/XiaoConstantine/evo-go/pkg/aggregation"
	"github.com/XiaoConstantine/evo-go/pkg/errors"
	"github.com/XiaoConstantine/evo-go/pkg/evolution"
	"github.com/XiaoConstantine/evo-go/pkg/genetics"
	"github.com/XiaoConstantine/evo-go/pkg/swarm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesPackageDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	ev := evolution.DefaultConfig()
	assert.Equal(t, ev.PopulationSize, cfg.Evolution.PopulationSize)
	assert.Equal(t, ev.MaxGenerations, cfg.Evolution.MaxGenerations)
	assert.Equal(t, ev.MutationRate, cfg.Evolution.MutationRate)
	assert.Equal(t, string(ev.SelectionStrategy), cfg.Evolution.SelectionStrategy)

	agg := aggregation.DefaultConfig()
	assert.Equal(t, string(agg.Method), cfg.Aggregation.Method)
	assert.Equal(t, agg.TrimFraction, cfg.Aggregation.TrimFraction)
	assert.Equal(t, agg.HuberK, cfg.Aggregation.HuberK)

	assert.Equal(t, 30, cfg.Swarm.SwarmSize)
	assert.Equal(t, string(swarm.Minimize), cfg.Swarm.Direction)
	assert.Equal(t, 0.01, cfg.Consensus.Tolerance)
	assert.Equal(t, 10, cfg.Consensus.MaxRounds)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestParseMergesOntoDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
logging:
  level: DEBUG
evolution:
  population_size: 50
  selection_strategy: rank
swarm:
  min_bounds: [-1, -1]
  max_bounds: [1, 1]
aggregation:
  method: huber
`))
	require.NoError(t, err)

	// Overridden fields.
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Evolution.PopulationSize)
	assert.Equal(t, "rank", cfg.Evolution.SelectionStrategy)
	assert.Equal(t, []float64{-1, -1}, cfg.Swarm.MinBounds)
	assert.Equal(t, "huber", cfg.Aggregation.Method)

	// Untouched fields keep their defaults.
	assert.Equal(t, 10, cfg.Evolution.MaxGenerations)
	assert.Equal(t, 0.729, cfg.Swarm.Inertia)
	assert.Equal(t, 1.345, cfg.Aggregation.HuberK)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("evolution: [not, a, mapping"))
	require.Error(t, err)
	assert.Equal(t, errors.InvalidConfig, errors.CodeOf(err))
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad log level", "logging:\n  level: TRACE"},
		{"population too small", "evolution:\n  population_size: 1"},
		{"mutation rate above one", "evolution:\n  mutation_rate: 1.5"},
		{"unknown mutation kind", "evolution:\n  mutation_kinds: [point, splice]"},
		{"unknown crossover kind", "evolution:\n  crossover_kind: three_point"},
		{"unknown selection strategy", "evolution:\n  selection_strategy: lottery"},
		{"rank pressure out of range", "evolution:\n  rank_pressure: 2.5"},
		{"unknown direction", "swarm:\n  direction: sideways"},
		{"bounds length mismatch", "swarm:\n  min_bounds: [-1]\n  max_bounds: [1, 2]"},
		{"unknown aggregation method", "aggregation:\n  method: mode"},
		{"trim fraction too large", "aggregation:\n  trim_fraction: 0.6"},
		{"negative tolerance", "consensus:\n  tolerance: -0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, errors.InvalidConfig, errors.CodeOf(err))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	content := `
evolution:
  max_generations: 25
  target_fitness: -0.5
consensus:
  tolerance: 0.001
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Evolution.MaxGenerations)
	require.NotNil(t, cfg.Evolution.TargetFitness)
	assert.Equal(t, -0.5, *cfg.Evolution.TargetFitness)
	assert.Equal(t, 0.001, cfg.Consensus.Tolerance)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.InvalidConfig, errors.CodeOf(err))
}

func TestBridgeConversions(t *testing.T) {
	cfg, err := Parse([]byte(`
evolution:
  mutation_kinds: [point, inversion]
  crossover_kind: uniform
  seed: 99
swarm:
  min_bounds: [-2]
  max_bounds: [2]
  seed: 7
aggregation:
  method: trimmed_mean
  trim_fraction: 0.2
consensus:
  max_rounds: 4
`))
	require.NoError(t, err)

	engineCfg := cfg.EvolutionEngineConfig()
	assert.Equal(t, []genetics.MutationKind{genetics.MutationPoint, genetics.MutationInversion}, engineCfg.MutationKinds)
	assert.Equal(t, genetics.CrossoverUniform, engineCfg.CrossoverKind)
	assert.Equal(t, int64(99), engineCfg.Seed)
	_, err = evolution.New(engineCfg)
	require.NoError(t, err, "bridged evolution config must satisfy the engine")

	swarmCfg := cfg.SwarmOptimizerConfig()
	assert.Equal(t, swarm.Minimize, swarmCfg.Direction)
	assert.Equal(t, int64(7), swarmCfg.Seed)
	_, err = swarm.New(swarmCfg)
	require.NoError(t, err, "bridged swarm config must satisfy the optimizer")

	aggCfg := cfg.AggregationEngineConfig()
	assert.Equal(t, aggregation.MethodTrimmedMean, aggCfg.Method)
	assert.Equal(t, 0.2, aggCfg.TrimFraction)

	consCfg := cfg.ConsensusBuilderConfig()
	assert.Equal(t, 4, consCfg.MaxRounds)
	require.NotNil(t, consCfg.Aggregation)
	assert.Equal(t, aggregation.MethodTrimmedMean, consCfg.Aggregation.Method)
}
