// Package swarm implements a particle swarm optimizer over a bounded
// continuous search space, usable as an alternative to the genetic loop for
// purely numeric parameter tuning.
package swarm

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
	"github.com/XiaoConstantine/evo-go/pkg/logging"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// Objective scores a position. Like the genetic fitness contract it must be
// pure and total; an error or non-finite value aborts the run.
type Objective func(ctx context.Context, position []float64) (float64, error)

// Direction selects whether the objective is minimized or maximized.
type Direction string

const (
	Minimize Direction = "minimize"
	Maximize Direction = "maximize"
)

// TerminationReason reports why an optimization stopped.
type TerminationReason string

const (
	ReasonMaxIterations    TerminationReason = "max_iterations"
	ReasonStagnated        TerminationReason = "stagnated"
	ReasonCancelled        TerminationReason = "cancelled"
	ReasonObjectiveFailure TerminationReason = "objective_failure"
)

// Config contains configuration options for the swarm optimizer.
type Config struct {
	SwarmSize     int `json:"swarm_size"`     // Default: 30
	MaxIterations int `json:"max_iterations"` // Default: 200

	// Search space: one closed interval per dimension.
	MinBounds []float64 `json:"min_bounds"`
	MaxBounds []float64 `json:"max_bounds"`

	// Velocity update coefficients.
	Inertia   float64 `json:"inertia"`   // Default: 0.729
	Cognitive float64 `json:"cognitive"` // Default: 1.49445
	Social    float64 `json:"social"`    // Default: 1.49445

	// Patience stops the run after that many iterations without global-best
	// improvement beyond MinDelta (0 disables).
	Patience int     `json:"patience"`  // Default: 10
	MinDelta float64 `json:"min_delta"` // Default: 1e-12

	Direction Direction `json:"direction"` // Default: minimize

	// Performance parameters
	ConcurrencyLevel int `json:"concurrency_level"` // Default: 4

	// Seed fixes the random stream for reproducible runs. Zero means
	// time-based seeding.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the default configuration for the swarm optimizer
// with the given search-space bounds.
func DefaultConfig(minBounds, maxBounds []float64) *Config {
	return &Config{
		SwarmSize:        30,
		MaxIterations:    200,
		MinBounds:        minBounds,
		MaxBounds:        maxBounds,
		Inertia:          0.729,
		Cognitive:        1.49445,
		Social:           1.49445,
		Patience:         10,
		MinDelta:         1e-12,
		Direction:        Minimize,
		ConcurrencyLevel: 4,
	}
}

// Particle is one member of the swarm.
type Particle struct {
	Position     []float64 `json:"position"`
	Velocity     []float64 `json:"velocity"`
	Fitness      float64   `json:"fitness"`
	BestPosition []float64 `json:"best_position"`
	BestFitness  float64   `json:"best_fitness"`
}

// Result is the outcome of one optimization run.
type Result struct {
	RunID        string            `json:"run_id"`
	BestPosition []float64         `json:"best_position"`
	BestFitness  float64           `json:"best_fitness"`
	Iterations   int               `json:"iterations"`
	Trace        []float64         `json:"trace"` // global-best fitness per iteration
	Reason       TerminationReason `json:"reason"`
	Partial      bool              `json:"partial"`
	Elapsed      time.Duration     `json:"elapsed"`
}

// Optimizer drives PSO runs. All run state lives in the call frame, so one
// optimizer value can serve sequential runs without cross-contamination.
type Optimizer struct {
	config *Config
	rng    *rand.Rand
}

// New creates an optimizer, validating the configuration.
func New(config *Config) (*Optimizer, error) {
	if config == nil {
		return nil, errors.New(errors.InvalidConfig, "swarm config must not be nil")
	}
	if config.SwarmSize < 2 {
		return nil, errors.New(errors.InvalidConfig, "swarm size must be at least 2")
	}
	if config.MaxIterations < 1 {
		return nil, errors.New(errors.InvalidConfig, "max iterations must be at least 1")
	}
	if len(config.MinBounds) == 0 || len(config.MinBounds) != len(config.MaxBounds) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfig, "min and max bounds must be non-empty and equal length"),
			errors.Fields{"min_len": len(config.MinBounds), "max_len": len(config.MaxBounds)})
	}
	for d := range config.MinBounds {
		if config.MinBounds[d] >= config.MaxBounds[d] {
			return nil, errors.WithFields(
				errors.New(errors.InvalidConfig, "each dimension needs min < max"),
				errors.Fields{"dimension": d})
		}
	}
	if config.Direction != Minimize && config.Direction != Maximize {
		return nil, errors.Newf(errors.InvalidConfig, "unknown direction %q", config.Direction)
	}
	if config.ConcurrencyLevel < 1 {
		return nil, errors.New(errors.InvalidConfig, "concurrency level must be at least 1")
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Optimizer{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// better reports whether a beats b under the configured direction.
func (o *Optimizer) better(a, b float64) bool {
	if o.config.Direction == Maximize {
		return a > b
	}
	return a < b
}

// Optimize runs the swarm against the objective. On cancellation or objective
// failure the partial result (best found so far) accompanies the error.
func (o *Optimizer) Optimize(ctx context.Context, objective Objective) (*Result, error) {
	logger := logging.GetLogger()

	if objective == nil {
		return nil, errors.New(errors.InvalidConfig, "objective function must not be nil")
	}

	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	start := time.Now()
	dims := len(o.config.MinBounds)

	logger.Info(ctx, "Starting swarm optimization: swarm_size=%d, max_iterations=%d, dimensions=%d",
		o.config.SwarmSize, o.config.MaxIterations, dims)

	swarm := o.seedSwarm(dims)

	worst := math.Inf(1)
	if o.config.Direction == Maximize {
		worst = math.Inf(-1)
	}
	globalBest := make([]float64, dims)
	globalBestFitness := worst

	result := func(iterations int, trace []float64, reason TerminationReason, partial bool) *Result {
		return &Result{
			RunID:        runID,
			BestPosition: append([]float64{}, globalBest...),
			BestFitness:  globalBestFitness,
			Iterations:   iterations,
			Trace:        trace,
			Reason:       reason,
			Partial:      partial,
			Elapsed:      time.Since(start),
		}
	}

	var trace []float64
	stagnation := 0

	for iteration := 0; iteration < o.config.MaxIterations; iteration++ {
		iterCtx := logging.WithGeneration(ctx, iteration)

		if err := errors.CheckContext(ctx, "swarm optimization"); err != nil {
			return result(iteration, trace, ReasonCancelled, true), err
		}

		if err := o.evaluate(iterCtx, swarm, objective); err != nil {
			return result(iteration, trace, ReasonObjectiveFailure, true), err
		}

		// Update personal and global bests from the fresh evaluations.
		improved := false
		for _, p := range swarm {
			if p.BestPosition == nil || o.better(p.Fitness, p.BestFitness) {
				p.BestFitness = p.Fitness
				p.BestPosition = append([]float64{}, p.Position...)
			}
			if o.better(p.Fitness, globalBestFitness) {
				if math.Abs(p.Fitness-globalBestFitness) > o.config.MinDelta || math.IsInf(globalBestFitness, 0) {
					improved = true
				}
				globalBestFitness = p.Fitness
				copy(globalBest, p.Position)
			}
		}
		trace = append(trace, globalBestFitness)

		if improved {
			stagnation = 0
		} else {
			stagnation++
		}
		if o.config.Patience > 0 && stagnation >= o.config.Patience {
			logger.Info(iterCtx, "Swarm stagnated: best_fitness=%.6g, iterations=%d", globalBestFitness, iteration+1)
			return result(iteration+1, trace, ReasonStagnated, false), nil
		}

		if iteration == o.config.MaxIterations-1 {
			break
		}
		o.step(swarm, globalBest)
	}

	logger.Info(ctx, "Swarm optimization finished: best_fitness=%.6g", globalBestFitness)
	return result(o.config.MaxIterations, trace, ReasonMaxIterations, false), nil
}

// seedSwarm places particles uniformly inside the bounds with zero velocity.
func (o *Optimizer) seedSwarm(dims int) []*Particle {
	swarm := make([]*Particle, o.config.SwarmSize)
	for i := range swarm {
		position := make([]float64, dims)
		for d := 0; d < dims; d++ {
			width := o.config.MaxBounds[d] - o.config.MinBounds[d]
			position[d] = o.config.MinBounds[d] + o.rng.Float64()*width
		}
		swarm[i] = &Particle{
			Position: position,
			Velocity: make([]float64, dims),
		}
	}
	return swarm
}

// evaluate scores every particle's current position concurrently.
func (o *Optimizer) evaluate(ctx context.Context, swarm []*Particle, objective Objective) error {
	p := pool.New().WithMaxGoroutines(o.config.ConcurrencyLevel)

	var mu sync.Mutex
	var firstErr error

	for _, particle := range swarm {
		particle := particle
		p.Go(func() {
			fitness, err := objective(ctx, particle.Position)

			mu.Lock()
			defer mu.Unlock()
			if firstErr != nil {
				return
			}
			if err != nil {
				firstErr = errors.Wrap(err, errors.FitnessEvaluationFailure, "objective evaluation failed")
				return
			}
			if math.IsNaN(fitness) || math.IsInf(fitness, 0) {
				firstErr = errors.WithFields(
					errors.New(errors.FitnessEvaluationFailure, "objective returned a non-finite value"),
					errors.Fields{"value": fitness})
				return
			}
			particle.Fitness = fitness
		})
	}

	p.Wait()
	return firstErr
}

// step applies the velocity and position updates: inertia plus cognitive and
// social pulls, each scaled by an independent random factor per dimension,
// with positions clamped to the bounds and velocities to the bound width.
func (o *Optimizer) step(swarm []*Particle, globalBest []float64) {
	for _, p := range swarm {
		for d := range p.Position {
			r1 := o.rng.Float64()
			r2 := o.rng.Float64()

			p.Velocity[d] = o.config.Inertia*p.Velocity[d] +
				o.config.Cognitive*r1*(p.BestPosition[d]-p.Position[d]) +
				o.config.Social*r2*(globalBest[d]-p.Position[d])

			width := o.config.MaxBounds[d] - o.config.MinBounds[d]
			if p.Velocity[d] > width {
				p.Velocity[d] = width
			} else if p.Velocity[d] < -width {
				p.Velocity[d] = -width
			}

			p.Position[d] += p.Velocity[d]
			if p.Position[d] < o.config.MinBounds[d] {
				p.Position[d] = o.config.MinBounds[d]
			} else if p.Position[d] > o.config.MaxBounds[d] {
				p.Position[d] = o.config.MaxBounds[d]
			}
		}
	}
}
