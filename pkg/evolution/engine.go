package evolution

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
	"github.com/XiaoConstantine/evo-go/pkg/genetics"
	"github.com/XiaoConstantine/evo-go/pkg/genome"
	"github.com/XiaoConstantine/evo-go/pkg/logging"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// Fitness scores a genome. It must be pure, side-effect-free and total over
// every genome the operators can produce; higher is better. A returned error
// or non-finite value aborts the run.
type Fitness func(ctx context.Context, g *genome.Genome) (float64, error)

// RunState tracks the per-run state machine.
type RunState string

const (
	StateInitialized RunState = "initialized"
	StateEvaluated   RunState = "evaluated"
	StateSelected    RunState = "selected"
	StateReproduced  RunState = "reproduced"
	StateTerminated  RunState = "terminated"
)

// TerminationReason reports why a run stopped.
type TerminationReason string

const (
	ReasonMaxGenerations TerminationReason = "max_generations"
	ReasonTargetFitness  TerminationReason = "target_fitness"
	ReasonConverged      TerminationReason = "converged"
	ReasonStagnated      TerminationReason = "stagnated"
	ReasonCancelled      TerminationReason = "cancelled"
	ReasonFitnessFailure TerminationReason = "fitness_failure"
)

// Config contains configuration options for the evolution engine.
type Config struct {
	// Population parameters
	PopulationSize int `json:"population_size"` // Default: 20
	MaxGenerations int `json:"max_generations"` // Default: 10

	// Operator parameters
	MutationRate  float64                 `json:"mutation_rate"`  // Default: 0.3
	MutationKinds []genetics.MutationKind `json:"mutation_kinds"` // Default: point
	CrossoverRate float64                 `json:"crossover_rate"` // Default: 0.7
	CrossoverKind genetics.CrossoverKind  `json:"crossover_kind"` // Default: single_point

	// Selection parameters
	SelectionStrategy SelectionStrategy `json:"selection_strategy"` // Default: tournament
	TournamentSize    int               `json:"tournament_size"`    // Default: 3
	RankPressure      float64           `json:"rank_pressure"`      // Default: 1.5, valid (1, 2]
	ElitismRate       float64           `json:"elitism_rate"`       // Default: 0.1

	// Termination parameters. TargetFitness stops the run once the best
	// fitness reaches it; StagnationLimit stops after that many generations
	// without best-fitness improvement (0 disables). Convergence, when set,
	// is consulted after every evaluated generation.
	TargetFitness   *float64                             `json:"target_fitness,omitempty"`
	StagnationLimit int                                  `json:"stagnation_limit"`
	Convergence     func(history []GenerationStats) bool `json:"-"`

	// Performance parameters
	ConcurrencyLevel int `json:"concurrency_level"` // Default: 4

	// Seed fixes the random stream for reproducible runs. Zero means
	// time-based seeding.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the default configuration for the evolution engine.
func DefaultConfig() *Config {
	return &Config{
		PopulationSize:    20,
		MaxGenerations:    10,
		MutationRate:      0.3,
		MutationKinds:     []genetics.MutationKind{genetics.MutationPoint},
		CrossoverRate:     0.7,
		CrossoverKind:     genetics.CrossoverSinglePoint,
		SelectionStrategy: SelectionTournament,
		TournamentSize:    3,
		RankPressure:      1.5,
		ElitismRate:       0.1,
		ConcurrencyLevel:  4,
	}
}

// Result is the outcome of one evolution run. Best is the best genome
// observed over the entire run, not just the final generation.
type Result struct {
	RunID       string            `json:"run_id"`
	Best        *genome.Genome    `json:"best"`
	BestFitness float64           `json:"best_fitness"`
	Ancestry    []*genome.Genome  `json:"ancestry"` // founder-to-best descent path
	Stats       []GenerationStats `json:"stats"`
	Generations int               `json:"generations"`
	Reason      TerminationReason `json:"reason"`
	Partial     bool              `json:"partial"`
	Elapsed     time.Duration     `json:"elapsed"`
}

// Engine drives the generational loop. One engine may serve many runs; all
// run state lives in the call frame so concurrent runs on separate engines
// never interfere.
type Engine struct {
	config    *Config
	rng       *rand.Rand
	mutator   *genetics.Mutator
	crossover *genetics.Crossover
}

// New creates an engine, validating the configuration.
func New(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.PopulationSize < 2 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfig, "population size must be at least 2"),
			errors.Fields{"population_size": config.PopulationSize})
	}
	if config.MaxGenerations < 1 {
		return nil, errors.New(errors.InvalidConfig, "max generations must be at least 1")
	}
	if config.CrossoverRate < 0 || config.CrossoverRate > 1 {
		return nil, errors.New(errors.InvalidConfig, "crossover rate must be in [0, 1]")
	}
	if config.ElitismRate < 0 || config.ElitismRate > 1 {
		return nil, errors.New(errors.InvalidConfig, "elitism rate must be in [0, 1]")
	}
	if config.TournamentSize < 1 {
		return nil, errors.New(errors.InvalidConfig, "tournament size must be at least 1")
	}
	if config.RankPressure <= 1 || config.RankPressure > 2 {
		return nil, errors.New(errors.InvalidConfig, "rank pressure must be in (1, 2]")
	}
	if config.ConcurrencyLevel < 1 {
		return nil, errors.New(errors.InvalidConfig, "concurrency level must be at least 1")
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	mutator, err := genetics.NewMutator(&genetics.MutatorConfig{
		MutationRate: config.MutationRate,
		Kinds:        config.MutationKinds,
		Seed:         rng.Int63(),
	})
	if err != nil {
		return nil, err
	}
	crossover, err := genetics.NewCrossover(&genetics.CrossoverConfig{
		Kind: config.CrossoverKind,
		Seed: rng.Int63(),
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:    config,
		rng:       rng,
		mutator:   mutator,
		crossover: crossover,
	}, nil
}

// run holds the state of one in-flight run.
type run struct {
	id         string
	state      RunState
	population *Population
	lineage    map[string]*genome.Genome // every genome produced during the run
	stats      []GenerationStats
	best       *genome.Genome
	bestScore  float64
	hasBest    bool
	stagnation int
	start      time.Time
}

// Run executes the evolutionary loop: seed the population from the founders,
// then Evaluated -> Selected -> Reproduced per generation until a termination
// condition holds. The best genome observed anywhere in the run is returned;
// on cancellation or fitness failure the partial result accompanies the error.
func (e *Engine) Run(ctx context.Context, founders []*genome.Genome, fitness Fitness) (*Result, error) {
	logger := logging.GetLogger()

	if len(founders) == 0 {
		return nil, errors.New(errors.InsufficientInput, "at least one founder genome is required")
	}
	if fitness == nil {
		return nil, errors.New(errors.InvalidConfig, "fitness function must not be nil")
	}
	for _, f := range founders {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}

	r := &run{
		id:      uuid.New().String(),
		lineage: make(map[string]*genome.Genome),
		start:   time.Now(),
	}
	ctx = logging.WithRunID(ctx, r.id)

	logger.Info(ctx, "Starting evolution run: population_size=%d, max_generations=%d, selection=%s",
		e.config.PopulationSize, e.config.MaxGenerations, e.config.SelectionStrategy)

	e.initialize(r, founders)

	for generation := 0; generation < e.config.MaxGenerations; generation++ {
		genCtx := logging.WithGeneration(ctx, generation)

		if err := errors.CheckContext(ctx, "evolution run"); err != nil {
			return e.finish(genCtx, r, ReasonCancelled, true), err
		}

		if err := e.evaluate(genCtx, r, fitness); err != nil {
			return e.finish(genCtx, r, ReasonFitnessFailure, true), err
		}

		stats := r.population.stats()
		r.stats = append(r.stats, stats)
		logger.Info(genCtx, "Generation evaluated: best=%.4f, mean=%.4f, worst=%.4f",
			stats.BestFitness, stats.MeanFitness, stats.WorstFitness)

		if reason, done := e.terminationReason(r, stats); done {
			return e.finish(genCtx, r, reason, false), nil
		}
		if generation == e.config.MaxGenerations-1 {
			break
		}

		e.reproduce(genCtx, r)
	}

	return e.finish(ctx, r, ReasonMaxGenerations, false), nil
}

// initialize seeds the first population from the founders via repeated
// point mutation at rate 1.0, so every seed differs from its founder while
// staying in-domain.
func (e *Engine) initialize(r *run, founders []*genome.Genome) {
	seeder, _ := genetics.NewMutator(&genetics.MutatorConfig{
		MutationRate: 1.0,
		Kinds:        []genetics.MutationKind{genetics.MutationPoint},
		Seed:         e.rng.Int63(),
	})

	genomes := make([]*genome.Genome, 0, e.config.PopulationSize)
	for _, f := range founders {
		if len(genomes) == e.config.PopulationSize {
			break
		}
		clone := f.Clone()
		genomes = append(genomes, clone)
		r.lineage[clone.ID] = clone
	}
	for i := 0; len(genomes) < e.config.PopulationSize; i++ {
		founder := founders[i%len(founders)]
		seeded, err := seeder.Mutate(founder)
		if err != nil {
			// Founders were validated on entry; a seed failure here means a
			// domain bug, so fall back to a plain copy.
			clone := founder.Derive()
			genomes = append(genomes, clone)
			r.lineage[clone.ID] = clone
			continue
		}
		genomes = append(genomes, seeded.Child)
		r.lineage[seeded.Child.ID] = seeded.Child
	}

	r.population = newPopulation(0, genomes)
	r.state = StateInitialized
}

// evaluate scores every unevaluated member concurrently, bounded by the
// configured concurrency level. The fitness function is never retried; the
// first failure aborts the run.
func (e *Engine) evaluate(ctx context.Context, r *run, fitness Fitness) error {
	p := pool.New().WithMaxGoroutines(e.config.ConcurrencyLevel)

	var mu sync.Mutex
	var firstErr error

	for _, member := range r.population.Members {
		member := member
		if member.Evaluated {
			continue
		}
		p.Go(func() {
			score, err := fitness(ctx, member.Genome)

			mu.Lock()
			defer mu.Unlock()
			if firstErr != nil {
				return
			}
			if err != nil {
				firstErr = errors.WithFields(
					errors.Wrap(err, errors.FitnessEvaluationFailure, "fitness evaluation failed"),
					errors.Fields{"genome": member.Genome.ID})
				return
			}
			if math.IsNaN(score) || math.IsInf(score, 0) {
				firstErr = errors.WithFields(
					errors.New(errors.FitnessEvaluationFailure, "fitness returned a non-finite value"),
					errors.Fields{"genome": member.Genome.ID, "value": score})
				return
			}
			member.Fitness = score
			member.Evaluated = true
		})
	}

	p.Wait()
	if firstErr != nil {
		return firstErr
	}

	r.state = StateEvaluated

	// Track the best genome over the whole run, not just this generation.
	for _, m := range r.population.Members {
		if !r.hasBest || m.Fitness > r.bestScore {
			r.best = m.Genome
			r.bestScore = m.Fitness
			r.hasBest = true
			r.stagnation = -1 // reset below, after the generation closes
		}
	}
	r.stagnation++
	return nil
}

// terminationReason checks the early-exit conditions after an evaluated
// generation, in priority order.
func (e *Engine) terminationReason(r *run, stats GenerationStats) (TerminationReason, bool) {
	if e.config.TargetFitness != nil && stats.BestFitness >= *e.config.TargetFitness {
		return ReasonTargetFitness, true
	}
	if e.config.Convergence != nil && e.config.Convergence(r.stats) {
		return ReasonConverged, true
	}
	if e.config.StagnationLimit > 0 && r.stagnation >= e.config.StagnationLimit {
		return ReasonStagnated, true
	}
	return "", false
}

// reproduce builds the next generation: elites carried forward unchanged,
// the rest produced by crossover of selected parents followed by mutation.
func (e *Engine) reproduce(ctx context.Context, r *run) {
	logger := logging.GetLogger()
	current := r.population

	poolSize := e.config.PopulationSize / 2
	if poolSize < 2 {
		poolSize = 2
	}
	parents := e.selectParents(current, poolSize)
	r.state = StateSelected

	eliteCount := int(float64(e.config.PopulationSize) * e.config.ElitismRate)
	offspring := e.selectElite(current, eliteCount)
	for _, m := range offspring {
		r.lineage[m.Genome.ID] = m.Genome
	}

	for len(offspring) < e.config.PopulationSize {
		parentA := parents[e.rng.Intn(len(parents))]
		parentB := parents[e.rng.Intn(len(parents))]
		for parentB.Genome.ID == parentA.Genome.ID && len(parents) > 1 {
			parentB = parents[e.rng.Intn(len(parents))]
		}

		var children []*genome.Genome
		if e.rng.Float64() < e.config.CrossoverRate {
			child1, child2, err := e.crossover.Cross(parentA.Genome, parentB.Genome)
			if err != nil {
				// Populations are seeded from topology-validated founders, so
				// a mismatch here is a structural-operator artifact; fall back
				// to asexual descent for this pair.
				children = []*genome.Genome{parentA.Genome.Derive(), parentB.Genome.Derive()}
			} else {
				children = []*genome.Genome{child1, child2}
			}
		} else {
			children = []*genome.Genome{parentA.Genome.Derive(), parentB.Genome.Derive()}
		}

		for _, child := range children {
			if len(offspring) == e.config.PopulationSize {
				break
			}
			// The crossover/derive product sits between the parents and the
			// mutated child on the ancestry path; archive both.
			r.lineage[child.ID] = child
			if mutated, err := e.mutator.Mutate(child); err == nil {
				child = mutated.Child
				r.lineage[child.ID] = child
			} else {
				logger.Warn(ctx, "Mutation failed, keeping unmutated child: genome=%s, error=%v", child.ID, err)
			}
			offspring = append(offspring, &Member{Genome: child})
		}
	}

	r.population = &Population{Members: offspring, Generation: current.Generation + 1}
	r.state = StateReproduced

	logger.Debug(ctx, "Population reproduced: size=%d, elites=%d", len(offspring), eliteCount)
}

// finish closes the run and assembles the result.
func (e *Engine) finish(ctx context.Context, r *run, reason TerminationReason, partial bool) *Result {
	logger := logging.GetLogger()
	r.state = StateTerminated

	result := &Result{
		RunID:       r.id,
		Best:        r.best,
		BestFitness: r.bestScore,
		Stats:       r.stats,
		Generations: len(r.stats),
		Reason:      reason,
		Partial:     partial,
		Elapsed:     time.Since(r.start),
	}
	if r.best != nil {
		result.Ancestry = e.ancestryOf(r, r.best)
	}

	logger.Info(ctx, "Evolution run terminated: reason=%s, generations=%d, best_fitness=%.4f, partial=%v",
		reason, result.Generations, result.BestFitness, partial)
	return result
}

// ancestryOf reconstructs the descent path from a founder to the given
// genome, oldest first, following first-parent links through the lineage
// archive.
func (e *Engine) ancestryOf(r *run, g *genome.Genome) []*genome.Genome {
	var path []*genome.Genome
	seen := make(map[string]struct{})
	for g != nil {
		if _, cyclic := seen[g.ID]; cyclic {
			break
		}
		seen[g.ID] = struct{}{}
		path = append(path, g)
		if len(g.ParentIDs) == 0 {
			break
		}
		g = r.lineage[g.ParentIDs[0]]
	}

	// Reverse to founder-first order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
