// Package evo is a Go library for evolutionary parameter optimization and
// collective decision making: it tunes typed parameter sets over generations
// and combines many independent judgments into a single decision, estimate,
// or consensus value.
//
// Key Components:
//
//   - Genome: typed, versioned representation of an evolvable parameter set.
//     Genes carry tagged domains (numeric range, categorical set, boolean,
//     structural tokens), chromosomes group genes by name, and genomes track
//     identity, generation, and lineage.
//
//   - Genetics: the operators over genomes:
//     * Mutation: point, insertion, deletion, duplication, inversion
//     * Crossover: single-point, two-point, uniform
//
//   - Evolution: population management and the generational loop:
//     * Selection: roulette wheel, tournament, rank-based, plus elitism
//     * Parallel fitness evaluation with bounded concurrency
//     * Lineage tracking from founders to the final best genome
//     * Termination on generation budget, target fitness, convergence
//       checks, stagnation, or caller cancellation
//
//   - Voting: collective decisions over weighted ballots:
//     * Methods: weighted, quadratic, ranked-choice, approval, plurality,
//       Borda count
//     * Consensus level and entropy-based diversity index per decision
//
//   - Aggregation: wisdom-of-crowds combination of scalar estimates via
//     mean, confidence-weighted mean, trimmed mean, median, geometric mean,
//     or a Huber M-estimator, with confidence and agreement scoring.
//
//   - Consensus: Delphi-style multi-round convergence toward agreement.
//
//   - Swarm: particle swarm optimization over bounded continuous spaces.
//
// Simple Example:
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/XiaoConstantine/evo-go/pkg/evolution"
//	    "github.com/XiaoConstantine/evo-go/pkg/genome"
//	)
//
//	func main() {
//	    rate := genome.MustGene("rate", genome.NumericDomain{Min: 0.0001, Max: 0.1}, 0.01)
//	    chrom, err := genome.NewChromosome("performance", "performance", false, rate)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    founder := genome.MustNew(chrom)
//
//	    engine, err := evolution.New(evolution.DefaultConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fitness := func(ctx context.Context, g *genome.Genome) (float64, error) {
//	        allele := g.Chromosome("performance").Gene("rate").Allele.(float64)
//	        return -allele * allele, nil // prefer small rates
//	    }
//
//	    result, err := engine.Run(context.Background(), []*genome.Genome{founder}, fitness)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("best fitness %.6f after %d generations (%s)\n",
//	        result.BestFitness, result.Generations, result.Reason)
//	}
//
// All engines are pure per call over caller-owned data: no shared singleton
// state, explicit arguments in, explicit results out. Fitness functions and
// ballots are supplied by collaborators; persistence and transport stay
// outside this library.
package evo
