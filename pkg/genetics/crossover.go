package genetics

import (
	"math/rand"
	"time"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
	"github.com/XiaoConstantine/evo-go/pkg/genome"
)

// CrossoverKind identifies one of the crossover operators.
type CrossoverKind string

const (
	CrossoverSinglePoint CrossoverKind = "single_point"
	CrossoverTwoPoint    CrossoverKind = "two_point"
	CrossoverUniform     CrossoverKind = "uniform"
)

// CrossoverConfig contains configuration options for the crossover operator.
type CrossoverConfig struct {
	Kind CrossoverKind `json:"kind"` // Default: single_point

	// Seed fixes the random stream for reproducible runs. Zero means
	// time-based seeding.
	Seed int64 `json:"seed"`
}

// DefaultCrossoverConfig returns the default configuration for crossover.
func DefaultCrossoverConfig() *CrossoverConfig {
	return &CrossoverConfig{Kind: CrossoverSinglePoint}
}

// Crossover combines two parent genomes of matching chromosome topology into
// two offspring. No allele-level repair is attempted: mismatched topologies
// are rejected outright.
type Crossover struct {
	config *CrossoverConfig
	rng    *rand.Rand
}

// NewCrossover creates a crossover operator, validating the configuration.
func NewCrossover(config *CrossoverConfig) (*Crossover, error) {
	if config == nil {
		config = DefaultCrossoverConfig()
	}
	switch config.Kind {
	case CrossoverSinglePoint, CrossoverTwoPoint, CrossoverUniform:
	default:
		return nil, errors.Newf(errors.InvalidConfig, "unknown crossover kind %q", config.Kind)
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Crossover{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Cross produces two offspring from two parents. Offspring are mirror images:
// wherever the first child takes a gene from parent A, the second takes the
// corresponding gene from parent B.
func (x *Crossover) Cross(parentA, parentB *genome.Genome) (*genome.Genome, *genome.Genome, error) {
	if !parentA.SameTopology(parentB) {
		return nil, nil, errors.WithFields(
			errors.New(errors.TopologyMismatch, "parent chromosome topologies differ"),
			errors.Fields{"parent_a": parentA.ID, "parent_b": parentB.ID})
	}

	child1 := genome.DeriveFrom(parentA, parentB)
	child2 := genome.DeriveFrom(parentB, parentA)

	for i := range parentA.Chromosomes {
		chromA := parentA.Chromosomes[i]
		chromB := parentB.Chromosomes[i]

		// fromA[j] == true means child1 takes gene j from parent A.
		fromA := x.sourceMask(chromA.Len())

		c1 := chromA.Clone()
		c2 := chromB.Clone()
		for j := range fromA {
			if fromA[j] {
				c1.Genes[j] = chromA.Genes[j].Clone()
				c2.Genes[j] = chromB.Genes[j].Clone()
			} else {
				c1.Genes[j] = chromB.Genes[j].Clone()
				c2.Genes[j] = chromA.Genes[j].Clone()
			}
		}
		child1.Chromosomes = append(child1.Chromosomes, c1)
		child2.Chromosomes = append(child2.Chromosomes, c2)
	}

	return child1, child2, nil
}

// sourceMask computes, per gene locus, whether the first child sources from
// parent A according to the configured crossover kind.
func (x *Crossover) sourceMask(length int) []bool {
	mask := make([]bool, length)

	switch x.config.Kind {
	case CrossoverSinglePoint:
		// Genes before the locus come from A, after from B.
		locus := x.rng.Intn(length + 1)
		for j := 0; j < length; j++ {
			mask[j] = j < locus
		}
	case CrossoverTwoPoint:
		// A swapped middle segment between two loci.
		a := x.rng.Intn(length + 1)
		b := x.rng.Intn(length + 1)
		if a > b {
			a, b = b, a
		}
		for j := 0; j < length; j++ {
			mask[j] = j < a || j >= b
		}
	case CrossoverUniform:
		for j := 0; j < length; j++ {
			mask[j] = x.rng.Float64() < 0.5
		}
	}

	return mask
}
