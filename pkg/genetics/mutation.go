// Package genetics implements the genetic operators: five mutation kinds and
// three crossover kinds over genomes. Operators never modify their inputs; a
// call derives a fresh genome with the descent rules applied to generation and
// lineage.
package genetics

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
	"github.com/XiaoConstantine/evo-go/pkg/genome"
)

// MutationKind identifies one of the mutation operators.
type MutationKind string

const (
	MutationPoint       MutationKind = "point"
	MutationInsertion   MutationKind = "insertion"
	MutationDeletion    MutationKind = "deletion"
	MutationDuplication MutationKind = "duplication"
	MutationInversion   MutationKind = "inversion"
)

// structuralOnly reports whether the kind changes chromosome length or order
// and therefore only applies to structural chromosomes.
func (k MutationKind) structuralOnly() bool {
	switch k {
	case MutationInsertion, MutationDeletion, MutationDuplication, MutationInversion:
		return true
	}
	return false
}

// MutatorConfig contains configuration options for the mutation operator.
type MutatorConfig struct {
	// MutationRate is the probability each gene is touched per call.
	MutationRate float64 `json:"mutation_rate"` // Default: 0.3

	// Kinds lists the enabled operators; a kind invalid for a chromosome
	// (e.g. insertion on a fixed-length one) is skipped for it.
	Kinds []MutationKind `json:"kinds"` // Default: point only

	// Seed fixes the random stream for reproducible runs. Zero means
	// time-based seeding.
	Seed int64 `json:"seed"`
}

// DefaultMutatorConfig returns the default configuration for the mutator.
func DefaultMutatorConfig() *MutatorConfig {
	return &MutatorConfig{
		MutationRate: 0.3,
		Kinds:        []MutationKind{MutationPoint},
	}
}

// MutationResult reports the outcome of one mutation call.
type MutationResult struct {
	Child *genome.Genome `json:"child"`

	// Applied counts mutations actually performed.
	Applied int `json:"applied"`

	// Refused counts mutations selected but refused as no-ops, e.g. a
	// deletion that would have emptied a chromosome.
	Refused int `json:"refused"`
}

// Mutator applies the configured mutation operators to genomes.
type Mutator struct {
	config *MutatorConfig
	rng    *rand.Rand
}

// NewMutator creates a mutator, validating the configuration.
func NewMutator(config *MutatorConfig) (*Mutator, error) {
	if config == nil {
		config = DefaultMutatorConfig()
	}
	if config.MutationRate < 0 || config.MutationRate > 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfig, "mutation rate must be in [0, 1]"),
			errors.Fields{"mutation_rate": config.MutationRate})
	}
	if len(config.Kinds) == 0 {
		return nil, errors.New(errors.InvalidConfig, "at least one mutation kind must be enabled")
	}
	for _, k := range config.Kinds {
		switch k {
		case MutationPoint, MutationInsertion, MutationDeletion, MutationDuplication, MutationInversion:
		default:
			return nil, errors.Newf(errors.InvalidConfig, "unknown mutation kind %q", k)
		}
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Mutator{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Mutate derives a child at generation+1 and applies the enabled operators
// gene by gene at the configured rate. The result reports how many mutations
// were actually applied so callers can observe operator activity.
func (m *Mutator) Mutate(parent *genome.Genome) (*MutationResult, error) {
	if err := parent.Validate(); err != nil {
		return nil, err
	}

	child := parent.Derive()
	result := &MutationResult{Child: child}

	for _, chromosome := range child.Chromosomes {
		kinds := m.applicableKinds(chromosome)
		if len(kinds) == 0 {
			continue
		}

		// Length-changing operators invalidate gene indices, so decide the
		// touch count up front from the pre-mutation length.
		touches := 0
		for i := 0; i < chromosome.Len(); i++ {
			if m.rng.Float64() < m.config.MutationRate {
				touches++
			}
		}

		for i := 0; i < touches; i++ {
			kind := kinds[m.rng.Intn(len(kinds))]
			applied, err := m.apply(kind, chromosome)
			if err != nil {
				return nil, err
			}
			if applied {
				result.Applied++
			} else {
				result.Refused++
			}
		}
	}

	return result, nil
}

// applicableKinds filters the enabled kinds down to those valid for the
// chromosome.
func (m *Mutator) applicableKinds(c *genome.Chromosome) []MutationKind {
	kinds := make([]MutationKind, 0, len(m.config.Kinds))
	for _, k := range m.config.Kinds {
		if k.structuralOnly() && !c.Structural {
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds
}

// apply performs one mutation of the given kind on the chromosome, reporting
// whether it actually changed anything.
func (m *Mutator) apply(kind MutationKind, c *genome.Chromosome) (bool, error) {
	switch kind {
	case MutationPoint:
		return m.pointMutation(c)
	case MutationInsertion:
		return m.insertion(c)
	case MutationDeletion:
		return m.deletion(c), nil
	case MutationDuplication:
		return m.duplication(c)
	case MutationInversion:
		return m.inversion(c), nil
	}
	return false, errors.Newf(errors.InvalidConfig, "unknown mutation kind %q", kind)
}

// pointMutation replaces one gene's allele with a fresh draw from its domain.
func (m *Mutator) pointMutation(c *genome.Chromosome) (bool, error) {
	gene := c.Genes[m.rng.Intn(c.Len())]
	if err := gene.SetAllele(gene.Domain.Sample(m.rng)); err != nil {
		return false, err
	}
	return true, nil
}

// insertion adds a new gene whose domain is borrowed from a random existing
// gene, keeping the chromosome's building-block vocabulary closed.
func (m *Mutator) insertion(c *genome.Chromosome) (bool, error) {
	template := c.Genes[m.rng.Intn(c.Len())]
	domain := template.Domain.Clone()
	gene, err := genome.NewGene(m.derivedName(c, template.Name), domain, domain.Sample(m.rng))
	if err != nil {
		return false, err
	}
	if err := c.AddGene(gene); err != nil {
		return false, err
	}
	return true, nil
}

// deletion removes a random gene, refusing to empty the chromosome.
func (m *Mutator) deletion(c *genome.Chromosome) bool {
	if c.Len() <= 1 {
		return false
	}
	victim := c.Genes[m.rng.Intn(c.Len())]
	return c.RemoveGene(victim.Name) == nil
}

// duplication copies an existing gene under a derived name.
func (m *Mutator) duplication(c *genome.Chromosome) (bool, error) {
	source := c.Genes[m.rng.Intn(c.Len())]
	copyGene := source.Clone()
	copyGene.Name = m.derivedName(c, source.Name)
	if err := c.AddGene(copyGene); err != nil {
		return false, err
	}
	return true, nil
}

// inversion reverses a contiguous gene sub-sequence of length >= 2.
func (m *Mutator) inversion(c *genome.Chromosome) bool {
	if c.Len() < 2 {
		return false
	}
	start := m.rng.Intn(c.Len() - 1)
	end := start + 1 + m.rng.Intn(c.Len()-start-1)
	for i, j := start, end; i < j; i, j = i+1, j-1 {
		c.Genes[i], c.Genes[j] = c.Genes[j], c.Genes[i]
	}
	return true
}

// derivedName produces a unique name for a gene derived from base.
func (m *Mutator) derivedName(c *genome.Chromosome, base string) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s.%d", base, i)
		if c.Gene(name) == nil {
			return name
		}
	}
}
