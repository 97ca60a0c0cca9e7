package genome

import (
	"time"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
	"github.com/google/uuid"
)

// Genome is a full evolvable individual: stable identity, a monotonically
// non-decreasing generation counter, an ordered sequence of chromosomes, and a
// lineage reference to its parents. Operators never mutate a genome that has
// been scored; they derive new instances so a fitness value always pairs with
// exactly one genome id.
type Genome struct {
	ID          string        `json:"id"`
	Generation  int           `json:"generation"`
	ParentIDs   []string      `json:"parent_ids"`
	Chromosomes []*Chromosome `json:"chromosomes"`
	CreatedAt   time.Time     `json:"created_at"`
}

// New creates a founder genome at generation 0. Chromosomes are cloned so the
// genome owns them exclusively; chromosome names must be unique.
func New(chromosomes ...*Chromosome) (*Genome, error) {
	if len(chromosomes) == 0 {
		return nil, errors.New(errors.InvalidDomain, "genome must contain at least one chromosome")
	}
	seen := make(map[string]struct{}, len(chromosomes))
	owned := make([]*Chromosome, 0, len(chromosomes))
	for _, c := range chromosomes {
		if _, dup := seen[c.Name]; dup {
			return nil, errors.WithFields(
				errors.New(errors.InvalidDomain, "duplicate chromosome name in genome"),
				errors.Fields{"chromosome": c.Name})
		}
		seen[c.Name] = struct{}{}
		owned = append(owned, c.Clone())
	}
	return &Genome{
		ID:          uuid.New().String(),
		Generation:  0,
		ParentIDs:   nil,
		Chromosomes: owned,
		CreatedAt:   time.Now(),
	}, nil
}

// MustNew is New for statically known-valid genomes; it panics on error.
func MustNew(chromosomes ...*Chromosome) *Genome {
	g, err := New(chromosomes...)
	if err != nil {
		panic(err)
	}
	return g
}

// Derive creates a child genome owning cloned copies of this genome's
// chromosomes, at generation+1, with this genome recorded as the parent.
// Operators mutate the returned child freely before handing it out.
func (g *Genome) Derive() *Genome {
	chromosomes := make([]*Chromosome, len(g.Chromosomes))
	for i, c := range g.Chromosomes {
		chromosomes[i] = c.Clone()
	}
	return &Genome{
		ID:          uuid.New().String(),
		Generation:  g.Generation + 1,
		ParentIDs:   []string{g.ID},
		Chromosomes: chromosomes,
		CreatedAt:   time.Now(),
	}
}

// DeriveFrom creates an offspring of two parents with empty chromosomes; the
// crossover operators fill in the chromosome sequence. The child generation is
// max(parent generations) + 1.
func DeriveFrom(parentA, parentB *Genome) *Genome {
	generation := parentA.Generation
	if parentB.Generation > generation {
		generation = parentB.Generation
	}
	return &Genome{
		ID:          uuid.New().String(),
		Generation:  generation + 1,
		ParentIDs:   []string{parentA.ID, parentB.ID},
		Chromosomes: make([]*Chromosome, 0, len(parentA.Chromosomes)),
		CreatedAt:   time.Now(),
	}
}

// Chromosome returns the chromosome with the given name, or nil when absent.
func (g *Genome) Chromosome(name string) *Chromosome {
	for _, c := range g.Chromosomes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Clone returns a deep copy sharing nothing with the receiver, preserving
// identity, generation and lineage.
func (g *Genome) Clone() *Genome {
	chromosomes := make([]*Chromosome, len(g.Chromosomes))
	for i, c := range g.Chromosomes {
		chromosomes[i] = c.Clone()
	}
	parents := make([]string, len(g.ParentIDs))
	copy(parents, g.ParentIDs)
	return &Genome{
		ID:          g.ID,
		Generation:  g.Generation,
		ParentIDs:   parents,
		Chromosomes: chromosomes,
		CreatedAt:   g.CreatedAt,
	}
}

// SameTopology reports whether two genomes have identical chromosome structure
// (names, order, and per-chromosome gene names and order).
func (g *Genome) SameTopology(other *Genome) bool {
	if len(g.Chromosomes) != len(other.Chromosomes) {
		return false
	}
	for i := range g.Chromosomes {
		if !g.Chromosomes[i].SameTopology(other.Chromosomes[i]) {
			return false
		}
	}
	return true
}

// Validate checks every gene allele against its declared domain.
func (g *Genome) Validate() error {
	for _, c := range g.Chromosomes {
		for _, gene := range c.Genes {
			if !gene.Domain.Contains(gene.Allele) {
				return errors.WithFields(
					errors.New(errors.InvalidDomain, "allele outside declared domain"),
					errors.Fields{
						"genome":     g.ID,
						"chromosome": c.Name,
						"gene":       gene.Name,
						"allele":     FormatAllele(gene.Allele),
					})
			}
		}
	}
	return nil
}
