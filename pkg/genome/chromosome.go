package genome

import (
	"github.com/XiaoConstantine/evo-go/pkg/errors"
)

// Chromosome is a named, typed, ordered sequence of genes. Gene names are
// unique within a chromosome and genes are addressable by name. A structural
// chromosome is order-dependent and variable-length, which enables the
// insertion, deletion and inversion operators.
type Chromosome struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"` // e.g. "performance", "behavioral"
	Structural bool    `json:"structural"`
	Genes      []*Gene `json:"genes"`
}

// NewChromosome builds a chromosome from genes, enforcing name uniqueness.
// The genes are cloned so the chromosome owns its sequence exclusively.
func NewChromosome(name, chromType string, structural bool, genes ...*Gene) (*Chromosome, error) {
	if name == "" {
		return nil, errors.New(errors.InvalidDomain, "chromosome name must not be empty")
	}
	if len(genes) == 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidDomain, "chromosome must contain at least one gene"),
			errors.Fields{"chromosome": name})
	}

	c := &Chromosome{
		Name:       name,
		Type:       chromType,
		Structural: structural,
		Genes:      make([]*Gene, 0, len(genes)),
	}
	seen := make(map[string]struct{}, len(genes))
	for _, g := range genes {
		if _, dup := seen[g.Name]; dup {
			return nil, errors.WithFields(
				errors.New(errors.InvalidDomain, "duplicate gene name in chromosome"),
				errors.Fields{"chromosome": name, "gene": g.Name})
		}
		seen[g.Name] = struct{}{}
		c.Genes = append(c.Genes, g.Clone())
	}
	return c, nil
}

// Gene returns the gene with the given name, or nil when absent.
func (c *Chromosome) Gene(name string) *Gene {
	for _, g := range c.Genes {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// GeneNames returns gene names in sequence order.
func (c *Chromosome) GeneNames() []string {
	names := make([]string, len(c.Genes))
	for i, g := range c.Genes {
		names[i] = g.Name
	}
	return names
}

// Len returns the number of genes.
func (c *Chromosome) Len() int {
	return len(c.Genes)
}

// AddGene appends a gene, enforcing name uniqueness. Only structural
// chromosomes accept length changes after construction.
func (c *Chromosome) AddGene(g *Gene) error {
	if !c.Structural {
		return errors.WithFields(
			errors.New(errors.InvalidDomain, "cannot grow a fixed-length chromosome"),
			errors.Fields{"chromosome": c.Name})
	}
	if c.Gene(g.Name) != nil {
		return errors.WithFields(
			errors.New(errors.InvalidDomain, "duplicate gene name in chromosome"),
			errors.Fields{"chromosome": c.Name, "gene": g.Name})
	}
	c.Genes = append(c.Genes, g.Clone())
	return nil
}

// RemoveGene removes the named gene. A chromosome must retain at least one
// gene; removal below that is refused.
func (c *Chromosome) RemoveGene(name string) error {
	if !c.Structural {
		return errors.WithFields(
			errors.New(errors.InvalidDomain, "cannot shrink a fixed-length chromosome"),
			errors.Fields{"chromosome": c.Name})
	}
	if len(c.Genes) <= 1 {
		return errors.WithFields(
			errors.New(errors.InvalidDomain, "chromosome must retain at least one gene"),
			errors.Fields{"chromosome": c.Name})
	}
	for i, g := range c.Genes {
		if g.Name == name {
			c.Genes = append(c.Genes[:i], c.Genes[i+1:]...)
			return nil
		}
	}
	return errors.WithFields(
		errors.New(errors.InvalidDomain, "gene not found in chromosome"),
		errors.Fields{"chromosome": c.Name, "gene": name})
}

// Clone returns a deep copy of the chromosome.
func (c *Chromosome) Clone() *Chromosome {
	genes := make([]*Gene, len(c.Genes))
	for i, g := range c.Genes {
		genes[i] = g.Clone()
	}
	return &Chromosome{Name: c.Name, Type: c.Type, Structural: c.Structural, Genes: genes}
}

// SameTopology reports whether two chromosomes have identical name, gene
// count, gene names and gene order. Allele values are not compared.
func (c *Chromosome) SameTopology(other *Chromosome) bool {
	if c.Name != other.Name || len(c.Genes) != len(other.Genes) {
		return false
	}
	for i := range c.Genes {
		if c.Genes[i].Name != other.Genes[i].Name {
			return false
		}
	}
	return true
}
