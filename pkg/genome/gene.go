package genome

import (
	"github.com/XiaoConstantine/evo-go/pkg/errors"
)

// Gene is the atomic evolvable unit: a named allele constrained to a typed
// domain. The allele always lies inside the domain; constructors and operators
// enforce this rather than leaving validation to callers.
type Gene struct {
	Name   string      `json:"name"`
	Domain Domain      `json:"domain"`
	Allele interface{} `json:"allele"`
}

// NewGene creates a gene after checking the domain declaration and that the
// allele lies inside it.
func NewGene(name string, domain Domain, allele interface{}) (*Gene, error) {
	if name == "" {
		return nil, errors.New(errors.InvalidDomain, "gene name must not be empty")
	}
	if err := ValidateDomain(domain); err != nil {
		return nil, errors.WithFields(err, errors.Fields{"gene": name})
	}
	if !domain.Contains(allele) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidDomain, "allele outside declared domain"),
			errors.Fields{"gene": name, "allele": FormatAllele(allele), "kind": domain.Kind()})
	}
	return &Gene{Name: name, Domain: domain.Clone(), Allele: allele}, nil
}

// MustGene is NewGene for statically known-valid genes; it panics on error.
// Intended for tests and literal genome construction.
func MustGene(name string, domain Domain, allele interface{}) *Gene {
	g, err := NewGene(name, domain, allele)
	if err != nil {
		panic(err)
	}
	return g
}

// Kind returns the gene's domain kind.
func (g *Gene) Kind() GeneKind {
	return g.Domain.Kind()
}

// SetAllele replaces the allele, rejecting out-of-domain values.
func (g *Gene) SetAllele(allele interface{}) error {
	if !g.Domain.Contains(allele) {
		return errors.WithFields(
			errors.New(errors.InvalidDomain, "allele outside declared domain"),
			errors.Fields{"gene": g.Name, "allele": FormatAllele(allele), "kind": g.Kind()})
	}
	g.Allele = allele
	return nil
}

// Clone returns an independent copy of the gene.
func (g *Gene) Clone() *Gene {
	return &Gene{Name: g.Name, Domain: g.Domain.Clone(), Allele: g.Allele}
}
