// Package genome defines the typed, versioned representation of an evolvable
// parameter set: genes with tagged domains, chromosomes grouping genes by name,
// and genomes carrying identity, generation and lineage.
package genome

import (
	"fmt"
	"math/rand"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
)

// GeneKind identifies which domain variant a gene carries.
type GeneKind string

const (
	KindNumeric     GeneKind = "numeric"
	KindCategorical GeneKind = "categorical"
	KindBoolean     GeneKind = "boolean"
	KindStructural  GeneKind = "structural"
)

// Domain is the tagged variant describing the legal allele values for one
// gene kind. Each variant carries only the fields valid for that kind, so a
// numeric range can never be attached to a categorical gene.
type Domain interface {
	Kind() GeneKind

	// Contains reports whether the allele is legal for this domain.
	Contains(allele interface{}) bool

	// Sample draws a uniform random allele from the domain.
	Sample(rng *rand.Rand) interface{}

	// Clone returns an independent copy of the domain.
	Clone() Domain
}

// NumericDomain is a closed real interval [Min, Max].
type NumericDomain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (d NumericDomain) Kind() GeneKind { return KindNumeric }

func (d NumericDomain) Contains(allele interface{}) bool {
	v, ok := allele.(float64)
	return ok && v >= d.Min && v <= d.Max
}

func (d NumericDomain) Sample(rng *rand.Rand) interface{} {
	return d.Min + rng.Float64()*(d.Max-d.Min)
}

func (d NumericDomain) Clone() Domain { return d }

// Clamp returns the nearest in-range value for v.
func (d NumericDomain) Clamp(v float64) float64 {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// CategoricalDomain is an enumerated set of allowed string values.
type CategoricalDomain struct {
	Values []string `json:"values"`
}

func (d CategoricalDomain) Kind() GeneKind { return KindCategorical }

func (d CategoricalDomain) Contains(allele interface{}) bool {
	v, ok := allele.(string)
	if !ok {
		return false
	}
	for _, allowed := range d.Values {
		if v == allowed {
			return true
		}
	}
	return false
}

func (d CategoricalDomain) Sample(rng *rand.Rand) interface{} {
	return d.Values[rng.Intn(len(d.Values))]
}

func (d CategoricalDomain) Clone() Domain {
	values := make([]string, len(d.Values))
	copy(values, d.Values)
	return CategoricalDomain{Values: values}
}

// BooleanDomain admits exactly true and false.
type BooleanDomain struct{}

func (d BooleanDomain) Kind() GeneKind { return KindBoolean }

func (d BooleanDomain) Contains(allele interface{}) bool {
	_, ok := allele.(bool)
	return ok
}

func (d BooleanDomain) Sample(rng *rand.Rand) interface{} {
	return rng.Intn(2) == 1
}

func (d BooleanDomain) Clone() Domain { return d }

// StructuralDomain is an enumerated set of building-block tokens for
// order-dependent, variable-length chromosomes. Unlike CategoricalDomain the
// same token may legitimately appear in multiple genes of one chromosome.
type StructuralDomain struct {
	Elements []string `json:"elements"`
}

func (d StructuralDomain) Kind() GeneKind { return KindStructural }

func (d StructuralDomain) Contains(allele interface{}) bool {
	v, ok := allele.(string)
	if !ok {
		return false
	}
	for _, e := range d.Elements {
		if v == e {
			return true
		}
	}
	return false
}

func (d StructuralDomain) Sample(rng *rand.Rand) interface{} {
	return d.Elements[rng.Intn(len(d.Elements))]
}

func (d StructuralDomain) Clone() Domain {
	elements := make([]string, len(d.Elements))
	copy(elements, d.Elements)
	return StructuralDomain{Elements: elements}
}

// ValidateDomain checks that a domain's own declaration is coherent.
func ValidateDomain(d Domain) error {
	switch dom := d.(type) {
	case NumericDomain:
		if dom.Min > dom.Max {
			return errors.WithFields(
				errors.New(errors.InvalidDomain, "numeric domain has min > max"),
				errors.Fields{"min": dom.Min, "max": dom.Max})
		}
	case CategoricalDomain:
		if len(dom.Values) == 0 {
			return errors.New(errors.InvalidDomain, "categorical domain has no allowed values")
		}
	case BooleanDomain:
		// Nothing to check.
	case StructuralDomain:
		if len(dom.Elements) == 0 {
			return errors.New(errors.InvalidDomain, "structural domain has no elements")
		}
	default:
		return errors.Newf(errors.InvalidDomain, "unsupported domain type %T", d)
	}
	return nil
}

// FormatAllele renders an allele for logs and error fields.
func FormatAllele(allele interface{}) string {
	return fmt.Sprintf("%v", allele)
}
