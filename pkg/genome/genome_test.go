package genome

import (
	"math/rand"
	"testing"

	"github.com/XiaoConstantine/evo-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainContains(t *testing.T) {
	tests := []struct {
		name   string
		domain Domain
		allele interface{}
		want   bool
	}{
		{"numeric in range", NumericDomain{Min: 0, Max: 1}, 0.5, true},
		{"numeric at lower bound", NumericDomain{Min: 0, Max: 1}, 0.0, true},
		{"numeric above range", NumericDomain{Min: 0, Max: 1}, 1.5, false},
		{"numeric wrong type", NumericDomain{Min: 0, Max: 1}, "0.5", false},
		{"categorical member", CategoricalDomain{Values: []string{"a", "b"}}, "b", true},
		{"categorical non-member", CategoricalDomain{Values: []string{"a", "b"}}, "c", false},
		{"boolean", BooleanDomain{}, true, true},
		{"boolean wrong type", BooleanDomain{}, 1, false},
		{"structural member", StructuralDomain{Elements: []string{"x", "y"}}, "x", true},
		{"structural non-member", StructuralDomain{Elements: []string{"x", "y"}}, "z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.domain.Contains(tt.allele))
		})
	}
}

func TestDomainSampleStaysInside(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	domains := []Domain{
		NumericDomain{Min: -2, Max: 3},
		CategoricalDomain{Values: []string{"low", "mid", "high"}},
		BooleanDomain{},
		StructuralDomain{Elements: []string{"op_a", "op_b"}},
	}

	for _, d := range domains {
		for i := 0; i < 100; i++ {
			assert.True(t, d.Contains(d.Sample(rng)), "domain kind %s", d.Kind())
		}
	}
}

func TestValidateDomain(t *testing.T) {
	assert.NoError(t, ValidateDomain(NumericDomain{Min: 0, Max: 1}))
	assert.NoError(t, ValidateDomain(BooleanDomain{}))

	err := ValidateDomain(NumericDomain{Min: 2, Max: 1})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidDomain, errors.CodeOf(err))

	assert.Error(t, ValidateDomain(CategoricalDomain{}))
	assert.Error(t, ValidateDomain(StructuralDomain{}))
}

func TestNewGene(t *testing.T) {
	g, err := NewGene("rate", NumericDomain{Min: 0.0001, Max: 0.1}, 0.01)
	require.NoError(t, err)
	assert.Equal(t, KindNumeric, g.Kind())
	assert.Equal(t, 0.01, g.Allele)

	_, err = NewGene("rate", NumericDomain{Min: 0.0001, Max: 0.1}, 0.5)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidDomain, errors.CodeOf(err))

	_, err = NewGene("", NumericDomain{Min: 0, Max: 1}, 0.5)
	assert.Error(t, err)
}

func TestGeneSetAllele(t *testing.T) {
	g := MustGene("mode", CategoricalDomain{Values: []string{"fast", "safe"}}, "fast")

	require.NoError(t, g.SetAllele("safe"))
	assert.Equal(t, "safe", g.Allele)

	err := g.SetAllele("reckless")
	require.Error(t, err)
	assert.Equal(t, errors.InvalidDomain, errors.CodeOf(err))
	assert.Equal(t, "safe", g.Allele, "rejected update must not change the allele")
}

func TestNewChromosome(t *testing.T) {
	a := MustGene("a", NumericDomain{Min: 0, Max: 1}, 0.1)
	b := MustGene("b", NumericDomain{Min: 0, Max: 1}, 0.2)

	c, err := NewChromosome("performance", "performance", false, a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"a", "b"}, c.GeneNames())

	// Copy-on-construct: mutating the input gene must not affect the chromosome.
	require.NoError(t, a.SetAllele(0.9))
	assert.Equal(t, 0.1, c.Gene("a").Allele)

	_, err = NewChromosome("dup", "x", false, a, a)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidDomain, errors.CodeOf(err))

	_, err = NewChromosome("empty", "x", false)
	assert.Error(t, err)
}

func TestChromosomeAddRemove(t *testing.T) {
	fixed, err := NewChromosome("fixed", "x", false,
		MustGene("a", BooleanDomain{}, true))
	require.NoError(t, err)

	assert.Error(t, fixed.AddGene(MustGene("b", BooleanDomain{}, false)),
		"fixed-length chromosome rejects growth")
	assert.Error(t, fixed.RemoveGene("a"))

	structural, err := NewChromosome("plan", "structural", true,
		MustGene("s1", StructuralDomain{Elements: []string{"x", "y"}}, "x"),
		MustGene("s2", StructuralDomain{Elements: []string{"x", "y"}}, "y"))
	require.NoError(t, err)

	require.NoError(t, structural.AddGene(MustGene("s3", StructuralDomain{Elements: []string{"x"}}, "x")))
	assert.Equal(t, 3, structural.Len())
	assert.Error(t, structural.AddGene(MustGene("s3", StructuralDomain{Elements: []string{"x"}}, "x")))

	require.NoError(t, structural.RemoveGene("s2"))
	require.NoError(t, structural.RemoveGene("s3"))
	assert.Error(t, structural.RemoveGene("s1"), "must retain at least one gene")
}

func testGenome(t *testing.T) *Genome {
	t.Helper()
	perf, err := NewChromosome("performance", "performance", false,
		MustGene("rate", NumericDomain{Min: 0.0001, Max: 0.1}, 0.01),
		MustGene("verbose", BooleanDomain{}, false))
	require.NoError(t, err)
	behavior, err := NewChromosome("behavioral", "behavioral", false,
		MustGene("mode", CategoricalDomain{Values: []string{"fast", "safe"}}, "safe"))
	require.NoError(t, err)
	return MustNew(perf, behavior)
}

func TestNewGenome(t *testing.T) {
	g := testGenome(t)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, 0, g.Generation)
	assert.Empty(t, g.ParentIDs)
	require.NoError(t, g.Validate())

	c := g.Chromosome("behavioral")
	require.NotNil(t, c)
	assert.Equal(t, "safe", c.Gene("mode").Allele)
	assert.Nil(t, g.Chromosome("missing"))
}

func TestGenomeDerive(t *testing.T) {
	parent := testGenome(t)
	child := parent.Derive()

	assert.NotEqual(t, parent.ID, child.ID)
	assert.Equal(t, parent.Generation+1, child.Generation)
	assert.Equal(t, []string{parent.ID}, child.ParentIDs)
	assert.True(t, parent.SameTopology(child))

	// Chromosomes are owned, never shared.
	require.NoError(t, child.Chromosome("performance").Gene("rate").SetAllele(0.05))
	assert.Equal(t, 0.01, parent.Chromosome("performance").Gene("rate").Allele)
}

func TestGenomeDeriveFrom(t *testing.T) {
	a := testGenome(t)
	b := testGenome(t).Derive() // generation 1

	child := DeriveFrom(a, b)
	assert.Equal(t, 2, child.Generation, "max(parent generations) + 1")
	assert.Equal(t, []string{a.ID, b.ID}, child.ParentIDs)
}

func TestGenomeSameTopology(t *testing.T) {
	a := testGenome(t)
	b := testGenome(t)
	assert.True(t, a.SameTopology(b))

	single, err := NewChromosome("performance", "performance", false,
		MustGene("rate", NumericDomain{Min: 0, Max: 1}, 0.5))
	require.NoError(t, err)
	c := MustNew(single)
	assert.False(t, a.SameTopology(c))
}

func TestGenomeCloneIndependence(t *testing.T) {
	g := testGenome(t)
	clone := g.Clone()

	assert.Equal(t, g.ID, clone.ID)
	assert.Equal(t, g.Generation, clone.Generation)

	require.NoError(t, clone.Chromosome("performance").Gene("rate").SetAllele(0.09))
	assert.Equal(t, 0.01, g.Chromosome("performance").Gene("rate").Allele)
}

func TestDuplicateChromosomeNames(t *testing.T) {
	c1, err := NewChromosome("same", "x", false, MustGene("a", BooleanDomain{}, true))
	require.NoError(t, err)
	c2, err := NewChromosome("same", "x", false, MustGene("b", BooleanDomain{}, false))
	require.NoError(t, err)

	_, err = New(c1, c2)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidDomain, errors.CodeOf(err))
}
