// Package evolution implements the selection methods and the generational
// evolution loop: population management, parallel fitness evaluation,
// reproduction through crossover and mutation, lineage tracking, and
// termination with best-ever retention.
package evolution

import (
	"github.com/XiaoConstantine/evo-go/pkg/genome"
)

// Member pairs a genome with its recorded fitness for one generation.
type Member struct {
	Genome    *genome.Genome `json:"genome"`
	Fitness   float64        `json:"fitness"`
	Evaluated bool           `json:"evaluated"`
}

// Population is one generation of members. It is owned exclusively by a
// single run and never shared across runs.
type Population struct {
	Members    []*Member `json:"members"`
	Generation int       `json:"generation"`
}

// newPopulation wraps genomes into an unevaluated population.
func newPopulation(generation int, genomes []*genome.Genome) *Population {
	members := make([]*Member, len(genomes))
	for i, g := range genomes {
		members[i] = &Member{Genome: g}
	}
	return &Population{Members: members, Generation: generation}
}

// Size returns the number of members.
func (p *Population) Size() int {
	return len(p.Members)
}

// Member returns the member holding the genome with the given id, or nil.
func (p *Population) Member(id string) *Member {
	for _, m := range p.Members {
		if m.Genome.ID == id {
			return m
		}
	}
	return nil
}

// Best returns the fittest evaluated member, or nil when none is evaluated.
func (p *Population) Best() *Member {
	var best *Member
	for _, m := range p.Members {
		if !m.Evaluated {
			continue
		}
		if best == nil || m.Fitness > best.Fitness {
			best = m
		}
	}
	return best
}

// GenerationStats summarizes fitness across one evaluated generation.
type GenerationStats struct {
	Generation   int     `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	WorstFitness float64 `json:"worst_fitness"`
	BestGenomeID string  `json:"best_genome_id"`
}

// stats computes generation statistics; the population must be evaluated.
func (p *Population) stats() GenerationStats {
	s := GenerationStats{Generation: p.Generation}
	if len(p.Members) == 0 {
		return s
	}

	sum := 0.0
	s.BestFitness = p.Members[0].Fitness
	s.WorstFitness = p.Members[0].Fitness
	s.BestGenomeID = p.Members[0].Genome.ID
	for _, m := range p.Members {
		sum += m.Fitness
		if m.Fitness > s.BestFitness {
			s.BestFitness = m.Fitness
			s.BestGenomeID = m.Genome.ID
		}
		if m.Fitness < s.WorstFitness {
			s.WorstFitness = m.Fitness
		}
	}
	s.MeanFitness = sum / float64(len(p.Members))
	return s
}
