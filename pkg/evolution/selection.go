package evolution

import (
	"sort"
)

// SelectionStrategy identifies how parents are chosen for reproduction.
type SelectionStrategy string

const (
	SelectionRoulette   SelectionStrategy = "roulette"
	SelectionTournament SelectionStrategy = "tournament"
	SelectionRank       SelectionStrategy = "rank"
)

// selectParents fills a mating pool of the requested size using the
// configured strategy.
func (e *Engine) selectParents(population *Population, count int) []*Member {
	switch e.config.SelectionStrategy {
	case SelectionRoulette:
		return e.rouletteSelection(population, count)
	case SelectionRank:
		return e.rankSelection(population, count)
	default:
		return e.tournamentSelection(population, count)
	}
}

// tournamentSelection samples TournamentSize members uniformly and keeps the
// fittest, repeating until the pool is full.
func (e *Engine) tournamentSelection(population *Population, count int) []*Member {
	selected := make([]*Member, 0, count)

	for i := 0; i < count; i++ {
		best := population.Members[e.rng.Intn(population.Size())]
		for j := 1; j < e.config.TournamentSize; j++ {
			contender := population.Members[e.rng.Intn(population.Size())]
			if contender.Fitness > best.Fitness {
				best = contender
			}
		}
		selected = append(selected, best)
	}

	return selected
}

// rouletteSelection picks members with probability proportional to fitness,
// shifted to be non-negative first so negative fitness scales still work.
func (e *Engine) rouletteSelection(population *Population, count int) []*Member {
	minFitness := population.Members[0].Fitness
	for _, m := range population.Members {
		if m.Fitness < minFitness {
			minFitness = m.Fitness
		}
	}

	shift := 0.0
	if minFitness < 0 {
		shift = -minFitness
	}

	total := 0.0
	for _, m := range population.Members {
		total += m.Fitness + shift
	}

	if total == 0 {
		// All members share one fitness value; selection degenerates to uniform.
		selected := make([]*Member, 0, count)
		for i := 0; i < count; i++ {
			selected = append(selected, population.Members[e.rng.Intn(population.Size())])
		}
		return selected
	}

	selected := make([]*Member, 0, count)
	for i := 0; i < count; i++ {
		spin := e.rng.Float64() * total
		cumulative := 0.0
		for _, m := range population.Members {
			cumulative += m.Fitness + shift
			if cumulative >= spin {
				selected = append(selected, m)
				break
			}
		}
	}

	return selected
}

// rankSelection assigns selection probability by fitness rank using linear
// ranking with the configured pressure, which dampens fitness-scale outliers
// that would otherwise cause premature convergence.
func (e *Engine) rankSelection(population *Population, count int) []*Member {
	n := population.Size()
	ranked := make([]*Member, n)
	copy(ranked, population.Members)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness < ranked[j].Fitness // rank 0 = worst
	})

	if n == 1 {
		selected := make([]*Member, count)
		for i := range selected {
			selected[i] = ranked[0]
		}
		return selected
	}

	sp := e.config.RankPressure
	weights := make([]float64, n)
	total := 0.0
	for rank := 0; rank < n; rank++ {
		weights[rank] = (2-sp)/float64(n) + 2*float64(rank)*(sp-1)/float64(n*(n-1))
		total += weights[rank]
	}

	selected := make([]*Member, 0, count)
	for i := 0; i < count; i++ {
		spin := e.rng.Float64() * total
		cumulative := 0.0
		for rank := 0; rank < n; rank++ {
			cumulative += weights[rank]
			if cumulative >= spin {
				selected = append(selected, ranked[rank])
				break
			}
		}
	}

	return selected
}

// selectElite returns copies of the top-count members' genomes, carried into
// the next generation unchanged apart from the descent bookkeeping.
func (e *Engine) selectElite(population *Population, count int) []*Member {
	if count <= 0 {
		return nil
	}

	ranked := make([]*Member, population.Size())
	copy(ranked, population.Members)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})

	if count > len(ranked) {
		count = len(ranked)
	}

	elite := make([]*Member, count)
	for i := 0; i < count; i++ {
		// Elites keep their alleles and recorded fitness; a derived copy
		// keeps the generation counter and lineage honest.
		child := ranked[i].Genome.Derive()
		elite[i] = &Member{Genome: child, Fitness: ranked[i].Fitness, Evaluated: true}
	}
	return elite
}
