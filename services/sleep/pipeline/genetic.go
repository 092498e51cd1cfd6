// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/classify"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
)

// -----------------------------------------------------------------------------
// Genetic feature selection
// -----------------------------------------------------------------------------

// individual is one member of the genetic population: a feature-subset
// encoding with its fitness result.
type individual struct {
	encoding []bool
	result   *Result
	fitness  float64
}

// genetic evolves a population of feature-subset bitmasks.
//
// Description:
//
//	Generation 1 is uniform random nonzero encodings. Each following
//	generation produces N offspring by roulette-wheel parent selection
//	(two distinct parents), single-point crossover with a cut in
//	[1, D], and independent per-bit mutation; all-zero offspring are
//	resampled. Parents and offspring are merged and the fittest N
//	survive, so the best fitness never decreases across generations.
//
//	Fitness is the same median cross-validation the exhaustive search
//	uses, over the partition's training set. The returned selection
//	holds each generation's best result in generation order; elitism
//	makes the last entry the overall winner.
func (e *Engine) genetic(ctx context.Context, part Partition,
	trainer classify.Trainer, kernel classify.Kernel) (Stream, error) {

	names := feature.Names(part.Training)
	d := len(names)
	if d == 0 {
		return nil, ErrEmptyUniverse
	}

	n := e.search.Population
	if n < 2 {
		return nil, fmt.Errorf("population must be at least 2, got %d", n)
	}
	if e.search.Generations < 1 {
		return nil, fmt.Errorf("generations must be at least 1, got %d", e.search.Generations)
	}

	fitness := func(enc []bool) (*Result, error) {
		subset := decode(names, enc)
		if len(subset) == 0 {
			return nil, ErrZeroEncoding
		}
		res, err := crossValidate(part.Training, subset, trainer, kernel, e.search.Folds, e.rng)
		if err != nil {
			return nil, err
		}
		e.observer.IncSearchEvaluations()
		return res, nil
	}

	population := make([]individual, n)
	for i := range population {
		enc := e.randomEncoding(d)
		res, err := fitness(enc)
		if err != nil {
			return nil, err
		}
		population[i] = individual{encoding: enc, result: res, fitness: res.Accuracy}
	}

	bests := make([]*Result, 0, e.search.Generations)
	bests = append(bests, tagGeneration(best(population), 1))

	for gen := 2; gen <= e.search.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offspring := make([]individual, n)
		for i := 0; i < n; i++ {
			p1 := e.roulette(population)
			p2 := p1
			for p2 == p1 {
				p2 = e.roulette(population)
			}

			child := e.crossover(population[p1].encoding, population[p2].encoding)
			e.mutate(child)
			if weight(child) == 0 {
				child = e.randomEncoding(d)
			}

			res, err := fitness(child)
			if err != nil {
				return nil, err
			}
			offspring[i] = individual{encoding: child, result: res, fitness: res.Accuracy}
		}

		// Elitism: fittest N of parents and offspring survive.
		merged := append(population, offspring...)
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].fitness > merged[j].fitness
		})
		population = merged[:n]

		bests = append(bests, tagGeneration(best(population), gen))
		e.logger.Debug("generation complete",
			"generation", gen,
			"best_accuracy", population[0].fitness)
	}

	e.logger.Info("genetic search complete",
		"features", d,
		"generations", e.search.Generations,
		"best_accuracy", bests[len(bests)-1].Accuracy)
	return SelectionStream{Outer: part, Results: bests}, nil
}

// randomEncoding draws a uniform random bit vector, resampling until it
// has at least one set bit.
func (e *Engine) randomEncoding(d int) []bool {
	enc := make([]bool, d)
	for {
		for i := range enc {
			enc[i] = e.rng.Intn(2) == 1
		}
		if weight(enc) > 0 {
			return enc
		}
	}
}

// roulette picks an index by fitness-proportional sampling. When total
// fitness is zero the choice falls back to uniform random.
func (e *Engine) roulette(population []individual) int {
	var total float64
	for _, ind := range population {
		total += ind.fitness
	}
	if total == 0 {
		return e.rng.Intn(len(population))
	}
	target := e.rng.Float64() * total
	var cum float64
	for i, ind := range population {
		cum += ind.fitness
		if target < cum {
			return i
		}
	}
	return len(population) - 1
}

// crossover cuts at a uniformly random point in [1, D]: the offspring
// is p1's prefix before the cut and p2's suffix from the cut onward.
func (e *Engine) crossover(p1, p2 []bool) []bool {
	d := len(p1)
	cut := e.rng.Intn(d) + 1
	child := make([]bool, d)
	copy(child[:cut], p1[:cut])
	copy(child[cut:], p2[cut:])
	return child
}

// mutate flips each bit independently with the configured probability.
func (e *Engine) mutate(enc []bool) {
	for i := range enc {
		if e.rng.Float64() < e.search.MutationRate {
			enc[i] = !enc[i]
		}
	}
}

// weight is the Hamming weight of an encoding.
func weight(enc []bool) int {
	w := 0
	for _, b := range enc {
		if b {
			w++
		}
	}
	return w
}

// decode maps an encoding to the feature names of its set bits.
func decode(names []string, enc []bool) []string {
	var subset []string
	for i, b := range enc {
		if b {
			subset = append(subset, names[i])
		}
	}
	return subset
}

// best returns the result of the fittest individual, first on ties.
func best(population []individual) *Result {
	bi := 0
	for i, ind := range population {
		if ind.fitness > population[bi].fitness {
			bi = i
		}
	}
	return population[bi].result
}

// tagGeneration copies a result with its generation number attached.
func tagGeneration(r *Result, gen int) *Result {
	out := *r
	out.Generation = gen
	return &out
}
