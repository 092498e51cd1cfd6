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
	"math/rand"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/classify"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
	"golang.org/x/sync/errgroup"
)

// exhaustive evaluates every non-empty feature combination.
//
// Description:
//
//	For every subset size from 1 to the universe size, and every
//	combination of that size (lexicographic by index lists), the
//	candidate is scored by median cross-validation over the
//	partition's training set. One result per combination is returned
//	in enumeration order; the testing set stays held out for
//	finalization.
//
//	Candidates are evaluated concurrently. Each candidate gets its own
//	random source seeded sequentially from the engine source before
//	any evaluation starts, so the output is identical to a sequential
//	run. Exponential in the universe size; tractable only for small
//	universes, which is what it exists for — ground truth to judge the
//	genetic search against.
func (e *Engine) exhaustive(ctx context.Context, part Partition,
	trainer classify.Trainer, kernel classify.Kernel) (Stream, error) {

	names := feature.Names(part.Training)
	if len(names) == 0 {
		return nil, ErrEmptyUniverse
	}

	combos := combinations(len(names))
	seeds := make([]int64, len(combos))
	for i := range seeds {
		seeds[i] = e.rng.Int63()
	}

	results := make([]*Result, len(combos))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)
	for i, combo := range combos {
		i, combo := i, combo
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			subset := make([]string, len(combo))
			for j, idx := range combo {
				subset[j] = names[idx]
			}
			res, err := crossValidate(part.Training, subset, trainer, kernel,
				e.search.Folds, rand.New(rand.NewSource(seeds[i])))
			if err != nil {
				return err
			}
			e.observer.IncSearchEvaluations()
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("exhaustive search complete",
		"features", len(names),
		"candidates", len(combos))
	return SelectionStream{Outer: part, Results: results}, nil
}

// combinations enumerates index combinations of {0..d-1}, grouped by
// increasing size, lexicographic within each size.
func combinations(d int) [][]int {
	var out [][]int
	for size := 1; size <= d; size++ {
		combo := make([]int, size)
		for i := range combo {
			combo[i] = i
		}
		for {
			out = append(out, append([]int(nil), combo...))
			// Advance to the next combination of this size.
			i := size - 1
			for i >= 0 && combo[i] == d-size+i {
				i--
			}
			if i < 0 {
				break
			}
			combo[i]++
			for j := i + 1; j < size; j++ {
				combo[j] = combo[j-1] + 1
			}
		}
	}
	return out
}
