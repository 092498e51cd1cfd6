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
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
)

// ErrBadFoldCount is returned for a fold count outside [2, len(set)].
var ErrBadFoldCount = errors.New("fold count out of range")

// split draws a uniformly random training subset of size ratio.Of(N)
// without replacement; the complement (in original index order) is the
// testing set.
func split(set []feature.Labeled, r Ratio, rng *rand.Rand) Partition {
	n := len(set)
	k := r.Of(n)

	idx := rng.Perm(n)[:k]
	sort.Ints(idx)

	inTraining := make([]bool, n)
	for _, i := range idx {
		inTraining[i] = true
	}

	part := Partition{
		Training: make([]feature.Labeled, 0, k),
		Testing:  make([]feature.Labeled, 0, n-k),
	}
	for i, l := range set {
		if inTraining[i] {
			part.Training = append(part.Training, l)
		} else {
			part.Testing = append(part.Testing, l)
		}
	}
	return part
}

// kfold assigns each element to exactly one of k folds via a balanced
// random assignment (fold sizes differ by at most one), then builds k
// partitions where fold i is the testing set and the remaining folds
// form the training set.
//
// The returned order places the last-numbered fold first; callers must
// treat fold order as unordered, but it is deterministic for a fixed
// seed.
func kfold(set []feature.Labeled, k int, rng *rand.Rand) ([]Partition, error) {
	n := len(set)
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: k=%d with %d elements", ErrBadFoldCount, k, n)
	}

	// Deal shuffled indices round-robin into folds.
	fold := make([]int, n)
	for pos, i := range rng.Perm(n) {
		fold[i] = pos % k
	}

	parts := make([]Partition, 0, k)
	for f := k - 1; f >= 0; f-- {
		var part Partition
		for i, l := range set {
			if fold[i] == f {
				part.Testing = append(part.Testing, l)
			} else {
				part.Training = append(part.Training, l)
			}
		}
		parts = append(parts, part)
	}
	return parts, nil
}
