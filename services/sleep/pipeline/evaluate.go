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
	"fmt"
	"math/rand"
	"sort"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/classify"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
)

// -----------------------------------------------------------------------------
// Evaluation aggregator
// -----------------------------------------------------------------------------

// evaluateResult predicts every testing-set element and attaches
// accuracy and the confusion matrix. The input result is not mutated.
func evaluateResult(r *Result) (*Result, error) {
	predicted, err := r.Model.Predict(vectorsOf(r.Testing))
	if err != nil {
		return nil, err
	}
	truth := labelsOf(r.Testing)

	mismatches := 0
	for i, p := range predicted {
		if p != truth[i] {
			mismatches++
		}
	}
	accuracy := 0.0
	if len(truth) > 0 {
		accuracy = 1 - float64(mismatches)/float64(len(truth))
	}

	confusion, order := confusionMatrix(truth, predicted)

	out := *r
	out.Phase = PhaseEvaluated
	out.Predicted = predicted
	out.Accuracy = accuracy
	out.Confusion = confusion
	out.ConfusionOrder = order
	return &out, nil
}

// confusionMatrix tabulates (true, predicted) label pairs. The order
// slice lists the unique labels, sorted, used to index both axes.
func confusionMatrix(truth, predicted []string) ([][]int, []string) {
	seen := map[string]bool{}
	for _, l := range truth {
		seen[l] = true
	}
	for _, l := range predicted {
		seen[l] = true
	}
	order := make([]string, 0, len(seen))
	for l := range seen {
		order = append(order, l)
	}
	sort.Strings(order)

	index := make(map[string]int, len(order))
	for i, l := range order {
		index[l] = i
	}

	matrix := make([][]int, len(order))
	for i := range matrix {
		matrix[i] = make([]int, len(order))
	}
	for i, t := range truth {
		matrix[index[t]][index[predicted[i]]]++
	}
	return matrix, order
}

func vectorsOf(set []feature.Labeled) []feature.Vector {
	out := make([]feature.Vector, len(set))
	for i, l := range set {
		out[i] = l.Vector
	}
	return out
}

func labelsOf(set []feature.Labeled) []string {
	out := make([]string, len(set))
	for i, l := range set {
		out[i] = l.Label
	}
	return out
}

// -----------------------------------------------------------------------------
// Median cross-validation
// -----------------------------------------------------------------------------

// crossValidate scores a feature subset: split the set into folds,
// train and evaluate on each, and return the fold result whose
// accuracy equals the median of the fold accuracies. Ties break to the
// first such fold in the fixed fold enumeration order.
//
// The rng parameter makes the fold assignment reproducible and lets
// the exhaustive search run candidates concurrently with derived
// sources.
func crossValidate(set []feature.Labeled, subset []string, trainer classify.Trainer,
	kernel classify.Kernel, folds int, rng *rand.Rand) (*Result, error) {

	projected, err := feature.ProjectAll(set, subset)
	if err != nil {
		return nil, err
	}
	parts, err := kfold(projected, folds, rng)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(parts))
	accs := make([]float64, len(parts))
	for i, part := range parts {
		model, err := trainer.Train(part.Training, kernel)
		if err != nil {
			return nil, err
		}
		res, err := evaluateResult(&Result{
			Phase:    PhaseTrained,
			Training: part.Training,
			Testing:  part.Testing,
			Kernel:   kernel,
			Model:    model,
			Subset:   subset,
		})
		if err != nil {
			return nil, err
		}
		results[i] = res
		accs[i] = res.Accuracy
	}

	med := median(accs)
	for i, acc := range accs {
		if acc == med {
			return results[i], nil
		}
	}
	// Unreachable: the median of a finite sample is one of its values
	// under the lower-middle rule below.
	return nil, fmt.Errorf("no fold matches median accuracy %v", med)
}

// median returns the arithmetic median under the lower-middle rule for
// even counts, so the result is always an element of the sample.
func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}

// -----------------------------------------------------------------------------
// Selection finalization
// -----------------------------------------------------------------------------

// finalize promotes a cross-validated selection to held-out accuracy.
//
// Description:
//
//	For every candidate result, the model is re-trained on the outer
//	partition's full training set restricted to the candidate's
//	feature subset, then scored against the original held-out test
//	set under the same restriction. Every evaluation-phase field of
//	the candidate is preserved under Validation; Accuracy, Confusion,
//	and Predicted are written fresh. Results are returned sorted by
//	held-out accuracy descending (stable, so validation order breaks
//	ties).
func (e *Engine) finalize(sel SelectionStream) (Stream, error) {
	trainer, err := e.trainer("svm")
	if err != nil {
		return nil, err
	}

	final := make([]*Result, len(sel.Results))
	for i, cand := range sel.Results {
		training, err := feature.ProjectAll(sel.Outer.Training, cand.Subset)
		if err != nil {
			return nil, err
		}
		testing, err := feature.ProjectAll(sel.Outer.Testing, cand.Subset)
		if err != nil {
			return nil, err
		}
		model, err := trainer.Train(training, cand.Kernel)
		if err != nil {
			return nil, err
		}
		e.observer.IncTrainings()

		res, err := evaluateResult(&Result{
			Phase:      PhaseTrained,
			Training:   training,
			Testing:    testing,
			Kernel:     cand.Kernel,
			Model:      model,
			Subset:     cand.Subset,
			Generation: cand.Generation,
		})
		if err != nil {
			return nil, err
		}
		res.Phase = PhaseFinalized
		res.Validation = cand.snapshot()
		final[i] = res
	}

	sort.SliceStable(final, func(i, j int) bool {
		return final[i].Accuracy > final[j].Accuracy
	})
	return SelectionStream{Outer: sel.Outer, Results: final, Finalized: true}, nil
}
