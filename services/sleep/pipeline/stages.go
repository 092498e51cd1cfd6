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
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/classify"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
	"gonum.org/v1/gonum/mat"
)

// -----------------------------------------------------------------------------
// Loading and extraction
// -----------------------------------------------------------------------------

func (e *Engine) stageLoad(st Stream, args []string) (Stream, error) {
	if st != nil {
		return nil, fmt.Errorf("%w: load must be the first stage", ErrShape)
	}
	if e.loader == nil {
		return nil, errors.New("no record loader configured")
	}
	if len(args) == 0 {
		return nil, errors.New("load requires at least one record term")
	}
	rec, err := e.loader.Load(args)
	if err != nil {
		return nil, err
	}
	return SignalStream{Recording: rec}, nil
}

func (e *Engine) stageSegment(st Stream, args []string) (Stream, error) {
	sig, ok := st.(SignalStream)
	if !ok {
		return nil, shapeErr(st)
	}
	if len(args) != 1 {
		return nil, errors.New("segment requires exactly one argument")
	}
	perEpoch, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("segment count %q: %w", args[0], err)
	}
	segs, err := sig.Recording.Segment(perEpoch)
	if err != nil {
		return nil, err
	}
	return SegmentStream(segs), nil
}

func (e *Engine) stageExtract(st Stream, args []string) (Stream, error) {
	segs, ok := st.(SegmentStream)
	if !ok {
		return nil, shapeErr(st)
	}
	if len(args) != 0 {
		return nil, errors.New("extract takes no arguments")
	}
	set, err := feature.ExtractAll(e.extractor, segs)
	if err != nil {
		return nil, err
	}
	return VectorStream(set), nil
}

// -----------------------------------------------------------------------------
// Feature selection
// -----------------------------------------------------------------------------

func (e *Engine) stageSelect(ctx context.Context, st Stream, args []string) (Stream, error) {
	if len(args) == 0 {
		return nil, errors.New("select requires arguments")
	}

	switch args[0] {
	case "exhaustive", "restricted":
		if len(args) != 3 {
			return nil, fmt.Errorf("select %s requires a classifier family and kernel", args[0])
		}
		part, ok := st.(PartitionStream)
		if !ok {
			return nil, shapeErr(st)
		}
		trainer, err := e.trainer(args[1])
		if err != nil {
			return nil, err
		}
		kernel := classify.Kernel(args[2])
		if args[0] == "exhaustive" {
			return e.exhaustive(ctx, Partition(part), trainer, kernel)
		}
		return e.genetic(ctx, Partition(part), trainer, kernel)
	}

	// Plain projection onto the named features.
	switch s := st.(type) {
	case VectorStream:
		set, err := feature.ProjectAll(s, args)
		if err != nil {
			return nil, err
		}
		return VectorStream(set), nil
	case PartitionStream:
		training, err := feature.ProjectAll(s.Training, args)
		if err != nil {
			return nil, err
		}
		testing, err := feature.ProjectAll(s.Testing, args)
		if err != nil {
			return nil, err
		}
		return PartitionStream{Training: training, Testing: testing}, nil
	default:
		return nil, shapeErr(st)
	}
}

// -----------------------------------------------------------------------------
// Partitioning
// -----------------------------------------------------------------------------

func (e *Engine) stagePartition(st Stream, args []string) (Stream, error) {
	set, ok := st.(VectorStream)
	if !ok {
		return nil, shapeErr(st)
	}

	switch len(args) {
	case 1:
		r, err := ParseRatio(args[0])
		if err != nil {
			return nil, err
		}
		return PartitionStream(split(set, r, e.rng)), nil
	case 2:
		if args[1] != "fold" {
			return nil, fmt.Errorf("unknown partition form %q", strings.Join(args, " "))
		}
		k, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("fold count %q: %w", args[0], err)
		}
		folds, err := kfold(set, k, e.rng)
		if err != nil {
			return nil, err
		}
		return FoldStream(folds), nil
	default:
		return nil, errors.New("partition requires a ratio or \"K fold\"")
	}
}

// -----------------------------------------------------------------------------
// Sequence reshaping
// -----------------------------------------------------------------------------

func (e *Engine) stageBundle(st Stream, args []string) (Stream, error) {
	set, ok := st.(VectorStream)
	if !ok {
		return nil, shapeErr(st)
	}
	if len(args) == 0 {
		return nil, errors.New("bundle requires at least one label group")
	}
	if len(args) > 26 {
		return nil, fmt.Errorf("bundle supports at most 26 groups, got %d", len(args))
	}

	// Group i maps every label it mentions onto letter 'A'+i. Labels
	// absent from all groups pass through unchanged.
	remap := map[string]string{}
	for i, group := range args {
		letter := string(rune('A' + i))
		for _, code := range group {
			label := string(code)
			if _, seen := remap[label]; !seen {
				remap[label] = letter
			}
		}
	}

	out := make([]feature.Labeled, len(set))
	for i, l := range set {
		if to, ok := remap[l.Label]; ok {
			l.Label = to
		}
		out[i] = l
	}
	return VectorStream(out), nil
}

func (e *Engine) stageKeep(st Stream, args []string) (Stream, error) {
	if len(args) != 1 {
		return nil, errors.New("keep requires exactly one ratio argument")
	}
	r, err := ParseRatio(args[0])
	if err != nil {
		return nil, err
	}

	switch s := st.(type) {
	case VectorStream:
		return VectorStream(sample(s, r.Of(len(s)), e.rng)), nil
	case SegmentStream:
		return SegmentStream(sample(s, r.Of(len(s)), e.rng)), nil
	default:
		return nil, shapeErr(st)
	}
}

// sample keeps k uniformly random elements, preserving original order.
func sample[T any](set []T, k int, rng *rand.Rand) []T {
	idx := rng.Perm(len(set))[:k]
	sort.Ints(idx)
	out := make([]T, 0, k)
	for _, i := range idx {
		out = append(out, set[i])
	}
	return out
}

func (e *Engine) stageBalance(st Stream, args []string) (Stream, error) {
	if len(args) != 0 {
		return nil, errors.New("balance takes no arguments")
	}
	switch s := st.(type) {
	case VectorStream:
		return VectorStream(e.balance(s)), nil
	case PartitionStream:
		// Balancing the testing set would bias the reported accuracy.
		return PartitionStream{
			Training: e.balance(s.Training),
			Testing:  s.Testing,
		}, nil
	default:
		return nil, shapeErr(st)
	}
}

// balance downsamples every class to the size of the smallest one,
// choosing survivors at random and preserving sequence order.
func (e *Engine) balance(set []feature.Labeled) []feature.Labeled {
	byLabel := map[string][]int{}
	for i, l := range set {
		byLabel[l.Label] = append(byLabel[l.Label], i)
	}
	if len(byLabel) == 0 {
		return nil
	}

	minCount := len(set)
	for _, idx := range byLabel {
		if len(idx) < minCount {
			minCount = len(idx)
		}
	}

	// Iterate labels deterministically so the RNG stream is stable.
	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	kept := make([]bool, len(set))
	for _, label := range labels {
		idx := byLabel[label]
		for _, pos := range e.rng.Perm(len(idx))[:minCount] {
			kept[idx[pos]] = true
		}
	}

	out := make([]feature.Labeled, 0, minCount*len(labels))
	for i, l := range set {
		if kept[i] {
			out = append(out, l)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Feature-space reorganization
// -----------------------------------------------------------------------------

func (e *Engine) stageOrganize(st Stream, args []string) (Stream, error) {
	if len(args) < 2 {
		return nil, errors.New("organize requires a mode and its arguments")
	}

	var transform func(set []feature.Labeled) ([]feature.Labeled, error)
	switch args[0] {
	case "cluster":
		k, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("cluster count %q: %w", args[1], err)
		}
		transform = func(set []feature.Labeled) ([]feature.Labeled, error) {
			return e.cluster(set, k, e.rng)
		}
	case "dbn":
		layers := make([]int, len(args)-1)
		for i, a := range args[1:] {
			size, err := strconv.Atoi(a)
			if err != nil {
				return nil, fmt.Errorf("layer size %q: %w", a, err)
			}
			layers[i] = size
		}
		transform = func(set []feature.Labeled) ([]feature.Labeled, error) {
			return e.reducer.Reduce(set, layers)
		}
	default:
		return nil, fmt.Errorf("unknown organize mode %q", args[0])
	}

	switch s := st.(type) {
	case VectorStream:
		out, err := transform(s)
		if err != nil {
			return nil, err
		}
		return VectorStream(out), nil
	case PartitionStream:
		// Each side is reorganized independently: the testing set must
		// not leak into the training-side fit.
		training, err := transform(s.Training)
		if err != nil {
			return nil, err
		}
		testing, err := transform(s.Testing)
		if err != nil {
			return nil, err
		}
		return PartitionStream{Training: training, Testing: testing}, nil
	default:
		return nil, shapeErr(st)
	}
}

// pcaComponents is the fixed output dimensionality of the pca stage.
const pcaComponents = 2

func (e *Engine) stagePCA(st Stream, args []string) (Stream, error) {
	set, ok := st.(VectorStream)
	if !ok {
		return nil, shapeErr(st)
	}
	if len(args) != 0 {
		return nil, errors.New("pca takes no arguments")
	}
	n := len(set)
	if n == 0 {
		return nil, errors.New("pca requires a non-empty sequence")
	}
	d := len(feature.Names(set))
	if d < pcaComponents {
		return nil, fmt.Errorf("pca requires at least %d features, got %d", pcaComponents, d)
	}

	// Center the data matrix and project onto the top two right
	// singular vectors.
	data := mat.NewDense(n, d, nil)
	means := make([]float64, d)
	for _, l := range set {
		for j, v := range l.Values {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	for i, l := range set {
		for j, v := range l.Values {
			data.Set(i, j, v-means[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(data, mat.SVDThin) {
		return nil, errors.New("pca decomposition failed")
	}
	var v mat.Dense
	svd.VTo(&v)

	names := []string{"pc1", "pc2"}
	out := make([]feature.Labeled, n)
	for i, l := range set {
		values := make([]float64, pcaComponents)
		for c := 0; c < pcaComponents; c++ {
			var sum float64
			for j := 0; j < d; j++ {
				sum += data.At(i, j) * v.At(j, c)
			}
			values[c] = sum
		}
		out[i] = feature.Labeled{
			Vector: feature.Vector{Names: names, Values: values},
			Label:  l.Label,
		}
	}
	return VectorStream(out), nil
}

// -----------------------------------------------------------------------------
// Training, evaluation, plotting
// -----------------------------------------------------------------------------

func (e *Engine) stageSVM(st Stream, args []string) (Stream, error) {
	part, ok := st.(PartitionStream)
	if !ok {
		return nil, shapeErr(st)
	}
	if len(args) != 1 {
		return nil, errors.New("svm requires exactly one kernel argument")
	}
	trainer, err := e.trainer("svm")
	if err != nil {
		return nil, err
	}
	kernel := classify.Kernel(args[0])
	model, err := trainer.Train(part.Training, kernel)
	if err != nil {
		return nil, err
	}
	e.observer.IncTrainings()
	return ResultStream{Result: &Result{
		Phase:    PhaseTrained,
		Training: part.Training,
		Testing:  part.Testing,
		Kernel:   kernel,
		Model:    model,
	}}, nil
}

func (e *Engine) stageEval(st Stream, args []string) (Stream, error) {
	if len(args) != 0 {
		return nil, errors.New("eval takes no arguments")
	}
	switch s := st.(type) {
	case ResultStream:
		if s.Result.Phase != PhaseTrained {
			return nil, fmt.Errorf("%w: result already %s", ErrShape, s.Result.Phase)
		}
		res, err := evaluateResult(s.Result)
		if err != nil {
			return nil, err
		}
		return ResultStream{Result: res}, nil
	case SelectionStream:
		if s.Finalized {
			// Second eval on a finalized selection takes the winner.
			if len(s.Results) == 0 {
				return nil, errors.New("empty selection")
			}
			return ResultStream{Result: s.Results[0]}, nil
		}
		return e.finalize(s)
	default:
		return nil, shapeErr(st)
	}
}

func (e *Engine) stagePlot(st Stream, args []string) (Stream, error) {
	if len(args) != 1 {
		return nil, errors.New("plot requires exactly one kind argument")
	}
	if err := e.plotter.Plot(args[0], st); err != nil {
		return nil, err
	}
	// Plotting is side-effect only: the stream passes through.
	return st, nil
}
