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
	"log/slog"
	"math/rand"
	"runtime"
	"time"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/classify"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/feature"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/organize"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/signal"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnknownStage is returned for an unrecognized stage name.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrShape is returned when a stage is invoked on a stream shape it
	// does not support.
	ErrShape = errors.New("stream shape mismatch")

	// ErrEmptyUniverse is returned when a selection search runs over an
	// empty feature universe.
	ErrEmptyUniverse = errors.New("empty feature universe")

	// ErrZeroEncoding reports the invariant violation of an all-zero
	// feature encoding reaching the fitness function.
	ErrZeroEncoding = errors.New("all-zero feature encoding reached fitness")

	// ErrUnknownFamily is returned for a classifier family with no
	// registered trainer.
	ErrUnknownFamily = errors.New("unknown classifier family")
)

// -----------------------------------------------------------------------------
// Collaborator boundaries
// -----------------------------------------------------------------------------

// Loader resolves load-stage arguments into a recording.
type Loader interface {
	Load(terms []string) (signal.Recording, error)
}

// ClusterFunc is the k-means collaborator: it appends a cluster-id
// feature in [1, k] to every vector.
type ClusterFunc func(set []feature.Labeled, k int, rng *rand.Rand) ([]feature.Labeled, error)

// Observer receives pipeline telemetry. Implementations must be safe
// for concurrent use.
type Observer interface {
	ObserveStage(name string, d time.Duration)
	IncTrainings()
	IncSearchEvaluations()
}

// noopObserver is the default Observer.
type noopObserver struct{}

func (noopObserver) ObserveStage(string, time.Duration) {}
func (noopObserver) IncTrainings()                      {}
func (noopObserver) IncSearchEvaluations()              {}

// -----------------------------------------------------------------------------
// Search parameters
// -----------------------------------------------------------------------------

// SearchConfig holds the cross-validation and genetic-search parameters.
type SearchConfig struct {
	// Folds is the fold count for the median cross-validation used as
	// selection fitness.
	Folds int

	// Population is the genetic population size N.
	Population int

	// Generations is the generation count G.
	Generations int

	// MutationRate is the per-bit flip probability p.
	MutationRate float64
}

// DefaultSearchConfig returns the defaults: 5-fold CV, population 20,
// 10 generations, 5% mutation.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Folds:        5,
		Population:   20,
		Generations:  10,
		MutationRate: 0.05,
	}
}

// -----------------------------------------------------------------------------
// Engine
// -----------------------------------------------------------------------------

// Engine runs pipeline commands. All stochastic choices draw from one
// injected random source, so a fixed seed yields a fully deterministic
// run.
//
// Thread Safety: an Engine is single-threaded; create one Engine per
// concurrent run.
type Engine struct {
	loader    Loader
	extractor feature.Extractor
	trainers  map[string]classify.Trainer
	reducer   organize.Reducer
	cluster   ClusterFunc
	plotter   Plotter
	rng       *rand.Rand
	logger    *slog.Logger
	observer  Observer
	search    SearchConfig
	parallel  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLoader sets the load-stage collaborator.
func WithLoader(l Loader) Option {
	return func(e *Engine) { e.loader = l }
}

// WithExtractor sets the feature extractor.
func WithExtractor(ex feature.Extractor) Option {
	return func(e *Engine) { e.extractor = ex }
}

// WithTrainer registers a classifier trainer under a family name.
func WithTrainer(family string, t classify.Trainer) Option {
	return func(e *Engine) { e.trainers[family] = t }
}

// WithReducer sets the DBN-contract reducer.
func WithReducer(r organize.Reducer) Option {
	return func(e *Engine) { e.reducer = r }
}

// WithClusterer sets the k-means collaborator.
func WithClusterer(c ClusterFunc) Option {
	return func(e *Engine) { e.cluster = c }
}

// WithPlotter sets the plot-stage collaborator.
func WithPlotter(p Plotter) Option {
	return func(e *Engine) { e.plotter = p }
}

// WithSeed seeds the engine's random source.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver sets the telemetry sink.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithSearchConfig overrides the search parameters.
func WithSearchConfig(cfg SearchConfig) Option {
	return func(e *Engine) { e.search = cfg }
}

// WithParallelism bounds concurrent candidate evaluations in the
// exhaustive search. Values < 1 mean GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallel = n }
}

// New creates an engine with the built-in collaborators: statistical
// feature extraction, the linear SVM trainer under family "svm",
// k-means clustering, the random-projection reducer, and a text
// plotter. The random source is seeded from the clock unless WithSeed
// overrides it.
func New(opts ...Option) *Engine {
	e := &Engine{
		extractor: feature.StatExtractor{},
		trainers:  map[string]classify.Trainer{"svm": classify.NewSVM()},
		cluster:   organize.Cluster,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    slog.Default(),
		observer:  noopObserver{},
		search:    DefaultSearchConfig(),
		parallel:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reducer == nil {
		e.reducer = organize.NewRandomProjection(e.rng)
	}
	if e.plotter == nil {
		e.plotter = &TextPlotter{Logger: e.logger}
	}
	if e.parallel < 1 {
		e.parallel = runtime.GOMAXPROCS(0)
	}
	return e
}

// Run parses and executes a pipeline command from an empty stream.
//
// Inputs:
//
//	ctx - Cancels between stages; searches also honor it internally.
//	command - Pipe-delimited stage string.
//
// Outputs:
//
//	Stream - The final stream value.
//	error - The first stage failure; no partial stream is returned.
func (e *Engine) Run(ctx context.Context, command string) (Stream, error) {
	return e.RunFrom(ctx, nil, command)
}

// RunFrom executes a command against an initial stream value. Tests
// and the HTTP surface use it to start mid-pipeline.
func (e *Engine) RunFrom(ctx context.Context, stream Stream, command string) (Stream, error) {
	stages, err := Parse(command)
	if err != nil {
		return nil, err
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := e.apply(ctx, stream, stage)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", stage.String(), err)
		}
		elapsed := time.Since(start)
		e.observer.ObserveStage(stage.Name, elapsed)
		e.logger.Debug("stage complete",
			"stage", stage.Name,
			"shape", next.Shape(),
			"elapsed", elapsed)
		stream = next
	}
	return stream, nil
}

// apply routes one stage invocation by stage name and stream shape.
func (e *Engine) apply(ctx context.Context, st Stream, stage Stage) (Stream, error) {
	switch stage.Name {
	case "load":
		return e.stageLoad(st, stage.Args)
	case "segment":
		return e.stageSegment(st, stage.Args)
	case "extract":
		return e.stageExtract(st, stage.Args)
	case "select":
		return e.stageSelect(ctx, st, stage.Args)
	case "partition":
		return e.stagePartition(st, stage.Args)
	case "bundle":
		return e.stageBundle(st, stage.Args)
	case "keep":
		return e.stageKeep(st, stage.Args)
	case "balance":
		return e.stageBalance(st, stage.Args)
	case "organize":
		return e.stageOrganize(st, stage.Args)
	case "pca":
		return e.stagePCA(st, stage.Args)
	case "svm":
		return e.stageSVM(st, stage.Args)
	case "eval":
		return e.stageEval(st, stage.Args)
	case "plot":
		return e.stagePlot(st, stage.Args)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage.Name)
	}
}

// shapeErr builds the standard shape-mismatch error.
func shapeErr(st Stream) error {
	shape := "none"
	if st != nil {
		shape = st.Shape()
	}
	return fmt.Errorf("%w: cannot consume %s stream", ErrShape, shape)
}

// trainer resolves a classifier family.
func (e *Engine) trainer(family string) (classify.Trainer, error) {
	t, ok := e.trainers[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	return t, nil
}
