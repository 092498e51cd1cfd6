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
	"log/slog"
	"strings"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/organize"
)

// Plotter renders a finished stream for human inspection. Plotting is
// purely a side effect: implementations must not alter the stream, and
// nothing downstream depends on their output.
type Plotter interface {
	Plot(kind string, st Stream) error
}

// TextPlotter renders plots as log lines: the hypnogram as a label
// strip, accuracy as a bar, clusters as per-cluster label counts.
// It keeps the plot stage exercisable without a graphics dependency.
type TextPlotter struct {
	Logger *slog.Logger
}

// Plot renders the requested kind.
func (p *TextPlotter) Plot(kind string, st Stream) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch kind {
	case "hypnogram":
		return p.hypnogram(logger, st)
	case "bar":
		return p.bar(logger, st)
	case "clusters":
		return p.clusters(logger, st)
	default:
		return fmt.Errorf("unknown plot kind %q", kind)
	}
}

func (p *TextPlotter) hypnogram(logger *slog.Logger, st Stream) error {
	var labels []string
	switch s := st.(type) {
	case VectorStream:
		labels = labelsOf(s)
	case SegmentStream:
		for _, seg := range s {
			labels = append(labels, seg.Label)
		}
	case SignalStream:
		labels = s.Recording.Labels
	default:
		return shapeErr(st)
	}
	logger.Info("hypnogram", "strip", strings.Join(labels, ""))
	return nil
}

func (p *TextPlotter) bar(logger *slog.Logger, st Stream) error {
	switch s := st.(type) {
	case ResultStream:
		logger.Info("accuracy", "bar", accuracyBar(s.Result.Accuracy), "value", s.Result.Accuracy)
	case SelectionStream:
		for i, r := range s.Results {
			logger.Info("accuracy", "candidate", i, "subset", r.Subset,
				"bar", accuracyBar(r.Accuracy), "value", r.Accuracy)
		}
	default:
		return shapeErr(st)
	}
	return nil
}

func (p *TextPlotter) clusters(logger *slog.Logger, st Stream) error {
	set, ok := st.(VectorStream)
	if !ok {
		return shapeErr(st)
	}
	counts := map[float64]map[string]int{}
	for _, l := range set {
		id, found := l.Value(organize.ClusterFeature)
		if !found {
			return fmt.Errorf("stream has no %q feature; run organize cluster first", organize.ClusterFeature)
		}
		if counts[id] == nil {
			counts[id] = map[string]int{}
		}
		counts[id][l.Label]++
	}
	for id, byLabel := range counts {
		logger.Info("cluster", "id", int(id), "labels", fmt.Sprint(byLabel))
	}
	return nil
}

func accuracyBar(acc float64) string {
	const width = 40
	filled := int(acc * width)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
