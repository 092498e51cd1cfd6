// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package signal

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Loader resolves load specs into recordings.
type Loader struct {
	catalog *Catalog
	cache   *Cache
	logger  *slog.Logger
}

// NewLoader creates a loader over a catalog.
//
// Inputs:
//
//	catalog - The record catalog. Must not be nil.
//	cache - Optional recording cache. May be nil to disable caching.
//	logger - Optional logger. May be nil.
func NewLoader(catalog *Catalog, cache *Cache, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{catalog: catalog, cache: cache, logger: logger}
}

// Catalog returns the loader's catalog.
func (l *Loader) Catalog() *Catalog {
	return l.catalog
}

// Load resolves terms against the catalog and returns the recording.
//
// Description:
//
//	Resolution follows Catalog.Find: every term must appear in the
//	record name, first catalog match wins. The parsed recording is
//	served from the cache when available and stored there after a
//	cold parse.
//
// Inputs:
//
//	terms - Substring terms identifying a record.
//
// Outputs:
//
//	Recording - The loaded recording.
//	error - ErrNoRecord if nothing matches, or a parse failure.
func (l *Loader) Load(terms []string) (Recording, error) {
	rec, err := l.catalog.Find(terms)
	if err != nil {
		return Recording{}, err
	}

	if l.cache != nil {
		cached, ok, err := l.cache.Get(rec.Name)
		if err != nil {
			return Recording{}, err
		}
		if ok {
			l.logger.Debug("recording served from cache", "record", rec.Name)
			return cached, nil
		}
	}

	samples, err := readSamples(rec.SignalPath)
	if err != nil {
		return Recording{}, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	labels, err := readLabels(rec.LabelPath)
	if err != nil {
		return Recording{}, fmt.Errorf("record %s: %w", rec.Name, err)
	}

	recording := Recording{
		Name: rec.Name,
		Signal: Signal{
			Unit:    rec.Unit,
			Rate:    rec.Rate,
			Samples: samples,
		},
		Labels:       labels,
		EpochSeconds: rec.EpochSeconds,
	}

	if l.cache != nil {
		if err := l.cache.Put(recording); err != nil {
			// Cache failures degrade start-up time, not correctness.
			l.logger.Warn("recording cache write failed", "record", rec.Name, "error", err)
		}
	}
	l.logger.Info("recording loaded",
		"record", rec.Name,
		"samples", len(samples),
		"epochs", len(labels))
	return recording, nil
}

// readSamples parses a signal file: one sample value per line, or the
// second column of "t,v" lines.
func readSamples(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open signal file: %w", err)
	}
	defer f.Close()

	var samples []float64
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.LastIndex(line, ","); i >= 0 {
			line = strings.TrimSpace(line[i+1:])
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("signal file line %d: %w", lineNo, err)
		}
		samples = append(samples, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read signal file: %w", err)
	}
	return samples, nil
}

// readLabels parses a hypnogram file: one stage code per line.
func readLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read label file: %w", err)
	}
	return labels, nil
}
