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
	"math"
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------------
// Command parsing
// -----------------------------------------------------------------------------

// Stage is one parsed stage invocation: a name and its arguments.
type Stage struct {
	Name string
	Args []string
}

// String reassembles the stage token for error messages.
func (s Stage) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + " " + strings.Join(s.Args, " ")
}

// ErrEmptyCommand is returned when a command has no stages.
var ErrEmptyCommand = errors.New("empty pipeline command")

// Parse splits a pipe-delimited command string into stage invocations.
//
// Description:
//
//	Stages are separated by "|"; within a stage, the first
//	whitespace-separated field is the stage name, the rest are
//	arguments. Blank stages are rejected rather than skipped, so a
//	typo like "a || b" fails loudly.
//
// Outputs:
//
//	[]Stage - Stage invocations in pipeline order.
//	error - ErrEmptyCommand or a blank-stage error.
func Parse(command string) ([]Stage, error) {
	parts := strings.Split(command, "|")
	stages := make([]Stage, 0, len(parts))
	for i, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			if len(parts) == 1 {
				return nil, ErrEmptyCommand
			}
			return nil, fmt.Errorf("blank stage at position %d", i+1)
		}
		stages = append(stages, Stage{Name: fields[0], Args: fields[1:]})
	}
	return stages, nil
}

// -----------------------------------------------------------------------------
// Ratio arguments
// -----------------------------------------------------------------------------

// ErrBadRatio is returned for a malformed ratio token.
var ErrBadRatio = errors.New("malformed ratio")

// Ratio is a group-size argument: either an absolute count k, or a
// fraction a:b meaning a/(a+b) of the sequence. The same parsing rule
// serves partition and keep.
type Ratio struct {
	count    int
	fraction float64
	isCount  bool
}

// ParseRatio parses "k" or "a:b".
//
// Outputs:
//
//	Ratio - The parsed ratio.
//	error - ErrBadRatio (wrapped with the token) on malformed input.
func ParseRatio(tok string) (Ratio, error) {
	if a, b, ok := strings.Cut(tok, ":"); ok {
		num, err1 := strconv.Atoi(a)
		den, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil || num < 0 || den < 0 || num+den == 0 {
			return Ratio{}, fmt.Errorf("%w: %q", ErrBadRatio, tok)
		}
		return Ratio{fraction: float64(num) / float64(num+den)}, nil
	}
	k, err := strconv.Atoi(tok)
	if err != nil || k < 0 {
		return Ratio{}, fmt.Errorf("%w: %q", ErrBadRatio, tok)
	}
	return Ratio{count: k, isCount: true}, nil
}

// Of returns the group size the ratio selects out of n elements:
// the absolute count (capped at n), or round(fraction × n).
func (r Ratio) Of(n int) int {
	if r.isCount {
		if r.count > n {
			return n
		}
		return r.count
	}
	return int(math.Round(r.fraction * float64(n)))
}
