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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	stages, err := Parse("load sc4001 eeg | segment 2 | extract | partition 1:3")
	require.NoError(t, err)
	require.Len(t, stages, 4)

	assert.Equal(t, Stage{Name: "load", Args: []string{"sc4001", "eeg"}}, stages[0])
	assert.Equal(t, Stage{Name: "segment", Args: []string{"2"}}, stages[1])
	assert.Equal(t, Stage{Name: "extract", Args: nil}, stages[2])
	assert.Equal(t, Stage{Name: "partition", Args: []string{"1:3"}}, stages[3])
}

func TestParseSingleStage(t *testing.T) {
	stages, err := Parse("eval")
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, "eval", stages[0].Name)
	assert.Empty(t, stages[0].Args)
}

func TestParseRejectsBlankStages(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = Parse("   ")
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = Parse("extract || eval")
	assert.Error(t, err)

	_, err = Parse("extract |")
	assert.Error(t, err)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "eval", Stage{Name: "eval"}.String())
	assert.Equal(t, "partition 1:3", Stage{Name: "partition", Args: []string{"1:3"}}.String())
}

func TestParseRatioFraction(t *testing.T) {
	r, err := ParseRatio("1:3")
	require.NoError(t, err)
	// 1:3 means 1/(1+3) of the sequence.
	assert.Equal(t, 8, r.Of(30))
	assert.Equal(t, 25, r.Of(100))
}

func TestParseRatioCount(t *testing.T) {
	r, err := ParseRatio("12")
	require.NoError(t, err)
	assert.Equal(t, 12, r.Of(100))
	// An absolute count never exceeds the sequence length.
	assert.Equal(t, 5, r.Of(5))
}

func TestParseRatioRounding(t *testing.T) {
	r, err := ParseRatio("1:1")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Of(3), "1/2 of 3 rounds to 2")
	assert.Equal(t, 2, r.Of(4))
}

func TestParseRatioRejectsMalformed(t *testing.T) {
	for _, tok := range []string{"", "a", "1:", ":3", "1:b", "-1", "-1:2", "0:0", "1:2:3"} {
		_, err := ParseRatio(tok)
		assert.ErrorIs(t, err, ErrBadRatio, "token %q", tok)
	}
}
