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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrNoRecord is returned when a load spec matches no catalog entry.
var ErrNoRecord = errors.New("no matching record")

// catalogValidate checks the validate tags on Record.
var catalogValidate = validator.New()

// Record describes one catalogued recording on disk.
type Record struct {
	// Name identifies the record (e.g. "SC4001E0-EEG-Fpz-Cz").
	Name string `yaml:"name" validate:"required"`

	// SignalPath is the CSV file holding one sample value per line.
	SignalPath string `yaml:"signal" validate:"required"`

	// LabelPath is the hypnogram file: one stage code per line.
	LabelPath string `yaml:"labels" validate:"required"`

	// Unit is the physical unit of the samples.
	Unit string `yaml:"unit"`

	// Rate is the sampling rate in Hz.
	Rate float64 `yaml:"rate" validate:"required,gt=0"`

	// EpochSeconds is the annotation epoch duration. Defaults to 30.
	EpochSeconds float64 `yaml:"epoch_seconds"`
}

// Catalog is the ordered set of known recordings.
type Catalog struct {
	Records []Record `yaml:"records"`
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i := range cat.Records {
		if cat.Records[i].EpochSeconds == 0 {
			cat.Records[i].EpochSeconds = 30
		}
		if err := catalogValidate.Struct(cat.Records[i]); err != nil {
			return nil, fmt.Errorf("catalog %s record %d: %w", path, i, err)
		}
	}
	return &cat, nil
}

// Find resolves a load spec against the catalog.
//
// Description:
//
//	A record matches when its name contains every term as a substring
//	(case-insensitive). Zero matches is an error. Multiple matches
//	resolve to the first record in catalog order; the catalog is the
//	tie-break authority.
//
// Inputs:
//
//	terms - Substring terms from the load stage arguments.
//
// Outputs:
//
//	Record - The first matching record.
//	error - ErrNoRecord (wrapped with the terms) if nothing matches.
func (c *Catalog) Find(terms []string) (Record, error) {
	for _, rec := range c.Records {
		name := strings.ToLower(rec.Name)
		matched := true
		for _, term := range terms {
			if !strings.Contains(name, strings.ToLower(term)) {
				matched = false
				break
			}
		}
		if matched {
			return rec, nil
		}
	}
	return Record{}, fmt.Errorf("%w for %q", ErrNoRecord, strings.Join(terms, " "))
}

// Names returns the record names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Records))
	for i, rec := range c.Records {
		names[i] = rec.Name
	}
	return names
}
