// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command hypnoscorer scores sleep-EEG recordings with a command-driven
// feature pipeline.
//
// Usage:
//
//	hypnoscorer run "load SC4001 | segment 1 | extract | partition 1:3 | svm linear | eval"
//	hypnoscorer run --seed 42 "load SC4001 | segment 1 | extract | partition 1:1 | select restricted svm linear | eval"
//	hypnoscorer records
//	hypnoscorer serve
//
// Example requests against the server:
//
//	# Health check
//	curl http://localhost:8080/v1/sleep/health
//
//	# Run a pipeline
//	curl -X POST http://localhost:8080/v1/sleep/pipeline/run \
//	  -H "Content-Type: application/json" \
//	  -d '{"command": "load SC4001 | segment 1 | extract | partition 1:3 | svm linear | eval", "seed": 42}'
package main

import (
	"log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
