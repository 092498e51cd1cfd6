// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GEO-IASS/hypnoscorer/services/sleep/pipeline"
)

// runPipeline executes one pipeline command and prints the final stream.
func runPipeline(cmd *cobra.Command, args []string) error {
	command := strings.Join(args, " ")

	loader, cleanup, err := openLoader()
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	opts := []pipeline.Option{
		pipeline.WithLoader(loader),
		pipeline.WithLogger(appLogger),
		pipeline.WithSearchConfig(searchConfig()),
	}
	if seedFlag != 0 {
		opts = append(opts, pipeline.WithSeed(seedFlag))
	}
	engine := pipeline.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Running pipeline", "command", command, "seed", seedFlag)
	stream, err := engine.Run(ctx, command)
	if err != nil {
		return fmt.Errorf("pipeline %q: %w", command, err)
	}

	printStream(stream)
	return nil
}

// printStream renders the final stream for the terminal.
func printStream(stream pipeline.Stream) {
	switch s := stream.(type) {
	case pipeline.SignalStream:
		fmt.Printf("recording %s: %d samples at %g Hz, %d epochs\n",
			s.Recording.Name, len(s.Recording.Signal.Samples),
			s.Recording.Signal.Rate, len(s.Recording.Labels))
	case pipeline.SegmentStream:
		fmt.Printf("%d labeled segments\n", len(s))
	case pipeline.VectorStream:
		fmt.Printf("%d labeled feature vectors\n", len(s))
	case pipeline.PartitionStream:
		fmt.Printf("partition: %d training / %d testing\n", len(s.Training), len(s.Testing))
	case pipeline.FoldStream:
		fmt.Printf("%d cross-validation folds\n", len(s))
	case pipeline.ResultStream:
		printResult(s.Result)
	case pipeline.SelectionStream:
		for _, res := range s.Results {
			printResult(res)
		}
	default:
		fmt.Printf("%s stream\n", stream.Shape())
	}
}

func printResult(r *pipeline.Result) {
	fmt.Printf("%s result: accuracy %.4f (%d training / %d testing)\n",
		r.Phase, r.Accuracy, len(r.Training), len(r.Testing))
	if len(r.Subset) > 0 {
		fmt.Printf("  features: %s\n", strings.Join(r.Subset, ", "))
	}
	if r.Generation > 0 {
		fmt.Printf("  generation: %d\n", r.Generation)
	}
	if r.Validation != nil {
		fmt.Printf("  validation accuracy: %.4f\n", r.Validation.Accuracy)
	}
	if len(r.ConfusionOrder) > 0 {
		fmt.Printf("  confusion (%s):\n", strings.Join(r.ConfusionOrder, " "))
		for i, row := range r.Confusion {
			fmt.Printf("    %s %v\n", r.ConfusionOrder[i], row)
		}
	}
}
