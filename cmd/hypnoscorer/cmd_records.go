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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GEO-IASS/hypnoscorer/cmd/hypnoscorer/config"
	"github.com/GEO-IASS/hypnoscorer/services/sleep/signal"
)

// runRecords lists the catalogued recordings.
func runRecords(cmd *cobra.Command, args []string) error {
	catalog, err := signal.LoadCatalog(config.ExpandHome(appConfig.Catalog))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	names := catalog.Names()
	if len(names) == 0 {
		fmt.Println("catalog is empty")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
