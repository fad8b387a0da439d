// Typeboardctl - offline access to Typeboard pages and the threat dataset.
// Copyright (c) 2026 The Typeboard Authors
// Licensed under the Apache License 2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags)
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "typeboardctl",
		Short: "Typeboard command line",
		Long: `Render Typeboard lookup pages and work with the synthetic threat
dataset without running the server.

Available subcommands:
  pages  - List lookup pages
  lookup - Render one page for one MBTI type
  export - Write the filtered dataset as CSV
  trend  - Print the yearly trend and its prediction`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPagesCmd(),
		newLookupCmd(),
		newExportCmd(),
		newTrendCmd(),
	)
	return root
}
