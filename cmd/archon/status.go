package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archon capabilities",
	Long:  "Display the build version, the active detector roster, the validation backend chain, and the catalog size.",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger(statusFormat)
	eng := mustGetEngine(logger)
	st := eng.GetStatus()

	if statusFormat == "json" {
		return printJSON(st)
	}

	fmt.Printf("archon %s\n", st.Version)
	fmt.Printf("  metrics analyzer: %v\n", st.MetricsAvailable)
	fmt.Printf("  backends:  %s\n", strings.Join(st.Backends, ", "))
	fmt.Printf("  detectors: %s\n", strings.Join(st.Detectors, ", "))
	fmt.Printf("  catalog:   %d entries\n", st.CatalogEntries)
	return nil
}
