package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	scanFormat      string
	scanWithMetrics bool
	scanExport      string
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Analyze files, directories, and glob patterns",
	Long: `Expand each argument (file, directory, or doublestar glob) into Go
source files and run the proposal pipeline over every match. Directory
walks honor the configured ignore list, and the expansion is capped by
scan.maxFiles.

Examples:
  archon scan .
  archon scan 'internal/**/*.go' --with-metrics`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format (json, human)")
	scanCmd.Flags().BoolVar(&scanWithMetrics, "with-metrics", false, "Also run the tree-sitter analyzer and the lint runner")
	scanCmd.Flags().StringVar(&scanExport, "export", "", "Also write the full JSON report to this path (.gz compresses)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := newLogger(scanFormat)
	eng := mustGetEngine(logger)

	results, truncated, err := eng.ScanPaths(cmd.Context(), args, scanWithMetrics)
	if err != nil {
		return err
	}
	if err := maybeExport(results, scanExport); err != nil {
		return err
	}

	if truncated {
		fmt.Fprintln(os.Stderr, "Warning: file list truncated by scan.maxFiles")
	}

	if scanFormat == "json" {
		return printJSON(map[string]interface{}{
			"results":   results,
			"truncated": truncated,
		})
	}

	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("%s: error: %s\n", r.Path, r.Error)
			continue
		}
		if len(r.Proposal.Items) == 0 {
			continue
		}
		fmt.Printf("%s:\n", r.Path)
		for _, item := range r.Proposal.Items {
			fmt.Printf("  %.2f  %-22s -> %s\n", item.Score, item.ID, item.Target)
		}
	}
	return nil
}
