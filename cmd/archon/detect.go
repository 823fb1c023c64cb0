package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"archon/internal/catalog"
)

var (
	detectCategory string
	detectFormat   string
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>...",
	Short: "Detect pattern and architecture usage in Go files",
	Long: `Run the pattern and architecture detectors over one or more Go source
files and report every finding with its confidence and rationale.

Examples:
  archon detect pkg/store/store.go
  archon detect --category architecture internal/server/*.go`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectCategory, "category", "", "Limit findings to one category (pattern, architecture)")
	detectCmd.Flags().StringVar(&detectFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	category, err := parseCategory(detectCategory)
	if err != nil {
		return err
	}

	logger := newLogger(detectFormat)
	eng := mustGetEngine(logger)

	results, err := eng.Detect(cmd.Context(), args, category)
	if err != nil {
		return err
	}

	if detectFormat == "json" {
		return printJSON(results)
	}

	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("%s: error: %s\n", r.Path, r.Error)
			continue
		}
		if len(r.Findings) == 0 {
			fmt.Printf("%s: no findings\n", r.Path)
			continue
		}
		fmt.Printf("%s:\n", r.Path)
		for _, f := range r.Findings {
			fmt.Printf("  %-22s %-13s %.2f  %s\n", f.Name, f.Category, f.Confidence, f.Rationale)
		}
	}
	return nil
}

func parseCategory(v string) (catalog.Category, error) {
	switch cat := catalog.Category(v); cat {
	case "", catalog.CategoryPattern, catalog.CategoryArchitecture:
		return cat, nil
	default:
		return "", fmt.Errorf("unknown category %q (want pattern or architecture)", v)
	}
}
