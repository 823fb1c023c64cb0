package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	proposeCategory    string
	proposeFormat      string
	proposeWithMetrics bool
	proposeExport      string
)

var proposeCmd = &cobra.Command{
	Use:   "propose <file>...",
	Short: "Rank findings and indicators into improvement proposals",
	Long: `Run the full analysis pipeline and emit one ranked proposal per file.
Each proposal interleaves pattern findings with threshold-breaching
indicators, ordered by score.

Examples:
  archon propose pkg/store/store.go
  archon propose --with-metrics --category pattern internal/server/server.go
  archon propose --export report.json.gz ./...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPropose,
}

func init() {
	proposeCmd.Flags().StringVar(&proposeCategory, "category", "", "Limit proposal items to one category (pattern, architecture)")
	proposeCmd.Flags().StringVar(&proposeFormat, "format", "human", "Output format (json, human)")
	proposeCmd.Flags().BoolVar(&proposeWithMetrics, "with-metrics", false, "Also run the tree-sitter analyzer and the lint runner")
	proposeCmd.Flags().StringVar(&proposeExport, "export", "", "Also write the full JSON report to this path (.gz compresses)")
	rootCmd.AddCommand(proposeCmd)
}

func runPropose(cmd *cobra.Command, args []string) error {
	category, err := parseCategory(proposeCategory)
	if err != nil {
		return err
	}

	logger := newLogger(proposeFormat)
	eng := mustGetEngine(logger)

	results, err := eng.Propose(cmd.Context(), args, category, proposeWithMetrics)
	if err != nil {
		return err
	}
	if err := maybeExport(results, proposeExport); err != nil {
		return err
	}

	if proposeFormat == "json" {
		return printJSON(results)
	}

	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("%s: error: %s\n", r.Path, r.Error)
			continue
		}
		if len(r.Proposal.Items) == 0 {
			fmt.Printf("%s: nothing to propose\n", r.Path)
			continue
		}
		fmt.Printf("%s:\n", r.Path)
		for _, item := range r.Proposal.Items {
			fmt.Printf("  %.2f  %-10s %-22s -> %-18s %s\n",
				item.Score, item.Kind, item.ID, item.Target, item.Rationale)
		}
	}
	return nil
}
