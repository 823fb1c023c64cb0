package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	targetsCategory string
	targetsFormat   string
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List catalog targets",
	Long:  "List every pattern and architecture style the catalog knows, optionally filtered by category.",
	RunE:  runTargets,
}

func init() {
	targetsCmd.Flags().StringVar(&targetsCategory, "category", "", "Limit to one category (pattern, architecture)")
	targetsCmd.Flags().StringVar(&targetsFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	category, err := parseCategory(targetsCategory)
	if err != nil {
		return err
	}

	logger := newLogger(targetsFormat)
	eng := mustGetEngine(logger)
	targets := eng.ListTargets(category)

	if targetsFormat == "json" {
		return printJSON(targets)
	}

	for _, tg := range targets {
		fmt.Printf("%-22s %-13s %s\n", tg.Name, tg.Category, tg.Advice)
	}
	return nil
}
