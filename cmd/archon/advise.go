package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var adviseFormat string

var adviseCmd = &cobra.Command{
	Use:   "advise <target>",
	Short: "Show catalog guidance for a pattern or architecture target",
	Long: `Look up one catalog target by name or alias and print its guidance,
prompt hint, and references.

Examples:
  archon advise singleton
  archon advise di`,
	Args: cobra.ExactArgs(1),
	RunE: runAdvise,
}

func init() {
	adviseCmd.Flags().StringVar(&adviseFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(adviseCmd)
}

func runAdvise(cmd *cobra.Command, args []string) error {
	logger := newLogger(adviseFormat)
	eng := mustGetEngine(logger)

	advice, err := eng.Advise(args[0])
	if err != nil {
		return err
	}

	if adviseFormat == "json" {
		return printJSON(advice)
	}

	fmt.Printf("%s (%s)\n", advice.Target, advice.Category)
	fmt.Printf("  %s\n", advice.Advice)
	if advice.PromptHint != "" {
		fmt.Printf("  hint: %s\n", advice.PromptHint)
	}
	for _, ref := range advice.Refs {
		fmt.Printf("  see: %s\n", ref)
	}
	return nil
}
