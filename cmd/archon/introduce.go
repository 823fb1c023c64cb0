package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"archon/internal/transform"
)

var (
	introduceFormat  string
	introduceDryRun  bool
	introduceOutPath string
)

var introduceCmd = &cobra.Command{
	Use:   "introduce <target> <file>",
	Short: "Introduce a pattern into a Go file",
	Long: `Introduce the named pattern into one Go source file. When the file's
structure satisfies the pattern's preconditions a structural transform
appends the pattern seams; otherwise a commented scaffold is appended.
Every candidate passes the validation gauntlet before anything is
written, and a rejected candidate leaves the file untouched.

Examples:
  archon introduce strategy pkg/codec/codec.go --dry-run
  archon introduce singleton internal/registry/registry.go
  archon introduce builder cfg.go --out cfg_builder.go`,
	Args: cobra.ExactArgs(2),
	RunE: runIntroduce,
}

func init() {
	introduceCmd.Flags().StringVar(&introduceFormat, "format", "human", "Output format (json, human)")
	introduceCmd.Flags().BoolVar(&introduceDryRun, "dry-run", false, "Compute the candidate and diff without writing")
	introduceCmd.Flags().StringVar(&introduceOutPath, "out", "", "Write the accepted candidate here instead of in place")
	rootCmd.AddCommand(introduceCmd)
}

func runIntroduce(cmd *cobra.Command, args []string) error {
	logger := newLogger(introduceFormat)
	eng := mustGetEngine(logger)

	cand, err := eng.Introduce(cmd.Context(), args[0], args[1], transform.Options{
		DryRun:  introduceDryRun,
		OutPath: introduceOutPath,
	})
	if err != nil {
		return err
	}

	if introduceFormat == "json" {
		return printJSON(cand)
	}

	fmt.Printf("%s -> %s (%s)\n", cand.Target, cand.Path, cand.Mode)
	for _, note := range cand.Notes {
		fmt.Printf("  note: %s\n", note)
	}
	if cand.Report != nil {
		for _, res := range cand.Report.Results {
			fmt.Printf("  %-16s %s\n", res.Backend, res.Status)
		}
	}
	switch {
	case cand.Written != "":
		fmt.Printf("  written: %s\n", cand.Written)
	case introduceDryRun && cand.Diff != "":
		fmt.Println()
		fmt.Print(cand.Diff)
	}
	return nil
}
