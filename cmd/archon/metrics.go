package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"archon/internal/signal"
)

var (
	metricsFormat string
	metricsExport string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <file>...",
	Short: "Show the fused signal vector per file",
	Long: `Fuse tree-sitter complexity metrics, lint results, and structural
indicators into one signal vector per file. Signals from unavailable
sources are reported as unknown rather than zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().StringVar(&metricsFormat, "format", "human", "Output format (json, human)")
	metricsCmd.Flags().StringVar(&metricsExport, "export", "", "Also write the full JSON report to this path (.gz compresses)")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	logger := newLogger(metricsFormat)
	eng := mustGetEngine(logger)

	vectors, err := eng.AnalyzeMetrics(cmd.Context(), args)
	if err != nil {
		return err
	}
	if err := maybeExport(vectors, metricsExport); err != nil {
		return err
	}

	if metricsFormat == "json" {
		return printJSON(vectors)
	}

	for _, v := range vectors {
		fmt.Printf("%s:\n", v.Path)
		fmt.Printf("  loc=%s defs=%s cyclomatic=%s maintainability=%s violations=%s longParams=%s literals=%s\n",
			fmtMetric(v.LOC), fmtMetric(v.TopLevelDefs), fmtMetric(v.MaxCyclomatic),
			fmtMetric(v.MinMaintainability), fmtMetric(v.Violations),
			fmtMetric(v.LongParamFuncs), fmtMetric(v.RepeatedLiterals))
		for _, note := range v.Notes {
			fmt.Printf("  note: %s\n", note)
		}
	}
	return nil
}

func fmtMetric(m signal.Metric) string {
	if !m.Known {
		return "?"
	}
	return fmt.Sprintf("%g", m.Value)
}
