package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"archon/internal/engine"
)

var (
	enforceFormat string
	enforceExport string
	enforceStrict bool
	enforceRanked bool
	enforceTop    int
	enforceApply  bool
)

var enforceCmd = &cobra.Command{
	Use:   "enforce <path>...",
	Short: "Report threshold breaches with explicit rationale",
	Long: `Run thresholded enforcement: only indicators whose backing signal
crosses its configured threshold are reported, each with the measured
value and the suggested structural remedy.

With --strict the command exits nonzero when any file breaches a
threshold, which makes it usable as a CI gate.

With --ranked the command goes one step further: it scans the given
paths, takes the strongest breach per file, and introduces the
suggested target into the top files by score. Ranked mode is a dry run
unless --apply is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnforce,
}

func init() {
	enforceCmd.Flags().StringVar(&enforceFormat, "format", "human", "Output format (json, human)")
	enforceCmd.Flags().StringVar(&enforceExport, "export", "", "Also write the full JSON report to this path (.gz compresses)")
	enforceCmd.Flags().BoolVar(&enforceStrict, "strict", false, "Exit nonzero when any threshold is breached")
	enforceCmd.Flags().BoolVar(&enforceRanked, "ranked", false, "Introduce suggested targets into the top breached files")
	enforceCmd.Flags().IntVar(&enforceTop, "top", 3, "Number of files to remediate in ranked mode")
	enforceCmd.Flags().BoolVar(&enforceApply, "apply", false, "Write accepted candidates in ranked mode (default dry run)")
	rootCmd.AddCommand(enforceCmd)
}

func runEnforce(cmd *cobra.Command, args []string) error {
	logger := newLogger(enforceFormat)
	eng := mustGetEngine(logger)

	if enforceRanked {
		return runEnforceRanked(cmd, eng, args)
	}

	results, err := eng.ThresholdedEnforcement(cmd.Context(), args)
	if err != nil {
		return err
	}
	if err := maybeExport(results, enforceExport); err != nil {
		return err
	}

	breached := 0
	for _, r := range results {
		breached += len(r.Proposal.Items)
	}

	if enforceFormat == "json" {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Error != "" {
				fmt.Printf("%s: error: %s\n", r.Path, r.Error)
				continue
			}
			if len(r.Proposal.Items) == 0 {
				fmt.Printf("%s: ok\n", r.Path)
				continue
			}
			fmt.Printf("%s:\n", r.Path)
			for _, item := range r.Proposal.Items {
				fmt.Printf("  %-22s severity=%.1f  %s\n", item.ID, item.Severity, item.Rationale)
			}
		}
	}

	if enforceStrict && breached > 0 {
		fmt.Fprintf(os.Stderr, "%d threshold breach(es)\n", breached)
		os.Exit(1)
	}
	return nil
}

func runEnforceRanked(cmd *cobra.Command, eng *engine.Engine, args []string) error {
	run, err := eng.EnforceRanked(cmd.Context(), args, enforceTop, enforceApply)
	if err != nil {
		return err
	}
	if err := maybeExport(run, enforceExport); err != nil {
		return err
	}

	if enforceFormat == "json" {
		return printJSON(run)
	}

	if len(run.Actions) == 0 {
		fmt.Println("no threshold breaches")
		return nil
	}
	for _, act := range run.Actions {
		fmt.Printf("%.2f  %s: %s -> %s\n", act.Score, act.Path, act.Indicator, act.Target)
		if act.Error != "" {
			fmt.Printf("  error: %s\n", act.Error)
			continue
		}
		fmt.Printf("  %s", act.Candidate.Mode)
		if act.Candidate.Written != "" {
			fmt.Printf(", written %s", act.Candidate.Written)
		}
		fmt.Println()
	}
	if !run.Applied {
		fmt.Println("\n(dry run; pass --apply to write)")
	}
	return nil
}
