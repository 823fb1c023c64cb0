package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"archon/internal/config"
	"archon/internal/engine"
	"archon/internal/logging"
	"archon/internal/version"
)

var (
	// configDir is the CLI --config flag value
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "archon",
	Short: "Archon - pattern detection and guarded transformation for Go",
	Long: `Archon analyzes Go source files for design pattern and architecture style
usage, fuses structural metrics into ranked improvement proposals, and can
introduce a pattern into a file through a validation-gated transformation.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("archon version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".",
		"Directory containing archon.toml (defaults to the working directory)")
}

// newLogger builds the CLI logger. Logs always go to stderr so stdout
// stays clean for command output.
func newLogger(format string) *logging.Logger {
	logFormat := logging.HumanFormat
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Output: os.Stderr,
	})
}

// mustGetEngine loads configuration and builds the engine, exiting on
// failure the way every command expects.
func mustGetEngine(logger *logging.Logger) *engine.Engine {
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	eng, err := engine.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	return eng
}

// printJSON writes any result as indented JSON on stdout
func printJSON(result interface{}) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// maybeExport writes the result to exportPath when set. A .gz suffix
// compresses the report.
func maybeExport(result interface{}, exportPath string) error {
	if exportPath == "" {
		return nil
	}
	if err := engine.ExportReport(result, exportPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", exportPath)
	return nil
}
