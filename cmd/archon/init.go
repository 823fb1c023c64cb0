package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"archon/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default archon.toml",
	Long:  "Creates archon.toml with the default configuration in the current directory.",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing archon.toml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfgPath := filepath.Join(cwd, "archon.toml")
	if _, statErr := os.Stat(cfgPath); statErr == nil {
		if !initForce {
			// Idempotent behavior: already initialized is success (CI-friendly)
			fmt.Println("archon already initialized.")
			fmt.Printf("Configuration at: %s\n", cfgPath)
			fmt.Println("\nRun 'archon init --force' to overwrite.")
			return nil
		}
		if err := os.Remove(cfgPath); err != nil {
			return fmt.Errorf("removing existing config: %w", err)
		}
	}

	path, err := config.WriteDefault(cwd)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
