package main

import (
	"os"

	"github.com/spf13/cobra"

	"archon/internal/config"
	"archon/internal/engine"
	"archon/internal/logging"
	"archon/internal/mcp"
	"archon/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server over stdio.

The server exposes the analysis pipeline as tools (detect, propose,
analyzeMetrics, thresholdedEnforcement, advise, introduce, scan,
listTargets, getStatus) speaking JSON-RPC 2.0 on stdin/stdout. All
logging goes to stderr so stdout stays reserved for the protocol.

This command is typically invoked by MCP clients and not directly by
users.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.InfoLevel,
		Output: os.Stderr,
	})

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	eng, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}

	server := mcp.NewServer(version.Version, eng, logger)
	return server.Start()
}
