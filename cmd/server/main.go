package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jira_mcp/internal/config"
	"jira_mcp/internal/jira"
	"jira_mcp/internal/logger"
	mcpserver "jira_mcp/internal/service/mcp-server"
	"jira_mcp/internal/tools"
)

var rootCmd = &cobra.Command{
	Use:   "jira-mcp-server",
	Short: "MCP server exposing Jira operations as tools over stdio",
	Long: `jira-mcp-server bridges an MCP client (such as an AI-agent runtime) to the
Jira REST API. It exposes search, issue CRUD, comments, transitions and
project listing as MCP tools.

Required environment variables:
  JIRA_URL        Base URL of the Jira instance (must use HTTPS)
  JIRA_USERNAME   Username for basic auth (typically email)
  JIRA_API_TOKEN  API token for authentication`,
	RunE:         run,
	SilenceUsage: true,
}

func run(cmd *cobra.Command, args []string) error {
	// Missing or invalid configuration is the one fatal error class:
	// the process must not start serving without it.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	client := jira.NewClient(cfg.JiraURL, cfg.JiraUsername, cfg.JiraAPIToken)
	defer client.Close()

	server, err := mcpserver.NewServer(tools.NewDispatcher(client))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.GetLogger().Info("starting Jira MCP server", zap.String("jira", cfg.SanitizedURL()))
	if err := mcpserver.Serve(server); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.GetLogger().Info("Jira MCP server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
