package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"jira_mcp/internal/tools"
)

// NewServer creates a new MCP server instance
func NewServer(dispatcher *tools.Dispatcher) (*server.MCPServer, error) {
	// Create MCP server
	s := server.NewMCPServer(
		"jira-mcp-server",
		"1.0.0",
	)

	// Add Jira tools
	if err := registerJiraTools(s, dispatcher); err != nil {
		return nil, err
	}

	return s, nil
}

// Serve starts the MCP server on the stdio transport
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
