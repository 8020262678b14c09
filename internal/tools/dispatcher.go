// Package tools maps tool names to handlers that validate arguments, call
// the Jira API and shape the result for the MCP protocol.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"jira_mcp/internal/errs"
	"jira_mcp/internal/jira"
	"jira_mcp/internal/logger"
)

// Handler processes one tool call. It returns either a string, delivered
// verbatim, or a structured value, delivered as its JSON serialization.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Dispatcher routes tool calls by name. The handler map is built once at
// construction and never mutated afterwards.
type Dispatcher struct {
	client   *jira.Client
	handlers map[string]Handler
}

// NewDispatcher creates a dispatcher with all ten Jira tool handlers
// registered.
func NewDispatcher(client *jira.Client) *Dispatcher {
	d := &Dispatcher{client: client}
	d.handlers = map[string]Handler{
		"search_jira":           d.searchJira,
		"list_jira_issues":      d.listJiraIssues,
		"get_jira_issue":        d.getJiraIssue,
		"get_jira_comments":     d.getJiraComments,
		"get_jira_transitions":  d.getJiraTransitions,
		"get_jira_projects":     d.getJiraProjects,
		"create_jira_issue":     d.createJiraIssue,
		"add_jira_comment":      d.addJiraComment,
		"update_jira_issue":     d.updateJiraIssue,
		"transition_jira_issue": d.transitionJiraIssue,
	}
	return d
}

// Dispatch looks up the named handler and converts its outcome into a tool
// result. Every outcome, including failure, is a successful protocol
// response carrying descriptive text: the calling agent always receives an
// explanation rather than a transport fault.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	handler, ok := d.handlers[name]
	if !ok {
		return mcp.NewToolResultText("Unknown tool: " + name)
	}

	result, err := handler(ctx, args)
	if err != nil {
		if errs.KindOf(err) == errs.InvalidInput {
			return mcp.NewToolResultText("Validation Error: " + err.Error())
		}
		return mcp.NewToolResultText("Error: " + err.Error())
	}
	return mcp.NewToolResultText(formatResult(result))
}

// formatResult renders a handler result: strings pass through verbatim,
// anything structured becomes JSON text.
func formatResult(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	b, err := json.Marshal(result)
	if err != nil {
		logger.GetLogger().Error("failed to marshal result", zap.Error(err))
		return fmt.Sprintf("%v", result)
	}
	return string(b)
}
