package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"jira_mcp/internal/tools"
)

// registerJiraTools registers all Jira-related tools with the server
func registerJiraTools(s *server.MCPServer, d *tools.Dispatcher) error {
	searchJiraTool := mcp.NewTool("search_jira",
		mcp.WithDescription("Search Jira issues using JQL (Jira Query Language). Returns matching issues with key fields."),
		mcp.WithString("jql",
			mcp.Required(),
			mcp.Description("JQL query string (e.g., 'project = DSP AND status = Open')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return (default: 50)"),
			mcp.DefaultNumber(50),
		),
		mcp.WithNumber("startAt",
			mcp.Description("Starting index for pagination (default: 0)"),
			mcp.DefaultNumber(0),
		),
	)

	listJiraIssuesTool := mcp.NewTool("list_jira_issues",
		mcp.WithDescription("List issues for a specific project."),
		mcp.WithString("projectKey",
			mcp.Required(),
			mcp.Description("Project key (e.g., 'DSP', 'PROJ')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return (default: 50)"),
			mcp.DefaultNumber(50),
		),
	)

	getJiraIssueTool := mcp.NewTool("get_jira_issue",
		mcp.WithDescription("Get details for a specific Jira issue."),
		mcp.WithString("issueKey",
			mcp.Required(),
			mcp.Description("Issue key (e.g., 'DSP-9050')"),
		),
	)

	getJiraCommentsTool := mcp.NewTool("get_jira_comments",
		mcp.WithDescription("Get comments for a specific Jira issue."),
		mcp.WithString("issueKey",
			mcp.Required(),
			mcp.Description("Issue key (e.g., 'DSP-9050')"),
		),
	)

	getJiraTransitionsTool := mcp.NewTool("get_jira_transitions",
		mcp.WithDescription("Get available transitions for a Jira issue."),
		mcp.WithString("issueKey",
			mcp.Required(),
			mcp.Description("Issue key (e.g., 'DSP-9050')"),
		),
	)

	getJiraProjectsTool := mcp.NewTool("get_jira_projects",
		mcp.WithDescription("Get list of Jira projects."),
	)

	createJiraIssueTool := mcp.NewTool("create_jira_issue",
		mcp.WithDescription("Create a new Jira issue."),
		mcp.WithString("projectKey",
			mcp.Required(),
			mcp.Description("Project key (e.g., 'DSP', 'PROJ')"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Issue summary (title)"),
		),
		mcp.WithString("description",
			mcp.Description("Issue description"),
		),
		mcp.WithString("issueType",
			mcp.Required(),
			mcp.Description("Issue type (e.g., Task, Bug, Story)"),
		),
	)

	addJiraCommentTool := mcp.NewTool("add_jira_comment",
		mcp.WithDescription("Add a comment to a Jira issue."),
		mcp.WithString("issueKey",
			mcp.Required(),
			mcp.Description("Issue key (e.g., 'DSP-9050')"),
		),
		mcp.WithString("comment",
			mcp.Required(),
			mcp.Description("Comment text"),
		),
	)

	updateJiraIssueTool := mcp.NewTool("update_jira_issue",
		mcp.WithDescription("Update an existing Jira issue."),
		mcp.WithString("issueKey",
			mcp.Required(),
			mcp.Description("Issue key (e.g., 'DSP-9050')"),
		),
		mcp.WithString("summary",
			mcp.Description("New issue summary"),
		),
		mcp.WithString("description",
			mcp.Description("New issue description"),
		),
	)

	transitionJiraIssueTool := mcp.NewTool("transition_jira_issue",
		mcp.WithDescription("Transition a Jira issue to a new status."),
		mcp.WithString("issueKey",
			mcp.Required(),
			mcp.Description("Issue key (e.g., 'DSP-9050')"),
		),
		mcp.WithString("transitionId",
			mcp.Required(),
			mcp.Description("ID of the transition"),
		),
	)

	// Register tools with handlers
	s.AddTool(searchJiraTool, dispatchTo(d, "search_jira"))
	s.AddTool(listJiraIssuesTool, dispatchTo(d, "list_jira_issues"))
	s.AddTool(getJiraIssueTool, dispatchTo(d, "get_jira_issue"))
	s.AddTool(getJiraCommentsTool, dispatchTo(d, "get_jira_comments"))
	s.AddTool(getJiraTransitionsTool, dispatchTo(d, "get_jira_transitions"))
	s.AddTool(getJiraProjectsTool, dispatchTo(d, "get_jira_projects"))
	s.AddTool(createJiraIssueTool, dispatchTo(d, "create_jira_issue"))
	s.AddTool(addJiraCommentTool, dispatchTo(d, "add_jira_comment"))
	s.AddTool(updateJiraIssueTool, dispatchTo(d, "update_jira_issue"))
	s.AddTool(transitionJiraIssueTool, dispatchTo(d, "transition_jira_issue"))

	return nil
}

// dispatchTo adapts the dispatcher to the mcp-go handler signature. Tool
// failures come back as result text, never as protocol errors.
func dispatchTo(d *tools.Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return d.Dispatch(ctx, name, request.GetArguments()), nil
	}
}
