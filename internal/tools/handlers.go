package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"jira_mcp/internal/errs"
	"jira_mcp/internal/logger"
	"jira_mcp/internal/model"
	"jira_mcp/internal/sanitize"
)

// standardIssueFields is the fixed field set returned by search queries:
// enough to be useful without flooding the response.
var standardIssueFields = []string{
	"summary",
	"status",
	"assignee",
	"priority",
	"created",
	"updated",
	"description",
}

func (d *Dispatcher) searchJira(ctx context.Context, args map[string]any) (any, error) {
	if err := sanitize.RequireArguments(args, "jql"); err != nil {
		return nil, err
	}
	jql, err := sanitize.JQL(stringArg(args, "jql"))
	if err != nil {
		return nil, err
	}
	return d.client.Execute(ctx, "search/jql", http.MethodGet, nil, map[string]any{
		"jql":        jql,
		"maxResults": intArg(args, "maxResults", 50),
		"startAt":    intArg(args, "startAt", 0),
		"fields":     standardIssueFields,
	})
}

func (d *Dispatcher) listJiraIssues(ctx context.Context, args map[string]any) (any, error) {
	if err := sanitize.RequireArguments(args, "projectKey"); err != nil {
		return nil, err
	}
	projectKey, err := sanitize.ProjectKey(stringArg(args, "projectKey"))
	if err != nil {
		return nil, err
	}
	jql := fmt.Sprintf("project = %s ORDER BY created DESC", projectKey)
	return d.client.Execute(ctx, "search/jql", http.MethodGet, nil, map[string]any{
		"jql":        jql,
		"maxResults": intArg(args, "maxResults", 50),
		"fields":     standardIssueFields,
	})
}

func (d *Dispatcher) getJiraIssue(ctx context.Context, args map[string]any) (any, error) {
	issueKey, err := requireIssueKey(args)
	if err != nil {
		return nil, err
	}
	return d.client.Execute(ctx, "issue/"+issueKey, http.MethodGet, nil, nil)
}

func (d *Dispatcher) getJiraComments(ctx context.Context, args map[string]any) (any, error) {
	issueKey, err := requireIssueKey(args)
	if err != nil {
		return nil, err
	}
	return d.client.Execute(ctx, "issue/"+issueKey+"/comment", http.MethodGet, nil, nil)
}

func (d *Dispatcher) getJiraTransitions(ctx context.Context, args map[string]any) (any, error) {
	issueKey, err := requireIssueKey(args)
	if err != nil {
		return nil, err
	}
	return d.client.Execute(ctx, "issue/"+issueKey+"/transitions", http.MethodGet, nil, nil)
}

func (d *Dispatcher) getJiraProjects(ctx context.Context, args map[string]any) (any, error) {
	return d.client.Execute(ctx, "project", http.MethodGet, nil, nil)
}

func (d *Dispatcher) createJiraIssue(ctx context.Context, args map[string]any) (any, error) {
	// Presence check runs before any value is read.
	if err := sanitize.RequireArguments(args, "projectKey", "summary", "issueType"); err != nil {
		return nil, err
	}
	projectKey, err := sanitize.ProjectKey(stringArg(args, "projectKey"))
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"project":   map[string]any{"key": projectKey},
		"summary":   stringArg(args, "summary"),
		"issuetype": map[string]any{"name": stringArg(args, "issueType")},
	}
	if description := stringArg(args, "description"); description != "" {
		fields["description"] = model.TextToADF(description)
	}

	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "failed to marshal request body: %v", err)
	}

	logger.GetLogger().Info("creating issue", zap.String("project", projectKey))
	return d.client.Execute(ctx, "issue", http.MethodPost, body, nil)
}

func (d *Dispatcher) addJiraComment(ctx context.Context, args map[string]any) (any, error) {
	if err := sanitize.RequireArguments(args, "issueKey", "comment"); err != nil {
		return nil, err
	}
	issueKey, err := sanitize.IssueKey(stringArg(args, "issueKey"))
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"body": model.TextToADF(stringArg(args, "comment")),
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "failed to marshal request body: %v", err)
	}

	logger.GetLogger().Info("adding comment", zap.String("issue", issueKey))
	return d.client.Execute(ctx, "issue/"+issueKey+"/comment", http.MethodPost, body, nil)
}

func (d *Dispatcher) updateJiraIssue(ctx context.Context, args map[string]any) (any, error) {
	issueKey, err := requireIssueKey(args)
	if err != nil {
		return nil, err
	}

	updateFields := map[string]any{}
	if summary := stringArg(args, "summary"); summary != "" {
		updateFields["summary"] = summary
	}
	if description := stringArg(args, "description"); description != "" {
		updateFields["description"] = model.TextToADF(description)
	}
	if len(updateFields) == 0 {
		return nil, errs.New(errs.InvalidInput, "at least one field (summary or description) must be provided")
	}

	body, err := json.Marshal(map[string]any{"fields": updateFields})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "failed to marshal request body: %v", err)
	}

	logger.GetLogger().Info("updating issue", zap.String("issue", issueKey))
	if _, err := d.client.Execute(ctx, "issue/"+issueKey, http.MethodPut, body, nil); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Issue %s updated successfully", issueKey), nil
}

func (d *Dispatcher) transitionJiraIssue(ctx context.Context, args map[string]any) (any, error) {
	if err := sanitize.RequireArguments(args, "issueKey", "transitionId"); err != nil {
		return nil, err
	}
	issueKey, err := sanitize.IssueKey(stringArg(args, "issueKey"))
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"transition": map[string]any{"id": args["transitionId"]},
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "failed to marshal request body: %v", err)
	}

	logger.GetLogger().Info("transitioning issue", zap.String("issue", issueKey))
	if _, err := d.client.Execute(ctx, "issue/"+issueKey+"/transitions", http.MethodPost, body, nil); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Issue %s transitioned successfully", issueKey), nil
}

// requireIssueKey checks presence and format of the issueKey argument.
// Validation is applied uniformly, including on read-only lookups: an
// issue key is interpolated into the request path, so it gets the same
// scrutiny everywhere.
func requireIssueKey(args map[string]any) (string, error) {
	if err := sanitize.RequireArguments(args, "issueKey"); err != nil {
		return "", err
	}
	return sanitize.IssueKey(stringArg(args, "issueKey"))
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg reads a numeric argument, tolerating the float64 values JSON
// decoding produces.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
