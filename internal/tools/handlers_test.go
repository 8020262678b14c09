package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jira_mcp/internal/jira"
)

// upstream captures the last request the fake Jira server received.
type upstream struct {
	method string
	path   string
	query  map[string][]string
	body   map[string]any
}

func newTestDispatcher(t *testing.T, status int, response string) (*Dispatcher, *upstream) {
	t.Helper()
	captured := &upstream{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = r.URL.Query()
		captured.body = nil
		if r.ContentLength > 0 {
			json.NewDecoder(r.Body).Decode(&captured.body)
		}
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client := jira.NewClient(srv.URL, "user@example.com", "token")
	t.Cleanup(client.Close)
	return NewDispatcher(client), captured
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestDispatch_UnknownTool(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, `{}`)
	result := d.Dispatch(context.Background(), "delete_everything", map[string]any{})
	assert.Equal(t, "Unknown tool: delete_everything", resultText(t, result))
}

func TestDispatch_ValidationErrorPrefix(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, `{}`)
	result := d.Dispatch(context.Background(), "search_jira", map[string]any{
		"jql": "project = DSP; rm -rf /",
	})
	text := resultText(t, result)
	assert.Contains(t, text, "Validation Error: ")
}

func TestDispatch_UpstreamErrorPrefix(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusNotFound, `{"errorMessages":["Issue does not exist"]}`)
	result := d.Dispatch(context.Background(), "get_jira_issue", map[string]any{
		"issueKey": "DSP-999",
	})
	text := resultText(t, result)
	assert.Contains(t, text, "Error: ")
	assert.Contains(t, text, "HTTP 404")
	assert.Contains(t, text, "Issue does not exist")
}

func TestSearchJira(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusOK, `{"issues":[],"total":0}`)
	result := d.Dispatch(context.Background(), "search_jira", map[string]any{
		"jql":        "project = DSP AND status = Open",
		"maxResults": float64(25),
	})

	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "/rest/api/3/search/jql", captured.path)
	assert.Equal(t, "project = DSP AND status = Open", captured.query["jql"][0])
	assert.Equal(t, "25", captured.query["maxResults"][0])
	assert.Equal(t, "0", captured.query["startAt"][0])

	var fields []string
	require.NoError(t, json.Unmarshal([]byte(captured.query["fields"][0]), &fields))
	assert.Equal(t, []string{"summary", "status", "assignee", "priority", "created", "updated", "description"}, fields)

	assert.JSONEq(t, `{"issues":[],"total":0}`, resultText(t, result))
}

func TestSearchJira_MissingJQL(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, `{}`)
	result := d.Dispatch(context.Background(), "search_jira", map[string]any{})
	assert.Contains(t, resultText(t, result), "Validation Error: missing required arguments: jql")
}

func TestListJiraIssues(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusOK, `{"issues":[]}`)
	d.Dispatch(context.Background(), "list_jira_issues", map[string]any{
		"projectKey": "DSP",
	})

	assert.Equal(t, "/rest/api/3/search/jql", captured.path)
	assert.Equal(t, "project = DSP ORDER BY created DESC", captured.query["jql"][0])
	assert.Equal(t, "50", captured.query["maxResults"][0])
}

func TestListJiraIssues_RejectsLowercaseKey(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, `{}`)
	result := d.Dispatch(context.Background(), "list_jira_issues", map[string]any{
		"projectKey": "dsp",
	})
	assert.Contains(t, resultText(t, result), "Validation Error: ")
}

func TestGetJiraIssue(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusOK, `{"key":"DSP-123"}`)
	result := d.Dispatch(context.Background(), "get_jira_issue", map[string]any{
		"issueKey": "DSP-123",
	})
	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "/rest/api/3/issue/DSP-123", captured.path)
	assert.JSONEq(t, `{"key":"DSP-123"}`, resultText(t, result))
}

func TestGetJiraIssue_InvalidKey(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, `{}`)
	result := d.Dispatch(context.Background(), "get_jira_issue", map[string]any{
		"issueKey": "DSP/123",
	})
	assert.Contains(t, resultText(t, result), "Validation Error: invalid issue key format")
}

func TestGetJiraComments(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusOK, `{"comments":[]}`)
	d.Dispatch(context.Background(), "get_jira_comments", map[string]any{
		"issueKey": "DSP-123",
	})
	assert.Equal(t, "/rest/api/3/issue/DSP-123/comment", captured.path)
}

func TestGetJiraTransitions(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusOK, `{"transitions":[]}`)
	d.Dispatch(context.Background(), "get_jira_transitions", map[string]any{
		"issueKey": "DSP-123",
	})
	assert.Equal(t, "/rest/api/3/issue/DSP-123/transitions", captured.path)
}

func TestGetJiraProjects(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusOK, `[{"key":"DSP"}]`)
	result := d.Dispatch(context.Background(), "get_jira_projects", map[string]any{})
	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "/rest/api/3/project", captured.path)
	assert.JSONEq(t, `[{"key":"DSP"}]`, resultText(t, result))
}

func TestCreateJiraIssue_WithDescription(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusCreated, `{"key":"DSP-125"}`)
	d.Dispatch(context.Background(), "create_jira_issue", map[string]any{
		"projectKey":  "DSP",
		"summary":     "T",
		"issueType":   "Task",
		"description": "Para1\n\nPara2",
	})

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/rest/api/3/issue", captured.path)

	fields := captured.body["fields"].(map[string]any)
	assert.Equal(t, "T", fields["summary"])
	assert.Equal(t, map[string]any{"key": "DSP"}, fields["project"])
	assert.Equal(t, map[string]any{"name": "Task"}, fields["issuetype"])

	description := fields["description"].(map[string]any)
	assert.Equal(t, float64(1), description["version"])
	assert.Equal(t, "doc", description["type"])
	assert.Len(t, description["content"], 2)
}

func TestCreateJiraIssue_NoDescription(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusCreated, `{"key":"DSP-126"}`)
	d.Dispatch(context.Background(), "create_jira_issue", map[string]any{
		"projectKey": "DSP",
		"summary":    "T",
		"issueType":  "Bug",
	})
	fields := captured.body["fields"].(map[string]any)
	assert.NotContains(t, fields, "description")
}

func TestCreateJiraIssue_MissingRequiredFields(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, `{}`)
	result := d.Dispatch(context.Background(), "create_jira_issue", map[string]any{
		"summary": "T",
	})
	text := resultText(t, result)
	assert.Contains(t, text, "Validation Error: missing required arguments: ")
	assert.Contains(t, text, "projectKey")
	assert.Contains(t, text, "issueType")
}

func TestAddJiraComment(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusCreated, `{"id":"10001"}`)
	d.Dispatch(context.Background(), "add_jira_comment", map[string]any{
		"issueKey": "DSP-123",
		"comment":  "First\n\nSecond",
	})

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/rest/api/3/issue/DSP-123/comment", captured.path)

	body := captured.body["body"].(map[string]any)
	assert.Equal(t, "doc", body["type"])
	assert.Len(t, body["content"], 2)
}

func TestAddJiraComment_MissingFields(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, `{}`)
	result := d.Dispatch(context.Background(), "add_jira_comment", map[string]any{})
	assert.Contains(t, resultText(t, result), "Validation Error: missing required arguments: issueKey, comment")
}

func TestUpdateJiraIssue(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusNoContent, ``)
	result := d.Dispatch(context.Background(), "update_jira_issue", map[string]any{
		"issueKey": "DSP-123",
		"summary":  "New summary",
	})

	assert.Equal(t, http.MethodPut, captured.method)
	assert.Equal(t, "/rest/api/3/issue/DSP-123", captured.path)
	fields := captured.body["fields"].(map[string]any)
	assert.Equal(t, "New summary", fields["summary"])

	assert.Equal(t, "Issue DSP-123 updated successfully", resultText(t, result))
}

func TestUpdateJiraIssue_NoFields(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, `{}`)
	result := d.Dispatch(context.Background(), "update_jira_issue", map[string]any{
		"issueKey": "DSP-123",
	})
	assert.Contains(t, resultText(t, result), "Validation Error: at least one field (summary or description) must be provided")
}

func TestTransitionJiraIssue(t *testing.T) {
	d, captured := newTestDispatcher(t, http.StatusNoContent, ``)
	result := d.Dispatch(context.Background(), "transition_jira_issue", map[string]any{
		"issueKey":     "DSP-123",
		"transitionId": "31",
	})

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/rest/api/3/issue/DSP-123/transitions", captured.path)
	transition := captured.body["transition"].(map[string]any)
	assert.Equal(t, "31", transition["id"])

	assert.Equal(t, "Issue DSP-123 transitioned successfully", resultText(t, result))
}

func TestTransitionJiraIssue_MissingFields(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, `{}`)
	result := d.Dispatch(context.Background(), "transition_jira_issue", map[string]any{
		"issueKey": "DSP-123",
	})
	assert.Contains(t, resultText(t, result), "Validation Error: missing required arguments: transitionId")
}
