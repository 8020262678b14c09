// Package sanitize validates and transforms untrusted tool inputs before
// they reach the Jira API, and redacts sensitive fields from data that is
// about to be logged. All functions are pure: no I/O, no state.
package sanitize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"jira_mcp/internal/errs"
)

var (
	endpointPattern   = regexp.MustCompile(`^[a-zA-Z0-9/_-]+$`)
	projectKeyPattern = regexp.MustCompile(`^[A-Z0-9_]{2,10}$`)
	issueKeyPattern   = regexp.MustCompile(`^[A-Z][A-Z0-9]+-\d+$`)
)

// jqlForbiddenChars are shell metacharacters that have no business inside a
// JQL query and are the usual carriers of injection payloads.
var jqlForbiddenChars = []string{";", "|", "&", "$", "`", "\n", "\r", "\x00"}

// jqlForbiddenPatterns are comment sequences that could hide a malicious
// query tail from review.
var jqlForbiddenPatterns = []string{"--", "/*", "*/"}

// sensitiveFields is matched case-insensitively as a substring of map keys
// during redaction. Lowercasing the key also covers camelCase variants
// such as apiToken, accessToken and clientSecret.
var sensitiveFields = []string{
	"password",
	"token",
	"api_key",
	"apikey",
	"secret",
	"authorization",
	"auth",
	"credential",
	"privatekey",
}

// RedactedMarker replaces values of sensitive fields in log output.
const RedactedMarker = "***REDACTED***"

// DefaultMaxLogLength is the truncation limit applied by RedactForLogging
// when callers have no reason to pick another one.
const DefaultMaxLogLength = 200

// Endpoint validates an API endpoint path. Only alphanumerics, hyphens,
// underscores and forward slashes are allowed; relative segments and
// absolute paths are rejected to prevent path traversal.
func Endpoint(endpoint string) (string, error) {
	if !endpointPattern.MatchString(endpoint) {
		return "", errs.New(errs.InvalidInput, "invalid endpoint format: %s", endpoint)
	}
	if strings.Contains(endpoint, "..") || strings.HasPrefix(endpoint, "/") {
		return "", errs.New(errs.InvalidInput, "invalid endpoint path: %s", endpoint)
	}
	return endpoint, nil
}

// JQL validates a JQL query, rejecting shell metacharacters and comment
// patterns. The query passes through unmodified; no escaping is applied.
// Error messages echo only the offending character or pattern, never the
// query itself, so rejected content is not re-logged.
func JQL(jql string) (string, error) {
	if jql == "" {
		return "", errs.New(errs.InvalidInput, "JQL query must be a non-empty string")
	}
	for _, c := range jqlForbiddenChars {
		if strings.Contains(jql, c) {
			return "", errs.New(errs.InvalidInput, "invalid character in JQL query: %q", c)
		}
	}
	for _, p := range jqlForbiddenPatterns {
		if strings.Contains(jql, p) {
			return "", errs.New(errs.InvalidInput, "suspicious pattern detected in JQL query: %s", p)
		}
	}
	return jql, nil
}

// ProjectKey validates a Jira project key: 2-10 uppercase letters, digits
// or underscores.
func ProjectKey(key string) (string, error) {
	if !projectKeyPattern.MatchString(key) {
		return "", errs.New(errs.InvalidInput, "invalid project key format: %s", key)
	}
	return key, nil
}

// IssueKey validates a Jira issue key such as DSP-9050: a letter, then
// letters or digits, a hyphen, then digits.
func IssueKey(key string) (string, error) {
	if !issueKeyPattern.MatchString(key) {
		return "", errs.New(errs.InvalidInput, "invalid issue key format: %s", key)
	}
	return key, nil
}

// RequireArguments checks that every named argument is present and truthy,
// reporting all missing names at once rather than just the first.
func RequireArguments(args map[string]any, names ...string) error {
	var missing []string
	for _, name := range names {
		if isFalsy(args[name]) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errs.New(errs.InvalidInput, "missing required arguments: %s", strings.Join(missing, ", "))
	}
	return nil
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// RedactForLogging renders data as a log-safe string. Values under map keys
// that match the sensitive-name set are replaced recursively, containers
// are rendered as JSON, scalars with fmt. Redaction always runs before
// truncation so a secret can never survive inside the truncated prefix.
func RedactForLogging(data any, maxLength int) string {
	s := stringify(redactValue(data))
	if maxLength > 0 && len(s) > maxLength {
		s = s[:maxLength] + "...[truncated]"
	}
	return s
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if isSensitiveKey(k) {
				out[k] = RedactedMarker
			} else {
				out[k] = redactValue(val)
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = redactValue(item)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveFields {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}
