// Package jira owns the authenticated, pooled HTTP session against the
// Jira REST API and translates HTTP responses and failures into parsed
// JSON values or classified errors.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/dnscache"
	"go.uber.org/zap"

	"jira_mcp/internal/errs"
	"jira_mcp/internal/logger"
	"jira_mcp/internal/sanitize"
)

const (
	apiPrefix = "/rest/api/3/"

	requestTimeout = 30 * time.Second
	connectTimeout = 10 * time.Second

	maxIdleConnections    = 10
	maxConnectionsPerHost = 5
	dnsCacheTTL           = 300 * time.Second
)

// Client is the Jira REST API client. It lazily creates one pooled HTTP
// session on first use and reuses it across calls; Close releases the
// session and the next Execute recreates it.
type Client struct {
	baseURL  string
	username string
	apiToken string

	mu      sync.Mutex
	session *http.Client
	dnsStop chan struct{}
}

// NewClient creates a new Jira API client. The session itself is not
// created until the first request needs it.
func NewClient(baseURL, username, apiToken string) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		apiToken: apiToken,
	}
}

// httpSession returns the shared HTTP session, creating it under the lock
// on first use or after Close. Creation is guarded so concurrent first
// callers cannot race two sessions into existence.
func (c *Client) httpSession() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session
	}

	// DNS results are cached for five minutes and refreshed in the
	// background for as long as the session lives.
	resolver := &dnscache.Resolver{}
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(dnsCacheTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				resolver.Refresh(true)
			case <-stop:
				return
			}
		}
	}()

	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		MaxIdleConns:    maxIdleConnections,
		MaxConnsPerHost: maxConnectionsPerHost,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			if lastErr == nil {
				lastErr = fmt.Errorf("no addresses resolved for %s", host)
			}
			return nil, lastErr
		},
	}

	c.session = &http.Client{
		Timeout:   requestTimeout,
		Transport: transport,
	}
	c.dnsStop = stop

	logger.GetLogger().Debug("created new HTTP session with connection pooling")
	return c.session
}

// Close releases the pooled connections and clears the session so the next
// Execute call recreates it. Safe to call when no session exists and safe
// to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return
	}
	c.session.CloseIdleConnections()
	c.session = nil
	close(c.dnsStop)
	c.dnsStop = nil
	logger.GetLogger().Debug("closed HTTP session")
}

// Execute issues an HTTP request against <base URL>/rest/api/3/<endpoint>
// and returns the parsed JSON response. Query parameter values that are
// maps or slices are JSON-encoded, other values are stringified, nil values
// are dropped. The body is omitted entirely when empty. Every failure is
// classified: InvalidInput for a bad endpoint, Upstream for HTTP >= 400 or
// a malformed body, Transport for connection faults and timeouts, Internal
// for anything unexpected.
func (c *Client) Execute(ctx context.Context, endpoint, method string, body []byte, queryParams map[string]any) (any, error) {
	endpoint, err := sanitize.Endpoint(endpoint)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger()

	reqURL := c.baseURL + apiPrefix + endpoint
	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			if value == nil {
				continue
			}
			encoded, err := encodeQueryValue(value)
			if err != nil {
				return nil, errs.Wrap(errs.Internal, err, "failed to encode query parameter %s: %v", key, err)
			}
			values.Set(key, encoded)
		}
		if len(values) > 0 {
			reqURL += "?" + values.Encode()
		}
	}

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "failed to create request: %v", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Debug("executing request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
	)

	resp, err := c.httpSession().Do(req)
	if err != nil {
		classified := classifyTransportError(err)
		log.Error("request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(classified),
		)
		return nil, classified
	}
	defer resp.Body.Close()

	// A failed body read is not fatal: continue to status handling with
	// empty text so error responses are still classified by status code.
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read response body", zap.Error(err))
		text = nil
	}

	if resp.StatusCode >= 400 {
		upstreamErr := upstreamError(resp.StatusCode, text)
		log.Error("upstream error",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(upstreamErr),
		)
		return nil, upstreamErr
	}

	// Empty response bodies (204 and friends) yield an empty object
	// rather than an error.
	if strings.TrimSpace(string(text)) == "" {
		return map[string]any{}, nil
	}

	var parsed any
	if err := json.Unmarshal(text, &parsed); err != nil {
		redacted := sanitize.RedactForLogging(string(text), sanitize.DefaultMaxLogLength)
		parseErr := errs.Wrap(errs.Upstream, err, "failed to parse JSON response: %v. Response: %s", err, redacted)
		log.Error("malformed upstream response",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(parseErr),
		)
		return nil, parseErr
	}

	log.Debug("request successful",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
	)
	return parsed, nil
}

// encodeQueryValue renders a query parameter value: maps and slices as
// their JSON text, everything else via fmt.
func encodeQueryValue(value any) (string, error) {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		b, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(value), nil
	}
}

// classifyTransportError maps a round-trip failure to the error taxonomy.
// Timeouts (the 30-second budget elapsing) get a fixed message; every
// other connection-level fault carries the underlying error text.
func classifyTransportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return errs.Wrap(errs.Transport, err, "Request timeout after 30 seconds")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.Transport, err, "Request timeout after 30 seconds")
	}
	return errs.Wrap(errs.Transport, err, "HTTP client error: %v", err)
}

// upstreamError builds the classified error for an HTTP >= 400 response.
// Jira reports failures either as an "errorMessages" array or an "errors"
// object depending on the endpoint; both are redacted before they can end
// up in logs or tool output. Unparseable bodies are redacted raw.
func upstreamError(status int, body []byte) error {
	msg := fmt.Sprintf("HTTP %d error", status)

	var parsed map[string]any
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		if rawMessages, ok := parsed["errorMessages"].([]any); ok {
			parts := make([]string, 0, len(rawMessages))
			for _, m := range rawMessages {
				parts = append(parts, sanitize.RedactForLogging(m, sanitize.DefaultMaxLogLength))
			}
			return errs.New(errs.Upstream, "%s: %s", msg, strings.Join(parts, ", "))
		}
		if errorsObj, ok := parsed["errors"]; ok {
			return errs.New(errs.Upstream, "%s: %s", msg, sanitize.RedactForLogging(errorsObj, sanitize.DefaultMaxLogLength))
		}
	}
	return errs.New(errs.Upstream, "%s: %s", msg, sanitize.RedactForLogging(string(body), sanitize.DefaultMaxLogLength))
}
