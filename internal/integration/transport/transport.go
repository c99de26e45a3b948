// Package transport is the HTTP plumbing shared by the tracker clients:
// one request per call, JSON in and out, and every failure surfaced as an
// *integration.ExternalAPIError. Requests are never retried.
package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/model"
)

// DefaultTimeout bounds a single request when the caller does not supply
// its own *http.Client.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// Config holds everything needed to build a Client.
type Config struct {
	// System tags errors and log lines.
	System model.IntegrationType

	// BaseURL is prefixed to every request path.
	BaseURL string

	// Authorization is the full Authorization header value.
	Authorization string

	// Headers are sent on every request (Accept, API version pins).
	Headers map[string]string

	// HTTPClient defaults to a client with DefaultTimeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a thin authenticated JSON client for one external API.
// It holds only immutable configuration and is safe for concurrent use.
type Client struct {
	system     model.IntegrationType
	baseURL    string
	authHeader string
	headers    map[string]string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client. It performs no network I/O.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	return &Client{
		system:     cfg.System,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: cfg.Authorization,
		headers:    headers,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Request describes one call against the external API.
type Request struct {
	// Operation names the call for errors and logs ("create issue").
	Operation string

	// Target is the addressed item or container.
	Target string

	Method string
	Path   string

	// Body is JSON-encoded when non-nil.
	Body any

	// ContentType overrides application/json for the request body.
	ContentType string
}

// errorBody covers the error shapes of all three trackers: GitHub and
// Azure DevOps use "message", Jira uses errorMessages plus a field map.
type errorBody struct {
	Message       string            `json:"message"`
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// Do performs the request and, when result is non-nil and the response
// has a body, decodes it into result. The raw body is always returned.
func (c *Client) Do(ctx context.Context, req Request, result any) (json.RawMessage, error) {
	raw, err := c.do(ctx, req, result)
	if err != nil {
		c.logger.ErrorContext(ctx, "external api call failed",
			"system", c.system,
			"operation", req.Operation,
			"target", req.Target,
			"method", req.Method,
			"path", req.Path,
			"error", err,
		)
		return nil, err
	}
	return raw, nil
}

// do is the core HTTP method that builds the request, sets auth and
// handles JSON (de)serialization.
func (c *Client) do(ctx context.Context, req Request, result any) (json.RawMessage, error) {
	apiErr := func(status int, message string, cause error) *integration.ExternalAPIError {
		return &integration.ExternalAPIError{
			System:     c.system,
			Operation:  req.Operation,
			Target:     req.Target,
			StatusCode: status,
			Message:    message,
			Err:        cause,
		}
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apiErr(0, "", fmt.Errorf("marshaling request body: %w", err))
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, bodyReader)
	if err != nil {
		return nil, apiErr(0, "", fmt.Errorf("creating request: %w", err))
	}

	httpReq.Header.Set("Authorization", c.authHeader)
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apiErr(0, "", fmt.Errorf("executing request %s %s: %w", req.Method, req.Path, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apiErr(resp.StatusCode, "", fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiErr(resp.StatusCode, errorMessage(respBody), nil)
	}

	// No content to parse (e.g. Jira's 204 on update).
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, apiErr(resp.StatusCode, "malformed response",
				fmt.Errorf("unmarshaling response from %s %s: %w", req.Method, req.Path, err))
		}
	}

	return json.RawMessage(respBody), nil
}

// errorMessage extracts a readable message from an error response body,
// falling back to the (trimmed) raw text.
// maxMessageLen caps the bytes of a non-JSON error body kept in a message.
const maxMessageLen = 512

func errorMessage(body []byte) string {
	var parsed errorBody
	if json.Unmarshal(body, &parsed) == nil {
		var parts []string
		if parsed.Message != "" {
			parts = append(parts, parsed.Message)
		}
		parts = append(parts, parsed.ErrorMessages...)
		fields := make([]string, 0, len(parsed.Errors))
		for field := range parsed.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			parts = append(parts, field+": "+parsed.Errors[field])
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxMessageLen {
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return text
}

// BasicAuth builds an HTTP Basic Authorization header value.
func BasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
