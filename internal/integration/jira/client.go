package jira

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/integration/transport"
	"github.com/nhle/itsm-sync/internal/model"
)

// Config holds configuration for creating a Jira Client.
type Config struct {
	// BaseURL is the REST API v3 root. When empty it is derived from
	// Domain as https://<domain>.atlassian.net/rest/api/3.
	BaseURL string
	Domain  string

	// Email and APIToken authenticate with HTTP Basic. Required.
	Email    string
	APIToken string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// BaseURLForDomain returns the REST API v3 root of a Jira Cloud site.
func BaseURLForDomain(domain string) string {
	return "https://" + domain + ".atlassian.net/rest/api/3"
}

// BrowseURL returns the web page of an issue on a Jira Cloud site.
func BrowseURL(domain, key string) string {
	return "https://" + domain + ".atlassian.net/browse/" + key
}

// Client is a thin HTTP client for the Jira Cloud REST API v3.
type Client struct {
	rest *transport.Client
}

// NewClient creates a Jira client. No network I/O happens here.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Domain == "" {
			return nil, &integration.MissingSettingError{Type: model.IntegrationJira, Key: "domain"}
		}
		baseURL = BaseURLForDomain(cfg.Domain)
	}
	if cfg.Email == "" {
		return nil, &integration.MissingSettingError{Type: model.IntegrationJira, Key: "email"}
	}
	if cfg.APIToken == "" {
		return nil, &integration.MissingSettingError{Type: model.IntegrationJira, Key: "api_token"}
	}

	return &Client{
		rest: transport.New(transport.Config{
			System:        model.IntegrationJira,
			BaseURL:       baseURL,
			Authorization: transport.BasicAuth(cfg.Email, cfg.APIToken),
			HTTPClient:    cfg.HTTPClient,
			Logger:        cfg.Logger,
		}),
	}, nil
}

func issuePath(key string) string {
	return "/issue/" + url.PathEscape(key)
}

func priorityRef(name string) *Priority {
	if name == "" {
		return nil
	}
	return &Priority{Name: name}
}

// CreateIssue creates an issue. The description is sent as ADF.
func (c *Client) CreateIssue(ctx context.Context, in IssueInput) (*CreatedIssue, error) {
	body := struct {
		Fields createFields `json:"fields"`
	}{
		Fields: createFields{
			Project:     Project{Key: in.ProjectKey},
			IssueType:   idRef{ID: in.IssueTypeID},
			Summary:     in.Summary,
			Description: NewDocument(in.Description),
			Priority:    priorityRef(in.Priority),
		},
	}

	var created CreatedIssue
	raw, err := c.rest.Do(ctx, transport.Request{
		Operation: "create issue",
		Target:    in.ProjectKey,
		Method:    http.MethodPost,
		Path:      "/issue",
		Body:      body,
	}, &created)
	if err != nil {
		return nil, err
	}
	created.Raw = raw
	return &created, nil
}

// GetIssue fetches an issue by key or id.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	var issue Issue
	raw, err := c.rest.Do(ctx, transport.Request{
		Operation: "get issue",
		Target:    key,
		Method:    http.MethodGet,
		Path:      issuePath(key),
	}, &issue)
	if err != nil {
		return nil, err
	}
	issue.Raw = raw
	return &issue, nil
}

// UpdateIssue overwrites summary, description and priority. Jira answers
// 204 with no body, so nothing is returned on success.
func (c *Client) UpdateIssue(ctx context.Context, key string, in IssueInput) error {
	body := struct {
		Fields updateFields `json:"fields"`
	}{
		Fields: updateFields{
			Summary:     in.Summary,
			Description: NewDocument(in.Description),
			Priority:    priorityRef(in.Priority),
		},
	}
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "update issue",
		Target:    key,
		Method:    http.MethodPut,
		Path:      issuePath(key),
		Body:      body,
	}, nil)
	return err
}

// AddComment posts a comment with an ADF body.
func (c *Client) AddComment(ctx context.Context, key, text string) (*Comment, error) {
	body := struct {
		Body Document `json:"body"`
	}{Body: NewDocument(text)}

	var comment Comment
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "add comment",
		Target:    key,
		Method:    http.MethodPost,
		Path:      issuePath(key) + "/comment",
		Body:      body,
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments returns the first page of comments on an issue.
func (c *Client) ListComments(ctx context.Context, key string) ([]Comment, error) {
	var page CommentPage
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "list comments",
		Target:    key,
		Method:    http.MethodGet,
		Path:      issuePath(key) + "/comment",
	}, &page)
	if err != nil {
		return nil, err
	}
	return page.Comments, nil
}

// ListIssueTypes returns every issue type visible to the user.
func (c *Client) ListIssueTypes(ctx context.Context) ([]IssueType, error) {
	var types []IssueType
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "list issue types",
		Method:    http.MethodGet,
		Path:      "/issuetype",
	}, &types)
	if err != nil {
		return nil, err
	}
	return types, nil
}

// Myself returns the authenticated user. Used to validate credentials.
func (c *Client) Myself(ctx context.Context) (*User, error) {
	var user User
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "get current user",
		Method:    http.MethodGet,
		Path:      "/myself",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
