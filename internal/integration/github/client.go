package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/integration/transport"
	"github.com/nhle/itsm-sync/internal/model"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// apiVersion pins the REST API version header.
const apiVersion = "2022-11-28"

// Config holds configuration for creating a GitHub Client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL. GitHub Enterprise installs use
	// https://<host>/api/v3.
	BaseURL string

	// Token is a personal access token with issues read/write. Required.
	Token string

	// Owner and Repo name the repository issues are filed in. Required.
	Owner string
	Repo  string

	// Assignees are added to every created issue.
	Assignees []string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client files and reads issues in a single repository.
type Client struct {
	rest      *transport.Client
	owner     string
	repo      string
	assignees []string
}

// NewClient creates a client for one repository. No network I/O happens
// here.
func NewClient(cfg Config) (*Client, error) {
	for _, required := range []struct{ key, value string }{
		{"token", cfg.Token},
		{"owner", cfg.Owner},
		{"repo", cfg.Repo},
	} {
		if required.value == "" {
			return nil, &integration.MissingSettingError{Type: model.IntegrationGitHub, Key: required.key}
		}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		rest: transport.New(transport.Config{
			System:        model.IntegrationGitHub,
			BaseURL:       baseURL,
			Authorization: "token " + cfg.Token,
			Headers: map[string]string{
				"Accept":               "application/vnd.github+json",
				"X-GitHub-Api-Version": apiVersion,
			},
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		}),
		owner:     cfg.Owner,
		repo:      cfg.Repo,
		assignees: append([]string(nil), cfg.Assignees...),
	}, nil
}

// Repo returns "owner/repo".
func (c *Client) Repo() string {
	return c.owner + "/" + c.repo
}

func (c *Client) repoPath() string {
	return "/repos/" + url.PathEscape(c.owner) + "/" + url.PathEscape(c.repo)
}

func (c *Client) issueTarget(number int) string {
	return fmt.Sprintf("%s#%d", c.Repo(), number)
}

// CreateIssue opens a new issue with the configured assignees.
func (c *Client) CreateIssue(ctx context.Context, fields IssueFields) (*Issue, error) {
	var issue Issue
	raw, err := c.rest.Do(ctx, transport.Request{
		Operation: "create issue",
		Target:    c.Repo(),
		Method:    http.MethodPost,
		Path:      c.repoPath() + "/issues",
		Body: CreateIssueRequest{
			Title:     fields.Title,
			Body:      fields.Body,
			Labels:    fields.Labels,
			Assignees: c.assignees,
		},
	}, &issue)
	if err != nil {
		return nil, err
	}
	issue.Raw = raw
	return &issue, nil
}

// GetIssue retrieves a single issue by number.
func (c *Client) GetIssue(ctx context.Context, number int) (*Issue, error) {
	var issue Issue
	raw, err := c.rest.Do(ctx, transport.Request{
		Operation: "get issue",
		Target:    c.issueTarget(number),
		Method:    http.MethodGet,
		Path:      fmt.Sprintf("%s/issues/%d", c.repoPath(), number),
	}, &issue)
	if err != nil {
		return nil, err
	}
	issue.Raw = raw
	return &issue, nil
}

// UpdateIssue overwrites title, body and labels, and sets the state.
func (c *Client) UpdateIssue(ctx context.Context, number int, fields IssueFields, state string) (*Issue, error) {
	req := UpdateIssueRequest{
		Title:  &fields.Title,
		Body:   &fields.Body,
		Labels: fields.Labels,
	}
	if state != "" {
		req.State = &state
	}

	var issue Issue
	raw, err := c.rest.Do(ctx, transport.Request{
		Operation: "update issue",
		Target:    c.issueTarget(number),
		Method:    http.MethodPatch,
		Path:      fmt.Sprintf("%s/issues/%d", c.repoPath(), number),
		Body:      req,
	}, &issue)
	if err != nil {
		return nil, err
	}
	issue.Raw = raw
	return &issue, nil
}

// CreateComment comments on an issue.
func (c *Client) CreateComment(ctx context.Context, number int, body string) (*Comment, error) {
	var comment Comment
	request := struct {
		Body string `json:"body"`
	}{Body: body}
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "create comment",
		Target:    c.issueTarget(number),
		Method:    http.MethodPost,
		Path:      fmt.Sprintf("%s/issues/%d/comments", c.repoPath(), number),
		Body:      request,
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments returns the first page (up to 100) of comments on an issue.
func (c *Client) ListComments(ctx context.Context, number int) ([]Comment, error) {
	var comments []Comment
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "list comments",
		Target:    c.issueTarget(number),
		Method:    http.MethodGet,
		Path:      fmt.Sprintf("%s/issues/%d/comments?per_page=100", c.repoPath(), number),
	}, &comments)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// GetRepository fetches the configured repository; used to validate the
// token and repository access.
func (c *Client) GetRepository(ctx context.Context) (*Repository, error) {
	var repo Repository
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "get repository",
		Target:    c.Repo(),
		Method:    http.MethodGet,
		Path:      c.repoPath(),
	}, &repo)
	if err != nil {
		return nil, err
	}
	return &repo, nil
}
