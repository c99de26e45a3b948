package azuredevops

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/integration/transport"
	"github.com/nhle/itsm-sync/internal/model"
)

// DefaultBaseURL is the Azure DevOps Services host. Azure DevOps Server
// installations override it with their collection host.
const DefaultBaseURL = "https://dev.azure.com"

const (
	apiVersion         = "7.0"
	commentsAPIVersion = "7.0-preview.3"

	// jsonPatchContentType is required by the work item create/update endpoints.
	jsonPatchContentType = "application/json-patch+json"
)

// Config holds configuration for creating an Azure DevOps Client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL. The organization is appended.
	BaseURL string

	// Organization is the Azure DevOps organization name. Required.
	Organization string

	// PAT is a personal access token with work item read/write scope.
	// Required.
	PAT string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the Azure DevOps work item tracking REST API.
type Client struct {
	rest *transport.Client
}

// NewClient creates a client for one organization. Authentication is HTTP
// Basic with an empty user name and the PAT as password. No network I/O
// happens here.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Organization == "" {
		return nil, &integration.MissingSettingError{Type: model.IntegrationAzureDevOps, Key: "org"}
	}
	if cfg.PAT == "" {
		return nil, &integration.MissingSettingError{Type: model.IntegrationAzureDevOps, Key: "pat"}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		rest: transport.New(transport.Config{
			System:        model.IntegrationAzureDevOps,
			BaseURL:       baseURL + "/" + url.PathEscape(cfg.Organization),
			Authorization: transport.BasicAuth("", cfg.PAT),
			HTTPClient:    cfg.HTTPClient,
			Logger:        cfg.Logger,
		}),
	}, nil
}

// patchDocument wraps each field into a JSON-patch operation.
func patchDocument(op string, fields []Field) []PatchOperation {
	ops := make([]PatchOperation, 0, len(fields))
	for _, f := range fields {
		ops = append(ops, PatchOperation{
			Op:    op,
			Path:  "/fields/" + f.Name,
			Value: f.Value,
		})
	}
	return ops
}

func workItemPath(project string, id int) string {
	return fmt.Sprintf("/%s/_apis/wit/workitems/%d?api-version=%s",
		url.PathEscape(project), id, apiVersion)
}

// CreateWorkItem creates a work item of the given type. Every field is
// sent as an "add" operation.
func (c *Client) CreateWorkItem(
	ctx context.Context,
	project string,
	workItemType string,
	fields []Field,
) (*WorkItem, error) {
	var item WorkItem
	raw, err := c.rest.Do(ctx, transport.Request{
		Operation: "create work item",
		Target:    project + "/" + workItemType,
		Method:    http.MethodPost,
		Path: fmt.Sprintf("/%s/_apis/wit/workitems/$%s?api-version=%s",
			url.PathEscape(project), url.PathEscape(workItemType), apiVersion),
		Body:        patchDocument("add", fields),
		ContentType: jsonPatchContentType,
	}, &item)
	if err != nil {
		return nil, err
	}
	item.Raw = raw
	return &item, nil
}

// GetWorkItem fetches a work item by id.
func (c *Client) GetWorkItem(ctx context.Context, project string, id int) (*WorkItem, error) {
	var item WorkItem
	raw, err := c.rest.Do(ctx, transport.Request{
		Operation: "get work item",
		Target:    strconv.Itoa(id),
		Method:    http.MethodGet,
		Path:      workItemPath(project, id),
	}, &item)
	if err != nil {
		return nil, err
	}
	item.Raw = raw
	return &item, nil
}

// UpdateWorkItem overwrites the given fields with "replace" operations.
func (c *Client) UpdateWorkItem(
	ctx context.Context,
	project string,
	id int,
	fields []Field,
) (*WorkItem, error) {
	var item WorkItem
	raw, err := c.rest.Do(ctx, transport.Request{
		Operation:   "update work item",
		Target:      strconv.Itoa(id),
		Method:      http.MethodPatch,
		Path:        workItemPath(project, id),
		Body:        patchDocument("replace", fields),
		ContentType: jsonPatchContentType,
	}, &item)
	if err != nil {
		return nil, err
	}
	item.Raw = raw
	return &item, nil
}

func commentsPath(project string, id int) string {
	return fmt.Sprintf("/%s/_apis/wit/workItems/%d/comments?api-version=%s",
		url.PathEscape(project), id, commentsAPIVersion)
}

// AddComment posts a discussion comment on a work item.
func (c *Client) AddComment(ctx context.Context, project string, id int, text string) (*Comment, error) {
	var comment Comment
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "add comment",
		Target:    strconv.Itoa(id),
		Method:    http.MethodPost,
		Path:      commentsPath(project, id),
		Body:      map[string]string{"text": text},
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments returns the discussion comments of a work item.
func (c *Client) ListComments(ctx context.Context, project string, id int) ([]Comment, error) {
	var list CommentList
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "list comments",
		Target:    strconv.Itoa(id),
		Method:    http.MethodGet,
		Path:      commentsPath(project, id),
	}, &list)
	if err != nil {
		return nil, err
	}
	return list.Comments, nil
}

// ListWorkItemTypes returns the work item types defined in a project.
func (c *Client) ListWorkItemTypes(ctx context.Context, project string) ([]WorkItemType, error) {
	var list WorkItemTypeList
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "list work item types",
		Target:    project,
		Method:    http.MethodGet,
		Path: fmt.Sprintf("/%s/_apis/wit/workitemtypes?api-version=%s",
			url.PathEscape(project), apiVersion),
	}, &list)
	if err != nil {
		return nil, err
	}
	return list.Value, nil
}

// GetProject fetches a project; used to validate credentials.
func (c *Client) GetProject(ctx context.Context, project string) (*Project, error) {
	var p Project
	_, err := c.rest.Do(ctx, transport.Request{
		Operation: "get project",
		Target:    project,
		Method:    http.MethodGet,
		Path: fmt.Sprintf("/_apis/projects/%s?api-version=%s",
			url.PathEscape(project), apiVersion),
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
