package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/integration/azuredevops"
	"github.com/nhle/itsm-sync/internal/integration/github"
	"github.com/nhle/itsm-sync/internal/integration/jira"
	"github.com/nhle/itsm-sync/internal/model"
)

// parseNumericID coerces an external id for trackers that address items
// by a positive integer.
func parseNumericID(typ model.IntegrationType, externalID string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(externalID))
	if err != nil {
		return 0, &integration.InvalidExternalIDError{Type: typ, ID: externalID, Err: err}
	}
	if id <= 0 {
		return 0, &integration.InvalidExternalIDError{
			Type: typ, ID: externalID, Err: errors.New("must be a positive integer"),
		}
	}
	return id, nil
}

// requireKey rejects a blank issue key before it turns into a request
// against the collection endpoint.
func requireKey(typ model.IntegrationType, externalID string) (string, error) {
	key := strings.TrimSpace(externalID)
	if key == "" {
		return "", &integration.InvalidExternalIDError{Type: typ, ID: externalID, Err: errors.New("empty key")}
	}
	return key, nil
}

// logInbound records an external value the reverse mapper did not
// recognize and replaced with its default.
func logInbound(ctx context.Context, logger *slog.Logger, typ model.IntegrationType, field, value string) {
	logger.DebugContext(ctx, "mapping fallback applied",
		"integration", typ, "field", field, "value", value, "direction", "inbound")
}

// --- Azure DevOps ---

type azureHandler struct {
	client       *azuredevops.Client
	project      string
	workItemType string
	logger       *slog.Logger
}

func newAzureHandler(s integration.Settings, hc *http.Client, logger *slog.Logger) (*azureHandler, error) {
	org, err := s.Required("org")
	if err != nil {
		return nil, err
	}
	project, err := s.Required("project")
	if err != nil {
		return nil, err
	}
	pat, err := s.Required("pat")
	if err != nil {
		return nil, err
	}
	client, err := azuredevops.NewClient(azuredevops.Config{
		BaseURL:      s.StringOr("base_url", azuredevops.DefaultBaseURL),
		Organization: org,
		PAT:          pat,
		HTTPClient:   hc,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	return &azureHandler{
		client:       client,
		project:      project,
		workItemType: s.StringOr("work_item_type", "Task"),
		logger:       logger,
	}, nil
}

func (h *azureHandler) external(ctx context.Context, w *azuredevops.WorkItem) *integration.ExternalTicket {
	if state := w.Fields.State; state != "" && !azuredevops.KnownState(state) {
		logInbound(ctx, h.logger, model.IntegrationAzureDevOps, "status", state)
	}
	if v := w.Fields.Priority; v != 0 && !azuredevops.KnownPriorityValue(v) {
		logInbound(ctx, h.logger, model.IntegrationAzureDevOps, "priority", strconv.Itoa(v))
	}
	t := azuredevops.MapWorkItemToTicket(*w)
	return &integration.ExternalTicket{
		Type:   model.IntegrationAzureDevOps,
		ID:     strconv.Itoa(w.ID),
		URL:    w.WebURL(),
		Ticket: &t,
		Native: w,
		Raw:    w.Raw,
	}
}

func (h *azureHandler) create(ctx context.Context, t model.Ticket) (*integration.ExternalTicket, error) {
	w, err := h.client.CreateWorkItem(ctx, h.project, h.workItemType, azuredevops.MapTicketToWorkItem(t))
	if err != nil {
		return nil, err
	}
	return h.external(ctx, w), nil
}

func (h *azureHandler) update(ctx context.Context, externalID string, t model.Ticket) (*integration.ExternalTicket, error) {
	id, err := parseNumericID(model.IntegrationAzureDevOps, externalID)
	if err != nil {
		return nil, err
	}
	w, err := h.client.UpdateWorkItem(ctx, h.project, id, azuredevops.MapTicketToWorkItem(t))
	if err != nil {
		return nil, err
	}
	return h.external(ctx, w), nil
}

func (h *azureHandler) get(ctx context.Context, externalID string) (*integration.ExternalTicket, error) {
	id, err := parseNumericID(model.IntegrationAzureDevOps, externalID)
	if err != nil {
		return nil, err
	}
	w, err := h.client.GetWorkItem(ctx, h.project, id)
	if err != nil {
		return nil, err
	}
	return h.external(ctx, w), nil
}

func (h *azureHandler) addComment(ctx context.Context, externalID, body string) (*integration.Comment, error) {
	id, err := parseNumericID(model.IntegrationAzureDevOps, externalID)
	if err != nil {
		return nil, err
	}
	c, err := h.client.AddComment(ctx, h.project, id, body)
	if err != nil {
		return nil, err
	}
	out := azureComment(*c)
	return &out, nil
}

func (h *azureHandler) listComments(ctx context.Context, externalID string) ([]integration.Comment, error) {
	id, err := parseNumericID(model.IntegrationAzureDevOps, externalID)
	if err != nil {
		return nil, err
	}
	comments, err := h.client.ListComments(ctx, h.project, id)
	if err != nil {
		return nil, err
	}
	out := make([]integration.Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, azureComment(c))
	}
	return out, nil
}

func azureComment(c azuredevops.Comment) integration.Comment {
	return integration.Comment{
		ID:        strconv.Itoa(c.ID),
		Author:    c.CreatedBy.DisplayName,
		Body:      c.Text,
		CreatedAt: c.CreatedDate,
	}
}

func (h *azureHandler) listItemTypes(ctx context.Context) ([]integration.ItemType, error) {
	types, err := h.client.ListWorkItemTypes(ctx, h.project)
	if err != nil {
		return nil, err
	}
	out := make([]integration.ItemType, 0, len(types))
	for _, wt := range types {
		out = append(out, integration.ItemType{
			ID:          wt.ReferenceName,
			Name:        wt.Name,
			Description: wt.Description,
		})
	}
	return out, nil
}

func (h *azureHandler) validate(ctx context.Context) error {
	_, err := h.client.GetProject(ctx, h.project)
	return err
}

// --- GitHub ---

type githubHandler struct {
	client *github.Client
	logger *slog.Logger
}

func newGitHubHandler(s integration.Settings, hc *http.Client, logger *slog.Logger) (*githubHandler, error) {
	client, err := github.NewClient(github.Config{
		BaseURL:    s.StringOr("base_url", github.DefaultBaseURL),
		Token:      s.String("token"),
		Owner:      s.String("owner"),
		Repo:       s.String("repo"),
		Assignees:  s.Strings("assignees"),
		HTTPClient: hc,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return &githubHandler{client: client, logger: logger}, nil
}

func (h *githubHandler) external(ctx context.Context, i *github.Issue) *integration.ExternalTicket {
	priority, status := github.UnmappedLabels(i.LabelNames())
	for _, l := range priority {
		logInbound(ctx, h.logger, model.IntegrationGitHub, "priority", l)
	}
	// A closed issue is CLOSED whatever its status labels say.
	if i.State != github.StateClosed {
		for _, l := range status {
			logInbound(ctx, h.logger, model.IntegrationGitHub, "status", l)
		}
	}
	t := github.MapIssueToTicket(*i)
	return &integration.ExternalTicket{
		Type:   model.IntegrationGitHub,
		ID:     strconv.Itoa(i.Number),
		URL:    i.HTMLURL,
		Ticket: &t,
		Native: i,
		Raw:    i.Raw,
	}
}

func (h *githubHandler) create(ctx context.Context, t model.Ticket) (*integration.ExternalTicket, error) {
	issue, err := h.client.CreateIssue(ctx, github.MapTicketToIssue(t))
	if err != nil {
		return nil, err
	}
	return h.external(ctx, issue), nil
}

func (h *githubHandler) update(ctx context.Context, externalID string, t model.Ticket) (*integration.ExternalTicket, error) {
	number, err := parseNumericID(model.IntegrationGitHub, externalID)
	if err != nil {
		return nil, err
	}
	issue, err := h.client.UpdateIssue(ctx, number, github.MapTicketToIssue(t), github.IssueState(t.Status))
	if err != nil {
		return nil, err
	}
	return h.external(ctx, issue), nil
}

func (h *githubHandler) get(ctx context.Context, externalID string) (*integration.ExternalTicket, error) {
	number, err := parseNumericID(model.IntegrationGitHub, externalID)
	if err != nil {
		return nil, err
	}
	issue, err := h.client.GetIssue(ctx, number)
	if err != nil {
		return nil, err
	}
	return h.external(ctx, issue), nil
}

func (h *githubHandler) addComment(ctx context.Context, externalID, body string) (*integration.Comment, error) {
	number, err := parseNumericID(model.IntegrationGitHub, externalID)
	if err != nil {
		return nil, err
	}
	c, err := h.client.CreateComment(ctx, number, body)
	if err != nil {
		return nil, err
	}
	out := githubComment(*c)
	return &out, nil
}

func (h *githubHandler) listComments(ctx context.Context, externalID string) ([]integration.Comment, error) {
	number, err := parseNumericID(model.IntegrationGitHub, externalID)
	if err != nil {
		return nil, err
	}
	comments, err := h.client.ListComments(ctx, number)
	if err != nil {
		return nil, err
	}
	out := make([]integration.Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, githubComment(c))
	}
	return out, nil
}

func githubComment(c github.Comment) integration.Comment {
	var created string
	if !c.CreatedAt.IsZero() {
		created = c.CreatedAt.Format(time.RFC3339)
	}
	return integration.Comment{
		ID:        strconv.FormatInt(c.ID, 10),
		Author:    c.User.Login,
		Body:      c.Body,
		CreatedAt: created,
	}
}

func (h *githubHandler) listItemTypes(context.Context) ([]integration.ItemType, error) {
	return nil, fmt.Errorf("%s item types: %w", model.IntegrationGitHub, errors.ErrUnsupported)
}

func (h *githubHandler) validate(ctx context.Context) error {
	_, err := h.client.GetRepository(ctx)
	return err
}

// --- Jira ---

type jiraHandler struct {
	client      *jira.Client
	projectKey  string
	issueTypeID string
	domain      string
	logger      *slog.Logger
}

func newJiraHandler(s integration.Settings, hc *http.Client, logger *slog.Logger) (*jiraHandler, error) {
	projectKey, err := s.Required("project_key")
	if err != nil {
		return nil, err
	}
	issueTypeID, err := s.Required("issue_type_id")
	if err != nil {
		return nil, err
	}
	domain := s.String("domain")
	client, err := jira.NewClient(jira.Config{
		BaseURL:    s.String("base_url"),
		Domain:     domain,
		Email:      s.String("email"),
		APIToken:   s.String("api_token"),
		HTTPClient: hc,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return &jiraHandler{
		client:      client,
		projectKey:  projectKey,
		issueTypeID: issueTypeID,
		domain:      domain,
		logger:      logger,
	}, nil
}

// browseURL is the human-facing issue page. Without a domain only the
// REST self link is known.
func (h *jiraHandler) browseURL(key, self string) string {
	if h.domain == "" || key == "" {
		return self
	}
	return jira.BrowseURL(h.domain, key)
}

// create returns no reverse-mapped ticket: POST /issue answers with the
// new key only.
func (h *jiraHandler) create(ctx context.Context, t model.Ticket) (*integration.ExternalTicket, error) {
	created, err := h.client.CreateIssue(ctx, jira.MapTicketToIssue(t, h.projectKey, h.issueTypeID))
	if err != nil {
		return nil, err
	}
	return &integration.ExternalTicket{
		Type:   model.IntegrationJira,
		ID:     created.Key,
		URL:    h.browseURL(created.Key, created.Self),
		Native: created,
		Raw:    created.Raw,
	}, nil
}

func (h *jiraHandler) update(ctx context.Context, externalID string, t model.Ticket) (*integration.ExternalTicket, error) {
	key, err := requireKey(model.IntegrationJira, externalID)
	if err != nil {
		return nil, err
	}
	in := jira.IssueInput{
		Summary:     t.Title,
		Description: t.Description,
		Priority:    jira.PriorityName(t.Priority),
	}
	if err := h.client.UpdateIssue(ctx, key, in); err != nil {
		return nil, err
	}
	return &integration.ExternalTicket{Type: model.IntegrationJira, ID: key}, nil
}

func (h *jiraHandler) get(ctx context.Context, externalID string) (*integration.ExternalTicket, error) {
	key, err := requireKey(model.IntegrationJira, externalID)
	if err != nil {
		return nil, err
	}
	issue, err := h.client.GetIssue(ctx, key)
	if err != nil {
		return nil, err
	}
	if st := issue.Fields.Status; st != nil && st.Name != "" && !jira.KnownStatusName(st.Name) {
		logInbound(ctx, h.logger, model.IntegrationJira, "status", st.Name)
	}
	if p := issue.Fields.Priority; p != nil && p.Name != "" && !jira.KnownPriorityName(p.Name) {
		logInbound(ctx, h.logger, model.IntegrationJira, "priority", p.Name)
	}
	t := jira.MapIssueToTicket(*issue)
	return &integration.ExternalTicket{
		Type:   model.IntegrationJira,
		ID:     issue.Key,
		URL:    h.browseURL(issue.Key, issue.Self),
		Ticket: &t,
		Native: issue,
		Raw:    issue.Raw,
	}, nil
}

func (h *jiraHandler) addComment(ctx context.Context, externalID, body string) (*integration.Comment, error) {
	key, err := requireKey(model.IntegrationJira, externalID)
	if err != nil {
		return nil, err
	}
	c, err := h.client.AddComment(ctx, key, body)
	if err != nil {
		return nil, err
	}
	out := jiraComment(*c)
	return &out, nil
}

func (h *jiraHandler) listComments(ctx context.Context, externalID string) ([]integration.Comment, error) {
	key, err := requireKey(model.IntegrationJira, externalID)
	if err != nil {
		return nil, err
	}
	comments, err := h.client.ListComments(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]integration.Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, jiraComment(c))
	}
	return out, nil
}

func jiraComment(c jira.Comment) integration.Comment {
	return integration.Comment{
		ID:        c.ID,
		Author:    c.Author.DisplayName,
		Body:      jira.ExtractText(c.Body),
		CreatedAt: c.Created,
	}
}

func (h *jiraHandler) listItemTypes(ctx context.Context) ([]integration.ItemType, error) {
	types, err := h.client.ListIssueTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]integration.ItemType, 0, len(types))
	for _, it := range types {
		out = append(out, integration.ItemType{ID: it.ID, Name: it.Name, Description: it.Description})
	}
	return out, nil
}

func (h *jiraHandler) validate(ctx context.Context) error {
	_, err := h.client.Myself(ctx)
	return err
}
