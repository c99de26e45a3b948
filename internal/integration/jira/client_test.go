package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/tests/testutil"
)

func newTestClient(t *testing.T, srv *testutil.FakeServer) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:    srv.URL + "/rest/api/3",
		Email:      "ops@example.com",
		APIToken:   "atl-token",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestBaseURLForDomain(t *testing.T) {
	if got := BaseURLForDomain("acme"); got != "https://acme.atlassian.net/rest/api/3" {
		t.Errorf("BaseURLForDomain = %q", got)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	tests := []struct {
		cfg Config
		key string
	}{
		{Config{Email: "e", APIToken: "t"}, "domain"},
		{Config{Domain: "acme", APIToken: "t"}, "email"},
		{Config{Domain: "acme", Email: "e"}, "api_token"},
	}
	for _, tt := range tests {
		_, err := NewClient(tt.cfg)
		missing, ok := err.(*integration.MissingSettingError)
		if !ok || missing.Key != tt.key {
			t.Errorf("expected missing %q, got %v", tt.key, err)
		}
	}
}

func TestCreateIssueSendsADF(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusCreated, map[string]string{
			"id":   "10042",
			"key":  "OPS-42",
			"self": "https://acme.atlassian.net/rest/api/3/issue/10042",
		})
	})
	c := newTestClient(t, srv)

	created, err := c.CreateIssue(context.Background(), IssueInput{
		ProjectKey:  "OPS",
		IssueTypeID: "10001",
		Summary:     "VPN down",
		Description: "Cannot connect",
		Priority:    "High",
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if created.Key != "OPS-42" || len(created.Raw) == 0 {
		t.Errorf("unexpected result: %+v", created)
	}

	req := srv.Requests()[0]
	if req.Method != http.MethodPost || req.Path != "/rest/api/3/issue" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("ops@example.com:atl-token"))
	if got := req.Header.Get("Authorization"); got != wantAuth {
		t.Errorf("Authorization = %q", got)
	}

	var body struct {
		Fields struct {
			Project     Project  `json:"project"`
			IssueType   idRef    `json:"issuetype"`
			Summary     string   `json:"summary"`
			Description Document `json:"description"`
			Priority    Priority `json:"priority"`
		} `json:"fields"`
	}
	req.DecodeBody(t, &body)
	f := body.Fields
	if f.Project.Key != "OPS" || f.IssueType.ID != "10001" || f.Summary != "VPN down" || f.Priority.Name != "High" {
		t.Errorf("unexpected fields: %+v", f)
	}
	if f.Description.Type != "doc" || f.Description.Version != 1 {
		t.Errorf("description is not an ADF doc: %+v", f.Description)
	}
	if text := f.Description.Content[0].Content[0].Text; text != "Cannot connect" {
		t.Errorf("description text = %q", text)
	}
}

func TestUpdateIssueNoContent(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, srv)

	err := c.UpdateIssue(context.Background(), "OPS-42", IssueInput{
		Summary:     "VPN down",
		Description: "fixed",
		Priority:    "Highest",
	})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}

	req := srv.Requests()[0]
	if req.Method != http.MethodPut || req.Path != "/rest/api/3/issue/OPS-42" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	req.DecodeBody(t, &body)
	if body.Fields["summary"] != "VPN down" {
		t.Errorf("summary = %v", body.Fields["summary"])
	}
	priority, _ := body.Fields["priority"].(map[string]any)
	if priority["name"] != "Highest" {
		t.Errorf("priority = %v", body.Fields["priority"])
	}
	desc, _ := body.Fields["description"].(map[string]any)
	if desc["type"] != "doc" {
		t.Errorf("description = %v", body.Fields["description"])
	}
	if _, ok := body.Fields["project"]; ok {
		t.Error("update must not send project")
	}
}

func TestGetIssue(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"10042","key":"OPS-42","fields":{
			"summary":"VPN down",
			"status":{"name":"Done"},
			"priority":{"name":"Highest"},
			"description":{"type":"doc","version":1,"content":[{"type":"paragraph","content":[{"type":"text","text":"fixed"}]}]}
		}}`))
	})
	c := newTestClient(t, srv)

	issue, err := c.GetIssue(context.Background(), "OPS-42")
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	ticket := MapIssueToTicket(*issue)
	if ticket.Description != "fixed" || ticket.Status != "RESOLVED" || ticket.Priority != "CRITICAL" {
		t.Errorf("unexpected ticket: %+v", ticket)
	}
}

func TestAddCommentSendsADF(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusCreated, map[string]any{"id": "9", "author": map[string]string{"displayName": "Ops"}})
	})
	c := newTestClient(t, srv)

	if _, err := c.AddComment(context.Background(), "OPS-42", "escalated"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	req := srv.Requests()[0]
	if req.Path != "/rest/api/3/issue/OPS-42/comment" {
		t.Errorf("path = %q", req.Path)
	}
	var body struct {
		Body Document `json:"body"`
	}
	req.DecodeBody(t, &body)
	if body.Body.Type != "doc" || ExtractText(mustMarshal(t, body.Body)) != "escalated" {
		t.Errorf("unexpected comment body: %+v", body.Body)
	}
}

func TestJiraErrorMessages(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"errorMessages": []string{},
			"errors":        map[string]string{"summary": "Summary is required", "issuetype": "invalid"},
		})
	})
	c := newTestClient(t, srv)

	_, err := c.CreateIssue(context.Background(), IssueInput{ProjectKey: "OPS"})
	apiErr, ok := err.(*integration.ExternalAPIError)
	if !ok {
		t.Fatalf("expected ExternalAPIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "issuetype: invalid; summary: Summary is required" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestListIssueTypesAndMyself(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/3/issuetype":
			testutil.WriteJSON(w, http.StatusOK, []map[string]any{{"id": "10001", "name": "Task"}})
		case "/rest/api/3/myself":
			testutil.WriteJSON(w, http.StatusOK, map[string]any{"accountId": "abc", "displayName": "Ops Bot", "active": true})
		default:
			http.NotFound(w, r)
		}
	})
	c := newTestClient(t, srv)
	ctx := context.Background()

	types, err := c.ListIssueTypes(ctx)
	if err != nil {
		t.Fatalf("ListIssueTypes: %v", err)
	}
	if len(types) != 1 || types[0].ID != "10001" {
		t.Errorf("unexpected types: %+v", types)
	}
	me, err := c.Myself(ctx)
	if err != nil {
		t.Fatalf("Myself: %v", err)
	}
	if me.DisplayName != "Ops Bot" {
		t.Errorf("display name = %q", me.DisplayName)
	}
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
