package github

import (
	"context"
	"net/http"
	"slices"
	"testing"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/tests/testutil"
)

func newTestClient(t *testing.T, srv *testutil.FakeServer, assignees ...string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:    srv.URL,
		Token:      "ghp_test",
		Owner:      "acme",
		Repo:       "helpdesk",
		Assignees:  assignees,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientMissingSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		key  string
	}{
		{"token", Config{Owner: "o", Repo: "r"}, "token"},
		{"owner", Config{Token: "t", Repo: "r"}, "owner"},
		{"repo", Config{Token: "t", Owner: "o"}, "repo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			missing, ok := err.(*integration.MissingSettingError)
			if !ok || missing.Key != tt.key {
				t.Fatalf("expected missing %q, got %v", tt.key, err)
			}
		})
	}
}

func TestClientHeaders(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]any{"id": 1, "full_name": "acme/helpdesk"})
	})
	c := newTestClient(t, srv)

	repo, err := c.GetRepository(context.Background())
	if err != nil {
		t.Fatalf("GetRepository: %v", err)
	}
	if repo.FullName != "acme/helpdesk" {
		t.Errorf("full name = %q", repo.FullName)
	}

	req := srv.Requests()[0]
	if req.Path != "/repos/acme/helpdesk" {
		t.Errorf("path = %q", req.Path)
	}
	if got := req.Header.Get("Authorization"); got != "token ghp_test" {
		t.Errorf("Authorization = %q", got)
	}
	if got := req.Header.Get("Accept"); got != "application/vnd.github+json" {
		t.Errorf("Accept = %q", got)
	}
	if got := req.Header.Get("X-GitHub-Api-Version"); got != "2022-11-28" {
		t.Errorf("X-GitHub-Api-Version = %q", got)
	}
}

func TestCreateIssue(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusCreated, map[string]any{
			"number":   12,
			"title":    "Printer jam",
			"state":    "open",
			"html_url": "https://github.com/acme/helpdesk/issues/12",
			"labels":   []map[string]string{{"name": "priority:high"}, {"name": "status:open"}},
		})
	})
	c := newTestClient(t, srv, "oncall")

	issue, err := c.CreateIssue(context.Background(), IssueFields{
		Title:  "Printer jam",
		Body:   "3rd floor",
		Labels: []string{"priority:high", "status:open"},
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if issue.Number != 12 || issue.HTMLURL == "" {
		t.Errorf("unexpected issue: %+v", issue)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0].Method != http.MethodPost || reqs[0].Path != "/repos/acme/helpdesk/issues" {
		t.Fatalf("unexpected requests: %+v", reqs)
	}
	var body CreateIssueRequest
	reqs[0].DecodeBody(t, &body)
	if body.Title != "Printer jam" || body.Body != "3rd floor" {
		t.Errorf("unexpected body: %+v", body)
	}
	if !slices.Equal(body.Labels, []string{"priority:high", "status:open"}) {
		t.Errorf("labels = %v", body.Labels)
	}
	if !slices.Equal(body.Assignees, []string{"oncall"}) {
		t.Errorf("assignees = %v", body.Assignees)
	}
}

func TestUpdateIssueSendsState(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]any{"number": 12, "state": "closed"})
	})
	c := newTestClient(t, srv)

	if _, err := c.UpdateIssue(context.Background(), 12, IssueFields{Title: "t", Labels: []string{"status:closed"}}, StateClosed); err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}

	req := srv.Requests()[0]
	if req.Method != http.MethodPatch || req.Path != "/repos/acme/helpdesk/issues/12" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
	var body map[string]any
	req.DecodeBody(t, &body)
	if body["state"] != "closed" || body["title"] != "t" {
		t.Errorf("unexpected body: %v", body)
	}
	if _, ok := body["body"]; !ok {
		t.Error("empty body should still be sent on update")
	}
}

func TestCommentsRoundTrip(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			testutil.WriteJSON(w, http.StatusCreated, map[string]any{"id": 5, "body": "looking"})
			return
		}
		testutil.WriteJSON(w, http.StatusOK, []map[string]any{
			{"id": 5, "body": "looking", "user": map[string]string{"login": "ada"}},
		})
	})
	c := newTestClient(t, srv)
	ctx := context.Background()

	comment, err := c.CreateComment(ctx, 12, "looking")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if comment.ID != 5 {
		t.Errorf("comment id = %d", comment.ID)
	}
	comments, err := c.ListComments(ctx, 12)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 1 || comments[0].User.Login != "ada" {
		t.Errorf("unexpected comments: %+v", comments)
	}
	if p := srv.Requests()[0].Path; p != "/repos/acme/helpdesk/issues/12/comments" {
		t.Errorf("path = %q", p)
	}
}

func TestAuthFailure(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
	})
	c := newTestClient(t, srv)

	_, err := c.GetIssue(context.Background(), 1)
	if !integration.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	apiErr, ok := err.(*integration.ExternalAPIError)
	if !ok || apiErr.Message != "Bad credentials" || apiErr.Target != "acme/helpdesk#1" {
		t.Errorf("unexpected error: %#v", err)
	}
}
