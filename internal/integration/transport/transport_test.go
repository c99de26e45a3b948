package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/model"
	"github.com/nhle/itsm-sync/tests/testutil"
)

func newTestClient(srv *testutil.FakeServer) *Client {
	return New(Config{
		System:        model.IntegrationGitHub,
		BaseURL:       srv.URL + "/",
		Authorization: "token abc",
		Headers:       map[string]string{"X-Custom": "1"},
		HTTPClient:    srv.Client(),
	})
}

func TestDoSetsHeadersAndDecodes(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]int{"n": 7})
	})
	c := newTestClient(srv)

	var out struct{ N int }
	raw, err := c.Do(context.Background(), Request{
		Operation: "ping",
		Method:    http.MethodPost,
		Path:      "/things",
		Body:      map[string]string{"a": "b"},
	}, &out)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.N != 7 || !strings.Contains(string(raw), `"n":7`) {
		t.Errorf("unexpected result %+v raw=%s", out, raw)
	}

	req := srv.Requests()[0]
	if req.Path != "/things" {
		t.Errorf("path = %q", req.Path)
	}
	for header, want := range map[string]string{
		"Authorization": "token abc",
		"Accept":        "application/json",
		"Content-Type":  "application/json",
		"X-Custom":      "1",
	} {
		if got := req.Header.Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestDoNoBodyHasNoContentType(t *testing.T) {
	srv := testutil.NewFakeServer(t, nil)
	c := newTestClient(srv)

	raw, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if raw != nil {
		t.Errorf("expected nil raw body for 204, got %s", raw)
	}
	if ct := srv.Requests()[0].Header.Get("Content-Type"); ct != "" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
}

func TestDoNon2xx(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	})
	c := newTestClient(srv)

	_, err := c.Do(context.Background(), Request{
		Operation: "get issue",
		Target:    "acme/repo#1",
		Method:    http.MethodGet,
		Path:      "/x",
	}, nil)

	var apiErr *integration.ExternalAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ExternalAPIError, got %v", err)
	}
	if apiErr.StatusCode != 500 || apiErr.Message != "upstream exploded" || apiErr.System != model.IntegrationGitHub {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	want := "GITHUB get issue acme/repo#1: HTTP 500: upstream exploded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDoNetworkFailure(t *testing.T) {
	c := New(Config{
		System:     model.IntegrationJira,
		BaseURL:    "http://127.0.0.1:1",
		HTTPClient: &http.Client{Timeout: time.Second},
	})

	_, err := c.Do(context.Background(), Request{Operation: "get issue", Method: http.MethodGet, Path: "/issue/X-1"}, nil)
	var apiErr *integration.ExternalAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ExternalAPIError, got %v", err)
	}
	if apiErr.StatusCode != 0 || apiErr.Err == nil {
		t.Errorf("expected a transport error without status: %+v", apiErr)
	}
}

func TestDoMalformedResponse(t *testing.T) {
	srv := testutil.NewFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})
	c := newTestClient(srv)

	var out map[string]any
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, &out)
	if !integration.IsExternalAPIError(err) {
		t.Fatalf("expected ExternalAPIError, got %v", err)
	}
}

func TestDoCanceledContext(t *testing.T) {
	srv := testutil.NewFakeServer(t, nil)
	c := newTestClient(srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/x"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
	if srv.Count() != 0 {
		t.Errorf("expected no requests, got %d", srv.Count())
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"Not Found"}`, "Not Found"},
		{`{"errorMessages":["Issue does not exist"],"errors":{}}`, "Issue does not exist"},
		{`{"errors":{"b":"2","a":"1"}}`, "a: 1; b: 2"},
		{`plain text`, "plain text"},
		{`{}`, "{}"},
	}
	for _, tt := range tests {
		if got := errorMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("errorMessage(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}

	long := strings.Repeat("x", 600)
	if got := errorMessage([]byte(long)); len(got) != 515 {
		t.Errorf("expected truncated message, got length %d", len(got))
	}
}

func TestErrorMessageTruncatesOnRuneBoundary(t *testing.T) {
	// Byte 512 falls inside the first "é".
	body := strings.Repeat("x", 511) + strings.Repeat("é", 20)

	got := errorMessage([]byte(body))
	if !utf8.ValidString(got) {
		t.Fatalf("truncated message is not valid UTF-8: %q", got[500:])
	}
	if want := strings.Repeat("x", 511) + "..."; got != want {
		t.Errorf("got %q..., want the x run followed by an ellipsis", got[505:])
	}
}

func TestBasicAuth(t *testing.T) {
	if got := BasicAuth("", "pat"); got != "Basic OnBhdA==" {
		t.Errorf("BasicAuth = %q", got)
	}
}
