package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func TestLookup(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{
		{Key: "itsm-sync-jira-api-token", Data: []byte("s3cret")},
	})
	lookup := Lookup(ring)

	got, err := lookup("itsm-sync-jira-api-token")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("got %q, want s3cret", got)
	}

	if _, err := lookup("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
