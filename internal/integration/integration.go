// Package integration holds the pieces shared by every external tracker
// adapter: the error taxonomy, settings helpers, and the small
// system-neutral result types returned by the dispatcher.
package integration

import (
	"encoding/json"

	"github.com/nhle/itsm-sync/internal/model"
)

// Comment represents a single comment or note on an external item.
type Comment struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// ItemType describes a kind of item the external system can create
// (an Azure DevOps work item type or a Jira issue type).
type ItemType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ExternalTicket is the dispatcher's view of an item in an external
// tracker: the native identifier plus the raw response.
type ExternalTicket struct {
	// Type identifies which integration produced this item.
	Type model.IntegrationType `json:"type"`

	// ID is the external identifier as a string: a work item id, an
	// issue number or an issue key.
	ID string `json:"id"`

	// URL links to the item in the external system, when known.
	URL string `json:"url,omitempty"`

	// Ticket is the reverse-mapped internal view. Nil when the response
	// carries no fields (Jira create and update).
	Ticket *model.Ticket `json:"ticket,omitempty"`

	// Native is the typed response (*azuredevops.WorkItem, *github.Issue,
	// *jira.Issue, *jira.CreatedIssue).
	Native any `json:"-"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"raw,omitempty"`
}
