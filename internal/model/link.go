package model

import "time"

// ExternalLink records that an internal ticket has a counterpart in an
// external tracker. The sync core never stores these; callers do.
type ExternalLink struct {
	ID         string          `json:"id" db:"id"`
	TicketID   string          `json:"ticket_id" db:"ticket_id"`
	Type       IntegrationType `json:"integration_type" db:"integration_type"`
	ExternalID string          `json:"external_id" db:"external_id"`
	URL        string          `json:"url" db:"url"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Sync operation names recorded in SyncEntry.Operation.
const (
	OperationCreate  = "create"
	OperationUpdate  = "update"
	OperationGet     = "get"
	OperationComment = "comment"
)

// SyncEntry is one row of the caller-side sync audit log.
type SyncEntry struct {
	ID         string          `json:"id" db:"id"`
	TicketID   string          `json:"ticket_id" db:"ticket_id"`
	Type       IntegrationType `json:"integration_type" db:"integration_type"`
	Operation  string          `json:"operation" db:"operation"`
	ExternalID string          `json:"external_id" db:"external_id"`
	Succeeded  bool            `json:"succeeded" db:"succeeded"`
	Error      string          `json:"error,omitempty" db:"error"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
