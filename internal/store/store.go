package store

import (
	"context"
	"errors"

	"github.com/nhle/itsm-sync/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SyncFilter controls filtering and pagination for sync log queries.
type SyncFilter struct {
	TicketID   *string
	Type       *model.IntegrationType
	FailedOnly bool
	Limit      int
	Offset     int
}

// Store persists the caller-side state of the sync: which internal ticket
// maps to which external item, and an audit log of every push.
type Store interface {
	// === External links ===

	// UpsertLink records the external counterpart of a ticket. There is at
	// most one link per (ticket, integration type); an existing link keeps
	// its ID and CreatedAt.
	UpsertLink(ctx context.Context, link model.ExternalLink) (model.ExternalLink, error)
	GetLink(ctx context.Context, ticketID string, typ model.IntegrationType) (*model.ExternalLink, error)
	GetLinksForTicket(ctx context.Context, ticketID string) ([]model.ExternalLink, error)
	ListLinks(ctx context.Context, typ *model.IntegrationType) ([]model.ExternalLink, error)
	DeleteLink(ctx context.Context, ticketID string, typ model.IntegrationType) error

	// === Sync log ===

	RecordSync(ctx context.Context, entry model.SyncEntry) error
	GetSyncLog(ctx context.Context, filter SyncFilter) ([]model.SyncEntry, error)
}
