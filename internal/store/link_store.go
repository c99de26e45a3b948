package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/itsm-sync/internal/model"
)

// UpsertLink inserts a link or, when the ticket is already linked to the
// same integration, repoints it at the new external id and URL.
func (s *SQLiteStore) UpsertLink(ctx context.Context, link model.ExternalLink) (model.ExternalLink, error) {
	if link.TicketID == "" || link.ExternalID == "" {
		return model.ExternalLink{}, fmt.Errorf("upserting link: ticket id and external id are required")
	}
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO external_links (
			id, ticket_id, integration_type, external_id, url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticket_id, integration_type) DO UPDATE SET
			external_id = excluded.external_id,
			url         = excluded.url,
			updated_at  = excluded.updated_at`,
		link.ID, link.TicketID, string(link.Type), link.ExternalID, link.URL, now, now,
	)
	if err != nil {
		return model.ExternalLink{}, fmt.Errorf("upserting link %s/%s: %w", link.TicketID, link.Type, err)
	}

	stored, err := s.GetLink(ctx, link.TicketID, link.Type)
	if err != nil {
		return model.ExternalLink{}, err
	}
	return *stored, nil
}

// GetLink returns the link of a ticket to one integration, or ErrNotFound.
func (s *SQLiteStore) GetLink(
	ctx context.Context,
	ticketID string,
	typ model.IntegrationType,
) (*model.ExternalLink, error) {
	var link model.ExternalLink
	err := s.db.GetContext(ctx, &link,
		"SELECT * FROM external_links WHERE ticket_id = ? AND integration_type = ?",
		ticketID, string(typ),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %s/%s: %w", ticketID, typ, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting link %s/%s: %w", ticketID, typ, err)
	}
	return &link, nil
}

// GetLinksForTicket returns every link of a ticket ordered by integration.
func (s *SQLiteStore) GetLinksForTicket(ctx context.Context, ticketID string) ([]model.ExternalLink, error) {
	var links []model.ExternalLink
	err := s.db.SelectContext(ctx, &links,
		"SELECT * FROM external_links WHERE ticket_id = ? ORDER BY integration_type",
		ticketID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying links for ticket %s: %w", ticketID, err)
	}
	return links, nil
}

// ListLinks returns all links, optionally restricted to one integration.
func (s *SQLiteStore) ListLinks(ctx context.Context, typ *model.IntegrationType) ([]model.ExternalLink, error) {
	query := "SELECT * FROM external_links"
	var args []interface{}
	if typ != nil {
		query += " WHERE integration_type = ?"
		args = append(args, string(*typ))
	}
	query += " ORDER BY ticket_id, integration_type"

	var links []model.ExternalLink
	if err := s.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	return links, nil
}

// DeleteLink removes the link of a ticket to one integration.
func (s *SQLiteStore) DeleteLink(ctx context.Context, ticketID string, typ model.IntegrationType) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM external_links WHERE ticket_id = ? AND integration_type = ?",
		ticketID, string(typ),
	)
	if err != nil {
		return fmt.Errorf("deleting link %s/%s: %w", ticketID, typ, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("link %s/%s: %w", ticketID, typ, ErrNotFound)
	}
	return nil
}
