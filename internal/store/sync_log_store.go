package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/itsm-sync/internal/model"
)

// RecordSync appends an entry to the sync log.
func (s *SQLiteStore) RecordSync(ctx context.Context, entry model.SyncEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_log (
			id, ticket_id, integration_type, operation,
			external_id, succeeded, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TicketID, string(entry.Type), entry.Operation,
		entry.ExternalID, boolToInt(entry.Succeeded), entry.Error, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording sync for ticket %s: %w", entry.TicketID, err)
	}
	return nil
}

// GetSyncLog returns log entries matching the filter, newest first.
func (s *SQLiteStore) GetSyncLog(ctx context.Context, filter SyncFilter) ([]model.SyncEntry, error) {
	var conditions []string
	var args []interface{}

	if filter.TicketID != nil {
		conditions = append(conditions, "ticket_id = ?")
		args = append(args, *filter.TicketID)
	}
	if filter.Type != nil {
		conditions = append(conditions, "integration_type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.FailedOnly {
		conditions = append(conditions, "succeeded = 0")
	}

	query := "SELECT * FROM sync_log"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	var entries []model.SyncEntry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("querying sync log: %w", err)
	}
	return entries, nil
}
