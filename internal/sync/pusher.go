// Package sync pushes internal tickets to every enabled external tracker
// and keeps the local link table and sync log current.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/model"
	"github.com/nhle/itsm-sync/internal/store"
)

// defaultConcurrency bounds the number of integrations pushed in parallel.
const defaultConcurrency = 4

// pushTimeout is the maximum time allowed for a single integration push.
const pushTimeout = 30 * time.Second

// Dispatcher is the subset of the dispatcher the pusher needs.
type Dispatcher interface {
	Enabled() []model.IntegrationType
	CreateExternalTicket(ctx context.Context, typ model.IntegrationType, t model.Ticket) (*integration.ExternalTicket, error)
	UpdateExternalTicket(
		ctx context.Context,
		typ model.IntegrationType,
		externalID string,
		t model.Ticket,
	) (*integration.ExternalTicket, error)
}

// Result is the outcome of pushing one ticket to one integration.
type Result struct {
	Type      model.IntegrationType
	Operation string
	External  *integration.ExternalTicket
	Link      *model.ExternalLink
	Err       error
}

// Options tunes a Pusher. Zero values select defaults.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Pusher fans a ticket out to every enabled integration.
type Pusher struct {
	dispatcher  Dispatcher
	store       store.Store
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewPusher creates a Pusher over the given dispatcher and link store.
func NewPusher(d Dispatcher, s store.Store, opts Options) *Pusher {
	p := &Pusher{
		dispatcher:  d,
		store:       s,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
	}
	if p.concurrency <= 0 {
		p.concurrency = defaultConcurrency
	}
	if p.timeout <= 0 {
		p.timeout = pushTimeout
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Push creates the ticket in every enabled integration it is not yet
// linked to and updates it everywhere else. Results are ordered by
// integration type regardless of completion order. A failure in one
// integration does not stop the others.
func (p *Pusher) Push(ctx context.Context, ticketID string, t model.Ticket) ([]Result, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("push: ticket id is required")
	}

	types := p.dispatcher.Enabled()
	results := make([]Result, len(types))

	wp := pool.New().WithMaxGoroutines(p.concurrency)
	for i, typ := range types {
		wp.Go(func() {
			results[i] = p.pushOne(ctx, ticketID, typ, t)
		})
	}
	wp.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

func (p *Pusher) pushOne(ctx context.Context, ticketID string, typ model.IntegrationType, t model.Ticket) Result {
	// The timeout bounds the tracker call only. Store writes outlive it so
	// a late create still gets its link and a timeout still gets logged.
	storeCtx := context.WithoutCancel(ctx)
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := Result{Type: typ, Operation: model.OperationCreate}

	existing, err := p.store.GetLink(storeCtx, ticketID, typ)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		result.Err = fmt.Errorf("%s: %w", typ, err)
		return result
	}

	if existing != nil {
		result.Operation = model.OperationUpdate
		result.External, err = p.dispatcher.UpdateExternalTicket(callCtx, typ, existing.ExternalID, t)
	} else {
		result.External, err = p.dispatcher.CreateExternalTicket(callCtx, typ, t)
	}

	entry := model.SyncEntry{
		TicketID:  ticketID,
		Type:      typ,
		Operation: result.Operation,
		Succeeded: err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
		result.Err = err
		if existing != nil {
			entry.ExternalID = existing.ExternalID
		}
		p.record(storeCtx, entry)
		p.logger.WarnContext(ctx, "push failed",
			"ticket", ticketID, "integration", typ, "operation", result.Operation, "error", err)
		return result
	}

	entry.ExternalID = result.External.ID
	p.record(storeCtx, entry)

	link := model.ExternalLink{
		TicketID:   ticketID,
		Type:       typ,
		ExternalID: result.External.ID,
		URL:        result.External.URL,
	}
	if link.URL == "" && existing != nil {
		link.URL = existing.URL
	}
	stored, err := p.store.UpsertLink(storeCtx, link)
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", typ, err)
		return result
	}
	result.Link = &stored

	p.logger.InfoContext(ctx, "pushed ticket",
		"ticket", ticketID, "integration", typ, "operation", result.Operation, "external_id", stored.ExternalID)
	return result
}

func (p *Pusher) record(ctx context.Context, entry model.SyncEntry) {
	if err := p.store.RecordSync(ctx, entry); err != nil {
		p.logger.WarnContext(ctx, "recording sync entry failed",
			"ticket", entry.TicketID, "integration", entry.Type, "error", err)
	}
}
