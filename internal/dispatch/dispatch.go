// Package dispatch is the single entry point callers use to push tickets
// to external trackers. It hides which tracker is in play: each call
// checks the integration type, checks enablement, coerces the external id
// and then performs exactly one HTTP call through the matching adapter.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/model"
)

// Options configures the adapters built by New.
type Options struct {
	// HTTPClient is shared by every adapter. Defaults to a client with
	// transport.DefaultTimeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// handler is implemented once per integration type.
type handler interface {
	create(ctx context.Context, t model.Ticket) (*integration.ExternalTicket, error)
	update(ctx context.Context, externalID string, t model.Ticket) (*integration.ExternalTicket, error)
	get(ctx context.Context, externalID string) (*integration.ExternalTicket, error)
	addComment(ctx context.Context, externalID, body string) (*integration.Comment, error)
	listComments(ctx context.Context, externalID string) ([]integration.Comment, error)
	listItemTypes(ctx context.Context) ([]integration.ItemType, error)
	validate(ctx context.Context) error
}

// Dispatcher routes ticket operations to the configured trackers. It is
// immutable after New and safe for concurrent use.
type Dispatcher struct {
	configs  map[model.IntegrationType]model.IntegrationConfig
	handlers map[model.IntegrationType]handler
	logger   *slog.Logger
}

// New copies configs and builds an adapter for every enabled integration.
// Construction performs no network I/O but fails when an enabled
// integration lacks a required setting.
func New(configs map[model.IntegrationType]model.IntegrationConfig, opts Options) (*Dispatcher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		configs:  make(map[model.IntegrationType]model.IntegrationConfig, len(configs)),
		handlers: make(map[model.IntegrationType]handler),
		logger:   logger,
	}

	for typ, cfg := range configs {
		if !typ.Known() {
			return nil, &integration.UnknownIntegrationTypeError{Type: string(typ)}
		}
		cfg = cfg.Clone()
		cfg.Type = typ
		d.configs[typ] = cfg
		if !cfg.Enabled {
			continue
		}

		settings := integration.Settings{Type: typ, Values: cfg.Settings}
		var (
			h   handler
			err error
		)
		switch typ {
		case model.IntegrationAzureDevOps:
			h, err = newAzureHandler(settings, opts.HTTPClient, logger)
		case model.IntegrationGitHub:
			h, err = newGitHubHandler(settings, opts.HTTPClient, logger)
		case model.IntegrationJira:
			h, err = newJiraHandler(settings, opts.HTTPClient, logger)
		}
		if err != nil {
			return nil, fmt.Errorf("configuring %s: %w", typ, err)
		}
		d.handlers[typ] = h
	}

	return d, nil
}

// IsEnabled reports whether typ is configured and enabled.
func (d *Dispatcher) IsEnabled(typ model.IntegrationType) bool {
	return d.configs[typ].Enabled
}

// Enabled returns the enabled integration types in a stable order.
func (d *Dispatcher) Enabled() []model.IntegrationType {
	types := make([]model.IntegrationType, 0, len(d.handlers))
	for typ := range d.handlers {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Settings returns a copy of the settings for typ, or an empty map when
// the integration is not configured.
func (d *Dispatcher) Settings(typ model.IntegrationType) map[string]any {
	cfg, ok := d.configs[typ]
	if !ok {
		return map[string]any{}
	}
	return cfg.Clone().Settings
}

// lookup applies the checks shared by every operation: the type must be
// known, then enabled.
func (d *Dispatcher) lookup(typ model.IntegrationType) (handler, error) {
	if !typ.Known() {
		return nil, &integration.UnknownIntegrationTypeError{Type: string(typ)}
	}
	h, ok := d.handlers[typ]
	if !ok {
		return nil, &integration.IntegrationDisabledError{Type: typ}
	}
	return h, nil
}

// CreateExternalTicket maps the ticket and creates the corresponding item
// in the external tracker. The container (project, repository) comes from
// the integration settings.
func (d *Dispatcher) CreateExternalTicket(
	ctx context.Context,
	typ model.IntegrationType,
	t model.Ticket,
) (*integration.ExternalTicket, error) {
	h, err := d.lookup(typ)
	if err != nil {
		return nil, err
	}
	d.logFallbacks(ctx, typ, t)
	return h.create(ctx, t)
}

// UpdateExternalTicket re-maps the full ticket and overwrites the external
// item. Azure DevOps and GitHub ids must be positive integers.
func (d *Dispatcher) UpdateExternalTicket(
	ctx context.Context,
	typ model.IntegrationType,
	externalID string,
	t model.Ticket,
) (*integration.ExternalTicket, error) {
	h, err := d.lookup(typ)
	if err != nil {
		return nil, err
	}
	d.logFallbacks(ctx, typ, t)
	return h.update(ctx, externalID, t)
}

// GetExternalTicket fetches the external item and reverse-maps it.
func (d *Dispatcher) GetExternalTicket(
	ctx context.Context,
	typ model.IntegrationType,
	externalID string,
) (*integration.ExternalTicket, error) {
	h, err := d.lookup(typ)
	if err != nil {
		return nil, err
	}
	return h.get(ctx, externalID)
}

// AddExternalComment posts a comment on the external item.
func (d *Dispatcher) AddExternalComment(
	ctx context.Context,
	typ model.IntegrationType,
	externalID string,
	body string,
) (*integration.Comment, error) {
	h, err := d.lookup(typ)
	if err != nil {
		return nil, err
	}
	return h.addComment(ctx, externalID, body)
}

// ListExternalComments returns the comments on the external item.
func (d *Dispatcher) ListExternalComments(
	ctx context.Context,
	typ model.IntegrationType,
	externalID string,
) ([]integration.Comment, error) {
	h, err := d.lookup(typ)
	if err != nil {
		return nil, err
	}
	return h.listComments(ctx, externalID)
}

// ListItemTypes returns the item types the tracker can create. GitHub has
// no item types and returns an error wrapping errors.ErrUnsupported.
func (d *Dispatcher) ListItemTypes(ctx context.Context, typ model.IntegrationType) ([]integration.ItemType, error) {
	h, err := d.lookup(typ)
	if err != nil {
		return nil, err
	}
	return h.listItemTypes(ctx)
}

// Validate checks connectivity and credentials with one read-only call.
func (d *Dispatcher) Validate(ctx context.Context, typ model.IntegrationType) error {
	h, err := d.lookup(typ)
	if err != nil {
		return err
	}
	return h.validate(ctx)
}

// logFallbacks records when a ticket value is outside the known enums and
// the mapper's default will be used.
func (d *Dispatcher) logFallbacks(ctx context.Context, typ model.IntegrationType, t model.Ticket) {
	if !t.Status.Valid() {
		d.logger.DebugContext(ctx, "mapping fallback applied",
			"integration", typ, "field", "status", "value", string(t.Status))
	}
	if !t.Priority.Valid() {
		d.logger.DebugContext(ctx, "mapping fallback applied",
			"integration", typ, "field", "priority", "value", string(t.Priority))
	}
}
