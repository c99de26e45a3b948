package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/model"
	"github.com/nhle/itsm-sync/internal/store"
	appsync "github.com/nhle/itsm-sync/internal/sync"
)

// ticketFlags collects a ticket from flags or a JSON file.
type ticketFlags struct {
	file        string
	title       string
	description string
	status      string
	priority    string
}

func (tf *ticketFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&tf.file, "file", "f", "", "read the ticket from a JSON file")
	fs.StringVar(&tf.title, "title", "", "ticket title")
	fs.StringVar(&tf.description, "description", "", "ticket description")
	fs.StringVar(&tf.status, "status", string(model.StatusOpen), "ticket status")
	fs.StringVar(&tf.priority, "priority", string(model.PriorityMedium), "ticket priority")
}

// ticket builds the ticket. Flags given explicitly override the file.
// Unknown status or priority values are passed through and mapped to
// the integration's defaults.
func (tf *ticketFlags) ticket(fs *pflag.FlagSet) (model.Ticket, error) {
	var t model.Ticket
	if tf.file != "" {
		data, err := os.ReadFile(tf.file)
		if err != nil {
			return t, fmt.Errorf("reading ticket file: %w", err)
		}
		if err := json.Unmarshal(data, &t); err != nil {
			return t, fmt.Errorf("parsing ticket file %s: %w", tf.file, err)
		}
		// Same spellings as the flags: "in progress", "in_progress", "high".
		t.Status, _ = model.ParseStatus(string(t.Status))
		t.Priority, _ = model.ParsePriority(string(t.Priority))
	}

	if tf.file == "" || fs.Changed("title") {
		t.Title = tf.title
	}
	if tf.file == "" || fs.Changed("description") {
		t.Description = tf.description
	}
	if tf.file == "" || fs.Changed("status") {
		t.Status, _ = model.ParseStatus(tf.status)
	}
	if tf.file == "" || fs.Changed("priority") {
		t.Priority, _ = model.ParsePriority(tf.priority)
	}

	if strings.TrimSpace(t.Title) == "" {
		return t, fmt.Errorf("%w: a ticket title is required", ErrUsage)
	}
	return t, nil
}

// newFlagSet returns a subcommand flag set writing errors to stderr.
func (a *App) newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", ErrUsage, fs.Name(), fs.Arg(0))
	}
	return nil
}

// integrationFlag is passed through unvalidated so the dispatcher reports
// unknown types the same way for every operation.
func integrationFlag(fs *pflag.FlagSet, target *string) {
	fs.StringVarP(target, "type", "t", "", "integration: azure_devops, github or jira")
}

func requireFlag(fs *pflag.FlagSet, name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s: --%s is required", ErrUsage, fs.Name(), name)
	}
	return nil
}

func integrationType(s string) model.IntegrationType {
	t, _ := model.ParseIntegrationType(s)
	return t
}

func runInit(_ context.Context, a *App, args []string) error {
	var force bool
	fs := a.newFlagSet("init")
	fs.BoolVar(&force, "force", false, "overwrite an existing config file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if _, err := os.Stat(a.configPath); err == nil && !force {
		return fmt.Errorf("config %s already exists (use --force to overwrite)", a.configPath)
	}
	if err := model.SaveConfig(a.configPath, model.DefaultAppConfig()); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %s\n", a.configPath)
	return nil
}

func runCheck(ctx context.Context, a *App, args []string) error {
	var typ string
	fs := a.newFlagSet("check")
	integrationFlag(fs, &typ)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	d, err := a.openDispatcher()
	if err != nil {
		return err
	}

	types := d.Enabled()
	if typ != "" {
		types = []model.IntegrationType{integrationType(typ)}
	}

	var failed []error
	results := make([]checkResult, 0, len(types))
	for _, t := range types {
		err := d.Validate(ctx, t)
		results = append(results, checkResult{Type: t, Err: err})
		if err != nil {
			failed = append(failed, err)
		}
	}
	if err := a.render(results, func() string { return renderChecks(results) }); err != nil {
		return err
	}
	return errors.Join(failed...)
}

func runCreate(ctx context.Context, a *App, args []string) error {
	var typ, ticketID string
	var tf ticketFlags
	fs := a.newFlagSet("create")
	integrationFlag(fs, &typ)
	fs.StringVar(&ticketID, "ticket-id", "", "record a link from this internal ticket id")
	tf.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "type", typ); err != nil {
		return err
	}
	t, err := tf.ticket(fs)
	if err != nil {
		return err
	}

	d, err := a.openDispatcher()
	if err != nil {
		return err
	}
	it := integrationType(typ)
	ext, err := d.CreateExternalTicket(ctx, it, t)
	if ticketID != "" {
		if recErr := a.recordSingle(ctx, ticketID, it, model.OperationCreate, "", ext, err); recErr != nil {
			return errors.Join(err, recErr)
		}
	}
	if err != nil {
		return err
	}
	return a.render(ext, func() string { return renderExternal(ext) })
}

func runUpdate(ctx context.Context, a *App, args []string) error {
	var typ, id, ticketID string
	var tf ticketFlags
	fs := a.newFlagSet("update")
	integrationFlag(fs, &typ)
	fs.StringVar(&id, "id", "", "external id (work item id, issue number or issue key)")
	fs.StringVar(&ticketID, "ticket-id", "", "record the update against this internal ticket id")
	tf.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "type", typ); err != nil {
		return err
	}
	t, err := tf.ticket(fs)
	if err != nil {
		return err
	}

	d, err := a.openDispatcher()
	if err != nil {
		return err
	}
	it := integrationType(typ)
	ext, err := d.UpdateExternalTicket(ctx, it, id, t)
	if ticketID != "" {
		if recErr := a.recordSingle(ctx, ticketID, it, model.OperationUpdate, id, ext, err); recErr != nil {
			return errors.Join(err, recErr)
		}
	}
	if err != nil {
		return err
	}
	return a.render(ext, func() string { return renderExternal(ext) })
}

func runGet(ctx context.Context, a *App, args []string) error {
	var typ, id string
	fs := a.newFlagSet("get")
	integrationFlag(fs, &typ)
	fs.StringVar(&id, "id", "", "external id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "type", typ); err != nil {
		return err
	}

	d, err := a.openDispatcher()
	if err != nil {
		return err
	}
	ext, err := d.GetExternalTicket(ctx, integrationType(typ), id)
	if err != nil {
		return err
	}
	return a.render(ext, func() string { return renderExternal(ext) })
}

func runComment(ctx context.Context, a *App, args []string) error {
	var typ, id, body string
	fs := a.newFlagSet("comment")
	integrationFlag(fs, &typ)
	fs.StringVar(&id, "id", "", "external id")
	fs.StringVarP(&body, "body", "b", "", "comment text")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "type", typ); err != nil {
		return err
	}
	if err := requireFlag(fs, "body", body); err != nil {
		return err
	}

	d, err := a.openDispatcher()
	if err != nil {
		return err
	}
	c, err := d.AddExternalComment(ctx, integrationType(typ), id, body)
	if err != nil {
		return err
	}
	return a.render(c, func() string { return renderComment(*c) })
}

func runComments(ctx context.Context, a *App, args []string) error {
	var typ, id string
	fs := a.newFlagSet("comments")
	integrationFlag(fs, &typ)
	fs.StringVar(&id, "id", "", "external id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "type", typ); err != nil {
		return err
	}

	d, err := a.openDispatcher()
	if err != nil {
		return err
	}
	comments, err := d.ListExternalComments(ctx, integrationType(typ), id)
	if err != nil {
		return err
	}
	return a.render(comments, func() string { return renderComments(comments) })
}

func runTypes(ctx context.Context, a *App, args []string) error {
	var typ string
	fs := a.newFlagSet("types")
	integrationFlag(fs, &typ)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "type", typ); err != nil {
		return err
	}

	d, err := a.openDispatcher()
	if err != nil {
		return err
	}
	types, err := d.ListItemTypes(ctx, integrationType(typ))
	if err != nil {
		return err
	}
	return a.render(types, func() string { return renderItemTypes(types) })
}

func runPush(ctx context.Context, a *App, args []string) error {
	var ticketID string
	var concurrency int
	var tf ticketFlags
	fs := a.newFlagSet("push")
	fs.StringVar(&ticketID, "ticket-id", "", "internal ticket id")
	fs.IntVar(&concurrency, "concurrency", 0, "maximum integrations pushed in parallel")
	tf.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "ticket-id", ticketID); err != nil {
		return err
	}
	t, err := tf.ticket(fs)
	if err != nil {
		return err
	}

	d, err := a.openDispatcher()
	if err != nil {
		return err
	}
	s, err := a.openStore()
	if err != nil {
		return err
	}

	pusher := appsync.NewPusher(d, s, appsync.Options{Concurrency: concurrency, Logger: a.logger})
	results, pushErr := pusher.Push(ctx, ticketID, t)
	if err := a.render(pushResults(results), func() string { return renderPush(ticketID, results) }); err != nil {
		return err
	}
	return pushErr
}

func runLinks(ctx context.Context, a *App, args []string) error {
	var ticketID, typ string
	fs := a.newFlagSet("links")
	fs.StringVar(&ticketID, "ticket-id", "", "only links of this ticket")
	integrationFlag(fs, &typ)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	var links []model.ExternalLink
	if ticketID != "" {
		links, err = s.GetLinksForTicket(ctx, ticketID)
	} else if typ != "" {
		it := integrationType(typ)
		links, err = s.ListLinks(ctx, &it)
	} else {
		links, err = s.ListLinks(ctx, nil)
	}
	if err != nil {
		return err
	}
	return a.render(links, func() string { return renderLinks(links) })
}

// runUnlink forgets the stored link so the next push creates a new
// external item. The external item itself is left alone.
func runUnlink(ctx context.Context, a *App, args []string) error {
	var ticketID, typ string
	fs := a.newFlagSet("unlink")
	fs.StringVar(&ticketID, "ticket-id", "", "internal ticket id")
	integrationFlag(fs, &typ)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlag(fs, "ticket-id", ticketID); err != nil {
		return err
	}
	if err := requireFlag(fs, "type", typ); err != nil {
		return err
	}
	it, ok := model.ParseIntegrationType(typ)
	if !ok {
		return &integration.UnknownIntegrationTypeError{Type: typ}
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	if err := s.DeleteLink(ctx, ticketID, it); err != nil {
		return err
	}
	if logger, err := a.log(); err == nil {
		logger.InfoContext(ctx, "link removed", "ticket", ticketID, "integration", it)
	}
	fmt.Fprintf(a.stdout, "unlinked %s from %s\n", ticketID, it)
	return nil
}

func runLog(ctx context.Context, a *App, args []string) error {
	var ticketID, typ string
	var filter store.SyncFilter
	fs := a.newFlagSet("log")
	fs.StringVar(&ticketID, "ticket-id", "", "only entries of this ticket")
	integrationFlag(fs, &typ)
	fs.BoolVar(&filter.FailedOnly, "failed", false, "only failed pushes")
	fs.IntVarP(&filter.Limit, "limit", "n", 20, "maximum entries to show")
	fs.IntVar(&filter.Offset, "offset", 0, "entries to skip")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if ticketID != "" {
		filter.TicketID = &ticketID
	}
	if typ != "" {
		it := integrationType(typ)
		filter.Type = &it
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	entries, err := s.GetSyncLog(ctx, filter)
	if err != nil {
		return err
	}
	return a.render(entries, func() string { return renderLog(entries) })
}

// recordSingle writes the sync entry of a one-off create or update and,
// on success, the ticket link.
func (a *App) recordSingle(
	ctx context.Context,
	ticketID string,
	typ model.IntegrationType,
	operation string,
	externalID string,
	ext *integration.ExternalTicket,
	opErr error,
) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}

	entry := model.SyncEntry{
		TicketID:   ticketID,
		Type:       typ,
		Operation:  operation,
		ExternalID: externalID,
		Succeeded:  opErr == nil,
	}
	if opErr != nil {
		entry.Error = opErr.Error()
		return s.RecordSync(ctx, entry)
	}

	entry.ExternalID = ext.ID
	if err := s.RecordSync(ctx, entry); err != nil {
		return err
	}
	link := model.ExternalLink{TicketID: ticketID, Type: typ, ExternalID: ext.ID, URL: ext.URL}
	if link.URL == "" {
		if existing, err := s.GetLink(ctx, ticketID, typ); err == nil {
			link.URL = existing.URL
		}
	}
	_, err = s.UpsertLink(ctx, link)
	return err
}
