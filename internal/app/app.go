// Package app implements the itsm-sync command line: it loads the YAML
// configuration, resolves secrets, builds the dispatcher and runs one
// subcommand against it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/nhle/itsm-sync/internal/credential"
	"github.com/nhle/itsm-sync/internal/dispatch"
	"github.com/nhle/itsm-sync/internal/model"
	"github.com/nhle/itsm-sync/internal/store"
)

// ErrUsage is returned for malformed command lines.
var ErrUsage = errors.New("usage error")

// command is one subcommand. It receives the arguments after its name.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *App, args []string) error
}

func commands() []command {
	return []command{
		{"init", "write a default config file", runInit},
		{"check", "validate credentials of enabled integrations", runCheck},
		{"create", "create an external item from a ticket", runCreate},
		{"update", "overwrite an external item with a ticket", runUpdate},
		{"get", "fetch an external item", runGet},
		{"comment", "add a comment to an external item", runComment},
		{"comments", "list comments on an external item", runComments},
		{"types", "list item types an integration can create", runTypes},
		{"push", "push a ticket to every enabled integration", runPush},
		{"links", "list stored ticket links", runLinks},
		{"unlink", "forget the link of a ticket to one integration", runUnlink},
		{"log", "show the sync log", runLog},
	}
}

// App holds the state shared by subcommands. Expensive pieces are built
// on first use.
type App struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	jsonOutput bool

	// SecretLookup resolves "keyring:<name>" settings. Defaults to the
	// system keyring, opened on first use.
	SecretLookup func(name string) (string, error)

	cfg        *model.AppConfig
	logger     *slog.Logger
	dispatcher *dispatch.Dispatcher
	store      *store.SQLiteStore
}

// New creates an App writing to the given streams.
func New(stdout, stderr io.Writer) *App {
	return &App{stdout: stdout, stderr: stderr}
}

// Run parses global flags, dispatches to the named subcommand and
// releases any resources it opened.
func (a *App) Run(ctx context.Context, args []string) error {
	flagSet := pflag.NewFlagSet("itsm-sync", pflag.ContinueOnError)
	flagSet.SetOutput(a.stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVarP(&a.configPath, "config", "c", defaultConfigPath(), "path to the YAML config file")
	flagSet.StringVar(&a.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	flagSet.BoolVar(&a.jsonOutput, "json", false, "print results as JSON")
	flagSet.Usage = func() { a.printUsage(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		a.printUsage(flagSet)
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	defer a.Close()

	for _, cmd := range commands() {
		if cmd.name == rest[0] {
			return cmd.run(ctx, a, rest[1:])
		}
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, rest[0])
}

// Close releases the store if one was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *App) printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(a.stderr, "Usage: itsm-sync [global flags] <command> [flags]\n\nCommands:\n")
	for _, cmd := range commands() {
		fmt.Fprintf(a.stderr, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(a.stderr, "\nGlobal flags:\n%s", flagSet.FlagUsages())
}

// loadConfig loads the configuration and resolves keyring secrets.
func (a *App) loadConfig() (*model.AppConfig, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := model.LoadConfig(a.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveSecrets(a.secretLookup()); err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *App) secretLookup() func(string) (string, error) {
	if a.SecretLookup != nil {
		return a.SecretLookup
	}
	var (
		once   gosync.Once
		lookup func(string) (string, error)
		err    error
	)
	return func(name string) (string, error) {
		once.Do(func() {
			ring, openErr := credential.Open()
			if openErr != nil {
				err = openErr
				return
			}
			lookup = credential.Lookup(ring)
		})
		if err != nil {
			return "", err
		}
		return lookup(name)
	}
}

// log returns the logger configured from the log section and --log-level.
func (a *App) log() (*slog.Logger, error) {
	if a.logger != nil {
		return a.logger, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Log
	if a.logLevel != "" {
		logCfg.Level = a.logLevel
	}
	logger, err := NewLogger(a.stderr, logCfg)
	if err != nil {
		return nil, err
	}
	a.logger = logger
	return logger, nil
}

// NewLogger builds a text or JSON slog logger at the configured level.
func NewLogger(w io.Writer, cfg model.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: want text or json", cfg.Format)
	}
}

// openDispatcher builds the dispatcher from the integrations section.
func (a *App) openDispatcher() (*dispatch.Dispatcher, error) {
	if a.dispatcher != nil {
		return a.dispatcher, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := a.log()
	if err != nil {
		return nil, err
	}
	configs, err := cfg.IntegrationConfigs()
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.HTTP.TimeoutSec) * time.Second
	d, err := dispatch.New(configs, dispatch.Options{
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	a.dispatcher = d
	return d, nil
}

// openStore opens the link and sync-log database.
func (a *App) openStore() (*store.SQLiteStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	path := cfg.Database.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func defaultConfigPath() string {
	if path := os.Getenv("ITSM_SYNC_CONFIG"); path != "" {
		return path
	}
	return model.DefaultConfigPath()
}
