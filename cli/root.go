// ABOUTME: Root cobra command and shared setup for every subcommand
// ABOUTME: Loads layered configuration, builds the logger and opens the store
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harperreed/cxboard/config"
	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/importer"
	"github.com/harperreed/cxboard/logging"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	backend    string
	dbPath     string
	logLevel   string
}

// app carries what subcommands share once the root pre-run has loaded config.
type app struct {
	version string
	opts    rootOptions
	cfg     *config.Config
	log     *logrus.Logger
}

func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	cmd := &cobra.Command{
		Use:           "cxboard",
		Short:         "Customer-experience dashboard backend: imports, contact views and notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "config file (default: "+config.Path()+")")
	flags.StringSliceVar(&a.opts.envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading the environment")
	flags.StringVar(&a.opts.backend, "backend", "", "storage backend: memory, sqlite or postgres")
	flags.StringVar(&a.opts.dbPath, "db-path", "", "SQLite database path")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "log level: debug, info, warn, error or silent")

	cmd.AddCommand(
		a.newServeCmd(),
		a.newImportCmd(),
		a.newContactsCmd(),
		a.newShowCmd(),
		a.newGraphCmd(),
		a.newStatsCmd(),
		a.newClearCmd(),
		a.newMCPCmd(),
		a.newConfigCmd(),
		a.newVersionCmd(),
	)
	return cmd
}

// Execute runs the CLI and exits non-zero on error.
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath, a.opts.envFiles)
	if err != nil {
		return err
	}
	if a.opts.backend != "" {
		cfg.Storage.Backend = a.opts.backend
	}
	if a.opts.dbPath != "" {
		cfg.Storage.SQLitePath = a.opts.dbPath
	}
	if a.opts.logLevel != "" {
		cfg.Log.Level = a.opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	return nil
}

// openStore opens the configured backend. The caller closes it.
func (a *app) openStore(ctx context.Context) (db.Store, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		return db.NewMemoryStore(), nil
	case config.BackendSQLite:
		store, err := db.OpenSQLiteStore(a.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.log.WithField("path", a.cfg.Storage.SQLitePath).Debug("opened sqlite store")
		return store, nil
	case config.BackendPostgres:
		store, err := db.ConnectPostgres(ctx, a.cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.log.Debug("connected to postgres store")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.cfg.Storage.Backend)
	}
}

func (a *app) newImporter(store db.Store) *importer.Importer {
	return importer.New(store, importer.Options{
		Atomic:           a.cfg.Import.Atomic,
		DefaultDirectory: a.cfg.Import.DefaultDirectory,
		MaxBytes:         a.cfg.Import.MaxBytes,
		Logger:           a.log,
	})
}

// withStore opens the store, runs fn and closes the store.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, store db.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.log.WithError(err).Warn("failed to close store")
		}
	}()
	return fn(ctx, store)
}
