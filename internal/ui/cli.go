package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/config"
	"github.com/javiermolinar/weekplan/internal/db"
	"github.com/javiermolinar/weekplan/internal/logging"
	"github.com/javiermolinar/weekplan/internal/migrate"
	"github.com/javiermolinar/weekplan/internal/planner"
	"github.com/javiermolinar/weekplan/internal/remote"
	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
	"github.com/javiermolinar/weekplan/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

var errNoRemote = errors.New("no backend configured (set remote.base_url or WEEKPLAN_REMOTE_URL)")

// App holds the CLI application state.
type App struct {
	config     *config.Config
	configPath string
	root       *cobra.Command
	debug      bool // Enable debug logging

	logger  *zap.Logger
	store   *db.SQLite
	client  *remote.Client
	session *planner.Session
	stop    func()
	loaded  bool
}

// NewApp creates a new CLI application with the given config.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg}

	a.root = &cobra.Command{
		Use:   "weekplan",
		Short: "A week planner for the terminal",
		Long: `Weekplan is a week planner with morning and afternoon slots.

Each day holds up to four tasks per period. Tasks without a slot wait
in the parking area. Tasks are stored locally until you sign in to a
backend, after which they follow your account.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("config") {
				return nil
			}
			loaded, err := config.LoadFrom(a.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			a.config = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The TUI owns the terminal, so logs go to a file next to the data.
			if a.logger == nil && a.config.Log.File == "" {
				a.config.Log.File = filepath.Join(filepath.Dir(a.config.Storage.LocalPath), "weekplan.log")
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			return tui.Run(s, tui.Options{
				Theme:  a.config.UI.Theme,
				Auth:   a.provider(),
				Logger: a.logger,
			})
		},
	}

	// Add global flags
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to "+logging.DebugLogPath+")")
	a.root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultConfigPath(), "Config file path")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.listCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.editCmd())
	a.root.AddCommand(a.doneCmd())
	a.root.AddCommand(a.removeCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.signUpCmd())
	a.root.AddCommand(a.signInCmd())
	a.root.AddCommand(a.signOutCmd())
	a.root.AddCommand(a.whoamiCmd())
	a.root.AddCommand(a.migrateCmd())
	a.root.AddCommand(a.serveCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "weekplan %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.ExecuteContext(context.Background())
}

// Close releases the session watcher, the local database and the logger.
func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
		a.stop = nil
	}
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// log returns the application logger, building it on first use.
func (a *App) log() *zap.Logger {
	if a.logger != nil {
		return a.logger
	}
	logger, err := logging.New(logging.FromConfig(a.config.Log, a.debug))
	if err != nil {
		logger = logging.Quiet()
		logger.Error("building logger failed, using stderr", zap.Error(err))
	}
	a.logger = logger
	return logger
}

// open wires the session and loads it for the signed-in user, or from local storage.
func (a *App) open(ctx context.Context) (*planner.Session, error) {
	if a.session != nil && a.loaded {
		return a.session, nil
	}
	s, err := a.wire(ctx)
	if err != nil {
		return nil, err
	}

	if a.client == nil {
		if err := s.Load(ctx); err != nil {
			return nil, err
		}
		a.loaded = true
		return s, nil
	}

	stop, err := s.Watch(ctx, a.client)
	if err != nil && a.client.CurrentUser() == nil {
		// The stored session was rejected; carry on signed out.
		a.log().Info("stored session rejected, using local storage", zap.Error(err))
		stop, err = s.Watch(ctx, a.client)
	}
	if err != nil {
		return nil, err
	}
	a.stop = stop
	a.loaded = true
	return s, nil
}

// wire builds local storage, the optional backend client and the planner
// session without loading any tasks.
func (a *App) wire(ctx context.Context) (*planner.Session, error) {
	if a.session != nil {
		return a.session, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := a.log()

	grid, err := a.config.Grid()
	if err != nil {
		return nil, err
	}

	store, err := db.New(a.config.Storage.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("opening local storage: %w", err)
	}
	a.store = store
	local := storage.NewLocalCollection(store.KV(), logger.Named("local"))

	var backend storage.Backend
	if a.config.HasRemote() {
		timeout, err := a.config.RemoteTimeout()
		if err != nil {
			return nil, err
		}
		client, err := remote.New(ctx, remote.Config{
			BaseURL:           a.config.Remote.BaseURL,
			KV:                store.KV(),
			RequestsPerSecond: a.config.Remote.RequestsPerSecond,
			Burst:             a.config.Remote.Burst,
			Timeout:           timeout,
			Logger:            logger.Named("remote"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating backend client: %w", err)
		}
		a.client = client
		backend = client
	}

	opts := []planner.Option{planner.WithLogger(logger.Named("planner"))}
	if backend != nil {
		opts = append(opts, planner.WithMigrator(migrate.NewCoordinator(local, backend, logger.Named("migrate"))))
	}
	board := task.NewBoard(grid, task.ClockIDs(time.Now))
	s := planner.NewSession(board, storage.NewAdapter(local, backend, logger.Named("storage")), opts...)
	a.session = s
	return s, nil
}

// provider returns the backend client as an auth provider, or nil without a backend.
func (a *App) provider() auth.Provider {
	if a.client == nil {
		return nil
	}
	return a.client
}

// remoteClient wires the session and returns the backend client. Tasks are
// not loaded, so account commands work while the backend rejects the session.
func (a *App) remoteClient(ctx context.Context) (*planner.Session, *remote.Client, error) {
	s, err := a.wire(ctx)
	if err != nil {
		return nil, nil, err
	}
	if a.client == nil {
		return nil, nil, errNoRemote
	}
	return s, a.client, nil
}
