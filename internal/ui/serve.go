package ui

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/db"
	"github.com/javiermolinar/weekplan/internal/server"
)

func (a *App) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the task backend",
		Long: `Run the HTTP backend that stores tasks per account.

Point clients at it with remote.base_url in their config.`,
		Example: `  weekplan serve
  weekplan serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			logger := a.log().Named("server")

			grid, err := a.config.Grid()
			if err != nil {
				return err
			}
			store, err := db.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening backend database: %w", err)
			}
			defer func() { _ = store.Close() }()

			srv, err := server.New(server.Config{
				Logger:        logger,
				Addr:          cfg.Addr,
				Mode:          cfg.Mode,
				Auth:          auth.NewService(store.Users(), logger.Named("auth")),
				Tasks:         store.Tasks(),
				Grid:          grid,
				RatePerMinute: cfg.RatePerMinute,
				Burst:         cfg.Burst,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")

	return cmd
}
