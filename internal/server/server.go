// Package server is the hosted task backend: owner-scoped task CRUD, bulk
// insert for migrations, and email/password sessions over a gin engine.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
)

// Version is reported by /health.
const Version = "1.0.0"

// pruneInterval is how often expired sessions are deleted while Run is active.
const pruneInterval = time.Hour

// Server holds all dependencies of the HTTP backend.
type Server struct {
	gin     *gin.Engine
	logger  *zap.Logger
	addr    string
	mode    string
	auth    *auth.Service
	tasks   storage.Backend
	grid    task.Grid
	limiter *rateLimiter
}

// Config is the dependency bag passed to New.
type Config struct {
	Logger *zap.Logger
	Addr   string
	Mode   string // gin mode: debug, release or test

	Auth  *auth.Service
	Tasks storage.Backend
	// Grid validates task locations. The zero value accepts every day.
	Grid task.Grid

	RatePerMinute int
	Burst         int
}

// New builds the server and registers its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	grid := cfg.Grid
	if len(grid.Days()) == 0 {
		grid = task.DefaultGrid()
	}

	srv := &Server{
		gin:    gin.New(),
		logger: cfg.Logger,
		addr:   cfg.Addr,
		mode:   cfg.Mode,
		auth:   cfg.Auth,
		tasks:  cfg.Tasks,
		grid:   grid,
	}
	if err := srv.validate(cfg); err != nil {
		return nil, err
	}
	srv.limiter = newRateLimiter(cfg.RatePerMinute, cfg.Burst)
	srv.mapHandlers()
	return srv, nil
}

func (srv *Server) validate(cfg Config) error {
	if srv.logger == nil {
		return errors.New("logger is required")
	}
	if srv.mode == "" {
		return errors.New("mode is required")
	}
	if srv.auth == nil {
		return errors.New("auth service is required")
	}
	if srv.tasks == nil {
		return errors.New("task backend is required")
	}
	if cfg.RatePerMinute <= 0 {
		return errors.New("rate per minute must be positive")
	}
	return nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (srv *Server) Handler() http.Handler {
	return srv.gin
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	if srv.addr == "" {
		return errors.New("addr is required")
	}
	httpSrv := &http.Server{
		Addr:              srv.addr,
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go srv.pruneSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("backend listening", zap.String("addr", srv.addr), zap.String("mode", srv.mode))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", srv.addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.logger.Info("shutting down backend")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (srv *Server) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := srv.auth.PruneSessions(ctx); err != nil {
				srv.logger.Warn("pruning sessions failed", zap.Error(err))
			}
		}
	}
}
