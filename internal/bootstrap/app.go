package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/campusbot/internal/domain/auth"
	"github.com/yanqian/campusbot/internal/infra/config"
	"github.com/yanqian/campusbot/internal/infra/kb/queue"
)

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	authSvc auth.Service
	jobs    queue.HandlerQueue
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, authSvc auth.Service, jobs queue.HandlerQueue) *App {
	return &App{
		cfg:     cfg,
		logger:  logger.With("component", "bootstrap"),
		server:  server,
		authSvc: authSvc,
		jobs:    jobs,
	}
}

// Run seeds the admin account, starts the HTTP server and blocks until
// shutdown.
func (a *App) Run(ctx context.Context) error {
	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := a.authSvc.Bootstrap(bootstrapCtx); err != nil {
		a.logger.Error("admin bootstrap failed", "error", err)
	}
	cancel()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		a.stopJobs()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		a.stopJobs()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) stopJobs() {
	stopper, ok := a.jobs.(interface{ Stop() })
	if !ok {
		return
	}
	stopper.Stop()
}
