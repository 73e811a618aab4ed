package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/codepad-io/codepad-server/internal/config"
	"github.com/codepad-io/codepad-server/internal/core"
	"github.com/codepad-io/codepad-server/internal/runner"
	"github.com/codepad-io/codepad-server/internal/store"
	"github.com/codepad-io/codepad-server/internal/store/sqlite"
	transporthttp "github.com/codepad-io/codepad-server/internal/transport/http"
)

// App wires together the registry, runner, store and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("run history store initialized")

	registry := core.NewRegistry(logger)

	run := runner.New(runner.Java(), runner.Options{
		WorkRoot:       cfg.Runner.WorkDir,
		CompileTimeout: cfg.Runner.CompileTimeout,
		RunTimeout:     cfg.Runner.RunTimeout,
		MaxOutputBytes: cfg.Runner.MaxOutputBytes,
	}, logger)

	server := transporthttp.NewServer(registry, run, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
