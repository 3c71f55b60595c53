package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botfleet/internal/http/routes"
	"botfleet/internal/http/server"
	"botfleet/internal/infra/config"
	"botfleet/internal/infra/container"
	"botfleet/pkg/logger"
)

// App wires the Container to the HTTP server and owns the process lifecycle:
// startup (resume approved bots), serving, and graceful shutdown.
type App struct {
	container *container.Container
	server    *server.Server
	logger    logger.Logger
}

// New loads configuration and builds the fully wired application.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build container: %w", err)
	}

	router := routes.NewRouter(c)
	srv := server.New(router, &cfg.Server, c.Logger)

	return &App{container: c, server: srv, logger: c.Logger}, nil
}

// Start resumes eligible bots for this tenancy, then serves HTTP until a
// shutdown signal arrives.
func (a *App) Start() error {
	a.logger.Info("starting botfleet tenancy process")

	resumeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := a.container.ResumeBots(resumeCtx); err != nil {
		a.logger.ErrorWithError("failed to resume bots on startup", err, nil)
	}

	return a.startServerAndWaitForShutdown()
}

// Stop releases every resource the Container owns: the guest session
// sweeper, the whatsmeow store, and the database connection.
func (a *App) Stop() error {
	a.logger.Info("stopping botfleet tenancy process")
	if err := a.container.Close(); err != nil {
		return fmt.Errorf("failed to close container: %w", err)
	}
	a.logger.Info("botfleet tenancy process stopped")
	return nil
}

// Health checks the application health
func (a *App) Health() error {
	return a.container.Health()
}

// GetConfig returns the application configuration
func (a *App) GetConfig() *config.Config {
	return a.container.Config
}

// GetContainer returns the wired Container
func (a *App) GetContainer() *container.Container {
	return a.container
}

func (a *App) startServerAndWaitForShutdown() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			serverErrors <- err
		}
	}()

	a.logger.InfoWithFields("botfleet application started successfully", logger.Fields{
		"server_address": a.server.GetAddr(),
	})

	return a.waitForShutdown(ctx, serverErrors, sigChan, cancel)
}

func (a *App) waitForShutdown(_ context.Context, serverErrors <-chan error, sigChan <-chan os.Signal, cancel context.CancelFunc) error {
	select {
	case err := <-serverErrors:
		a.logger.ErrorWithError("server error", err, nil)
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		a.logger.InfoWithFields("shutdown signal received", logger.Fields{"signal": sig.String()})
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			a.logger.ErrorWithError("failed to stop http server gracefully", err, nil)
		}
		return nil
	}
}
