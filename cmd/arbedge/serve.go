package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arbedge/arbedge-core/internal/config"
	httpapi "github.com/arbedge/arbedge-core/internal/http"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook/health/metrics HTTP server",
		Long: `Serve starts the inbound chat-platform webhook, the health endpoint, and
the Prometheus metrics endpoint, wiring every component (vault, market
accessor, RBAC, sessions, rate governor, distribution engine, enrichment
coordinator, command router) into one process.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAppConfig(configPath)
	if err != nil {
		return err
	}

	app, err := buildApp(cfg, log.Logger)
	if err != nil {
		return err
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	stopScheduler, err := startScheduler(app, log.Logger)
	if err != nil {
		return err
	}
	defer stopScheduler()

	metrics := httpapi.NewMetricsRegistry()
	webhook := httpapi.NewWebhookHandler(app.Router, metrics, log.Logger)

	checkers := []httpapi.HealthChecker{httpapi.NewKVHealthCheck("kv_store", app.Store)}
	health := httpapi.NewHealthHandler(version, checkers...)

	serverCfg := httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	server, err := httpapi.NewServer(serverCfg, webhook, health, metrics, log.Logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
