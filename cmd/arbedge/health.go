package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arbedge/arbedge-core/internal/config"
	httpapi "github.com/arbedge/arbedge-core/internal/http"
)

var (
	healthJSON    bool
	healthTimeout time.Duration
)

func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Run a one-shot health check against the wired backends",
		Long: `Builds the same component graph serve would run and checks each
backend's health directly, without starting the HTTP listener.`,
		RunE: runHealth,
	}
	cmd.Flags().BoolVar(&healthJSON, "json", false, "output health status as JSON")
	cmd.Flags().DurationVar(&healthTimeout, "timeout", 10*time.Second, "per-checker timeout")
	return cmd
}

func runHealth(cmd *cobra.Command, args []string) error {
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

	checkers := []httpapi.HealthChecker{httpapi.NewKVHealthCheck("kv_store", app.Store)}
	handler := httpapi.NewHealthHandler(version, checkers...).WithTimeout(healthTimeout)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if healthJSON {
		fmt.Println(rec.Body.String())
		return nil
	}

	var resp httpapi.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}
	fmt.Printf("status: %s (version %s, checked %s)\n", resp.Status, resp.Version, resp.Timestamp.Format(time.RFC3339))
	for name, component := range resp.Components {
		fmt.Printf("  %-20s %-8s %s\n", name, component.Status, component.Message)
	}
	return nil
}
