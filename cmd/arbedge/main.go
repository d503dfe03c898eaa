package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "arbedge"
	version = "v0.1.0"
)

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Edge-deployed arbitrage opportunity distribution core",
		Version: version,
		Long: `arbedge is the distribution core behind a cross-exchange funding-rate
arbitrage bot: credential vault, market-data accessor, RBAC policy engine,
session tracking, rate-limit governance, opportunity fan-out, and AI
enrichment, served over a chat-platform webhook.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML app config file (defaults built in if omitted)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("arbedge exited with an error")
	}
}
