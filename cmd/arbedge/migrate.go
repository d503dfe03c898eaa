package main

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arbedge/arbedge-core/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS distribution_records (
	id             BIGSERIAL PRIMARY KEY,
	opportunity_id TEXT NOT NULL,
	recipient_id   TEXT NOT NULL,
	chat_id        TEXT NOT NULL,
	decision       TEXT NOT NULL,
	latency_ms     BIGINT NOT NULL,
	ts             TIMESTAMPTZ NOT NULL,
	UNIQUE (opportunity_id, recipient_id)
);

CREATE TABLE IF NOT EXISTS portfolio_analyses (
	id                    BIGSERIAL PRIMARY KEY,
	owner                 TEXT NOT NULL,
	summary               TEXT NOT NULL,
	risk_score            DOUBLE PRECISION NOT NULL,
	diversification_score DOUBLE PRECISION NOT NULL,
	ts                    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS performance_insights (
	id          BIGSERIAL PRIMARY KEY,
	owner       TEXT NOT NULL,
	window_days INT NOT NULL,
	summary     TEXT NOT NULL,
	win_rate    DOUBLE PRECISION NOT NULL,
	ts          TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_distribution_records_recipient ON distribution_records (recipient_id, ts);
CREATE INDEX IF NOT EXISTS idx_performance_insights_owner ON performance_insights (owner, ts);
`

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema for distribution and enrichment persistence",
		Long: `Creates the distribution_records, portfolio_analyses, and
performance_insights tables (idempotent) against persistence.dsn.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAppConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Persistence.DSN == "" {
		log.Warn().Msg("persistence.dsn is empty; nothing to migrate")
		return nil
	}

	db, err := sqlx.Connect("postgres", cfg.Persistence.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return err
	}
	log.Info().Msg("schema applied")
	return nil
}
