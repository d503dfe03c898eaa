package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arbedge/arbedge-core/internal/enrichment"
)

// EnrichmentRepo persists the AI Enrichment Coordinator's non-cached
// outputs - portfolio assessments and performance insights - satisfying
// enrichment.Recorder. Per-opportunity enhancements are cache-only and are
// never written here.
type EnrichmentRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewEnrichmentRepo builds an EnrichmentRepo.
func NewEnrichmentRepo(db *sqlx.DB, timeout time.Duration) *EnrichmentRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EnrichmentRepo{db: db, timeout: timeout}
}

// RecordPortfolioAnalysis inserts one assess_portfolio result.
func (r *EnrichmentRepo) RecordPortfolioAnalysis(ctx context.Context, a enrichment.PortfolioAnalysis) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		INSERT INTO portfolio_analyses (owner, summary, risk_score, diversification_score, ts)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, a.Owner, a.Summary, a.RiskScore, a.Diversification, a.GeneratedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("recording portfolio analysis (%s): %w", pqErr.Code, err)
		}
		return fmt.Errorf("recording portfolio analysis: %w", err)
	}
	return nil
}

// RecordPerformanceInsights inserts one insights result.
func (r *EnrichmentRepo) RecordPerformanceInsights(ctx context.Context, i enrichment.PerformanceInsights) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		INSERT INTO performance_insights (owner, window_days, summary, win_rate, ts)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, i.Owner, i.WindowDays, i.Summary, i.WinRate, i.GeneratedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("recording performance insights (%s): %w", pqErr.Code, err)
		}
		return fmt.Errorf("recording performance insights: %w", err)
	}
	return nil
}

// LatestInsights returns the most recently recorded insight for an owner,
// or nil if none has been recorded yet.
func (r *EnrichmentRepo) LatestInsights(ctx context.Context, owner string) (*enrichment.PerformanceInsights, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT owner, window_days, summary, win_rate, ts
		FROM performance_insights
		WHERE owner = $1
		ORDER BY ts DESC
		LIMIT 1`

	var i enrichment.PerformanceInsights
	err := r.db.QueryRowxContext(ctx, query, owner).Scan(&i.Owner, &i.WindowDays, &i.Summary, &i.WinRate, &i.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("loading latest insights: %w", err)
	}
	return &i, nil
}
