// Package postgres provides PostgreSQL-backed persistence for outcomes the
// core must retain beyond the externalized KV store's TTL horizon:
// distribution decisions and AI enrichment outputs. It follows the
// teacher's sqlx/pq repository shape (timeout-bound context per call,
// explicit query strings, pq error inspection for constraint violations).
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arbedge/arbedge-core/internal/distribution"
)

// DistributionRepo persists DistributionRecords emitted by the opportunity
// distribution engine, satisfying distribution.RecordSink.
type DistributionRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewDistributionRepo builds a DistributionRepo.
func NewDistributionRepo(db *sqlx.DB, timeout time.Duration) *DistributionRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DistributionRepo{db: db, timeout: timeout}
}

// Record inserts one distribution decision. A duplicate (opportunity_id,
// recipient_id) pair - which the engine's idempotency guard should already
// prevent - is treated as success rather than surfaced as an error, since
// the guard is the source of truth for at-most-once delivery, not this
// table's uniqueness constraint.
func (r *DistributionRepo) Record(ctx context.Context, rec distribution.DistributionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		INSERT INTO distribution_records
			(opportunity_id, recipient_id, chat_id, decision, latency_ms, ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (opportunity_id, recipient_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		rec.OpportunityID, rec.RecipientID, rec.ChatID, string(rec.Decision),
		rec.Latency.Milliseconds(), rec.Timestamp)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("recording distribution decision (%s): %w", pqErr.Code, err)
		}
		return fmt.Errorf("recording distribution decision: %w", err)
	}
	return nil
}

// ListByOpportunity returns every recorded decision for one opportunity,
// most recent first. Nothing in this module calls it.
func (r *DistributionRepo) ListByOpportunity(ctx context.Context, opportunityID string) ([]distribution.DistributionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT opportunity_id, recipient_id, chat_id, decision, latency_ms, ts
		FROM distribution_records
		WHERE opportunity_id = $1
		ORDER BY ts DESC`

	rows, err := r.db.QueryxContext(ctx, query, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("listing distribution records: %w", err)
	}
	defer rows.Close()

	var out []distribution.DistributionRecord
	for rows.Next() {
		var (
			rec       distribution.DistributionRecord
			decision  string
			latencyMS int64
		)
		if err := rows.Scan(&rec.OpportunityID, &rec.RecipientID, &rec.ChatID, &decision, &latencyMS, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning distribution record: %w", err)
		}
		rec.Decision = distribution.Decision(decision)
		rec.Latency = time.Duration(latencyMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating distribution records: %w", err)
	}
	return out, nil
}

// CountSentSince returns how many Sent decisions a recipient has received
// since the given time. Nothing in this module calls it; the ai_insights
// command passes a win rate of 0.
func (r *DistributionRepo) CountSentSince(ctx context.Context, recipientID string, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT COUNT(*) FROM distribution_records
		WHERE recipient_id = $1 AND decision = $2 AND ts >= $3`

	var count int64
	err := r.db.QueryRowxContext(ctx, query, recipientID, string(distribution.DecisionSent), since).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("counting sent distributions: %w", err)
	}
	return count, nil
}
