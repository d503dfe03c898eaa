package distribution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/governor"
	"github.com/arbedge/arbedge-core/internal/kv"
	"github.com/arbedge/arbedge-core/internal/rbac"
)

// requiredPermission maps an opportunity kind to the permission a
// recipient must hold to be eligible, per the RBAC taxonomy.
func requiredPermission(kind OpportunityKind) rbac.Permission {
	switch kind {
	case KindTechnical:
		return rbac.PermTechnicalAnalysis
	case KindAIEnhanced:
		return rbac.PermAIEnhancedOpportunities
	default:
		return rbac.PermBasicOpportunities
	}
}

// DefaultConcurrency bounds the number of recipients evaluated and sent to
// in parallel for a single opportunity.
const DefaultConcurrency = 16

// idempotencyTTL bounds how long a (opportunity, recipient) send guard is
// held; an opportunity never outlives this by more than its own TTL.
const idempotencyTTL = 24 * time.Hour

// Engine fans an Opportunity out to its eligible recipients exactly once
// each, recording a DistributionRecord and an AnalyticsEvent for every
// decision, admit or deny. It is wired once at construction with narrow
// capability interfaces and holds no back-edges into the packages that
// satisfy them.
type Engine struct {
	permissions PermissionChecker
	sessions    SessionChecker
	limiter     RateLimiter
	sender      Sender
	idempotency kv.Store
	records     RecordSink
	analytics   AnalyticsSink
	concurrency int
	log         zerolog.Logger
}

// New wires an Engine. idempotency is a KV store used only for the
// send-guard key space (dist/{opportunityID}/{recipientID}); records and
// analytics may be nil, in which case Engine.Distribute skips that sink.
func New(
	permissions PermissionChecker,
	sessions SessionChecker,
	limiter RateLimiter,
	sender Sender,
	idempotency kv.Store,
	records RecordSink,
	analytics AnalyticsSink,
	log zerolog.Logger,
) *Engine {
	if analytics == nil {
		analytics = NoopAnalyticsSink{}
	}
	return &Engine{
		permissions: permissions,
		sessions:    sessions,
		limiter:     limiter,
		sender:      sender,
		idempotency: idempotency,
		records:     records,
		analytics:   analytics,
		concurrency: DefaultConcurrency,
		log:         log.With().Str("component", "distribution_engine").Logger(),
	}
}

// WithConcurrency overrides the bounded worker pool size.
func (e *Engine) WithConcurrency(n int) *Engine {
	if n > 0 {
		e.concurrency = n
	}
	return e
}

// Eval is the per-recipient policy context needed alongside a Recipient to
// make an admission decision: the recipient's RBAC user record (nil if not
// persisted, per the RBAC contract), the message class being sent, and the
// rate-limit scopes that must all admit for this recipient.
type Eval struct {
	Recipient Recipient
	User      *rbac.User
	Class     MessageClass
	Scopes    []governor.Scope
}

// Distribute evaluates and sends o to every recipient in evals, bounded to
// e.concurrency concurrent workers, returning one DistributionRecord per
// recipient in the order they complete (not input order).
func (e *Engine) Distribute(ctx context.Context, o Opportunity, evals []Eval) []DistributionRecord {
	if o.IsExpired(time.Now().UTC()) {
		e.log.Debug().Str("opportunity_id", o.ID).Msg("opportunity already expired, skipping distribution")
		return nil
	}

	results := make([]DistributionRecord, 0, len(evals))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.concurrency)

	for _, ev := range evals {
		ev := ev
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			rec := e.evaluateOne(ctx, o, ev)

			mu.Lock()
			results = append(results, rec)
			mu.Unlock()

			if e.records != nil {
				if err := e.records.Record(ctx, rec); err != nil {
					e.log.Warn().Err(err).Str("recipient_id", rec.RecipientID).Msg("failed to persist distribution record")
				}
			}
			e.analytics.Emit(ctx, AnalyticsEvent{OpportunityID: rec.OpportunityID, RecipientID: rec.RecipientID, Decision: rec.Decision})
		}()
	}
	wg.Wait()

	return results
}

// evaluateOne runs the full eligibility -> admission -> send pipeline for a
// single recipient and returns its terminal DistributionRecord.
func (e *Engine) evaluateOne(ctx context.Context, o Opportunity, ev Eval) DistributionRecord {
	start := time.Now()
	record := func(decision Decision) DistributionRecord {
		return DistributionRecord{
			OpportunityID: o.ID,
			RecipientID:   ev.Recipient.ID,
			ChatID:        ev.Recipient.Chat.ChatID,
			Decision:      decision,
			Latency:       time.Since(start),
			Timestamp:     time.Now().UTC(),
		}
	}

	guardKey := fmt.Sprintf("dist/%s/%s", o.ID, ev.Recipient.ID)
	_, alreadySent, err := e.idempotency.Get(ctx, guardKey)
	if err != nil {
		e.log.Warn().Err(err).Str("recipient_id", ev.Recipient.ID).Msg("idempotency guard check failed")
		return record(DecisionFailedSend)
	}
	if alreadySent {
		// Already sent to this (opportunity, recipient) pair.
		return record(DecisionSent)
	}

	if !e.permissions.Check(ev.User, requiredPermission(o.Kind)) {
		return record(DecisionIneligible)
	}

	if !ev.Recipient.IsGroup {
		ok, err := e.sessions.Validate(ctx, ev.Recipient.ID)
		if err != nil {
			e.log.Warn().Err(err).Str("recipient_id", ev.Recipient.ID).Msg("session validation failed")
			return record(DecisionFailedSend)
		}
		if !ok {
			return record(DecisionIneligible)
		}
	}

	if !MayEmit(ev.Class, ev.Recipient.Chat.Kind) {
		return record(DecisionBlocked)
	}

	if len(ev.Scopes) > 0 {
		decision, _, err := e.limiter.TryConsumeAll(ctx, ev.Scopes...)
		if err != nil {
			e.log.Warn().Err(err).Str("recipient_id", ev.Recipient.ID).Msg("rate limit check failed")
			return record(DecisionFailedSend)
		}
		if decision == governor.Limited {
			return record(DecisionRateLimited)
		}
	}

	claimed, err := e.idempotency.SetNX(ctx, guardKey, []byte("1"), idempotencyTTL)
	if err != nil {
		e.log.Warn().Err(err).Str("recipient_id", ev.Recipient.ID).Msg("idempotency guard write failed")
		return record(DecisionFailedSend)
	}
	if !claimed {
		// A concurrent evaluation already claimed this send.
		return record(DecisionSent)
	}

	if err := e.sender.Send(ctx, ev.Recipient.Chat, o); err != nil {
		e.log.Warn().Err(err).Str("recipient_id", ev.Recipient.ID).Msg("send failed")
		// Release the guard so a later replay can retry the send.
		_ = e.idempotency.Delete(ctx, guardKey)
		return record(DecisionFailedSend)
	}

	return record(DecisionSent)
}
