package distribution

import (
	"context"

	"github.com/arbedge/arbedge-core/internal/governor"
	"github.com/arbedge/arbedge-core/internal/rbac"
)

// PermissionChecker is the narrow view of the RBAC Policy Engine the
// distribution engine depends on. Satisfied by *rbac.Engine.
type PermissionChecker interface {
	Check(user *rbac.User, permission rbac.Permission) bool
}

// SessionChecker is the narrow view of the Session & Activity Engine the
// distribution engine depends on. Satisfied by *session.Engine.
type SessionChecker interface {
	Validate(ctx context.Context, owner string) (bool, error)
}

// RateLimiter is the narrow view of the Rate-Limit Governor the
// distribution engine depends on. Satisfied by *governor.Governor.
type RateLimiter interface {
	TryConsumeAll(ctx context.Context, scopes ...governor.Scope) (governor.Decision, string, error)
}

// Sender delivers one opportunity message into a single chat. It is the
// only capability the engine holds that crosses a process boundary (the
// outbound chat-platform transport), and is supplied by the caller wiring
// the engine together, never constructed by this package.
type Sender interface {
	Send(ctx context.Context, chat ChatContext, o Opportunity) error
}

// NoopSender reports every send as successful without delivering anything.
// The conversational adapter (message formatting and chat-platform
// transport) is an external collaborator this core does not implement;
// NoopSender lets the engine run end to end before that adapter is wired.
type NoopSender struct{}

func (NoopSender) Send(context.Context, ChatContext, Opportunity) error { return nil }

// RecordSink persists one DistributionRecord, admit or deny. Satisfied by
// a Postgres-backed repository.
type RecordSink interface {
	Record(ctx context.Context, rec DistributionRecord) error
}

// AnalyticsEvent is a one-way outbound notification the engine emits after
// every decision, breaking what would otherwise be a cycle back into the
// AI Enrichment Coordinator and any other consumer interested in
// distribution outcomes, without the engine importing those consumers.
type AnalyticsEvent struct {
	OpportunityID string
	RecipientID   string
	Decision      Decision
}

// AnalyticsSink receives AnalyticsEvents. Implementations must not block
// the caller for long; the engine does not retry a failed Emit.
type AnalyticsSink interface {
	Emit(ctx context.Context, event AnalyticsEvent)
}

// NoopAnalyticsSink discards every event. Used where no analytics consumer
// is wired.
type NoopAnalyticsSink struct{}

func (NoopAnalyticsSink) Emit(context.Context, AnalyticsEvent) {}

// RecipientSource lists the candidate recipients eligible to receive an
// opportunity: active-session users for arbitrage/technical broadcasts,
// plus registered groups with the matching feature toggle enabled. Recipient
// discovery is a distinct concern (it scans session/group storage) from
// distribution (which only evaluates and sends to a supplied list).
type RecipientSource interface {
	ListRecipients(ctx context.Context, o Opportunity) ([]Recipient, error)
}
