package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/governor"
	"github.com/arbedge/arbedge-core/internal/kv"
	"github.com/arbedge/arbedge-core/internal/rbac"
)

type fakePermissions struct {
	allow bool
}

func (f fakePermissions) Check(*rbac.User, rbac.Permission) bool { return f.allow }

type fakeSessions struct {
	active map[string]bool
}

func (f fakeSessions) Validate(_ context.Context, owner string) (bool, error) {
	return f.active[owner], nil
}

type fakeLimiter struct {
	decision governor.Decision
}

func (f fakeLimiter) TryConsumeAll(_ context.Context, _ ...governor.Scope) (governor.Decision, string, error) {
	return f.decision, "", nil
}

type recordingSender struct {
	mu  chan struct{}
	got []string
}

func newRecordingSender() *recordingSender {
	return &recordingSender{mu: make(chan struct{}, 1)}
}

func (s *recordingSender) Send(_ context.Context, chat ChatContext, o Opportunity) error {
	s.mu <- struct{}{}
	s.got = append(s.got, chat.ChatID)
	<-s.mu
	return nil
}

func testOpportunity() Opportunity {
	now := time.Now().UTC()
	return Opportunity{
		ID:         "opp-1",
		Kind:       KindArbitrage,
		Pair:       "BTCUSDT",
		Confidence: 0.8,
		Risk:       RiskMedium,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
}

func TestDistribute_AdmitsAndSendsEligibleRecipient(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	sender := newRecordingSender()

	e := New(
		fakePermissions{allow: true},
		fakeSessions{active: map[string]bool{"user-1": true}},
		fakeLimiter{decision: governor.Admitted},
		sender,
		store,
		nil,
		nil,
		zerolog.Nop(),
	)

	evals := []Eval{
		{Recipient: Recipient{ID: "user-1", Chat: ChatContext{ChatID: "chat-1", Kind: ChatPrivate}}, Class: MessageGeneric},
	}

	records := e.Distribute(ctx, testOpportunity(), evals)
	if len(records) != 1 || records[0].Decision != DecisionSent {
		t.Fatalf("expected a single Sent record, got %+v", records)
	}
	if len(sender.got) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(sender.got))
	}
}

func TestDistribute_IneligibleWithoutPermission(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	sender := newRecordingSender()

	e := New(
		fakePermissions{allow: false},
		fakeSessions{active: map[string]bool{"user-1": true}},
		fakeLimiter{decision: governor.Admitted},
		sender,
		store,
		nil,
		nil,
		zerolog.Nop(),
	)

	evals := []Eval{
		{Recipient: Recipient{ID: "user-1", Chat: ChatContext{ChatID: "chat-1", Kind: ChatPrivate}}, Class: MessageGeneric},
	}

	records := e.Distribute(ctx, testOpportunity(), evals)
	if len(records) != 1 || records[0].Decision != DecisionIneligible {
		t.Fatalf("expected Ineligible, got %+v", records)
	}
	if len(sender.got) != 0 {
		t.Fatal("expected no send for an ineligible recipient")
	}
}

func TestDistribute_RateLimitedRecipientIsNotSent(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	sender := newRecordingSender()

	e := New(
		fakePermissions{allow: true},
		fakeSessions{active: map[string]bool{"user-1": true}},
		fakeLimiter{decision: governor.Limited},
		sender,
		store,
		nil,
		nil,
		zerolog.Nop(),
	)

	evals := []Eval{
		{
			Recipient: Recipient{ID: "user-1", Chat: ChatContext{ChatID: "chat-1", Kind: ChatPrivate}},
			Class:     MessageGeneric,
			Scopes:    []governor.Scope{governor.AIScope("user-1", 100)},
		},
	}

	records := e.Distribute(ctx, testOpportunity(), evals)
	if len(records) != 1 || records[0].Decision != DecisionRateLimited {
		t.Fatalf("expected RateLimited, got %+v", records)
	}
}

func TestDistribute_PersonalMessageBlockedOutsidePrivateChat(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	sender := newRecordingSender()

	e := New(
		fakePermissions{allow: true},
		fakeSessions{active: map[string]bool{"user-1": true}},
		fakeLimiter{decision: governor.Admitted},
		sender,
		store,
		nil,
		nil,
		zerolog.Nop(),
	)

	evals := []Eval{
		{Recipient: Recipient{ID: "user-1", Chat: ChatContext{ChatID: "group-1", Kind: ChatGroup}}, Class: MessagePersonal},
	}

	records := e.Distribute(ctx, testOpportunity(), evals)
	if len(records) != 1 || records[0].Decision != DecisionBlocked {
		t.Fatalf("expected Blocked, got %+v", records)
	}
}

func TestDistribute_IdempotentOnRepeatedCall(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	sender := newRecordingSender()

	e := New(
		fakePermissions{allow: true},
		fakeSessions{active: map[string]bool{"user-1": true}},
		fakeLimiter{decision: governor.Admitted},
		sender,
		store,
		nil,
		nil,
		zerolog.Nop(),
	)

	evals := []Eval{
		{Recipient: Recipient{ID: "user-1", Chat: ChatContext{ChatID: "chat-1", Kind: ChatPrivate}}, Class: MessageGeneric},
	}

	opp := testOpportunity()
	first := e.Distribute(ctx, opp, evals)
	second := e.Distribute(ctx, opp, evals)

	if first[0].Decision != DecisionSent {
		t.Fatalf("expected first attempt to send, got %+v", first)
	}
	if second[0].Decision != DecisionSent {
		t.Fatalf("expected second attempt to report Sent (already delivered), got %+v", second)
	}
	if len(sender.got) != 1 {
		t.Fatalf("expected exactly one physical send across both calls, got %d", len(sender.got))
	}
}

func TestDistribute_ExpiredOpportunityYieldsNoRecords(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	sender := newRecordingSender()

	e := New(
		fakePermissions{allow: true},
		fakeSessions{active: map[string]bool{"user-1": true}},
		fakeLimiter{decision: governor.Admitted},
		sender,
		store,
		nil,
		nil,
		zerolog.Nop(),
	)

	opp := testOpportunity()
	opp.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	evals := []Eval{
		{Recipient: Recipient{ID: "user-1", Chat: ChatContext{ChatID: "chat-1", Kind: ChatPrivate}}, Class: MessageGeneric},
	}
	records := e.Distribute(ctx, opp, evals)
	if len(records) != 0 {
		t.Fatalf("expected no records for an already-expired opportunity, got %+v", records)
	}
}
