package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/commands"
	"github.com/arbedge/arbedge-core/internal/enrichment"
	"github.com/arbedge/arbedge-core/internal/governor"
	"github.com/arbedge/arbedge-core/internal/kv"
	"github.com/arbedge/arbedge-core/internal/rbac"
	"github.com/arbedge/arbedge-core/internal/session"
	"github.com/arbedge/arbedge-core/internal/vault"
)

// subscribedUser resolves every owner to a Premium user with an active
// subscription, so ai_insights/risk_assessment's permission gate passes and
// the handler registered by registerEnrichmentCommands actually runs.
type subscribedUser struct{}

func (subscribedUser) Lookup(context.Context, string) (*rbac.User, error) {
	return &rbac.User{Role: rbac.RolePremium, Subscription: rbac.Subscription{Active: true}}, nil
}

// newTestRouterWithEnrichment wires a Router the same way buildApp does,
// minus anything network-facing, so ai_insights/risk_assessment can be
// exercised end to end without a running server.
func newTestRouterWithEnrichment(t *testing.T) *commands.Router {
	t.Helper()
	store := kv.NewMemoryStore()
	log := zerolog.Nop()

	v := vault.New(store, "test-master-secret", 3, log)
	gov := governor.New(store)
	enricher := enrichment.New(v, gov, store, nil, nil, nil, log)

	sessions := session.New(store)
	permissions := rbac.New()
	router := commands.New(sessions, permissions, subscribedUser{}, log)
	registerEnrichmentCommands(router, v, enricher)

	ctx := context.Background()
	if _, err := sessions.Start(ctx, "1001", "1"); err != nil {
		t.Fatalf("starting session: %v", err)
	}
	return router
}

func TestRegisterEnrichmentCommands_AIInsightsReachesCoordinator(t *testing.T) {
	router := newTestRouterWithEnrichment(t)
	ctx := context.Background()

	reply, err := router.Route(ctx, 1, 1001, "private", "/ai_insights")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	// With no AI credential in the vault, the coordinator returns a
	// NotFound error, which the router turns into its generic failure
	// reply - proof the command now reaches enrichment.Engine.Insights
	// instead of returning the old fixed placeholder string.
	if reply == "" {
		t.Fatal("expected a non-empty reply")
	}
	if reply == "AI insights are generated by the enrichment coordinator; wire it via Register to serve real results." {
		t.Fatal("ai_insights is still wired to the removed placeholder")
	}
	if reply == "This feature (ai_enhanced_opportunities) requires an active subscription or elevated role." {
		t.Fatal("subscribed user was still denied; test fixture is wrong, not the wiring")
	}
}

func TestRegisterEnrichmentCommands_RiskAssessmentReachesCoordinator(t *testing.T) {
	router := newTestRouterWithEnrichment(t)
	ctx := context.Background()

	reply, err := router.Route(ctx, 1, 1001, "private", "/risk_assessment")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if reply == "Portfolio risk assessment is generated by the enrichment coordinator; wire it via Register to serve real results." {
		t.Fatal("risk_assessment is still wired to the removed placeholder")
	}
	if reply == "This feature (advanced_analytics) requires an active subscription or elevated role." {
		t.Fatal("subscribed user was still denied; test fixture is wrong, not the wiring")
	}
}
