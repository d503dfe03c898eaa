package commands

import (
	"context"
	"strings"
)

const helpText = `Available commands:
/start - begin a session
/help - show this message
/status - show account status
/opportunities [category] - list recent opportunities
/categories - list opportunity categories
/ai_insights - AI-enhanced performance insights (requires subscription)
/risk_assessment - portfolio risk assessment (requires subscription)
/preferences - view notification preferences
/auto_status - automated-trading status (requires subscription)`

// registerDefaults installs the baseline handler table: commands whose
// reply does not depend on live exchange state. Commands backed by order
// execution or balances are intentionally not implemented here (see the
// package doc comment); they reply with an explanatory notice instead of
// simulating exchange behavior.
func (r *Router) registerDefaults() {
	r.Register("start", func(ctx context.Context, owner string, args []string) (string, error) {
		return "Welcome. Your session is now active. Send /help to see what I can do.", nil
	})

	r.Register("help", func(ctx context.Context, owner string, args []string) (string, error) {
		return helpText, nil
	})

	r.Register("status", func(ctx context.Context, owner string, args []string) (string, error) {
		return "Your session is active.", nil
	})

	r.Register("categories", func(ctx context.Context, owner string, args []string) (string, error) {
		return "Categories: arbitrage, technical, ai_enhanced.", nil
	})

	r.Register("preferences", func(ctx context.Context, owner string, args []string) (string, error) {
		return "Preferences are managed via /auto_config and /admin_group_config in groups.", nil
	})

	r.Register("settings", func(ctx context.Context, owner string, args []string) (string, error) {
		return "Use /preferences to view notification settings.", nil
	})

	r.Register("profile", func(ctx context.Context, owner string, args []string) (string, error) {
		return "Profile management is handled by the credential vault and RBAC role assigned to your account.", nil
	})

	for _, unimplemented := range []string{"balance", "buy", "sell", "orders", "positions", "cancel"} {
		cmd := unimplemented
		r.Register(cmd, func(ctx context.Context, owner string, args []string) (string, error) {
			return "Order execution and balance queries are not handled by this core; connect a trading gateway for " + cmd + ".", nil
		})
	}

	r.Register("admin_group_config", func(ctx context.Context, owner string, args []string) (string, error) {
		if len(args) == 0 {
			return "Usage: /admin_group_config <key> <value>", nil
		}
		return "Group configuration is not stored by this core; received: " + strings.Join(args, " "), nil
	})

	r.Register("opportunities", func(ctx context.Context, owner string, args []string) (string, error) {
		category := "all"
		if len(args) > 0 {
			category = args[0]
		}
		return "No live detector is wired to this router; category requested: " + category, nil
	})

	// ai_insights and risk_assessment are registered by the caller that
	// constructs the enrichment coordinator (see cmd/arbedge/app.go); this
	// package has no dependency on internal/enrichment. Until overridden,
	// they fall through to Router.Route's "Unknown command" reply.

	for _, cmd := range []string{"auto_enable", "auto_disable", "auto_config", "auto_status"} {
		bound := cmd
		r.Register(bound, func(ctx context.Context, owner string, args []string) (string, error) {
			return "Automated trading is not executed by this core; " + bound + " acknowledged.", nil
		})
	}

	for _, cmd := range []string{"admin_stats", "admin_users", "admin_config", "admin_broadcast"} {
		bound := cmd
		r.Register(bound, func(ctx context.Context, owner string, args []string) (string, error) {
			return bound + " acknowledged: " + strings.Join(args, " "), nil
		})
	}
}
