// Package commands implements the bot-command surface described in §6:
// a session-gated, permission-checked dispatcher mapping inbound chat text
// to a textual reply, never an unhandled error. Order execution, balance
// queries, and other exchange-integration commands are out of this
// core's scope (per spec.md's Non-goals); those commands acknowledge and
// explain rather than simulate exchange behavior.
package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/rbac"
	"github.com/arbedge/arbedge-core/internal/session"
)

// groupAllowed is the command subset reachable from non-private chats;
// every other command yields a fixed "private chat required" notice.
var groupAllowed = map[string]bool{
	"help":                true,
	"settings":            true,
	"start":                true,
	"opportunities":        true,
	"admin_group_config":   true,
}

// permissionFor maps a command name to the permission it requires, for
// commands outside the always-allowed Basic* set. Commands absent from
// this map require only an active session.
var permissionFor = map[string]rbac.Permission{
	"auto_enable":         rbac.PermAutomatedTrading,
	"auto_disable":        rbac.PermAutomatedTrading,
	"auto_config":         rbac.PermAutomatedTrading,
	"auto_status":         rbac.PermAutomatedTrading,
	"ai_insights":         rbac.PermAIEnhancedOpportunities,
	"risk_assessment":     rbac.PermAdvancedAnalytics,
	"admin_stats":         rbac.PermSystemAdministration,
	"admin_users":         rbac.PermUserManagement,
	"admin_config":        rbac.PermGlobalConfiguration,
	"admin_broadcast":     rbac.PermSystemAdministration,
	"admin_group_config":  rbac.PermGroupAnalytics,
}

// UserLookup resolves the RBAC user record for an owner, returning nil if
// the owner has no persisted record yet (which still allows Basic*
// commands, per the RBAC contract).
type UserLookup interface {
	Lookup(ctx context.Context, owner string) (*rbac.User, error)
}

// Handler produces the textual reply for one command's arguments. args is
// the whitespace-split remainder of the command text.
type Handler func(ctx context.Context, owner string, args []string) (string, error)

// Router wires session validation, RBAC checks, and the group/private
// surface split in front of a table of command handlers.
type Router struct {
	sessions    *session.Engine
	permissions *rbac.Engine
	users       UserLookup
	handlers    map[string]Handler
	log         zerolog.Logger
}

// New builds a Router with the baseline handler table; callers may
// register additional handlers with Register before serving traffic.
func New(sessions *session.Engine, permissions *rbac.Engine, users UserLookup, log zerolog.Logger) *Router {
	r := &Router{
		sessions:    sessions,
		permissions: permissions,
		users:       users,
		handlers:    map[string]Handler{},
		log:         log.With().Str("component", "command_router").Logger(),
	}
	r.registerDefaults()
	return r
}

// Register adds or overrides the handler for a command name.
func (r *Router) Register(command string, h Handler) {
	r.handlers[command] = h
}

// Route parses text into a command and arguments, applies the group/
// private surface restriction, the session gate, and the RBAC check, then
// invokes the matching handler. It never returns a transport-fatal error:
// every branch produces a reply string.
func (r *Router) Route(ctx context.Context, chatID, userID int64, chatKind, text string) (string, error) {
	command, args := parse(text)
	owner := strconv.FormatInt(userID, 10)

	if chatKind != "private" && !groupAllowed[command] {
		return "This command requires a private chat with the bot.", nil
	}

	if err := r.sessions.RequireActive(ctx, owner, command); err != nil {
		if kind, ok := apperrors.KindOf(err); ok && kind == apperrors.KindSessionRequired {
			return "Your session has expired or never started. Send /start to begin.", nil
		}
		r.log.Warn().Err(err).Str("owner", owner).Msg("session check failed")
		return "Something went wrong checking your session. Please try again.", nil
	}

	if !session.ExemptCommands[command] {
		if err := r.sessions.Touch(ctx, owner); err != nil {
			r.log.Warn().Err(err).Str("owner", owner).Msg("failed to extend session activity")
		}
	}

	if perm, gated := permissionFor[command]; gated {
		user, err := r.lookupUser(ctx, owner)
		if err != nil {
			r.log.Warn().Err(err).Str("owner", owner).Msg("user lookup failed")
			return "Something went wrong looking up your account. Please try again.", nil
		}
		if !r.permissions.Check(user, perm) {
			return fmt.Sprintf("This feature (%s) requires an active subscription or elevated role.", perm), nil
		}
	}

	handler, found := r.handlers[command]
	if !found {
		return "Unknown command. Send /help for the list of supported commands.", nil
	}

	reply, err := handler(ctx, owner, args)
	if err != nil {
		if kind, ok := apperrors.KindOf(err); ok && kind == apperrors.KindRateLimited {
			return "You've hit your hourly limit for this feature. Try again next hour.", nil
		}
		r.log.Warn().Err(err).Str("owner", owner).Str("command", command).Msg("handler returned an error")
		return "Something went wrong handling that command. Please try again.", nil
	}
	return reply, nil
}

func (r *Router) lookupUser(ctx context.Context, owner string) (*rbac.User, error) {
	if r.users == nil {
		return nil, nil
	}
	return r.users.Lookup(ctx, owner)
}

// parse splits "/command arg1 arg2" (the leading slash is optional) into
// a lowercase command name and its arguments.
func parse(text string) (string, []string) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return "help", nil
	}
	command := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	return command, fields[1:]
}
