package governor

import (
	"fmt"
	"time"
)

// Default limits per §4.5, overridable by callers that hold a different
// per-user or per-group configuration.
const (
	DefaultAIPerHour           = 100
	DefaultGroupOppsPerHour    = 5
	DefaultGroupTechPerHour    = 3
	DefaultGroupBroadcastsPerDay = 10
)

// AIScope builds the ai/{user}/{hour} scope.
func AIScope(user string, limitPerHour int64) Scope {
	return Scope{Key: fmt.Sprintf("ai/%s", user), Limit: limitPerHour, Window: time.Hour}
}

// GroupOppsScope builds the group/{group}/opps/{hour} scope.
func GroupOppsScope(group string, limitPerHour int64) Scope {
	return Scope{Key: fmt.Sprintf("group/%s/opps", group), Limit: limitPerHour, Window: time.Hour}
}

// GroupTechScope builds the group/{group}/tech/{hour} scope.
func GroupTechScope(group string, limitPerHour int64) Scope {
	return Scope{Key: fmt.Sprintf("group/%s/tech", group), Limit: limitPerHour, Window: time.Hour}
}

// GroupBroadcastsScope builds the group/{group}/broadcasts/{day} scope.
func GroupBroadcastsScope(group string, limitPerDay int64) Scope {
	return Scope{Key: fmt.Sprintf("group/%s/broadcasts", group), Limit: limitPerDay, Window: 24 * time.Hour}
}

// CooldownScope builds a per-chat minimum-interval scope: at most one admit
// per cooldown window.
func CooldownScope(chatID string, cooldown time.Duration) Scope {
	return Scope{Key: fmt.Sprintf("chat/%s/cooldown", chatID), Limit: 1, Window: cooldown}
}
