// Package rbac implements the RBAC Policy Engine (C3): a uniform
// (role, subscription, permission) -> decision check, consulted by every
// surface before a command, feature, or distribution admits a user.
//
// The engine is pure: check/require perform no I/O beyond reading the
// User value handed to them, and are deterministic given their inputs.
package rbac

import "github.com/arbedge/arbedge-core/internal/apperrors"

// Role is the user's account role.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleBasic      Role = "basic"
	RolePremium    Role = "premium"
	RoleEnterprise Role = "enterprise"
	RoleSuperAdmin Role = "super_admin"
)

// Permission enumerates the taxonomy of gated features.
type Permission string

const (
	PermBasicCommands          Permission = "basic_commands"
	PermBasicOpportunities     Permission = "basic_opportunities"
	PermManualTrading          Permission = "manual_trading"
	PermTechnicalAnalysis      Permission = "technical_analysis"
	PermAIEnhancedOpportunities Permission = "ai_enhanced_opportunities"
	PermAutomatedTrading       Permission = "automated_trading"
	PermAdvancedAnalytics      Permission = "advanced_analytics"
	PermPremiumFeatures        Permission = "premium_features"
	PermSystemAdministration   Permission = "system_administration"
	PermUserManagement         Permission = "user_management"
	PermGlobalConfiguration    Permission = "global_configuration"
	PermGroupAnalytics         Permission = "group_analytics"
)

var basicPermissions = map[Permission]bool{
	PermBasicCommands:      true,
	PermBasicOpportunities: true,
}

var subscriptionGatedPermissions = map[Permission]bool{
	PermManualTrading:           true,
	PermTechnicalAnalysis:       true,
	PermAIEnhancedOpportunities: true,
	PermAutomatedTrading:       true,
	PermAdvancedAnalytics:      true,
	PermPremiumFeatures:        true,
}

var adminPermissions = map[Permission]bool{
	PermSystemAdministration: true,
	PermUserManagement:       true,
	PermGlobalConfiguration:  true,
	PermGroupAnalytics:       true,
}

// Subscription is the minimal subset of a user's plan state the engine
// consults.
type Subscription struct {
	Active bool
}

// User is the minimal view of a user record the engine needs. A nil User
// (record not persisted) denies every non-Basic permission.
type User struct {
	Role         Role
	Subscription Subscription
}

// Engine is a stateless permission checker.
type Engine struct{}

// New creates an Engine. It carries no state: every call is a pure
// function of its arguments.
func New() *Engine { return &Engine{} }

// Check reports whether user (possibly nil, for "not persisted") holds
// permission.
func (e *Engine) Check(user *User, permission Permission) bool {
	if basicPermissions[permission] {
		return true
	}
	if user == nil {
		return false
	}
	if subscriptionGatedPermissions[permission] {
		return user.Subscription.Active
	}
	if adminPermissions[permission] {
		return user.Role == RoleSuperAdmin
	}
	// Unknown permission: deny by default rather than guess.
	return false
}

// Require returns a PermissionDenied error if Check would return false,
// and nil otherwise.
func (e *Engine) Require(user *User, permission Permission) error {
	if e.Check(user, permission) {
		return nil
	}
	return apperrors.PermissionDenied(string(permission))
}
