package rbac

import (
	"testing"

	"github.com/arbedge/arbedge-core/internal/apperrors"
)

func TestCheck_BasicPermissionsAlwaysAllowed(t *testing.T) {
	e := New()
	if !e.Check(nil, PermBasicCommands) {
		t.Error("basic commands should be allowed even with no user record")
	}
	if !e.Check(&User{Role: RoleGuest}, PermBasicOpportunities) {
		t.Error("basic opportunities should be allowed for any role")
	}
}

func TestCheck_SubscriptionGatedRequiresActiveSubscription(t *testing.T) {
	e := New()
	active := &User{Role: RoleBasic, Subscription: Subscription{Active: true}}
	inactive := &User{Role: RoleBasic, Subscription: Subscription{Active: false}}

	if !e.Check(active, PermTechnicalAnalysis) {
		t.Error("expected active subscription to grant technical analysis")
	}
	if e.Check(inactive, PermTechnicalAnalysis) {
		t.Error("expected inactive subscription to deny technical analysis")
	}
	if e.Check(nil, PermPremiumFeatures) {
		t.Error("expected nil user (not persisted) to deny premium features")
	}
}

func TestCheck_AdminPermissionsRequireSuperAdmin(t *testing.T) {
	e := New()
	admin := &User{Role: RoleSuperAdmin, Subscription: Subscription{Active: true}}
	premium := &User{Role: RolePremium, Subscription: Subscription{Active: true}}

	if !e.Check(admin, PermSystemAdministration) {
		t.Error("expected super admin to be granted system administration")
	}
	if e.Check(premium, PermSystemAdministration) {
		t.Error("expected non-super-admin premium user to be denied system administration")
	}
}

func TestRequire_ReturnsPermissionDeniedError(t *testing.T) {
	e := New()
	err := e.Require(&User{Role: RoleBasic}, PermAutomatedTrading)
	if err == nil {
		t.Fatal("expected an error for a denied permission")
	}
	kind, ok := apperrors.KindOf(err)
	if !ok || kind != apperrors.KindPermissionDenied {
		t.Errorf("expected KindPermissionDenied, got %v ok=%v", kind, ok)
	}
}
