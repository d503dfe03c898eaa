package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/arbedge/arbedge-core/internal/kv"
)

func TestGroupDirectory_RegisterIndexedThenListActiveIDs(t *testing.T) {
	dir := NewGroupDirectory(kv.NewMemoryStore())
	ctx := context.Background()

	if err := dir.RegisterIndexed(ctx, GroupRegistration{GroupID: "g1", Kind: ChatGroup, GlobalOpportunitiesEnabled: true}); err != nil {
		t.Fatalf("RegisterIndexed failed: %v", err)
	}
	if err := dir.RegisterIndexed(ctx, GroupRegistration{GroupID: "g2", Kind: ChatSuperGroup}); err != nil {
		t.Fatalf("RegisterIndexed failed: %v", err)
	}
	// Re-registering an already-indexed group must not duplicate the index.
	if err := dir.RegisterIndexed(ctx, GroupRegistration{GroupID: "g1", Kind: ChatGroup, GlobalOpportunitiesEnabled: true}); err != nil {
		t.Fatalf("re-RegisterIndexed failed: %v", err)
	}

	ids, err := dir.ListActiveIDs(ctx)
	if err != nil {
		t.Fatalf("ListActiveIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 indexed groups, got %d: %v", len(ids), ids)
	}
}

func TestGroupDirectory_UpdateMemberCountPreservesOtherFields(t *testing.T) {
	dir := NewGroupDirectory(kv.NewMemoryStore())
	ctx := context.Background()
	dir.Register(ctx, GroupRegistration{GroupID: "g1", Title: "Arb Squad", GlobalOpportunitiesEnabled: true})

	now := time.Now().UTC()
	if err := dir.UpdateMemberCount(ctx, "g1", 42, now); err != nil {
		t.Fatalf("UpdateMemberCount failed: %v", err)
	}

	reg, found, err := dir.Get(ctx, "g1")
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	if reg.MemberCount != 42 || !reg.GlobalOpportunitiesEnabled || reg.Title != "Arb Squad" {
		t.Errorf("unexpected registration after update: %+v", reg)
	}
}

func TestGroupDirectory_DeactivateSoftDeletes(t *testing.T) {
	dir := NewGroupDirectory(kv.NewMemoryStore())
	ctx := context.Background()
	dir.Register(ctx, GroupRegistration{GroupID: "g1"})

	if err := dir.Deactivate(ctx, "g1"); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	reg, found, err := dir.Get(ctx, "g1")
	if err != nil || !found {
		t.Fatalf("Get failed after deactivate: found=%v err=%v", found, err)
	}
	if reg.Active {
		t.Error("expected Active=false after Deactivate")
	}
}
