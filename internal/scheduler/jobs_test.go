package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/arbedge/arbedge-core/internal/distribution"
	"github.com/arbedge/arbedge-core/internal/kv"
)

type fakeMemberCountSource struct {
	counts map[string]int
	errFor map[string]error
}

func (f fakeMemberCountSource) MemberCount(_ context.Context, groupID string) (int, error) {
	if err, ok := f.errFor[groupID]; ok {
		return 0, err
	}
	return f.counts[groupID], nil
}

func TestGroupRefreshJob_UpdatesEveryActiveGroup(t *testing.T) {
	dir := distribution.NewGroupDirectory(kv.NewMemoryStore())
	ctx := context.Background()
	dir.RegisterIndexed(ctx, distribution.GroupRegistration{GroupID: "g1"})
	dir.RegisterIndexed(ctx, distribution.GroupRegistration{GroupID: "g2"})

	source := fakeMemberCountSource{counts: map[string]int{"g1": 10, "g2": 20}}
	job := NewGroupRefreshJob(dir, source)

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	g1, _, _ := dir.Get(ctx, "g1")
	g2, _, _ := dir.Get(ctx, "g2")
	if g1.MemberCount != 10 || g2.MemberCount != 20 {
		t.Errorf("expected member counts 10/20, got %d/%d", g1.MemberCount, g2.MemberCount)
	}
	if g1.LastMemberCountRefresh.IsZero() {
		t.Error("expected LastMemberCountRefresh to be set")
	}
}

func TestGroupRefreshJob_OneFailureDoesNotStopOthers(t *testing.T) {
	dir := distribution.NewGroupDirectory(kv.NewMemoryStore())
	ctx := context.Background()
	dir.RegisterIndexed(ctx, distribution.GroupRegistration{GroupID: "g1"})
	dir.RegisterIndexed(ctx, distribution.GroupRegistration{GroupID: "g2"})

	source := fakeMemberCountSource{
		counts: map[string]int{"g2": 5},
		errFor: map[string]error{"g1": errors.New("platform unavailable")},
	}
	job := NewGroupRefreshJob(dir, source)

	if err := job.Run(ctx); err == nil {
		t.Fatal("expected the first group's error to be returned")
	}

	g2, _, _ := dir.Get(ctx, "g2")
	if g2.MemberCount != 5 {
		t.Errorf("expected g2 to still be refreshed despite g1's failure, got %d", g2.MemberCount)
	}
}
