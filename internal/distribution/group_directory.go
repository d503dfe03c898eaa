package distribution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arbedge/arbedge-core/internal/kv"
)

func groupKey(groupID string) string { return fmt.Sprintf("group/%s", groupID) }

// GroupDirectory stores GroupRegistrations in the group/ keyspace:
// created on bot-join, updated on admin commands and member-count
// refreshes, and soft-deleted via Active=false rather than a hard delete.
type GroupDirectory struct {
	store kv.Store
}

// NewGroupDirectory wraps store for the group/ keyspace.
func NewGroupDirectory(store kv.Store) *GroupDirectory {
	return &GroupDirectory{store: store}
}

// Register creates or overwrites a group's registration, defaulting
// RegisteredAt and marking it active.
func (d *GroupDirectory) Register(ctx context.Context, reg GroupRegistration) error {
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}
	reg.Active = true
	return d.put(ctx, reg)
}

// Get loads one group's registration, returning found=false if never
// registered.
func (d *GroupDirectory) Get(ctx context.Context, groupID string) (GroupRegistration, bool, error) {
	raw, found, err := d.store.Get(ctx, groupKey(groupID))
	if err != nil || !found {
		return GroupRegistration{}, false, err
	}
	var reg GroupRegistration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return GroupRegistration{}, false, fmt.Errorf("decoding group registration %s: %w", groupID, err)
	}
	return reg, true, nil
}

// Deactivate soft-deletes a group registration (bot removed/kicked).
func (d *GroupDirectory) Deactivate(ctx context.Context, groupID string) error {
	reg, found, err := d.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	reg.Active = false
	return d.put(ctx, reg)
}

// UpdateMemberCount records a refreshed member count and its timestamp,
// leaving every other field untouched.
func (d *GroupDirectory) UpdateMemberCount(ctx context.Context, groupID string, count int, refreshedAt time.Time) error {
	reg, found, err := d.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("group %s is not registered", groupID)
	}
	reg.MemberCount = count
	reg.LastMemberCountRefresh = refreshedAt
	return d.put(ctx, reg)
}

func (d *GroupDirectory) put(ctx context.Context, reg GroupRegistration) error {
	raw, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encoding group registration %s: %w", reg.GroupID, err)
	}
	return d.store.Set(ctx, groupKey(reg.GroupID), raw, 0)
}

// ListActiveIDs returns the group IDs currently registered. Membership is
// tracked in a side index (group/idx) since the KV Store contract has no
// general key-scan operation.
func (d *GroupDirectory) ListActiveIDs(ctx context.Context) ([]string, error) {
	raw, found, err := d.store.Get(ctx, "group/idx")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decoding group index: %w", err)
	}
	return ids, nil
}

// addToIndex records groupID in the side index. Register callers that
// need listing support should call this once per new group; it is kept
// separate from Register so re-registering an already-indexed group is
// not a repeated O(n) rewrite on every update.
func (d *GroupDirectory) addToIndex(ctx context.Context, groupID string) error {
	ids, err := d.ListActiveIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == groupID {
			return nil
		}
	}
	ids = append(ids, groupID)
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding group index: %w", err)
	}
	return d.store.Set(ctx, "group/idx", raw, 0)
}

// RegisterIndexed registers a group and ensures it is reachable via
// ListActiveIDs (and so by scheduler.GroupRefreshJob).
func (d *GroupDirectory) RegisterIndexed(ctx context.Context, reg GroupRegistration) error {
	if err := d.Register(ctx, reg); err != nil {
		return err
	}
	return d.addToIndex(ctx, reg.GroupID)
}
