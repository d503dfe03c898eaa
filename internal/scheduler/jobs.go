package scheduler

import (
	"context"
	"time"

	"github.com/arbedge/arbedge-core/internal/distribution"
)

// MemberCountSource reports a chat platform group's current member count.
// It is an external collaborator (the conversational adapter owns the
// actual chat-platform API call); this job only drives the periodic call
// and persists the result.
type MemberCountSource interface {
	MemberCount(ctx context.Context, groupID string) (int, error)
}

// GroupRefreshJob refreshes GroupRegistration.MemberCount for every active
// registered group, per §3's "last member-count refresh" field.
type GroupRefreshJob struct {
	directory *distribution.GroupDirectory
	source    MemberCountSource
}

// NewGroupRefreshJob builds a GroupRefreshJob.
func NewGroupRefreshJob(directory *distribution.GroupDirectory, source MemberCountSource) *GroupRefreshJob {
	return &GroupRefreshJob{directory: directory, source: source}
}

func (j *GroupRefreshJob) Name() string { return "group_member_count_refresh" }

// NoopMemberCountSource reports 0 members for every group, so each refresh
// stores a MemberCount of 0. Used
// until a conversational adapter providing real chat-platform member
// counts is wired.
type NoopMemberCountSource struct{}

func (NoopMemberCountSource) MemberCount(context.Context, string) (int, error) { return 0, nil }

// Run refreshes every active group's member count. One group's lookup
// failure does not stop the others from refreshing; the first error
// encountered is returned after every group has been attempted.
func (j *GroupRefreshJob) Run(ctx context.Context) error {
	ids, err := j.directory.ListActiveIDs(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	now := time.Now().UTC()
	for _, id := range ids {
		reg, found, err := j.directory.Get(ctx, id)
		if err != nil || !found || !reg.Active {
			continue
		}
		count, err := j.source.MemberCount(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := j.directory.UpdateMemberCount(ctx, id, count, now); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
