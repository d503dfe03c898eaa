package distribution

import "context"

// GroupRecipientSource lists the registered, active groups eligible for an
// opportunity's kind, per step 1(b) of the distribution algorithm
// (enumerate candidate recipients). Per-user session enumeration (step
// 1(a)) is not implemented here: the Session & Activity Engine indexes
// sessions by owner for point lookups only, not for a full scan, so
// per-user fan-out is driven by whatever upstream already holds the
// target owner list (e.g. a prior broadcast's recipient set) rather than
// by this source.
type GroupRecipientSource struct {
	directory *GroupDirectory
}

// NewGroupRecipientSource wraps a GroupDirectory as a RecipientSource.
func NewGroupRecipientSource(directory *GroupDirectory) *GroupRecipientSource {
	return &GroupRecipientSource{directory: directory}
}

// ListRecipients returns every active, registered group whose toggle
// matches o.Kind: GlobalOpportunitiesEnabled for Arbitrage/AIEnhanced,
// TechnicalAnalysisEnabled for Technical.
func (s *GroupRecipientSource) ListRecipients(ctx context.Context, o Opportunity) ([]Recipient, error) {
	ids, err := s.directory.ListActiveIDs(ctx)
	if err != nil {
		return nil, err
	}

	recipients := make([]Recipient, 0, len(ids))
	for _, id := range ids {
		reg, found, err := s.directory.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found || !reg.Active {
			continue
		}
		if !groupWantsKind(reg, o.Kind) {
			continue
		}
		recipients = append(recipients, Recipient{
			ID:      reg.GroupID,
			Chat:    ChatContext{ChatID: reg.GroupID, Kind: reg.Kind},
			IsGroup: true,
		})
	}
	return recipients, nil
}

func groupWantsKind(reg GroupRegistration, kind OpportunityKind) bool {
	switch kind {
	case KindTechnical:
		return reg.TechnicalAnalysisEnabled
	default:
		return reg.GlobalOpportunitiesEnabled
	}
}
