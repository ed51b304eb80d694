package council

import (
	"fmt"

	"github.com/calehh/council-app/types"
)

// Settings is the validated council configuration, built once from the
// genesis params and shared read-only.
type Settings struct {
	CouncilSize                 uint64
	MinNumberOfExtraCandidates  uint64
	MinCandidateStake           uint64
	AnnouncingPeriodDuration    uint64
	IdlePeriodDuration          uint64
	VotingPeriodDuration        uint64
	RevealingPeriodDuration     uint64
	ElectedMemberRewardPerBlock uint64
	ElectedMemberRewardPeriod   uint64
	BudgetRefillAmount          uint64
	BudgetRefillPeriod          uint64
}

func NewSettings(cp types.CouncilParams, rp types.ReferendumParams) (*Settings, error) {
	s := &Settings{
		CouncilSize:                 cp.CouncilSize,
		MinNumberOfExtraCandidates:  cp.MinNumberOfExtraCandidates,
		MinCandidateStake:           cp.MinCandidateStake,
		AnnouncingPeriodDuration:    cp.AnnouncingPeriodDuration,
		IdlePeriodDuration:          cp.IdlePeriodDuration,
		VotingPeriodDuration:        rp.VoteStageDuration,
		RevealingPeriodDuration:     rp.RevealStageDuration,
		ElectedMemberRewardPerBlock: cp.ElectedMemberRewardPerBlock,
		ElectedMemberRewardPeriod:   cp.ElectedMemberRewardPeriod,
		BudgetRefillAmount:          cp.BudgetRefillAmount,
		BudgetRefillPeriod:          cp.BudgetRefillPeriod,
	}
	for _, f := range []struct {
		name string
		v    uint64
	}{
		{"council size", s.CouncilSize},
		{"min candidate stake", s.MinCandidateStake},
		{"announcing period duration", s.AnnouncingPeriodDuration},
		{"idle period duration", s.IdlePeriodDuration},
		{"voting period duration", s.VotingPeriodDuration},
		{"revealing period duration", s.RevealingPeriodDuration},
		{"reward period", s.ElectedMemberRewardPeriod},
		{"budget refill period", s.BudgetRefillPeriod},
	} {
		if f.v == 0 {
			return nil, fmt.Errorf("invalid council settings: %s must be positive", f.name)
		}
	}
	return s, nil
}

func (s *Settings) MinCandidateCount() uint64 {
	return s.CouncilSize + s.MinNumberOfExtraCandidates
}

func (s *Settings) ElectionDuration() uint64 {
	return s.AnnouncingPeriodDuration + s.VotingPeriodDuration + s.RevealingPeriodDuration
}

func (s *Settings) CycleDuration() uint64 {
	return s.ElectionDuration() + s.IdlePeriodDuration
}
