package council

import (
	"math"

	"github.com/calehh/council-app/types"
)

// The referendum engine calls back through these methods. Vote power lives
// only in the candidate records.

// IsValidOption reports whether optionID is a candidate of the running cycle.
func (m *Module) IsValidOption(optionID uint64) (bool, error) {
	_, err := m.currentCandidate(optionID)
	if err == ErrNotCandidate {
		return false, nil
	}
	return err == nil, err
}

func (m *Module) OptionPower(optionID uint64) (uint64, error) {
	c, err := m.store.Candidate(optionID)
	if err != nil || c == nil {
		return 0, err
	}
	return c.VotePower, nil
}

func (m *Module) IncreaseOptionPower(optionID, amount uint64) error {
	c, err := m.currentCandidate(optionID)
	if err == ErrNotCandidate {
		return invariant(nil, "vote power for unknown option %d", optionID)
	}
	if err != nil {
		return err
	}
	if c.VotePower > math.MaxUint64-amount {
		return invariant(nil, "vote power overflow for option %d", optionID)
	}
	c.VotePower += amount
	return m.store.SetCandidate(c)
}

// CanUnlockVoteStake vetoes the release of a vote stake while the vote still
// matters: during its own election, and while it backs a sitting councilor.
func (m *Module) CanUnlockVoteStake(vote types.CastVote) (bool, error) {
	stage, cycle, err := m.stageAndCycle()
	if err != nil {
		return false, err
	}
	if cycle > vote.CycleID+1 {
		return true, nil
	}
	if cycle == vote.CycleID && stage.Kind != types.StageIdle {
		return false, nil
	}
	if !vote.Revealed {
		return true, nil
	}
	members, err := m.store.CouncilMembers()
	if err != nil {
		return false, err
	}
	for _, cm := range members {
		if cm.MemberID == vote.VoteFor {
			return false, nil
		}
	}
	return true, nil
}

// ReceiveResults installs the referendum winners as the new council. Winners
// arrive ordered by vote power.
func (m *Module) ReceiveResults(winners []types.OptionResult) error {
	stage, cycle, err := m.stageAndCycle()
	if err != nil {
		return err
	}
	if stage.Kind != types.StageElection {
		return invariant(nil, "referendum results in %v stage", stage.Kind)
	}
	idle := types.CouncilStageUpdate{Kind: types.StageIdle, ChangedAt: m.height}
	if uint64(len(winners)) < m.settings.CouncilSize {
		if err = m.store.SetCouncilStage(idle); err != nil {
			return err
		}
		m.logger.Info("new council not elected", "height", m.height, "cycle", cycle, "winners", len(winners))
		m.events.Emit(types.EncodeEventNewCouncilNotElected())
		return nil
	}
	if uint64(len(winners)) > m.settings.CouncilSize {
		return invariant(nil, "%d winners for %d seats", len(winners), m.settings.CouncilSize)
	}

	elected := make([]*types.Candidate, len(winners))
	seen := make(map[uint64]bool, len(winners))
	for i, w := range winners {
		if seen[w.OptionID] {
			return invariant(nil, "winner %d listed twice", w.OptionID)
		}
		seen[w.OptionID] = true
		c, err := m.store.Candidate(w.OptionID)
		if err != nil {
			return err
		}
		if c == nil || c.CycleID != cycle {
			return invariant(nil, "winner %d has no candidacy in cycle %d", w.OptionID, cycle)
		}
		elected[i] = c
	}

	outgoing, err := m.store.CouncilMembers()
	if err != nil {
		return err
	}
	for i := range outgoing {
		if err = m.payReward(&outgoing[i]); err != nil {
			return err
		}
		if err = m.balances.Unlock(outgoing[i].StakingAccount, types.CouncilorLockID); err != nil {
			return invariant(err, "release councilor stake of %d", outgoing[i].MemberID)
		}
	}

	members := make([]types.CouncilMember, len(elected))
	ids := make([]uint64, len(elected))
	for i, c := range elected {
		if err = m.balances.Unlock(c.StakingAccount, types.CandidacyLockID); err != nil {
			return invariant(err, "release candidacy stake of %d", c.MemberID)
		}
		if err = m.balances.Lock(c.StakingAccount, types.CouncilorLockID, c.Stake); err != nil {
			return invariant(err, "lock councilor stake of %d", c.MemberID)
		}
		if err = m.store.RemoveCandidate(c.MemberID); err != nil {
			return err
		}
		members[i] = types.CouncilMember{
			MemberID:         c.MemberID,
			StakingAccount:   c.StakingAccount,
			RewardAccount:    c.RewardAccount,
			Stake:            c.Stake,
			ElectedAt:        m.height,
			LastPaymentBlock: m.height,
		}
		ids[i] = c.MemberID
	}
	if err = m.store.SetCouncilMembers(members); err != nil {
		return err
	}
	if err = m.store.SetCouncilStage(idle); err != nil {
		return err
	}
	m.logger.Info("new council elected", "height", m.height, "cycle", cycle, "members", ids)
	m.events.Emit(types.EncodeEventNewCouncilElected(&types.EventNewCouncilElected{Members: ids}))
	return nil
}
