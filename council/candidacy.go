package council

import (
	"github.com/calehh/council-app/types"
	"github.com/ethereum/go-ethereum/crypto"
)

func (m *Module) AnnounceCandidacy(origin Origin, member, stakingAccount, rewardAccount, stake uint64) error {
	m.logger.Debug("announce candidacy", "member", member, "staking", stakingAccount, "stake", stake, "height", m.height)
	if err := m.ensureMemberController(origin, member); err != nil {
		return err
	}
	stage, cycle, err := m.stageAndCycle()
	if err != nil {
		return err
	}
	if stage.Kind != types.StageAnnouncing {
		return ErrNotAnnouncingStage
	}
	if stake < m.settings.MinCandidateStake {
		return ErrCandidacyStakeTooLow
	}
	existing, err := m.store.Candidate(member)
	if err != nil {
		return err
	}
	if existing != nil && existing.CycleID == cycle {
		return ErrMemberAlreadyCandidating
	}
	ok, err := m.members.IsStakingAccount(member, stakingAccount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidAccountToStakeReuse
	}
	ok, err = m.members.AccountExists(rewardAccount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRewardAccountNoexists
	}
	locked, err := m.balances.LockedAmount(stakingAccount, types.CandidacyLockID)
	if err != nil {
		return err
	}
	if locked > 0 && (existing == nil || existing.StakingAccount != stakingAccount) {
		return ErrConflictingStake
	}
	balance, err := m.balances.Balance(stakingAccount)
	if err != nil {
		return err
	}
	if balance < stake {
		return ErrInsufficientBalance
	}

	if existing != nil {
		// stale record of an earlier cycle
		if err = m.balances.Unlock(existing.StakingAccount, types.CandidacyLockID); err != nil {
			return err
		}
	}
	if err = m.balances.Lock(stakingAccount, types.CandidacyLockID, stake); err != nil {
		return err
	}
	err = m.store.SetCandidate(&types.Candidate{
		MemberID:       member,
		StakingAccount: stakingAccount,
		RewardAccount:  rewardAccount,
		CycleID:        cycle,
		Stake:          stake,
	})
	if err != nil {
		return err
	}
	stage.CandidatesCount += 1
	if err = m.store.SetCouncilStage(stage); err != nil {
		return err
	}
	m.logger.Info("new candidate", "member", member, "cycle", cycle, "stake", stake)
	m.events.Emit(types.EncodeEventNewCandidate(&types.EventNewCandidate{
		Member:         member,
		StakingAccount: stakingAccount,
		RewardAccount:  rewardAccount,
		Stake:          stake,
		CycleID:        cycle,
	}))
	return nil
}

// currentCandidate returns the record of member for the running cycle.
func (m *Module) currentCandidate(member uint64) (*types.Candidate, error) {
	cycle, err := m.store.AnnouncementPeriodNr()
	if err != nil {
		return nil, err
	}
	c, err := m.store.Candidate(member)
	if err != nil {
		return nil, err
	}
	if c == nil || c.CycleID != cycle {
		return nil, ErrNotCandidate
	}
	return c, nil
}

func (m *Module) WithdrawCandidacy(origin Origin, member uint64) error {
	m.logger.Debug("withdraw candidacy", "member", member, "height", m.height)
	if err := m.ensureMemberController(origin, member); err != nil {
		return err
	}
	c, err := m.currentCandidate(member)
	if err != nil {
		return err
	}
	stage, err := m.store.CouncilStage()
	if err != nil {
		return err
	}
	if stage.Kind != types.StageAnnouncing {
		return ErrCandidacyStakeLockedPostAnnouncement
	}

	if err = m.balances.Unlock(c.StakingAccount, types.CandidacyLockID); err != nil {
		return err
	}
	if err = m.store.RemoveCandidate(member); err != nil {
		return err
	}
	if stage.CandidatesCount > 0 {
		stage.CandidatesCount -= 1
	}
	if err = m.store.SetCouncilStage(stage); err != nil {
		return err
	}
	m.logger.Info("candidacy withdrawn", "member", member)
	m.events.Emit(types.EncodeEventCandidacyWithdraw(&types.EventMember{Member: member}))
	return nil
}

// SetCandidacyNote stores the keccak hash of note, the plaintext is kept off
// chain.
func (m *Module) SetCandidacyNote(origin Origin, member uint64, note []byte) error {
	m.logger.Debug("set candidacy note", "member", member, "len", len(note))
	if err := m.ensureMemberController(origin, member); err != nil {
		return err
	}
	c, err := m.currentCandidate(member)
	if err != nil {
		return err
	}
	stage, err := m.store.CouncilStage()
	if err != nil {
		return err
	}
	if stage.Kind == types.StageIdle {
		return ErrNotCandidatingNow
	}

	c.NoteHash = crypto.Keccak256(note)
	if err = m.store.SetCandidate(c); err != nil {
		return err
	}
	m.events.Emit(types.EncodeEventCandidacyNoteSet(&types.EventCandidacyNoteSet{
		Member:   member,
		NoteHash: c.NoteHash,
	}))
	return nil
}

// ReleaseCandidacyStake unlocks the stake of a record that is no longer part
// of a running election and drops the record.
func (m *Module) ReleaseCandidacyStake(origin Origin, member uint64) error {
	m.logger.Debug("release candidacy stake", "member", member, "height", m.height)
	if err := m.ensureMemberController(origin, member); err != nil {
		return err
	}
	c, err := m.store.Candidate(member)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNoStake
	}
	stage, cycle, err := m.stageAndCycle()
	if err != nil {
		return err
	}
	if c.CycleID == cycle && stage.Kind != types.StageIdle {
		return ErrStakeStillNeeded
	}

	if err = m.balances.Unlock(c.StakingAccount, types.CandidacyLockID); err != nil {
		return err
	}
	if err = m.store.RemoveCandidate(member); err != nil {
		return err
	}
	m.logger.Info("candidacy stake released", "member", member, "stake", c.Stake)
	m.events.Emit(types.EncodeEventCandidacyStakeRelease(&types.EventMember{Member: member}))
	return nil
}
