package referendum

import (
	"bytes"
	"encoding/binary"

	"github.com/calehh/council-app/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Commitment is keccak256(account | salt | cycle | option) with the integers
// as 8 byte big endian.
func Commitment(account uint64, salt []byte, cycleID, optionID uint64) []byte {
	buf := make([]byte, 0, 24+len(salt))
	buf = binary.BigEndian.AppendUint64(buf, account)
	buf = append(buf, salt...)
	buf = binary.BigEndian.AppendUint64(buf, cycleID)
	buf = binary.BigEndian.AppendUint64(buf, optionID)
	return crypto.Keccak256(buf)
}

func (m *Module) Vote(account uint64, commitment []byte, stake uint64) error {
	m.logger.Debug("vote", "account", account, "stake", stake, "height", m.height)
	stage, err := m.store.ReferendumStage()
	if err != nil {
		return err
	}
	if stage.Kind != types.ReferendumVoting {
		return ErrReferendumNotRunning
	}
	if len(commitment) != 32 {
		return ErrInvalidCommitment
	}
	if stake < m.params.MinimumStake || stake == 0 {
		return ErrInsufficientStake
	}
	balance, err := m.balances.Balance(account)
	if err != nil {
		return err
	}
	if balance < stake {
		return ErrInsufficientBalance
	}
	prev, err := m.store.Vote(account)
	if err != nil {
		return err
	}
	if prev != nil && prev.CycleID == stage.CycleID {
		return ErrAlreadyVoted
	}

	// an older vote is replaced, its lock moves to the new stake
	if err = m.balances.Lock(account, types.VotingLockID, stake); err != nil {
		return err
	}
	err = m.store.SetVote(account, &types.CastVote{
		Commitment: commitment,
		CycleID:    stage.CycleID,
		Stake:      stake,
	})
	if err != nil {
		return err
	}
	m.events.Emit(types.EncodeEventVoteCast(&types.EventVoteCast{
		Account:    account,
		Commitment: commitment,
		Stake:      stake,
		CycleID:    stage.CycleID,
	}))
	return nil
}

func (m *Module) RevealVote(account uint64, salt []byte, optionID uint64) error {
	m.logger.Debug("reveal vote", "account", account, "option", optionID, "height", m.height)
	stage, err := m.store.ReferendumStage()
	if err != nil {
		return err
	}
	if stage.Kind != types.ReferendumRevealing {
		return ErrRevealingNotInProgress
	}
	if uint64(len(salt)) > m.params.MaxSaltLength {
		return ErrSaltTooLong
	}
	vote, err := m.store.Vote(account)
	if err != nil {
		return err
	}
	if vote == nil || vote.CycleID != stage.CycleID {
		return ErrVoteNotExisting
	}
	if vote.Revealed {
		return ErrAlreadyRevealed
	}
	if !bytes.Equal(Commitment(account, salt, stage.CycleID, optionID), vote.Commitment) {
		return ErrInvalidReveal
	}
	ok, err := m.conn.IsValidOption(optionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidVote
	}

	power := vote.Stake
	if err = m.conn.IncreaseOptionPower(optionID, power); err != nil {
		return err
	}
	total, err := m.conn.OptionPower(optionID)
	if err != nil {
		return err
	}
	stage.IntermediateWinners = insertWinner(stage.IntermediateWinners, optionID, total, stage.WinningTargetCount)
	if err = m.store.SetReferendumStage(stage); err != nil {
		return err
	}
	vote.VoteFor = optionID
	vote.Revealed = true
	if err = m.store.SetVote(account, vote); err != nil {
		return err
	}
	m.events.Emit(types.EncodeEventVoteRevealed(&types.EventVoteRevealed{
		Account: account,
		Option:  optionID,
		Power:   power,
		CycleID: stage.CycleID,
	}))
	return nil
}

func (m *Module) ReleaseVoteStake(account uint64) error {
	m.logger.Debug("release vote stake", "account", account, "height", m.height)
	vote, err := m.store.Vote(account)
	if err != nil {
		return err
	}
	if vote == nil {
		return ErrVoteNotExisting
	}
	stage, err := m.store.ReferendumStage()
	if err != nil {
		return err
	}
	if stage.Kind != types.ReferendumInactive && stage.CycleID == vote.CycleID {
		return ErrUnstakingVoteInSameCycle
	}
	ok, err := m.conn.CanUnlockVoteStake(*vote)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnstakingForbidden
	}

	if err = m.balances.Unlock(account, types.VotingLockID); err != nil {
		return err
	}
	if err = m.store.RemoveVote(account); err != nil {
		return err
	}
	m.events.Emit(types.EncodeEventVoteStakeReleased(account))
	return nil
}
