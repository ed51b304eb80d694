package council

import (
	"errors"
)

var (
	// stage mismatch
	ErrNotAnnouncingStage                   = errors.New("not announcing stage")
	ErrCandidacyStakeLockedPostAnnouncement = errors.New("candidacy stake locked after announcing period")
	ErrNotCandidatingNow                    = errors.New("candidacy has ended for this cycle")
	ErrStakeStillNeeded                     = errors.New("candidacy stake still needed in this cycle")

	// authorization
	ErrBadOrigin                  = errors.New("origin is not root")
	ErrMemberIdNotMatchAccount    = errors.New("signer does not control membership")
	ErrInvalidAccountToStakeReuse = errors.New("staking account not bound to membership")
	ErrConflictingStake           = errors.New("staking account holds a conflicting stake")

	// insufficient funds
	ErrCandidacyStakeTooLow = errors.New("candidacy stake too low")
	ErrInsufficientBalance  = errors.New("staking account insufficient balance")

	// not found
	ErrNotCandidate          = errors.New("membership is not a candidate")
	ErrNoStake               = errors.New("no candidacy stake to release")
	ErrRewardAccountNoexists = errors.New("reward account noexists")

	ErrMemberAlreadyCandidating = errors.New("membership already candidating")
	ErrInvalidRefillBlock       = errors.New("refill block is not in the future")

	// ErrInvariantViolation means the council and the referendum disagree, the
	// block carrying it must not be committed.
	ErrInvariantViolation = errors.New("council invariant violation")
)

const (
	CodeOK                uint32 = 0
	CodeInternal          uint32 = 1
	CodeStageMismatch     uint32 = 10
	CodeUnauthorized      uint32 = 20
	CodeInsufficientFunds uint32 = 30
	CodeNotFound          uint32 = 40
	CodeInvalidArgument   uint32 = 50
)

var errorCodes = map[error]uint32{
	ErrNotAnnouncingStage:                   CodeStageMismatch,
	ErrCandidacyStakeLockedPostAnnouncement: CodeStageMismatch,
	ErrNotCandidatingNow:                    CodeStageMismatch,
	ErrStakeStillNeeded:                     CodeStageMismatch,
	ErrBadOrigin:                            CodeUnauthorized,
	ErrMemberIdNotMatchAccount:              CodeUnauthorized,
	ErrInvalidAccountToStakeReuse:           CodeUnauthorized,
	ErrConflictingStake:                     CodeUnauthorized,
	ErrCandidacyStakeTooLow:                 CodeInsufficientFunds,
	ErrInsufficientBalance:                  CodeInsufficientFunds,
	ErrNotCandidate:                         CodeNotFound,
	ErrNoStake:                              CodeNotFound,
	ErrRewardAccountNoexists:                CodeNotFound,
	ErrMemberAlreadyCandidating:             CodeInvalidArgument,
	ErrInvalidRefillBlock:                   CodeInvalidArgument,
}

// Code maps a council error to its ABCI result code, CodeInternal for
// anything outside the taxonomy.
func Code(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	for e, code := range errorCodes {
		if errors.Is(err, e) {
			return code
		}
	}
	return CodeInternal
}

func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
