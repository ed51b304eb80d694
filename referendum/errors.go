package referendum

import "errors"

var (
	ErrReferendumNotRunning     = errors.New("referendum is not in voting stage")
	ErrRevealingNotInProgress   = errors.New("referendum is not in revealing stage")
	ErrReferendumAlreadyRunning = errors.New("referendum already running")
	ErrUnstakingVoteInSameCycle = errors.New("vote stake used in the running cycle")

	ErrUnstakingForbidden = errors.New("vote stake release forbidden")

	ErrInsufficientStake   = errors.New("vote stake below minimum")
	ErrInsufficientBalance = errors.New("voter insufficient balance")

	ErrVoteNotExisting   = errors.New("vote noexists")
	ErrInvalidVote       = errors.New("vote for invalid option")
	ErrInvalidReveal     = errors.New("reveal does not match commitment")
	ErrAlreadyRevealed   = errors.New("vote already revealed")
	ErrAlreadyVoted      = errors.New("already voted this cycle")
	ErrSaltTooLong       = errors.New("salt too long")
	ErrInvalidCommitment = errors.New("commitment must be 32 bytes")
)

const (
	CodeOK                uint32 = 0
	CodeInternal          uint32 = 1
	CodeStageMismatch     uint32 = 11
	CodeUnauthorized      uint32 = 21
	CodeInsufficientFunds uint32 = 31
	CodeNotFound          uint32 = 41
	CodeInvalidArgument   uint32 = 51
)

var errorCodes = map[error]uint32{
	ErrReferendumNotRunning:     CodeStageMismatch,
	ErrRevealingNotInProgress:   CodeStageMismatch,
	ErrReferendumAlreadyRunning: CodeStageMismatch,
	ErrUnstakingVoteInSameCycle: CodeStageMismatch,
	ErrUnstakingForbidden:       CodeUnauthorized,
	ErrInsufficientStake:        CodeInsufficientFunds,
	ErrInsufficientBalance:      CodeInsufficientFunds,
	ErrVoteNotExisting:          CodeNotFound,
	ErrInvalidVote:              CodeInvalidArgument,
	ErrInvalidReveal:            CodeInvalidArgument,
	ErrAlreadyRevealed:          CodeInvalidArgument,
	ErrAlreadyVoted:             CodeInvalidArgument,
	ErrSaltTooLong:              CodeInvalidArgument,
	ErrInvalidCommitment:        CodeInvalidArgument,
}

// Code maps a referendum error to its ABCI result code.
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
