package tx

import (
	"errors"
)

type CouncilTxType uint8

const (
	CouncilTxTypeUnknown               CouncilTxType = 0
	CouncilTxTypeAnnounceCandidacy     CouncilTxType = 1
	CouncilTxTypeWithdrawCandidacy     CouncilTxType = 2
	CouncilTxTypeSetCandidacyNote      CouncilTxType = 3
	CouncilTxTypeReleaseCandidacyStake CouncilTxType = 4
	CouncilTxTypeSetBudget             CouncilTxType = 5
	CouncilTxTypePlanBudgetRefill      CouncilTxType = 6
	CouncilTxTypeVote                  CouncilTxType = 7
	CouncilTxTypeRevealVote            CouncilTxType = 8
	CouncilTxTypeReleaseVoteStake      CouncilTxType = 9
)

var txTypeNames = map[CouncilTxType]string{
	CouncilTxTypeAnnounceCandidacy:     "announce_candidacy",
	CouncilTxTypeWithdrawCandidacy:     "withdraw_candidacy",
	CouncilTxTypeSetCandidacyNote:      "set_candidacy_note",
	CouncilTxTypeReleaseCandidacyStake: "release_candidacy_stake",
	CouncilTxTypeSetBudget:             "set_budget",
	CouncilTxTypePlanBudgetRefill:      "plan_budget_refill",
	CouncilTxTypeVote:                  "vote",
	CouncilTxTypeRevealVote:            "reveal_vote",
	CouncilTxTypeReleaseVoteStake:      "release_vote_stake",
}

func (t CouncilTxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

const (
	CouncilTxVersion0 uint8 = 0
	CouncilTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnmatchedTxType      = errors.New("unmatched tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
