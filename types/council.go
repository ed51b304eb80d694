package types

import "fmt"

type StageKind uint8

const (
	StageAnnouncing StageKind = 0
	StageElection   StageKind = 1
	StageIdle       StageKind = 2
)

func (k StageKind) String() string {
	switch k {
	case StageAnnouncing:
		return "announcing"
	case StageElection:
		return "election"
	case StageIdle:
		return "idle"
	}
	return fmt.Sprintf("stage(%d)", uint8(k))
}

// CouncilStageUpdate is the council stage together with the height of the
// last transition.
type CouncilStageUpdate struct {
	Kind            StageKind `json:"kind"`
	CandidatesCount uint64    `json:"candidatesCount"`
	ChangedAt       uint64    `json:"changedAt"`
}

type Candidate struct {
	MemberID       uint64 `json:"memberId"`
	StakingAccount uint64 `json:"stakingAccount"`
	RewardAccount  uint64 `json:"rewardAccount"`
	CycleID        uint64 `json:"cycleId"`
	Stake          uint64 `json:"stake"`
	VotePower      uint64 `json:"votePower"`
	NoteHash       []byte `json:"noteHash"`
}

type CouncilMember struct {
	MemberID         uint64 `json:"memberId"`
	StakingAccount   uint64 `json:"stakingAccount"`
	RewardAccount    uint64 `json:"rewardAccount"`
	Stake            uint64 `json:"stake"`
	ElectedAt        uint64 `json:"electedAt"`
	LastPaymentBlock uint64 `json:"lastPaymentBlock"`
	UnpaidReward     uint64 `json:"unpaidReward"`
}

// OptionResult is one referendum winner: a candidate membership id and the
// vote power it collected.
type OptionResult struct {
	OptionID  uint64 `json:"optionId"`
	VotePower uint64 `json:"votePower"`
}

type ReferendumStageKind uint8

const (
	ReferendumInactive  ReferendumStageKind = 0
	ReferendumVoting    ReferendumStageKind = 1
	ReferendumRevealing ReferendumStageKind = 2
)

func (k ReferendumStageKind) String() string {
	switch k {
	case ReferendumInactive:
		return "inactive"
	case ReferendumVoting:
		return "voting"
	case ReferendumRevealing:
		return "revealing"
	}
	return fmt.Sprintf("referendum(%d)", uint8(k))
}

type ReferendumStage struct {
	Kind                ReferendumStageKind `json:"kind"`
	Started             uint64              `json:"started"`
	WinningTargetCount  uint64              `json:"winningTargetCount"`
	CycleID             uint64              `json:"cycleId"`
	IntermediateWinners []OptionResult      `json:"intermediateWinners"`
}

type CastVote struct {
	Commitment []byte `json:"commitment"`
	CycleID    uint64 `json:"cycleId"`
	Stake      uint64 `json:"stake"`
	VoteFor    uint64 `json:"voteFor"`
	Revealed   bool   `json:"revealed"`
}

type LockID string

const (
	CandidacyLockID LockID = "council1"
	CouncilorLockID LockID = "council2"
	VotingLockID    LockID = "referend"
)

type CouncilParams struct {
	CouncilSize                 uint64 `json:"council_size"`
	MinNumberOfExtraCandidates  uint64 `json:"min_number_of_extra_candidates"`
	MinCandidateStake           uint64 `json:"min_candidate_stake"`
	AnnouncingPeriodDuration    uint64 `json:"announcing_period_duration"`
	IdlePeriodDuration          uint64 `json:"idle_period_duration"`
	ElectedMemberRewardPerBlock uint64 `json:"elected_member_reward_per_block"`
	ElectedMemberRewardPeriod   uint64 `json:"elected_member_reward_period"`
	BudgetRefillAmount          uint64 `json:"budget_refill_amount"`
	BudgetRefillPeriod          uint64 `json:"budget_refill_period"`
	Budget                      uint64 `json:"budget"`
}

type ReferendumParams struct {
	VoteStageDuration   uint64 `json:"vote_stage_duration"`
	RevealStageDuration uint64 `json:"reveal_stage_duration"`
	MinimumStake        uint64 `json:"minimum_stake"`
	MaxSaltLength       uint64 `json:"max_salt_length"`
}

func DefaultCouncilParams() CouncilParams {
	return CouncilParams{
		CouncilSize:                 3,
		MinNumberOfExtraCandidates:  1,
		MinCandidateStake:           11000,
		AnnouncingPeriodDuration:    15,
		IdlePeriodDuration:          27,
		ElectedMemberRewardPerBlock: 100,
		ElectedMemberRewardPeriod:   10,
		BudgetRefillAmount:          1000,
		BudgetRefillPeriod:          1000,
		Budget:                      0,
	}
}

func DefaultReferendumParams() ReferendumParams {
	return ReferendumParams{
		VoteStageDuration:   19,
		RevealStageDuration: 23,
		MinimumStake:        10000,
		MaxSaltLength:       32,
	}
}

// ChainParams is the consensus configuration written at genesis.
type ChainParams struct {
	Root       uint64
	Council    CouncilParams
	Referendum ReferendumParams
}
