package council

import (
	"github.com/calehh/council-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
)

// Store is the council owned part of the chain state.
type Store interface {
	CouncilStage() (types.CouncilStageUpdate, error)
	SetCouncilStage(stage types.CouncilStageUpdate) error
	AnnouncementPeriodNr() (uint64, error)
	SetAnnouncementPeriodNr(nr uint64) error
	Candidate(member uint64) (*types.Candidate, error)
	SetCandidate(c *types.Candidate) error
	RemoveCandidate(member uint64) error
	CouncilMembers() ([]types.CouncilMember, error)
	SetCouncilMembers(members []types.CouncilMember) error
	Budget() (uint64, error)
	SetBudget(amount uint64) error
	NextBudgetRefill() (uint64, error)
	SetNextBudgetRefill(height uint64) error
	NextRewardPayments() (uint64, error)
	SetNextRewardPayments(height uint64) error
}

type Balances interface {
	Balance(account uint64) (uint64, error)
	Lock(account uint64, id types.LockID, amount uint64) error
	Unlock(account uint64, id types.LockID) error
	LockedAmount(account uint64, id types.LockID) (uint64, error)
	Deposit(account uint64, amount uint64) error
}

type Members interface {
	IsMemberController(account, member uint64) (bool, error)
	IsStakingAccount(member, account uint64) (bool, error)
	AccountExists(account uint64) (bool, error)
}

type EventSink interface {
	Emit(ev abci.Event)
}

// Referendum is the engine side the council drives when voting starts.
type Referendum interface {
	Start(winningTargetCount, cycleID uint64) error
}
