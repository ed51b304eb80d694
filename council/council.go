// Package council runs the council election cycle: candidacy registry,
// stage machine, membership handover and the budget and reward ledger.
//
// A Module is built for one block (or one tx inside it) on top of the block
// state; every operation either applies completely or returns an error before
// its first write.
package council

import (
	"github.com/calehh/council-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/pkg/errors"
)

type Deps struct {
	Store    Store
	Balances Balances
	Members  Members
	Events   EventSink
}

type Module struct {
	settings *Settings
	store    Store
	balances Balances
	members  Members
	events   EventSink

	referendum Referendum

	height uint64
	logger cmtlog.Logger
}

// Origin describes who signed a call. Root is set for the genesis root
// account.
type Origin struct {
	Signer uint64
	Root   bool
}

func New(settings *Settings, deps Deps, height uint64, logger cmtlog.Logger) *Module {
	return &Module{
		settings: settings,
		store:    deps.Store,
		balances: deps.Balances,
		members:  deps.Members,
		events:   deps.Events,
		height:   height,
		logger:   logger.With("module", "council"),
	}
}

func (m *Module) UseReferendum(r Referendum) {
	m.referendum = r
}

func (m *Module) Settings() *Settings {
	return m.settings
}

// InitGenesis writes the storage of a fresh chain: announcing period 0
// started at height 0.
func (m *Module) InitGenesis(budget uint64) error {
	if err := m.store.SetCouncilStage(types.CouncilStageUpdate{Kind: types.StageAnnouncing}); err != nil {
		return err
	}
	if err := m.store.SetAnnouncementPeriodNr(0); err != nil {
		return err
	}
	if err := m.store.SetCouncilMembers(nil); err != nil {
		return err
	}
	if err := m.store.SetBudget(budget); err != nil {
		return err
	}
	if err := m.store.SetNextBudgetRefill(m.settings.BudgetRefillPeriod); err != nil {
		return err
	}
	return m.store.SetNextRewardPayments(m.settings.ElectedMemberRewardPeriod)
}

func (m *Module) ensureRoot(origin Origin) error {
	if !origin.Root {
		return ErrBadOrigin
	}
	return nil
}

func (m *Module) ensureMemberController(origin Origin, member uint64) error {
	ok, err := m.members.IsMemberController(origin.Signer, member)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMemberIdNotMatchAccount
	}
	return nil
}

func (m *Module) stageAndCycle() (stage types.CouncilStageUpdate, cycle uint64, err error) {
	stage, err = m.store.CouncilStage()
	if err != nil {
		return
	}
	cycle, err = m.store.AnnouncementPeriodNr()
	return
}

func invariant(err error, format string, args ...any) error {
	if err == nil {
		return errors.Wrapf(ErrInvariantViolation, format, args...)
	}
	return errors.Wrapf(ErrInvariantViolation, format+": %v", append(args, err)...)
}
