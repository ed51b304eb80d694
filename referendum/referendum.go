// Package referendum is the commit-reveal voting engine behind council
// elections. Options are candidate membership ids, vote power is the staked
// amount. The engine keeps no tally of its own: power is read from and added
// to the candidate records through the Connection.
package referendum

import (
	"fmt"

	"github.com/calehh/council-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type Params struct {
	VoteStageDuration   uint64
	RevealStageDuration uint64
	MinimumStake        uint64
	MaxSaltLength       uint64
}

func NewParams(p types.ReferendumParams) (*Params, error) {
	if p.VoteStageDuration == 0 || p.RevealStageDuration == 0 {
		return nil, fmt.Errorf("invalid referendum params: stage durations must be positive")
	}
	return &Params{
		VoteStageDuration:   p.VoteStageDuration,
		RevealStageDuration: p.RevealStageDuration,
		MinimumStake:        p.MinimumStake,
		MaxSaltLength:       p.MaxSaltLength,
	}, nil
}

type Store interface {
	ReferendumStage() (types.ReferendumStage, error)
	SetReferendumStage(stage types.ReferendumStage) error
	Vote(account uint64) (*types.CastVote, error)
	SetVote(account uint64, vote *types.CastVote) error
	RemoveVote(account uint64) error
}

type Balances interface {
	Balance(account uint64) (uint64, error)
	Lock(account uint64, id types.LockID, amount uint64) error
	Unlock(account uint64, id types.LockID) error
}

type EventSink interface {
	Emit(ev abci.Event)
}

// Connection is the council side of the engine.
type Connection interface {
	IsValidOption(optionID uint64) (bool, error)
	OptionPower(optionID uint64) (uint64, error)
	IncreaseOptionPower(optionID, amount uint64) error
	CanUnlockVoteStake(vote types.CastVote) (bool, error)
	ReceiveResults(winners []types.OptionResult) error
}

type Deps struct {
	Store    Store
	Balances Balances
	Events   EventSink
}

type Module struct {
	params   *Params
	store    Store
	balances Balances
	events   EventSink
	conn     Connection

	height uint64
	logger cmtlog.Logger
}

func New(params *Params, deps Deps, conn Connection, height uint64, logger cmtlog.Logger) *Module {
	return &Module{
		params:   params,
		store:    deps.Store,
		balances: deps.Balances,
		events:   deps.Events,
		conn:     conn,
		height:   height,
		logger:   logger.With("module", "referendum"),
	}
}

func (m *Module) InitGenesis() error {
	return m.store.SetReferendumStage(types.ReferendumStage{Kind: types.ReferendumInactive})
}
