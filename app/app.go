package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calehh/council-app/config"
	"github.com/calehh/council-app/state"
	"github.com/calehh/council-app/tx"
	"github.com/calehh/council-app/tx/handler"
	"github.com/calehh/council-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
)

var ErrNoAppState = errors.New("genesis has no app_state")

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &CouncilApp{}

type CouncilApp struct {
	cfg    *config.AppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	env      *handler.Env
	lastBlk  finalizeBlock
	txHdlrs  map[tx.CouncilTxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewCouncilApp(cfg *config.AppConfig, logger cmtlog.Logger) (app *CouncilApp, err error) {
	logger = logger.With("module", "app")

	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, logger)
	if err != nil {
		return nil, err
	}
	return newCouncilApp(cfg, db, logger), nil
}

func newCouncilApp(cfg *config.AppConfig, db *state.StateDB, logger cmtlog.Logger) *CouncilApp {
	app := &CouncilApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return app
}

func (app *CouncilApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *CouncilApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("council app stopped")
}

func (app *CouncilApp) registerTxHandler() {
	app.txHdlrs = handler.Handlers(app.logger)
}

func (app *CouncilApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/council/stage/"] = newStateQuerier(app.db, queryCouncilStage)
	app.queriers["/council/candidates/"] = newStateQuerier(app.db, queryCandidates)
	app.queriers["/council/members/"] = newStateQuerier(app.db, queryCouncilMembers)
	app.queriers["/council/budget/"] = newStateQuerier(app.db, queryBudget)
	app.queriers["/referendum/stage/"] = newStateQuerier(app.db, queryReferendumStage)
	app.queriers["/referendum/votes/"] = newStateQuerier(app.db, queryVotes)
}

// loadEnv reads the chain parameters of a running chain once.
func (app *CouncilApp) loadEnv() (*handler.Env, error) {
	if app.env != nil {
		return app.env, nil
	}
	env, err := handler.LoadEnv(app.db.State(), app.logger)
	if err != nil {
		return nil, err
	}
	app.env = env
	return env, nil
}

func (app *CouncilApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	if len(chain.AppStateBytes) == 0 {
		return nil, ErrNoAppState
	}
	var gen types.AppGenesis
	if err = json.Unmarshal(chain.AppStateBytes, &gen); err != nil {
		return nil, fmt.Errorf("decode app_state: %w", err)
	}
	if err = gen.Validate(); err != nil {
		return nil, err
	}

	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	params := &types.ChainParams{Council: gen.Council, Referendum: gen.Referendum}
	for _, ga := range gen.Accounts {
		acnt := state.Account{
			Balance:     ga.Balance,
			Member:      ga.Member,
			BoundMember: ga.BoundMember,
		}
		acnt.SetPubKey(ga.PubKey)
		err = st.AddAccount(&acnt)
		if err != nil {
			app.logger.Error("InitChain add account fail", "err", err)
			return nil, err
		}
		if bytes.Equal(ga.PubKey, gen.Root) {
			params.Root = acnt.Index
		}
	}
	if err = st.SetParams(params); err != nil {
		return nil, err
	}
	env, err := handler.LoadEnv(st, app.logger)
	if err != nil {
		app.logger.Error("InitChain invalid params", "err", err)
		return nil, err
	}
	m := env.Modules(st)
	if err = m.Council.InitGenesis(gen.Council.Budget); err != nil {
		return nil, err
	}
	if err = m.Referendum.InitGenesis(); err != nil {
		return nil, err
	}

	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err := app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	app.env = env
	app.logger.Info("InitChain", "chainId", chain.ChainId, "accounts", len(gen.Accounts), "root", params.Root)
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *CouncilApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *CouncilApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *CouncilApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *CouncilApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *CouncilApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *CouncilApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *CouncilApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
