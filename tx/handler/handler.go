package handler

import (
	"context"

	"github.com/calehh/council-app/council"
	"github.com/calehh/council-app/referendum"
	"github.com/calehh/council-app/state"
	"github.com/calehh/council-app/tx"
	"github.com/calehh/council-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type TxHandler interface {
	Check(ctx context.Context, env *Env, st *state.State, btx *tx.CouncilTx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, env *Env, st *state.State, btx *tx.CouncilTx) (res *abcitypes.ExecTxResult, err error)
}

// Env holds the chain parameters validated once from the genesis state.
type Env struct {
	Root       uint64
	Council    *council.Settings
	Referendum *referendum.Params

	logger cmtlog.Logger
}

func LoadEnv(st *state.State, logger cmtlog.Logger) (env *Env, err error) {
	params, err := st.Params()
	if err != nil {
		return nil, err
	}
	settings, err := council.NewSettings(params.Council, params.Referendum)
	if err != nil {
		return nil, err
	}
	rp, err := referendum.NewParams(params.Referendum)
	if err != nil {
		return nil, err
	}
	env = &Env{
		Root:       params.Root,
		Council:    settings,
		Referendum: rp,
		logger:     logger,
	}
	return
}

// Modules is the council and the referendum bound to one state.
type Modules struct {
	Council    *council.Module
	Referendum *referendum.Module
	Events     *types.EventList
}

func (env *Env) Modules(st *state.State) *Modules {
	events := &types.EventList{}
	c := council.New(env.Council, council.Deps{
		Store:    st,
		Balances: st,
		Members:  st,
		Events:   events,
	}, st.Height(), env.logger)
	r := referendum.New(env.Referendum, referendum.Deps{
		Store:    st,
		Balances: st,
		Events:   events,
	}, c, st.Height(), env.logger)
	c.UseReferendum(r)
	return &Modules{Council: c, Referendum: r, Events: events}
}

func (env *Env) Origin(btx *tx.CouncilTx) council.Origin {
	return council.Origin{Signer: btx.Signer, Root: btx.Signer == env.Root}
}

// ResultCode maps a module error to the code reported in the tx result.
func ResultCode(err error) uint32 {
	if code := referendum.Code(err); code != referendum.CodeInternal {
		return code
	}
	return council.Code(err)
}

// txHandler runs one tx type. User errors end up in the result code, only
// invariant violations and storage failures are returned as err.
type txHandler[T any] struct {
	logger cmtlog.Logger
	apply  func(m *Modules, origin council.Origin, stx *T) error
}

func newTxHandler[T any](logger cmtlog.Logger, name string, apply func(m *Modules, origin council.Origin, stx *T) error) *txHandler[T] {
	return &txHandler[T]{
		logger: logger.With("module", name),
		apply:  apply,
	}
}

func (h *txHandler[T]) handle(ctx context.Context, env *Env, st *state.State, btx *tx.CouncilTx) (res *abcitypes.ExecTxResult, err error) {
	stx, ok := btx.Tx.(*T)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	m := env.Modules(st)
	err = h.apply(m, env.Origin(btx), stx)
	res = &abcitypes.ExecTxResult{}
	if err != nil {
		if council.IsInvariantViolation(err) {
			h.logger.Error("invariant violation", "type", btx.Type, "signer", btx.Signer, "err", err)
			return nil, err
		}
		res.Code = ResultCode(err)
		res.Log = err.Error()
		h.logger.Info("tx failed", "type", btx.Type, "signer", btx.Signer, "code", res.Code, "err", err)
		return res, nil
	}
	res.Events = m.Events.Reset()
	return
}

func (h *txHandler[T]) Check(ctx context.Context, env *Env, st *state.State, btx *tx.CouncilTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	result, err := h.handle(ctx, env, st.Clone(), btx)
	if err != nil {
		return
	}
	res.Code = result.Code
	res.Log = result.Log
	return
}

func (h *txHandler[T]) Process(ctx context.Context, env *Env, st *state.State, btx *tx.CouncilTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, env, st, btx)
}

// Handlers returns the handler of every supported tx type.
func Handlers(logger cmtlog.Logger) map[tx.CouncilTxType]TxHandler {
	return map[tx.CouncilTxType]TxHandler{
		tx.CouncilTxTypeAnnounceCandidacy:     NewAnnounceCandidacyTxHandler(logger),
		tx.CouncilTxTypeWithdrawCandidacy:     NewWithdrawCandidacyTxHandler(logger),
		tx.CouncilTxTypeSetCandidacyNote:      NewSetCandidacyNoteTxHandler(logger),
		tx.CouncilTxTypeReleaseCandidacyStake: NewReleaseCandidacyStakeTxHandler(logger),
		tx.CouncilTxTypeSetBudget:             NewSetBudgetTxHandler(logger),
		tx.CouncilTxTypePlanBudgetRefill:      NewPlanBudgetRefillTxHandler(logger),
		tx.CouncilTxTypeVote:                  NewVoteTxHandler(logger),
		tx.CouncilTxTypeRevealVote:            NewRevealVoteTxHandler(logger),
		tx.CouncilTxTypeReleaseVoteStake:      NewReleaseVoteStakeTxHandler(logger),
	}
}
