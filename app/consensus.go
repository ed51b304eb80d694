package app

import (
	"context"
	"errors"

	"github.com/calehh/council-app/council"
	"github.com/calehh/council-app/state"
	"github.com/calehh/council-app/tx"
	"github.com/calehh/council-app/tx/handler"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var ErrUnexpectedTxProcess = errors.New("unexpected tx process")

const (
	CodeInvalidTx     uint32 = 2
	CodeUnsupportedTx uint32 = 3
)

func (app *CouncilApp) getState(height uint64) (st *state.State) {
	st = app.db.NewState()
	st.SetHeight(height)
	return
}

func (app *CouncilApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.CouncilTx, err error) {
	btx, err = tx.UnmarshalCouncilTx(txDat)
	if err != nil {
		return
	}
	if btx != nil {
		_, err = st.Verify(btx, allowNonceGap)
	}
	return
}

func (app *CouncilApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	st := app.db.State()
	btx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Info("parse tx fail", "err", err)
		res.Code = CodeInvalidTx
		res.Log = err.Error()
		err = nil
		return
	}
	app.logger.Debug("check tx", "type", btx.Type, "signer", btx.Signer)
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Info("unsupported tx", "type", btx.Type)
		res.Code = CodeUnsupportedTx
		res.Log = "unsupported tx"
		return
	}
	env, err := app.loadEnv()
	if err != nil {
		return nil, err
	}
	res, err = h.Check(ctx, env, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: council.CodeInternal, Log: err.Error()}
		err = nil
	}
	return
}

// deliverTx runs one tx on st. A tx that fails with a user error leaves st
// untouched except for the signer nonce. The returned error is fatal for the
// block.
func (app *CouncilApp) deliverTx(ctx context.Context, env *handler.Env, st *state.State, dat []byte) (*abcitypes.ExecTxResult, error) {
	btx, err := app.parseTx(st, dat, false)
	if err != nil {
		return &abcitypes.ExecTxResult{Code: CodeInvalidTx, Log: err.Error()}, nil
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		return &abcitypes.ExecTxResult{Code: CodeUnsupportedTx, Log: "unsupported tx"}, nil
	}
	stTmp := st.Clone()
	result, err := h.Process(ctx, env, stTmp, btx)
	if err != nil {
		app.logger.Error("process tx fail", "type", btx.Type, "signer", btx.Signer, "err", err)
		return nil, err
	}
	if result == nil {
		app.logger.Error("process tx nil result", "type", btx.Type)
		return nil, ErrUnexpectedTxProcess
	}
	if result.Code == 0 {
		st.Adopt(stTmp)
	}
	if err = st.BumpNonce(btx.Signer); err != nil {
		return nil, err
	}
	return result, nil
}

func (app *CouncilApp) deliverTxs(ctx context.Context, env *handler.Env, st *state.State, txs [][]byte) (res []*abcitypes.ExecTxResult, err error) {
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		res[i], err = app.deliverTx(ctx, env, st, stx)
		if err != nil {
			return nil, err
		}
	}
	return
}

// tick runs the block end hooks, council first.
func (app *CouncilApp) tick(env *handler.Env, st *state.State) (events []abcitypes.Event, err error) {
	m := env.Modules(st)
	if err = m.Council.OnFinalize(); err != nil {
		return nil, err
	}
	if err = m.Referendum.OnFinalize(); err != nil {
		return nil, err
	}
	return m.Events.Reset(), nil
}

func (app *CouncilApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Debug("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	env, err := app.loadEnv()
	if err != nil {
		return nil, err
	}
	st := app.getState(uint64(proposal.Height))
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		stTmp := st.Clone()
		result, err := app.deliverTx(ctx, env, stTmp, stx)
		if err != nil {
			app.logger.Error("prepare tx fail", "err", err)
			continue
		}
		if result.Code != 0 {
			app.logger.Info("prepare tx dropped", "code", result.Code, "log", result.Log)
			continue
		}
		st.Adopt(stTmp)
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *CouncilApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Debug("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	if len(proposal.Txs) == 0 {
		res.Status = abcitypes.ResponseProcessProposal_ACCEPT
		return res, nil
	}
	env, err := app.loadEnv()
	if err != nil {
		return nil, err
	}
	st := app.getState(uint64(proposal.Height))
	results, err := app.deliverTxs(ctx, env, st, proposal.Txs)
	if err != nil {
		app.logger.Error("process fail", "err", err)
		return res, nil
	}
	for i, result := range results {
		if result.Code != 0 {
			app.logger.Info("proposal carries failing tx", "index", i, "code", result.Code, "log", result.Log)
			return res, nil
		}
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *CouncilApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	env, err := app.loadEnv()
	if err != nil {
		return nil, err
	}
	st := app.getState(uint64(req.Height))
	res, err := app.deliverTxs(ctx, env, st, req.Txs)
	if err != nil {
		return nil, err
	}
	events, err := app.tick(env, st)
	if err != nil {
		app.logger.Error("block tick fail", "height", req.Height, "err", err)
		return nil, err
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.st = st
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
		Events:    events,
	}, nil
}

func (app *CouncilApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrUnexpectedTxProcess
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Debug("Commit", "height", app.lastBlk.Height)
	return &abcitypes.ResponseCommit{}, nil
}
