package app

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"strings"

	"github.com/calehh/council-app/state"
	"github.com/calehh/council-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const (
	CodeQueryFail     uint32 = 1
	CodeQueryNotFound uint32 = 404
)

func (app *CouncilApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = CodeQueryNotFound
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var a *state.Account
	var height uint64
	if len(req.Data) == 20 {
		a, height, _ = q.db.GetAccountByAddress(req.Data)
	} else if len(req.Data) <= 8 {
		a, height, _ = q.db.GetAccountByIndex(decodeIndex(req.Data))
	}
	if a != nil {
		res.Value, _ = a.MarshalJSON()
		res.Height = int64(height)
	} else {
		res.Code = CodeQueryFail
	}
	return
}

// decodeIndex reads a big endian integer of up to 8 bytes.
func decodeIndex(dat []byte) uint64 {
	var buf [8]byte
	copy(buf[8-len(dat):], dat)
	return binary.BigEndian.Uint64(buf[:])
}

// stateQuerier answers a query from the committed state with a JSON value.
type stateQuerier struct {
	db *state.StateDB
	fn func(st *state.State, data []byte) (any, error)
}

func newStateQuerier(db *state.StateDB, fn func(st *state.State, data []byte) (any, error)) *stateQuerier {
	return &stateQuerier{db: db, fn: fn}
}

func (q *stateQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	st := q.db.State()
	v, err := q.fn(st, req.Data)
	if err != nil {
		res.Code = CodeQueryFail
		res.Log = err.Error()
		return res, nil
	}
	res.Height = int64(st.Height())
	res.Value, err = json.Marshal(v)
	if err != nil {
		res.Code = CodeQueryFail
		res.Log = err.Error()
	}
	return res, nil
}

type CouncilStageInfo struct {
	Stage                types.CouncilStageUpdate `json:"stage"`
	AnnouncementPeriodNr uint64                   `json:"announcementPeriodNr"`
}

func queryCouncilStage(st *state.State, _ []byte) (any, error) {
	stage, err := st.CouncilStage()
	if err != nil {
		return nil, err
	}
	nr, err := st.AnnouncementPeriodNr()
	if err != nil {
		return nil, err
	}
	return &CouncilStageInfo{Stage: stage, AnnouncementPeriodNr: nr}, nil
}

func queryCandidates(st *state.State, data []byte) (any, error) {
	if len(data) > 0 && len(data) <= 8 {
		return st.Candidate(decodeIndex(data))
	}
	candidates, err := st.Candidates()
	if candidates == nil {
		candidates = []types.Candidate{}
	}
	return candidates, err
}

func queryCouncilMembers(st *state.State, _ []byte) (any, error) {
	return st.CouncilMembers()
}

type BudgetInfo struct {
	Budget             uint64 `json:"budget"`
	NextBudgetRefill   uint64 `json:"nextBudgetRefill"`
	NextRewardPayments uint64 `json:"nextRewardPayments"`
}

func queryBudget(st *state.State, _ []byte) (any, error) {
	var info BudgetInfo
	var err error
	if info.Budget, err = st.Budget(); err != nil {
		return nil, err
	}
	if info.NextBudgetRefill, err = st.NextBudgetRefill(); err != nil {
		return nil, err
	}
	if info.NextRewardPayments, err = st.NextRewardPayments(); err != nil {
		return nil, err
	}
	return &info, nil
}

func queryReferendumStage(st *state.State, _ []byte) (any, error) {
	return st.ReferendumStage()
}

func queryVotes(st *state.State, data []byte) (any, error) {
	if len(data) > 0 && len(data) <= 8 {
		return st.Vote(decodeIndex(data))
	}
	votes, err := st.Votes()
	if votes == nil {
		votes = []state.AccountVote{}
	}
	return votes, err
}
