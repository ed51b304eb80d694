package agent

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/calehh/council-app/state"
	"github.com/calehh/council-app/tx"
	"github.com/calehh/council-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/libs/bytes"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	latest  int64
	txs     map[int64][][]byte
	results map[int64]*coretypes.ResultBlockResults
	queries map[string]abci.ResponseQuery
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		txs:     make(map[int64][][]byte),
		results: make(map[int64]*coretypes.ResultBlockResults),
		queries: make(map[string]abci.ResponseQuery),
	}
}

func (f *fakeClient) Status(ctx context.Context) (*coretypes.ResultStatus, error) {
	return &coretypes.ResultStatus{SyncInfo: coretypes.SyncInfo{LatestBlockHeight: f.latest}}, nil
}

func (f *fakeClient) Block(ctx context.Context, height *int64) (*coretypes.ResultBlock, error) {
	var txs cmttypes.Txs
	for _, t := range f.txs[*height] {
		txs = append(txs, t)
	}
	return &coretypes.ResultBlock{Block: &cmttypes.Block{Data: cmttypes.Data{Txs: txs}}}, nil
}

func (f *fakeClient) BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error) {
	if r, ok := f.results[*height]; ok {
		return r, nil
	}
	return &coretypes.ResultBlockResults{Height: *height}, nil
}

func (f *fakeClient) ABCIQuery(ctx context.Context, path string, data bytes.HexBytes) (*coretypes.ResultABCIQuery, error) {
	return &coretypes.ResultABCIQuery{Response: f.queries[path]}, nil
}

func newTestIndexer(t *testing.T, cli ChainClient) (*ChainIndexer, *NoteArchive) {
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "indexer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	notes, err := NewMemNoteArchive()
	require.NoError(t, err)
	t.Cleanup(func() { notes.Close() })
	c, err := newChainIndexer(cmtlog.NewNopLogger(), db, cli, notes)
	require.NoError(t, err)
	return c, notes
}

func noteTx(t *testing.T, member uint64, note string) []byte {
	dat, err := tx.MarshalCouncilTx(&tx.CouncilTx{
		Type:   tx.CouncilTxTypeSetCandidacyNote,
		Signer: member,
		Tx:     &tx.SetCandidacyNoteTx{Member: member, Note: []byte(note)},
	})
	require.NoError(t, err)
	return dat
}

func newCandidateResult(member uint64) *abci.ExecTxResult {
	return &abci.ExecTxResult{Events: []abci.Event{types.EncodeEventNewCandidate(&types.EventNewCandidate{
		Member:         member,
		StakingAccount: member,
		RewardAccount:  member,
		Stake:          11000,
	})}}
}

// electionChain is a chain where four candidates announce in block 1, one
// sets a note, and block 2 seats members 1 to 3.
func electionChain(t *testing.T) *fakeClient {
	f := newFakeClient()
	f.latest = 2
	note := crypto.Keccak256([]byte("hello council"))
	f.txs[1] = [][]byte{nil, nil, nil, nil, noteTx(t, 1, "hello council"), noteTx(t, 2, "rejected")}
	f.results[1] = &coretypes.ResultBlockResults{
		Height: 1,
		TxsResults: []*abci.ExecTxResult{
			newCandidateResult(1),
			newCandidateResult(2),
			newCandidateResult(3),
			newCandidateResult(4),
			{Events: []abci.Event{types.EncodeEventCandidacyNoteSet(&types.EventCandidacyNoteSet{Member: 1, NoteHash: note})}},
			{Code: 50, Events: []abci.Event{types.EncodeEventCandidacyWithdraw(&types.EventMember{Member: 2})}},
		},
		FinalizeBlockEvents: []abci.Event{
			types.EncodeEventBudgetBalanceSet(&types.EventBudget{Balance: 900}),
		},
	}
	f.results[2] = &coretypes.ResultBlockResults{
		Height: 2,
		FinalizeBlockEvents: []abci.Event{
			types.EncodeEventReferendumFinished(&types.EventReferendumFinished{
				CycleID: 0,
				Winners: []types.OptionResult{{OptionID: 1, VotePower: 40000}, {OptionID: 2, VotePower: 30000}, {OptionID: 3, VotePower: 20000}},
			}),
			types.EncodeEventNewCouncilElected(&types.EventNewCouncilElected{Members: []uint64{1, 2, 3}}),
			types.EncodeEventRewardPayment(&types.EventRewardPayment{Member: 1, Account: 1, Paid: 300}),
			types.EncodeEventRewardPayment(&types.EventRewardPayment{Member: 2, Account: 2, Paid: 0, Missing: 300}),
		},
	}
	return f
}

func syncAll(t *testing.T, c *ChainIndexer, to int64) {
	for ; c.Height <= to; c.Height++ {
		require.NoError(t, c.syncBlock(context.Background(), c.Height))
	}
}

func TestNoteArchive(t *testing.T) {
	a, err := NewMemNoteArchive()
	require.NoError(t, err)
	defer a.Close()

	hash, err := a.Put([]byte("note"))
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256([]byte("note")), hash)
	got, err := a.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("note"), got)

	_, err = a.Get(make([]byte, 32))
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestIndexElection(t *testing.T) {
	cli := electionChain(t)
	c, notes := newTestIndexer(t, cli)
	assert.Equal(t, int64(1), c.Height)
	syncAll(t, c, 2)

	candidates, err := c.getCandidates(nil, "")
	require.NoError(t, err)
	require.Len(t, candidates, 4)
	elected, err := c.getCandidates(nil, CandidateElected)
	require.NoError(t, err)
	assert.Len(t, elected, 3)
	announced, err := c.getCandidates(nil, CandidateAnnounced)
	require.NoError(t, err)
	require.Len(t, announced, 1)
	assert.Equal(t, uint64(4), announced[0].Member)

	// the failed withdraw is ignored, the note of member 1 is kept
	for _, cand := range candidates {
		assert.NotEqual(t, CandidateWithdrawn, cand.Status)
		if cand.Member == 1 {
			assert.Equal(t, hex.EncodeToString(crypto.Keccak256([]byte("hello council"))), cand.NoteHash)
		}
	}
	note, err := notes.Get(crypto.Keccak256([]byte("hello council")))
	require.NoError(t, err)
	assert.Equal(t, "hello council", string(note))
	_, err = notes.Get(crypto.Keccak256([]byte("rejected")))
	assert.ErrorIs(t, err, ErrNoteNotFound)

	council, err := c.getCouncil()
	require.NoError(t, err)
	require.Len(t, council, 3)
	assert.Equal(t, uint64(1), council[0].Member)
	assert.Equal(t, uint64(300), council[0].TotalPaid)
	assert.Equal(t, uint64(2), council[0].ElectedHeight)

	elections, total, err := c.getElections(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, elections, 1)
	assert.True(t, elections[0].Elected)
	assert.Equal(t, "1:40000,2:30000,3:20000", elections[0].Winners)
	assert.Equal(t, "1,2,3", elections[0].Members)

	payments, total, err := c.getPaymentsByMember(2, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, uint64(300), payments[0].Missing)

	entries, total, err := c.getBudgetEntries(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Equal(t, BudgetEntryPayment, entries[0].Kind)
	assert.Equal(t, BudgetEntrySet, entries[1].Kind)
	assert.Equal(t, uint64(900), entries[1].Balance)

	var h Height
	require.NoError(t, c.db.First(&h, 1).Error)
	assert.Equal(t, uint64(2), h.Height)
}

func TestIndexerResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexer.db")
	db, err := gorm.Open("sqlite3", path)
	require.NoError(t, err)
	c, err := newChainIndexer(cmtlog.NewNopLogger(), db, electionChain(t), nil)
	require.NoError(t, err)
	syncAll(t, c, 2)
	require.NoError(t, db.Close())

	db, err = gorm.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	c, err = newChainIndexer(cmtlog.NewNopLogger(), db, newFakeClient(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Height)
}

func TestReannounceReleasesStale(t *testing.T) {
	c, _ := newTestIndexer(t, newFakeClient())
	res := &coretypes.ResultBlockResults{TxsResults: []*abci.ExecTxResult{newCandidateResult(5)}}
	require.NoError(t, c.indexBlock(1, nil, res))
	require.NoError(t, c.indexBlock(2, nil, res))

	candidates, err := c.getCandidates(nil, "")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, CandidateAnnounced, candidates[0].Status)
	assert.Equal(t, CandidateReleased, candidates[1].Status)
}

func TestReadsDuringSync(t *testing.T) {
	const blocks = 200
	f := newFakeClient()
	f.latest = blocks
	for h := int64(1); h <= blocks; h++ {
		f.results[h] = &coretypes.ResultBlockResults{
			Height:     h,
			TxsResults: []*abci.ExecTxResult{newCandidateResult(uint64(h))},
		}
	}
	c, _ := newTestIndexer(t, f)

	var (
		wg     sync.WaitGroup
		done   atomic.Bool
		reads  atomic.Int64
		failed atomic.Int64
		first  atomic.Value
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !done.Load() {
				reads.Add(1)
				if _, err := c.getCandidates(nil, ""); err != nil {
					failed.Add(1)
					first.CompareAndSwap(nil, err.Error())
				}
				if _, err := c.getCouncil(); err != nil {
					failed.Add(1)
					first.CompareAndSwap(nil, err.Error())
				}
			}
		}()
	}
	syncAll(t, c, blocks)
	done.Store(true)
	wg.Wait()

	assert.Positive(t, reads.Load())
	assert.Zero(t, failed.Load(), "first error: %v", first.Load())
	candidates, err := c.getCandidates(nil, CandidateAnnounced)
	require.NoError(t, err)
	assert.Len(t, candidates, blocks)
}

func TestService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, notes := newTestIndexer(t, electionChain(t))
	syncAll(t, c, 2)
	s := NewService("", c, notes)

	get := func(path string, v any) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		s.engine.ServeHTTP(w, req)
		if v != nil && w.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
		}
		return w.Code
	}

	var cands GetCandidatesResponse
	require.Equal(t, http.StatusOK, get("/candidates?status=elected&cycle=0", &cands))
	assert.Len(t, cands.Candidates, 3)
	require.Equal(t, http.StatusOK, get("/candidates?cycle=7", &cands))
	assert.Empty(t, cands.Candidates)

	var council GetCouncilResponse
	require.Equal(t, http.StatusOK, get("/council", &council))
	assert.Len(t, council.Members, 3)

	var payments GetPaymentsResponse
	require.Equal(t, http.StatusOK, get("/payments/1?pageSize=5", &payments))
	assert.Equal(t, uint64(1), payments.Total)
	assert.Equal(t, http.StatusBadRequest, get("/payments/abc", nil))

	var budget GetBudgetResponse
	require.Equal(t, http.StatusOK, get("/budget", &budget))
	assert.Equal(t, uint64(2), budget.Total)

	var elections GetElectionsResponse
	require.Equal(t, http.StatusOK, get("/elections?page=0", &elections))
	assert.Len(t, elections.Elections, 1)

	var note GetNoteResponse
	hash := hex.EncodeToString(crypto.Keccak256([]byte("hello council")))
	require.Equal(t, http.StatusOK, get("/notes/"+hash, &note))
	assert.Equal(t, "hello council", note.Note)
	assert.Equal(t, http.StatusNotFound, get("/notes/"+hex.EncodeToString(make([]byte, 32)), nil))
	assert.Equal(t, http.StatusBadRequest, get("/notes/zz", nil))

	assert.Equal(t, http.StatusOK, get("/metrics", nil))
}

func TestQueryAccount(t *testing.T) {
	f := newFakeClient()
	acnt := &state.Account{Index: 65537, Balance: 10, Nonce: 3, Locks: []state.Lock{{ID: types.VotingLockID, Amount: 5}}}
	acnt.SetPubKey(make([]byte, 32))
	dat, err := acnt.MarshalJSON()
	require.NoError(t, err)
	f.queries["/accounts/"] = abci.ResponseQuery{Value: dat}

	got, err := QueryAccount(context.Background(), f, 65537, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Nonce)
	require.Len(t, got.Locks, 1)
	assert.Equal(t, uint64(5), got.Locks[0].Amount)

	_, err = QueryAccount(context.Background(), f, 0, "not-hex")
	assert.Error(t, err)

	f.queries["/accounts/"] = abci.ResponseQuery{Code: 1}
	_, err = QueryAccount(context.Background(), f, 65537, "")
	assert.ErrorIs(t, err, ErrQueryFail)

	f.queries["/council/stage/"] = abci.ResponseQuery{Value: []byte(`{"stage":{}}`)}
	v, err := Query(context.Background(), f, "/council/stage/", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":{}}`, string(v))
}
