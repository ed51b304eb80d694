package council

import (
	"math"
	"testing"

	"github.com/calehh/council-app/referendum"
	"github.com/calehh/council-app/state"
	"github.com/calehh/council-app/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t        *testing.T
	st       *state.State
	events   *types.EventList
	settings *Settings
	rparams  *referendum.Params

	root    uint64
	members []uint64
	voters  []uint64
	height  uint64
}

func newHarness(t *testing.T, cp types.CouncilParams, members, voters int) *harness {
	db, err := state.NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	rp := types.DefaultReferendumParams()
	settings, err := NewSettings(cp, rp)
	require.NoError(t, err)
	rparams, err := referendum.NewParams(rp)
	require.NoError(t, err)

	h := &harness{
		t:        t,
		st:       db.NewState(),
		events:   new(types.EventList),
		settings: settings,
		rparams:  rparams,
	}
	h.root = h.account(0, false)
	for i := 0; i < members; i++ {
		h.members = append(h.members, h.account(100000, true))
	}
	for i := 0; i < voters; i++ {
		h.voters = append(h.voters, h.account(50000, false))
	}
	c, r := h.modules()
	require.NoError(t, c.InitGenesis(cp.Budget))
	require.NoError(t, r.InitGenesis())
	h.events.Reset()
	return h
}

func (h *harness) account(balance uint64, member bool) uint64 {
	a := &state.Account{Balance: balance, Member: member}
	a.SetPubKey(ed25519.GenPrivKey().PubKey().Bytes())
	require.NoError(h.t, h.st.AddAccount(a))
	return a.Index
}

func (h *harness) modules() (*Module, *referendum.Module) {
	c := New(h.settings, Deps{Store: h.st, Balances: h.st, Members: h.st, Events: h.events}, h.height, cmtlog.NewNopLogger())
	r := referendum.New(h.rparams, referendum.Deps{Store: h.st, Balances: h.st, Events: h.events}, c, h.height, cmtlog.NewNopLogger())
	c.UseReferendum(r)
	return c, r
}

func (h *harness) council() *Module {
	c, _ := h.modules()
	return c
}

func (h *harness) ref() *referendum.Module {
	_, r := h.modules()
	return r
}

// runTo ticks every block after the current height up to and including to.
func (h *harness) runTo(to uint64) {
	for h.height < to {
		h.height++
		c, r := h.modules()
		require.NoError(h.t, c.OnFinalize())
		require.NoError(h.t, r.OnFinalize())
	}
}

func (h *harness) stage() types.CouncilStageUpdate {
	s, err := h.st.CouncilStage()
	require.NoError(h.t, err)
	return s
}

func (h *harness) eventTypes() []string {
	var res []string
	for _, ev := range h.events.Reset() {
		res = append(res, ev.Type)
	}
	return res
}

func (h *harness) announce(member, stake uint64) error {
	return h.council().AnnounceCandidacy(Origin{Signer: member}, member, member, member, stake)
}

func (h *harness) locked(account uint64, id types.LockID) uint64 {
	v, err := h.st.LockedAmount(account, id)
	require.NoError(h.t, err)
	return v
}

func (h *harness) balance(account uint64) uint64 {
	v, err := h.st.Balance(account)
	require.NoError(h.t, err)
	return v
}

func testSalt(voter uint64) []byte {
	return []byte{byte(voter), byte(voter >> 8), 's'}
}

func TestNewSettings(t *testing.T) {
	s, err := NewSettings(types.DefaultCouncilParams(), types.DefaultReferendumParams())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), s.MinCandidateCount())
	assert.Equal(t, uint64(15+19+23), s.ElectionDuration())
	assert.Equal(t, uint64(15+19+23+27), s.CycleDuration())

	cp := types.DefaultCouncilParams()
	cp.CouncilSize = 0
	_, err = NewSettings(cp, types.DefaultReferendumParams())
	assert.Error(t, err)

	// the first zero field in declaration order is reported
	cp.IdlePeriodDuration = 0
	cp.BudgetRefillPeriod = 0
	for i := 0; i < 20; i++ {
		_, err = NewSettings(cp, types.DefaultReferendumParams())
		assert.EqualError(t, err, "invalid council settings: council size must be positive")
	}
}

func TestFullElectionCycle(t *testing.T) {
	cp := types.DefaultCouncilParams()
	cp.Budget = 500
	h := newHarness(t, cp, 5, 10)

	h.height = 1
	for _, m := range h.members {
		require.NoError(t, h.announce(m, 11000))
	}
	assert.Equal(t, uint64(5), h.stage().CandidatesCount)
	assert.Equal(t, uint64(11000), h.locked(h.members[0], types.CandidacyLockID))
	h.eventTypes()

	h.runTo(15)
	assert.Equal(t, types.StageElection, h.stage().Kind)
	assert.Equal(t, []string{types.EventReferendumStartedType, types.EventVotingStartedType}, h.eventTypes())

	choices := []int{3, 3, 3, 3, 0, 0, 0, 1, 1, 2}
	h.height = 16
	for i, voter := range h.voters {
		option := h.members[choices[i]]
		comm := referendum.Commitment(voter, testSalt(voter), 0, option)
		require.NoError(t, h.ref().Vote(voter, comm, 10000))
	}

	h.runTo(15 + 19)
	h.height = 35
	for i, voter := range h.voters {
		require.NoError(t, h.ref().RevealVote(voter, testSalt(voter), h.members[choices[i]]))
	}
	c, err := h.st.Candidate(h.members[3])
	require.NoError(t, err)
	assert.Equal(t, uint64(40000), c.VotePower)

	h.eventTypes()
	h.runTo(15 + 19 + 23)
	assert.Equal(t, types.StageIdle, h.stage().Kind)
	assert.Contains(t, h.eventTypes(), types.EventNewCouncilElectedType)

	members, err := h.st.CouncilMembers()
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, h.members[3], members[0].MemberID)
	assert.Equal(t, h.members[0], members[1].MemberID)
	assert.Equal(t, h.members[1], members[2].MemberID)
	for _, cm := range members {
		assert.Equal(t, uint64(57), cm.ElectedAt)
		assert.Zero(t, h.locked(cm.StakingAccount, types.CandidacyLockID))
		assert.Equal(t, uint64(11000), h.locked(cm.StakingAccount, types.CouncilorLockID))
		rec, err := h.st.Candidate(cm.MemberID)
		require.NoError(t, err)
		assert.Nil(t, rec)
	}

	// losers keep their stake until they release it
	loser := h.members[2]
	assert.Equal(t, uint64(11000), h.locked(loser, types.CandidacyLockID))
	require.NoError(t, h.council().ReleaseCandidacyStake(Origin{Signer: loser}, loser))
	assert.Zero(t, h.locked(loser, types.CandidacyLockID))
	assert.ErrorIs(t, h.council().ReleaseCandidacyStake(Origin{Signer: loser}, loser), ErrNoStake)

	// first payment after the election: 3 blocks owed, budget of 500 runs dry
	h.runTo(60)
	members, err = h.st.CouncilMembers()
	require.NoError(t, err)
	assert.Equal(t, uint64(100000+300), h.balance(members[0].RewardAccount))
	assert.Equal(t, uint64(100000+200), h.balance(members[1].RewardAccount))
	assert.Equal(t, uint64(100000), h.balance(members[2].RewardAccount))
	assert.Zero(t, members[0].UnpaidReward)
	assert.Equal(t, uint64(100), members[1].UnpaidReward)
	assert.Equal(t, uint64(300), members[2].UnpaidReward)
	for _, cm := range members {
		assert.Equal(t, uint64(60), cm.LastPaymentBlock)
	}
	budget, err := h.st.Budget()
	require.NoError(t, err)
	assert.Zero(t, budget)
	next, err := h.st.NextRewardPayments()
	require.NoError(t, err)
	assert.Equal(t, uint64(70), next)

	// next announcing period
	h.runTo(57 + 27)
	assert.Equal(t, types.StageAnnouncing, h.stage().Kind)
	cycle, err := h.st.AnnouncementPeriodNr()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cycle)
}

func TestAnnouncingExtended(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 3, 0)
	for _, m := range h.members {
		require.NoError(t, h.announce(m, 11000))
	}
	h.eventTypes()

	h.runTo(15)
	s := h.stage()
	assert.Equal(t, types.StageAnnouncing, s.Kind)
	assert.Equal(t, uint64(15), s.ChangedAt)
	assert.Equal(t, uint64(3), s.CandidatesCount)
	assert.Equal(t, []string{types.EventNotEnoughCandidatesType}, h.eventTypes())

	h.runTo(29)
	assert.Empty(t, h.eventTypes())
	h.runTo(30)
	assert.Equal(t, []string{types.EventNotEnoughCandidatesType}, h.eventTypes())
}

// candidacyView is the state a rejected announcement must leave untouched.
type candidacyView struct {
	count     uint64
	locked    uint64
	balance   uint64
	candidate *types.Candidate
}

func (h *harness) view(member, staking uint64) candidacyView {
	c, err := h.st.Candidate(member)
	require.NoError(h.t, err)
	return candidacyView{
		count:     h.stage().CandidatesCount,
		locked:    h.locked(staking, types.CandidacyLockID),
		balance:   h.balance(staking),
		candidate: c,
	}
}

func TestAnnounceCandidacyChecks(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 3, 1)
	m, other := h.members[0], h.members[1]
	voter := h.voters[0]

	rejected := func(err, want error, member, staking uint64, before candidacyView) {
		t.Helper()
		assert.ErrorIs(t, err, want)
		assert.Equal(t, before, h.view(member, staking), "state changed by %v", want)
		assert.Empty(t, h.events.Reset())
	}

	before := h.view(m, m)
	assert.Nil(t, before.candidate)
	rejected(h.council().AnnounceCandidacy(Origin{Signer: other}, m, m, m, 11000), ErrMemberIdNotMatchAccount, m, m, before)
	rejected(h.announce(m, 10999), ErrCandidacyStakeTooLow, m, m, before)
	rejected(h.council().AnnounceCandidacy(Origin{Signer: m}, m, voter, m, 11000), ErrInvalidAccountToStakeReuse, m, voter, h.view(m, voter))
	rejected(h.council().AnnounceCandidacy(Origin{Signer: m}, m, m, voter+100, 11000), ErrRewardAccountNoexists, m, m, before)
	rejected(h.announce(m, 100001), ErrInsufficientBalance, m, m, before)

	require.NoError(t, h.announce(m, 11000))
	h.events.Reset()
	before = h.view(m, m)
	assert.Equal(t, uint64(1), before.count)
	assert.Equal(t, uint64(11000), before.locked)
	rejected(h.announce(m, 12000), ErrMemberAlreadyCandidating, m, m, before)

	// a bound staking account already holding a candidacy lock for someone else
	shared := h.account(50000, false)
	for _, owner := range []uint64{other, h.members[2]} {
		a, err := h.st.GetAccount(shared)
		require.NoError(t, err)
		a.BoundMember = owner
		require.NoError(t, h.st.SetAccount(a))
		before = h.view(owner, shared)
		err = h.council().AnnounceCandidacy(Origin{Signer: owner}, owner, shared, owner, 11000)
		if owner == other {
			require.NoError(t, err)
			h.events.Reset()
		} else {
			rejected(err, ErrConflictingStake, owner, shared, before)
		}
	}
	assert.Equal(t, uint64(2), h.stage().CandidatesCount)

	require.NoError(t, h.st.SetCouncilStage(types.CouncilStageUpdate{Kind: types.StageIdle}))
	before = h.view(h.members[2], h.members[2])
	rejected(h.announce(h.members[2], 11000), ErrNotAnnouncingStage, h.members[2], h.members[2], before)
}

// Four candidates at the minimum stake, ten voters.
func TestFourCandidateElection(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 4, 10)
	h.height = 1
	for _, m := range h.members {
		require.NoError(t, h.announce(m, h.settings.MinCandidateStake))
	}
	h.runTo(15)
	require.Equal(t, types.StageElection, h.stage().Kind)
	assert.Equal(t, uint64(4), h.stage().CandidatesCount)

	choices := []int{3, 3, 3, 3, 0, 0, 0, 1, 1, 2}
	h.height = 16
	for i, voter := range h.voters {
		comm := referendum.Commitment(voter, testSalt(voter), 0, h.members[choices[i]])
		require.NoError(t, h.ref().Vote(voter, comm, 10000))
	}
	h.runTo(34)
	h.height = 35
	for i, voter := range h.voters {
		require.NoError(t, h.ref().RevealVote(voter, testSalt(voter), h.members[choices[i]]))
	}
	h.runTo(57)
	require.Equal(t, types.StageIdle, h.stage().Kind)

	members, err := h.st.CouncilMembers()
	require.NoError(t, err)
	var got []uint64
	for _, cm := range members {
		got = append(got, cm.MemberID)
	}
	assert.Equal(t, []uint64{h.members[3], h.members[0], h.members[1]}, got)

	loser := h.members[2]
	assert.Equal(t, uint64(11000), h.locked(loser, types.CandidacyLockID))
	require.NoError(t, h.council().ReleaseCandidacyStake(Origin{Signer: loser}, loser))
	assert.Zero(t, h.locked(loser, types.CandidacyLockID))
}

func TestWithdrawAndReannounce(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 1, 0)
	m := h.members[0]

	assert.ErrorIs(t, h.council().WithdrawCandidacy(Origin{Signer: m}, m), ErrNotCandidate)
	require.NoError(t, h.announce(m, 11000))
	require.NoError(t, h.council().SetCandidacyNote(Origin{Signer: m}, m, []byte("vote for me")))

	assert.ErrorIs(t, h.council().ReleaseCandidacyStake(Origin{Signer: m}, m), ErrStakeStillNeeded)
	require.NoError(t, h.council().WithdrawCandidacy(Origin{Signer: m}, m))
	assert.Zero(t, h.locked(m, types.CandidacyLockID))
	assert.Zero(t, h.stage().CandidatesCount)

	require.NoError(t, h.announce(m, 12000))
	c, err := h.st.Candidate(m)
	require.NoError(t, err)
	assert.Equal(t, uint64(12000), c.Stake)
	assert.Zero(t, c.VotePower)
	assert.Empty(t, c.NoteHash)
	assert.Equal(t, uint64(1), h.stage().CandidatesCount)

	require.NoError(t, h.st.SetCouncilStage(types.CouncilStageUpdate{Kind: types.StageElection, CandidatesCount: 1}))
	assert.ErrorIs(t, h.council().WithdrawCandidacy(Origin{Signer: m}, m), ErrCandidacyStakeLockedPostAnnouncement)
	require.NoError(t, h.council().SetCandidacyNote(Origin{Signer: m}, m, []byte("still running")))

	require.NoError(t, h.st.SetCouncilStage(types.CouncilStageUpdate{Kind: types.StageIdle}))
	assert.ErrorIs(t, h.council().SetCandidacyNote(Origin{Signer: m}, m, []byte("late")), ErrNotCandidatingNow)
}

func TestCandidacyNoteHash(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 1, 0)
	m := h.members[0]
	require.NoError(t, h.announce(m, 11000))
	h.eventTypes()

	require.NoError(t, h.council().SetCandidacyNote(Origin{Signer: m}, m, []byte("note")))
	c, err := h.st.Candidate(m)
	require.NoError(t, err)
	assert.Len(t, c.NoteHash, 32)

	evs := h.events.Reset()
	require.Len(t, evs, 1)
	ev := types.DecodeEventCandidacyNoteSet(evs[0])
	require.NotNil(t, ev)
	assert.Equal(t, m, ev.Member)
	assert.Equal(t, c.NoteHash, ev.NoteHash)
}

func TestNotElected(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 4, 2)
	for _, m := range h.members {
		require.NoError(t, h.announce(m, 11000))
	}
	h.runTo(15)

	h.height = 16
	for i, voter := range h.voters {
		comm := referendum.Commitment(voter, nil, 0, h.members[i])
		require.NoError(t, h.ref().Vote(voter, comm, 10000))
	}
	h.runTo(34)
	h.height = 35
	for i, voter := range h.voters {
		require.NoError(t, h.ref().RevealVote(voter, nil, h.members[i]))
	}
	h.eventTypes()
	h.runTo(57)

	assert.Contains(t, h.eventTypes(), types.EventNewCouncilNotElectedType)
	assert.Equal(t, types.StageIdle, h.stage().Kind)
	members, err := h.st.CouncilMembers()
	require.NoError(t, err)
	assert.Empty(t, members)
	for _, m := range h.members {
		require.NoError(t, h.council().ReleaseCandidacyStake(Origin{Signer: m}, m))
	}
}

func TestReceiveResultsInvariant(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 1, 0)
	err := h.council().ReceiveResults(nil)
	assert.True(t, IsInvariantViolation(err))

	require.NoError(t, h.st.SetCouncilStage(types.CouncilStageUpdate{Kind: types.StageElection}))
	winners := []types.OptionResult{{OptionID: 1}, {OptionID: 2}, {OptionID: 3}}
	err = h.council().ReceiveResults(winners)
	assert.True(t, IsInvariantViolation(err), "winners without candidacy")
	assert.Equal(t, CodeInternal, Code(err))

	winners = append(winners, types.OptionResult{OptionID: 4})
	assert.True(t, IsInvariantViolation(h.council().ReceiveResults(winners)))
}

func TestCanUnlockVoteStake(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 1, 0)
	seated := h.members[0]
	require.NoError(t, h.st.SetCouncilMembers([]types.CouncilMember{{MemberID: seated}}))

	backing := types.CastVote{CycleID: 0, VoteFor: seated, Revealed: true}
	other := types.CastVote{CycleID: 0, VoteFor: seated + 1, Revealed: true}
	hidden := types.CastVote{CycleID: 0}

	for _, tc := range []struct {
		name  string
		cycle uint64
		kind  types.StageKind
		vote  types.CastVote
		want  bool
	}{
		{"same cycle election", 0, types.StageElection, other, false},
		{"same cycle idle loser", 0, types.StageIdle, other, true},
		{"same cycle idle unrevealed", 0, types.StageIdle, hidden, true},
		{"backs seated councilor", 0, types.StageIdle, backing, false},
		{"backs councilor next cycle", 1, types.StageAnnouncing, backing, false},
		{"two cycles later", 2, types.StageAnnouncing, backing, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, h.st.SetAnnouncementPeriodNr(tc.cycle))
			require.NoError(t, h.st.SetCouncilStage(types.CouncilStageUpdate{Kind: tc.kind}))
			ok, err := h.council().CanUnlockVoteStake(tc.vote)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestBudgetOps(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 1, 0)
	root := Origin{Signer: h.root, Root: true}
	m := h.members[0]

	assert.ErrorIs(t, h.council().SetBudget(Origin{Signer: m}, 10), ErrBadOrigin)
	require.NoError(t, h.council().SetBudget(root, 777))
	budget, err := h.st.Budget()
	require.NoError(t, err)
	assert.Equal(t, uint64(777), budget)

	h.height = 20
	assert.ErrorIs(t, h.council().PlanBudgetRefill(Origin{Signer: m}, 30), ErrBadOrigin)
	assert.ErrorIs(t, h.council().PlanBudgetRefill(root, 20), ErrInvalidRefillBlock)
	require.NoError(t, h.council().PlanBudgetRefill(root, 25))
	next, err := h.st.NextBudgetRefill()
	require.NoError(t, err)
	assert.Equal(t, uint64(25), next)

	h.runTo(25)
	budget, err = h.st.Budget()
	require.NoError(t, err)
	assert.Equal(t, uint64(777+1000), budget)
	next, err = h.st.NextBudgetRefill()
	require.NoError(t, err)
	assert.Equal(t, uint64(1025), next)
}

func TestBudgetRefillCatchUp(t *testing.T) {
	cp := types.DefaultCouncilParams()
	cp.BudgetRefillPeriod = 10
	h := newHarness(t, cp, 0, 0)

	// blocks 10, 20 and 30 were missed
	h.height = 37
	c, _ := h.modules()
	require.NoError(t, c.tryRefillBudget())
	budget, err := h.st.Budget()
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), budget)
	next, err := h.st.NextBudgetRefill()
	require.NoError(t, err)
	assert.Equal(t, uint64(40), next)

	evs := h.events.Reset()
	require.Len(t, evs, 1)
	ev := types.DecodeEventBudget(evs[0])
	require.NotNil(t, ev)
	assert.Equal(t, uint64(3000), ev.Amount)
}

func TestBudgetSaturates(t *testing.T) {
	cp := types.DefaultCouncilParams()
	cp.BudgetRefillPeriod = 10
	cp.BudgetRefillAmount = math.MaxUint64 / 2
	h := newHarness(t, cp, 0, 0)

	h.height = 37
	c, _ := h.modules()
	require.NoError(t, c.SetBudget(Origin{Root: true}, 5))
	require.NoError(t, c.tryRefillBudget())
	budget, err := h.st.Budget()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), budget)
	next, err := h.st.NextBudgetRefill()
	require.NoError(t, err)
	assert.Equal(t, uint64(40), next)

	assert.Equal(t, uint64(math.MaxUint64), satAdd(math.MaxUint64, 1))
	assert.Equal(t, uint64(math.MaxUint64), satMul(math.MaxUint64/2, 3))
	assert.Equal(t, uint64(6), satMul(2, 3))
}

func TestRewardsWithEmptyBudget(t *testing.T) {
	h := newHarness(t, types.DefaultCouncilParams(), 1, 0)
	m := h.members[0]
	require.NoError(t, h.st.SetCouncilMembers([]types.CouncilMember{{
		MemberID:       m,
		StakingAccount: m,
		RewardAccount:  m,
		Stake:          11000,
	}}))

	h.runTo(10)
	members, err := h.st.CouncilMembers()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), members[0].UnpaidReward)
	assert.Equal(t, uint64(100000), h.balance(m))

	require.NoError(t, h.council().SetBudget(Origin{Root: true}, 1500))
	h.runTo(20)
	members, err = h.st.CouncilMembers()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), members[0].UnpaidReward)
	assert.Equal(t, uint64(101500), h.balance(m))
}

func TestCode(t *testing.T) {
	assert.Equal(t, CodeOK, Code(nil))
	assert.Equal(t, CodeStageMismatch, Code(ErrNotAnnouncingStage))
	assert.Equal(t, CodeUnauthorized, Code(ErrBadOrigin))
	assert.Equal(t, CodeInsufficientFunds, Code(ErrCandidacyStakeTooLow))
	assert.Equal(t, CodeNotFound, Code(ErrNoStake))
	assert.Equal(t, CodeInvalidArgument, Code(ErrMemberAlreadyCandidating))
}
