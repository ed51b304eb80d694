package agent

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calehh/council-app/tx"
	"github.com/calehh/council-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// ChainIndexer follows the chain over RPC and mirrors the council events
// into sqlite.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           ChainClient
	notes         *NoteArchive
	eventHandlers map[string]eventHandler
	interval      time.Duration
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string, notes *NoteArchive) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, db, cli, notes)
	if err != nil {
		return nil, err
	}
	c.Url = chainUrl
	return c, nil
}

func newChainIndexer(logger cmtlog.Logger, db *gorm.DB, cli ChainClient, notes *NoteArchive) (*ChainIndexer, error) {
	// WAL so readers never wait on a block being indexed
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Candidate{}, &Councilor{}, &Election{}, &RewardPayment{}, &BudgetEntry{}).Error; err != nil {
		return nil, err
	}
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h.Height + 1),
		db:       db,
		cli:      cli,
		notes:    notes,
		interval: time.Second,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventNewCandidateType:          c.handleEventNewCandidate,
		types.EventCandidacyWithdrawType:     c.handleEventCandidacyWithdraw,
		types.EventCandidacyStakeReleaseType: c.handleEventCandidacyStakeRelease,
		types.EventCandidacyNoteSetType:      c.handleEventCandidacyNoteSet,
		types.EventReferendumFinishedType:    c.handleEventReferendumFinished,
		types.EventNewCouncilElectedType:     c.handleEventNewCouncilElected,
		types.EventNewCouncilNotElectedType:  c.handleEventNewCouncilNotElected,
		types.EventRewardPaymentType:         c.handleEventRewardPayment,
		types.EventBudgetBalanceSetType:      c.handleEventBudget,
		types.EventBudgetRefillType:          c.handleEventBudget,
	}
	return c, nil
}

func (c *ChainIndexer) SetInterval(d time.Duration) {
	if d > 0 {
		c.interval = d
	}
}

type eventHandler func(db *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(db *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(db, event, height)
	}
	return nil
}

func decodeFail(event abci.Event) error {
	return fmt.Errorf("decode event %v fail", event.Type)
}

func currentCandidate(db *gorm.DB, member uint64) (*Candidate, error) {
	var cand Candidate
	err := db.Where("member = ? AND status = ?", member, CandidateAnnounced).Order("id desc").First(&cand).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cand, err
}

func (c *ChainIndexer) handleEventNewCandidate(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventNewCandidate(event)
	if ev == nil {
		return decodeFail(event)
	}
	// a stale record of an earlier cycle is released by the new announcement
	if err := db.Model(&Candidate{}).Where("member = ? AND status = ?", ev.Member, CandidateAnnounced).
		Update("status", CandidateReleased).Error; err != nil {
		return err
	}
	return db.Create(&Candidate{
		Member:         ev.Member,
		Cycle:          ev.CycleID,
		StakingAccount: ev.StakingAccount,
		RewardAccount:  ev.RewardAccount,
		Stake:          ev.Stake,
		Status:         CandidateAnnounced,
		Height:         uint64(height),
	}).Error
}

func setCandidateStatus(db *gorm.DB, event abci.Event, status string) error {
	ev := types.DecodeEventMember(event)
	if ev == nil {
		return decodeFail(event)
	}
	cand, err := currentCandidate(db, ev.Member)
	if err != nil || cand == nil {
		return err
	}
	cand.Status = status
	return db.Save(cand).Error
}

func (c *ChainIndexer) handleEventCandidacyWithdraw(db *gorm.DB, event abci.Event, height int64) error {
	return setCandidateStatus(db, event, CandidateWithdrawn)
}

func (c *ChainIndexer) handleEventCandidacyStakeRelease(db *gorm.DB, event abci.Event, height int64) error {
	return setCandidateStatus(db, event, CandidateReleased)
}

func (c *ChainIndexer) handleEventCandidacyNoteSet(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventCandidacyNoteSet(event)
	if ev == nil {
		return decodeFail(event)
	}
	cand, err := currentCandidate(db, ev.Member)
	if err != nil || cand == nil {
		return err
	}
	cand.NoteHash = hex.EncodeToString(ev.NoteHash)
	return db.Save(cand).Error
}

func (c *ChainIndexer) handleEventReferendumFinished(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventReferendumFinished(event)
	if ev == nil {
		return decodeFail(event)
	}
	winners := make([]string, len(ev.Winners))
	for i, w := range ev.Winners {
		winners[i] = fmt.Sprintf("%d:%d", w.OptionID, w.VotePower)
	}
	return db.Create(&Election{
		Cycle:   ev.CycleID,
		Height:  uint64(height),
		Winners: strings.Join(winners, ","),
	}).Error
}

func lastElection(db *gorm.DB) (*Election, error) {
	var el Election
	err := db.Order("id desc").First(&el).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &el, err
}

func (c *ChainIndexer) handleEventNewCouncilElected(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventNewCouncilElected(event)
	if ev == nil {
		return decodeFail(event)
	}
	el, err := lastElection(db)
	if err != nil {
		return err
	}
	var cycle uint64
	members := make([]string, len(ev.Members))
	for i, m := range ev.Members {
		members[i] = fmt.Sprint(m)
	}
	if el != nil {
		el.Elected = true
		el.Members = strings.Join(members, ",")
		if err = db.Save(el).Error; err != nil {
			return err
		}
		cycle = el.Cycle
	}
	if err = db.Model(&Councilor{}).Where("active = ?", true).Update("active", false).Error; err != nil {
		return err
	}
	for _, m := range ev.Members {
		var cl Councilor
		err = db.Where("member = ?", m).First(&cl).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		cl.Member = m
		cl.ElectedCycle = cycle
		cl.ElectedHeight = uint64(height)
		cl.Active = true
		if err = db.Save(&cl).Error; err != nil {
			return err
		}
		if err = db.Model(&Candidate{}).Where("member = ? AND status = ?", m, CandidateAnnounced).
			Update("status", CandidateElected).Error; err != nil {
			return err
		}
	}
	return nil
}

func (c *ChainIndexer) handleEventNewCouncilNotElected(db *gorm.DB, event abci.Event, height int64) error {
	el, err := lastElection(db)
	if err != nil || el == nil {
		return err
	}
	el.Elected = false
	return db.Save(el).Error
}

func (c *ChainIndexer) handleEventRewardPayment(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventRewardPayment(event)
	if ev == nil {
		return decodeFail(event)
	}
	err := db.Create(&RewardPayment{
		Member:  ev.Member,
		Account: ev.Account,
		Paid:    ev.Paid,
		Missing: ev.Missing,
		Height:  uint64(height),
	}).Error
	if err != nil {
		return err
	}
	if ev.Paid > 0 {
		err = db.Create(&BudgetEntry{Kind: BudgetEntryPayment, Amount: ev.Paid, Height: uint64(height)}).Error
		if err != nil {
			return err
		}
	}
	return db.Model(&Councilor{}).Where("member = ?", ev.Member).
		Update("total_paid", gorm.Expr("total_paid + ?", ev.Paid)).Error
}

func (c *ChainIndexer) handleEventBudget(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventBudget(event)
	if ev == nil {
		return decodeFail(event)
	}
	kind := BudgetEntryRefill
	if event.Type == types.EventBudgetBalanceSetType {
		kind = BudgetEntrySet
	}
	return db.Create(&BudgetEntry{
		Kind:    kind,
		Amount:  ev.Amount,
		Balance: ev.Balance,
		Height:  uint64(height),
	}).Error
}

// archiveNotes keeps the plaintext of every note set by a successful tx.
func (c *ChainIndexer) archiveNotes(txs [][]byte, results []*abci.ExecTxResult) {
	if c.notes == nil {
		return
	}
	for i, dat := range txs {
		if i >= len(results) || results[i].Code != 0 {
			continue
		}
		btx, err := tx.UnmarshalCouncilTx(dat)
		if err != nil || btx.Type != tx.CouncilTxTypeSetCandidacyNote {
			continue
		}
		stx := btx.Tx.(*tx.SetCandidacyNoteTx)
		if _, err = c.notes.Put(stx.Note); err != nil {
			c.logger.Error("archive note fail", "member", stx.Member, "err", err)
		}
	}
}

// indexBlock applies the results of one block in one sqlite transaction.
// Readers keep using c.db and never see the transaction.
func (c *ChainIndexer) indexBlock(height int64, txs [][]byte, res *coretypes.ResultBlockResults) error {
	c.archiveNotes(txs, res.TxsResults)
	dbtx := c.db.Begin()
	if err := dbtx.Error; err != nil {
		return err
	}
	for _, r := range res.TxsResults {
		if r.Code != 0 {
			continue
		}
		for _, event := range r.Events {
			if err := c.handleEvent(dbtx, event, height); err != nil {
				dbtx.Rollback()
				return err
			}
		}
	}
	for _, event := range res.FinalizeBlockEvents {
		if err := c.handleEvent(dbtx, event, height); err != nil {
			dbtx.Rollback()
			return err
		}
	}
	if err := dbtx.Save(&Height{Id: 1, Height: uint64(height)}).Error; err != nil {
		dbtx.Rollback()
		return err
	}
	return dbtx.Commit().Error
}

func (c *ChainIndexer) syncBlock(ctx context.Context, height int64) error {
	blk, err := c.cli.Block(ctx, &height)
	if err != nil {
		return err
	}
	res, err := c.cli.BlockResults(ctx, &height)
	if err != nil {
		return err
	}
	txs := make([][]byte, len(blk.Block.Txs))
	for i, t := range blk.Block.Txs {
		txs[i] = t
	}
	return c.indexBlock(height, txs, res)
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b, err := c.cli.Status(ctx)
			if err != nil {
				c.logger.Error("get status fail", "err", err)
				continue
			}
			for b.SyncInfo.LatestBlockHeight >= c.Height {
				if ctx.Err() != nil {
					return
				}
				if err = c.syncBlock(ctx, c.Height); err != nil {
					c.logger.Error("index block fail", "height", c.Height, "err", err)
					break
				}
				c.logger.Debug("indexed", "height", c.Height)
				c.Height++
			}
		}
	}
}

func (c *ChainIndexer) getCandidates(cycle *uint64, status string) ([]Candidate, error) {
	var res []Candidate
	q := c.db.Order("id desc")
	if cycle != nil {
		q = q.Where("cycle = ?", *cycle)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&res).Error
	return res, err
}

func (c *ChainIndexer) getCouncil() ([]Councilor, error) {
	var res []Councilor
	err := c.db.Where("active = ?", true).Order("member asc").Find(&res).Error
	return res, err
}

func (c *ChainIndexer) getElections(page int, pageSize int) ([]Election, uint64, error) {
	var res []Election
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&res).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Election{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

func (c *ChainIndexer) getPaymentsByMember(member uint64, page int, pageSize int) ([]RewardPayment, uint64, error) {
	var res []RewardPayment
	err := c.db.Where("member = ?", member).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&res).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&RewardPayment{}).Where("member = ?", member).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

func (c *ChainIndexer) getBudgetEntries(page int, pageSize int) ([]BudgetEntry, uint64, error) {
	var res []BudgetEntry
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&res).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&BudgetEntry{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return res, total, nil
}
