package handler

import (
	"github.com/calehh/council-app/council"
	"github.com/calehh/council-app/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

func NewAnnounceCandidacyTxHandler(logger cmtlog.Logger) TxHandler {
	return newTxHandler(logger, "announceCandidacyTx", func(m *Modules, origin council.Origin, stx *tx.AnnounceCandidacyTx) error {
		return m.Council.AnnounceCandidacy(origin, stx.Member, stx.StakingAccount, stx.RewardAccount, stx.Stake)
	})
}

func NewWithdrawCandidacyTxHandler(logger cmtlog.Logger) TxHandler {
	return newTxHandler(logger, "withdrawCandidacyTx", func(m *Modules, origin council.Origin, stx *tx.WithdrawCandidacyTx) error {
		return m.Council.WithdrawCandidacy(origin, stx.Member)
	})
}

func NewSetCandidacyNoteTxHandler(logger cmtlog.Logger) TxHandler {
	return newTxHandler(logger, "setCandidacyNoteTx", func(m *Modules, origin council.Origin, stx *tx.SetCandidacyNoteTx) error {
		return m.Council.SetCandidacyNote(origin, stx.Member, stx.Note)
	})
}

func NewReleaseCandidacyStakeTxHandler(logger cmtlog.Logger) TxHandler {
	return newTxHandler(logger, "releaseCandidacyStakeTx", func(m *Modules, origin council.Origin, stx *tx.ReleaseCandidacyStakeTx) error {
		return m.Council.ReleaseCandidacyStake(origin, stx.Member)
	})
}
