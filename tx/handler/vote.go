package handler

import (
	"github.com/calehh/council-app/council"
	"github.com/calehh/council-app/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Referendum calls are made by the signer account itself, root gets no
// special treatment.

func NewVoteTxHandler(logger cmtlog.Logger) TxHandler {
	return newTxHandler(logger, "voteTx", func(m *Modules, origin council.Origin, stx *tx.VoteTx) error {
		return m.Referendum.Vote(origin.Signer, stx.Commitment, stx.Stake)
	})
}

func NewRevealVoteTxHandler(logger cmtlog.Logger) TxHandler {
	return newTxHandler(logger, "revealVoteTx", func(m *Modules, origin council.Origin, stx *tx.RevealVoteTx) error {
		return m.Referendum.RevealVote(origin.Signer, stx.Salt, stx.Option)
	})
}

func NewReleaseVoteStakeTxHandler(logger cmtlog.Logger) TxHandler {
	return newTxHandler(logger, "releaseVoteStakeTx", func(m *Modules, origin council.Origin, stx *tx.ReleaseVoteStakeTx) error {
		return m.Referendum.ReleaseVoteStake(origin.Signer)
	})
}
