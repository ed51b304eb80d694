package handler

import (
	"github.com/calehh/council-app/council"
	"github.com/calehh/council-app/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

func NewSetBudgetTxHandler(logger cmtlog.Logger) TxHandler {
	return newTxHandler(logger, "setBudgetTx", func(m *Modules, origin council.Origin, stx *tx.SetBudgetTx) error {
		return m.Council.SetBudget(origin, stx.Amount)
	})
}

func NewPlanBudgetRefillTxHandler(logger cmtlog.Logger) TxHandler {
	return newTxHandler(logger, "planBudgetRefillTx", func(m *Modules, origin council.Origin, stx *tx.PlanBudgetRefillTx) error {
		return m.Council.PlanBudgetRefill(origin, stx.Block)
	})
}
