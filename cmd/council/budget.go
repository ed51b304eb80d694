package main

import (
	"github.com/calehh/council-app/tx"
	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Council budget administration, root account only",
}

type budgetArguments struct {
	txArguments
	Amount uint64
	Block  uint64
}

var budgetArgs budgetArguments

var setBudgetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the council budget balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&budgetArgs.txArguments, tx.CouncilTxTypeSetBudget, &tx.SetBudgetTx{Amount: budgetArgs.Amount})
	},
}

var planRefillCmd = &cobra.Command{
	Use:   "plan",
	Short: "Move the next budget refill to a future block",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&budgetArgs.txArguments, tx.CouncilTxTypePlanBudgetRefill, &tx.PlanBudgetRefillTx{Block: budgetArgs.Block})
	},
}

func init() {
	txFlags(setBudgetCmd, &budgetArgs.txArguments)
	setBudgetCmd.Flags().Uint64Var(&budgetArgs.Amount, "amount", 0, "new budget balance")
	txFlags(planRefillCmd, &budgetArgs.txArguments)
	planRefillCmd.Flags().Uint64Var(&budgetArgs.Block, "block", 0, "refill block height")
	_ = planRefillCmd.MarkFlagRequired("block")
	budgetCmd.AddCommand(setBudgetCmd, planRefillCmd)
}
