package main

import (
	"github.com/calehh/council-app/tx"
	"github.com/spf13/cobra"
)

var candidacyCmd = &cobra.Command{
	Use:   "candidacy",
	Short: "Council candidacy transactions",
}

type candidacyArguments struct {
	txArguments
	Member  uint64
	Staking uint64
	Reward  uint64
	Stake   uint64
	Note    string
}

var candidacyArgs candidacyArguments

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Announce a candidacy for the current announcing period",
	RunE: func(cmd *cobra.Command, args []string) error {
		staking := candidacyArgs.Staking
		if staking == 0 {
			staking = candidacyArgs.Member
		}
		reward := candidacyArgs.Reward
		if reward == 0 {
			reward = candidacyArgs.Member
		}
		return sendTx(&candidacyArgs.txArguments, tx.CouncilTxTypeAnnounceCandidacy, &tx.AnnounceCandidacyTx{
			Member:         candidacyArgs.Member,
			StakingAccount: staking,
			RewardAccount:  reward,
			Stake:          candidacyArgs.Stake,
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw a candidacy during the announcing period",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&candidacyArgs.txArguments, tx.CouncilTxTypeWithdrawCandidacy, &tx.WithdrawCandidacyTx{
			Member: candidacyArgs.Member,
		})
	},
}

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Attach a note to a candidacy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&candidacyArgs.txArguments, tx.CouncilTxTypeSetCandidacyNote, &tx.SetCandidacyNoteTx{
			Member: candidacyArgs.Member,
			Note:   []byte(candidacyArgs.Note),
		})
	},
}

var releaseCandidacyCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the stake of a lost candidacy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&candidacyArgs.txArguments, tx.CouncilTxTypeReleaseCandidacyStake, &tx.ReleaseCandidacyStakeTx{
			Member: candidacyArgs.Member,
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{announceCmd, withdrawCmd, noteCmd, releaseCandidacyCmd} {
		txFlags(c, &candidacyArgs.txArguments)
		c.Flags().Uint64VarP(&candidacyArgs.Member, "member", "m", 0, "membership id")
		_ = c.MarkFlagRequired("member")
		candidacyCmd.AddCommand(c)
	}
	announceCmd.Flags().Uint64Var(&candidacyArgs.Staking, "staking", 0, "staking account, the member account when 0")
	announceCmd.Flags().Uint64Var(&candidacyArgs.Reward, "reward", 0, "reward account, the member account when 0")
	announceCmd.Flags().Uint64Var(&candidacyArgs.Stake, "stake", 0, "candidacy stake")
	noteCmd.Flags().StringVar(&candidacyArgs.Note, "note", "", "note text")
}
