package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calehh/council-app/agent"
	"github.com/calehh/council-app/referendum"
	"github.com/calehh/council-app/tx"
	"github.com/calehh/council-app/types"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Commit-reveal voting in council elections",
}

type voteArguments struct {
	txArguments
	Option uint64
	Salt   string
	Stake  uint64
}

var voteArgs voteArguments

var castCmd = &cobra.Command{
	Use:   "cast",
	Short: "Commit a vote for a candidate, the salt is printed for the reveal",
	RunE:  castRun,
}

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Reveal a committed vote",
	RunE: func(cmd *cobra.Command, args []string) error {
		salt, err := hex.DecodeString(voteArgs.Salt)
		if err != nil {
			return fmt.Errorf("invalid salt: %w", err)
		}
		return sendTx(&voteArgs.txArguments, tx.CouncilTxTypeRevealVote, &tx.RevealVoteTx{
			Salt:   salt,
			Option: voteArgs.Option,
		})
	},
}

var releaseVoteCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the stake of a past vote",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&voteArgs.txArguments, tx.CouncilTxTypeReleaseVoteStake, &tx.ReleaseVoteStakeTx{})
	},
}

func init() {
	txFlags(castCmd, &voteArgs.txArguments)
	castCmd.Flags().Uint64Var(&voteArgs.Option, "option", 0, "candidate membership id")
	castCmd.Flags().StringVar(&voteArgs.Salt, "salt", "", "hex salt, random when empty")
	castCmd.Flags().Uint64Var(&voteArgs.Stake, "stake", 0, "vote stake")
	_ = castCmd.MarkFlagRequired("option")

	txFlags(revealCmd, &voteArgs.txArguments)
	revealCmd.Flags().Uint64Var(&voteArgs.Option, "option", 0, "candidate membership id")
	revealCmd.Flags().StringVar(&voteArgs.Salt, "salt", "", "hex salt used for the commitment")
	_ = revealCmd.MarkFlagRequired("option")
	_ = revealCmd.MarkFlagRequired("salt")

	txFlags(releaseVoteCmd, &voteArgs.txArguments)
	voteCmd.AddCommand(castCmd, revealCmd, releaseVoteCmd)
}

func castRun(cmd *cobra.Command, args []string) error {
	var salt []byte
	var err error
	if voteArgs.Salt == "" {
		salt = make([]byte, 32)
		if _, err = rand.Read(salt); err != nil {
			return err
		}
	} else if salt, err = hex.DecodeString(voteArgs.Salt); err != nil {
		return fmt.Errorf("invalid salt: %w", err)
	}
	cli, err := http.New(voteArgs.Url, "/websocket")
	if err != nil {
		return err
	}
	dat, err := agent.Query(context.Background(), cli, "/referendum/stage/", nil)
	if err != nil {
		return err
	}
	var stage types.ReferendumStage
	if err = json.Unmarshal(dat, &stage); err != nil {
		return err
	}
	if stage.Kind != types.ReferendumVoting {
		return errors.New("referendum is not in the voting stage")
	}
	commitment := referendum.Commitment(voteArgs.Index, salt, stage.CycleID, voteArgs.Option)
	fmt.Printf("cycle:%v salt:%x\n", stage.CycleID, salt)
	return sendTx(&voteArgs.txArguments, tx.CouncilTxTypeVote, &tx.VoteTx{
		Commitment: commitment,
		Stake:      voteArgs.Stake,
	})
}
