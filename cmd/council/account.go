package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/calehh/council-app/agent"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

const (
	DefaultPrivValKeyName   = "priv_validator_key.json"
	DefaultPrivValStateName = "priv_validator_state.json"
)

type accountArguments struct {
	Url     string
	Address string
	Index   uint64
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show an account by index or address",
	RunE:  accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address")
	accountCmd.Flags().Uint64VarP(&accountArgs.Index, "index", "i", 0, "account index")
	showCmd.Flags().StringVarP(&showArgs.Home, "homedir", "d", "data", "home dir")
	accountCmd.AddCommand(showCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	cli, err := http.New(accountArgs.Url, "/websocket")
	if err != nil {
		return err
	}
	act, err := agent.QueryAccount(context.Background(), cli, accountArgs.Index, accountArgs.Address)
	if err != nil {
		return err
	}
	fmt.Printf("index:%v nonce:%v pk:%x balance:%v member:%v bound:%v addr:%v\n",
		act.Index, act.Nonce, act.PubKey, act.Balance, act.Member, act.BoundMember, act.Address())
	for _, l := range act.Locks {
		fmt.Printf("  lock %v: %v\n", l.ID, l.Amount)
	}
	return nil
}

type showArguments struct {
	Home string
}

var showArgs showArguments

var showCmd = &cobra.Command{
	Use:   "pk",
	Short: "Print the validator public key of a home dir",
	RunE:  showRun,
}

func showRun(cmd *cobra.Command, args []string) error {
	filePV := privval.LoadFilePV(
		filepath.Join(showArgs.Home, "config", DefaultPrivValKeyName),
		filepath.Join(showArgs.Home, "data", DefaultPrivValStateName),
	)
	pubKey, err := filePV.GetPubKey()
	if err != nil {
		return fmt.Errorf("get public key: %w", err)
	}
	fmt.Printf("pk:%s\n", hex.EncodeToString(pubKey.Bytes()))
	return nil
}
