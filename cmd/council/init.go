package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	app_config "github.com/calehh/council-app/config"
	"github.com/calehh/council-app/types"
	"github.com/cometbft/cometbft/privval"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

const (
	flagBalance = "balance"
	flagMembers = "members"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long: `Initialize the node's configuration files. The validator key becomes the
root account of the council, --members extra member accounts are generated
under config/keys.`,
	Args: cobra.ExactArgs(0),
	RunE: initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(types.FlagHome, "", "config")
	initCmd.Flags().Uint64(flagBalance, 1_000_000, "genesis balance of every account")
	initCmd.Flags().Int(flagMembers, 0, "number of extra member accounts")
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	balance, _ := cmd.Flags().GetUint64(flagBalance)
	members, _ := cmd.Flags().GetInt(flagMembers)

	if chainID == "" {
		chainID = fmt.Sprintf("council-chain-%v", rand.Uint64())
	}
	appConfig := app_config.DefaultConfig(home)

	genFile := appConfig.GenesisFile()
	if _, err := os.Stat(genFile); err == nil && !overwrite {
		return fmt.Errorf("genesis file %v exists, use --%v", genFile, types.FlagOverwrite)
	}

	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	vals := []types.GenesisValidator{{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower}}

	appGenesis := types.DefaultAppGenesis()
	appGenesis.Root = pk.Bytes()
	appGenesis.Accounts = append(appGenesis.Accounts, types.GenesisAccount{
		PubKey:  pk.Bytes(),
		Balance: balance,
		Member:  true,
	})
	keyDir := filepath.Join(appConfig.RootDir, "config", "keys")
	if members > 0 {
		if err = os.MkdirAll(keyDir, 0o700); err != nil {
			return err
		}
	}
	for i := 0; i < members; i++ {
		pv := privval.GenFilePV(
			filepath.Join(keyDir, fmt.Sprintf("member-%d.json", i)),
			filepath.Join(keyDir, fmt.Sprintf("member-%d-state.json", i)),
		)
		pv.Save()
		appGenesis.Accounts = append(appGenesis.Accounts, types.GenesisAccount{
			PubKey:  pv.Key.PubKey.Bytes(),
			Balance: balance,
			Member:  true,
		})
	}
	if err = appGenesis.Validate(); err != nil {
		return err
	}
	appState, err := json.MarshalIndent(appGenesis, "", "  ")
	if err != nil {
		return err
	}

	genDoc := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators:      vals,
		AppState:        appState,
	}
	if err = types.ExportGenesisFile(genDoc, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file %v", err)
	}
	if err = app_config.WriteConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"), appConfig); err != nil {
		return fmt.Errorf("failed to write config file %v", err)
	}
	return displayInfo(printInfo{ChainID: chainID, NodeID: nodeID, AppMessage: appState})
}
