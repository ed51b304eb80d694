package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

// GenesisAccount is an account funded at genesis. BoundMember links a
// staking account to the membership it may stake for.
type GenesisAccount struct {
	PubKey      cmtbytes.HexBytes `json:"pub_key"`
	Balance     uint64            `json:"balance"`
	Member      bool              `json:"member"`
	BoundMember uint64            `json:"bound_member,omitempty"`
}

// AppGenesis is the app_state section of the genesis file.
type AppGenesis struct {
	Accounts   []GenesisAccount  `json:"accounts"`
	Root       cmtbytes.HexBytes `json:"root"`
	Council    CouncilParams     `json:"council"`
	Referendum ReferendumParams  `json:"referendum"`
}

func DefaultAppGenesis() *AppGenesis {
	return &AppGenesis{
		Accounts:   []GenesisAccount{},
		Council:    DefaultCouncilParams(),
		Referendum: DefaultReferendumParams(),
	}
}

func (g *AppGenesis) Validate() error {
	if len(g.Root) == 0 {
		return errors.New("genesis app_state must name a root account")
	}
	seen := make(map[string]bool, len(g.Accounts))
	for _, a := range g.Accounts {
		k := a.PubKey.String()
		if seen[k] {
			return fmt.Errorf("duplicate genesis account %v", k)
		}
		seen[k] = true
	}
	if !seen[g.Root.String()] {
		return errors.New("root account is not a genesis account")
	}
	return nil
}

const CouncilModuleName = "council"
const DefaultPower = 1000

const (
	FlagOverwrite = "overwrite"
	FlagChainID   = "chain-id"
	FlagHome      = "home"
)
