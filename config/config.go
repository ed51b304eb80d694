package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

// AppConfig is the [app] section of config.toml. Consensus parameters of
// the council live in genesis, not here.
type AppConfig struct {
	Home          string `mapstructure:"-"`
	TimeoutCommit uint64 `mapstructure:"-"`

	IndexerEnabled bool          `mapstructure:"indexer_enabled"`
	IndexerDB      string        `mapstructure:"indexer_db"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	ServiceAddr    string        `mapstructure:"service_laddr"`
	NotesDir       string        `mapstructure:"notes_dir"`
}

func DefaultAppConfig(home string) *AppConfig {
	return &AppConfig{
		Home:           home,
		IndexerEnabled: true,
		IndexerDB:      "indexer.db",
		PollInterval:   time.Second * 2,
		ServiceAddr:    "127.0.0.1:8088",
		NotesDir:       "notes",
	}
}

// IndexerDBPath and NotesPath resolve relative paths against the home dir.
func (c *AppConfig) IndexerDBPath() string {
	return rootify(c.IndexerDB, c.Home)
}

func (c *AppConfig) NotesPath() string {
	return rootify(c.NotesDir, c.Home)
}

func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *AppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = DefaultHome()
	}
	config := &Config{
		DefaultCometConfig(),
		DefaultAppConfig(home),
	}
	config.RootDir = home
	_ = os.MkdirAll(home+"/config", 0755)
	return config
}

func DefaultHome() string {
	return os.ExpandEnv("$HOME/.council")
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 10
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
