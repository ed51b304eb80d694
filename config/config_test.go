package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadConfig(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig(home)
	cfg.Moniker = "council-node"
	cfg.App.ServiceAddr = "0.0.0.0:9000"
	cfg.App.PollInterval = 5 * time.Second
	cfg.App.IndexerEnabled = false

	file := filepath.Join(home, "config", "config.toml")
	require.NoError(t, WriteConfigFile(file, cfg))

	v := viper.New()
	v.SetConfigFile(file)
	require.NoError(t, v.ReadInConfig())
	got := &Config{Config: DefaultCometConfig(), App: DefaultAppConfig(home)}
	require.NoError(t, v.Unmarshal(got))

	assert.Equal(t, "council-node", got.Moniker)
	assert.Equal(t, "0.0.0.0:9000", got.App.ServiceAddr)
	assert.Equal(t, 5*time.Second, got.App.PollInterval)
	assert.False(t, got.App.IndexerEnabled)
	assert.Equal(t, home, got.App.Home)
	assert.Equal(t, 1200*time.Millisecond, got.Consensus.TimeoutCommit)
}

func TestWriteConfigCreatesDir(t *testing.T) {
	home := t.TempDir()
	file := filepath.Join(home, "nested", "config", "config.toml")
	require.NoError(t, WriteConfigFile(file, DefaultConfig(home)))

	dat, err := RenderConfig(DefaultConfig(home))
	require.NoError(t, err)
	assert.Contains(t, string(dat), "[app]")

	// a file where the directory should be
	blocker := filepath.Join(home, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	assert.Error(t, WriteConfigFile(filepath.Join(blocker, "config.toml"), DefaultConfig(home)))
}

func TestAppPaths(t *testing.T) {
	c := DefaultAppConfig("/var/council")
	assert.Equal(t, "/var/council/indexer.db", c.IndexerDBPath())
	assert.Equal(t, "/var/council/notes", c.NotesPath())

	c.NotesDir = "/data/notes"
	assert.Equal(t, "/data/notes", c.NotesPath())
}
