package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{"defaults", func(c *AppConfig) {}, false},
		{"no home", func(c *AppConfig) { c.Home = "" }, true},
		{"indexer defaults", func(c *AppConfig) { c.IndexerEnabled = true }, false},
		{"indexer without listen", func(c *AppConfig) {
			c.IndexerEnabled = true
			c.IndexerListen = ""
		}, true},
		{"indexer without interval", func(c *AppConfig) {
			c.IndexerEnabled = true
			c.IndexerInterval = 0
		}, true},
		{"disabled indexer ignores fields", func(c *AppConfig) { c.IndexerDB = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultAppConfig("/tmp/charity")
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIndexerDBPath(t *testing.T) {
	c := DefaultAppConfig("/srv/charity")
	assert.Equal(t, "/srv/charity/data/indexer.db", c.IndexerDBPath())
	c.IndexerDB = "/var/lib/indexer.db"
	assert.Equal(t, "/var/lib/indexer.db", c.IndexerDBPath())
}

func TestWriteConfigFileRoundTrip(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig(home)
	require.NoError(t, cfg.Validate())
	cfg.App.IndexerEnabled = true
	cfg.App.IndexerInterval = 3 * time.Second

	path := filepath.Join(home, "config", "config.toml")
	require.NoError(t, WriteConfigFile(path, cfg))
	dat, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(dat), "[instrumentation]"))
	assert.True(t, strings.Contains(string(dat), "[app]"))
	assert.True(t, strings.Contains(string(dat), `indexer_interval = "3s"`))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	loaded := DefaultConfig(home)
	require.NoError(t, v.Unmarshal(loaded))
	assert.True(t, loaded.App.IndexerEnabled)
	assert.Equal(t, 3*time.Second, loaded.App.IndexerInterval)
	assert.Equal(t, cfg.Consensus.TimeoutCommit, loaded.Consensus.TimeoutCommit)
	assert.Equal(t, "kv", loaded.TxIndex.Indexer)
}

func TestWriteConfigFileRejectsInvalid(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig(home)
	cfg.App.IndexerEnabled = true
	cfg.App.IndexerListen = ""

	path := filepath.Join(home, "nested", "config.toml")
	require.ErrorIs(t, WriteConfigFile(path, cfg), ErrInvalidConfig)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	cfg.App = nil
	_, err = RenderConfig(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWriteConfigFileCreatesDir(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "nested", "config.toml")
	require.NoError(t, WriteConfigFile(path, DefaultConfig(home)))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestInitializeOwner(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0o755))
	owner, err := InitializeOwner(home)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(owner, "0x"))

	info, err := os.Stat(OwnerKeyPath(home))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
