package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	DefaultHome          = "$HOME/.charityd"
	DefaultIndexerListen = "127.0.0.1:8081"
	OwnerKeyFile         = "owner_priv_key"
)

var ErrInvalidConfig = errors.New("invalid config")

// AppConfig is the [app] section of config.toml.
type AppConfig struct {
	Home string `mapstructure:"-"`

	IndexerEnabled  bool          `mapstructure:"indexer_enabled"`
	IndexerListen   string        `mapstructure:"indexer_listen"`
	IndexerDB       string        `mapstructure:"indexer_db"`
	IndexerInterval time.Duration `mapstructure:"indexer_interval"`
}

func DefaultAppConfig(home string) *AppConfig {
	return &AppConfig{
		Home:            home,
		IndexerEnabled:  false,
		IndexerListen:   DefaultIndexerListen,
		IndexerDB:       "data/indexer.db",
		IndexerInterval: time.Second,
	}
}

func (c *AppConfig) Validate() error {
	if c.Home == "" {
		return fmt.Errorf("%w: home is empty", ErrInvalidConfig)
	}
	if !c.IndexerEnabled {
		return nil
	}
	if c.IndexerListen == "" || c.IndexerDB == "" {
		return fmt.Errorf("%w: indexer needs listen address and db path", ErrInvalidConfig)
	}
	if c.IndexerInterval <= 0 {
		return fmt.Errorf("%w: indexer interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// IndexerDBPath resolves IndexerDB against the home directory.
func (c *AppConfig) IndexerDBPath() string {
	if filepath.IsAbs(c.IndexerDB) {
		return c.IndexerDB
	}
	return filepath.Join(c.Home, c.IndexerDB)
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *AppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv(DefaultHome)
	}
	config := &Config{
		DefaultCometConfig(),
		DefaultAppConfig(home),
	}
	config.SetRoot(home)
	_ = os.MkdirAll(filepath.Join(home, "config"), 0755)
	return config
}

func (c *Config) Validate() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return c.App.Validate()
}

func OwnerKeyPath(home string) string {
	return filepath.Join(home, "config", OwnerKeyFile)
}

// InitializeOwner writes a fresh secp256k1 key used to sign DAO transactions
// and returns its address.
func InitializeOwner(home string) (owner string, err error) {
	priv, err := eth_crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	key := hex.EncodeToString(eth_crypto.FromECDSA(priv))
	if err = os.WriteFile(OwnerKeyPath(home), []byte(key), 0600); err != nil {
		return "", fmt.Errorf("write owner key: %w", err)
	}
	owner = eth_crypto.PubkeyToAddress(priv.PublicKey).Hex()
	return
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
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	cometConfig.TxIndex.Indexer = "kv"
	return cometConfig
}
