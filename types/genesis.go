package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

const (
	ModuleName   = "charitydao"
	DefaultPower = 10
)

var ErrInvalidGenesis = errors.New("invalid genesis")

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc is the CometBFT genesis file. AppState carries the DAO genesis
// (params, admin, members, token and native allocations) as JSON.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// NewGenesisDoc builds a single validator genesis with appState marshalled
// into app_state.
func NewGenesisDoc(chainID string, pk crypto.PubKey, appState any) (*GenesisDoc, error) {
	dat, err := json.Marshal(appState)
	if err != nil {
		return nil, fmt.Errorf("marshal app state: %w", err)
	}
	return &GenesisDoc{
		GenesisTime:     time.Now().Round(0).UTC(),
		ChainID:         chainID,
		InitialHeight:   1,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		Validators: []GenesisValidator{
			{Address: pk.Address(), PubKey: pk, Power: DefaultPower, Name: ModuleName},
		},
		AppState: dat,
	}, nil
}

// UnmarshalAppState decodes app_state into v.
func (genDoc *GenesisDoc) UnmarshalAppState(v any) error {
	if len(genDoc.AppState) == 0 {
		return fmt.Errorf("%w: empty app_state", ErrInvalidGenesis)
	}
	if err := json.Unmarshal(genDoc.AppState, v); err != nil {
		return fmt.Errorf("%w: app_state: %v", ErrInvalidGenesis, err)
	}
	return nil
}

func (genDoc *GenesisDoc) ValidateAndComplete() error {
	if genDoc.ChainID == "" {
		return fmt.Errorf("%w: empty chain_id", ErrInvalidGenesis)
	}
	if genDoc.InitialHeight < 0 {
		return fmt.Errorf("%w: initial_height cannot be negative (got %v)", ErrInvalidGenesis, genDoc.InitialHeight)
	}
	if genDoc.InitialHeight == 0 {
		genDoc.InitialHeight = 1
	}
	if len(genDoc.Validators) == 0 {
		return fmt.Errorf("%w: no validators", ErrInvalidGenesis)
	}
	for i, v := range genDoc.Validators {
		if v.Power <= 0 {
			return fmt.Errorf("%w: validator %d has power %d", ErrInvalidGenesis, i, v.Power)
		}
	}
	if !json.Valid(genDoc.AppState) {
		return fmt.Errorf("%w: app_state is not json", ErrInvalidGenesis)
	}
	if genDoc.ConsensusParams == nil {
		genDoc.ConsensusParams = cmttypes.DefaultConsensusParams()
	}
	if genDoc.GenesisTime.IsZero() {
		genDoc.GenesisTime = time.Now().Round(0).UTC()
	}
	return nil
}

// ExportGenesisFile validates genesis and writes it to genFile.
func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	dat, err := cmtjson.MarshalIndent(genesis, "", "  ")
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(genFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(genFile, dat, 0o600)
}
