package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	app_config "github.com/calehh/charity-dao/config"
	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	Owner      string          `json:"owner" yaml:"owner"`
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
	Short: "Initialize private validator, p2p, genesis, owner key and application configuration files",
	Long: `Initialize the validator's and node's configuration files. A fresh owner
key becomes the DAO admin, its first member and the token admin.`,
	Args: cobra.NoArgs,
	RunE: initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().StringSlice(types.FlagMembers, nil, "additional genesis member addresses")
	initCmd.Flags().Uint64(types.FlagQuorum, dao.DefaultRequiredQuorum, "distinct voters needed to decide a proposal")
	initCmd.Flags().Uint64(types.FlagMajority, dao.DefaultRequiredMajority, "approving share of the weighted total, in percent")
	initCmd.Flags().Uint64(types.FlagPeriod, dao.DefaultVotingPeriod, "voting period in seconds")
	initCmd.Flags().String(types.FlagBalance, "1000000000000000000000000", "native balance allocated to the owner")
}

func buildGenesis(cmd *cobra.Command, owner common.Address) (*dao.Genesis, error) {
	gen := dao.DefaultGenesis(owner)
	members, _ := cmd.Flags().GetStringSlice(types.FlagMembers)
	for _, m := range members {
		if !common.IsHexAddress(m) {
			return nil, fmt.Errorf("invalid member address %q", m)
		}
		gen.Members = append(gen.Members, common.HexToAddress(m))
	}
	gen.Params.RequiredQuorum, _ = cmd.Flags().GetUint64(types.FlagQuorum)
	gen.Params.RequiredMajority, _ = cmd.Flags().GetUint64(types.FlagMajority)
	gen.Params.VotingPeriod, _ = cmd.Flags().GetUint64(types.FlagPeriod)
	balance, _ := cmd.Flags().GetString(types.FlagBalance)
	amount, err := uint256.FromDecimal(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", balance, err)
	}
	if !amount.IsZero() {
		gen.Balances = append(gen.Balances, dao.Allocation{Address: owner, Amount: amount})
	}
	return gen, gen.Validate()
}

func initRun(cmd *cobra.Command, args []string) error {
	homeDir := home()
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	if chainID == "" {
		chainID = fmt.Sprintf("charity-chain-%v", rand.Uint64())
	}

	appConfig := app_config.DefaultConfig(homeDir)
	genFile := appConfig.GenesisFile()
	if _, err := os.Stat(genFile); err == nil && !overwrite {
		return fmt.Errorf("genesis file %s already exists, use --%s", genFile, types.FlagOverwrite)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	owner, err := app_config.InitializeOwner(homeDir)
	if err != nil {
		return err
	}
	gen, err := buildGenesis(cmd, common.HexToAddress(owner))
	if err != nil {
		return err
	}
	appGenesis, err := types.NewGenesisDoc(chainID, pk, gen)
	if err != nil {
		return err
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file: %w", err)
	}
	if err = app_config.WriteConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"), appConfig); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return displayInfo(printInfo{
		Moniker:    appConfig.Moniker,
		ChainID:    chainID,
		NodeID:     nodeID,
		Owner:      owner,
		AppMessage: appGenesis.AppState,
	})
}
