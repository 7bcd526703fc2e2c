package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "charityd rpc url")
}

func parseAddress(name, v string) (common.Address, error) {
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid %s address %q", name, v)
	}
	return common.HexToAddress(v), nil
}

func parseAmount(v string) (*uint256.Int, error) {
	n, err := uint256.FromDecimal(v)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", v, err)
	}
	return n, nil
}
