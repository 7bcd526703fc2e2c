package main

import (
	"encoding/hex"
	"fmt"
	"os"

	app_config "github.com/calehh/charity-dao/config"
	"github.com/calehh/charity-dao/crypto"
	"github.com/spf13/cobra"
)

type keygenArguments struct {
	Out string
}

var keygenArgs keygenArguments

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a secp256k1 key for signing DAO transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		if keygenArgs.Out != "" {
			if err = os.WriteFile(keygenArgs.Out, []byte(key.Hex()), 0600); err != nil {
				return err
			}
		} else {
			fmt.Printf("key:%s\n", key.Hex())
		}
		fmt.Printf("address:%s\n", key.Address().Hex())
		return nil
	},
}

var showValidatorCmd = &cobra.Command{
	Use:   "show-validator",
	Short: "Print the node's consensus public key and address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app_config.DefaultConfig(home())
		key, err := crypto.LoadValidatorKey(cfg.PrivValidatorKeyFile())
		if err != nil {
			return err
		}
		fmt.Printf("pk:%s\n", hex.EncodeToString(key.PubKey.Bytes()))
		fmt.Printf("address:%s\n", key.Address())
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVarP(&keygenArgs.Out, "out", "o", "", "write the key to this file instead of stdout")
}
