package main

import (
	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/tx"
	"github.com/spf13/cobra"
)

type tokenArguments struct {
	txArguments
	From    string
	To      string
	Spender string
	Account string
	Role    string
	Amount  string
}

var tokenArgs tokenArguments

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Move governance tokens and manage token roles",
}

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer tokens from the sender",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseAddress("recipient", tokenArgs.To)
		if err != nil {
			return err
		}
		amount, err := parseAmount(tokenArgs.Amount)
		if err != nil {
			return err
		}
		return sendTx(&tokenArgs.txArguments, tx.TxTypeTokenTransfer, &tx.TokenTransferTx{To: to, Amount: amount})
	},
}

var tokenApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Set the allowance of a spender",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spender, err := parseAddress("spender", tokenArgs.Spender)
		if err != nil {
			return err
		}
		amount, err := parseAmount(tokenArgs.Amount)
		if err != nil {
			return err
		}
		return sendTx(&tokenArgs.txArguments, tx.TxTypeTokenApprove, &tx.TokenApproveTx{Spender: spender, Amount: amount})
	},
}

var tokenTransferFromCmd = &cobra.Command{
	Use:   "transfer-from",
	Short: "Spend an allowance granted by another holder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseAddress("owner", tokenArgs.From)
		if err != nil {
			return err
		}
		to, err := parseAddress("recipient", tokenArgs.To)
		if err != nil {
			return err
		}
		amount, err := parseAmount(tokenArgs.Amount)
		if err != nil {
			return err
		}
		return sendTx(&tokenArgs.txArguments, tx.TxTypeTokenTransferFrom, &tx.TokenTransferFromTx{From: from, To: to, Amount: amount})
	},
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint tokens, minter role only",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseAddress("recipient", tokenArgs.To)
		if err != nil {
			return err
		}
		amount, err := parseAmount(tokenArgs.Amount)
		if err != nil {
			return err
		}
		return sendTx(&tokenArgs.txArguments, tx.TxTypeTokenMint, &tx.TokenMintTx{To: to, Amount: amount})
	},
}

func roleCmd(use, short string, tp tx.TxType) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAddress("account", tokenArgs.Account)
			if err != nil {
				return err
			}
			return sendTx(&tokenArgs.txArguments, tp, &tx.RoleTx{Role: tokenArgs.Role, Account: account})
		},
	}
}

var (
	tokenGrantRoleCmd  = roleCmd("grant-role", "Grant a token role, token admin only", tx.TxTypeGrantRole)
	tokenRevokeRoleCmd = roleCmd("revoke-role", "Revoke a token role, token admin only", tx.TxTypeRevokeRole)
)

func init() {
	all := []*cobra.Command{tokenTransferCmd, tokenApproveCmd, tokenTransferFromCmd, tokenMintCmd, tokenGrantRoleCmd, tokenRevokeRoleCmd}
	for _, c := range all {
		txFlags(c, &tokenArgs.txArguments)
		tokenCmd.AddCommand(c)
	}
	for _, c := range all[:4] {
		c.Flags().StringVar(&tokenArgs.Amount, "amount", "", "amount in base units")
		_ = c.MarkFlagRequired("amount")
	}
	for _, c := range []*cobra.Command{tokenTransferCmd, tokenTransferFromCmd, tokenMintCmd} {
		c.Flags().StringVar(&tokenArgs.To, "to", "", "recipient address")
		_ = c.MarkFlagRequired("to")
	}
	tokenApproveCmd.Flags().StringVar(&tokenArgs.Spender, "spender", "", "spender address")
	tokenTransferFromCmd.Flags().StringVar(&tokenArgs.From, "from", "", "token owner address")
	for _, c := range all[4:] {
		c.Flags().StringVarP(&tokenArgs.Account, "account", "a", "", "account address")
		c.Flags().StringVar(&tokenArgs.Role, "role", dao.RoleMinter, "role name")
		_ = c.MarkFlagRequired("account")
	}
}
