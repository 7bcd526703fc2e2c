package main

import (
	"github.com/calehh/charity-dao/tx"
	"github.com/spf13/cobra"
)

type memberArguments struct {
	txArguments
	Address string
}

var memberArgs memberArguments

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage DAO membership, admin only",
}

var memberAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a member",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress("member", memberArgs.Address)
		if err != nil {
			return err
		}
		return sendTx(&memberArgs.txArguments, tx.TxTypeAddMember, &tx.AddMemberTx{Member: addr})
	},
}

var memberRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a member",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress("member", memberArgs.Address)
		if err != nil {
			return err
		}
		return sendTx(&memberArgs.txArguments, tx.TxTypeRemoveMember, &tx.RemoveMemberTx{Member: addr})
	},
}

var memberTransferAdminCmd = &cobra.Command{
	Use:   "transfer-admin",
	Short: "Hand the admin role to another member",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress("admin", memberArgs.Address)
		if err != nil {
			return err
		}
		return sendTx(&memberArgs.txArguments, tx.TxTypeTransferAdmin, &tx.TransferAdminTx{Admin: addr})
	},
}

func init() {
	for _, c := range []*cobra.Command{memberAddCmd, memberRemoveCmd, memberTransferAdminCmd} {
		txFlags(c, &memberArgs.txArguments)
		c.Flags().StringVarP(&memberArgs.Address, "address", "a", "", "member address")
		_ = c.MarkFlagRequired("address")
		memberCmd.AddCommand(c)
	}
}
