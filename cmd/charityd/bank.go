package main

import (
	"github.com/calehh/charity-dao/tx"
	"github.com/spf13/cobra"
)

type sendArguments struct {
	txArguments
	To     string
	Amount string
}

var sendArgs sendArguments

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send native value to an address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseAddress("recipient", sendArgs.To)
		if err != nil {
			return err
		}
		amount, err := parseAmount(sendArgs.Amount)
		if err != nil {
			return err
		}
		return sendTx(&sendArgs.txArguments, tx.TxTypeSend, &tx.SendTx{To: to, Amount: amount})
	},
}

func init() {
	txFlags(sendCmd, &sendArgs.txArguments)
	sendCmd.Flags().StringVar(&sendArgs.To, "to", "", "recipient address")
	sendCmd.Flags().StringVar(&sendArgs.Amount, "amount", "", "amount in base units")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
}
