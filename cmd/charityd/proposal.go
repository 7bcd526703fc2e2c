package main

import (
	"github.com/calehh/charity-dao/tx"
	"github.com/spf13/cobra"
)

type proposalArguments struct {
	txArguments
	Proposal uint64
	Reject   bool
}

var proposalArgs proposalArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Vote on and execute proposals",
}

var proposalVoteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast a weighted vote, approving unless --reject is set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&proposalArgs.txArguments, tx.TxTypeVote, &tx.VoteTx{
			Proposal: proposalArgs.Proposal,
			Approve:  !proposalArgs.Reject,
		})
	},
}

var proposalExecuteCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute a proposal once its voting period has ended",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&proposalArgs.txArguments, tx.TxTypeExecuteProposal, &tx.ExecuteProposalTx{Proposal: proposalArgs.Proposal})
	},
}

func init() {
	for _, c := range []*cobra.Command{proposalVoteCmd, proposalExecuteCmd} {
		txFlags(c, &proposalArgs.txArguments)
		c.Flags().Uint64VarP(&proposalArgs.Proposal, "proposal", "p", 0, "proposal id")
		_ = c.MarkFlagRequired("proposal")
		proposalCmd.AddCommand(c)
	}
	proposalVoteCmd.Flags().BoolVar(&proposalArgs.Reject, "reject", false, "vote against the proposal")
}
