package handler

import (
	"fmt"

	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/tx"
	"github.com/calehh/charity-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ProposalTxHandler struct {
	daoTxHandler
}

func NewProposalTxHandler(d *dao.DAO, logger cmtlog.Logger) (h *ProposalTxHandler) {
	logger = logger.With("module", "proposalTx")
	h = &ProposalTxHandler{}
	h.daoTxHandler = newDaoTxHandler(d, logger, h.apply)
	return
}

func (h *ProposalTxHandler) apply(dctx *dao.Context, btx *tx.Tx) error {
	switch wtx := btx.Tx.(type) {
	case *tx.VoteTx:
		choice := types.VoteReject
		if wtx.Approve {
			choice = types.VoteApprove
		}
		return h.dao.Proposals.Vote(dctx, wtx.Proposal, choice)
	case *tx.ExecuteProposalTx:
		return h.dao.Proposals.Execute(dctx, wtx.Proposal)
	default:
		return fmt.Errorf("%w: %s", tx.ErrUnsupportedTxType, btx.Type)
	}
}
