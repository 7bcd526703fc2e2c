package handler

import (
	"fmt"

	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type MemberTxHandler struct {
	daoTxHandler
}

func NewMemberTxHandler(d *dao.DAO, logger cmtlog.Logger) (h *MemberTxHandler) {
	logger = logger.With("module", "memberTx")
	h = &MemberTxHandler{}
	h.daoTxHandler = newDaoTxHandler(d, logger, h.apply)
	return
}

func (h *MemberTxHandler) apply(dctx *dao.Context, btx *tx.Tx) error {
	switch wtx := btx.Tx.(type) {
	case *tx.AddMemberTx:
		return h.dao.Members.AddMember(dctx, wtx.Member)
	case *tx.RemoveMemberTx:
		return h.dao.Members.RemoveMember(dctx, wtx.Member)
	case *tx.TransferAdminTx:
		return h.dao.Members.TransferAdmin(dctx, wtx.Admin)
	default:
		return fmt.Errorf("%w: %s", tx.ErrUnsupportedTxType, btx.Type)
	}
}
