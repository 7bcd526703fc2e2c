package handler

import (
	"fmt"

	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type SendTxHandler struct {
	daoTxHandler
}

func NewSendTxHandler(d *dao.DAO, logger cmtlog.Logger) (h *SendTxHandler) {
	logger = logger.With("module", "sendTx")
	h = &SendTxHandler{}
	h.daoTxHandler = newDaoTxHandler(d, logger, h.apply)
	return
}

func (h *SendTxHandler) apply(dctx *dao.Context, btx *tx.Tx) error {
	wtx, ok := btx.Tx.(*tx.SendTx)
	if !ok {
		return fmt.Errorf("%w: %s", tx.ErrUnsupportedTxType, btx.Type)
	}
	return h.dao.Bank.Send(dctx, wtx.To, wtx.Amount)
}
