package handler

import (
	"fmt"

	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type TokenTxHandler struct {
	daoTxHandler
}

func NewTokenTxHandler(d *dao.DAO, logger cmtlog.Logger) (h *TokenTxHandler) {
	logger = logger.With("module", "tokenTx")
	h = &TokenTxHandler{}
	h.daoTxHandler = newDaoTxHandler(d, logger, h.apply)
	return
}

func (h *TokenTxHandler) apply(dctx *dao.Context, btx *tx.Tx) error {
	token := h.dao.Token
	switch wtx := btx.Tx.(type) {
	case *tx.TokenTransferTx:
		return token.Transfer(dctx, wtx.To, wtx.Amount)
	case *tx.TokenApproveTx:
		return token.Approve(dctx, wtx.Spender, wtx.Amount)
	case *tx.TokenTransferFromTx:
		return token.TransferFrom(dctx, wtx.From, wtx.To, wtx.Amount)
	case *tx.TokenMintTx:
		return token.Mint(dctx, wtx.To, wtx.Amount)
	case *tx.RoleTx:
		if btx.Type == tx.TxTypeRevokeRole {
			return token.RevokeRole(dctx, wtx.Role, wtx.Account)
		}
		return token.GrantRole(dctx, wtx.Role, wtx.Account)
	default:
		return fmt.Errorf("%w: %s", tx.ErrUnsupportedTxType, btx.Type)
	}
}
