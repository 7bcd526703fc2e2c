package handler

import (
	"context"

	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/state"
	"github.com/calehh/charity-dao/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error)
}

// applyFunc runs one decoded tx against the dao as the tx sender.
type applyFunc func(dctx *dao.Context, btx *tx.Tx) error

// daoTxHandler adapts an applyFunc to TxHandler. DAO failures are reported
// through the result code; err is reserved for failures of the handler
// itself.
type daoTxHandler struct {
	logger cmtlog.Logger
	dao    *dao.DAO
	apply  applyFunc
}

func newDaoTxHandler(d *dao.DAO, logger cmtlog.Logger, apply applyFunc) daoTxHandler {
	return daoTxHandler{logger: logger, dao: d, apply: apply}
}

func (h *daoTxHandler) run(st *state.State, btx *tx.Tx) (events []abcitypes.Event, code uint32, log string) {
	dctx := dao.NewContext(st, btx.Sender, st.BlockTime())
	if err := h.apply(dctx, btx); err != nil {
		return nil, dao.Code(err), err.Error()
	}
	return dctx.Events(), dao.CodeOK, ""
}

// Check runs the tx on a throwaway copy of st.
func (h *daoTxHandler) Check(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: dao.CodeOK}
	_, code, log := h.run(st.Clone(), btx)
	if code != dao.CodeOK {
		h.logger.Info("CheckTx fail", "type", btx.Type, "code", code, "err", log)
		res.Code = code
		res.Log = log
	}
	return
}

// Process writes into st. Callers hand in a copy and keep it only when the
// result code is zero.
func (h *daoTxHandler) Process(ctx context.Context, st *state.State, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	events, code, log := h.run(st, btx)
	res = &abcitypes.ExecTxResult{Code: code, Log: log, Events: events}
	if code != dao.CodeOK {
		h.logger.Info("tx failed", "type", btx.Type, "sender", btx.Sender.Hex(), "code", code, "err", log)
	}
	return
}

// Register builds the handler table for every tx type.
func Register(d *dao.DAO, logger cmtlog.Logger) map[tx.TxType]TxHandler {
	members := NewMemberTxHandler(d, logger)
	proposals := NewProposalTxHandler(d, logger)
	projects := NewProjectTxHandler(d, logger)
	token := NewTokenTxHandler(d, logger)
	bank := NewSendTxHandler(d, logger)
	return map[tx.TxType]TxHandler{
		tx.TxTypeAddMember:            members,
		tx.TxTypeRemoveMember:         members,
		tx.TxTypeTransferAdmin:        members,
		tx.TxTypeVote:                 proposals,
		tx.TxTypeExecuteProposal:      proposals,
		tx.TxTypeRegisterProject:      projects,
		tx.TxTypeDonate:               projects,
		tx.TxTypeRequestFundsRelease:  projects,
		tx.TxTypeUpdateAuditMaterials: projects,
		tx.TxTypeReleaseFunds:         projects,
		tx.TxTypeClaimRefund:          projects,
		tx.TxTypeTokenTransfer:        token,
		tx.TxTypeTokenApprove:         token,
		tx.TxTypeTokenTransferFrom:    token,
		tx.TxTypeTokenMint:            token,
		tx.TxTypeGrantRole:            token,
		tx.TxTypeRevokeRole:           token,
		tx.TxTypeSend:                 bank,
	}
}
