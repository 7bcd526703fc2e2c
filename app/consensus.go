package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/state"
	"github.com/calehh/charity-dao/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrDAONotInitialized   = errors.New("dao not initialized")
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
	ErrNoPendingState      = errors.New("no pending state to commit")
)

func (app *App) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.Tx, err error) {
	btx, err = tx.UnmarshalTx(txDat)
	if err != nil {
		return
	}
	_, err = st.Verify(btx, allowNonceGap)
	return
}

// CheckTx verifies signature and nonce against the committed state. The DAO
// call is dry-run only for the sender's next nonce; later nonces may depend
// on txs still in the mempool.
func (app *App) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: dao.CodeOK}
	if app.dao == nil {
		res.Code = dao.CodeInternal
		res.Log = ErrDAONotInitialized.Error()
		return
	}
	st := app.db.State()
	btx, err1 := app.parseTx(st, check.Tx, true)
	if err1 != nil {
		app.logger.Info("parse tx fail", "err", err1)
		res.Code = dao.CodeInvalidTx
		res.Log = err1.Error()
		return
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res.Code = dao.CodeInvalidTx
		res.Log = tx.ErrUnsupportedTxType.Error()
		return
	}
	acnt, err1 := st.GetAccount(btx.Sender)
	if err1 != nil {
		res.Code = dao.CodeInternal
		res.Log = err1.Error()
		return
	}
	if acnt.Nonce != btx.Nonce {
		return
	}
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: dao.CodeInternal, Log: err.Error()}
		err = nil
	}
	return
}

// PrepareProposal keeps the txs that decode and verify in order. A tx whose
// DAO call fails stays in the block: it still consumes the sender nonce.
func (app *App) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.db.NewState()
	st.SetBlockTime(proposal.Time)
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		btx, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Info("drop tx, verify fail", "err", err)
			continue
		}
		if _, err = app.apply(ctx, st, btx); err != nil {
			app.logger.Error("drop tx, apply fail", "type", btx.Type, "err", err)
			continue
		}
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *App) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	st := app.db.NewState()
	st.SetBlockTime(proposal.Time)
	if _, err = app.process(ctx, st, proposal.Txs, false); err != nil {
		app.logger.Error("process fail", "err", err)
		return res, nil
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *App) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	st := app.db.NewState()
	if uint64(req.Height) != st.Height() {
		app.logger.Error("state height unmatched", "block", req.Height, "state", st.Height())
		return nil, fmt.Errorf("%w: block %d, state %d", state.ErrStateHeightUnmatched, req.Height, st.Height())
	}
	app.lastBlk.Set(req)
	app.st = st
	st.SetBlockTime(req.Time)
	res, err := app.process(ctx, st, req.Txs, true)
	if err != nil {
		return nil, err
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.metrics.Height.Set(float64(req.Height))
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

// process runs txs in order on st. Any tx that fails to decode or verify
// fails the whole block.
func (app *App) process(ctx context.Context, st *state.State, txs [][]byte, observe bool) (res []*abcitypes.ExecTxResult, err error) {
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		btx, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Error("unexpected tx, verify fail", "index", i, "err", err)
			return nil, err
		}
		result, err := app.apply(ctx, st, btx)
		if err != nil {
			return nil, err
		}
		if observe {
			app.metrics.ObserveTx(btx.Type, result)
		}
		res[i] = result
	}
	return
}

// apply runs one verified tx on a clone of st and merges the clone back only
// when the DAO call succeeds. The sender nonce is consumed either way.
func (app *App) apply(ctx context.Context, st *state.State, btx *tx.Tx) (result *abcitypes.ExecTxResult, err error) {
	if app.dao == nil {
		return nil, ErrDAONotInitialized
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unexpected tx, no handler", "type", btx.Type)
		return nil, fmt.Errorf("%w: %s", tx.ErrUnsupportedTxType, btx.Type)
	}
	stTmp := st.Clone()
	result, err = h.Process(ctx, stTmp, btx)
	if err != nil {
		app.logger.Error("unexpected process tx fail", "type", btx.Type, "err", err)
		return nil, ErrUnexpectedTxProcess
	}
	if result.Code == dao.CodeOK {
		*st = *stTmp
	}
	if err = st.IncrNonce(btx.Sender); err != nil {
		return nil, err
	}
	return result, nil
}

func (app *App) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrNoPendingState
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit", "height", app.lastBlk.Height)
	return &abcitypes.ResponseCommit{}, nil
}
