package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/calehh/charity-dao/config"
	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/state"
	"github.com/calehh/charity-dao/tx"
	"github.com/calehh/charity-dao/tx/handler"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &App{}

type App struct {
	cfg    *config.AppConfig
	logger cmtlog.Logger
	base   cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	dao      *dao.DAO
	txHdlrs  map[tx.TxType]handler.TxHandler
	queriers map[string]Querier
	metrics  *Metrics

	st *state.State
}

func NewApp(cfg *config.AppConfig, logger cmtlog.Logger, reg prometheus.Registerer) (app *App, err error) {
	db, err := state.NewStateDB(filepath.Join(cfg.Home, "data"), logger)
	if err != nil {
		return nil, err
	}
	return NewAppWithDB(cfg, db, logger, reg)
}

// NewAppWithDB resumes the DAO from params stored in db, if any. A fresh db
// gets its DAO at InitChain.
func NewAppWithDB(cfg *config.AppConfig, db *state.StateDB, logger cmtlog.Logger, reg prometheus.Registerer) (app *App, err error) {
	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	app = &App{
		cfg:      cfg,
		logger:   logger.With("module", "app"),
		base:     logger,
		db:       db,
		txHdlrs:  make(map[tx.TxType]handler.TxHandler),
		queriers: make(map[string]Querier),
		metrics:  metrics,
	}
	params, err := dao.LoadParams(db.State())
	switch {
	case err == nil:
		if err = app.setDAO(*params); err != nil {
			return nil, err
		}
		app.logger.Info("dao restored", "height", db.Header().Height)
	case dao.Code(err) == dao.CodeNotFound:
		err = nil
	default:
		return nil, err
	}
	return
}

func (app *App) setDAO(params dao.Params) (err error) {
	app.dao, err = dao.New(params, app.base)
	if err != nil {
		return
	}
	app.txHdlrs = handler.Register(app.dao, app.base)
	app.registerQuerier()
	return
}

func (app *App) DAO() *dao.DAO {
	return app.dao
}

func (app *App) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *App) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("charity dao app stopped")
}

func (app *App) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	var gen dao.Genesis
	if err = json.Unmarshal(chain.AppStateBytes, &gen); err != nil {
		app.logger.Error("InitChain decode app state fail", "err", err)
		return nil, fmt.Errorf("decode app_state: %w", err)
	}
	if err = app.setDAO(gen.Params); err != nil {
		app.logger.Error("InitChain params invalid", "err", err)
		return nil, err
	}
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	st.SetBlockTime(chain.Time)
	if err = app.dao.InitGenesis(st, &gen); err != nil {
		app.logger.Error("InitChain genesis fail", "err", err)
		return nil, err
	}
	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *App) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *App) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *App) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *App) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *App) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *App) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *App) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
