package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/state"
	"github.com/calehh/charity-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const CodeUnknownPath uint32 = 404

var ErrMissingQueryField = errors.New("missing query field")

func (app *App) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{Code: CodeUnknownPath, Log: "unknown query path " + req.Path}
		return
	}
	res, err = q.Query(ctx, req)
	if res != nil && res.Code != dao.CodeOK {
		app.metrics.QueryErrs.WithLabelValues(path).Inc()
	}
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

// QueryFunc answers a decoded request from a read-only snapshot.
type QueryFunc func(s *state.Snapshot, q *types.QueryRequest) (any, error)

type snapshotQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
	fn     QueryFunc
}

func (q *snapshotQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var qr types.QueryRequest
	if len(req.Data) > 0 {
		if err1 := json.Unmarshal(req.Data, &qr); err1 != nil {
			res.Code = dao.CodeInvalidArgument
			res.Log = err1.Error()
			return
		}
	}
	snap, err1 := q.db.Snapshot()
	if err1 != nil {
		res.Code = dao.CodeNotFound
		res.Log = err1.Error()
		return
	}
	res.Height = int64(snap.Height())
	val, err1 := q.fn(snap, &qr)
	if err1 != nil {
		q.logger.Debug("query fail", "path", req.Path, "err", err1)
		res.Code = dao.Code(err1)
		res.Log = err1.Error()
		return
	}
	res.Value, err1 = json.Marshal(val)
	if err1 != nil {
		res.Code = dao.CodeInternal
		res.Log = err1.Error()
	}
	return
}

func (app *App) register(path string, fn QueryFunc) {
	app.queriers[path] = &snapshotQuerier{db: app.db, logger: app.logger, fn: fn}
}

func (app *App) registerQuerier() {
	d := app.dao
	app.register(types.QueryParams, func(s *state.Snapshot, q *types.QueryRequest) (any, error) {
		return dao.LoadParams(s)
	})
	app.register(types.QueryMembers, func(s *state.Snapshot, q *types.QueryRequest) (any, error) {
		if q.Address != nil {
			return d.MemberInfo(s, *q.Address)
		}
		admin, err := d.Members.Admin(s)
		if err != nil {
			return nil, err
		}
		count, err := d.Members.MemberCount(s)
		if err != nil {
			return nil, err
		}
		members, err := d.Members.Members(s, q.Offset, q.Limit)
		if err != nil {
			return nil, err
		}
		return &types.MemberList{Admin: admin, Count: count, Members: members}, nil
	})
	app.register(types.QueryProposals, func(s *state.Snapshot, q *types.QueryRequest) (any, error) {
		if q.ID != 0 {
			return d.ProposalInfo(s, q.ID)
		}
		return d.Proposals.Proposals(s, q.Offset, q.Limit)
	})
	app.register(types.QueryVotes, func(s *state.Snapshot, q *types.QueryRequest) (any, error) {
		if q.ID == 0 || q.Address == nil {
			return nil, fmt.Errorf("%w: %w: id and address", dao.ErrInvalidArgument, ErrMissingQueryField)
		}
		return d.Proposals.MemberVote(s, q.ID, *q.Address)
	})
	app.register(types.QueryProjects, func(s *state.Snapshot, q *types.QueryRequest) (any, error) {
		if q.Project != nil {
			return d.Projects.Project(s, *q.Project)
		}
		return d.Projects.Projects(s, q.Offset, q.Limit)
	})
	app.register(types.QueryDonors, func(s *state.Snapshot, q *types.QueryRequest) (any, error) {
		if q.Project == nil {
			return nil, fmt.Errorf("%w: %w: project", dao.ErrInvalidArgument, ErrMissingQueryField)
		}
		if q.Address != nil {
			return d.Projects.DonationOf(s, *q.Project, *q.Address)
		}
		return d.Projects.Donors(s, *q.Project, q.Offset, q.Limit)
	})
	app.register(types.QueryToken, func(s *state.Snapshot, q *types.QueryRequest) (any, error) {
		return tokenQuery(d, s, q)
	})
	app.register(types.QueryAccounts, func(s *state.Snapshot, q *types.QueryRequest) (any, error) {
		if q.Address == nil {
			return nil, fmt.Errorf("%w: %w: address", dao.ErrInvalidArgument, ErrMissingQueryField)
		}
		return accountQuery(d, s, *q.Address)
	})
}

type TokenState struct {
	Info        *dao.TokenInfo `json:"info"`
	TotalSupply *uint256.Int   `json:"total_supply"`
	Balance     *uint256.Int   `json:"balance,omitempty"`
	Allowance   *uint256.Int   `json:"allowance,omitempty"`
	Minter      bool           `json:"minter"`
}

func tokenQuery(d *dao.DAO, s dao.Store, q *types.QueryRequest) (res *TokenState, err error) {
	res = new(TokenState)
	if res.Info, err = d.Token.Info(s); err != nil {
		return nil, err
	}
	if res.TotalSupply, err = d.Token.TotalSupply(s); err != nil {
		return nil, err
	}
	if q.Address == nil {
		return
	}
	if res.Balance, err = d.Token.BalanceOf(s, *q.Address); err != nil {
		return nil, err
	}
	if res.Minter, err = d.Token.HasRole(s, dao.RoleMinter, *q.Address); err != nil {
		return nil, err
	}
	if q.Spender != nil {
		if res.Allowance, err = d.Token.Allowance(s, *q.Address, *q.Spender); err != nil {
			return nil, err
		}
	}
	return
}

type AccountState struct {
	Address common.Address `json:"address"`
	Nonce   uint64         `json:"nonce"`
	Balance *uint256.Int   `json:"balance"`
}

func accountQuery(d *dao.DAO, s *state.Snapshot, addr common.Address) (*AccountState, error) {
	nonce, err := s.Nonce(addr)
	if err != nil {
		return nil, err
	}
	bal, err := d.Bank.Balance(s, addr)
	if err != nil {
		return nil, err
	}
	return &AccountState{Address: addr, Nonce: nonce, Balance: bal}, nil
}
