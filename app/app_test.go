package app

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"testing"
	"time"

	"github.com/calehh/charity-dao/config"
	"github.com/calehh/charity-dao/dao"
	"github.com/calehh/charity-dao/state"
	"github.com/calehh/charity-dao/tx"
	"github.com/calehh/charity-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = "charity-test"

var genesisTime = time.Unix(1_700_000_000, 0).UTC()

type account struct {
	key   *ecdsa.PrivateKey
	addr  common.Address
	nonce uint64
}

func newAccount(t *testing.T) *account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &account{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// sign builds the next tx of the account. bump is false for txs that are
// expected to be rejected before execution.
func (a *account) sign(t *testing.T, tp tx.TxType, payload any, bump bool) []byte {
	t.Helper()
	btx := &tx.Tx{Version: tx.TxVersion0, Type: tp, Nonce: a.nonce, Tx: payload}
	require.NoError(t, btx.Sign(a.key, testChainID))
	dat, err := tx.MarshalTx(btx)
	require.NoError(t, err)
	if bump {
		a.nonce++
	}
	return dat
}

type testChain struct {
	t      *testing.T
	app    *App
	height int64
	reg    *prometheus.Registry

	admin, owner, donor *account
}

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), dao.ValueUnit)
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()
	logger := cmtlog.NewNopLogger()
	db, err := state.NewMemStateDB(logger)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	app, err := NewAppWithDB(config.DefaultAppConfig(t.TempDir()), db, logger, reg)
	require.NoError(t, err)
	t.Cleanup(app.Stop)

	c := &testChain{t: t, app: app, reg: reg, admin: newAccount(t), owner: newAccount(t), donor: newAccount(t)}
	gen := dao.DefaultGenesis(c.admin.addr)
	gen.Balances = []dao.Allocation{{Address: c.donor.addr, Amount: ether(50)}}
	appState, err := json.Marshal(gen)
	require.NoError(t, err)

	res, err := app.InitChain(context.Background(), &abcitypes.RequestInitChain{
		ChainId:       testChainID,
		Time:          genesisTime,
		AppStateBytes: appState,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AppHash)
	return c
}

// block finalizes and commits txs as the next height.
func (c *testChain) block(txs ...[]byte) []*abcitypes.ExecTxResult {
	c.t.Helper()
	c.height++
	res, err := c.app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{
		Height: c.height,
		Time:   genesisTime.Add(time.Duration(c.height) * time.Second),
		Txs:    txs,
	})
	require.NoError(c.t, err)
	require.Len(c.t, res.TxResults, len(txs))
	_, err = c.app.Commit(context.Background(), &abcitypes.RequestCommit{})
	require.NoError(c.t, err)
	return res.TxResults
}

func (c *testChain) query(path string, req types.QueryRequest, out any) *abcitypes.ResponseQuery {
	c.t.Helper()
	data, err := json.Marshal(req)
	require.NoError(c.t, err)
	res, err := c.app.Query(context.Background(), &abcitypes.RequestQuery{Path: path, Data: data})
	require.NoError(c.t, err)
	if out != nil && res.Code == dao.CodeOK {
		require.NoError(c.t, json.Unmarshal(res.Value, out))
	}
	return res
}

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if g := out.GetGauge(); g != nil {
		return g.GetValue()
	}
	return out.GetCounter().GetValue()
}

func (c *testChain) projectAddr(index uint64) common.Address {
	return crypto.CreateAddress(dao.ModuleAddress, index)
}

func TestProjectLifecycleEndToEnd(t *testing.T) {
	c := newTestChain(t)
	project := c.projectAddr(0)

	res := c.block(
		c.owner.sign(t, tx.TxTypeRegisterProject, &tx.RegisterProjectTx{
			Name:         "school roof",
			TargetAmount: ether(5),
			Duration:     3600,
		}, true),
		c.admin.sign(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, Approve: true}, true),
	)
	for _, r := range res {
		require.Equal(t, dao.CodeOK, r.Code, r.Log)
	}

	var p types.Project
	c.query(types.QueryProjects, types.QueryRequest{Project: &project}, &p)
	assert.Equal(t, types.ProjectStatusFundraising, p.Status)
	assert.Equal(t, c.owner.addr, p.Owner)

	res = c.block(c.donor.sign(t, tx.TxTypeDonate, &tx.DonateTx{Project: project, Amount: ether(2)}, true))
	require.Equal(t, dao.CodeOK, res[0].Code, res[0].Log)

	var token TokenState
	c.query(types.QueryToken, types.QueryRequest{Address: &c.donor.addr}, &token)
	assert.Equal(t, uint256.NewInt(200), token.Balance)
	assert.Equal(t, uint256.NewInt(200), token.TotalSupply)

	res = c.block(
		c.owner.sign(t, tx.TxTypeRequestFundsRelease, &tx.RequestFundsReleaseTx{Project: project, Statement: "roof fixed"}, true),
		c.admin.sign(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 2, Approve: true}, true),
	)
	for _, r := range res {
		require.Equal(t, dao.CodeOK, r.Code, r.Log)
	}

	c.query(types.QueryProjects, types.QueryRequest{Project: &project}, &p)
	assert.Equal(t, types.ProjectStatusCompleted, p.Status)
	assert.Equal(t, ether(2), p.ReleasedAmount)

	var acnt AccountState
	c.query(types.QueryAccounts, types.QueryRequest{Address: &c.owner.addr}, &acnt)
	assert.Equal(t, ether(2), acnt.Balance)
	assert.Equal(t, uint64(2), acnt.Nonce)

	var info types.ProposalInfo
	c.query(types.QueryProposals, types.QueryRequest{ID: 2}, &info)
	assert.True(t, info.Executed)
	assert.True(t, info.Passed)
	assert.Equal(t, "school roof", info.ProjectName)

	var vote types.VoteRecord
	c.query(types.QueryVotes, types.QueryRequest{ID: 2, Address: &c.admin.addr}, &vote)
	assert.Equal(t, types.VoteApprove, vote.Choice)

	assert.Equal(t, float64(1), metricValue(t, c.app.metrics.Txs.WithLabelValues("donate", "0")))
	assert.Equal(t, float64(c.height), metricValue(t, c.app.metrics.Height))
}

func TestFailedTxConsumesNonce(t *testing.T) {
	c := newTestChain(t)
	missing := c.projectAddr(7)

	var before AccountState
	c.query(types.QueryAccounts, types.QueryRequest{Address: &c.donor.addr}, &before)

	res := c.block(c.donor.sign(t, tx.TxTypeDonate, &tx.DonateTx{Project: missing, Amount: ether(1)}, true))
	assert.Equal(t, dao.CodeNotFound, res[0].Code)
	assert.NotEmpty(t, res[0].Log)
	assert.Empty(t, res[0].Events)

	var after AccountState
	c.query(types.QueryAccounts, types.QueryRequest{Address: &c.donor.addr}, &after)
	assert.Equal(t, before.Nonce+1, after.Nonce)
	assert.Equal(t, before.Balance, after.Balance)

	// the following nonce is still accepted
	res = c.block(c.donor.sign(t, tx.TxTypeSend, &tx.SendTx{To: c.owner.addr, Amount: ether(1)}, true))
	assert.Equal(t, dao.CodeOK, res[0].Code, res[0].Log)
}

func TestRevertedTxKeepsBlockWrites(t *testing.T) {
	c := newTestChain(t)
	res := c.block(
		c.donor.sign(t, tx.TxTypeSend, &tx.SendTx{To: c.owner.addr, Amount: ether(3)}, true),
		c.owner.sign(t, tx.TxTypeSend, &tx.SendTx{To: c.donor.addr, Amount: ether(4)}, true),
	)
	assert.Equal(t, dao.CodeOK, res[0].Code)
	assert.Equal(t, dao.CodeInsufficientBalance, res[1].Code)

	var owner AccountState
	c.query(types.QueryAccounts, types.QueryRequest{Address: &c.owner.addr}, &owner)
	assert.Equal(t, ether(3), owner.Balance)
	assert.Equal(t, uint64(1), owner.Nonce)
}

func TestCheckTx(t *testing.T) {
	c := newTestChain(t)
	c.block()

	check := func(dat []byte) *abcitypes.ResponseCheckTx {
		res, err := c.app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: dat})
		require.NoError(t, err)
		return res
	}

	ok := check(c.donor.sign(t, tx.TxTypeSend, &tx.SendTx{To: c.owner.addr, Amount: ether(1)}, false))
	assert.Equal(t, dao.CodeOK, ok.Code, ok.Log)

	broke := check(c.owner.sign(t, tx.TxTypeSend, &tx.SendTx{To: c.donor.addr, Amount: ether(1)}, false))
	assert.Equal(t, dao.CodeInsufficientBalance, broke.Code)

	nonMember := check(c.donor.sign(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, Approve: true}, false))
	assert.Equal(t, dao.CodeUnauthorized, nonMember.Code)

	// future nonces wait for the mempool and skip the dry run
	c.owner.nonce = 5
	future := check(c.owner.sign(t, tx.TxTypeSend, &tx.SendTx{To: c.donor.addr, Amount: ether(1)}, false))
	assert.Equal(t, dao.CodeOK, future.Code)

	forged := &tx.Tx{Type: tx.TxTypeSend, Tx: &tx.SendTx{To: c.owner.addr, Amount: ether(1)}}
	require.NoError(t, forged.Sign(c.donor.key, "another-chain"))
	dat, err := tx.MarshalTx(forged)
	require.NoError(t, err)
	assert.Equal(t, dao.CodeInvalidTx, check(dat).Code)

	assert.Equal(t, dao.CodeInvalidTx, check([]byte(`{"type":250}`)).Code)
}

func TestProcessProposalRejectsUnverifiable(t *testing.T) {
	c := newTestChain(t)
	good := c.donor.sign(t, tx.TxTypeSend, &tx.SendTx{To: c.owner.addr, Amount: ether(1)}, false)
	replay := c.donor.sign(t, tx.TxTypeSend, &tx.SendTx{To: c.owner.addr, Amount: ether(1)}, false)

	res, err := c.app.ProcessProposal(context.Background(), &abcitypes.RequestProcessProposal{
		Height: 1,
		Time:   genesisTime,
		Txs:    [][]byte{good, replay},
	})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_REJECT, res.Status)

	prep, err := c.app.PrepareProposal(context.Background(), &abcitypes.RequestPrepareProposal{
		Height:     1,
		Time:       genesisTime,
		MaxTxBytes: 1 << 20,
		Txs:        [][]byte{good, replay},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{good}, prep.Txs)
}

func TestFinalizeBlockHeightMismatch(t *testing.T) {
	c := newTestChain(t)
	_, err := c.app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{Height: 3, Time: genesisTime})
	require.ErrorIs(t, err, state.ErrStateHeightUnmatched)

	_, err = c.app.Commit(context.Background(), &abcitypes.RequestCommit{})
	require.ErrorIs(t, err, ErrNoPendingState)

	c.block()
	_, err = c.app.Commit(context.Background(), &abcitypes.RequestCommit{})
	require.ErrorIs(t, err, ErrNoPendingState)
}

func TestQueryPaths(t *testing.T) {
	c := newTestChain(t)

	var params dao.Params
	res := c.query(types.QueryParams, types.QueryRequest{}, &params)
	require.Equal(t, dao.CodeOK, res.Code, res.Log)
	assert.Equal(t, dao.DefaultParams(), params)

	var members types.MemberList
	c.query("/members", types.QueryRequest{}, &members)
	assert.Equal(t, c.admin.addr, members.Admin)
	assert.Equal(t, uint64(1), members.Count)

	var info types.MemberInfo
	c.query(types.QueryMembers, types.QueryRequest{Address: &c.admin.addr}, &info)
	assert.True(t, info.Member)
	assert.True(t, info.Admin)
	assert.Equal(t, uint64(100), info.Weight)

	assert.Equal(t, dao.CodeNotFound, c.query(types.QueryProposals, types.QueryRequest{ID: 9}, nil).Code)
	assert.Equal(t, dao.CodeInvalidArgument, c.query(types.QueryVotes, types.QueryRequest{ID: 1}, nil).Code)
	assert.Equal(t, dao.CodeInvalidArgument, c.query(types.QueryDonors, types.QueryRequest{}, nil).Code)
	assert.Equal(t, CodeUnknownPath, c.query("/nowhere/", types.QueryRequest{}, nil).Code)
	assert.Equal(t, float64(2), metricValue(t, c.app.metrics.QueryErrs.WithLabelValues(types.QueryVotes))+
		metricValue(t, c.app.metrics.QueryErrs.WithLabelValues(types.QueryDonors)))
}

func TestRestoreFromDB(t *testing.T) {
	logger := cmtlog.NewNopLogger()
	db, err := state.NewMemStateDB(logger)
	require.NoError(t, err)

	fresh, err := NewAppWithDB(config.DefaultAppConfig(t.TempDir()), db, logger, nil)
	require.NoError(t, err)
	assert.Nil(t, fresh.DAO())

	res, err := fresh.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, dao.CodeInternal, res.Code)

	admin := newAccount(t)
	appState, err := json.Marshal(dao.DefaultGenesis(admin.addr))
	require.NoError(t, err)
	_, err = fresh.InitChain(context.Background(), &abcitypes.RequestInitChain{ChainId: testChainID, Time: genesisTime, AppStateBytes: appState})
	require.NoError(t, err)

	restored, err := NewAppWithDB(config.DefaultAppConfig(t.TempDir()), db, logger, nil)
	require.NoError(t, err)
	require.NotNil(t, restored.DAO())
	assert.Equal(t, dao.DefaultParams(), restored.DAO().Params)
}
