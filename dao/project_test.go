package dao

import (
	"errors"
	"strings"
	"testing"

	"github.com/calehh/charity-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fundraising registers a project and approves it with the sole admin vote.
func (f *fixture) fundraising() common.Address {
	f.t.Helper()
	addr := f.register(owner)
	require.NoError(f.t, f.d.Proposals.Vote(f.ctx(admin), f.project(addr).ApprovalProposalID, types.VoteApprove))
	require.Equal(f.t, types.ProjectStatusFundraising, f.project(addr).Status)
	return addr
}

func (f *fixture) donate(from, project common.Address, amount *uint256.Int) {
	f.t.Helper()
	require.NoError(f.t, f.d.Projects.Donate(f.ctx(from), project, amount))
}

func TestRegisterProject(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	addr := f.register(owner)
	assert.Equal(t, crypto.CreateAddress(ModuleAddress, 0), addr)

	p := f.project(addr)
	assert.Equal(t, owner, p.Owner)
	assert.Equal(t, types.ProjectStatusPending, p.Status)
	assert.Equal(t, ether(10), p.TargetAmount)
	assert.True(t, p.RaisedAmount.IsZero())
	assert.Equal(t, genesisTime.Unix()+30*24*3600, p.Deadline)
	assert.Equal(t, uint64(1), p.ApprovalProposalID)

	second := f.register(owner)
	assert.NotEqual(t, addr, second)
	list, err := f.d.Projects.Projects(f.s, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[1].Address)
}

func TestRegisterProjectValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  RegisterProject
	}{
		{"empty name", RegisterProject{TargetAmount: ether(1)}},
		{"long name", RegisterProject{Name: strings.Repeat("x", MaxNameLength+1), TargetAmount: ether(1)}},
		{"long description", RegisterProject{Name: "a", Description: strings.Repeat("x", MaxTextLength+1), TargetAmount: ether(1)}},
		{"no target", RegisterProject{Name: "a"}},
		{"zero target", RegisterProject{Name: "a", TargetAmount: new(uint256.Int)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultParams(), nil)
			before := f.s.snapshot()
			_, err := f.d.Projects.Register(f.ctx(owner), tt.req)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, before, f.s.snapshot())
		})
	}
}

func TestDonateAccumulates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	addr := f.fundraising()

	f.donate(donor, addr, ether(2))
	f.donate(alice, addr, ether(1))
	f.donate(donor, addr, ether(3))

	p := f.project(addr)
	assert.Equal(t, ether(6), p.RaisedAmount)
	assert.Equal(t, ether(6), f.nativeBalance(addr))
	assert.Equal(t, ether(95), f.nativeBalance(donor))

	got, err := f.d.Projects.DonationOf(f.s, addr, donor)
	require.NoError(t, err)
	assert.Equal(t, ether(5), got)

	count, err := f.d.Projects.DonorCount(f.s, addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	donors, err := f.d.Projects.Donors(f.s, addr, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []types.Donation{
		{Donor: donor, Amount: ether(5)},
		{Donor: alice, Amount: ether(1)},
	}, donors)
}

func TestDonateMintsReward(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	addr := f.fundraising()

	ctx := f.ctx(donor)
	require.NoError(t, f.d.Projects.Donate(ctx, addr, ether(2)))
	assert.Equal(t, uint256.NewInt(200), f.tokenBalance(donor))

	var reward *types.EventTokenRewarded
	for _, ev := range ctx.Events() {
		if ev.Type == types.EventTokenRewardedType {
			reward = types.DecodeEventTokenRewarded(ev)
		}
	}
	require.NotNil(t, reward)
	assert.Equal(t, donor, reward.Donor)
	assert.Equal(t, uint256.NewInt(200), reward.Amount)
}

func TestDonateWithoutMinterRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	addr := f.fundraising()
	require.NoError(t, f.d.Token.RevokeRole(f.ctx(admin), RoleMinter, ModuleAddress))

	f.donate(donor, addr, ether(2))
	assert.Equal(t, ether(2), f.project(addr).RaisedAmount)
	assert.True(t, f.tokenBalance(donor).IsZero())
}

func TestDonateErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	pending := f.register(owner)
	before := f.s.snapshot()
	require.ErrorIs(t, f.d.Projects.Donate(f.ctx(donor), pending, ether(1)), ErrInvalidState)
	assert.Equal(t, before, f.s.snapshot())

	addr := f.fundraising()
	require.ErrorIs(t, f.d.Projects.Donate(f.ctx(donor), addr, new(uint256.Int)), ErrInvalidArgument)
	require.ErrorIs(t, f.d.Projects.Donate(f.ctx(donor), addr, ether(101)), ErrInsufficientBalance)
	require.ErrorIs(t, f.d.Projects.Donate(f.ctx(donor), other, ether(1)), ErrProjectNotFound)
	assert.True(t, f.project(addr).RaisedAmount.IsZero())
}

func TestRequestFundsRelease(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), []common.Address{alice})
	pending := f.register(owner)
	require.ErrorIs(t, f.d.Projects.RequestFundsRelease(f.ctx(owner), pending, "done"), ErrInvalidState)

	addr := f.register(owner)
	require.NoError(t, f.d.Proposals.Vote(f.ctx(admin), f.project(addr).ApprovalProposalID, types.VoteApprove))
	require.NoError(t, f.d.Proposals.Vote(f.ctx(alice), f.project(addr).ApprovalProposalID, types.VoteApprove))
	require.Equal(t, types.ProjectStatusFundraising, f.project(addr).Status)

	require.ErrorIs(t, f.d.Projects.RequestFundsRelease(f.ctx(donor), addr, "done"), ErrUnauthorized)
	require.NoError(t, f.d.Projects.RequestFundsRelease(f.ctx(owner), addr, "wells dug"))

	p := f.project(addr)
	assert.Equal(t, types.ProjectStatusPendingRelease, p.Status)
	assert.Equal(t, "wells dug", p.ReleaseRequest)
	assert.NotZero(t, p.FundsReleaseProposalID)

	prop, err := f.d.Proposals.Proposal(f.s, p.FundsReleaseProposalID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalTypeFundsRelease, prop.Type)
	assert.Equal(t, addr, prop.Project)

	require.ErrorIs(t, f.d.Projects.RequestFundsRelease(f.ctx(owner), addr, "again"), ErrInvalidState)
	require.ErrorIs(t, f.d.Projects.Donate(f.ctx(donor), addr, ether(1)), ErrInvalidState)
}

func TestFundsReleasePassed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	addr := f.fundraising()
	f.donate(donor, addr, ether(4))
	f.donate(alice, addr, ether(1))

	require.NoError(t, f.d.Projects.RequestFundsRelease(f.ctx(owner), addr, "done"))
	ctx := f.ctx(admin)
	require.NoError(t, f.d.Proposals.Vote(ctx, f.project(addr).FundsReleaseProposalID, types.VoteApprove))

	p := f.project(addr)
	assert.Equal(t, types.ProjectStatusCompleted, p.Status)
	assert.Equal(t, ether(5), p.ReleasedAmount)
	assert.True(t, p.PendingDisbursement.IsZero())
	assert.Equal(t, ether(5), f.nativeBalance(owner))
	assert.True(t, f.nativeBalance(addr).IsZero())

	var released *types.EventValueMoved
	for _, ev := range ctx.Events() {
		if ev.Type == types.EventFundsReleasedType {
			released = types.DecodeEventValueMoved(ev)
		}
	}
	require.NotNil(t, released)
	assert.Equal(t, owner, released.Account)
	assert.Equal(t, ether(5), released.Amount)

	require.ErrorIs(t, f.d.Projects.ReleaseFunds(f.ctx(owner), addr), ErrInvalidState)
	require.ErrorIs(t, f.d.Projects.ClaimRefund(f.ctx(donor), addr), ErrInvalidState)
}

func TestFundsReleaseRejectedRefunds(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	addr := f.fundraising()
	f.donate(donor, addr, ether(4))

	require.NoError(t, f.d.Projects.RequestFundsRelease(f.ctx(owner), addr, "done"))
	require.NoError(t, f.d.Proposals.Vote(f.ctx(admin), f.project(addr).FundsReleaseProposalID, types.VoteReject))
	assert.Equal(t, types.ProjectStatusRejected, f.project(addr).Status)
	assert.Equal(t, ether(4), f.nativeBalance(addr))

	require.ErrorIs(t, f.d.Projects.ClaimRefund(f.ctx(alice), addr), ErrNotFound)

	require.NoError(t, f.d.Projects.ClaimRefund(f.ctx(donor), addr))
	assert.Equal(t, ether(100), f.nativeBalance(donor))
	assert.True(t, f.nativeBalance(addr).IsZero())

	require.ErrorIs(t, f.d.Projects.ClaimRefund(f.ctx(donor), addr), ErrInvalidState)

	donors, err := f.d.Projects.Donors(f.s, addr, 0, 0)
	require.NoError(t, err)
	require.Len(t, donors, 1)
	assert.True(t, donors[0].Refunded)
	assert.Equal(t, ether(4), donors[0].Amount)
}

func TestRejectedApprovalHasNothingToRefund(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	addr := f.register(owner)
	require.NoError(t, f.d.Proposals.Vote(f.ctx(admin), f.project(addr).ApprovalProposalID, types.VoteReject))
	assert.Equal(t, types.ProjectStatusRejected, f.project(addr).Status)
	require.ErrorIs(t, f.d.Projects.ClaimRefund(f.ctx(donor), addr), ErrNotFound)
}

type flakyVault struct {
	*NativeVault
	fail bool
}

var errVaultDown = errors.New("vault unavailable")

func (v *flakyVault) Disburse(ctx *Context, custody, to common.Address, amount *uint256.Int) error {
	if v.fail {
		return errVaultDown
	}
	return v.NativeVault.Disburse(ctx, custody, to, amount)
}

func TestReleaseFundsRetry(t *testing.T) {
	t.Parallel()

	vault := &flakyVault{NativeVault: NewNativeVault(cmtlog.NewNopLogger()), fail: true}
	f := newFixture(t, DefaultParams(), nil, WithVault(vault))
	addr := f.fundraising()
	f.donate(donor, addr, ether(3))

	require.NoError(t, f.d.Projects.RequestFundsRelease(f.ctx(owner), addr, "done"))
	require.NoError(t, f.d.Proposals.Vote(f.ctx(admin), f.project(addr).FundsReleaseProposalID, types.VoteApprove))

	p := f.project(addr)
	assert.Equal(t, types.ProjectStatusCompleted, p.Status)
	assert.Equal(t, ether(3), p.PendingDisbursement)
	assert.True(t, p.ReleasedAmount.IsZero())
	assert.True(t, f.nativeBalance(owner).IsZero())

	require.ErrorIs(t, f.d.Projects.ReleaseFunds(f.ctx(other), addr), errVaultDown)

	vault.fail = false
	require.NoError(t, f.d.Projects.ReleaseFunds(f.ctx(other), addr))
	p = f.project(addr)
	assert.True(t, p.PendingDisbursement.IsZero())
	assert.Equal(t, ether(3), p.ReleasedAmount)
	assert.Equal(t, ether(3), f.nativeBalance(owner))

	require.ErrorIs(t, f.d.Projects.ReleaseFunds(f.ctx(other), addr), ErrInvalidState)
}

func TestUpdateAuditMaterials(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	addr := f.register(owner)

	require.ErrorIs(t, f.d.Projects.UpdateAuditMaterials(f.ctx(donor), addr, "x"), ErrUnauthorized)
	require.NoError(t, f.d.Projects.UpdateAuditMaterials(f.ctx(owner), addr, "ipfs://audit"))
	assert.Equal(t, "ipfs://audit", f.project(addr).AuditMaterials)

	require.NoError(t, f.d.Proposals.Vote(f.ctx(admin), f.project(addr).ApprovalProposalID, types.VoteReject))
	require.ErrorIs(t, f.d.Projects.UpdateAuditMaterials(f.ctx(owner), addr, "late"), ErrInvalidState)
}

func TestApplyOutcomeGuardsStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	addr := f.fundraising()
	err := f.d.Projects.ApplyOutcome(f.ctx(ModuleAddress), addr, types.ProposalTypeProjectApproval, true)
	require.ErrorIs(t, err, ErrInvalidState)
	err = f.d.Projects.ApplyOutcome(f.ctx(ModuleAddress), addr, types.ProposalTypeFundsRelease, true)
	require.ErrorIs(t, err, ErrInvalidState)
}
