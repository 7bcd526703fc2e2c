package dao

import (
	"testing"

	"github.com/calehh/charity-dao/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGenesis(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	info, err := f.d.Token.Info(f.s)
	require.NoError(t, err)
	assert.Equal(t, "CHT", info.Symbol)
	assert.Equal(t, admin, info.Admin)

	ok, err := f.d.Token.HasRole(f.s, RoleMinter, ModuleAddress)
	require.NoError(t, err)
	assert.True(t, ok)

	supply, err := f.d.Token.TotalSupply(f.s)
	require.NoError(t, err)
	assert.True(t, supply.IsZero())
}

func TestTokenMint(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	err := f.d.Token.Mint(f.ctx(alice), bob, uint256.NewInt(5))
	require.ErrorIs(t, err, ErrUnauthorized)

	f.mintTokens(bob, 5)
	f.mintTokens(bob, 7)
	assert.Equal(t, uint256.NewInt(12), f.tokenBalance(bob))
	supply, err := f.d.Token.TotalSupply(f.s)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(12), supply)
}

func TestTokenTransfer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	f.mintTokens(alice, 100)

	ctx := f.ctx(alice)
	require.NoError(t, f.d.Token.Transfer(ctx, bob, uint256.NewInt(40)))
	assert.Equal(t, uint256.NewInt(60), f.tokenBalance(alice))
	assert.Equal(t, uint256.NewInt(40), f.tokenBalance(bob))

	ev := types.DecodeEventTokenTransfer(ctx.Events()[0])
	require.NotNil(t, ev)
	assert.Equal(t, alice, ev.From)
	assert.Equal(t, bob, ev.To)
	assert.Equal(t, uint256.NewInt(40), ev.Amount)

	err := f.d.Token.Transfer(f.ctx(alice), bob, uint256.NewInt(61))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint256.NewInt(60), f.tokenBalance(alice))
}

func TestTokenTransferFrom(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	f.mintTokens(alice, 100)
	require.NoError(t, f.d.Token.Approve(f.ctx(alice), bob, uint256.NewInt(30)))

	err := f.d.Token.TransferFrom(f.ctx(bob), alice, carol, uint256.NewInt(31))
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, f.d.Token.TransferFrom(f.ctx(bob), alice, carol, uint256.NewInt(20)))
	allowance, err := f.d.Token.Allowance(f.s, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(10), allowance)
	assert.Equal(t, uint256.NewInt(80), f.tokenBalance(alice))
	assert.Equal(t, uint256.NewInt(20), f.tokenBalance(carol))

	// allowance covers it, balance does not
	require.NoError(t, f.d.Token.Approve(f.ctx(alice), bob, uint256.NewInt(1000)))
	before := f.s.snapshot()
	err = f.d.Token.TransferFrom(f.ctx(bob), alice, carol, uint256.NewInt(81))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, before, f.s.snapshot())
}

func TestTokenRoles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), nil)
	require.ErrorIs(t, f.d.Token.GrantRole(f.ctx(alice), RoleMinter, alice), ErrUnauthorized)

	require.NoError(t, f.d.Token.GrantRole(f.ctx(admin), RoleMinter, alice))
	require.NoError(t, f.d.Token.Mint(f.ctx(alice), bob, uint256.NewInt(1)))

	require.NoError(t, f.d.Token.RevokeRole(f.ctx(admin), RoleMinter, alice))
	require.ErrorIs(t, f.d.Token.Mint(f.ctx(alice), bob, uint256.NewInt(1)), ErrUnauthorized)
	assert.Equal(t, uint256.NewInt(1), f.tokenBalance(bob))
}
