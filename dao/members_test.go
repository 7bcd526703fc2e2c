package dao

import (
	"testing"

	"github.com/calehh/charity-dao/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipGenesis(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), []common.Address{alice, admin, bob})
	count, err := f.d.Members.MemberCount(f.s)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	got, err := f.d.Members.Members(f.s, 0, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.Address{admin, alice, bob}, got)

	a, err := f.d.Members.Admin(f.s)
	require.NoError(t, err)
	assert.Equal(t, admin, a)
}

func TestAddRemoveMemberRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), []common.Address{alice})
	before, err := f.d.Members.MemberCount(f.s)
	require.NoError(t, err)

	ctx := f.ctx(admin)
	require.NoError(t, f.d.Members.AddMember(ctx, bob))
	ok, err := f.d.Members.IsMember(f.s, bob)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.d.Members.RemoveMember(ctx, bob))
	ok, err = f.d.Members.IsMember(f.s, bob)
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := f.d.Members.MemberCount(f.s)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	evs := ctx.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, types.EventMemberAddedType, evs[0].Type)
	assert.Equal(t, types.EventMemberRemovedType, evs[1].Type)
	assert.Equal(t, &types.EventMember{Member: bob, Count: before}, types.DecodeEventMember(evs[1]))
}

func TestMembershipErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		caller  common.Address
		call    func(r *MembershipRegistry, ctx *Context) error
		wantErr error
	}{
		{
			name:    "add by non admin",
			caller:  alice,
			call:    func(r *MembershipRegistry, ctx *Context) error { return r.AddMember(ctx, bob) },
			wantErr: ErrUnauthorized,
		},
		{
			name:    "add existing",
			caller:  admin,
			call:    func(r *MembershipRegistry, ctx *Context) error { return r.AddMember(ctx, alice) },
			wantErr: ErrAlreadyMember,
		},
		{
			name:    "add zero address",
			caller:  admin,
			call:    func(r *MembershipRegistry, ctx *Context) error { return r.AddMember(ctx, common.Address{}) },
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "remove non member",
			caller:  admin,
			call:    func(r *MembershipRegistry, ctx *Context) error { return r.RemoveMember(ctx, bob) },
			wantErr: ErrNotAMember,
		},
		{
			name:    "remove by non admin",
			caller:  bob,
			call:    func(r *MembershipRegistry, ctx *Context) error { return r.RemoveMember(ctx, alice) },
			wantErr: ErrUnauthorized,
		},
		{
			name:    "transfer admin to non member",
			caller:  admin,
			call:    func(r *MembershipRegistry, ctx *Context) error { return r.TransferAdmin(ctx, bob) },
			wantErr: ErrNotAMember,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, DefaultParams(), []common.Address{alice})
			before := f.s.snapshot()
			err := tt.call(f.d.Members, f.ctx(tt.caller))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, f.s.snapshot())
		})
	}
}

func TestAdminMustStayMember(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), []common.Address{alice})
	require.NoError(t, f.d.Members.RemoveMember(f.ctx(admin), admin))

	err := f.d.Members.AddMember(f.ctx(admin), bob)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransferAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), []common.Address{alice})
	require.NoError(t, f.d.Members.TransferAdmin(f.ctx(admin), alice))

	a, err := f.d.Members.Admin(f.s)
	require.NoError(t, err)
	assert.Equal(t, alice, a)

	require.ErrorIs(t, f.d.Members.AddMember(f.ctx(admin), bob), ErrUnauthorized)
	require.NoError(t, f.d.Members.AddMember(f.ctx(alice), bob))
}
