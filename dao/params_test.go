package dao

import (
	"testing"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr bool
	}{
		{"defaults", func(p *Params) {}, false},
		{"zero quorum", func(p *Params) { p.RequiredQuorum = 0 }, true},
		{"zero majority", func(p *Params) { p.RequiredMajority = 0 }, true},
		{"majority above 100", func(p *Params) { p.RequiredMajority = 101 }, true},
		{"unanimous", func(p *Params) { p.RequiredMajority = 100 }, false},
		{"max below base", func(p *Params) { p.MaxVotingWeight = 50 }, true},
		{"flat weights", func(p *Params) { p.MaxVotingWeight = p.BaseVotingWeight }, false},
		{"missing threshold", func(p *Params) { p.TokenWeightThreshold = nil }, true},
		{"zero threshold", func(p *Params) { p.TokenWeightThreshold = new(uint256.Int) }, true},
		{"zero period", func(p *Params) { p.VotingPeriod = 0 }, true},
		{"no reward", func(p *Params) { p.RewardRatio = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParams)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.RequiredMajority = 0
	_, err := New(p, cmtlog.NewNopLogger())
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestParamsDerivedValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7*24*time.Hour, DefaultParams().VotingWindow())
	assert.Equal(t, Weight(100), DefaultParams().QuorumWeight())
}

func TestGenesisStoresParams(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.RequiredQuorum = 2
	f := newFixture(t, p, nil)
	loaded, err := LoadParams(f.s)
	require.NoError(t, err)
	assert.Equal(t, &p, loaded)
	assert.Equal(t, Weight(200), loaded.QuorumWeight())

	_, err = LoadParams(newMemStore())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGenesisValidate(t *testing.T) {
	t.Parallel()

	gen := DefaultGenesis(common.Address{})
	require.ErrorIs(t, gen.Validate(), ErrInvalidParams)

	gen = DefaultGenesis(admin)
	require.NoError(t, gen.Validate())
	gen.Token.Admin = common.Address{}
	require.ErrorIs(t, gen.Validate(), ErrInvalidParams)
}

func TestNoRewardWhenRatioZero(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.RewardRatio = 0
	f := newFixture(t, p, nil)
	addr := f.fundraising()
	f.donate(donor, addr, ether(2))
	assert.True(t, f.tokenBalance(donor).IsZero())
}
