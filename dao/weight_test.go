package dao

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWeight(t *testing.T) {
	t.Parallel()

	threshold := uint256.NewInt(10_000)
	tests := []struct {
		name    string
		balance uint64
		want    Weight
	}{
		{"no tokens", 0, 100},
		{"floored bonus", 49, 100},
		{"first bonus unit", 50, 101},
		{"quarter", 2_500, 150},
		{"half", 5_000, 200},
		{"just below threshold", 9_999, 299},
		{"at threshold", 10_000, 300},
		{"above threshold", 1_000_000, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeWeight(uint256.NewInt(tt.balance), threshold, DefaultBaseWeight, DefaultMaxWeight)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeWeightMonotonic(t *testing.T) {
	t.Parallel()

	threshold := uint256.NewInt(10_000)
	prev := Weight(0)
	for bal := uint64(0); bal <= 12_000; bal += 37 {
		w := ComputeWeight(uint256.NewInt(bal), threshold, DefaultBaseWeight, DefaultMaxWeight)
		require.GreaterOrEqual(t, w, prev, "balance %d", bal)
		require.LessOrEqual(t, w, DefaultMaxWeight)
		if bal >= 10_000 {
			require.Equal(t, DefaultMaxWeight, w)
		}
		prev = w
	}
}

func TestComputeWeightFlat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Weight(100), ComputeWeight(uint256.NewInt(5), uint256.NewInt(10), 100, 100))
}

func TestWeightCalculator(t *testing.T) {
	t.Parallel()

	f := newFixture(t, DefaultParams(), []common.Address{alice})
	w, err := f.d.Weights.Weight(f.s, alice)
	require.NoError(t, err)
	assert.Equal(t, Weight(100), w)

	f.mintTokens(alice, 10_000)
	w, err = f.d.Weights.Weight(f.s, alice)
	require.NoError(t, err)
	assert.Equal(t, Weight(300), w)
	assert.Equal(t, "3.00", w.String())

	// holders that are not members have no weight at all
	f.mintTokens(bob, 10_000)
	_, err = f.d.Weights.Weight(f.s, bob)
	require.ErrorIs(t, err, ErrNotAMember)
}

func TestRewardFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint256.NewInt(200), RewardFor(ether(2), 100))
	assert.Equal(t, uint256.NewInt(0), RewardFor(uint256.NewInt(1), 100))
	half := new(uint256.Int).Div(ValueUnit, uint256.NewInt(2))
	assert.Equal(t, uint256.NewInt(50), RewardFor(half, 100))
}
