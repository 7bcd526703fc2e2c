package dao

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// WeightCalculator derives a member's voting weight from its token balance.
type WeightCalculator struct {
	base      Weight
	max       Weight
	threshold *uint256.Int

	members *MembershipRegistry
	token   *TokenLedger
}

func NewWeightCalculator(params Params, members *MembershipRegistry, token *TokenLedger) *WeightCalculator {
	return &WeightCalculator{
		base:      params.BaseVotingWeight,
		max:       params.MaxVotingWeight,
		threshold: params.TokenWeightThreshold.Clone(),
		members:   members,
		token:     token,
	}
}

// Weight fails with ErrNotAMember for non-members.
func (c *WeightCalculator) Weight(s Store, member common.Address) (Weight, error) {
	ok, err := c.members.IsMember(s, member)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s has no voting weight", ErrNotAMember, member.Hex())
	}
	bal, err := c.token.BalanceOf(s, member)
	if err != nil {
		return 0, err
	}
	return ComputeWeight(bal, c.threshold, c.base, c.max), nil
}

// ComputeWeight returns base plus a bonus growing linearly with balance up to
// max-base, reached once balance >= threshold. The bonus is floored.
func ComputeWeight(balance, threshold *uint256.Int, base, max Weight) Weight {
	if max <= base {
		return base
	}
	if threshold.IsZero() || !balance.Lt(threshold) {
		return max
	}
	span := uint256.NewInt(uint64(max - base))
	bonus, _ := new(uint256.Int).MulDivOverflow(span, balance, threshold)
	return base + Weight(bonus.Uint64())
}
