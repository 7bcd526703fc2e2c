package dao

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/holiman/uint256"
)

// ModuleAddress is the identity the DAO acts as: it derives project
// addresses and mints donation rewards.
var ModuleAddress = common.BytesToAddress(crypto.Keccak256([]byte("charity-dao/module"))[12:])

const (
	DefaultRequiredQuorum   = 1
	DefaultRequiredMajority = 51
	DefaultBaseWeight       = Weight(100)
	DefaultMaxWeight        = Weight(300)
	DefaultVotingPeriod     = uint64(7 * 24 * time.Hour / time.Second)
	DefaultRewardRatio      = 100
)

var DefaultTokenWeightThreshold = uint256.NewInt(10_000)

// Params are fixed at genesis.
type Params struct {
	// RequiredQuorum is in whole weight units: 1 means a cast weight of 1.00.
	RequiredQuorum       uint64         `json:"required_quorum" validate:"required,min=1"`
	RequiredMajority     uint64         `json:"required_majority" validate:"required,min=1,max=100"`
	BaseVotingWeight     Weight         `json:"base_voting_weight" validate:"required"`
	MaxVotingWeight      Weight         `json:"max_voting_weight" validate:"required,gtefield=BaseVotingWeight"`
	TokenWeightThreshold *uint256.Int   `json:"token_weight_threshold" validate:"required"`
	VotingPeriod         uint64         `json:"voting_period" validate:"required"`
	RewardRatio          uint64         `json:"reward_ratio"`
	RewardMinter         common.Address `json:"reward_minter"`
}

func DefaultParams() Params {
	return Params{
		RequiredQuorum:       DefaultRequiredQuorum,
		RequiredMajority:     DefaultRequiredMajority,
		BaseVotingWeight:     DefaultBaseWeight,
		MaxVotingWeight:      DefaultMaxWeight,
		TokenWeightThreshold: DefaultTokenWeightThreshold.Clone(),
		VotingPeriod:         DefaultVotingPeriod,
		RewardRatio:          DefaultRewardRatio,
		RewardMinter:         ModuleAddress,
	}
}

var validate = validator.New()

func (p *Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.TokenWeightThreshold.IsZero() {
		return fmt.Errorf("%w: token weight threshold must be positive", ErrInvalidParams)
	}
	return nil
}

// QuorumWeight is the quorum expressed as a Weight.
func (p Params) QuorumWeight() Weight {
	return WholeWeight(p.RequiredQuorum)
}

func (p Params) VotingWindow() time.Duration {
	return time.Duration(p.VotingPeriod) * time.Second
}
