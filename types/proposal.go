package types

import (
	"github.com/ethereum/go-ethereum/common"
)

type ProposalType uint8

const (
	ProposalTypeProjectApproval ProposalType = 0
	ProposalTypeFundsRelease    ProposalType = 1
)

func (t ProposalType) String() string {
	switch t {
	case ProposalTypeProjectApproval:
		return "project_approval"
	case ProposalTypeFundsRelease:
		return "funds_release"
	default:
		return "unknown"
	}
}

func (t ProposalType) Valid() bool {
	return t == ProposalTypeProjectApproval || t == ProposalTypeFundsRelease
}

type VoteOption uint8

const (
	VoteNone    VoteOption = 0
	VoteApprove VoteOption = 1
	VoteReject  VoteOption = 2
)

func (v VoteOption) String() string {
	switch v {
	case VoteApprove:
		return "approve"
	case VoteReject:
		return "reject"
	default:
		return "none"
	}
}

// Proposal is the stored record of a governance decision. Weights use the
// fixed-point scale of the dao package (100 == 1.00).
type Proposal struct {
	ID             uint64         `json:"id"`
	Project        common.Address `json:"project"`
	Type           ProposalType   `json:"type"`
	CreatedAt      int64          `json:"created_at"`
	VotingDeadline int64          `json:"voting_deadline"`
	WeightedYes    uint64         `json:"weighted_yes"`
	WeightedNo     uint64         `json:"weighted_no"`
	Executed       bool           `json:"executed"`
	Passed         bool           `json:"passed"`
	ExecutedAt     int64          `json:"executed_at"`
}

func (p *Proposal) Clone() *Proposal {
	n := *p
	return &n
}

type VoteRecord struct {
	Choice VoteOption `json:"choice"`
	Weight uint64     `json:"weight"`
}

// ProposalInfo joins a proposal with the project it decides on.
type ProposalInfo struct {
	Proposal
	ProjectName  string         `json:"project_name"`
	ProjectOwner common.Address `json:"project_owner"`
}
