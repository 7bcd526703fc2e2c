package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type ProjectStatus uint8

const (
	ProjectStatusPending        ProjectStatus = 0
	ProjectStatusFundraising    ProjectStatus = 1
	ProjectStatusPendingRelease ProjectStatus = 2
	ProjectStatusCompleted      ProjectStatus = 3
	ProjectStatusRejected       ProjectStatus = 4
)

func (s ProjectStatus) String() string {
	switch s {
	case ProjectStatusPending:
		return "pending"
	case ProjectStatusFundraising:
		return "fundraising"
	case ProjectStatusPendingRelease:
		return "pending_release"
	case ProjectStatusCompleted:
		return "completed"
	case ProjectStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (s ProjectStatus) Terminal() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusRejected
}

type Project struct {
	Address                common.Address `json:"address"`
	Index                  uint64         `json:"index"`
	Name                   string         `json:"name"`
	Description            string         `json:"description"`
	AuditMaterials         string         `json:"audit_materials"`
	ReleaseRequest         string         `json:"release_request"`
	Owner                  common.Address `json:"owner"`
	TargetAmount           *uint256.Int   `json:"target_amount"`
	RaisedAmount           *uint256.Int   `json:"raised_amount"`
	PendingDisbursement    *uint256.Int   `json:"pending_disbursement"`
	ReleasedAmount         *uint256.Int   `json:"released_amount"`
	CreatedAt              int64          `json:"created_at"`
	Deadline               int64          `json:"deadline"`
	Status                 ProjectStatus  `json:"status"`
	ApprovalProposalID     uint64         `json:"approval_proposal_id"`
	FundsReleaseProposalID uint64         `json:"funds_release_proposal_id"`
}

func (p *Project) Clone() *Project {
	n := *p
	n.TargetAmount = cloneAmount(p.TargetAmount)
	n.RaisedAmount = cloneAmount(p.RaisedAmount)
	n.PendingDisbursement = cloneAmount(p.PendingDisbursement)
	n.ReleasedAmount = cloneAmount(p.ReleasedAmount)
	return &n
}

// Normalize replaces missing amounts with zero.
func (p *Project) Normalize() {
	if p.TargetAmount == nil {
		p.TargetAmount = new(uint256.Int)
	}
	if p.RaisedAmount == nil {
		p.RaisedAmount = new(uint256.Int)
	}
	if p.PendingDisbursement == nil {
		p.PendingDisbursement = new(uint256.Int)
	}
	if p.ReleasedAmount == nil {
		p.ReleasedAmount = new(uint256.Int)
	}
}

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}

type Donation struct {
	Donor    common.Address `json:"donor"`
	Amount   *uint256.Int   `json:"amount"`
	Refunded bool           `json:"refunded"`
}
