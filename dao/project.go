package dao

import (
	"fmt"

	"github.com/calehh/charity-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	MaxNameLength = 128
	MaxTextLength = 8192
)

type RegisterProject struct {
	Name           string
	Description    string
	AuditMaterials string
	TargetAmount   *uint256.Int
	// Duration is the fundraising duration in seconds.
	Duration uint64
}

// ProjectLifecycle owns project records. Status only changes through
// ApplyOutcome, which the proposal engine calls on execution.
type ProjectLifecycle struct {
	logger cmtlog.Logger

	rewardRatio  uint64
	rewardMinter common.Address

	proposals *ProposalEngine
	token     *TokenLedger
	vault     Vault
}

var _ OutcomeHandler = (*ProjectLifecycle)(nil)

func NewProjectLifecycle(params Params, proposals *ProposalEngine, token *TokenLedger, vault Vault, logger cmtlog.Logger) *ProjectLifecycle {
	return &ProjectLifecycle{
		logger:       logger.With("module", "projects"),
		rewardRatio:  params.RewardRatio,
		rewardMinter: params.RewardMinter,
		proposals:    proposals,
		token:        token,
		vault:        vault,
	}
}

func (l *ProjectLifecycle) Count(s Store) (uint64, error) {
	return getUint64(s, []byte(KeyProjectIndex))
}

func (l *ProjectLifecycle) Project(s Store, addr common.Address) (*types.Project, error) {
	p := new(types.Project)
	found, err := getJSON(s, key(KeyProjectBody, addr.Bytes()), p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, addr.Hex())
	}
	p.Normalize()
	return p, nil
}

// Projects returns projects in registration order.
func (l *ProjectLifecycle) Projects(s Store, offset, limit int) ([]*types.Project, error) {
	count, err := l.Count(s)
	if err != nil {
		return nil, err
	}
	start, end := page(offset, limit, int(count))
	res := make([]*types.Project, 0, end-start)
	for i := start; i < end; i++ {
		addr, found, err := getAddress(s, key(KeyProjectByIndex, uint64(i)))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: index %d", ErrProjectNotFound, i)
		}
		p, err := l.Project(s, addr)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

func (l *ProjectLifecycle) DonationOf(s Store, project, donor common.Address) (*uint256.Int, error) {
	return getAmount(s, key(KeyDonation, project.Bytes(), donor.Bytes()))
}

func (l *ProjectLifecycle) DonorCount(s Store, project common.Address) (uint64, error) {
	return getUint64(s, key(KeyDonorCount, project.Bytes()))
}

// Donors returns donation records in the order donors first gave.
func (l *ProjectLifecycle) Donors(s Store, project common.Address, offset, limit int) ([]types.Donation, error) {
	if _, err := l.Project(s, project); err != nil {
		return nil, err
	}
	count, err := l.DonorCount(s, project)
	if err != nil {
		return nil, err
	}
	start, end := page(offset, limit, int(count))
	res := make([]types.Donation, 0, end-start)
	for i := start; i < end; i++ {
		donor, _, err := getAddress(s, key(KeyDonorByIndex, project.Bytes(), uint64(i)))
		if err != nil {
			return nil, err
		}
		amount, err := l.DonationOf(s, project, donor)
		if err != nil {
			return nil, err
		}
		refunded, err := s.Get(key(KeyRefund, project.Bytes(), donor.Bytes()))
		if err != nil {
			return nil, err
		}
		res = append(res, types.Donation{Donor: donor, Amount: amount, Refunded: refunded != nil})
	}
	return res, nil
}

// Register creates a Pending project owned by the caller together with its
// approval proposal.
func (l *ProjectLifecycle) Register(ctx *Context, req RegisterProject) (common.Address, error) {
	if req.Name == "" || len(req.Name) > MaxNameLength {
		return common.Address{}, fmt.Errorf("%w: project name length %d", ErrInvalidArgument, len(req.Name))
	}
	if len(req.Description) > MaxTextLength || len(req.AuditMaterials) > MaxTextLength {
		return common.Address{}, fmt.Errorf("%w: project text too long", ErrInvalidArgument)
	}
	if req.TargetAmount == nil || req.TargetAmount.IsZero() {
		return common.Address{}, fmt.Errorf("%w: target amount must be positive", ErrInvalidArgument)
	}
	index, err := l.Count(ctx.Store)
	if err != nil {
		return common.Address{}, err
	}
	addr := crypto.CreateAddress(ModuleAddress, index)
	p := &types.Project{
		Address:        addr,
		Index:          index,
		Name:           req.Name,
		Description:    req.Description,
		AuditMaterials: req.AuditMaterials,
		Owner:          ctx.Caller,
		TargetAmount:   req.TargetAmount.Clone(),
		CreatedAt:      ctx.Now(),
		Deadline:       ctx.Now() + int64(req.Duration),
		Status:         types.ProjectStatusPending,
	}
	p.Normalize()
	if err = ctx.Store.Set(key(KeyProjectByIndex, index), addr.Bytes()); err != nil {
		return common.Address{}, err
	}
	if err = setUint64(ctx.Store, []byte(KeyProjectIndex), index+1); err != nil {
		return common.Address{}, err
	}
	id, err := l.proposals.Create(ctx, types.ProposalTypeProjectApproval, addr)
	if err != nil {
		return common.Address{}, err
	}
	p.ApprovalProposalID = id
	if err = l.save(ctx.Store, p); err != nil {
		return common.Address{}, err
	}
	ctx.EmitEvent(types.EncodeEventProjectCreated(&types.EventProjectCreated{
		Project:          addr,
		Owner:            p.Owner,
		Name:             p.Name,
		TargetAmount:     p.TargetAmount.Clone(),
		Deadline:         p.Deadline,
		ApprovalProposal: id,
	}))
	l.logger.Info("project registered", "project", addr.Hex(), "owner", p.Owner.Hex(), "proposal", id)
	return addr, nil
}

func (l *ProjectLifecycle) UpdateAuditMaterials(ctx *Context, addr common.Address, materials string) error {
	p, err := l.Project(ctx.Store, addr)
	if err != nil {
		return err
	}
	if ctx.Caller != p.Owner {
		return fmt.Errorf("%w: only the project owner can update audit materials", ErrUnauthorized)
	}
	if p.Status.Terminal() {
		return fmt.Errorf("%w: project is %s", ErrInvalidState, p.Status)
	}
	if len(materials) > MaxTextLength {
		return fmt.Errorf("%w: audit materials too long", ErrInvalidArgument)
	}
	p.AuditMaterials = materials
	return l.save(ctx.Store, p)
}

// Donate moves the caller's value into project custody. The token reward is
// best effort: a failed mint leaves the donation in place.
func (l *ProjectLifecycle) Donate(ctx *Context, addr common.Address, amount *uint256.Int) error {
	p, err := l.Project(ctx.Store, addr)
	if err != nil {
		return err
	}
	if p.Status != types.ProjectStatusFundraising {
		return fmt.Errorf("%w: project is %s, not fundraising", ErrInvalidState, p.Status)
	}
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: donation must be positive", ErrInvalidArgument)
	}
	raised, overflow := new(uint256.Int).AddOverflow(p.RaisedAmount, amount)
	if overflow {
		return fmt.Errorf("%w: raised amount overflow", ErrInvalidArgument)
	}
	donor := ctx.Caller
	prev, err := l.DonationOf(ctx.Store, addr, donor)
	if err != nil {
		return err
	}
	if err = l.vault.Deposit(ctx, donor, addr, amount); err != nil {
		return err
	}
	if prev.IsZero() {
		n, err := l.DonorCount(ctx.Store, addr)
		if err != nil {
			return err
		}
		if err = ctx.Store.Set(key(KeyDonorByIndex, addr.Bytes(), n), donor.Bytes()); err != nil {
			return err
		}
		if err = setUint64(ctx.Store, key(KeyDonorCount, addr.Bytes()), n+1); err != nil {
			return err
		}
	}
	total := new(uint256.Int).Add(prev, amount)
	if err = setAmount(ctx.Store, key(KeyDonation, addr.Bytes(), donor.Bytes()), total); err != nil {
		return err
	}
	p.RaisedAmount = raised
	if err = l.save(ctx.Store, p); err != nil {
		return err
	}
	ctx.EmitEvent(types.EncodeEventDonationReceived(&types.EventValueMoved{
		Project: addr,
		Account: donor,
		Amount:  amount.Clone(),
		Total:   raised.Clone(),
	}))
	l.logger.Info("donation received", "project", addr.Hex(), "donor", donor.Hex(), "amount", amount.Dec())

	reward := RewardFor(amount, l.rewardRatio)
	if reward.IsZero() {
		return nil
	}
	if err := l.token.Mint(ctx.WithCaller(l.rewardMinter), donor, reward); err != nil {
		l.logger.Info("token reward skipped", "donor", donor.Hex(), "reward", reward.Dec(), "err", err)
		return nil
	}
	ctx.EmitEvent(types.EncodeEventTokenRewarded(&types.EventTokenRewarded{Donor: donor, Amount: reward}))
	return nil
}

// RequestFundsRelease moves a fundraising project to PendingRelease and opens
// its funds release proposal. statement is stored as given.
func (l *ProjectLifecycle) RequestFundsRelease(ctx *Context, addr common.Address, statement string) error {
	p, err := l.Project(ctx.Store, addr)
	if err != nil {
		return err
	}
	if ctx.Caller != p.Owner {
		return fmt.Errorf("%w: only the project owner can request a release", ErrUnauthorized)
	}
	if p.Status != types.ProjectStatusFundraising {
		return fmt.Errorf("%w: project is %s, not fundraising", ErrInvalidState, p.Status)
	}
	if len(statement) > MaxTextLength {
		return fmt.Errorf("%w: release statement too long", ErrInvalidArgument)
	}
	id, err := l.proposals.Create(ctx, types.ProposalTypeFundsRelease, addr)
	if err != nil {
		return err
	}
	p.ReleaseRequest = statement
	p.FundsReleaseProposalID = id
	return l.setStatus(ctx, p, types.ProjectStatusPendingRelease)
}

func (l *ProjectLifecycle) ApplyOutcome(ctx *Context, addr common.Address, kind types.ProposalType, passed bool) error {
	p, err := l.Project(ctx.Store, addr)
	if err != nil {
		return err
	}
	switch kind {
	case types.ProposalTypeProjectApproval:
		if p.Status != types.ProjectStatusPending {
			return fmt.Errorf("%w: approval outcome for %s project", ErrInvalidState, p.Status)
		}
		if passed {
			return l.setStatus(ctx, p, types.ProjectStatusFundraising)
		}
		return l.setStatus(ctx, p, types.ProjectStatusRejected)
	case types.ProposalTypeFundsRelease:
		if p.Status != types.ProjectStatusPendingRelease {
			return fmt.Errorf("%w: release outcome for %s project", ErrInvalidState, p.Status)
		}
		if !passed {
			return l.setStatus(ctx, p, types.ProjectStatusRejected)
		}
		custody, err := l.vault.Balance(ctx.Store, addr)
		if err != nil {
			return err
		}
		p.PendingDisbursement = custody
		if err = l.setStatus(ctx, p, types.ProjectStatusCompleted); err != nil {
			return err
		}
		if err = l.disburse(ctx, p); err != nil {
			l.logger.Error("disbursement deferred", "project", addr.Hex(), "amount", custody.Dec(), "err", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: proposal type %d", ErrInvalidArgument, kind)
	}
}

// ReleaseFunds retries a disbursement that failed when the release passed.
func (l *ProjectLifecycle) ReleaseFunds(ctx *Context, addr common.Address) error {
	p, err := l.Project(ctx.Store, addr)
	if err != nil {
		return err
	}
	if p.Status != types.ProjectStatusCompleted || p.PendingDisbursement.IsZero() {
		return fmt.Errorf("%w: no pending disbursement for %s", ErrInvalidState, addr.Hex())
	}
	return l.disburse(ctx, p)
}

// ClaimRefund returns the caller's donation from a rejected project. Each
// donor can claim once; the donation record itself is kept.
func (l *ProjectLifecycle) ClaimRefund(ctx *Context, addr common.Address) error {
	p, err := l.Project(ctx.Store, addr)
	if err != nil {
		return err
	}
	if p.Status != types.ProjectStatusRejected {
		return fmt.Errorf("%w: refunds need a rejected project, project is %s", ErrInvalidState, p.Status)
	}
	donor := ctx.Caller
	amount, err := l.DonationOf(ctx.Store, addr, donor)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return fmt.Errorf("%w: no donation from %s", ErrNotFound, donor.Hex())
	}
	refundKey := key(KeyRefund, addr.Bytes(), donor.Bytes())
	done, err := ctx.Store.Get(refundKey)
	if err != nil {
		return err
	}
	if done != nil {
		return fmt.Errorf("%w: refund already claimed", ErrInvalidState)
	}
	if err = l.vault.Disburse(ctx, addr, donor, amount); err != nil {
		return err
	}
	if err = ctx.Store.Set(refundKey, []byte{1}); err != nil {
		return err
	}
	l.logger.Info("refund claimed", "project", addr.Hex(), "donor", donor.Hex(), "amount", amount.Dec())
	ctx.EmitEvent(types.EncodeEventRefundClaimed(&types.EventValueMoved{
		Project: addr,
		Account: donor,
		Amount:  amount,
		Total:   amount.Clone(),
	}))
	return nil
}

func (l *ProjectLifecycle) disburse(ctx *Context, p *types.Project) error {
	amount := p.PendingDisbursement.Clone()
	if amount.IsZero() {
		return nil
	}
	if err := l.vault.Disburse(ctx, p.Address, p.Owner, amount); err != nil {
		return err
	}
	p.PendingDisbursement = new(uint256.Int)
	p.ReleasedAmount = new(uint256.Int).Add(p.ReleasedAmount, amount)
	if err := l.save(ctx.Store, p); err != nil {
		return err
	}
	l.logger.Info("funds released", "project", p.Address.Hex(), "owner", p.Owner.Hex(), "amount", amount.Dec())
	ctx.EmitEvent(types.EncodeEventFundsReleased(&types.EventValueMoved{
		Project: p.Address,
		Account: p.Owner,
		Amount:  amount,
		Total:   p.ReleasedAmount.Clone(),
	}))
	return nil
}

func (l *ProjectLifecycle) setStatus(ctx *Context, p *types.Project, status types.ProjectStatus) error {
	from := p.Status
	p.Status = status
	if err := l.save(ctx.Store, p); err != nil {
		return err
	}
	l.logger.Info("project status changed", "project", p.Address.Hex(), "from", from, "to", status)
	ctx.EmitEvent(types.EncodeEventProjectStatusChanged(&types.EventProjectStatusChanged{
		Project: p.Address,
		From:    from,
		To:      status,
	}))
	return nil
}

func (l *ProjectLifecycle) save(s Store, p *types.Project) error {
	return setJSON(s, key(KeyProjectBody, p.Address.Bytes()), p)
}
