package dao

import (
	"fmt"

	"github.com/calehh/charity-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

// OutcomeHandler receives the result of an executed proposal.
type OutcomeHandler interface {
	ApplyOutcome(ctx *Context, project common.Address, kind types.ProposalType, passed bool) error
}

// ProposalEngine owns proposals and their votes. A proposal is Open until it
// is executed, either by the vote that decides it or by an explicit Execute
// once the deadline passed.
type ProposalEngine struct {
	logger cmtlog.Logger

	rules     Rules
	window    int64
	maxWeight Weight

	members *MembershipRegistry
	weights *WeightCalculator
	outcome OutcomeHandler
}

func NewProposalEngine(params Params, members *MembershipRegistry, weights *WeightCalculator, logger cmtlog.Logger) *ProposalEngine {
	return &ProposalEngine{
		logger: logger.With("module", "proposals"),
		rules: Rules{
			Quorum:   params.QuorumWeight(),
			Majority: params.RequiredMajority,
		},
		window:    int64(params.VotingPeriod),
		maxWeight: params.MaxVotingWeight,
		members:   members,
		weights:   weights,
	}
}

func (e *ProposalEngine) SetOutcomeHandler(h OutcomeHandler) {
	e.outcome = h
}

func (e *ProposalEngine) Rules() Rules {
	return e.rules
}

func (e *ProposalEngine) Count(s Store) (uint64, error) {
	return getUint64(s, []byte(KeyProposalIndex))
}

func (e *ProposalEngine) Proposal(s Store, id uint64) (*types.Proposal, error) {
	p := new(types.Proposal)
	found, err := getJSON(s, key(KeyProposalBody, id), p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrProposalNotFound, id)
	}
	return p, nil
}

// Proposals returns proposals in id order.
func (e *ProposalEngine) Proposals(s Store, offset, limit int) ([]*types.Proposal, error) {
	count, err := e.Count(s)
	if err != nil {
		return nil, err
	}
	start, end := page(offset, limit, int(count))
	res := make([]*types.Proposal, 0, end-start)
	for i := start; i < end; i++ {
		p, err := e.Proposal(s, uint64(i+1))
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// ProposalFor returns the id of the proposal of the given type for a project,
// or 0.
func (e *ProposalEngine) ProposalFor(s Store, project common.Address, kind types.ProposalType) (uint64, error) {
	return getUint64(s, key(KeyProjectProposal, project.Bytes(), uint8(kind)))
}

// MemberVote returns VoteNone with zero weight when the member did not vote.
func (e *ProposalEngine) MemberVote(s Store, id uint64, member common.Address) (rec types.VoteRecord, err error) {
	if _, err = e.Proposal(s, id); err != nil {
		return
	}
	_, err = getJSON(s, key(KeyProposalVote, id, member.Bytes()), &rec)
	return
}

func (e *ProposalEngine) MemberVoteWeight(s Store, id uint64, member common.Address) (Weight, error) {
	rec, err := e.MemberVote(s, id, member)
	if err != nil {
		return 0, err
	}
	return Weight(rec.Weight), nil
}

// Create opens a proposal for a project. Only the project lifecycle calls it.
func (e *ProposalEngine) Create(ctx *Context, kind types.ProposalType, project common.Address) (id uint64, err error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: proposal type %d", ErrInvalidArgument, kind)
	}
	existing, err := e.ProposalFor(ctx.Store, project, kind)
	if err != nil {
		return 0, err
	}
	if existing != 0 {
		return 0, fmt.Errorf("%w: project %s already has %s proposal %d", ErrInvalidState, project.Hex(), kind, existing)
	}
	count, err := e.Count(ctx.Store)
	if err != nil {
		return 0, err
	}
	id = count + 1
	p := &types.Proposal{
		ID:             id,
		Project:        project,
		Type:           kind,
		CreatedAt:      ctx.Now(),
		VotingDeadline: ctx.Now() + e.window,
	}
	if err = setJSON(ctx.Store, key(KeyProposalBody, id), p); err != nil {
		return 0, err
	}
	if err = setUint64(ctx.Store, []byte(KeyProposalIndex), id); err != nil {
		return 0, err
	}
	if err = setUint64(ctx.Store, key(KeyProjectProposal, project.Bytes(), uint8(kind)), id); err != nil {
		return 0, err
	}
	e.logger.Info("proposal created", "proposal", id, "type", kind, "project", project.Hex())
	ctx.EmitEvent(types.EncodeEventProposalCreated(&types.EventProposalCreated{
		Proposal:       id,
		Project:        project,
		Type:           kind,
		CreatedAt:      p.CreatedAt,
		VotingDeadline: p.VotingDeadline,
	}))
	return id, nil
}

func (e *ProposalEngine) Vote(ctx *Context, id uint64, choice types.VoteOption) error {
	ok, err := e.members.IsMember(ctx.Store, ctx.Caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: address is not a member", ErrUnauthorized)
	}
	if choice != types.VoteApprove && choice != types.VoteReject {
		return fmt.Errorf("%w: vote option %d", ErrInvalidArgument, choice)
	}
	p, err := e.Proposal(ctx.Store, id)
	if err != nil {
		return err
	}
	if p.Executed {
		return fmt.Errorf("%w: %d", ErrAlreadyExecuted, id)
	}
	voteKey := key(KeyProposalVote, id, ctx.Caller.Bytes())
	prev, err := ctx.Store.Get(voteKey)
	if err != nil {
		return err
	}
	if prev != nil {
		return fmt.Errorf("%w: %s on proposal %d", ErrDuplicateVote, ctx.Caller.Hex(), id)
	}
	weight, err := e.weights.Weight(ctx.Store, ctx.Caller)
	if err != nil {
		return err
	}

	if choice == types.VoteApprove {
		p.WeightedYes += uint64(weight)
	} else {
		p.WeightedNo += uint64(weight)
	}
	if err = setJSON(ctx.Store, voteKey, types.VoteRecord{Choice: choice, Weight: uint64(weight)}); err != nil {
		return err
	}
	if err = setJSON(ctx.Store, key(KeyProposalBody, id), p); err != nil {
		return err
	}
	e.logger.Info("voted", "proposal", id, "voter", ctx.Caller.Hex(), "choice", choice, "weight", weight)
	ctx.EmitEvent(types.EncodeEventVoted(&types.EventVoted{
		Proposal: id,
		Voter:    ctx.Caller,
		Approved: choice == types.VoteApprove,
		Weight:   uint64(weight),
	}))

	_, err = e.tryExecute(ctx, p)
	return err
}

// Execute finalizes a proposal. It fails with ErrVotingOpen while the outcome
// is undecided and the deadline has not passed.
func (e *ProposalEngine) Execute(ctx *Context, id uint64) error {
	p, err := e.Proposal(ctx.Store, id)
	if err != nil {
		return err
	}
	if p.Executed {
		return fmt.Errorf("%w: %d", ErrAlreadyExecuted, id)
	}
	executed, err := e.tryExecute(ctx, p)
	if err != nil {
		return err
	}
	if !executed {
		return fmt.Errorf("%w: proposal %d until %d", ErrVotingOpen, id, p.VotingDeadline)
	}
	return nil
}

// Decide evaluates a stored proposal at the context time without mutating it.
func (e *ProposalEngine) Decide(s Store, p *types.Proposal, now int64) (Decision, error) {
	outstanding, err := e.outstanding(s, p.ID)
	if err != nil {
		return Undecided, err
	}
	tally := Tally{Yes: Weight(p.WeightedYes), No: Weight(p.WeightedNo)}
	return e.rules.Evaluate(tally, outstanding, now >= p.VotingDeadline), nil
}

func (e *ProposalEngine) tryExecute(ctx *Context, p *types.Proposal) (bool, error) {
	decision, err := e.Decide(ctx.Store, p, ctx.Now())
	if err != nil {
		return false, err
	}
	if decision == Undecided {
		return false, nil
	}
	p.Executed = true
	p.Passed = decision == DecidedPass
	p.ExecutedAt = ctx.Now()
	if err = setJSON(ctx.Store, key(KeyProposalBody, p.ID), p); err != nil {
		return false, err
	}
	e.logger.Info("proposal executed", "proposal", p.ID, "passed", p.Passed,
		"yes", Weight(p.WeightedYes), "no", Weight(p.WeightedNo))
	ctx.EmitEvent(types.EncodeEventProposalExecuted(&types.EventProposalExecuted{
		Proposal:    p.ID,
		Passed:      p.Passed,
		WeightedYes: p.WeightedYes,
		WeightedNo:  p.WeightedNo,
	}))
	if e.outcome != nil {
		if err = e.outcome.ApplyOutcome(ctx, p.Project, p.Type, p.Passed); err != nil {
			return false, err
		}
	}
	return true, nil
}

// outstanding is the weight members without a recorded vote could still cast.
func (e *ProposalEngine) outstanding(s Store, id uint64) (Weight, error) {
	members, err := e.members.all(s)
	if err != nil {
		return 0, err
	}
	var pending uint64
	for _, m := range members {
		val, err := s.Get(key(KeyProposalVote, id, m.Bytes()))
		if err != nil {
			return 0, err
		}
		if val == nil {
			pending++
		}
	}
	return Weight(pending) * e.maxWeight, nil
}
