package types

import (
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	EventMemberAddedType          = "member_added"
	EventMemberRemovedType        = "member_removed"
	EventAdminTransferredType     = "admin_transferred"
	EventProposalCreatedType      = "proposal_created"
	EventVotedType                = "voted"
	EventProposalExecutedType     = "proposal_executed"
	EventProjectCreatedType       = "project_created"
	EventProjectStatusChangedType = "project_status_changed"
	EventDonationReceivedType     = "donation_received"
	EventTokenRewardedType        = "token_rewarded"
	EventFundsReleasedType        = "funds_released"
	EventRefundClaimedType        = "refund_claimed"
	EventTokenTransferType        = "token_transfer"
	EventTokenApprovalType        = "token_approval"
	EventRoleGrantedType          = "role_granted"
	EventRoleRevokedType          = "role_revoked"
)

func attr(key, value string, index bool) abci.EventAttribute {
	return abci.EventAttribute{Key: key, Value: value, Index: index}
}

func parseAddress(v string) (common.Address, bool) {
	if !common.IsHexAddress(v) {
		return common.Address{}, false
	}
	return common.HexToAddress(v), true
}

func parseAmount(v string) (*uint256.Int, bool) {
	n, err := uint256.FromDecimal(v)
	if err != nil {
		return nil, false
	}
	return n, true
}

func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

type EventMember struct {
	Member common.Address `json:"member"`
	Count  uint64         `json:"count"`
}

func EncodeEventMemberAdded(event *EventMember) abci.Event {
	return encodeEventMember(EventMemberAddedType, event)
}

func EncodeEventMemberRemoved(event *EventMember) abci.Event {
	return encodeEventMember(EventMemberRemovedType, event)
}

func encodeEventMember(tp string, event *EventMember) abci.Event {
	return abci.Event{
		Type: tp,
		Attributes: []abci.EventAttribute{
			attr("member", event.Member.Hex(), true),
			attr("count", fmt.Sprintf("%v", event.Count), false),
		},
	}
}

func DecodeEventMember(originEvent abci.Event) *EventMember {
	event := &EventMember{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "member":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Member = addr
		case "count":
			count, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Count = count
		}
	}
	return event
}

type EventAdminTransferred struct {
	Previous common.Address `json:"previous"`
	Admin    common.Address `json:"admin"`
}

func EncodeEventAdminTransferred(event *EventAdminTransferred) abci.Event {
	return abci.Event{
		Type: EventAdminTransferredType,
		Attributes: []abci.EventAttribute{
			attr("previous", event.Previous.Hex(), false),
			attr("admin", event.Admin.Hex(), true),
		},
	}
}

func DecodeEventAdminTransferred(originEvent abci.Event) *EventAdminTransferred {
	event := &EventAdminTransferred{}
	for _, v := range originEvent.Attributes {
		addr, ok := parseAddress(v.Value)
		switch v.Key {
		case "previous":
			if !ok {
				return nil
			}
			event.Previous = addr
		case "admin":
			if !ok {
				return nil
			}
			event.Admin = addr
		}
	}
	return event
}

type EventProposalCreated struct {
	Proposal       uint64         `json:"proposal"`
	Project        common.Address `json:"project"`
	Type           ProposalType   `json:"type"`
	CreatedAt      int64          `json:"createdAt"`
	VotingDeadline int64          `json:"votingDeadline"`
}

func EncodeEventProposalCreated(event *EventProposalCreated) abci.Event {
	return abci.Event{
		Type: EventProposalCreatedType,
		Attributes: []abci.EventAttribute{
			attr("proposal", fmt.Sprintf("%v", event.Proposal), true),
			attr("project", event.Project.Hex(), true),
			attr("type", fmt.Sprintf("%v", uint8(event.Type)), false),
			attr("createdAt", fmt.Sprintf("%v", event.CreatedAt), false),
			attr("votingDeadline", fmt.Sprintf("%v", event.VotingDeadline), false),
		},
	}
}

func DecodeEventProposalCreated(originEvent abci.Event) *EventProposalCreated {
	event := &EventProposalCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "project":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Project = addr
		case "type":
			tp, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.Type = ProposalType(tp)
		case "createdAt":
			ts, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.CreatedAt = ts
		case "votingDeadline":
			ts, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.VotingDeadline = ts
		}
	}
	return event
}

type EventVoted struct {
	Proposal uint64         `json:"proposal"`
	Voter    common.Address `json:"voter"`
	Approved bool           `json:"approved"`
	Weight   uint64         `json:"weight"`
}

func EncodeEventVoted(event *EventVoted) abci.Event {
	return abci.Event{
		Type: EventVotedType,
		Attributes: []abci.EventAttribute{
			attr("proposal", fmt.Sprintf("%v", event.Proposal), true),
			attr("voter", event.Voter.Hex(), true),
			attr("approved", strconv.FormatBool(event.Approved), false),
			attr("weight", fmt.Sprintf("%v", event.Weight), false),
		},
	}
}

func DecodeEventVoted(originEvent abci.Event) *EventVoted {
	event := &EventVoted{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "voter":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Voter = addr
		case "approved":
			approved, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Approved = approved
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

type EventProposalExecuted struct {
	Proposal    uint64 `json:"proposal"`
	Passed      bool   `json:"passed"`
	WeightedYes uint64 `json:"weightedYes"`
	WeightedNo  uint64 `json:"weightedNo"`
}

func EncodeEventProposalExecuted(event *EventProposalExecuted) abci.Event {
	return abci.Event{
		Type: EventProposalExecutedType,
		Attributes: []abci.EventAttribute{
			attr("proposal", fmt.Sprintf("%v", event.Proposal), true),
			attr("passed", strconv.FormatBool(event.Passed), false),
			attr("weightedYes", fmt.Sprintf("%v", event.WeightedYes), false),
			attr("weightedNo", fmt.Sprintf("%v", event.WeightedNo), false),
		},
	}
}

func DecodeEventProposalExecuted(originEvent abci.Event) *EventProposalExecuted {
	event := &EventProposalExecuted{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "passed":
			passed, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Passed = passed
		case "weightedYes":
			yes, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.WeightedYes = yes
		case "weightedNo":
			no, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.WeightedNo = no
		}
	}
	return event
}

type EventProjectCreated struct {
	Project          common.Address `json:"project"`
	Owner            common.Address `json:"owner"`
	Name             string         `json:"name"`
	TargetAmount     *uint256.Int   `json:"targetAmount"`
	Deadline         int64          `json:"deadline"`
	ApprovalProposal uint64         `json:"approvalProposal"`
}

func EncodeEventProjectCreated(event *EventProjectCreated) abci.Event {
	return abci.Event{
		Type: EventProjectCreatedType,
		Attributes: []abci.EventAttribute{
			attr("project", event.Project.Hex(), true),
			attr("owner", event.Owner.Hex(), true),
			attr("name", event.Name, false),
			attr("targetAmount", amountString(event.TargetAmount), false),
			attr("deadline", fmt.Sprintf("%v", event.Deadline), false),
			attr("approvalProposal", fmt.Sprintf("%v", event.ApprovalProposal), false),
		},
	}
}

func DecodeEventProjectCreated(originEvent abci.Event) *EventProjectCreated {
	event := &EventProjectCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "project":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Project = addr
		case "owner":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Owner = addr
		case "name":
			event.Name = v.Value
		case "targetAmount":
			amount, ok := parseAmount(v.Value)
			if !ok {
				return nil
			}
			event.TargetAmount = amount
		case "deadline":
			deadline, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Deadline = deadline
		case "approvalProposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ApprovalProposal = proposal
		}
	}
	return event
}

type EventProjectStatusChanged struct {
	Project common.Address `json:"project"`
	From    ProjectStatus  `json:"from"`
	To      ProjectStatus  `json:"to"`
}

func EncodeEventProjectStatusChanged(event *EventProjectStatusChanged) abci.Event {
	return abci.Event{
		Type: EventProjectStatusChangedType,
		Attributes: []abci.EventAttribute{
			attr("project", event.Project.Hex(), true),
			attr("from", fmt.Sprintf("%v", uint8(event.From)), false),
			attr("to", fmt.Sprintf("%v", uint8(event.To)), true),
		},
	}
}

func DecodeEventProjectStatusChanged(originEvent abci.Event) *EventProjectStatusChanged {
	event := &EventProjectStatusChanged{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "project":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Project = addr
		case "from", "to":
			status, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			if v.Key == "from" {
				event.From = ProjectStatus(status)
			} else {
				event.To = ProjectStatus(status)
			}
		}
	}
	return event
}

// EventValueMoved is shared by donations, releases and refunds: value moved
// between a project custody and an account.
type EventValueMoved struct {
	Project common.Address `json:"project"`
	Account common.Address `json:"account"`
	Amount  *uint256.Int   `json:"amount"`
	Total   *uint256.Int   `json:"total"`
}

func EncodeEventDonationReceived(event *EventValueMoved) abci.Event {
	return encodeEventValueMoved(EventDonationReceivedType, "donor", event)
}

func EncodeEventFundsReleased(event *EventValueMoved) abci.Event {
	return encodeEventValueMoved(EventFundsReleasedType, "owner", event)
}

func EncodeEventRefundClaimed(event *EventValueMoved) abci.Event {
	return encodeEventValueMoved(EventRefundClaimedType, "donor", event)
}

func encodeEventValueMoved(tp, accountKey string, event *EventValueMoved) abci.Event {
	return abci.Event{
		Type: tp,
		Attributes: []abci.EventAttribute{
			attr("project", event.Project.Hex(), true),
			attr(accountKey, event.Account.Hex(), true),
			attr("amount", amountString(event.Amount), false),
			attr("total", amountString(event.Total), false),
		},
	}
}

func DecodeEventValueMoved(originEvent abci.Event) *EventValueMoved {
	event := &EventValueMoved{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "project":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Project = addr
		case "donor", "owner":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Account = addr
		case "amount":
			amount, ok := parseAmount(v.Value)
			if !ok {
				return nil
			}
			event.Amount = amount
		case "total":
			total, ok := parseAmount(v.Value)
			if !ok {
				return nil
			}
			event.Total = total
		}
	}
	return event
}

type EventTokenRewarded struct {
	Donor  common.Address `json:"donor"`
	Amount *uint256.Int   `json:"amount"`
}

func EncodeEventTokenRewarded(event *EventTokenRewarded) abci.Event {
	return abci.Event{
		Type: EventTokenRewardedType,
		Attributes: []abci.EventAttribute{
			attr("donor", event.Donor.Hex(), true),
			attr("amount", amountString(event.Amount), false),
		},
	}
}

func DecodeEventTokenRewarded(originEvent abci.Event) *EventTokenRewarded {
	event := &EventTokenRewarded{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "donor":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Donor = addr
		case "amount":
			amount, ok := parseAmount(v.Value)
			if !ok {
				return nil
			}
			event.Amount = amount
		}
	}
	return event
}

type EventTokenTransfer struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

func EncodeEventTokenTransfer(event *EventTokenTransfer) abci.Event {
	return abci.Event{
		Type: EventTokenTransferType,
		Attributes: []abci.EventAttribute{
			attr("from", event.From.Hex(), true),
			attr("to", event.To.Hex(), true),
			attr("amount", amountString(event.Amount), false),
		},
	}
}

func DecodeEventTokenTransfer(originEvent abci.Event) *EventTokenTransfer {
	event := &EventTokenTransfer{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "from":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.From = addr
		case "to":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.To = addr
		case "amount":
			amount, ok := parseAmount(v.Value)
			if !ok {
				return nil
			}
			event.Amount = amount
		}
	}
	return event
}

type EventTokenApproval struct {
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

func EncodeEventTokenApproval(event *EventTokenApproval) abci.Event {
	return abci.Event{
		Type: EventTokenApprovalType,
		Attributes: []abci.EventAttribute{
			attr("owner", event.Owner.Hex(), true),
			attr("spender", event.Spender.Hex(), true),
			attr("amount", amountString(event.Amount), false),
		},
	}
}

func DecodeEventTokenApproval(originEvent abci.Event) *EventTokenApproval {
	event := &EventTokenApproval{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "owner":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Owner = addr
		case "spender":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Spender = addr
		case "amount":
			amount, ok := parseAmount(v.Value)
			if !ok {
				return nil
			}
			event.Amount = amount
		}
	}
	return event
}

type EventRole struct {
	Role    string         `json:"role"`
	Account common.Address `json:"account"`
}

func EncodeEventRoleGranted(event *EventRole) abci.Event {
	return encodeEventRole(EventRoleGrantedType, event)
}

func EncodeEventRoleRevoked(event *EventRole) abci.Event {
	return encodeEventRole(EventRoleRevokedType, event)
}

func encodeEventRole(tp string, event *EventRole) abci.Event {
	return abci.Event{
		Type: tp,
		Attributes: []abci.EventAttribute{
			attr("role", event.Role, true),
			attr("account", event.Account.Hex(), true),
		},
	}
}

func DecodeEventRole(originEvent abci.Event) *EventRole {
	event := &EventRole{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "role":
			event.Role = v.Value
		case "account":
			addr, ok := parseAddress(v.Value)
			if !ok {
				return nil
			}
			event.Account = addr
		}
	}
	return event
}
