package tx

import (
	"errors"
)

type TxType uint8

const (
	TxTypeUnknown TxType = 0

	TxTypeAddMember     TxType = 1
	TxTypeRemoveMember  TxType = 2
	TxTypeTransferAdmin TxType = 3

	TxTypeVote            TxType = 10
	TxTypeExecuteProposal TxType = 11

	TxTypeRegisterProject      TxType = 20
	TxTypeDonate               TxType = 21
	TxTypeRequestFundsRelease  TxType = 22
	TxTypeUpdateAuditMaterials TxType = 23
	TxTypeReleaseFunds         TxType = 24
	TxTypeClaimRefund          TxType = 25

	TxTypeTokenTransfer     TxType = 30
	TxTypeTokenApprove      TxType = 31
	TxTypeTokenTransferFrom TxType = 32
	TxTypeTokenMint         TxType = 33
	TxTypeGrantRole         TxType = 34
	TxTypeRevokeRole        TxType = 35

	TxTypeSend TxType = 40
)

var txTypeNames = map[TxType]string{
	TxTypeAddMember:            "add_member",
	TxTypeRemoveMember:         "remove_member",
	TxTypeTransferAdmin:        "transfer_admin",
	TxTypeVote:                 "vote",
	TxTypeExecuteProposal:      "execute_proposal",
	TxTypeRegisterProject:      "register_project",
	TxTypeDonate:               "donate",
	TxTypeRequestFundsRelease:  "request_funds_release",
	TxTypeUpdateAuditMaterials: "update_audit_materials",
	TxTypeReleaseFunds:         "release_funds",
	TxTypeClaimRefund:          "claim_refund",
	TxTypeTokenTransfer:        "token_transfer",
	TxTypeTokenApprove:         "token_approve",
	TxTypeTokenTransferFrom:    "token_transfer_from",
	TxTypeTokenMint:            "token_mint",
	TxTypeGrantRole:            "grant_role",
	TxTypeRevokeRole:           "revoke_role",
	TxTypeSend:                 "send",
}

func (t TxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

const (
	TxVersion0 uint8 = 0
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrMissingSignature     = errors.New("missing signature")
)
