package tx

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/holiman/uint256"
)

// Tx is the signed envelope every DAO transaction is broadcast in.
type Tx struct {
	Version uint8          `json:"version"`
	Type    TxType         `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      any            `json:"tx"`
	Sig     []byte         `json:"sig"`
}

type AddMemberTx struct {
	Member common.Address `json:"member" validate:"required"`
}

type RemoveMemberTx struct {
	Member common.Address `json:"member" validate:"required"`
}

type TransferAdminTx struct {
	Admin common.Address `json:"admin" validate:"required"`
}

type VoteTx struct {
	Proposal uint64 `json:"proposal" validate:"required"`
	Approve  bool   `json:"approve"`
}

type ExecuteProposalTx struct {
	Proposal uint64 `json:"proposal" validate:"required"`
}

type RegisterProjectTx struct {
	Name           string       `json:"name" validate:"required,max=128"`
	Description    string       `json:"description" validate:"max=8192"`
	AuditMaterials string       `json:"auditMaterials" validate:"max=8192"`
	TargetAmount   *uint256.Int `json:"targetAmount" validate:"required"`
	Duration       uint64       `json:"duration"`
}

type DonateTx struct {
	Project common.Address `json:"project" validate:"required"`
	Amount  *uint256.Int   `json:"amount" validate:"required"`
}

type RequestFundsReleaseTx struct {
	Project   common.Address `json:"project" validate:"required"`
	Statement string         `json:"statement" validate:"max=8192"`
}

type UpdateAuditMaterialsTx struct {
	Project        common.Address `json:"project" validate:"required"`
	AuditMaterials string         `json:"auditMaterials" validate:"max=8192"`
}

type ReleaseFundsTx struct {
	Project common.Address `json:"project" validate:"required"`
}

type ClaimRefundTx struct {
	Project common.Address `json:"project" validate:"required"`
}

type TokenTransferTx struct {
	To     common.Address `json:"to" validate:"required"`
	Amount *uint256.Int   `json:"amount" validate:"required"`
}

type TokenApproveTx struct {
	Spender common.Address `json:"spender" validate:"required"`
	Amount  *uint256.Int   `json:"amount" validate:"required"`
}

type TokenTransferFromTx struct {
	From   common.Address `json:"from" validate:"required"`
	To     common.Address `json:"to" validate:"required"`
	Amount *uint256.Int   `json:"amount" validate:"required"`
}

type TokenMintTx struct {
	To     common.Address `json:"to" validate:"required"`
	Amount *uint256.Int   `json:"amount" validate:"required"`
}

type RoleTx struct {
	Role    string         `json:"role" validate:"required"`
	Account common.Address `json:"account" validate:"required"`
}

type SendTx struct {
	To     common.Address `json:"to" validate:"required"`
	Amount *uint256.Int   `json:"amount" validate:"required"`
}

type txTmpl[P any] struct {
	Version uint8          `json:"version"`
	Type    TxType         `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      P              `json:"tx"`
	Sig     []byte         `json:"sig"`
}

var validate = validator.New()

// SigData is the hash signed by the sender. The chain id takes the place of
// the signature so a tx cannot be replayed on another chain.
func (tx *Tx) SigData(chainID string) (hash []byte, err error) {
	ntx := *tx
	ntx.Sig = []byte(chainID)
	dat, err := json.Marshal(ntx)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(dat), nil
}

func (tx *Tx) Sign(key *ecdsa.PrivateKey, chainID string) (err error) {
	tx.Sender = crypto.PubkeyToAddress(key.PublicKey)
	hash, err := tx.SigData(chainID)
	if err != nil {
		return
	}
	tx.Sig, err = crypto.Sign(hash, key)
	return
}

// Signer recovers the address that produced Sig.
func (tx *Tx) Signer(chainID string) (addr common.Address, err error) {
	if len(tx.Sig) != crypto.SignatureLength {
		return addr, ErrMissingSignature
	}
	hash, err := tx.SigData(chainID)
	if err != nil {
		return
	}
	pub, err := crypto.SigToPub(hash, tx.Sig)
	if err != nil {
		return
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func parseTxType(dat []byte) TxType {
	var tx struct {
		Type TxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return TxTypeUnknown
	}
	return tx.Type
}

func unmarshalTx[P any](dat []byte) (btx *Tx, err error) {
	var txt txTmpl[P]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version != TxVersion0 {
		return nil, ErrUnsupportedTxVersion
	}
	if err = validate.Struct(&txt.Tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	btx = new(Tx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalTx(dat []byte) (btx *Tx, err error) {
	tp := parseTxType(dat)
	switch tp {
	case TxTypeAddMember:
		return unmarshalTx[AddMemberTx](dat)
	case TxTypeRemoveMember:
		return unmarshalTx[RemoveMemberTx](dat)
	case TxTypeTransferAdmin:
		return unmarshalTx[TransferAdminTx](dat)
	case TxTypeVote:
		return unmarshalTx[VoteTx](dat)
	case TxTypeExecuteProposal:
		return unmarshalTx[ExecuteProposalTx](dat)
	case TxTypeRegisterProject:
		return unmarshalTx[RegisterProjectTx](dat)
	case TxTypeDonate:
		return unmarshalTx[DonateTx](dat)
	case TxTypeRequestFundsRelease:
		return unmarshalTx[RequestFundsReleaseTx](dat)
	case TxTypeUpdateAuditMaterials:
		return unmarshalTx[UpdateAuditMaterialsTx](dat)
	case TxTypeReleaseFunds:
		return unmarshalTx[ReleaseFundsTx](dat)
	case TxTypeClaimRefund:
		return unmarshalTx[ClaimRefundTx](dat)
	case TxTypeTokenTransfer:
		return unmarshalTx[TokenTransferTx](dat)
	case TxTypeTokenApprove:
		return unmarshalTx[TokenApproveTx](dat)
	case TxTypeTokenTransferFrom:
		return unmarshalTx[TokenTransferFromTx](dat)
	case TxTypeTokenMint:
		return unmarshalTx[TokenMintTx](dat)
	case TxTypeGrantRole, TxTypeRevokeRole:
		return unmarshalTx[RoleTx](dat)
	case TxTypeSend:
		return unmarshalTx[SendTx](dat)
	default:
		err = fmt.Errorf("%w: %d", ErrUnsupportedTxType, tp)
	}
	return
}

func MarshalTx(btx *Tx) (dat []byte, err error) {
	return json.Marshal(btx)
}
