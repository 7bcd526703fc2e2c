package tx

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = "charity-test"

func signedDonate(t *testing.T) (*Tx, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	btx := &Tx{
		Version: TxVersion0,
		Type:    TxTypeDonate,
		Nonce:   3,
		Tx: &DonateTx{
			Project: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
			Amount:  uint256.NewInt(1_000),
		},
	}
	require.NoError(t, btx.Sign(key, testChainID))
	return btx, crypto.PubkeyToAddress(key.PublicKey)
}

func TestSignAndRecover(t *testing.T) {
	btx, sender := signedDonate(t)
	assert.Equal(t, sender, btx.Sender)

	dat, err := MarshalTx(btx)
	require.NoError(t, err)
	decoded, err := UnmarshalTx(dat)
	require.NoError(t, err)
	assert.Equal(t, TxTypeDonate, decoded.Type)
	assert.Equal(t, uint64(3), decoded.Nonce)

	donate, ok := decoded.Tx.(*DonateTx)
	require.True(t, ok)
	assert.Equal(t, uint256.NewInt(1_000), donate.Amount)

	signer, err := decoded.Signer(testChainID)
	require.NoError(t, err)
	assert.Equal(t, sender, signer)
}

func TestSignerDetectsTampering(t *testing.T) {
	btx, sender := signedDonate(t)

	other, err := btx.Signer("another-chain")
	require.NoError(t, err)
	assert.NotEqual(t, sender, other)

	btx.Nonce++
	tampered, err := btx.Signer(testChainID)
	require.NoError(t, err)
	assert.NotEqual(t, sender, tampered)

	btx.Sig = nil
	_, err = btx.Signer(testChainID)
	require.ErrorIs(t, err, ErrMissingSignature)
}

func TestUnmarshalTxRejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantErr error
	}{
		{
			name:    "unknown type",
			raw:     map[string]any{"type": 99, "tx": map[string]any{}},
			wantErr: ErrUnsupportedTxType,
		},
		{
			name:    "future version",
			raw:     map[string]any{"version": 1, "type": TxTypeVote, "tx": map[string]any{"proposal": 1}},
			wantErr: ErrUnsupportedTxVersion,
		},
		{
			name:    "missing proposal",
			raw:     map[string]any{"type": TxTypeVote, "tx": map[string]any{"approve": true}},
			wantErr: ErrInvalidTx,
		},
		{
			name:    "missing amount",
			raw:     map[string]any{"type": TxTypeSend, "tx": map[string]any{"to": "0x00000000000000000000000000000000000000aa"}},
			wantErr: ErrInvalidTx,
		},
		{
			name:    "empty project name",
			raw:     map[string]any{"type": TxTypeRegisterProject, "tx": map[string]any{"targetAmount": "10"}},
			wantErr: ErrInvalidTx,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dat, err := json.Marshal(tt.raw)
			require.NoError(t, err)
			_, err = UnmarshalTx(dat)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := UnmarshalTx([]byte("not json"))
	require.ErrorIs(t, err, ErrUnsupportedTxType)
}

func TestTxTypeString(t *testing.T) {
	assert.Equal(t, "request_funds_release", TxTypeRequestFundsRelease.String())
	assert.Equal(t, "unknown", TxType(200).String())
}
