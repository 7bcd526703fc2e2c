package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/calehh/charity-dao/tx"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key signs DAO transactions. Its address is the tx sender.
type Key struct {
	priv *ecdsa.PrivateKey
}

func NewKey(priv *ecdsa.PrivateKey) *Key {
	return &Key{priv: priv}
}

func GenerateKey() (*Key, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Key{priv: priv}, nil
}

// LoadKey reads a hex encoded secp256k1 private key file.
func LoadKey(path string) (*Key, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKey(string(dat))
}

func ParseKey(hexKey string) (*Key, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Key{priv: priv}, nil
}

func (k *Key) Address() common.Address {
	return crypto.PubkeyToAddress(k.priv.PublicKey)
}

func (k *Key) Hex() string {
	return common.Bytes2Hex(crypto.FromECDSA(k.priv))
}

func (k *Key) SignTx(btx *tx.Tx, chainID string) error {
	return btx.Sign(k.priv, chainID)
}

// ValidatorKey is the node's consensus key as stored by privval.
type ValidatorKey struct {
	PrivKey cmtcrypto.PrivKey
	PubKey  cmtcrypto.PubKey
}

func LoadValidatorKey(keyFilePath string) (*ValidatorKey, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	if err = cmtjson.Unmarshal(keyJSONBytes, &pvKey); err != nil {
		return nil, fmt.Errorf("reading PrivValidator key from %v: %w", keyFilePath, err)
	}
	return &ValidatorKey{PrivKey: pvKey.PrivKey, PubKey: pvKey.PubKey}, nil
}

func (k *ValidatorKey) Address() string {
	return k.PubKey.Address().String()
}
