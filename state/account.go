package state

import (
	"encoding/json"
	"fmt"

	"github.com/calehh/charity-dao/tx"
	"github.com/ethereum/go-ethereum/common"
)

// Account tracks the replay nonce of a transaction sender. Balances live in
// the dao stores.
type Account struct {
	Address common.Address `json:"address"`
	Nonce   uint64         `json:"nonce"`
}

func (a *Account) Clone() *Account {
	n := *a
	return &n
}

type getter interface {
	Get(key []byte) ([]byte, error)
}

func readAccount(g getter, addr common.Address) (acnt *Account, err error) {
	val, err := g.Get([]byte(fmt.Sprintf(KeyAccountBody, addr.Bytes())))
	if err != nil {
		return nil, err
	}
	acnt = &Account{Address: addr}
	if val == nil {
		return
	}
	err = json.Unmarshal(val, acnt)
	return
}

// GetAccount returns a zero-nonce account for unseen addresses.
func (s *State) GetAccount(addr common.Address) (acnt *Account, err error) {
	return readAccount(s, addr)
}

func (s *Snapshot) Nonce(addr common.Address) (uint64, error) {
	a, err := readAccount(s, addr)
	if err != nil {
		return 0, err
	}
	return a.Nonce, nil
}

func (s *State) SetAccount(acnt *Account) error {
	val, err := json.Marshal(acnt)
	if err != nil {
		return err
	}
	return s.Set([]byte(fmt.Sprintf(KeyAccountBody, acnt.Address.Bytes())), val)
}

func (s *State) IncrNonce(addr common.Address) (err error) {
	a, err := s.GetAccount(addr)
	if err != nil {
		return
	}
	a.Nonce += 1
	return s.SetAccount(a)
}

// Verify checks the signature against the declared sender and the nonce
// against the stored one. allowNonceGap admits future nonces for the mempool.
func (s *State) Verify(btx *tx.Tx, allowNonceGap bool) (succ bool, err error) {
	signer, err := btx.Signer(s.header.ChainId)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTxSigInvalid, err)
	}
	if signer != btx.Sender {
		err = ErrTxSigInvalid
		return
	}
	a, err := s.GetAccount(btx.Sender)
	if err != nil {
		return succ, err
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = fmt.Errorf("%w: expected %d, got %d", ErrTxNonceInvalid, a.Nonce, btx.Nonce)
		return
	}
	succ = true
	return
}
