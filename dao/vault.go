package dao

import (
	"fmt"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Vault moves the native value unit. Project custody is the balance held
// under the project address.
type Vault interface {
	Balance(s Store, addr common.Address) (*uint256.Int, error)
	Deposit(ctx *Context, from, custody common.Address, amount *uint256.Int) error
	Disburse(ctx *Context, custody, to common.Address, amount *uint256.Int) error
}

type Allocation struct {
	Address common.Address `json:"address"`
	Amount  *uint256.Int   `json:"amount"`
}

// NativeVault keeps native balances in the store.
type NativeVault struct {
	logger cmtlog.Logger
}

var _ Vault = (*NativeVault)(nil)

func NewNativeVault(logger cmtlog.Logger) *NativeVault {
	return &NativeVault{logger: logger.With("module", "vault")}
}

func (v *NativeVault) InitGenesis(s Store, allocs []Allocation) error {
	for _, a := range allocs {
		if a.Amount == nil {
			continue
		}
		bal, err := v.Balance(s, a.Address)
		if err != nil {
			return err
		}
		sum, overflow := new(uint256.Int).AddOverflow(bal, a.Amount)
		if overflow {
			return fmt.Errorf("%w: allocation overflow for %s", ErrInvalidArgument, a.Address.Hex())
		}
		if err = setAmount(s, key(KeyNativeBalance, a.Address.Bytes()), sum); err != nil {
			return err
		}
	}
	return nil
}

func (v *NativeVault) Balance(s Store, addr common.Address) (*uint256.Int, error) {
	return getAmount(s, key(KeyNativeBalance, addr.Bytes()))
}

// Send moves native value from the caller to another account.
func (v *NativeVault) Send(ctx *Context, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: zero amount", ErrInvalidArgument)
	}
	return v.move(ctx.Store, ctx.Caller, to, amount)
}

func (v *NativeVault) Deposit(ctx *Context, from, custody common.Address, amount *uint256.Int) error {
	return v.move(ctx.Store, from, custody, amount)
}

func (v *NativeVault) Disburse(ctx *Context, custody, to common.Address, amount *uint256.Int) error {
	return v.move(ctx.Store, custody, to, amount)
}

func (v *NativeVault) move(s Store, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return fmt.Errorf("%w: zero recipient", ErrInvalidArgument)
	}
	fromBal, err := v.Balance(s, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBal.Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}
	toBal, err := v.Balance(s, to)
	if err != nil {
		return err
	}
	toBal, overflow := new(uint256.Int).AddOverflow(toBal, amount)
	if overflow {
		return fmt.Errorf("%w: balance overflow", ErrInvalidArgument)
	}
	if err = setAmount(s, key(KeyNativeBalance, from.Bytes()), new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return setAmount(s, key(KeyNativeBalance, to.Bytes()), toBal)
}
