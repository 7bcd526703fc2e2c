package dao

import (
	"fmt"

	"github.com/calehh/charity-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const RoleMinter = "minter"

type TokenInfo struct {
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
	Admin    common.Address `json:"admin"`
}

type TokenGenesis struct {
	TokenInfo
	InitialSupply *uint256.Int     `json:"initial_supply"`
	Minters       []common.Address `json:"minters"`
}

// TokenLedger is the governance token: balances, allowances and the minter
// role. Role changes are reserved to the admin recorded at genesis.
type TokenLedger struct {
	logger cmtlog.Logger
}

func NewTokenLedger(logger cmtlog.Logger) *TokenLedger {
	return &TokenLedger{logger: logger.With("module", "token")}
}

func (l *TokenLedger) InitGenesis(s Store, gen TokenGenesis) error {
	if err := setJSON(s, []byte(KeyTokenInfo), gen.TokenInfo); err != nil {
		return err
	}
	for _, m := range gen.Minters {
		if err := s.Set(key(KeyTokenRole, RoleMinter, m.Bytes()), []byte{1}); err != nil {
			return err
		}
	}
	if gen.InitialSupply == nil || gen.InitialSupply.IsZero() {
		return nil
	}
	if err := setAmount(s, []byte(KeyTokenSupply), gen.InitialSupply); err != nil {
		return err
	}
	return setAmount(s, key(KeyTokenBalance, gen.Admin.Bytes()), gen.InitialSupply)
}

func (l *TokenLedger) Info(s Store) (info *TokenInfo, err error) {
	info = new(TokenInfo)
	found, err := getJSON(s, []byte(KeyTokenInfo), info)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("token info %w", ErrNotFound)
	}
	return
}

func (l *TokenLedger) TotalSupply(s Store) (*uint256.Int, error) {
	return getAmount(s, []byte(KeyTokenSupply))
}

func (l *TokenLedger) BalanceOf(s Store, addr common.Address) (*uint256.Int, error) {
	return getAmount(s, key(KeyTokenBalance, addr.Bytes()))
}

func (l *TokenLedger) Allowance(s Store, owner, spender common.Address) (*uint256.Int, error) {
	return getAmount(s, key(KeyTokenAllowance, owner.Bytes(), spender.Bytes()))
}

func (l *TokenLedger) HasRole(s Store, role string, addr common.Address) (bool, error) {
	val, err := s.Get(key(KeyTokenRole, role, addr.Bytes()))
	if err != nil {
		return false, err
	}
	return val != nil, nil
}

func (l *TokenLedger) Mint(ctx *Context, to common.Address, amount *uint256.Int) error {
	ok, err := l.HasRole(ctx.Store, RoleMinter, ctx.Caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s lacks %s role", ErrUnauthorized, ctx.Caller.Hex(), RoleMinter)
	}
	if to == (common.Address{}) {
		return fmt.Errorf("%w: mint to zero address", ErrInvalidArgument)
	}
	supply, err := l.TotalSupply(ctx.Store)
	if err != nil {
		return err
	}
	bal, err := l.BalanceOf(ctx.Store, to)
	if err != nil {
		return err
	}
	supply, overflow := new(uint256.Int).AddOverflow(supply, amount)
	if overflow {
		return fmt.Errorf("%w: supply overflow", ErrInvalidArgument)
	}
	// balance <= supply, so it cannot overflow once supply did not
	bal = new(uint256.Int).Add(bal, amount)
	if err = setAmount(ctx.Store, []byte(KeyTokenSupply), supply); err != nil {
		return err
	}
	if err = setAmount(ctx.Store, key(KeyTokenBalance, to.Bytes()), bal); err != nil {
		return err
	}
	ctx.EmitEvent(types.EncodeEventTokenTransfer(&types.EventTokenTransfer{To: to, Amount: amount.Clone()}))
	return nil
}

func (l *TokenLedger) Transfer(ctx *Context, to common.Address, amount *uint256.Int) error {
	return l.transfer(ctx, ctx.Caller, to, amount)
}

func (l *TokenLedger) Approve(ctx *Context, spender common.Address, amount *uint256.Int) error {
	if spender == (common.Address{}) {
		return fmt.Errorf("%w: approve zero address", ErrInvalidArgument)
	}
	if err := setAmount(ctx.Store, key(KeyTokenAllowance, ctx.Caller.Bytes(), spender.Bytes()), amount); err != nil {
		return err
	}
	ctx.EmitEvent(types.EncodeEventTokenApproval(&types.EventTokenApproval{
		Owner:   ctx.Caller,
		Spender: spender,
		Amount:  amount.Clone(),
	}))
	return nil
}

func (l *TokenLedger) TransferFrom(ctx *Context, from, to common.Address, amount *uint256.Int) error {
	allowanceKey := key(KeyTokenAllowance, from.Bytes(), ctx.Caller.Bytes())
	allowance, err := getAmount(ctx.Store, allowanceKey)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return fmt.Errorf("%w: %s may spend %s of %s, needs %s", ErrInsufficientAllowance, ctx.Caller.Hex(), allowance.Dec(), from.Hex(), amount.Dec())
	}
	if err = l.checkTransfer(ctx.Store, from, to, amount); err != nil {
		return err
	}
	if err = setAmount(ctx.Store, allowanceKey, new(uint256.Int).Sub(allowance, amount)); err != nil {
		return err
	}
	return l.transfer(ctx, from, to, amount)
}

func (l *TokenLedger) checkTransfer(s Store, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return fmt.Errorf("%w: transfer to zero address", ErrInvalidArgument)
	}
	bal, err := l.BalanceOf(s, from)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from.Hex(), bal.Dec(), amount.Dec())
	}
	return nil
}

func (l *TokenLedger) transfer(ctx *Context, from, to common.Address, amount *uint256.Int) error {
	if err := l.checkTransfer(ctx.Store, from, to, amount); err != nil {
		return err
	}
	if from != to {
		fromBal, err := l.BalanceOf(ctx.Store, from)
		if err != nil {
			return err
		}
		toBal, err := l.BalanceOf(ctx.Store, to)
		if err != nil {
			return err
		}
		if err = setAmount(ctx.Store, key(KeyTokenBalance, from.Bytes()), new(uint256.Int).Sub(fromBal, amount)); err != nil {
			return err
		}
		if err = setAmount(ctx.Store, key(KeyTokenBalance, to.Bytes()), new(uint256.Int).Add(toBal, amount)); err != nil {
			return err
		}
	}
	ctx.EmitEvent(types.EncodeEventTokenTransfer(&types.EventTokenTransfer{From: from, To: to, Amount: amount.Clone()}))
	return nil
}

func (l *TokenLedger) onlyAdmin(ctx *Context) error {
	info, err := l.Info(ctx.Store)
	if err != nil {
		return err
	}
	if ctx.Caller != info.Admin {
		return fmt.Errorf("%w: only the token admin can manage roles", ErrUnauthorized)
	}
	return nil
}

func (l *TokenLedger) GrantRole(ctx *Context, role string, account common.Address) error {
	if err := l.onlyAdmin(ctx); err != nil {
		return err
	}
	if role == "" {
		return fmt.Errorf("%w: empty role", ErrInvalidArgument)
	}
	if err := ctx.Store.Set(key(KeyTokenRole, role, account.Bytes()), []byte{1}); err != nil {
		return err
	}
	l.logger.Info("role granted", "role", role, "account", account.Hex())
	ctx.EmitEvent(types.EncodeEventRoleGranted(&types.EventRole{Role: role, Account: account}))
	return nil
}

func (l *TokenLedger) RevokeRole(ctx *Context, role string, account common.Address) error {
	if err := l.onlyAdmin(ctx); err != nil {
		return err
	}
	if err := ctx.Store.Delete(key(KeyTokenRole, role, account.Bytes())); err != nil {
		return err
	}
	l.logger.Info("role revoked", "role", role, "account", account.Hex())
	ctx.EmitEvent(types.EncodeEventRoleRevoked(&types.EventRole{Role: role, Account: account}))
	return nil
}
