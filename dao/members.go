package dao

import (
	"fmt"

	"github.com/calehh/charity-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

// MembershipRegistry is the admin-controlled set of voting members.
//
// Admin-gated calls require the admin to still be a member, so an admin that
// removes itself can no longer manage membership. TransferAdmin hands the
// role to another member first.
type MembershipRegistry struct {
	logger cmtlog.Logger
}

func NewMembershipRegistry(logger cmtlog.Logger) *MembershipRegistry {
	return &MembershipRegistry{logger: logger.With("module", "members")}
}

func (r *MembershipRegistry) InitGenesis(s Store, admin common.Address, members []common.Address) error {
	if admin == (common.Address{}) {
		return fmt.Errorf("%w: genesis admin is required", ErrInvalidParams)
	}
	if err := s.Set([]byte(KeyAdmin), admin.Bytes()); err != nil {
		return err
	}
	for _, m := range append([]common.Address{admin}, members...) {
		ok, err := r.IsMember(s, m)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if err = r.insert(s, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *MembershipRegistry) Admin(s Store) (common.Address, error) {
	admin, found, err := getAddress(s, []byte(KeyAdmin))
	if err != nil {
		return admin, err
	}
	if !found {
		return admin, fmt.Errorf("admin %w", ErrNotFound)
	}
	return admin, nil
}

func (r *MembershipRegistry) IsMember(s Store, addr common.Address) (bool, error) {
	val, err := s.Get(key(KeyMember, addr.Bytes()))
	if err != nil {
		return false, err
	}
	return val != nil, nil
}

func (r *MembershipRegistry) MemberCount(s Store) (uint64, error) {
	return getUint64(s, []byte(KeyMemberCount))
}

// Members returns members ordered by address.
func (r *MembershipRegistry) Members(s Store, offset, limit int) (members []common.Address, err error) {
	all, err := r.all(s)
	if err != nil {
		return nil, err
	}
	start, end := page(offset, limit, len(all))
	return all[start:end], nil
}

func (r *MembershipRegistry) all(s Store) (members []common.Address, err error) {
	err = s.Iterate([]byte(KeyMemberPrefix), func(k, _ []byte) bool {
		members = append(members, common.HexToAddress(string(k[len(KeyMemberPrefix):])))
		return true
	})
	return
}

func (r *MembershipRegistry) onlyAdmin(ctx *Context) error {
	admin, err := r.Admin(ctx.Store)
	if err != nil {
		return err
	}
	if ctx.Caller != admin {
		return fmt.Errorf("%w: only admin can call this function", ErrUnauthorized)
	}
	ok, err := r.IsMember(ctx.Store, admin)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: admin %s is no longer a member", ErrUnauthorized, admin.Hex())
	}
	return nil
}

func (r *MembershipRegistry) AddMember(ctx *Context, addr common.Address) error {
	if err := r.onlyAdmin(ctx); err != nil {
		return err
	}
	if addr == (common.Address{}) {
		return fmt.Errorf("%w: zero address", ErrInvalidArgument)
	}
	ok, err := r.IsMember(ctx.Store, addr)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrAlreadyMember, addr.Hex())
	}
	if err = r.insert(ctx.Store, addr); err != nil {
		return err
	}
	count, err := r.MemberCount(ctx.Store)
	if err != nil {
		return err
	}
	r.logger.Info("member added", "member", addr.Hex(), "count", count)
	ctx.EmitEvent(types.EncodeEventMemberAdded(&types.EventMember{Member: addr, Count: count}))
	return nil
}

func (r *MembershipRegistry) RemoveMember(ctx *Context, addr common.Address) error {
	if err := r.onlyAdmin(ctx); err != nil {
		return err
	}
	ok, err := r.IsMember(ctx.Store, addr)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAMember, addr.Hex())
	}
	count, err := r.MemberCount(ctx.Store)
	if err != nil {
		return err
	}
	if err = ctx.Store.Delete(key(KeyMember, addr.Bytes())); err != nil {
		return err
	}
	count--
	if err = setUint64(ctx.Store, []byte(KeyMemberCount), count); err != nil {
		return err
	}
	r.logger.Info("member removed", "member", addr.Hex(), "count", count)
	ctx.EmitEvent(types.EncodeEventMemberRemoved(&types.EventMember{Member: addr, Count: count}))
	return nil
}

func (r *MembershipRegistry) TransferAdmin(ctx *Context, next common.Address) error {
	if err := r.onlyAdmin(ctx); err != nil {
		return err
	}
	ok, err := r.IsMember(ctx.Store, next)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: new admin %s", ErrNotAMember, next.Hex())
	}
	if err = ctx.Store.Set([]byte(KeyAdmin), next.Bytes()); err != nil {
		return err
	}
	r.logger.Info("admin transferred", "previous", ctx.Caller.Hex(), "admin", next.Hex())
	ctx.EmitEvent(types.EncodeEventAdminTransferred(&types.EventAdminTransferred{Previous: ctx.Caller, Admin: next}))
	return nil
}

func (r *MembershipRegistry) insert(s Store, addr common.Address) error {
	count, err := r.MemberCount(s)
	if err != nil {
		return err
	}
	if err = s.Set(key(KeyMember, addr.Bytes()), []byte{1}); err != nil {
		return err
	}
	return setUint64(s, []byte(KeyMemberCount), count+1)
}
