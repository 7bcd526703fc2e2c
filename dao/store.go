package dao

import (
	"encoding/json"
	"fmt"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Store is the key/value view the components read and write. Iterate walks
// keys with the given prefix in ascending order until fn returns false.
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
}

var (
	KeyParams          = "params"
	KeyAdmin           = "admin"
	KeyMember          = "m/%x"
	KeyMemberPrefix    = "m/"
	KeyMemberCount     = "mc"
	KeyProposalBody    = "p/%d"
	KeyProposalIndex   = "pi"
	KeyProposalVote    = "v/%d/%x"
	KeyProjectProposal = "pp/%x/%d"
	KeyProjectBody     = "j/%x"
	KeyProjectIndex    = "ji"
	KeyProjectByIndex  = "jn/%020d"
	KeyDonation        = "d/%x/%x"
	KeyDonorByIndex    = "dn/%x/%020d"
	KeyDonorCount      = "dc/%x"
	KeyRefund          = "r/%x/%x"
	KeyTokenInfo       = "t"
	KeyTokenSupply     = "ts"
	KeyTokenBalance    = "tb/%x"
	KeyTokenAllowance  = "ta/%x/%x"
	KeyTokenRole       = "tr/%s/%x"
	KeyNativeBalance   = "nb/%x"
)

func key(format string, args ...any) []byte {
	return []byte(fmt.Sprintf(format, args...))
}

func getJSON(s Store, k []byte, v any) (found bool, err error) {
	val, err := s.Get(k)
	if err != nil {
		return false, err
	}
	if val == nil {
		return false, nil
	}
	if err = json.Unmarshal(val, v); err != nil {
		return false, err
	}
	return true, nil
}

func setJSON(s Store, k []byte, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(k, val)
}

func getUint64(s Store, k []byte) (n uint64, err error) {
	val, err := s.Get(k)
	if err != nil || val == nil {
		return 0, err
	}
	err = rlp.DecodeBytes(val, &n)
	return
}

func setUint64(s Store, k []byte, n uint64) error {
	val, err := rlp.EncodeToBytes(n)
	if err != nil {
		return err
	}
	return s.Set(k, val)
}

func getAmount(s Store, k []byte) (*uint256.Int, error) {
	val, err := s.Get(k)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(val), nil
}

func setAmount(s Store, k []byte, v *uint256.Int) error {
	if v.IsZero() {
		return s.Delete(k)
	}
	return s.Set(k, v.Bytes())
}

func getAddress(s Store, k []byte) (addr common.Address, found bool, err error) {
	val, err := s.Get(k)
	if err != nil || val == nil {
		return addr, false, err
	}
	return common.BytesToAddress(val), true, nil
}

// Context carries the caller identity, block time and store of a single
// mutating call, and collects the events it emits.
type Context struct {
	Store  Store
	Caller common.Address
	Time   time.Time

	events *[]abci.Event
}

func NewContext(store Store, caller common.Address, now time.Time) *Context {
	return &Context{
		Store:  store,
		Caller: caller,
		Time:   now,
		events: new([]abci.Event),
	}
}

// WithCaller returns a context acting as another identity. Events are shared
// with the parent.
func (c *Context) WithCaller(caller common.Address) *Context {
	n := *c
	n.Caller = caller
	return &n
}

func (c *Context) EmitEvent(ev abci.Event) {
	*c.events = append(*c.events, ev)
}

func (c *Context) Events() []abci.Event {
	return *c.events
}

func (c *Context) Now() int64 {
	return c.Time.Unix()
}

func page(offset, limit, total int) (start, end int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	start = min(offset, total)
	end = min(start+limit, total)
	return
}

// MaxPageSize bounds every list read.
const MaxPageSize = 100
