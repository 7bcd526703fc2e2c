package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	KeyState       = "s"
	KeyAccountBody = "a/%x"
)

var (
	ErrReadOnly             = errors.New("state is read only")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrStateHeightUnmatched = errors.New("state height unmatched")
	ErrNoCommittedState     = errors.New("no committed state")
)

// StateHeader is stored under KeyState with every version.
type StateHeader struct {
	Height   uint64 `json:"height"`
	ChainId  string `json:"chain_id"`
	Time     int64  `json:"time"`
	RootHash []byte `json:"root_hash"`
	Hash     []byte `json:"hash"`
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	n.RootHash = common.CopyBytes(h.RootHash)
	n.Hash = common.CopyBytes(h.Hash)
	return &n
}

// State is the working state of one block. Writes go to cache and reach the
// tree in Update; a nil cache value marks a deletion.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header *StateHeader
	cache  map[string][]byte
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	return &State{
		logger: logger,
		db:     db,
		dbVer:  0,
		header: new(StateHeader),
		cache:  make(map[string][]byte),
	}
}

func (s *State) nextState() *State {
	n := &State{
		logger: s.logger,
		db:     s.db,
		dbVer:  s.dbVer,
		header: s.header.Clone(),
		cache:  make(map[string][]byte),
	}
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

// Clone returns an independent copy of the pending writes over the same
// tree. Discarding the copy discards whatever was written to it.
func (s *State) Clone() *State {
	n := &State{
		logger: s.logger,
		db:     s.db,
		dbVer:  s.dbVer,
		header: s.header.Clone(),
		cache:  make(map[string][]byte, len(s.cache)),
	}
	for k, v := range s.cache {
		n.cache[k] = v
	}
	return n
}

func (s *State) Get(key []byte) ([]byte, error) {
	if v, ok := s.cache[string(key)]; ok {
		return v, nil
	}
	v, err := s.db.Get(key)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (s *State) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	s.cache[string(key)] = common.CopyBytes(value)
	return nil
}

func (s *State) Delete(key []byte) error {
	s.cache[string(key)] = nil
	return nil
}

// Iterate merges the tree with pending writes.
func (s *State) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	merged := make(map[string][]byte)
	if err := iteratePrefix(s.db, prefix, func(k, v []byte) bool {
		merged[string(k)] = v
		return true
	}); err != nil {
		return err
	}
	for k, v := range s.cache {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), merged[k]) {
			break
		}
	}
	return nil
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val == nil {
		return nil
	}
	if err = json.Unmarshal(val, s.header); err != nil {
		return
	}
	s.dbVer = s.db.Version()
	h := s.db.Hash()
	if h != nil {
		s.calcHash(h, true)
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

// Update writes the header and pending writes to the tree in key order and
// returns the resulting app hash. Nothing is persisted until save.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = json.Marshal(s.header)
	if err != nil {
		return
	}
	if _, err = s.db.Set([]byte(KeyState), val); err != nil {
		return
	}

	keys := make([]string, 0, len(s.cache))
	for k := range s.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := s.cache[k]
		if v == nil {
			if _, _, err = s.db.Remove([]byte(k)); err != nil {
				return
			}
			continue
		}
		if _, err = s.db.Set([]byte(k), v); err != nil {
			return
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.cache = make(map[string][]byte)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}
	s.dbVer = ver
	h = s.calcHash(hash, true)
	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Height() uint64 {
	return s.header.Height
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

func (s *State) ChainId() string {
	return s.header.ChainId
}

func (s *State) SetBlockTime(t time.Time) {
	s.header.Time = t.Unix()
}

func (s *State) BlockTime() time.Time {
	return time.Unix(s.header.Time, 0).UTC()
}

type iterable interface {
	Iterator(start, end []byte, ascending bool) (dbm.Iterator, error)
}

func iteratePrefix(tree iterable, prefix []byte, fn func(k, v []byte) bool) error {
	it, err := tree.Iterator(prefix, PrefixEndBytes(prefix), true)
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		if !fn(it.Key(), it.Value()) {
			break
		}
	}
	return it.Error()
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
