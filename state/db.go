package state

import (
	"sync"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	ldb, err := dbm.NewDB("charity", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return openStateDB(ldb, dir, logger)
}

// NewMemStateDB keeps the tree in memory. Used by tests.
func NewMemStateDB(logger cmtlog.Logger) (*StateDB, error) {
	return openStateDB(dbm.NewMemDB(), "", logger)
}

func openStateDB(ldb dbm.DB, dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "statedb")
	tdb := iavl.NewMutableTree(ldb, 128, true, newTreeLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger)
	err = st.load()
	if err != nil {
		logger.Error("from statedb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		dir:    dir,
		logger: logger,
		db:     tdb,
		state:  st,
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

// Snapshot is a read-only view of the last committed version.
func (db *StateDB) Snapshot() (snap *Snapshot, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	if db.state.dbVer == 0 {
		return nil, ErrNoCommittedState
	}
	tree, err := db.db.GetImmutable(db.state.dbVer)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		tree:   tree,
		header: db.state.header.Clone(),
	}, nil
}

// Snapshot implements the dao store over an immutable tree. Writes fail with
// ErrReadOnly.
type Snapshot struct {
	tree   *iavl.ImmutableTree
	header *StateHeader
}

func (s *Snapshot) Get(key []byte) ([]byte, error) {
	return s.tree.Get(key)
}

func (s *Snapshot) Set(key, value []byte) error {
	return ErrReadOnly
}

func (s *Snapshot) Delete(key []byte) error {
	return ErrReadOnly
}

func (s *Snapshot) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	return iteratePrefix(s.tree, prefix, fn)
}

func (s *Snapshot) Height() uint64 {
	return s.header.Height
}

func (s *Snapshot) Header() *StateHeader {
	return s.header
}
