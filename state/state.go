package state

import (
	"errors"
	"sort"
	"strings"

	"github.com/calehh/council-app/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	StartAccountIdx = 65536
)

var (
	ErrNotFound = errors.New("not found")
)

var (
	KeyState        = "s"
	KeyAccountIndex = "i%s"
	KeyAccountBody  = "a%x"
	KeyParams       = "params"
)

var (
	ErrTxSignerNoexists     = errors.New("signer noexists")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNoexists      = errors.New("account noexists")
	ErrParamsNoexists       = errors.New("chain params noexists")
)

// State is the working state of one block. Writes stay in an in-memory
// overlay until Update flushes them to the tree in key order, so a Clone
// can be thrown away to undo a failed tx.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header *StateHeader
	// nil marks a removed key
	pending map[string][]byte
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	s := &State{
		logger:  logger,
		db:      db,
		dbVer:   0,
		header:  new(StateHeader),
		pending: make(map[string][]byte),
	}
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) nextState() *State {
	return &State{
		logger:  s.logger,
		db:      s.db,
		dbVer:   s.dbVer,
		header:  s.header.Clone(),
		pending: make(map[string][]byte),
	}
}

func (s *State) Clone() *State {
	n := s.nextState()
	for k, v := range s.pending {
		n.pending[k] = v
	}
	return n
}

// Adopt takes over the writes of a clone made from s.
func (s *State) Adopt(o *State) {
	s.header = o.header
	s.pending = o.pending
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyState))
	if err != nil {
		return err
	}
	if val == nil {
		return nil
	}
	err = s.header.Unmarshal(val)
	if err != nil {
		return
	}
	h := s.db.Hash()
	if h != nil {
		s.calcHash(h, true)
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = append(s.header.RootHash[:0], rootHash...)
		s.header.Hash = append(s.header.Hash[:0], h[:]...)
	}
	return
}

func (s *State) get(key string) ([]byte, error) {
	if v, ok := s.pending[key]; ok {
		return v, nil
	}
	return s.db.Get([]byte(key))
}

func (s *State) set(key string, val []byte) {
	s.pending[key] = val
}

func (s *State) remove(key string) {
	s.pending[key] = nil
}

// getRLP decodes the value under key into v, found is false when the key is
// absent.
func (s *State) getRLP(key string, v any) (found bool, err error) {
	val, err := s.get(key)
	if err != nil || val == nil {
		return false, err
	}
	if err = rlp.DecodeBytes(val, v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *State) setRLP(key string, v any) error {
	val, err := rlp.EncodeToBytes(v)
	if err != nil {
		return err
	}
	s.set(key, val)
	return nil
}

// iterate visits every live key under prefix in ascending order, merging the
// overlay with the tree.
func (s *State) iterate(prefix string, fn func(key string, val []byte) error) error {
	start := []byte(prefix)
	it, err := s.db.Iterator(start, PrefixEndBytes(start), true)
	if err != nil {
		return err
	}
	merged := make(map[string][]byte)
	for ; it.Valid(); it.Next() {
		merged[string(it.Key())] = append([]byte(nil), it.Value()...)
	}
	if err = it.Close(); err != nil {
		return err
	}
	for k, v := range s.pending {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err = fn(k, merged[k]); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	_, err = s.db.Set([]byte(KeyState), s.header.Marshal())
	if err != nil {
		return
	}
	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := s.pending[k]; v != nil {
			_, err = s.db.Set([]byte(k), v)
		} else {
			_, _, err = s.db.Remove([]byte(k))
		}
		if err != nil {
			return
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.pending = make(map[string][]byte)
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

func (s *State) SetHeight(height uint64) {
	s.header.Height = height
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

func (s *State) Verify(btx *tx.CouncilTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(btx.Signer)
	if err != nil {
		if errors.Is(err, ErrAccountNoexists) || errors.Is(err, ErrNotFound) {
			err = ErrTxSignerNoexists
		}
		return succ, err
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, btx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

// BumpNonce advances the signer nonce of an included tx.
func (s *State) BumpNonce(account uint64) error {
	a, err := s.GetAccount(account)
	if err != nil {
		return err
	}
	a.Nonce += 1
	return s.SetAccount(a)
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
