package state

import (
	"encoding/json"
	"fmt"

	"github.com/calehh/council-app/types"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
)

type Lock struct {
	ID     types.LockID
	Amount uint64
}

// Account is the rlp encoded account body. Member marks an account that is a
// membership controller, its index is the membership id. BoundMember names the
// membership a staking account belongs to.
type Account struct {
	Index       uint64
	PubKey      []byte
	Balance     uint64
	Nonce       uint64
	Member      bool
	BoundMember uint64
	Locks       []Lock
}

type accountSt struct {
	Index       uint64            `json:"index"`
	PubKey      cmtbytes.HexBytes `json:"pubKey"`
	Balance     uint64            `json:"balance"`
	Nonce       uint64            `json:"nonce"`
	Member      bool              `json:"member"`
	BoundMember uint64            `json:"boundMember"`
	Locks       map[string]uint64 `json:"locks"`
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Index:       a.Index,
		PubKey:      a.PubKey,
		Balance:     a.Balance,
		Nonce:       a.Nonce,
		Member:      a.Member,
		BoundMember: a.BoundMember,
		Locks:       make(map[string]uint64, len(a.Locks)),
	}
	for _, l := range a.Locks {
		o.Locks[string(l.ID)] = l.Amount
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) (err error) {
	var o accountSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	a.Index = o.Index
	a.PubKey = o.PubKey
	a.Balance = o.Balance
	a.Nonce = o.Nonce
	a.Member = o.Member
	a.BoundMember = o.BoundMember
	a.Locks = nil
	for id, amount := range o.Locks {
		a.Locks = append(a.Locks, Lock{ID: types.LockID(id), Amount: amount})
	}
	return
}

func (a *Account) Clone() *Account {
	n := *a
	n.PubKey = append([]byte(nil), a.PubKey...)
	n.Locks = append([]Lock(nil), a.Locks...)
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	a.PubKey = append([]byte(nil), pkey...)
}

func (a *Account) AddrBytes() []byte {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address()[:]
}

func (a *Account) Address() string {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address().String()
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx < StartAccountIdx || idx >= s.header.AccountIdx {
		err = ErrAccountNoexists
		return
	}
	acnt = new(Account)
	found, err := s.getRLP(fmt.Sprintf(KeyAccountBody, idx), acnt)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return
}

func (s *State) SetAccount(acnt *Account) error {
	return s.setRLP(fmt.Sprintf(KeyAccountBody, acnt.Index), acnt)
}

func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	var idx uint64
	found, err := s.getRLP(fmt.Sprintf(KeyAccountIndex, saddr), &idx)
	if err != nil || !found {
		return nil, err
	}
	return s.GetAccount(idx)
}

func (s *State) AddAccount(acnt *Account) (err error) {
	a, err := s.FindAccount(acnt.AddrBytes())
	if err != nil {
		return err
	}
	if a != nil {
		err = ErrAccountAlreadyExists
		return
	}
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	if err = s.SetAccount(acnt); err != nil {
		return err
	}
	return s.setRLP(fmt.Sprintf(KeyAccountIndex, acnt.Address()), acnt.Index)
}

func (s *State) AccountExists(idx uint64) (bool, error) {
	_, err := s.GetAccount(idx)
	if err == ErrAccountNoexists || err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// IsMemberController reports whether account controls membership member.
func (s *State) IsMemberController(account, member uint64) (bool, error) {
	if account != member {
		return false, nil
	}
	return s.MemberExists(member)
}

func (s *State) MemberExists(member uint64) (bool, error) {
	a, err := s.GetAccount(member)
	if err == ErrAccountNoexists || err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.Member, nil
}

// IsStakingAccount reports whether account may hold stake for membership
// member: the controller itself or an account bound to it.
func (s *State) IsStakingAccount(member, account uint64) (bool, error) {
	ok, err := s.MemberExists(member)
	if err != nil || !ok {
		return false, err
	}
	if account == member {
		return true, nil
	}
	a, err := s.GetAccount(account)
	if err == ErrAccountNoexists || err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.BoundMember == member, nil
}
