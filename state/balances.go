package state

import (
	"errors"

	"github.com/calehh/council-app/types"
)

var (
	ErrInsufficientBalance = errors.New("account insufficient balance")
	ErrZeroLock            = errors.New("lock amount is zero")
)

// Locks overlap: every lock applies to the same balance, so the usable
// balance is balance minus the largest lock.

func (s *State) Balance(account uint64) (uint64, error) {
	a, err := s.GetAccount(account)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// Lock sets the named lock on account to amount, replacing a previous lock
// with the same id.
func (s *State) Lock(account uint64, id types.LockID, amount uint64) error {
	if amount == 0 {
		return ErrZeroLock
	}
	a, err := s.GetAccount(account)
	if err != nil {
		return err
	}
	if a.Balance < amount {
		return ErrInsufficientBalance
	}
	for i := range a.Locks {
		if a.Locks[i].ID == id {
			a.Locks[i].Amount = amount
			return s.SetAccount(a)
		}
	}
	a.Locks = append(a.Locks, Lock{ID: id, Amount: amount})
	return s.SetAccount(a)
}

// Unlock drops the named lock, a missing lock is not an error.
func (s *State) Unlock(account uint64, id types.LockID) error {
	a, err := s.GetAccount(account)
	if err != nil {
		return err
	}
	for i := range a.Locks {
		if a.Locks[i].ID == id {
			a.Locks = append(a.Locks[:i], a.Locks[i+1:]...)
			return s.SetAccount(a)
		}
	}
	return nil
}

func (s *State) LockedAmount(account uint64, id types.LockID) (uint64, error) {
	a, err := s.GetAccount(account)
	if err != nil {
		return 0, err
	}
	for _, l := range a.Locks {
		if l.ID == id {
			return l.Amount, nil
		}
	}
	return 0, nil
}

func (s *State) Deposit(account uint64, amount uint64) error {
	a, err := s.GetAccount(account)
	if err != nil {
		return err
	}
	a.Balance += amount
	return s.SetAccount(a)
}
