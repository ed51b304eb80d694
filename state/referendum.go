package state

import (
	"fmt"

	"github.com/calehh/council-app/types"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	KeyReferendumStage = "referendum/stage"
	KeyVotePrefix      = "referendum/vote/"
	KeyVote            = KeyVotePrefix + "%016x"
)

func (s *State) ReferendumStage() (stage types.ReferendumStage, err error) {
	_, err = s.getRLP(KeyReferendumStage, &stage)
	return
}

func (s *State) SetReferendumStage(stage types.ReferendumStage) error {
	return s.setRLP(KeyReferendumStage, stage)
}

// Vote returns nil when account has no vote record.
func (s *State) Vote(account uint64) (*types.CastVote, error) {
	v := new(types.CastVote)
	found, err := s.getRLP(fmt.Sprintf(KeyVote, account), v)
	if err != nil || !found {
		return nil, err
	}
	return v, nil
}

func (s *State) SetVote(account uint64, vote *types.CastVote) error {
	return s.setRLP(fmt.Sprintf(KeyVote, account), vote)
}

func (s *State) RemoveVote(account uint64) error {
	s.remove(fmt.Sprintf(KeyVote, account))
	return nil
}

type AccountVote struct {
	Account uint64         `json:"account"`
	Vote    types.CastVote `json:"vote"`
}

func (s *State) Votes() (res []AccountVote, err error) {
	err = s.iterate(KeyVotePrefix, func(key string, val []byte) error {
		var av AccountVote
		if _, err := fmt.Sscanf(key[len(KeyVotePrefix):], "%016x", &av.Account); err != nil {
			return err
		}
		if err := rlp.DecodeBytes(val, &av.Vote); err != nil {
			return err
		}
		res = append(res, av)
		return nil
	})
	return
}
