package state

import (
	"fmt"

	"github.com/calehh/council-app/types"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	KeyCouncilStage       = "council/stage"
	KeyAnnouncementPeriod = "council/period"
	KeyCandidatePrefix    = "council/candidate/"
	KeyCandidate          = KeyCandidatePrefix + "%016x"
	KeyCouncilMembers     = "council/members"
	KeyBudget             = "council/budget"
	KeyNextBudgetRefill   = "council/refill"
	KeyNextRewardPayments = "council/reward"
)

func (s *State) getUint(key string) (v uint64, err error) {
	_, err = s.getRLP(key, &v)
	return
}

func (s *State) Params() (*types.ChainParams, error) {
	p := new(types.ChainParams)
	found, err := s.getRLP(KeyParams, p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrParamsNoexists
	}
	return p, nil
}

func (s *State) SetParams(p *types.ChainParams) error {
	return s.setRLP(KeyParams, p)
}

func (s *State) CouncilStage() (stage types.CouncilStageUpdate, err error) {
	_, err = s.getRLP(KeyCouncilStage, &stage)
	return
}

func (s *State) SetCouncilStage(stage types.CouncilStageUpdate) error {
	return s.setRLP(KeyCouncilStage, stage)
}

func (s *State) AnnouncementPeriodNr() (uint64, error) {
	return s.getUint(KeyAnnouncementPeriod)
}

func (s *State) SetAnnouncementPeriodNr(nr uint64) error {
	return s.setRLP(KeyAnnouncementPeriod, nr)
}

// Candidate returns nil when member has no candidacy record.
func (s *State) Candidate(member uint64) (*types.Candidate, error) {
	c := new(types.Candidate)
	found, err := s.getRLP(fmt.Sprintf(KeyCandidate, member), c)
	if err != nil || !found {
		return nil, err
	}
	return c, nil
}

func (s *State) SetCandidate(c *types.Candidate) error {
	return s.setRLP(fmt.Sprintf(KeyCandidate, c.MemberID), c)
}

func (s *State) RemoveCandidate(member uint64) error {
	s.remove(fmt.Sprintf(KeyCandidate, member))
	return nil
}

// Candidates lists every candidacy record ordered by membership id.
func (s *State) Candidates() (res []types.Candidate, err error) {
	err = s.iterate(KeyCandidatePrefix, func(_ string, val []byte) error {
		var c types.Candidate
		if err := rlp.DecodeBytes(val, &c); err != nil {
			return err
		}
		res = append(res, c)
		return nil
	})
	return
}

func (s *State) CouncilMembers() (members []types.CouncilMember, err error) {
	_, err = s.getRLP(KeyCouncilMembers, &members)
	return
}

func (s *State) SetCouncilMembers(members []types.CouncilMember) error {
	if members == nil {
		members = []types.CouncilMember{}
	}
	return s.setRLP(KeyCouncilMembers, members)
}

func (s *State) Budget() (uint64, error) {
	return s.getUint(KeyBudget)
}

func (s *State) SetBudget(amount uint64) error {
	return s.setRLP(KeyBudget, amount)
}

func (s *State) NextBudgetRefill() (uint64, error) {
	return s.getUint(KeyNextBudgetRefill)
}

func (s *State) SetNextBudgetRefill(height uint64) error {
	return s.setRLP(KeyNextBudgetRefill, height)
}

func (s *State) NextRewardPayments() (uint64, error) {
	return s.getUint(KeyNextRewardPayments)
}

func (s *State) SetNextRewardPayments(height uint64) error {
	return s.setRLP(KeyNextRewardPayments, height)
}
