package tx

import (
	"encoding/json"
)

// CouncilTx is the signed envelope of every council transaction. Signer is
// the account index, the signature covers the envelope with Sig replaced by
// the chain id.
type CouncilTx struct {
	Version uint8         `json:"version"`
	Type    CouncilTxType `json:"type"`
	Nonce   uint64        `json:"nonce"`
	Signer  uint64        `json:"signer"`
	Tx      any           `json:"tx"`
	Sig     [][]byte      `json:"sig"`
}

type AnnounceCandidacyTx struct {
	Member         uint64 `json:"member"`
	StakingAccount uint64 `json:"stakingAccount"`
	RewardAccount  uint64 `json:"rewardAccount"`
	Stake          uint64 `json:"stake"`
}

type WithdrawCandidacyTx struct {
	Member uint64 `json:"member"`
}

type SetCandidacyNoteTx struct {
	Member uint64 `json:"member"`
	Note   []byte `json:"note"`
}

type ReleaseCandidacyStakeTx struct {
	Member uint64 `json:"member"`
}

type SetBudgetTx struct {
	Amount uint64 `json:"amount"`
}

type PlanBudgetRefillTx struct {
	Block uint64 `json:"block"`
}

type VoteTx struct {
	Commitment []byte `json:"commitment"`
	Stake      uint64 `json:"stake"`
}

type RevealVoteTx struct {
	Salt   []byte `json:"salt"`
	Option uint64 `json:"option"`
}

type ReleaseVoteStakeTx struct{}

type councilTxTmpl[Tx any] struct {
	Version uint8         `json:"version"`
	Type    CouncilTxType `json:"type"`
	Nonce   uint64        `json:"nonce"`
	Signer  uint64        `json:"signer"`
	Tx      Tx            `json:"tx"`
	Sig     [][]byte      `json:"sig"`
}

func (tx *CouncilTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseCouncilTxType(dat []byte) CouncilTxType {
	var tx struct {
		Type CouncilTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return CouncilTxTypeUnknown
	}
	return tx.Type
}

func unmarshalCouncilTx[Tx any](dat []byte) (btx *CouncilTx, err error) {
	var txt councilTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version > CouncilTxVersion1 {
		err = ErrUnsupportedTxVersion
		return
	}
	btx = new(CouncilTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Signer = txt.Signer
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalCouncilTx(dat []byte) (btx *CouncilTx, err error) {
	tp := parseCouncilTxType(dat)
	switch tp {
	case CouncilTxTypeAnnounceCandidacy:
		return unmarshalCouncilTx[AnnounceCandidacyTx](dat)
	case CouncilTxTypeWithdrawCandidacy:
		return unmarshalCouncilTx[WithdrawCandidacyTx](dat)
	case CouncilTxTypeSetCandidacyNote:
		return unmarshalCouncilTx[SetCandidacyNoteTx](dat)
	case CouncilTxTypeReleaseCandidacyStake:
		return unmarshalCouncilTx[ReleaseCandidacyStakeTx](dat)
	case CouncilTxTypeSetBudget:
		return unmarshalCouncilTx[SetBudgetTx](dat)
	case CouncilTxTypePlanBudgetRefill:
		return unmarshalCouncilTx[PlanBudgetRefillTx](dat)
	case CouncilTxTypeVote:
		return unmarshalCouncilTx[VoteTx](dat)
	case CouncilTxTypeRevealVote:
		return unmarshalCouncilTx[RevealVoteTx](dat)
	case CouncilTxTypeReleaseVoteStake:
		return unmarshalCouncilTx[ReleaseVoteStakeTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalCouncilTx(btx *CouncilTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
