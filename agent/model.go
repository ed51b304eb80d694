package agent

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

const (
	CandidateAnnounced = "announced"
	CandidateWithdrawn = "withdrawn"
	CandidateElected   = "elected"
	CandidateReleased  = "released"
)

type Candidate struct {
	Id             uint64 `gorm:"primary_key" json:"id"`
	Member         uint64 `gorm:"index" json:"member"`
	Cycle          uint64 `gorm:"index" json:"cycle"`
	StakingAccount uint64 `json:"staking_account"`
	RewardAccount  uint64 `json:"reward_account"`
	Stake          uint64 `json:"stake"`
	NoteHash       string `json:"note_hash"`
	Status         string `json:"status"`
	Height         uint64 `json:"height"`
}

type Councilor struct {
	Member        uint64 `gorm:"primary_key;auto_increment:false" json:"member"`
	ElectedCycle  uint64 `json:"elected_cycle"`
	ElectedHeight uint64 `json:"elected_height"`
	Active        bool   `json:"active"`
	TotalPaid     uint64 `json:"total_paid"`
}

type Election struct {
	Id      uint64 `gorm:"primary_key" json:"id"`
	Cycle   uint64 `gorm:"index" json:"cycle"`
	Height  uint64 `json:"height"`
	Winners string `json:"winners"`
	Elected bool   `json:"elected"`
	Members string `json:"members"`
}

type RewardPayment struct {
	Id      uint64 `gorm:"primary_key" json:"id"`
	Member  uint64 `gorm:"index" json:"member"`
	Account uint64 `json:"account"`
	Paid    uint64 `json:"paid"`
	Missing uint64 `json:"missing"`
	Height  uint64 `json:"height"`
}

const (
	BudgetEntrySet     = "set"
	BudgetEntryRefill  = "refill"
	BudgetEntryPayment = "payment"
)

type BudgetEntry struct {
	Id      uint64 `gorm:"primary_key" json:"id"`
	Kind    string `json:"kind"`
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
	Height  uint64 `json:"height"`
}
