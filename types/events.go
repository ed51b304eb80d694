package types

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventAnnouncingStartedType     = "announcing_started"
	EventNotEnoughCandidatesType   = "not_enough_candidates"
	EventVotingStartedType         = "voting_started"
	EventNewCandidateType          = "new_candidate"
	EventNewCouncilElectedType     = "new_council_elected"
	EventNewCouncilNotElectedType  = "new_council_not_elected"
	EventCandidacyStakeReleaseType = "candidacy_stake_release"
	EventCandidacyWithdrawType     = "candidacy_withdraw"
	EventCandidacyNoteSetType      = "candidacy_note_set"
	EventRewardPaymentType         = "reward_payment"
	EventBudgetBalanceSetType      = "budget_balance_set"
	EventBudgetRefillType          = "budget_refill"
	EventBudgetRefillPlannedType   = "budget_refill_planned"

	EventReferendumStartedType  = "referendum_started"
	EventRevealingStartedType   = "revealing_started"
	EventReferendumFinishedType = "referendum_finished"
	EventVoteCastType           = "vote_cast"
	EventVoteRevealedType       = "vote_revealed"
	EventVoteStakeReleasedType  = "vote_stake_released"
)

// EventList collects the events emitted while executing one tx or tick.
type EventList struct {
	Events []abci.Event
}

func (l *EventList) Emit(ev abci.Event) {
	l.Events = append(l.Events, ev)
}

func (l *EventList) Reset() []abci.Event {
	evs := l.Events
	l.Events = nil
	return evs
}

func uintAttr(key string, v uint64, index bool) abci.EventAttribute {
	return abci.EventAttribute{Key: key, Value: strconv.FormatUint(v, 10), Index: index}
}

// decodeUints fills the uint fields named in fields; false when one of them
// is not a number.
func decodeUints(ev abci.Event, fields map[string]*uint64) bool {
	for _, v := range ev.Attributes {
		p, ok := fields[v.Key]
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(v.Value, 10, 64)
		if err != nil {
			return false
		}
		*p = n
	}
	return true
}

type EventAnnouncingStarted struct {
	CycleID uint64 `json:"cycleId"`
}

func EncodeEventAnnouncingStarted(event *EventAnnouncingStarted) abci.Event {
	return abci.Event{
		Type:       EventAnnouncingStartedType,
		Attributes: []abci.EventAttribute{uintAttr("cycle", event.CycleID, true)},
	}
}

func DecodeEventAnnouncingStarted(originEvent abci.Event) *EventAnnouncingStarted {
	event := &EventAnnouncingStarted{}
	if !decodeUints(originEvent, map[string]*uint64{"cycle": &event.CycleID}) {
		return nil
	}
	return event
}

type EventNotEnoughCandidates struct {
	CandidatesCount uint64 `json:"candidatesCount"`
}

func EncodeEventNotEnoughCandidates(event *EventNotEnoughCandidates) abci.Event {
	return abci.Event{
		Type:       EventNotEnoughCandidatesType,
		Attributes: []abci.EventAttribute{uintAttr("candidates", event.CandidatesCount, false)},
	}
}

type EventVotingStarted struct {
	CycleID         uint64 `json:"cycleId"`
	CandidatesCount uint64 `json:"candidatesCount"`
}

func EncodeEventVotingStarted(event *EventVotingStarted) abci.Event {
	return abci.Event{
		Type: EventVotingStartedType,
		Attributes: []abci.EventAttribute{
			uintAttr("cycle", event.CycleID, true),
			uintAttr("candidates", event.CandidatesCount, false),
		},
	}
}

func DecodeEventVotingStarted(originEvent abci.Event) *EventVotingStarted {
	event := &EventVotingStarted{}
	if !decodeUints(originEvent, map[string]*uint64{
		"cycle":      &event.CycleID,
		"candidates": &event.CandidatesCount,
	}) {
		return nil
	}
	return event
}

type EventNewCandidate struct {
	Member         uint64 `json:"member"`
	StakingAccount uint64 `json:"stakingAccount"`
	RewardAccount  uint64 `json:"rewardAccount"`
	Stake          uint64 `json:"stake"`
	CycleID        uint64 `json:"cycleId"`
}

func EncodeEventNewCandidate(event *EventNewCandidate) abci.Event {
	return abci.Event{
		Type: EventNewCandidateType,
		Attributes: []abci.EventAttribute{
			uintAttr("member", event.Member, true),
			uintAttr("staking", event.StakingAccount, false),
			uintAttr("reward", event.RewardAccount, false),
			uintAttr("stake", event.Stake, false),
			uintAttr("cycle", event.CycleID, true),
		},
	}
}

func DecodeEventNewCandidate(originEvent abci.Event) *EventNewCandidate {
	event := &EventNewCandidate{}
	if !decodeUints(originEvent, map[string]*uint64{
		"member":  &event.Member,
		"staking": &event.StakingAccount,
		"reward":  &event.RewardAccount,
		"stake":   &event.Stake,
		"cycle":   &event.CycleID,
	}) {
		return nil
	}
	return event
}

type EventNewCouncilElected struct {
	Members []uint64 `json:"members"`
}

func EncodeEventNewCouncilElected(event *EventNewCouncilElected) abci.Event {
	ids := make([]string, len(event.Members))
	for i, m := range event.Members {
		ids[i] = strconv.FormatUint(m, 10)
	}
	return abci.Event{
		Type: EventNewCouncilElectedType,
		Attributes: []abci.EventAttribute{
			{Key: "members", Value: strings.Join(ids, ","), Index: false},
		},
	}
}

func DecodeEventNewCouncilElected(originEvent abci.Event) *EventNewCouncilElected {
	event := &EventNewCouncilElected{Members: []uint64{}}
	for _, v := range originEvent.Attributes {
		if v.Key != "members" || v.Value == "" {
			continue
		}
		for _, s := range strings.Split(v.Value, ",") {
			m, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil
			}
			event.Members = append(event.Members, m)
		}
	}
	return event
}

func EncodeEventNewCouncilNotElected() abci.Event {
	return abci.Event{Type: EventNewCouncilNotElectedType}
}

// EventMember is shared by the events that only carry a membership id.
type EventMember struct {
	Member uint64 `json:"member"`
}

func EncodeEventCandidacyStakeRelease(event *EventMember) abci.Event {
	return abci.Event{
		Type:       EventCandidacyStakeReleaseType,
		Attributes: []abci.EventAttribute{uintAttr("member", event.Member, true)},
	}
}

func EncodeEventCandidacyWithdraw(event *EventMember) abci.Event {
	return abci.Event{
		Type:       EventCandidacyWithdrawType,
		Attributes: []abci.EventAttribute{uintAttr("member", event.Member, true)},
	}
}

func DecodeEventMember(originEvent abci.Event) *EventMember {
	event := &EventMember{}
	if !decodeUints(originEvent, map[string]*uint64{"member": &event.Member}) {
		return nil
	}
	return event
}

type EventCandidacyNoteSet struct {
	Member   uint64 `json:"member"`
	NoteHash []byte `json:"noteHash"`
}

func EncodeEventCandidacyNoteSet(event *EventCandidacyNoteSet) abci.Event {
	return abci.Event{
		Type: EventCandidacyNoteSetType,
		Attributes: []abci.EventAttribute{
			uintAttr("member", event.Member, true),
			{Key: "note", Value: hex.EncodeToString(event.NoteHash), Index: false},
		},
	}
}

func DecodeEventCandidacyNoteSet(originEvent abci.Event) *EventCandidacyNoteSet {
	event := &EventCandidacyNoteSet{}
	if !decodeUints(originEvent, map[string]*uint64{"member": &event.Member}) {
		return nil
	}
	for _, v := range originEvent.Attributes {
		if v.Key == "note" {
			h, err := hex.DecodeString(v.Value)
			if err != nil {
				return nil
			}
			event.NoteHash = h
		}
	}
	return event
}

type EventRewardPayment struct {
	Member  uint64 `json:"member"`
	Account uint64 `json:"account"`
	Paid    uint64 `json:"paid"`
	Missing uint64 `json:"missing"`
}

func EncodeEventRewardPayment(event *EventRewardPayment) abci.Event {
	return abci.Event{
		Type: EventRewardPaymentType,
		Attributes: []abci.EventAttribute{
			uintAttr("member", event.Member, true),
			uintAttr("account", event.Account, false),
			uintAttr("paid", event.Paid, false),
			uintAttr("missing", event.Missing, false),
		},
	}
}

func DecodeEventRewardPayment(originEvent abci.Event) *EventRewardPayment {
	event := &EventRewardPayment{}
	if !decodeUints(originEvent, map[string]*uint64{
		"member":  &event.Member,
		"account": &event.Account,
		"paid":    &event.Paid,
		"missing": &event.Missing,
	}) {
		return nil
	}
	return event
}

type EventBudget struct {
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
}

func EncodeEventBudgetBalanceSet(event *EventBudget) abci.Event {
	return abci.Event{
		Type:       EventBudgetBalanceSetType,
		Attributes: []abci.EventAttribute{uintAttr("balance", event.Balance, false)},
	}
}

func EncodeEventBudgetRefill(event *EventBudget) abci.Event {
	return abci.Event{
		Type: EventBudgetRefillType,
		Attributes: []abci.EventAttribute{
			uintAttr("amount", event.Amount, false),
			uintAttr("balance", event.Balance, false),
		},
	}
}

func DecodeEventBudget(originEvent abci.Event) *EventBudget {
	event := &EventBudget{}
	if !decodeUints(originEvent, map[string]*uint64{
		"amount":  &event.Amount,
		"balance": &event.Balance,
	}) {
		return nil
	}
	return event
}

type EventBudgetRefillPlanned struct {
	Block uint64 `json:"block"`
}

func EncodeEventBudgetRefillPlanned(event *EventBudgetRefillPlanned) abci.Event {
	return abci.Event{
		Type:       EventBudgetRefillPlannedType,
		Attributes: []abci.EventAttribute{uintAttr("block", event.Block, false)},
	}
}

type EventReferendumStarted struct {
	WinningTargetCount uint64 `json:"winningTargetCount"`
	CycleID            uint64 `json:"cycleId"`
}

func EncodeEventReferendumStarted(event *EventReferendumStarted) abci.Event {
	return abci.Event{
		Type: EventReferendumStartedType,
		Attributes: []abci.EventAttribute{
			uintAttr("target", event.WinningTargetCount, false),
			uintAttr("cycle", event.CycleID, true),
		},
	}
}

func EncodeEventRevealingStarted(cycleID uint64) abci.Event {
	return abci.Event{
		Type:       EventRevealingStartedType,
		Attributes: []abci.EventAttribute{uintAttr("cycle", cycleID, true)},
	}
}

type EventReferendumFinished struct {
	CycleID uint64         `json:"cycleId"`
	Winners []OptionResult `json:"winners"`
}

func EncodeEventReferendumFinished(event *EventReferendumFinished) abci.Event {
	winners := make([]string, len(event.Winners))
	for i, w := range event.Winners {
		winners[i] = fmt.Sprintf("%d:%d", w.OptionID, w.VotePower)
	}
	return abci.Event{
		Type: EventReferendumFinishedType,
		Attributes: []abci.EventAttribute{
			uintAttr("cycle", event.CycleID, true),
			{Key: "winners", Value: strings.Join(winners, ","), Index: false},
		},
	}
}

func DecodeEventReferendumFinished(originEvent abci.Event) *EventReferendumFinished {
	event := &EventReferendumFinished{Winners: []OptionResult{}}
	if !decodeUints(originEvent, map[string]*uint64{"cycle": &event.CycleID}) {
		return nil
	}
	for _, v := range originEvent.Attributes {
		if v.Key != "winners" || v.Value == "" {
			continue
		}
		for _, s := range strings.Split(v.Value, ",") {
			var w OptionResult
			if _, err := fmt.Sscanf(s, "%d:%d", &w.OptionID, &w.VotePower); err != nil {
				return nil
			}
			event.Winners = append(event.Winners, w)
		}
	}
	return event
}

type EventVoteCast struct {
	Account    uint64 `json:"account"`
	Commitment []byte `json:"commitment"`
	Stake      uint64 `json:"stake"`
	CycleID    uint64 `json:"cycleId"`
}

func EncodeEventVoteCast(event *EventVoteCast) abci.Event {
	return abci.Event{
		Type: EventVoteCastType,
		Attributes: []abci.EventAttribute{
			uintAttr("account", event.Account, true),
			{Key: "commitment", Value: hex.EncodeToString(event.Commitment), Index: false},
			uintAttr("stake", event.Stake, false),
			uintAttr("cycle", event.CycleID, true),
		},
	}
}

type EventVoteRevealed struct {
	Account uint64 `json:"account"`
	Option  uint64 `json:"option"`
	Power   uint64 `json:"power"`
	CycleID uint64 `json:"cycleId"`
}

func EncodeEventVoteRevealed(event *EventVoteRevealed) abci.Event {
	return abci.Event{
		Type: EventVoteRevealedType,
		Attributes: []abci.EventAttribute{
			uintAttr("account", event.Account, true),
			uintAttr("option", event.Option, true),
			uintAttr("power", event.Power, false),
			uintAttr("cycle", event.CycleID, true),
		},
	}
}

func DecodeEventVoteRevealed(originEvent abci.Event) *EventVoteRevealed {
	event := &EventVoteRevealed{}
	if !decodeUints(originEvent, map[string]*uint64{
		"account": &event.Account,
		"option":  &event.Option,
		"power":   &event.Power,
		"cycle":   &event.CycleID,
	}) {
		return nil
	}
	return event
}

func EncodeEventVoteStakeReleased(account uint64) abci.Event {
	return abci.Event{
		Type:       EventVoteStakeReleasedType,
		Attributes: []abci.EventAttribute{uintAttr("account", account, true)},
	}
}
