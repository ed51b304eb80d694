package council

import (
	"math"
	"math/bits"

	"github.com/calehh/council-app/types"
)

// saturating arithmetic for treasury amounts, capped at MaxUint64
func satAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func satMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// tryRefillBudget credits every refill period that has elapsed since
// NextBudgetRefill in one step and moves the refill height by whole periods.
func (m *Module) tryRefillBudget() error {
	next, err := m.store.NextBudgetRefill()
	if err != nil {
		return err
	}
	if m.height < next {
		return nil
	}
	periods := (m.height-next)/m.settings.BudgetRefillPeriod + 1
	amount := satMul(periods, m.settings.BudgetRefillAmount)
	budget, err := m.store.Budget()
	if err != nil {
		return err
	}
	budget = satAdd(budget, amount)
	if err = m.store.SetBudget(budget); err != nil {
		return err
	}
	if err = m.store.SetNextBudgetRefill(satAdd(next, satMul(periods, m.settings.BudgetRefillPeriod))); err != nil {
		return err
	}
	budgetRefills.Add(float64(periods))
	m.logger.Info("budget refilled", "height", m.height, "amount", amount, "periods", periods, "budget", budget)
	m.events.Emit(types.EncodeEventBudgetRefill(&types.EventBudget{Amount: amount, Balance: budget}))
	return nil
}

func (m *Module) tryPayRewards() error {
	next, err := m.store.NextRewardPayments()
	if err != nil {
		return err
	}
	if m.height < next {
		return nil
	}
	members, err := m.store.CouncilMembers()
	if err != nil {
		return err
	}
	for i := range members {
		if err = m.payReward(&members[i]); err != nil {
			return err
		}
	}
	if len(members) > 0 {
		if err = m.store.SetCouncilMembers(members); err != nil {
			return err
		}
	}
	return m.store.SetNextRewardPayments(m.height + m.settings.ElectedMemberRewardPeriod)
}

// payReward pays what the budget allows of the reward owed to member and
// carries the rest in UnpaidReward. An empty budget is not an error.
func (m *Module) payReward(member *types.CouncilMember) error {
	var blocks uint64
	if m.height > member.LastPaymentBlock {
		blocks = m.height - member.LastPaymentBlock
	}
	owed := satAdd(member.UnpaidReward, satMul(blocks, m.settings.ElectedMemberRewardPerBlock))
	budget, err := m.store.Budget()
	if err != nil {
		return err
	}
	paid := owed
	if budget < paid {
		paid = budget
	}
	if paid > 0 {
		if err = m.balances.Deposit(member.RewardAccount, paid); err != nil {
			return invariant(err, "pay reward account %d", member.RewardAccount)
		}
		if err = m.store.SetBudget(budget - paid); err != nil {
			return err
		}
	}
	member.UnpaidReward = owed - paid
	member.LastPaymentBlock = m.height
	rewardsPaid.Add(float64(paid))
	if member.UnpaidReward > 0 {
		m.logger.Info("reward partially paid", "member", member.MemberID, "paid", paid, "missing", member.UnpaidReward)
	}
	m.events.Emit(types.EncodeEventRewardPayment(&types.EventRewardPayment{
		Member:  member.MemberID,
		Account: member.RewardAccount,
		Paid:    paid,
		Missing: member.UnpaidReward,
	}))
	return nil
}

func (m *Module) SetBudget(origin Origin, amount uint64) error {
	if err := m.ensureRoot(origin); err != nil {
		return err
	}
	if err := m.store.SetBudget(amount); err != nil {
		return err
	}
	m.logger.Info("budget set", "budget", amount)
	m.events.Emit(types.EncodeEventBudgetBalanceSet(&types.EventBudget{Balance: amount}))
	return nil
}

func (m *Module) PlanBudgetRefill(origin Origin, next uint64) error {
	if err := m.ensureRoot(origin); err != nil {
		return err
	}
	if next <= m.height {
		return ErrInvalidRefillBlock
	}
	if err := m.store.SetNextBudgetRefill(next); err != nil {
		return err
	}
	m.logger.Info("budget refill planned", "block", next)
	m.events.Emit(types.EncodeEventBudgetRefillPlanned(&types.EventBudgetRefillPlanned{Block: next}))
	return nil
}
