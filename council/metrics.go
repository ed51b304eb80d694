package council

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "council",
		Name:      "stage",
		Help:      "Current council stage (0 announcing, 1 election, 2 idle).",
	})
	cycleGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "council",
		Name:      "announcement_period",
		Help:      "Current announcement period number.",
	})
	candidatesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "council",
		Name:      "candidates",
		Help:      "Candidates announced in the current stage.",
	})
	budgetGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "council",
		Name:      "budget",
		Help:      "Council budget balance.",
	})
	membersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "council",
		Name:      "members",
		Help:      "Seated council members.",
	})
	unpaidGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "council",
		Name:      "unpaid_reward",
		Help:      "Reward owed to seated members and not yet paid.",
	})
	budgetRefills = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "council",
		Name:      "budget_refills_total",
		Help:      "Budget refill periods credited.",
	})
	rewardsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "council",
		Name:      "rewards_paid_total",
		Help:      "Reward paid to council members.",
	})
)

func (m *Module) observe() {
	stage, cycle, err := m.stageAndCycle()
	if err != nil {
		return
	}
	stageGauge.Set(float64(stage.Kind))
	cycleGauge.Set(float64(cycle))
	candidatesGauge.Set(float64(stage.CandidatesCount))
	if budget, err := m.store.Budget(); err == nil {
		budgetGauge.Set(float64(budget))
	}
	if members, err := m.store.CouncilMembers(); err == nil {
		var unpaid uint64
		for _, cm := range members {
			unpaid += cm.UnpaidReward
		}
		membersGauge.Set(float64(len(members)))
		unpaidGauge.Set(float64(unpaid))
	}
}
