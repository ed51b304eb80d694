package council

import (
	"github.com/calehh/council-app/types"
)

// OnFinalize is the block tick: stage progression first, then the budget
// refill and the reward payments.
func (m *Module) OnFinalize() error {
	if err := m.tryProgressStage(); err != nil {
		return err
	}
	if err := m.tryRefillBudget(); err != nil {
		return err
	}
	if err := m.tryPayRewards(); err != nil {
		return err
	}
	m.observe()
	return nil
}

func (m *Module) elapsed(stage types.CouncilStageUpdate) uint64 {
	if m.height < stage.ChangedAt {
		return 0
	}
	return m.height - stage.ChangedAt
}

func (m *Module) tryProgressStage() error {
	stage, err := m.store.CouncilStage()
	if err != nil {
		return err
	}
	switch stage.Kind {
	case types.StageAnnouncing:
		if m.elapsed(stage) >= m.settings.AnnouncingPeriodDuration {
			return m.endAnnouncingPeriod(stage)
		}
	case types.StageIdle:
		if m.elapsed(stage) >= m.settings.IdlePeriodDuration {
			return m.startAnnouncingPeriod()
		}
	case types.StageElection:
		// driven by the referendum
	}
	return nil
}

func (m *Module) endAnnouncingPeriod(stage types.CouncilStageUpdate) error {
	if stage.CandidatesCount < m.settings.MinCandidateCount() {
		stage.ChangedAt = m.height
		if err := m.store.SetCouncilStage(stage); err != nil {
			return err
		}
		m.logger.Info("announcing period extended", "height", m.height, "candidates", stage.CandidatesCount)
		m.events.Emit(types.EncodeEventNotEnoughCandidates(&types.EventNotEnoughCandidates{
			CandidatesCount: stage.CandidatesCount,
		}))
		return nil
	}
	cycle, err := m.store.AnnouncementPeriodNr()
	if err != nil {
		return err
	}
	if m.referendum == nil {
		return invariant(nil, "no referendum to start")
	}
	if err = m.referendum.Start(m.settings.CouncilSize, cycle); err != nil {
		return invariant(err, "start referendum for cycle %d", cycle)
	}
	err = m.store.SetCouncilStage(types.CouncilStageUpdate{
		Kind:            types.StageElection,
		CandidatesCount: stage.CandidatesCount,
		ChangedAt:       m.height,
	})
	if err != nil {
		return err
	}
	m.logger.Info("voting period started", "height", m.height, "cycle", cycle, "candidates", stage.CandidatesCount)
	m.events.Emit(types.EncodeEventVotingStarted(&types.EventVotingStarted{
		CycleID:         cycle,
		CandidatesCount: stage.CandidatesCount,
	}))
	return nil
}

func (m *Module) startAnnouncingPeriod() error {
	cycle, err := m.store.AnnouncementPeriodNr()
	if err != nil {
		return err
	}
	cycle += 1
	if err = m.store.SetAnnouncementPeriodNr(cycle); err != nil {
		return err
	}
	err = m.store.SetCouncilStage(types.CouncilStageUpdate{
		Kind:      types.StageAnnouncing,
		ChangedAt: m.height,
	})
	if err != nil {
		return err
	}
	m.logger.Info("announcing period started", "height", m.height, "cycle", cycle)
	m.events.Emit(types.EncodeEventAnnouncingStarted(&types.EventAnnouncingStarted{CycleID: cycle}))
	return nil
}
