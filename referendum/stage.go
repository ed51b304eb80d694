package referendum

import (
	"github.com/calehh/council-app/types"
)

// Start opens the voting stage of cycleID, the winningTargetCount options
// with the most power win.
func (m *Module) Start(winningTargetCount, cycleID uint64) error {
	stage, err := m.store.ReferendumStage()
	if err != nil {
		return err
	}
	if stage.Kind != types.ReferendumInactive {
		return ErrReferendumAlreadyRunning
	}
	err = m.store.SetReferendumStage(types.ReferendumStage{
		Kind:               types.ReferendumVoting,
		Started:            m.height,
		WinningTargetCount: winningTargetCount,
		CycleID:            cycleID,
	})
	if err != nil {
		return err
	}
	m.logger.Info("referendum started", "height", m.height, "cycle", cycleID, "target", winningTargetCount)
	m.events.Emit(types.EncodeEventReferendumStarted(&types.EventReferendumStarted{
		WinningTargetCount: winningTargetCount,
		CycleID:            cycleID,
	}))
	return nil
}

func (m *Module) OnFinalize() error {
	stage, err := m.store.ReferendumStage()
	if err != nil {
		return err
	}
	var elapsed uint64
	if m.height > stage.Started {
		elapsed = m.height - stage.Started
	}
	switch stage.Kind {
	case types.ReferendumVoting:
		if elapsed < m.params.VoteStageDuration {
			return nil
		}
		stage.Kind = types.ReferendumRevealing
		stage.Started = m.height
		stage.IntermediateWinners = nil
		if err = m.store.SetReferendumStage(stage); err != nil {
			return err
		}
		m.logger.Info("revealing started", "height", m.height, "cycle", stage.CycleID)
		m.events.Emit(types.EncodeEventRevealingStarted(stage.CycleID))
	case types.ReferendumRevealing:
		if elapsed < m.params.RevealStageDuration {
			return nil
		}
		winners := stage.IntermediateWinners
		if winners == nil {
			winners = []types.OptionResult{}
		}
		if err = m.store.SetReferendumStage(types.ReferendumStage{Kind: types.ReferendumInactive}); err != nil {
			return err
		}
		m.logger.Info("referendum finished", "height", m.height, "cycle", stage.CycleID, "winners", len(winners))
		m.events.Emit(types.EncodeEventReferendumFinished(&types.EventReferendumFinished{
			CycleID: stage.CycleID,
			Winners: winners,
		}))
		return m.conn.ReceiveResults(winners)
	}
	return nil
}

// insertWinner moves option to its place in winners, ordered by power
// descending. An entry with equal power stays ahead of the newcomer.
func insertWinner(winners []types.OptionResult, option, power, target uint64) []types.OptionResult {
	res := make([]types.OptionResult, 0, len(winners)+1)
	for _, w := range winners {
		if w.OptionID != option {
			res = append(res, w)
		}
	}
	idx := len(res)
	for i, w := range res {
		if w.VotePower < power {
			idx = i
			break
		}
	}
	if uint64(idx) >= target {
		return res
	}
	res = append(res, types.OptionResult{})
	copy(res[idx+1:], res[idx:])
	res[idx] = types.OptionResult{OptionID: option, VotePower: power}
	if uint64(len(res)) > target {
		res = res[:target]
	}
	return res
}
