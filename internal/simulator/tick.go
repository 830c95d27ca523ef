package simulator

import "coupler-sim/internal/model"

// Tick drives one cycle of the simulation: advance the scripted scenario,
// evaluate the reactive graph, apply emissions under current ownership,
// re-apply active forces, then check the watchdog (§4.6).
func (s *Simulator) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return
	}

	now := nowMs()
	s.currentTick++

	s.activeScripted.Advance(now, s.getChannelLocked, func(ref model.ChannelRef, value float64) {
		s.applyScenarioWriteLocked(ref, value, "")
	})

	if s.reactiveEngine != nil {
		s.reactiveTick++
		emissions := s.reactiveEngine.Evaluate(s.reactiveTick, s.getChannelLocked, s.isLockedLocked)
		for _, e := range emissions {
			if s.isLockedLocked(e.Target) {
				continue
			}
			s.applyScenarioWriteLocked(e.Target, e.Value, e.BehaviorID)
		}
	}

	s.reapplyForcesLocked()
	s.checkWatchdogLocked(now)
	s.syncHoldingRegistersLocked()
}

// getChannelLocked resolves a channel's current effective value. Callers
// must hold s.mu.
func (s *Simulator) getChannelLocked(ref model.ChannelRef) float64 {
	if ref.ModulePosition < 0 || ref.ModulePosition >= len(s.mods) {
		return 0
	}
	channels, _ := s.mods[ref.ModulePosition].State()
	for _, c := range channels {
		if c.Index == ref.Channel {
			if c.Bool != nil {
				return boolToFloat(*c.Bool)
			}
			if c.Number != nil {
				return *c.Number
			}
		}
	}
	return 0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// isLockedLocked reports whether ref is currently forced or manually
// overridden, making it ineligible for reactive emission.
func (s *Simulator) isLockedLocked(ref model.ChannelRef) bool {
	rec, ok := s.ownership.RecordOf(ref)
	return ok && (rec.Force.Enabled || rec.HasManual)
}

// applyScenarioWriteLocked writes value to ref through the Scenario
// ownership layer, pushing the resolved value to the module.
func (s *Simulator) applyScenarioWriteLocked(ref model.ChannelRef, value float64, behaviorID string) {
	if ref.ModulePosition < 0 || ref.ModulePosition >= len(s.mods) {
		return
	}
	resolved, _ := s.ownership.SetScenario(ref, value, behaviorID)
	_ = s.mods[ref.ModulePosition].SetChannelValue(ref.Channel, resolved)
	s.recordHistoryLocked(ref, resolved, model.SourceScenario, behaviorID)
}

// reapplyForcesLocked re-pushes every active force's value to its module,
// idempotent when nothing else has touched that channel this tick.
func (s *Simulator) reapplyForcesLocked() {
	for i, m := range s.mods {
		count := m.ChannelCount()
		for ch := 0; ch < count; ch++ {
			ref := model.ChannelRef{ModulePosition: i, Channel: ch}
			rec, ok := s.ownership.RecordOf(ref)
			if !ok || !rec.Force.Enabled {
				continue
			}
			_ = m.SetChannelValue(ch, rec.Force.Value)
		}
	}
}

// StartSimulation transitions to Running; idempotent if already running.
func (s *Simulator) StartSimulation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simState = model.StateRunning
}

// StopSimulation transitions to Stopped without tearing down connections.
func (s *Simulator) StopSimulation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simState = model.StateStopped
}

// SimulationState reports the current run state.
func (s *Simulator) SimulationState() model.SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simState
}
