package simulator

import (
	"coupler-sim/internal/model"
	"coupler-sim/internal/reactive"
)

// InstallScriptedScenarios replaces the library of known scripted
// scenarios, keyed by name.
func (s *Simulator) InstallScriptedScenarios(scenarios []model.ScriptedScenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scriptedScenarios = make(map[string]*model.ScriptedScenario, len(scenarios))
	for i := range scenarios {
		sc := scenarios[i]
		s.scriptedScenarios[sc.Name] = &sc
	}
}

// InstallReactiveScenarios replaces the library of known reactive
// scenarios and auto-activates the one marked default, if any. A failed
// auto-activation (e.g. a cycle) is reported but does not block the rest
// of rack loading (§9).
func (s *Simulator) InstallReactiveScenarios(scenarios []model.ReactiveScenario, tickMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactiveScenarios = make(map[string]*model.ReactiveScenario, len(scenarios))
	var def *model.ReactiveScenario
	for i := range scenarios {
		sc := scenarios[i]
		s.reactiveScenarios[sc.Name] = &sc
		if sc.Default {
			def = s.reactiveScenarios[sc.Name]
		}
	}
	if def == nil {
		return nil
	}
	return s.activateReactiveLocked(def.Name, tickMs)
}

// ListScenarios returns the names of every known scripted and reactive
// scenario.
func (s *Simulator) ListScenarios() (scripted []string, reactive []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.scriptedScenarios {
		scripted = append(scripted, name)
	}
	for name := range s.reactiveScenarios {
		reactive = append(reactive, name)
	}
	return scripted, reactive
}

// LoadScenario loads a named scripted scenario into the player (stopped).
func (s *Simulator) LoadScenario(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scriptedScenarios[name]
	if !ok {
		return model.NewNotFound("scenario", name)
	}
	s.activeScripted.Load(sc)
	return nil
}

// ControlScenario plays or stops the loaded scripted scenario.
func (s *Simulator) ControlScenario(verb string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch verb {
	case "play":
		s.activeScripted.Play(nowMs())
		return nil
	case "stop":
		s.activeScripted.Stop()
		return nil
	default:
		return model.NewUnknown(verb)
	}
}

// ScenarioStatus reports the scripted player's current state.
type ScenarioStatus struct {
	Loaded    bool
	Name      string
	Running   bool
	StepIndex int
}

// GetScenarioStatus reports the scripted player's current status.
func (s *Simulator) GetScenarioStatus() ScenarioStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := ScenarioStatus{Loaded: s.activeScripted.Loaded(), Running: s.activeScripted.Running(), StepIndex: s.activeScripted.StepIndex()}
	if sc := s.activeScripted.Scenario(); sc != nil {
		st.Name = sc.Name
	}
	return st
}

// ActivateReactiveScenario builds and installs the reactive engine for a
// named scenario, refusing activation (with CycleDetected) if its
// dependency graph has a cycle; no runtime state is mutated on failure.
func (s *Simulator) ActivateReactiveScenario(name string, tickMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activateReactiveLocked(name, tickMs)
}

func (s *Simulator) activateReactiveLocked(name string, tickMs int64) error {
	sc, ok := s.reactiveScenarios[name]
	if !ok {
		return model.NewNotFound("reactiveScenario", name)
	}
	if err := validateBehaviors(sc.Behaviors); err != nil {
		return err
	}
	engine, err := reactive.Build(sc.Behaviors, tickMs)
	if err != nil {
		return err
	}
	s.reactiveEngine = engine
	s.activeReactiveID = sc.Name
	s.reactiveTick = 0
	return nil
}

// DeactivateReactiveScenario clears the active reactive engine.
func (s *Simulator) DeactivateReactiveScenario() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactiveEngine = nil
	s.activeReactiveID = ""
}

func validateBehaviors(behaviors []model.ReactiveBehavior) error {
	var items []string
	seenIDs := make(map[string]bool, len(behaviors))
	for _, b := range behaviors {
		if seenIDs[b.ID] {
			items = append(items, b.ID+": duplicate behavior id within scenario")
		}
		seenIDs[b.ID] = true

		switch b.Mapping.Kind {
		case model.MappingConstant:
			if b.Source != nil {
				items = append(items, b.ID+": constant mapping forbids source")
			}
		case model.MappingScaled:
			if b.Source == nil {
				items = append(items, b.ID+": mapping requires source")
			}
			if b.Mapping.Scale == nil || b.Mapping.Offset == nil {
				items = append(items, b.ID+": scaled mapping requires scale and offset")
			}
		default:
			if b.Source == nil {
				items = append(items, b.ID+": mapping requires source")
			}
		}
	}
	if len(items) > 0 {
		return model.NewValidationFailed(items)
	}
	return nil
}
