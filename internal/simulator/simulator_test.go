package simulator

import (
	"testing"

	"coupler-sim/internal/model"
)

func testRack() *model.RackConfig {
	return &model.RackConfig{
		ID:      "rack-1",
		Name:    "test rack",
		Coupler: model.CouplerSettings{Model: "750-343", Host: "0.0.0.0", Port: 502, UnitID: 1},
		Modules: []model.ModuleInstance{
			{ID: "m0", ModelNumber: "750-1405", SlotPosition: 0}, // digital in, 16ch
			{ID: "m1", ModelNumber: "750-530", SlotPosition: 1},  // digital out, 8ch
			{ID: "m2", ModelNumber: "750-455", SlotPosition: 2},  // analog in, 4ch, 4-20mA
		},
	}
}

func newTestSimulator(t *testing.T) *Simulator {
	t.Helper()
	s := New()
	if err := s.LoadRack(testRack()); err != nil {
		t.Fatalf("LoadRack: %v", err)
	}
	return s
}

func TestDigitalInputEchoesThroughDiscreteInputs(t *testing.T) {
	s := newTestSimulator(t)
	if err := s.SetChannelValue(0, 3, 1); err != nil {
		t.Fatalf("SetChannelValue: %v", err)
	}
	bits := s.ReadDiscreteInputs(3, 1)
	if len(bits) != 1 || !bits[0] {
		t.Fatalf("expected discrete input 3 to read true, got %v", bits)
	}
}

func TestCoilWriteRoundTripsAndForceShadowsIt(t *testing.T) {
	s := newTestSimulator(t)
	if err := s.WriteSingleCoil(0, true); err != nil {
		t.Fatalf("WriteSingleCoil: %v", err)
	}
	coils := s.ReadCoils(0, 1)
	if !coils[0] {
		t.Fatalf("expected coil 0 true after write, got %v", coils)
	}

	if err := s.SetForce(1, 0, 0); err != nil { // module position 1 is the digital-out module
		t.Fatalf("SetForce: %v", err)
	}
	if err := s.WriteSingleCoil(0, true); err != nil {
		t.Fatalf("WriteSingleCoil while forced: %v", err)
	}
	coils = s.ReadCoils(0, 1)
	if coils[0] {
		t.Fatalf("expected forced coil to stay false (shadowed write), got %v", coils)
	}

	states := s.AllModuleStates()
	ch := states[1].Channels[0]
	if !ch.Forced || ch.SourceTag != model.SourceForce {
		t.Fatalf("expected channel to report forced/force source, got %+v", ch)
	}
}

func TestAnalogInputEncodingRoundTrips(t *testing.T) {
	s := newTestSimulator(t)
	if err := s.SetChannelValue(2, 0, 12); err != nil {
		t.Fatalf("SetChannelValue: %v", err)
	}
	words := s.ReadInputRegisters(0, 1)
	if len(words) != 1 || words[0] == 0 {
		t.Fatalf("expected a non-zero encoded word for 12 in a 4-20mA range, got %v", words)
	}
}

func TestWatchdogZeroesDigitalOutputsOnTimeout(t *testing.T) {
	s := newTestSimulator(t)
	s.SetWatchdogTimeoutMs(10)
	if err := s.WriteSingleCoil(0, true); err != nil {
		t.Fatalf("WriteSingleCoil: %v", err)
	}
	if coils := s.ReadCoils(0, 1); !coils[0] {
		t.Fatalf("expected coil set before timeout")
	}

	s.mu.Lock()
	s.lastModbusActivityMs -= 1000 // force the watchdog window to have elapsed
	s.checkWatchdogLocked(nowMs())
	s.mu.Unlock()

	if coils := s.ReadCoils(0, 1); coils[0] {
		t.Fatalf("expected coil zeroed after watchdog timeout, got %v", coils)
	}
}

func TestWatchdogLeavesForcedChannelAlone(t *testing.T) {
	s := newTestSimulator(t)
	s.SetWatchdogTimeoutMs(10)
	if err := s.SetForce(1, 0, 1); err != nil {
		t.Fatalf("SetForce: %v", err)
	}

	s.mu.Lock()
	s.lastModbusActivityMs -= 1000
	s.checkWatchdogLocked(nowMs())
	s.mu.Unlock()

	if coils := s.ReadCoils(0, 1); !coils[0] {
		t.Fatalf("expected forced coil to survive watchdog timeout, got %v", coils)
	}
}

func TestReactiveDirectMappingWithDelayAppliesAfterTicks(t *testing.T) {
	s := newTestSimulator(t)
	src := model.ChannelRef{ModulePosition: 0, Channel: 0}  // digital in
	target := model.ChannelRef{ModulePosition: 1, Channel: 0} // digital out
	err := s.InstallReactiveScenarios([]model.ReactiveScenario{
		{
			Name:    "r1",
			Default: true,
			Behaviors: []model.ReactiveBehavior{
				{ID: "b1", Source: &src, Target: target, Mapping: model.Mapping{Kind: model.MappingDirect}, DelayMs: 200, Enabled: true},
			},
		},
	}, 100)
	if err != nil {
		t.Fatalf("InstallReactiveScenarios: %v", err)
	}

	if err := s.SetChannelValue(0, 0, 1); err != nil {
		t.Fatalf("SetChannelValue: %v", err)
	}

	s.Tick() // change detected, delay armed
	s.Tick() // still within the 2-tick delay window
	if coils := s.ReadCoils(0, 1); coils[0] {
		t.Fatalf("expected target to stay unset before the delay elapses")
	}
	s.Tick() // delay elapses, emission applies
	if coils := s.ReadCoils(0, 1); !coils[0] {
		t.Fatalf("expected target to be set once the delay elapses")
	}
}

func TestReactiveCycleIsRefused(t *testing.T) {
	s := newTestSimulator(t)
	a := model.ChannelRef{ModulePosition: 0, Channel: 0}
	b := model.ChannelRef{ModulePosition: 0, Channel: 1}
	err := s.ActivateReactiveScenario("missing", 100)
	if err == nil {
		t.Fatalf("expected error activating an unknown reactive scenario")
	}

	s.InstallReactiveScenarios([]model.ReactiveScenario{
		{
			Name: "cyclic",
			Behaviors: []model.ReactiveBehavior{
				{ID: "b1", Source: &b, Target: a, Mapping: model.Mapping{Kind: model.MappingDirect}, Enabled: true},
				{ID: "b2", Source: &a, Target: b, Mapping: model.Mapping{Kind: model.MappingDirect}, Enabled: true},
			},
		},
	}, 100)

	err = s.ActivateReactiveScenario("cyclic", 100)
	if err == nil {
		t.Fatalf("expected cycle-detected error activating a cyclic scenario")
	}
	kind, ok := model.KindOf(err)
	if !ok || kind != model.ErrCycleDetected {
		t.Fatalf("expected ErrCycleDetected, got %v (ok=%v)", kind, ok)
	}
}

func TestActivateReactiveScenarioRejectsDuplicateBehaviorIDs(t *testing.T) {
	s := newTestSimulator(t)
	a := model.ChannelRef{ModulePosition: 0, Channel: 0}
	b := model.ChannelRef{ModulePosition: 0, Channel: 1}

	s.InstallReactiveScenarios([]model.ReactiveScenario{
		{
			Name: "dup-ids",
			Behaviors: []model.ReactiveBehavior{
				{ID: "b1", Source: &a, Target: b, Mapping: model.Mapping{Kind: model.MappingDirect}, Enabled: true},
				{ID: "b1", Source: &b, Target: a, Mapping: model.Mapping{Kind: model.MappingDirect}, Enabled: true},
			},
		},
	}, 100)

	err := s.ActivateReactiveScenario("dup-ids", 100)
	if err == nil {
		t.Fatalf("expected an error activating a scenario with duplicate behavior ids")
	}
	kind, ok := model.KindOf(err)
	if !ok || kind != model.ErrValidationFailed {
		t.Fatalf("expected ErrValidationFailed, got %v (ok=%v)", kind, ok)
	}
}

func TestActivateReactiveScenarioRejectsScaledMappingWithoutParams(t *testing.T) {
	s := newTestSimulator(t)
	a := model.ChannelRef{ModulePosition: 0, Channel: 0}
	b := model.ChannelRef{ModulePosition: 0, Channel: 1}

	s.InstallReactiveScenarios([]model.ReactiveScenario{
		{
			Name: "legacy-scaled",
			Behaviors: []model.ReactiveBehavior{
				{ID: "b1", Source: &a, Target: b, Mapping: model.Mapping{Kind: model.MappingScaled}, Enabled: true},
			},
		},
	}, 100)

	err := s.ActivateReactiveScenario("legacy-scaled", 100)
	if err == nil {
		t.Fatalf("expected an error activating a scaled mapping with no scale/offset")
	}
	kind, ok := model.KindOf(err)
	if !ok || kind != model.ErrValidationFailed {
		t.Fatalf("expected ErrValidationFailed, got %v (ok=%v)", kind, ok)
	}
}

func TestClearForceFallsThroughWithoutRestoringShadow(t *testing.T) {
	s := newTestSimulator(t)
	if err := s.SetForce(1, 0, 0); err != nil {
		t.Fatalf("SetForce: %v", err)
	}
	if err := s.WriteSingleCoil(0, true); err != nil { // shadowed, absorbed
		t.Fatalf("WriteSingleCoil: %v", err)
	}
	if err := s.ClearForce(1, 0); err != nil {
		t.Fatalf("ClearForce: %v", err)
	}
	// No manual/scenario layer present, so it falls through to the
	// Default layer (0), not the absorbed shadow write (true).
	coils := s.ReadCoils(0, 1)
	if coils[0] {
		t.Fatalf("expected fallback to the default/off state, got %v", coils)
	}
}

func TestAddAndRemoveModule(t *testing.T) {
	s := newTestSimulator(t)
	inst, err := s.AddModule("750-550", 5)
	if err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	if err := s.RemoveModule(inst.ID); err != nil {
		t.Fatalf("RemoveModule: %v", err)
	}
	if err := s.RemoveModule(inst.ID); err == nil {
		t.Fatalf("expected removing an already-removed module to fail")
	}
}
