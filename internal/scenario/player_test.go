package scenario

import (
	"testing"

	"coupler-sim/internal/model"
)

func TestSetStepWritesImmediately(t *testing.T) {
	p := NewPlayer()
	p.Load(&model.ScriptedScenario{
		Name: "s1",
		Steps: []model.ScenarioStep{
			{ModulePosition: 0, Channel: 0, Action: model.ActionSet, Value: 5},
		},
	})
	p.Play(0)

	var written []float64
	write := func(ref model.ChannelRef, v float64) { written = append(written, v) }
	get := func(model.ChannelRef) float64 { return 0 }

	p.Advance(0, get, write)
	if len(written) != 1 || written[0] != 5 {
		t.Fatalf("expected a single write of 5, got %v", written)
	}
	if p.StepIndex() != 1 {
		t.Fatalf("expected step index to advance to 1, got %d", p.StepIndex())
	}
}

func TestRampProgressesToTarget(t *testing.T) {
	p := NewPlayer()
	p.Load(&model.ScriptedScenario{
		Steps: []model.ScenarioStep{
			{ModulePosition: 0, Channel: 0, Action: model.ActionRamp, Value: 10, DurationMs: 100},
		},
	})
	p.Play(0)
	get := func(model.ChannelRef) float64 { return 0 }

	var last float64
	write := func(ref model.ChannelRef, v float64) { last = v }

	p.Advance(0, get, write) // triggers the ramp
	p.Advance(50, get, write)
	if last < 4.5 || last > 5.5 {
		t.Fatalf("expected ~5 at 50%% progress, got %v", last)
	}
	p.Advance(100, get, write)
	if last != 10 {
		t.Fatalf("expected ramp to reach target 10, got %v", last)
	}
}

func TestPulseRestoresOriginalValueAfterDuration(t *testing.T) {
	p := NewPlayer()
	p.Load(&model.ScriptedScenario{
		Steps: []model.ScenarioStep{
			{ModulePosition: 0, Channel: 0, Action: model.ActionPulse, Value: 1, DurationMs: 50},
		},
	})
	p.Play(0)
	get := func(model.ChannelRef) float64 { return 0 }

	var last float64
	write := func(ref model.ChannelRef, v float64) { last = v }

	p.Advance(0, get, write)
	if last != 1 {
		t.Fatalf("expected pulse value 1, got %v", last)
	}
	p.Advance(60, get, write)
	if last != 0 {
		t.Fatalf("expected pulse to restore original value 0, got %v", last)
	}
}

func TestTriggerGatesStepAdvancement(t *testing.T) {
	p := NewPlayer()
	triggerMod, triggerCh := 1, 2
	triggerVal := 7.0
	p.Load(&model.ScriptedScenario{
		Steps: []model.ScenarioStep{
			{ModulePosition: 0, Channel: 0, Action: model.ActionSet, Value: 9,
				TriggerModule: &triggerMod, TriggerChannel: &triggerCh, TriggerValue: &triggerVal},
		},
	})
	p.Play(0)

	current := 0.0
	get := func(model.ChannelRef) float64 { return current }
	var written []float64
	write := func(ref model.ChannelRef, v float64) { written = append(written, v) }

	p.Advance(0, get, write)
	if len(written) != 0 {
		t.Fatalf("expected no write before trigger satisfied, got %v", written)
	}

	current = 7
	p.Advance(10, get, write)
	if len(written) != 1 || written[0] != 9 {
		t.Fatalf("expected a write of 9 once triggered, got %v", written)
	}
}

func TestLoopEnabledRestartsSteps(t *testing.T) {
	// DelayMs forces each execution to wait a tick, so the loop restart
	// below can't re-satisfy its own step inside the same Advance call.
	p := NewPlayer()
	p.Load(&model.ScriptedScenario{
		LoopEnabled: true,
		Steps: []model.ScenarioStep{
			{ModulePosition: 0, Channel: 0, Action: model.ActionSet, Value: 1, DelayMs: 10},
		},
	})
	p.Play(0)
	get := func(model.ChannelRef) float64 { return 0 }
	var count int
	write := func(ref model.ChannelRef, v float64) { count++ }

	p.Advance(0, get, write)  // arms the step's delay
	p.Advance(10, get, write) // executes it, advances past the end, loops
	if p.StepIndex() != 0 {
		t.Fatalf("expected loop to restart step index to 0, got %d", p.StepIndex())
	}
	if count != 1 {
		t.Fatalf("expected exactly one write so far, got %d", count)
	}

	p.Advance(11, get, write) // still inside the looped step's delay, armed at 10
	p.Advance(21, get, write) // executes it again
	if count != 2 {
		t.Fatalf("expected a second write after the loop restart, got %d", count)
	}
}
