// Package scenario implements the scripted scenario player: a time/trigger
// ordered sequencer driving Set/Ramp/Pulse actions against the rack.
package scenario

import (
	"math"

	"coupler-sim/internal/model"
)

// GetFunc resolves a channel's current effective value.
type GetFunc func(model.ChannelRef) float64

// WriteFunc writes a channel value through the simulator's scenario layer.
type WriteFunc func(model.ChannelRef, float64)

type activeRamp struct {
	ref        model.ChannelRef
	start      float64
	target     float64
	startMs    int64
	durationMs int64
}

type activePulse struct {
	ref           model.ChannelRef
	originalValue float64
	endMs         int64
}

// Player holds the runtime state of one scripted scenario (§4.5).
type Player struct {
	scenario         *model.ScriptedScenario
	running          bool
	startMs          int64
	currentStepIndex int
	activeRamps      []activeRamp
	activePulses     []activePulse
	stepDelayStart   *int64
}

func NewPlayer() *Player { return &Player{} }

// Load installs scenario and resets the player to a stopped state.
func (p *Player) Load(s *model.ScriptedScenario) {
	p.scenario = s
	p.running = false
	p.currentStepIndex = 0
	p.activeRamps = nil
	p.activePulses = nil
	p.stepDelayStart = nil
}

// Loaded reports whether a scenario is currently loaded.
func (p *Player) Loaded() bool { return p.scenario != nil }

// Scenario returns the currently loaded scenario, or nil.
func (p *Player) Scenario() *model.ScriptedScenario { return p.scenario }

// Play starts the loaded scenario from its first step; a player that is
// already running is restarted from its first step as well.
func (p *Player) Play(nowMs int64) {
	if p.scenario == nil {
		return
	}
	p.running = true
	p.startMs = nowMs
	p.currentStepIndex = 0
	p.stepDelayStart = nil
}

// Stop halts step advancement; active ramps/pulses are left to finish.
func (p *Player) Stop() { p.running = false }

// Running reports whether the player is actively advancing steps.
func (p *Player) Running() bool { return p.running }

// StepIndex returns the index of the step that will next be examined.
func (p *Player) StepIndex() int { return p.currentStepIndex }

// Advance runs one tick of the player: ramps and pulses always progress;
// step advancement only occurs while running.
func (p *Player) Advance(nowMs int64, get GetFunc, write WriteFunc) {
	p.tickRamps(nowMs, write)
	p.tickPulses(nowMs, write)

	if !p.running || p.scenario == nil {
		return
	}

	for {
		if p.currentStepIndex >= len(p.scenario.Steps) {
			if p.scenario.LoopEnabled && len(p.scenario.Steps) > 0 {
				p.currentStepIndex = 0
				p.startMs = nowMs
				continue
			}
			if len(p.activeRamps) == 0 && len(p.activePulses) == 0 {
				p.running = false
			}
			return
		}

		step := p.scenario.Steps[p.currentStepIndex]
		if !p.triggerSatisfied(step, nowMs, get) {
			return
		}

		if step.DelayMs > 0 {
			if p.stepDelayStart == nil {
				t := nowMs
				p.stepDelayStart = &t
				return
			}
			if nowMs-*p.stepDelayStart < step.DelayMs {
				return
			}
		}

		p.execute(step, nowMs, get, write)
		p.currentStepIndex++
		p.stepDelayStart = nil
		// loop: the next step may already satisfy its own trigger this tick.
	}
}

func (p *Player) triggerSatisfied(step model.ScenarioStep, nowMs int64, get GetFunc) bool {
	if step.TriggerModule != nil && step.TriggerChannel != nil && step.TriggerValue != nil {
		ref := model.ChannelRef{ModulePosition: *step.TriggerModule, Channel: *step.TriggerChannel}
		return math.Abs(get(ref)-*step.TriggerValue) < 1e-3
	}
	if step.TimeOffsetMs != nil {
		return nowMs-p.startMs >= *step.TimeOffsetMs
	}
	return true
}

func (p *Player) execute(step model.ScenarioStep, nowMs int64, get GetFunc, write WriteFunc) {
	ref := model.ChannelRef{ModulePosition: step.ModulePosition, Channel: step.Channel}
	switch step.Action {
	case model.ActionSet:
		write(ref, step.Value)
	case model.ActionRamp:
		p.activeRamps = append(p.activeRamps, activeRamp{
			ref: ref, start: get(ref), target: step.Value, startMs: nowMs, durationMs: step.DurationMs,
		})
	case model.ActionPulse:
		original := get(ref)
		write(ref, step.Value)
		p.activePulses = append(p.activePulses, activePulse{
			ref: ref, originalValue: original, endMs: nowMs + step.DurationMs,
		})
	}
}

func (p *Player) tickRamps(nowMs int64, write WriteFunc) {
	if len(p.activeRamps) == 0 {
		return
	}
	kept := p.activeRamps[:0]
	for _, r := range p.activeRamps {
		progress := 1.0
		if r.durationMs > 0 {
			progress = float64(nowMs-r.startMs) / float64(r.durationMs)
		}
		if progress > 1 {
			progress = 1
		}
		if progress < 0 {
			progress = 0
		}
		write(r.ref, r.start+(r.target-r.start)*progress)
		if progress < 1 {
			kept = append(kept, r)
		}
	}
	p.activeRamps = kept
}

func (p *Player) tickPulses(nowMs int64, write WriteFunc) {
	if len(p.activePulses) == 0 {
		return
	}
	kept := p.activePulses[:0]
	for _, pulse := range p.activePulses {
		if nowMs >= pulse.endMs {
			write(pulse.ref, pulse.originalValue)
		} else {
			kept = append(kept, pulse)
		}
	}
	p.activePulses = kept
}
