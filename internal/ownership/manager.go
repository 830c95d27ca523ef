// Package ownership resolves the Default/Scenario/Manual/Force precedence
// over each channel and records shadow writes against forced channels.
package ownership

import "coupler-sim/internal/model"

// Manager holds one OwnershipRecord per channel, created lazily on first
// touch. It does not itself mutate module state — callers push the
// resolved value through to the module after each mutating call.
type Manager struct {
	records map[model.ChannelRef]*model.OwnershipRecord
}

func NewManager() *Manager {
	return &Manager{records: make(map[model.ChannelRef]*model.OwnershipRecord)}
}

func (m *Manager) record(ref model.ChannelRef) *model.OwnershipRecord {
	r, ok := m.records[ref]
	if !ok {
		r = &model.OwnershipRecord{}
		m.records[ref] = r
	}
	return r
}

// RecordOf returns the existing record for ref, if any, without creating one.
func (m *Manager) RecordOf(ref model.ChannelRef) (model.OwnershipRecord, bool) {
	r, ok := m.records[ref]
	if !ok {
		return model.OwnershipRecord{}, false
	}
	return *r, true
}

// IsForced reports whether ref currently carries an enabled force.
func (m *Manager) IsForced(ref model.ChannelRef) bool {
	r, ok := m.records[ref]
	return ok && r.Force.Enabled
}

// SetDefault installs the Default layer for ref, resolving and returning
// the new effective value.
func (m *Manager) SetDefault(ref model.ChannelRef, value float64) (float64, model.SourceTag) {
	r := m.record(ref)
	r.DefaultValue = value
	r.HasDefault = true
	return r.Resolve()
}

// SetScenario installs the Scenario layer for ref (the scripted or reactive
// player writing through its own layer), resolving and returning the new
// effective value.
func (m *Manager) SetScenario(ref model.ChannelRef, value float64, behaviorID string) (float64, model.SourceTag) {
	r := m.record(ref)
	r.ScenarioValue = value
	r.HasScenario = true
	r.ScenarioBehaviorID = behaviorID
	return r.Resolve()
}

// ClearScenario removes the Scenario layer for ref.
func (m *Manager) ClearScenario(ref model.ChannelRef) (float64, model.SourceTag) {
	r := m.record(ref)
	r.HasScenario = false
	r.ScenarioValue = 0
	r.ScenarioBehaviorID = ""
	return r.Resolve()
}

// SetManual installs the Manual layer for ref, resolving and returning the
// new effective value.
func (m *Manager) SetManual(ref model.ChannelRef, value float64) (float64, model.SourceTag) {
	r := m.record(ref)
	r.ManualValue = value
	r.HasManual = true
	return r.Resolve()
}

// ClearManual removes the Manual layer for ref, resolving and returning the
// value the channel falls back to.
func (m *Manager) ClearManual(ref model.ChannelRef) (float64, model.SourceTag) {
	r := m.record(ref)
	r.HasManual = false
	r.ManualValue = 0
	return r.Resolve()
}

// SetForce installs the Force layer for ref, resolving and returning the
// new effective value (always the forced value itself while enabled).
func (m *Manager) SetForce(ref model.ChannelRef, value float64) (float64, model.SourceTag) {
	r := m.record(ref)
	r.Force = model.ForceState{Enabled: true, Value: value}
	return r.Resolve()
}

// ClearForce removes the Force layer for ref. Per §4.3, the shadow value
// recorded while forced is never auto-restored: the channel falls through
// to the next-highest present layer.
func (m *Manager) ClearForce(ref model.ChannelRef) (float64, model.SourceTag) {
	r := m.record(ref)
	r.Force = model.ForceState{}
	return r.Resolve()
}

// ClearAllForces removes the Force layer from every channel, returning the
// set of channels that were actually forced (and so need their module
// value pushed to the newly-resolved fallback).
func (m *Manager) ClearAllForces() []model.ChannelRef {
	var cleared []model.ChannelRef
	for ref, r := range m.records {
		if r.Force.Enabled {
			r.Force = model.ForceState{}
			cleared = append(cleared, ref)
		}
	}
	return cleared
}

// Resolve returns the current effective value and source for ref.
func (m *Manager) Resolve(ref model.ChannelRef) (float64, model.SourceTag) {
	r, ok := m.records[ref]
	if !ok {
		return 0, model.SourceDefault
	}
	return r.Resolve()
}

// RecordShadowWrite is called for a raw protocol write targeting ref. If
// the channel is forced, the write is absorbed into the force's shadow
// fields and the caller must NOT mutate the module; otherwise it returns
// false and the caller applies the write normally.
func (m *Manager) RecordShadowWrite(ref model.ChannelRef, value float64, tick int64) bool {
	r, ok := m.records[ref]
	if !ok || !r.Force.Enabled {
		return false
	}
	sv := value
	r.Force.ShadowValue = &sv
	r.Force.ShadowWriteTick = tick
	return true
}
