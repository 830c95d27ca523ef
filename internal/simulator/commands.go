package simulator

import (
	"sort"

	"github.com/google/uuid"

	"coupler-sim/internal/catalog"
	"coupler-sim/internal/model"
)

// AddModule creates a module instance at slot and appends it to the rack,
// re-sorting by slot position and rebuilding the process image.
func (s *Simulator) AddModule(modelNumber string, slot int) (model.ModuleInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return model.ModuleInstance{}, model.NewNoRack()
	}
	if _, ok := catalog.Lookup(modelNumber); !ok {
		return model.ModuleInstance{}, model.NewNotFound("model", modelNumber)
	}
	inst := model.ModuleInstance{
		ID:           generateID(),
		ModelNumber:  modelNumber,
		SlotPosition: slot,
	}
	cfg := *s.config
	cfg.Modules = append(append([]model.ModuleInstance{}, s.config.Modules...), inst)
	if err := s.loadRackLocked(&cfg); err != nil {
		return model.ModuleInstance{}, err
	}
	return inst, nil
}

// RemoveModule drops the module with the given id from the rack.
func (s *Simulator) RemoveModule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return model.NewNoRack()
	}
	idx := -1
	for i, mi := range s.config.Modules {
		if mi.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.NewNotFound("module", id)
	}
	cfg := *s.config
	cfg.Modules = append(append([]model.ModuleInstance{}, s.config.Modules[:idx]...), s.config.Modules[idx+1:]...)
	return s.loadRackLocked(&cfg)
}

// SetChannelValue writes a channel's value at the Manual ownership layer
// (the host-command surface's direct write, distinct from a scripted
// scenario's Scenario-layer write or a raw Modbus write).
func (s *Simulator) SetChannelValue(position, channel int, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return model.NewNoRack()
	}
	if position < 0 || position >= len(s.mods) {
		return model.NewNotFound("module", "")
	}
	ref := model.ChannelRef{ModulePosition: position, Channel: channel}
	resolved, _ := s.ownership.SetManual(ref, value)
	if err := s.mods[position].SetChannelValue(channel, resolved); err != nil {
		return model.NewParse(err.Error())
	}
	s.recordHistoryLocked(ref, resolved, model.SourceManual, "")
	s.syncHoldingRegistersLocked()
	return nil
}

// ClearManualValue removes the Manual layer for a channel, falling back to
// the next-highest present layer.
func (s *Simulator) ClearManualValue(position, channel int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return model.NewNoRack()
	}
	if position < 0 || position >= len(s.mods) {
		return model.NewNotFound("module", "")
	}
	ref := model.ChannelRef{ModulePosition: position, Channel: channel}
	resolved, source := s.ownership.ClearManual(ref)
	if err := s.mods[position].SetChannelValue(channel, resolved); err != nil {
		return model.NewParse(err.Error())
	}
	s.recordHistoryLocked(ref, resolved, source, "")
	s.syncHoldingRegistersLocked()
	return nil
}

// SetForce installs a Force override on a channel, pushing the forced
// value to the module immediately.
func (s *Simulator) SetForce(position, channel int, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return model.NewNoRack()
	}
	if position < 0 || position >= len(s.mods) {
		return model.NewNotFound("module", "")
	}
	ref := model.ChannelRef{ModulePosition: position, Channel: channel}
	resolved, _ := s.ownership.SetForce(ref, value)
	if err := s.mods[position].SetChannelValue(channel, resolved); err != nil {
		return model.NewParse(err.Error())
	}
	s.recordHistoryLocked(ref, resolved, model.SourceForce, "")
	s.syncHoldingRegistersLocked()
	return nil
}

// ClearForce removes a Force override, falling through to the next-highest
// present layer. Per §4.3 the shadow value is never auto-restored.
func (s *Simulator) ClearForce(position, channel int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return model.NewNoRack()
	}
	if position < 0 || position >= len(s.mods) {
		return model.NewNotFound("module", "")
	}
	ref := model.ChannelRef{ModulePosition: position, Channel: channel}
	resolved, source := s.ownership.ClearForce(ref)
	if err := s.mods[position].SetChannelValue(channel, resolved); err != nil {
		return model.NewParse(err.Error())
	}
	s.recordHistoryLocked(ref, resolved, source, "")
	s.syncHoldingRegistersLocked()
	return nil
}

// ClearAllForces removes every active Force, pushing each affected
// channel's fallback value through to its module.
func (s *Simulator) ClearAllForces() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range s.ownership.ClearAllForces() {
		if ref.ModulePosition < 0 || ref.ModulePosition >= len(s.mods) {
			continue
		}
		resolved, source := s.ownership.Resolve(ref)
		_ = s.mods[ref.ModulePosition].SetChannelValue(ref.Channel, resolved)
		s.recordHistoryLocked(ref, resolved, source, "")
	}
	s.syncHoldingRegistersLocked()
}

// AllModuleStates returns a snapshot of every module's per-channel state.
func (s *Simulator) AllModuleStates() []model.ModuleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ModuleState, len(s.mods))
	for i, m := range s.mods {
		channels, lastUpdate := m.State()
		s.mergeOwnership(i, channels)
		out[i] = model.ModuleState{
			ModuleID:     s.config.Modules[i].ID,
			ModelNumber:  m.ModelNumber(),
			SlotPosition: s.config.Modules[i].SlotPosition,
			Channels:     channels,
			LastUpdateMs: lastUpdate,
		}
	}
	return out
}

func (s *Simulator) mergeOwnership(position int, channels []model.ChannelState) {
	for i := range channels {
		ref := model.ChannelRef{ModulePosition: position, Channel: channels[i].Index}
		rec, ok := s.ownership.RecordOf(ref)
		if !ok {
			continue
		}
		_, source := rec.Resolve()
		channels[i].SourceTag = source
		channels[i].Forced = rec.Force.Enabled
		channels[i].Manual = rec.HasManual
		channels[i].ScenarioBehavior = rec.ScenarioBehaviorID
	}
}

// ConnectionState reports the current Modbus client registry.
func (s *Simulator) ConnectionState() []ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func generateID() string {
	return uuid.NewString()
}
