package simulator

import "coupler-sim/internal/model"

// TouchWatchdog records Modbus (or equivalent) activity. Any successful
// request, or a write to register 0x1003, counts as activity (§4.6).
func (s *Simulator) TouchWatchdog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchWatchdogLocked()
}

func (s *Simulator) touchWatchdogLocked() {
	s.lastModbusActivityMs = nowMs()
}

// SetWatchdogTimeoutMs configures the keepalive timeout (0 disables it).
func (s *Simulator) SetWatchdogTimeoutMs(ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchdogTimeoutMs = ms
}

// CheckWatchdog examines the keepalive timeout and, if it has expired,
// zeroes every digital-output channel that is not forced.
func (s *Simulator) CheckWatchdog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkWatchdogLocked(nowMs())
}

func (s *Simulator) checkWatchdogLocked(now int64) {
	if s.watchdogTimeoutMs <= 0 {
		return
	}
	if now-s.lastModbusActivityMs <= s.watchdogTimeoutMs {
		return
	}
	for i, m := range s.mods {
		if m.Variant() != model.VariantDigitalOut {
			continue
		}
		for ch := 0; ch < m.ChannelCount(); ch++ {
			ref := model.ChannelRef{ModulePosition: i, Channel: ch}
			// a channel pinned by Force is left alone: Force outranks the
			// watchdog's automatic zeroing.
			if s.isLockedForWatchdog(ref) {
				continue
			}
			_ = m.SetChannelValue(ch, 0)
		}
	}
}

func (s *Simulator) isLockedForWatchdog(ref model.ChannelRef) bool {
	rec, ok := s.ownership.RecordOf(ref)
	return ok && rec.Force.Enabled
}
