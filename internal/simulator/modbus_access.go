package simulator

import (
	"coupler-sim/internal/catalog"
	"coupler-sim/internal/image"
	"coupler-sim/internal/model"
	"coupler-sim/internal/modules"
)

// ReadCoils reads count coil bits starting at addr, padding the tail with
// false if the window runs past the digital-output section (§4.7).
func (s *Simulator) ReadCoils(addr, count int) []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchWatchdogLocked()
	if s.img == nil {
		return make([]bool, count)
	}
	return image.ReadBits(s.img.CoilBits(), addr, count)
}

// ReadDiscreteInputs is the discrete-input analogue of ReadCoils.
func (s *Simulator) ReadDiscreteInputs(addr, count int) []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchWatchdogLocked()
	if s.img == nil {
		return make([]bool, count)
	}
	return image.ReadBits(s.img.DiscreteInputBits(), addr, count)
}

// ReadHoldingRegisters consults the special windows first, aliases address
// 0 to the input image, and otherwise reads the general holdingRegisters
// storage, padding with 0 beyond the end (§4.2, §4.7).
func (s *Simulator) ReadHoldingRegisters(addr, count int) []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchWatchdogLocked()
	out := make([]uint16, count)
	if s.img == nil {
		return out
	}
	if addr == 0 {
		copy(out, image.ReadWords(s.img.InputImage(), 0, count))
		return out
	}
	for i := 0; i < count; i++ {
		a := addr + i
		if v, ok := s.specialRegisterRead(a); ok {
			out[i] = v
			continue
		}
		if a >= 0 && a < len(s.holdingRegisters) {
			out[i] = s.holdingRegisters[a]
		}
	}
	return out
}

// ReadInputRegisters consults the special windows first, and otherwise
// reads input-image words (§4.2, §4.7).
func (s *Simulator) ReadInputRegisters(addr, count int) []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchWatchdogLocked()
	out := make([]uint16, count)
	if s.img == nil {
		return out
	}
	in := s.img.InputImage()
	for i := 0; i < count; i++ {
		a := addr + i
		if v, ok := s.specialRegisterRead(a); ok {
			out[i] = v
			continue
		}
		out[i] = image.ReadWords(in, a, 1)[0]
	}
	return out
}

// WriteSingleCoil writes one coil bit.
func (s *Simulator) WriteSingleCoil(addr int, value bool) error {
	return s.WriteMultipleCoils(addr, []bool{value})
}

// WriteMultipleCoils maps each written bit to (modulePosition, channel) by
// walking digital-output modules in slot order; forced channels are
// shadowed rather than mutated (§4.3, §4.7).
func (s *Simulator) WriteMultipleCoils(addr int, values []bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchWatchdogLocked()
	if s.config == nil {
		return model.NewNoRack()
	}
	for i, v := range values {
		ref, ok := s.img.CoilRef(addr + i)
		if !ok {
			continue
		}
		val := boolToFloat(v)
		if s.ownership.RecordShadowWrite(ref, val, s.currentTick) {
			continue
		}
		_ = s.mods[ref.ModulePosition].SetChannelValue(ref.Channel, val)
		s.recordHistoryLocked(ref, val, model.SourceManual, "")
	}
	s.syncHoldingRegistersLocked()
	return nil
}

// WriteSingleRegister writes one holding register.
func (s *Simulator) WriteSingleRegister(addr int, value uint16) error {
	return s.WriteMultipleRegisters(addr, []uint16{value})
}

// WriteMultipleRegisters handles the special windows first; for addresses
// overlapping the analog-output window, the touched module's output buffer
// is rebuilt by merging the new words with its unchanged current state,
// then written through writeOutputs (or shadowed per word if forced); all
// other addresses update general holdingRegisters storage (§4.2, §4.7).
func (s *Simulator) WriteMultipleRegisters(addr int, values []uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchWatchdogLocked()
	if s.config == nil {
		return model.NewNoRack()
	}

	touched := make(map[int][]byte) // module position -> merged output buffer
	for i, v := range values {
		a := addr + i
		if s.writeSpecialRegister(a, v) {
			continue
		}
		hit, ok := s.img.AnalogOutputModuleForRegister(a)
		if !ok {
			if a >= 0 && a < len(s.holdingRegisters) {
				s.holdingRegisters[a] = v
			}
			continue
		}
		buf, ok := touched[hit.Position]
		if !ok {
			buf = append([]byte{}, bytesForStateOf(hit.Module)...)
			touched[hit.Position] = buf
		}
		word := a - hit.WordBase

		// Counter's output words are opaque control/preset storage, not a
		// per-channel array (§4.1, §9 open question): merge them directly,
		// with no ownership/shadow tracking.
		if hit.Module.Variant() == model.VariantCounter {
			if word*2+2 <= len(buf) {
				buf[word*2] = byte(v)
				buf[word*2+1] = byte(v >> 8)
			}
			continue
		}

		eu := conversionFor(hit.Module).WordToEU(v)
		ref := model.ChannelRef{ModulePosition: hit.Position, Channel: word}
		if s.ownership.RecordShadowWrite(ref, eu, s.currentTick) {
			continue
		}
		if word*2+2 <= len(buf) {
			buf[word*2] = byte(v)
			buf[word*2+1] = byte(v >> 8)
		}
		s.recordHistoryLocked(ref, eu, model.SourceManual, "")
	}
	for pos, buf := range touched {
		s.mods[pos].WriteOutputs(buf)
	}
	s.syncHoldingRegistersLocked()
	return nil
}

func bytesForStateOf(m modules.Module) []byte {
	type stater interface{ BytesForState() []byte }
	if st, ok := m.(stater); ok {
		return st.BytesForState()
	}
	return nil
}

// conversionFor resolves a module's raw<->EU conversion table from the
// catalog; only analog-output modules reach here (counter words are merged
// before this call). A model missing from the catalog falls back to an
// identity conversion over the full 16-bit range.
func conversionFor(m modules.Module) modules.LinearConv {
	if e, ok := catalog.Lookup(m.ModelNumber()); ok {
		return e.Conv
	}
	return modules.LinearConv{RawMin: 0, RawMax: 0xFFFF, EuMin: 0, EuMax: 0xFFFF}
}
