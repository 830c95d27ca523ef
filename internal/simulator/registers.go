package simulator

import "coupler-sim/internal/modules"

const (
	regWatchdogTimeout = 0x1000
	regWatchdogTouch   = 0x1003
	regConfigWord      = 0x1009

	regAnalogMapBase = 0x1022 // outputAnalogBits, inputAnalogBits, outputDigitalBits, inputDigitalBits
	regFirmware      = 0x2010
	regSeriesTag     = 0x2011
	regPartSuffix    = 0x2012
	regCouplerSuffix = 0x2030
)

// batchWindow is one of the four discovery batch windows (§4.2): registers
// [base, base+count) report EncodingWord() for rack slots
// [slotStart, slotStart+count).
type batchWindow struct {
	base      int
	slotStart int
	count     int
}

var batchWindows = []batchWindow{
	{base: 0x2031, slotStart: 0, count: 63},
	{base: 0x2071, slotStart: 63, count: 64},
	{base: 0x20AF, slotStart: 127, count: 64},
	{base: 0x20ED, slotStart: 191, count: 63},
}

// specialRegisterRead returns (value, true) if addr is one of the
// discovery/metadata windows, for both FC3 and FC4 (§4.2).
func (s *Simulator) specialRegisterRead(addr int) (uint16, bool) {
	switch addr {
	case regWatchdogTimeout:
		return uint16(s.watchdogTimeoutMs), true
	case regWatchdogTouch:
		return 0, true
	case regConfigWord:
		return s.configWord, true
	case regAnalogMapBase:
		return uint16(s.analogOutputBits()), true
	case regAnalogMapBase + 1:
		return uint16(s.analogInputBits()), true
	case regAnalogMapBase + 2:
		return uint16(s.digitalOutputBits()), true
	case regAnalogMapBase + 3:
		return uint16(s.digitalInputBits()), true
	case regFirmware:
		return 0x0100, true
	case regSeriesTag:
		return 0x0750, true
	case regPartSuffix, regCouplerSuffix:
		return s.couplerPartSuffix(), true
	}
	for _, w := range batchWindows {
		if addr >= w.base && addr < w.base+w.count {
			slot := w.slotStart + (addr - w.base)
			if m, ok := s.img.ModuleAt(slot); ok {
				return m.EncodingWord(), true
			}
			return 0, true
		}
	}
	return 0, false
}

func (s *Simulator) analogInputBits() int  { return s.img.AnalogInputByteCount() * 8 }
func (s *Simulator) digitalInputBits() int { return s.img.DigitalInputByteCount() * 8 }
func (s *Simulator) analogOutputBits() int { return s.img.AnalogOutputByteCount() * 8 }
func (s *Simulator) digitalOutputBits() int {
	return s.img.DigitalOutputByteCount() * 8
}

// couplerPartSuffix resolves the coupler head's own model number to its
// discovery part-number suffix via the same encoding used for plug-in
// modules; the coupler itself is never a rack module.
func (s *Simulator) couplerPartSuffix() uint16 {
	if s.config == nil {
		return 0
	}
	return modules.PartNumberSuffix(s.config.Coupler.Model)
}

// writeSpecialRegister handles a write to one of the writable special
// registers, returning true if addr was special (handled, whether or not
// actually writable).
func (s *Simulator) writeSpecialRegister(addr int, value uint16) bool {
	switch addr {
	case regWatchdogTimeout:
		s.watchdogTimeoutMs = int64(value)
		return true
	case regWatchdogTouch:
		s.touchWatchdogLocked()
		return true
	case regConfigWord:
		s.configWord = value
		return true
	}
	for _, w := range batchWindows {
		if addr >= w.base && addr < w.base+w.count {
			return true // read-only; writes are silently absorbed
		}
	}
	switch addr {
	case regAnalogMapBase, regAnalogMapBase + 1, regAnalogMapBase + 2, regAnalogMapBase + 3,
		regFirmware, regSeriesTag, regPartSuffix, regCouplerSuffix:
		return true
	}
	return false
}
