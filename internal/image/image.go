// Package image assembles a rack's module instances into the four Modbus
// address spaces (coils, discrete inputs, holding registers, input
// registers) plus the discovery/metadata windows a coupler firmware
// exposes at fixed addresses.
package image

import (
	"encoding/binary"

	"coupler-sim/internal/model"
	"coupler-sim/internal/modules"
)

// Entry pairs a module with its position in the rack's slot-ordered list;
// Position is the modulePosition half of a ChannelRef.
type Entry struct {
	Position int
	Module   modules.Module
}

// Image is the packed view of one rack. It is rebuilt whenever the rack's
// module list changes (add/remove/load); per-tick value changes are read
// live through the underlying modules, not cached here.
type Image struct {
	all        []Entry
	analogIn   []Entry
	digitalIn  []Entry
	analogOut  []Entry
	digitalOut []Entry
}

// Build classifies mods (already in rack slot order) into the four packing
// groups. Counter modules contribute to both the analog-input and
// analog-output groups (§4.1); every other variant contributes to exactly
// one input or one output group.
func Build(mods []modules.Module) *Image {
	img := &Image{all: make([]Entry, len(mods))}
	for i, m := range mods {
		e := Entry{Position: i, Module: m}
		img.all[i] = e
		switch m.Variant() {
		case model.VariantDigitalIn:
			img.digitalIn = append(img.digitalIn, e)
		case model.VariantDigitalOut:
			img.digitalOut = append(img.digitalOut, e)
		case model.VariantAnalogIn, model.VariantRTD:
			img.analogIn = append(img.analogIn, e)
		case model.VariantAnalogOut:
			img.analogOut = append(img.analogOut, e)
		case model.VariantCounter:
			img.analogIn = append(img.analogIn, e)
			img.analogOut = append(img.analogOut, e)
		}
	}
	return img
}

func pad2(b []byte) []byte {
	if len(b)%2 == 0 {
		return b
	}
	return append(b, 0)
}

func packImage(entries []Entry, bytesOf func(modules.Module) []byte) []byte {
	var out []byte
	for _, e := range entries {
		out = append(out, pad2(bytesOf(e.Module))...)
	}
	return out
}

// InputImage is the word-addressable buffer backing Read Input Registers
// and the holding-register-0 alias: analog-input modules' bytes first, then
// digital-input modules' bytes, each module 2-byte aligned.
func (img *Image) InputImage() []byte {
	out := packImage(img.analogIn, modules.Module.ReadInputs)
	out = append(out, packImage(img.digitalIn, modules.Module.ReadInputs)...)
	return out
}

// OutputImage is the word-addressable buffer backing Read/Write Holding
// Registers: analog-output modules' bytes first, then digital-output
// modules' bytes, each module 2-byte aligned.
func (img *Image) OutputImage() []byte {
	out := packImage(img.analogOut, bytesForState)
	out = append(out, packImage(img.digitalOut, bytesForState)...)
	return out
}

// bytesForState renders a module's current output-side value as bytes,
// using the optional BytesForState() extension where a module supports
// holding-register merge-before-write (analog/counter/digital outputs all
// implement it); other module kinds never appear in an output group.
func bytesForState(m modules.Module) []byte {
	type stater interface{ BytesForState() []byte }
	if s, ok := m.(stater); ok {
		return s.BytesForState()
	}
	return nil
}

// AnalogInputByteCount, DigitalInputByteCount, AnalogOutputByteCount and
// DigitalOutputByteCount report the byte length of each packing group,
// including each module's 2-byte alignment padding, used by the
// 0x1022..0x1025 discovery window.
func (img *Image) AnalogInputByteCount() int  { return groupByteCount(img.analogIn, modules.Module.ReadInputs) }
func (img *Image) DigitalInputByteCount() int { return groupByteCount(img.digitalIn, modules.Module.ReadInputs) }
func (img *Image) AnalogOutputByteCount() int { return groupByteCount(img.analogOut, bytesForState) }
func (img *Image) DigitalOutputByteCount() int {
	return groupByteCount(img.digitalOut, bytesForState)
}

func groupByteCount(entries []Entry, bytesOf func(modules.Module) []byte) int {
	n := 0
	for _, e := range entries {
		n += len(pad2(bytesOf(e.Module)))
	}
	return n
}

// coilBits and discreteBits build the channel-exact (no inter-module
// padding) bit vectors that Modbus coil/discrete-input addressing walks;
// these are distinct from the byte-aligned register images above.
func coilBits(entries []Entry) []bool {
	var out []bool
	for _, e := range entries {
		states, _ := e.Module.State()
		for _, s := range states {
			v := false
			if s.Bool != nil {
				v = *s.Bool
			}
			out = append(out, v)
		}
	}
	return out
}

// DiscreteInputBits returns the full discrete-input bit vector in slot order.
func (img *Image) DiscreteInputBits() []bool { return coilBits(img.digitalIn) }

// CoilBits returns the full coil (digital-output) bit vector in slot order.
func (img *Image) CoilBits() []bool { return coilBits(img.digitalOut) }

// ReadBits reads count bits starting at addr from src, padding the tail
// with false if the window runs past the end of src.
func ReadBits(src []bool, addr, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		idx := addr + i
		if idx >= 0 && idx < len(src) {
			out[i] = src[idx]
		}
	}
	return out
}

// ReadWords reads count big-picture 16-bit words (little-endian pairs)
// starting at register addr from a byte image, padding the tail with 0.
func ReadWords(src []byte, addr, count int) []uint16 {
	out := make([]uint16, count)
	for i := 0; i < count; i++ {
		off := (addr + i) * 2
		if off >= 0 && off+2 <= len(src) {
			out[i] = binary.LittleEndian.Uint16(src[off : off+2])
		}
	}
	return out
}

// CoilRef maps a global coil bit address to the (modulePosition, channel)
// it belongs to, walking digital-output modules in slot order.
func (img *Image) CoilRef(addr int) (model.ChannelRef, bool) {
	return entryRef(img.digitalOut, addr)
}

// DiscreteInputRef is the discrete-input analogue of CoilRef.
func (img *Image) DiscreteInputRef(addr int) (model.ChannelRef, bool) {
	return entryRef(img.digitalIn, addr)
}

func entryRef(entries []Entry, addr int) (model.ChannelRef, bool) {
	if addr < 0 {
		return model.ChannelRef{}, false
	}
	base := 0
	for _, e := range entries {
		n := e.Module.ChannelCount()
		if addr < base+n {
			return model.ChannelRef{ModulePosition: e.Position, Channel: addr - base}, true
		}
		base += n
	}
	return model.ChannelRef{}, false
}

// RegisterHit describes the module whose output window a register address
// falls into, and that module's word span within OutputImage().
type RegisterHit struct {
	Position  int
	Module    modules.Module
	WordBase  int
	WordCount int
}

// AnalogOutputModuleForRegister returns the module whose portion of
// OutputImage() register address addr falls into, used by the FC6/FC16
// merge-then-writeOutputs dispatch (§4.7).
func (img *Image) AnalogOutputModuleForRegister(addr int) (RegisterHit, bool) {
	return moduleForRegister(img.analogOut, bytesForState, addr)
}

func moduleForRegister(entries []Entry, bytesOf func(modules.Module) []byte, addr int) (RegisterHit, bool) {
	if addr < 0 {
		return RegisterHit{}, false
	}
	byteOff := addr * 2
	base := 0
	for _, e := range entries {
		n := len(pad2(bytesOf(e.Module)))
		if byteOff < base+n {
			return RegisterHit{Position: e.Position, Module: e.Module, WordBase: base / 2, WordCount: n / 2}, true
		}
		base += n
	}
	return RegisterHit{}, false
}

// ModuleAt returns the module occupying rack position slot, for the
// discovery batch windows (§4.2), which address up to 254 fixed slots
// regardless of how many are actually populated.
func (img *Image) ModuleAt(slot int) (modules.Module, bool) {
	for _, e := range img.all {
		if e.Position == slot {
			return e.Module, true
		}
	}
	return nil, false
}

// Len returns the number of modules in the rack.
func (img *Image) Len() int { return len(img.all) }
