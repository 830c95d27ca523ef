package modules

import (
	"encoding/binary"
	"fmt"

	"coupler-sim/internal/model"
)

// Counter holds a single 32-bit count (the only addressable channel) plus
// opaque control/preset storage. The source this spec was distilled from
// leaves load-on-trigger control-bit semantics unspecified, so control and
// preset are stored verbatim and never drive the count (§9 open question).
type Counter struct {
	modelNumber string
	status      uint8
	count       uint32
	control     uint8
	preset      uint32
	lastUpdate  int64
}

func NewCounter(modelNumber string) *Counter {
	return &Counter{modelNumber: modelNumber, lastUpdate: nowMs()}
}

func (m *Counter) ChannelCount() int      { return 1 }
func (m *Counter) InputImageBytes() int   { return 6 }
func (m *Counter) OutputImageBytes() int  { return 6 }
func (m *Counter) ModelNumber() string    { return m.modelNumber }
func (m *Counter) Variant() model.Variant { return model.VariantCounter }
func (m *Counter) EncodingWord() uint16   { return PartNumberSuffix(m.modelNumber) }

func (m *Counter) ReadInputs() []byte {
	out := make([]byte, 6)
	out[0] = m.status
	out[1] = 0
	binary.LittleEndian.PutUint16(out[2:4], uint16(m.count))
	binary.LittleEndian.PutUint16(out[4:6], uint16(m.count>>16))
	return out
}

func (m *Counter) WriteOutputs(data []byte) {
	if len(data) == 0 {
		return
	}
	if len(data) >= 1 {
		m.control = data[0]
	}
	if len(data) >= 4 {
		lo := uint32(binary.LittleEndian.Uint16(data[2:4]))
		hi := uint32(0)
		if len(data) >= 6 {
			hi = uint32(binary.LittleEndian.Uint16(data[4:6]))
		}
		m.preset = lo | hi<<16
	}
	m.lastUpdate = nowMs()
}

// BytesForState renders the module's current output image (control+preset).
func (m *Counter) BytesForState() []byte {
	out := make([]byte, 6)
	out[0] = m.control
	binary.LittleEndian.PutUint16(out[2:4], uint16(m.preset))
	binary.LittleEndian.PutUint16(out[4:6], uint16(m.preset>>16))
	return out
}

func (m *Counter) SetChannelValue(channel int, value float64) error {
	if channel != 0 {
		return fmt.Errorf("channel %d out of range (0..0)", channel)
	}
	if value < 0 {
		value = 0
	}
	if value > float64(^uint32(0)) {
		value = float64(^uint32(0))
	}
	m.count = uint32(value)
	m.lastUpdate = nowMs()
	return nil
}

func (m *Counter) State() ([]model.ChannelState, int64) {
	v := float64(m.count)
	state := model.ChannelState{Index: 0, Number: &v, Raw: uint16(m.count), Status: m.status}
	return []model.ChannelState{state}, m.lastUpdate
}
