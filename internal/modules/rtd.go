package modules

import (
	"encoding/binary"
	"fmt"

	"coupler-sim/internal/model"
)

// rtdConv is the fixed signed 16-bit, 0.1°C-per-count conversion shared by
// every RTD model: value = raw*0.1, EU clamped to [-200.0, 850.0], raw
// clamped to [-2000, 8500].
var rtdConv = LinearConv{RawMin: -2000, RawMax: 8500, EuMin: -200.0, EuMax: 850.0, Signed: true}

// Rtd holds resistance-thermometer input channels.
type Rtd struct {
	modelNumber string
	values      []float64
	lastUpdate  int64
}

func NewRtd(modelNumber string, channelCount int) *Rtd {
	return &Rtd{modelNumber: modelNumber, values: make([]float64, channelCount), lastUpdate: nowMs()}
}

func (m *Rtd) ChannelCount() int      { return len(m.values) }
func (m *Rtd) InputImageBytes() int   { return len(m.values) * 2 }
func (m *Rtd) OutputImageBytes() int  { return 0 }
func (m *Rtd) ModelNumber() string    { return m.modelNumber }
func (m *Rtd) Variant() model.Variant { return model.VariantRTD }
func (m *Rtd) EncodingWord() uint16   { return PartNumberSuffix(m.modelNumber) }

func (m *Rtd) ReadInputs() []byte {
	out := make([]byte, len(m.values)*2)
	for i, eu := range m.values {
		raw := rtdConv.euToRaw(eu)
		binary.LittleEndian.PutUint16(out[i*2:], rtdConv.encodeWord(raw))
	}
	return out
}

func (m *Rtd) WriteOutputs([]byte) {}

func (m *Rtd) SetChannelValue(channel int, value float64) error {
	if channel < 0 || channel >= len(m.values) {
		return fmt.Errorf("channel %d out of range (0..%d)", channel, len(m.values)-1)
	}
	m.values[channel] = value
	m.lastUpdate = nowMs()
	return nil
}

func (m *Rtd) State() ([]model.ChannelState, int64) {
	states := make([]model.ChannelState, len(m.values))
	for i, eu := range m.values {
		v := eu
		raw := rtdConv.encodeWord(rtdConv.euToRaw(eu))
		states[i] = model.ChannelState{Index: i, Number: &v, Raw: raw}
	}
	return states, m.lastUpdate
}
