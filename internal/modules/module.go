// Package modules implements the per-model I/O module instances that make
// up a rack: digital/analog in/out, RTD, and counter. Each implements the
// uniform Module capability surface so the process image and simulator
// never need to know which variant they are holding.
package modules

import "coupler-sim/internal/model"

// Module is the capability surface every module variant implements.
type Module interface {
	ChannelCount() int
	InputImageBytes() int
	OutputImageBytes() int

	// ReadInputs returns the module's current input-side image bytes.
	ReadInputs() []byte

	// WriteOutputs applies a full output-side image buffer. An empty
	// buffer is ignored; a short buffer only touches the bits/words it
	// covers.
	WriteOutputs(data []byte)

	// SetChannelValue assigns a channel's engineering-unit value,
	// bounds-checked; booleans use the value > 0.5 rule.
	SetChannelValue(channel int, value float64) error

	// State returns the per-channel snapshot (value/raw/status/fault,
	// without ownership flags - those are merged in by the simulator)
	// and the module's own last-update timestamp.
	State() ([]model.ChannelState, int64)

	ModelNumber() string
	Variant() model.Variant

	// EncodingWord is the discovery-window encoding for this model
	// (§4.2): 0x8000|(count<<8)|code for digital, decimal part-number
	// suffix otherwise.
	EncodingWord() uint16
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func floatToBool(v float64) bool { return v > 0.5 }
