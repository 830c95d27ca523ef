// Package catalog maps module model numbers onto the parameters needed to
// construct a runtime modules.Module: variant, channel count, and (for
// analog/RTD modules) the raw<->EU conversion table.
package catalog

import (
	"fmt"

	"coupler-sim/internal/model"
	"coupler-sim/internal/modules"
)

// Entry is one row of the model table (§4.1/§4.2).
type Entry struct {
	ModelNumber  string
	Variant      model.Variant
	ChannelCount int
	Conv         modules.LinearConv // zero value for digital/counter variants
}

// entries is the built-in model table. Model numbers follow the coupler
// family's part-numbering convention (module class in the hundreds digit,
// variant in the tens/units); the specific numbers are illustrative, not
// drawn from any real vendor catalog.
var entries = map[string]Entry{
	"750-1405": {ModelNumber: "750-1405", Variant: model.VariantDigitalIn, ChannelCount: 16},
	"750-1406": {ModelNumber: "750-1406", Variant: model.VariantDigitalIn, ChannelCount: 8},
	"750-530":  {ModelNumber: "750-530", Variant: model.VariantDigitalOut, ChannelCount: 8},
	"750-531":  {ModelNumber: "750-531", Variant: model.VariantDigitalOut, ChannelCount: 16},

	// 4-20 mA current-loop analog input, 4 channels, unsigned raw.
	"750-455": {
		ModelNumber: "750-455", Variant: model.VariantAnalogIn, ChannelCount: 4,
		Conv: modules.LinearConv{RawMin: 0, RawMax: 0x7FF0, EuMin: 4.0, EuMax: 20.0, Signed: false},
	},
	// 0-10 V voltage analog input, 4 channels, unsigned raw. Voltage
	// inputs carry no over-range headroom above full scale the way the
	// current-loop raw range does, so they span the full 16-bit raw span.
	"750-454": {
		ModelNumber: "750-454", Variant: model.VariantAnalogIn, ChannelCount: 4,
		Conv: modules.LinearConv{RawMin: 0, RawMax: 0xFFFF, EuMin: 0.0, EuMax: 10.0, Signed: false},
	},
	// 4-20 mA current-loop analog output, 2 channels.
	"750-552": {
		ModelNumber: "750-552", Variant: model.VariantAnalogOut, ChannelCount: 2,
		Conv: modules.LinearConv{RawMin: 0, RawMax: 0x7FF0, EuMin: 4.0, EuMax: 20.0, Signed: false},
	},
	// 0-10 V voltage analog output, 2 channels, full 16-bit raw span.
	"750-550": {
		ModelNumber: "750-550", Variant: model.VariantAnalogOut, ChannelCount: 2,
		Conv: modules.LinearConv{RawMin: 0, RawMax: 0xFFFF, EuMin: 0.0, EuMax: 10.0, Signed: false},
	},

	"750-1515": {ModelNumber: "750-1515", Variant: model.VariantRTD, ChannelCount: 2},
	"750-1516": {ModelNumber: "750-1516", Variant: model.VariantRTD, ChannelCount: 4},

	"750-404": {ModelNumber: "750-404", Variant: model.VariantCounter, ChannelCount: 1},
}

// Lookup returns the table entry for a model number.
func Lookup(modelNumber string) (Entry, bool) {
	e, ok := entries[modelNumber]
	return e, ok
}

// All returns every catalog entry. The order of the result is not defined;
// callers that need a stable order should sort it.
func All() []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	return out
}

// New constructs a runtime Module for a model number.
func New(modelNumber string) (modules.Module, error) {
	e, ok := Lookup(modelNumber)
	if !ok {
		return nil, model.NewNotFound("model", modelNumber)
	}
	switch e.Variant {
	case model.VariantDigitalIn:
		return modules.NewDigitalIn(e.ModelNumber, e.ChannelCount), nil
	case model.VariantDigitalOut:
		return modules.NewDigitalOut(e.ModelNumber, e.ChannelCount), nil
	case model.VariantAnalogIn:
		return modules.NewAnalogIn(e.ModelNumber, e.ChannelCount, e.Conv), nil
	case model.VariantAnalogOut:
		return modules.NewAnalogOut(e.ModelNumber, e.ChannelCount, e.Conv), nil
	case model.VariantRTD:
		return modules.NewRtd(e.ModelNumber, e.ChannelCount), nil
	case model.VariantCounter:
		return modules.NewCounter(e.ModelNumber), nil
	default:
		return nil, fmt.Errorf("catalog: unhandled variant %q", e.Variant)
	}
}
