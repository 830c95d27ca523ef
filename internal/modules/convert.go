package modules

import "math"

// LinearConv implements the model table's linear raw<->EU conversion with
// clamping (spec §4.1): raw = clamp(round(rawMin + (euClamped-euMin)/
// (euMax-euMin) * (rawMax-rawMin)), rawMin, rawMax). RTD channels reuse the
// same formula with rawMin=-2000, rawMax=8500, euMin=-200, euMax=850, which
// reduces to raw = eu*10 (the documented fixed 0.1 °C scale).
type LinearConv struct {
	RawMin, RawMax int32
	EuMin, EuMax   float64
	Signed         bool
}

func (c LinearConv) euToRaw(eu float64) int32 {
	if eu < c.EuMin {
		eu = c.EuMin
	}
	if eu > c.EuMax {
		eu = c.EuMax
	}
	span := c.EuMax - c.EuMin
	frac := 0.0
	if span != 0 {
		frac = (eu - c.EuMin) / span
	}
	raw := float64(c.RawMin) + frac*float64(c.RawMax-c.RawMin)
	r := int32(math.Round(raw))
	if r < c.RawMin {
		r = c.RawMin
	}
	if r > c.RawMax {
		r = c.RawMax
	}
	return r
}

func (c LinearConv) rawToEu(raw int32) float64 {
	span := c.RawMax - c.RawMin
	frac := 0.0
	if span != 0 {
		frac = float64(raw-c.RawMin) / float64(span)
	}
	return c.EuMin + frac*(c.EuMax-c.EuMin)
}

func (c LinearConv) encodeWord(raw int32) uint16 {
	if c.Signed {
		return uint16(int16(raw))
	}
	return uint16(raw)
}

func (c LinearConv) decodeWord(w uint16) int32 {
	if c.Signed {
		return int32(int16(w))
	}
	return int32(w)
}

// WordToEU decodes a raw wire word directly to its engineering-unit value.
func (c LinearConv) WordToEU(w uint16) float64 { return c.rawToEu(c.decodeWord(w)) }

// EUToWord encodes an engineering-unit value directly to a raw wire word.
func (c LinearConv) EUToWord(eu float64) uint16 { return c.encodeWord(c.euToRaw(eu)) }
