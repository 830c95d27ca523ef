package model

// ForceState is the highest-priority override on a channel. Writes from
// the Modbus peer while a channel is forced are shadowed rather than
// applied: Value stays authoritative, ShadowValue is diagnostic only.
type ForceState struct {
	Enabled         bool
	Value           float64
	ShadowValue     *float64
	ShadowWriteTick int64
}

// OwnershipRecord tracks, per channel, the value offered by each
// precedence layer. The effective (value, source) pair is the
// highest-priority layer that is present: Force > Manual > Scenario > Default.
type OwnershipRecord struct {
	DefaultValue       float64
	HasDefault         bool
	ScenarioValue      float64
	HasScenario        bool
	ManualValue        float64
	HasManual          bool
	Force              ForceState
	ScenarioBehaviorID string
}

// Resolve returns the effective value and the layer it came from.
func (r *OwnershipRecord) Resolve() (float64, SourceTag) {
	if r.Force.Enabled {
		return r.Force.Value, SourceForce
	}
	if r.HasManual {
		return r.ManualValue, SourceManual
	}
	if r.HasScenario {
		return r.ScenarioValue, SourceScenario
	}
	return r.DefaultValue, SourceDefault
}
