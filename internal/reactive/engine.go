package reactive

import "coupler-sim/internal/model"

// Emission is one behavior's intended write for the current tick. The
// caller (the simulator) filters these once more against the live
// ownership state before mutating any module (§4.4).
type Emission struct {
	Target     model.ChannelRef
	Value      float64
	BehaviorID string
}

type behaviorState struct {
	lastSourceValue  *float64
	lastChangeTick   int64
	pendingUntilTick *int64
	pendingValue     *float64
	lastAppliedTick  int64
}

// Engine evaluates one activated reactive scenario: a fixed behavior list,
// a precomputed topological order, and per-behavior delay/pending state.
type Engine struct {
	behaviors []model.ReactiveBehavior
	order     []int
	states    []behaviorState
	tickMs    int64
}

// Build constructs an Engine for behaviors, or returns a CycleDetected
// error (with the offending behavior IDs) if the dependency graph has a
// cycle. No Engine is returned in that case.
func Build(behaviors []model.ReactiveBehavior, tickMs int64) (*Engine, error) {
	adj := buildGraph(behaviors)
	if cycle := detectCycle(adj, behaviors); cycle != nil {
		return nil, model.NewCycleDetected(cycle)
	}
	if tickMs <= 0 {
		tickMs = 1
	}
	return &Engine{
		behaviors: behaviors,
		order:     topoSort(adj),
		states:    make([]behaviorState, len(behaviors)),
		tickMs:    tickMs,
	}, nil
}

// Reset clears all per-behavior runtime state, per the activate/deactivate
// lifecycle hooks in §4.4.
func (e *Engine) Reset() {
	e.states = make([]behaviorState, len(e.behaviors))
}

// Evaluate runs one tick in topological order. get resolves a channel's
// current effective value; locked reports whether a target is currently
// forced or manually overridden (and so must be skipped). It returns the
// emissions produced this tick, in evaluation order.
func (e *Engine) Evaluate(tick int64, get func(model.ChannelRef) float64, locked func(model.ChannelRef) bool) []Emission {
	var emissions []Emission
	for _, idx := range e.order {
		b := e.behaviors[idx]
		if !b.Enabled {
			continue
		}
		if locked(b.Target) {
			continue
		}
		st := &e.states[idx]

		hasSource := b.Source != nil
		var sourceVal float64
		if hasSource {
			sourceVal = get(*b.Source)
		}

		outputValue := evalMapping(b.Mapping, sourceVal)

		if b.DelayMs <= 0 {
			emissions = append(emissions, Emission{Target: b.Target, Value: outputValue, BehaviorID: b.ID})
			st.lastAppliedTick = tick
			if hasSource {
				sv := sourceVal
				st.lastSourceValue = &sv
			}
			continue
		}

		changed := st.lastSourceValue == nil || (hasSource && *st.lastSourceValue != sourceVal)
		if changed {
			delayTicks := b.DelayMs / e.tickMs
			if delayTicks < 1 {
				delayTicks = 1
			}
			until := tick + delayTicks
			st.pendingUntilTick = &until
			pv := outputValue
			st.pendingValue = &pv
			if hasSource {
				sv := sourceVal
				st.lastSourceValue = &sv
			} else {
				zero := sourceVal
				st.lastSourceValue = &zero
			}
			st.lastChangeTick = tick
		}

		if st.pendingUntilTick != nil && tick >= *st.pendingUntilTick {
			emissions = append(emissions, Emission{Target: b.Target, Value: *st.pendingValue, BehaviorID: b.ID})
			st.pendingUntilTick = nil
			st.pendingValue = nil
			st.lastAppliedTick = tick
		}
	}
	return emissions
}

func evalMapping(m model.Mapping, sourceValue float64) float64 {
	switch m.Kind {
	case model.MappingDirect:
		return sourceValue
	case model.MappingInverted:
		if sourceValue > 0.5 {
			return 0.0
		}
		return 1.0
	case model.MappingScaled:
		var scale, offset float64
		if m.Scale != nil {
			scale = *m.Scale
		}
		if m.Offset != nil {
			offset = *m.Offset
		}
		return sourceValue*scale + offset
	case model.MappingConstant:
		return m.Value
	default:
		return 0
	}
}
