package model

// ActionKind selects how a ScenarioStep writes its value.
type ActionKind string

const (
	ActionSet   ActionKind = "set"
	ActionRamp  ActionKind = "ramp"
	ActionPulse ActionKind = "pulse"
)

// ScenarioStep is one entry of a scripted scenario's sequence.
type ScenarioStep struct {
	TimeOffsetMs   *int64     `yaml:"timeOffsetMs,omitempty" json:"timeOffsetMs,omitempty"`
	TriggerModule  *int       `yaml:"triggerModule,omitempty" json:"triggerModule,omitempty"`
	TriggerChannel *int       `yaml:"triggerChannel,omitempty" json:"triggerChannel,omitempty"`
	TriggerValue   *float64   `yaml:"triggerValue,omitempty" json:"triggerValue,omitempty"`
	DelayMs        int64      `yaml:"delayMs,omitempty" json:"delayMs,omitempty"`
	ModulePosition int        `yaml:"modulePosition" json:"modulePosition"`
	Channel        int        `yaml:"channel" json:"channel"`
	Action         ActionKind `yaml:"action" json:"action"`
	Value          float64    `yaml:"value" json:"value"`
	DurationMs     int64      `yaml:"durationMs,omitempty" json:"durationMs,omitempty"`
}

// ScriptedScenario is a time/trigger-ordered sequence of steps.
type ScriptedScenario struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	LoopEnabled bool           `yaml:"loopEnabled" json:"loopEnabled"`
	Steps       []ScenarioStep `yaml:"steps" json:"steps"`
}
