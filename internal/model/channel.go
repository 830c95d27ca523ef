package model

import "fmt"

// ChannelRef identifies a single I/O point: a module's position in the
// rack plus the channel index within that module.
type ChannelRef struct {
	ModulePosition int `yaml:"modulePosition" json:"modulePosition"`
	Channel        int `yaml:"channel" json:"channel"`
}

func (r ChannelRef) String() string {
	return fmt.Sprintf("%d.%d", r.ModulePosition, r.Channel)
}

// SourceTag names the ownership layer that produced a resolved channel value.
type SourceTag string

const (
	SourceDefault  SourceTag = "default"
	SourceScenario SourceTag = "scenario"
	SourceManual   SourceTag = "manual"
	SourceForce    SourceTag = "force"
)
