package model

import "time"

// Variant identifies which module implementation a model number maps to.
type Variant string

const (
	VariantDigitalIn  Variant = "digital_in"
	VariantDigitalOut Variant = "digital_out"
	VariantAnalogIn   Variant = "analog_in"
	VariantAnalogOut  Variant = "analog_out"
	VariantRTD        Variant = "rtd"
	VariantCounter    Variant = "counter"
)

// CouplerSettings describes the head device terminating the TCP protocol.
type CouplerSettings struct {
	Model  string `yaml:"model" json:"model"`
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	UnitID byte   `yaml:"unitId" json:"unitId"`
}

// ModuleInstance is a single plug-in module occupying a slot in the rack.
type ModuleInstance struct {
	ID          string `yaml:"id" json:"id"`
	ModelNumber string `yaml:"modelNumber" json:"modelNumber"`
	SlotPosition int   `yaml:"slotPosition" json:"slotPosition"`
	Label       string `yaml:"label,omitempty" json:"label,omitempty"`
}

// RackConfig is the persisted description of one rack of modules.
type RackConfig struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Coupler     CouplerSettings  `yaml:"coupler" json:"coupler"`
	Modules     []ModuleInstance `yaml:"modules" json:"modules"`
	CreatedAt   time.Time        `yaml:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time        `yaml:"updatedAt" json:"updatedAt"`
}

// SortModules re-establishes the slotPosition ordering invariant. Callers
// must invoke this after any mutation of Modules.
func (r *RackConfig) SortModules() {
	sortModuleInstances(r.Modules)
}

func sortModuleInstances(modules []ModuleInstance) {
	// insertion sort: rack sizes are small (tens of modules), and the
	// invariant must hold after every single mutation, so a stable,
	// allocation-free pass is preferable to sort.Slice on a hot path.
	for i := 1; i < len(modules); i++ {
		j := i
		for j > 0 && modules[j-1].SlotPosition > modules[j].SlotPosition {
			modules[j-1], modules[j] = modules[j], modules[j-1]
			j--
		}
	}
}
