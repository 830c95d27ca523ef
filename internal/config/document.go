// Package config loads and saves the persisted configuration document
// (§6): a versioned YAML file describing the simulation's transport,
// process-image layout, one or more racks, and optional scenario
// libraries. Unlike the teacher's ini-like internal/config parser (not
// carried into this repository), this format is YAML-native, so the loader
// follows the teacher's internal/collector/config.go shape instead:
// unmarshal into tagged structs, then validate and default.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"coupler-sim/internal/model"
)

const currentVersion = 2

// Document is the root of the persisted configuration format.
type Document struct {
	Version           int                      `yaml:"version"`
	Sim               SimSettings              `yaml:"sim"`
	Transport         TransportSettings        `yaml:"transport"`
	ProcessImage      ProcessImageSettings     `yaml:"processImage"`
	ModbusMap         ModbusMapSettings        `yaml:"modbusMap"`
	Racks             []model.RackConfig       `yaml:"racks"`
	Scenarios         []model.ScriptedScenario `yaml:"scenarios,omitempty"`
	ReactiveScenarios []model.ReactiveScenario `yaml:"reactiveScenarios,omitempty"`
	History           *HistorySettings         `yaml:"history,omitempty"`
}

// HistorySettings enables the write-audit log. When nil, no history
// database is opened and writes are not recorded.
type HistorySettings struct {
	Path string `yaml:"path"`
}

// SimSettings controls the tick engine's identity and pace.
type SimSettings struct {
	Name   string `yaml:"name"`
	Seed   *int64 `yaml:"seed,omitempty"`
	TickMs int64  `yaml:"tickMs"`
}

// TransportSettings describes how the Modbus front-end is bound: "tcp"
// (the core spec's transport) or, as an ambient extra grounded on the
// teacher's RTU support, "rtu" over a serial line.
type TransportSettings struct {
	Kind   string         `yaml:"kind"`
	Listen ListenConfig   `yaml:"listen"`
	UnitID byte           `yaml:"unitId"`
	Serial *SerialSettings `yaml:"serial,omitempty"`
}

// ListenConfig is the host/port pair the server accepts on.
type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SerialSettings configures the line used when transport.kind is "rtu".
type SerialSettings struct {
	Address  string `yaml:"address"`
	BaudRate int    `yaml:"baudRate,omitempty"`
	DataBits int    `yaml:"dataBits,omitempty"`
	StopBits int    `yaml:"stopBits,omitempty"`
	Parity   string `yaml:"parity,omitempty"`
}

// ProcessImageSettings controls packing of the process image (§4.2).
type ProcessImageSettings struct {
	Layout         string `yaml:"layout"`
	WordEndian     string `yaml:"wordEndian"`
	AlignModulesTo int    `yaml:"alignModulesTo"`
}

// ModbusMapSettings describes the input/output region mapping exposed
// over the wire.
type ModbusMapSettings struct {
	Inputs  RegionMapping `yaml:"inputs"`
	Outputs RegionMapping `yaml:"outputs"`
}

// RegionMapping names which Modbus region a process-image side is
// exposed through, and at what base address.
type RegionMapping struct {
	Kind string `yaml:"kind"`
	Base int    `yaml:"base"`
}

// Load reads and validates a configuration document from path, applying
// the same defaults the teacher's collector config applies: a tick rate
// when one is omitted, a unit ID of 1, little-endian word packing, and
// 2-byte module alignment.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyDefaults(&doc)
	if err := validate(&doc); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &doc, nil
}

// Save marshals doc to path as YAML, creating or truncating the file.
func Save(path string, doc *Document) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func applyDefaults(doc *Document) {
	if doc.Version == 0 {
		doc.Version = currentVersion
	}
	if doc.Sim.TickMs <= 0 {
		doc.Sim.TickMs = 100
	}
	if doc.Transport.Kind == "" {
		doc.Transport.Kind = "tcp"
	}
	if doc.Transport.Listen.Port == 0 {
		doc.Transport.Listen.Port = 502
	}
	if doc.Transport.UnitID == 0 {
		doc.Transport.UnitID = 1
	}
	if doc.ProcessImage.Layout == "" {
		doc.ProcessImage.Layout = "analog-first"
	}
	if doc.ProcessImage.WordEndian == "" {
		doc.ProcessImage.WordEndian = "little"
	}
	if doc.ProcessImage.AlignModulesTo == 0 {
		doc.ProcessImage.AlignModulesTo = 2
	}
	if doc.ModbusMap.Inputs.Kind == "" {
		doc.ModbusMap.Inputs.Kind = "inputRegisters"
	}
	if doc.ModbusMap.Outputs.Kind == "" {
		doc.ModbusMap.Outputs.Kind = "holdingRegisters"
	}
	for i := range doc.Racks {
		doc.Racks[i].SortModules()
	}
}

func validate(doc *Document) error {
	if doc.Version != currentVersion {
		return fmt.Errorf("unsupported document version %d (want %d)", doc.Version, currentVersion)
	}
	if doc.ProcessImage.WordEndian != "little" && doc.ProcessImage.WordEndian != "big" {
		return fmt.Errorf("processImage.wordEndian must be \"little\" or \"big\", got %q", doc.ProcessImage.WordEndian)
	}
	if len(doc.Racks) == 0 {
		return fmt.Errorf("at least one rack must be configured")
	}
	seenDefault := false
	for _, sc := range doc.ReactiveScenarios {
		if sc.Default {
			if seenDefault {
				return fmt.Errorf("reactiveScenarios: more than one scenario marked default")
			}
			seenDefault = true
		}
	}
	return nil
}
