// Package simulator implements the Simulator (C7): the single
// exclusively-locked runtime combining the module catalog, process image,
// ownership manager, scripted player and reactive engine, and exposing the
// read/write surface the Modbus/TCP server and host command channel call
// into.
package simulator

import (
	"sort"
	"sync"
	"time"

	"coupler-sim/internal/catalog"
	"coupler-sim/internal/image"
	"coupler-sim/internal/model"
	"coupler-sim/internal/modules"
	"coupler-sim/internal/ownership"
	"coupler-sim/internal/reactive"
	"coupler-sim/internal/scenario"
	"coupler-sim/pkg/history"
)

const defaultHoldingRegisterCount = 1024

// ClientInfo describes one connected Modbus peer.
type ClientInfo struct {
	ID           string
	Address      string
	ConnectedAt  int64
	LastActivity int64
	RequestCount int64
}

// Simulator holds all rack, ownership, and scenario state behind a single
// mutex (§4.6, §5).
type Simulator struct {
	mu sync.Mutex

	config *model.RackConfig
	mods   []modules.Module
	img    *image.Image

	holdingRegisters []uint16

	ownership *ownership.Manager

	scriptedScenarios map[string]*model.ScriptedScenario
	activeScripted    *scenario.Player

	reactiveScenarios map[string]*model.ReactiveScenario
	activeReactiveID  string
	reactiveEngine    *reactive.Engine
	reactiveTick      int64

	simState model.SimState

	lastModbusActivityMs int64
	watchdogTimeoutMs    int64
	configWord           uint16

	clients map[string]*ClientInfo

	currentTick int64

	history      *history.Client
	historyQueue chan history.Event
}

// New constructs an empty Simulator; no rack is loaded until LoadRack is
// called. The Simulator does not parse configuration documents itself.
func New() *Simulator {
	return &Simulator{
		ownership:         ownership.NewManager(),
		scriptedScenarios: make(map[string]*model.ScriptedScenario),
		activeScripted:    scenario.NewPlayer(),
		reactiveScenarios: make(map[string]*model.ReactiveScenario),
		simState:          model.StateStopped,
		watchdogTimeoutMs: 0,
		clients:           make(map[string]*ClientInfo),
		holdingRegisters:  make([]uint16, defaultHoldingRegisterCount),
	}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// LoadRack installs config, (re)creating every module instance from the
// catalog. Modules are sorted by slot position first, so ChannelRef
// modulePosition indices are stable rack-order indices, not raw slots.
func (s *Simulator) LoadRack(config *model.RackConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadRackLocked(config)
}

func (s *Simulator) loadRackLocked(config *model.RackConfig) error {
	sorted := make([]model.ModuleInstance, len(config.Modules))
	copy(sorted, config.Modules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SlotPosition < sorted[j].SlotPosition })
	config.Modules = sorted

	mods := make([]modules.Module, len(sorted))
	for i, mi := range sorted {
		m, err := catalog.New(mi.ModelNumber)
		if err != nil {
			return err
		}
		mods[i] = m
	}

	s.config = config
	s.mods = mods
	s.img = image.Build(mods)
	s.ownership = ownership.NewManager()
	s.resizeHoldingRegisters()
	s.syncHoldingRegistersLocked()
	return nil
}

// ClearRack tears down the current rack: no modules, no config.
func (s *Simulator) ClearRack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = nil
	s.mods = nil
	s.img = image.Build(nil)
	s.ownership = ownership.NewManager()
	s.holdingRegisters = make([]uint16, defaultHoldingRegisterCount)
}

// HasRack reports whether a configuration is currently loaded.
func (s *Simulator) HasRack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config != nil
}

func (s *Simulator) resizeHoldingRegisters() {
	needed := len(s.img.OutputImage()) / 2
	if needed < defaultHoldingRegisterCount {
		needed = defaultHoldingRegisterCount
	}
	if len(s.holdingRegisters) < needed {
		grown := make([]uint16, needed)
		copy(grown, s.holdingRegisters)
		s.holdingRegisters = grown
	}
}

// syncHoldingRegistersLocked refreshes the leading span of holdingRegisters
// from the live output image; addresses beyond that span are free-form
// scratch storage untouched by module state (§4.2).
func (s *Simulator) syncHoldingRegistersLocked() {
	out := s.img.OutputImage()
	words := image.ReadWords(out, 0, len(out)/2)
	copy(s.holdingRegisters, words)
}
