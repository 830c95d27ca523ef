package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"coupler-sim/internal/config"
	"coupler-sim/internal/output"
	"coupler-sim/internal/simulator"
)

func main() {
	var cfgPath string
	var outJSON string
	var outCSV string
	var wait time.Duration
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to the simulator configuration document")
	flag.StringVar(&outJSON, "json", "", "path to write JSON snapshot (optional)")
	flag.StringVar(&outCSV, "csv", "", "path to write CSV snapshot (optional)")
	flag.DurationVar(&wait, "wait", 2*time.Second, "ticks run for this long before the snapshot is taken")
	flag.Parse()

	if outJSON == "" && outCSV == "" {
		log.Fatalf("no output specified: set --json and/or --csv")
	}

	if err := run(cfgPath, outJSON, outCSV, wait); err != nil {
		log.Fatal(err)
	}
}

func run(cfgPath, outJSON, outCSV string, wait time.Duration) error {
	doc, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(doc.Racks) == 0 {
		return fmt.Errorf("config: no racks defined")
	}

	sim := simulator.New()
	rack := doc.Racks[0]
	if err := sim.LoadRack(&rack); err != nil {
		return fmt.Errorf("load rack %s: %w", rack.ID, err)
	}
	sim.InstallScriptedScenarios(doc.Scenarios)
	if err := sim.InstallReactiveScenarios(doc.ReactiveScenarios, doc.Sim.TickMs); err != nil {
		log.Printf("reactive scenario auto-activation failed: %v", err)
	}
	sim.StartSimulation()

	tickMs := doc.Sim.TickMs
	if tickMs <= 0 {
		tickMs = 100
	}
	ticker := time.NewTicker(time.Duration(tickMs) * time.Millisecond)
	defer ticker.Stop()

	deadline := time.After(wait)
loop:
	for {
		select {
		case <-ticker.C:
			sim.Tick()
		case <-deadline:
			break loop
		}
	}

	snaps := sim.AllModuleStates()
	if outJSON != "" {
		if err := output.WriteJSON(outJSON, snaps); err != nil {
			log.Printf("write json error: %v", err)
		}
	}
	if outCSV != "" {
		if err := output.WriteCSV(outCSV, snaps); err != nil {
			log.Printf("write csv error: %v", err)
		}
	}
	return nil
}
