package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"coupler-sim/internal/config"
	"coupler-sim/internal/modbus"
	"coupler-sim/internal/rtu"
	"coupler-sim/internal/simulator"
	"coupler-sim/pkg/history"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the simulator configuration document")
	flag.Parse()

	if err := run(configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	doc, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sim, front, err := newSimulator(doc)
	if err != nil {
		return fmt.Errorf("create simulator: %w", err)
	}
	defer front.Close()

	if doc.History != nil && doc.History.Path != "" {
		hc, err := history.Open(doc.History.Path)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer hc.Close()
		sim.EnableHistory(hc)
		log.Printf("recording write history to %s", doc.History.Path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- front.Serve(ctx) }()

	ticker := time.NewTicker(time.Duration(doc.Sim.TickMs) * time.Millisecond)
	defer ticker.Stop()
	sim.StartSimulation()

	for {
		select {
		case <-ticker.C:
			sim.Tick()
		case <-ctx.Done():
			log.Println("shutting down simulator")
			return nil
		case err := <-errCh:
			return err
		}
	}
}

// frontend is whichever transport (TCP or RTU) is serving the Modbus
// protocol for this run.
type frontend interface {
	Serve(ctx context.Context) error
	Close()
}

type tcpFrontend struct{ server *modbus.Server }

func (f *tcpFrontend) Serve(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
func (f *tcpFrontend) Close() { f.server.Close() }

type rtuFrontend struct{ server *rtu.Server }

func (f *rtuFrontend) Serve(ctx context.Context) error { return f.server.Serve(ctx) }
func (f *rtuFrontend) Close()                          {}

func newSimulator(doc *config.Document) (*simulator.Simulator, frontend, error) {
	sim := simulator.New()

	if len(doc.Racks) == 0 {
		return nil, nil, fmt.Errorf("config: no racks defined")
	}
	rack := doc.Racks[0]
	if err := sim.LoadRack(&rack); err != nil {
		return nil, nil, fmt.Errorf("load rack %s: %w", rack.ID, err)
	}

	sim.InstallScriptedScenarios(doc.Scenarios)
	if err := sim.InstallReactiveScenarios(doc.ReactiveScenarios, doc.Sim.TickMs); err != nil {
		log.Printf("reactive scenario auto-activation failed: %v", err)
	}

	switch doc.Transport.Kind {
	case "", "tcp":
		address := fmt.Sprintf("%s:%d", doc.Transport.Listen.Host, doc.Transport.Listen.Port)
		server := modbus.NewServer(sim, doc.Transport.UnitID)
		if err := server.Listen(address); err != nil {
			return nil, nil, fmt.Errorf("listen %s: %w", address, err)
		}
		log.Printf("coupler simulator listening on %s (unit %d)", address, doc.Transport.UnitID)
		return sim, &tcpFrontend{server: server}, nil

	case "rtu":
		if doc.Transport.Serial == nil || doc.Transport.Serial.Address == "" {
			return nil, nil, fmt.Errorf("transport.serial.address is required for rtu transport")
		}
		params := rtu.SerialParams{
			Address:  doc.Transport.Serial.Address,
			BaudRate: doc.Transport.Serial.BaudRate,
			DataBits: doc.Transport.Serial.DataBits,
			StopBits: doc.Transport.Serial.StopBits,
			Parity:   doc.Transport.Serial.Parity,
		}
		server := rtu.NewServer(sim, doc.Transport.UnitID, params)
		log.Printf("coupler simulator serving RTU on %s (unit %d)", params.Address, doc.Transport.UnitID)
		return sim, &rtuFrontend{server: server}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported transport.kind %q", doc.Transport.Kind)
	}
}
