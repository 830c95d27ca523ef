package modbus

import (
	"encoding/binary"
	"testing"

	"coupler-sim/internal/model"
	"coupler-sim/internal/simulator"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sim := simulator.New()
	rack := &model.RackConfig{
		ID:      "rack-1",
		Coupler: model.CouplerSettings{Model: "750-343"},
		Modules: []model.ModuleInstance{
			{ID: "m0", ModelNumber: "750-530", SlotPosition: 0}, // digital out, 8ch
			{ID: "m1", ModelNumber: "750-455", SlotPosition: 1}, // analog in, 4ch
		},
	}
	if err := sim.LoadRack(rack); err != nil {
		t.Fatalf("LoadRack: %v", err)
	}
	return NewServer(sim, 1)
}

func TestWriteSingleCoilThenReadCoils(t *testing.T) {
	s := newTestServer(t)

	writePDU := []byte{functionWriteSingleCoil, 0x00, 0x02, 0xFF, 0x00}
	resp := s.handlePDU(writePDU)
	if len(resp) != 5 || resp[0] != functionWriteSingleCoil {
		t.Fatalf("unexpected write response: %x", resp)
	}

	readPDU := []byte{functionReadCoils, 0x00, 0x00, 0x00, 0x08}
	resp = s.handlePDU(readPDU)
	if resp[0] != functionReadCoils || resp[1] != 1 {
		t.Fatalf("unexpected read response: %x", resp)
	}
	if resp[2]&0x04 == 0 {
		t.Fatalf("expected coil bit 2 set in response byte, got 0x%02x", resp[2])
	}
}

func TestReadCoilsIllegalQuantityReturnsException(t *testing.T) {
	s := newTestServer(t)
	pdu := []byte{functionReadCoils, 0x00, 0x00, 0x00, 0x00} // qty 0
	resp := s.handlePDU(pdu)
	if resp[0] != functionReadCoils|0x80 || resp[1] != exceptionIllegalDataVal {
		t.Fatalf("expected illegal-data-value exception, got %x", resp)
	}
}

func TestUnknownFunctionCodeReturnsIllegalFunctionException(t *testing.T) {
	s := newTestServer(t)
	resp := s.handlePDU([]byte{0x99, 0x00})
	if resp[0] != (0x99 | 0x80) || resp[1] != exceptionIllegalFunction {
		t.Fatalf("expected illegal-function exception, got %x", resp)
	}
}

func TestWriteMultipleRegistersEchoesStartAddress(t *testing.T) {
	s := newTestServer(t)

	values := []uint16{0x1234, 0x5678}
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:], values[0])
	binary.BigEndian.PutUint16(data[2:], values[1])

	pdu := append([]byte{functionWriteMultipleRegs, 0x10, 0x00, 0x00, 0x02, byte(len(data))}, data...)
	resp := s.handlePDU(pdu)
	if resp[0] != functionWriteMultipleRegs {
		t.Fatalf("unexpected write-multiple-registers response: %x", resp)
	}

	addr := binary.BigEndian.Uint16(resp[1:3])
	if addr != 0x1000 {
		t.Fatalf("expected echoed address 0x1000, got 0x%04x", addr)
	}
}

func TestReadHoldingRegistersExceedingMaxQuantityIsRejected(t *testing.T) {
	s := newTestServer(t)
	pdu := make([]byte, 5)
	pdu[0] = functionReadHoldingRegs
	binary.BigEndian.PutUint16(pdu[1:3], 0)
	binary.BigEndian.PutUint16(pdu[3:5], maxReadWords+1)
	resp := s.handlePDU(pdu)
	if resp[0] != functionReadHoldingRegs|0x80 || resp[1] != exceptionIllegalDataVal {
		t.Fatalf("expected illegal-data-value exception, got %x", resp)
	}
}
