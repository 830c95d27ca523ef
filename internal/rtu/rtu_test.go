package rtu

import (
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
		},
	}
	if err := sim.LoadRack(rack); err != nil {
		t.Fatalf("LoadRack: %v", err)
	}
	return NewServer(sim, 1, SerialParams{Address: "/dev/null"})
}

func TestCRC16MatchesKnownVector(t *testing.T) {
	// 01 03 00 00 00 0A is a commonly cited Modbus RTU test frame.
	frame := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}
	got := crc16Modbus(frame)
	if got != 0xCDC5 {
		t.Fatalf("expected CRC 0xCDC5, got 0x%04X", got)
	}
}

func TestDispatchWriteSingleCoilThenReadCoils(t *testing.T) {
	s := newTestServer(t)

	resp := s.dispatch([]byte{functionWriteSingleCoil, 0x00, 0x00, 0xFF, 0x00})
	if len(resp) != 5 || resp[0] != functionWriteSingleCoil {
		t.Fatalf("unexpected write response: %x", resp)
	}

	resp = s.dispatch([]byte{functionReadCoils, 0x00, 0x00, 0x00, 0x01})
	if resp[0] != functionReadCoils || resp[1] != 1 || resp[2] != 0x01 {
		t.Fatalf("unexpected read response: %x", resp)
	}
}

func TestDispatchUnsupportedFunctionReturnsException(t *testing.T) {
	s := newTestServer(t)
	resp := s.dispatch([]byte{0x42, 0x00})
	if resp[0] != (0x42 | 0x80) || resp[1] != exceptionIllegalFunction {
		t.Fatalf("expected illegal-function exception, got %x", resp)
	}
}

func TestDispatchEmptyPDUReturnsException(t *testing.T) {
	s := newTestServer(t)
	resp := s.dispatch(nil)
	if resp[0] != 0x80 || resp[1] != exceptionIllegalFunction {
		t.Fatalf("expected function-0 exception for empty PDU, got %x", resp)
	}
}

func TestExceptionResponseSetsHighBit(t *testing.T) {
	resp := exceptionResponse(functionReadCoils, exceptionIllegalDataAddr)
	if resp[0] != functionReadCoils|0x80 || resp[1] != exceptionIllegalDataAddr {
		t.Fatalf("unexpected exception frame: %x", resp)
	}
}

func TestDispatchWriteMultipleCoilsRejectsBadByteCount(t *testing.T) {
	s := newTestServer(t)
	// qty=8 claims byteCount=1, but declared byteCount below is wrong (2).
	pdu := []byte{functionWriteMultipleCoils, 0x00, 0x00, 0x00, 0x08, 0x02, 0xFF, 0x00}
	resp := s.dispatch(pdu)
	if resp[0] != functionWriteMultipleCoils|0x80 || resp[1] != exceptionIllegalDataVal {
		t.Fatalf("expected illegal-data-value exception for mismatched byte count, got %x", resp)
	}
}
