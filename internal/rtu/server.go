// Package rtu is an optional Modbus RTU (serial) front-end for a
// Simulator, adapted from the teacher's internal/utils.OpenSerial helper
// and its cmd/server RTU frame handler, re-targeted at a
// *simulator.Simulator instead of a flat register store.
package rtu

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/goburrow/serial"

	"coupler-sim/internal/simulator"
)

// SerialParams configures the serial line a Server listens on.
type SerialParams struct {
	Address  string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	Timeout  time.Duration
}

func ensureDefaults(sp *SerialParams) {
	if sp.BaudRate == 0 {
		sp.BaudRate = 9600
	}
	if sp.DataBits == 0 {
		sp.DataBits = 8
	}
	if sp.StopBits == 0 {
		sp.StopBits = 1
	}
	if sp.Parity == "" {
		sp.Parity = "N"
	}
	if sp.Timeout <= 0 {
		sp.Timeout = 10 * time.Second
	}
}

func openSerial(sp SerialParams) (io.ReadWriteCloser, error) {
	ensureDefaults(&sp)
	sc := &serial.Config{
		Address:  sp.Address,
		BaudRate: sp.BaudRate,
		DataBits: sp.DataBits,
		StopBits: sp.StopBits,
		Parity:   sp.Parity,
		Timeout:  sp.Timeout,
	}
	return serial.Open(sc)
}

// Server serves Modbus RTU frames against a Simulator, alongside (or
// instead of) the TCP front-end in internal/modbus.
type Server struct {
	sim    *simulator.Simulator
	unitID byte
	params SerialParams
}

// NewServer constructs an RTU front-end bound to sim, replying only to
// frames addressed to unitID.
func NewServer(sim *simulator.Simulator, unitID byte, params SerialParams) *Server {
	return &Server{sim: sim, unitID: unitID, params: params}
}

// Serve opens the serial line and processes frames until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	rw, err := openSerial(s.params)
	if err != nil {
		return fmt.Errorf("rtu: open %s: %w", s.params.Address, err)
	}
	defer rw.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.stream(rw)
	}()
	<-ctx.Done()
	rw.Close()
	<-done
	return nil
}

func (s *Server) stream(rw io.ReadWriter) {
	for {
		head := make([]byte, 2)
		if _, err := io.ReadFull(rw, head); err != nil {
			return
		}
		addr, function := head[0], head[1]

		switch function {
		case 0x01, 0x02, 0x03, 0x04, 0x05, 0x06:
			rest := make([]byte, 6) // addr/qty-or-value(4) + crc(2)
			if _, err := io.ReadFull(rw, rest); err != nil {
				return
			}
			req := append([]byte{addr, function}, rest[:4]...)
			if crc16Modbus(req) != binary.LittleEndian.Uint16(rest[4:]) {
				continue
			}
			if addr != s.unitID {
				continue
			}
			pdu := append([]byte{function}, rest[:4]...)
			s.reply(rw, addr, s.dispatch(pdu))

		case 0x0F, 0x10:
			hdr := make([]byte, 5)
			if _, err := io.ReadFull(rw, hdr); err != nil {
				return
			}
			byteCount := int(hdr[4])
			payload := make([]byte, byteCount+2) // + crc
			if _, err := io.ReadFull(rw, payload); err != nil {
				return
			}
			req := append(append([]byte{addr, function}, hdr...), payload[:byteCount]...)
			if crc16Modbus(req) != binary.LittleEndian.Uint16(payload[byteCount:]) {
				continue
			}
			if addr != s.unitID {
				continue
			}
			pdu := append(append([]byte{function}, hdr...), payload[:byteCount]...)
			s.reply(rw, addr, s.dispatch(pdu))

		default:
			log.Printf("rtu: unsupported function code %#x", function)
			return
		}
	}
}

func (s *Server) reply(rw io.Writer, addr byte, respPDU []byte) {
	if len(respPDU) == 0 {
		return
	}
	out := append([]byte{addr}, respPDU...)
	tail := make([]byte, 2)
	binary.LittleEndian.PutUint16(tail, crc16Modbus(out))
	out = append(out, tail...)
	_, _ = rw.Write(out)
}

func crc16Modbus(data []byte) uint16 {
	var crc uint16 = 0xFFFF
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc = crc >> 1
			}
		}
	}
	return crc
}
