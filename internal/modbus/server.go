// Package modbus implements the Modbus/TCP front-end (C8): an accept loop,
// per-connection MBAP framing, and function-code dispatch into a
// Simulator.
package modbus

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"coupler-sim/internal/simulator"
)

const (
	functionReadCoils           = 0x01
	functionReadDiscreteInputs  = 0x02
	functionReadHoldingRegs     = 0x03
	functionReadInputRegs       = 0x04
	functionWriteSingleCoil     = 0x05
	functionWriteSingleRegister = 0x06
	functionWriteMultipleCoils  = 0x0F
	functionWriteMultipleRegs   = 0x10

	exceptionIllegalFunction = 0x01
	exceptionIllegalDataAddr = 0x02
	exceptionIllegalDataVal  = 0x03

	maxReadBits  = 2000
	maxReadWords = 125
	maxWriteBits = 1968
	maxWriteWords = 123
)

// Server accepts Modbus/TCP connections and dispatches requests into a
// Simulator, which holds the actual rack state (§4.7).
type Server struct {
	sim    *simulator.Simulator
	unitID byte

	listener  net.Listener
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
}

// NewServer constructs a server bound to sim. Each response header echoes
// the unit identifier of its request; unitID is stored on the server but
// incoming requests are not checked against it.
func NewServer(sim *simulator.Simulator, unitID byte) *Server {
	return &Server{sim: sim, unitID: unitID, quit: make(chan struct{})}
}

// Listen starts accepting connections on address (e.g. ":502").
func (s *Server) Listen(address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("modbus: listen %s: %w", address, err)
	}
	s.listener = l
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Close stops accepting connections and waits for in-flight connections to
// drain (they are not forcibly torn down; see §5).
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}
	})
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("modbus: accept error: %v", err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	id := fmt.Sprintf("client-%s-%d", peer, time.Now().UnixMilli())
	s.sim.RegisterClient(id, peer)
	defer s.sim.UnregisterClient(id)

	header := make([]byte, 7)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}

		length := binary.BigEndian.Uint16(header[4:6])
		if length == 0 {
			continue
		}
		pduLength := int(length) - 1
		if pduLength <= 0 {
			continue
		}
		unitID := header[6]

		pdu := make([]byte, pduLength)
		if _, err := io.ReadFull(conn, pdu); err != nil {
			return
		}

		s.sim.TouchClient(id)
		response := s.handlePDU(pdu)
		if len(response) == 0 {
			continue
		}

		binary.BigEndian.PutUint16(header[2:4], 0)
		binary.BigEndian.PutUint16(header[4:6], uint16(len(response)+1))
		header[6] = unitID

		if _, err := conn.Write(header); err != nil {
			return
		}
		if _, err := conn.Write(response); err != nil {
			return
		}
	}
}

func (s *Server) handlePDU(pdu []byte) []byte {
	if len(pdu) == 0 {
		return exceptionResponse(0, exceptionIllegalFunction)
	}
	function := pdu[0]
	switch function {
	case functionReadCoils:
		return s.dispatchReadBits(function, pdu, maxReadBits, s.sim.ReadCoils)
	case functionReadDiscreteInputs:
		return s.dispatchReadBits(function, pdu, maxReadBits, s.sim.ReadDiscreteInputs)
	case functionReadHoldingRegs:
		return s.dispatchReadWords(function, pdu, maxReadWords, s.sim.ReadHoldingRegisters)
	case functionReadInputRegs:
		return s.dispatchReadWords(function, pdu, maxReadWords, s.sim.ReadInputRegisters)
	case functionWriteSingleCoil:
		return s.dispatchWriteSingleCoil(function, pdu)
	case functionWriteSingleRegister:
		return s.dispatchWriteSingleRegister(function, pdu)
	case functionWriteMultipleCoils:
		return s.dispatchWriteMultipleCoils(function, pdu)
	case functionWriteMultipleRegs:
		return s.dispatchWriteMultipleRegisters(function, pdu)
	default:
		return exceptionResponse(function, exceptionIllegalFunction)
	}
}

func exceptionResponse(function byte, code byte) []byte {
	if function == 0 {
		function = 0x80
	} else {
		function |= 0x80
	}
	return []byte{function, code}
}
