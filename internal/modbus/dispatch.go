package modbus

import "encoding/binary"

func parseAddrQty(pdu []byte) (addr, qty int, ok bool) {
	if len(pdu) < 5 {
		return 0, 0, false
	}
	addr = int(binary.BigEndian.Uint16(pdu[1:3]))
	qty = int(binary.BigEndian.Uint16(pdu[3:5]))
	return addr, qty, true
}

func (s *Server) dispatchReadBits(function byte, pdu []byte, maxQty int, read func(addr, count int) []bool) []byte {
	addr, qty, ok := parseAddrQty(pdu)
	if !ok || qty == 0 || qty > maxQty {
		return exceptionResponse(function, exceptionIllegalDataVal)
	}
	bits := read(addr, qty)
	byteCount := (qty + 7) / 8
	data := make([]byte, byteCount)
	for i, b := range bits {
		if b {
			data[i/8] |= 1 << uint(i%8)
		}
	}
	return append([]byte{function, byte(byteCount)}, data...)
}

func (s *Server) dispatchReadWords(function byte, pdu []byte, maxQty int, read func(addr, count int) []uint16) []byte {
	addr, qty, ok := parseAddrQty(pdu)
	if !ok || qty == 0 || qty > maxQty {
		return exceptionResponse(function, exceptionIllegalDataVal)
	}
	words := read(addr, qty)
	data := make([]byte, qty*2)
	for i, w := range words {
		binary.BigEndian.PutUint16(data[i*2:], w)
	}
	return append([]byte{function, byte(len(data))}, data...)
}

func (s *Server) dispatchWriteSingleCoil(function byte, pdu []byte) []byte {
	if len(pdu) < 5 {
		return exceptionResponse(function, exceptionIllegalDataVal)
	}
	addr := int(binary.BigEndian.Uint16(pdu[1:3]))
	raw := binary.BigEndian.Uint16(pdu[3:5])
	var value bool
	switch raw {
	case 0xFF00:
		value = true
	case 0x0000:
		value = false
	default:
		return exceptionResponse(function, exceptionIllegalDataVal)
	}
	if err := s.sim.WriteSingleCoil(addr, value); err != nil {
		return exceptionResponse(function, exceptionIllegalDataAddr)
	}
	echo := make([]byte, len(pdu))
	copy(echo, pdu)
	return echo
}

func (s *Server) dispatchWriteSingleRegister(function byte, pdu []byte) []byte {
	if len(pdu) < 5 {
		return exceptionResponse(function, exceptionIllegalDataVal)
	}
	addr := int(binary.BigEndian.Uint16(pdu[1:3]))
	value := binary.BigEndian.Uint16(pdu[3:5])
	if err := s.sim.WriteSingleRegister(addr, value); err != nil {
		return exceptionResponse(function, exceptionIllegalDataAddr)
	}
	echo := make([]byte, len(pdu))
	copy(echo, pdu)
	return echo
}

func (s *Server) dispatchWriteMultipleCoils(function byte, pdu []byte) []byte {
	if len(pdu) < 6 {
		return exceptionResponse(function, exceptionIllegalDataVal)
	}
	addr := int(binary.BigEndian.Uint16(pdu[1:3]))
	qty := int(binary.BigEndian.Uint16(pdu[3:5]))
	byteCount := int(pdu[5])
	if qty == 0 || qty > maxWriteBits || len(pdu) < 6+byteCount || byteCount != (qty+7)/8 {
		return exceptionResponse(function, exceptionIllegalDataVal)
	}
	data := pdu[6 : 6+byteCount]
	values := make([]bool, qty)
	for i := 0; i < qty; i++ {
		values[i] = (data[i/8]>>uint(i%8))&0x01 == 1
	}
	if err := s.sim.WriteMultipleCoils(addr, values); err != nil {
		return exceptionResponse(function, exceptionIllegalDataAddr)
	}
	resp := make([]byte, 5)
	resp[0] = function
	binary.BigEndian.PutUint16(resp[1:3], uint16(addr))
	binary.BigEndian.PutUint16(resp[3:5], uint16(qty))
	return resp
}

func (s *Server) dispatchWriteMultipleRegisters(function byte, pdu []byte) []byte {
	if len(pdu) < 6 {
		return exceptionResponse(function, exceptionIllegalDataVal)
	}
	addr := int(binary.BigEndian.Uint16(pdu[1:3]))
	qty := int(binary.BigEndian.Uint16(pdu[3:5]))
	byteCount := int(pdu[5])
	if qty == 0 || qty > maxWriteWords || len(pdu) < 6+byteCount || byteCount != qty*2 {
		return exceptionResponse(function, exceptionIllegalDataVal)
	}
	data := pdu[6 : 6+byteCount]
	values := make([]uint16, qty)
	for i := 0; i < qty; i++ {
		values[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	if err := s.sim.WriteMultipleRegisters(addr, values); err != nil {
		return exceptionResponse(function, exceptionIllegalDataAddr)
	}
	resp := make([]byte, 5)
	resp[0] = function
	binary.BigEndian.PutUint16(resp[1:3], uint16(addr))
	binary.BigEndian.PutUint16(resp[3:5], uint16(qty))
	return resp
}
