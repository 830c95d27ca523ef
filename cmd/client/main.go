package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	mb "github.com/goburrow/modbus"
)

func main() {
	var address string
	var unitID int
	var poll time.Duration
	flag.StringVar(&address, "address", "127.0.0.1:502", "host:port of the coupler simulator")
	flag.IntVar(&unitID, "unit", 1, "Modbus unit id")
	flag.DurationVar(&poll, "poll", 5*time.Second, "poll interval")
	flag.Parse()

	th := mb.NewTCPClientHandler(normalizeAddress(address))
	th.Timeout = 5 * time.Second
	th.SlaveId = byte(unitID)
	if err := th.Connect(); err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer th.Close()
	client := mb.NewClient(th)

	printDiscovery(client)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for range ticker.C {
		printChannels(client)
	}
}

// printDiscovery reads the coupler's fixed metadata windows (§4.5): the
// watchdog configuration, the process-image bit-size registers, and
// the firmware/series/part-number identifiers.
func printDiscovery(client mb.Client) {
	watchdogMs := readWord(client, 0x1000)
	outAnalogBits := readWord(client, 0x1022)
	inAnalogBits := readWord(client, 0x1023)
	outDigitalBits := readWord(client, 0x1024)
	inDigitalBits := readWord(client, 0x1025)
	firmware := readWord(client, 0x2010)
	series := readWord(client, 0x2011)
	partSuffix := readWord(client, 0x2012)

	fmt.Printf("watchdog timeout: %d ms\n", watchdogMs)
	fmt.Printf("process image bits: analog out=%d in=%d, digital out=%d in=%d\n",
		outAnalogBits, inAnalogBits, outDigitalBits, inDigitalBits)
	fmt.Printf("firmware=0x%04X series=0x%04X coupler part suffix=%d\n", firmware, series, partSuffix)
}

// printChannels dumps the leading span of the input and holding register
// images, useful for eyeballing live channel values during manual testing.
func printChannels(client mb.Client) {
	const span = 16
	in, err := client.ReadInputRegisters(0, span)
	if err != nil {
		log.Printf("read input registers: %v", err)
	} else {
		fmt.Printf("input regs[0:%d] = %v\n", span, wordsOf(in))
	}
	out, err := client.ReadHoldingRegisters(0, span)
	if err != nil {
		log.Printf("read holding registers: %v", err)
	} else {
		fmt.Printf("holding regs[0:%d] = %v\n", span, wordsOf(out))
	}
}

func readWord(client mb.Client, addr uint16) uint16 {
	data, err := client.ReadHoldingRegisters(addr, 1)
	if err != nil || len(data) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(data)
}

func wordsOf(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	return out
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = "127.0.0.1:502"
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	if _, _, err := net.SplitHostPort(addr); err != nil && !strings.Contains(addr, ":") {
		addr = "127.0.0.1:" + addr
	}
	return addr
}
