package modules

import "testing"

func TestPartNumberSuffix(t *testing.T) {
	cases := []struct {
		model string
		want  uint16
	}{
		{"750-455", 455},
		{"750-478/003-000", 0}, // trailing run is "000"
		{"750", 750},
		{"", 0},
	}
	for _, c := range cases {
		if got := PartNumberSuffix(c.model); got != c.want {
			t.Errorf("PartNumberSuffix(%q) = %d, want %d", c.model, got, c.want)
		}
	}
}

func TestDigitalInRoundTrip(t *testing.T) {
	m := NewDigitalIn("750-1405", 4)
	if err := m.SetChannelValue(2, 1); err != nil {
		t.Fatalf("SetChannelValue: %v", err)
	}
	states, _ := m.State()
	if len(states) != 4 {
		t.Fatalf("expected 4 channels, got %d", len(states))
	}
	if states[2].Bool == nil || !*states[2].Bool {
		t.Fatalf("expected channel 2 true, got %+v", states[2])
	}
	img := m.ReadInputs()
	if len(img) != 1 {
		t.Fatalf("expected 1 byte of input image for 4 channels, got %d", len(img))
	}
	if img[0] != 0x04 {
		t.Fatalf("expected bit 2 set (0x04), got 0x%02x", img[0])
	}
}

func TestDigitalInSetChannelValueOutOfRange(t *testing.T) {
	m := NewDigitalIn("750-1405", 2)
	if err := m.SetChannelValue(5, 1); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestDigitalOutWriteOutputsAndReadBack(t *testing.T) {
	m := NewDigitalOut("750-1504", 8)
	m.WriteOutputs([]byte{0x81}) // bits 0 and 7 set
	states, _ := m.State()
	if !*states[0].Bool || !*states[7].Bool {
		t.Fatalf("expected channels 0 and 7 set, got %+v", states)
	}
	for i := 1; i < 7; i++ {
		if *states[i].Bool {
			t.Fatalf("expected channel %d clear, got set", i)
		}
	}
}

func TestAnalogInOutRoundTrip(t *testing.T) {
	conv := LinearConv{RawMin: 0, RawMax: 32767, EuMin: 0, EuMax: 10}
	in := NewAnalogIn("750-457", 2, conv)
	if err := in.SetChannelValue(0, 5); err != nil {
		t.Fatalf("SetChannelValue: %v", err)
	}
	states, _ := in.State()
	if states[0].Number == nil || *states[0].Number != 5 {
		t.Fatalf("expected 5, got %+v", states[0])
	}

	out := NewAnalogOut("750-550", 2, conv)
	img := make([]byte, 4)
	img[0] = byte(conv.EUToWord(2.5))
	img[1] = byte(conv.EUToWord(2.5) >> 8)
	out.WriteOutputs(img)
	got, _ := out.State()
	if got[0].Number == nil || *got[0].Number < 2.4 || *got[0].Number > 2.6 {
		t.Fatalf("expected ~2.5, got %+v", got[0])
	}
}

func TestLinearConvClamping(t *testing.T) {
	conv := LinearConv{RawMin: 0, RawMax: 100, EuMin: 0, EuMax: 10}
	if got := conv.EUToWord(20); got != 100 {
		t.Errorf("expected clamp to raw max 100, got %d", got)
	}
	if got := conv.EUToWord(-5); got != 0 {
		t.Errorf("expected clamp to raw min 0, got %d", got)
	}
}

func TestRtdFixedScale(t *testing.T) {
	m := NewRtd("750-461", 1)
	if err := m.SetChannelValue(0, 23.4); err != nil {
		t.Fatalf("SetChannelValue: %v", err)
	}
	states, _ := m.State()
	if states[0].Raw != 234 {
		t.Fatalf("expected raw 234 (0.1 degC/count), got %d", states[0].Raw)
	}
}

func TestCounterControlStorageIsOpaque(t *testing.T) {
	m := NewCounter("750-638")
	if err := m.SetChannelValue(0, 42); err != nil {
		t.Fatalf("SetChannelValue: %v", err)
	}
	states, _ := m.State()
	if states[0].Number == nil || *states[0].Number != 42 {
		t.Fatalf("expected count 42, got %+v", states[0])
	}
	m.WriteOutputs([]byte{0x01, 0x00, 0x10, 0x00, 0x00, 0x00})
	states, _ = m.State() // control/preset write must not touch the count
	if *states[0].Number != 42 {
		t.Fatalf("expected count to stay 42 after control write, got %v", *states[0].Number)
	}
}

func TestCounterSetChannelValueRejectsOutOfRangeChannel(t *testing.T) {
	m := NewCounter("750-638")
	if err := m.SetChannelValue(1, 0); err == nil {
		t.Fatalf("expected error for channel != 0")
	}
}
