package iebus

import "testing"

func TestTimingConstants(t *testing.T) {
	cases := []struct {
		name string
		got  int
		want int
	}{
		{"TStartBit", TStartBit, 170},
		{"TBit", TBit, 41},
		{"TBit1", TBit1, 20},
		{"TBit0", TBit0, 33},
		{"TBitMeasure", TBitMeasure, 26},
		{"TTxWait", TTxWait, 88},
		{"TTimeout", TTimeout, 2000},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s = %d, want %d", tc.name, tc.got, tc.want)
		}
	}
}

func TestEncodeLength(t *testing.T) {
	cases := []string{
		"B 1ff 000",
		"B 1ff 000 f 1 45",
		"- 190 440 f 5 00 25 74 9C 04",
	}
	for _, in := range cases {
		m, err := ParseMessage(in)
		if err != nil {
			t.Fatalf("ParseMessage(%q): %v", in, err)
		}
		want := TStartBit + TBit1 + TBit*m.BitLen() + TTxWait
		if got := len(Encode(m)); got != want {
			t.Errorf("%q: len(Encode) = %d, want %d", in, got, want)
		}
	}
}

func TestEncodeWaveformShape(t *testing.T) {
	m, err := ParseMessage("B 1ff 000 f 1 45")
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	s := Encode(m)

	// Start condition: asserted for TStartBit samples.
	for i := 0; i < TStartBit; i++ {
		if s[i] != Low {
			t.Fatalf("start condition: sample %d = %d, want low", i, s[i])
		}
	}
	// Sync release.
	for i := TStartBit; i < TStartBit+TBit1; i++ {
		if s[i] != High {
			t.Fatalf("sync: sample %d = %d, want high", i, s[i])
		}
	}
	// First frame bit is the broadcast flag, 0 for a broadcast frame:
	// asserted for TBit0, released for the rest of the bit time.
	base := TStartBit + TBit1
	for i := 0; i < TBit0; i++ {
		if s[base+i] != Low {
			t.Fatalf("bit 0 active period: sample %d = %d, want low", base+i, s[base+i])
		}
	}
	for i := TBit0; i < TBit; i++ {
		if s[base+i] != High {
			t.Fatalf("bit 0 release period: sample %d = %d, want high", base+i, s[base+i])
		}
	}
	// Post-transmission idle.
	for i := len(s) - TTxWait; i < len(s); i++ {
		if s[i] != High {
			t.Fatalf("tx wait: sample %d = %d, want high", i, s[i])
		}
	}
}

func TestEncodeBitValueTiming(t *testing.T) {
	// Unicast frame: the first frame bit is 1, so the active period must be
	// the shorter TBit1 run.
	m, err := ParseMessage("- 190 440")
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	s := Encode(m)
	base := TStartBit + TBit1
	for i := 0; i < TBit1; i++ {
		if s[base+i] != Low {
			t.Fatalf("bit 1 active period: sample %d = %d, want low", base+i, s[base+i])
		}
	}
	if s[base+TBit1] != High {
		t.Errorf("bit 1 release: sample %d = %d, want high", base+TBit1, s[base+TBit1])
	}
}

func TestFrameBitsTruncated(t *testing.T) {
	m, err := ParseMessage("B 1ff 000 f 1 45")
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	bits := frameBits(m)
	if len(bits) != m.BitLen() {
		t.Errorf("len(frameBits) = %d, want %d", len(bits), m.BitLen())
	}
	// Leading bits: broadcast flag 0, then master 0x1FF in 12 bits
	// (0001 1111 1111), MSB first.
	want := []Level{0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	for i, w := range want {
		if bits[i] != w {
			t.Errorf("bit %d = %d, want %d", i, bits[i], w)
		}
	}
}

func TestSignalString(t *testing.T) {
	s := Signal{Low, High, High, Low}
	if got := s.String(); got != "0110" {
		t.Errorf("String() = %q, want %q", got, "0110")
	}
}
