package iebus

// Waveform synthesis. One sample is one microsecond at the reference 1 MHz
// bit rate, so durations below are sample counts.

import "math"

// BitRate is the reference sample rate of the synthesized waveform in Hz.
const BitRate = 1000000

// tBitMicros is the nominal IEBus mode 2 bit time in microseconds,
// approximately 40.7.
const tBitMicros = 256 / 6.291456

// microsToSamples converts a duration in microseconds to samples at BitRate.
func microsToSamples(us float64) int {
	return int(math.Round(1e-6 * BitRate * us))
}

// IEBus mode 2 timing, in samples.
var (
	TStartBit   = microsToSamples(170)                // extended start condition
	TBit        = microsToSamples(tBitMicros)         // nominal bit duration
	TBit1       = microsToSamples(tBitMicros / 2)     // logic 1 active duration
	TBit0       = microsToSamples(4 * tBitMicros / 5) // logic 0 active duration
	TBitMeasure = (TBit1 + TBit0) / 2                 // decode threshold between 1 and 0
	TTxWait     = microsToSamples(88)                 // idle after transmission
	TTimeout    = microsToSamples(2000)               // receiver timeout
)

// Level is the instantaneous line state at one sample instant. The bus
// idles high; an asserted line reads low.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// Signal is an ordered sequence of line-state samples. Signals are built
// once and never mutated.
type Signal []Level

// String renders the signal as a run of '0' and '1' characters, one per
// sample.
func (s Signal) String() string {
	b := make([]byte, len(s))
	for i, v := range s {
		b[i] = '0' + byte(v)
	}
	return string(b)
}

// appendRun appends n samples of level v.
func appendRun(s Signal, v Level, n int) Signal {
	for i := 0; i < n; i++ {
		s = append(s, v)
	}
	return s
}

// appendBit appends one data bit: an active (low) period whose length
// distinguishes the bit value, then a release back to idle for the rest of
// the bit time. Every bit occupies exactly TBit samples, which is what lets
// a receiver recover the value by measuring the active period against
// TBitMeasure.
func appendBit(s Signal, bit Level) Signal {
	active := TBit1
	if bit == Low {
		active = TBit0
	}
	s = appendRun(s, Low, active)
	return appendRun(s, High, TBit-active)
}

// Encode synthesizes the transmission waveform for one frame: the asserted
// start condition, the sync release, one TBit run per frame bit, and the
// post-transmission idle. The result is always
// TStartBit + TBit1 + TBit*BitLen + TTxWait samples long.
func Encode(m *Message) Signal {
	bits := frameBits(m)
	s := make(Signal, 0, TStartBit+TBit1+TBit*len(bits)+TTxWait)
	s = appendRun(s, Low, TStartBit)
	s = appendRun(s, High, TBit1)
	for _, bit := range bits {
		s = appendBit(s, bit)
	}
	return appendRun(s, High, TTxWait)
}

// frameBits expands the frame bytes MSB first and truncates to the frame's
// logical bit length, discarding the pad bits of the final byte.
func frameBits(m *Message) []Level {
	raw := m.Bytes()
	bits := make([]Level, 0, len(raw)*8)
	for _, b := range raw {
		for i := 7; i >= 0; i-- {
			bits = append(bits, Level(b>>uint(i)&1))
		}
	}
	return bits[:m.BitLen()]
}
