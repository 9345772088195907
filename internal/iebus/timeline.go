package iebus

// Timeline composition: placing encoded frames onto a shared idle
// background, trimming, guarding, and packing for byte-oriented transmit.

import "fmt"

// IdleGuard is the run of idle samples added to each end of a composed
// timeline so the transmitting hardware has settling time around the
// frames.
const IdleGuard = 10000

// Placement positions one frame on the timeline, in samples from the
// timeline origin.
type Placement struct {
	Offset  int
	Message *Message
}

// ComposeOptions controls batch composition.
//
// RegularInterval, when non-zero, discards the placements' own offsets and
// spaces the frames evenly, which avoids reproducing collision-prone
// capture timing. The interval must be chosen larger than the longest
// encoded frame; the composer does not detect overlap.
//
// GlitchSamples, when non-zero, prepends that many extra idle samples ahead
// of the leading guard to exercise a receiving driver's tolerance of
// spurious idle activity.
type ComposeOptions struct {
	RegularInterval int
	GlitchSamples   int
}

// Compose encodes every placed frame and lays the waveforms onto an
// all-idle timeline, then trims surrounding idle, pads both ends with
// IdleGuard samples, and prepends any requested glitch samples.
func Compose(placements []Placement, opts ComposeOptions) (Signal, error) {
	if len(placements) == 0 {
		return nil, fmt.Errorf("no frames to compose")
	}

	signals := make([]Signal, len(placements))
	for i, p := range placements {
		signals[i] = Encode(p.Message)
	}

	var total int
	if opts.RegularInterval != 0 {
		total = opts.RegularInterval * len(placements)
	} else {
		last := len(placements) - 1
		total = placements[last].Offset + len(signals[last])
	}

	timeline := appendRun(make(Signal, 0, total), High, total)
	for i, p := range placements {
		offset := p.Offset
		if opts.RegularInterval != 0 {
			offset = i * opts.RegularInterval
		}
		if need := offset + len(signals[i]); need > len(timeline) {
			timeline = appendRun(timeline, High, need-len(timeline))
		}
		copy(timeline[offset:], signals[i])
	}

	return Finalize(timeline, opts.GlitchSamples), nil
}

// ComposeSingle prepares a single frame for immediate transmission: the
// degenerate composition of one frame at offset zero.
func ComposeSingle(m *Message, glitchSamples int) Signal {
	return Finalize(Encode(m), glitchSamples)
}

// Finalize strips the idle surrounding a raw sample sequence, pads both
// ends with the idle guard, and prepends glitch samples. Raw capture
// replays that bypass the codec go through the same finishing pass.
func Finalize(s Signal, glitchSamples int) Signal {
	s = trimIdle(s)
	out := make(Signal, 0, glitchSamples+2*IdleGuard+len(s))
	out = appendRun(out, High, glitchSamples+IdleGuard)
	out = append(out, s...)
	return appendRun(out, High, IdleGuard)
}

// trimIdle removes leading and trailing idle samples.
func trimIdle(s Signal) Signal {
	start := 0
	for start < len(s) && s[start] == High {
		start++
	}
	end := len(s)
	for end > start && s[end-1] == High {
		end--
	}
	return s[start:end]
}

// Pack groups samples into bytes for transmission, most significant sample
// first. A final group shorter than eight samples is padded with idle so
// the line returns high rather than being held low by pad bits.
func Pack(s Signal) []byte {
	out := make([]byte, 0, (len(s)+7)/8)
	for i := 0; i < len(s); i += 8 {
		b := byte(0)
		for j := 0; j < 8; j++ {
			b <<= 1
			if i+j >= len(s) || s[i+j] == High {
				b |= 1
			}
		}
		out = append(out, b)
	}
	return out
}

// Unpack expands packed transmit bytes back into samples, the inverse of
// Pack for sample counts that are a multiple of eight.
func Unpack(b []byte) Signal {
	s := make(Signal, 0, len(b)*8)
	for _, v := range b {
		for i := 7; i >= 0; i-- {
			s = append(s, Level(v>>uint(i)&1))
		}
	}
	return s
}
