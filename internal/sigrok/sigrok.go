// Package sigrok extracts IEBus traffic from sigrok logic-analyzer capture
// files by driving sigrok-cli and its iebus protocol decoder.
package sigrok

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/fletcher/iebusctl/internal/iebus"
	"github.com/fletcher/iebusctl/internal/transport"
)

// DefaultBinary is the sigrok-cli executable resolved from PATH.
const DefaultBinary = "sigrok-cli"

// Event is one decoded bus message recovered from a capture. Timestamp is
// in samples at the 1 MHz reference rate, Channel is the capture channel
// label and Message is the token-string form accepted by iebus.ParseMessage.
type Event struct {
	Timestamp int64
	Channel   string
	Message   string
}

// Tool invokes sigrok-cli through a command runner.
type Tool struct {
	binary string
	runner transport.Runner
}

// New creates a Tool. An empty binary falls back to DefaultBinary.
func New(binary string, runner transport.Runner) *Tool {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Tool{binary: binary, runner: runner}
}

// Channels inspects a capture file and returns the channel mapping argument
// for sigrok-cli. Explicit rx/tx names override detection; otherwise a
// capture with a channel named RX is used as-is and anything else falls
// back to the D6/D4 wiring of the reference probe setup.
func (t *Tool) Channels(ctx context.Context, file, rx, tx string) (string, error) {
	code, stdout, stderr, err := t.runner.Exec(ctx, []string{t.binary, "-i", file, "--show"})
	if err != nil {
		return "", fmt.Errorf("sigrok-cli --show %s: %w", file, err)
	}
	if code != 0 {
		return "", fmt.Errorf("sigrok-cli --show %s: exit %d: %s", file, code, strings.TrimSpace(stderr))
	}

	var channels []string
	for _, line := range strings.Split(stdout, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) != "logic" {
			continue
		}
		name := strings.TrimSpace(strings.ReplaceAll(parts[0], "-", ""))
		if name != "" {
			channels = append(channels, name)
		}
	}

	switch {
	case rx != "" && tx != "":
		return rx + "," + tx, nil
	case rx != "":
		return rx, nil
	}
	for _, c := range channels {
		if c == "RX" {
			return "RX,TX", nil
		}
	}
	return "D6=RX,D4=TX", nil
}

// Messages runs the iebus protocol decoder over the capture files and
// returns every decoded message. Receive-side copies of our own transmitted
// messages are dropped by matching millisecond-rounded timestamps, and the
// result is sorted by timestamp across all files.
func (t *Tool) Messages(ctx context.Context, files []string, rx, tx string) ([]Event, error) {
	var events []Event
	for _, file := range files {
		fileEvents, err := t.decodeFile(ctx, file, rx, tx)
		if err != nil {
			return nil, err
		}
		events = append(events, fileEvents...)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp < events[j].Timestamp })
	return events, nil
}

func (t *Tool) decodeFile(ctx context.Context, file, rx, tx string) ([]Event, error) {
	channels, err := t.Channels(ctx, file, rx, tx)
	if err != nil {
		return nil, err
	}

	cmd := []string{
		t.binary, "-i", file, "-C", channels,
		"-P", "iebus:bus=RX:bus_polarity=idle-high:ignore_nak=Enabled",
		"-P", "iebus:bus=TX:bus_polarity=idle-high:ignore_nak=Enabled",
		"-A", "iebus=fields", "--protocol-decoder-jsontrace",
	}
	code, stdout, stderr, err := t.runner.Exec(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("sigrok-cli decode %s: %w", file, err)
	}
	if code != 0 {
		return nil, fmt.Errorf("sigrok-cli decode %s: exit %d: %s", file, code, strings.TrimSpace(stderr))
	}

	var tr trace
	if err := json.Unmarshal([]byte(stdout), &tr); err != nil {
		return nil, fmt.Errorf("sigrok-cli decode %s: parse trace: %w", file, err)
	}

	var rxRaw, txRaw []traceEvent
	for _, ev := range tr.TraceEvents {
		if ev.Ph != "B" {
			continue
		}
		switch ev.Pid {
		case "iebus-1":
			rxRaw = append(rxRaw, ev)
		case "iebus-2":
			txRaw = append(txRaw, ev)
		}
	}

	rxMsgs := foldFields(rxRaw)
	txMsgs := foldFields(txRaw)

	// Messages we transmitted appear on both channels; drop the receive
	// copy when its millisecond-rounded timestamp matches a transmit one.
	txRounded := make(map[int64]bool, len(txMsgs))
	for _, m := range txMsgs {
		txRounded[m.Timestamp/1000] = true
	}

	var events []Event
	for _, m := range rxMsgs {
		if txRounded[m.Timestamp/1000] {
			continue
		}
		events = append(events, Event{Timestamp: m.Timestamp, Channel: "RX", Message: m.Message})
	}
	for _, m := range txMsgs {
		events = append(events, Event{Timestamp: m.Timestamp, Channel: "TX", Message: m.Message})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp < events[j].Timestamp })
	return events, nil
}

// trace is the Chrome trace event document emitted by
// --protocol-decoder-jsontrace.
type trace struct {
	TraceEvents []traceEvent `json:"traceEvents"`
}

type traceEvent struct {
	Name string  `json:"name"`
	Ph   string  `json:"ph"`
	Pid  string  `json:"pid"`
	Ts   float64 `json:"ts"`
}

// foldFields turns a stream of field annotations into token-string
// messages. A Broadcast or Unicast annotation opens a new message; Master,
// Slave and Data annotations contribute hex tokens to the current one.
func foldFields(events []traceEvent) []Event {
	var out []Event
	var tokens []string
	var ts int64

	flush := func() {
		if len(tokens) > 0 {
			out = append(out, Event{Timestamp: ts, Message: strings.Join(tokens, " ")})
		}
		tokens = nil
	}

	for _, ev := range events {
		name := strings.TrimSpace(ev.Name)
		switch name {
		case "Broadcast":
			flush()
			ts = int64(ev.Ts)
			tokens = []string{"B"}
			continue
		case "Unicast":
			flush()
			ts = int64(ev.Ts)
			tokens = []string{"-"}
			continue
		}
		parts := strings.SplitN(name, ":", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "Master", "Slave", "Data":
			value := strings.TrimSpace(strings.ReplaceAll(parts[1], "0x", ""))
			tokens = append(tokens, value)
		}
	}
	flush()
	return out
}

// RawSamples extracts the named channel from one or more captures without
// protocol decoding and downsamples it to the reference bit rate. The
// result is consumed directly as a pre-built waveform.
func (t *Tool) RawSamples(ctx context.Context, files []string, channel string, sampleRate int) (iebus.Signal, error) {
	step := int(math.Round(float64(sampleRate) / iebus.BitRate))
	if step < 1 {
		return nil, fmt.Errorf("capture sample rate %d Hz is below the %d Hz reference rate", sampleRate, iebus.BitRate)
	}

	var signal iebus.Signal
	for _, file := range files {
		code, stdout, stderr, err := t.runner.Exec(ctx, []string{t.binary, "-i", file, "-O", "bits"})
		if err != nil {
			return nil, fmt.Errorf("sigrok-cli bits %s: %w", file, err)
		}
		if code != 0 {
			return nil, fmt.Errorf("sigrok-cli bits %s: exit %d: %s", file, code, strings.TrimSpace(stderr))
		}

		var bits []byte
		for _, line := range strings.Split(stdout, "\n") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) != 2 || strings.TrimSpace(parts[0]) != channel {
				continue
			}
			run := strings.TrimSpace(strings.ReplaceAll(parts[1], " ", ""))
			bits = append(bits, run...)
		}

		// Decimation is per file so a file whose sample count is not a
		// multiple of the step does not shift the phase of the next one.
		for i := 0; i < len(bits); i += step {
			switch bits[i] {
			case '0':
				signal = append(signal, iebus.Low)
			case '1':
				signal = append(signal, iebus.High)
			default:
				return nil, fmt.Errorf("unexpected sample %q in channel %s of %s", bits[i], channel, file)
			}
		}
	}
	return signal, nil
}
