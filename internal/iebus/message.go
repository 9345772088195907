// Package iebus implements the IEBus frame codec and the sample-level
// waveform synthesis used to bit-bang frames onto the bus.
package iebus

import (
	"fmt"
	"strconv"
	"strings"
)

// BroadcastFlag selects between broadcast and unicast addressing. The wire
// encoding is inverted from what the names suggest: broadcast is 0.
type BroadcastFlag uint32

const (
	Broadcast BroadcastFlag = 0
	Unicast   BroadcastFlag = 1
)

func (b BroadcastFlag) String() string {
	if b == Broadcast {
		return "broadcast"
	}
	return "unicast"
}

// AckBit is the acknowledgement driven by the responding node.
type AckBit uint32

const (
	ACK AckBit = 0
	NAK AckBit = 1
)

// DefaultAck is written for every acknowledged field at construction time.
// The true ack is driven by the addressed node during transmission, so the
// encoder can only ever emit a placeholder.
const DefaultAck = NAK

// MaxDataLen is the protocol's maximum payload size in bytes.
const MaxDataLen = 64

// bufLen sizes the frame buffer to hold a maximum-length frame plus the
// four-byte window guard required by ReadField and WriteField.
const bufLen = (dataFieldBase+DataFieldStride*MaxDataLen+7)/8 + windowBytes

// Message is one IEBus frame backed by a guarded bit-packed buffer. A
// Message is immutable after construction.
type Message struct {
	buf []byte
}

// MessageParams carries the structured-field inputs for NewMessage. Fields
// left at their zero value are not written to the frame, matching the
// behavior of a partially specified frame: no value and no parity bit.
type MessageParams struct {
	Broadcast BroadcastFlag
	Master    uint16
	Slave     uint16
	Control   uint8
	Data      []byte
}

// Finding reports one failed parity check. Index is the data byte index for
// data findings and -1 otherwise.
type Finding struct {
	Field string
	Index int
}

func (f Finding) String() string {
	if f.Index >= 0 {
		return fmt.Sprintf("bad parity: %s %d", f.Field, f.Index)
	}
	return "bad parity: " + f.Field
}

// NewMessage builds a frame from structured fields, computing parity for
// every supplied field and stamping the default ack.
func NewMessage(p MessageParams) (*Message, error) {
	if p.Master > 0xFFF {
		return nil, fmt.Errorf("master address 0x%x exceeds 12 bits", p.Master)
	}
	if p.Slave > 0xFFF {
		return nil, fmt.Errorf("slave address 0x%x exceeds 12 bits", p.Slave)
	}
	if p.Control > 0xF {
		return nil, fmt.Errorf("control 0x%x exceeds 4 bits", p.Control)
	}
	if len(p.Data) > MaxDataLen {
		return nil, fmt.Errorf("data length %d exceeds protocol maximum %d", len(p.Data), MaxDataLen)
	}

	m := &Message{buf: make([]byte, bufLen)}
	if p.Broadcast != Broadcast {
		m.setField(FieldBroadcast, uint32(p.Broadcast))
	}
	if p.Master != 0 {
		m.setField(FieldMaster, uint32(p.Master))
		m.setField(FieldMasterP, Parity(uint32(p.Master)))
	}
	if p.Slave != 0 {
		m.setField(FieldSlave, uint32(p.Slave))
		m.setField(FieldSlaveP, Parity(uint32(p.Slave)))
		m.setField(FieldSlaveA, uint32(DefaultAck))
	}
	if p.Control != 0 {
		m.setField(FieldControl, uint32(p.Control))
		m.setField(FieldControlP, Parity(uint32(p.Control)))
		m.setField(FieldControlA, uint32(DefaultAck))
	}
	if len(p.Data) > 0 {
		n := uint32(len(p.Data))
		m.setField(FieldDataLength, n)
		m.setField(FieldDataLengthP, Parity(n))
		m.setField(FieldDataLengthA, uint32(DefaultAck))
		for i, v := range p.Data {
			m.setField(DataField(i), uint32(v))
			m.setField(DataFieldP(i), Parity(uint32(v)))
			m.setField(DataFieldA(i), uint32(DefaultAck))
		}
	}
	return m, nil
}

// ParseMessage builds a frame from its token-string form, e.g.
// "- 190 440 f 5 00 25 74 9C 04". Colons are stripped and tokens are split
// on whitespace. The first token selects broadcast ("B") or unicast, the
// second and third are the master and slave addresses in hex.
//
// Control is always forced to 0xF, and every token from the fourth onward
// is taken as a payload byte. Strings written against the CLI help text
// therefore carry their control and length tokens into the payload; capture
// decoding never emits those tokens, so nothing round-trips through the
// alternate reading.
func ParseMessage(s string) (*Message, error) {
	parts := strings.Fields(strings.ReplaceAll(s, ":", ""))
	if len(parts) < 3 {
		return nil, fmt.Errorf("message %q: want at least type, master and slave tokens, got %d", s, len(parts))
	}

	p := MessageParams{Broadcast: Unicast, Control: 0xF}
	if parts[0] == "B" {
		p.Broadcast = Broadcast
	}

	master, err := strconv.ParseUint(parts[1], 16, 12)
	if err != nil {
		return nil, fmt.Errorf("message %q: master address: %w", s, err)
	}
	slave, err := strconv.ParseUint(parts[2], 16, 12)
	if err != nil {
		return nil, fmt.Errorf("message %q: slave address: %w", s, err)
	}
	p.Master = uint16(master)
	p.Slave = uint16(slave)

	for _, tok := range parts[3:] {
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("message %q: data byte %q: %w", s, tok, err)
		}
		p.Data = append(p.Data, byte(v))
	}
	if len(p.Data) > MaxDataLen {
		return nil, fmt.Errorf("message %q: data length %d exceeds protocol maximum %d", s, len(p.Data), MaxDataLen)
	}

	return NewMessage(p)
}

// DecodeMessage reconstructs a frame from raw bytes, typically recovered
// from a capture. Parity mismatches are reported as findings rather than
// errors so the caller can decide whether a damaged frame is still useful.
func DecodeMessage(raw []byte) (*Message, []Finding, error) {
	m := &Message{buf: make([]byte, bufLen)}
	copy(m.buf, raw)

	n := m.DataLen()
	if n > MaxDataLen {
		return nil, nil, fmt.Errorf("declared data length %d exceeds protocol maximum %d", n, MaxDataLen)
	}
	if m.BitLen() > len(raw)*8 {
		return nil, nil, fmt.Errorf("declared data length %d needs %d bits but only %d were supplied", n, m.BitLen(), len(raw)*8)
	}
	return m, m.Validate(), nil
}

// field reads a field from the guarded buffer. The buffer always satisfies
// the window requirement, so the read cannot fail.
func (m *Message) field(f FieldLayout) uint32 {
	v, _ := ReadField(m.buf, f)
	return v
}

func (m *Message) setField(f FieldLayout, v uint32) {
	_ = WriteField(m.buf, f, v)
}

// Broadcast reports whether the frame is broadcast or unicast.
func (m *Message) Broadcast() BroadcastFlag { return BroadcastFlag(m.field(FieldBroadcast)) }

// Master returns the 12-bit master (sender) address.
func (m *Message) Master() uint16 { return uint16(m.field(FieldMaster)) }

// Slave returns the 12-bit slave (target) address.
func (m *Message) Slave() uint16 { return uint16(m.field(FieldSlave)) }

// Control returns the 4-bit control nibble.
func (m *Message) Control() uint8 { return uint8(m.field(FieldControl)) }

// DataLen returns the declared payload length in bytes.
func (m *Message) DataLen() int { return int(m.field(FieldDataLength)) }

// Data returns the payload bytes as declared by the length field.
func (m *Message) Data() []byte {
	n := m.DataLen()
	if n > MaxDataLen {
		n = MaxDataLen
	}
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(m.field(DataField(i)))
	}
	return data
}

// Payload returns the payload with the bus conventions applied: unicast
// frames carry a spacer as their first data byte, which is dropped.
func (m *Message) Payload() []byte {
	data := m.Data()
	if m.Broadcast() == Unicast && len(data) > 0 {
		data = data[1:]
	}
	return data
}

// SrcDevice returns the source device ID, conventionally the first payload
// byte. Zero when the payload is empty.
func (m *Message) SrcDevice() byte {
	if p := m.Payload(); len(p) > 0 {
		return p[0]
	}
	return 0
}

// DstDevice returns the destination device ID, conventionally the second
// payload byte. Zero when absent.
func (m *Message) DstDevice() byte {
	if p := m.Payload(); len(p) > 1 {
		return p[1]
	}
	return 0
}

// BitLen returns the length of the frame in transmitted bits: the header up
// to the first data unit plus ten bits per payload byte.
func (m *Message) BitLen() int {
	return dataFieldBase + DataFieldStride*m.DataLen()
}

// Bytes returns the minimal byte prefix of the frame buffer covering every
// transmitted bit.
func (m *Message) Bytes() []byte {
	n := (m.BitLen()-1)/8 + 1
	return m.buf[:n]
}

// Validate recomputes parity for every parity-carrying field and returns
// one finding per mismatch. An empty result means the frame is well formed.
func (m *Message) Validate() []Finding {
	var findings []Finding
	check := func(name string, idx int, f, p FieldLayout) {
		if m.field(p) != Parity(m.field(f)) {
			findings = append(findings, Finding{Field: name, Index: idx})
		}
	}
	check("master address", -1, FieldMaster, FieldMasterP)
	check("slave address", -1, FieldSlave, FieldSlaveP)
	check("control", -1, FieldControl, FieldControlP)
	check("data length", -1, FieldDataLength, FieldDataLengthP)
	n := m.DataLen()
	if n > MaxDataLen {
		n = MaxDataLen
	}
	for i := 0; i < n; i++ {
		check("data", i, DataField(i), DataFieldP(i))
	}
	return findings
}

// Valid reports whether every parity check passes.
func (m *Message) Valid() bool { return len(m.Validate()) == 0 }

// String renders the frame in the display form
// "<B|-> <master> <slave> <control> <len> : <data...>", the counterpart of
// the token-string input format.
func (m *Message) String() string {
	var b strings.Builder
	mark := "-"
	if m.Broadcast() == Broadcast {
		mark = "B"
	}
	fmt.Fprintf(&b, "%s %03x %03x %01x %2d : ", mark, m.Master(), m.Slave(), m.Control(), m.DataLen())
	for _, v := range m.Data() {
		fmt.Fprintf(&b, "%02x ", v)
	}
	return b.String()
}
