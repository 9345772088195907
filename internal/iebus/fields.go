package iebus

// IEBus frame field layout and bit-window field access.

import (
	"encoding/binary"
	"fmt"
)

// FieldLayout describes the position of a field within the bit-packed frame.
type FieldLayout struct {
	BitOffset int // bit position from the start of the frame buffer
	BitLength int // field width in bits (1-12 in this protocol)
}

// Frame field positions. Addresses carry a parity bit (suffix P); fields
// acknowledged by the responding node also carry an ack bit (suffix A).
var (
	FieldBroadcast   = FieldLayout{0, 1}
	FieldMaster      = FieldLayout{1, 12}
	FieldMasterP     = FieldLayout{13, 1}
	FieldSlave       = FieldLayout{14, 12}
	FieldSlaveP      = FieldLayout{26, 1}
	FieldSlaveA      = FieldLayout{27, 1}
	FieldControl     = FieldLayout{28, 4}
	FieldControlP    = FieldLayout{32, 1}
	FieldControlA    = FieldLayout{33, 1}
	FieldDataLength  = FieldLayout{34, 8}
	FieldDataLengthP = FieldLayout{42, 1}
	FieldDataLengthA = FieldLayout{43, 1}
)

const (
	// DataFieldStride is the width of one data unit: 8 data bits followed
	// by a parity bit and an ack bit.
	DataFieldStride = 10

	// dataFieldBase is the bit offset of the first data unit.
	dataFieldBase = 44
)

// DataField returns the layout of the nth data byte.
func DataField(n int) FieldLayout {
	return FieldLayout{dataFieldBase + DataFieldStride*n, 8}
}

// DataFieldP returns the layout of the nth data byte's parity bit.
func DataFieldP(n int) FieldLayout {
	return FieldLayout{dataFieldBase + 8 + DataFieldStride*n, 1}
}

// DataFieldA returns the layout of the nth data byte's ack bit.
func DataFieldA(n int) FieldLayout {
	return FieldLayout{dataFieldBase + 9 + DataFieldStride*n, 1}
}

// windowBytes is the size of the read/write window. Every field access loads
// a big-endian 32-bit word starting at the field's byte offset, so buffers
// must carry a guard region of at least windowBytes past the last field.
const windowBytes = 4

// ReadField extracts a field value from buf. The buffer must have at least
// four bytes available from the field's byte offset.
func ReadField(buf []byte, f FieldLayout) (uint32, error) {
	start := f.BitOffset / 8
	if start+windowBytes > len(buf) {
		return 0, fmt.Errorf("field at bit %d: window [%d:%d] exceeds buffer of %d bytes", f.BitOffset, start, start+windowBytes, len(buf))
	}
	shift := uint(windowBytes*8 - f.BitLength - f.BitOffset%8)
	mask := uint32(1)<<f.BitLength - 1
	word := binary.BigEndian.Uint32(buf[start:])
	return word >> shift & mask, nil
}

// WriteField stores a field value into buf, clearing the field's bits and
// leaving all surrounding bits untouched. Same window requirement as
// ReadField.
func WriteField(buf []byte, f FieldLayout, value uint32) error {
	start := f.BitOffset / 8
	if start+windowBytes > len(buf) {
		return fmt.Errorf("field at bit %d: window [%d:%d] exceeds buffer of %d bytes", f.BitOffset, start, start+windowBytes, len(buf))
	}
	shift := uint(windowBytes*8 - f.BitLength - f.BitOffset%8)
	mask := (uint32(1)<<f.BitLength - 1) << shift
	word := binary.BigEndian.Uint32(buf[start:])
	word = word&^mask | value<<shift&mask
	binary.BigEndian.PutUint32(buf[start:], word)
	return nil
}

// Parity computes odd parity over value: 1 when the number of set bits is
// odd, so that data plus parity always carries an odd bit count.
func Parity(value uint32) uint32 {
	var p uint32
	for value != 0 {
		p ^= value & 1
		value >>= 1
	}
	return p
}
