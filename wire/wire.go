// Package wire implements the byte-level encoding of the X11 protocol:
// fixed-width integers in the connection's byte order, 4-byte alignment,
// counted strings and lists, and request header framing.
//
// It is primarily intended for use by the protocol engine and by packages
// that describe request, reply, event and error layouts.
package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrTruncated is reported by a Decoder that was asked for more bytes than
// its buffer holds.
var ErrTruncated = errors.New("wire: truncated message")

// ErrTooLong is reported by an Encoder for a value longer than its length
// field can describe.
var ErrTooLong = errors.New("wire: value too long for its length field")

// Byte order markers sent as the first byte of the connection setup.
const (
	MSBFirst byte = 'B'
	LSBFirst byte = 'l'
)

// Pad rounds n up to the next multiple of 4.
func Pad(n int) int { return (n + 3) &^ 3 }

// PadLen returns the number of zero bytes that follow n bytes of data.
func PadLen(n int) int { return Pad(n) - n }

// OrderMarker returns the setup byte announcing order.
func OrderMarker(order binary.ByteOrder) byte {
	if order.Uint16([]byte{0, 1}) == 1 {
		return MSBFirst
	}
	return LSBFirst
}

// OrderFromMarker is the inverse of OrderMarker.
func OrderFromMarker(b byte) (binary.ByteOrder, error) {
	switch b {
	case MSBFirst:
		return binary.BigEndian, nil
	case LSBFirst:
		return binary.LittleEndian, nil
	}
	return nil, errors.Errorf("wire: unknown byte order marker %#x", b)
}

// PopCount counts the bits set in a value-list mask. A value list carries
// exactly one 32-bit value per set bit.
func PopCount(mask uint32) int {
	n := 0
	for ; mask != 0; mask &= mask - 1 {
		n++
	}
	return n
}
