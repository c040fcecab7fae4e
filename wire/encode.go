package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Encoder appends values to a growing buffer in a fixed byte order.
// Offsets used by Align are relative to the start of the buffer, which is
// always the start of a message.
//
// Values that do not fit their length field are not written; the first
// such failure is kept and reported by Err.
type Encoder struct {
	order binary.ByteOrder
	buf   []byte
	err   error
}

// NewEncoder creates an Encoder writing in order.
func NewEncoder(order binary.ByteOrder) *Encoder {
	return &Encoder{order: order, buf: make([]byte, 0, 32)}
}

// NewEncoderSize is like NewEncoder, but preallocates size bytes.
func NewEncoderSize(order binary.ByteOrder, size int) *Encoder {
	return &Encoder{order: order, buf: make([]byte, 0, size)}
}

func (e *Encoder) Order() binary.ByteOrder { return e.order }

// Bytes returns the encoded message. It aliases the Encoder's buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Len() int { return len(e.buf) }

// Err returns the first length overflow met while encoding.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.err = nil
}

func (e *Encoder) Put8(v byte) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) PutBool(v bool) {
	if v {
		e.Put8(1)
		return
	}
	e.Put8(0)
}

func (e *Encoder) Put16(v uint16) {
	var b [2]byte
	e.order.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) Put32(v uint32) {
	var b [4]byte
	e.order.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// PutLen16 writes n as a 16-bit length or count field.
func (e *Encoder) PutLen16(n int) {
	if n < 0 || n > 0xFFFF {
		e.fail(n, 0xFFFF)
		n = 0
	}
	e.Put16(uint16(n))
}

func (e *Encoder) fail(n, max int) {
	if e.err == nil {
		e.err = errors.Wrapf(ErrTooLong, "%d bytes, maximum %d", n, max)
	}
}

func (e *Encoder) PutInt16(v int16) { e.Put16(uint16(v)) }

func (e *Encoder) PutInt32(v int32) { e.Put32(uint32(v)) }

func (e *Encoder) PutFixed(v Fixed) { e.Put32(uint32(v)) }

// PutBytes appends b verbatim. No padding is added.
func (e *Encoder) PutBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// PutString appends the bytes of s verbatim. The length travels in a
// separate count field written by the caller.
func (e *Encoder) PutString(s string) {
	e.buf = append(e.buf, s...)
}

// Skip appends n zero bytes.
func (e *Encoder) Skip(n int) {
	for ; n > 0; n-- {
		e.buf = append(e.buf, 0)
	}
}

// Align pads the buffer with zero bytes up to a 4-byte boundary.
func (e *Encoder) Align() {
	e.Skip(PadLen(len(e.buf)))
}

// PutUint32List appends every value of list. Callers write the count.
func (e *Encoder) PutUint32List(list []uint32) {
	for _, v := range list {
		e.Put32(v)
	}
}

// PutUint16List appends every value of list followed by padding.
func (e *Encoder) PutUint16List(list []uint16) {
	for _, v := range list {
		e.Put16(v)
	}
	e.Align()
}

// PutStrList appends a LISTofSTR: each entry is a one-byte length followed
// by its bytes. The list as a whole is padded. Entries over 255 bytes are
// left out and make Err return ErrTooLong.
func (e *Encoder) PutStrList(list []string) {
	for _, s := range list {
		if len(s) > 0xFF {
			e.fail(len(s), 0xFF)
			continue
		}
		e.Put8(byte(len(s)))
		e.PutString(s)
	}
	e.Align()
}

// Request starts a request with the given major opcode and the
// opcode-specific data byte. The length field is filled in by EndRequest.
func (e *Encoder) Request(major, data byte) {
	e.Put8(major)
	e.Put8(data)
	e.Put16(0)
}

// EndRequest pads the request to a 4-byte boundary, stores its length in
// 4-byte units and returns it. Requests longer than 0xFFFF units keep a zero
// length field; the connection rewrites those into the BIG-REQUESTS form.
func (e *Encoder) EndRequest() []byte {
	e.Align()
	units := len(e.buf) / 4
	if units <= 0xFFFF {
		e.order.PutUint16(e.buf[2:], uint16(units))
	}
	return e.buf
}
