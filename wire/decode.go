package wire

import (
	"encoding/binary"
)

// Decoder reads values from a single message. The first read past the end
// of the buffer records ErrTruncated; every later read returns a zero value
// and the error is reported by Err.
type Decoder struct {
	order binary.ByteOrder
	buf   []byte
	pos   int
	err   error
}

// NewDecoder creates a Decoder reading buf in order. Offsets used by Align
// are relative to the start of buf.
func NewDecoder(order binary.ByteOrder, buf []byte) *Decoder {
	return &Decoder{order: order, buf: buf}
}

func (d *Decoder) Order() binary.ByteOrder { return d.order }

// Err returns the first error encountered while decoding.
func (d *Decoder) Err() error { return d.err }

// Pos returns the offset of the next byte to be read.
func (d *Decoder) Pos() int { return d.pos }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.pos+n > len(d.buf) {
		d.err = ErrTruncated
		d.pos = len(d.buf)
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *Decoder) Get8() byte {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *Decoder) GetBool() bool {
	return d.Get8() != 0
}

func (d *Decoder) Get16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return d.order.Uint16(b)
}

func (d *Decoder) Get32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return d.order.Uint32(b)
}

func (d *Decoder) GetInt16() int16 { return int16(d.Get16()) }

func (d *Decoder) GetInt32() int32 { return int32(d.Get32()) }

func (d *Decoder) GetFixed() Fixed { return Fixed(d.Get32()) }

// GetBytes returns a copy of the next n bytes.
func (d *Decoder) GetBytes(n int) []byte {
	b := d.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (d *Decoder) GetString(n int) string {
	b := d.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// Skip discards n bytes.
func (d *Decoder) Skip(n int) {
	d.take(n)
}

// Align skips padding up to the next 4-byte boundary.
func (d *Decoder) Align() {
	d.Skip(PadLen(d.pos))
}

func (d *Decoder) GetUint32List(n int) []uint32 {
	if d.err != nil {
		return nil
	}
	if n < 0 || n*4 > d.Remaining() {
		d.take(n * 4)
		return nil
	}
	list := make([]uint32, n)
	for i := range list {
		list[i] = d.Get32()
	}
	return list
}

// GetUint16List reads n values followed by padding.
func (d *Decoder) GetUint16List(n int) []uint16 {
	if d.err != nil {
		return nil
	}
	if n < 0 || n*2 > d.Remaining() {
		d.take(n * 2)
		return nil
	}
	list := make([]uint16, n)
	for i := range list {
		list[i] = d.Get16()
	}
	d.Align()
	return list
}

// GetStrList reads n length-prefixed strings. Trailing padding is left for
// the caller since some replies place the list at the very end.
func (d *Decoder) GetStrList(n int) []string {
	if n < 0 {
		d.take(-1)
		return nil
	}
	list := make([]string, 0, min(n, d.Remaining()))
	for i := 0; i < n && d.err == nil; i++ {
		l := int(d.Get8())
		list = append(list, d.GetString(l))
	}
	if d.err != nil {
		return nil
	}
	return list
}
