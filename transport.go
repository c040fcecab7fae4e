package xgb

import (
	"bufio"
	"context"
	"encoding/binary"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// Frames longer than this are treated as a corrupt stream.
const maxFrameLen = 1 << 30

const genericEventCode = 35

// errInterrupted is returned by readInterruptible when the read was
// stopped by the caller's context. Bytes read so far are kept.
var errInterrupted = errors.New("xgb: read interrupted")

// frameReader splits the incoming stream into messages. A read stopped by
// a deadline can be resumed; the partial frame is kept.
type frameReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   []byte
	n     int
	sized bool
}

func newFrameReader(r *bufio.Reader, order binary.ByteOrder) *frameReader {
	return &frameReader{r: r, order: order}
}

// frameExtra returns how many bytes follow the 32-byte header of a
// message.
func frameExtra(order binary.ByteOrder, hdr []byte) (int, error) {
	switch {
	case hdr[0] == 1, hdr[0]&0x7f == genericEventCode:
		units := order.Uint32(hdr[4:])
		if units > (maxFrameLen-32)/4 {
			return 0, errors.Wrapf(ErrBadFrame, "frame length %d units", units)
		}
		return int(units) * 4, nil
	}
	return 0, nil
}

// next returns the next complete frame.
func (f *frameReader) next() ([]byte, error) {
	if f.buf == nil {
		f.buf = make([]byte, 32)
		f.n = 0
		f.sized = false
	}
	for {
		for f.n < len(f.buf) {
			m, err := f.r.Read(f.buf[f.n:])
			f.n += m
			if err != nil {
				return nil, err
			}
		}
		if f.sized {
			break
		}
		extra, err := frameExtra(f.order, f.buf)
		if err != nil {
			return nil, err
		}
		f.sized = true
		if extra == 0 {
			break
		}
		buf := make([]byte, 32+extra)
		copy(buf, f.buf)
		f.buf = buf
	}
	buf := f.buf
	f.buf = nil
	return buf, nil
}

// readInterruptible reads one frame, returning errInterrupted if ctx is
// done first.
func (c *Conn) readInterruptible(ctx context.Context) ([]byte, error) {
	if ctx.Done() == nil {
		return c.fr.next()
	}
	if ctx.Err() != nil {
		return nil, errInterrupted
	}

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		c.conn.SetReadDeadline(time.Unix(1, 0))
	})
	buf, err := c.fr.next()
	if !stop() {
		<-fired
		c.conn.SetReadDeadline(time.Time{})
	}
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return nil, errInterrupted
	}
	return buf, err
}

// tuneSocket applies the configured kernel buffer sizes to conn when it is
// backed by a socket.
func tuneSocket(conn net.Conn, snd, rcv int) error {
	if snd == 0 && rcv == 0 {
		return nil
	}
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return errors.Wrap(err, "socket buffers")
	}
	return setSocketBuffers(raw, snd, rcv)
}
