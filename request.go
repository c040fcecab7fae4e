package xgb

import (
	"time"

	"github.com/pkg/errors"
)

// A server answers at least every maxVoidRun requests, which keeps every
// incoming sequence number within the 16-bit window of the last one read.
const maxVoidRun = 0x7000

const getInputFocusOpcode = 43

// NewRequest sends a request built with an Encoder (or any padded request
// bytes) and fills in cookie. Requests are buffered; they reach the server
// on the next flush, which happens at the latest when someone waits for a
// reply, a check or an event.
//
// Failures are reported through the cookie.
func (c *Conn) NewRequest(buf []byte, cookie *Cookie) {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	if err := c.sendLocked(buf, cookie); err != nil {
		c.mu.Lock()
		cookie.finish(cookieFailed, nil, err)
		c.mu.Unlock()
		return
	}
	// Serve is blocked reading and will not flush on its own.
	if c.serving.Load() {
		c.flushLocked()
	}
}

// SendRequest is a convenience for sending a request and getting its
// cookie back.
func (c *Conn) SendRequest(checked, reply bool, buf []byte) *Cookie {
	cookie := c.NewCookie(checked, reply)
	c.NewRequest(buf, cookie)
	return cookie
}

// sendLocked assigns the next sequence number to cookie, registers it and
// writes buf. c.sendLock must be held. An error returned here means the
// request was not sent.
func (c *Conn) sendLocked(buf []byte, cookie *Cookie) error {
	if err := c.Err(); err != nil {
		return err
	}
	frame, err := c.frameRequest(buf)
	if err != nil {
		c.log.WithError(err).Warnf("request not sent")
		return err
	}

	if !cookie.reply && c.sent-c.lastReplyExpected >= maxVoidRun {
		if err := c.sendSyncLocked(); err != nil {
			return err
		}
	}

	c.sent++
	cookie.seq = c.sent
	cookie.Sequence = uint16(c.sent)
	cookie.sentAt = time.Now()
	if cookie.reply {
		c.lastReplyExpected = c.sent
	}

	kind := "void"
	c.mu.Lock()
	c.lastSent = c.sent
	switch {
	case cookie.reply:
		kind = "reply"
		c.pending[cookie.seq] = cookie
	case cookie.checked:
		kind = "checked"
		c.pending[cookie.seq] = cookie
		c.voids = append(c.voids, cookie)
	}
	c.mu.Unlock()
	c.metrics.request(kind)

	if _, err := c.w.Write(frame); err != nil {
		c.fail(errors.Wrap(err, "write request"))
		return c.closedErr()
	}

	if kind == "void" {
		c.mu.Lock()
		cookie.finish(cookieReplied, nil, nil)
		c.mu.Unlock()
	}
	return nil
}

// frameRequest checks buf against the server's maximum request length and
// rewrites requests longer than 0xFFFF units into the extended-length form.
func (c *Conn) frameRequest(buf []byte) ([]byte, error) {
	if len(buf) < 4 || len(buf)%4 != 0 {
		return nil, errors.Errorf("xgb: malformed request of %d bytes", len(buf))
	}
	units := uint64(len(buf) / 4)

	limit := uint64(c.Setup.MaximumRequestLength)
	if c.bigMax > 0 {
		limit = uint64(c.bigMax)
	}

	if units <= 0xFFFF {
		if units > limit {
			return nil, errors.Wrapf(ErrRequestTooLarge, "%d units, maximum %d", units, limit)
		}
		c.order.PutUint16(buf[2:], uint16(units))
		return buf, nil
	}

	if c.bigMax == 0 || units+1 > limit {
		return nil, errors.Wrapf(ErrRequestTooLarge, "%d units, maximum %d", units, limit)
	}
	frame := make([]byte, 0, len(buf)+4)
	frame = append(frame, buf[0], buf[1], 0, 0, 0, 0, 0, 0)
	c.order.PutUint32(frame[4:], uint32(units+1))
	frame = append(frame, buf[4:]...)
	return frame, nil
}

// sendSyncLocked sends a GetInputFocus request whose reply nobody waits
// for. c.sendLock must be held.
func (c *Conn) sendSyncLocked() error {
	ck := c.NewCookie(true, true)
	ck.sync = true
	ck.state = cookieAbandoned
	close(ck.done)

	buf := make([]byte, 4)
	buf[0] = getInputFocusOpcode
	c.order.PutUint16(buf[2:], 1)

	c.sent++
	ck.seq = c.sent
	ck.Sequence = uint16(c.sent)
	c.lastReplyExpected = c.sent

	c.mu.Lock()
	c.lastSent = c.sent
	c.pending[ck.seq] = ck
	c.mu.Unlock()
	c.metrics.request("reply")
	c.metrics.sync()
	c.log.Debugf("inserted sync request %d", ck.seq)

	if _, err := c.w.Write(buf); err != nil {
		c.fail(errors.Wrap(err, "write request"))
		return c.closedErr()
	}
	return nil
}

// syncAfter makes sure a request expecting a reply follows seq, so that the
// server's answer to it settles every void request up to seq.
func (c *Conn) syncAfter(seq uint64) error {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	if c.lastReplyExpected > seq {
		return nil
	}
	if err := c.Err(); err != nil {
		return err
	}
	return c.sendSyncLocked()
}

// Flush writes buffered requests to the server.
func (c *Conn) Flush() error {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	return c.flushLocked()
}

// flushLocked is Flush with c.sendLock held.
func (c *Conn) flushLocked() error {
	if c.w.Buffered() == 0 {
		return c.Err()
	}
	if err := c.w.Flush(); err != nil {
		c.fail(errors.Wrap(err, "flush"))
		return c.closedErr()
	}
	return nil
}

// EnableBigRequests allows requests up to max units (4-byte words) long,
// using the extended-length encoding for those over 0xFFFF units. It is
// called by the BIG-REQUESTS extension once the server has agreed.
func (c *Conn) EnableBigRequests(max uint32) {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	c.bigMax = max
	c.log.Debugf("big requests enabled, maximum %d units", max)
}

// MaximumRequestLength returns the longest request the server accepts, in
// 4-byte units.
func (c *Conn) MaximumRequestLength() uint32 {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	if c.bigMax > 0 {
		return c.bigMax
	}
	return uint32(c.Setup.MaximumRequestLength)
}
