package xgb

import (
	"github.com/xgbnet/xgb/wire"
)

const keymapNotify = 11

// widen maps a 16-bit wire sequence number onto the connection's 64-bit
// send counter. last is the highest sequence read so far and sent the
// highest sequence sent; the result is the value nearest last that does
// not exceed sent.
func widen(last, sent uint64, seq uint16) uint64 {
	w := int64(last) + int64(int16(seq-uint16(last)))
	if w > int64(sent) {
		w -= 0x10000
	}
	if w < 0 {
		w += 0x10000
	}
	return uint64(w)
}

// observe records that the server has processed every request up to seq
// and returns seq widened. c.mu must be held.
func (c *Conn) observe(wireSeq uint16) uint64 {
	seq := widen(c.lastRead, c.lastSent, wireSeq)
	if seq > c.lastRead {
		c.lastRead = seq
	}
	c.completeVoids(seq)
	return seq
}

// completeVoids marks every checked void request older than seq as
// processed without error. c.mu must be held.
func (c *Conn) completeVoids(seq uint64) {
	n := 0
	for _, ck := range c.voids {
		if ck.seq >= seq {
			break
		}
		delete(c.pending, ck.seq)
		ck.finish(cookieReplied, nil, nil)
		n++
	}
	if n > 0 {
		c.voids = c.voids[n:]
		c.metrics.settled(n)
	}
}

// dispatch routes one incoming frame. It returns a server error that no
// request claimed when an error handler should see it.
func (c *Conn) dispatch(buf []byte) Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch buf[0] {
	case 0:
		return c.dispatchError(buf)
	case 1:
		c.dispatchReply(buf)
	default:
		c.dispatchEvent(buf)
	}
	return nil
}

func (c *Conn) dispatchReply(buf []byte) {
	seq := c.observe(c.order.Uint16(buf[2:]))

	ck, ok := c.pending[seq]
	if !ok {
		c.metrics.discard()
		c.log.Debugf("discarding reply for unknown request %d", seq)
		return
	}
	delete(c.pending, seq)
	c.metrics.settled(1)
	if ck.sync {
		return
	}
	if !ck.finish(cookieReplied, buf, nil) {
		c.metrics.discard()
		c.log.Debugf("discarding reply for abandoned request %d", seq)
		return
	}
	c.metrics.reply(ck.sentAt)
}

func (c *Conn) dispatchError(buf []byte) Error {
	seq := c.observe(c.order.Uint16(buf[2:]))
	xerr := c.decodeError(buf)

	if ck, ok := c.pending[seq]; ok {
		delete(c.pending, seq)
		c.metrics.settled(1)
		if !ck.reply {
			c.removeVoid(ck)
		}
		if ck.finish(cookieErrored, nil, xerr) {
			c.metrics.serverError("request")
		} else {
			c.metrics.discard()
			c.log.Debugf("discarding error for abandoned request %d: %s", seq, xerr)
		}
		return nil
	}

	c.metrics.serverError("sink")
	if c.errorHandler != nil {
		return xerr
	}
	c.enqueue(eventItem{err: xerr})
	return nil
}

func (c *Conn) removeVoid(ck *Cookie) {
	for i, v := range c.voids {
		if v == ck {
			c.voids = append(c.voids[:i], c.voids[i+1:]...)
			return
		}
	}
}

func (c *Conn) dispatchEvent(buf []byte) {
	code := buf[0] & 0x7f
	if code != keymapNotify {
		c.observe(c.order.Uint16(buf[2:]))
	}
	c.metrics.event()
	c.enqueue(eventItem{ev: c.decodeEvent(buf)})
}

func (c *Conn) decodeError(buf []byte) Error {
	code := buf[1]
	d := wire.NewDecoder(c.order, buf)
	var xerr Error
	if f, ok := NewErrorFuncs[int(code)]; ok {
		xerr = f(d)
	} else if s, first := c.ext.errorSchema(code); s != nil {
		xerr = s.NewError(code-first, d)
	}
	if xerr == nil || d.Err() != nil {
		if d.Err() != nil {
			c.log.WithError(d.Err()).Warnf("undecodable error code %d", code)
		}
		d = wire.NewDecoder(c.order, buf)
		return &UnknownError{DecodeErrorHeader(d)}
	}
	return xerr
}

func (c *Conn) decodeEvent(buf []byte) Event {
	code := buf[0] & 0x7f
	d := wire.NewDecoder(c.order, buf)
	var ev Event
	switch {
	case code == genericEventCode:
		ev = c.decodeGeneric(buf)
	case NewEventFuncs[int(code)] != nil:
		ev = NewEventFuncs[int(code)](d)
	default:
		if s, first := c.ext.eventSchema(code); s != nil {
			ev = s.NewEvent(code-first, d)
		}
	}
	if ev == nil || d.Err() != nil {
		if d.Err() != nil {
			c.log.WithError(d.Err()).Warnf("undecodable event code %d", code)
		}
		return newUnknownEvent(c.order, buf)
	}
	return ev
}

func (c *Conn) decodeGeneric(buf []byte) Event {
	g := &GenericEvent{
		Extension: buf[1],
		Sequence:  c.order.Uint16(buf[2:]),
		EventType: c.order.Uint16(buf[8:]),
		Data:      buf,
	}
	if s := c.ext.genericSchema(g.Extension); s != nil {
		if ev := s.NewGenericEvent(g.EventType, wire.NewDecoder(c.order, buf)); ev != nil {
			return ev
		}
	}
	return g
}

// fail poisons the connection. The first cause wins; every pending request
// fails with a *ConnError wrapping it.
func (c *Conn) fail(cause error) {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return
	}
	c.err = &ConnError{Cause: cause}
	if cause != nil {
		c.log.WithError(cause).Errorf("connection failed")
	}

	n := 0
	for seq, ck := range c.pending {
		ck.finish(cookieFailed, nil, c.err)
		delete(c.pending, seq)
		n++
	}
	c.metrics.settled(n)
	c.voids = nil
	close(c.closed)
	c.wake()
	c.mu.Unlock()

	c.conn.Close()
}

// closedErr returns the terminal error of the connection.
func (c *Conn) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return &ConnError{}
	}
	return c.err
}
