package xgb

import (
	"context"
	"encoding/binary"
	"time"
)

type cookieState int

const (
	cookieSent cookieState = iota
	cookieReplied
	cookieErrored
	cookieAbandoned
	cookieFailed
)

// Cookie tracks one request. It is returned by NewCookie and filled in
// by NewRequest, which assigns its sequence number.
//
// There are three kinds of cookies:
// Requests with replies always receive their reply or their error.
// Checked requests without replies receive their error, or complete
// successfully once the server is known to have processed them.
// Unchecked requests without replies complete as soon as they are sent;
// their errors go to the connection's error sink.
type Cookie struct {
	// Sequence is the 16-bit sequence number the server uses for the
	// request. It is zero until the request is sent.
	Sequence uint16

	conn    *Conn
	seq     uint64
	reply   bool
	checked bool
	sync    bool // inserted by the connection; nobody waits on it
	sentAt  time.Time

	// guarded by conn.mu
	state cookieState
	buf   []byte
	err   error
	done  chan struct{}
}

// NewCookie creates a cookie for a request about to be sent with
// NewRequest. Requests with replies are always checked.
func (c *Conn) NewCookie(checked, reply bool) *Cookie {
	return &Cookie{
		conn:    c,
		reply:   reply,
		checked: checked || reply,
		done:    make(chan struct{}),
	}
}

// NewFailedCookie returns a cookie that has already failed with err, for
// requests that could not be built, such as extension requests issued
// before the extension was resolved.
func (c *Conn) NewFailedCookie(checked, reply bool, err error) *Cookie {
	ck := c.NewCookie(checked, reply)
	c.mu.Lock()
	ck.finish(cookieFailed, nil, err)
	c.mu.Unlock()
	return ck
}

// Done returns a channel that is closed when the request reaches a final
// state: replied, failed, abandoned, or (for void requests) known to have
// been processed.
func (ck *Cookie) Done() <-chan struct{} { return ck.done }

// Order returns the byte order replies for this cookie are encoded in.
func (ck *Cookie) Order() binary.ByteOrder { return ck.conn.order }

// finish moves the cookie to a final state. c.mu must be held.
func (ck *Cookie) finish(state cookieState, buf []byte, err error) bool {
	if ck.state != cookieSent {
		return false
	}
	ck.state = state
	ck.buf = buf
	ck.err = err
	close(ck.done)
	return true
}

// result reads the final state of a cookie whose done channel is closed.
func (ck *Cookie) result() ([]byte, error) {
	ck.conn.mu.Lock()
	defer ck.conn.mu.Unlock()
	return ck.buf, ck.err
}

// Reply blocks until the reply or error for the request arrives and
// returns the raw reply bytes.
func (ck *Cookie) Reply() ([]byte, error) {
	return ck.ReplyContext(context.Background())
}

// ReplyContext is like Reply, but gives up when ctx is done. A request
// given up on is abandoned: its reply is dropped when it arrives.
func (ck *Cookie) ReplyContext(ctx context.Context) ([]byte, error) {
	if !ck.reply {
		return nil, ErrNoReply
	}
	if err := ck.wait(ctx); err != nil {
		return nil, err
	}
	return ck.result()
}

// Check blocks until the server has processed the request and returns the
// error it produced, if any. For requests with replies the reply is
// discarded.
func (ck *Cookie) Check() error {
	return ck.CheckContext(context.Background())
}

func (ck *Cookie) CheckContext(ctx context.Context) error {
	if ck.reply {
		_, err := ck.ReplyContext(ctx)
		return err
	}
	select {
	case <-ck.done:
		_, err := ck.result()
		return err
	default:
	}
	// Nothing after the request will be answered, so ask for something.
	if err := ck.conn.syncAfter(ck.seq); err != nil {
		return err
	}
	if err := ck.wait(ctx); err != nil {
		return err
	}
	_, err := ck.result()
	return err
}

func (ck *Cookie) wait(ctx context.Context) error {
	err := ck.conn.waitFor(ctx, ck.done)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		select {
		case <-ck.done:
			return nil
		default:
		}
		ck.Abandon()
		return ctx.Err()
	}
	return err
}

// Abandon stops local delivery for the request. The request is not
// cancelled on the server; its reply or error is dropped when it arrives.
func (ck *Cookie) Abandon() {
	c := ck.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	if ck.finish(cookieAbandoned, nil, ErrAbandoned) {
		c.metrics.abandon()
		c.log.Debugf("abandoned request %d", ck.seq)
	}
}
