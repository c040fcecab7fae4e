package xgb_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/internal/xtest"
)

func serve(t *testing.T, c *xgb.Conn) (stop func() error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(waitTimeout):
			t.Fatal("Serve did not return")
			return nil
		}
	}
}

func TestServe(t *testing.T) {
	c, _ := connect(t)
	stop := serve(t, c)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
			defer cancel()
			r, err := c.SendRequest(true, true, request(c, echoOpcode, byte(i))).ReplyContext(ctx)
			if assert.NoError(t, err) {
				assert.Equal(t, byte(i), r[1])
			}
		}(i)
	}
	wg.Wait()

	assert.ErrorIs(t, stop(), context.Canceled)

	// The connection is still usable once the pump stops.
	r, err := c.SendRequest(true, true, request(c, echoOpcode, 99)).Reply()
	require.NoError(t, err)
	assert.Equal(t, byte(99), r[1])
}

func TestServeResumesDone(t *testing.T) {
	c, s := connect(t)
	stop := serve(t, c)
	defer stop()

	// Let Serve block in its read before the request is sent.
	time.Sleep(50 * time.Millisecond)
	ck := c.SendRequest(true, true, getInputFocus(c))
	select {
	case <-ck.Done():
	case <-time.After(waitTimeout):
		t.Fatal("reply not delivered by Serve")
	}
	r, err := ck.Reply()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1e7), c.Order().Uint32(r[8:]))

	require.NoError(t, s.Send(xtest.RawEvent(c.Order(), 64, 1)))
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	ev, err := c.WaitForEventContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(64), ev.(*xgb.UnknownEvent).Code)
}

func TestServeOnlyOnce(t *testing.T) {
	c, _ := connect(t)
	stop := serve(t, c)
	defer stop()

	// Give the first pump time to take the reader role.
	_, err := c.SendRequest(true, true, getInputFocus(c)).Reply()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Serve(ctx), context.DeadlineExceeded)
}

func TestServeConnectionLost(t *testing.T) {
	c, s := connect(t)

	done := make(chan error, 1)
	go func() { done <- c.Serve(context.Background()) }()
	ck := c.SendRequest(true, true, request(c, silentOpcode, 0))
	require.NoError(t, c.Flush())
	_, err := s.WaitRequests(1, waitTimeout)
	require.NoError(t, err)
	s.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, xgb.ErrConnClosed)
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(waitTimeout):
		t.Fatal("Serve did not return")
	}
	_, err = ck.Reply()
	assert.ErrorIs(t, err, xgb.ErrConnClosed)
}

func TestWaitForEventContext(t *testing.T) {
	c, s := connect(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.WaitForEventContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, s.Send(xtest.RawEvent(c.Order(), 64, 0)))
	ev, err := c.WaitForEventContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(64), ev.(*xgb.UnknownEvent).Code)
}

func TestPartialFrameSurvivesCancel(t *testing.T) {
	c, s := connect(t)
	order := c.Order()

	ck := c.SendRequest(true, true, request(c, silentOpcode, 0))
	require.NoError(t, c.Flush())
	_, err := s.WaitRequests(1, waitTimeout)
	require.NoError(t, err)

	body := make([]byte, 40)
	for i := range body {
		body[i] = byte(i)
	}
	reply := xtest.Reply(order, 1, 5, body)
	event := xtest.RawEvent(order, 64, 1)

	// Half the reply header, then the rest of the reply and half an event.
	require.NoError(t, s.Send(reply[:20]))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	_, err = c.WaitForEventContext(ctx)
	cancel()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, s.Send(reply[20:], event[:10]))
	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	_, err = c.WaitForEventContext(ctx)
	cancel()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	r, err := ck.Reply()
	require.NoError(t, err)
	assert.Equal(t, reply, r)

	require.NoError(t, s.Send(event[10:]))
	ev, xerr := c.WaitForEvent()
	require.Nil(t, xerr)
	assert.Equal(t, event, ev.(*xgb.UnknownEvent).Data)
	assert.NoError(t, c.Err())
}

func TestClose(t *testing.T) {
	c, _ := connect(t)

	ck := c.SendRequest(true, true, request(c, silentOpcode, 0))
	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Close()
	}()
	_, err := ck.Reply()
	assert.ErrorIs(t, err, xgb.ErrConnClosed)

	assert.ErrorIs(t, c.Err(), xgb.ErrConnClosed)
	_, err = c.SendRequest(true, true, getInputFocus(c)).Reply()
	assert.ErrorIs(t, err, xgb.ErrConnClosed)
	assert.ErrorIs(t, c.SendRequest(false, false, getInputFocus(c)).Check(), xgb.ErrConnClosed)
	assert.ErrorIs(t, c.Flush(), xgb.ErrConnClosed)

	ev, xerr := c.WaitForEvent()
	assert.Nil(t, ev)
	assert.Nil(t, xerr)
	_, err = c.WaitForEventContext(context.Background())
	assert.ErrorIs(t, err, xgb.ErrConnClosed)

	// Closing twice is harmless.
	assert.NoError(t, c.Close())
}

func TestCloseFlushFailure(t *testing.T) {
	c, s := connect(t)

	c.SendRequest(false, false, getInputFocus(c))
	require.NoError(t, s.Conn().WriteError())
	err := c.Close()
	assert.ErrorIs(t, err, xtest.ErrWrite)
	assert.ErrorIs(t, c.Err(), xgb.ErrConnClosed)
}

func TestServerEOF(t *testing.T) {
	c, s := connect(t)

	a := c.SendRequest(true, true, request(c, silentOpcode, 0))
	b := c.SendRequest(true, false, request(c, silentOpcode, 0))
	require.NoError(t, c.Flush())
	_, err := s.WaitRequests(2, waitTimeout)
	require.NoError(t, err)
	s.Close()

	_, err = a.Reply()
	assert.ErrorIs(t, err, xgb.ErrConnClosed)
	assert.ErrorIs(t, err, io.EOF)
	assert.ErrorIs(t, b.Check(), xgb.ErrConnClosed)
	assert.ErrorIs(t, c.Err(), io.EOF)
}

func TestWriteFailure(t *testing.T) {
	c, s := connect(t)

	require.NoError(t, s.Conn().WriteError())
	ck := c.SendRequest(true, true, getInputFocus(c))
	err := c.Flush()
	assert.ErrorIs(t, err, xgb.ErrConnClosed)
	assert.ErrorIs(t, err, xtest.ErrWrite)

	_, err = ck.Reply()
	assert.ErrorIs(t, err, xgb.ErrConnClosed)
}

func TestReadFailure(t *testing.T) {
	c, s := connect(t)

	ck := c.SendRequest(true, true, request(c, silentOpcode, 0))
	require.NoError(t, c.Flush())
	require.NoError(t, s.Conn().ReadError())

	_, err := ck.Reply()
	assert.ErrorIs(t, err, xgb.ErrConnClosed)
	assert.ErrorIs(t, err, xtest.ErrRead)
}

func TestBadFrame(t *testing.T) {
	c, s := connect(t)

	// A reply claiming a length far beyond any real message.
	frame := xtest.Reply(c.Order(), 1, 0, nil)
	c.Order().PutUint32(frame[4:], 0xffffffff)
	ck := c.SendRequest(true, true, request(c, silentOpcode, 0))
	require.NoError(t, s.Send(frame))

	_, err := ck.Reply()
	assert.ErrorIs(t, err, xgb.ErrConnClosed)
	assert.ErrorIs(t, err, xgb.ErrBadFrame)
}
