package xgb

import (
	"context"
)

// waitFor blocks until done is closed. While the reader role is free the
// caller takes it and reads the connection itself, so a single goroutine
// needs nothing else running to make progress.
func (c *Conn) waitFor(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	default:
	}
	// The server cannot answer what it has not received.
	if err := c.Flush(); err != nil {
		select {
		case <-done:
			return nil
		default:
			return err
		}
	}

	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case c.readToken <- struct{}{}:
		}

		// Whoever held the role before may have delivered ours.
		select {
		case <-done:
			<-c.readToken
			return nil
		default:
		}

		err := c.readOne(ctx)
		<-c.readToken
		switch {
		case err == errInterrupted:
			return ctx.Err()
		case err != nil:
			select {
			case <-done:
				return nil
			default:
				return err
			}
		}
	}
}

// readOne reads and dispatches a single frame. The caller must hold the
// reader role.
func (c *Conn) readOne(ctx context.Context) error {
	if err := c.Err(); err != nil {
		return err
	}
	buf, err := c.readInterruptible(ctx)
	if err == errInterrupted {
		return err
	}
	if err != nil {
		c.fail(err)
		return c.closedErr()
	}
	if sink := c.dispatch(buf); sink != nil {
		c.errorHandler(sink)
	}
	return nil
}

// Serve reads the connection and delivers replies, errors and events
// until ctx is done or the connection fails. While it runs it holds the
// reader role, so waiters are resumed by Serve rather than reading
// themselves; a program can then block in ReplyContext, CheckContext or
// WaitForEventContext from any number of goroutines, or select on
// Cookie.Done.
//
// Serve returns ctx.Err() when ctx is done, leaving the connection usable,
// or the connection's terminal error.
func (c *Conn) Serve(ctx context.Context) error {
	select {
	case c.readToken <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.readToken }()
	c.serving.Store(true)
	defer c.serving.Store(false)

	c.log.Debugf("serving")
	for {
		if err := c.Flush(); err != nil {
			return err
		}
		err := c.readOne(ctx)
		if err == errInterrupted {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
	}
}
