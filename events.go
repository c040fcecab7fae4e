package xgb

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/xgbnet/xgb/wire"
)

// Event is an interface that can contain any of the events returned by the
// server. Use a type assertion switch to extract the Event structs.
type Event interface {
	// SequenceId is the sequence number of the last request the server
	// processed before generating the event.
	SequenceId() uint16
	String() string
}

// NewEventFuncs is a map from event numbers to functions that create
// the corresponding event. Packages describing the core protocol add to
// it from init.
var NewEventFuncs = make(map[int]func(d *wire.Decoder) Event)

// NewErrorFuncs is a map from error numbers to functions that create
// the corresponding error.
var NewErrorFuncs = make(map[int]func(d *wire.Decoder) Error)

// UnknownEvent holds an event no registered decoder claims. Its Data is
// the whole 32-byte frame.
type UnknownEvent struct {
	Code      byte
	SendEvent bool
	Sequence  uint16
	Data      []byte
}

func newUnknownEvent(order binary.ByteOrder, buf []byte) *UnknownEvent {
	return &UnknownEvent{
		Code:      buf[0] & 0x7f,
		SendEvent: buf[0]&0x80 != 0,
		Sequence:  order.Uint16(buf[2:]),
		Data:      buf,
	}
}

func (e *UnknownEvent) SequenceId() uint16 { return e.Sequence }

func (e *UnknownEvent) String() string {
	return fmt.Sprintf("UnknownEvent {Code: %d, SendEvent: %v, Sequence: %d}",
		e.Code, e.SendEvent, e.Sequence)
}

// GenericEvent is an event of the GenericEvent kind (code 35) sent by an
// extension. Data holds the whole frame, which may be longer than 32
// bytes.
type GenericEvent struct {
	Extension byte
	Sequence  uint16
	EventType uint16
	Data      []byte
}

func (e *GenericEvent) SequenceId() uint16 { return e.Sequence }

func (e *GenericEvent) String() string {
	return fmt.Sprintf("GenericEvent {Extension: %d, EventType: %d, Sequence: %d, Length: %d}",
		e.Extension, e.EventType, e.Sequence, len(e.Data))
}

// eventItem is an event or an unclaimed server error, in arrival order.
type eventItem struct {
	ev  Event
	err Error
}

// A simple queue used to stow away events.
type queue struct {
	data []eventItem
	a, b int
}

func (q *queue) queue(item eventItem) {
	if q.b == len(q.data) {
		if q.a > 0 {
			copy(q.data, q.data[q.a:q.b])
			for i := q.b - q.a; i < q.b; i++ {
				q.data[i] = eventItem{}
			}
			q.a, q.b = 0, q.b-q.a
		} else {
			newData := make([]eventItem, (len(q.data)*3)/2+1)
			copy(newData, q.data)
			q.data = newData
		}
	}
	q.data[q.b] = item
	q.b++
}

func (q *queue) dequeue() (eventItem, bool) {
	if q.a < q.b {
		item := q.data[q.a]
		q.data[q.a] = eventItem{}
		q.a++
		return item, true
	}
	return eventItem{}, false
}

func (q *queue) len() int { return q.b - q.a }

// enqueue appends to the event queue and wakes event waiters. c.mu must be
// held.
func (c *Conn) enqueue(item eventItem) {
	c.events.queue(item)
	c.wake()
}

// wake releases everyone waiting on the current event signal. c.mu must be
// held.
func (c *Conn) wake() {
	close(c.eventSignal)
	c.eventSignal = make(chan struct{})
}

// WaitForEvent returns the next event from the server.
// It will block until an event is available.
//
// An error the server reported for a request without a reply is returned
// in the Error slot, in the order it arrived, unless an error handler was
// installed with WithErrorHandler. Both values are nil when the
// connection has been closed.
func (c *Conn) WaitForEvent() (Event, Error) {
	ev, err := c.WaitForEventContext(context.Background())
	if xerr, ok := err.(Error); ok {
		return nil, xerr
	}
	return ev, nil
}

// WaitForEventContext is like WaitForEvent, but gives up when ctx is done.
// The returned error is a server Error, ctx.Err(), or an error matching
// ErrConnClosed.
func (c *Conn) WaitForEventContext(ctx context.Context) (Event, error) {
	for {
		c.mu.Lock()
		item, ok := c.events.dequeue()
		failed := c.err
		signal := c.eventSignal
		c.mu.Unlock()

		if ok {
			if item.err != nil {
				return nil, item.err
			}
			return item.ev, nil
		}
		if failed != nil {
			return nil, failed
		}

		// Requests whose answers generate events must reach the server.
		if err := c.Flush(); err != nil {
			return nil, err
		}

		select {
		case <-signal:
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		case c.readToken <- struct{}{}:
		}

		c.mu.Lock()
		ready := c.events.len() > 0 || c.err != nil
		c.mu.Unlock()
		if ready {
			<-c.readToken
			continue
		}

		err := c.readOne(ctx)
		<-c.readToken
		if err == errInterrupted {
			return nil, ctx.Err()
		}
		if err != nil {
			return nil, err
		}
	}
}

// PollForEvent returns the next event from the server if one is available
// in the internal queue. It will not read from the connection, so you must
// call WaitForEvent, wait on a cookie, or run Serve to receive new events.
// Only use this function to empty the queue without blocking.
func (c *Conn) PollForEvent() (Event, Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.events.dequeue()
	if !ok {
		return nil, nil
	}
	return item.ev, item.err
}
