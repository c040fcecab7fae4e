package xgb_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/internal/xtest"
	"github.com/xgbnet/xgb/wire"
)

const testExtension = "XGB-TEST"

type testEvent struct {
	Sequence uint16
	Value    uint32
}

func (e *testEvent) SequenceId() uint16 { return e.Sequence }
func (e *testEvent) String() string     { return fmt.Sprintf("testEvent {Value: %d}", e.Value) }

type testGenericEvent struct {
	EventType uint16
	Payload   []byte
}

func (e *testGenericEvent) SequenceId() uint16 { return 0 }
func (e *testGenericEvent) String() string     { return "testGenericEvent" }

type testError struct {
	xgb.ErrorHeader
}

func (e *testError) Error() string { return e.Describe("BadTest") }

// testSchema knows one event, one error and GenericEvents of type 7.
type testSchema struct{}

func (testSchema) Name() string { return testExtension }

func (testSchema) NewEvent(rel byte, d *wire.Decoder) xgb.Event {
	if rel != 0 {
		return nil
	}
	ev := new(testEvent)
	d.Skip(2)
	ev.Sequence = d.Get16()
	ev.Value = d.Get32()
	return ev
}

func (testSchema) NewError(rel byte, d *wire.Decoder) xgb.Error {
	if rel != 0 {
		return nil
	}
	return &testError{xgb.DecodeErrorHeader(d)}
}

func (testSchema) NewGenericEvent(evtype uint16, d *wire.Decoder) xgb.Event {
	if evtype != 7 {
		return nil
	}
	d.Skip(8)
	ev := &testGenericEvent{EventType: d.Get16()}
	ev.Payload = d.GetBytes(d.Remaining())
	return ev
}

func init() {
	xgb.RegisterSchema(testSchema{})
}

func TestResolveAbsentExtension(t *testing.T) {
	c, s := connect(t)
	ctx := context.Background()

	info, err := c.ResolveExtension(ctx, "BIG-REQUESTS")
	require.NoError(t, err)
	assert.Equal(t, xgb.ExtensionInfo{Name: "BIG-REQUESTS"}, info)

	info, err = c.ResolveExtension(ctx, "BIG-REQUESTS")
	require.NoError(t, err)
	assert.False(t, info.Present)
	assert.Len(t, s.Requests(), 1, "absent answer not cached")

	_, err = c.ExtensionOpcode("BIG-REQUESTS")
	assert.ErrorIs(t, err, xgb.ErrExtensionNotInitialized)
}

func TestResolveExtensionNameTooLong(t *testing.T) {
	c, s := connect(t)

	_, err := c.ResolveExtension(context.Background(), strings.Repeat("X", 0x10000))
	assert.ErrorIs(t, err, wire.ErrTooLong)
	assert.Empty(t, s.Requests())
}

func TestResolveExtension(t *testing.T) {
	c, s := xtest.Connect(t, []xtest.Option{xtest.WithExtension("FOO", 140, 90, 160)})
	ctx := context.Background()

	_, ok := c.Extension("FOO")
	assert.False(t, ok)
	_, err := c.ExtensionOpcode("FOO")
	assert.ErrorIs(t, err, xgb.ErrExtensionNotInitialized)

	info, err := c.ResolveExtension(ctx, "FOO")
	require.NoError(t, err)
	want := xgb.ExtensionInfo{Name: "FOO", Present: true, MajorOpcode: 140, FirstEvent: 90, FirstError: 160}
	assert.Equal(t, want, info)

	reqs := s.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, byte(98), reqs[0].Major)
	assert.Equal(t, uint32(3), reqs[0].Units)

	cached, ok := c.Extension("FOO")
	assert.True(t, ok)
	assert.Equal(t, want, cached)
	major, err := c.ExtensionOpcode("FOO")
	require.NoError(t, err)
	assert.Equal(t, byte(140), major)

	// Names are compared exactly.
	lower, err := c.ResolveExtension(ctx, "foo")
	require.NoError(t, err)
	assert.False(t, lower.Present)
	assert.Len(t, s.Requests(), 2)

	assert.Equal(t, map[string]xgb.ExtensionInfo{
		"FOO": want,
		"foo": {Name: "foo"},
	}, c.Extensions())
}

func TestResolveExtensionShared(t *testing.T) {
	c, s := xtest.Connect(t, []xtest.Option{xtest.WithExtension("FOO", 140, 0, 0)})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := c.ResolveExtension(context.Background(), "FOO")
			if assert.NoError(t, err) {
				assert.Equal(t, byte(140), info.MajorOpcode)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.Requests(), 1)
}

func TestResolveExtensionContext(t *testing.T) {
	c, s := xtest.Connect(t, []xtest.Option{
		xtest.WithExtension("FOO", 140, 0, 0),
		xtest.WithHandler(func(s *xtest.Server, r xtest.Request) []byte {
			// The answer is held back until the test sends it.
			return []byte{}
		}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ResolveExtension(ctx, "FOO")
	assert.ErrorIs(t, err, context.Canceled)

	// The query started for the first caller still completes and is
	// cached for the next.
	_, err = s.WaitRequests(1, waitTimeout)
	require.NoError(t, err)
	require.NoError(t, s.Send(xtest.Reply(c.Order(), 1, 0, []byte{1, 140, 0, 0})))

	info, err := c.ResolveExtension(context.Background(), "FOO")
	require.NoError(t, err)
	assert.True(t, info.Present)
	assert.Len(t, s.Requests(), 1)
}

func TestExtensionSchema(t *testing.T) {
	c, s := xtest.Connect(t, []xtest.Option{xtest.WithExtension(testExtension, 150, 100, 200)})
	order := c.Order()

	// Before the extension is resolved its codes mean nothing.
	require.NoError(t, s.Send(xtest.RawEvent(order, 100, 0)))
	ev, xerr := c.WaitForEvent()
	require.Nil(t, xerr)
	assert.IsType(t, &xgb.UnknownEvent{}, ev)

	_, err := c.ResolveExtension(context.Background(), testExtension)
	require.NoError(t, err)

	frame := xtest.RawEvent(order, 100, 1)
	order.PutUint32(frame[4:], 42)
	require.NoError(t, s.Send(frame, xtest.RawEvent(order, 101, 1)))

	ev, xerr = c.WaitForEvent()
	require.Nil(t, xerr)
	require.IsType(t, &testEvent{}, ev)
	assert.Equal(t, uint32(42), ev.(*testEvent).Value)
	assert.Equal(t, uint16(1), ev.SequenceId())

	// Codes the schema does not know are still consumed whole.
	ev, xerr = c.WaitForEvent()
	require.Nil(t, xerr)
	assert.Equal(t, byte(101), ev.(*xgb.UnknownEvent).Code)

	require.NoError(t, s.Send(xtest.Error(order, 200, 1, 5, 3, 150)))
	ev, xerr = c.WaitForEvent()
	assert.Nil(t, ev)
	require.IsType(t, &testError{}, xerr)
	assert.Equal(t, uint16(3), xerr.MinorOpcode())
	assert.Equal(t, byte(150), xerr.MajorOpcode())
	assert.Equal(t, "BadTest {Sequence: 1, BadValue: 5, MinorOpcode: 3, MajorOpcode: 150}", xerr.Error())

	require.NoError(t, s.Send(xtest.Error(order, 201, 1, 5, 3, 150)))
	_, xerr = c.WaitForEvent()
	assert.IsType(t, &xgb.UnknownError{}, xerr)
}

func TestGenericEvent(t *testing.T) {
	c, s := xtest.Connect(t, []xtest.Option{xtest.WithExtension(testExtension, 150, 100, 200)})
	order := c.Order()
	_, err := c.ResolveExtension(context.Background(), testExtension)
	require.NoError(t, err)

	payload := make([]byte, 40)
	for i := range payload {
		payload[i] = byte(i + 1)
	}
	require.NoError(t, s.Send(
		xtest.GenericEvent(order, 150, 1, 7, payload),
		xtest.GenericEvent(order, 150, 1, 8, payload),
		xtest.GenericEvent(order, 99, 1, 7, nil),
		xtest.RawEvent(order, 64, 1),
	))

	ev, xerr := c.WaitForEvent()
	require.Nil(t, xerr)
	require.IsType(t, &testGenericEvent{}, ev)
	gev := ev.(*testGenericEvent)
	assert.Equal(t, uint16(7), gev.EventType)
	// The 10-byte header and payload pad out to 52 bytes.
	assert.Equal(t, payload, gev.Payload[:40])
	assert.Len(t, gev.Payload, 42)

	ev, xerr = c.WaitForEvent()
	require.Nil(t, xerr)
	require.IsType(t, &xgb.GenericEvent{}, ev)
	assert.Equal(t, uint16(8), ev.(*xgb.GenericEvent).EventType)
	assert.Len(t, ev.(*xgb.GenericEvent).Data, 52)

	ev, xerr = c.WaitForEvent()
	require.Nil(t, xerr)
	assert.Equal(t, byte(99), ev.(*xgb.GenericEvent).Extension)
	assert.Len(t, ev.(*xgb.GenericEvent).Data, 32)

	// The stream stays aligned after the long frames.
	ev, xerr = c.WaitForEvent()
	require.Nil(t, xerr)
	assert.Equal(t, byte(64), ev.(*xgb.UnknownEvent).Code)
}
