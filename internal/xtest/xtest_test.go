package xtest

import (
	"encoding/binary"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgbnet/xgb/wire"
)

func loopback() *Conn {
	return NewConn("loopback", func(b []byte) []byte { return append([]byte(nil), b...) })
}

func TestLeaks(t *testing.T) {
	lm := MonitorLeaks("lm")
	assert.Len(t, lm.Leaking(), 0)

	done := make(chan struct{})
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		<-done
		wg.Done()
	}()
	assert.Len(t, lm.Leaking(), 1)

	wg.Add(1)
	go func() {
		<-done
		wg.Done()
	}()
	assert.Len(t, lm.Leaking(), 2)

	close(done)
	wg.Wait()
	lm.Check(t)
}

func TestConnLoopback(t *testing.T) {
	defer MonitorLeaks("loopback").Check(t)
	s := loopback()

	n, err := s.Write([]byte("reply"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	b := make([]byte, 5)
	_, err = io.ReadFull(s, b)
	require.NoError(t, err)
	assert.Equal(t, "reply", string(b))

	require.NoError(t, s.Close())
	assert.Equal(t, ErrClosed, s.Close())

	_, err = s.Write([]byte("x"))
	assert.Equal(t, ErrClosed, err)
	_, err = s.Read(b)
	assert.Equal(t, io.EOF, err)
}

func TestConnErrors(t *testing.T) {
	defer MonitorLeaks("errors").Check(t)
	s := loopback()
	defer s.Close()

	require.NoError(t, s.WriteError())
	_, err := s.Write([]byte("x"))
	assert.Equal(t, ErrWrite, err)
	require.NoError(t, s.WriteSuccess())

	_, err = s.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, s.ReadError())
	_, err = s.Read(make([]byte, 1))
	assert.Equal(t, ErrRead, err)
	require.NoError(t, s.ReadSuccess())
	_, err = s.Read(make([]byte, 1))
	assert.NoError(t, err)
}

func TestConnBlockedReadError(t *testing.T) {
	defer MonitorLeaks("blockedread").Check(t)
	s := loopback()
	defer s.Close()

	errs := make(chan error, 1)
	go func() {
		_, err := s.Read(make([]byte, 1))
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.ReadError())

	select {
	case err := <-errs:
		assert.Equal(t, ErrRead, err)
	case <-time.After(time.Second):
		t.Fatal("blocked Read did not fail")
	}
}

func TestConnReadLock(t *testing.T) {
	defer MonitorLeaks("readlock").Check(t)
	s := loopback()
	defer s.Close()

	require.NoError(t, s.ReadLock())
	_, err := s.Write([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
	_, err = s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)

	require.NoError(t, s.SetReadDeadline(time.Time{}))
	require.NoError(t, s.ReadUnlock())
	_, err = s.Read(make([]byte, 1))
	assert.NoError(t, err)
}

func TestConnDeadlineWakesReader(t *testing.T) {
	defer MonitorLeaks("deadline").Check(t)
	s := loopback()
	defer s.Close()

	res := make(chan error)
	go func() {
		_, err := s.Read(make([]byte, 1))
		res <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.SetReadDeadline(time.Unix(1, 0)))
	select {
	case err := <-res:
		assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("reader not woken by deadline")
	}
}

func TestConnInject(t *testing.T) {
	s := loopback()
	defer s.Close()

	require.NoError(t, s.Inject([]byte("event")))
	b := make([]byte, 5)
	_, err := io.ReadFull(s, b)
	require.NoError(t, err)
	assert.Equal(t, "event", string(b))
}

func TestFrames(t *testing.T) {
	order := binary.LittleEndian

	r := Reply(order, 7, 3, make([]byte, 40))
	assert.Len(t, r, 48)
	assert.Equal(t, byte(1), r[0])
	assert.Equal(t, byte(3), r[1])
	assert.Equal(t, uint16(7), order.Uint16(r[2:]))
	assert.Equal(t, uint32(4), order.Uint32(r[4:]))

	assert.Len(t, Reply(order, 1, 0, nil), 32)

	e := Error(order, 3, 9, 0xdead, 1, 8)
	assert.Len(t, e, 32)
	assert.Equal(t, []byte{0, 3, 9, 0}, e[:4])
	assert.Equal(t, uint32(0xdead), order.Uint32(e[4:]))
	assert.Equal(t, byte(8), e[10])

	g := GenericEvent(order, 131, 2, 5, make([]byte, 30))
	assert.Len(t, g, 40)
	assert.Equal(t, uint32(2), order.Uint32(g[4:]))
	assert.Equal(t, uint16(5), order.Uint16(g[8:]))
}

func TestSetupFrames(t *testing.T) {
	order := binary.BigEndian

	ok := SetupSuccess(order, DefaultSetup())
	assert.Equal(t, byte(1), ok[0])
	assert.Equal(t, len(ok)-8, int(order.Uint16(ok[6:]))*4)

	no := SetupRefused(order, "go away")
	assert.Equal(t, byte(0), no[0])
	assert.Equal(t, byte(7), no[1])
	assert.Equal(t, "go away", string(no[8:15]))

	auth := SetupAuthenticate(order, "more")
	assert.Equal(t, byte(2), auth[0])
	assert.Equal(t, uint16(1), order.Uint16(auth[6:]))
}

func setupRequest(order binary.ByteOrder, name string, data []byte) []byte {
	e := wire.NewEncoder(order)
	e.Put8(wire.OrderMarker(order))
	e.Skip(1)
	e.Put16(11)
	e.Put16(0)
	e.Put16(uint16(len(name)))
	e.Put16(uint16(len(data)))
	e.Skip(2)
	e.PutString(name)
	e.Align()
	e.PutBytes(data)
	e.Align()
	return e.Bytes()
}

func TestServerParsesStream(t *testing.T) {
	order := binary.BigEndian
	s := NewServer(WithExtension("RENDER", 139, 0, 0))
	defer s.Close()
	c := s.Conn()

	// Written in pieces, as a buffered writer might.
	setup := setupRequest(order, "MIT-MAGIC-COOKIE-1", []byte{1, 2, 3, 4})
	_, err := c.Write(setup[:5])
	require.NoError(t, err)
	_, err = c.Write(setup[5:])
	require.NoError(t, err)

	hdr := make([]byte, 8)
	_, err = io.ReadFull(c, hdr)
	require.NoError(t, err)
	assert.Equal(t, byte(1), hdr[0])
	_, err = io.ReadFull(c, make([]byte, int(order.Uint16(hdr[6:]))*4))
	require.NoError(t, err)

	name, data, attempts := s.Auth()
	assert.Equal(t, "MIT-MAGIC-COOKIE-1", name)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, order, s.Order())

	q := wire.NewEncoder(order)
	q.Request(queryExtensionOpcode, 0)
	q.Put16(6)
	q.Skip(2)
	q.PutString("RENDER")
	query := q.EndRequest()

	big := wire.NewEncoder(order)
	big.Put8(127)
	big.Put8(0)
	big.Put16(0)
	big.Put32(3)
	big.Put32(42)

	stream := append(append([]byte(nil), query...), big.Bytes()...)
	_, err = c.Write(stream)
	require.NoError(t, err)

	reqs, err := s.WaitRequests(2, time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), reqs[0].Seq)
	assert.Equal(t, byte(queryExtensionOpcode), reqs[0].Major)
	assert.False(t, reqs[0].Big)
	assert.Equal(t, uint16(2), reqs[1].Seq)
	assert.True(t, reqs[1].Big)
	assert.Equal(t, uint32(3), reqs[1].Units)
	assert.Equal(t, []byte{0, 0, 0, 42}, reqs[1].Body)

	reply := make([]byte, 32)
	_, err = io.ReadFull(c, reply)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), order.Uint16(reply[2:]))
	assert.Equal(t, []byte{1, 139, 0, 0}, reply[8:12])
}
