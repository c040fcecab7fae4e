package xgb_test

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/internal/xtest"
)

// Opcodes the scripted server leaves unanswered unless a test's handler
// says otherwise.
const (
	silentOpcode = 200
	echoOpcode   = 201
	failOpcode   = 202
)

const waitTimeout = 5 * time.Second

func request(c *xgb.Conn, major, data byte) []byte {
	e := c.NewEncoder()
	e.Request(major, data)
	return e.EndRequest()
}

func getInputFocus(c *xgb.Conn) []byte {
	return request(c, 43, 0)
}

// handler answers echoOpcode with a reply carrying the request's data
// byte, and failOpcode with a BadDrawable error naming 0x1234.
func handler(s *xtest.Server, r xtest.Request) []byte {
	switch r.Major {
	case echoOpcode:
		return xtest.Reply(s.Order(), r.Seq, r.Data, nil)
	case failOpcode:
		return xtest.Error(s.Order(), 9, r.Seq, 0x1234, 0, failOpcode)
	}
	return nil
}

func connect(t *testing.T, copts ...xgb.Option) (*xgb.Conn, *xtest.Server) {
	return xtest.Connect(t, []xtest.Option{xtest.WithHandler(handler)}, copts...)
}

func TestConnLifecycle(t *testing.T) {
	defer xtest.MonitorLeaks("TestConnLifecycle").Check(t)

	s := xtest.NewServer(xtest.WithHandler(handler))
	c, err := xgb.NewConn(s.Conn())
	require.NoError(t, err)

	r, err := c.SendRequest(true, true, request(c, echoOpcode, 7)).Reply()
	require.NoError(t, err)
	assert.Equal(t, byte(7), r[1])

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Err(), xgb.ErrConnClosed)
	assert.ErrorIs(t, s.Close(), xtest.ErrClosed)
}

func TestHandshake(t *testing.T) {
	cookie := []byte("0123456789abcdef")
	c, s := xtest.Connect(t, nil, xgb.WithAuth("MIT-MAGIC-COOKIE-1", cookie))

	name, data, attempts := s.Auth()
	assert.Equal(t, "MIT-MAGIC-COOKIE-1", name)
	assert.Equal(t, cookie, data)
	assert.Equal(t, 1, attempts)

	assert.Equal(t, binary.LittleEndian, c.Order())
	assert.Equal(t, *xtest.DefaultSetup(), c.Setup)

	screen := c.DefaultScreen()
	require.NotNil(t, screen)
	assert.Equal(t, uint32(0x1e7), screen.Root)
	assert.Equal(t, uint16(1024), screen.WidthInPixels)

	c.SetDefaultScreen(1)
	assert.Nil(t, c.DefaultScreen())
	c.SetDefaultScreen(0)

	id, err := c.NewId()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00400000), id)
}

func TestDefaultScreenConcurrent(t *testing.T) {
	c, _ := connect(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.SetDefaultScreen(n % 2)
		}(i)
		go func() {
			defer wg.Done()
			if screen := c.DefaultScreen(); screen != nil {
				assert.Equal(t, uint32(0x1e7), screen.Root)
			}
		}()
	}
	wg.Wait()

	c.SetDefaultScreen(-1)
	assert.Nil(t, c.DefaultScreen())
}

func TestHandshakeBigEndian(t *testing.T) {
	c, s := xtest.Connect(t, nil, xgb.WithByteOrder(binary.BigEndian))

	assert.Equal(t, binary.BigEndian, c.Order())
	assert.Equal(t, binary.BigEndian, s.Order())
	assert.Equal(t, "xgb test server", c.Setup.Vendor)

	r, err := c.SendRequest(true, true, getInputFocus(c)).Reply()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1e7), binary.BigEndian.Uint32(r[8:]))
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(r[2:]))
}

func TestHandshakeRefused(t *testing.T) {
	s := xtest.NewServer(xtest.WithHandshake(
		func(order binary.ByteOrder, _ int, _ string, _ []byte) []byte {
			return xtest.SetupRefused(order, "No protocol specified")
		}))

	_, err := xgb.NewConn(s.Conn())
	var refused *xgb.SetupRefusedError
	require.ErrorAs(t, err, &refused)
	assert.Equal(t, "No protocol specified", refused.Reason)
	assert.Equal(t, uint16(xgb.ProtocolMajorVersion), refused.MajorVersion)

	// The failed connection is closed.
	assert.ErrorIs(t, s.Close(), xtest.ErrClosed)
}

func authenticateOnce(order binary.ByteOrder, _ int, name string, _ []byte) []byte {
	if name == "XDM-AUTHORIZATION-1" {
		return xtest.SetupSuccess(order, xtest.DefaultSetup())
	}
	return xtest.SetupAuthenticate(order, "need xdm")
}

func TestHandshakeAuthenticate(t *testing.T) {
	var reasons []string
	auth := func(reason string) (string, []byte, error) {
		reasons = append(reasons, reason)
		return "XDM-AUTHORIZATION-1", []byte{1, 2, 3}, nil
	}
	c, s := xtest.Connect(t, []xtest.Option{xtest.WithHandshake(authenticateOnce)},
		xgb.WithAuthenticator(auth))

	assert.Equal(t, []string{"need xdm"}, reasons)
	name, data, attempts := s.Auth()
	assert.Equal(t, "XDM-AUTHORIZATION-1", name)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "xgb test server", c.Setup.Vendor)
}

func TestHandshakeAuthenticateWithoutAuthenticator(t *testing.T) {
	s := xtest.NewServer(xtest.WithHandshake(authenticateOnce))

	_, err := xgb.NewConn(s.Conn())
	var authErr *xgb.SetupAuthenticateError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "need xdm", authErr.Reason)
}

func TestHandshakeAuthenticatorFails(t *testing.T) {
	errNoCredentials := errors.New("no credentials")
	s := xtest.NewServer(xtest.WithHandshake(authenticateOnce))

	_, err := xgb.NewConn(s.Conn(), xgb.WithAuthenticator(func(string) (string, []byte, error) {
		return "", nil, errNoCredentials
	}))
	assert.ErrorIs(t, err, errNoCredentials)
}

func TestHandshakeTimeout(t *testing.T) {
	defer xtest.MonitorLeaks("TestHandshakeTimeout").Check(t)

	s := xtest.NewServer(xtest.WithHandshake(
		func(binary.ByteOrder, int, string, []byte) []byte { return []byte{} }))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := xgb.NewConnContext(ctx, s.Conn())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, s.Close(), xtest.ErrClosed)
}

func TestHandshakeServerGone(t *testing.T) {
	s := xtest.NewServer(xtest.WithHandshake(
		func(order binary.ByteOrder, _ int, _ string, _ []byte) []byte {
			// Half a setup reply.
			return xtest.SetupSuccess(order, xtest.DefaultSetup())[:20]
		}))

	errc := make(chan error, 1)
	go func() {
		_, err := xgb.NewConn(s.Conn())
		errc <- err
	}()
	require.Eventually(t, func() bool {
		_, _, attempts := s.Auth()
		return attempts == 1
	}, waitTimeout, time.Millisecond)
	s.Close()

	select {
	case err := <-errc:
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF), "%v", err)
	case <-time.After(waitTimeout):
		t.Fatal("NewConn did not return after the server closed")
	}
}
