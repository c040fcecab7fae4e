package xgb_test

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/internal/xtest"
)

// listen accepts one connection on a loopback TCP port and completes the
// handshake on it.
func listen(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		setup := make([]byte, 12)
		if _, err := io.ReadFull(conn, setup); err != nil {
			return
		}
		if _, err := conn.Write(xtest.SetupSuccess(binary.LittleEndian, xtest.DefaultSetup())); err != nil {
			return
		}
		// Hold the connection until the client goes away.
		io.Copy(io.Discard, conn)
	}()
	return l.Addr().String()
}

func TestDialTCP(t *testing.T) {
	addr := listen(t)

	c, err := xgb.Dial(context.Background(), "tcp", addr, xgb.WithSocketBuffers(64*1024, 64*1024))
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "xgb test server", c.Setup.Vendor)
	assert.Equal(t, uint32(0x00400000), c.Setup.ResourceIdBase)
}

func TestDialErrors(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	_, err = xgb.Dial(context.Background(), "tcp", addr)
	assert.Error(t, err)

	_, err = xgb.Dial(context.Background(), "vsock", "not-an-address")
	assert.Error(t, err)
}
