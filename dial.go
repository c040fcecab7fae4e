package xgb

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Dial connects to an X server and performs the setup handshake.
//
// The network is "unix", "tcp", "tcp4", "tcp6" or "vsock". For "vsock" the
// address is "cid:port"; the cid may be "host" for the hypervisor's host.
// Turning a display name such as ":0" into a network and address is left
// to the caller.
func Dial(ctx context.Context, network, address string, opts ...Option) (*Conn, error) {
	var (
		conn net.Conn
		err  error
	)
	switch network {
	case "vsock":
		conn, err = dialVsock(address)
	default:
		var d net.Dialer
		conn, err = d.DialContext(ctx, network, address)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s %s", network, address)
	}

	opts = append([]Option{withEndpoint(network + ":" + address)}, opts...)
	return NewConnContext(ctx, conn, opts...)
}

func withEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

// parseVsockAddr splits "cid:port".
func parseVsockAddr(address string) (cid, port uint32, err error) {
	i := strings.LastIndexByte(address, ':')
	if i < 0 {
		return 0, 0, errors.Errorf("vsock address %q: missing port", address)
	}
	if c := address[:i]; c == "host" {
		cid = vsockHost
	} else {
		n, err := strconv.ParseUint(c, 10, 32)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "vsock address %q: cid", address)
		}
		cid = uint32(n)
	}
	n, err := strconv.ParseUint(address[i+1:], 10, 32)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "vsock address %q: port", address)
	}
	return cid, uint32(n), nil
}
