//go:build linux || darwin

package xgb

import (
	"net"

	"github.com/linuxkit/virtsock/pkg/vsock"
)

const vsockHost = vsock.CIDHost

// dialVsock connects over a VM socket. The returned connection does not
// support deadlines, so a context cannot interrupt a read on it.
func dialVsock(address string) (net.Conn, error) {
	cid, port, err := parseVsockAddr(address)
	if err != nil {
		return nil, err
	}
	return vsock.Dial(cid, port)
}
