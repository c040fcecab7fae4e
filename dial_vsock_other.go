//go:build !linux && !darwin

package xgb

import (
	"net"

	"github.com/pkg/errors"
)

const vsockHost = 2

func dialVsock(address string) (net.Conn, error) {
	if _, _, err := parseVsockAddr(address); err != nil {
		return nil, err
	}
	return nil, errors.New("vsock is not supported on this platform")
}
