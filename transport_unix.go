//go:build unix

package xgb

import (
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func setSocketBuffers(raw syscall.RawConn, snd, rcv int) error {
	var serr error
	err := raw.Control(func(fd uintptr) {
		if snd > 0 {
			if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, snd); err != nil {
				serr = errors.Wrap(err, "set SO_SNDBUF")
				return
			}
		}
		if rcv > 0 {
			if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, rcv); err != nil {
				serr = errors.Wrap(err, "set SO_RCVBUF")
			}
		}
	})
	if err != nil {
		return errors.Wrap(err, "socket buffers")
	}
	return serr
}
