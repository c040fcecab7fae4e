//go:build !unix

package xgb

import (
	"syscall"
)

func setSocketBuffers(raw syscall.RawConn, snd, rcv int) error {
	return nil
}
