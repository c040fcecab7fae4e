package xgb

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/xgbnet/xgb/wire"
)

var (
	// ErrConnClosed is matched (with errors.Is) by every error reported for a
	// connection that has been closed or poisoned by a transport failure.
	ErrConnClosed = errors.New("xgb: connection closed")

	// ErrBadFrame is the cause reported when the incoming stream can no
	// longer be split into messages.
	ErrBadFrame = errors.New("xgb: malformed frame")

	// ErrTruncated is the codec's truncation condition.
	ErrTruncated = wire.ErrTruncated

	ErrIdSpaceExhausted = errors.New("xgb: resource id space exhausted")
	ErrIdNotLive        = errors.New("xgb: resource id is not live")

	// ErrRequestTooLarge is returned for a request longer than the server
	// accepts. The request is not sent and consumes no sequence number.
	ErrRequestTooLarge = errors.New("xgb: request exceeds maximum request length")

	// ErrNoReply is returned by Reply on a cookie whose request has no reply.
	ErrNoReply = errors.New("xgb: request has no reply")

	// ErrAbandoned is reported by a cookie whose caller stopped waiting.
	ErrAbandoned = errors.New("xgb: request abandoned")

	// ErrExtensionNotInitialized is returned for an extension request issued
	// before the extension was resolved as present on the connection.
	ErrExtensionNotInitialized = errors.New("xgb: extension not initialized")
)

// ConnError is the terminal error of a connection. Every pending request
// and every later call fails with it.
type ConnError struct {
	Cause error
}

func (e *ConnError) Error() string {
	if e.Cause == nil {
		return ErrConnClosed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConnClosed, e.Cause)
}

func (e *ConnError) Unwrap() error { return e.Cause }

func (e *ConnError) Is(target error) bool { return target == ErrConnClosed }

// SetupRefusedError is returned by NewConn when the server refuses the
// connection.
type SetupRefusedError struct {
	Reason       string
	MajorVersion uint16
	MinorVersion uint16
}

func (e *SetupRefusedError) Error() string {
	return fmt.Sprintf("xgb: connection refused by server (protocol %d.%d): %s",
		e.MajorVersion, e.MinorVersion, e.Reason)
}

// SetupAuthenticateError is returned by NewConn when the server asks for
// further authentication and no Authenticator was configured, or the
// Authenticator gave up.
type SetupAuthenticateError struct {
	Reason string
}

func (e *SetupAuthenticateError) Error() string {
	return "xgb: server requires further authentication: " + e.Reason
}

// Error is an interface that can contain any of the errors returned by
// the server. Use a type assertion switch to extract the Error structs.
type Error interface {
	SequenceId() uint16
	BadId() uint32
	Code() byte
	MajorOpcode() byte
	MinorOpcode() uint16
	Error() string
}

// ErrorHeader holds the fields shared by every protocol error. Error types
// embed it and add a name.
type ErrorHeader struct {
	ErrCode  byte
	Sequence uint16
	BadValue uint32
	Minor    uint16
	Major    byte
}

// DecodeErrorHeader reads the first 11 bytes of an error frame.
func DecodeErrorHeader(d *wire.Decoder) ErrorHeader {
	var h ErrorHeader
	d.Skip(1)
	h.ErrCode = d.Get8()
	h.Sequence = d.Get16()
	h.BadValue = d.Get32()
	h.Minor = d.Get16()
	h.Major = d.Get8()
	return h
}

func (h ErrorHeader) SequenceId() uint16  { return h.Sequence }
func (h ErrorHeader) BadId() uint32       { return h.BadValue }
func (h ErrorHeader) Code() byte          { return h.ErrCode }
func (h ErrorHeader) MajorOpcode() byte   { return h.Major }
func (h ErrorHeader) MinorOpcode() uint16 { return h.Minor }

// Describe formats an error for its Error method.
func (h ErrorHeader) Describe(name string) string {
	return fmt.Sprintf("%s {Sequence: %d, BadValue: %d, MinorOpcode: %d, MajorOpcode: %d}",
		name, h.Sequence, h.BadValue, h.Minor, h.Major)
}

// UnknownError is used for error codes no registered decoder claims.
type UnknownError struct {
	ErrorHeader
}

func (e *UnknownError) Error() string {
	return e.Describe(fmt.Sprintf("UnknownError(%d)", e.ErrCode))
}
