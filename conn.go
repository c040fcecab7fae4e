package xgb

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/xgbnet/xgb/wire"
)

// Protocol version requested in the setup request.
const (
	ProtocolMajorVersion = 11
	ProtocolMinorVersion = 0
)

type handshakeState int

const (
	stateDisconnected handshakeState = iota
	stateAwaitingReply
	stateAuthenticate
	stateRefused
	stateEstablished
)

func (s handshakeState) String() string {
	switch s {
	case stateDisconnected:
		return "disconnected"
	case stateAwaitingReply:
		return "awaiting setup reply"
	case stateAuthenticate:
		return "authenticate"
	case stateRefused:
		return "refused"
	case stateEstablished:
		return "established"
	}
	return "unknown"
}

// handshake sends the setup request and reads the server's answer,
// leaving c.Setup filled in on success. An Authenticate answer is handed
// to the configured Authenticator and the setup request is sent again with
// the credentials it returns.
func (c *Conn) handshake(ctx context.Context, cfg *config) (err error) {
	ctx, span := c.tracer.Start(ctx, "xgb.Handshake")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer func() {
		if !stop() {
			<-fired
			c.conn.SetDeadline(time.Time{})
		}
		if err != nil && ctx.Err() != nil {
			err = errors.Wrap(ctx.Err(), "setup")
		}
	}()

	name, data := cfg.authName, cfg.authData
	state := stateDisconnected
	for {
		if err := c.writeSetupRequest(name, data); err != nil {
			return errors.Wrap(err, "write setup request")
		}
		state = stateAwaitingReply
		c.log.Debugf("handshake %s (auth %q)", state, name)

		status, major, minor, body, err := c.readSetupReply()
		if err != nil {
			return err
		}
		switch status {
		case setupSuccess:
			d := wire.NewDecoder(c.order, body)
			info, err := decodeSetup(d, major, minor)
			if err != nil {
				return err
			}
			c.Setup = *info
			state = stateEstablished
			span.SetAttributes(
				attribute.String("x11.vendor", info.Vendor),
				attribute.Int("x11.release", int(info.ReleaseNumber)),
				attribute.Int("x11.screens", len(info.Roots)),
			)
			c.log.WithField("vendor", info.Vendor).
				WithField("release", info.ReleaseNumber).
				WithField("screens", len(info.Roots)).
				Infof("handshake %s", state)
			return nil

		case setupFailed:
			state = stateRefused
			c.log.Debugf("handshake %s", state)
			return &SetupRefusedError{
				Reason:       reasonString(body),
				MajorVersion: major,
				MinorVersion: minor,
			}

		case setupAuthenticate:
			state = stateAuthenticate
			reason := reasonString(body)
			c.log.Debugf("handshake %s: %s", state, reason)
			if cfg.authenticate == nil {
				return &SetupAuthenticateError{Reason: reason}
			}
			name, data, err = cfg.authenticate(reason)
			if err != nil {
				return errors.Wrapf(err, "authenticate (%s)", reason)
			}

		default:
			return errors.Wrapf(ErrBadFrame, "setup reply status %d", status)
		}
	}
}

func (c *Conn) writeSetupRequest(name string, data []byte) error {
	e := wire.NewEncoderSize(c.order, 12+wire.Pad(len(name))+wire.Pad(len(data)))
	e.Put8(wire.OrderMarker(c.order))
	e.Skip(1)
	e.Put16(ProtocolMajorVersion)
	e.Put16(ProtocolMinorVersion)
	e.Put16(uint16(len(name)))
	e.Put16(uint16(len(data)))
	e.Skip(2)
	e.PutString(name)
	e.Align()
	e.PutBytes(data)
	e.Align()

	if _, err := c.w.Write(e.Bytes()); err != nil {
		return err
	}
	return c.w.Flush()
}

// readSetupReply reads one setup reply. For Failed replies, body holds
// just the reason. For Authenticate replies, body is the padded reason.
func (c *Conn) readSetupReply() (status byte, major, minor uint16, body []byte, err error) {
	var hdr [8]byte
	if _, err = io.ReadFull(c.br, hdr[:]); err != nil {
		return 0, 0, 0, nil, errors.Wrap(err, "read setup reply")
	}
	d := wire.NewDecoder(c.order, hdr[:])
	status = d.Get8()
	reasonLen := int(d.Get8())
	major = d.Get16()
	minor = d.Get16()
	extra := int(d.Get16()) * 4

	body = make([]byte, extra)
	if _, err = io.ReadFull(c.br, body); err != nil {
		return 0, 0, 0, nil, errors.Wrap(err, "read setup reply")
	}
	if status == setupFailed {
		if reasonLen > len(body) {
			return 0, 0, 0, nil, errors.Wrap(ErrTruncated, "setup reason")
		}
		body = body[:reasonLen]
	}
	return status, major, minor, body, nil
}

func reasonString(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}
