// Package bigreq is the X client API for the BIG-REQUESTS extension.
//
// Once Init succeeds the connection sends requests longer than 0xFFFF
// units in the extended-length form, up to the maximum the server
// announced.
package bigreq

import (
	"context"

	"github.com/pkg/errors"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/wire"
)

const (
	MajorVersion = 0
	MinorVersion = 0
)

const ExtName = "BIG-REQUESTS"

// ErrNotPresent is returned by Init when the server does not offer the
// extension.
var ErrNotPresent = errors.New("bigreq: no extension named BIG-REQUESTS on the server")

// Init must be called before using the BIG-REQUESTS extension.
func Init(c *xgb.Conn) error {
	return InitContext(context.Background(), c)
}

// InitContext resolves the extension, enables it and raises the
// connection's request length limit to what the server allows.
func InitContext(ctx context.Context, c *xgb.Conn) error {
	info, err := c.ResolveExtension(ctx, ExtName)
	if err != nil {
		return err
	}
	if !info.Present {
		return ErrNotPresent
	}

	reply, err := Enable(c).ReplyContext(ctx)
	if err != nil {
		return errors.Wrap(err, "bigreq: enable")
	}
	c.EnableBigRequests(reply.MaximumRequestLength)
	return nil
}

// EnableCookie is a cookie used only for Enable requests.
type EnableCookie struct {
	*xgb.Cookie
}

// Enable sends a checked request.
// If an error occurs, it will be returned with the reply by calling EnableCookie.Reply()
func Enable(c *xgb.Conn) EnableCookie {
	buf, err := enableRequest(c)
	if err != nil {
		return EnableCookie{c.NewFailedCookie(true, true, err)}
	}
	return EnableCookie{c.SendRequest(true, true, buf)}
}

// EnableReply represents the data returned from a Enable request.
type EnableReply struct {
	Sequence             uint16 // sequence number of the request for this reply
	Length               uint32 // number of bytes in this reply
	MaximumRequestLength uint32
}

// Reply blocks and returns the reply data for a Enable request.
func (cook EnableCookie) Reply() (*EnableReply, error) {
	return cook.ReplyContext(context.Background())
}

func (cook EnableCookie) ReplyContext(ctx context.Context) (*EnableReply, error) {
	buf, err := cook.Cookie.ReplyContext(ctx)
	if err != nil {
		return nil, err
	}
	return enableReply(cook.Cookie, buf)
}

// enableReply reads a byte slice into a EnableReply value.
func enableReply(cook *xgb.Cookie, buf []byte) (*EnableReply, error) {
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(EnableReply)
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Length = d.Get32() * 4
	v.MaximumRequestLength = d.Get32()
	return v, d.Err()
}

// Write request to wire for Enable
// enableRequest writes a Enable request to a byte slice.
func enableRequest(c *xgb.Conn) ([]byte, error) {
	major, err := c.ExtensionOpcode(ExtName)
	if err != nil {
		return nil, err
	}
	e := c.NewEncoder()
	e.Request(major, 0)
	return e.EndRequest(), nil
}
