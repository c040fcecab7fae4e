// Package xcmisc is the X client API for the XC-MISC extension, which lets
// a client ask the server for resource ids it can reuse once its own
// range runs out.
package xcmisc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/wire"
)

const (
	MajorVersion = 1
	MinorVersion = 1
)

const ExtName = "XC-MISC"

// ErrNotPresent is returned by Init when the server does not offer the
// extension.
var ErrNotPresent = errors.New("xcmisc: no extension named XC-MISC on the server")

// Minor opcodes.
const (
	GetVersionOpcode  = 0
	GetXIDRangeOpcode = 1
	GetXIDListOpcode  = 2
)

// schema binds XC-MISC to connections that resolve it. The extension
// defines no events or errors.
type schema struct{}

func (schema) Name() string                                 { return ExtName }
func (schema) NewEvent(rel byte, d *wire.Decoder) xgb.Event { return nil }
func (schema) NewError(rel byte, d *wire.Decoder) xgb.Error { return nil }

func init() {
	xgb.RegisterSchema(schema{})
}

// Init must be called before using the XC-MISC extension.
func Init(c *xgb.Conn) error {
	return InitContext(context.Background(), c)
}

func InitContext(ctx context.Context, c *xgb.Conn) error {
	info, err := c.ResolveExtension(ctx, ExtName)
	if err != nil {
		return err
	}
	if !info.Present {
		return ErrNotPresent
	}
	return nil
}

// request starts an XC-MISC request, or returns a failed cookie when the
// extension has not been initialized.
func request(c *xgb.Conn, minor byte) (*wire.Encoder, *xgb.Cookie) {
	major, err := c.ExtensionOpcode(ExtName)
	if err != nil {
		return nil, c.NewFailedCookie(true, true, err)
	}
	e := c.NewEncoder()
	e.Request(major, minor)
	return e, nil
}

// GetVersionCookie is a cookie used only for GetVersion requests.
type GetVersionCookie struct {
	*xgb.Cookie
}

// GetVersion sends a checked request.
// If an error occurs, it will be returned with the reply by calling GetVersionCookie.Reply()
func GetVersion(c *xgb.Conn, clientMajorVersion, clientMinorVersion uint16) GetVersionCookie {
	e, failed := request(c, GetVersionOpcode)
	if failed != nil {
		return GetVersionCookie{failed}
	}
	e.Put16(clientMajorVersion)
	e.Put16(clientMinorVersion)
	return GetVersionCookie{c.SendRequest(true, true, e.EndRequest())}
}

// GetVersionReply represents the data returned from a GetVersion request.
type GetVersionReply struct {
	Sequence           uint16 // sequence number of the request for this reply
	Length             uint32 // number of bytes in this reply
	ServerMajorVersion uint16
	ServerMinorVersion uint16
}

// Reply blocks and returns the reply data for a GetVersion request.
func (cook GetVersionCookie) Reply() (*GetVersionReply, error) {
	return cook.ReplyContext(context.Background())
}

func (cook GetVersionCookie) ReplyContext(ctx context.Context) (*GetVersionReply, error) {
	buf, err := cook.Cookie.ReplyContext(ctx)
	if err != nil {
		return nil, err
	}
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(GetVersionReply)
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Length = d.Get32() * 4
	v.ServerMajorVersion = d.Get16()
	v.ServerMinorVersion = d.Get16()
	return v, d.Err()
}

// GetXIDRangeCookie is a cookie used only for GetXIDRange requests.
type GetXIDRangeCookie struct {
	*xgb.Cookie
}

// GetXIDRange asks for a contiguous range of unused resource ids.
func GetXIDRange(c *xgb.Conn) GetXIDRangeCookie {
	e, failed := request(c, GetXIDRangeOpcode)
	if failed != nil {
		return GetXIDRangeCookie{failed}
	}
	return GetXIDRangeCookie{c.SendRequest(true, true, e.EndRequest())}
}

// GetXIDRangeReply represents the data returned from a GetXIDRange request.
type GetXIDRangeReply struct {
	Sequence uint16 // sequence number of the request for this reply
	Length   uint32 // number of bytes in this reply
	StartId  uint32
	Count    uint32
}

// Reply blocks and returns the reply data for a GetXIDRange request.
func (cook GetXIDRangeCookie) Reply() (*GetXIDRangeReply, error) {
	return cook.ReplyContext(context.Background())
}

func (cook GetXIDRangeCookie) ReplyContext(ctx context.Context) (*GetXIDRangeReply, error) {
	buf, err := cook.Cookie.ReplyContext(ctx)
	if err != nil {
		return nil, err
	}
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(GetXIDRangeReply)
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Length = d.Get32() * 4
	v.StartId = d.Get32()
	v.Count = d.Get32()
	return v, d.Err()
}

// GetXIDListCookie is a cookie used only for GetXIDList requests.
type GetXIDListCookie struct {
	*xgb.Cookie
}

// GetXIDList asks for up to count unused resource ids.
func GetXIDList(c *xgb.Conn, count uint32) GetXIDListCookie {
	e, failed := request(c, GetXIDListOpcode)
	if failed != nil {
		return GetXIDListCookie{failed}
	}
	e.Put32(count)
	return GetXIDListCookie{c.SendRequest(true, true, e.EndRequest())}
}

// GetXIDListReply represents the data returned from a GetXIDList request.
type GetXIDListReply struct {
	Sequence uint16 // sequence number of the request for this reply
	Length   uint32 // number of bytes in this reply
	IdsLen   uint32
	Ids      []uint32
}

// Reply blocks and returns the reply data for a GetXIDList request.
func (cook GetXIDListCookie) Reply() (*GetXIDListReply, error) {
	return cook.ReplyContext(context.Background())
}

func (cook GetXIDListCookie) ReplyContext(ctx context.Context) (*GetXIDListReply, error) {
	buf, err := cook.Cookie.ReplyContext(ctx)
	if err != nil {
		return nil, err
	}
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(GetXIDListReply)
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Length = d.Get32() * 4
	v.IdsLen = d.Get32()
	d.Skip(20)
	v.Ids = d.GetUint32List(int(v.IdsLen))
	return v, d.Err()
}
