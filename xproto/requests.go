package xproto

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/wire"
)

// Core request opcodes.
const (
	CreateWindowOpcode           = 1
	ChangeWindowAttributesOpcode = 2
	DestroyWindowOpcode          = 4
	MapWindowOpcode              = 8
	UnmapWindowOpcode            = 10
	GetGeometryOpcode            = 14
	InternAtomOpcode             = 16
	GetAtomNameOpcode            = 17
	ChangePropertyOpcode         = 18
	GetPropertyOpcode            = 20
	SendEventOpcode              = 25
	GetInputFocusOpcode          = 43
	CreatePixmapOpcode           = 53
	FreePixmapOpcode             = 54
	CreateGCOpcode               = 55
	FreeGCOpcode                 = 60
	ListExtensionsOpcode         = 99
	NoOperationOpcode            = 127
)

// VoidCookie is returned by requests without a reply.
type VoidCookie struct {
	*xgb.Cookie
}

func sendVoid(c *xgb.Conn, checked bool, buf []byte) VoidCookie {
	cookie := c.NewCookie(checked, false)
	c.NewRequest(buf, cookie)
	return VoidCookie{cookie}
}

func sendReply(c *xgb.Conn, buf []byte) *xgb.Cookie {
	cookie := c.NewCookie(true, true)
	c.NewRequest(buf, cookie)
	return cookie
}

// Request CreateWindow
func CreateWindow(c *xgb.Conn, depth byte, wid, parent Window, x, y int16, width, height, borderWidth uint16, class uint16, visual Visualid, valueMask uint32, valueList []uint32) VoidCookie {
	return sendVoid(c, false, createWindowRequest(c, depth, wid, parent, x, y, width, height, borderWidth, class, visual, valueMask, valueList))
}

func CreateWindowChecked(c *xgb.Conn, depth byte, wid, parent Window, x, y int16, width, height, borderWidth uint16, class uint16, visual Visualid, valueMask uint32, valueList []uint32) VoidCookie {
	return sendVoid(c, true, createWindowRequest(c, depth, wid, parent, x, y, width, height, borderWidth, class, visual, valueMask, valueList))
}

// Write request to wire for CreateWindow
func createWindowRequest(c *xgb.Conn, depth byte, wid, parent Window, x, y int16, width, height, borderWidth uint16, class uint16, visual Visualid, valueMask uint32, valueList []uint32) []byte {
	e := c.NewEncoder()
	e.Request(CreateWindowOpcode, depth)
	e.Put32(uint32(wid))
	e.Put32(uint32(parent))
	e.PutInt16(x)
	e.PutInt16(y)
	e.Put16(width)
	e.Put16(height)
	e.Put16(borderWidth)
	e.Put16(class)
	e.Put32(uint32(visual))
	e.Put32(valueMask)
	e.PutUint32List(valueList)
	return e.EndRequest()
}

// Request ChangeWindowAttributes
func ChangeWindowAttributes(c *xgb.Conn, window Window, valueMask uint32, valueList []uint32) VoidCookie {
	return sendVoid(c, false, changeWindowAttributesRequest(c, window, valueMask, valueList))
}

func ChangeWindowAttributesChecked(c *xgb.Conn, window Window, valueMask uint32, valueList []uint32) VoidCookie {
	return sendVoid(c, true, changeWindowAttributesRequest(c, window, valueMask, valueList))
}

// Write request to wire for ChangeWindowAttributes
func changeWindowAttributesRequest(c *xgb.Conn, window Window, valueMask uint32, valueList []uint32) []byte {
	e := c.NewEncoder()
	e.Request(ChangeWindowAttributesOpcode, 0)
	e.Put32(uint32(window))
	e.Put32(valueMask)
	e.PutUint32List(valueList)
	return e.EndRequest()
}

// windowRequest encodes the requests whose only field is a window.
func windowRequest(c *xgb.Conn, opcode byte, id uint32) []byte {
	e := c.NewEncoder()
	e.Request(opcode, 0)
	e.Put32(id)
	return e.EndRequest()
}

// Request DestroyWindow
func DestroyWindow(c *xgb.Conn, window Window) VoidCookie {
	return sendVoid(c, false, windowRequest(c, DestroyWindowOpcode, uint32(window)))
}

func DestroyWindowChecked(c *xgb.Conn, window Window) VoidCookie {
	return sendVoid(c, true, windowRequest(c, DestroyWindowOpcode, uint32(window)))
}

// Request MapWindow
func MapWindow(c *xgb.Conn, window Window) VoidCookie {
	return sendVoid(c, false, windowRequest(c, MapWindowOpcode, uint32(window)))
}

func MapWindowChecked(c *xgb.Conn, window Window) VoidCookie {
	return sendVoid(c, true, windowRequest(c, MapWindowOpcode, uint32(window)))
}

// Request UnmapWindow
func UnmapWindow(c *xgb.Conn, window Window) VoidCookie {
	return sendVoid(c, false, windowRequest(c, UnmapWindowOpcode, uint32(window)))
}

func UnmapWindowChecked(c *xgb.Conn, window Window) VoidCookie {
	return sendVoid(c, true, windowRequest(c, UnmapWindowOpcode, uint32(window)))
}

// Request GetGeometry
type GetGeometryCookie struct {
	*xgb.Cookie
}

func GetGeometry(c *xgb.Conn, drawable Drawable) GetGeometryCookie {
	return GetGeometryCookie{sendReply(c, windowRequest(c, GetGeometryOpcode, uint32(drawable)))}
}

// Request reply for GetGeometry
type GetGeometryReply struct {
	Sequence    uint16
	Length      uint32
	Depth       byte
	Root        Window
	X           int16
	Y           int16
	Width       uint16
	Height      uint16
	BorderWidth uint16
}

// Waits and reads reply data from request GetGeometry
func (cook GetGeometryCookie) Reply() (*GetGeometryReply, error) {
	buf, err := cook.Cookie.Reply()
	if err != nil {
		return nil, err
	}
	return getGeometryReply(cook.Cookie, buf)
}

// Read reply into structure from buffer for GetGeometry
func getGeometryReply(cook *xgb.Cookie, buf []byte) (*GetGeometryReply, error) {
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(GetGeometryReply)
	d.Skip(1)
	v.Depth = d.Get8()
	v.Sequence = d.Get16()
	v.Length = d.Get32()
	v.Root = Window(d.Get32())
	v.X = d.GetInt16()
	v.Y = d.GetInt16()
	v.Width = d.Get16()
	v.Height = d.Get16()
	v.BorderWidth = d.Get16()
	return v, d.Err()
}

// Request InternAtom
type InternAtomCookie struct {
	*xgb.Cookie
}

func InternAtom(c *xgb.Conn, onlyIfExists bool, name string) InternAtomCookie {
	e := c.NewEncoder()
	var b byte
	if onlyIfExists {
		b = 1
	}
	e.Request(InternAtomOpcode, b)
	e.PutLen16(len(name))
	e.Skip(2)
	e.PutString(name)
	if err := e.Err(); err != nil {
		return InternAtomCookie{c.NewFailedCookie(true, true, errors.Wrap(err, "intern atom"))}
	}
	return InternAtomCookie{sendReply(c, e.EndRequest())}
}

// Request reply for InternAtom
type InternAtomReply struct {
	Sequence uint16
	Length   uint32
	Atom     Atom
}

// Waits and reads reply data from request InternAtom
func (cook InternAtomCookie) Reply() (*InternAtomReply, error) {
	buf, err := cook.Cookie.Reply()
	if err != nil {
		return nil, err
	}
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(InternAtomReply)
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Length = d.Get32()
	v.Atom = Atom(d.Get32())
	return v, d.Err()
}

// Request GetAtomName
type GetAtomNameCookie struct {
	*xgb.Cookie
}

func GetAtomName(c *xgb.Conn, atom Atom) GetAtomNameCookie {
	return GetAtomNameCookie{sendReply(c, windowRequest(c, GetAtomNameOpcode, uint32(atom)))}
}

// Request reply for GetAtomName
type GetAtomNameReply struct {
	Sequence uint16
	Length   uint32
	Name     string
}

// Waits and reads reply data from request GetAtomName
func (cook GetAtomNameCookie) Reply() (*GetAtomNameReply, error) {
	buf, err := cook.Cookie.Reply()
	if err != nil {
		return nil, err
	}
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(GetAtomNameReply)
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Length = d.Get32()
	n := int(d.Get16())
	d.Skip(22)
	v.Name = d.GetString(n)
	return v, d.Err()
}

// Request ChangeProperty
//
// format is 8, 16 or 32; data holds len(data)*8/format items and is sent
// as is, so 16 and 32-bit items must already be in the connection's byte
// order.
func ChangeProperty(c *xgb.Conn, mode byte, window Window, property, typ Atom, format byte, data []byte) VoidCookie {
	return sendVoid(c, false, changePropertyRequest(c, mode, window, property, typ, format, data))
}

func ChangePropertyChecked(c *xgb.Conn, mode byte, window Window, property, typ Atom, format byte, data []byte) VoidCookie {
	return sendVoid(c, true, changePropertyRequest(c, mode, window, property, typ, format, data))
}

// Write request to wire for ChangeProperty
func changePropertyRequest(c *xgb.Conn, mode byte, window Window, property, typ Atom, format byte, data []byte) []byte {
	e := c.NewEncoder()
	e.Request(ChangePropertyOpcode, mode)
	e.Put32(uint32(window))
	e.Put32(uint32(property))
	e.Put32(uint32(typ))
	e.Put8(format)
	e.Skip(3)
	items := len(data)
	if format >= 8 {
		items = len(data) / int(format/8)
	}
	e.Put32(uint32(items))
	e.PutBytes(data)
	return e.EndRequest()
}

// ChangePropertyString replaces property with a STRING of format 8.
func ChangePropertyString(c *xgb.Conn, window Window, property Atom, value string) VoidCookie {
	return ChangeProperty(c, PropModeReplace, window, property, AtomString, 8, []byte(value))
}

// Request GetProperty
type GetPropertyCookie struct {
	*xgb.Cookie
}

func GetProperty(c *xgb.Conn, del bool, window Window, property, typ Atom, longOffset, longLength uint32) GetPropertyCookie {
	e := c.NewEncoder()
	var b byte
	if del {
		b = 1
	}
	e.Request(GetPropertyOpcode, b)
	e.Put32(uint32(window))
	e.Put32(uint32(property))
	e.Put32(uint32(typ))
	e.Put32(longOffset)
	e.Put32(longLength)
	return GetPropertyCookie{sendReply(c, e.EndRequest())}
}

// Request reply for GetProperty
type GetPropertyReply struct {
	Sequence   uint16
	Length     uint32
	Format     byte
	Type       Atom
	BytesAfter uint32
	ValueLen   uint32
	Value      []byte
}

// Waits and reads reply data from request GetProperty
func (cook GetPropertyCookie) Reply() (*GetPropertyReply, error) {
	buf, err := cook.Cookie.Reply()
	if err != nil {
		return nil, err
	}
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(GetPropertyReply)
	d.Skip(1)
	v.Format = d.Get8()
	v.Sequence = d.Get16()
	v.Length = d.Get32()
	v.Type = Atom(d.Get32())
	v.BytesAfter = d.Get32()
	v.ValueLen = d.Get32()
	d.Skip(12)
	n := int(v.ValueLen)
	if v.Format >= 8 {
		n *= int(v.Format / 8)
	}
	v.Value = d.GetBytes(n)
	return v, d.Err()
}

// Request SendEvent
//
// event must be a 32-byte event, for example one made with an event's
// Bytes method.
func SendEvent(c *xgb.Conn, propagate bool, destination Window, eventMask uint32, event []byte) VoidCookie {
	return sendVoid(c, false, sendEventRequest(c, propagate, destination, eventMask, event))
}

func SendEventChecked(c *xgb.Conn, propagate bool, destination Window, eventMask uint32, event []byte) VoidCookie {
	return sendVoid(c, true, sendEventRequest(c, propagate, destination, eventMask, event))
}

// Write request to wire for SendEvent
func sendEventRequest(c *xgb.Conn, propagate bool, destination Window, eventMask uint32, event []byte) []byte {
	e := c.NewEncoder()
	var b byte
	if propagate {
		b = 1
	}
	e.Request(SendEventOpcode, b)
	e.Put32(uint32(destination))
	e.Put32(eventMask)
	var ev [32]byte
	copy(ev[:], event)
	e.PutBytes(ev[:])
	return e.EndRequest()
}

// Request GetInputFocus
type GetInputFocusCookie struct {
	*xgb.Cookie
}

func GetInputFocus(c *xgb.Conn) GetInputFocusCookie {
	e := c.NewEncoder()
	e.Request(GetInputFocusOpcode, 0)
	return GetInputFocusCookie{sendReply(c, e.EndRequest())}
}

// Request reply for GetInputFocus
type GetInputFocusReply struct {
	Sequence uint16
	Length   uint32
	RevertTo byte
	Focus    Window
}

// Waits and reads reply data from request GetInputFocus
func (cook GetInputFocusCookie) Reply() (*GetInputFocusReply, error) {
	buf, err := cook.Cookie.Reply()
	if err != nil {
		return nil, err
	}
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(GetInputFocusReply)
	d.Skip(1)
	v.RevertTo = d.Get8()
	v.Sequence = d.Get16()
	v.Length = d.Get32()
	v.Focus = Window(d.Get32())
	return v, d.Err()
}

// Request CreatePixmap
func CreatePixmap(c *xgb.Conn, depth byte, pid Pixmap, drawable Drawable, width, height uint16) VoidCookie {
	return sendVoid(c, false, createPixmapRequest(c, depth, pid, drawable, width, height))
}

func CreatePixmapChecked(c *xgb.Conn, depth byte, pid Pixmap, drawable Drawable, width, height uint16) VoidCookie {
	return sendVoid(c, true, createPixmapRequest(c, depth, pid, drawable, width, height))
}

// Write request to wire for CreatePixmap
func createPixmapRequest(c *xgb.Conn, depth byte, pid Pixmap, drawable Drawable, width, height uint16) []byte {
	e := c.NewEncoder()
	e.Request(CreatePixmapOpcode, depth)
	e.Put32(uint32(pid))
	e.Put32(uint32(drawable))
	e.Put16(width)
	e.Put16(height)
	return e.EndRequest()
}

// Request FreePixmap
func FreePixmap(c *xgb.Conn, pixmap Pixmap) VoidCookie {
	return sendVoid(c, false, windowRequest(c, FreePixmapOpcode, uint32(pixmap)))
}

func FreePixmapChecked(c *xgb.Conn, pixmap Pixmap) VoidCookie {
	return sendVoid(c, true, windowRequest(c, FreePixmapOpcode, uint32(pixmap)))
}

// Request CreateGC
func CreateGC(c *xgb.Conn, cid Gcontext, drawable Drawable, valueMask uint32, valueList []uint32) VoidCookie {
	return sendVoid(c, false, createGCRequest(c, cid, drawable, valueMask, valueList))
}

func CreateGCChecked(c *xgb.Conn, cid Gcontext, drawable Drawable, valueMask uint32, valueList []uint32) VoidCookie {
	return sendVoid(c, true, createGCRequest(c, cid, drawable, valueMask, valueList))
}

// Write request to wire for CreateGC
func createGCRequest(c *xgb.Conn, cid Gcontext, drawable Drawable, valueMask uint32, valueList []uint32) []byte {
	e := c.NewEncoder()
	e.Request(CreateGCOpcode, 0)
	e.Put32(uint32(cid))
	e.Put32(uint32(drawable))
	e.Put32(valueMask)
	e.PutUint32List(valueList)
	return e.EndRequest()
}

// Request FreeGC
func FreeGC(c *xgb.Conn, gc Gcontext) VoidCookie {
	return sendVoid(c, false, windowRequest(c, FreeGCOpcode, uint32(gc)))
}

func FreeGCChecked(c *xgb.Conn, gc Gcontext) VoidCookie {
	return sendVoid(c, true, windowRequest(c, FreeGCOpcode, uint32(gc)))
}

// Request ListExtensions
type ListExtensionsCookie struct {
	*xgb.Cookie
}

func ListExtensions(c *xgb.Conn) ListExtensionsCookie {
	e := c.NewEncoder()
	e.Request(ListExtensionsOpcode, 0)
	return ListExtensionsCookie{sendReply(c, e.EndRequest())}
}

// Request reply for ListExtensions
type ListExtensionsReply struct {
	Sequence uint16
	Length   uint32
	Names    []string
}

// Waits and reads reply data from request ListExtensions
func (cook ListExtensionsCookie) Reply() (*ListExtensionsReply, error) {
	buf, err := cook.Cookie.Reply()
	if err != nil {
		return nil, err
	}
	d := wire.NewDecoder(cook.Order(), buf)
	v := new(ListExtensionsReply)
	d.Skip(1)
	n := int(d.Get8())
	v.Sequence = d.Get16()
	v.Length = d.Get32()
	d.Skip(24)
	v.Names = d.GetStrList(n)
	return v, d.Err()
}

// Request NoOperation
func NoOperation(c *xgb.Conn) VoidCookie {
	return sendVoid(c, false, noOperationRequest(c))
}

func NoOperationChecked(c *xgb.Conn) VoidCookie {
	return sendVoid(c, true, noOperationRequest(c))
}

func noOperationRequest(c *xgb.Conn) []byte {
	e := c.NewEncoder()
	e.Request(NoOperationOpcode, 0)
	return e.EndRequest()
}

// String implements fmt.Stringer for debugging replies.
func (v *GetGeometryReply) String() string {
	return fmt.Sprintf("GetGeometry {Root: %d, X: %d, Y: %d, Width: %d, Height: %d, BorderWidth: %d, Depth: %d}",
		v.Root, v.X, v.Y, v.Width, v.Height, v.BorderWidth, v.Depth)
}
