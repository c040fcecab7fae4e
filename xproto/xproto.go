// Package xproto describes the part of the core X protocol used by this
// module's tools: window, atom, property, pixmap and graphics context
// requests, the common events, and every core error.
//
// Request functions come in the XCB shape. Requests with replies return a
// cookie whose Reply method waits for the decoded reply. Requests without
// replies return a cookie whose errors go to the connection's error sink,
// and have a Checked variant whose cookie reports them through Check.
//
// Importing the package registers its event and error decoders with xgb.
package xproto

import (
	"github.com/xgbnet/xgb"
)

type (
	Window    uint32
	Pixmap    uint32
	Drawable  uint32
	Gcontext  uint32
	Colormap  uint32
	Atom      uint32
	Visualid  uint32
	Timestamp uint32
	Keycode   byte
	Button    byte
)

const (
	WindowNone      Window    = 0
	AtomNone        Atom      = 0
	TimeCurrentTime Timestamp = 0
)

// Predefined atoms.
const (
	AtomPrimary   Atom = 1
	AtomSecondary Atom = 2
	AtomArc       Atom = 3
	AtomAtom      Atom = 4
	AtomBitmap    Atom = 5
	AtomCardinal  Atom = 6
	AtomColormap  Atom = 7
	AtomCursor    Atom = 8
	AtomInteger   Atom = 19
	AtomPixmap    Atom = 20
	AtomPoint     Atom = 21
	AtomString    Atom = 31
	AtomVisualid  Atom = 32
	AtomWindow    Atom = 33
	AtomWmCommand Atom = 34
	AtomWmHints   Atom = 35
	AtomWmName    Atom = 39
	AtomWmClass   Atom = 67
)

const (
	WindowClassCopyFromParent = 0
	WindowClassInputOutput    = 1
	WindowClassInputOnly      = 2
)

// Window attribute value mask bits, in value list order.
const (
	CwBackPixmap       = 1 << 0
	CwBackPixel        = 1 << 1
	CwBorderPixmap     = 1 << 2
	CwBorderPixel      = 1 << 3
	CwBitGravity       = 1 << 4
	CwWinGravity       = 1 << 5
	CwBackingStore     = 1 << 6
	CwBackingPlanes    = 1 << 7
	CwBackingPixel     = 1 << 8
	CwOverrideRedirect = 1 << 9
	CwSaveUnder        = 1 << 10
	CwEventMask        = 1 << 11
	CwDontPropagate    = 1 << 12
	CwColormap         = 1 << 13
	CwCursor           = 1 << 14
)

const (
	EventMaskNoEvent              = 0
	EventMaskKeyPress             = 1 << 0
	EventMaskKeyRelease           = 1 << 1
	EventMaskButtonPress          = 1 << 2
	EventMaskButtonRelease        = 1 << 3
	EventMaskEnterWindow          = 1 << 4
	EventMaskLeaveWindow          = 1 << 5
	EventMaskPointerMotion        = 1 << 6
	EventMaskExposure             = 1 << 15
	EventMaskVisibilityChange     = 1 << 16
	EventMaskStructureNotify      = 1 << 17
	EventMaskResizeRedirect       = 1 << 18
	EventMaskSubstructureNotify   = 1 << 19
	EventMaskSubstructureRedirect = 1 << 20
	EventMaskFocusChange          = 1 << 21
	EventMaskPropertyChange       = 1 << 22
)

// Graphics context value mask bits, in value list order.
const (
	GcFunction           = 1 << 0
	GcPlaneMask          = 1 << 1
	GcForeground         = 1 << 2
	GcBackground         = 1 << 3
	GcLineWidth          = 1 << 4
	GcLineStyle          = 1 << 5
	GcCapStyle           = 1 << 6
	GcJoinStyle          = 1 << 7
	GcFillStyle          = 1 << 8
	GcFillRule           = 1 << 9
	GcTile               = 1 << 10
	GcStipple            = 1 << 11
	GcTileStippleOriginX = 1 << 12
	GcTileStippleOriginY = 1 << 13
	GcFont               = 1 << 14
	GcSubwindowMode      = 1 << 15
	GcGraphicsExposures  = 1 << 16
	GcClipOriginX        = 1 << 17
	GcClipOriginY        = 1 << 18
	GcClipMask           = 1 << 19
	GcDashOffset         = 1 << 20
	GcDashList           = 1 << 21
	GcArcMode            = 1 << 22
)

const (
	PropModeReplace = 0
	PropModePrepend = 1
	PropModeAppend  = 2
)

const (
	PropertyNewValue = 0
	PropertyDelete   = 1
)

// GetPropertyTypeAny matches a property of any type in GetProperty.
const GetPropertyTypeAny Atom = 0

// DefaultRoot returns the root window of the default screen, or
// WindowNone if the server reported no screens.
func DefaultRoot(c *xgb.Conn) Window {
	s := c.DefaultScreen()
	if s == nil {
		return WindowNone
	}
	return Window(s.Root)
}

// NewWindowId allocates a resource id for a window.
func NewWindowId(c *xgb.Conn) (Window, error) {
	id, err := c.NewId()
	return Window(id), err
}

func NewPixmapId(c *xgb.Conn) (Pixmap, error) {
	id, err := c.NewId()
	return Pixmap(id), err
}

func NewGcontextId(c *xgb.Conn) (Gcontext, error) {
	id, err := c.NewId()
	return Gcontext(id), err
}
