package xproto

import (
	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/wire"
)

// Error definition Request (1)
// Size: 32

const BadRequest = 1

type RequestError struct {
	xgb.ErrorHeader
}

// Error read Request
func NewRequestError(d *wire.Decoder) xgb.Error {
	return RequestError{xgb.DecodeErrorHeader(d)}
}

func (err RequestError) Error() string {
	return err.Describe("BadRequest")
}

func init() {
	xgb.NewErrorFuncs[1] = NewRequestError
}

// Error definition Value (2)
// Size: 32

const BadValue = 2

type ValueError struct {
	xgb.ErrorHeader
}

// Error read Value
func NewValueError(d *wire.Decoder) xgb.Error {
	return ValueError{xgb.DecodeErrorHeader(d)}
}

func (err ValueError) Error() string {
	return err.Describe("BadValue")
}

func init() {
	xgb.NewErrorFuncs[2] = NewValueError
}

// ErrorCopy definition Window (3)

const BadWindow = 3

type WindowError ValueError

func NewWindowError(d *wire.Decoder) xgb.Error {
	return WindowError(NewValueError(d).(ValueError))
}

func (err WindowError) Error() string {
	return err.Describe("BadWindow")
}

func init() {
	xgb.NewErrorFuncs[3] = NewWindowError
}

// ErrorCopy definition Pixmap (4)

const BadPixmap = 4

type PixmapError ValueError

func NewPixmapError(d *wire.Decoder) xgb.Error {
	return PixmapError(NewValueError(d).(ValueError))
}

func (err PixmapError) Error() string {
	return err.Describe("BadPixmap")
}

func init() {
	xgb.NewErrorFuncs[4] = NewPixmapError
}

// ErrorCopy definition Atom (5)

const BadAtom = 5

type AtomError ValueError

func NewAtomError(d *wire.Decoder) xgb.Error {
	return AtomError(NewValueError(d).(ValueError))
}

func (err AtomError) Error() string {
	return err.Describe("BadAtom")
}

func init() {
	xgb.NewErrorFuncs[5] = NewAtomError
}

// ErrorCopy definition Cursor (6)

const BadCursor = 6

type CursorError ValueError

func NewCursorError(d *wire.Decoder) xgb.Error {
	return CursorError(NewValueError(d).(ValueError))
}

func (err CursorError) Error() string {
	return err.Describe("BadCursor")
}

func init() {
	xgb.NewErrorFuncs[6] = NewCursorError
}

// ErrorCopy definition Font (7)

const BadFont = 7

type FontError ValueError

func NewFontError(d *wire.Decoder) xgb.Error {
	return FontError(NewValueError(d).(ValueError))
}

func (err FontError) Error() string {
	return err.Describe("BadFont")
}

func init() {
	xgb.NewErrorFuncs[7] = NewFontError
}

// ErrorCopy definition Match (8)

const BadMatch = 8

type MatchError RequestError

func NewMatchError(d *wire.Decoder) xgb.Error {
	return MatchError(NewRequestError(d).(RequestError))
}

func (err MatchError) Error() string {
	return err.Describe("BadMatch")
}

func init() {
	xgb.NewErrorFuncs[8] = NewMatchError
}

// ErrorCopy definition Drawable (9)

const BadDrawable = 9

type DrawableError ValueError

func NewDrawableError(d *wire.Decoder) xgb.Error {
	return DrawableError(NewValueError(d).(ValueError))
}

func (err DrawableError) Error() string {
	return err.Describe("BadDrawable")
}

func init() {
	xgb.NewErrorFuncs[9] = NewDrawableError
}

// ErrorCopy definition Access (10)

const BadAccess = 10

type AccessError RequestError

func NewAccessError(d *wire.Decoder) xgb.Error {
	return AccessError(NewRequestError(d).(RequestError))
}

func (err AccessError) Error() string {
	return err.Describe("BadAccess")
}

func init() {
	xgb.NewErrorFuncs[10] = NewAccessError
}

// ErrorCopy definition Alloc (11)

const BadAlloc = 11

type AllocError RequestError

func NewAllocError(d *wire.Decoder) xgb.Error {
	return AllocError(NewRequestError(d).(RequestError))
}

func (err AllocError) Error() string {
	return err.Describe("BadAlloc")
}

func init() {
	xgb.NewErrorFuncs[11] = NewAllocError
}

// ErrorCopy definition Colormap (12)

const BadColormap = 12

type ColormapError ValueError

func NewColormapError(d *wire.Decoder) xgb.Error {
	return ColormapError(NewValueError(d).(ValueError))
}

func (err ColormapError) Error() string {
	return err.Describe("BadColormap")
}

func init() {
	xgb.NewErrorFuncs[12] = NewColormapError
}

// ErrorCopy definition GContext (13)

const BadGContext = 13

type GContextError ValueError

func NewGContextError(d *wire.Decoder) xgb.Error {
	return GContextError(NewValueError(d).(ValueError))
}

func (err GContextError) Error() string {
	return err.Describe("BadGContext")
}

func init() {
	xgb.NewErrorFuncs[13] = NewGContextError
}

// ErrorCopy definition IDChoice (14)

const BadIDChoice = 14

type IDChoiceError ValueError

func NewIDChoiceError(d *wire.Decoder) xgb.Error {
	return IDChoiceError(NewValueError(d).(ValueError))
}

func (err IDChoiceError) Error() string {
	return err.Describe("BadIDChoice")
}

func init() {
	xgb.NewErrorFuncs[14] = NewIDChoiceError
}

// ErrorCopy definition Name (15)

const BadName = 15

type NameError RequestError

func NewNameError(d *wire.Decoder) xgb.Error {
	return NameError(NewRequestError(d).(RequestError))
}

func (err NameError) Error() string {
	return err.Describe("BadName")
}

func init() {
	xgb.NewErrorFuncs[15] = NewNameError
}

// ErrorCopy definition Length (16)

const BadLength = 16

type LengthError RequestError

func NewLengthError(d *wire.Decoder) xgb.Error {
	return LengthError(NewRequestError(d).(RequestError))
}

func (err LengthError) Error() string {
	return err.Describe("BadLength")
}

func init() {
	xgb.NewErrorFuncs[16] = NewLengthError
}

// ErrorCopy definition Implementation (17)

const BadImplementation = 17

type ImplementationError RequestError

func NewImplementationError(d *wire.Decoder) xgb.Error {
	return ImplementationError(NewRequestError(d).(RequestError))
}

func (err ImplementationError) Error() string {
	return err.Describe("BadImplementation")
}

func init() {
	xgb.NewErrorFuncs[17] = NewImplementationError
}
