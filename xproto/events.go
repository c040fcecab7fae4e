package xproto

import (
	"encoding/binary"
	"fmt"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/wire"
)

// Event definition KeyPress (2)
// Size: 32

const KeyPress = 2

type KeyPressEvent struct {
	Sequence   uint16
	Detail     Keycode
	Time       Timestamp
	Root       Window
	Event      Window
	Child      Window
	RootX      int16
	RootY      int16
	EventX     int16
	EventY     int16
	State      uint16
	SameScreen bool
}

// Event read KeyPress
func NewKeyPressEvent(d *wire.Decoder) xgb.Event {
	v := KeyPressEvent{}
	d.Skip(1) // don't read event number
	v.Detail = Keycode(d.Get8())
	v.Sequence = d.Get16()
	v.Time = Timestamp(d.Get32())
	v.Root = Window(d.Get32())
	v.Event = Window(d.Get32())
	v.Child = Window(d.Get32())
	v.RootX = d.GetInt16()
	v.RootY = d.GetInt16()
	v.EventX = d.GetInt16()
	v.EventY = d.GetInt16()
	v.State = d.Get16()
	v.SameScreen = d.GetBool()
	return v
}

// inputEventBytes writes the layout shared by the key, button and motion
// events.
func inputEventBytes(order binary.ByteOrder, code byte, v KeyPressEvent) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(code)
	e.Put8(byte(v.Detail))
	e.Skip(2) // skip sequence number
	e.Put32(uint32(v.Time))
	e.Put32(uint32(v.Root))
	e.Put32(uint32(v.Event))
	e.Put32(uint32(v.Child))
	e.PutInt16(v.RootX)
	e.PutInt16(v.RootY)
	e.PutInt16(v.EventX)
	e.PutInt16(v.EventY)
	e.Put16(v.State)
	e.PutBool(v.SameScreen)
	e.Skip(1)
	return e.Bytes()
}

// Event write KeyPress
func (v KeyPressEvent) Bytes(order binary.ByteOrder) []byte {
	return inputEventBytes(order, KeyPress, v)
}

func (v KeyPressEvent) SequenceId() uint16 { return v.Sequence }

func (v KeyPressEvent) String() string {
	return inputEventString("KeyPress", v)
}

func inputEventString(name string, v KeyPressEvent) string {
	return fmt.Sprintf("%s {Sequence: %d, Detail: %d, Time: %d, Root: %d, Event: %d, Child: %d, RootX: %d, RootY: %d, EventX: %d, EventY: %d, State: %d, SameScreen: %t}",
		name, v.Sequence, v.Detail, v.Time, v.Root, v.Event, v.Child, v.RootX, v.RootY, v.EventX, v.EventY, v.State, v.SameScreen)
}

func init() {
	xgb.NewEventFuncs[KeyPress] = NewKeyPressEvent
}

// EventCopy definition KeyRelease (3)

const KeyRelease = 3

type KeyReleaseEvent KeyPressEvent

func NewKeyReleaseEvent(d *wire.Decoder) xgb.Event {
	return KeyReleaseEvent(NewKeyPressEvent(d).(KeyPressEvent))
}

func (v KeyReleaseEvent) Bytes(order binary.ByteOrder) []byte {
	return inputEventBytes(order, KeyRelease, KeyPressEvent(v))
}

func (v KeyReleaseEvent) SequenceId() uint16 { return v.Sequence }

func (v KeyReleaseEvent) String() string {
	return inputEventString("KeyRelease", KeyPressEvent(v))
}

func init() {
	xgb.NewEventFuncs[KeyRelease] = NewKeyReleaseEvent
}

// EventCopy definition ButtonPress (4)

const ButtonPress = 4

type ButtonPressEvent KeyPressEvent

func NewButtonPressEvent(d *wire.Decoder) xgb.Event {
	return ButtonPressEvent(NewKeyPressEvent(d).(KeyPressEvent))
}

func (v ButtonPressEvent) Bytes(order binary.ByteOrder) []byte {
	return inputEventBytes(order, ButtonPress, KeyPressEvent(v))
}

func (v ButtonPressEvent) SequenceId() uint16 { return v.Sequence }

func (v ButtonPressEvent) String() string {
	return inputEventString("ButtonPress", KeyPressEvent(v))
}

func init() {
	xgb.NewEventFuncs[ButtonPress] = NewButtonPressEvent
}

// EventCopy definition ButtonRelease (5)

const ButtonRelease = 5

type ButtonReleaseEvent KeyPressEvent

func NewButtonReleaseEvent(d *wire.Decoder) xgb.Event {
	return ButtonReleaseEvent(NewKeyPressEvent(d).(KeyPressEvent))
}

func (v ButtonReleaseEvent) Bytes(order binary.ByteOrder) []byte {
	return inputEventBytes(order, ButtonRelease, KeyPressEvent(v))
}

func (v ButtonReleaseEvent) SequenceId() uint16 { return v.Sequence }

func (v ButtonReleaseEvent) String() string {
	return inputEventString("ButtonRelease", KeyPressEvent(v))
}

func init() {
	xgb.NewEventFuncs[ButtonRelease] = NewButtonReleaseEvent
}

// EventCopy definition MotionNotify (6)

const MotionNotify = 6

type MotionNotifyEvent KeyPressEvent

func NewMotionNotifyEvent(d *wire.Decoder) xgb.Event {
	return MotionNotifyEvent(NewKeyPressEvent(d).(KeyPressEvent))
}

func (v MotionNotifyEvent) Bytes(order binary.ByteOrder) []byte {
	return inputEventBytes(order, MotionNotify, KeyPressEvent(v))
}

func (v MotionNotifyEvent) SequenceId() uint16 { return v.Sequence }

func (v MotionNotifyEvent) String() string {
	return inputEventString("MotionNotify", KeyPressEvent(v))
}

func init() {
	xgb.NewEventFuncs[MotionNotify] = NewMotionNotifyEvent
}

// Event definition KeymapNotify (11)
// Size: 32

const KeymapNotify = 11

// KeymapNotifyEvent carries no sequence number.
type KeymapNotifyEvent struct {
	Keys [31]byte
}

func NewKeymapNotifyEvent(d *wire.Decoder) xgb.Event {
	v := KeymapNotifyEvent{}
	d.Skip(1)
	copy(v.Keys[:], d.GetBytes(31))
	return v
}

func (v KeymapNotifyEvent) Bytes(order binary.ByteOrder) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(KeymapNotify)
	e.PutBytes(v.Keys[:])
	return e.Bytes()
}

func (v KeymapNotifyEvent) SequenceId() uint16 { return 0 }

func (v KeymapNotifyEvent) String() string {
	return fmt.Sprintf("KeymapNotify {Keys: %v}", v.Keys)
}

func init() {
	xgb.NewEventFuncs[KeymapNotify] = NewKeymapNotifyEvent
}

// Event definition Expose (12)
// Size: 32

const Expose = 12

type ExposeEvent struct {
	Sequence uint16
	Window   Window
	X        uint16
	Y        uint16
	Width    uint16
	Height   uint16
	Count    uint16
}

func NewExposeEvent(d *wire.Decoder) xgb.Event {
	v := ExposeEvent{}
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Window = Window(d.Get32())
	v.X = d.Get16()
	v.Y = d.Get16()
	v.Width = d.Get16()
	v.Height = d.Get16()
	v.Count = d.Get16()
	return v
}

func (v ExposeEvent) Bytes(order binary.ByteOrder) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(Expose)
	e.Skip(3)
	e.Put32(uint32(v.Window))
	e.Put16(v.X)
	e.Put16(v.Y)
	e.Put16(v.Width)
	e.Put16(v.Height)
	e.Put16(v.Count)
	e.Skip(14)
	return e.Bytes()
}

func (v ExposeEvent) SequenceId() uint16 { return v.Sequence }

func (v ExposeEvent) String() string {
	return fmt.Sprintf("Expose {Sequence: %d, Window: %d, X: %d, Y: %d, Width: %d, Height: %d, Count: %d}",
		v.Sequence, v.Window, v.X, v.Y, v.Width, v.Height, v.Count)
}

func init() {
	xgb.NewEventFuncs[Expose] = NewExposeEvent
}

// Event definition DestroyNotify (17)
// Size: 32

const DestroyNotify = 17

type DestroyNotifyEvent struct {
	Sequence uint16
	Event    Window
	Window   Window
}

func NewDestroyNotifyEvent(d *wire.Decoder) xgb.Event {
	v := DestroyNotifyEvent{}
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Event = Window(d.Get32())
	v.Window = Window(d.Get32())
	return v
}

func (v DestroyNotifyEvent) Bytes(order binary.ByteOrder) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(DestroyNotify)
	e.Skip(3)
	e.Put32(uint32(v.Event))
	e.Put32(uint32(v.Window))
	e.Skip(20)
	return e.Bytes()
}

func (v DestroyNotifyEvent) SequenceId() uint16 { return v.Sequence }

func (v DestroyNotifyEvent) String() string {
	return fmt.Sprintf("DestroyNotify {Sequence: %d, Event: %d, Window: %d}",
		v.Sequence, v.Event, v.Window)
}

func init() {
	xgb.NewEventFuncs[DestroyNotify] = NewDestroyNotifyEvent
}

// Event definition UnmapNotify (18)
// Size: 32

const UnmapNotify = 18

type UnmapNotifyEvent struct {
	Sequence      uint16
	Event         Window
	Window        Window
	FromConfigure bool
}

func NewUnmapNotifyEvent(d *wire.Decoder) xgb.Event {
	v := UnmapNotifyEvent{}
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Event = Window(d.Get32())
	v.Window = Window(d.Get32())
	v.FromConfigure = d.GetBool()
	return v
}

func (v UnmapNotifyEvent) Bytes(order binary.ByteOrder) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(UnmapNotify)
	e.Skip(3)
	e.Put32(uint32(v.Event))
	e.Put32(uint32(v.Window))
	e.PutBool(v.FromConfigure)
	e.Skip(19)
	return e.Bytes()
}

func (v UnmapNotifyEvent) SequenceId() uint16 { return v.Sequence }

func (v UnmapNotifyEvent) String() string {
	return fmt.Sprintf("UnmapNotify {Sequence: %d, Event: %d, Window: %d, FromConfigure: %t}",
		v.Sequence, v.Event, v.Window, v.FromConfigure)
}

func init() {
	xgb.NewEventFuncs[UnmapNotify] = NewUnmapNotifyEvent
}

// Event definition MapNotify (19)
// Size: 32

const MapNotify = 19

type MapNotifyEvent struct {
	Sequence         uint16
	Event            Window
	Window           Window
	OverrideRedirect bool
}

func NewMapNotifyEvent(d *wire.Decoder) xgb.Event {
	v := MapNotifyEvent{}
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Event = Window(d.Get32())
	v.Window = Window(d.Get32())
	v.OverrideRedirect = d.GetBool()
	return v
}

func (v MapNotifyEvent) Bytes(order binary.ByteOrder) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(MapNotify)
	e.Skip(3)
	e.Put32(uint32(v.Event))
	e.Put32(uint32(v.Window))
	e.PutBool(v.OverrideRedirect)
	e.Skip(19)
	return e.Bytes()
}

func (v MapNotifyEvent) SequenceId() uint16 { return v.Sequence }

func (v MapNotifyEvent) String() string {
	return fmt.Sprintf("MapNotify {Sequence: %d, Event: %d, Window: %d, OverrideRedirect: %t}",
		v.Sequence, v.Event, v.Window, v.OverrideRedirect)
}

func init() {
	xgb.NewEventFuncs[MapNotify] = NewMapNotifyEvent
}

// Event definition ConfigureNotify (22)
// Size: 32

const ConfigureNotify = 22

type ConfigureNotifyEvent struct {
	Sequence         uint16
	Event            Window
	Window           Window
	AboveSibling     Window
	X                int16
	Y                int16
	Width            uint16
	Height           uint16
	BorderWidth      uint16
	OverrideRedirect bool
}

func NewConfigureNotifyEvent(d *wire.Decoder) xgb.Event {
	v := ConfigureNotifyEvent{}
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Event = Window(d.Get32())
	v.Window = Window(d.Get32())
	v.AboveSibling = Window(d.Get32())
	v.X = d.GetInt16()
	v.Y = d.GetInt16()
	v.Width = d.Get16()
	v.Height = d.Get16()
	v.BorderWidth = d.Get16()
	v.OverrideRedirect = d.GetBool()
	return v
}

func (v ConfigureNotifyEvent) Bytes(order binary.ByteOrder) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(ConfigureNotify)
	e.Skip(3)
	e.Put32(uint32(v.Event))
	e.Put32(uint32(v.Window))
	e.Put32(uint32(v.AboveSibling))
	e.PutInt16(v.X)
	e.PutInt16(v.Y)
	e.Put16(v.Width)
	e.Put16(v.Height)
	e.Put16(v.BorderWidth)
	e.PutBool(v.OverrideRedirect)
	e.Skip(5)
	return e.Bytes()
}

func (v ConfigureNotifyEvent) SequenceId() uint16 { return v.Sequence }

func (v ConfigureNotifyEvent) String() string {
	return fmt.Sprintf("ConfigureNotify {Sequence: %d, Event: %d, Window: %d, AboveSibling: %d, X: %d, Y: %d, Width: %d, Height: %d, BorderWidth: %d, OverrideRedirect: %t}",
		v.Sequence, v.Event, v.Window, v.AboveSibling, v.X, v.Y, v.Width, v.Height, v.BorderWidth, v.OverrideRedirect)
}

func init() {
	xgb.NewEventFuncs[ConfigureNotify] = NewConfigureNotifyEvent
}

// Event definition PropertyNotify (28)
// Size: 32

const PropertyNotify = 28

type PropertyNotifyEvent struct {
	Sequence uint16
	Window   Window
	Atom     Atom
	Time     Timestamp
	State    byte
}

func NewPropertyNotifyEvent(d *wire.Decoder) xgb.Event {
	v := PropertyNotifyEvent{}
	d.Skip(2)
	v.Sequence = d.Get16()
	v.Window = Window(d.Get32())
	v.Atom = Atom(d.Get32())
	v.Time = Timestamp(d.Get32())
	v.State = d.Get8()
	return v
}

func (v PropertyNotifyEvent) Bytes(order binary.ByteOrder) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(PropertyNotify)
	e.Skip(3)
	e.Put32(uint32(v.Window))
	e.Put32(uint32(v.Atom))
	e.Put32(uint32(v.Time))
	e.Put8(v.State)
	e.Skip(15)
	return e.Bytes()
}

func (v PropertyNotifyEvent) SequenceId() uint16 { return v.Sequence }

func (v PropertyNotifyEvent) String() string {
	return fmt.Sprintf("PropertyNotify {Sequence: %d, Window: %d, Atom: %d, Time: %d, State: %d}",
		v.Sequence, v.Window, v.Atom, v.Time, v.State)
}

func init() {
	xgb.NewEventFuncs[PropertyNotify] = NewPropertyNotifyEvent
}

// Event definition ClientMessage (33)
// Size: 32

const ClientMessage = 33

type ClientMessageEvent struct {
	Sequence uint16
	Format   byte
	Window   Window
	Type     Atom
	Data     ClientMessageData
}

func NewClientMessageEvent(d *wire.Decoder) xgb.Event {
	v := ClientMessageEvent{}
	d.Skip(1)
	v.Format = d.Get8()
	v.Sequence = d.Get16()
	v.Window = Window(d.Get32())
	v.Type = Atom(d.Get32())
	v.Data = ClientMessageDataRead(d, v.Format)
	return v
}

func (v ClientMessageEvent) Bytes(order binary.ByteOrder) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(ClientMessage)
	e.Put8(v.Format)
	e.Skip(2)
	e.Put32(uint32(v.Window))
	e.Put32(uint32(v.Type))
	v.Data.Write(e, v.Format)
	return e.Bytes()
}

func (v ClientMessageEvent) SequenceId() uint16 { return v.Sequence }

func (v ClientMessageEvent) String() string {
	return fmt.Sprintf("ClientMessage {Sequence: %d, Format: %d, Window: %d, Type: %d}",
		v.Sequence, v.Format, v.Window, v.Type)
}

func init() {
	xgb.NewEventFuncs[ClientMessage] = NewClientMessageEvent
}

// ClientMessageData is the 20-byte payload of a ClientMessage, viewed as
// bytes, 16-bit or 32-bit values according to the message format.
type ClientMessageData struct {
	Data8  [20]byte
	Data16 [10]uint16
	Data32 [5]uint32
}

func ClientMessageDataUnionData8New(data [20]byte) ClientMessageData {
	return ClientMessageData{Data8: data}
}

func ClientMessageDataUnionData32New(data [5]uint32) ClientMessageData {
	return ClientMessageData{Data32: data}
}

// ClientMessageDataRead reads the field matching format. Unknown formats
// are read as bytes.
func ClientMessageDataRead(d *wire.Decoder, format byte) ClientMessageData {
	var v ClientMessageData
	switch format {
	case 16:
		for i := range v.Data16 {
			v.Data16[i] = d.Get16()
		}
	case 32:
		for i := range v.Data32 {
			v.Data32[i] = d.Get32()
		}
	default:
		copy(v.Data8[:], d.GetBytes(20))
	}
	return v
}

func (v ClientMessageData) Write(e *wire.Encoder, format byte) {
	switch format {
	case 16:
		for _, x := range v.Data16 {
			e.Put16(x)
		}
	case 32:
		for _, x := range v.Data32 {
			e.Put32(x)
		}
	default:
		e.PutBytes(v.Data8[:])
	}
}
