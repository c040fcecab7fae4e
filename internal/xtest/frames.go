package xtest

import (
	"encoding/binary"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/wire"
)

// Reply builds a reply frame. body is everything after the 8-byte header;
// it is padded to the 32-byte minimum and to a multiple of 4 bytes.
func Reply(order binary.ByteOrder, seq uint16, data byte, body []byte) []byte {
	n := 8 + len(body)
	if n < 32 {
		n = 32
	}
	n = wire.Pad(n)

	buf := make([]byte, n)
	buf[0] = 1
	buf[1] = data
	order.PutUint16(buf[2:], seq)
	order.PutUint32(buf[4:], uint32((n-32)/4))
	copy(buf[8:], body)
	return buf
}

// Error builds an error frame.
func Error(order binary.ByteOrder, code byte, seq uint16, bad uint32, minor uint16, major byte) []byte {
	e := wire.NewEncoderSize(order, 32)
	e.Put8(0)
	e.Put8(code)
	e.Put16(seq)
	e.Put32(bad)
	e.Put16(minor)
	e.Put8(major)
	e.Skip(21)
	return e.Bytes()
}

// Event stamps seq into a 32-byte event frame, such as one produced by an
// event's Bytes method.
func Event(order binary.ByteOrder, frame []byte, seq uint16) []byte {
	buf := make([]byte, 32)
	copy(buf, frame)
	order.PutUint16(buf[2:], seq)
	return buf
}

// RawEvent builds an event frame with the given code and no fields.
func RawEvent(order binary.ByteOrder, code byte, seq uint16) []byte {
	return Event(order, []byte{code}, seq)
}

// GenericEvent builds a GenericEvent frame for the extension with major
// opcode ext. payload follows the 10-byte header and may make the frame
// longer than 32 bytes.
func GenericEvent(order binary.ByteOrder, ext byte, seq uint16, evtype uint16, payload []byte) []byte {
	n := 10 + len(payload)
	if n < 32 {
		n = 32
	}
	n = wire.Pad(n)

	buf := make([]byte, n)
	buf[0] = 35
	buf[1] = ext
	order.PutUint16(buf[2:], seq)
	order.PutUint32(buf[4:], uint32((n-32)/4))
	order.PutUint16(buf[8:], evtype)
	copy(buf[10:], payload)
	return buf
}

// DefaultSetup returns the server information a Server sends unless told
// otherwise: one 1024x768 screen of depth 24 and the largest request length
// expressible without BIG-REQUESTS.
func DefaultSetup() *xgb.SetupInfo {
	return &xgb.SetupInfo{
		ProtocolMajorVersion:     xgb.ProtocolMajorVersion,
		ProtocolMinorVersion:     xgb.ProtocolMinorVersion,
		ReleaseNumber:            12101004,
		ResourceIdBase:           0x00400000,
		ResourceIdMask:           0x001fffff,
		MotionBufferSize:         256,
		MaximumRequestLength:     0xffff,
		ImageByteOrder:           0,
		BitmapFormatBitOrder:     0,
		BitmapFormatScanlineUnit: 32,
		BitmapFormatScanlinePad:  32,
		MinKeycode:               8,
		MaxKeycode:               255,
		Vendor:                   "xgb test server",
		PixmapFormats: []xgb.Format{
			{Depth: 1, BitsPerPixel: 1, ScanlinePad: 32},
			{Depth: 24, BitsPerPixel: 32, ScanlinePad: 32},
		},
		Roots: []xgb.ScreenInfo{{
			Root:                0x000001e7,
			DefaultColormap:     0x00000020,
			WhitePixel:          0x00ffffff,
			BlackPixel:          0,
			WidthInPixels:       1024,
			HeightInPixels:      768,
			WidthInMillimeters:  270,
			HeightInMillimeters: 203,
			MinInstalledMaps:    1,
			MaxInstalledMaps:    1,
			RootVisual:          0x21,
			RootDepth:           24,
			AllowedDepths: []xgb.DepthInfo{{
				Depth: 24,
				Visuals: []xgb.VisualInfo{{
					VisualId:        0x21,
					Class:           4,
					BitsPerRgbValue: 8,
					ColormapEntries: 256,
					RedMask:         0xff0000,
					GreenMask:       0x00ff00,
					BlueMask:        0x0000ff,
				}},
			}},
		}},
	}
}

// SetupSuccess builds a successful setup reply carrying s.
func SetupSuccess(order binary.ByteOrder, s *xgb.SetupInfo) []byte {
	body := wire.NewEncoder(order)
	xgb.EncodeSetup(body, s)

	e := wire.NewEncoder(order)
	e.Put8(1)
	e.Skip(1)
	e.Put16(s.ProtocolMajorVersion)
	e.Put16(s.ProtocolMinorVersion)
	e.Put16(uint16(body.Len() / 4))
	e.PutBytes(body.Bytes())
	return e.Bytes()
}

// SetupRefused builds a Failed setup reply.
func SetupRefused(order binary.ByteOrder, reason string) []byte {
	e := wire.NewEncoder(order)
	e.Put8(0)
	e.Put8(byte(len(reason)))
	e.Put16(xgb.ProtocolMajorVersion)
	e.Put16(xgb.ProtocolMinorVersion)
	e.Put16(uint16(wire.Pad(len(reason)) / 4))
	e.PutString(reason)
	e.Align()
	return e.Bytes()
}

// SetupAuthenticate builds an Authenticate setup reply.
func SetupAuthenticate(order binary.ByteOrder, reason string) []byte {
	e := wire.NewEncoder(order)
	e.Put8(2)
	e.Skip(5)
	e.Put16(uint16(wire.Pad(len(reason)) / 4))
	e.PutString(reason)
	e.Align()
	return e.Bytes()
}
