package xgb

import (
	"github.com/pkg/errors"

	"github.com/xgbnet/xgb/wire"
)

// Setup reply status codes.
const (
	setupFailed       = 0
	setupSuccess      = 1
	setupAuthenticate = 2
)

// SetupInfo is the server information sent in a successful setup reply.
// It does not change for the lifetime of the connection.
type SetupInfo struct {
	ProtocolMajorVersion     uint16
	ProtocolMinorVersion     uint16
	ReleaseNumber            uint32
	ResourceIdBase           uint32
	ResourceIdMask           uint32
	MotionBufferSize         uint32
	MaximumRequestLength     uint16
	ImageByteOrder           byte
	BitmapFormatBitOrder     byte
	BitmapFormatScanlineUnit byte
	BitmapFormatScanlinePad  byte
	MinKeycode               byte
	MaxKeycode               byte
	Vendor                   string
	PixmapFormats            []Format
	Roots                    []ScreenInfo
}

type Format struct {
	Depth        byte
	BitsPerPixel byte
	ScanlinePad  byte
}

type ScreenInfo struct {
	Root                uint32
	DefaultColormap     uint32
	WhitePixel          uint32
	BlackPixel          uint32
	CurrentInputMasks   uint32
	WidthInPixels       uint16
	HeightInPixels      uint16
	WidthInMillimeters  uint16
	HeightInMillimeters uint16
	MinInstalledMaps    uint16
	MaxInstalledMaps    uint16
	RootVisual          uint32
	BackingStores       byte
	SaveUnders          bool
	RootDepth           byte
	AllowedDepths       []DepthInfo
}

type DepthInfo struct {
	Depth   byte
	Visuals []VisualInfo
}

type VisualInfo struct {
	VisualId        uint32
	Class           byte
	BitsPerRgbValue byte
	ColormapEntries uint16
	RedMask         uint32
	GreenMask       uint32
	BlueMask        uint32
}

// decodeSetup reads the body of a successful setup reply: everything after
// the 8-byte header.
func decodeSetup(d *wire.Decoder, major, minor uint16) (*SetupInfo, error) {
	s := &SetupInfo{
		ProtocolMajorVersion: major,
		ProtocolMinorVersion: minor,
	}
	s.ReleaseNumber = d.Get32()
	s.ResourceIdBase = d.Get32()
	s.ResourceIdMask = d.Get32()
	s.MotionBufferSize = d.Get32()
	vendorLen := int(d.Get16())
	s.MaximumRequestLength = d.Get16()
	numScreens := int(d.Get8())
	numFormats := int(d.Get8())
	s.ImageByteOrder = d.Get8()
	s.BitmapFormatBitOrder = d.Get8()
	s.BitmapFormatScanlineUnit = d.Get8()
	s.BitmapFormatScanlinePad = d.Get8()
	s.MinKeycode = d.Get8()
	s.MaxKeycode = d.Get8()
	d.Skip(4)
	s.Vendor = d.GetString(vendorLen)
	d.Align()

	s.PixmapFormats = make([]Format, 0, numFormats)
	for i := 0; i < numFormats && d.Err() == nil; i++ {
		var f Format
		f.Depth = d.Get8()
		f.BitsPerPixel = d.Get8()
		f.ScanlinePad = d.Get8()
		d.Skip(5)
		s.PixmapFormats = append(s.PixmapFormats, f)
	}

	s.Roots = make([]ScreenInfo, 0, numScreens)
	for i := 0; i < numScreens && d.Err() == nil; i++ {
		s.Roots = append(s.Roots, decodeScreen(d))
	}

	if err := d.Err(); err != nil {
		return nil, errors.Wrap(err, "decode setup reply")
	}
	return s, nil
}

func decodeScreen(d *wire.Decoder) ScreenInfo {
	var s ScreenInfo
	s.Root = d.Get32()
	s.DefaultColormap = d.Get32()
	s.WhitePixel = d.Get32()
	s.BlackPixel = d.Get32()
	s.CurrentInputMasks = d.Get32()
	s.WidthInPixels = d.Get16()
	s.HeightInPixels = d.Get16()
	s.WidthInMillimeters = d.Get16()
	s.HeightInMillimeters = d.Get16()
	s.MinInstalledMaps = d.Get16()
	s.MaxInstalledMaps = d.Get16()
	s.RootVisual = d.Get32()
	s.BackingStores = d.Get8()
	s.SaveUnders = d.GetBool()
	s.RootDepth = d.Get8()
	numDepths := int(d.Get8())

	for i := 0; i < numDepths && d.Err() == nil; i++ {
		var depth DepthInfo
		depth.Depth = d.Get8()
		d.Skip(1)
		numVisuals := int(d.Get16())
		d.Skip(4)
		for j := 0; j < numVisuals && d.Err() == nil; j++ {
			var v VisualInfo
			v.VisualId = d.Get32()
			v.Class = d.Get8()
			v.BitsPerRgbValue = d.Get8()
			v.ColormapEntries = d.Get16()
			v.RedMask = d.Get32()
			v.GreenMask = d.Get32()
			v.BlueMask = d.Get32()
			d.Skip(4)
			depth.Visuals = append(depth.Visuals, v)
		}
		s.AllowedDepths = append(s.AllowedDepths, depth)
	}
	return s
}

// EncodeSetup writes s as the body of a successful setup reply. It is the
// inverse of the decoding done during the handshake and is used by test
// servers.
func EncodeSetup(e *wire.Encoder, s *SetupInfo) {
	e.Put32(s.ReleaseNumber)
	e.Put32(s.ResourceIdBase)
	e.Put32(s.ResourceIdMask)
	e.Put32(s.MotionBufferSize)
	e.Put16(uint16(len(s.Vendor)))
	e.Put16(s.MaximumRequestLength)
	e.Put8(byte(len(s.Roots)))
	e.Put8(byte(len(s.PixmapFormats)))
	e.Put8(s.ImageByteOrder)
	e.Put8(s.BitmapFormatBitOrder)
	e.Put8(s.BitmapFormatScanlineUnit)
	e.Put8(s.BitmapFormatScanlinePad)
	e.Put8(s.MinKeycode)
	e.Put8(s.MaxKeycode)
	e.Skip(4)
	e.PutString(s.Vendor)
	e.Align()
	for _, f := range s.PixmapFormats {
		e.Put8(f.Depth)
		e.Put8(f.BitsPerPixel)
		e.Put8(f.ScanlinePad)
		e.Skip(5)
	}
	for _, r := range s.Roots {
		e.Put32(r.Root)
		e.Put32(r.DefaultColormap)
		e.Put32(r.WhitePixel)
		e.Put32(r.BlackPixel)
		e.Put32(r.CurrentInputMasks)
		e.Put16(r.WidthInPixels)
		e.Put16(r.HeightInPixels)
		e.Put16(r.WidthInMillimeters)
		e.Put16(r.HeightInMillimeters)
		e.Put16(r.MinInstalledMaps)
		e.Put16(r.MaxInstalledMaps)
		e.Put32(r.RootVisual)
		e.Put8(r.BackingStores)
		e.PutBool(r.SaveUnders)
		e.Put8(r.RootDepth)
		e.Put8(byte(len(r.AllowedDepths)))
		for _, depth := range r.AllowedDepths {
			e.Put8(depth.Depth)
			e.Skip(1)
			e.Put16(uint16(len(depth.Visuals)))
			e.Skip(4)
			for _, v := range depth.Visuals {
				e.Put32(v.VisualId)
				e.Put8(v.Class)
				e.Put8(v.BitsPerRgbValue)
				e.Put16(v.ColormapEntries)
				e.Put32(v.RedMask)
				e.Put32(v.GreenMask)
				e.Put32(v.BlueMask)
				e.Skip(4)
			}
		}
	}
}
