package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/internal/xtest"
	"github.com/xgbnet/xgb/wire"
	"github.com/xgbnet/xgb/xproto"
)

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestByteOrderDefault(t *testing.T) {
	flag := rootCmd().PersistentFlags().Lookup("byte-order")
	require.NotNil(t, flag)
	assert.Equal(t, "lsb", flag.DefValue)
	assert.NotContains(t, flag.Usage, "native")
}

func TestUnknownByteOrder(t *testing.T) {
	opts := &options{byteOrder: "middle"}
	_, err := opts.connect(context.Background())
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	c, s := xtest.Connect(t, nil)
	want := describe(c)
	assert.Equal(t, "xgb test server", want.Vendor)
	assert.Equal(t, "0x00400000", want.ResourceIdBase)
	require.Len(t, want.Screens, 1)
	assert.Equal(t, "0x1e7", want.Screens[0].Root)
	assert.Equal(t, []int{24}, want.Screens[0].Depths)
	assert.Equal(t, 1, want.Screens[0].Visuals)
	assert.Len(t, want.PixmapFormats, 2)

	var out bytes.Buffer
	require.NoError(t, writeInfo(&out, c, "yaml"))
	var got serverInfo
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, want, got)

	out.Reset()
	require.NoError(t, writeInfo(&out, c, "json"))
	got = serverInfo{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, want, got)

	out.Reset()
	require.NoError(t, writeInfo(&out, c, "text"))
	assert.Contains(t, out.String(), "vendor:          xgb test server\n")
	assert.Contains(t, out.String(), "1024x768 pixels (270x203 mm)")

	assert.Error(t, writeInfo(&out, c, "xml"))
	assert.Empty(t, s.Requests())
}

func TestQueryExtensions(t *testing.T) {
	c, _ := xtest.Connect(t, []xtest.Option{xtest.WithExtension("FOO", 140, 90, 160)})

	var out bytes.Buffer
	require.NoError(t, queryExtensions(context.Background(), &out, c, []string{"FOO", "BAR"}))
	assert.Regexp(t, `(?m)^FOO\s+yes\s+140\s+90\s+160$`, out.String())
	assert.Regexp(t, `(?m)^BAR\s+no\s+-\s+-\s+-$`, out.String())
}

func TestQueryListedExtensions(t *testing.T) {
	c, _ := xtest.Connect(t, []xtest.Option{
		xtest.WithBigRequests(133, 0x3fffff),
		xtest.WithExtension(xcmiscName, 134, 0, 0),
		xtest.WithHandler(extensionHandler),
	})
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, queryExtensions(ctx, &out, c, nil))
	assert.Regexp(t, `(?m)^BIG-REQUESTS\s+yes\s+133\s+`, out.String())
	assert.Regexp(t, `(?m)^XC-MISC\s+yes\s+134\s+`, out.String())

	out.Reset()
	require.NoError(t, enableExtensions(ctx, &out, c))
	assert.Equal(t, "BIG-REQUESTS: maximum request length 65535 -> 4194303 units\n"+
		"XC-MISC: version 1.1, 256 free ids from 0x400100\n", out.String())
	assert.Equal(t, uint32(0x3fffff), c.MaximumRequestLength())
}

func TestEnableAbsentExtensions(t *testing.T) {
	c, _ := xtest.Connect(t, nil)

	var out bytes.Buffer
	require.NoError(t, enableExtensions(context.Background(), &out, c))
	assert.Equal(t, "BIG-REQUESTS: not present\nXC-MISC: not present\n", out.String())
}

const xcmiscName = "XC-MISC"

func extensionHandler(s *xtest.Server, r xtest.Request) []byte {
	order := s.Order()
	e := wire.NewEncoder(order)
	switch {
	case r.Major == xproto.ListExtensionsOpcode:
		e.Skip(24)
		e.PutStrList([]string{xcmiscName, "BIG-REQUESTS"})
		return xtest.Reply(order, r.Seq, 2, e.Bytes())
	case r.Major == 134 && r.Minor() == 0:
		e.Put16(1)
		e.Put16(1)
		return xtest.Reply(order, r.Seq, 0, e.Bytes())
	case r.Major == 134 && r.Minor() == 1:
		e.Put32(0x400100)
		e.Put32(256)
		return xtest.Reply(order, r.Seq, 0, e.Bytes())
	}
	return nil
}

func TestWindow(t *testing.T) {
	c, s := xtest.Connect(t, []xtest.Option{xtest.WithHandler(func(s *xtest.Server, r xtest.Request) []byte {
		order := s.Order()
		if r.Major == xproto.GetGeometryOpcode {
			e := wire.NewEncoder(order)
			e.Put32(s.Setup().Roots[0].Root)
			e.PutInt16(0)
			e.PutInt16(0)
			e.Put16(200)
			e.Put16(100)
			e.Put16(0)
			reply := xtest.Reply(order, r.Seq, 24, e.Bytes())
			reply = append(reply, xtest.RawEvent(order, xproto.Expose, r.Seq)...)
			return append(reply, xtest.RawEvent(order, xproto.DestroyNotify, r.Seq)...)
		}
		return nil
	})})

	var out bytes.Buffer
	err := runWindow(context.Background(), &out, c, windowOptions{title: "xprobe", width: 200, height: 100})
	require.NoError(t, err)

	lines := out.String()
	assert.Contains(t, lines, "window 0x400000: 200x100+0+0\n")
	assert.Contains(t, lines, "event: Expose {")
	assert.Contains(t, lines, "event: DestroyNotify {")

	var created, title []byte
	order := c.Order()
	for _, r := range s.Requests() {
		switch r.Major {
		case xproto.CreateWindowOpcode:
			created = r.Body
		case xproto.ChangePropertyOpcode:
			d := wire.NewDecoder(order, r.Body)
			d.Skip(16)
			title = d.GetBytes(int(d.Get32()))
		}
	}
	assert.Equal(t, "xprobe", string(title))

	// Window id, parent, value mask and the first attribute value.
	require.NotNil(t, created)
	assert.Equal(t, uint32(0x400000), order.Uint32(created[0:]))
	assert.Equal(t, uint32(0x1e7), order.Uint32(created[4:]))
	assert.Equal(t, uint32(xproto.CwBackPixel|xproto.CwEventMask), order.Uint32(created[24:]))
	assert.Equal(t, uint32(0x00ffffff), order.Uint32(created[28:]))
}

func TestAuthFamily(t *testing.T) {
	for _, tt := range []struct {
		network, address string
		family           uint16
		host             string
		display          string
	}{
		{"unix", "/tmp/.X11-unix/X0", xgb.FamilyLocal, "", "0"},
		{"unix", "/run/x/X12", xgb.FamilyLocal, "", "12"},
		{"tcp", "10.0.0.2:6001", xgb.FamilyInternet, "\x0a\x00\x00\x02", "1"},
		{"tcp", "127.0.0.1:6000", xgb.FamilyLocal, "", "0"},
		{"tcp6", "[fe80::1]:6003", xgb.FamilyInternet6, string(make16(0xfe, 0x80, 15, 1)), "3"},
		{"vsock", "3:6000", xgb.FamilyLocal, "", "0"},
	} {
		family, host := authFamily(tt.network, tt.address)
		assert.Equal(t, tt.family, family, tt.address)
		assert.Equal(t, tt.host, host, tt.address)
		assert.Equal(t, tt.display, displayNumber(tt.network, tt.address), tt.address)
	}
}

// make16 returns a 16-byte address starting with a and b and ending with
// last at index at.
func make16(a, b byte, at int, last byte) []byte {
	ip := make([]byte, 16)
	ip[0], ip[1], ip[at] = a, b, last
	return ip
}
