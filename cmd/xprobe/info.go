package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/xgbnet/xgb"
)

type serverInfo struct {
	Vendor               string         `json:"vendor" yaml:"vendor"`
	Release              uint32         `json:"release" yaml:"release"`
	Protocol             string         `json:"protocol" yaml:"protocol"`
	ByteOrder            string         `json:"byte_order" yaml:"byte_order"`
	ResourceIdBase       string         `json:"resource_id_base" yaml:"resource_id_base"`
	ResourceIdMask       string         `json:"resource_id_mask" yaml:"resource_id_mask"`
	MaximumRequestLength uint32         `json:"maximum_request_length" yaml:"maximum_request_length"`
	MinKeycode           byte           `json:"min_keycode" yaml:"min_keycode"`
	MaxKeycode           byte           `json:"max_keycode" yaml:"max_keycode"`
	PixmapFormats        []pixmapFormat `json:"pixmap_formats" yaml:"pixmap_formats"`
	Screens              []screenInfo   `json:"screens" yaml:"screens"`
}

type pixmapFormat struct {
	Depth        byte `json:"depth" yaml:"depth"`
	BitsPerPixel byte `json:"bits_per_pixel" yaml:"bits_per_pixel"`
	ScanlinePad  byte `json:"scanline_pad" yaml:"scanline_pad"`
}

type screenInfo struct {
	Root       string `json:"root" yaml:"root"`
	Width      uint16 `json:"width" yaml:"width"`
	Height     uint16 `json:"height" yaml:"height"`
	WidthMM    uint16 `json:"width_mm" yaml:"width_mm"`
	HeightMM   uint16 `json:"height_mm" yaml:"height_mm"`
	RootDepth  byte   `json:"root_depth" yaml:"root_depth"`
	RootVisual string `json:"root_visual" yaml:"root_visual"`
	Depths     []int  `json:"depths" yaml:"depths,flow"`
	Visuals    int    `json:"visuals" yaml:"visuals"`
}

func infoCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the server's setup information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			return writeInfo(cmd.OutOrStdout(), c, format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text, yaml or json")
	return cmd
}

func describe(c *xgb.Conn) serverInfo {
	s := c.Setup
	info := serverInfo{
		Vendor:               s.Vendor,
		Release:              s.ReleaseNumber,
		Protocol:             fmt.Sprintf("%d.%d", s.ProtocolMajorVersion, s.ProtocolMinorVersion),
		ByteOrder:            c.Order().String(),
		ResourceIdBase:       fmt.Sprintf("0x%08x", s.ResourceIdBase),
		ResourceIdMask:       fmt.Sprintf("0x%08x", s.ResourceIdMask),
		MaximumRequestLength: c.MaximumRequestLength(),
		MinKeycode:           s.MinKeycode,
		MaxKeycode:           s.MaxKeycode,
	}
	for _, f := range s.PixmapFormats {
		info.PixmapFormats = append(info.PixmapFormats, pixmapFormat(f))
	}
	for _, r := range s.Roots {
		si := screenInfo{
			Root:       fmt.Sprintf("0x%x", r.Root),
			Width:      r.WidthInPixels,
			Height:     r.HeightInPixels,
			WidthMM:    r.WidthInMillimeters,
			HeightMM:   r.HeightInMillimeters,
			RootDepth:  r.RootDepth,
			RootVisual: fmt.Sprintf("0x%x", r.RootVisual),
		}
		for _, d := range r.AllowedDepths {
			si.Depths = append(si.Depths, int(d.Depth))
			si.Visuals += len(d.Visuals)
		}
		info.Screens = append(info.Screens, si)
	}
	return info
}

func writeInfo(w io.Writer, c *xgb.Conn, format string) error {
	info := describe(c)
	switch format {
	case "yaml":
		b, err := yaml.Marshal(info)
		if err != nil {
			return errors.Wrap(err, "yaml")
		}
		_, err = w.Write(b)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "text":
	default:
		return errors.Errorf("unknown output format %q", format)
	}

	fmt.Fprintf(w, "vendor:          %s\n", info.Vendor)
	fmt.Fprintf(w, "release:         %d\n", info.Release)
	fmt.Fprintf(w, "protocol:        %s\n", info.Protocol)
	fmt.Fprintf(w, "byte order:      %s\n", info.ByteOrder)
	fmt.Fprintf(w, "resource ids:    base %s mask %s\n", info.ResourceIdBase, info.ResourceIdMask)
	fmt.Fprintf(w, "max request:     %d units\n", info.MaximumRequestLength)
	fmt.Fprintf(w, "keycodes:        %d-%d\n", info.MinKeycode, info.MaxKeycode)
	fmt.Fprintf(w, "pixmap formats:\n")
	for _, f := range info.PixmapFormats {
		fmt.Fprintf(w, "  depth %d, bpp %d, scanline pad %d\n", f.Depth, f.BitsPerPixel, f.ScanlinePad)
	}
	for i, s := range info.Screens {
		fmt.Fprintf(w, "screen %d:\n", i)
		fmt.Fprintf(w, "  root:          %s\n", s.Root)
		fmt.Fprintf(w, "  dimensions:    %dx%d pixels (%dx%d mm)\n", s.Width, s.Height, s.WidthMM, s.HeightMM)
		fmt.Fprintf(w, "  root depth:    %d\n", s.RootDepth)
		fmt.Fprintf(w, "  root visual:   %s\n", s.RootVisual)
		fmt.Fprintf(w, "  depths:        %v (%d visuals)\n", s.Depths, s.Visuals)
	}
	return nil
}
