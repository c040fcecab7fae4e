package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/xproto"
)

type windowOptions struct {
	title  string
	width  uint16
	height uint16
	count  int
}

func windowCmd(opts *options) *cobra.Command {
	wopts := windowOptions{}

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Open a window and print the events it receives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			c, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			err = runWindow(ctx, cmd.OutOrStdout(), c, wopts)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&wopts.title, "title", "xprobe", "window title")
	flags.Uint16Var(&wopts.width, "width", 400, "window width")
	flags.Uint16Var(&wopts.height, "height", 300, "window height")
	flags.IntVarP(&wopts.count, "count", "n", 0, "exit after this many events (0: run until interrupted)")
	return cmd
}

const windowEvents = xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskExposure |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskPropertyChange

func runWindow(ctx context.Context, w io.Writer, c *xgb.Conn, opts windowOptions) error {
	screen := c.DefaultScreen()
	if screen == nil {
		return errors.New("server has no screens")
	}

	wid, err := xproto.NewWindowId(c)
	if err != nil {
		return err
	}
	err = xproto.CreateWindowChecked(c, screen.RootDepth, wid, xproto.Window(screen.Root),
		0, 0, opts.width, opts.height, 0,
		xproto.WindowClassInputOutput, xproto.Visualid(screen.RootVisual),
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{screen.WhitePixel, windowEvents}).Check()
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	defer func() {
		xproto.DestroyWindow(c, wid)
		c.Flush()
	}()

	xproto.ChangePropertyString(c, wid, xproto.AtomWmName, opts.title)
	if err := xproto.MapWindowChecked(c, wid).Check(); err != nil {
		return errors.Wrap(err, "map window")
	}

	geom, err := xproto.GetGeometry(c, xproto.Drawable(wid)).Reply()
	if err != nil {
		return errors.Wrap(err, "geometry")
	}
	fmt.Fprintf(w, "window 0x%x: %dx%d+%d+%d\n", wid, geom.Width, geom.Height, geom.X, geom.Y)

	for n := 0; opts.count == 0 || n < opts.count; n++ {
		ev, err := c.WaitForEventContext(ctx)
		if xerr, ok := err.(xgb.Error); ok {
			fmt.Fprintf(w, "error: %s\n", xerr)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: %s\n", ev)
		if _, ok := ev.(xproto.DestroyNotifyEvent); ok {
			return nil
		}
	}
	return nil
}
