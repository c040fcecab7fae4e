/*
Package xgb is a client for the X11 wire protocol: it connects to an X
server, performs the setup handshake, and carries requests, replies, errors
and events over a single byte stream.

It is closely modeled on XCB. Requests return cookies, replies are collected
through the cookie, and a connection is safe for concurrent use. The core
protocol requests live in the xproto sub-package; extensions such as
BIG-REQUESTS and XC-MISC have their own sub-packages.

# Connecting

Dial takes an explicit network and address. Reading DISPLAY or an
Xauthority file is left to the caller; ReadAuthority helps with the latter.

	name, data, err := xgb.ReadAuthority(path, xgb.FamilyLocal, "", "0")
	...
	X, err := xgb.Dial(ctx, "unix", "/tmp/.X11-unix/X0", xgb.WithAuth(name, data))

NewConn does the same over a net.Conn the caller already has.

# Example

This example creates a window, selects StructureNotify and key events, maps
the window, and prints every event received. A complete version lives in
examples/window.

	package main

	import (
		"context"
		"fmt"

		"github.com/xgbnet/xgb"
		"github.com/xgbnet/xgb/xproto"
	)

	func main() {
		X, err := xgb.Dial(context.Background(), "unix", "/tmp/.X11-unix/X0")
		if err != nil {
			fmt.Println(err)
			return
		}
		defer X.Close()

		screen := X.DefaultScreen()
		wid, _ := xproto.NewWindowId(X)
		xproto.CreateWindow(X, screen.RootDepth, wid, xproto.Window(screen.Root),
			0, 0, 500, 500, 0,
			xproto.WindowClassInputOutput, xproto.Visualid(screen.RootVisual),
			xproto.CwBackPixel|xproto.CwEventMask,
			[]uint32{ // values must be in the order defined by the protocol
				0xffffffff,
				xproto.EventMaskStructureNotify |
					xproto.EventMaskKeyPress |
					xproto.EventMaskKeyRelease})

		xproto.MapWindow(X, wid)
		for {
			ev, xerr := X.WaitForEvent()
			if ev == nil && xerr == nil {
				fmt.Println("Both event and error are nil. Exiting...")
				return
			}

			if ev != nil {
				fmt.Printf("Event: %s\n", ev)
			}
			if xerr != nil {
				fmt.Printf("Error: %s\n", xerr)
			}
		}
	}

# Cookies and errors

A request that has a reply always gets a checked cookie: Reply returns the
reply or the server's error. A request without a reply is unchecked by
default, and any error the server reports for it arrives through
WaitForEvent (or the handler set with WithErrorHandler). The Checked variant
of such a request returns a cookie whose Check waits until the server is
known to have processed the request, sending a GetInputFocus round trip when
nothing later would prove it.

Once the connection fails, every pending cookie and every later call
returns an error matching ErrConnClosed that wraps the cause.

# Extensions

Each extension package has an Init function that must run before any of its
requests are sent. Init asks the server for the extension once per
connection; the answer, present or not, is cached. Events and errors of an
initialized extension are decoded by the Schema the package registered.

	if err := bigreq.Init(X); err != nil {
		log.Fatal(err)
	}

# Waiting

Reply, Check and WaitForEvent block, and the caller reads from the
connection itself when nobody else is. ReplyContext, CheckContext and
WaitForEventContext give up when their context is done; the request is then
abandoned and its reply discarded when it comes. A program that prefers one
reader can run Serve in its own goroutine and wait on Cookie.Done.

# Tests

The tests run against a scripted server in internal/xtest that speaks the
protocol over an in-memory net.Conn. They cover replies out of order,
checked and unchecked errors, sequence number wrapping, the GetInputFocus
inserted every 0x7000 requests without a reply, big requests, cancellation in
the middle of a frame, and connection failure.
*/
package xgb
