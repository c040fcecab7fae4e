// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgb

import (
	"bufio"
	"context"
	"encoding/binary"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"

	"github.com/xgbnet/xgb/wire"
)

const tracerName = "github.com/xgbnet/xgb"

// A Conn represents a connection to an X server.
//
// Any number of goroutines may send requests and wait for replies and
// events concurrently. At most one of them reads the transport at a time;
// the others wait for it to deliver what they are waiting for.
type Conn struct {
	Setup         SetupInfo
	conn          net.Conn
	order         binary.ByteOrder
	defaultScreen atomic.Int32
	log           xgblog
	metrics       *metrics
	tracer        trace.Tracer
	errorHandler  func(Error)
	ids           *idAllocator
	ext           *extensionRegistry

	// sendLock serializes writers and guards the fields below it.
	sendLock          sync.Mutex
	w                 *bufio.Writer
	sent              uint64
	lastReplyExpected uint64
	bigMax            uint32

	// Holding readToken grants the reader role. serving is set while Serve
	// holds it, so senders flush instead of waiting for the next read.
	readToken chan struct{}
	serving   atomic.Bool
	br        *bufio.Reader
	fr        *frameReader

	// mu guards the request table and the event queue. It is never held
	// during I/O.
	mu          sync.Mutex
	lastSent    uint64
	pending     map[uint64]*Cookie
	voids       []*Cookie
	lastRead    uint64
	events      queue
	eventSignal chan struct{}
	err         error
	closed      chan struct{}
}

// NewConn performs the connection setup handshake over conn and returns
// the established connection. Resolving a display name to conn is up to
// the caller; see Dial.
func NewConn(conn net.Conn, opts ...Option) (*Conn, error) {
	return NewConnContext(context.Background(), conn, opts...)
}

// NewConnContext is like NewConn, but the handshake is abandoned, and conn
// closed, when ctx is done.
func NewConnContext(ctx context.Context, conn net.Conn, opts ...Option) (*Conn, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m, err := newMetrics(cfg.registerer)
	if err != nil {
		conn.Close()
		return nil, err
	}

	order, err := wire.OrderFromMarker(wire.OrderMarker(cfg.order))
	if err != nil {
		conn.Close()
		return nil, err
	}

	log := cfg.log
	if cfg.endpoint != "" {
		log = log.WithField("endpoint", cfg.endpoint)
	}

	c := &Conn{
		conn:         conn,
		order:        order,
		log:          xgblog{log},
		metrics:      m,
		tracer:       cfg.tracer.Tracer(tracerName),
		errorHandler: cfg.errorHandler,
		ext:          newExtensionRegistry(),
		w:            bufio.NewWriterSize(conn, cfg.writeBuffer),
		br:           bufio.NewReaderSize(conn, cfg.readBuffer),
		readToken:    make(chan struct{}, 1),
		pending:      make(map[uint64]*Cookie),
		events:       queue{data: make([]eventItem, 100)},
		eventSignal:  make(chan struct{}),
		closed:       make(chan struct{}),
	}
	c.fr = newFrameReader(c.br, order)

	if err := tuneSocket(conn, cfg.sndBuf, cfg.rcvBuf); err != nil {
		c.log.WithError(err).Warnf("socket buffers not applied")
	}

	if err := c.handshake(ctx, &cfg); err != nil {
		conn.Close()
		return nil, err
	}
	c.ids = newIdAllocator(c.Setup.ResourceIdBase, c.Setup.ResourceIdMask)

	return c, nil
}

// Close flushes buffered requests and closes the connection. Requests
// still waiting fail with an error matching ErrConnClosed. The error from
// the final flush, if any, is returned.
func (c *Conn) Close() error {
	var err error
	c.sendLock.Lock()
	if c.Err() == nil {
		err = c.w.Flush()
	}
	c.sendLock.Unlock()

	c.fail(nil)
	if err != nil {
		return errors.Wrap(err, "flush")
	}
	return nil
}

// Err returns the error that terminated the connection, or nil while it
// is usable.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Order returns the byte order negotiated for the connection.
func (c *Conn) Order() binary.ByteOrder { return c.order }

// DefaultScreen returns the screen the connection considers default, or
// nil if the server reported no screens.
func (c *Conn) DefaultScreen() *ScreenInfo {
	n := int(c.defaultScreen.Load())
	if n < 0 || n >= len(c.Setup.Roots) {
		return nil
	}
	return &c.Setup.Roots[n]
}

// SetDefaultScreen selects the screen returned by DefaultScreen.
func (c *Conn) SetDefaultScreen(n int) {
	c.defaultScreen.Store(int32(n))
}

// NewEncoder returns an Encoder in the connection's byte order, for
// building requests.
func (c *Conn) NewEncoder() *wire.Encoder {
	return wire.NewEncoder(c.order)
}

// NewDecoder returns a Decoder over buf in the connection's byte order.
func (c *Conn) NewDecoder(buf []byte) *wire.Decoder {
	return wire.NewDecoder(c.order, buf)
}
