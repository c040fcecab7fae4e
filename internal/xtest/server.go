// Package xtest provides a scripted X server for tests: an in-memory
// net.Conn whose far end parses the setup request and the request stream,
// numbers requests the way a server does, and answers them through a test
// supplied Handler. Tests can also send replies, errors and events at any
// time with Send.
package xtest

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/wire"
)

const (
	queryExtensionOpcode = 98
	getInputFocusOpcode  = 43
)

// Request is one request as the server received it.
type Request struct {
	// Seq is the sequence number the server assigned.
	Seq   uint16
	Major byte
	Data  byte

	// Units is the request length in 4-byte units as sent, including the
	// extended length field of a big request.
	Units uint32
	Big   bool

	// Body is everything after the length field.
	Body []byte
}

// Minor returns the minor opcode of an extension request.
func (r Request) Minor() byte { return r.Data }

// Handler answers a request with the frames to send, concatenated. A nil
// result leaves the request to the server's defaults; return an empty,
// non-nil slice to send nothing.
//
// Handlers run on the Conn's goroutine and must not call Send.
type Handler func(s *Server, r Request) []byte

// Handshake answers a setup request. attempt counts setup requests from 1.
type Handshake func(order binary.ByteOrder, attempt int, authName string, authData []byte) []byte

type extension struct {
	major, firstEvent, firstError byte
}

type Option func(*Server)

func WithSetup(info *xgb.SetupInfo) Option {
	return func(s *Server) { s.setup = info }
}

func WithHandshake(h Handshake) Option {
	return func(s *Server) { s.handshake = h }
}

func WithHandler(h Handler) Option {
	return func(s *Server) { s.handler = h }
}

// WithExtension makes QueryExtension report name as present.
func WithExtension(name string, major, firstEvent, firstError byte) Option {
	return func(s *Server) {
		s.extensions[name] = extension{major, firstEvent, firstError}
	}
}

// WithBigRequests makes the server offer BIG-REQUESTS at major opcode
// major and answer its Enable request with max.
func WithBigRequests(major byte, max uint32) Option {
	return func(s *Server) {
		s.extensions["BIG-REQUESTS"] = extension{major: major}
		s.bigMajor, s.bigMax = major, max
	}
}

type Server struct {
	conn       *Conn
	setup      *xgb.SetupInfo
	handshake  Handshake
	handler    Handler
	extensions map[string]extension
	bigMajor   byte
	bigMax     uint32

	mu          sync.Mutex
	order       binary.ByteOrder
	pending     []byte
	established bool
	attempts    int
	authName    string
	authData    []byte
	seq         uint64
	requests    []Request
	signal      chan struct{}
}

// NewServer starts a server. Its client end is Conn.
func NewServer(opts ...Option) *Server {
	s := &Server{
		setup:      DefaultSetup(),
		extensions: make(map[string]extension),
		order:      binary.LittleEndian,
		signal:     make(chan struct{}),
	}
	s.handshake = func(order binary.ByteOrder, _ int, _ string, _ []byte) []byte {
		return SetupSuccess(order, s.setup)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.conn = NewConn("xtest", s.feed)
	return s
}

// Connect starts a server and completes the handshake with it, failing
// the test on error. The connection is closed when the test ends.
func Connect(t testing.TB, opts []Option, copts ...xgb.Option) (*xgb.Conn, *Server) {
	t.Helper()
	s := NewServer(opts...)
	c, err := xgb.NewConn(s.Conn(), copts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
		s.Close()
	})
	return c, s
}

// Conn returns the client end of the server.
func (s *Server) Conn() *Conn { return s.conn }

func (s *Server) Close() error { return s.conn.Close() }

// Setup returns the information sent in a successful setup reply.
func (s *Server) Setup() *xgb.SetupInfo { return s.setup }

// Order returns the byte order the client asked for.
func (s *Server) Order() binary.ByteOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// Auth returns the credentials of the latest setup request and how many
// setup requests were received.
func (s *Server) Auth() (name string, data []byte, attempts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authName, s.authData, s.attempts
}

// Seq returns the sequence number of the latest request.
func (s *Server) Seq() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint16(s.seq)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// WaitRequests waits until at least n requests have been received and
// returns them.
func (s *Server) WaitRequests(n int, timeout time.Duration) ([]Request, error) {
	deadline := time.After(timeout)
	for {
		s.mu.Lock()
		if len(s.requests) >= n {
			reqs := append([]Request(nil), s.requests...)
			s.mu.Unlock()
			return reqs, nil
		}
		signal := s.signal
		got := len(s.requests)
		s.mu.Unlock()

		select {
		case <-signal:
		case <-deadline:
			return nil, errors.Errorf("received %d requests after %v, want %d", got, timeout, n)
		}
	}
}

// Send writes frames to the client.
func (s *Server) Send(frames ...[]byte) error {
	var b []byte
	for _, f := range frames {
		b = append(b, f...)
	}
	return s.conn.Inject(b)
}

// feed is the reply function of the server's Conn.
func (s *Server) feed(b []byte) []byte {
	var out []byte

	s.mu.Lock()
	s.pending = append(s.pending, b...)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if !s.established {
			name, data, ok := s.parseSetup()
			order, attempt := s.order, s.attempts
			s.mu.Unlock()
			if !ok {
				return out
			}
			reply := s.handshake(order, attempt, name, data)
			if len(reply) > 0 && reply[0] == 1 {
				s.mu.Lock()
				s.established = true
				s.mu.Unlock()
			}
			out = append(out, reply...)
			continue
		}

		r, ok := s.parseRequest()
		s.mu.Unlock()
		if !ok {
			return out
		}
		out = append(out, s.answer(r)...)
	}
}

// parseSetup consumes a setup request. s.mu must be held.
func (s *Server) parseSetup() (name string, data []byte, ok bool) {
	if len(s.pending) < 12 {
		return "", nil, false
	}
	order, err := wire.OrderFromMarker(s.pending[0])
	if err != nil {
		order = binary.LittleEndian
	}
	nameLen := int(order.Uint16(s.pending[6:]))
	dataLen := int(order.Uint16(s.pending[8:]))
	total := 12 + wire.Pad(nameLen) + wire.Pad(dataLen)
	if len(s.pending) < total {
		return "", nil, false
	}

	d := wire.NewDecoder(order, s.pending[12:total])
	name = d.GetString(nameLen)
	d.Align()
	data = d.GetBytes(dataLen)

	s.pending = s.pending[total:]
	s.order = order
	s.attempts++
	s.authName, s.authData = name, data
	return name, data, true
}

// parseRequest consumes one request and assigns it a sequence number.
// s.mu must be held.
func (s *Server) parseRequest() (Request, bool) {
	if len(s.pending) < 4 {
		return Request{}, false
	}
	r := Request{Major: s.pending[0], Data: s.pending[1]}
	hdr := 4
	r.Units = uint32(s.order.Uint16(s.pending[2:]))
	if r.Units == 0 {
		if len(s.pending) < 8 {
			return Request{}, false
		}
		r.Big = true
		r.Units = s.order.Uint32(s.pending[4:])
		hdr = 8
	}
	total := int(r.Units) * 4
	if total < hdr {
		total = hdr
	}
	if len(s.pending) < total {
		return Request{}, false
	}
	r.Body = append([]byte(nil), s.pending[hdr:total]...)
	s.pending = s.pending[total:]

	s.seq++
	r.Seq = uint16(s.seq)
	s.requests = append(s.requests, r)
	close(s.signal)
	s.signal = make(chan struct{})
	return r, true
}

func (s *Server) answer(r Request) []byte {
	if s.handler != nil {
		if out := s.handler(s, r); out != nil {
			return out
		}
	}

	order := s.Order()
	switch {
	case r.Major == queryExtensionOpcode:
		d := wire.NewDecoder(order, r.Body)
		n := int(d.Get16())
		d.Skip(2)
		name := d.GetString(n)
		ext, ok := s.extensions[name]
		if !ok {
			return Reply(order, r.Seq, 0, nil)
		}
		return Reply(order, r.Seq, 0, []byte{1, ext.major, ext.firstEvent, ext.firstError})

	case r.Major == getInputFocusOpcode:
		body := make([]byte, 4)
		if len(s.setup.Roots) > 0 {
			order.PutUint32(body, s.setup.Roots[0].Root)
		}
		return Reply(order, r.Seq, 1, body)

	case s.bigMax > 0 && r.Major == s.bigMajor && r.Data == 0:
		body := make([]byte, 4)
		order.PutUint32(body, s.bigMax)
		return Reply(order, r.Seq, 0, body)
	}
	return nil
}
