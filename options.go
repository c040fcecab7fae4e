package xgb

import (
	"encoding/binary"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Authenticator answers a server that replied Authenticate to the setup
// request. It receives the server's reason string and returns the next
// authorization name and data to send. Returning an error aborts the
// handshake.
type Authenticator func(reason string) (name string, data []byte, err error)

type config struct {
	order        binary.ByteOrder
	authName     string
	authData     []byte
	authenticate Authenticator
	log          logrus.FieldLogger
	registerer   prometheus.Registerer
	errorHandler func(Error)
	writeBuffer  int
	readBuffer   int
	sndBuf       int
	rcvBuf       int
	tracer       trace.TracerProvider
	endpoint     string
}

func defaultConfig() config {
	return config{
		order:       binary.LittleEndian,
		log:         Logger,
		writeBuffer: 16 * 1024,
		readBuffer:  16 * 1024,
		tracer:      otel.GetTracerProvider(),
	}
}

// An Option configures a connection created by NewConn or Dial.
type Option func(*config)

// WithByteOrder selects the byte order announced in the setup request. All
// later traffic on the connection uses it. The default is little-endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *config) {
		c.order = order
	}
}

// WithAuth sets the authorization protocol name and data sent with the
// setup request, for example "MIT-MAGIC-COOKIE-1" and its 16-byte cookie.
func WithAuth(name string, data []byte) Option {
	return func(c *config) {
		c.authName = name
		c.authData = data
	}
}

// WithAuthenticator installs the callback used when the server answers the
// setup request with Authenticate.
func WithAuthenticator(a Authenticator) Option {
	return func(c *config) {
		c.authenticate = a
	}
}

// WithLogger sets the logger for the connection.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithMetrics registers the connection's metrics with reg. Connections
// sharing a registerer share the collectors.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}

// WithErrorHandler installs a sink for server errors that no pending
// request claims. Without one, those errors are delivered through
// WaitForEvent and PollForEvent. The handler runs on the goroutine that is
// reading the connection and must not block on it.
func WithErrorHandler(h func(Error)) Option {
	return func(c *config) {
		c.errorHandler = h
	}
}

// WithWriteBufferSize sets how many bytes of requests are coalesced before
// they are written to the transport without an explicit flush.
func WithWriteBufferSize(n int) Option {
	return func(c *config) {
		c.writeBuffer = n
	}
}

func WithReadBufferSize(n int) Option {
	return func(c *config) {
		c.readBuffer = n
	}
}

// WithSocketBuffers sets the kernel send and receive buffer sizes of the
// underlying socket when the platform allows it. Zero leaves a size alone.
func WithSocketBuffers(snd, rcv int) Option {
	return func(c *config) {
		c.sndBuf = snd
		c.rcvBuf = rcv
	}
}

// WithTracerProvider sets the provider of the tracer used for the
// handshake and extension queries. The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracer = tp
	}
}
