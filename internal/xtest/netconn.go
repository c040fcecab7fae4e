package xtest

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

type Addr struct {
	s string
}

func (Addr) Network() string  { return "xtest" }
func (a Addr) String() string { return a.s }

var (
	ErrClosed = errors.New("server closed")
	ErrWrite  = errors.New("server write failed")
	ErrRead   = errors.New("server read failed")
)

type ioResult struct {
	n   int
	err error
}

type ioReq struct {
	b      []byte
	result chan ioResult
}

type (
	ctlWriteLock    struct{}
	ctlWriteUnlock  struct{}
	ctlWriteError   struct{}
	ctlWriteSuccess struct{}
	ctlReadLock     struct{}
	ctlReadUnlock   struct{}
	ctlReadError    struct{}
	ctlReadSuccess  struct{}
	ctlInject       struct{ b []byte }
)

// Conn is an in-memory net.Conn whose far end is a function. Needs to be
// constructed via NewConn.
//
// Every successful Write is passed to the reply function and whatever it
// returns becomes readable. Inject makes bytes readable without a write,
// the way a server sends events. Reads honour read deadlines, failing with
// os.ErrDeadlineExceeded, so a blocked reader can be interrupted.
//
// It is the user's responsibility to stop and clean up with Close.
// By default Write and Read are unlocked and do not fail.
type Conn struct {
	reply   func([]byte) []byte
	addr    Addr
	in, out chan ioReq
	control chan interface{}
	done    chan struct{}

	mu              sync.Mutex
	readDeadline    time.Time
	deadlineChanged chan struct{}
}

// NewConn starts the goroutine serving a Conn. name is returned by the
// address methods. reply is run only on successful writes, in the Conn's
// goroutine; it must not call back into the Conn.
func NewConn(name string, reply func([]byte) []byte) *Conn {
	s := &Conn{
		reply:           reply,
		addr:            Addr{name},
		in:              make(chan ioReq),
		out:             make(chan ioReq),
		control:         make(chan interface{}),
		done:            make(chan struct{}),
		deadlineChanged: make(chan struct{}),
	}

	in, out := s.in, chan ioReq(nil)
	buf := &bytes.Buffer{}
	errorRead, errorWrite := false, false
	lockRead := false

	readable := func() {
		if !lockRead && (buf.Len() > 0 || errorRead) && out == nil {
			out = s.out
		}
	}

	go func() {
		defer close(s.done)
		for {
			select {
			case req := <-in:
				if errorWrite {
					req.result <- ioResult{0, ErrWrite}
					break
				}

				response := s.reply(req.b)

				buf.Write(response)
				req.result <- ioResult{len(req.b), nil}
				readable()
			case req := <-out:
				if errorRead {
					req.result <- ioResult{0, ErrRead}
					break
				}

				n, err := buf.Read(req.b)
				req.result <- ioResult{n, err}

				if buf.Len() == 0 && !errorRead {
					out = nil
				}
			case ci := <-s.control:
				if ci == nil {
					return
				}
				switch ci := ci.(type) {
				case ctlWriteLock:
					in = nil
				case ctlWriteUnlock:
					in = s.in
				case ctlWriteError:
					errorWrite = true
				case ctlWriteSuccess:
					errorWrite = false
				case ctlReadLock:
					out = nil
					lockRead = true
				case ctlReadUnlock:
					lockRead = false
					readable()
				case ctlReadError:
					errorRead = true
					readable()
				case ctlReadSuccess:
					errorRead = false
					if buf.Len() == 0 {
						out = nil
					}
				case ctlInject:
					buf.Write(ci.b)
					readable()
				}
			}
		}
	}()
	return s
}

// Close shuts the Conn down. Every blocked or future call returns an
// error. The result is ErrClosed if the Conn was already closed.
func (s *Conn) Close() error {
	select {
	case s.control <- nil:
		<-s.done
		return nil
	case <-s.done:
	}
	return ErrClosed
}

// Write hands b to the reply function. It blocks while writing is locked,
// and returns (0, ErrWrite) after WriteError.
func (s *Conn) Write(b []byte) (int, error) {
	resChan := make(chan ioResult)
	select {
	case s.in <- ioReq{b, resChan}:
		res := <-resChan
		return res.n, res.err
	case <-s.done:
	}
	return 0, ErrClosed
}

// Read blocks until bytes are readable, reading is unlocked, the read
// deadline passes or the Conn is closed. After ReadError it returns
// (0, ErrRead); after Close it returns io.EOF.
func (s *Conn) Read(b []byte) (int, error) {
	resChan := make(chan ioResult)
	for {
		s.mu.Lock()
		deadline, changed := s.readDeadline, s.deadlineChanged
		s.mu.Unlock()

		var timer *time.Timer
		var timeout <-chan time.Time
		if !deadline.IsZero() {
			d := time.Until(deadline)
			if d <= 0 {
				return 0, os.ErrDeadlineExceeded
			}
			timer = time.NewTimer(d)
			timeout = timer.C
		}

		n, again, err := s.read(b, resChan, timeout, changed)
		if timer != nil {
			timer.Stop()
		}
		if !again {
			return n, err
		}
	}
}

func (s *Conn) read(b []byte, resChan chan ioResult, timeout <-chan time.Time, changed <-chan struct{}) (int, bool, error) {
	select {
	case s.out <- ioReq{b, resChan}:
		res := <-resChan
		return res.n, false, res.err
	case <-s.done:
		return 0, false, io.EOF
	case <-timeout:
		return 0, false, os.ErrDeadlineExceeded
	case <-changed:
		return 0, true, nil
	}
}

func (s *Conn) LocalAddr() net.Addr  { return s.addr }
func (s *Conn) RemoteAddr() net.Addr { return s.addr }

func (s *Conn) SetDeadline(t time.Time) error {
	return s.SetReadDeadline(t)
}

// SetReadDeadline wakes blocked readers so that they see the new
// deadline.
func (s *Conn) SetReadDeadline(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readDeadline = t
	close(s.deadlineChanged)
	s.deadlineChanged = make(chan struct{})
	return nil
}

// Writes never block on time.
func (s *Conn) SetWriteDeadline(t time.Time) error { return nil }

func (s *Conn) Control(i interface{}) error {
	select {
	case s.control <- i:
		return nil
	case <-s.done:
	}
	return ErrClosed
}

// Inject makes b readable as if the far end had sent it unprompted.
func (s *Conn) Inject(b []byte) error {
	return s.Control(ctlInject{append([]byte(nil), b...)})
}

// Locks writing. All write requests will be blocked until write is
// unlocked with WriteUnlock, or the Conn closes.
func (s *Conn) WriteLock() error {
	return s.Control(ctlWriteLock{})
}

func (s *Conn) WriteUnlock() error {
	return s.Control(ctlWriteUnlock{})
}

// Unlocks writing and makes Write return (0, ErrWrite).
func (s *Conn) WriteError() error {
	if err := s.WriteUnlock(); err != nil {
		return err
	}
	return s.Control(ctlWriteError{})
}

func (s *Conn) WriteSuccess() error {
	if err := s.WriteUnlock(); err != nil {
		return err
	}
	return s.Control(ctlWriteSuccess{})
}

// Locks reading. Read blocks even when bytes are readable, until
// ReadUnlock.
func (s *Conn) ReadLock() error {
	return s.Control(ctlReadLock{})
}

func (s *Conn) ReadUnlock() error {
	return s.Control(ctlReadUnlock{})
}

// Unlocks reading and makes every blocked and following Read fail.
func (s *Conn) ReadError() error {
	if err := s.ReadUnlock(); err != nil {
		return err
	}
	return s.Control(ctlReadError{})
}

func (s *Conn) ReadSuccess() error {
	if err := s.ReadUnlock(); err != nil {
		return err
	}
	return s.Control(ctlReadSuccess{})
}
