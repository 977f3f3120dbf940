package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"
)

// Transport is a byte-stream connection to a host:port endpoint.
// It has no protocol knowledge; callers are responsible for framing.
type Transport interface {
	Connect(ctx context.Context, host string, port int) error
	Write(data []byte) error
	// Read returns up to maxLength bytes. A zero-length result with a nil
	// error means the peer closed the stream.
	Read(maxLength int) ([]byte, error)
	Close()
}

// ReadTimeouter is implemented by transports that support a per-read deadline
type ReadTimeouter interface {
	SetReadTimeout(timeout time.Duration)
}

// Result is delivered by the asynchronous socket operations
type Result struct {
	Data []byte
	Err  error
}

// Socket is a TCP Transport
type Socket struct {
	conn        net.Conn
	dialTimeout time.Duration
	readTimeout time.Duration
	closed      bool
	mu          sync.RWMutex
}

// NewSocket creates an unconnected socket
func NewSocket() *Socket {
	return &Socket{
		dialTimeout: DefaultDialTimeout,
	}
}

// DefaultDialTimeout bounds Connect when the context has no deadline
const DefaultDialTimeout = 10 * time.Second

// SetDialTimeout sets the timeout used by Connect; zero disables it
func (s *Socket) SetDialTimeout(timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialTimeout = timeout
}

// SetReadTimeout sets a deadline applied before every read; zero disables it
func (s *Socket) SetReadTimeout(timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readTimeout = timeout
}

// Connect establishes the TCP connection. A socket connects at most once.
func (s *Socket) Connect(ctx context.Context, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	s.mu.Lock()
	if s.conn != nil || s.closed {
		s.mu.Unlock()
		return &ConnectError{Addr: addr, Err: errors.New("socket already used")}
	}
	dialer := net.Dialer{Timeout: s.dialTimeout}
	s.mu.Unlock()

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &ConnectError{Addr: addr, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		conn.Close()
		return &ConnectError{Addr: addr, Err: ErrNotConnected}
	}
	s.conn = conn

	slog.Debug("Socket connected", "addr", addr, "localAddr", conn.LocalAddr())
	return nil
}

// Write sends all bytes, retrying partial writes
func (s *Socket) Write(data []byte) error {
	conn := s.current()
	if conn == nil {
		return &WriteError{Err: ErrNotConnected}
	}

	written := 0
	for written < len(data) {
		n, err := conn.Write(data[written:])
		written += n
		if err != nil {
			return &WriteError{Written: written, Err: err}
		}
	}
	return nil
}

// Read blocks until at least one byte is available, the peer closes the
// stream, or an error occurs.
func (s *Socket) Read(maxLength int) ([]byte, error) {
	s.mu.RLock()
	conn := s.conn
	timeout := s.readTimeout
	s.mu.RUnlock()

	if conn == nil {
		return nil, &ReadError{Err: ErrNotConnected}
	}
	if maxLength <= 0 {
		return nil, &ReadError{Err: errors.New("invalid read length")}
	}

	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, &ReadError{Err: fmt.Errorf("set read deadline: %w", err)}
	}

	buf := make([]byte, maxLength)
	n, err := conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return buf[:0], nil
	}
	return nil, &ReadError{Err: err}
}

// ReadAsync performs Read on its own goroutine
func (s *Socket) ReadAsync(maxLength int) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		data, err := s.Read(maxLength)
		ch <- Result{Data: data, Err: err}
	}()
	return ch
}

// WriteAsync performs Write on its own goroutine
func (s *Socket) WriteAsync(data []byte) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- Result{Err: s.Write(data)}
	}()
	return ch
}

// Close releases the connection. Safe to call multiple times.
func (s *Socket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			slog.Debug("Error closing socket", "err", err)
		}
		s.conn = nil
	}
}

func (s *Socket) current() net.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}
