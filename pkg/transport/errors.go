package transport

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when the socket is used before Connect or after Close.
var ErrNotConnected = errors.New("socket is not connected")

// ConnectError reports a failure to establish the stream connection
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// WriteError reports an unrecoverable write failure
type WriteError struct {
	Written int
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed after %d bytes: %v", e.Written, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError reports a read failure other than an orderly peer close
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read failed: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
