package rtsp

import (
	"errors"
	"fmt"
)

// Error kinds reported through HandshakeError
var (
	ErrConnect      = errors.New("connect error")
	ErrProtocol     = errors.New("protocol error")
	ErrAuth         = errors.New("unauthorized")
	ErrTransport    = errors.New("transport error")
	ErrDecoderSetup = errors.New("decoder setup error")
)

// HandshakeError describes why a session attempt failed
type HandshakeError struct {
	Step string // RTSP method, or "CONNECT", "DECODER", "RECEIVE"
	Kind error
	Err  error
}

func (e *HandshakeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Step, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Step, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *HandshakeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stepError(step string, kind, err error) *HandshakeError {
	return &HandshakeError{Step: step, Kind: kind, Err: err}
}
