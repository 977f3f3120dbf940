package rtsp

import (
	"rtspplayer/pkg/transport"
)

// MessageWriter writes RTSP requests onto a transport
type MessageWriter struct {
	transport transport.Transport
}

// NewMessageWriter creates a new RTSP message writer
func NewMessageWriter(t transport.Transport) *MessageWriter {
	return &MessageWriter{
		transport: t,
	}
}

// WriteRequest writes an RTSP request
func (mw *MessageWriter) WriteRequest(req *Request) error {
	return mw.transport.Write(req.Bytes())
}
