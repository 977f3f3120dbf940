package decoder

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// ErrSinkClosed is returned when configuring a sink after Shutdown
var ErrSinkClosed = errors.New("sink is shut down")

// AnnexBSink writes every access unit as start-code prefixed NAL units,
// producing a raw elementary stream any decoder can play back.
type AnnexBSink struct {
	w          io.Writer
	params     Params
	configured bool
	closed     bool
	firstFrame bool
	onFirst    func()
	frames     int
	mu         sync.Mutex
}

// NewAnnexBSink creates a sink writing to w
func NewAnnexBSink(w io.Writer) *AnnexBSink {
	return &AnnexBSink{w: w}
}

// Configure records the negotiated parameters
func (s *AnnexBSink) Configure(params Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	if params.Codec != CodecH264 && params.Codec != CodecH265 {
		return errors.New("unsupported codec: " + params.Codec.String())
	}

	s.params = params
	s.configured = true

	slog.Info("Annex-B sink configured", "params", params.String())
	return nil
}

// Submit writes the access unit. It rejects data before Configure and after Shutdown.
func (s *AnnexBSink) Submit(au AccessUnit, pts time.Time) bool {
	s.mu.Lock()
	if !s.configured || s.closed {
		s.mu.Unlock()
		return false
	}

	for _, nalu := range au.NALUs {
		if len(nalu) == 0 {
			continue
		}
		if _, err := s.w.Write(startCode); err != nil {
			s.mu.Unlock()
			slog.Error("Failed to write start code", "err", err)
			return false
		}
		if _, err := s.w.Write(nalu); err != nil {
			s.mu.Unlock()
			slog.Error("Failed to write NAL unit", "err", err)
			return false
		}
	}
	s.frames++

	var notify func()
	if !s.firstFrame {
		s.firstFrame = true
		notify = s.onFirst
	}
	s.mu.Unlock()

	slog.Debug("Access unit written", "size", au.Size(), "pts", pts.UnixMilli())

	if notify != nil {
		notify()
	}
	return true
}

// OnFirstFrameRendered sets the callback fired after the first written unit
func (s *AnnexBSink) OnFirstFrameRendered(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFirst = callback
}

// Shutdown stops accepting units
func (s *AnnexBSink) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	slog.Info("Annex-B sink shut down", "frames", s.frames)
}

// Frames returns the number of access units written
func (s *AnnexBSink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// WriterDisplay is a Display whose sinks write Annex-B to a single writer
type WriterDisplay struct {
	w io.Writer
}

// NewWriterDisplay creates a display backed by w
func NewWriterDisplay(w io.Writer) *WriterDisplay {
	return &WriterDisplay{w: w}
}

// NewSink creates an AnnexBSink bound to the display's writer
func (d *WriterDisplay) NewSink() (Sink, error) {
	if d.w == nil {
		return nil, errors.New("display has no writer")
	}
	return NewAnnexBSink(d.w), nil
}
