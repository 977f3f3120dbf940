// Package decoder defines the contract between the RTP depacketizer and the
// video decoder/display pipeline that consumes its access units.
package decoder

import (
	"fmt"
	"time"
)

// Codec identifies the video elementary stream format
type Codec int

const (
	CodecUnknown Codec = iota
	CodecH264
	CodecH265
)

// String returns the string representation of the codec
func (c Codec) String() string {
	switch c {
	case CodecH264:
		return "H264"
	case CodecH265:
		return "H265"
	default:
		return "Unknown"
	}
}

// Default video dimensions used when the SDP carries none
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Params are the video parameters negotiated through DESCRIBE
type Params struct {
	Width  int
	Height int
	Codec  Codec

	// Informational fields decoded from a well-formed SDP body
	SessionName string
	Control     string
	RTPMap      string
}

// String returns a short representation of the parameters
func (p Params) String() string {
	return fmt.Sprintf("%dx%d %s", p.Width, p.Height, p.Codec)
}

// AccessUnit is one decodable frame's worth of NAL units
type AccessUnit struct {
	Codec        Codec
	NALUs        [][]byte
	Marker       bool
	RTPTimestamp uint32
}

// Size returns the total payload size in bytes
func (au AccessUnit) Size() int {
	n := 0
	for _, nalu := range au.NALUs {
		n += len(nalu)
	}
	return n
}

// Sink consumes access units. Implementations decode and present them.
type Sink interface {
	Configure(params Params) error
	// Submit hands over an access unit; ownership transfers to the sink.
	// It returns false when the sink cannot take more data right now.
	Submit(au AccessUnit, pts time.Time) bool
	OnFirstFrameRendered(callback func())
	Shutdown()
}

// Display is the presentation target a Sink is bound to
type Display interface {
	NewSink() (Sink, error)
}
