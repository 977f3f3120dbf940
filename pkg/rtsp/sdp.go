package rtsp

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"rtspplayer/pkg/decoder"

	"github.com/pion/sdp/v3"
)

var (
	widthPattern  = regexp.MustCompile(`width=(\d+)`)
	heightPattern = regexp.MustCompile(`height=(\d+)`)
)

// ParseVideoParams extracts the video parameters from a DESCRIBE body.
// Dimensions come from width=/height= fields and default to 640x480 unless
// both are present. The codec defaults to H264 when neither codec is named.
func ParseVideoParams(body string) decoder.Params {
	return parseVideoParams(body, slog.Default())
}

func parseVideoParams(body string, log *slog.Logger) decoder.Params {
	params := decoder.Params{
		Width:  decoder.DefaultWidth,
		Height: decoder.DefaultHeight,
		Codec:  detectCodec(body, log),
	}

	wm := widthPattern.FindStringSubmatch(body)
	hm := heightPattern.FindStringSubmatch(body)
	if wm != nil && hm != nil {
		if w, err := strconv.Atoi(wm[1]); err == nil {
			params.Width = w
		}
		if h, err := strconv.Atoi(hm[1]); err == nil {
			params.Height = h
		}
	}

	describeSession(body, &params, log)
	return params
}

func detectCodec(body string, log *slog.Logger) decoder.Codec {
	lower := strings.ToLower(body)

	switch {
	case strings.Contains(lower, "h264"), strings.Contains(lower, "avc1"):
		return decoder.CodecH264
	case strings.Contains(lower, "h265"), strings.Contains(lower, "hevc"):
		return decoder.CodecH265
	default:
		log.Warn("Unknown video codec in SDP, defaulting to H.264")
		return decoder.CodecH264
	}
}

// describeSession fills the informational fields when the body is valid SDP
func describeSession(body string, params *decoder.Params, log *slog.Logger) {
	var sd sdp.SessionDescription
	if err := sd.Unmarshal([]byte(body)); err != nil {
		log.Debug("SDP body is not well formed, skipping session details", "err", err)
		return
	}

	params.SessionName = string(sd.SessionName)

	for _, md := range sd.MediaDescriptions {
		if md.MediaName.Media != "video" {
			continue
		}
		if control, ok := md.Attribute("control"); ok {
			params.Control = control
		}
		if rtpmap, ok := md.Attribute("rtpmap"); ok {
			params.RTPMap = rtpmap
		}
		break
	}
}

// responseBody returns the part of a DESCRIBE response to scan for SDP fields
func responseBody(raw string, resp *Response) string {
	if resp != nil && len(resp.Body) > 0 {
		return string(resp.Body)
	}
	if i := strings.Index(raw, "\r\n\r\n"); i >= 0 && i+4 < len(raw) {
		return raw[i+4:]
	}
	return raw
}
