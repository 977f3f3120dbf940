package rtsp

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// HeaderField is a single header line
type HeaderField struct {
	Key   string
	Value string
}

// Request represents an RTSP request. Headers keep insertion order so the
// serialized form is stable.
type Request struct {
	Method  string
	URI     string
	Version string
	Headers []HeaderField
	Body    []byte
	CSeq    int
}

// Response represents an RTSP response
type Response struct {
	Version    string
	StatusCode int
	StatusText string
	Headers    map[string]string
	Body       []byte
	CSeq       int
}

// NewRequest creates a new RTSP request
func NewRequest(method, uri string) *Request {
	return &Request{
		Method:  method,
		URI:     uri,
		Version: RTSPVersion,
	}
}

// SetHeader sets a header value, replacing an existing one in place
func (r *Request) SetHeader(key, value string) {
	for i := range r.Headers {
		if r.Headers[i].Key == key {
			r.Headers[i].Value = value
			return
		}
	}
	r.Headers = append(r.Headers, HeaderField{Key: key, Value: value})
}

// GetHeader gets a header value
func (r *Request) GetHeader(key string) string {
	for _, h := range r.Headers {
		if h.Key == key {
			return h.Value
		}
	}
	return ""
}

// SetCSeq sets the CSeq header and field
func (r *Request) SetCSeq(cseq int) {
	r.CSeq = cseq
	r.SetHeader(HeaderCSeq, strconv.Itoa(cseq))
}

// String returns the string representation of the request
func (r *Request) String() string {
	var sb strings.Builder

	// Request line
	sb.WriteString(fmt.Sprintf("%s %s %s\r\n", r.Method, r.URI, r.Version))

	// Headers
	for _, h := range r.Headers {
		sb.WriteString(fmt.Sprintf("%s: %s\r\n", h.Key, h.Value))
	}

	// Empty line
	sb.WriteString("\r\n")

	// Body
	if len(r.Body) > 0 {
		sb.Write(r.Body)
	}

	return sb.String()
}

// Bytes returns the byte representation of the request
func (r *Request) Bytes() []byte {
	return []byte(r.String())
}

// GetHeader gets a header value
func (r *Response) GetHeader(key string) string {
	return r.Headers[key]
}

// Credentials hold the username and password for Basic authentication
type Credentials struct {
	Username string
	Password string
}

// BasicAuth returns the Authorization header value
func (c Credentials) BasicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username+":"+c.Password))
}

// NewOptionsRequest builds the OPTIONS request
func NewOptionsRequest(url string, cseq int) *Request {
	req := NewRequest(MethodOptions, url)
	req.SetCSeq(cseq)
	req.SetHeader(HeaderUserAgent, UserAgent)
	return req
}

// NewDescribeRequest builds the DESCRIBE request. The Authorization header
// is attached whenever credentials are given.
func NewDescribeRequest(url string, cseq int, creds *Credentials) *Request {
	req := NewRequest(MethodDescribe, url)
	req.SetCSeq(cseq)
	req.SetHeader(HeaderAccept, ContentTypeSDP)
	req.SetHeader(HeaderUserAgent, UserAgent)
	if creds != nil {
		req.SetHeader(HeaderAuthorization, creds.BasicAuth())
	}
	return req
}

// NewSetupRequest builds the SETUP request for the single video track
func NewSetupRequest(url string, cseq int) *Request {
	req := NewRequest(MethodSetup, url+SetupTrackSuffix)
	req.SetCSeq(cseq)
	req.SetHeader(HeaderTransport, SetupTransport)
	req.SetHeader(HeaderUserAgent, UserAgent)
	return req
}

// NewPlayRequest builds the PLAY request from offset zero
func NewPlayRequest(url string, cseq int) *Request {
	req := NewRequest(MethodPlay, url)
	req.SetCSeq(cseq)
	req.SetHeader(HeaderRange, PlayRange)
	req.SetHeader(HeaderUserAgent, UserAgent)
	return req
}
