package rtsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSerialization(t *testing.T) {
	url := "rtsp://192.168.1.10:554/stream1"

	tests := []struct {
		name     string
		req      *Request
		expected string
	}{
		{
			"options",
			NewOptionsRequest(url, 1),
			"OPTIONS rtsp://192.168.1.10:554/stream1 RTSP/1.0\r\nCSeq: 1\r\nUser-Agent: RTSPClientSwift\r\n\r\n",
		},
		{
			"describe without credentials",
			NewDescribeRequest(url, 2, nil),
			"DESCRIBE rtsp://192.168.1.10:554/stream1 RTSP/1.0\r\nCSeq: 2\r\nAccept: application/sdp\r\nUser-Agent: RTSPClientSwift\r\n\r\n",
		},
		{
			"describe with credentials",
			NewDescribeRequest(url, 2, &Credentials{Username: "user", Password: "pass"}),
			"DESCRIBE rtsp://192.168.1.10:554/stream1 RTSP/1.0\r\nCSeq: 2\r\nAccept: application/sdp\r\nUser-Agent: RTSPClientSwift\r\nAuthorization: Basic dXNlcjpwYXNz\r\n\r\n",
		},
		{
			"setup",
			NewSetupRequest(url, 3),
			"SETUP rtsp://192.168.1.10:554/stream1/trackID=1 RTSP/1.0\r\nCSeq: 3\r\nTransport: RTP/AVP;unicast;client_port=5000-5001\r\nUser-Agent: RTSPClientSwift\r\n\r\n",
		},
		{
			"play",
			NewPlayRequest(url, 4),
			"PLAY rtsp://192.168.1.10:554/stream1 RTSP/1.0\r\nCSeq: 4\r\nRange: npt=0.000-\r\nUser-Agent: RTSPClientSwift\r\n\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.req.String())
			assert.Equal(t, []byte(tt.expected), tt.req.Bytes())
		})
	}
}

func TestRequestSetHeaderReplacesInPlace(t *testing.T) {
	req := NewRequest(MethodOptions, "*")
	req.SetCSeq(1)
	req.SetHeader(HeaderUserAgent, "a")
	req.SetCSeq(7)

	assert.Equal(t, 7, req.CSeq)
	assert.Equal(t, "7", req.GetHeader(HeaderCSeq))
	assert.Equal(t, "OPTIONS * RTSP/1.0\r\nCSeq: 7\r\nUser-Agent: a\r\n\r\n", req.String())
	assert.Equal(t, "", req.GetHeader(HeaderSession))
}

func TestCredentialsBasicAuth(t *testing.T) {
	assert.Equal(t, "Basic YWRtaW46MTIzNDU=", Credentials{Username: "admin", Password: "12345"}.BasicAuth())
	assert.Equal(t, "Basic Og==", Credentials{}.BasicAuth())
}

func TestParseResponse(t *testing.T) {
	raw := "RTSP/1.0 200 OK\r\nCSeq: 2\r\nContent-Type: application/sdp\r\nContent-Length: 5\r\n\r\nv=0\r\n"

	resp, err := ParseResponse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "RTSP/1.0", resp.Version)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "OK", resp.StatusText)
	assert.Equal(t, 2, resp.CSeq)
	assert.Equal(t, "application/sdp", resp.GetHeader(HeaderContentType))
	assert.Equal(t, "v=0\r\n", string(resp.Body))
}

func TestParseResponseTruncatedBody(t *testing.T) {
	raw := "RTSP/1.0 200 OK\r\nCSeq: 2\r\nContent-Length: 500\r\n\r\nv=0\r\n"

	resp, err := ParseResponse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "v=0\r\n", string(resp.Body))
}

func TestParseResponseWithoutBlankLine(t *testing.T) {
	resp, err := ParseResponse([]byte("RTSP/1.0 401 Unauthorized\r\nCSeq: 2"))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, 2, resp.CSeq)
}

func TestParseResponseErrors(t *testing.T) {
	for _, raw := range []string{
		"",
		"garbage",
		"HTTP/1.1 200 OK\r\n\r\n",
		"RTSP/1.0 abc OK\r\n\r\n",
		"RTSP/1.0 200 OK\r\nContent-Length: x\r\n\r\n",
	} {
		_, err := ParseResponse([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestStatusMatchers(t *testing.T) {
	ok := "RTSP/1.0 200 OK\r\nCSeq: 1\r\n\r\n"
	unauthorized := "RTSP/1.0 401 Unauthorized\r\nCSeq: 2\r\n\r\n"
	created := "RTSP/1.0 201 Created\r\n\r\n"

	parse := func(raw string) *Response {
		resp, err := ParseResponse([]byte(raw))
		require.NoError(t, err)
		return resp
	}

	loose := LooseMatcher{}
	assert.True(t, loose.IsOK(ok, nil))
	assert.False(t, loose.IsOK(unauthorized, nil))
	assert.False(t, loose.IsOK(created, nil))
	assert.True(t, loose.IsUnauthorized(unauthorized, nil))
	assert.False(t, loose.IsUnauthorized(ok, nil))

	strict := StrictMatcher{}
	assert.True(t, strict.IsOK(ok, parse(ok)))
	assert.True(t, strict.IsOK(created, parse(created)))
	assert.False(t, strict.IsOK(ok, nil))
	assert.True(t, strict.IsUnauthorized(unauthorized, parse(unauthorized)))
	assert.False(t, strict.IsUnauthorized(ok, parse(ok)))
}

func TestHandshakeErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	err := stepError(MethodSetup, ErrProtocol, cause)

	assert.ErrorIs(t, err, ErrProtocol)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrAuth)
	assert.Equal(t, "SETUP: protocol error: "+cause.Error(), err.Error())

	assert.Equal(t, "DESCRIBE: unauthorized", stepError(MethodDescribe, ErrAuth, nil).Error())
}
