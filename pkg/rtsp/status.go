package rtsp

import "strings"

// StatusMatcher decides the outcome of a handshake response. raw is the
// decoded text of the single read; resp is its parse, nil when the text
// is not a well-formed response.
type StatusMatcher interface {
	IsOK(raw string, resp *Response) bool
	IsUnauthorized(raw string, resp *Response) bool
}

// LooseMatcher looks for the status markers anywhere in the response text
type LooseMatcher struct{}

func (LooseMatcher) IsOK(raw string, _ *Response) bool {
	return strings.Contains(raw, StatusTextOK)
}

func (LooseMatcher) IsUnauthorized(raw string, _ *Response) bool {
	return strings.Contains(raw, StatusTextUnauthorized)
}

// StrictMatcher only trusts the parsed status line
type StrictMatcher struct{}

func (StrictMatcher) IsOK(_ string, resp *Response) bool {
	return resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (StrictMatcher) IsUnauthorized(_ string, resp *Response) bool {
	return resp != nil && resp.StatusCode == StatusUnauthorized
}
