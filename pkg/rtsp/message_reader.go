package rtsp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MessageReader parses RTSP responses
type MessageReader struct {
	reader *bufio.Reader
}

// NewMessageReader creates a new RTSP message reader
func NewMessageReader(r io.Reader) *MessageReader {
	return &MessageReader{
		reader: bufio.NewReader(r),
	}
}

// ParseResponse parses a response held entirely in one buffer. A body
// shorter than its Content-Length is kept as received.
func ParseResponse(raw []byte) (*Response, error) {
	return NewMessageReader(bytes.NewReader(raw)).ReadResponse()
}

// ReadResponse reads and parses an RTSP response
func (mr *MessageReader) ReadResponse() (*Response, error) {
	// Read status line
	line, err := mr.readLine()
	if err != nil {
		return nil, fmt.Errorf("failed to read status line: %w", err)
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "RTSP/") {
		return nil, fmt.Errorf("invalid status line: %q", line)
	}

	statusCode, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid status code: %s", parts[1])
	}

	statusText := ""
	if len(parts) == 3 {
		statusText = parts[2]
	}

	response := &Response{
		Version:    parts[0],
		StatusCode: statusCode,
		StatusText: statusText,
		Headers:    make(map[string]string),
	}

	// Read headers
	if err := mr.readHeaders(response.Headers); err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	// Parse CSeq
	if cseqStr := response.Headers[HeaderCSeq]; cseqStr != "" {
		if cseq, err := strconv.Atoi(cseqStr); err == nil {
			response.CSeq = cseq
		}
	}

	// Read body if Content-Length is specified
	if contentLengthStr := response.Headers[HeaderContentLength]; contentLengthStr != "" {
		contentLength, err := strconv.Atoi(contentLengthStr)
		if err != nil || contentLength < 0 {
			return nil, fmt.Errorf("invalid content length: %s", contentLengthStr)
		}

		if contentLength > 0 {
			body := make([]byte, contentLength)
			n, err := io.ReadFull(mr.reader, body)
			if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to read body: %w", err)
			}
			response.Body = body[:n]
		}
	}

	return response, nil
}

// readLine reads a line from the reader (removes \r\n)
func (mr *MessageReader) readLine() (string, error) {
	line, err := mr.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}

	// Remove \r\n
	line = strings.TrimRight(line, "\r\n")
	return line, nil
}

// readHeaders reads headers until an empty line or the end of input
func (mr *MessageReader) readHeaders(headers map[string]string) error {
	for {
		line, err := mr.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		// Empty line means end of headers
		if line == "" {
			break
		}

		// Parse header
		colonIndex := strings.Index(line, ":")
		if colonIndex == -1 {
			continue // Skip invalid header lines
		}

		key := strings.TrimSpace(line[:colonIndex])
		value := strings.TrimSpace(line[colonIndex+1:])
		headers[key] = value
	}

	return nil
}
