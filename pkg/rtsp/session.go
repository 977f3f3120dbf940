package rtsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"rtspplayer/pkg/decoder"
	"rtspplayer/pkg/rtp"
	"rtspplayer/pkg/transport"

	"github.com/google/uuid"
)

// SessionState represents the current state of an RTSP client session
type SessionState int

const (
	StateIdle SessionState = iota
	StateConnecting
	StateOptions
	StateDescribe
	StateSetup
	StatePlay
	StateStreaming
	StateStopped
	StateFailed
)

// String returns the string representation of the session state
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateOptions:
		return "Options"
	case StateDescribe:
		return "Describe"
	case StateSetup:
		return "Setup"
	case StatePlay:
		return "Play"
	case StateStreaming:
		return "Streaming"
	case StateStopped:
		return "Stopped"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// active reports whether an attempt is in progress in this state
func (s SessionState) active() bool {
	return s >= StateConnecting && s <= StateStreaming
}

// Session is an RTSP client that negotiates a single video track and
// streams its RTP packets to a decoder sink.
//
// Every Start opens a new attempt identified by a generation number.
// Background goroutines carry the generation they were started for and
// stop touching the session once it changes; Stop bumps it under the
// mutex before releasing the transport and the sink.
type Session struct {
	mu sync.Mutex

	sessionId      string
	url            string
	credentials    *Credentials
	display        decoder.Display
	receiveTimeout time.Duration

	state   SessionState
	started bool
	gen     uint64
	cancel  context.CancelFunc
	cseq    int
	params  decoder.Params
	lastErr error

	transport    transport.Transport
	sink         decoder.Sink
	depacketizer *rtp.Depacketizer

	observer     Observer
	newTransport func() transport.Transport
	matcher      StatusMatcher
	clock        func() time.Time
	log          *slog.Logger
}

// Option configures a Session
type Option func(*Session)

// WithObserver sets the status observer
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithTransportFactory replaces the TCP socket used for each attempt
func WithTransportFactory(factory func() transport.Transport) Option {
	return func(s *Session) {
		s.newTransport = factory
	}
}

// WithStatusMatcher replaces the loose status matching
func WithStatusMatcher(m StatusMatcher) Option {
	return func(s *Session) {
		s.matcher = m
	}
}

// WithClock replaces the presentation clock
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.log = logger
	}
}

// NewSession creates an idle session
func NewSession(opts ...Option) *Session {
	s := &Session{
		state:    StateIdle,
		observer: nopObserver{},
		newTransport: func() transport.Transport {
			return transport.NewSocket()
		},
		matcher: LooseMatcher{},
		clock:   time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetObserver replaces the status observer
func (s *Session) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

// SetCredentials attaches credentials sent with every DESCRIBE
func (s *Session) SetCredentials(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = &Credentials{Username: username, Password: password}
}

// SetReceiveTimeout bounds every transport read; zero disables the bound
func (s *Session) SetReceiveTimeout(ms int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ms < 0 {
		ms = 0
	}
	s.receiveTimeout = time.Duration(ms) * time.Millisecond
	if rt, ok := s.transport.(transport.ReadTimeouter); ok {
		rt.SetReadTimeout(s.receiveTimeout)
	}
}

// BindDisplay sets the presentation target the decoder sink is created for
func (s *Session) BindDisplay(display decoder.Display) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = display
}

// State returns the current state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Params returns the negotiated video parameters
func (s *Session) Params() decoder.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SessionId returns the id of the current attempt
func (s *Session) SessionId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionId
}

// URL returns the URL of the current attempt
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// LastError returns the error behind the latest failure
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Stats returns the depacketizer counters of the streaming attempt
func (s *Session) Stats() rtp.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.depacketizer == nil {
		return rtp.Stats{}
	}
	return s.depacketizer.Stats()
}

// Start begins a new attempt against rawURL. The handshake runs in the
// background; Start returns false without side effects while another
// attempt is connecting or streaming.
func (s *Session) Start(rawURL string) bool {
	s.mu.Lock()
	if s.state.active() {
		s.mu.Unlock()
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.sessionId = uuid.NewString()
	s.url = rawURL
	s.started = true
	s.state = StateConnecting
	s.cseq = 0
	s.params = decoder.Params{}
	s.lastErr = nil
	sessionId := s.sessionId
	observer := s.observer
	s.mu.Unlock()

	s.log.Info("RTSP session starting", "sessionId", sessionId, "url", rawURL)
	observer.OnConnecting()

	go s.connect(ctx, gen, rawURL)
	return true
}

// Stop ends the current attempt. It halts the receive loop, releases the
// decoder sink and closes the transport before returning. Stop is a no-op
// when the session was never started.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}

	s.started = false
	s.gen++
	s.state = StateStopped
	cancel, t, sink, dp := s.release()
	sessionId := s.sessionId
	observer := s.observer
	s.mu.Unlock()

	teardown(cancel, t, sink, dp)

	s.log.Info("RTSP session stopped", "sessionId", sessionId)
	observer.OnDisconnected()
}

// release detaches the owned resources. Caller holds mu.
func (s *Session) release() (context.CancelFunc, transport.Transport, decoder.Sink, *rtp.Depacketizer) {
	cancel, t, sink, dp := s.cancel, s.transport, s.sink, s.depacketizer
	s.cancel = nil
	s.transport = nil
	s.sink = nil
	s.depacketizer = nil
	return cancel, t, sink, dp
}

// teardown stops the depacketizer first so no unit reaches a released sink
func teardown(cancel context.CancelFunc, t transport.Transport, sink decoder.Sink, dp *rtp.Depacketizer) {
	if cancel != nil {
		cancel()
	}
	if dp != nil {
		dp.Close()
	}
	if sink != nil {
		sink.Shutdown()
	}
	if t != nil {
		t.Close()
	}
}

// current reports whether gen is still the live attempt. Caller holds mu.
func (s *Session) current(gen uint64) bool {
	return s.gen == gen && s.state.active()
}

func (s *Session) setState(gen uint64, state SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return false
	}
	s.state = state
	return true
}

// nextCSeq numbers the next request of attempt gen. A superseded attempt
// gets errSuperseded and leaves the counter of the current one untouched.
func (s *Session) nextCSeq(gen uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return 0, errSuperseded
	}
	s.cseq++
	return s.cseq, nil
}

// fail ends the attempt with a failure notification, unless a Stop or a
// newer Start already superseded it.
func (s *Session) fail(gen uint64, message string, err error) {
	s.finish(gen, err, func(sessionId string, o Observer) {
		s.log.Error("RTSP session failed", "sessionId", sessionId, "message", message, "err", err)
		o.OnFailed(message)
	})
}

func (s *Session) unauthorized(gen uint64, err error) {
	s.finish(gen, err, func(sessionId string, o Observer) {
		s.log.Warn("RTSP session unauthorized", "sessionId", sessionId, "err", err)
		o.OnUnauthorized()
	})
}

func (s *Session) finish(gen uint64, err error, notify func(string, Observer)) {
	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.lastErr = err
	cancel, t, sink, dp := s.release()
	sessionId := s.sessionId
	observer := s.observer
	s.mu.Unlock()

	teardown(cancel, t, sink, dp)
	notify(sessionId, observer)
}

// connect runs the OPTIONS, DESCRIBE, SETUP, PLAY handshake
func (s *Session) connect(ctx context.Context, gen uint64, rawURL string) {
	host, port, err := splitURL(rawURL)
	if err != nil {
		message := "RTSP URL is not set"
		if rawURL != "" {
			message = fmt.Sprintf("Invalid RTSP URL: %v", err)
		}
		s.fail(gen, message, stepError("CONNECT", ErrConnect, err))
		return
	}

	t := s.newTransport()

	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		t.Close()
		return
	}
	s.transport = t
	if rt, ok := t.(transport.ReadTimeouter); ok && s.receiveTimeout > 0 {
		rt.SetReadTimeout(s.receiveTimeout)
	}
	s.mu.Unlock()

	if err := t.Connect(ctx, host, port); err != nil {
		s.fail(gen, fmt.Sprintf("Socket connection failed: %v", err), stepError("CONNECT", ErrConnect, err))
		return
	}
	s.log.Debug("RTSP control connection established", "host", host, "port", port)

	if err := s.sendOptions(gen, t, rawURL); err != nil {
		s.fail(gen, "Failed to send OPTIONS request", err)
		return
	}

	if err := s.sendDescribe(gen, t, rawURL); err != nil {
		if errors.Is(err, ErrAuth) {
			s.unauthorized(gen, err)
			return
		}
		s.fail(gen, "Failed to send DESCRIBE request", err)
		return
	}

	if err := s.sendSetup(gen, t, rawURL); err != nil {
		s.fail(gen, "Failed to send SETUP request", err)
		return
	}

	if err := s.sendPlay(gen, t, rawURL); err != nil {
		s.fail(gen, "Failed to send PLAY request", err)
		return
	}

	s.startStreaming(gen, t)
}

// errSuperseded aborts a handshake whose attempt was stopped
var errSuperseded = errors.New("session attempt superseded")

// roundTrip writes req and performs exactly one read for the response.
// A response split across reads is not reassembled.
func (s *Session) roundTrip(gen uint64, state SessionState, t transport.Transport, req *Request) (string, *Response, error) {
	if !s.setState(gen, state) {
		return "", nil, errSuperseded
	}

	s.log.Debug("RTSP request", "method", req.Method, "uri", req.URI, "cseq", req.CSeq)

	if err := NewMessageWriter(t).WriteRequest(req); err != nil {
		return "", nil, stepError(req.Method, ErrTransport, err)
	}

	data, err := t.Read(ResponseBufferSize)
	if err != nil {
		return "", nil, stepError(req.Method, ErrTransport, err)
	}

	raw := string(data)
	resp, err := ParseResponse(data)
	if err != nil {
		s.log.Debug("RTSP response not well formed", "method", req.Method, "err", err)
		resp = nil
	} else {
		s.log.Debug("RTSP response", "method", req.Method, "status", resp.StatusCode, "cseq", resp.CSeq)
	}
	return raw, resp, nil
}

func (s *Session) expectOK(req *Request, raw string, resp *Response) error {
	if s.matcher.IsOK(raw, resp) {
		return nil
	}
	return stepError(req.Method, ErrProtocol, fmt.Errorf("unexpected response: %q", statusLine(raw)))
}

func (s *Session) sendOptions(gen uint64, t transport.Transport, rawURL string) error {
	cseq, err := s.nextCSeq(gen)
	if err != nil {
		return err
	}
	req := NewOptionsRequest(rawURL, cseq)
	raw, resp, err := s.roundTrip(gen, StateOptions, t, req)
	if err != nil {
		return err
	}
	return s.expectOK(req, raw, resp)
}

func (s *Session) sendDescribe(gen uint64, t transport.Transport, rawURL string) error {
	s.mu.Lock()
	var creds *Credentials
	if s.credentials != nil {
		c := *s.credentials
		creds = &c
	}
	s.mu.Unlock()

	cseq, err := s.nextCSeq(gen)
	if err != nil {
		return err
	}
	req := NewDescribeRequest(rawURL, cseq, creds)
	raw, resp, err := s.roundTrip(gen, StateDescribe, t, req)
	if err != nil {
		return err
	}

	if s.matcher.IsUnauthorized(raw, resp) {
		var challenge error
		if resp != nil && resp.GetHeader(HeaderWWWAuthenticate) != "" {
			challenge = fmt.Errorf("server requires %s", resp.GetHeader(HeaderWWWAuthenticate))
		}
		return stepError(req.Method, ErrAuth, challenge)
	}
	if err := s.expectOK(req, raw, resp); err != nil {
		return err
	}

	params := parseVideoParams(responseBody(raw, resp), s.log)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return errSuperseded
	}
	s.params = params

	s.log.Info("SDP negotiated", "sessionId", s.sessionId, "params", params.String(),
		"sessionName", params.SessionName, "control", params.Control)
	return nil
}

func (s *Session) sendSetup(gen uint64, t transport.Transport, rawURL string) error {
	cseq, err := s.nextCSeq(gen)
	if err != nil {
		return err
	}
	req := NewSetupRequest(rawURL, cseq)
	raw, resp, err := s.roundTrip(gen, StateSetup, t, req)
	if err != nil {
		return err
	}
	return s.expectOK(req, raw, resp)
}

func (s *Session) sendPlay(gen uint64, t transport.Transport, rawURL string) error {
	cseq, err := s.nextCSeq(gen)
	if err != nil {
		return err
	}
	req := NewPlayRequest(rawURL, cseq)
	raw, resp, err := s.roundTrip(gen, StatePlay, t, req)
	if err != nil {
		return err
	}
	return s.expectOK(req, raw, resp)
}

// startStreaming creates the decoder sink, then the depacketizer and the
// receive loop, and reports the session connected.
func (s *Session) startStreaming(gen uint64, t transport.Transport) {
	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return
	}
	display := s.display
	params := s.params
	s.mu.Unlock()

	if display == nil {
		s.fail(gen, "Video display view is not set", stepError("DECODER", ErrDecoderSetup, errors.New("no display bound")))
		return
	}

	sink, err := display.NewSink()
	if err != nil {
		s.fail(gen, fmt.Sprintf("Failed to create video decoder: %v", err), stepError("DECODER", ErrDecoderSetup, err))
		return
	}
	if err := sink.Configure(params); err != nil {
		sink.Shutdown()
		s.fail(gen, fmt.Sprintf("Failed to configure video decoder: %v", err), stepError("DECODER", ErrDecoderSetup, err))
		return
	}
	sink.OnFirstFrameRendered(func() {
		go s.firstFrameRendered(gen)
	})

	dp := rtp.NewDepacketizer(params.Codec, sink)
	dp.SetClock(s.clock)
	dp.SetLogger(s.log)
	dp.Start()

	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		dp.Close()
		sink.Shutdown()
		return
	}
	s.sink = sink
	s.depacketizer = dp
	s.state = StateStreaming
	sessionId := s.sessionId
	observer := s.observer
	s.mu.Unlock()

	s.log.Info("RTSP session streaming", "sessionId", sessionId, "params", params.String())
	observer.OnConnected()

	go s.receiveLoop(gen, t, dp)
}

// receiveLoop reads packets until Stop or a read failure. Liveness is
// re-checked under mu after every read, before the packet is handed on.
func (s *Session) receiveLoop(gen uint64, t transport.Transport, dp *rtp.Depacketizer) {
	for {
		s.mu.Lock()
		live := s.current(gen)
		s.mu.Unlock()
		if !live {
			return
		}

		data, err := t.Read(PacketBufferSize)

		s.mu.Lock()
		if !s.current(gen) {
			s.mu.Unlock()
			return
		}
		if err != nil || len(data) == 0 {
			s.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			s.fail(gen, fmt.Sprintf("Failed to receive RTP packet: %v", err), stepError("RECEIVE", ErrTransport, err))
			return
		}
		dp.Push(data)
		s.mu.Unlock()
	}
}

func (s *Session) firstFrameRendered(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	observer := s.observer
	s.mu.Unlock()

	observer.OnFirstFrameRendered()
}

// splitURL extracts host and port, defaulting to the RTSP port
func splitURL(rawURL string) (string, int, error) {
	if rawURL == "" {
		return "", 0, errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, err
	}
	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("url has no host: %s", rawURL)
	}

	port := DefaultRTSPPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port: %s", p)
		}
	}
	return host, port, nil
}

func statusLine(raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\r' || raw[i] == '\n' {
			return raw[:i]
		}
	}
	return raw
}
