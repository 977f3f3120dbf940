package rtsp

import (
	"fmt"
	"log/slog"
)

// Observer receives session status notifications. Exactly one of
// OnConnected, OnFailed and OnUnauthorized fires per Start attempt that is
// not stopped first; OnDisconnected fires only for Stop.
type Observer interface {
	OnConnecting()
	OnConnected()
	OnDisconnected()
	OnUnauthorized()
	OnFailed(message string)
	OnFirstFrameRendered()
}

// Connecting is posted when a Start attempt begins
type Connecting struct {
	SessionId string
}

// Connected is posted when PLAY succeeded and streaming began
type Connected struct {
	SessionId string
}

// Disconnected is posted after Stop
type Disconnected struct {
	SessionId string
}

// Unauthorized is posted when DESCRIBE was answered with 401
type Unauthorized struct {
	SessionId string
}

// Failed is posted when the handshake or the receive loop failed
type Failed struct {
	SessionId string
	Message   string
}

// FirstFrameRendered is posted when the sink presented its first frame
type FirstFrameRendered struct {
	SessionId string
}

// ChannelObserver posts events onto a channel. Progress events are dropped
// with a warning when the channel is full; Failed and Unauthorized end an
// attempt and wait for room instead.
type ChannelObserver struct {
	channel chan interface{}
	session func() string
	log     *slog.Logger
}

// NewChannelObserver creates an observer posting to channel. sessionId is
// consulted for every event and may be nil.
func NewChannelObserver(channel chan interface{}, sessionId func() string) *ChannelObserver {
	if sessionId == nil {
		sessionId = func() string { return "" }
	}
	return &ChannelObserver{channel: channel, session: sessionId, log: slog.Default()}
}

// SetLogger replaces the logger used for dropped events
func (o *ChannelObserver) SetLogger(logger *slog.Logger) {
	o.log = logger
}

func (o *ChannelObserver) post(event interface{}) {
	select {
	case o.channel <- event:
	default:
		o.log.Warn("Event channel full, dropping event", "type", fmt.Sprintf("%T", event))
	}
}

func (o *ChannelObserver) postTerminal(event interface{}) {
	o.channel <- event
}

func (o *ChannelObserver) OnConnecting() {
	o.post(Connecting{SessionId: o.session()})
}

func (o *ChannelObserver) OnConnected() {
	o.post(Connected{SessionId: o.session()})
}

func (o *ChannelObserver) OnDisconnected() {
	o.post(Disconnected{SessionId: o.session()})
}

func (o *ChannelObserver) OnUnauthorized() {
	o.postTerminal(Unauthorized{SessionId: o.session()})
}

func (o *ChannelObserver) OnFailed(message string) {
	o.postTerminal(Failed{SessionId: o.session(), Message: message})
}

func (o *ChannelObserver) OnFirstFrameRendered() {
	o.post(FirstFrameRendered{SessionId: o.session()})
}

type nopObserver struct{}

func (nopObserver) OnConnecting()         {}
func (nopObserver) OnConnected()          {}
func (nopObserver) OnDisconnected()       {}
func (nopObserver) OnUnauthorized()       {}
func (nopObserver) OnFailed(string)       {}
func (nopObserver) OnFirstFrameRendered() {}
