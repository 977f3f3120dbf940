package player

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"rtspplayer/pkg/decoder"
	"rtspplayer/pkg/rtsp"
)

var (
	// ErrNoURL is returned by Start when neither config nor caller set a URL
	ErrNoURL = errors.New("rtsp url is not set")
	// ErrBusy is returned by Start while an attempt is still active
	ErrBusy = errors.New("session is already connecting or streaming")
	// ErrUnauthorized ends the player when the server rejects the credentials
	ErrUnauthorized = errors.New("server rejected the credentials")
	// ErrStreamFailed ends the player when the session fails
	ErrStreamFailed = errors.New("stream failed")
)

// DefaultStatsInterval is how often streaming counters are logged
const DefaultStatsInterval = 10 * time.Second

// Player drives one RTSP session and writes its video as an Annex-B
// elementary stream.
type Player struct {
	config    *Config
	session   *rtsp.Session
	ticker    *time.Ticker
	channel   chan interface{}
	done      chan struct{} // 종료 신호 채널
	finished  chan error
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewPlayer creates a player writing frames to output. Extra options are
// applied to the underlying session.
func NewPlayer(config *Config, output io.Writer, opts ...rtsp.Option) *Player {
	p := &Player{
		config:   config,
		channel:  make(chan interface{}, 100),
		done:     make(chan struct{}),
		finished: make(chan error, 1),
	}

	if config.RTSP.StrictStatus {
		opts = append([]rtsp.Option{rtsp.WithStatusMatcher(rtsp.StrictMatcher{})}, opts...)
	}
	p.session = rtsp.NewSession(opts...)
	p.session.SetObserver(rtsp.NewChannelObserver(p.channel, p.session.SessionId))
	p.session.BindDisplay(decoder.NewWriterDisplay(output))
	if config.RTSP.Username != "" || config.RTSP.Password != "" {
		p.session.SetCredentials(config.RTSP.Username, config.RTSP.Password)
	}
	if config.RTSP.ReceiveTimeoutMs > 0 {
		p.session.SetReceiveTimeout(config.RTSP.ReceiveTimeoutMs)
	}
	return p
}

// Session returns the underlying RTSP session
func (p *Player) Session() *rtsp.Session {
	return p.session
}

// Finished is signalled once when the session ends without Stop
func (p *Player) Finished() <-chan error {
	return p.finished
}

// Start begins streaming from the configured URL
func (p *Player) Start() error {
	return p.StartInterval(DefaultStatsInterval)
}

// StartInterval is Start with a custom stats logging interval
func (p *Player) StartInterval(statsInterval time.Duration) error {
	url := p.config.RTSP.URL
	if url == "" {
		return ErrNoURL
	}

	slog.Info("Start Player", "url", url)
	if !p.session.Start(url) {
		return ErrBusy
	}

	// 이벤트 루프를 고루틴으로 시작 (먼저 들어온 이벤트는 채널에 쌓여 있음)
	p.startOnce.Do(func() {
		p.ticker = time.NewTicker(statsInterval)
		p.wg.Add(1)
		go p.eventLoop()
	})
	return nil
}

// Stop tears down the session and waits for the event loop to exit
func (p *Player) Stop() {
	p.stopOnce.Do(func() {
		slog.Info("Stopping Player...")

		// 1. 세션 종료
		p.session.Stop()

		// 2. 티커 종료
		if p.ticker != nil {
			p.ticker.Stop()
		}

		// 3. 이벤트 루프 종료
		close(p.done)
		p.wg.Wait()

		// 4. 남은 이벤트 처리
		for {
			select {
			case data := <-p.channel:
				p.channelHandler(data)
			default:
				slog.Info("Player stopped successfully")
				return
			}
		}
	})
}

func (p *Player) eventLoop() {
	defer p.wg.Done()

	for {
		select {
		case data := <-p.channel:
			p.channelHandler(data)
		case <-p.ticker.C:
			p.logStats()
		case <-p.done:
			slog.Debug("Player event loop stopping...")
			return
		}
	}
}

func (p *Player) channelHandler(data interface{}) {
	switch e := data.(type) {
	case rtsp.Connecting:
		slog.Info("Connecting", "sessionId", e.SessionId)
	case rtsp.Connected:
		slog.Info("Streaming", "sessionId", e.SessionId, "params", p.session.Params().String())
	case rtsp.FirstFrameRendered:
		slog.Info("First frame rendered", "sessionId", e.SessionId)
	case rtsp.Disconnected:
		slog.Info("Disconnected", "sessionId", e.SessionId)
	case rtsp.Unauthorized:
		slog.Warn("Unauthorized", "sessionId", e.SessionId)
		p.finish(ErrUnauthorized)
	case rtsp.Failed:
		slog.Error("Session failed", "sessionId", e.SessionId, "message", e.Message)
		p.finish(fmt.Errorf("%w: %s", ErrStreamFailed, e.Message))
	default:
		slog.Warn("Unknown event", "type", fmt.Sprintf("%T", data))
	}
}

func (p *Player) logStats() {
	if p.session.State() != rtsp.StateStreaming {
		return
	}
	stats := p.session.Stats()
	slog.Info("Stream stats",
		"sessionId", p.session.SessionId(),
		"processed", stats.Processed,
		"short", stats.Short,
		"dropped", stats.Dropped)
}

func (p *Player) finish(err error) {
	select {
	case p.finished <- err:
	default:
	}
}
