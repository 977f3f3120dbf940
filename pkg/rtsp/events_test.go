package rtsp

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChannelObserverPostsEvents(t *testing.T) {
	ch := make(chan interface{}, 10)
	o := NewChannelObserver(ch, func() string { return "s1" })

	o.OnConnecting()
	o.OnConnected()
	o.OnFirstFrameRendered()
	o.OnFailed("boom")
	o.OnUnauthorized()
	o.OnDisconnected()

	expected := []interface{}{
		Connecting{SessionId: "s1"},
		Connected{SessionId: "s1"},
		FirstFrameRendered{SessionId: "s1"},
		Failed{SessionId: "s1", Message: "boom"},
		Unauthorized{SessionId: "s1"},
		Disconnected{SessionId: "s1"},
	}
	for _, want := range expected {
		assert.Equal(t, want, <-ch)
	}
}

func TestChannelObserverDropsProgressEventsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan interface{}, 1)
	o := NewChannelObserver(ch, nil)
	o.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	o.OnConnecting()
	o.OnConnected()
	o.OnFirstFrameRendered()

	assert.Len(t, ch, 1)
	assert.Equal(t, Connecting{}, <-ch)
	assert.Contains(t, buf.String(), "dropping event")
	assert.Contains(t, buf.String(), "rtsp.Connected")
}

func TestChannelObserverKeepsTerminalEvents(t *testing.T) {
	ch := make(chan interface{}, 1)
	o := NewChannelObserver(ch, func() string { return "s1" })
	o.OnConnecting()

	posted := make(chan struct{})
	go func() {
		o.OnFailed("Failed to send PLAY request")
		o.OnUnauthorized()
		close(posted)
	}()

	select {
	case <-posted:
		t.Fatal("terminal event posted into a full channel")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, Connecting{SessionId: "s1"}, <-ch)
	assert.Equal(t, Failed{SessionId: "s1", Message: "Failed to send PLAY request"}, <-ch)
	assert.Equal(t, Unauthorized{SessionId: "s1"}, <-ch)
	<-posted
}
