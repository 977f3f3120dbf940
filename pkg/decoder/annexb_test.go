package decoder

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnexBSinkWritesStartCodes(t *testing.T) {
	var buf bytes.Buffer
	sink := NewAnnexBSink(&buf)
	require.NoError(t, sink.Configure(Params{Width: 1280, Height: 720, Codec: CodecH264}))

	au := AccessUnit{Codec: CodecH264, NALUs: [][]byte{{0x67, 0x42}, {0x68, 0xce}}}
	assert.True(t, sink.Submit(au, time.Now()))

	expected := []byte{0, 0, 0, 1, 0x67, 0x42, 0, 0, 0, 1, 0x68, 0xce}
	assert.Equal(t, expected, buf.Bytes())
	assert.Equal(t, 1, sink.Frames())
}

func TestAnnexBSinkFirstFrameFiresOnce(t *testing.T) {
	sink := NewAnnexBSink(&bytes.Buffer{})
	require.NoError(t, sink.Configure(Params{Codec: CodecH265}))

	calls := 0
	sink.OnFirstFrameRendered(func() { calls++ })

	au := AccessUnit{Codec: CodecH265, NALUs: [][]byte{{0x40, 0x01}}}
	sink.Submit(au, time.Now())
	sink.Submit(au, time.Now())
	sink.Submit(au, time.Now())

	assert.Equal(t, 1, calls)
}

func TestAnnexBSinkRejectsBeforeConfigureAndAfterShutdown(t *testing.T) {
	sink := NewAnnexBSink(&bytes.Buffer{})
	au := AccessUnit{NALUs: [][]byte{{0x65}}}

	assert.False(t, sink.Submit(au, time.Now()))

	require.NoError(t, sink.Configure(Params{Codec: CodecH264}))
	assert.True(t, sink.Submit(au, time.Now()))

	sink.Shutdown()
	sink.Shutdown()
	assert.False(t, sink.Submit(au, time.Now()))
	assert.ErrorIs(t, sink.Configure(Params{Codec: CodecH264}), ErrSinkClosed)
}

func TestAnnexBSinkRejectsUnknownCodec(t *testing.T) {
	sink := NewAnnexBSink(&bytes.Buffer{})
	assert.Error(t, sink.Configure(Params{Codec: CodecUnknown}))
}

func TestWriterDisplay(t *testing.T) {
	_, err := NewWriterDisplay(nil).NewSink()
	assert.Error(t, err)

	sink, err := NewWriterDisplay(&bytes.Buffer{}).NewSink()
	require.NoError(t, err)
	assert.IsType(t, &AnnexBSink{}, sink)
}

func TestCodecString(t *testing.T) {
	assert.Equal(t, "H264", CodecH264.String())
	assert.Equal(t, "H265", CodecH265.String())
	assert.Equal(t, "Unknown", CodecUnknown.String())
	assert.Equal(t, "1280x720 H264", Params{Width: 1280, Height: 720, Codec: CodecH264}.String())
}
