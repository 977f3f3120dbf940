package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtspplayer/internal/player"
)

func parseFlags(t *testing.T, args ...string) (*pflag.FlagSet, *playOptions) {
	t.Helper()
	o := &playOptions{}
	fs := pflag.NewFlagSet("play", pflag.ContinueOnError)
	bindPlayFlags(fs, o)
	require.NoError(t, fs.Parse(args))
	return fs, o
}

func TestApplyFlagsOverridesConfig(t *testing.T) {
	fs, o := parseFlags(t, "--user", "admin", "-p", "12345", "-o", "cam.h264", "--timeout", "2500", "--log-level", "debug", "--strict")

	config := player.DefaultConfig()
	require.NoError(t, applyFlags(config, fs, o, "rtsp://192.168.1.10/stream1"))

	assert.Equal(t, "rtsp://192.168.1.10/stream1", config.RTSP.URL)
	assert.Equal(t, "admin", config.RTSP.Username)
	assert.Equal(t, "12345", config.RTSP.Password)
	assert.Equal(t, "cam.h264", config.Output.Path)
	assert.Equal(t, 2500, config.RTSP.ReceiveTimeoutMs)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.True(t, config.RTSP.StrictStatus)
}

func TestApplyFlagsKeepsUnsetValues(t *testing.T) {
	fs, o := parseFlags(t)

	config := player.DefaultConfig()
	config.RTSP.URL = "rtsp://camera/live"
	config.RTSP.Username = "fromfile"
	require.NoError(t, applyFlags(config, fs, o, ""))

	assert.Equal(t, "rtsp://camera/live", config.RTSP.URL)
	assert.Equal(t, "fromfile", config.RTSP.Username)
	assert.Equal(t, "stream.h264", config.Output.Path)
}

func TestApplyFlagsValidates(t *testing.T) {
	fs, o := parseFlags(t)
	assert.ErrorContains(t, applyFlags(player.DefaultConfig(), fs, o, ""), "rtsp url is required")

	fs, o = parseFlags(t)
	assert.Error(t, applyFlags(player.DefaultConfig(), fs, o, "http://camera/live"))

	fs, o = parseFlags(t, "--log-level", "loud")
	assert.Error(t, applyFlags(player.DefaultConfig(), fs, o, "rtsp://camera/live"))
}

func TestLoadConfigFromFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rtsp:\n  url: rtsp://camera/live\n"), 0o644))

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "rtsp://camera/live", config.RTSP.URL)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigWithoutDefaultFile(t *testing.T) {
	// the test binary runs in cmd/, which has no configs/ directory
	config, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, player.DefaultConfig(), config)
}

func TestPlayCommandRejectsExtraArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"play", "rtsp://a/1", "rtsp://b/2"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}
