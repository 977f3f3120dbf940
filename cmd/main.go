package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"rtspplayer/internal/player"
)

type playOptions struct {
	configPath string
	username   string
	password   string
	output     string
	timeoutMs  int
	logLevel   string
	strict     bool
}

func bindPlayFlags(fs *pflag.FlagSet, o *playOptions) {
	fs.StringVarP(&o.configPath, "config", "c", "", "config file (default configs/default.yaml if present)")
	fs.StringVarP(&o.username, "user", "u", "", "username for Basic authentication")
	fs.StringVarP(&o.password, "pass", "p", "", "password for Basic authentication")
	fs.StringVarP(&o.output, "out", "o", "", "Annex-B output file")
	fs.IntVar(&o.timeoutMs, "timeout", 0, "receive timeout in milliseconds (0 disables)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&o.strict, "strict", false, "match response status codes strictly")
}

// loadConfig reads the given file, or the default one when it exists
func loadConfig(path string) (*player.Config, error) {
	if path != "" {
		return player.LoadConfig(path)
	}
	if _, err := os.Stat(player.DefaultConfigPath); err == nil {
		return player.LoadConfig("")
	}
	return player.DefaultConfig(), nil
}

// applyFlags overrides config values with the flags set on the command line
func applyFlags(config *player.Config, fs *pflag.FlagSet, o *playOptions, url string) error {
	if url != "" {
		config.RTSP.URL = url
	}
	if fs.Changed("user") {
		config.RTSP.Username = o.username
	}
	if fs.Changed("pass") {
		config.RTSP.Password = o.password
	}
	if fs.Changed("out") {
		config.Output.Path = o.output
	}
	if fs.Changed("timeout") {
		config.RTSP.ReceiveTimeoutMs = o.timeoutMs
	}
	if fs.Changed("log-level") {
		config.Logging.Level = o.logLevel
	}
	if fs.Changed("strict") {
		config.RTSP.StrictStatus = o.strict
	}

	if config.RTSP.URL == "" {
		return errors.New("rtsp url is required")
	}
	return config.Validate()
}

func runPlay(config *player.Config) error {
	player.InitLogger(config)

	out, err := os.Create(config.Output.Path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	p := player.NewPlayer(config, out)

	// 플레이어 시작
	if err := p.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	slog.Info("Writing stream", "output", config.Output.Path)

	// 시그널 수신을 위한 채널 생성
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// 시그널 또는 세션 종료 대기
	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down player", "signal", sig)
		p.Stop()
		slog.Info("Player shutdown complete")
		return nil
	case err := <-p.Finished():
		p.Stop()
		return err
	}
}

func newRootCmd() *cobra.Command {
	o := &playOptions{}

	cmdPlay := &cobra.Command{
		Use:   "play [URL]",
		Short: "play an RTSP stream into an Annex-B file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(o.configPath)
			if err != nil {
				return err
			}

			url := ""
			if len(args) > 0 {
				url = args[0]
			}
			if err := applyFlags(config, cmd.Flags(), o, url); err != nil {
				return err
			}

			cmd.SilenceUsage = true
			return runPlay(config)
		},
	}
	bindPlayFlags(cmdPlay.Flags(), o)

	rootCmd := &cobra.Command{
		Use:   "rtspplayer",
		Short: "minimal RTSP/RTP video client",
	}
	rootCmd.AddCommand(cmdPlay)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
