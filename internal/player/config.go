package player

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	RTSP    RTSPConfig    `yaml:"rtsp"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

type RTSPConfig struct {
	URL              string `yaml:"url"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	ReceiveTimeoutMs int    `yaml:"receive_timeout_ms"`
	StrictStatus     bool   `yaml:"strict_status"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type OutputConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfigPath is used when no config file is given
var DefaultConfigPath = filepath.Join("configs", "default.yaml")

// DefaultConfig returns the configuration used without a config file
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Output:  OutputConfig{Path: "stream.h264"},
	}
}

// LoadConfig loads configuration from yaml file
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	// 파일 존재 확인
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	// 파일 읽기
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// YAML 파싱 (기본값 위에 덮어쓰기)
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// URL 검증 (커맨드라인에서 지정할 수 있으므로 비어 있어도 됨)
	if c.RTSP.URL != "" {
		u, err := url.Parse(c.RTSP.URL)
		if err != nil {
			return fmt.Errorf("invalid rtsp url: %w", err)
		}
		if u.Scheme != "rtsp" {
			return fmt.Errorf("invalid rtsp url scheme: %q (must be rtsp)", u.Scheme)
		}
		if u.Hostname() == "" {
			return fmt.Errorf("invalid rtsp url: missing host")
		}
	}

	if c.RTSP.ReceiveTimeoutMs < 0 {
		return fmt.Errorf("invalid receive_timeout_ms: %d (must be non-negative)", c.RTSP.ReceiveTimeoutMs)
	}

	// 로그 레벨 검증
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if strings.ToLower(c.Logging.Level) == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("invalid log level: %s (must be one of: %v)", c.Logging.Level, validLevels)
	}

	if c.Output.Path == "" {
		return fmt.Errorf("output path must not be empty")
	}

	return nil
}

// GetSlogLevel returns slog.Level from config
func (c *Config) GetSlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo // 기본값
	}
}
