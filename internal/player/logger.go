package player

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// InitLogger는 애플리케이션의 기본 slog 로거를 설정합니다.
func InitLogger(config *Config) *slog.Logger {
	return initLogger(os.Stdout, config)
}

func initLogger(w io.Writer, config *Config) *slog.Logger {
	// 현재 소스 파일 위치를 기준으로 프로젝트 루트를 찾습니다.
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := getProjectRoot(filename)

	// 소스 경로를 프로젝트 루트 기준 상대 경로로 바꿉니다.
	replaceAttr := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key != slog.SourceKey {
			return a
		}
		source, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		if projectRoot != "" && strings.HasPrefix(source.File, projectRoot) {
			source.File = source.File[len(projectRoot)+1:]
		}
		return slog.Any(a.Key, source)
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:       config.GetSlogLevel(),
		AddSource:   true,
		NoColor:     !isTerminal(w),
		TimeFormat:  time.RFC3339,
		ReplaceAttr: replaceAttr,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// getProjectRoot는 internal/player/logger.go 경로에서 go.mod가 있는 루트를 추론합니다.
func getProjectRoot(path string) string {
	const suffix = "/internal/player/logger.go"
	path = strings.ReplaceAll(path, string(os.PathSeparator), "/")
	if strings.HasSuffix(path, suffix) {
		return strings.TrimSuffix(path, suffix)
	}
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
