package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLogLevel 解析 LOG_LEVEL，无法识别时为 info
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger 创建进程日志并设为 slog 默认值。
// dev / test 环境输出彩色 tint 文本，其余环境输出 JSON。
func InitLogger(level slog.Level, environment string) *slog.Logger {
	l := New(os.Stderr, level, environment)
	slog.SetDefault(l)
	return l
}

// New 输出到 w
func New(w io.Writer, level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler
	switch environment {
	case "dev", "test":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
