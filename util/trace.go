package util

import (
	"log/slog"
	"time"
)

// Trace 记录耗时，用法: defer util.Trace("quick batch")()
func Trace(msg string) func() {
	start := time.Now()
	slog.Debug("start", "op", msg)
	return func() {
		slog.Info("done", "op", msg, "elapsed", time.Since(start).String())
	}
}
