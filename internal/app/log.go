package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/gowvp/lookout/internal/conf"
)

// SetupLog 按配置输出 text 或 json，并设为默认 logger
func SetupLog(w io.Writer, cfg conf.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	log := slog.New(h)
	slog.SetDefault(log)
	return log
}
