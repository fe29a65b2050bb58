package config

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// LogLevels maps log_level values to slog levels.
var LogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger returns a colored logger writing to w. Unknown levels log at
// warn.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, ok := LogLevels[level]
	if !ok {
		lvl = slog.LevelWarn
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	}))
}
