// Package logger builds the slog logger shared by the SDK and its tooling.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// New returns a JSON logger writing to stdout. LOG_LEVEL selects the minimum
// level; unknown or empty values mean info.
func New() *slog.Logger {
	level := slog.LevelInfo
	if l, ok := levelNames[strings.ToLower(os.Getenv("LOG_LEVEL"))]; ok {
		level = l
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "dope-client")
}
