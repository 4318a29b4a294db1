package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
)

// New builds a Logger writing to w.
//
//	json    slog JSON handler
//	text    slog text handler
//	console zerolog ConsoleWriter (human-readable, for development)
func New(format, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON, FormatText:
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(orDefault(level))); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		opts := &slog.HandlerOptions{Level: lvl}
		if strings.EqualFold(format, FormatText) {
			return NewSlogLogger(slog.New(slog.NewTextHandler(w, opts))), nil
		}
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, opts))), nil
	case FormatConsole:
		lvl, err := zerolog.ParseLevel(strings.ToLower(orDefault(level)))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zl := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(lvl).
			With().Timestamp().Logger()
		return NewZerologLogger(zl), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func orDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}
