// Package logging holds the slog logger shared by every tsview package.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logLevel = new(slog.LevelVar)
	out      = &switchWriter{w: os.Stderr}
	logger   *slog.Logger
)

func init() {
	logLevel.Set(parseLogLevel(os.Getenv("TSVIEW_DEBUG")))

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger = slog.New(handler)
}

// switchWriter lets the destination change after loggers have been derived.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Logger returns the global logger instance.
func Logger() *slog.Logger {
	return logger
}

// For returns a child of the global logger tagged with the given component name.
func For(component string) *slog.Logger {
	return logger.With("component", component)
}

// SetLogLevel sets the global log level for every tsview package.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetOutput redirects every logger, including ones already derived with For.
// The terminal viewer uses it to keep log lines off the screen.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	out.mu.Lock()
	defer out.mu.Unlock()
	out.w = w
}

// parseLogLevel converts TSVIEW_DEBUG values to slog levels. Numbers map
// 0=Error, 1=Warn, 2=Info, 3=Debug; level names are accepted too.
// Default: Warn if not set or invalid
func parseLogLevel(envVal string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(envVal)) {
	case "0", "error":
		return slog.LevelError
	case "1", "warn":
		return slog.LevelWarn
	case "2", "info":
		return slog.LevelInfo
	case "3", "debug":
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}
