// Package logging sets up structured logging. Logs always go to a
// JSON file under the data directory; with debug enabled they also
// fan out to stderr as text.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Options controls logger construction.
type Options struct {
	// DataDir is where the log file lives.
	DataDir string
	// Debug lowers the level to Debug and mirrors logs to stderr.
	Debug bool
}

// Setup builds the application logger. The returned closer flushes
// and closes the log file.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	if opts.Debug {
		level.Set(slog.LevelDebug)
	}

	logPath := filepath.Join(opts.DataDir, "tether.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}

	handlers := []slog.Handler{
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	}
	if opts.Debug {
		handlers = append(handlers,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	return logger, file, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
