// Package logging writes the application log to a file, since the TUI owns
// the terminal.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger instance. It discards output until Init.
	Logger = log.New(io.Discard)

	// logFile is the file handle for the log file
	logFile *os.File
)

// DefaultPath returns ~/.moviefinder/logs/moviefinder-<date>.log.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	name := fmt.Sprintf("moviefinder-%s.log", time.Now().Format("2006-01-02"))
	return filepath.Join(homeDir, ".moviefinder", "logs", name)
}

// Init opens the log file at path (DefaultPath when empty) and installs a
// logger at the given level ("debug", "info", "warn", "error").
func Init(path, level string) error {
	if path == "" {
		path = DefaultPath()
	}

	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	Logger = New(f, lvl)
	Logger.Info("MovieFinder started", "log", path)
	return nil
}

// New builds a logger with the application's formatting.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
}

// Close closes the log file
func Close() {
	Logger.Info("MovieFinder shutting down")
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	Logger = log.New(io.Discard)
}

// WithPrefix returns a logger with a prefix, e.g. one per component.
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}
