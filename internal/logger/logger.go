// Package logger provides process-wide structured logging for glowbox.
// Info, Warn and Error are always written. Debug and Section are only
// written in verbose mode (the --verbose flag).
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config describes where and how log lines are written.
type Config struct {
	// Format is "console" (human readable) or "json".
	Format string

	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer

	// File, when set, also writes JSON lines to a rotated file.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu      sync.RWMutex
	verbose bool
	cfg     = Config{Format: FormatConsole, Output: os.Stderr}
	file    *lumberjack.Logger
	log     = build(cfg, nil)
)

// Configure replaces the logging configuration. A previously opened log
// file is closed.
func Configure(c Config) error {
	if c.Output == nil {
		c.Output = os.Stderr
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Format != FormatConsole && c.Format != FormatJSON {
		return fmt.Errorf("unsupported log format %q", c.Format)
	}

	var rotated *lumberjack.Logger
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		rotated = &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			LocalTime:  true,
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	cfg = c
	file = rotated
	log = build(cfg, file)
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	log = build(cfg, nil)
	return err
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	log = build(cfg, file)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the writer for log lines. Defaults to os.Stderr.
// Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	cfg.Output = w
	log = build(cfg, file)
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	l := current()
	l.Debug().Msgf(format, args...)
}

// Section logs a section header if verbose mode is enabled.
func Section(name string) {
	l := current()
	l.Debug().Msgf("=== %s ===", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	l := current()
	l.Info().Msgf(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	l := current()
	l.Warn().Msgf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	l := current()
	l.Error().Msgf(format, args...)
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// build must be called with mu held for writing, or during init.
func build(c Config, rotated *lumberjack.Logger) zerolog.Logger {
	var out io.Writer = c.Output
	if c.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: c.Output, TimeFormat: time.RFC3339, NoColor: !isTerminal(c.Output)}
	}
	if rotated != nil {
		out = zerolog.MultiLevelWriter(out, rotated)
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
