// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages and above.
	LevelError LogLevel = "error"

	// LevelCritical logs only messages that end a run.
	LevelCritical LogLevel = "critical"
)

// DefaultLogFile is where the CLI writes its log unless told otherwise.
const DefaultLogFile = "scraper.log"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, NoColor: output != os.Stderr}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// OpenFile opens path for appending log lines, creating it when missing.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "critical", "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Critical starts a message at the highest severity. Unlike logger.Fatal it
// does not exit; the caller decides how to end the run.
func Critical(logger *zerolog.Logger) *zerolog.Event {
	return logger.WithLevel(zerolog.FatalLevel)
}

// Log Level Guidelines:
//
// Debug: page-level detail
//   - Round dispatch (first_page, last_page)
//   - Page results (page, attempt, records)
//   - Cache hits and status writes
//
// Info: crawl lifecycle
//   - Crawl start and finish
//   - Page requests ("Scraping page")
//   - Transition to draining
//
// Warn: degraded but continuing
//   - Pages discarded after exhausting retries
//   - Cache and status store errors
//   - Session close errors
//
// Error: page failures and aborted crawls
//   - Each failed page attempt, with error_class
//   - Crawl finished in the aborted state
//
// Critical: the run ends
//   - Circuit breaker tripped
//
// Context Fields:
//   - crawl_id: crawl identifier
//   - label: target label (city)
//   - page, url, attempt: page under work
//   - consecutive_errors: circuit breaker counter
//   - error_class: network, timeout, status, parse, unknown
