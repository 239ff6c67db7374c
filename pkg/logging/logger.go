// Package logging configures structured logging for the pipeline using zerolog.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output instead of JSON lines.
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

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

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
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithRequest returns ctx carrying a component logger tagged with requestID.
// Retrieve it with FromContext.
func WithRequest(ctx context.Context, component, requestID string) context.Context {
	logger := NewLogger(component).With().Str("request_id", requestID).Logger()
	return logger.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or the global logger when
// there is none.
func FromContext(ctx context.Context) *zerolog.Logger {
	if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	return &log.Logger
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Each page request and saved raw file
//   - Each converted Avro file
//   - End-of-stream detection
//
// Info: Normal operation events
//   - Fetch and conversion runs starting and completing
//   - Trigger requests served
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Run ledger unavailable or failed to record a run
//   - Rejected trigger requests (bad input)
//
// Error: Error conditions requiring attention
//   - Failed fetch runs (unexpected status, empty result, transport)
//   - Failed conversions (parse or schema errors)
//   - Configuration errors
//
// Context Fields:
//   - date: sales date partition
//   - page: page number
//   - status_code: HTTP status code
//   - error_class: error classification (not_found, client, server, network)
//   - file: raw or converted file path
//   - records: number of records converted
//   - duration: request or run duration
//   - request_id: trigger request identifier
//   - run_id: run ledger identifier
