package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line
const ServiceName = "addrlookup"

// Logger wraps zerolog.Logger for application-wide logging
type Logger struct {
	*zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string    // debug, info, warn, error
	Pretty     bool      // Human-readable console output instead of JSON
	OutputFile string    // Optional file that also receives every line
	Output     io.Writer // Destination, defaults to stdout
}

// New creates a logger from cfg
// Unknown or empty levels fall back to info
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(writerFor(cfg)).
		Level(level).
		With().
		Timestamp().
		Str("service", ServiceName).
		Caller().
		Logger()

	return &Logger{Logger: &logger}
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// writerFor picks the sink: stdout or cfg.Output, optionally through the
// console formatter, teed to OutputFile when it can be opened
func writerFor(cfg Config) io.Writer {
	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if cfg.OutputFile == "" {
		return out
	}

	file, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fallback := zerolog.New(out)
		fallback.Warn().Err(err).Str("path", cfg.OutputFile).Msg("Log file unavailable, logging to console only")
		return out
	}
	return zerolog.MultiLevelWriter(out, file)
}

// NewDefault creates an info-level console logger
func NewDefault() *Logger {
	return New(Config{Level: "info", Pretty: true})
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	logger := zerolog.Nop()
	return &Logger{Logger: &logger}
}

func (l *Logger) with(key, value string) *Logger {
	child := l.With().Str(key, value).Logger()
	return &Logger{Logger: &child}
}

// WithComponent tags lines with the emitting component
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithRequestID tags lines with chi's request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with("request_id", requestID)
}

// WithMode tags lines with the match mode
func (l *Logger) WithMode(mode string) *Logger {
	return l.with("mode", mode)
}
