package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pion/logging"
)

func parseLogLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(s) {
	case "trace":
		return logging.LogLevelTrace, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "", "info":
		return logging.LogLevelInfo, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "error":
		return logging.LogLevelError, nil
	case "disabled", "off":
		return logging.LogLevelDisabled, nil
	}
	return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", s)
}

// newLoggerFactory builds the leveled logger factory shared by all
// components. The TUI owns the terminal, so output goes to cfg.LogFile or
// nowhere. The returned closer releases the log file.
func newLoggerFactory(cfg *Config) (*logging.DefaultLoggerFactory, io.Closer, error) {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = level

	if cfg.LogFile == "" {
		f.Writer = io.Discard
		return f, io.NopCloser(nil), nil
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	f.Writer = file
	return f, file, nil
}
