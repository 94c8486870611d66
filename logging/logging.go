// Package logging builds the go-ethereum logger used for error reporting,
// with optional size-rotated file output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where and how verbosely to log.
type Config struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // terminal, logfmt or json
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxAge     int    `mapstructure:"max_age"`  // days
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig logs info and above to stderr in terminal format.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "terminal",
		MaxSize:    100,
		MaxAge:     30,
		MaxBackups: 10,
	}
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "", "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// New builds a logger from cfg. When cfg.File is set, records also go to a
// rotated file; the returned closer releases it and must be called on exit.
func New(cfg Config, stderr io.Writer) (log.Logger, io.Closer, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    = stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(stderr, rotating)
		closer = rotating
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "terminal":
		handler = log.NewTerminalHandlerWithLevel(out, lvl, false)
	case "logfmt":
		handler = log.LogfmtHandlerWithLevel(out, lvl)
	case "json":
		handler = log.JSONHandlerWithLevel(out, lvl)
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return log.NewLogger(handler), closer, nil
}

// Setup builds a logger with New, writing to os.Stderr, and installs it as
// the go-ethereum root logger.
func Setup(cfg Config) (io.Closer, error) {
	logger, closer, err := New(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
