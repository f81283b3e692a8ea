// Package logging builds the application's zap logger from configuration.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stockup/stockup/internal/config"
)

// Options selects where log output goes.
type Options struct {
	// File receives log output when non-empty.
	File string

	// Console also writes to stderr. Leave it off while the console UI owns
	// the terminal.
	Console bool
}

// New builds a logger from the [logging] section.
func New(cfg config.LoggingConfig, opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(string(cfg.Level))
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zc.Encoding = "console"
	if cfg.Encoding == "json" {
		zc.Encoding = "json"
	}

	var outputs []string
	if opts.Console {
		outputs = append(outputs, "stderr")
	}
	if opts.File != "" {
		outputs = append(outputs, opts.File)
	}
	if len(outputs) == 0 {
		return zap.NewNop(), nil
	}
	zc.OutputPaths = outputs
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Named("stockup"), nil
}

// ParseLevel maps a configured level name to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}
