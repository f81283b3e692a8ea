package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/stockup/stockup/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockup.log")
	cfg := config.LoggingConfig{Level: config.LogLevelDebug, Encoding: "json"}

	logger, err := New(cfg, Options{File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Named("engine").Debug("entered store region")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	line := string(data)
	for _, want := range []string{`"msg":"entered store region"`, `"logger":"stockup.engine"`, `"level":"debug"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %s", line, want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockup.log")
	cfg := config.LoggingConfig{Level: config.LogLevelWarn, Encoding: "json"}

	logger, err := New(cfg, Options{File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("warn line missing")
	}
}

func TestNewWithoutOutputs(t *testing.T) {
	logger, err := New(config.LoggingConfig{}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected a no-op logger when no output is configured")
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "chatty"}, Options{Console: true}); err == nil {
		t.Error("expected error for unknown level")
	}
}
