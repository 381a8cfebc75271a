package observability

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/deskflow/ai-ticket-assistant/internal/config"
)

func TestLoggerConfig(t *testing.T) {
	cases := []struct {
		cfg      config.LoggerConfig
		level    zapcore.Level
		encoding string
	}{
		{config.LoggerConfig{Level: "debug", Format: "json"}, zapcore.DebugLevel, "json"},
		{config.LoggerConfig{Level: "WARN", Format: "console"}, zapcore.WarnLevel, "console"},
		{config.LoggerConfig{Level: "chatty"}, zapcore.InfoLevel, "json"},
	}
	for _, tc := range cases {
		got := loggerConfig(tc.cfg)
		if got.Level.Level() != tc.level {
			t.Fatalf("level(%q) = %v, want %v", tc.cfg.Level, got.Level.Level(), tc.level)
		}
		if got.Encoding != tc.encoding {
			t.Fatalf("encoding(%q) = %q, want %q", tc.cfg.Format, got.Encoding, tc.encoding)
		}
	}
}

func TestNewLoggerAddsService(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "info"}, "ai-ticket-assistant")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
}
