package model

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromZap(core, LogLevelDebug)

	logger.Debug("debug %s", "message")
	logger.Info("info %s", "message")
	logger.Warn("warn %s", "message")
	logger.Error("error %s", "message")

	entries := logs.AllUntimed()
	if len(entries) != 4 {
		t.Fatalf("Expected 4 log entries, got %d", len(entries))
	}

	expected := []struct {
		level zapcore.Level
		msg   string
	}{
		{zapcore.DebugLevel, "debug message"},
		{zapcore.InfoLevel, "info message"},
		{zapcore.WarnLevel, "warn message"},
		{zapcore.ErrorLevel, "error message"},
	}
	for i, e := range expected {
		if entries[i].Level != e.level {
			t.Errorf("Entry %d: expected level %v, got %v", i, e.level, entries[i].Level)
		}
		if entries[i].Message != e.msg {
			t.Errorf("Entry %d: expected message %q, got %q", i, e.msg, entries[i].Message)
		}
	}
}

func TestDefaultLoggerLevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromZap(core, LogLevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	if logs.Len() != 1 {
		t.Fatalf("Expected 1 log entry at warn level, got %d", logs.Len())
	}
	if logger.IsLevelEnabled(LogLevelInfo) {
		t.Error("Info should not be enabled at warn level")
	}
	if !logger.IsLevelEnabled(LogLevelError) {
		t.Error("Error should be enabled at warn level")
	}

	logger.SetLevel(LogLevelDebug)
	if !logger.IsLevelEnabled(LogLevelDebug) {
		t.Error("Debug should be enabled after SetLevel")
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	for _, level := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if logger.IsLevelEnabled(level) {
			t.Errorf("NoOpLogger should not enable level %d", level)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"info":    LogLevelInfo,
		"warn":    LogLevelWarn,
		"error":   LogLevelError,
		"bogus":   LogLevelInfo,
		"warning": LogLevelWarn,
	}
	for name, want := range cases {
		if got := ParseLogLevel(name); got != want {
			t.Errorf("ParseLogLevel(%q): expected %d, got %d", name, want, got)
		}
	}
}

func TestSetDefaultLogger(t *testing.T) {
	original := GetDefaultLogger()
	defer SetDefaultLogger(original)

	noop := NewNoOpLogger()
	SetDefaultLogger(noop)
	if GetDefaultLogger() != noop {
		t.Error("Expected default logger to be replaced")
	}
}
