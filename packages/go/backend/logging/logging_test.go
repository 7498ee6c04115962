package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		logger, err := New(tt.level)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.level, err)
		}
		if got := logger.Level(); got != tt.want {
			t.Fatalf("New(%q) level = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := NewConsole("chatty"); err == nil {
		t.Fatal("expected error for unknown console level")
	}
}

func TestNewConsoleDefaultsToWarn(t *testing.T) {
	t.Parallel()

	logger, err := NewConsole("")
	if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}
	if got := logger.Level(); got != zapcore.WarnLevel {
		t.Fatalf("level = %v, want warn", got)
	}
}
