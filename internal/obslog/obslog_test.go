package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_FORMAT", "yaml")
	t.Setenv("LOG_TO_FILE", "TRUE")
	o := OptionsFromEnv()
	if o.Level != zapcore.WarnLevel {
		t.Fatalf("level = %v", o.Level)
	}
	if o.Format != "legacy" {
		t.Fatalf("unknown formats fall back to legacy, got %q", o.Format)
	}
	if !o.ToFile {
		t.Fatalf("LOG_TO_FILE should be case-insensitive")
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server.log")
	l, err := New(Options{Level: zapcore.InfoLevel, ToFile: true, File: path, Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("match_accept", zap.String("white", "alice"))
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), `"white":"alice"`) {
		t.Fatalf("log line missing field: %s", raw)
	}
}

func TestSetNilFallsBackToNop(t *testing.T) {
	Set(nil)
	if L() == nil {
		t.Fatalf("L must never be nil")
	}
}
