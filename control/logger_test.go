package control

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoggerStderrSink(t *testing.T) {
	cfg := DefaultConfig()
	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("hello")
}

func TestNewLoggerRotatingFileSink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "wscore.log")
	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("hello from rotating sink")
	_ = log.Sync()

	if _, err := os.Stat(cfg.LogFile); err != nil {
		t.Fatalf("expected log file to be created: %v", err)
	}
}

func TestNewLoggerRejectsInvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "not-a-level"
	if _, err := NewLogger(cfg); err == nil {
		t.Fatalf("expected error for invalid log level")
	}
}
