package control

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ThreadPoolWorkers != 4 {
		t.Fatalf("ThreadPoolWorkers = %d, want 4", cfg.ThreadPoolWorkers)
	}
	if cfg.MaxHandshakeSize != 1024 {
		t.Fatalf("MaxHandshakeSize = %d, want 1024", cfg.MaxHandshakeSize)
	}
	if cfg.MaxMessageSize != 64*1024*1024 {
		t.Fatalf("MaxMessageSize = %d, want 64MiB", cfg.MaxMessageSize)
	}
}

func TestLoadConfigFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "thread_pool_workers: 8\nmax_message_size: 2048\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.ThreadPoolWorkers != 8 {
		t.Fatalf("ThreadPoolWorkers = %d, want 8", cfg.ThreadPoolWorkers)
	}
	if cfg.MaxMessageSize != 2048 {
		t.Fatalf("MaxMessageSize = %d, want 2048", cfg.MaxMessageSize)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Untouched field keeps its default.
	if cfg.EventLoopRingCapacity != 1024 {
		t.Fatalf("EventLoopRingCapacity = %d, want default 1024", cfg.EventLoopRingCapacity)
	}
}

func TestLoadConfigFileRejectsMissingFile(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestConfigStoreSetDispatchesListeners(t *testing.T) {
	cs := NewConfigStore(nil)
	got := make(chan *Config, 1)
	cs.OnReload(func(c *Config) { got <- c })

	updated := DefaultConfig()
	updated.ThreadPoolWorkers = 16
	cs.Set(updated)

	select {
	case c := <-got:
		if c.ThreadPoolWorkers != 16 {
			t.Fatalf("listener saw ThreadPoolWorkers = %d, want 16", c.ThreadPoolWorkers)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for reload listener")
	}

	if snap := cs.Snapshot(); snap.ThreadPoolWorkers != 16 {
		t.Fatalf("Snapshot ThreadPoolWorkers = %d, want 16", snap.ThreadPoolWorkers)
	}
}
