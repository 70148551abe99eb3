package control

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestReloaderPicksUpFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("thread_pool_workers: 2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := NewConfigStore(DefaultConfig())
	reloader, err := NewReloader(store, path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewReloader: %v", err)
	}
	defer reloader.Close()

	hookFired := make(chan struct{}, 1)
	reloader.RegisterHook(func() { hookFired <- struct{}{} })

	if err := reloader.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("thread_pool_workers: 9\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-hookFired:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reload hook")
	}

	if got := store.Snapshot().ThreadPoolWorkers; got != 9 {
		t.Fatalf("ThreadPoolWorkers after reload = %d, want 9", got)
	}
}
