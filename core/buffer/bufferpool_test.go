package buffer

import "testing"

func TestPoolGetReturnsRequestedSize(t *testing.T) {
	p := NewPool()
	b := p.Get(100)
	if len(b.Data) != 100 {
		t.Fatalf("len(Data) = %d, want 100", len(b.Data))
	}
	if b.Class < 100 {
		t.Fatalf("Class = %d, want >= 100", b.Class)
	}
}

func TestPoolReleaseUpdatesStats(t *testing.T) {
	p := NewPool()
	b := p.Get(500)
	b.Release()
	stats := p.Stats()
	if stats.TotalAlloc != 1 || stats.TotalFree != 1 || stats.InUse != 0 {
		t.Fatalf("Stats() = %+v, want one alloc, one free, zero in use", stats)
	}
}

func TestPoolOversizeRequestBypassesClasses(t *testing.T) {
	p := NewPool()
	b := p.Get(10 * 1024 * 1024)
	if len(b.Data) != 10*1024*1024 {
		t.Fatalf("len(Data) = %d, want 10MiB", len(b.Data))
	}
	b.Release() // must not panic even though this class has no backing pool
}
