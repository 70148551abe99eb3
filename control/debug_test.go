package control

import "testing"

func TestDebugProbesDumpState(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("ring_occupancy", func() any { return 42 })
	dp.RegisterProbe("loop_backoff", func() any { return "idle" })

	state := dp.DumpState()
	if state["ring_occupancy"] != 42 {
		t.Fatalf("ring_occupancy = %v, want 42", state["ring_occupancy"])
	}
	if state["loop_backoff"] != "idle" {
		t.Fatalf("loop_backoff = %v, want idle", state["loop_backoff"])
	}
}

func TestDebugProbesRegisterReplacesExisting(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("x", func() any { return 1 })
	dp.RegisterProbe("x", func() any { return 2 })

	if got := dp.DumpState()["x"]; got != 2 {
		t.Fatalf("x = %v, want 2 after replacement", got)
	}
}
