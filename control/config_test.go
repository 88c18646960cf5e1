// File: control/config_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"testing"

	"github.com/momentics/hioload-poll/control"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := control.DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
}

func TestValidateRejectsNonPositive(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Maxsock = 0
	if cfg.Validate() == nil {
		t.Error("zero maxsock accepted")
	}
	cfg = control.DefaultConfig()
	cfg.Tune.MaxPollEvents = -1
	if cfg.Validate() == nil {
		t.Error("negative maxpollevents accepted")
	}
}

func TestStoreReload(t *testing.T) {
	s, err := control.NewStore(control.DefaultConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	var seen []int
	s.OnReload(func(cfg control.Config) { seen = append(seen, cfg.Maxsock) })

	next := control.DefaultConfig()
	next.Maxsock = 4096
	if err := s.Update(next); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.Snapshot().Maxsock != 4096 {
		t.Errorf("Snapshot.Maxsock = %d, want 4096", s.Snapshot().Maxsock)
	}
	if len(seen) != 1 || seen[0] != 4096 {
		t.Errorf("listener saw %v, want [4096]", seen)
	}

	bad := next
	bad.Maxsock = 0
	if s.Update(bad) == nil {
		t.Error("invalid update accepted")
	}
	if len(seen) != 1 {
		t.Error("listener dispatched on rejected update")
	}
}

func TestMetricsCounters(t *testing.T) {
	mr := control.NewMetricsRegistry()
	mr.Inc("poll.loops")
	mr.Inc("poll.loops")
	mr.Add("poll.kernel_events", 7)
	if got := mr.Get("poll.loops"); got != 2 {
		t.Errorf("loops = %d, want 2", got)
	}
	snap := mr.GetSnapshot()
	if snap["poll.kernel_events"] != 7 {
		t.Errorf("snapshot = %v", snap)
	}
	if snap["poll.loops"] != 2 {
		t.Errorf("snapshot = %v", snap)
	}
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })
	dp.RegisterProbe("other", func() any { return "x" })
	if got := dp.DumpState()["answer"]; got != 42 {
		t.Errorf("probe = %v, want 42", got)
	}
	names := dp.Names()
	if len(names) != 2 || names[0] != "answer" || names[1] != "other" {
		t.Errorf("Names = %v", names)
	}
	dp.RegisterProbe("other", nil)
	if _, ok := dp.DumpState()["other"]; ok {
		t.Error("probe survived removal")
	}
}
