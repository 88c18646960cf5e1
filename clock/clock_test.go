// File: clock/clock_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package clock_test

import (
	"testing"

	"github.com/momentics/hioload-poll/clock"
)

func TestExpiry(t *testing.T) {
	now := clock.Tick(1000)
	if !clock.IsExpired(now, now) {
		t.Error("a tick must be expired relative to itself")
	}
	if !clock.IsExpired(now-1, now) {
		t.Error("past tick not expired")
	}
	if clock.IsExpired(now+1, now) {
		t.Error("future tick reported expired")
	}
}

func TestExpiryAcrossWrap(t *testing.T) {
	now := clock.Tick(0xFFFFFFF0)
	exp := clock.Tick(5) // 21 ms ahead, across the wrap
	if clock.IsExpired(exp, now) {
		t.Error("wrapped future tick reported expired")
	}
	if got := clock.Remain(now, exp); got != 21 {
		t.Errorf("Remain = %d, want 21", got)
	}
}

func TestRemainExpired(t *testing.T) {
	now := clock.Tick(1000)
	if got := clock.Remain(now, now-50); got != 0 {
		t.Errorf("Remain on expired tick = %d, want 0", got)
	}
}

func TestTicksToMs(t *testing.T) {
	if got := clock.TicksToMs(clock.Tick(250)); got != 250 {
		t.Errorf("TicksToMs = %d, want 250", got)
	}
}

func TestAddSkipsEternity(t *testing.T) {
	if got := clock.Add(clock.Tick(0xFFFFFFFF), 1); got == clock.Eternity {
		t.Error("Add produced Eternity on wrap")
	}
	if got := clock.Add(clock.Tick(100), 50); got != 150 {
		t.Errorf("Add = %d, want 150", got)
	}
}

func TestNowNeverEternity(t *testing.T) {
	clock.UpdateDate(0, 0)
	if clock.Now() == clock.Eternity {
		t.Error("Now returned the Eternity sentinel")
	}
}

func TestIdlePctBounded(t *testing.T) {
	clock.BeforeWait()
	clock.UpdateDate(0, 0)
	clock.MeasureIdle()
	if pct := clock.IdlePct(); pct < 0 || pct > 100 {
		t.Errorf("IdlePct = %d, want within [0,100]", pct)
	}
}
