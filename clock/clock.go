// File: clock/clock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Millisecond tick clock for the poll loop. Ticks are 32-bit and wrap;
// comparisons use signed distance so that values up to ~24 days apart
// order correctly. Tick 0 is reserved as "no deadline".

package clock

import (
	"time"

	"go.uber.org/atomic"
)

// Tick is a point in time expressed in milliseconds, wrapping at 2^32.
type Tick uint32

// Eternity is the zero Tick: no deadline.
const Eternity Tick = 0

var (
	base = time.Now()

	// nowMs is refreshed by UpdateDate after every kernel wait so the
	// whole tick sees one coherent timestamp.
	nowMs = atomic.NewUint32(rawNowMs())

	beforePoll = atomic.NewInt64(base.UnixNano())
	idlePct    = atomic.NewUint32(100)

	samples struct {
		lastRet int64 // nanos at the end of the previous wait
	}
)

func rawNowMs() uint32 {
	ms := uint32(time.Since(base) / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	return ms
}

// Now returns the cached current tick. It only moves when UpdateDate
// runs, mirroring the once-per-tick date model of the poll loop.
func Now() Tick { return Tick(nowMs.Load()) }

// IsExpired reports whether exp is at or before now. Callers handle
// Eternity themselves.
func IsExpired(exp, now Tick) bool { return int32(exp-now) <= 0 }

// Remain returns the ticks left from now to exp, or 0 if expired.
func Remain(now, exp Tick) Tick {
	if IsExpired(exp, now) {
		return 0
	}
	return exp - now
}

// TicksToMs converts a tick distance to milliseconds. Ticks are
// already milliseconds; the conversion exists to keep call sites
// explicit about units.
func TicksToMs(t Tick) int { return int(t) }

// Add returns t advanced by ms, skipping Eternity on wrap.
func Add(t Tick, ms int) Tick {
	r := t + Tick(ms)
	if r == Eternity {
		r++
	}
	return r
}

// BeforeWait records the timestamp taken just before the kernel wait.
func BeforeWait() { beforePoll.Store(time.Now().UnixNano()) }

// UpdateDate refreshes the cached tick after a kernel wait returned
// nbEvents events. The tick is read from the process's monotonic clock,
// so a jump of the system date does not move it; waitTimeMs and
// nbEvents do not affect the result.
func UpdateDate(waitTimeMs, nbEvents int) {
	_ = waitTimeMs
	_ = nbEvents
	nowMs.Store(rawNowMs())
}

// MeasureIdle folds the duration of the last kernel wait into the
// smoothed idle percentage. Time spent blocked in the kernel counts as
// idle; everything else is load.
func MeasureIdle() {
	now := time.Now().UnixNano()
	start := beforePoll.Load()
	last := samples.lastRet
	samples.lastRet = now
	if last == 0 || now <= last {
		return
	}
	total := now - last
	idle := now - start
	if idle > total {
		idle = total
	}
	cur := uint32(idle * 100 / total)
	prev := idlePct.Load()
	idlePct.Store((prev*3 + cur) / 4)
}

// IdlePct returns the smoothed idle percentage, 0-100.
func IdlePct() int { return int(idlePct.Load()) }
