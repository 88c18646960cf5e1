// File: poll/sepoll.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The speculative poll loop. One call to Poll is one tick:
//
//	apply the update list -> compute the wait timeout -> kernel wait ->
//	dispatch kernel events -> drain fds created by callbacks ->
//	dispatch the speculative list.

package poll

import (
	"github.com/pivotal-golang/lager"
	"go.uber.org/atomic"

	"github.com/momentics/hioload-poll/api"
	"github.com/momentics/hioload-poll/clock"
	"github.com/momentics/hioload-poll/control"
	"github.com/momentics/hioload-poll/sched"
)

// MaxDelayMs caps a single kernel wait so housekeeping runs at least
// this often even with no deadline.
const MaxDelayMs = 60000

// PollerName is the registry name of the speculative poller.
const PollerName = "sepoll"

// PollerPref is its registry preference.
const PollerPref = 400

// Options configure a Poller. Zero-value fields fall back to defaults.
type Options struct {
	// Config supplies maxsock and tuning; DefaultConfig if zero.
	Config control.Config

	// Logger receives debug and lifecycle records. A sinkless logger
	// is installed when nil.
	Logger lager.Logger

	// Backend creates the kernel interest set. Defaults to the
	// platform backend (epoll on Linux).
	Backend api.BackendFactory

	// RunQueue and SignalQueue are consulted for pending work when
	// computing the wait timeout. Fresh empty queues when nil.
	RunQueue    *sched.RunQueue
	SignalQueue *sched.SignalQueue

	// Metrics, when set, receives poll.* counters.
	Metrics *control.MetricsRegistry
}

// Poller is the speculative event poller. It is a single instance
// with lifetime bounded by Init/Term; one thread runs Poll, and all
// table state belongs to that thread.
type Poller struct {
	name string
	pref int

	cfg control.Config
	log lager.Logger

	tab        *Table
	newBackend api.BackendFactory
	backend    api.Backend

	events       []api.BackendEvent
	absMaxEvents int

	run *sched.RunQueue
	sig *sched.SignalQueue

	metrics *control.MetricsRegistry

	// inPollLoop is observable from other goroutines that need to
	// know whether callbacks are currently firing.
	inPollLoop *atomic.Bool
}

// NewSpeculative builds a speculative poller. Init must run before the
// first Poll.
func NewSpeculative(opts Options) (*Poller, error) {
	cfg := opts.Config
	if cfg == (control.Config{}) {
		cfg = control.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = lager.NewLogger("hioload-poll")
	}
	factory := opts.Backend
	if factory == nil {
		factory = defaultBackendFactory
	}
	run := opts.RunQueue
	if run == nil {
		run = sched.NewRunQueue()
	}
	sig := opts.SignalQueue
	if sig == nil {
		sig = sched.NewSignalQueue()
	}
	return &Poller{
		name:       PollerName,
		pref:       PollerPref,
		cfg:        cfg,
		log:        log,
		tab:        NewTable(cfg.Maxsock),
		newBackend: factory,
		run:        run,
		sig:        sig,
		metrics:    opts.Metrics,
		inPollLoop: atomic.NewBool(false),
	}, nil
}

// Name implements api.Poller.
func (p *Poller) Name() string { return p.name }

// Pref implements api.Poller; 0 after a failed Init.
func (p *Poller) Pref() int { return p.pref }

// Table exposes the fd table so owners can allocate and release fds.
func (p *Poller) Table() *Table { return p.tab }

// InPollLoop reports whether callbacks are being dispatched.
func (p *Poller) InPollLoop() bool { return p.inPollLoop.Load() }

// AbsMaxEvents returns the event buffer capacity chosen at Init.
func (p *Poller) AbsMaxEvents() int { return p.absMaxEvents }

func (p *Poller) count(key string) {
	if p.metrics != nil {
		p.metrics.Inc(key)
	}
}

func (p *Poller) countN(key string, n int) {
	if p.metrics != nil && n > 0 {
		p.metrics.Add(key, uint64(n))
	}
}

// applyUpdates drains the update list: for every queued fd whose
// status changed since the last drain, synchronize the kernel interest
// set and the speculative list, then snapshot the new status into the
// previous nibble. Mutations keep the enqueue order, one per fd at
// most. Flags are cleared unconditionally, owner or not, so the entry
// always leaves in a known state.
func (p *Poller) applyUpdates() {
	t := p.tab
	for updtIdx := 0; updtIdx < t.nbupdt; updtIdx++ {
		fd := t.updt[updtIdx]
		e := &t.entries[fd]
		en := e.state & api.EvCurrMask // new events
		eo := e.state >> 4             // previous events

		if e.Owner != nil && eo != en {
			if (eo^en)&api.EvPolledRW != 0 {
				// poll status changed
				var op api.CtlOp
				if en&api.EvPolledRW == 0 {
					// fd removed from poll list
					op = api.CtlDel
				} else if eo&api.EvPolledRW == 0 {
					// new fd in the poll list
					op = api.CtlAdd
				} else {
					// fd status changed
					op = api.CtlMod
				}

				mask := api.DirMask{
					Read:  en&api.EvPolledR != 0,
					Write: en&api.EvPolledW != 0,
				}
				if err := p.backend.Ctl(op, fd, mask); err != nil {
					// Likely a concurrently closed fd; the next
					// drain reconciles.
					p.count("poll.ctl_errors")
					p.log.Debug("interest-set-ctl", lager.Data{
						"fd": fd, "op": op.String(), "error": err.Error(),
					})
				}
			}

			e.state = en<<4 | en // save new events

			if en&api.EvActiveRW == 0 {
				// no active entry needed anymore, kill it
				t.ReleaseSpecEntry(fd)
			} else if (en&^eo)&api.EvActiveRW != 0 {
				// we need a spec entry now
				t.AllocSpecEntry(fd)
			}
		}
		e.updated = false
		e.isNew = false
	}
	t.nbupdt = 0
}

// waitTime computes the kernel wait timeout in milliseconds for the
// given expiry tick.
func (p *Poller) waitTime(exp clock.Tick) int {
	if p.tab.nbspec > 0 || !p.run.Empty() || !p.sig.Empty() {
		// Events may still sit in the spec list, or tasks and signals
		// are pending; blocking would delay their delivery until the
		// next timeout.
		return 0
	}
	if exp == clock.Eternity {
		return MaxDelayMs
	}
	now := clock.Now()
	if clock.IsExpired(exp, now) {
		return 0
	}
	// +1 so sub-millisecond remainders don't spin.
	wt := clock.TicksToMs(clock.Remain(now, exp)) + 1
	if wt > MaxDelayMs {
		wt = MaxDelayMs
	}
	return wt
}

// Poll runs one tick. exp is the next caller deadline as a tick,
// clock.Eternity for none.
func (p *Poller) Poll(exp clock.Tick) {
	t := p.tab

	p.applyUpdates()

	wt := p.waitTime(exp)

	capHint := t.MaxFdInUse()
	if capHint > p.cfg.Tune.MaxPollEvents {
		capHint = p.cfg.Tune.MaxPollEvents
	}
	if capHint < 1 {
		capHint = 1
	}

	clock.BeforeWait()
	n, err := p.backend.Wait(p.events[:capHint], wt)
	if err != nil {
		// Interruptions and transient failures count as an empty
		// return; the spec list still gets its pass below.
		p.log.Debug("kernel-wait", lager.Data{"error": err.Error()})
		n = 0
	}
	clock.UpdateDate(wt, n)
	clock.MeasureIdle()

	p.count("poll.loops")
	p.countN("poll.kernel_events", n)

	p.inPollLoop.Store(true)

	// process kernel events
	for count := 0; count < n; count++ {
		fd := p.events[count].Fd
		e := &t.entries[fd]

		if e.Owner == nil {
			// closed by an earlier callback in this batch
			continue
		}

		e.Ev = (e.Ev & api.PollSticky) | p.events[count].Events

		if e.IOCB != nil && e.Ev != 0 {
			oldUpdt := t.nbupdt // mark to detect fds created by the iocb

			// Mark the events speculative before processing them, so
			// that if nothing can be done we don't need to poll again:
			// the callback's own SetPolled overrides this when it
			// really has to wait.
			if e.Ev&(api.PollIn|api.PollHup|api.PollErr) != 0 {
				p.SetActive(fd, api.DirRead)
			}
			if e.Ev&(api.PollOut|api.PollErr) != 0 {
				p.SetActive(fd, api.DirWrite)
			}

			e.IOCB(fd)

			p.drainNewFds(oldUpdt)
		}
	}

	p.specDrive()

	p.inPollLoop.Store(false)
}

// drainNewFds gives fds created during the last callback one dispatch
// within the same tick. New incoming connections that were just
// accepted get driven a full cycle immediately, which shortens the
// time to first byte. The scan runs backwards from the update-list
// tail so a trailing entry whose fd ended up fully idle can be popped
// on the spot; non-trailing idle entries stay and become no-ops at the
// next drain.
func (p *Poller) drainNewFds(oldUpdt int) {
	t := p.tab
	for newUpdt := t.nbupdt; newUpdt > oldUpdt; newUpdt-- {
		fd := t.updt[newUpdt-1]
		e := &t.entries[fd]
		if !e.isNew {
			continue
		}

		e.isNew = false
		e.Ev &= api.PollSticky

		if e.state&api.EvStatusR == api.EvActiveR {
			e.Ev |= api.PollIn
		}
		if e.state&api.EvStatusW == api.EvActiveW {
			e.Ev |= api.PollOut
		}

		if e.Ev != 0 && e.IOCB != nil && e.Owner != nil {
			p.count("poll.nested_events")
			e.IOCB(fd)
		}

		if newUpdt == t.nbupdt && e.state == 0 {
			e.updated = false
			t.nbupdt--
		}
	}
}

// specDrive dispatches the speculative list. Directions that are
// exactly active (not also polled) synthesize their readiness bit; the
// callback may retag the fd for polling or drop it, and those changes
// apply at the next drain. When the callback releases the current
// entry, the swap-in successor lands at the same index and must not be
// skipped, so the index only advances while the slot still holds the
// fd just processed.
func (p *Poller) specDrive() {
	t := p.tab
	for specIdx := 0; specIdx < t.nbspec; {
		fd := t.spec[specIdx]
		e := &t.entries[fd]
		eo := e.state

		e.Ev &= api.PollSticky

		if eo&api.EvStatusR == api.EvActiveR {
			e.Ev |= api.PollIn
		}
		if eo&api.EvStatusW == api.EvActiveW {
			e.Ev |= api.PollOut
		}

		if e.IOCB != nil && e.Owner != nil && e.Ev != 0 {
			p.count("poll.spec_events")
			e.IOCB(fd)
		}

		if specIdx < t.nbspec && t.spec[specIdx] != fd {
			continue
		}
		specIdx++
	}
}

// RegisterProbes exposes the poller's internals as debug probes.
func (p *Poller) RegisterProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("in_poll_loop", func() any { return p.InPollLoop() })
	dp.RegisterProbe("absmaxevents", func() any { return p.absMaxEvents })
	dp.RegisterProbe("nbupdt", func() any { return p.tab.NbUpdt() })
	dp.RegisterProbe("nbspec", func() any { return p.tab.NbSpec() })
}
