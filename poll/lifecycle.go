// File: poll/lifecycle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Poller lifecycle: init, termination, self-test and fork recovery.

package poll

import (
	"fmt"

	"github.com/pivotal-golang/lager"

	"github.com/momentics/hioload-poll/api"
)

// Init creates the kernel object sized for maxsock+1 fds and the
// event buffer sized max(tune.maxpollevents, maxsock). On failure the
// preference drops to 0 (Pref reports 0) and the error is returned.
// Registry entries keep their own preference: BestPoller does not read
// Pref of an already built poller, so this does not change its choice.
func (p *Poller) Init() error {
	b, err := p.newBackend(p.cfg.Maxsock + 1)
	if err != nil {
		p.pref = 0
		return fmt.Errorf("sepoll init: %w", err)
	}
	p.backend = b

	p.absMaxEvents = p.cfg.Tune.MaxPollEvents
	if p.cfg.Maxsock > p.absMaxEvents {
		p.absMaxEvents = p.cfg.Maxsock
	}
	p.events = make([]api.BackendEvent, p.absMaxEvents)

	p.log.Info("init", lager.Data{
		"poller": p.name, "maxsock": p.cfg.Maxsock,
		"absmaxevents": p.absMaxEvents,
	})
	return nil
}

// Term releases the event buffer, closes the kernel object and drops
// the preference to 0.
func (p *Poller) Term() {
	p.events = nil
	p.absMaxEvents = 0
	if p.backend != nil {
		if err := p.backend.Close(); err != nil {
			p.log.Debug("term-close", lager.Data{"error": err.Error()})
		}
		p.backend = nil
	}
	p.pref = 0
	p.log.Info("term", lager.Data{"poller": p.name})
}

// Test attempts a throwaway creation of the kernel object.
func (p *Poller) Test() bool {
	b, err := p.newBackend(p.cfg.Maxsock + 1)
	if err != nil {
		return false
	}
	_ = b.Close()
	return true
}

// Fork closes the kernel object inherited from the parent process and
// creates a fresh one. A poll object shared across forks has been
// seen delivering readiness for fds already removed in the other
// process, so the handle is recreated, never migrated. The new
// interest set starts empty while fd states are kept as they were:
// later drains only issue mutations for status changes made after the
// fork, so fds already polled before it are not re-added.
func (p *Poller) Fork() error {
	if p.backend != nil {
		_ = p.backend.Close()
		p.backend = nil
	}
	b, err := p.newBackend(p.cfg.Maxsock + 1)
	if err != nil {
		return fmt.Errorf("sepoll fork: %w", err)
	}
	p.backend = b
	p.log.Info("fork", lager.Data{"poller": p.name})
	return nil
}
