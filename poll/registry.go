// File: poll/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide poller registry. Pollers publish themselves at package
// init time with a preference; the runtime picks the highest-ranked
// one whose self-test passes.

package poll

import (
	"sync"

	"github.com/momentics/hioload-poll/api"
)

// MaxPollers bounds the registry; registration past the cap is
// silently skipped.
const MaxPollers = 10

// Registration describes one selectable poller.
type Registration struct {
	Name string
	Pref int
	// Build constructs the poller; Init has not run yet.
	Build func(Options) (api.Poller, error)
}

var registry struct {
	mu  sync.Mutex
	tab [MaxPollers]Registration
	nb  int
}

// RegisterPoller publishes a poller. No-op when the table is full or
// the entry has no constructor.
func RegisterPoller(r Registration) {
	if r.Build == nil {
		return
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.nb >= MaxPollers {
		return
	}
	registry.tab[registry.nb] = r
	registry.nb++
}

// Registered returns the published entries in registration order.
func Registered() []Registration {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	out := make([]Registration, registry.nb)
	copy(out, registry.tab[:registry.nb])
	return out
}

// BestPoller builds the highest-preference poller whose self-test
// passes, or nil when none works.
func BestPoller(opts Options) api.Poller {
	regs := Registered()
	for {
		best := -1
		for i, r := range regs {
			if r.Pref <= 0 {
				continue
			}
			if best < 0 || r.Pref > regs[best].Pref {
				best = i
			}
		}
		if best < 0 {
			return nil
		}
		p, err := regs[best].Build(opts)
		if err == nil && p.Test() {
			return p
		}
		regs[best].Pref = 0
	}
}

func init() {
	RegisterPoller(Registration{
		Name: PollerName,
		Pref: PollerPref,
		Build: func(opts Options) (api.Poller, error) {
			return NewSpeculative(opts)
		},
	})
}
