// File: poll/lifecycle_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package poll_test

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-poll/api"
	"github.com/momentics/hioload-poll/control"
	"github.com/momentics/hioload-poll/fake"
	"github.com/momentics/hioload-poll/poll"
)

func TestInitSizesEventBuffer(t *testing.T) {
	p, _ := newTestPoller(t)
	// maxsock 64 dominates maxpollevents 8
	if got := p.AbsMaxEvents(); got != 64 {
		t.Errorf("AbsMaxEvents = %d, want 64", got)
	}
	if p.Pref() != poll.PollerPref {
		t.Errorf("Pref = %d, want %d", p.Pref(), poll.PollerPref)
	}
}

func TestInitFailureDisablesPoller(t *testing.T) {
	boom := errors.New("no kernel object")
	p, err := poll.NewSpeculative(poll.Options{
		Config: control.Config{Maxsock: 16, Tune: control.TuneOptions{MaxPollEvents: 4}},
		Backend: func(int) (api.Backend, error) {
			return nil, boom
		},
	})
	if err != nil {
		t.Fatalf("NewSpeculative: %v", err)
	}
	if err := p.Init(); !errors.Is(err, boom) {
		t.Errorf("Init error = %v, want wrapped %v", err, boom)
	}
	if p.Pref() != 0 {
		t.Errorf("Pref = %d after failed init, want 0", p.Pref())
	}
}

func TestTermReleasesBackend(t *testing.T) {
	p, b := newTestPoller(t)
	p.Term()
	if !b.Closed() {
		t.Error("backend not closed by Term")
	}
	if p.Pref() != 0 {
		t.Errorf("Pref = %d after Term, want 0", p.Pref())
	}
	if p.AbsMaxEvents() != 0 {
		t.Errorf("AbsMaxEvents = %d after Term, want 0", p.AbsMaxEvents())
	}
}

func TestSelfTest(t *testing.T) {
	p, _ := newTestPoller(t)
	if !p.Test() {
		t.Error("Test failed with a working backend")
	}

	q, err := poll.NewSpeculative(poll.Options{
		Config: control.Config{Maxsock: 16, Tune: control.TuneOptions{MaxPollEvents: 4}},
		Backend: func(int) (api.Backend, error) {
			return nil, errors.New("nope")
		},
	})
	if err != nil {
		t.Fatalf("NewSpeculative: %v", err)
	}
	if q.Test() {
		t.Error("Test passed with a failing backend")
	}
}

func TestForkRecreatesBackend(t *testing.T) {
	old := fake.NewBackend()
	fresh := fake.NewBackend()
	backends := []*fake.Backend{old, fresh}
	p, err := poll.NewSpeculative(poll.Options{
		Config: control.Config{Maxsock: 16, Tune: control.TuneOptions{MaxPollEvents: 4}},
		Backend: func(int) (api.Backend, error) {
			b := backends[0]
			backends = backends[1:]
			return b, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSpeculative: %v", err)
	}
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := p.Fork(); err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if !old.Closed() {
		t.Error("inherited backend not closed across fork")
	}
	if fresh.Closed() {
		t.Error("fresh backend closed prematurely")
	}

	// the recreated interest set starts empty; the next drain adds
	// the fd polled after the fork to it
	p.Table().Allocate(2, "x", noopCB)
	p.SetPolled(2, api.DirRead)
	p.Poll(0)
	if len(old.CtlCalls) != 0 {
		t.Errorf("mutations reached the dead backend: %+v", old.CtlCalls)
	}
	if len(fresh.CtlCalls) != 1 {
		t.Errorf("fresh backend ctl calls = %d, want 1", len(fresh.CtlCalls))
	}
}
