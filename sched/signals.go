// File: sched/signals.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Deferred signal queue. Signals are recorded from asynchronous
// context (an os/signal goroutine) and handled synchronously on the
// poll thread between ticks, so handlers may touch poller state.

package sched

import (
	"sync"

	"github.com/eapache/queue"
)

// SignalHandler processes one deferred signal number.
type SignalHandler func(sig int)

// SignalQueue records received signal numbers until the poll thread
// dispatches them. A non-empty queue forces a zero poll timeout.
type SignalQueue struct {
	mu       sync.Mutex
	q        *queue.Queue
	handlers map[int]SignalHandler
}

// NewSignalQueue creates an empty signal queue.
func NewSignalQueue() *SignalQueue {
	return &SignalQueue{
		q:        queue.New(),
		handlers: make(map[int]SignalHandler),
	}
}

// Register installs the handler for sig, replacing any previous one.
func (s *SignalQueue) Register(sig int, h SignalHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.handlers, sig)
		return
	}
	s.handlers[sig] = h
}

// Notify records one occurrence of sig. Signals without a registered
// handler are dropped. Safe to call from any goroutine.
func (s *SignalQueue) Notify(sig int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handlers[sig]; !ok {
		return
	}
	s.q.Add(sig)
}

// Len returns the number of queued signals.
func (s *SignalQueue) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.Length()
}

// Empty reports whether no signal is queued.
func (s *SignalQueue) Empty() bool { return s.Len() == 0 }

// Dispatch runs handlers for all queued signals on the calling
// thread and returns the number handled.
func (s *SignalQueue) Dispatch() int {
	ran := 0
	for {
		s.mu.Lock()
		if s.q.Length() == 0 {
			s.mu.Unlock()
			return ran
		}
		sig := s.q.Remove().(int)
		h := s.handlers[sig]
		s.mu.Unlock()
		if h != nil {
			h(sig)
			ran++
		}
	}
}
