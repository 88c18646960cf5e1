// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides test doubles for the kernel backend seam.
package fake

import (
	"github.com/momentics/hioload-poll/api"
)

// CtlCall records one interest-set mutation.
type CtlCall struct {
	Op   api.CtlOp
	Fd   int
	Mask api.DirMask
}

// Backend is a scriptable api.Backend: queue batches of events with
// PushBatch and inspect recorded mutations and timeouts afterwards.
type Backend struct {
	// CtlCalls holds every mutation in issue order.
	CtlCalls []CtlCall
	// CtlErr, when set, is returned by every Ctl.
	CtlErr error

	// WaitTimeouts records the timeout of each Wait in call order.
	WaitTimeouts []int
	// WaitErr, when set, is returned by the next Wait and cleared.
	WaitErr error

	batches [][]api.BackendEvent
	closed  bool
}

// NewBackend returns an empty scripted backend.
func NewBackend() *Backend { return &Backend{} }

// Factory adapts the backend to api.BackendFactory, handing out the
// same instance for every creation.
func (b *Backend) Factory(sizeHint int) (api.Backend, error) {
	_ = sizeHint
	b.closed = false
	return b, nil
}

// PushBatch schedules the events returned by the next unconsumed Wait.
func (b *Backend) PushBatch(events ...api.BackendEvent) {
	b.batches = append(b.batches, events)
}

// Interest reconstructs the kernel interest set from the recorded
// mutations: fd -> requested directions.
func (b *Backend) Interest() map[int]api.DirMask {
	set := make(map[int]api.DirMask)
	for _, c := range b.CtlCalls {
		switch c.Op {
		case api.CtlDel:
			delete(set, c.Fd)
		default:
			set[c.Fd] = c.Mask
		}
	}
	return set
}

// Closed reports whether Close ran.
func (b *Backend) Closed() bool { return b.closed }

func (b *Backend) Ctl(op api.CtlOp, fd int, mask api.DirMask) error {
	if b.CtlErr != nil {
		return b.CtlErr
	}
	b.CtlCalls = append(b.CtlCalls, CtlCall{Op: op, Fd: fd, Mask: mask})
	return nil
}

func (b *Backend) Wait(events []api.BackendEvent, timeoutMs int) (int, error) {
	b.WaitTimeouts = append(b.WaitTimeouts, timeoutMs)
	if err := b.WaitErr; err != nil {
		b.WaitErr = nil
		return 0, err
	}
	if len(b.batches) == 0 {
		return 0, nil
	}
	batch := b.batches[0]
	b.batches = b.batches[1:]
	n := copy(events, batch)
	return n, nil
}

func (b *Backend) Close() error {
	b.closed = true
	return nil
}
