// File: api/poller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Abstract interfaces for readiness pollers and their kernel backends,
// multiplexing connections across poll-mode mechanisms (epoll today,
// kqueue or io_uring behind the same seam).

package api

import (
	"github.com/momentics/hioload-poll/clock"
)

// CtlOp is a kernel interest-set mutation opcode.
type CtlOp int

const (
	CtlAdd CtlOp = iota
	CtlMod
	CtlDel
)

func (op CtlOp) String() string {
	switch op {
	case CtlAdd:
		return "add"
	case CtlMod:
		return "mod"
	default:
		return "del"
	}
}

// DirMask names the directions requested from the kernel interest set.
type DirMask struct {
	Read  bool
	Write bool
}

// BackendEvent is one readiness notification returned by a backend
// wait. Events carries Poll* bits already translated from the native
// representation.
type BackendEvent struct {
	Fd     int
	Events uint32
}

// Backend is the kernel interest-set seam: a level-triggered readiness
// primitive keyed by fd. Mutations are only issued during the update
// drain phase of a tick.
type Backend interface {
	// Ctl applies one interest-set mutation for fd.
	Ctl(op CtlOp, fd int, mask DirMask) error

	// Wait blocks up to timeoutMs (0 means return immediately) and
	// fills events with pending notifications, returning the count.
	Wait(events []BackendEvent, timeoutMs int) (int, error)

	// Close releases the kernel object.
	Close() error
}

// BackendFactory creates a Backend sized for sizeHint concurrent fds.
// Lifecycle operations (init, self-test, post-fork recreation) go
// through the factory rather than reusing a handle.
type BackendFactory func(sizeHint int) (Backend, error)

// Poller is the vtable every registered poller implements.
//
// All fd-state mutators are O(1), never issue syscalls, and may be
// called from inside an I/O callback, including on fds other than the
// one being dispatched.
type Poller interface {
	// Name identifies the poller in the registry.
	Name() string

	// Pref is the selection preference; 0 marks the poller unusable.
	Pref() int

	// Test checks that the underlying mechanism works, without
	// keeping any resource.
	Test() bool

	// Init creates the kernel object and event buffer. On failure the
	// preference reported by Pref drops to 0.
	Init() error

	// Term releases everything Init acquired.
	Term()

	// Poll runs one tick: apply pending state changes, wait for
	// kernel readiness no later than exp, dispatch callbacks.
	Poll(exp clock.Tick)

	// Fork discards the kernel object inherited across fork() and
	// creates a fresh one.
	Fork() error

	// IsSet reports the current status bits of (fd, dir).
	IsSet(fd int, dir Direction) uint8

	// SetActive marks (fd, dir) for speculative invocation.
	SetActive(fd int, dir Direction)

	// SetPolled switches (fd, dir) to kernel-notified waiting.
	SetPolled(fd int, dir Direction)

	// Clear drops all interest in (fd, dir).
	Clear(fd int, dir Direction)

	// Remove clears both directions of fd.
	Remove(fd int)

	// CloseNotify tells the poller fd has been closed. No kernel
	// mutation is issued; the OS drops closed fds on its own.
	CloseNotify(fd int)

	// InPollLoop reports whether callbacks are being dispatched right
	// now.
	InPollLoop() bool

	// AbsMaxEvents is the event buffer capacity chosen at Init.
	AbsMaxEvents() int
}
