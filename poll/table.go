// File: poll/table.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The fd table and its two companion lists: the ordered update list of
// fds whose status changed since the last drain, and the dense
// speculative list of fds carrying at least one active direction.

package poll

import (
	"fmt"

	"github.com/momentics/hioload-poll/api"
)

// Entry is the per-fd record. Entries live in a fixed array so
// pointers handed out during a tick stay valid while callbacks mutate
// the table.
type Entry struct {
	// Owner identifies who holds the fd; nil means the slot is free
	// and the poller skips the fd everywhere.
	Owner any

	// IOCB is invoked with the fd whenever readiness is reported.
	IOCB api.IOCallback

	// Ev accumulates Poll* readiness bits for the current tick.
	// PollSticky bits survive the per-tick reset.
	Ev uint32

	// state packs the current status nibble (low) and the snapshot
	// taken at the last update drain (high).
	state uint8

	// updated is set while the fd sits in the update list.
	updated bool

	// isNew marks an fd created since the currently executing tick
	// began; such fds get one nested dispatch within the tick.
	isNew bool

	// specPos is the fd's index in the speculative list, -1 if absent.
	specPos int
}

// State returns the packed status byte (current and previous nibbles).
func (e *Entry) State() uint8 { return e.state }

// Updated reports whether the fd is queued in the update list.
func (e *Entry) Updated() bool { return e.updated }

// IsNew reports whether the fd was created during the current tick.
func (e *Entry) IsNew() bool { return e.isNew }

// InSpecList reports speculative-list membership.
func (e *Entry) InSpecList() bool { return e.specPos >= 0 }

// Table owns the fd records and both lists. All operations except
// Release are O(1) (Release walks down past free slots to find the new
// highest fd in use), and none issue syscalls; they are safe to call from inside an I/O
// callback, including on fds other than the one being dispatched.
type Table struct {
	entries []Entry

	updt   []int
	nbupdt int

	spec   []int
	nbspec int

	maxfd int // highest in-use fd + 1
}

// NewTable sizes the table for maxsock concurrent fds.
func NewTable(maxsock int) *Table {
	t := &Table{
		entries: make([]Entry, maxsock),
		updt:    make([]int, maxsock),
		spec:    make([]int, maxsock),
	}
	for i := range t.entries {
		t.entries[i].specPos = -1
	}
	return t
}

// Entry returns the record for fd. The pointer stays valid for the
// table's lifetime.
func (t *Table) Entry(fd int) *Entry { return &t.entries[fd] }

// Cap returns the number of fd slots.
func (t *Table) Cap() int { return len(t.entries) }

// Allocate registers fd with its owner and callback. The fd starts
// with no interest in either direction and is flagged new, so a
// creation from inside a callback gets one nested dispatch within the
// same tick.
func (t *Table) Allocate(fd int, owner any, iocb api.IOCallback) error {
	if fd < 0 || fd >= len(t.entries) {
		return fmt.Errorf("allocate fd %d: %w", fd, api.ErrFdOutOfRange)
	}
	if owner == nil {
		return fmt.Errorf("allocate fd %d: nil owner: %w", fd, api.ErrInvalidArgument)
	}
	e := &t.entries[fd]
	if e.Owner != nil {
		return fmt.Errorf("allocate fd %d: %w", fd, api.ErrFdInUse)
	}
	e.Owner = owner
	e.IOCB = iocb
	e.Ev = 0
	e.state = 0
	e.isNew = true
	e.specPos = -1
	if fd+1 > t.maxfd {
		t.maxfd = fd + 1
	}
	return nil
}

// Release frees the slot. The owner clears immediately so any event
// still queued for this tick is skipped. Status bits and any
// speculative-list entry are left untouched; the update drain skips
// fds without an owner, so it does not reconcile them either.
func (t *Table) Release(fd int) {
	if fd < 0 || fd >= len(t.entries) {
		return
	}
	e := &t.entries[fd]
	e.Owner = nil
	e.IOCB = nil
	for t.maxfd > 0 && t.entries[t.maxfd-1].Owner == nil {
		t.maxfd--
	}
}

// MaxFdInUse returns the highest allocated fd plus one.
func (t *Table) MaxFdInUse() int { return t.maxfd }

// UpdtFd appends fd to the update list unless it is already queued.
func (t *Table) UpdtFd(fd int) {
	e := &t.entries[fd]
	if e.updated {
		return
	}
	e.updated = true
	t.updt[t.nbupdt] = fd
	t.nbupdt++
}

// NbUpdt returns the update list length.
func (t *Table) NbUpdt() int { return t.nbupdt }

// NbSpec returns the speculative list length.
func (t *Table) NbSpec() int { return t.nbspec }

// SpecFd returns the fd stored at idx in the speculative list.
func (t *Table) SpecFd(idx int) int { return t.spec[idx] }

// AllocSpecEntry puts fd on the speculative list. No-op if present.
func (t *Table) AllocSpecEntry(fd int) {
	e := &t.entries[fd]
	if e.specPos >= 0 {
		return
	}
	t.spec[t.nbspec] = fd
	e.specPos = t.nbspec
	t.nbspec++
}

// ReleaseSpecEntry removes fd from the speculative list by swapping
// the last entry into its slot. The back-pointer makes this O(1); a
// traversal running at the vacated index must re-examine it, since the
// swapped-in successor now lives there.
func (t *Table) ReleaseSpecEntry(fd int) {
	e := &t.entries[fd]
	pos := e.specPos
	if pos < 0 {
		return
	}
	t.nbspec--
	moved := t.spec[t.nbspec]
	t.spec[pos] = moved
	t.entries[moved].specPos = pos
	e.specPos = -1
}
