// File: poll/state.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-direction fd status primitives. Every mutator is O(1) and
// touches only in-memory state. Except for CloseNotify, a mutator that
// changes the status records the fd in the update list so the next
// tick's drain reconciles the kernel interest set and the speculative
// list in one pass.

package poll

import (
	"github.com/momentics/hioload-poll/api"
)

// IsSet returns the current status bits of (fd, dir); nonzero means
// the callback holds some interest in that direction.
func (p *Poller) IsSet(fd int, dir api.Direction) uint8 {
	return (p.tab.entries[fd].state >> dir.Shift()) & api.EvStatus
}

// SetActive marks (fd, dir) for speculative invocation. The polled
// bit, if set, is deliberately left alone: clearing it would cost a
// kernel mutation on the next drain, and an fd that is ready now
// typically stays ready.
func (p *Poller) SetActive(fd int, dir api.Direction) {
	e := &p.tab.entries[fd]
	i := (e.state >> dir.Shift()) & api.EvStatus

	if i&api.EvActive != 0 {
		return // already in desired state
	}
	p.tab.UpdtFd(fd) // need an update entry to change the state
	e.state |= api.EvActive << dir.Shift()
}

// SetPolled switches (fd, dir) to exactly polled state: the callback
// stalled and wants kernel-reported readiness.
func (p *Poller) SetPolled(fd int, dir api.Direction) {
	e := &p.tab.entries[fd]
	i := (e.state >> dir.Shift()) & api.EvStatus

	if i == api.EvPolled {
		return // already in desired state
	}
	p.tab.UpdtFd(fd) // need an update entry to change the state
	e.state ^= (i ^ api.EvPolled) << dir.Shift()
}

// Clear drops all interest in (fd, dir).
func (p *Poller) Clear(fd int, dir api.Direction) {
	e := &p.tab.entries[fd]
	i := (e.state >> dir.Shift()) & api.EvStatus

	if i == 0 {
		return // already disabled
	}
	p.tab.UpdtFd(fd) // need an update entry to change the state
	e.state ^= i << dir.Shift()
}

// Remove clears both directions of fd. Normally unused; close paths
// prefer CloseNotify.
func (p *Poller) Remove(fd int) {
	p.Clear(fd, api.DirRead)
	p.Clear(fd, api.DirWrite)
}

// CloseNotify records that fd has been closed. The kernel drops
// closed fds from the interest set on its own, so no mutation is
// issued; the speculative entry is released and both status nibbles
// reset so the fd reads as never drained.
func (p *Poller) CloseNotify(fd int) {
	p.tab.ReleaseSpecEntry(fd)
	p.tab.entries[fd].state &^= api.EvCurrMask | api.EvPrevMask
}
