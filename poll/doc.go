// File: poll/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package poll implements a speculative readiness poller over a
// level-triggered kernel backend.
//
// Readiness is tracked at two levels. An fd direction in polled state
// sits in the kernel interest set and is woken by the kernel. A
// direction in active state is assumed ready: its callback runs every
// tick straight from a user-space list, with no syscall involved. An
// fd that was just active usually stays ready, so the common case of
// short bursts on few fds runs entirely in user space; the fd only
// returns to the kernel set when its callback stalls and asks to wait.
//
// State changes made by callbacks are recorded in an update list and
// reconciled with the kernel set at the start of the next tick, so a
// flurry of transitions inside one tick collapses into at most one
// interest-set mutation per fd.
package poll
