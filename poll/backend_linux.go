//go:build linux

// File: poll/backend_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7) backend: a level-triggered kernel interest set keyed
// by fd.

package poll

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-poll/api"
)

type epollBackend struct {
	epfd int
	raw  []unix.EpollEvent
}

// NewEpollBackend opens an epoll instance sized for sizeHint fds. The
// hint only preserves the historical epoll_create contract; modern
// kernels ignore it.
func NewEpollBackend(sizeHint int) (api.Backend, error) {
	_ = sizeHint
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &epollBackend{epfd: epfd}, nil
}

func defaultBackendFactory(sizeHint int) (api.Backend, error) {
	return NewEpollBackend(sizeHint)
}

func ctlOpcode(op api.CtlOp) int {
	switch op {
	case api.CtlAdd:
		return unix.EPOLL_CTL_ADD
	case api.CtlMod:
		return unix.EPOLL_CTL_MOD
	default:
		return unix.EPOLL_CTL_DEL
	}
}

// Ctl applies one interest-set mutation.
func (b *epollBackend) Ctl(op api.CtlOp, fd int, mask api.DirMask) error {
	var ev unix.EpollEvent
	if mask.Read {
		ev.Events |= unix.EPOLLIN
	}
	if mask.Write {
		ev.Events |= unix.EPOLLOUT
	}
	ev.Fd = int32(fd)
	return unix.EpollCtl(b.epfd, ctlOpcode(op), fd, &ev)
}

// Wait blocks up to timeoutMs and translates the returned readiness
// into Poll* bits. EINTR reads as an empty return.
func (b *epollBackend) Wait(events []api.BackendEvent, timeoutMs int) (int, error) {
	if len(b.raw) < len(events) {
		b.raw = make([]unix.EpollEvent, len(events))
	}
	n, err := unix.EpollWait(b.epfd, b.raw[:len(events)], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		e := b.raw[i].Events
		var bits uint32
		if e&unix.EPOLLIN != 0 {
			bits |= api.PollIn
		}
		if e&unix.EPOLLPRI != 0 {
			bits |= api.PollPri
		}
		if e&unix.EPOLLOUT != 0 {
			bits |= api.PollOut
		}
		if e&unix.EPOLLERR != 0 {
			bits |= api.PollErr
		}
		if e&unix.EPOLLHUP != 0 {
			bits |= api.PollHup
		}
		events[i] = api.BackendEvent{Fd: int(b.raw[i].Fd), Events: bits}
	}
	return n, nil
}

// Close releases the epoll instance.
func (b *epollBackend) Close() error {
	return unix.Close(b.epfd)
}
