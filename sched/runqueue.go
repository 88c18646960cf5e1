// File: sched/runqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cooperative task queue drained between poll ticks. Single-threaded:
// only the poll thread enqueues and drains.

package sched

import (
	"github.com/eapache/queue"
)

// Task is a unit of deferred work.
type Task func()

// RunQueue holds tasks scheduled to run after the current tick's
// dispatch. A non-empty queue forces the next kernel wait to use a
// zero timeout so task delivery is never delayed by the poll timeout.
type RunQueue struct {
	q *queue.Queue
}

// NewRunQueue creates an empty run queue.
func NewRunQueue() *RunQueue {
	return &RunQueue{q: queue.New()}
}

// Enqueue appends a task.
func (r *RunQueue) Enqueue(t Task) {
	if t == nil {
		return
	}
	r.q.Add(t)
}

// Len returns the number of pending tasks.
func (r *RunQueue) Len() int { return r.q.Length() }

// Empty reports whether no task is pending.
func (r *RunQueue) Empty() bool { return r.q.Length() == 0 }

// Drain pops and runs up to max tasks (all of them if max <= 0) and
// returns the number executed. Tasks enqueued while draining run in
// the same drain; the max bound is what prevents starvation.
func (r *RunQueue) Drain(max int) int {
	ran := 0
	for r.q.Length() > 0 {
		if max > 0 && ran >= max {
			break
		}
		t := r.q.Remove().(Task)
		t()
		ran++
	}
	return ran
}
