// File: sched/sched_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sched_test

import (
	"testing"

	"github.com/momentics/hioload-poll/sched"
)

func TestRunQueueOrder(t *testing.T) {
	q := sched.NewRunQueue()
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		q.Enqueue(func() { order = append(order, i) })
	}
	if q.Empty() || q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}
	if ran := q.Drain(0); ran != 3 {
		t.Fatalf("Drain ran %d, want 3", ran)
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("order = %v, want FIFO", order)
		}
	}
	if !q.Empty() {
		t.Error("queue not empty after drain")
	}
}

func TestRunQueueDrainBound(t *testing.T) {
	q := sched.NewRunQueue()
	for i := 0; i < 5; i++ {
		q.Enqueue(func() {})
	}
	if ran := q.Drain(2); ran != 2 {
		t.Errorf("Drain ran %d, want 2", ran)
	}
	if q.Len() != 3 {
		t.Errorf("Len = %d after bounded drain, want 3", q.Len())
	}
}

func TestRunQueueReentrantEnqueue(t *testing.T) {
	q := sched.NewRunQueue()
	var ran int
	q.Enqueue(func() {
		ran++
		q.Enqueue(func() { ran++ })
	})
	q.Drain(0)
	if ran != 2 {
		t.Errorf("ran = %d, want 2 (reentrant task runs in same drain)", ran)
	}
}

func TestSignalQueueDropsUnregistered(t *testing.T) {
	s := sched.NewSignalQueue()
	s.Notify(15)
	if !s.Empty() {
		t.Error("unregistered signal queued")
	}
}

func TestSignalQueueDispatch(t *testing.T) {
	s := sched.NewSignalQueue()
	var got []int
	s.Register(2, func(sig int) { got = append(got, sig) })
	s.Register(15, func(sig int) { got = append(got, sig) })
	s.Notify(2)
	s.Notify(15)
	s.Notify(2)
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if ran := s.Dispatch(); ran != 3 {
		t.Fatalf("Dispatch ran %d, want 3", ran)
	}
	want := []int{2, 15, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if !s.Empty() {
		t.Error("queue not empty after dispatch")
	}
}

func TestSignalQueueUnregister(t *testing.T) {
	s := sched.NewSignalQueue()
	s.Register(2, func(int) {})
	s.Register(2, nil)
	s.Notify(2)
	if !s.Empty() {
		t.Error("signal queued after handler removal")
	}
}
