// Package scheduler implements the cooperative, single-threaded
// priority-queue scheduler described in §5: a heap of (scheduled_time,
// priority, insertion_counter) tasks drained by sleeping until the
// earliest event and running it to completion. adapted from
// _examples/original_source/client.py's use of Python's sched.scheduler
// (SCHED.enter(delay, priority, func)) and
// _examples/dedis-student_18_decenar/protocol/consensus_structured.go's
// phase-gated single-goroutine state advancement, which is this
// codebase's closest analogue to "no implicit concurrency, ever".
package scheduler

import (
	"container/heap"
	"errors"

	"go.dedis.ch/dimy/clock"
)

// Task is a unit of scheduled work. It must not block beyond what its
// caller can tolerate; the scheduler runs it to completion before
// considering any other event.
type Task func(s *Scheduler)

// ErrStop is returned by Run when a task calls Stop, unwinding the
// scheduler cleanly -- the Go analogue of client.py's ProgramStop
// exception raised by the STOP command.
var ErrStop = errors.New("scheduler: stopped")

type event struct {
	at       float64 // scaled seconds since clock start
	priority int
	seq      uint64
	task     Task
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*event))
}
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is a cooperative single-threaded event loop. All state it
// touches (via Task callbacks) is free to be unsynchronized as long as
// callers never run a second goroutine concurrently against it -- this is
// the load-bearing assumption §5 documents.
type Scheduler struct {
	clock   *clock.Clock
	events  eventHeap
	nextSeq uint64
	stopped bool
}

// New creates a scheduler driven by the given clock.
func New(c *clock.Clock) *Scheduler {
	return &Scheduler{clock: c}
}

// Clock returns the scheduler's clock, so tasks can compute delays.
func (s *Scheduler) Clock() *clock.Clock {
	return s.clock
}

// Enter schedules task to run after delay (scaled) seconds, at the given
// priority (lower runs first among ties).
func (s *Scheduler) Enter(delay float64, priority int, task Task) {
	s.EnterAbs(s.clock.Now()+delay, priority, task)
}

// EnterAbs schedules task to run at the given absolute scaled time.
func (s *Scheduler) EnterAbs(at float64, priority int, task Task) {
	s.nextSeq++
	heap.Push(&s.events, &event{at: at, priority: priority, seq: s.nextSeq, task: task})
}

// Stop requests that Run return ErrStop once the currently running task
// finishes. It is the only non-local exit the scheduler recognizes.
func (s *Scheduler) Stop() {
	s.stopped = true
}

// Run drains the event queue, sleeping between events, until Stop is
// called or the queue empties. It returns ErrStop on a clean stop, or nil
// if the queue simply ran dry (tasks are expected to reschedule
// themselves; an empty queue usually means every task chose not to).
func (s *Scheduler) Run() error {
	for len(s.events) > 0 {
		next := s.events[0]
		delay := next.at - s.clock.Now()
		if delay > 0 {
			s.clock.SleepSeconds(delay)
		}
		heap.Pop(&s.events)
		next.task(s)
		if s.stopped {
			return ErrStop
		}
	}
	return nil
}

// Pending returns the number of events currently queued. Intended for
// tests.
func (s *Scheduler) Pending() int {
	return len(s.events)
}
