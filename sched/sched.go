// Package sched runs deferred and periodic callbacks on the server thread,
// paced by the host's frame clock. Nothing here spawns goroutines: timers
// fire inside Tick, which the frame hook calls once per server frame. Post
// is the single goroutine-safe entry; everything handed to it runs on the
// next frame.
package sched

import (
	"sort"
	"sync"

	"goldmod/internal/log"
)

// Clock reports the host's uptime in seconds.
type Clock interface {
	Now() float64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() float64

func (f ClockFunc) Now() float64 { return f() }

type timer struct {
	id       int
	deadline float64
	period   float64
	fn       func()
	stopped  bool
}

// Scheduler owns the timer table and the cross-thread mailbox.
type Scheduler struct {
	clock  Clock
	timers map[int]*timer
	nextID int

	mu     sync.Mutex
	posted []func()
}

func New(clock Clock) *Scheduler {
	return &Scheduler{
		clock:  clock,
		timers: make(map[int]*timer),
	}
}

// Handle identifies a scheduled callback so it can be stopped. Stop is
// server-thread only, like the rest of the scheduler.
type Handle struct {
	s  *Scheduler
	id int
}

// Stop cancels the callback. Stopping an already-fired or already-stopped
// handle does nothing.
func (h *Handle) Stop() {
	if h == nil || h.s == nil {
		return
	}
	if t, ok := h.s.timers[h.id]; ok {
		t.stopped = true
		delete(h.s.timers, h.id)
	}
}

// After runs fn once, d seconds from now. A non-positive d fires on the
// next frame.
func (s *Scheduler) After(d float64, fn func()) *Handle {
	return s.add(s.clock.Now()+d, 0, fn)
}

// Every runs fn each time d seconds have passed, starting d seconds from
// now. A non-positive d fires every frame.
func (s *Scheduler) Every(d float64, fn func()) *Handle {
	return s.add(s.clock.Now()+d, d, fn)
}

func (s *Scheduler) add(deadline, period float64, fn func()) *Handle {
	if fn == nil {
		return nil
	}
	s.nextID++
	t := &timer{id: s.nextID, deadline: deadline, period: period, fn: fn}
	s.timers[t.id] = t
	return &Handle{s: s, id: t.id}
}

// Post queues fn to run on the server thread next frame. This is the one
// scheduler entry safe to call from any goroutine; handlers that finish
// work off-thread use it to get back.
func (s *Scheduler) Post(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.posted = append(s.posted, fn)
	s.mu.Unlock()
}

// Tick drains the mailbox and fires due timers. Called by the frame hook;
// due timers run in deadline order, ties in creation order, so a frame that
// covers several deadlines stays deterministic.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	posted := s.posted
	s.posted = nil
	s.mu.Unlock()
	for _, fn := range posted {
		runProtected("posted", fn)
	}

	now := s.clock.Now()
	var due []*timer
	for _, t := range s.timers {
		if !t.stopped && t.deadline <= now {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline != due[j].deadline {
			return due[i].deadline < due[j].deadline
		}
		return due[i].id < due[j].id
	})
	for _, t := range due {
		if t.stopped {
			continue
		}
		if t.period > 0 {
			t.deadline = now + t.period
		} else {
			t.stopped = true
			delete(s.timers, t.id)
		}
		runProtected("timer", t.fn)
	}
}

// StopAll drops every pending timer and posted callback. Used at map
// change; callbacks scheduled for a world that no longer exists must not
// fire into the next one.
func (s *Scheduler) StopAll() {
	for id, t := range s.timers {
		t.stopped = true
		delete(s.timers, id)
	}
	s.mu.Lock()
	s.posted = nil
	s.mu.Unlock()
}

// Pending reports how many timers are armed.
func (s *Scheduler) Pending() int { return len(s.timers) }

func runProtected(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("scheduled callback panic", "kind", kind, "panic", r)
		}
	}()
	fn()
}
