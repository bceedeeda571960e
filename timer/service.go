// Package timer schedules wake-ups for script callbacks. A fired timer is
// delivered to the session loop as an event.TimerFired; the callback
// itself never leaves the Lua engine.
package timer

import (
	"sync"
	"time"

	"github.com/drake/wsecho/event"
)

// Service owns timer IDs, scheduling, repetition and cancellation.
// Repeating timers use fixed-interval semantics: they are rescheduled as
// soon as they fire, not when the callback finishes.
type Service struct {
	mu     sync.Mutex
	out    chan<- event.Event
	done   <-chan struct{}
	timers map[int]*entry
	nextID int
}

type entry struct {
	every time.Duration // 0 for one-shot timers
	t     *time.Timer
}

// NewService creates a timer service that posts fired timers to out.
// One-shot timers wait for room on out until done is closed.
func NewService(out chan<- event.Event, done <-chan struct{}) *Service {
	return &Service{
		out:    out,
		done:   done,
		timers: make(map[int]*entry),
	}
}

// After schedules a one-shot timer and returns its ID.
func (s *Service) After(d time.Duration) int {
	return s.schedule(d, 0)
}

// Every schedules a repeating timer and returns its ID.
func (s *Service) Every(d time.Duration) int {
	return s.schedule(d, d)
}

func (s *Service) schedule(d, every time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.timers[id] = &entry{
		every: every,
		t:     time.AfterFunc(d, func() { s.fire(id) }),
	}
	return id
}

func (s *Service) fire(id int) {
	s.mu.Lock()
	e, ok := s.timers[id]
	if !ok {
		s.mu.Unlock()
		return // cancelled while the timer was firing
	}
	repeating := e.every > 0
	if repeating {
		e.t = time.AfterFunc(e.every, func() { s.fire(id) })
	} else {
		delete(s.timers, id)
	}
	s.mu.Unlock()

	ev := event.Event{Type: event.TimerFired, Timer: id, Repeating: repeating}
	if repeating {
		select {
		case s.out <- ev:
		default:
			// Loop is saturated; the next tick will come round.
		}
		return
	}

	// The entry is gone, so this event is the only thing that releases
	// the callback.
	select {
	case s.out <- ev:
	case <-s.done:
	}
}

// Cancel stops a timer. It reports whether the timer was still pending.
func (s *Service) Cancel(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.timers[id]
	if !ok {
		return false
	}
	e.t.Stop()
	delete(s.timers, id)
	return true
}

// CancelAll stops every timer.
func (s *Service) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.timers {
		e.t.Stop()
	}
	s.timers = make(map[int]*entry)
}

// Active returns the number of pending timers.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
