package scheduler

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrShutdown is returned by Schedule after the scheduler was shut down.
var ErrShutdown = errors.New("scheduler is shut down")

// Handle identifies one pending timer.
type Handle = uuid.UUID

type pending struct {
	timer    *time.Timer
	name     string
	fireAt   time.Time
	callback func()
}

// Scheduler fires callbacks at specific wall-clock instants. Each timer
// fires exactly once, on its own goroutine; a deadline in the past fires
// immediately. Callback panics are logged, never propagated, so one bad
// callback cannot stop other timers.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[Handle]*pending
	stopped bool
}

// New creates a ready Scheduler.
func New() *Scheduler {
	return &Scheduler{timers: make(map[Handle]*pending)}
}

// Schedule registers fn to run at fireAt. The name is used only for
// logging. Returns the handle to cancel the timer before it fires.
func (s *Scheduler) Schedule(fireAt time.Time, name string, fn func()) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return uuid.Nil, ErrShutdown
	}

	id := uuid.New()
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}
	p := &pending{name: name, fireAt: fireAt, callback: fn}
	p.timer = time.AfterFunc(delay, func() { s.fire(id) })
	s.timers[id] = p

	log.Printf("[INFO] scheduled %q at %s (in %s)", name, fireAt.Format(time.RFC3339), delay.Round(time.Second))
	return id, nil
}

func (s *Scheduler) fire(id Handle) {
	s.mu.Lock()
	p, ok := s.timers[id]
	if ok {
		delete(s.timers, id)
	}
	stopped := s.stopped
	s.mu.Unlock()

	if !ok || stopped {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] scheduled task %q panicked: %v", p.name, r)
		}
	}()
	p.callback()
}

// Cancel stops a pending timer. Returns false if it already fired or
// was cancelled.
func (s *Scheduler) Cancel(id Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.timers[id]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.timers, id)
	return true
}

// CancelAll stops every pending timer and returns how many were cancelled.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.timers)
	for id, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, id)
	}
	return n
}

// Shutdown cancels all pending timers and makes the scheduler inert;
// further Schedule calls return ErrShutdown.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, id)
	}
	s.stopped = true
	log.Println("[INFO] timer scheduler shut down")
}

// Pending returns the number of timers waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
