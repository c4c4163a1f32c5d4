package timer

import (
	"fmt"
	"sync"
	"time"
)

// ID identifies one logical timer.
type ID uint8

// String returns the numeric timer id.
func (id ID) String() string {
	return fmt.Sprintf("timer-%d", uint8(id))
}

// FireFunc is called when a timer expires.
type FireFunc func(id ID)

// Arming records one Arm call.
type Arming struct {
	ID       ID
	Duration time.Duration
	At       time.Time
}

type entry struct {
	t        *time.Timer
	gen      uint64
	deadline time.Time
}

// Scheduler is a wall-clock timer service backed by time.AfterFunc.
// It is safe for concurrent use.
type Scheduler struct {
	mu     sync.Mutex
	timers map[ID]*entry
	gen    uint64
	onFire FireFunc
}

// NewScheduler creates a Scheduler with no timers running.
func NewScheduler() *Scheduler {
	return &Scheduler{
		timers: make(map[ID]*entry),
	}
}

// OnFire sets the expiry callback.
func (s *Scheduler) OnFire(fn FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFire = fn
}

// Arm starts or restarts timer id. A duration <= 0 stops the timer.
func (s *Scheduler) Arm(id ID, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[id]; ok {
		existing.t.Stop()
		delete(s.timers, id)
	}
	if d <= 0 {
		return
	}

	s.gen++
	gen := s.gen
	s.timers[id] = &entry{
		gen:      gen,
		deadline: time.Now().Add(d),
		t: time.AfterFunc(d, func() {
			s.expire(id, gen)
		}),
	}
}

// StopAll cancels every running timer.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.timers {
		e.t.Stop()
		delete(s.timers, id)
	}
}

// Active reports whether timer id is running.
func (s *Scheduler) Active(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

// Remaining returns the time left on timer id, or 0 if it is not running.
func (s *Scheduler) Remaining(id ID) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.timers[id]
	if !ok {
		return 0
	}
	if r := time.Until(e.deadline); r > 0 {
		return r
	}
	return 0
}

// expire runs on the AfterFunc goroutine. A generation mismatch means the
// timer was re-armed or stopped after this callback was scheduled.
func (s *Scheduler) expire(id ID, gen uint64) {
	s.mu.Lock()
	e, ok := s.timers[id]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	fn := s.onFire
	s.mu.Unlock()

	if fn != nil {
		fn(id)
	}
}
