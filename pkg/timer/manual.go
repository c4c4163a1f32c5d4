package timer

import (
	"sort"
	"sync"
	"time"
)

// Manual is a timer service driven by a virtual clock. Time only advances
// through Advance, and expired timers fire synchronously on the caller's
// goroutine in deadline order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	pending map[ID]time.Time
	history []Arming
	onFire  FireFunc
}

// NewManual creates a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:     start,
		pending: make(map[ID]time.Time),
	}
}

// OnFire sets the expiry callback.
func (m *Manual) OnFire(fn FireFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFire = fn
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Arm starts or restarts timer id. A duration <= 0 stops the timer.
func (m *Manual) Arm(id ID, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, Arming{ID: id, Duration: d, At: m.now})
	if d <= 0 {
		delete(m.pending, id)
		return
	}
	m.pending[id] = m.now.Add(d)
}

// Active reports whether timer id is running.
func (m *Manual) Active(id ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[id]
	return ok
}

// Remaining returns the virtual time left on timer id.
func (m *Manual) Remaining(id ID) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	deadline, ok := m.pending[id]
	if !ok {
		return 0
	}
	return deadline.Sub(m.now)
}

// History returns every Arm call made so far.
func (m *Manual) History() []Arming {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Arming, len(m.history))
	copy(out, m.history)
	return out
}

// LastArm returns the most recent Arm call for id.
func (m *Manual) LastArm(id ID) (Arming, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].ID == id {
			return m.history[i], true
		}
	}
	return Arming{}, false
}

// Fire expires timer id immediately if it is running.
func (m *Manual) Fire(id ID) bool {
	m.mu.Lock()
	if _, ok := m.pending[id]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.pending, id)
	fn := m.onFire
	m.mu.Unlock()

	if fn != nil {
		fn(id)
	}
	return true
}

// Advance moves the clock forward by d, firing every timer whose deadline
// falls within the window. Timers armed by a callback are considered too
// if they become due before the end of the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	end := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		id, deadline, ok := m.nextDue(end)
		if !ok {
			m.now = end
			m.mu.Unlock()
			return
		}
		m.now = deadline
		delete(m.pending, id)
		fn := m.onFire
		m.mu.Unlock()

		if fn != nil {
			fn(id)
		}
	}
}

// nextDue returns the earliest timer due at or before end. Ties are broken
// by ID so firing order is deterministic. Caller holds m.mu.
func (m *Manual) nextDue(end time.Time) (ID, time.Time, bool) {
	ids := make([]ID, 0, len(m.pending))
	for id, deadline := range m.pending {
		if !deadline.After(end) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, time.Time{}, false
	}
	sort.Slice(ids, func(i, j int) bool {
		di, dj := m.pending[ids[i]], m.pending[ids[j]]
		if di.Equal(dj) {
			return ids[i] < ids[j]
		}
		return di.Before(dj)
	})
	return ids[0], m.pending[ids[0]], true
}
