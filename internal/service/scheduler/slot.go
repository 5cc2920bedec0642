package scheduler

import (
	"sync"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
)

// slot remembers the single alarm the scheduler keeps armed.
type slot struct {
	// mu serializes arm and cancel effects on the slot.
	mu sync.Mutex
	// armed is set while a timer is believed to be pending.
	armed bool
	// current is the armed alarm and its instant.
	current alarm.Resolved
}

// get returns the armed alarm, if any.
func (s *slot) get() (alarm.Resolved, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current, s.armed
}

// set must be called with mu held.
func (s *slot) set(id int64, at time.Time) {
	s.armed = true
	s.current = alarm.Resolved{
		ID:        id,
		TriggerAt: at,
	}
}

// release empties the slot if it still holds id, reporting whether it did.
// Must be called with mu held.
func (s *slot) release(id int64) bool {
	if !s.armed || s.current.ID != id {
		return false
	}

	s.armed = false
	s.current = alarm.Resolved{}

	return true
}
