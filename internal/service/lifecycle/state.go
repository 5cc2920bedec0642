package lifecycle

import (
	"errors"
	"time"
)

// ErrNotFiring is returned when snoozing or dismissing an alarm that is not ringing.
var ErrNotFiring = errors.New("alarm is not firing")

// State is the lifecycle state of one alarm.
type State int

// Lifecycle states.
const (
	StateScheduled State = iota
	StateFiring
	StateSnoozed
	StateDismissed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateFiring:
		return "firing"
	case StateSnoozed:
		return "snoozed"
	case StateDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Episode tracks an alarm from its arming to its dismissal.
type Episode struct {
	// ID is the alarm the episode belongs to.
	ID int64
	// State is the current lifecycle state.
	State State
	// Snoozes counts the snoozes taken in this episode.
	Snoozes int
	// Until is the instant the alarm is armed for while scheduled or snoozed.
	Until time.Time
}

// SnoozeOutcome reports the result of a snooze request.
type SnoozeOutcome struct {
	// Snoozed is set when the alarm was re-armed.
	Snoozed bool
	// LimitReached is set when snoozing was refused and the alarm dismissed instead.
	LimitReached bool
	// Count is the number of snoozes taken in the episode.
	Count int
	// Until is the instant the snoozed alarm fires again.
	Until time.Time
}
