package selector

import (
	"fmt"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/service/resolver"
)

// Skip records an alarm left out of a selection pass.
type Skip struct {
	// ID identifies the skipped alarm.
	ID int64
	// Reason explains why the alarm was skipped.
	Reason error
}

// Result is the outcome of a selection pass.
type Result struct {
	// Next is the alarm to arm, nil when no alarm qualifies.
	Next *alarm.Resolved
	// Candidates holds every alarm that resolved to a future instant.
	Candidates []alarm.Resolved
	// Skipped holds alarms that failed to resolve in this pass.
	Skipped []Skip
}

// SelectNext resolves every enabled alarm and returns the one with the
// earliest future trigger instant, ties going to the lowest ID.
// A failure of one alarm never aborts the pass for the others.
func SelectNext(defs []*alarm.Definition, table *alarm.SolarTable, now time.Time) Result {
	var result Result

	for _, def := range defs {
		if def == nil || !def.Enabled {
			continue
		}

		triggerAt, err := resolver.Resolve(def, table, now)
		if err != nil {
			result.Skipped = append(result.Skipped, Skip{ID: def.ID, Reason: err})
			continue
		}

		if !triggerAt.After(now) {
			result.Skipped = append(result.Skipped, Skip{
				ID:     def.ID,
				Reason: fmt.Errorf("%w: resolved %s is not after %s", alarm.ErrResolutionAmbiguity, triggerAt, now),
			})

			continue
		}

		candidate := alarm.Resolved{ID: def.ID, TriggerAt: triggerAt}
		result.Candidates = append(result.Candidates, candidate)

		if result.Next == nil || earlier(candidate, *result.Next) {
			next := candidate
			result.Next = &next
		}
	}

	return result
}

func earlier(a, b alarm.Resolved) bool {
	if a.TriggerAt.Equal(b.TriggerAt) {
		return a.ID < b.ID
	}

	return a.TriggerAt.Before(b.TriggerAt)
}
