package resolver

import (
	"fmt"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
)

const daysPerWeek = 7

// Resolve returns the next instant, strictly after now, the alarm should fire at.
// The location of now is the local zone used for calendar arithmetic.
//
// A solar anchor missing from the table yields alarm.ErrResolutionAmbiguity;
// the instant is never guessed.
func Resolve(def *alarm.Definition, table *alarm.SolarTable, now time.Time) (time.Time, error) {
	base, err := BaseTime(def.Mode, table, now)
	if err != nil {
		return time.Time{}, err
	}

	return Rollover(base, def.Weekdays, now), nil
}

// BaseTime computes the mode-specific trigger candidate before the weekday
// rollover is applied.
func BaseTime(mode alarm.Mode, table *alarm.SolarTable, now time.Time) (time.Time, error) {
	switch m := mode.(type) {
	case alarm.At:
		return anchorTime(m.Anchor, table, now)
	case alarm.After:
		anchor, err := anchorTime(m.Anchor, table, now)
		if err != nil {
			return time.Time{}, err
		}

		return anchor.Add(m.Offset), nil
	case alarm.Before:
		anchor, err := anchorTime(m.Anchor, table, now)
		if err != nil {
			return time.Time{}, err
		}

		return anchor.Add(-m.Offset), nil
	case alarm.Between:
		return midpoint(m, table, now)
	case nil:
		return time.Time{}, fmt.Errorf("%w: mode is not set", alarm.ErrValidation)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported mode %T", alarm.ErrValidation, mode)
	}
}

// Rollover moves base forward by whole days until it is after now, then onto
// the first enabled weekday. With no weekday enabled the future candidate is
// returned as is, so a one-time alarm fires on its next natural occurrence.
func Rollover(base time.Time, weekdays alarm.Weekdays, now time.Time) time.Time {
	candidate := base.In(now.Location())

	// Skip whole elapsed days at once; stale explicit picks can be years old.
	if behind := int(now.Sub(candidate) / (24 * time.Hour)); behind > 1 {
		candidate = candidate.AddDate(0, 0, behind-1)
	}

	for !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}

	if !weekdays.Any() {
		return candidate
	}

	start := int(candidate.Weekday())
	for i := range daysPerWeek {
		if weekdays[(start+i)%daysPerWeek] {
			return candidate.AddDate(0, 0, i)
		}
	}

	return candidate
}

// anchorTime returns the explicit instant verbatim, or the solar event
// normalized onto today's date.
func anchorTime(anchor alarm.Anchor, table *alarm.SolarTable, now time.Time) (time.Time, error) {
	if anchor.IsExplicit() {
		if anchor.Time().IsZero() {
			return time.Time{}, fmt.Errorf("%w: explicit time is not set", alarm.ErrValidation)
		}

		return anchor.Time(), nil
	}

	at, ok := table.Get(anchor.Event())
	if !ok {
		return time.Time{}, fmt.Errorf("%w: solar event %q is unavailable", alarm.ErrResolutionAmbiguity, anchor.Event())
	}

	return Normalize(at, now), nil
}

// midpoint places both anchors on today's date and returns the instant
// halfway between them, a day later when it is already past.
func midpoint(m alarm.Between, table *alarm.SolarTable, now time.Time) (time.Time, error) {
	first, err := anchorTime(m.First, table, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("first anchor: %w", err)
	}

	second, err := anchorTime(m.Second, table, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("second anchor: %w", err)
	}

	first = Normalize(first, now)
	second = Normalize(second, now)

	mid := first.Add(second.Sub(first) / 2)
	if !mid.After(now) {
		mid = mid.AddDate(0, 0, 1)
	}

	return mid, nil
}

// Normalize keeps the local hour and minute of at and moves them onto the
// calendar date of now. Cached tables from previous days still produce a
// today instant, and time.Date picks the DST offset valid for that wall clock.
func Normalize(at, now time.Time) time.Time {
	loc := now.Location()
	local := at.In(loc)
	year, month, day := now.Date()

	return time.Date(year, month, day, local.Hour(), local.Minute(), 0, 0, loc)
}
