package alarm

import (
	"fmt"
	"strings"
	"time"
)

// Snooze and playback defaults applied to new alarms.
const (
	DefaultSnoozeDuration = 10 * time.Minute
	DefaultSnoozeMaxCount = 3
	DefaultVolume         = 80
	DefaultRingtone       = "Default"
)

// Weekdays holds the days an alarm may fire on, indexed by time.Weekday
// (0 = Sunday). No day set means a one-time alarm.
type Weekdays [7]bool

// WeekdaysOf returns a Weekdays value with the given days set.
func WeekdaysOf(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, day := range days {
		w[day] = true
	}

	return w
}

// EveryDay returns a Weekdays value with all days set.
func EveryDay() Weekdays {
	return Weekdays{true, true, true, true, true, true, true}
}

// Any reports whether at least one day is set.
func (w Weekdays) Any() bool {
	for _, on := range w {
		if on {
			return true
		}
	}

	return false
}

// On reports whether the alarm may fire on the given day.
func (w Weekdays) On(day time.Weekday) bool {
	return w[day]
}

// Days returns the set days in week order.
func (w Weekdays) Days() []time.Weekday {
	days := make([]time.Weekday, 0, len(w))
	for i, on := range w {
		if on {
			days = append(days, time.Weekday(i))
		}
	}

	return days
}

// Names returns the lower-case English names of the set days.
func (w Weekdays) Names() []string {
	days := w.Days()
	if len(days) == 0 {
		return nil
	}

	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, strings.ToLower(day.String()))
	}

	return names
}

// ParseWeekday accepts full and three-letter English day names in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	for day := time.Sunday; day <= time.Saturday; day++ {
		full := strings.ToLower(day.String())
		if key == full || key == full[:3] {
			return day, nil
		}
	}

	return time.Sunday, fmt.Errorf("%w: unknown weekday %q", ErrValidation, name)
}

// SnoozeSettings controls the snooze behaviour of an alarm.
type SnoozeSettings struct {
	// Enabled allows snoozing at all.
	Enabled bool
	// Duration is the delay of a single snooze.
	Duration time.Duration
	// MaxCount bounds the snoozes within one firing episode.
	MaxCount int
}

// DefaultSnooze returns the snooze settings new alarms start with.
func DefaultSnooze() SnoozeSettings {
	return SnoozeSettings{
		Enabled:  true,
		Duration: DefaultSnoozeDuration,
		MaxCount: DefaultSnoozeMaxCount,
	}
}

// Definition is a user alarm as stored by the alarm repository.
// The scheduling engine reads copies and writes back only CalculatedTime
// and Enabled through the repository.
type Definition struct {
	// ID is the stable identifier of the alarm.
	ID int64
	// Label is the user-visible name.
	Label string
	// Mode is the timing strategy with its anchors.
	Mode Mode
	// CalculatedTime is the last resolved trigger instant.
	CalculatedTime time.Time
	// Weekdays are the days the alarm repeats on.
	Weekdays Weekdays
	// Enabled alarms take part in scheduling.
	Enabled bool
	// Snooze holds the snooze settings.
	Snooze SnoozeSettings

	// Volume, GradualVolume, Vibrate and Ringtone are consumed by playback.
	Volume        int
	GradualVolume bool
	Vibrate       bool
	Ringtone      string
}

// Clone returns a copy of the definition.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}

	cloned := *d

	return &cloned
}

// IsRepeating reports whether at least one weekday is set.
func (d *Definition) IsRepeating() bool {
	return d.Weekdays.Any()
}

// UsesSolarEvents reports whether any anchor of the mode is a solar event.
func (d *Definition) UsesSolarEvents() bool {
	if d.Mode == nil {
		return false
	}

	for _, anchor := range d.Mode.Anchors() {
		if !anchor.IsExplicit() {
			return true
		}
	}

	return false
}

// Resolved is the outcome of a selection pass: the alarm to arm and when.
type Resolved struct {
	ID        int64
	TriggerAt time.Time
}
