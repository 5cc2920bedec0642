package alarm

import (
	"fmt"
	"strings"
	"time"
)

// SolarEvent names a daily astronomical instant.
// The zero value marks an explicitly picked time instead of a solar event.
type SolarEvent int

// Solar events in their chronological order within a day.
const (
	EventExplicit SolarEvent = iota
	AstronomicalDawn
	NauticalDawn
	CivilDawn
	Sunrise
	SolarNoon
	Sunset
	CivilDusk
	NauticalDusk
	AstronomicalDusk
)

// solarEventCount is the number of real solar events (EventExplicit excluded).
const solarEventCount = int(AstronomicalDusk)

// ExplicitTimeName is the persisted name of EventExplicit.
const ExplicitTimeName = "Pick Time"

//nolint:gochecknoglobals // Read-only lookup table.
var solarEventNames = [...]string{
	EventExplicit:    ExplicitTimeName,
	AstronomicalDawn: "Astronomical Dawn",
	NauticalDawn:     "Nautical Dawn",
	CivilDawn:        "Civil Dawn",
	Sunrise:          "Sunrise",
	SolarNoon:        "Solar Noon",
	Sunset:           "Sunset",
	CivilDusk:        "Civil Dusk",
	NauticalDusk:     "Nautical Dusk",
	AstronomicalDusk: "Astronomical Dusk",
}

// SolarEvents returns the nine solar events in chronological order.
func SolarEvents() []SolarEvent {
	events := make([]SolarEvent, 0, solarEventCount)
	for ev := AstronomicalDawn; ev <= AstronomicalDusk; ev++ {
		events = append(events, ev)
	}

	return events
}

// String returns the human-readable event name.
func (e SolarEvent) String() string {
	if !e.valid() {
		return fmt.Sprintf("SolarEvent(%d)", int(e))
	}

	return solarEventNames[e]
}

// IsSolar reports whether e refers to a real solar event.
func (e SolarEvent) IsSolar() bool {
	return e >= AstronomicalDawn && e <= AstronomicalDusk
}

func (e SolarEvent) valid() bool {
	return e >= EventExplicit && e <= AstronomicalDusk
}

// ParseSolarEvent converts a persisted name into a SolarEvent.
// Matching ignores case, surrounding spaces, dashes and underscores, so
// "civil_dawn" and "Civil Dawn" are the same event. An empty string is the
// explicit time sentinel.
func ParseSolarEvent(s string) (SolarEvent, error) {
	key := normalizeEventName(s)
	if key == "" {
		return EventExplicit, nil
	}

	for ev, name := range solarEventNames {
		if normalizeEventName(name) == key {
			return SolarEvent(ev), nil
		}
	}

	return EventExplicit, fmt.Errorf("%w: unknown solar event %q", ErrValidation, s)
}

func normalizeEventName(s string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")

	return strings.ToLower(replacer.Replace(strings.TrimSpace(s)))
}

// SolarTable carries the instants of the solar events for a single day.
// Events the source could not provide (e.g. no astronomical dusk in summer at
// high latitudes) stay unset.
type SolarTable struct {
	// UpdatedAt is when the table was produced by its source.
	UpdatedAt time.Time

	events [solarEventCount]time.Time
}

// NewSolarTable creates an empty table stamped with updatedAt.
func NewSolarTable(updatedAt time.Time) *SolarTable {
	return &SolarTable{UpdatedAt: updatedAt}
}

// Set stores the instant of a solar event. Non-solar events are ignored.
func (t *SolarTable) Set(ev SolarEvent, at time.Time) {
	if !ev.IsSolar() {
		return
	}

	t.events[ev-AstronomicalDawn] = at
}

// Get returns the instant of a solar event and whether it is set.
func (t *SolarTable) Get(ev SolarEvent) (time.Time, bool) {
	if t == nil || !ev.IsSolar() {
		return time.Time{}, false
	}

	at := t.events[ev-AstronomicalDawn]

	return at, !at.IsZero()
}

// Clone returns a copy of the table.
func (t *SolarTable) Clone() *SolarTable {
	if t == nil {
		return nil
	}

	cloned := *t

	return &cloned
}
