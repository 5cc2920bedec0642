package alarm

import (
	"fmt"
	"time"
)

// ModeKind is the persisted name of an alarm timing mode.
type ModeKind string

// Supported timing modes.
const (
	ModeAt      ModeKind = "At"
	ModeBefore  ModeKind = "Before"
	ModeAfter   ModeKind = "After"
	ModeBetween ModeKind = "Between"
)

// Anchor is the point a timing mode is computed from: either an explicitly
// picked instant or a named solar event.
type Anchor struct {
	event SolarEvent
	at    time.Time
}

// ExplicitAnchor returns an anchor pinned to a picked instant.
// Only the time of day matters for the rollover search; the date is the day
// the time was picked.
func ExplicitAnchor(at time.Time) Anchor {
	return Anchor{
		event: EventExplicit,
		at:    at,
	}
}

// SolarAnchor returns an anchor that follows a solar event.
func SolarAnchor(ev SolarEvent) Anchor {
	return Anchor{event: ev}
}

// IsExplicit reports whether the anchor is a picked instant.
func (a Anchor) IsExplicit() bool {
	return a.event == EventExplicit
}

// Event returns the solar event of the anchor, or EventExplicit.
func (a Anchor) Event() SolarEvent {
	return a.event
}

// Time returns the picked instant of an explicit anchor.
func (a Anchor) Time() time.Time {
	return a.at
}

// String returns the event name or the picked instant.
func (a Anchor) String() string {
	if a.IsExplicit() {
		return a.at.Format(time.RFC3339)
	}

	return a.event.String()
}

// Mode is the closed set of alarm timing strategies: At, Before, After and
// Between. Each variant carries exactly the fields it needs.
type Mode interface {
	// Kind returns the persisted mode name.
	Kind() ModeKind
	// Anchors lists the anchors the mode depends on.
	Anchors() []Anchor

	isMode()
}

// At fires at the anchor itself.
type At struct {
	Anchor Anchor
}

// Before fires Offset ahead of the anchor.
type Before struct {
	Anchor Anchor
	Offset time.Duration
}

// After fires Offset past the anchor.
type After struct {
	Anchor Anchor
	Offset time.Duration
}

// Between fires at the midpoint of two anchors.
type Between struct {
	First  Anchor
	Second Anchor
}

// NewBetween builds a Between mode from both of its anchors.
func NewBetween(first, second Anchor) Between {
	return Between{
		First:  first,
		Second: second,
	}
}

// Kind implements Mode.
func (At) Kind() ModeKind { return ModeAt }

// Kind implements Mode.
func (Before) Kind() ModeKind { return ModeBefore }

// Kind implements Mode.
func (After) Kind() ModeKind { return ModeAfter }

// Kind implements Mode.
func (Between) Kind() ModeKind { return ModeBetween }

// Anchors implements Mode.
func (m At) Anchors() []Anchor { return []Anchor{m.Anchor} }

// Anchors implements Mode.
func (m Before) Anchors() []Anchor { return []Anchor{m.Anchor} }

// Anchors implements Mode.
func (m After) Anchors() []Anchor { return []Anchor{m.Anchor} }

// Anchors implements Mode.
func (m Between) Anchors() []Anchor { return []Anchor{m.First, m.Second} }

func (At) isMode()      {}
func (Before) isMode()  {}
func (After) isMode()   {}
func (Between) isMode() {}

// ParseModeKind converts a persisted mode name into a ModeKind.
func ParseModeKind(s string) (ModeKind, error) {
	switch kind := ModeKind(s); kind {
	case ModeAt, ModeBefore, ModeAfter, ModeBetween:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: invalid alarm mode %q", ErrValidation, s)
	}
}
