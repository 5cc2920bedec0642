package alarm

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation bounds.
const (
	MaxLabelLength    = 100
	MinSnoozeDuration = 5 * time.Minute
	MaxSnoozeDuration = 30 * time.Minute
	MinSnoozeCount    = 1
	MaxSnoozeCount    = 10
	MaxVolume         = 100
)

var (
	errEmptyLabel        = errors.New("alarm label cannot be empty")
	errLabelTooLong      = fmt.Errorf("alarm label is too long (max %d characters)", MaxLabelLength)
	errInvalidID         = errors.New("alarm id must be positive")
	errModeNotSet        = errors.New("alarm mode is not set")
	errTimeNotSet        = errors.New("alarm time is not set")
	errNegativeOffset    = errors.New("offset cannot be negative")
	errBetweenOrder      = errors.New("second anchor is before the first one")
	errSnoozeDuration    = fmt.Errorf("snooze duration must be between %s and %s", MinSnoozeDuration, MaxSnoozeDuration)
	errSnoozeCount       = fmt.Errorf("snooze count must be between %d and %d", MinSnoozeCount, MaxSnoozeCount)
	errVolume            = fmt.Errorf("volume must be between 0 and %d", MaxVolume)
	errLatitudeRange     = errors.New("latitude must be between -90 and 90")
	errLongitudeRange    = errors.New("longitude must be between -180 and 180")
	errUnknownSolarEvent = errors.New("unknown solar event")
)

// SanitizeLabel trims the label and cuts it to MaxLabelLength characters.
func SanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if utf8.RuneCountInString(label) <= MaxLabelLength {
		return label
	}

	return string([]rune(label)[:MaxLabelLength])
}

// Validate checks a definition before it is written. All problems are
// reported at once, wrapped in ErrValidation.
func Validate(d *Definition) error {
	var problems []error

	if d.ID <= 0 {
		problems = append(problems, errInvalidID)
	}

	label := strings.TrimSpace(d.Label)

	switch {
	case label == "":
		problems = append(problems, errEmptyLabel)
	case utf8.RuneCountInString(label) > MaxLabelLength:
		problems = append(problems, errLabelTooLong)
	}

	problems = append(problems, validateMode(d.Mode)...)

	if d.Snooze.Duration < MinSnoozeDuration || d.Snooze.Duration > MaxSnoozeDuration {
		problems = append(problems, errSnoozeDuration)
	}

	if d.Snooze.MaxCount < MinSnoozeCount || d.Snooze.MaxCount > MaxSnoozeCount {
		problems = append(problems, errSnoozeCount)
	}

	if d.Volume < 0 || d.Volume > MaxVolume {
		problems = append(problems, errVolume)
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrValidation, errors.Join(problems...))
}

func validateMode(mode Mode) []error {
	if mode == nil {
		return []error{errModeNotSet}
	}

	var problems []error

	for _, anchor := range mode.Anchors() {
		if !anchor.event.valid() {
			problems = append(problems, errUnknownSolarEvent)
		}

		if anchor.IsExplicit() && anchor.at.IsZero() {
			problems = append(problems, errTimeNotSet)
		}
	}

	switch m := mode.(type) {
	case Before:
		if m.Offset < 0 {
			problems = append(problems, errNegativeOffset)
		}
	case After:
		if m.Offset < 0 {
			problems = append(problems, errNegativeOffset)
		}
	case Between:
		if secondBeforeFirst(m.First, m.Second) {
			problems = append(problems, errBetweenOrder)
		}
	}

	return problems
}

// secondBeforeFirst compares anchors of the same kind. Solar events follow
// their daily order, explicit anchors their time of day. Mixed pairs depend
// on the day and are not compared.
func secondBeforeFirst(first, second Anchor) bool {
	switch {
	case first.IsExplicit() && second.IsExplicit():
		return timeOfDay(second.at) < timeOfDay(first.at)
	case !first.IsExplicit() && !second.IsExplicit():
		return second.event < first.event
	default:
		return false
	}
}

func timeOfDay(t time.Time) time.Duration {
	hour, minute, second := t.Clock()

	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second
}

// ValidateCoordinates checks a latitude/longitude pair.
func ValidateCoordinates(latitude, longitude float64) error {
	var problems []error

	if latitude < -90 || latitude > 90 {
		problems = append(problems, errLatitudeRange)
	}

	if longitude < -180 || longitude > 180 {
		problems = append(problems, errLongitudeRange)
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrValidation, errors.Join(problems...))
}
