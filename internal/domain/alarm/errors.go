package alarm

import "errors"

var (
	// ErrResolutionAmbiguity is returned when a trigger instant cannot be
	// trusted, e.g. a required solar event is missing or the result is not in
	// the future. The alarm is skipped for the current pass.
	ErrResolutionAmbiguity = errors.New("alarm time is ambiguous")
	// ErrPermissionDenied is returned when precise timer scheduling is not
	// permitted by the platform.
	ErrPermissionDenied = errors.New("exact timer permission denied")
	// ErrPlatformFailure wraps unexpected failures of the timer platform.
	ErrPlatformFailure = errors.New("timer platform failure")
	// ErrValidation is returned for malformed alarm definitions.
	ErrValidation = errors.New("invalid alarm")
	// ErrNotFound is returned when an alarm does not exist.
	ErrNotFound = errors.New("alarm not found")
)
