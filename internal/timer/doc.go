// Package timer provides an in-process exact timer capability backed by
// time.AfterFunc. Timers are keyed by alarm ID; re-arming an ID replaces its
// pending timer, and callbacks of replaced timers never run.
package timer
