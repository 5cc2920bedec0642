// Package daemon runs the alarm scheduler process: it wires the alarms file,
// the solar calculator, the in-process timers and the snooze lifecycle,
// reschedules on start, on a refresh interval and on alarm file edits, and
// serves the control API over gRPC.
package daemon
