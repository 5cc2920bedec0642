// Package alarms persists alarm definitions to a YAML file on disk.
//
// Each alarm is stored as a flat record: the mode name, two relative fields
// naming a solar event or "Pick Time", and two millisecond fields holding
// either an epoch instant (explicit anchors) or an offset (Before/After).
// Records are converted into alarm.Definition values and validated on every
// read and write; invalid records never leave the repository.
package alarms
