// Package config defines the settings shared by the scheduler daemon and the
// control client, and provides helpers to load, validate and save them in
// YAML format.
//
// The Config type holds the control API address, the alarms file, the
// observer location used for solar events and the scheduling intervals.
package config
