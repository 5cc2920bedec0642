// Package catalog implements the offline actions of alarm-ctl: adding alarm
// definitions to the alarms file and previewing when each alarm would ring.
// It works on the file directly; a running scheduler picks changes up
// through its file watcher.
package catalog
