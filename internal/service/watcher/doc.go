// Package watcher reports edits of the alarms file so the daemon can rerun
// its scheduling pass. Bursts of filesystem events are coalesced into a
// single notification.
package watcher
