// Package scheduler owns the single alarm timer slot. A scheduling pass loads
// the enabled alarms, selects the nearest one, persists its calculated time
// and arms the timer for it. Snoozes arm an explicit instant instead.
package scheduler
