// Package lifecycle drives an alarm from firing through its snoozes to
// dismissal and turns user mutations into fresh scheduling passes.
//
// An alarm moves Scheduled → Firing → (Snoozed → Firing)* → Dismissed. The
// snooze counter lives in memory only and resets whenever a scheduling pass
// freshly arms the alarm.
package lifecycle
