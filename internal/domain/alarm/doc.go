// Package alarm contains core domain types for the alarm scheduling logic.
//
// It defines Definition (a user alarm with its timing mode, weekdays and
// snooze settings), the closed set of timing modes (At, Before, After,
// Between), solar events with the SolarTable that carries their instants for
// one day, and the error taxonomy shared by the resolver, selector, scheduler
// and snooze lifecycle.
package alarm
